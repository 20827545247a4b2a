// SPDX-License-Identifier: MPL-2.0

package archive

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/bodgit/sevenzip"
)

// extractSevenZip unpacks a 7z container. Entries are processed in archive
// order: 7z solid blocks decompress sequentially, so random access would
// re-decompress the block once per file.
func extractSevenZip(ctx context.Context, archivePath, destination string, t *tally) error {
	r, err := sevenzip.OpenReader(archivePath)
	if err != nil {
		return &CorruptArchiveError{Archive: archivePath, Cause: err}
	}
	defer r.Close()

	for _, f := range r.File {
		if err := ctx.Err(); err != nil {
			return err
		}
		target, err := entryPath(archivePath, destination, f.Name)
		if err != nil {
			return err
		}
		info := f.FileInfo()
		switch {
		case info.Mode()&os.ModeSymlink != 0:
			t.symlinks = append(t.symlinks, f.Name)
		case info.IsDir():
			if err := os.MkdirAll(target, 0o755); err != nil {
				return err
			}
		default:
			if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
				return err
			}
			n, err := writeSevenZipEntry(f, target)
			if err != nil {
				return &CorruptArchiveError{Archive: archivePath, Entry: f.Name, Cause: err}
			}
			t.files++
			t.bytes += n
		}
	}
	return nil
}

func writeSevenZipEntry(f *sevenzip.File, target string) (int64, error) {
	rc, err := f.Open()
	if err != nil {
		return 0, err
	}
	defer rc.Close()

	out, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, f.Mode().Perm()|0o200)
	if err != nil {
		return 0, err
	}
	n, err := io.Copy(out, rc)
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	return n, err
}
