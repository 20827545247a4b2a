// SPDX-License-Identifier: MPL-2.0

package archive

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"

	"github.com/nwaples/rardecode/v2"
)

func extractRar(ctx context.Context, archivePath, destination string, t *tally) error {
	r, err := rardecode.OpenReader(archivePath)
	if err != nil {
		return &CorruptArchiveError{Archive: archivePath, Cause: err}
	}
	defer r.Close()

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		hdr, err := r.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return &CorruptArchiveError{Archive: archivePath, Cause: err}
		}

		target, err := entryPath(archivePath, destination, hdr.Name)
		if err != nil {
			return err
		}

		switch {
		case hdr.Mode()&os.ModeSymlink != 0:
			t.symlinks = append(t.symlinks, hdr.Name)
		case hdr.IsDir:
			if err := os.MkdirAll(target, 0o755); err != nil {
				return err
			}
		default:
			if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
				return err
			}
			n, err := writeRarEntry(r, target, hdr.Mode().Perm())
			if err != nil {
				return &CorruptArchiveError{Archive: archivePath, Entry: hdr.Name, Cause: err}
			}
			t.files++
			t.bytes += n
		}
	}
}

func writeRarEntry(r io.Reader, target string, perm os.FileMode) (int64, error) {
	out, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, perm|0o200)
	if err != nil {
		return 0, err
	}
	n, err := io.Copy(out, r)
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	return n, err
}
