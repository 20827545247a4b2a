// SPDX-License-Identifier: MPL-2.0

package archive

import (
	"archive/tar"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/gzip"
	"github.com/ulikunitz/xz"
)

// extractTar handles plain, gzip- and xz-compressed tar streams. Tar is a
// sequential format, so entries are written in stream order; the worker
// pool only applies to the random-access containers.
func extractTar(ctx context.Context, archivePath, destination string, format Format, t *tally) error {
	f, err := os.Open(archivePath)
	if err != nil {
		return err
	}
	defer f.Close()

	var stream io.Reader = f
	switch format {
	case FormatTarGz:
		gz, err := gzip.NewReader(f)
		if err != nil {
			return &CorruptArchiveError{Archive: archivePath, Cause: err}
		}
		defer gz.Close()
		stream = gz
	case FormatTarXz:
		xr, err := xz.NewReader(f)
		if err != nil {
			return &CorruptArchiveError{Archive: archivePath, Cause: err}
		}
		stream = xr
	}

	tr := tar.NewReader(stream)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		hdr, err := tr.Next()
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

		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, 0o755); err != nil {
				return err
			}
		case tar.TypeSymlink, tar.TypeLink:
			t.symlinks = append(t.symlinks, hdr.Name)
		case tar.TypeReg:
			if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
				return err
			}
			n, err := writeTarEntry(tr, target, hdr.FileInfo().Mode().Perm())
			if err != nil {
				return &CorruptArchiveError{Archive: archivePath, Entry: hdr.Name, Cause: err}
			}
			t.files++
			t.bytes += n
		}
	}
}

func writeTarEntry(tr *tar.Reader, target string, perm os.FileMode) (int64, error) {
	out, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, perm|0o200)
	if err != nil {
		return 0, err
	}
	n, err := io.Copy(out, tr)
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	return n, err
}
