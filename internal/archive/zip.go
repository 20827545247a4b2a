// SPDX-License-Identifier: MPL-2.0

package archive

import (
	"archive/zip"
	"context"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"sync"

	"golang.org/x/sync/errgroup"
)

// extractWorkers bounds the worker pool used for parallel entry extraction.
var extractWorkers = runtime.GOMAXPROCS(0)

func extractZip(ctx context.Context, archivePath, destination string, t *tally) error {
	r, err := zip.OpenReader(archivePath)
	if err != nil {
		return &CorruptArchiveError{Archive: archivePath, Cause: err}
	}
	defer r.Close()

	type job struct {
		file   *zip.File
		target string
	}

	// Validate every entry and create directories up front so file
	// placement never races directory creation within a subtree.
	jobs := make([]job, 0, len(r.File))
	for _, f := range r.File {
		target, err := entryPath(archivePath, destination, f.Name)
		if err != nil {
			return err
		}
		mode := f.Mode()
		switch {
		case mode&os.ModeSymlink != 0:
			t.symlinks = append(t.symlinks, f.Name)
		case f.FileInfo().IsDir():
			if err := os.MkdirAll(target, 0o755); err != nil {
				return err
			}
		default:
			if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
				return err
			}
			jobs = append(jobs, job{file: f, target: target})
		}
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(extractWorkers)

	var mu sync.Mutex
	for _, j := range jobs {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			n, err := writeZipEntry(j.file, j.target)
			if err != nil {
				return &CorruptArchiveError{Archive: archivePath, Entry: j.file.Name, Cause: err}
			}
			mu.Lock()
			t.files++
			t.bytes += n
			mu.Unlock()
			return nil
		})
	}
	return g.Wait()
}

func writeZipEntry(f *zip.File, target string) (int64, error) {
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
