// SPDX-License-Identifier: MPL-2.0

package archive

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
)

type (
	// Summary describes the outcome of a successful extraction. The mod
	// store uses it to infer the default content root for the mod.
	Summary struct {
		// Format is the detected container format.
		Format Format
		// Files is the number of regular files extracted.
		Files int
		// Bytes is the total uncompressed size of extracted files.
		Bytes int64
		// TopLevel lists the names directly under the destination directory.
		TopLevel []string
		// SkippedSymlinks lists symbolic link entries that were not extracted.
		SkippedSymlinks []string
	}

	// tally accumulates per-entry extraction results inside a codec.
	tally struct {
		files    int
		bytes    int64
		symlinks []string
	}
)

// Extract unpacks the archive at archivePath into destination, which must
// not yet exist (or be an empty directory). On any failure the destination
// is removed before returning, so a failed extraction leaves nothing behind.
func Extract(ctx context.Context, archivePath, destination string) (*Summary, error) {
	format, err := DetectFormat(archivePath)
	if err != nil {
		return nil, err
	}

	if entries, err := os.ReadDir(destination); err == nil && len(entries) > 0 {
		return nil, fmt.Errorf("destination %s is not empty", destination)
	}
	if err := os.MkdirAll(destination, 0o755); err != nil {
		return nil, err
	}

	var t tally
	switch format {
	case FormatZip:
		err = extractZip(ctx, archivePath, destination, &t)
	case FormatTar, FormatTarGz, FormatTarXz:
		err = extractTar(ctx, archivePath, destination, format, &t)
	case FormatSevenZip:
		err = extractSevenZip(ctx, archivePath, destination, &t)
	case FormatRar:
		err = extractRar(ctx, archivePath, destination, &t)
	default:
		err = &UnsupportedFormatError{Archive: archivePath}
	}
	if err != nil {
		_ = os.RemoveAll(destination)
		return nil, err
	}

	topLevel, err := topLevelNames(destination)
	if err != nil {
		_ = os.RemoveAll(destination)
		return nil, err
	}

	return &Summary{
		Format:          format,
		Files:           t.files,
		Bytes:           t.bytes,
		TopLevel:        topLevel,
		SkippedSymlinks: t.symlinks,
	}, nil
}

// contentRoots are directory names that carry real mod content at the top
// level of an archive. A sole top-level directory with one of these names is
// not a redundant packaging wrapper and must not be flattened.
var contentRoots = map[string]bool{
	"data":      true,
	"textures":  true,
	"meshes":    true,
	"sounds":    true,
	"music":     true,
	"interface": true,
	"scripts":   true,
	"fomod":     true,
}

// Flatten removes the single redundant wrapper directory many archives ship
// with (content nested one level deep under a directory named after the
// mod). Returns true when a wrapper was detected and removed.
func Flatten(destination string) (bool, error) {
	entries, err := os.ReadDir(destination)
	if err != nil {
		return false, err
	}
	if len(entries) != 1 || !entries[0].IsDir() {
		return false, nil
	}
	wrapper := entries[0].Name()
	if contentRoots[strings.ToLower(wrapper)] {
		return false, nil
	}

	wrapperDir := filepath.Join(destination, wrapper)
	children, err := os.ReadDir(wrapperDir)
	if err != nil {
		return false, err
	}
	for _, child := range children {
		from := filepath.Join(wrapperDir, child.Name())
		to := filepath.Join(destination, child.Name())
		if err := os.Rename(from, to); err != nil {
			return false, err
		}
	}
	if err := os.Remove(wrapperDir); err != nil {
		return false, err
	}
	return true, nil
}

// entryPath validates an archive entry name and resolves it inside the
// destination directory. Entry names use forward or backward slashes
// depending on the packer; both are accepted. Absolute paths, drive
// prefixes and ".." segments are rejected with a PathTraversalError.
func entryPath(archivePath, destination, name string) (string, error) {
	normalized := strings.ReplaceAll(name, `\`, "/")
	if normalized == "" || strings.HasPrefix(normalized, "/") || strings.Contains(normalized, ":") {
		return "", &PathTraversalError{Archive: archivePath, Entry: name}
	}
	cleaned := path.Clean(normalized)
	if cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return "", &PathTraversalError{Archive: archivePath, Entry: name}
	}
	return filepath.Join(destination, filepath.FromSlash(cleaned)), nil
}

func topLevelNames(destination string) ([]string, error) {
	entries, err := os.ReadDir(destination)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names, nil
}
