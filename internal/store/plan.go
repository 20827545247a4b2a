// SPDX-License-Identifier: MPL-2.0

package store

import (
	"io/fs"
	"path"
	"path/filepath"
	"sort"
	"strings"
)

type (
	// InstallFile maps one file from a mod's extracted tree to its
	// destination relative to the game root. Both sides use forward
	// slashes regardless of platform.
	InstallFile struct {
		// Source is the path inside the extracted tree.
		Source string `toml:"source"`
		// Destination is the path relative to the game root.
		Destination string `toml:"destination"`
	}

	// Plan is a mod's complete file-selection plan. Files not selected by
	// the installer are simply absent. Order is not significant between
	// distinct destinations; for a repeated destination the later entry
	// wins (within-mod order is fixed priority).
	Plan []InstallFile
)

// NewInstallFile builds an InstallFile after normalizing and validating the
// destination. Destinations must stay relative to the game root: absolute
// paths and ".." segments fail with an InvalidDestinationError before the
// plan is ever returned to a caller.
func NewInstallFile(source, destination string) (InstallFile, error) {
	dest, err := NormalizeDestination(destination)
	if err != nil {
		return InstallFile{}, err
	}
	return InstallFile{
		Source:      filepath.ToSlash(source),
		Destination: dest,
	}, nil
}

// NormalizeDestination cleans a destination path (backslashes become
// slashes, redundant segments collapse) and rejects anything that would
// escape the game root.
func NormalizeDestination(destination string) (string, error) {
	normalized := strings.ReplaceAll(destination, `\`, "/")
	if normalized == "" || strings.HasPrefix(normalized, "/") || strings.Contains(normalized, ":") {
		return "", &InvalidDestinationError{Destination: destination}
	}
	cleaned := path.Clean(normalized)
	if cleaned == "." || cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return "", &InvalidDestinationError{Destination: destination}
	}
	return cleaned, nil
}

// Destinations returns the plan's destination paths, sorted.
func (p Plan) Destinations() []string {
	dests := make([]string, 0, len(p))
	for _, f := range p {
		dests = append(dests, f.Destination)
	}
	sort.Strings(dests)
	return dests
}

// IdentityPlan maps every regular file under root to itself: the plan of a
// mod without an installer descriptor. Paths are relative to root with
// forward slashes.
func IdentityPlan(root string) (Plan, error) {
	var plan Plan
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !d.Type().IsRegular() {
			return nil
		}
		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		f, err := NewInstallFile(filepath.ToSlash(rel), filepath.ToSlash(rel))
		if err != nil {
			return err
		}
		plan = append(plan, f)
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(plan, func(i, j int) bool { return plan[i].Source < plan[j].Source })
	return plan, nil
}
