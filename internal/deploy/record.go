// SPDX-License-Identifier: MPL-2.0

package deploy

import (
	"os"
	"path/filepath"
	"sort"

	"github.com/pelletier/go-toml/v2"
)

const recordName = "deployed.toml"

type (
	// PlacedFile is one game file the engine owns: its game-relative
	// destination with the casing it was created under, and the mod that
	// provided it.
	PlacedFile struct {
		Destination string `toml:"destination"`
		Mod         string `toml:"mod"`
	}

	// Record is the persisted deployment state. Undeploy trusts it
	// completely: only what it lists is ever touched.
	Record struct {
		Technique   Technique    `toml:"technique,omitempty"`
		Files       []PlacedFile `toml:"files,omitempty"`
		CreatedDirs []string     `toml:"created_dirs,omitempty"`

		path string
	}
)

// ReadRecord reads the deployment record under storeRoot without an
// engine, for status displays and removal guards. A missing record means
// nothing is deployed.
func ReadRecord(storeRoot string) (*Record, error) {
	return loadRecord(storeRoot)
}

// loadRecord reads the deployment record under storeRoot. A missing record
// means nothing is deployed.
func loadRecord(storeRoot string) (*Record, error) {
	r := &Record{path: filepath.Join(storeRoot, recordName)}
	data, err := os.ReadFile(r.path)
	if err != nil {
		if os.IsNotExist(err) {
			return r, nil
		}
		return nil, err
	}
	if err := toml.Unmarshal(data, r); err != nil {
		return nil, err
	}
	return r, nil
}

// save writes the record atomically, or deletes it when nothing is
// deployed anymore.
func (r *Record) save() error {
	if r.Empty() {
		if err := os.Remove(r.path); err != nil && !os.IsNotExist(err) {
			return err
		}
		return nil
	}
	sort.Slice(r.Files, func(i, j int) bool {
		return r.Files[i].Destination < r.Files[j].Destination
	})
	sort.Strings(r.CreatedDirs)
	data, err := toml.Marshal(r)
	if err != nil {
		return err
	}
	tmp := r.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, r.path)
}

// Empty reports whether the record accounts for nothing.
func (r *Record) Empty() bool {
	return len(r.Files) == 0 && len(r.CreatedDirs) == 0
}

// Owns reports whether a mod has at least one file deployed.
func (r *Record) Owns(id string) bool {
	for _, f := range r.Files {
		if f.Mod == id {
			return true
		}
	}
	return false
}

// Mods returns the ids with deployed files and their file counts.
func (r *Record) Mods() map[string]int {
	out := map[string]int{}
	for _, f := range r.Files {
		out[f.Mod]++
	}
	return out
}

// trackDir remembers a game-relative directory the engine created.
func (r *Record) trackDir(rel string) {
	for _, d := range r.CreatedDirs {
		if d == rel {
			return
		}
	}
	r.CreatedDirs = append(r.CreatedDirs, rel)
}
