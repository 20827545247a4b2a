// SPDX-License-Identifier: MPL-2.0

package order

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"github.com/pelletier/go-toml/v2"

	"modstack/internal/store"
)

const recordName = "loadorder.toml"

var (
	// ErrNotEnabled is returned when an operation targets a mod that is
	// not in the list.
	ErrNotEnabled = errors.New("mod is not enabled")
	// ErrInvalidPosition is returned by MoveTo for an out-of-range index.
	ErrInvalidPosition = errors.New("invalid load order position")
)

type (
	// Resolver answers whether a mod identifier exists in the store.
	// Satisfied by *store.Store.
	Resolver interface {
		Has(id string) bool
	}

	// List is the ordered set of enabled mods, earliest first. Later
	// entries take priority on file conflicts.
	List struct {
		path string
		ids  []string
	}

	record struct {
		Enabled []string `toml:"enabled"`
	}
)

// Load reads the list persisted under storeRoot. A missing record means an
// empty list, not an error.
func Load(storeRoot string) (*List, error) {
	l := &List{path: filepath.Join(storeRoot, recordName)}
	data, err := os.ReadFile(l.path)
	if err != nil {
		if os.IsNotExist(err) {
			return l, nil
		}
		return nil, err
	}
	var rec record
	if err := toml.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", recordName, err)
	}
	l.ids = rec.Enabled
	return l, nil
}

// Sequence returns the enabled identifiers in ascending priority.
func (l *List) Sequence() []string {
	return slices.Clone(l.ids)
}

// Enabled reports whether id is in the list.
func (l *List) Enabled(id string) bool {
	return slices.Contains(l.ids, id)
}

// Position returns the index of id in the list, or -1.
func (l *List) Position(id string) int {
	return slices.Index(l.ids, id)
}

// Enable appends id at the end of the list, giving it the highest priority.
// Enabling an already-enabled mod is a no-op. The resolver guards against
// identifiers the store does not hold.
func (l *List) Enable(id string, r Resolver) error {
	if r != nil && !r.Has(id) {
		return &store.UnknownModError{ID: id}
	}
	if l.Enabled(id) {
		return nil
	}
	l.ids = append(l.ids, id)
	return l.save()
}

// Disable removes id from the list. The remaining mods keep their relative
// order.
func (l *List) Disable(id string) error {
	i := l.Position(id)
	if i < 0 {
		return fmt.Errorf("%w: %q", ErrNotEnabled, id)
	}
	l.ids = append(l.ids[:i], l.ids[i+1:]...)
	return l.save()
}

// MoveTo reorders id to the given zero-based position.
func (l *List) MoveTo(id string, position int) error {
	i := l.Position(id)
	if i < 0 {
		return fmt.Errorf("%w: %q", ErrNotEnabled, id)
	}
	if position < 0 || position >= len(l.ids) {
		return fmt.Errorf("%w: %d (list has %d entries)", ErrInvalidPosition, position, len(l.ids))
	}
	l.ids = append(l.ids[:i], l.ids[i+1:]...)
	l.ids = slices.Insert(l.ids, position, id)
	return l.save()
}

// save writes the record atomically next to the store's metadata.
func (l *List) save() error {
	data, err := toml.Marshal(record{Enabled: l.ids})
	if err != nil {
		return err
	}
	tmp := l.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, l.path)
}
