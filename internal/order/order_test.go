// SPDX-License-Identifier: MPL-2.0

package order

import (
	"errors"
	"slices"
	"testing"

	"modstack/internal/store"
)

type resolverFunc func(string) bool

func (f resolverFunc) Has(id string) bool { return f(id) }

var allKnown = resolverFunc(func(string) bool { return true })

func TestEnableDisable(t *testing.T) {
	root := t.TempDir()
	l, err := Load(root)
	if err != nil {
		t.Fatal(err)
	}

	for _, id := range []string{"a", "b", "c"} {
		if err := l.Enable(id, allKnown); err != nil {
			t.Fatal(err)
		}
	}
	if got := l.Sequence(); !slices.Equal(got, []string{"a", "b", "c"}) {
		t.Fatalf("Sequence = %v", got)
	}

	// Re-enabling keeps the position.
	if err := l.Enable("a", allKnown); err != nil {
		t.Fatal(err)
	}
	if got := l.Sequence(); !slices.Equal(got, []string{"a", "b", "c"}) {
		t.Fatalf("re-enable moved entries: %v", got)
	}

	if err := l.Disable("b"); err != nil {
		t.Fatal(err)
	}
	if got := l.Sequence(); !slices.Equal(got, []string{"a", "c"}) {
		t.Fatalf("Sequence after disable = %v", got)
	}
	if err := l.Disable("b"); !errors.Is(err, ErrNotEnabled) {
		t.Fatalf("want ErrNotEnabled, got %v", err)
	}

	unknown := resolverFunc(func(string) bool { return false })
	if err := l.Enable("ghost", unknown); !errors.Is(err, store.ErrUnknownMod) {
		t.Fatalf("want ErrUnknownMod, got %v", err)
	}
}

func TestMoveTo(t *testing.T) {
	root := t.TempDir()
	l, err := Load(root)
	if err != nil {
		t.Fatal(err)
	}
	for _, id := range []string{"a", "b", "c", "d"} {
		if err := l.Enable(id, allKnown); err != nil {
			t.Fatal(err)
		}
	}

	if err := l.MoveTo("d", 0); err != nil {
		t.Fatal(err)
	}
	if got := l.Sequence(); !slices.Equal(got, []string{"d", "a", "b", "c"}) {
		t.Fatalf("Sequence = %v", got)
	}
	if err := l.MoveTo("a", 3); err != nil {
		t.Fatal(err)
	}
	if got := l.Sequence(); !slices.Equal(got, []string{"d", "b", "c", "a"}) {
		t.Fatalf("Sequence = %v", got)
	}

	if err := l.MoveTo("a", 4); !errors.Is(err, ErrInvalidPosition) {
		t.Fatalf("want ErrInvalidPosition, got %v", err)
	}
	if err := l.MoveTo("ghost", 0); !errors.Is(err, ErrNotEnabled) {
		t.Fatalf("want ErrNotEnabled, got %v", err)
	}
}

func TestPersistence(t *testing.T) {
	root := t.TempDir()
	l, err := Load(root)
	if err != nil {
		t.Fatal(err)
	}
	for _, id := range []string{"x", "y"} {
		if err := l.Enable(id, allKnown); err != nil {
			t.Fatal(err)
		}
	}

	reloaded, err := Load(root)
	if err != nil {
		t.Fatal(err)
	}
	if got := reloaded.Sequence(); !slices.Equal(got, []string{"x", "y"}) {
		t.Fatalf("reloaded Sequence = %v", got)
	}
	if !reloaded.Enabled("x") || reloaded.Position("y") != 1 {
		t.Error("membership lost across reload")
	}
}
