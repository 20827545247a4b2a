// SPDX-License-Identifier: MPL-2.0

package store

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/gofrs/flock"
)

// lockName is the advisory lock file shared by every operation that
// mutates the store or the game directory.
const lockName = "modstack.lock"

// ErrBusy is returned when another modstack process holds the store lock.
var ErrBusy = errors.New("another modstack instance is running")

// Lock takes the store-wide lock without blocking and returns its release
// function. Ingest, removal and deployment all serialize on it.
func Lock(root string) (func(), error) {
	fl := flock.New(filepath.Join(root, lockName))
	locked, err := fl.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquiring %s: %w", lockName, err)
	}
	if !locked {
		return nil, ErrBusy
	}
	return func() { _ = fl.Unlock() }, nil
}
