// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"

	"github.com/charmbracelet/log"

	"modstack/internal/config"
	"modstack/internal/deploy"
	"modstack/internal/order"
	"modstack/internal/store"
)

// openStore opens the configured mod store, creating it on first use.
func openStore() (*store.Store, error) {
	root := cfg.StoreDir
	if root == "" {
		resolved, err := config.DefaultStoreDir()
		if err != nil {
			return nil, err
		}
		root = resolved
	}
	return store.Open(root,
		store.WithDuplicatePolicy(cfg.DuplicatePolicy()),
		store.WithLogger(log.Default()),
	)
}

// loadOrder loads the enabled-mod list living next to the store.
func loadOrder(s *store.Store) (*order.List, error) {
	return order.Load(s.Root())
}

// newEngine builds the deployment engine for the configured game directory.
func newEngine(s *store.Store) (*deploy.Engine, error) {
	gameDir, err := cfg.RequireGameDir()
	if err != nil {
		return nil, fmt.Errorf("%w (set game_dir in the config or run 'modstack config init')", err)
	}
	return deploy.New(s.Root(), gameDir,
		deploy.WithLinkMode(cfg.LinkTechnique()),
		deploy.WithLogger(log.Default()),
	)
}

// deployGuard adapts the deployment record to the store's removal guard.
type deployGuard struct {
	storeRoot string
}

// Deployed reports whether the mod has files in the game directory. It errs
// on the side of true when the record cannot be read, so a mod is never
// deleted out from under a live deployment.
func (g deployGuard) Deployed(id string) bool {
	rec, err := deploy.ReadRecord(g.storeRoot)
	if err != nil {
		return true
	}
	return rec.Owns(id)
}

// enabledMods resolves the load order into the engine's input, in ascending
// priority.
func enabledMods(s *store.Store, l *order.List) ([]deploy.ModFiles, error) {
	var mods []deploy.ModFiles
	for _, id := range l.Sequence() {
		entry, err := s.Entry(id)
		if err != nil {
			return nil, fmt.Errorf("enabled mod %q: %w", id, err)
		}
		mods = append(mods, deploy.ModFiles{
			ID:   entry.ID,
			Dir:  entry.Dir,
			Plan: entry.Meta.Plan,
		})
	}
	return mods, nil
}
