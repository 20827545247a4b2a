// SPDX-License-Identifier: MPL-2.0

package deploy

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"
	"syscall"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"modstack/internal/store"
)

type (
	// Engine deploys the overlay of enabled mods into the game directory
	// and reverts it, keeping the deployment record in the store root.
	Engine struct {
		storeRoot string
		gameDir   string
		mode      Technique
		workers   int
		logger    *log.Logger
	}

	// Option configures an Engine.
	Option func(*Engine)

	// FileIssue is a per-file failure that did not abort the run.
	FileIssue struct {
		Destination string
		Err         error
	}

	// Report summarizes one deploy or undeploy run.
	Report struct {
		Technique Technique
		// Placed counts files created, Unchanged files already correct,
		// Removed files taken out, Skipped files left alone because of an
		// issue.
		Placed    int
		Unchanged int
		Removed   int
		Skipped   int
		Issues    []FileIssue
	}

	// target pairs a resolved overlay entry with its absolute path and
	// game-relative destination as they exist on disk.
	target struct {
		resolved Resolved
		abs      string
		rel      string
	}
)

// WithLinkMode forces the link technique instead of probing.
func WithLinkMode(mode Technique) Option {
	return func(e *Engine) { e.mode = mode }
}

// WithWorkers bounds the number of concurrent file placements.
func WithWorkers(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.workers = n
		}
	}
}

// WithLogger routes the engine's diagnostics.
func WithLogger(logger *log.Logger) Option {
	return func(e *Engine) { e.logger = logger }
}

// New returns an engine bound to a store root and a game directory. The
// game directory must already exist.
func New(storeRoot, gameDir string, opts ...Option) (*Engine, error) {
	info, err := os.Stat(gameDir)
	if err != nil {
		return nil, fmt.Errorf("game directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("game directory %s is not a directory", gameDir)
	}
	e := &Engine{
		storeRoot: storeRoot,
		gameDir:   gameDir,
		mode:      TechniqueAuto,
		workers:   runtime.GOMAXPROCS(0),
		logger:    log.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Deploy materializes the overlay of mods (in ascending priority) into the
// game directory. Files the game directory already holds that the record
// does not account for are skipped and reported, never overwritten; the run
// then returns ErrPartialDeploy with the per-file causes in the report.
// Re-running against an unchanged overlay is a no-op.
func (e *Engine) Deploy(ctx context.Context, mods []ModFiles) (*Report, error) {
	for _, m := range mods {
		if m.Plan == nil {
			return nil, &NoPlanError{Mod: m.ID}
		}
	}

	unlock, err := store.Lock(e.storeRoot)
	if err != nil {
		return nil, err
	}
	defer unlock()

	rec, err := loadRecord(e.storeRoot)
	if err != nil {
		return nil, err
	}
	lnk, err := newLinker(e.storeRoot, e.gameDir, e.mode)
	if err != nil {
		return nil, err
	}
	report := &Report{Technique: lnk.technique}

	overlay := ComputeOverlay(mods)
	// files is the record under construction, seeded with everything a
	// previous deploy left on disk: a run cut short part-way must still
	// account for the files it never got to.
	owned := make(map[string]PlacedFile, len(rec.Files))
	files := make(map[string]PlacedFile, len(rec.Files))
	for _, f := range rec.Files {
		key := strings.ToLower(f.Destination)
		owned[key] = f
		files[key] = f
	}

	var mu sync.Mutex
	fail := func(dest string, err error) {
		mu.Lock()
		report.Skipped++
		report.Issues = append(report.Issues, FileIssue{Destination: dest, Err: err})
		mu.Unlock()
	}
	finish := func(groupErr error) (*Report, error) {
		rec.Technique = lnk.technique
		rec.Files = recordFiles(files)
		if err := rec.save(); err != nil {
			return report, err
		}
		if groupErr != nil {
			return report, groupErr
		}
		if len(report.Issues) > 0 {
			return report, fmt.Errorf("%w: %d file(s) skipped", ErrPartialDeploy, len(report.Issues))
		}
		e.logger.Info("deployed", "placed", report.Placed, "unchanged", report.Unchanged, "technique", lnk.technique)
		return report, nil
	}

	// Files we own that the overlay no longer provides come out first, so
	// disabling a mod converges on the next deploy without an undeploy.
	for key, f := range owned {
		if _, still := overlay.Winner(f.Destination); still {
			continue
		}
		abs := filepath.Join(e.gameDir, filepath.FromSlash(f.Destination))
		if err := os.Remove(abs); err != nil && !os.IsNotExist(err) {
			fail(f.Destination, fmt.Errorf("removing stale file: %w", err))
			continue
		}
		e.logger.Debug("removed stale file", "dest", f.Destination, "mod", f.Mod)
		delete(owned, key)
		delete(files, key)
		report.Removed++
	}

	// Directory creation is sequential so the case-insensitive resolution
	// against existing directories stays race-free; placement then runs in
	// parallel against settled paths.
	targets := make([]target, 0, len(overlay.winners))
	for _, r := range overlay.Files() {
		if err := ctx.Err(); err != nil {
			return finish(err)
		}
		abs, rel, err := e.resolveTarget(rec, r.Destination)
		if err != nil {
			fail(r.Destination, classifyPlaceErr(r.Destination, err))
			continue
		}
		targets = append(targets, target{resolved: r, abs: abs, rel: rel})
	}

	// Per-file failures are collected and the rest of the overlay still
	// proceeds; only cancellation stops the group.
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)
	for _, t := range targets {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			key := strings.ToLower(t.rel)
			source := filepath.Join(t.resolved.Dir, filepath.FromSlash(t.resolved.Source))
			_, ours := owned[key]
			_, statErr := os.Lstat(t.abs)
			exists := statErr == nil

			switch {
			case exists && !ours:
				fail(t.rel, &ForeignFileConflictError{Destination: t.rel})
				return nil
			case exists && lnk.same(source, t.abs):
				mu.Lock()
				report.Unchanged++
				files[key] = PlacedFile{Destination: t.rel, Mod: t.resolved.Mod}
				mu.Unlock()
				return nil
			case exists:
				if err := os.Remove(t.abs); err != nil {
					// The old file is still ours and still on disk, so the
					// seeded record entry stays.
					fail(t.rel, fmt.Errorf("replacing: %w", err))
					return nil
				}
			}
			if err := lnk.place(source, t.abs); err != nil {
				mu.Lock()
				delete(files, key)
				mu.Unlock()
				fail(t.rel, classifyPlaceErr(t.rel, err))
				return nil
			}
			e.logger.Debug("placed file", "dest", t.rel, "mod", t.resolved.Mod)
			mu.Lock()
			report.Placed++
			files[key] = PlacedFile{Destination: t.rel, Mod: t.resolved.Mod}
			mu.Unlock()
			return nil
		})
	}
	return finish(g.Wait())
}

// classifyPlaceErr folds the error a foreign file causes when it sits where
// a directory component is needed into the foreign-file taxonomy.
func classifyPlaceErr(dest string, err error) error {
	if errors.Is(err, syscall.ENOTDIR) {
		return &ForeignFileConflictError{Destination: dest}
	}
	return err
}

// recordFiles flattens the record under construction, sorted by destination.
func recordFiles(files map[string]PlacedFile) []PlacedFile {
	out := make([]PlacedFile, 0, len(files))
	for _, f := range files {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool {
		return strings.ToLower(out[i].Destination) < strings.ToLower(out[j].Destination)
	})
	return out
}

// Undeploy removes exactly what the record accounts for. Files that
// disappeared in the meantime are tolerated; directories the engine created
// are removed deepest-first when empty.
func (e *Engine) Undeploy(ctx context.Context) (*Report, error) {
	unlock, err := store.Lock(e.storeRoot)
	if err != nil {
		return nil, err
	}
	defer unlock()

	rec, err := loadRecord(e.storeRoot)
	if err != nil {
		return nil, err
	}
	report := &Report{Technique: rec.Technique}
	if rec.Empty() {
		return report, nil
	}

	var remaining []PlacedFile
	for _, f := range rec.Files {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		abs := filepath.Join(e.gameDir, filepath.FromSlash(f.Destination))
		err := os.Remove(abs)
		switch {
		case err == nil:
			report.Removed++
		case os.IsNotExist(err):
			report.Skipped++
		default:
			report.Issues = append(report.Issues, FileIssue{Destination: f.Destination, Err: err})
			remaining = append(remaining, f)
		}
	}

	// Directories still sheltering files we failed to remove stay on the
	// record so a retry can finish the job.
	shelters := func(dir string) bool {
		prefix := strings.ToLower(dir) + "/"
		for _, f := range remaining {
			if strings.HasPrefix(strings.ToLower(f.Destination), prefix) {
				return true
			}
		}
		return false
	}

	// Deepest directories first, so emptied parents fall in the same pass.
	dirs := append([]string(nil), rec.CreatedDirs...)
	sort.Slice(dirs, func(i, j int) bool {
		return strings.Count(dirs[i], "/") > strings.Count(dirs[j], "/")
	})
	var kept []string
	for _, d := range dirs {
		if shelters(d) {
			kept = append(kept, d)
			continue
		}
		// Fails on non-empty directories, which is exactly the point:
		// anything holding foreign files stays.
		_ = os.Remove(filepath.Join(e.gameDir, filepath.FromSlash(d)))
	}

	rec.Files = remaining
	rec.CreatedDirs = kept
	if err := rec.save(); err != nil {
		return report, err
	}
	if len(report.Issues) > 0 {
		return report, fmt.Errorf("%w: %d file(s) not removed", ErrPartialDeploy, len(report.Issues))
	}
	e.logger.Info("undeployed", "removed", report.Removed)
	return report, nil
}

// Status returns the current deployment record.
func (e *Engine) Status() (*Record, error) {
	return loadRecord(e.storeRoot)
}

// Deployed reports whether a mod has files in the game directory. It errs
// on the side of true when the record cannot be read, so a mod is never
// deleted out from under a live deployment.
func (e *Engine) Deployed(id string) bool {
	rec, err := loadRecord(e.storeRoot)
	if err != nil {
		return true
	}
	return rec.Owns(id)
}

// resolveTarget maps a plan destination onto the game directory, matching
// each component case-insensitively against what already exists and
// creating missing directories with the plan's casing. Returns the absolute
// path and the game-relative path as it ends up on disk.
func (e *Engine) resolveTarget(rec *Record, destination string) (string, string, error) {
	parts := strings.Split(destination, "/")
	dir := e.gameDir
	rel := ""
	for i, want := range parts {
		last := i == len(parts)-1
		name := want
		if existing, ok := matchEntry(dir, want); ok {
			name = existing
		} else if !last {
			if err := os.Mkdir(filepath.Join(dir, name), 0o755); err != nil {
				return "", "", err
			}
			rec.trackDir(joinRel(rel, name))
		}
		rel = joinRel(rel, name)
		dir = filepath.Join(dir, name)
	}
	return dir, rel, nil
}

// matchEntry finds a directory entry equal to want under ASCII case folding.
func matchEntry(dir, want string) (string, bool) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", false
	}
	for _, entry := range entries {
		if strings.EqualFold(entry.Name(), want) {
			return entry.Name(), true
		}
	}
	return "", false
}

func joinRel(rel, name string) string {
	if rel == "" {
		return name
	}
	return rel + "/" + name
}
