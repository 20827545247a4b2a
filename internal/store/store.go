// SPDX-License-Identifier: MPL-2.0

package store

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/pelletier/go-toml/v2"

	"modstack/internal/archive"
)

const (
	// metadataExtension is the suffix of the per-mod metadata record.
	metadataExtension = ".toml"
	// descriptorRelPath is the installer descriptor location inside an
	// extracted tree, compared case-insensitively.
	descriptorRelPath = "fomod/moduleconfig.xml"
)

type (
	// Kind classifies an extracted mod tree.
	Kind string

	// DuplicatePolicy controls how Ingest treats a byte-identical archive
	// that is already present in the store.
	DuplicatePolicy string

	// Metadata is the persisted record for one store entry.
	Metadata struct {
		// Name is the declared, user-visible mod name.
		Name string `toml:"name"`
		// Version is the declared version, empty when unknown.
		Version string `toml:"version,omitempty"`
		// Author is the declared author, empty when unknown.
		Author string `toml:"author,omitempty"`
		// Archive is the base name of the source archive.
		Archive string `toml:"archive"`
		// SHA256 is the hex content hash of the source archive.
		SHA256 string `toml:"sha256"`
		// Kind records whether the tree carries an installer descriptor.
		Kind Kind `toml:"kind"`
		// Plan is the current file-selection plan, nil until evaluated.
		Plan Plan `toml:"plan,omitempty"`
		// Answers are the recorded installer answers keyed by group id.
		Answers map[string][]string `toml:"answers,omitempty"`
	}

	// Entry is one installed mod: a stable identifier, the extracted tree
	// root, and the metadata record.
	Entry struct {
		ID   string
		Dir  string
		Meta Metadata
	}

	// IngestResult reports a completed (or duplicate-skipped) ingestion.
	IngestResult struct {
		Entry *Entry
		// Warnings carries non-fatal findings: duplicate skip, flattened
		// wrapper directory, skipped symlink entries.
		Warnings []string
		// Skipped is true when a duplicate archive was skipped under the
		// warn-skip policy; Entry then points at the existing entry.
		Skipped bool
	}

	// Store is the on-disk mod repository rooted at a single directory.
	Store struct {
		root        string
		onDuplicate DuplicatePolicy
		logger      *log.Logger
	}

	// Option configures a Store.
	Option func(*Store)
)

const (
	// KindPlain is a mod without an installer descriptor; its plan is the
	// identity mapping over its extracted tree.
	KindPlain Kind = "plain"
	// KindInstaller is a mod carrying an installer descriptor that must be
	// evaluated before the mod has a plan.
	KindInstaller Kind = "installer"

	// DuplicateWarnSkip skips re-ingesting a byte-identical archive and
	// reports a warning.
	DuplicateWarnSkip DuplicatePolicy = "warn-skip"
	// DuplicateError fails ingestion of a byte-identical archive.
	DuplicateError DuplicatePolicy = "error"
)

// WithDuplicatePolicy sets the duplicate-archive policy.
func WithDuplicatePolicy(p DuplicatePolicy) Option {
	return func(s *Store) { s.onDuplicate = p }
}

// WithLogger sets the logger used for ingest/remove tracing.
func WithLogger(l *log.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// Open opens (creating if needed) the store rooted at root.
func Open(root string, opts ...Option) (*Store, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("create store root: %w", err)
	}
	s := &Store{
		root:        abs,
		onDuplicate: DuplicateWarnSkip,
		logger:      log.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Root returns the absolute store root directory.
func (s *Store) Root() string { return s.root }

// Ingest extracts the archive into a fresh store entry. The archive is
// hashed before extraction; a byte-identical archive already present is
// skipped or rejected according to the duplicate policy. Plain mods receive
// an identity plan immediately; installer mods stay plan-less until the
// descriptor is evaluated.
func (s *Store) Ingest(ctx context.Context, archivePath string) (*IngestResult, error) {
	unlock, err := Lock(s.root)
	if err != nil {
		return nil, err
	}
	defer unlock()

	hash, err := hashFile(archivePath)
	if err != nil {
		return nil, fmt.Errorf("hash archive %s: %w", archivePath, err)
	}

	entries, err := s.List()
	if err != nil {
		return nil, err
	}
	for _, e := range entries {
		if e.Meta.SHA256 != hash {
			continue
		}
		if s.onDuplicate == DuplicateError {
			return nil, &DuplicateArchiveError{Archive: filepath.Base(archivePath), ExistingID: e.ID}
		}
		s.logger.Warn("skipping duplicate archive", "archive", filepath.Base(archivePath), "existing", e.ID)
		return &IngestResult{
			Entry:    e,
			Warnings: []string{fmt.Sprintf("archive already installed as %q, skipped", e.ID)},
			Skipped:  true,
		}, nil
	}

	name := declaredName(archivePath)
	id := s.uniqueID(entries, slugify(name))
	dir := filepath.Join(s.root, id)

	s.logger.Debug("extracting archive", "archive", archivePath, "id", id)
	summary, err := archive.Extract(ctx, archivePath, dir)
	if err != nil {
		return nil, err
	}

	var warnings []string
	flattened, err := archive.Flatten(dir)
	if err != nil {
		_ = os.RemoveAll(dir)
		return nil, err
	}
	if flattened {
		warnings = append(warnings, "flattened a redundant top-level wrapper directory")
	}
	for _, link := range summary.SkippedSymlinks {
		warnings = append(warnings, fmt.Sprintf("skipped symbolic link entry %q", link))
	}

	kind := KindPlain
	if hasDescriptor(dir) {
		kind = KindInstaller
	}

	meta := Metadata{
		Name:    name,
		Archive: filepath.Base(archivePath),
		SHA256:  hash,
		Kind:    kind,
	}
	if kind == KindPlain {
		plan, err := IdentityPlan(dir)
		if err != nil {
			_ = os.RemoveAll(dir)
			return nil, err
		}
		meta.Plan = plan
	}

	entry := &Entry{ID: id, Dir: dir, Meta: meta}
	if err := s.writeMetadata(entry); err != nil {
		_ = os.RemoveAll(dir)
		return nil, err
	}

	s.logger.Info("installed mod", "id", id, "files", summary.Files, "format", summary.Format)
	return &IngestResult{Entry: entry, Warnings: warnings}, nil
}

// DeployGuard reports whether a mod currently has deployed overlay entries.
// The deployment engine's record implements it.
type DeployGuard interface {
	Deployed(id string) bool
}

// Remove deletes a mod's extracted tree and metadata record. Removing a mod
// that is still deployed is refused: the files backing its links would
// vanish from under the game directory.
func (s *Store) Remove(id string, guard DeployGuard) error {
	unlock, err := Lock(s.root)
	if err != nil {
		return err
	}
	defer unlock()

	entry, err := s.Entry(id)
	if err != nil {
		return err
	}
	if guard != nil && guard.Deployed(id) {
		return &ModStillDeployedError{ID: id}
	}
	if err := os.RemoveAll(entry.Dir); err != nil {
		return err
	}
	if err := os.Remove(s.metadataPath(id)); err != nil && !os.IsNotExist(err) {
		return err
	}
	s.logger.Info("removed mod", "id", id)
	return nil
}

// List returns every store entry, sorted by identifier.
func (s *Store) List() ([]*Entry, error) {
	dirEntries, err := os.ReadDir(s.root)
	if err != nil {
		return nil, err
	}
	var entries []*Entry
	for _, de := range dirEntries {
		if de.IsDir() || !strings.HasSuffix(de.Name(), metadataExtension) {
			continue
		}
		// Operational records (load order, deployment state) share the
		// store root but have no extracted tree next to them.
		id := strings.TrimSuffix(de.Name(), metadataExtension)
		if !s.Has(id) {
			continue
		}
		entry, err := s.Entry(id)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].ID < entries[j].ID })
	return entries, nil
}

// Entry returns the entry for id, or an UnknownModError. An id only counts
// when both its metadata record and its extracted tree exist.
func (s *Store) Entry(id string) (*Entry, error) {
	if !s.Has(id) {
		return nil, &UnknownModError{ID: id}
	}
	data, err := os.ReadFile(s.metadataPath(id))
	if os.IsNotExist(err) {
		return nil, &UnknownModError{ID: id}
	}
	if err != nil {
		return nil, err
	}
	var meta Metadata
	if err := toml.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("decode metadata for %s: %w", id, err)
	}
	return &Entry{ID: id, Dir: filepath.Join(s.root, id), Meta: meta}, nil
}

// Has reports whether id resolves to a store entry: a metadata record with
// its extracted tree beside it.
func (s *Store) Has(id string) bool {
	if _, err := os.Stat(s.metadataPath(id)); err != nil {
		return false
	}
	info, err := os.Stat(filepath.Join(s.root, id))
	return err == nil && info.IsDir()
}

// SetPlan records a freshly evaluated file-selection plan and the answers
// that produced it.
func (s *Store) SetPlan(id string, plan Plan, answers map[string][]string) error {
	entry, err := s.Entry(id)
	if err != nil {
		return err
	}
	entry.Meta.Plan = plan
	entry.Meta.Answers = answers
	return s.writeMetadata(entry)
}

// SetName changes a mod's display name. The store identifier stays stable.
func (s *Store) SetName(id, name string) error {
	entry, err := s.Entry(id)
	if err != nil {
		return err
	}
	entry.Meta.Name = name
	return s.writeMetadata(entry)
}

// RecomputeHash re-hashes nothing on disk (the archive is gone after
// ingest) but validates that the recorded hash is well-formed. Kept as the
// store-maintenance hook for metadata repair.
func (s *Store) RecomputeHash(id string) error {
	entry, err := s.Entry(id)
	if err != nil {
		return err
	}
	if len(entry.Meta.SHA256) != sha256.Size*2 {
		return fmt.Errorf("entry %s has a malformed content hash", id)
	}
	return nil
}

func (s *Store) metadataPath(id string) string {
	return filepath.Join(s.root, id+metadataExtension)
}

func (s *Store) writeMetadata(entry *Entry) error {
	data, err := toml.Marshal(entry.Meta)
	if err != nil {
		return err
	}
	return os.WriteFile(s.metadataPath(entry.ID), data, 0o644)
}

// uniqueID disambiguates identifier collisions with a numeric suffix.
func (s *Store) uniqueID(existing []*Entry, id string) string {
	taken := make(map[string]bool, len(existing))
	for _, e := range existing {
		taken[e.ID] = true
	}
	if !taken[id] {
		return id
	}
	for n := 2; ; n++ {
		candidate := fmt.Sprintf("%s-%d", id, n)
		if !taken[candidate] {
			return candidate
		}
	}
}

// versionSuffix matches trailing version-ish tokens in archive names, e.g.
// "-1.2", "_v3", "-2.0.1b".
var versionSuffix = regexp.MustCompile(`(?i)[-_. ]v?\d+([._]\d+)*[a-z]?$`)

// declaredName derives a display name from the archive file name: container
// extensions stripped, version suffix dropped, separators spaced.
func declaredName(archivePath string) string {
	name := filepath.Base(archivePath)
	for _, ext := range []string{".tar.gz", ".tar.xz", ".tgz", ".txz", ".tar", ".zip", ".7zip", ".7z", ".rar"} {
		if strings.HasSuffix(strings.ToLower(name), ext) {
			name = name[:len(name)-len(ext)]
			break
		}
	}
	name = versionSuffix.ReplaceAllString(name, "")
	name = strings.NewReplacer("_", " ", ".", " ").Replace(name)
	name = strings.TrimSpace(name)
	if name == "" {
		name = filepath.Base(archivePath)
	}
	return name
}

var slugInvalid = regexp.MustCompile(`[^a-z0-9]+`)

func slugify(name string) string {
	slug := slugInvalid.ReplaceAllString(strings.ToLower(name), "-")
	slug = strings.Trim(slug, "-")
	if slug == "" {
		slug = "mod"
	}
	return slug
}

// hasDescriptor reports whether the tree carries an installer descriptor,
// matching the conventional fomod/ModuleConfig.xml location with any casing.
func hasDescriptor(dir string) bool {
	return DescriptorPath(dir) != ""
}

// DescriptorPath returns the absolute path of the installer descriptor
// inside dir, or "" when the tree has none. The lookup is case-insensitive
// because archives disagree on the casing of the fomod directory.
func DescriptorPath(dir string) string {
	parts := strings.Split(descriptorRelPath, "/")
	current := dir
	for _, part := range parts {
		entries, err := os.ReadDir(current)
		if err != nil {
			return ""
		}
		found := ""
		for _, e := range entries {
			if strings.EqualFold(e.Name(), part) {
				found = filepath.Join(current, e.Name())
				break
			}
		}
		if found == "" {
			return ""
		}
		current = found
	}
	return current
}

func hashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
