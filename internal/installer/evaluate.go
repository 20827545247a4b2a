// SPDX-License-Identifier: MPL-2.0

package installer

import (
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"modstack/internal/store"
)

type (
	// Answers records the selections made so far, keyed by group name.
	// A present key with an empty slice means "answered with nothing",
	// which is distinct from an absent key (not yet asked).
	Answers map[string][]string

	// Question is a visible group that still needs an answer.
	Question struct {
		Step    string
		Group   string
		Type    GroupType
		Options []Option
	}
)

// Clone returns an independent copy of the answer set.
func (a Answers) Clone() Answers {
	out := make(Answers, len(a))
	for group, opts := range a {
		out[group] = append([]string(nil), opts...)
	}
	return out
}

// Questions resolves step visibility against the answers known so far and
// returns the visible groups that still need one, in descriptor order.
// SelectAll groups never ask. Answers already given are validated against
// their group's arity.
func (d *Descriptor) Questions(answers Answers) ([]Question, error) {
	var pending []Question
	for _, step := range d.Steps {
		if !eval(step.Visible, answers) {
			continue
		}
		for _, group := range step.Groups {
			if group.Type == SelectAll {
				continue
			}
			chosen, answered := answers[group.Name]
			if !answered {
				pending = append(pending, Question{
					Step:    step.Name,
					Group:   group.Name,
					Type:    group.Type,
					Options: group.Options,
				})
				continue
			}
			if err := group.checkAnswer(chosen); err != nil {
				return nil, err
			}
		}
	}
	return pending, nil
}

// Plan flattens the required files, the selected options of every visible
// step, and the conditional installs whose predicate holds into a file
// selection plan over the extracted tree at root. Every visible non-All
// group must be answered; within the mod a later mapping to the same
// destination wins.
func (d *Descriptor) Plan(root string, answers Answers) (store.Plan, error) {
	var mappings []FileMapping
	mappings = append(mappings, d.Required...)

	for _, step := range d.Steps {
		if !eval(step.Visible, answers) {
			continue
		}
		for _, group := range step.Groups {
			selected, err := group.selection(answers)
			if err != nil {
				return nil, err
			}
			for _, opt := range selected {
				mappings = append(mappings, opt.Files...)
			}
		}
	}

	for _, ci := range d.Conditional {
		if eval(ci.When, answers) {
			mappings = append(mappings, ci.Files...)
		}
	}

	return expand(root, mappings)
}

// selection resolves a group's answer into the options it names.
// SelectAll groups take every option without consulting the answers.
func (g Group) selection(answers Answers) ([]Option, error) {
	if g.Type == SelectAll {
		return g.Options, nil
	}
	chosen, answered := answers[g.Name]
	if !answered {
		return nil, &UnansweredGroupError{Group: g.Name}
	}
	if err := g.checkAnswer(chosen); err != nil {
		return nil, err
	}
	byName := make(map[string]Option, len(g.Options))
	for _, opt := range g.Options {
		byName[opt.Name] = opt
	}
	out := make([]Option, 0, len(chosen))
	for _, name := range chosen {
		out = append(out, byName[name])
	}
	return out, nil
}

// checkAnswer validates option names and the group's selection arity.
func (g Group) checkAnswer(chosen []string) error {
	known := make(map[string]bool, len(g.Options))
	for _, opt := range g.Options {
		known[opt.Name] = true
	}
	seen := map[string]bool{}
	for _, name := range chosen {
		if !known[name] {
			return &InvalidAnswerError{Group: g.Name, Reason: fmt.Sprintf("unknown option %q", name)}
		}
		if seen[name] {
			return &InvalidAnswerError{Group: g.Name, Reason: fmt.Sprintf("option %q selected twice", name)}
		}
		seen[name] = true
	}
	switch g.Type {
	case SelectExactlyOne:
		if len(chosen) != 1 {
			return &InvalidAnswerError{Group: g.Name, Reason: fmt.Sprintf("needs exactly one selection, got %d", len(chosen))}
		}
	case SelectAtMostOne:
		if len(chosen) > 1 {
			return &InvalidAnswerError{Group: g.Name, Reason: fmt.Sprintf("allows at most one selection, got %d", len(chosen))}
		}
	case SelectAtLeastOne:
		if len(chosen) == 0 {
			return &InvalidAnswerError{Group: g.Name, Reason: "needs at least one selection"}
		}
	}
	return nil
}

// eval decides a predicate against the answers. A Selected condition over
// an unanswered group is false, so visibility settles as steps are answered
// in order. A nil predicate holds.
func eval(p Predicate, answers Answers) bool {
	switch v := p.(type) {
	case nil:
		return true
	case And:
		for _, child := range v {
			if !eval(child, answers) {
				return false
			}
		}
		return true
	case Or:
		for _, child := range v {
			if eval(child, answers) {
				return true
			}
		}
		return false
	case Selected:
		for _, opt := range answers[v.Group] {
			if opt == v.Option {
				return true
			}
		}
		return false
	}
	return false
}

// expand resolves every mapping against the extracted tree, walking folder
// sources recursively, and folds the results into a plan where a later
// mapping to the same destination replaces an earlier one. Destination
// collisions are compared case-insensitively, matching the target
// filesystems the plan will be deployed onto.
func expand(root string, mappings []FileMapping) (store.Plan, error) {
	winners := map[string]store.InstallFile{}
	order := []string{}

	record := func(source, destination string) error {
		f, err := store.NewInstallFile(source, destination)
		if err != nil {
			return err
		}
		key := strings.ToLower(f.Destination)
		if _, seen := winners[key]; !seen {
			order = append(order, key)
		}
		winners[key] = f
		return nil
	}

	for _, m := range mappings {
		source, err := resolveSource(root, m.Source)
		if err != nil {
			return nil, err
		}
		dest := m.Destination
		if dest == "" {
			dest = source
		}
		if !m.Folder {
			if err := record(source, dest); err != nil {
				return nil, err
			}
			continue
		}
		base := filepath.Join(root, filepath.FromSlash(source))
		err = filepath.WalkDir(base, func(p string, entry fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !entry.Type().IsRegular() {
				return nil
			}
			rel, err := filepath.Rel(base, p)
			if err != nil {
				return err
			}
			rel = filepath.ToSlash(rel)
			return record(path.Join(source, rel), path.Join(dest, rel))
		})
		if err != nil {
			return nil, err
		}
	}

	plan := make(store.Plan, 0, len(order))
	for _, key := range order {
		plan = append(plan, winners[key])
	}
	sort.Slice(plan, func(i, j int) bool { return plan[i].Destination < plan[j].Destination })
	return plan, nil
}

// resolveSource locates a descriptor source path inside the extracted tree,
// matching each component case-insensitively, and returns the relative path
// as it exists on disk.
func resolveSource(root, source string) (string, error) {
	cleaned := strings.Trim(strings.ReplaceAll(source, `\`, "/"), "/")
	if cleaned == "" || cleaned == "." {
		return "", fmt.Errorf("%w: empty source path", ErrMalformedDescriptor)
	}
	resolved := make([]string, 0, 4)
	dir := root
	for _, want := range strings.Split(cleaned, "/") {
		entries, err := os.ReadDir(dir)
		if err != nil {
			return "", err
		}
		found := ""
		for _, entry := range entries {
			if strings.EqualFold(entry.Name(), want) {
				found = entry.Name()
				break
			}
		}
		if found == "" {
			return "", fmt.Errorf("%w: source %q not present in mod", ErrMalformedDescriptor, source)
		}
		resolved = append(resolved, found)
		dir = filepath.Join(dir, found)
	}
	return path.Join(resolved...), nil
}
