// SPDX-License-Identifier: MPL-2.0

package deploy

import (
	"sort"
	"strings"

	"modstack/internal/store"
)

type (
	// ModFiles is one enabled mod's contribution to the overlay: its
	// identifier, its extracted tree and its file selection plan.
	ModFiles struct {
		ID   string
		Dir  string
		Plan store.Plan
	}

	// Contributor is one mod's candidate for a destination.
	Contributor struct {
		Mod    string
		Source string
	}

	// Resolved is the winning file for one destination. Destination keeps
	// the casing of the winning plan entry.
	Resolved struct {
		Destination string
		Mod         string
		// Dir is the winning mod's extracted tree, Source the path of the
		// file inside it.
		Dir    string
		Source string
	}

	// Conflict is a destination more than one enabled mod provides.
	// Contributors are in load order; the last one is the winner.
	Conflict struct {
		Destination  string
		Contributors []Contributor
	}

	// Overlay is the merged view of all enabled plans: one winner per
	// destination, compared case-insensitively.
	Overlay struct {
		winners      map[string]Resolved
		contributors map[string][]Contributor
	}
)

// ComputeOverlay merges the plans in ascending priority: when two mods map
// the same destination, the later mod's file replaces the earlier one.
// The merge is pure; nothing is read from disk.
func ComputeOverlay(mods []ModFiles) *Overlay {
	o := &Overlay{
		winners:      map[string]Resolved{},
		contributors: map[string][]Contributor{},
	}
	for _, m := range mods {
		for _, f := range m.Plan {
			key := strings.ToLower(f.Destination)
			o.winners[key] = Resolved{
				Destination: f.Destination,
				Mod:         m.ID,
				Dir:         m.Dir,
				Source:      f.Source,
			}
			o.contributors[key] = append(o.contributors[key], Contributor{
				Mod:    m.ID,
				Source: f.Source,
			})
		}
	}
	return o
}

// Files returns the winning entries sorted by destination.
func (o *Overlay) Files() []Resolved {
	out := make([]Resolved, 0, len(o.winners))
	for _, r := range o.winners {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool {
		return strings.ToLower(out[i].Destination) < strings.ToLower(out[j].Destination)
	})
	return out
}

// Winner returns the resolved entry for a destination, matched
// case-insensitively.
func (o *Overlay) Winner(destination string) (Resolved, bool) {
	r, ok := o.winners[strings.ToLower(destination)]
	return r, ok
}

// Conflicts returns every destination with more than one contributor,
// sorted by destination.
func (o *Overlay) Conflicts() []Conflict {
	var out []Conflict
	for key, cs := range o.contributors {
		if len(cs) < 2 {
			continue
		}
		out = append(out, Conflict{
			Destination:  o.winners[key].Destination,
			Contributors: cs,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		return strings.ToLower(out[i].Destination) < strings.ToLower(out[j].Destination)
	})
	return out
}

// Provides returns how many destinations a mod contributes to the overlay
// and how many of those its file wins. A mod with total > 0 and won == 0
// is fully overwritten by later mods.
func (o *Overlay) Provides(id string) (total, won int) {
	for key, cs := range o.contributors {
		for _, c := range cs {
			if c.Mod != id {
				continue
			}
			total++
			if o.winners[key].Mod == id {
				won++
			}
			break
		}
	}
	return total, won
}

// ModConflict summarizes one mod pairing from the perspective of the mod
// asked about: Wins are the shared destinations its file provides, Losses
// the ones Other overrides.
type ModConflict struct {
	Other  string
	Wins   []string
	Losses []string
}

// ModConflicts summarizes the conflicts touching one mod, grouped by the
// other mod involved and sorted by its identifier.
func (o *Overlay) ModConflicts(id string) []ModConflict {
	byOther := map[string]*ModConflict{}
	for key, cs := range o.contributors {
		pos := -1
		for i, c := range cs {
			if c.Mod == id {
				pos = i
			}
		}
		if pos < 0 {
			continue
		}
		dest := o.winners[key].Destination
		for i, c := range cs {
			if c.Mod == id {
				continue
			}
			mc := byOther[c.Mod]
			if mc == nil {
				mc = &ModConflict{Other: c.Mod}
				byOther[c.Mod] = mc
			}
			if i < pos {
				mc.Wins = append(mc.Wins, dest)
			} else {
				mc.Losses = append(mc.Losses, dest)
			}
		}
	}
	out := make([]ModConflict, 0, len(byOther))
	for _, mc := range byOther {
		sort.Strings(mc.Wins)
		sort.Strings(mc.Losses)
		out = append(out, *mc)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Other < out[j].Other })
	return out
}
