// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"bytes"
	"slices"
	"strings"
	"testing"

	"modstack/internal/installer"
)

func question(t installer.GroupType, options ...string) installer.Question {
	q := installer.Question{Group: "g", Type: t}
	for _, name := range options {
		q.Options = append(q.Options, installer.Option{Name: name})
	}
	return q
}

func TestParseSelection(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		q       installer.Question
		want    []string
		wantErr bool
	}{
		{"single pick", "2", question(installer.SelectExactlyOne, "a", "b", "c"), []string{"b"}, false},
		{"multiple picks", "1 3", question(installer.SelectAny, "a", "b", "c"), []string{"a", "c"}, false},
		{"duplicates collapse", "2 2", question(installer.SelectAny, "a", "b"), []string{"b"}, false},
		{"empty allowed", "", question(installer.SelectAtMostOne, "a"), []string{}, false},
		{"empty rejected when required", "", question(installer.SelectExactlyOne, "a"), nil, true},
		{"out of range", "9", question(installer.SelectAny, "a"), nil, true},
		{"not a number", "first", question(installer.SelectAny, "a"), nil, true},
		{"too many for exactly one", "1 2", question(installer.SelectExactlyOne, "a", "b"), nil, true},
		{"too many for at most one", "1 2", question(installer.SelectAtMostOne, "a", "b"), nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseSelection(tt.input, tt.q)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("parseSelection(%q) should fail, got %v", tt.input, got)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if !slices.Equal(got, tt.want) {
				t.Errorf("parseSelection(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestRunInstaller(t *testing.T) {
	d := &installer.Descriptor{
		Steps: []installer.Step{
			{
				Name: "Main",
				Groups: []installer.Group{
					{
						Name: "variant",
						Type: installer.SelectExactlyOne,
						Options: []installer.Option{
							{Name: "Light"},
							{Name: "Dark"},
						},
					},
					{
						Name: "addons",
						Type: installer.SelectAny,
						Options: []installer.Option{
							{Name: "Extra sounds"},
						},
					},
				},
			},
		},
	}

	// First input is rejected and re-asked, then one pick per group.
	in := strings.NewReader("9\n2\n\n")
	var out bytes.Buffer
	answers, err := runInstaller(d, nil, in, &out)
	if err != nil {
		t.Fatal(err)
	}
	if got := answers["variant"]; len(got) != 1 || got[0] != "Dark" {
		t.Errorf("variant = %v", got)
	}
	if got, ok := answers["addons"]; !ok || len(got) != 0 {
		t.Errorf("addons should be answered with nothing, got %v (answered=%v)", got, ok)
	}
	if !strings.Contains(out.String(), "between 1 and 2") {
		t.Error("invalid input should be explained")
	}
}

func TestRunInstaller_RecordedAnswersSkipQuestions(t *testing.T) {
	d := &installer.Descriptor{
		Steps: []installer.Step{
			{
				Groups: []installer.Group{{
					Name:    "variant",
					Type:    installer.SelectExactlyOne,
					Options: []installer.Option{{Name: "Light"}, {Name: "Dark"}},
				}},
			},
		},
	}
	recorded := installer.Answers{"variant": {"Light"}}

	// No input available: everything must come from the recorded answers.
	answers, err := runInstaller(d, recorded, strings.NewReader(""), &bytes.Buffer{})
	if err != nil {
		t.Fatal(err)
	}
	if got := answers["variant"]; len(got) != 1 || got[0] != "Light" {
		t.Errorf("variant = %v", got)
	}

	// A recorded answer the descriptor no longer accepts is dropped and
	// the question is asked again.
	stale := installer.Answers{"variant": {"Gone"}}
	answers, err = runInstaller(d, stale, strings.NewReader("1\n"), &bytes.Buffer{})
	if err != nil {
		t.Fatal(err)
	}
	if got := answers["variant"]; len(got) != 1 || got[0] != "Light" {
		t.Errorf("variant = %v", got)
	}
}

func TestRunInstaller_Abort(t *testing.T) {
	d := &installer.Descriptor{
		Steps: []installer.Step{
			{
				Groups: []installer.Group{{
					Name:    "variant",
					Type:    installer.SelectExactlyOne,
					Options: []installer.Option{{Name: "Light"}},
				}},
			},
		},
	}
	if _, err := runInstaller(d, nil, strings.NewReader("q\n"), &bytes.Buffer{}); err == nil {
		t.Fatal("q should abort the installer")
	}
}
