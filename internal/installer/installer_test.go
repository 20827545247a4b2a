// SPDX-License-Identifier: MPL-2.0

package installer

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const exampleDescriptor = `<config>
  <moduleName>Fancy Textures</moduleName>
  <requiredInstallFiles>
    <file source="base/readme.txt" destination="Docs/fancy.txt"/>
    <folder source="base/core" destination="Data"/>
  </requiredInstallFiles>
  <installSteps>
    <installStep name="Texture Quality">
      <optionalFileGroups>
        <group name="resolution" type="SelectExactlyOne">
          <plugins>
            <plugin name="2K">
              <description>Lighter on memory.</description>
              <files><folder source="textures/2k" destination="Data/textures"/></files>
            </plugin>
            <plugin name="4K">
              <files><folder source="textures/4k" destination="Data/textures"/></files>
            </plugin>
          </plugins>
        </group>
      </optionalFileGroups>
    </installStep>
    <installStep name="Extras">
      <visible><selected group="resolution" option="4K"/></visible>
      <optionalFileGroups>
        <group name="extras" type="SelectAny">
          <plugins>
            <plugin name="Parallax">
              <files><file source="extras/parallax.esp" destination="Data/parallax.esp"/></files>
            </plugin>
          </plugins>
        </group>
        <group name="bundled" type="SelectAll">
          <plugins>
            <plugin name="Meshes">
              <files><folder source="extras/meshes" destination="Data/meshes"/></files>
            </plugin>
          </plugins>
        </group>
      </optionalFileGroups>
    </installStep>
  </installSteps>
  <conditionalFileInstalls>
    <patterns>
      <pattern>
        <dependencies operator="And">
          <selected group="resolution" option="4K"/>
          <selected group="extras" option="Parallax"/>
        </dependencies>
        <files><file source="extras/patch.esp" destination="Data/patch.esp"/></files>
      </pattern>
    </patterns>
  </conditionalFileInstalls>
</config>`

// writeTree lays out an extracted mod with a descriptor and content files.
func writeTree(t *testing.T, descriptor string, files ...string) string {
	t.Helper()
	root := t.TempDir()
	for _, rel := range files {
		p := filepath.Join(root, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, []byte(rel), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	if descriptor != "" {
		dir := filepath.Join(root, "fomod")
		if err := os.MkdirAll(dir, 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(filepath.Join(dir, "ModuleConfig.xml"), []byte(descriptor), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return root
}

func exampleTree(t *testing.T) string {
	t.Helper()
	return writeTree(t, exampleDescriptor,
		"base/readme.txt",
		"base/core/fancy.esp",
		"textures/2k/rock.dds",
		"textures/4k/rock.dds",
		"textures/4k/tree.dds",
		"extras/parallax.esp",
		"extras/meshes/rock.nif",
		"extras/patch.esp",
	)
}

func TestLoad(t *testing.T) {
	d, err := Load(exampleTree(t))
	if err != nil {
		t.Fatal(err)
	}
	if d.Name != "Fancy Textures" {
		t.Errorf("Name = %q", d.Name)
	}
	if len(d.Required) != 2 || !d.Required[1].Folder {
		t.Errorf("Required = %+v", d.Required)
	}
	if len(d.Steps) != 2 {
		t.Fatalf("got %d steps", len(d.Steps))
	}
	if d.Steps[0].Visible != nil {
		t.Error("first step should be unconditionally visible")
	}
	if want := (Selected{Group: "resolution", Option: "4K"}); d.Steps[1].Visible == nil {
		t.Error("second step should carry a visibility condition")
	} else if and, ok := d.Steps[1].Visible.(And); !ok || len(and) != 1 || and[0] != want {
		t.Errorf("Visible = %#v", d.Steps[1].Visible)
	}
	if len(d.Conditional) != 1 {
		t.Fatalf("got %d conditional installs", len(d.Conditional))
	}
}

func TestLoad_NoDescriptor(t *testing.T) {
	if _, err := Load(t.TempDir()); !errors.Is(err, ErrNoDescriptor) {
		t.Fatalf("want ErrNoDescriptor, got %v", err)
	}
}

func TestLoad_Malformed(t *testing.T) {
	tests := []struct {
		name       string
		descriptor string
		reason     string
	}{
		{
			"unrecognized condition tag",
			`<config><installSteps><installStep name="s">
				<visible><fileDependency file="x.esp"/></visible>
				<optionalFileGroups><group name="g" type="SelectAny"><plugins/></group></optionalFileGroups>
			</installStep></installSteps></config>`,
			"unrecognized condition tag",
		},
		{
			"unknown group type",
			`<config><installSteps><installStep name="s">
				<optionalFileGroups><group name="g" type="PickSome"><plugins/></group></optionalFileGroups>
			</installStep></installSteps></config>`,
			"unknown type",
		},
		{
			"dangling option reference",
			`<config><installSteps><installStep name="s">
				<optionalFileGroups><group name="g" type="SelectAny"><plugins>
					<plugin name="a"><files/></plugin>
				</plugins></group></optionalFileGroups>
			</installStep></installSteps>
			<conditionalFileInstalls><patterns><pattern>
				<dependencies><selected group="g" option="missing"/></dependencies>
				<files/>
			</pattern></patterns></conditionalFileInstalls></config>`,
			"nonexistent option",
		},
		{
			"duplicate group name",
			`<config><installSteps><installStep name="s">
				<optionalFileGroups>
					<group name="g" type="SelectAny"><plugins/></group>
					<group name="g" type="SelectAny"><plugins/></group>
				</optionalFileGroups>
			</installStep></installSteps></config>`,
			"duplicate group",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeTree(t, tt.descriptor))
			if !errors.Is(err, ErrMalformedDescriptor) {
				t.Fatalf("want ErrMalformedDescriptor, got %v", err)
			}
			if !strings.Contains(err.Error(), tt.reason) {
				t.Errorf("error %q should mention %q", err, tt.reason)
			}
		})
	}
}

func TestQuestions(t *testing.T) {
	d, err := Load(exampleTree(t))
	if err != nil {
		t.Fatal(err)
	}

	// Nothing answered: only the first step's group is in play, the
	// second step is still hidden.
	qs, err := d.Questions(Answers{})
	if err != nil {
		t.Fatal(err)
	}
	if len(qs) != 1 || qs[0].Group != "resolution" {
		t.Fatalf("pending = %+v", qs)
	}
	if qs[0].Type != SelectExactlyOne || len(qs[0].Options) != 2 {
		t.Errorf("question = %+v", qs[0])
	}

	// Picking 4K reveals the second step; its SelectAll group never asks.
	qs, err = d.Questions(Answers{"resolution": {"4K"}})
	if err != nil {
		t.Fatal(err)
	}
	if len(qs) != 1 || qs[0].Group != "extras" || qs[0].Step != "Extras" {
		t.Fatalf("pending = %+v", qs)
	}

	// Picking 2K keeps the second step hidden: nothing left to ask.
	qs, err = d.Questions(Answers{"resolution": {"2K"}})
	if err != nil {
		t.Fatal(err)
	}
	if len(qs) != 0 {
		t.Fatalf("pending = %+v", qs)
	}

	// An arity violation surfaces even during the question phase.
	_, err = d.Questions(Answers{"resolution": {"2K", "4K"}})
	if !errors.Is(err, ErrInvalidAnswer) {
		t.Fatalf("want ErrInvalidAnswer, got %v", err)
	}
}

func TestPlan(t *testing.T) {
	root := exampleTree(t)
	d, err := Load(root)
	if err != nil {
		t.Fatal(err)
	}

	plan, err := d.Plan(root, Answers{
		"resolution": {"4K"},
		"extras":     {"Parallax"},
	})
	if err != nil {
		t.Fatal(err)
	}

	got := map[string]string{}
	for _, f := range plan {
		got[f.Destination] = f.Source
	}
	want := map[string]string{
		"Docs/fancy.txt":         "base/readme.txt",
		"Data/fancy.esp":         "base/core/fancy.esp",
		"Data/textures/rock.dds": "textures/4k/rock.dds",
		"Data/textures/tree.dds": "textures/4k/tree.dds",
		"Data/parallax.esp":      "extras/parallax.esp",
		"Data/meshes/rock.nif":   "extras/meshes/rock.nif",
		"Data/patch.esp":         "extras/patch.esp",
	}
	if len(got) != len(want) {
		t.Fatalf("plan has %d files, want %d: %+v", len(got), len(want), got)
	}
	for dest, source := range want {
		if got[dest] != source {
			t.Errorf("dest %q: source = %q, want %q", dest, got[dest], source)
		}
	}
}

func TestPlan_HiddenStepAndConditional(t *testing.T) {
	root := exampleTree(t)
	d, err := Load(root)
	if err != nil {
		t.Fatal(err)
	}

	// 2K hides the Extras step, so neither the parallax plugin, the
	// bundled meshes nor the conditional patch are installed.
	plan, err := d.Plan(root, Answers{"resolution": {"2K"}})
	if err != nil {
		t.Fatal(err)
	}
	for _, f := range plan {
		if strings.HasPrefix(f.Source, "extras/") {
			t.Errorf("hidden step leaked %q into the plan", f.Source)
		}
	}
}

func TestPlan_Unanswered(t *testing.T) {
	root := exampleTree(t)
	d, err := Load(root)
	if err != nil {
		t.Fatal(err)
	}
	_, err = d.Plan(root, Answers{})
	if !errors.Is(err, ErrUnansweredGroup) {
		t.Fatalf("want ErrUnansweredGroup, got %v", err)
	}
	var unanswered *UnansweredGroupError
	if !errors.As(err, &unanswered) || unanswered.Group != "resolution" {
		t.Errorf("err = %v", err)
	}
}

func TestPlan_LaterMappingWins(t *testing.T) {
	descriptor := `<config>
		<requiredInstallFiles>
			<file source="low/rock.dds" destination="Data/textures/rock.dds"/>
		</requiredInstallFiles>
		<installSteps><installStep name="s">
			<optionalFileGroups><group name="g" type="SelectAll"><plugins>
				<plugin name="hi"><files>
					<file source="hi/rock.dds" destination="Data/Textures/Rock.dds"/>
				</files></plugin>
			</plugins></group></optionalFileGroups>
		</installStep></installSteps>
	</config>`
	root := writeTree(t, descriptor, "low/rock.dds", "hi/rock.dds")
	d, err := Load(root)
	if err != nil {
		t.Fatal(err)
	}
	plan, err := d.Plan(root, Answers{})
	if err != nil {
		t.Fatal(err)
	}
	if len(plan) != 1 {
		t.Fatalf("destinations differing only in case must fold together: %+v", plan)
	}
	if plan[0].Source != "hi/rock.dds" {
		t.Errorf("the later mapping should win, got %q", plan[0].Source)
	}
}

func TestPlan_CaseInsensitiveSources(t *testing.T) {
	descriptor := `<config>
		<requiredInstallFiles>
			<folder source="Textures/Rocks" destination="Data/textures"/>
		</requiredInstallFiles>
	</config>`
	root := writeTree(t, descriptor, "textures/rocks/granite.dds")
	d, err := Load(root)
	if err != nil {
		t.Fatal(err)
	}
	plan, err := d.Plan(root, Answers{})
	if err != nil {
		t.Fatal(err)
	}
	if len(plan) != 1 {
		t.Fatalf("plan = %+v", plan)
	}
	// The plan records the path as it exists on disk.
	if plan[0].Source != "textures/rocks/granite.dds" {
		t.Errorf("Source = %q", plan[0].Source)
	}
	if plan[0].Destination != "Data/textures/granite.dds" {
		t.Errorf("Destination = %q", plan[0].Destination)
	}
}

func TestPlan_MissingSource(t *testing.T) {
	descriptor := `<config>
		<requiredInstallFiles><file source="gone.esp"/></requiredInstallFiles>
	</config>`
	root := writeTree(t, descriptor)
	d, err := Load(root)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := d.Plan(root, Answers{}); !errors.Is(err, ErrMalformedDescriptor) {
		t.Fatalf("want ErrMalformedDescriptor, got %v", err)
	}
}
