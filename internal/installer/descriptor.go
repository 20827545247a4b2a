// SPDX-License-Identifier: MPL-2.0

package installer

import (
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"strings"

	"modstack/internal/store"
)

type (
	// GroupType is the selection arity of an option group.
	GroupType string

	// Descriptor is the parsed, validated installer manifest of one mod.
	Descriptor struct {
		// Name is the declared module name, empty when the descriptor
		// does not carry one.
		Name string
		// Required are file mappings installed regardless of answers.
		Required []FileMapping
		// Steps are evaluated in order; later steps may be conditioned on
		// selections made in earlier ones.
		Steps []Step
		// Conditional are file mappings installed when their predicate
		// holds over the final selections.
		Conditional []ConditionalInstall

		path string
	}

	// Step is one page of the installer: a set of option groups, shown
	// when its visibility predicate holds (nil means always visible).
	Step struct {
		Name    string
		Visible Predicate
		Groups  []Group
	}

	// Group offers options under a selection arity.
	Group struct {
		Name    string
		Type    GroupType
		Options []Option
	}

	// Option is one selectable choice contributing a set of file mappings.
	Option struct {
		Name        string
		Description string
		Files       []FileMapping
	}

	// FileMapping maps a source file or folder inside the extracted tree
	// to a destination relative to the game root. An empty destination
	// means "same path as the source".
	FileMapping struct {
		Source      string
		Destination string
		// Folder marks the source as a subtree to be expanded recursively.
		Folder bool
	}

	// ConditionalInstall installs extra files when a predicate over the
	// final selections holds.
	ConditionalInstall struct {
		When  Predicate
		Files []FileMapping
	}

	// Predicate is the closed set of condition variants: And, Or and
	// Selected. Nothing else evaluates; unrecognized descriptor tags fail
	// at load time.
	Predicate interface{ isPredicate() }

	// And holds when every child predicate holds. An empty And holds.
	And []Predicate

	// Or holds when at least one child predicate holds.
	Or []Predicate

	// Selected holds when the named option is among the answers recorded
	// for the named group.
	Selected struct {
		Group  string
		Option string
	}
)

func (And) isPredicate()      {}
func (Or) isPredicate()       {}
func (Selected) isPredicate() {}

const (
	// SelectExactlyOne requires exactly one selected option.
	SelectExactlyOne GroupType = "SelectExactlyOne"
	// SelectAtMostOne allows zero or one selected option.
	SelectAtMostOne GroupType = "SelectAtMostOne"
	// SelectAtLeastOne requires one or more selected options.
	SelectAtLeastOne GroupType = "SelectAtLeastOne"
	// SelectAny allows any number of selected options, including none.
	SelectAny GroupType = "SelectAny"
	// SelectAll selects every option; no question is asked.
	SelectAll GroupType = "SelectAll"
)

var groupTypes = map[string]GroupType{
	string(SelectExactlyOne): SelectExactlyOne,
	string(SelectAtMostOne):  SelectAtMostOne,
	string(SelectAtLeastOne): SelectAtLeastOne,
	string(SelectAny):        SelectAny,
	string(SelectAll):        SelectAll,
}

// Load parses and validates the installer descriptor of the extracted tree
// at dir. Returns ErrNoDescriptor when the tree has none and a
// MalformedDescriptorError for structural problems.
func Load(dir string) (*Descriptor, error) {
	path := store.DescriptorPath(dir)
	if path == "" {
		return nil, ErrNoDescriptor
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return parse(f, path)
}

func parse(r io.Reader, path string) (*Descriptor, error) {
	var cfg xmlConfig
	if err := xml.NewDecoder(r).Decode(&cfg); err != nil {
		return nil, &MalformedDescriptorError{Path: path, Reason: err.Error()}
	}

	d := &Descriptor{
		Name:     strings.TrimSpace(cfg.ModuleName),
		Required: cfg.Required.mappings(),
		path:     path,
	}

	for _, xs := range cfg.InstallSteps.Steps {
		step := Step{Name: xs.Name}
		if xs.Visible != nil {
			step.Visible = xs.Visible.predicate()
		}
		for _, xg := range xs.Groups {
			gt, ok := groupTypes[xg.Type]
			if !ok {
				return nil, &MalformedDescriptorError{
					Path:   path,
					Reason: fmt.Sprintf("group %q has unknown type %q", xg.Name, xg.Type),
				}
			}
			group := Group{Name: xg.Name, Type: gt}
			for _, xp := range xg.Plugins {
				group.Options = append(group.Options, Option{
					Name:        xp.Name,
					Description: strings.TrimSpace(xp.Description),
					Files:       xp.Files.mappings(),
				})
			}
			step.Groups = append(step.Groups, group)
		}
		d.Steps = append(d.Steps, step)
	}

	for _, xp := range cfg.Conditional.Patterns {
		d.Conditional = append(d.Conditional, ConditionalInstall{
			When:  xp.Dependencies.predicate(),
			Files: xp.Files.mappings(),
		})
	}

	if err := d.validate(); err != nil {
		return nil, err
	}
	return d, nil
}

// validate checks group-name uniqueness and that every Selected reference
// resolves to an existing group and option.
func (d *Descriptor) validate() error {
	options := map[string]map[string]bool{}
	for _, step := range d.Steps {
		for _, group := range step.Groups {
			if group.Name == "" {
				return d.malformed("group without a name")
			}
			if _, dup := options[group.Name]; dup {
				return d.malformed(fmt.Sprintf("duplicate group name %q", group.Name))
			}
			names := map[string]bool{}
			for _, opt := range group.Options {
				if opt.Name == "" {
					return d.malformed(fmt.Sprintf("group %q has an option without a name", group.Name))
				}
				if names[opt.Name] {
					return d.malformed(fmt.Sprintf("group %q has duplicate option %q", group.Name, opt.Name))
				}
				names[opt.Name] = true
			}
			options[group.Name] = names
		}
	}

	check := func(p Predicate) error { return d.checkRefs(p, options) }
	for _, step := range d.Steps {
		if step.Visible == nil {
			continue
		}
		if err := check(step.Visible); err != nil {
			return err
		}
	}
	for _, ci := range d.Conditional {
		if ci.When == nil {
			return d.malformed("conditional install without dependencies")
		}
		if err := check(ci.When); err != nil {
			return err
		}
	}
	return nil
}

func (d *Descriptor) checkRefs(p Predicate, options map[string]map[string]bool) error {
	switch v := p.(type) {
	case And:
		for _, child := range v {
			if err := d.checkRefs(child, options); err != nil {
				return err
			}
		}
	case Or:
		for _, child := range v {
			if err := d.checkRefs(child, options); err != nil {
				return err
			}
		}
	case Selected:
		opts, ok := options[v.Group]
		if !ok {
			return d.malformed(fmt.Sprintf("condition references nonexistent group %q", v.Group))
		}
		if !opts[v.Option] {
			return d.malformed(fmt.Sprintf("condition references nonexistent option %q in group %q", v.Option, v.Group))
		}
	}
	return nil
}

func (d *Descriptor) malformed(reason string) error {
	return &MalformedDescriptorError{Path: d.path, Reason: reason}
}

// --- XML schema ---

type (
	xmlConfig struct {
		XMLName      xml.Name    `xml:"config"`
		ModuleName   string      `xml:"moduleName"`
		Required     xmlFileList `xml:"requiredInstallFiles"`
		InstallSteps struct {
			Steps []xmlStep `xml:"installStep"`
		} `xml:"installSteps"`
		Conditional struct {
			Patterns []xmlPattern `xml:"patterns>pattern"`
		} `xml:"conditionalFileInstalls"`
	}

	xmlFileList struct {
		Files   []xmlFile `xml:"file"`
		Folders []xmlFile `xml:"folder"`
	}

	xmlFile struct {
		Source      string `xml:"source,attr"`
		Destination string `xml:"destination,attr"`
	}

	xmlStep struct {
		Name    string        `xml:"name,attr"`
		Visible *xmlPredicate `xml:"visible"`
		Groups  []xmlGroup    `xml:"optionalFileGroups>group"`
	}

	xmlGroup struct {
		Name    string      `xml:"name,attr"`
		Type    string      `xml:"type,attr"`
		Plugins []xmlPlugin `xml:"plugins>plugin"`
	}

	xmlPlugin struct {
		Name        string      `xml:"name,attr"`
		Description string      `xml:"description"`
		Files       xmlFileList `xml:"files"`
	}

	xmlPattern struct {
		Dependencies xmlPredicate `xml:"dependencies"`
		Files        xmlFileList  `xml:"files"`
	}

	// xmlPredicate is a condition node: an operator attribute (And/Or,
	// And by default) over <selected>, <and> and <or> children. Parsing is
	// strict: any other child tag is a malformed descriptor.
	xmlPredicate struct {
		Operator string
		Selected []xmlSelected
		Children []xmlPredicate
	}

	xmlSelected struct {
		Group  string `xml:"group,attr"`
		Option string `xml:"option,attr"`
	}
)

func (l xmlFileList) mappings() []FileMapping {
	out := make([]FileMapping, 0, len(l.Files)+len(l.Folders))
	for _, f := range l.Files {
		out = append(out, FileMapping{Source: f.Source, Destination: f.Destination})
	}
	for _, f := range l.Folders {
		out = append(out, FileMapping{Source: f.Source, Destination: f.Destination, Folder: true})
	}
	return out
}

// UnmarshalXML parses a condition node, rejecting unrecognized tags.
func (p *xmlPredicate) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	p.Operator = "And"
	for _, attr := range start.Attr {
		switch attr.Name.Local {
		case "operator":
			switch attr.Value {
			case "And", "Or":
				p.Operator = attr.Value
			default:
				return fmt.Errorf("unknown condition operator %q", attr.Value)
			}
		default:
			return fmt.Errorf("unrecognized condition attribute %q", attr.Name.Local)
		}
	}

	for {
		tok, err := d.Token()
		if err != nil {
			return err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "selected":
				var s xmlSelected
				if err := d.DecodeElement(&s, &t); err != nil {
					return err
				}
				p.Selected = append(p.Selected, s)
			case "and", "or":
				var child xmlPredicate
				if err := child.UnmarshalXML(d, t); err != nil {
					return err
				}
				if len(t.Attr) == 0 {
					// <and>/<or> imply their operator unless one was given.
					if t.Name.Local == "and" {
						child.Operator = "And"
					} else {
						child.Operator = "Or"
					}
				}
				p.Children = append(p.Children, child)
			default:
				return fmt.Errorf("unrecognized condition tag <%s>", t.Name.Local)
			}
		case xml.EndElement:
			return nil
		}
	}
}

func (p *xmlPredicate) predicate() Predicate {
	children := make([]Predicate, 0, len(p.Selected)+len(p.Children))
	for _, s := range p.Selected {
		children = append(children, Selected{Group: s.Group, Option: s.Option})
	}
	for i := range p.Children {
		children = append(children, p.Children[i].predicate())
	}
	if p.Operator == "Or" {
		return Or(children)
	}
	return And(children)
}
