// Package petrifile defines the file format nets are authored in.
//
// A petrifile declares one net and, optionally, the petrifiles it includes,
// the places it exports from them and the merge arcs connecting them:
//
//	petri: v1
//	name: Grasp
//	places: [Enabled, Ready, Ongoing, Done]
//	transitions: [Prepare, Start, Finish]
//	arcs:
//	  - {from: Enabled, to: Prepare}
//	includes:
//	  - {name: Close_hand, file: close_hand.yaml}
//	merges:
//	  - {direction: outbound, child: Close_hand, place: Enabled, transition: Start}
package petrifile

import (
	"errors"
	"fmt"

	petri "github.com/jt05610/xschema"
	"github.com/jt05610/xschema/include"
	"gopkg.in/yaml.v3"
)

var ErrInvalidPetrifile = errors.New("invalid petrifile")

type Petrifile struct {
	Petri       Version      `yaml:"petri"`
	Name        string       `yaml:"name"`
	Tokens      []string     `yaml:"tokens,omitempty"`
	Places      []Place      `yaml:"places"`
	Transitions []Transition `yaml:"transitions"`
	Arcs        []Arc        `yaml:"arcs"`
	Includes    []Include    `yaml:"includes,omitempty"`
	Merges      []Merge      `yaml:"merges,omitempty"`
}

// Place is written either as its name or as a mapping.
type Place struct {
	Name       string         `yaml:"name"`
	Accessible bool           `yaml:"accessible,omitempty"`
	Marking    map[string]int `yaml:"marking,omitempty"`
}

func (p *Place) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.ScalarNode {
		return value.Decode(&p.Name)
	}
	type plain Place
	return value.Decode((*plain)(p))
}

// Transition is written either as its name or as a mapping. Handler names
// the handler an external transition is bound to.
type Transition struct {
	Name     string `yaml:"name"`
	External bool   `yaml:"external,omitempty"`
	Handler  string `yaml:"handler,omitempty"`
}

func (t *Transition) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.ScalarNode {
		return value.Decode(&t.Name)
	}
	type plain Transition
	return value.Decode((*plain)(t))
}

// Arc weights map token names to weight expressions. No weights means a
// weight of 1 of the net's default token.
type Arc struct {
	From    string            `yaml:"from"`
	To      string            `yaml:"to"`
	Weights map[string]string `yaml:"weights,omitempty"`
}

// Include names another petrifile included under Name. Exports are places
// of the included net, or of its own includes, exported into this net's
// interface.
type Include struct {
	Name    string   `yaml:"name"`
	File    string   `yaml:"file"`
	Exports []string `yaml:"exports,omitempty"`
}

// Merge connects Transition of this net to Place of the include Child. As is
// the interface name of the place here and defaults to "Child.Place".
type Merge struct {
	Direction  string            `yaml:"direction"`
	Child      string            `yaml:"child"`
	Place      string            `yaml:"place"`
	Transition string            `yaml:"transition"`
	As         string            `yaml:"as,omitempty"`
	Weights    map[string]string `yaml:"weights,omitempty"`
}

func (m Merge) Dir() (include.Direction, error) {
	switch m.Direction {
	case "inbound", "in":
		return include.Inbound, nil
	case "outbound", "out":
		return include.Outbound, nil
	}
	return 0, fmt.Errorf("%w: merge direction %q", ErrInvalidPetrifile, m.Direction)
}

// InterfaceName is the name the merged place is known by in this net.
func (m Merge) InterfaceName() string {
	if m.As != "" {
		return m.As
	}
	return petri.Qualify(m.Child, m.Place)
}

// Validate checks what the net model does not: the version, the name and
// the merge directions.
func (f *Petrifile) Validate() error {
	if f.Petri != Unknown && f.Petri != V1 {
		return fmt.Errorf("%w: unsupported version %q", ErrInvalidPetrifile, f.Petri)
	}
	if f.Name == "" {
		return fmt.Errorf("%w: missing name", ErrInvalidPetrifile)
	}
	for _, m := range f.Merges {
		if _, err := m.Dir(); err != nil {
			return err
		}
	}
	return nil
}

// Net builds the net the petrifile declares, without its includes.
func (f *Petrifile) Net() (*petri.Net, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}
	net := petri.NewNet(f.Name)
	tokens := f.Tokens
	if len(tokens) == 0 {
		tokens = []string{petri.DefaultToken}
	}
	for _, t := range tokens {
		if err := net.AddToken(petri.NewToken(t)); err != nil {
			return nil, fmt.Errorf("%s: %w", f.Name, err)
		}
	}
	for _, p := range f.Places {
		place := petri.NewPlace(p.Name)
		place.Accessible = p.Accessible
		if err := net.AddPlace(place); err != nil {
			return nil, fmt.Errorf("%s: %w", f.Name, err)
		}
		for token, count := range p.Marking {
			if err := net.SetMarking(p.Name, token, count); err != nil {
				return nil, fmt.Errorf("%s: %w", f.Name, err)
			}
		}
	}
	for _, t := range f.Transitions {
		tr := petri.NewTransition(t.Name)
		if t.External {
			tr = petri.NewExternalTransition(t.Name, t.Handler)
		}
		if err := net.AddTransition(tr); err != nil {
			return nil, fmt.Errorf("%s: %w", f.Name, err)
		}
	}
	for _, a := range f.Arcs {
		if _, err := net.Connect(a.From, a.To, a.Weights); err != nil {
			return nil, fmt.Errorf("%s: %w", f.Name, err)
		}
	}
	return net, nil
}
