package include

import (
	"fmt"

	petri "github.com/jt05610/xschema"
)

func (h *Hierarchy) subtree() []*Hierarchy {
	ret := []*Hierarchy{h}
	for _, c := range h.Children() {
		ret = append(ret, c.subtree()...)
	}
	return ret
}

// PetriNet composes this level and everything included below it into one net.
//
// Component names are qualified with the include names from this level down,
// this level's own name included when it has one. Markings are copied, so
// running the composed net leaves the included nets untouched.
func (h *Hierarchy) PetriNet() (*petri.Net, error) {
	base := h.node().parent
	levels := h.subtree()
	name := h.Name()
	if name == "" {
		name = h.Net().Name
	}
	out := petri.NewNet(name)
	for _, l := range levels {
		for _, t := range l.Net().Tokens {
			if _, err := out.Token(t.Name); err == nil {
				continue
			}
			if err := out.AddToken(petri.NewToken(t.Name)); err != nil {
				return nil, err
			}
		}
	}
	for _, l := range levels {
		prefix := petri.Qualify(l.path(base)...)
		for _, p := range l.Net().Places {
			cp := petri.NewPlace(petri.Qualify(prefix, p.Name))
			cp.Accessible = p.Accessible
			if err := out.AddPlace(cp); err != nil {
				return nil, fmt.Errorf("compose %s: %w", l.describe(), err)
			}
			for token, count := range p.Marking() {
				if err := out.SetMarking(cp.Name, token, count); err != nil {
					return nil, fmt.Errorf("compose %s: %w", l.describe(), err)
				}
			}
		}
		for _, t := range l.Net().Transitions {
			ct := &petri.Transition{Name: petri.Qualify(prefix, t.Name), Variant: t.Variant, Handler: t.Handler}
			if err := out.AddTransition(ct); err != nil {
				return nil, fmt.Errorf("compose %s: %w", l.describe(), err)
			}
		}
	}
	for _, l := range levels {
		prefix := petri.Qualify(l.path(base)...)
		for _, a := range l.Net().Arcs {
			ca, err := out.Connect(petri.Qualify(prefix, a.Src.String()), petri.Qualify(prefix, a.Dest.String()), a.Weights)
			if err != nil {
				return nil, fmt.Errorf("compose %s: %w", l.describe(), err)
			}
			ca.LinksNets = a.LinksNets
		}
	}
	for _, l := range levels {
		for _, m := range l.node().merges {
			ip := l.node().interfaces[m.iface]
			place := petri.Qualify(append(l.at(ip.home).path(base), ip.Place)...)
			transition := petri.Qualify(append(l.path(base), m.transition)...)
			src, dest := place, transition
			if m.dir == Outbound {
				src, dest = transition, place
			}
			a, err := out.Connect(src, dest, m.weights)
			if err != nil {
				return nil, fmt.Errorf("compose %s: merge arc %s: %w", l.describe(), m.iface, err)
			}
			a.LinksNets = true
		}
	}
	return out, nil
}
