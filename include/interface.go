package include

import (
	"fmt"
	"sort"

	petri "github.com/jt05610/xschema"
)

// Direction is the direction of a merge arc relative to its transition.
type Direction int

const (
	// Inbound arcs run from the interface place into the transition.
	Inbound Direction = iota
	// Outbound arcs run from the transition into the interface place.
	Outbound
)

func (d Direction) String() string {
	if d == Outbound {
		return "outbound"
	}
	return "inbound"
}

// InterfacePlace is a place of some level exported to another level, under
// the name it is known by at that level.
type InterfacePlace struct {
	// Name is the name of the interface place at the level it is registered.
	Name string
	// Place is the local name of the place in the net it belongs to.
	Place string
	home  int
	level int
}

func (ip *InterfacePlace) same(o *InterfacePlace) bool {
	return ip.home == o.home && ip.Place == o.Place
}

type mergeArc struct {
	dir        Direction
	iface      string
	transition string
	weights    map[string]string
}

type registration struct {
	level *Hierarchy
	name  string
}

// AddToInterface exports a place of this level, or of a descendant when named
// "<include>.<place>", into the interface of the levels above it.
//
// With home set the place is registered at its own level under its local name
// and at every ancestor under its path relative to that ancestor, e.g.
// "Close_hand.Enabled". With away set it is also registered at each of those
// levels under its fully qualified name, root name included. The returned
// interface place is the one registered at this level.
func (h *Hierarchy) AddToInterface(place string, home, away bool) (*InterfacePlace, error) {
	if !home && !away {
		return nil, fmt.Errorf("%w: %s", ErrInvalidExport, place)
	}
	owner, o, err := h.resolve(place, petri.PlaceObject)
	if err != nil {
		return nil, err
	}
	p := o.(*petri.Place)
	if !p.Accessible {
		return nil, fmt.Errorf("%w: %s in %s", ErrPlaceNotExternallyAccessible, p.Name, owner.describe())
	}
	regs := make([]registration, 0)
	for lvl := owner; lvl != nil; lvl = lvl.Parent() {
		if home {
			regs = append(regs, registration{lvl, petri.Qualify(append(owner.path(lvl.handle), p.Name)...)})
		}
		if away {
			regs = append(regs, registration{lvl, petri.Qualify(append(owner.path(root), p.Name)...)})
		}
	}
	for _, r := range regs {
		if existing, found := r.level.node().interfaces[r.name]; found {
			if existing.home != owner.handle || existing.Place != p.Name {
				return nil, fmt.Errorf("%w: interface place %s in %s", petri.ErrDuplicateIdentity, r.name, r.level.describe())
			}
		}
	}
	var mine *InterfacePlace
	for _, r := range regs {
		n := r.level.node()
		ip, found := n.interfaces[r.name]
		if !found {
			ip = &InterfacePlace{Name: r.name, Place: p.Name, home: owner.handle, level: r.level.handle}
			n.interfaces[r.name] = ip
		}
		if r.level.handle == h.handle && mine == nil {
			mine = ip
		}
	}
	return mine, nil
}

// InterfacePlace returns a place exported to this level by the name it is known by here.
func (h *Hierarchy) InterfacePlace(name string) (*InterfacePlace, error) {
	if ip, found := h.node().interfaces[name]; found {
		return ip, nil
	}
	return nil, fmt.Errorf("%w: %s in %s", ErrInterfaceNotFound, name, h.describe())
}

// InterfacePlaces returns every place exported to this level, sorted by name.
func (h *Hierarchy) InterfacePlaces() []*InterfacePlace {
	ret := make([]*InterfacePlace, 0, len(h.node().interfaces))
	for _, ip := range h.node().interfaces {
		ret = append(ret, ip)
	}
	sort.Slice(ret, func(i, j int) bool { return ret[i].Name < ret[j].Name })
	return ret
}

// AddAvailablePlaceToPetriNet makes an interface place of this level available
// to the arcs of this level. In the composed net it is the home place itself.
func (h *Hierarchy) AddAvailablePlaceToPetriNet(ip *InterfacePlace) error {
	n := h.node()
	existing, found := n.interfaces[ip.Name]
	if !found || !existing.same(ip) {
		return fmt.Errorf("%w: %s in %s", ErrInterfaceNotFound, ip.Name, h.describe())
	}
	n.available[ip.Name] = true
	return nil
}

// QualifiedPlace returns the composed name of an interface place of this level.
func (h *Hierarchy) QualifiedPlace(name string) (string, error) {
	ip, err := h.InterfacePlace(name)
	if err != nil {
		return "", err
	}
	return petri.Qualify(append(h.at(ip.home).path(root), ip.Place)...), nil
}

// AddMergeArc connects a transition, named relative to this level, to an
// interface place that was made available at this level.
func (h *Hierarchy) AddMergeArc(dir Direction, iface, transition string, weights map[string]string) error {
	n := h.node()
	if _, found := n.interfaces[iface]; !found {
		return fmt.Errorf("%w: %s in %s", ErrInterfaceNotFound, iface, h.describe())
	}
	if !n.available[iface] {
		return fmt.Errorf("%w: %s was not added to the net of %s", ErrInterfaceNotFound, iface, h.describe())
	}
	if _, _, err := h.resolve(transition, petri.TransitionObject); err != nil {
		return err
	}
	for _, m := range n.merges {
		if m.dir == dir && m.iface == iface && m.transition == transition {
			return fmt.Errorf("%w: merge arc %s %s %s", petri.ErrDuplicateIdentity, iface, dir, transition)
		}
	}
	w := make(map[string]string, len(weights))
	for k, v := range weights {
		w[k] = v
	}
	n.merges = append(n.merges, &mergeArc{dir: dir, iface: iface, transition: transition, weights: w})
	return nil
}

// BuildMergeArc exports homePlace of the child included as child, makes it
// available here under awayName and connects it to transition.
func (h *Hierarchy) BuildMergeArc(dir Direction, child, homePlace, transition, awayName string, weights map[string]string) error {
	c, err := h.Child(child)
	if err != nil {
		return err
	}
	if _, err := c.AddToInterface(homePlace, true, false); err != nil {
		return err
	}
	ip, err := h.InterfacePlace(awayName)
	if err != nil {
		return err
	}
	if err := h.AddAvailablePlaceToPetriNet(ip); err != nil {
		return err
	}
	return h.AddMergeArc(dir, awayName, transition, weights)
}
