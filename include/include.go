// Package include composes independently defined nets into one net.
//
// Nets are included into each other to form a tree. Places of an included
// net stay private unless they are exported into the interface of the levels
// above them; an exported place can then be connected to the transitions of
// those levels with merge arcs. The composed net is rebuilt from the tree on
// every call to PetriNet, with every component renamed to the dot-joined path
// of include names leading to it.
package include

import (
	"fmt"
	"strings"

	petri "github.com/jt05610/xschema"
)

const root = -1

// node is one level of the hierarchy, stored in an arena and addressed by index.
type node struct {
	name       string
	net        *petri.Net
	parent     int
	children   []int
	byName     map[string]int
	interfaces map[string]*InterfacePlace
	available  map[string]bool
	merges     []*mergeArc
}

type arena struct {
	nodes []*node
}

func (a *arena) add(net *petri.Net, name string, parent int) int {
	a.nodes = append(a.nodes, &node{
		name:       name,
		net:        net,
		parent:     parent,
		byName:     make(map[string]int),
		interfaces: make(map[string]*InterfacePlace),
		available:  make(map[string]bool),
	})
	return len(a.nodes) - 1
}

// Hierarchy is a handle on one level of an include tree. Handles of the same
// tree share its arena, so a level obtained from Child stays valid as the tree grows.
type Hierarchy struct {
	arena  *arena
	handle int
}

// New starts a hierarchy with net at its root. An empty name leaves the
// root's components unqualified in the composed net.
func New(net *petri.Net, name string) *Hierarchy {
	a := &arena{}
	return &Hierarchy{arena: a, handle: a.add(net, name, root)}
}

func (h *Hierarchy) node() *node {
	return h.arena.nodes[h.handle]
}

func (h *Hierarchy) at(handle int) *Hierarchy {
	return &Hierarchy{arena: h.arena, handle: handle}
}

// Name is the name the level was included under.
func (h *Hierarchy) Name() string { return h.node().name }

// Net is the level's own net, without its includes.
func (h *Hierarchy) Net() *petri.Net { return h.node().net }

// Parent returns the including level, or nil at the root.
func (h *Hierarchy) Parent() *Hierarchy {
	if p := h.node().parent; p != root {
		return h.at(p)
	}
	return nil
}

// QualifiedName is the dot-joined path of include names from the root to this level.
func (h *Hierarchy) QualifiedName() string {
	return petri.Qualify(h.path(root)...)
}

// path returns the include names from just below top down to this level.
// top == root yields the full path including the root's name.
func (h *Hierarchy) path(top int) []string {
	names := make([]string, 0)
	for cur := h.handle; cur != top && cur != root; cur = h.arena.nodes[cur].parent {
		names = append([]string{h.arena.nodes[cur].name}, names...)
	}
	return names
}

// Include attaches net as a child of this level.
func (h *Hierarchy) Include(net *petri.Net, name string) (*Hierarchy, error) {
	if name == "" || strings.Contains(name, petri.Separator) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidIncludeName, name)
	}
	n := h.node()
	if _, found := n.byName[name]; found {
		return nil, fmt.Errorf("%w: %s already included in %s", ErrDuplicateIncludeName, name, h.describe())
	}
	child := h.arena.add(net, name, h.handle)
	n = h.node()
	n.children = append(n.children, child)
	n.byName[name] = child
	return h.at(child), nil
}

// Child returns the level included under name.
func (h *Hierarchy) Child(name string) (*Hierarchy, error) {
	if c, found := h.node().byName[name]; found {
		return h.at(c), nil
	}
	return nil, fmt.Errorf("%w: %s in %s", ErrIncludeNotFound, name, h.describe())
}

// Children returns the included levels in include order.
func (h *Hierarchy) Children() []*Hierarchy {
	ret := make([]*Hierarchy, len(h.node().children))
	for i, c := range h.node().children {
		ret[i] = h.at(c)
	}
	return ret
}

func (h *Hierarchy) describe() string {
	if q := h.QualifiedName(); q != "" {
		return q
	}
	return "root"
}

// resolve finds a place or transition by a name relative to this level: a
// component of this level's own net, or "<include>.<name>" of a descendant.
func (h *Hierarchy) resolve(name string, kind petri.Kind) (*Hierarchy, petri.Object, error) {
	if c, err := h.Net().Component(name, kind); err == nil {
		return h, c, nil
	}
	for _, c := range h.node().children {
		child := h.at(c)
		prefix := child.Name() + petri.Separator
		if !strings.HasPrefix(name, prefix) {
			continue
		}
		if owner, o, err := child.resolve(strings.TrimPrefix(name, prefix), kind); err == nil {
			return owner, o, nil
		}
	}
	return nil, nil, fmt.Errorf("%w: %s %s in %s", petri.ErrNotFound, kind, name, h.describe())
}
