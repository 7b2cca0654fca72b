package petri

var _ Node = (*Place)(nil)

// Place represents a place.
type Place struct {
	// Name is the qualified name of the place.
	Name string
	// Accessible places may be exported into the interface of an including net.
	Accessible bool
	marking    map[string]int
}

// NewPlace creates a new, empty place.
func NewPlace(name string) *Place {
	return &Place{
		Name:    name,
		marking: make(map[string]int),
	}
}

// ExternallyAccessible flags the place so a parent net may export it.
func (p *Place) ExternallyAccessible() *Place {
	p.Accessible = true
	return p
}

// Tokens returns how many tokens of the given type the place holds.
func (p *Place) Tokens(token string) int {
	return p.marking[token]
}

// Total returns the number of tokens of every type in the place.
func (p *Place) Total() int {
	total := 0
	for _, n := range p.marking {
		total += n
	}
	return total
}

// Marking returns a copy of the place's marking.
func (p *Place) Marking() map[string]int {
	ret := make(map[string]int, len(p.marking))
	for k, v := range p.marking {
		ret[k] = v
	}
	return ret
}

func (p *Place) set(token string, count int) {
	if p.marking == nil {
		p.marking = make(map[string]int)
	}
	if count == 0 {
		delete(p.marking, token)
		return
	}
	p.marking[token] = count
}

func (p *Place) Kind() Kind { return PlaceObject }

func (p *Place) IsNode() {}

func (p *Place) String() string { return p.Name }
