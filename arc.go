package petri

import "sort"

var _ Object = (*Arc)(nil)

// Arc is a connection from a place to a transition or a transition to a place.
type Arc struct {
	// Src is the place or transition that is the source of the arc.
	Src Node
	// Dest is the place or transition that is the destination of the arc.
	Dest Node
	// Weights maps a token name to the weight expression of that token on this arc.
	Weights map[string]string
	// LinksNets is set on merge arcs, which connect levels of an include hierarchy.
	LinksNets bool

	place      *Place
	transition *Transition
	weights    map[string]*weight
	tokens     []string
}

// NewArc creates an arc. Endpoints are resolved by name when the arc is added
// to a net, so nodes of another net with the same names may be used.
func NewArc(from, to Node, weights map[string]string) *Arc {
	w := make(map[string]string, len(weights))
	for k, v := range weights {
		w[k] = v
	}
	return &Arc{
		Src:     from,
		Dest:    to,
		Weights: w,
	}
}

// Inbound reports whether the arc runs from a place into a transition.
func (a *Arc) Inbound() bool {
	return a.Src.Kind() == PlaceObject
}

// Place returns the place end of an arc that belongs to a net.
func (a *Arc) Place() *Place { return a.place }

// Transition returns the transition end of an arc that belongs to a net.
func (a *Arc) Transition() *Transition { return a.transition }

// TokenNames returns the tokens the arc carries, sorted.
func (a *Arc) TokenNames() []string {
	if a.tokens != nil {
		return a.tokens
	}
	ret := make([]string, 0, len(a.Weights))
	for k := range a.Weights {
		ret = append(ret, k)
	}
	sort.Strings(ret)
	return ret
}

// Weight returns the weight of token on the arc when it does not depend on
// the marking. ok is false for expression weights and tokens the arc does
// not carry.
func (a *Arc) Weight(token string) (n int, ok bool) {
	w, found := a.weights[token]
	if !found {
		return 0, false
	}
	return w.Constant()
}

func (a *Arc) Kind() Kind { return ArcObject }

func (a *Arc) String() string {
	return a.Src.String() + " TO " + a.Dest.String()
}
