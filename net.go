package petri

import (
	"fmt"
	"sort"
	"strings"
)

// Net is a place/transition net with integer markings per token type.
//
// Places and transitions share one namespace. The structure of a net is meant
// to be fixed before it is executed; only markings change while it runs.
type Net struct {
	Name        string
	Tokens      []*Token
	Places      []*Place
	Transitions []*Transition
	Arcs        []*Arc
	tokens      map[string]*Token
	components  map[string]Node
	arcs        map[string]*Arc
	inputs      map[string][]*Arc
	outputs     map[string][]*Arc
}

func NewNet(name string) *Net {
	return &Net{
		Name:       name,
		tokens:     make(map[string]*Token),
		components: make(map[string]Node),
		arcs:       make(map[string]*Arc),
		inputs:     make(map[string][]*Arc),
		outputs:    make(map[string][]*Arc),
	}
}

// Add registers components in order. Tokens should come before the arcs that
// weigh them and nodes before the arcs that connect them.
func (n *Net) Add(oo ...Object) error {
	for _, o := range oo {
		var err error
		switch c := o.(type) {
		case *Token:
			err = n.AddToken(c)
		case *Place:
			err = n.AddPlace(c)
		case *Transition:
			err = n.AddTransition(c)
		case *Arc:
			err = n.AddArc(c)
		default:
			err = fmt.Errorf("cannot add %T to a net", o)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func (n *Net) AddToken(t *Token) error {
	if _, found := n.tokens[t.Name]; found {
		return fmt.Errorf("%w: token %s", ErrDuplicateIdentity, t.Name)
	}
	n.tokens[t.Name] = t
	n.Tokens = append(n.Tokens, t)
	return nil
}

func (n *Net) AddPlace(p *Place) error {
	if err := n.register(p); err != nil {
		return err
	}
	if p.marking == nil {
		p.marking = make(map[string]int)
	}
	for token := range p.marking {
		if _, found := n.tokens[token]; !found {
			delete(n.components, p.Name)
			return fmt.Errorf("%w: %s marks %s", ErrUnknownToken, p.Name, token)
		}
	}
	n.Places = append(n.Places, p)
	return nil
}

func (n *Net) AddTransition(t *Transition) error {
	if err := n.register(t); err != nil {
		return err
	}
	n.Transitions = append(n.Transitions, t)
	return nil
}

func (n *Net) register(node Node) error {
	if _, found := n.components[node.String()]; found {
		return fmt.Errorf("%w: %s %s", ErrDuplicateIdentity, node.Kind(), node.String())
	}
	n.components[node.String()] = node
	return nil
}

// AddArc adds an arc, binding its endpoints to this net's nodes of the same names.
func (n *Net) AddArc(a *Arc) error {
	src, found := n.components[a.Src.String()]
	if !found {
		return fmt.Errorf("%w: arc source %s", ErrNotFound, a.Src.String())
	}
	dest, found := n.components[a.Dest.String()]
	if !found {
		return fmt.Errorf("%w: arc target %s", ErrNotFound, a.Dest.String())
	}
	if src.Kind() == dest.Kind() {
		return fmt.Errorf("%w: cannot connect %s %s to %s %s", ErrInvalidArc, src.Kind(), src, dest.Kind(), dest)
	}
	a.Src, a.Dest = src, dest
	if _, found := n.arcs[a.String()]; found {
		return fmt.Errorf("%w: arc %s", ErrDuplicateIdentity, a.String())
	}
	if len(a.Weights) == 0 {
		token, err := n.defaultToken()
		if err != nil {
			return fmt.Errorf("arc %s: %w", a, err)
		}
		a.Weights = map[string]string{token: "1"}
	}
	a.weights = make(map[string]*weight, len(a.Weights))
	for token, src := range a.Weights {
		if _, found := n.tokens[token]; !found {
			return fmt.Errorf("%w: arc %s weighs %s", ErrUnknownToken, a, token)
		}
		w, err := compileWeight(src)
		if err != nil {
			return fmt.Errorf("arc %s: %w", a, err)
		}
		a.weights[token] = w
	}
	a.tokens = nil
	a.tokens = a.TokenNames()
	if a.Inbound() {
		a.place, a.transition = src.(*Place), dest.(*Transition)
		n.inputs[a.transition.Name] = append(n.inputs[a.transition.Name], a)
	} else {
		a.place, a.transition = dest.(*Place), src.(*Transition)
		n.outputs[a.transition.Name] = append(n.outputs[a.transition.Name], a)
	}
	n.arcs[a.String()] = a
	n.Arcs = append(n.Arcs, a)
	return nil
}

// Connect builds and adds an arc between two nodes of the net.
func (n *Net) Connect(from, to string, weights map[string]string) (*Arc, error) {
	src, found := n.components[from]
	if !found {
		return nil, fmt.Errorf("%w: arc source %s", ErrNotFound, from)
	}
	dest, found := n.components[to]
	if !found {
		return nil, fmt.Errorf("%w: arc target %s", ErrNotFound, to)
	}
	a := NewArc(src, dest, weights)
	return a, n.AddArc(a)
}

func (n *Net) defaultToken() (string, error) {
	if _, found := n.tokens[DefaultToken]; found {
		return DefaultToken, nil
	}
	if len(n.Tokens) == 1 {
		return n.Tokens[0].Name, nil
	}
	return "", fmt.Errorf("%w: no weights and no default token", ErrInvalidArc)
}

// Component looks a node up by name and kind.
func (n *Net) Component(name string, kind Kind) (Object, error) {
	switch kind {
	case TokenObject:
		if t, found := n.tokens[name]; found {
			return t, nil
		}
	case ArcObject:
		if a, found := n.arcs[name]; found {
			return a, nil
		}
	default:
		if c, found := n.components[name]; found && c.Kind() == kind {
			return c, nil
		}
	}
	return nil, fmt.Errorf("%w: %s %s", ErrNotFound, kind, name)
}

func (n *Net) Place(name string) (*Place, error) {
	c, err := n.Component(name, PlaceObject)
	if err != nil {
		return nil, err
	}
	return c.(*Place), nil
}

func (n *Net) Transition(name string) (*Transition, error) {
	c, err := n.Component(name, TransitionObject)
	if err != nil {
		return nil, err
	}
	return c.(*Transition), nil
}

func (n *Net) Token(name string) (*Token, error) {
	c, err := n.Component(name, TokenObject)
	if err != nil {
		return nil, err
	}
	return c.(*Token), nil
}

// Inputs returns the inbound arcs of a transition.
func (n *Net) Inputs(t *Transition) []*Arc {
	return n.inputs[t.Name]
}

// Outputs returns the outbound arcs of a transition.
func (n *Net) Outputs(t *Transition) []*Arc {
	return n.outputs[t.Name]
}

// Marking returns the count of a token type in a place.
func (n *Net) Marking(place, token string) (int, error) {
	p, err := n.Place(place)
	if err != nil {
		return 0, fmt.Errorf("%w: %s", ErrUnknownPlace, place)
	}
	if _, found := n.tokens[token]; !found {
		return 0, fmt.Errorf("%w: %s", ErrUnknownToken, token)
	}
	return p.Tokens(token), nil
}

// SetMarking overrides the count of a token type in a place.
func (n *Net) SetMarking(place, token string, count int) error {
	p, err := n.Place(place)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrUnknownPlace, place)
	}
	if _, found := n.tokens[token]; !found {
		return fmt.Errorf("%w: %s", ErrUnknownToken, token)
	}
	if count < 0 {
		return fmt.Errorf("%w: %s %s %d", ErrInvalidMarking, place, token, count)
	}
	p.set(token, count)
	return nil
}

// scope resolves place names in weight expressions relative to the namespace
// of the transition being evaluated, falling back to absolute names.
type scope struct {
	net    *Net
	prefix string
}

func (n *Net) scope(t *Transition) scope {
	prefix := ""
	if i := strings.LastIndex(t.Name, "."); i >= 0 {
		prefix = t.Name[:i]
	}
	return scope{net: n, prefix: prefix}
}

func (s scope) place(name string) (*Place, error) {
	if s.prefix != "" {
		if p, err := s.net.Place(Qualify(s.prefix, name)); err == nil {
			return p, nil
		}
	}
	p, err := s.net.Place(name)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownPlace, name)
	}
	return p, nil
}

func (s scope) count(place, token string) (int, error) {
	p, err := s.place(place)
	if err != nil {
		return 0, err
	}
	return p.Tokens(token), nil
}

func (s scope) total(place string) (int, error) {
	p, err := s.place(place)
	if err != nil {
		return 0, err
	}
	return p.Total(), nil
}

type delta struct {
	place *Place
	token string
	count int
}

func (n *Net) deltas(t *Transition, arcs []*Arc) ([]delta, error) {
	sc := n.scope(t)
	ret := make([]delta, 0, len(arcs))
	for _, a := range arcs {
		for _, token := range a.tokens {
			w, err := a.weights[token].eval(sc)
			if err != nil {
				return nil, fmt.Errorf("arc %s: %w", a, err)
			}
			ret = append(ret, delta{place: a.place, token: token, count: w})
		}
	}
	return ret, nil
}

func satisfied(consume []delta) bool {
	for _, d := range consume {
		if d.place.Tokens(d.token) < d.count {
			return false
		}
	}
	return true
}

// Enabled returns true if every inbound arc of the transition is satisfied by
// the current marking.
func (n *Net) Enabled(name string) (bool, error) {
	t, err := n.Transition(name)
	if err != nil {
		return false, err
	}
	return n.enabled(t)
}

func (n *Net) enabled(t *Transition) (bool, error) {
	consume, err := n.deltas(t, n.inputs[t.Name])
	if err != nil {
		return false, err
	}
	return satisfied(consume), nil
}

// EnabledTransitions returns the enabled transitions in declaration order.
func (n *Net) EnabledTransitions() ([]*Transition, error) {
	ret := make([]*Transition, 0)
	for _, t := range n.Transitions {
		ok, err := n.enabled(t)
		if err != nil {
			return nil, err
		}
		if ok {
			ret = append(ret, t)
		}
	}
	return ret, nil
}

// Fire consumes the inbound weights and produces the outbound weights of an
// enabled transition as one step. Every weight is evaluated against the
// marking before the transition fires.
func (n *Net) Fire(name string) error {
	t, err := n.Transition(name)
	if err != nil {
		return err
	}
	consume, err := n.deltas(t, n.inputs[t.Name])
	if err != nil {
		return err
	}
	produce, err := n.deltas(t, n.outputs[t.Name])
	if err != nil {
		return err
	}
	if !satisfied(consume) {
		return NotEnabled(name)
	}
	for _, d := range consume {
		d.place.set(d.token, d.place.Tokens(d.token)-d.count)
	}
	for _, d := range produce {
		d.place.set(d.token, d.place.Tokens(d.token)+d.count)
	}
	return nil
}

// SortedPlaces returns the places ordered by name, which is the column order
// of state reports.
func (n *Net) SortedPlaces() []*Place {
	ret := make([]*Place, len(n.Places))
	copy(ret, n.Places)
	sort.Slice(ret, func(i, j int) bool { return ret[i].Name < ret[j].Name })
	return ret
}

// TokenNames returns the declared token names, sorted.
func (n *Net) TokenNames() []string {
	ret := make([]string, len(n.Tokens))
	for i, t := range n.Tokens {
		ret[i] = t.Name
	}
	sort.Strings(ret)
	return ret
}

// Snapshot returns the marking of every place, ordered by place name, with a
// count for every declared token.
func (n *Net) Snapshot() []PlaceState {
	tokens := n.TokenNames()
	places := n.SortedPlaces()
	ret := make([]PlaceState, len(places))
	for i, p := range places {
		counts := make(map[string]int, len(tokens))
		for _, t := range tokens {
			counts[t] = p.Tokens(t)
		}
		ret[i] = PlaceState{Place: p.Name, Tokens: counts}
	}
	return ret
}

// Clone returns a deep copy of the net, marking included.
func (n *Net) Clone() *Net {
	ret := NewNet(n.Name)
	for _, t := range n.Tokens {
		_ = ret.AddToken(NewToken(t.Name))
	}
	for _, p := range n.Places {
		_ = ret.AddPlace(&Place{Name: p.Name, Accessible: p.Accessible, marking: p.Marking()})
	}
	for _, t := range n.Transitions {
		_ = ret.AddTransition(&Transition{Name: t.Name, Variant: t.Variant, Handler: t.Handler})
	}
	for _, a := range n.Arcs {
		c := NewArc(ret.components[a.Src.String()], ret.components[a.Dest.String()], a.Weights)
		c.LinksNets = a.LinksNets
		_ = ret.AddArc(c)
	}
	return ret
}
