// Package analysis answers structural questions about a net for one token
// type with its incidence matrix.
package analysis

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	petri "github.com/jt05610/xschema"
	"gonum.org/v1/gonum/mat"
)

var ErrNotConstant = errors.New("weight depends on the marking")

// Omega is the count of a place the coverability tree found unbounded.
var Omega = math.Inf(1)

type Net struct {
	*petri.Net
	Token string
	index map[string]int
}

// New analyses net for token, or for its default token when token is empty.
func New(net *petri.Net, token string) *Net {
	if token == "" {
		token = petri.DefaultToken
		if _, err := net.Token(token); err != nil && len(net.Tokens) > 0 {
			token = net.Tokens[0].Name
		}
	}
	index := make(map[string]int, len(net.Places))
	for i, p := range net.Places {
		index[p.Name] = i
	}
	return &Net{Net: net, Token: token, index: index}
}

type State []float64

// State returns the current marking of the analysed token, in place order.
func (net *Net) State() State {
	ret := make(State, len(net.Places))
	for i, p := range net.Places {
		ret[i] = float64(p.Tokens(net.Token))
	}
	return ret
}

func (net *Net) weight(a *petri.Arc) (float64, error) {
	if _, carried := a.Weights[net.Token]; !carried {
		return 0, nil
	}
	w, ok := a.Weight(net.Token)
	if !ok {
		return 0, fmt.Errorf("%w: arc %s", ErrNotConstant, a)
	}
	return float64(w), nil
}

func (net *Net) FiringVector(t int) *mat.Dense {
	v := make([]float64, len(net.Transitions))
	v[t] = 1
	return mat.NewDense(1, len(net.Transitions), v)
}

// Incidence returns the transitions × places matrix of the net change in
// marking each transition causes.
func (net *Net) Incidence() (*mat.Dense, error) {
	m := len(net.Places)
	n := len(net.Transitions)
	if m == 0 || n == 0 {
		return nil, fmt.Errorf("%s has no places or no transitions", net.Name)
	}
	d := make([]float64, m*n)
	for i, t := range net.Transitions {
		for _, a := range net.Inputs(t) {
			w, err := net.weight(a)
			if err != nil {
				return nil, err
			}
			d[i*m+net.index[a.Place().Name]] -= w
		}
		for _, a := range net.Outputs(t) {
			w, err := net.weight(a)
			if err != nil {
				return nil, err
			}
			d[i*m+net.index[a.Place().Name]] += w
		}
	}
	return mat.NewDense(n, m, d), nil
}

// IsPlaceInvariant reports whether the weighted token sum y·M is the same in
// every reachable marking, i.e. C·y = 0.
func (net *Net) IsPlaceInvariant(y []float64) (bool, error) {
	if len(y) != len(net.Places) {
		return false, fmt.Errorf("expected %d weights, got %d", len(net.Places), len(y))
	}
	c, err := net.Incidence()
	if err != nil {
		return false, err
	}
	var out mat.VecDense
	out.MulVec(c, mat.NewVecDense(len(y), y))
	for i := 0; i < out.Len(); i++ {
		if out.AtVec(i) != 0 {
			return false, nil
		}
	}
	return true, nil
}

// Conservative reports whether the total count of the token never changes.
func (net *Net) Conservative() (bool, error) {
	y := make([]float64, len(net.Places))
	for i := range y {
		y[i] = 1
	}
	return net.IsPlaceInvariant(y)
}

func (net *Net) enabled(state State, t *petri.Transition) (bool, error) {
	for _, a := range net.Inputs(t) {
		w, err := net.weight(a)
		if err != nil {
			return false, err
		}
		if state[net.index[a.Place().Name]] < w {
			return false, nil
		}
	}
	return true, nil
}

// NextState returns the state after firing t, or false if t is not enabled.
func (net *Net) NextState(state State, t int) (State, bool, error) {
	ok, err := net.enabled(state, net.Transitions[t])
	if err != nil || !ok {
		return nil, false, err
	}
	c, err := net.Incidence()
	if err != nil {
		return nil, false, err
	}
	var result mat.Dense
	result.Mul(net.FiringVector(t), c)
	s := mat.NewDense(1, len(state), state)
	var out mat.Dense
	out.Add(s, &result)
	ret := make(State, len(state))
	for i := range ret {
		ret[i] = out.At(0, i)
		if math.IsInf(state[i], 1) {
			ret[i] = Omega
		}
	}
	return ret, true, nil
}

type TreeNode struct {
	State    State
	Parent   *TreeNode
	Children []*TreeNode
}

func (s State) Dominates(b State) bool {
	oneGt := false
	for i := range s {
		if s[i] < b[i] {
			return false
		}
		if s[i] > b[i] {
			oneGt = true
		}
	}
	return oneGt
}

func (s State) String() string {
	parts := make([]string, len(s))
	for i, v := range s {
		if math.IsInf(v, 1) {
			parts[i] = "ω"
			continue
		}
		parts[i] = strconv.Itoa(int(v))
	}
	return strings.Join(parts, ",")
}

type Tree struct {
	Root *TreeNode
}

func (net *Net) buildTree(seen map[string]bool, node *TreeNode) error {
	id := node.State.String()
	if seen[id] {
		return nil
	}
	seen[id] = true
	for i := range net.Transitions {
		next, ok, err := net.NextState(node.State, i)
		if err != nil {
			return err
		}
		if !ok {
			continue
		}
		for par := node; par != nil; par = par.Parent {
			if next.Dominates(par.State) {
				for j := range next {
					if next[j] > par.State[j] {
						next[j] = Omega
					}
				}
			}
		}
		node.Children = append(node.Children, &TreeNode{State: next, Parent: node})
	}
	for _, child := range node.Children {
		if err := net.buildTree(seen, child); err != nil {
			return err
		}
	}
	return nil
}

// CTree builds the coverability tree rooted at initial.
func (net *Net) CTree(initial State) (*Tree, error) {
	root := &TreeNode{State: initial}
	if err := net.buildTree(make(map[string]bool), root); err != nil {
		return nil, err
	}
	return &Tree{Root: root}, nil
}

// Covers reports whether some node of the tree covers s.
func (t *Tree) Covers(s State) bool {
	var walk func(n *TreeNode) bool
	walk = func(n *TreeNode) bool {
		covers := true
		for i := range s {
			if n.State[i] < s[i] {
				covers = false
				break
			}
		}
		if covers {
			return true
		}
		for _, c := range n.Children {
			if walk(c) {
				return true
			}
		}
		return false
	}
	return walk(t.Root)
}

// Coverable reports whether a marking covering target is reachable from initial.
func (net *Net) Coverable(initial, target State) (bool, error) {
	t, err := net.CTree(initial)
	if err != nil {
		return false, err
	}
	return t.Covers(target), nil
}
