package analysis_test

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	petri "github.com/jt05610/xschema"
	"github.com/jt05610/xschema/analysis"
	"github.com/jt05610/xschema/examples"
)

func net() *analysis.Net {
	n := petri.NewNet("example")
	_ = n.AddToken(petri.NewToken(petri.DefaultToken))
	for i := 0; i < 4; i++ {
		_ = n.AddPlace(petri.NewPlace(fmt.Sprintf("p%d", i+1)))
	}
	for i := 0; i < 3; i++ {
		_ = n.AddTransition(petri.NewTransition(fmt.Sprintf("t%d", i+1)))
	}
	for _, a := range [][2]string{
		{"p1", "t1"}, {"t1", "p2"},
		{"p2", "t2"}, {"t2", "p3"},
		{"p3", "t1"}, {"t2", "p4"},
		{"p4", "t3"}, {"t3", "p1"},
	} {
		if _, err := n.Connect(a[0], a[1], nil); err != nil {
			panic(err)
		}
	}
	return analysis.New(n, "")
}

func ExampleNet_Incidence() {
	aNet := net()
	inc, err := aNet.Incidence()
	if err != nil {
		panic(err)
	}
	fmt.Printf("┌%s┐\n", strings.Repeat(" ", 3*len(aNet.Places)-1))
	for i := range aNet.Transitions {
		fmt.Print("│")
		s := " "
		for j := range aNet.Places {
			if j == len(aNet.Places)-1 {
				s = ""
			}
			fmt.Printf("%2d%s", int(inc.At(i, j)), s)
		}
		fmt.Print("│\n")
	}
	fmt.Printf("└%s┘", strings.Repeat(" ", 3*len(aNet.Places)-1))
	// Output:
	// ┌           ┐
	// │-1  1 -1  0│
	// │ 0 -1  1  1│
	// │ 1  0  0 -1│
	// └           ┘
}

func TestNet_Conservative(t *testing.T) {
	basic := analysis.New(examples.BasicNet(), "")
	ok, err := basic.Conservative()
	if err != nil {
		t.Fatal(err)
	}
	if !ok {
		t.Error("expected the basic x-schema to conserve its token")
	}
	hand := analysis.New(examples.CloseHand(), "")
	ok, err = hand.Conservative()
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Error("expected Start to create a token")
	}
	if _, err := hand.IsPlaceInvariant([]float64{1}); err == nil {
		t.Error("expected an error for a short weight vector")
	}
}

func TestNet_Coverable(t *testing.T) {
	n := net()
	// t1 needs p1 and p3, so nothing fires from p1 alone
	ok, err := n.Coverable(analysis.State{1, 0, 0, 0}, analysis.State{0, 1, 0, 0})
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Error("expected p2 to be unreachable")
	}
	ok, err = n.Coverable(analysis.State{1, 0, 1, 0}, analysis.State{0, 0, 1, 1})
	if err != nil {
		t.Fatal(err)
	}
	if !ok {
		t.Error("expected p3 and p4 to be coverable")
	}
}

func TestNet_Unbounded(t *testing.T) {
	n := petri.NewNet("pump")
	_ = n.Add(petri.NewToken(petri.DefaultToken), petri.NewPlace("on"), petri.NewPlace("out"), petri.NewTransition("pump"))
	_, _ = n.Connect("on", "pump", nil)
	_, _ = n.Connect("pump", "on", nil)
	_, _ = n.Connect("pump", "out", nil)
	tree, err := analysis.New(n, "").CTree(analysis.State{1, 0})
	if err != nil {
		t.Fatal(err)
	}
	if !tree.Covers(analysis.State{1, 1000}) {
		t.Error("expected out to be unbounded")
	}
	if got := tree.Root.Children[0].State.String(); got != "1,ω" {
		t.Errorf("expected 1,ω, got %s", got)
	}
}

func TestState_String(t *testing.T) {
	s := analysis.State{2, 1e6, analysis.Omega}
	if got := s.String(); got != "2,1000000,ω" {
		t.Errorf("expected 2,1000000,ω, got %s", got)
	}
	if !(analysis.State{1, analysis.Omega}).Dominates(analysis.State{1, 1e6}) {
		t.Error("expected ω to dominate any count")
	}
}

func TestNet_ExpressionWeight(t *testing.T) {
	n := petri.NewNet("expr")
	_ = n.Add(petri.NewToken(petri.DefaultToken), petri.NewPlace("a"), petri.NewTransition("t"))
	_, err := n.Connect("a", "t", map[string]string{petri.DefaultToken: `tokens("a")`})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := analysis.New(n, "").Incidence(); !errors.Is(err, analysis.ErrNotConstant) {
		t.Errorf("expected ErrNotConstant, got %v", err)
	}
}
