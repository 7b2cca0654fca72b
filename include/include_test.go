package include_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	petri "github.com/jt05610/xschema"
	"github.com/jt05610/xschema/examples"
	"github.com/jt05610/xschema/include"
)

func leaf(name string, accessible bool) *petri.Net {
	net := petri.NewNet(name)
	p := petri.NewPlace("P")
	p.Accessible = accessible
	if err := net.Add(petri.NewToken("Default"), p, petri.NewPlace("Q"), petri.NewTransition("T")); err != nil {
		panic(err)
	}
	if _, err := net.Connect("P", "T", nil); err != nil {
		panic(err)
	}
	if _, err := net.Connect("T", "Q", nil); err != nil {
		panic(err)
	}
	return net
}

func placeNames(net *petri.Net) []string {
	ret := make([]string, 0)
	for _, p := range net.SortedPlaces() {
		ret = append(ret, p.Name)
	}
	return ret
}

func TestHierarchy_Include(t *testing.T) {
	h := include.New(leaf("parent", false), "")
	child, err := h.Include(leaf("child", true), "X")
	require.NoError(t, err)
	assert.Equal(t, "X", child.QualifiedName())
	assert.Equal(t, h.Net(), child.Parent().Net())

	_, err = h.Include(leaf("other", true), "X")
	assert.ErrorIs(t, err, include.ErrDuplicateIncludeName)

	_, err = h.Include(leaf("other", true), "a.b")
	assert.ErrorIs(t, err, include.ErrInvalidIncludeName)

	_, err = h.Child("Y")
	assert.ErrorIs(t, err, include.ErrIncludeNotFound)

	got, err := h.Child("X")
	require.NoError(t, err)
	assert.Equal(t, "child", got.Net().Name)
}

func TestHierarchy_AddToInterface(t *testing.T) {
	h := include.New(leaf("parent", false), "Root")
	child, err := h.Include(leaf("child", true), "X")
	require.NoError(t, err)

	_, err = child.AddToInterface("Q", true, false)
	assert.ErrorIs(t, err, include.ErrPlaceNotExternallyAccessible)

	_, err = child.AddToInterface("P", false, false)
	assert.ErrorIs(t, err, include.ErrInvalidExport)

	_, err = child.AddToInterface("Nope", true, false)
	assert.ErrorIs(t, err, petri.ErrNotFound)

	ip, err := child.AddToInterface("P", true, true)
	require.NoError(t, err)
	assert.Equal(t, "P", ip.Name)

	for _, name := range []string{"X.P", "Root.X.P"} {
		ip, err := h.InterfacePlace(name)
		require.NoError(t, err, name)
		assert.Equal(t, "P", ip.Place)
		q, err := h.QualifiedPlace(name)
		require.NoError(t, err)
		assert.Equal(t, "Root.X.P", q)
	}
	_, err = h.InterfacePlace("P")
	assert.ErrorIs(t, err, include.ErrInterfaceNotFound)

	// exporting the same place again is a no-op
	_, err = child.AddToInterface("P", true, false)
	assert.NoError(t, err)

	// a descendant's place may be exported from an ancestor by its relative path
	ip, err = h.AddToInterface("X.P", true, false)
	require.NoError(t, err)
	assert.Equal(t, "X.P", ip.Name)
}

func TestHierarchy_MergeArcRequiresInterface(t *testing.T) {
	h := include.New(leaf("parent", false), "")
	_, err := h.Include(leaf("child", true), "X")
	require.NoError(t, err)

	err = h.AddMergeArc(include.Outbound, "X.P", "T", nil)
	assert.ErrorIs(t, err, include.ErrInterfaceNotFound)

	child, _ := h.Child("X")
	_, err = child.AddToInterface("P", true, false)
	require.NoError(t, err)
	err = h.AddMergeArc(include.Outbound, "X.P", "T", nil)
	assert.ErrorIs(t, err, include.ErrInterfaceNotFound, "interface place not yet available")

	err = h.BuildMergeArc(include.Outbound, "X", "P", "T", "X.Q", nil)
	assert.ErrorIs(t, err, include.ErrInterfaceNotFound)

	err = h.BuildMergeArc(include.Outbound, "X", "P", "Missing", "X.P", nil)
	assert.ErrorIs(t, err, petri.ErrNotFound)
}

func TestHierarchy_PetriNet(t *testing.T) {
	h := include.New(leaf("parent", false), "")
	_, err := h.Include(leaf("child", true), "X")
	require.NoError(t, err)
	require.NoError(t, h.BuildMergeArc(include.Outbound, "X", "P", "T", "X.P", nil))

	net, err := h.PetriNet()
	require.NoError(t, err)
	assert.Equal(t, []string{"P", "Q", "X.P", "X.Q"}, placeNames(net))

	arc, err := net.Component("T TO X.P", petri.ArcObject)
	require.NoError(t, err)
	assert.True(t, arc.(*petri.Arc).LinksNets)

	require.NoError(t, net.SetMarking("P", "Default", 1))
	require.NoError(t, net.Fire("T"))
	for place, want := range map[string]int{"P": 0, "Q": 1, "X.P": 1, "X.Q": 0} {
		got, err := net.Marking(place, "Default")
		require.NoError(t, err)
		assert.Equal(t, want, got, place)
	}

	// composition is a projection: the included nets are untouched
	child, _ := h.Child("X")
	assert.Equal(t, 0, child.Net().Places[0].Tokens("Default"))

	again, err := h.PetriNet()
	require.NoError(t, err)
	got, _ := again.Marking("X.P", "Default")
	assert.Equal(t, 0, got)
}

func TestHierarchy_ChildTransitionIntoParentPlace(t *testing.T) {
	parent := leaf("parent", true)
	h := include.New(parent, "Top")
	_, err := h.Include(leaf("child", true), "X")
	require.NoError(t, err)

	ip, err := h.AddToInterface("P", true, false)
	require.NoError(t, err)
	require.NoError(t, h.AddAvailablePlaceToPetriNet(ip))
	require.NoError(t, h.AddMergeArc(include.Outbound, "P", "X.T", nil))

	net, err := h.PetriNet()
	require.NoError(t, err)
	_, err = net.Component("Top.X.T TO Top.P", petri.ArcObject)
	assert.NoError(t, err)
}

func TestHierarchy_Grasp(t *testing.T) {
	net, err := examples.Grasp().PetriNet()
	require.NoError(t, err)
	assert.Equal(t, []string{
		"Grasp.Close_hand.Close_sensed",
		"Grasp.Close_hand.Closing",
		"Grasp.Close_hand.Done",
		"Grasp.Close_hand.Enabled",
		"Grasp.Close_hand.Ongoing",
		"Grasp.Close_hand.P4",
		"Grasp.Close_hand.Ready",
		"Grasp.Done",
		"Grasp.Enabled",
		"Grasp.Ongoing",
		"Grasp.Ready",
	}, placeNames(net))

	closeHand, err := net.Transition("Grasp.Close_hand.Close")
	require.NoError(t, err)
	assert.True(t, closeHand.IsExternal())

	for _, name := range []string{"Grasp.Start TO Grasp.Close_hand.Enabled", "Grasp.Close_hand.Done TO Grasp.Finish"} {
		_, err := net.Component(name, petri.ArcObject)
		assert.NoError(t, err, name)
	}
}

func TestHierarchy_SubtreeView(t *testing.T) {
	h := examples.Grasp()
	child, err := h.Child("Close_hand")
	require.NoError(t, err)
	net, err := child.PetriNet()
	require.NoError(t, err)
	assert.Contains(t, placeNames(net), "Close_hand.Enabled")
	assert.Len(t, net.Places, 7)
}
