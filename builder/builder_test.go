package builder_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	petri "github.com/jt05610/xschema"
	"github.com/jt05610/xschema/builder"
	"github.com/jt05610/xschema/examples"
	"github.com/jt05610/xschema/include"
	"github.com/jt05610/xschema/petrifile/yaml"
)

func newBuilder() *builder.Builder {
	return builder.NewBuilder(nil, filepath.Join("..", "examples", "nets"), "testdata").
		WithService("yaml", &yaml.Service{})
}

func places(net *petri.Net) []string {
	ret := make([]string, 0)
	for _, p := range net.SortedPlaces() {
		ret = append(ret, p.Name)
	}
	return ret
}

func TestBuilder_Grasp(t *testing.T) {
	h, err := newBuilder().Build(context.Background(), "grasp.yaml")
	require.NoError(t, err)
	assert.Equal(t, "Grasp", h.Name())

	built, err := h.PetriNet()
	require.NoError(t, err)
	want, err := examples.Grasp().PetriNet()
	require.NoError(t, err)
	assert.Equal(t, places(want), places(built))
	assert.Len(t, built.Arcs, len(want.Arcs))
	for _, a := range want.Arcs {
		_, err := built.Component(a.String(), petri.ArcObject)
		assert.NoError(t, err, a.String())
	}
	n, err := built.Marking("Grasp.Enabled", petri.DefaultToken)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	ip, err := h.InterfacePlace("Close_hand.Close_sensed")
	require.NoError(t, err)
	assert.Equal(t, "Close_sensed", ip.Place)
}

func TestBuilder_Cycle(t *testing.T) {
	_, err := newBuilder().Build(context.Background(), "loop_a.yaml")
	assert.ErrorIs(t, err, builder.ErrIncludeCycle)
}

func TestBuilder_PrivateExport(t *testing.T) {
	_, err := newBuilder().Build(context.Background(), "private.yaml")
	assert.ErrorIs(t, err, include.ErrPlaceNotExternallyAccessible)
}

func TestBuilder_Missing(t *testing.T) {
	_, err := newBuilder().Build(context.Background(), "nowhere.yaml")
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestBuilder_NoService(t *testing.T) {
	_, err := builder.NewBuilder(nil, "testdata").Build(context.Background(), "loop_a.yaml")
	assert.ErrorIs(t, err, builder.ErrNoService)
}
