package report_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	petri "github.com/jt05610/xschema"
	"github.com/jt05610/xschema/examples"
	"github.com/jt05610/xschema/report"
	"github.com/jt05610/xschema/runner"
)

func golden(t *testing.T) *goldie.Goldie {
	return goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
}

func run(t *testing.T, net *petri.Net, setup func(r *runner.Runner), ll ...petri.Listener) {
	t.Helper()
	r := runner.New(net, nil)
	require.NoError(t, r.SetSeed(123456))
	require.NoError(t, r.AddListener(ll...))
	setup(r)
	_, err := r.Run(context.Background())
	require.NoError(t, err)
}

func TestFiringWriter_Basic(t *testing.T) {
	var buf bytes.Buffer
	run(t, examples.BasicNet(), func(r *runner.Runner) {
		require.NoError(t, r.MarkPlace("Enabled", examples.Default, 1))
	}, report.NewFiringWriter(&buf))
	golden(t).Assert(t, "basic", buf.Bytes())
}

func TestFiringWriter_Grasp(t *testing.T) {
	net, err := examples.Grasp().PetriNet()
	require.NoError(t, err)
	var buf bytes.Buffer
	rec := report.NewRecorder()
	run(t, net, func(r *runner.Runner) {
		require.NoError(t, r.MarkPlace("Grasp.Enabled", examples.Default, 1))
		require.NoError(t, r.SetTransitionContext("Grasp.Close_hand.Close", runner.ContextFunc(func() error {
			if err := r.MarkPlace("Grasp.Close_hand.Close_sensed", examples.Default, 1); err != nil {
				return err
			}
			return r.FireExternal("Grasp.Close_hand.Close")
		})))
	}, report.NewFiringWriter(&buf), rec)
	golden(t).Assert(t, "grasp", buf.Bytes())
	assert.Equal(t, strings.Join(rec.Lines(), "\n")+"\n", buf.String())
	assert.Len(t, rec.Reports(), 8)
}

func multi(round int, transition string, a, b map[string]int) *petri.StateReport {
	return &petri.StateReport{
		Round:      round,
		Transition: transition,
		Marking: []petri.PlaceState{
			{Place: "A", Tokens: a},
			{Place: "B", Tokens: b},
		},
	}
}

func TestFiringWriter_SeveralTokens(t *testing.T) {
	var buf bytes.Buffer
	w := report.NewFiringWriter(&buf)
	require.NoError(t, w.Report(multi(0, "", map[string]int{"Red": 2, "Default": 1}, map[string]int{"Red": 0, "Default": 0})))
	require.NoError(t, w.Report(multi(1, `say "hi"`, map[string]int{"Red": 1, "Default": 0}, map[string]int{"Red": 1, "Default": 1})))
	golden(t).Assert(t, "tokens", buf.Bytes())
}

func TestCreateFiringWriter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.csv")
	w, err := report.CreateFiringWriter(path)
	require.NoError(t, err)
	run(t, examples.BasicNet(), func(r *runner.Runner) {
		require.NoError(t, r.MarkPlace("Enabled", examples.Default, 1))
	}, w)
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Empty(t, b, "rows are buffered until Close")
	require.NoError(t, w.Close())
	b, err = os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(b)), "\n")
	require.Len(t, lines, 5)
	assert.Equal(t, `"Round","Transition","Done","Enabled","Ongoing","Ready"`, lines[0])
	assert.Equal(t, `3,"Finish",1,0,0,0`, lines[4])
}

func TestRecorder_Empty(t *testing.T) {
	assert.Nil(t, report.NewRecorder().Lines())
}

func TestLogger(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	l := report.NewLogger(zap.New(core))
	require.NoError(t, l.Report(multi(3, "T", map[string]int{"Red": 2, "Default": 1}, map[string]int{"Red": 0, "Default": 0})))
	entries := logs.All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, int64(3), fields["round"])
	assert.Equal(t, "T", fields["transition"])
	assert.Equal(t, []interface{}{"A:Default=1", "A:Red=2"}, fields["marked"])
}
