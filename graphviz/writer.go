// Package graphviz renders nets with Graphviz.
package graphviz

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/goccy/go-graphviz"
	"github.com/goccy/go-graphviz/cgraph"
	petri "github.com/jt05610/xschema"
)

type Writer struct {
	*Config
	g       *cgraph.Graph
	mapping map[string]*cgraph.Node
}

func marking(p *petri.Place) string {
	m := p.Marking()
	if len(m) == 0 {
		return ""
	}
	tokens := make([]string, 0, len(m))
	for token := range m {
		tokens = append(tokens, token)
	}
	sort.Strings(tokens)
	parts := make([]string, len(tokens))
	for i, token := range tokens {
		if token == petri.DefaultToken {
			parts[i] = fmt.Sprint(m[token])
			continue
		}
		parts[i] = fmt.Sprintf("%s=%d", token, m[token])
	}
	return strings.Join(parts, " ")
}

func (w *Writer) writePlace(i int, p *petri.Place) error {
	name := fmt.Sprintf("p%d", i)
	node, err := w.g.CreateNode(name)
	if err != nil {
		return err
	}
	node.SetShape(cgraph.CircleShape)
	if p.Accessible {
		node.SetShape(cgraph.DoubleCircleShape)
	}
	label := p.Name
	if m := marking(p); m != "" {
		label += "\n" + m
	}
	node.SetLabel(label)
	node.Set("fontname", string(w.Font))
	w.mapping[p.Name] = node
	return nil
}

func (w *Writer) writeTransition(i int, t *petri.Transition) error {
	name := fmt.Sprintf("t%d", i)
	node, err := w.g.CreateNode(name)
	if err != nil {
		return err
	}
	w.mapping[t.Name] = node
	node.SetShape(cgraph.BoxShape)
	node.SetLabel(t.Name)
	if t.IsExternal() {
		node.SetStyle(cgraph.DashedNodeStyle)
	}
	node.Set("fontname", string(w.Font))
	return nil
}

// weights labels an arc unless it carries one token of the only token type.
func weights(a *petri.Arc, tokens int) string {
	names := a.TokenNames()
	if tokens == 1 && len(names) == 1 && strings.TrimSpace(a.Weights[names[0]]) == "1" {
		return ""
	}
	parts := make([]string, len(names))
	for i, token := range names {
		parts[i] = token + ":" + a.Weights[token]
	}
	return strings.Join(parts, " ")
}

func (w *Writer) writeArc(i int, a *petri.Arc, tokens int) error {
	src, found := w.mapping[a.Src.String()]
	if !found {
		return fmt.Errorf("%w: arc source %s", petri.ErrNotFound, a.Src)
	}
	dst, found := w.mapping[a.Dest.String()]
	if !found {
		return fmt.Errorf("%w: arc target %s", petri.ErrNotFound, a.Dest)
	}
	name := fmt.Sprintf("a%d", i)
	edge, err := w.g.CreateEdge(name, src, dst)
	if err != nil {
		return err
	}
	if label := weights(a, tokens); label != "" {
		edge.SetLabel(label)
	}
	if a.LinksNets {
		edge.SetStyle(cgraph.DashedEdgeStyle)
	}
	return nil
}

// Flush renders the net with its current marking. Accessible places are
// drawn as double circles, external transitions and merge arcs dashed.
func (w *Writer) Flush(out io.Writer, net *petri.Net) error {
	graph := graphviz.New()
	defer func() {
		_ = graph.Close()
	}()
	g, err := graph.Graph()
	if err != nil {
		return err
	}
	defer func() {
		_ = g.Close()
	}()
	g.SetRankDir(cgraph.RankDir(w.RankDir))
	w.g = g
	w.mapping = make(map[string]*cgraph.Node)
	for i, p := range net.Places {
		if err := w.writePlace(i, p); err != nil {
			return err
		}
	}
	for i, t := range net.Transitions {
		if err := w.writeTransition(i, t); err != nil {
			return err
		}
	}
	for i, a := range net.Arcs {
		if err := w.writeArc(i, a, len(net.Tokens)); err != nil {
			return err
		}
	}
	return graph.Render(w.g, w.Format, out)
}

type Font string

func (f Font) Or(other Font) Font {
	return f + "," + other
}

const (
	Helvetica  Font = "Helvetica"
	Arial      Font = "Arial"
	Roboto     Font = "Roboto"
	Montserrat Font = "Montserrat"
	SansSerif  Font = "sans-serif"
	Serif      Font = "Serif"
	Times      Font = "Times"
)

type RankDir string

const (
	LeftToRight RankDir = "LR"
	RightToLeft RankDir = "RL"
	TopToBottom RankDir = "TB"
	BottomToTop RankDir = "BT"
)

type Config struct {
	// Name is the name of the net being drawn, used by callers to name output files.
	Name string
	Font
	RankDir
	// Format defaults to graphviz.XDOT.
	Format graphviz.Format
}

func New(config *Config) *Writer {
	if config.Name == "" {
		config.Name = "petri"
	}
	if config.Font == "" {
		config.Font = Helvetica
	}
	if config.RankDir == "" {
		config.RankDir = LeftToRight
	}
	if config.Format == "" {
		config.Format = graphviz.XDOT
	}
	return &Writer{
		Config:  config,
		mapping: make(map[string]*cgraph.Node),
	}
}
