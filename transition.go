package petri

var _ Node = (*Transition)(nil)

// Variant distinguishes transitions the engine fires by itself from those fired
// on behalf of something outside the net.
type Variant int

const (
	// Immediate transitions fire as soon as the engine selects them.
	Immediate Variant = iota
	// External transitions are enabled by the same rule but only fire when an
	// external signal asks for it.
	External
)

func (v Variant) String() string {
	if v == External {
		return "external"
	}
	return "immediate"
}

// Transition represents a transition
type Transition struct {
	Name    string
	Variant Variant
	// Handler names the handler an external transition is bound to by tooling
	// that resolves handlers from a registry. The engine itself only uses
	// contexts bound on the runner.
	Handler string
}

func NewTransition(name string) *Transition {
	return &Transition{
		Name:    name,
		Variant: Immediate,
	}
}

func NewExternalTransition(name string, handler ...string) *Transition {
	t := &Transition{
		Name:    name,
		Variant: External,
	}
	if len(handler) > 0 {
		t.Handler = handler[0]
	}
	return t
}

func (t *Transition) IsExternal() bool { return t.Variant == External }

func (t *Transition) Kind() Kind { return TransitionObject }

func (t *Transition) IsNode() {}

func (t *Transition) String() string { return t.Name }
