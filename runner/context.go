package runner

// TransitionContext is bound to an external transition. The runner notifies
// it when the transition becomes enabled and nothing else can fire. The
// context answers, now or later, through MarkPlace and FireExternal.
type TransitionContext interface {
	Notify() error
}

// ContextFunc adapts a function to a TransitionContext.
type ContextFunc func() error

func (f ContextFunc) Notify() error { return f() }
