// Package runner executes a net in rounds. Each round fires one transition
// and reports the marking of every place to the registered listeners.
//
// Immediate transitions fire as soon as they are selected. When several are
// enabled at once one is picked with a seeded random source, so a run is
// reproducible from its seed. External transitions are never selected: once
// nothing else can fire, the context bound to each enabled external
// transition is notified, and it answers through MarkPlace and FireExternal.
package runner

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sort"
	"sync"

	petri "github.com/jt05610/xschema"
	"go.uber.org/zap"
)

const DefaultFiringLimit = 100

var (
	ErrRunning        = errors.New("runner already started")
	ErrUnboundContext = errors.New("unbound transition context")
	ErrNotExternal    = errors.New("transition is not external")
	ErrInvalidLimit   = errors.New("firing limit must be positive")
)

// Result summarizes a finished run.
type Result struct {
	RunID  string
	Status Status
	// Rounds is the number of transitions fired.
	Rounds int
	Seed   int64
}

// Runner owns a net for the duration of a run. MarkPlace and FireExternal may
// be called from any goroutine; every other setter must be called before Run.
type Runner struct {
	net       *petri.Net
	logger    *zap.Logger
	id        string
	mu        sync.Mutex
	status    Status
	limit     int
	seed      int64
	seeded    bool
	rng       *rand.Rand
	wait      bool
	fired     int
	listeners []petri.Listener
	contexts  map[string]TransitionContext
	// notified holds the external transitions notified since they were
	// last fired or disabled.
	notified  map[string]bool
	requests  *petri.FIFO[string]
	signal    chan struct{}
}

func New(net *petri.Net, logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	id := petri.ID()
	return &Runner{
		net:      net,
		logger:   logger.With(zap.String("run", id), zap.String("net", net.Name)),
		id:       id,
		limit:    DefaultFiringLimit,
		contexts: make(map[string]TransitionContext),
		notified: make(map[string]bool),
		requests: petri.NewFIFO[string](),
		signal:   make(chan struct{}, 1),
	}
}

// ID identifies the run in state reports.
func (r *Runner) ID() string { return r.id }

// Net returns the net the runner executes.
func (r *Runner) Net() *petri.Net { return r.net }

func (r *Runner) Status() Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.status
}

func (r *Runner) configure(fn func() error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.status != Idle {
		return ErrRunning
	}
	return fn()
}

// SetTransitionContext binds ctx to an external transition.
func (r *Runner) SetTransitionContext(transition string, ctx TransitionContext) error {
	return r.configure(func() error {
		t, err := r.net.Transition(transition)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrUnboundContext, err)
		}
		if !t.IsExternal() {
			return fmt.Errorf("%w: %s is %s", ErrUnboundContext, transition, t.Variant)
		}
		r.contexts[transition] = ctx
		return nil
	})
}

// SetFiringLimit caps the number of transitions a run fires.
func (r *Runner) SetFiringLimit(limit int) error {
	return r.configure(func() error {
		if limit <= 0 {
			return fmt.Errorf("%w: %d", ErrInvalidLimit, limit)
		}
		r.limit = limit
		return nil
	})
}

func (r *Runner) SetSeed(seed int64) error {
	return r.configure(func() error {
		r.seed, r.seeded = seed, true
		return nil
	})
}

func (r *Runner) AddListener(ll ...petri.Listener) error {
	return r.configure(func() error {
		r.listeners = append(r.listeners, ll...)
		return nil
	})
}

// SetWait makes Run block for signals, instead of completing, while external
// transitions are enabled.
func (r *Runner) SetWait(wait bool) error {
	return r.configure(func() error {
		r.wait = wait
		return nil
	})
}

// MarkPlace sets the count of a token in a place. The change is seen by the
// next enabling evaluation.
func (r *Runner) MarkPlace(place, token string, count int) error {
	r.mu.Lock()
	err := r.net.SetMarking(place, token, count)
	r.mu.Unlock()
	if err != nil {
		return err
	}
	r.logger.Debug("marked place", zap.String("place", place), zap.String("token", token), zap.Int("count", count))
	r.wake()
	return nil
}

// FireExternal requests a firing of an enabled external transition. Requests
// are served in order, ahead of immediate transitions, and dropped if the
// transition is no longer enabled by then.
func (r *Runner) FireExternal(transition string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, err := r.net.Transition(transition)
	if err != nil {
		return err
	}
	if !t.IsExternal() {
		return fmt.Errorf("%w: %s", ErrNotExternal, transition)
	}
	ok, err := r.net.Enabled(transition)
	if err != nil {
		return err
	}
	if !ok {
		return petri.NotEnabled(transition)
	}
	r.requests.Push(transition)
	r.wake()
	return nil
}

func (r *Runner) wake() {
	select {
	case r.signal <- struct{}{}:
	default:
	}
}

type step struct {
	report *petri.StateReport
	notify []string
	wait   bool
	done   bool
}

// Run fires transitions until nothing can fire or the firing limit is
// reached. A listener error stops the run and is returned.
func (r *Runner) Run(ctx context.Context) (*Result, error) {
	first, err := r.start()
	if err != nil {
		return nil, err
	}
	if err := r.emit(first); err != nil {
		return r.finish(Completed), err
	}
	for {
		if err := ctx.Err(); err != nil {
			return r.finish(Completed), err
		}
		s, err := r.next()
		if err != nil {
			return r.finish(Completed), err
		}
		switch {
		case s.report != nil:
			if err := r.emit(s.report); err != nil {
				return r.finish(Completed), err
			}
		case len(s.notify) > 0:
			r.notify(s.notify)
		case s.wait:
			r.logger.Debug("waiting for external signal")
			select {
			case <-r.signal:
			case <-ctx.Done():
				return r.finish(Completed), ctx.Err()
			}
		case s.done:
			return r.finish(r.Status()), nil
		}
	}
}

func (r *Runner) start() (*petri.StateReport, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.status != Idle {
		return nil, ErrRunning
	}
	if !r.seeded {
		seed, err := NewSeed()
		if err != nil {
			return nil, err
		}
		r.seed, r.seeded = seed, true
	}
	r.rng = rand.New(rand.NewSource(r.seed))
	r.status = Running
	r.logger.Info("starting run", zap.Int64("seed", r.seed), zap.Int("limit", r.limit))
	return r.snapshot(""), nil
}

func (r *Runner) finish(status Status) *Result {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.status = status
	r.logger.Info("run finished", zap.Stringer("status", status), zap.Int("rounds", r.fired))
	return &Result{
		RunID:  r.id,
		Status: status,
		Rounds: r.fired,
		Seed:   r.seed,
	}
}

// next decides what the loop does this round, firing a transition if one can fire.
func (r *Runner) next() (step, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	immediate, external, err := r.enabled()
	if err != nil {
		return step{}, err
	}
	for name := range r.notified {
		if !contains(external, name) {
			delete(r.notified, name)
		}
	}
	if r.fired >= r.limit {
		r.status = Completed
		if len(immediate) > 0 || r.requests.Len() > 0 || r.bound(external) {
			r.status = Exhausted
		}
		return step{done: true}, nil
	}
	for {
		name, ok := r.requests.Pop()
		if !ok {
			break
		}
		if contains(external, name) {
			report, err := r.fire(name)
			return step{report: report}, err
		}
		r.logger.Warn("dropping firing request of disabled transition", zap.String("transition", name))
	}
	if len(immediate) > 0 {
		report, err := r.fire(r.choose(immediate))
		return step{report: report}, err
	}
	notify := make([]string, 0)
	for _, name := range external {
		if r.notified[name] {
			continue
		}
		r.notified[name] = true
		if _, bound := r.contexts[name]; bound {
			notify = append(notify, name)
		}
	}
	if len(notify) > 0 {
		return step{notify: notify}, nil
	}
	if len(external) > 0 && r.wait {
		return step{wait: true}, nil
	}
	r.status = Completed
	return step{done: true}, nil
}

// enabled returns the names of the enabled immediate and external
// transitions, each sorted.
func (r *Runner) enabled() (immediate []string, external []string, err error) {
	av, err := r.net.EnabledTransitions()
	if err != nil {
		return nil, nil, err
	}
	for _, t := range av {
		if t.IsExternal() {
			external = append(external, t.Name)
		} else {
			immediate = append(immediate, t.Name)
		}
	}
	sort.Strings(immediate)
	sort.Strings(external)
	return immediate, external, nil
}

// bound reports whether any of the external transitions has a context that
// could still ask for it to fire.
func (r *Runner) bound(external []string) bool {
	for _, name := range external {
		if _, found := r.contexts[name]; found {
			return true
		}
	}
	return false
}

func (r *Runner) choose(names []string) string {
	if len(names) == 1 {
		return names[0]
	}
	return names[r.rng.Intn(len(names))]
}

func (r *Runner) fire(name string) (*petri.StateReport, error) {
	if err := r.net.Fire(name); err != nil {
		return nil, err
	}
	r.fired++
	delete(r.notified, name)
	r.logger.Debug("fired transition", zap.Int("round", r.fired), zap.String("transition", name))
	return r.snapshot(name), nil
}

func (r *Runner) snapshot(transition string) *petri.StateReport {
	return &petri.StateReport{
		RunID:      r.id,
		Round:      r.fired,
		Transition: transition,
		Marking:    r.net.Snapshot(),
	}
}

func (r *Runner) emit(report *petri.StateReport) error {
	for _, l := range r.listeners {
		if err := l.Report(report); err != nil {
			return fmt.Errorf("report round %d: %w", report.Round, err)
		}
	}
	return nil
}

// notify calls the contexts of newly enabled external transitions. A failing
// context leaves its transition pending.
func (r *Runner) notify(names []string) {
	for _, name := range names {
		r.logger.Debug("notifying transition context", zap.String("transition", name))
		if err := r.contexts[name].Notify(); err != nil {
			r.logger.Error("transition context failed", zap.String("transition", name), zap.Error(err))
		}
	}
}

func contains(names []string, name string) bool {
	i := sort.SearchStrings(names, name)
	return i < len(names) && names[i] == name
}
