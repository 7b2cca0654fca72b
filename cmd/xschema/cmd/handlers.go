/*
Copyright © 2024 Jonathan Taylor <jonrtaylor12@gmail.com>

Permission is hereby granted, free of charge, to any person obtaining a copy
of this software and associated documentation files (the "Software"), to deal
in the Software without restriction, including without limitation the rights
to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
copies of the Software, and to permit persons to whom the Software is
furnished to do so, subject to the following conditions:

The above copyright notice and this permission notice shall be included in
all copies or substantial portions of the Software.

THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
THE SOFTWARE.
*/

package cmd

import (
	"fmt"
	"strings"

	petri "github.com/jt05610/xschema"
	"github.com/jt05610/xschema/runner"
)

// Handler binds an external transition of a running net to whatever answers it.
type Handler func(r *runner.Runner, transition string) runner.TransitionContext

// handlers resolves the handler names petrifiles give external transitions.
var handlers = map[string]Handler{
	"auto":        fire,
	"sensor":      sensor,
	"hand-sensor": sensor,
}

// fire answers a notification by firing the transition straight away.
func fire(r *runner.Runner, transition string) runner.TransitionContext {
	return runner.ContextFunc(func() error {
		return r.FireExternal(transition)
	})
}

// sensor marks the transition's sensed place, e.g. Close_sensed for Close,
// then fires the transition.
func sensor(r *runner.Runner, transition string) runner.TransitionContext {
	prefix := strings.TrimSuffix(transition, petri.Local(transition))
	sensed := prefix + petri.Local(transition) + "_sensed"
	return runner.ContextFunc(func() error {
		if err := r.MarkPlace(sensed, petri.DefaultToken, 1); err != nil {
			return err
		}
		return r.FireExternal(transition)
	})
}

// bind sets a context for every external transition whose handler is known
// and returns the transitions left for external signals.
func bind(r *runner.Runner, net *petri.Net) ([]string, error) {
	unbound := make([]string, 0)
	for _, t := range net.Transitions {
		if !t.IsExternal() {
			continue
		}
		h, found := handlers[t.Handler]
		if !found {
			unbound = append(unbound, t.Name)
			continue
		}
		if err := r.SetTransitionContext(t.Name, h(r, t.Name)); err != nil {
			return nil, fmt.Errorf("bind %s: %w", t.Name, err)
		}
	}
	return unbound, nil
}

// parseMark parses "place=count" or "place:token=count".
func parseMark(s string) (place, token string, count int, err error) {
	lhs, rhs, found := strings.Cut(s, "=")
	if !found {
		return "", "", 0, fmt.Errorf("mark %q: expected place=count", s)
	}
	place, token = lhs, petri.DefaultToken
	if p, t, found := strings.Cut(lhs, ":"); found {
		place, token = p, t
	}
	if _, err := fmt.Sscanf(rhs, "%d", &count); err != nil {
		return "", "", 0, fmt.Errorf("mark %q: %w", s, err)
	}
	return place, token, count, nil
}
