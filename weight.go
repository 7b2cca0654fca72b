package petri

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

// weight is a compiled arc weight. Integer literals skip the expression engine.
type weight struct {
	src      string
	constant bool
	literal  int
	program  *vm.Program
}

// counter resolves a place name, as written in a weight expression, to token counts.
type counter interface {
	count(place, token string) (int, error)
	total(place string) (int, error)
}

func weightEnv(c counter, failed *error) map[string]interface{} {
	return map[string]interface{}{
		"tokens": func(place string) int {
			n, err := c.total(place)
			if err != nil && *failed == nil {
				*failed = err
			}
			return n
		},
		"count": func(place, token string) int {
			n, err := c.count(place, token)
			if err != nil && *failed == nil {
				*failed = err
			}
			return n
		},
	}
}

type nopCounter struct{}

func (nopCounter) count(string, string) (int, error) { return 0, nil }
func (nopCounter) total(string) (int, error)         { return 0, nil }

func compileWeight(src string) (*weight, error) {
	src = strings.TrimSpace(src)
	if src == "" {
		src = "1"
	}
	if n, err := strconv.Atoi(src); err == nil {
		if n < 0 {
			return nil, fmt.Errorf("%w: %q is negative", ErrInvalidWeight, src)
		}
		return &weight{src: src, constant: true, literal: n}, nil
	}
	var failed error
	program, err := expr.Compile(src,
		expr.Env(weightEnv(nopCounter{}, &failed)),
		expr.DisableBuiltin("count"),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrInvalidWeight, src, err)
	}
	return &weight{src: src, program: program}, nil
}

// Constant reports the weight if it does not depend on the marking.
func (w *weight) Constant() (int, bool) {
	return w.literal, w.constant
}

func (w *weight) eval(c counter) (int, error) {
	if w.constant {
		return w.literal, nil
	}
	var failed error
	out, err := expr.Run(w.program, weightEnv(c, &failed))
	if err != nil {
		return 0, fmt.Errorf("%w: %q: %v", ErrInvalidWeight, w.src, err)
	}
	if failed != nil {
		return 0, fmt.Errorf("%w: %q: %w", ErrInvalidWeight, w.src, failed)
	}
	var n int
	switch v := out.(type) {
	case int:
		n = v
	case int64:
		n = int(v)
	case float64:
		if v != math.Trunc(v) {
			return 0, fmt.Errorf("%w: %q evaluated to %v", ErrInvalidWeight, w.src, v)
		}
		n = int(v)
	default:
		return 0, fmt.Errorf("%w: %q evaluated to %T", ErrInvalidWeight, w.src, out)
	}
	if n < 0 {
		return 0, fmt.Errorf("%w: %q evaluated to %d", ErrInvalidWeight, w.src, n)
	}
	return n, nil
}
