package petri

import (
	"errors"
	"fmt"
)

var (
	ErrDuplicateIdentity = errors.New("duplicate identity")
	ErrNotFound          = errors.New("not found")
	ErrNotEnabled        = errors.New("not enabled")
	ErrUnknownPlace      = errors.New("unknown place")
	ErrUnknownToken      = errors.New("unknown token")
	ErrInvalidArc        = errors.New("invalid arc")
	ErrInvalidWeight     = errors.New("invalid weight")
	ErrInvalidMarking    = errors.New("invalid marking")
)

func NotEnabled(t string) error {
	return fmt.Errorf("transition %s is %w", t, ErrNotEnabled)
}
