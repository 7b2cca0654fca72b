package petrifile

import (
	"context"
	"io"
)

// Service decodes petrifiles of one encoding.
type Service interface {
	Load(ctx context.Context, r io.Reader) (*Petrifile, error)
	Version() Version
}

type Version string

const (
	Unknown Version = ""
	V1      Version = "v1"
)
