package yaml

import (
	"context"
	"fmt"
	"io"

	pf "github.com/jt05610/xschema/petrifile"
	"gopkg.in/yaml.v3"
)

var _ pf.Service = (*Service)(nil)

type Service struct {
}

func (s *Service) Load(_ context.Context, r io.Reader) (*pf.Petrifile, error) {
	var f pf.Petrifile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("%w: %v", pf.ErrInvalidPetrifile, err)
	}
	if err := f.Validate(); err != nil {
		return nil, err
	}
	return &f, nil
}

func (s *Service) Version() pf.Version {
	return pf.V1
}
