// Package builder assembles an include hierarchy from petrifiles, loading
// every included petrifile from the search directories.
package builder

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jt05610/xschema/include"
	"github.com/jt05610/xschema/petrifile"
	"go.uber.org/zap"
)

var (
	ErrIncludeCycle = errors.New("include cycle")
	ErrNoService    = errors.New("no petrifile service")
)

type Builder struct {
	SearchDirs []string
	services   map[string]petrifile.Service
	logger     *zap.Logger
}

func NewBuilder(services map[string]petrifile.Service, dirs ...string) *Builder {
	if dirs == nil {
		dirs = []string{"."}
	}
	if services == nil {
		services = make(map[string]petrifile.Service)
	}
	return &Builder{
		SearchDirs: dirs,
		services:   services,
		logger:     zap.NewNop(),
	}
}

// WithService registers srv for files with the extension ext, e.g. "yaml".
func (b *Builder) WithService(ext string, srv petrifile.Service) *Builder {
	b.services[strings.TrimPrefix(ext, ".")] = srv
	return b
}

func (b *Builder) WithSearchDirs(dirs ...string) *Builder {
	b.SearchDirs = append(b.SearchDirs, dirs...)
	return b
}

func (b *Builder) WithLogger(logger *zap.Logger) *Builder {
	if logger != nil {
		b.logger = logger
	}
	return b
}

func (b *Builder) service(f string) (petrifile.Service, error) {
	ext := strings.TrimPrefix(filepath.Ext(f), ".")
	if ext == "" || ext == "yml" {
		ext = "yaml"
	}
	if s, ok := b.services[ext]; ok {
		return s, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrNoService, f)
}

// find returns the path of f in the first search directory containing it.
// Paths are tried as given before the search directories.
func (b *Builder) find(f string) (string, error) {
	if filepath.IsAbs(f) {
		return f, nil
	}
	for _, dir := range b.SearchDirs {
		path := filepath.Join(dir, f)
		if _, err := os.Stat(path); err == nil {
			return filepath.Abs(path)
		}
	}
	return "", fmt.Errorf("%s: %w", f, os.ErrNotExist)
}

func (b *Builder) load(ctx context.Context, path string) (*petrifile.Petrifile, error) {
	srv, err := b.service(path)
	if err != nil {
		return nil, err
	}
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	doc, err := srv.Load(ctx, file)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return doc, nil
}

// Build loads f and everything it includes. The root of the hierarchy is
// named after the net f declares.
func (b *Builder) Build(ctx context.Context, f string) (*include.Hierarchy, error) {
	return b.build(ctx, f, "", nil, make(map[string]bool))
}

func (b *Builder) build(ctx context.Context, f, name string, parent *include.Hierarchy, loading map[string]bool) (*include.Hierarchy, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path, err := b.find(f)
	if err != nil {
		return nil, err
	}
	if loading[path] {
		return nil, fmt.Errorf("%w: %s", ErrIncludeCycle, path)
	}
	loading[path] = true
	defer delete(loading, path)

	doc, err := b.load(ctx, path)
	if err != nil {
		return nil, err
	}
	net, err := doc.Net()
	if err != nil {
		return nil, err
	}
	var h *include.Hierarchy
	if parent == nil {
		h = include.New(net, doc.Name)
	} else if h, err = parent.Include(net, name); err != nil {
		return nil, err
	}
	b.logger.Debug("loaded petrifile", zap.String("file", path), zap.String("include", h.QualifiedName()))
	for _, inc := range doc.Includes {
		child, err := b.build(ctx, inc.File, inc.Name, h, loading)
		if err != nil {
			return nil, fmt.Errorf("include %s in %s: %w", inc.Name, doc.Name, err)
		}
		for _, export := range inc.Exports {
			if _, err := child.AddToInterface(export, true, false); err != nil {
				return nil, fmt.Errorf("export %s.%s: %w", inc.Name, export, err)
			}
		}
	}
	for _, m := range doc.Merges {
		dir, err := m.Dir()
		if err != nil {
			return nil, err
		}
		if err := h.BuildMergeArc(dir, m.Child, m.Place, m.Transition, m.InterfaceName(), m.Weights); err != nil {
			return nil, fmt.Errorf("merge %s %s: %w", m.InterfaceName(), m.Transition, err)
		}
	}
	return h, nil
}
