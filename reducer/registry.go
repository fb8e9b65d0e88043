// Package reducer defines the dimensionality-reduction methods the experiment
// runs and the fixed order in which it runs them.
//
// PCA is computed natively with gonum. TriMap, PaCMAP, t-SNE and UMAP are
// delegated to their Python implementations through Bridge.
package reducer

import (
	"strings"

	"github.com/YuminosukeSato/dimred/core/model"
	"github.com/YuminosukeSato/dimred/pkg/errors"
)

// Standard reducer names. They also name the plot files.
const (
	NamePCA    = "PCA"
	NameTriMap = "TriMap"
	NamePaCMAP = "PaCMAP"
	NameTSNE   = "t-SNE"
	NameUMAP   = "UMAP"
)

// Spec describes one registered reducer. Specs are static: New is called
// once per run to obtain a fresh reducer.
type Spec struct {
	Name   string
	Params map[string]any
	New    func(params map[string]any) model.Reducer
}

// Reducer builds the reducer described by s.
func (s Spec) Reducer() model.Reducer {
	return s.New(s.Params)
}

// Registry is an ordered, immutable set of Specs with unique names.
type Registry struct {
	specs []Spec
	index map[string]int
}

// NewRegistry builds a registry preserving the given order.
func NewRegistry(specs ...Spec) (*Registry, error) {
	r := &Registry{
		specs: make([]Spec, 0, len(specs)),
		index: make(map[string]int, len(specs)),
	}
	for _, s := range specs {
		if s.Name == "" {
			return nil, errors.NewValidationError("name", "reducer name must not be empty", s.Name)
		}
		if strings.ContainsAny(s.Name, `/\`) || s.Name == "." || s.Name == ".." {
			return nil, errors.NewValidationError("name", "reducer name must be a single path element", s.Name)
		}
		if s.New == nil {
			return nil, errors.NewValidationError("new", "reducer constructor must not be nil", s.Name)
		}
		if _, dup := r.index[s.Name]; dup {
			return nil, errors.NewValidationError("name", "duplicate reducer name", s.Name)
		}
		r.index[s.Name] = len(r.specs)
		r.specs = append(r.specs, s)
	}
	return r, nil
}

// List returns the specs in execution order.
func (r *Registry) List() []Spec {
	out := make([]Spec, len(r.specs))
	copy(out, r.specs)
	return out
}

// Names returns the reducer names in execution order.
func (r *Registry) Names() []string {
	names := make([]string, len(r.specs))
	for i, s := range r.specs {
		names[i] = s.Name
	}
	return names
}

// Lookup returns the spec registered under name.
func (r *Registry) Lookup(name string) (Spec, bool) {
	i, ok := r.index[name]
	if !ok {
		return Spec{}, false
	}
	return r.specs[i], true
}

// Len returns the number of registered reducers.
func (r *Registry) Len() int {
	return len(r.specs)
}

// Default returns the standard registry: PCA, TriMap, PaCMAP, t-SNE, UMAP.
func Default(cfg BridgeConfig) *Registry {
	r, err := NewRegistry(
		Spec{
			Name:   NamePCA,
			Params: map[string]any{"n_components": 2},
			New: func(p map[string]any) model.Reducer {
				return NewPCA(p["n_components"].(int), cfg.Logger)
			},
		},
		bridgeSpec(NameTriMap, trimapScript, map[string]any{"n_dims": 2}, cfg),
		bridgeSpec(NamePaCMAP, pacmapScript, map[string]any{
			"n_components": 2,
			"n_neighbors":  10,
			"MN_ratio":     0.5,
			"FP_ratio":     2.0,
		}, cfg),
		bridgeSpec(NameTSNE, tsneScript, map[string]any{
			"n_components": 2,
			"perplexity":   50,
			"n_iter":       500,
		}, cfg),
		bridgeSpec(NameUMAP, umapScript, map[string]any{"n_components": 2}, cfg),
	)
	if err != nil {
		// names above are constants and unique
		panic(err)
	}
	return r
}

func bridgeSpec(name, script string, params map[string]any, cfg BridgeConfig) Spec {
	return Spec{
		Name:   name,
		Params: params,
		New: func(p map[string]any) model.Reducer {
			return NewBridge(name, script, p, cfg)
		},
	}
}
