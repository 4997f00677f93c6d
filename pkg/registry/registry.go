// pkg/registry/registry.go
package registry

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/goccy/go-json"
)

// placeholderScore is what a placeholder model predicts for any input.
const placeholderScore = 50

var ErrFeatureCount = errors.New("feature count mismatch")

// LoadManifest reads and decodes a manifest file.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("decode manifest %s: %w", path, err)
	}
	return &m, nil
}

// SaveManifest writes m as indented JSON, stamping LastUpdated.
func SaveManifest(m *Manifest, path string) error {
	m.LastUpdated = time.Now().UTC().Format(time.RFC3339)
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}

// Validate checks every model spec and rejects duplicate names.
func (m *Manifest) Validate() error {
	seen := make(map[string]bool, len(m.Models))
	for _, spec := range m.Models {
		if err := spec.Validate(); err != nil {
			return err
		}
		if seen[spec.Name] {
			return fmt.Errorf("duplicate model %q", spec.Name)
		}
		seen[spec.Name] = true
	}
	return nil
}

func (s ModelSpec) Validate() error {
	if s.Name == "" {
		return errors.New("model missing required field: name")
	}
	if s.Kind != KindLinear {
		return fmt.Errorf("model %q: unsupported kind %q", s.Name, s.Kind)
	}
	if len(s.Features) == 0 {
		return fmt.Errorf("model %q: no features", s.Name)
	}
	if len(s.Coefficients) != len(s.Features) {
		return fmt.Errorf("model %q: %d coefficients for %d features", s.Name, len(s.Coefficients), len(s.Features))
	}
	if len(s.FeatureImportances) != 0 && len(s.FeatureImportances) != len(s.Features) {
		return fmt.Errorf("model %q: %d importances for %d features", s.Name, len(s.FeatureImportances), len(s.Features))
	}
	return nil
}

// Model is a loaded, read-only linear model.
type Model struct {
	Name        string
	Version     string
	Features    []string
	Placeholder bool

	coefficients []float64
	intercept    float64
	importances  []float64
}

func newModel(spec ModelSpec) *Model {
	importances := spec.FeatureImportances
	if len(importances) == 0 {
		importances = importancesFromCoefficients(spec.Coefficients)
	}
	return &Model{
		Name:         spec.Name,
		Version:      spec.Version,
		Features:     append([]string(nil), spec.Features...),
		coefficients: append([]float64(nil), spec.Coefficients...),
		intercept:    spec.Intercept,
		importances:  append([]float64(nil), importances...),
	}
}

func newPlaceholder(req Requirement) *Model {
	n := len(req.Features)
	importances := make([]float64, n)
	for i := range importances {
		importances[i] = 1 / float64(n)
	}
	return &Model{
		Name:         req.Name,
		Version:      "placeholder",
		Features:     append([]string(nil), req.Features...),
		Placeholder:  true,
		coefficients: make([]float64, n),
		intercept:    placeholderScore,
		importances:  importances,
	}
}

// importancesFromCoefficients normalizes absolute coefficients to sum to 1.
func importancesFromCoefficients(coef []float64) []float64 {
	out := make([]float64, len(coef))
	var sum float64
	for _, c := range coef {
		if c < 0 {
			c = -c
		}
		sum += c
	}
	for i, c := range coef {
		if c < 0 {
			c = -c
		}
		if sum > 0 {
			out[i] = c / sum
		} else {
			out[i] = 1 / float64(len(coef))
		}
	}
	return out
}

// Predict evaluates the model on x, ordered like Features.
func (m *Model) Predict(x []float64) (float64, error) {
	if len(x) != len(m.Features) {
		return 0, fmt.Errorf("%w: model %q expects %d features, got %d", ErrFeatureCount, m.Name, len(m.Features), len(x))
	}
	y := m.intercept
	for i, v := range x {
		y += m.coefficients[i] * v
	}
	return y, nil
}

type FeatureImportance struct {
	Feature    string  `json:"feature"`
	Importance float64 `json:"importance"`
}

// FeatureImportances returns importances sorted descending. Ties keep feature order.
func (m *Model) FeatureImportances() []FeatureImportance {
	out := make([]FeatureImportance, len(m.Features))
	for i, f := range m.Features {
		out[i] = FeatureImportance{Feature: f, Importance: m.importances[i]}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Importance > out[j].Importance })
	return out
}

// Options controls Load.
type Options struct {
	ManifestPath     string
	Required         []Requirement
	AllowPlaceholder bool
}

// Registry holds the models loaded at startup. It is never modified after
// Load returns and is safe for concurrent use.
type Registry struct {
	version string
	models  map[string]*Model
}

// Load reads the manifest and checks that every required model is present.
// A missing manifest or model is an error unless AllowPlaceholder is set, in
// which case a neutral placeholder is registered in its place.
func Load(opts Options) (*Registry, error) {
	reg := &Registry{models: make(map[string]*Model)}

	m, err := LoadManifest(opts.ManifestPath)
	switch {
	case err == nil:
		if err := m.Validate(); err != nil {
			return nil, fmt.Errorf("invalid manifest %s: %w", opts.ManifestPath, err)
		}
		reg.version = m.Version
		for _, spec := range m.Models {
			reg.models[spec.Name] = newModel(spec)
		}
	case errors.Is(err, os.ErrNotExist) && opts.AllowPlaceholder:
		reg.version = "placeholder"
	default:
		return nil, fmt.Errorf("load model manifest: %w", err)
	}

	for _, req := range opts.Required {
		model, ok := reg.models[req.Name]
		if !ok {
			if !opts.AllowPlaceholder {
				return nil, fmt.Errorf("required model %q not found in %s", req.Name, opts.ManifestPath)
			}
			reg.models[req.Name] = newPlaceholder(req)
			continue
		}
		if len(req.Features) > 0 && len(model.Features) != len(req.Features) {
			return nil, fmt.Errorf("%w: model %q has %d features, %d required", ErrFeatureCount, req.Name, len(model.Features), len(req.Features))
		}
	}

	return reg, nil
}

// New builds a registry directly from specs.
func New(specs ...ModelSpec) (*Registry, error) {
	m := &Manifest{Models: specs}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	reg := &Registry{models: make(map[string]*Model, len(specs))}
	for _, spec := range specs {
		reg.models[spec.Name] = newModel(spec)
	}
	return reg, nil
}

// Get returns the named model.
func (r *Registry) Get(name string) (*Model, bool) {
	if r == nil {
		return nil, false
	}
	m, ok := r.models[name]
	return m, ok
}

// Names lists loaded models in name order.
func (r *Registry) Names() []string {
	if r == nil {
		return nil
	}
	names := make([]string, 0, len(r.models))
	for name := range r.models {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (r *Registry) Version() string {
	if r == nil {
		return ""
	}
	return r.version
}

// HasPlaceholders reports whether any loaded model is a placeholder.
func (r *Registry) HasPlaceholders() bool {
	if r == nil {
		return false
	}
	for _, m := range r.models {
		if m.Placeholder {
			return true
		}
	}
	return false
}
