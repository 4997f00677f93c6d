// pkg/registry/schema.go
package registry

// KindLinear is the only model kind the registry can evaluate.
const KindLinear = "linear"

// Manifest is the on-disk model manifest.
type Manifest struct {
	Version     string      `json:"version"`
	LastUpdated string      `json:"lastUpdated"`
	Models      []ModelSpec `json:"models"`
}

// ModelSpec describes one linear model: prediction = intercept + sum(coef_i * x_i).
type ModelSpec struct {
	Name               string    `json:"name"`
	Version            string    `json:"version"`
	Kind               string    `json:"kind"`
	Features           []string  `json:"features"`
	Coefficients       []float64 `json:"coefficients"`
	Intercept          float64   `json:"intercept"`
	FeatureImportances []float64 `json:"featureImportances,omitempty"`
}

// Requirement names a model the process cannot run without, and the
// features a placeholder for it must accept.
type Requirement struct {
	Name     string
	Features []string
}
