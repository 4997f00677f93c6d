// cmd/tools/model-manifest/main.go
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"text/tabwriter"

	"opportunity-engine/pkg/registry"
)

func main() {
	addCmd := flag.NewFlagSet("add", flag.ExitOnError)
	validateCmd := flag.NewFlagSet("validate", flag.ExitOnError)
	listCmd := flag.NewFlagSet("list", flag.ExitOnError)

	// Add command flags
	addPath := addCmd.String("path", "configs/models.json", "Path to model manifest")
	name := addCmd.String("name", "", "Model name (e.g., career_compass)")
	version := addCmd.String("version", "1.0.0", "Model version")
	features := addCmd.String("features", "", "Comma-separated feature names, in input order")
	coefficients := addCmd.String("coefficients", "", "Comma-separated coefficients, one per feature")
	intercept := addCmd.Float64("intercept", 0, "Model intercept")
	importances := addCmd.String("importances", "", "Comma-separated feature importances (optional)")
	replace := addCmd.Bool("replace", false, "Replace an existing model with the same name")

	// Validate command flags
	validatePath := validateCmd.String("path", "configs/models.json", "Path to model manifest")
	required := validateCmd.String("require", "", "Comma-separated model names that must be present")

	// List command flags
	listPath := listCmd.String("path", "configs/models.json", "Path to model manifest")

	if len(os.Args) < 2 {
		help()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "add":
		addCmd.Parse(os.Args[2:])
		if *name == "" || *features == "" || *coefficients == "" {
			fmt.Println("Error: name, features, and coefficients are required for add.")
			addCmd.Usage()
			os.Exit(1)
		}
		spec, err := buildSpec(*name, *version, *features, *coefficients, *importances, *intercept)
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
		if err := addModel(*addPath, spec, *replace); err != nil {
			fmt.Printf("Error adding model: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Added model: %s (%d features)\n", spec.Name, len(spec.Features))

	case "validate":
		validateCmd.Parse(os.Args[2:])
		n, err := validateManifest(*validatePath, splitList(*required))
		if err != nil {
			fmt.Printf("Manifest validation failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Manifest validation passed. Found %d models.\n", n)

	case "list":
		listCmd.Parse(os.Args[2:])
		if err := listModels(*listPath, os.Stdout); err != nil {
			fmt.Printf("Error listing models: %v\n", err)
			os.Exit(1)
		}

	case "help":
		fallthrough
	default:
		help()
	}
}

func buildSpec(name, version, features, coefficients, importances string, intercept float64) (registry.ModelSpec, error) {
	coef, err := parseFloats(coefficients)
	if err != nil {
		return registry.ModelSpec{}, fmt.Errorf("coefficients: %w", err)
	}
	imps, err := parseFloats(importances)
	if err != nil {
		return registry.ModelSpec{}, fmt.Errorf("importances: %w", err)
	}
	spec := registry.ModelSpec{
		Name:               name,
		Version:            version,
		Kind:               registry.KindLinear,
		Features:           splitList(features),
		Coefficients:       coef,
		Intercept:          intercept,
		FeatureImportances: imps,
	}
	return spec, spec.Validate()
}

// addModel appends spec to the manifest at path, creating the file when it
// does not exist yet.
func addModel(path string, spec registry.ModelSpec, replace bool) error {
	m, err := registry.LoadManifest(path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("failed to load manifest: %w", err)
		}
		m = &registry.Manifest{Version: "1.0.0"}
	}

	replaced := false
	for i := range m.Models {
		if m.Models[i].Name != spec.Name {
			continue
		}
		if !replace {
			return fmt.Errorf("model %s already exists (use -replace)", spec.Name)
		}
		m.Models[i] = spec
		replaced = true
	}
	if !replaced {
		m.Models = append(m.Models, spec)
	}

	if err := m.Validate(); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	return registry.SaveManifest(m, path)
}

func validateManifest(path string, required []string) (int, error) {
	m, err := registry.LoadManifest(path)
	if err != nil {
		return 0, fmt.Errorf("failed to load manifest: %w", err)
	}
	if len(m.Models) == 0 {
		return 0, fmt.Errorf("manifest contains no models")
	}
	if err := m.Validate(); err != nil {
		return 0, err
	}

	present := make(map[string]bool, len(m.Models))
	for _, spec := range m.Models {
		present[spec.Name] = true
	}
	for _, name := range required {
		if !present[name] {
			return 0, fmt.Errorf("required model %s not found", name)
		}
	}
	return len(m.Models), nil
}

func listModels(path string, out io.Writer) error {
	m, err := registry.LoadManifest(path)
	if err != nil {
		return fmt.Errorf("failed to load manifest: %w", err)
	}

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "NAME\tVERSION\tKIND\tFEATURES\tINTERCEPT\n")
	for _, spec := range m.Models {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%g\n", spec.Name, spec.Version, spec.Kind, len(spec.Features), spec.Intercept)
	}
	return tw.Flush()
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func parseFloats(s string) ([]float64, error) {
	parts := splitList(s)
	if len(parts) == 0 {
		return nil, nil
	}
	out := make([]float64, len(parts))
	for i, p := range parts {
		v, err := strconv.ParseFloat(p, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid number %q", p)
		}
		out[i] = v
	}
	return out, nil
}

func help() {
	fmt.Println(`
Usage: model-manifest <command> [flags]

Commands:
  add       Add a linear model to the manifest
  validate  Validate the manifest file
  list      List the models in the manifest
  help      Show this help message

Examples:
  model-manifest add -name career_compass -features years_experience,skills_score -coefficients 0.8,0.45 -intercept 12
  model-manifest validate -path configs/models.json -require career_compass
  model-manifest list -path configs/models.json

Use 'model-manifest <command> -h' for more information about a command.
`)
}
