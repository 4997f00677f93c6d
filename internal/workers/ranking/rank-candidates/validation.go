// internal/workers/ranking/rank-candidates/validation.go
package rankcandidates

import "opportunity-engine/internal/common/validation"

func GetInputSchema() validation.JSONSchema {
	return validation.JSONSchema{
		Type:     "object",
		Required: []string{"candidates", "userContext"},
		Properties: map[string]validation.Property{
			"candidates": {
				Type:        "array",
				Description: "Items to rank",
				MinItems:    validation.Int(1),
				MaxItems:    validation.Int(1000),
				Items: &validation.Property{
					Type:     "object",
					Required: []string{"id", "type"},
					Properties: map[string]validation.Property{
						"id":       {Type: "string", MinLength: validation.Int(1)},
						"type":     {Type: "string", MinLength: validation.Int(1)},
						"features": {Type: "object"},
						"metadata": {Type: "object"},
					},
				},
			},
			"userContext": {
				Type:        "object",
				Description: "Viewer the ranking is personalised for",
				Required:    []string{"userId"},
				Properties: map[string]validation.Property{
					"userId":    {Type: "string"},
					"interests": {Type: "array", Items: &validation.Property{Type: "string"}},
					"skills":    {Type: "array", Items: &validation.Property{Type: "string"}},
					"location":  {Type: "string"},
				},
			},
			"strategy": {
				Type:        "string",
				Description: "Ranking strategy",
				Enum:        []string{"light", "heavy"},
			},
			"topK": {
				Type:        "integer",
				Description: "Number of items to keep",
				Minimum:     validation.Float(1),
				Maximum:     validation.Float(100),
			},
			"diversityFactor": {
				Type:        "number",
				Description: "Strength of the content-type score decay",
				Minimum:     validation.Float(0),
				Maximum:     validation.Float(1),
			},
		},
		AdditionalProperties: true,
	}
}
