// internal/workers/predictors/income-stream/validation.go
package incomestream

import "opportunity-engine/internal/common/validation"

func GetInputSchema() validation.JSONSchema {
	return validation.JSONSchema{
		Type:     "object",
		Required: []string{"userId", "currentIncome", "experienceYears"},
		Properties: map[string]validation.Property{
			"userId":          {Type: "string", MinLength: validation.Int(1)},
			"currentIncome":   {Type: "number", Minimum: validation.Float(0)},
			"experienceYears": {Type: "number", Minimum: validation.Float(0)},
			"skills":          {Type: "array", Items: &validation.Property{Type: "string"}},
			"industry":        {Type: "string"},
			"incomeStreams": {
				Type:        "array",
				Description: "Existing income streams",
				Items:       &validation.Property{Type: "object"},
			},
			"availableHoursPerWeek": {
				Type:    "integer",
				Minimum: validation.Float(0),
				Maximum: validation.Float(80),
			},
			"riskTolerance": {Type: "string", Enum: []string{"low", "medium", "high"}},
			"hasBusiness":   {Type: "boolean"},
		},
		AdditionalProperties: true,
	}
}
