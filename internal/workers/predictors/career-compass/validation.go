// internal/workers/predictors/career-compass/validation.go
package careercompass

import "opportunity-engine/internal/common/validation"

func GetInputSchema() validation.JSONSchema {
	return validation.JSONSchema{
		Type:     "object",
		Required: []string{"userId", "yearsExperience", "currentSalary", "educationLevel", "skillsScore"},
		Properties: map[string]validation.Property{
			"userId":          {Type: "string", MinLength: validation.Int(1)},
			"yearsExperience": {Type: "number", Minimum: validation.Float(0), Maximum: validation.Float(50)},
			"currentSalary":   {Type: "number", Minimum: validation.Float(0)},
			"educationLevel": {
				Type:        "integer",
				Description: "1=High School, 2=Associate, 3=Bachelor, 4=Master, 5=PhD",
				Minimum:     validation.Float(1),
				Maximum:     validation.Float(5),
			},
			"industryGrowth":  {Type: "number"},
			"skillsScore":     {Type: "number", Minimum: validation.Float(0), Maximum: validation.Float(100)},
			"leadershipScore": {Type: "number", Minimum: validation.Float(0), Maximum: validation.Float(100)},
			"certifications":  {Type: "integer", Minimum: validation.Float(0)},
			"locationIndex":   {Type: "number", Minimum: validation.Float(0.5), Maximum: validation.Float(1.6)},
			"companySize":     {Type: "integer", Minimum: validation.Float(1)},
			"timelineMonths":  {Type: "integer", Minimum: validation.Float(6), Maximum: validation.Float(120)},
		},
		AdditionalProperties: true,
	}
}
