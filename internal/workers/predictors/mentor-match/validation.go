// internal/workers/predictors/mentor-match/validation.go
package mentormatch

import "opportunity-engine/internal/common/validation"

var styles = []string{"directive", "collaborative", "delegative", "coaching"}

func GetInputSchema() validation.JSONSchema {
	return validation.JSONSchema{
		Type:     "object",
		Required: []string{"mentee"},
		Properties: map[string]validation.Property{
			"mentee": {
				Type:     "object",
				Required: []string{"userId", "industry", "role", "experienceYears"},
				Properties: map[string]validation.Property{
					"userId":          {Type: "string", MinLength: validation.Int(1)},
					"industry":        {Type: "string"},
					"role":            {Type: "string"},
					"experienceYears": {Type: "number", Minimum: validation.Float(0)},
					"skills":          {Type: "array", Items: &validation.Property{Type: "string"}},
					"goals": {
						Type: "array",
						Items: &validation.Property{
							Type: "string",
							Enum: []string{
								"career_transition", "skill_development", "leadership",
								"entrepreneurship", "work_life_balance", "industry_knowledge",
							},
						},
					},
					"preferredStyle": {Type: "string", Enum: styles},
					"availabilityHoursPerMonth": {
						Type:    "integer",
						Minimum: validation.Float(1),
						Maximum: validation.Float(20),
					},
				},
			},
			"mentorPool": {
				Type:        "array",
				Description: "Mentor ids to consider instead of the top active mentors",
				Items:       &validation.Property{Type: "string"},
			},
			"mentors": {
				Type:     "array",
				MaxItems: validation.Int(500),
				Items: &validation.Property{
					Type:     "object",
					Required: []string{"userId", "mentoringStyle"},
				},
			},
			"maxResults": {Type: "integer", Minimum: validation.Float(1), Maximum: validation.Float(50)},
			"minScore":   {Type: "number", Minimum: validation.Float(0), Maximum: validation.Float(100)},
		},
		AdditionalProperties: true,
	}
}
