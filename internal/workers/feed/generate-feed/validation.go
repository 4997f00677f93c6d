// internal/workers/feed/generate-feed/validation.go
package generatefeed

import "opportunity-engine/internal/common/validation"

var contentTypes = []string{"post", "video", "job", "course", "ad", "mentor", "event", "story"}

func GetInputSchema() validation.JSONSchema {
	return validation.JSONSchema{
		Type:     "object",
		Required: []string{"userContext"},
		Properties: map[string]validation.Property{
			"userContext": {
				Type:        "object",
				Description: "Viewer the page is composed for",
				Required:    []string{"userId"},
				Properties: map[string]validation.Property{
					"userId":                {Type: "string", MinLength: validation.Int(1)},
					"interests":             {Type: "array", Items: &validation.Property{Type: "string"}},
					"followedUsers":         {Type: "array", Items: &validation.Property{Type: "string"}},
					"followedOrganizations": {Type: "array", Items: &validation.Property{Type: "string"}},
					"blockedUsers":          {Type: "array", Items: &validation.Property{Type: "string"}},
					"feedContext": {
						Type: "string",
						Enum: []string{"home", "explore", "professional", "learning", "social"},
					},
				},
			},
			"candidates": {
				Type:        "array",
				Description: "Candidate pool; may be empty when fetchCandidates is set",
				MaxItems:    validation.Int(1000),
				Items: &validation.Property{
					Type:     "object",
					Required: []string{"id", "type"},
					Properties: map[string]validation.Property{
						"id":       {Type: "string", MinLength: validation.Int(1)},
						"type":     {Type: "string", Enum: contentTypes},
						"likes":    {Type: "integer", Minimum: validation.Float(0)},
						"comments": {Type: "integer", Minimum: validation.Float(0)},
						"shares":   {Type: "integer", Minimum: validation.Float(0)},
						"views":    {Type: "integer", Minimum: validation.Float(0)},
						"qualityScore": {
							Type:    "number",
							Minimum: validation.Float(0),
							Maximum: validation.Float(1),
						},
					},
				},
			},
			"page": {
				Type:    "integer",
				Minimum: validation.Float(1),
			},
			"pageSize": {
				Type:    "integer",
				Minimum: validation.Float(1),
				Maximum: validation.Float(50),
			},
			"mixRatios": {
				Type:        "object",
				Description: "Bucket name to share of the page",
			},
			"fetchCandidates": {
				Type:        "boolean",
				Description: "Load the pool from the candidate index when none is supplied",
			},
		},
		AdditionalProperties: true,
	}
}
