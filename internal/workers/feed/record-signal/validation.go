// internal/workers/feed/record-signal/validation.go
package recordsignal

import "opportunity-engine/internal/common/validation"

func GetInputSchema() validation.JSONSchema {
	return validation.JSONSchema{
		Type:     "object",
		Required: []string{"signalType", "userId"},
		Properties: map[string]validation.Property{
			"signalType": {
				Type: "string",
				Enum: []string{SignalRefresh, SignalEngagement},
			},
			"userId": {
				Type:      "string",
				MinLength: validation.Int(1),
			},
			"feedContext": {
				Type: "string",
				Enum: []string{"home", "explore", "professional", "learning", "social"},
			},
			"itemId": {
				Type:        "string",
				Description: "Required for engagement signals",
			},
			"engagementType": {
				Type: "string",
				Enum: []string{"view", "like", "comment", "share", "click", "dwell"},
			},
			"dwellSeconds": {
				Type:    "number",
				Minimum: validation.Float(0),
			},
		},
		AdditionalProperties: true,
	}
}
