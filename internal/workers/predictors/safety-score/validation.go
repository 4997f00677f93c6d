// internal/workers/predictors/safety-score/validation.go
package safetyscore

import "opportunity-engine/internal/common/validation"

func GetInputSchema() validation.JSONSchema {
	return validation.JSONSchema{
		Type:     "object",
		Required: []string{"userId", "accountAgeDays"},
		Properties: map[string]validation.Property{
			"userId":              {Type: "string", MinLength: validation.Int(1)},
			"accountAgeDays":      {Type: "integer", Minimum: validation.Float(0)},
			"isVerified":          {Type: "boolean"},
			"verificationLevel":   {Type: "integer", Minimum: validation.Float(0), Maximum: validation.Float(3)},
			"reportCountReceived": {Type: "integer", Minimum: validation.Float(0)},
			"reportCountMade":     {Type: "integer", Minimum: validation.Float(0)},
			"blockCountReceived":  {Type: "integer", Minimum: validation.Float(0)},
			"messageResponseRate": {
				Type:    "number",
				Minimum: validation.Float(0),
				Maximum: validation.Float(1),
			},
			"totalInteractions":    {Type: "integer", Minimum: validation.Float(0)},
			"positiveInteractions": {Type: "integer", Minimum: validation.Float(0)},
			"contentFlags":         {Type: "integer", Minimum: validation.Float(0)},
			"contentApproved":      {Type: "integer", Minimum: validation.Float(0)},
			"customSignals": {
				Type: "array",
				Items: &validation.Property{
					Type:     "object",
					Required: []string{"signalType", "signalName", "value"},
					Properties: map[string]validation.Property{
						"signalType": {
							Type: "string",
							Enum: []string{"behavioral", "content", "interaction", "verification", "report"},
						},
						"signalName": {Type: "string", MinLength: validation.Int(1)},
						"value":      {Type: "number", Minimum: validation.Float(-1), Maximum: validation.Float(1)},
						"confidence": {Type: "number", Minimum: validation.Float(0), Maximum: validation.Float(1)},
					},
				},
			},
		},
		AdditionalProperties: true,
	}
}
