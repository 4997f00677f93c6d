// internal/common/camunda/variables.go
package camunda

import (
	"strings"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/goccy/go-json"

	"opportunity-engine/internal/common/errors"
	"opportunity-engine/internal/common/validation"
)

// DecodeVariables validates the job's variables against schema and decodes
// them into out. Schema violations are INVALID_INPUT, malformed JSON is
// PARSE_ERROR; neither is retried.
func DecodeVariables(job entities.Job, schema validation.JSONSchema, out interface{}) error {
	raw := job.Variables
	if strings.TrimSpace(raw) == "" {
		raw = "{}"
	}

	result, err := validation.ValidateJSON(raw, schema)
	if err != nil {
		return errors.NewParseError(err)
	}
	if !result.Valid {
		return errors.NewInvalidInputError(strings.Join(result.GetErrorMessages(), "; ")).
			WithMetadata("fields", result.Errors)
	}

	if err := json.Unmarshal([]byte(raw), out); err != nil {
		return errors.NewParseError(err)
	}
	return nil
}
