package dispatcher

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// envelopeSchema is the least a delivery must carry to be routed: the node id of
// its repository.
var envelopeSchema = map[string]any{
	"type":     "object",
	"required": []any{"repository"},
	"properties": map[string]any{
		"repository": map[string]any{
			"type":     "object",
			"required": []any{"node_id"},
			"properties": map[string]any{
				"node_id": map[string]any{"type": "string", "minLength": 1},
			},
		},
	},
}

func compileEnvelope() (*gojsonschema.Schema, error) {
	return gojsonschema.NewSchema(gojsonschema.NewGoLoader(envelopeSchema))
}

// validateEnvelope checks the raw payload against the envelope schema.
func validateEnvelope(schema *gojsonschema.Schema, payload []byte) error {
	result, err := schema.Validate(gojsonschema.NewBytesLoader(payload))
	if err != nil {
		return err
	}

	if !result.Valid() {
		var errors []string
		for _, desc := range result.Errors() {
			errors = append(errors, desc.String())
		}

		return fmt.Errorf("validation errors: %s", strings.Join(errors, "; "))
	}

	return nil
}
