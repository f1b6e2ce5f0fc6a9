package tools

import (
	"encoding/json"
	"fmt"

	"github.com/xeipuuv/gojsonschema"

	opserrors "github.com/opscorehq/opscore/pkg/errors"
)

// ValidateArguments checks args against the descriptor's input_schema:
// required keys present, each value matching its declared type and
// constraints (spec §4.5 step 3). Empty arguments for a schema that accepts
// them are treated as {} (spec's tie-break).
func ValidateArguments(schema map[string]any, args map[string]any) error {
	if args == nil {
		args = map[string]any{}
	}
	if len(schema) == 0 {
		return nil
	}

	schemaLoader := gojsonschema.NewGoLoader(schema)
	docLoader := gojsonschema.NewGoLoader(args)

	result, err := gojsonschema.Validate(schemaLoader, docLoader)
	if err != nil {
		return opserrors.NewInvalidParamsError("schema validation failed to run", err)
	}
	if result.Valid() {
		return nil
	}

	first := result.Errors()[0]
	path := first.Field()
	return opserrors.NewInvalidParamsError(
		fmt.Sprintf("%s: %s", path, first.Description()), nil)
}

// ClampTimeoutSeconds enforces the [1, 600] clamp of spec §4.5's tie-break:
// out-of-range values are clamped, not rejected.
func ClampTimeoutSeconds(requested int, defaultSeconds int) int {
	if requested < 1 {
		return 1
	}
	if requested > 600 {
		return 600
	}
	return requested
}

// DecodeArguments is a convenience for handlers that want a typed view of
// the (already schema-validated) argument map.
func DecodeArguments(args map[string]any, out any) error {
	b, err := json.Marshal(args)
	if err != nil {
		return opserrors.NewInternalError("failed to re-encode arguments", err)
	}
	if err := json.Unmarshal(b, out); err != nil {
		return opserrors.NewInternalError("failed to decode arguments", err)
	}
	return nil
}
