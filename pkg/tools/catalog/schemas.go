// Package catalog assembles the fixed §6.4 tool catalog: one tools.Descriptor
// per row of the table, each schema-validated and wired to the capability
// interfaces of pkg/tools.
package catalog

func obj(required []string, properties map[string]any) map[string]any {
	schema := map[string]any{
		"type":                 "object",
		"properties":           properties,
		"additionalProperties": false,
	}
	if len(required) > 0 {
		req := make([]any, len(required))
		for i, r := range required {
			req[i] = r
		}
		schema["required"] = req
	}
	return schema
}

func strProp() map[string]any {
	return map[string]any{"type": "string"}
}

func intProp(min, max int) map[string]any {
	return map[string]any{"type": "integer", "minimum": min, "maximum": max}
}

// timeoutProp declares a bare integer type with no minimum/maximum. A
// timeout argument is clamped to [1, 600] by ClampTimeoutSeconds after
// schema validation runs, not rejected by it — a bounded schema here would
// make gojsonschema reject out-of-range values before the clamp ever sees
// them.
func timeoutProp() map[string]any {
	return map[string]any{"type": "integer"}
}

func boolProp() map[string]any {
	return map[string]any{"type": "boolean"}
}
