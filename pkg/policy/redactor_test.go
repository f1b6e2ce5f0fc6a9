package policy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opscorehq/opscore/pkg/config"
)

func TestRedactTextMasksValueNotKey(t *testing.T) {
	r, err := NewRedactor(config.DefaultRedactionRuleSet())
	require.NoError(t, err)

	out := r.RedactText("API_TOKEN: abc123\nok")
	assert.Contains(t, out, "TOKEN: [REDACTED]")
	assert.Contains(t, out, "ok")
	assert.NotContains(t, out, "abc123")
}

func TestRedactTextIdempotent(t *testing.T) {
	r, err := NewRedactor(config.DefaultRedactionRuleSet())
	require.NoError(t, err)

	once := r.RedactText("password=hunter2 secret: xyz")
	twice := r.RedactText(once)
	assert.Equal(t, once, twice)
}

func TestRedactStructuredMasksSensitiveKeys(t *testing.T) {
	r, err := NewRedactor(config.DefaultRedactionRuleSet())
	require.NoError(t, err)

	in := map[string]any{
		"username": "alice",
		"password": "hunter2",
		"nested": map[string]any{
			"api_key": "zzz",
			"note":    "token: abc fine otherwise",
		},
	}

	out := r.RedactStructured(in).(map[string]any)
	assert.Equal(t, "alice", out["username"])
	assert.Equal(t, Sentinel, out["password"])

	nested := out["nested"].(map[string]any)
	assert.Equal(t, Sentinel, nested["api_key"])
	assert.Contains(t, nested["note"].(string), Sentinel)
}

func TestRedactStructuredRecursesIntoSlices(t *testing.T) {
	r, err := NewRedactor(config.DefaultRedactionRuleSet())
	require.NoError(t, err)

	in := []any{
		map[string]any{"secret": "s1"},
		"token: s2",
	}
	out := r.RedactStructured(in).([]any)
	assert.Equal(t, Sentinel, out[0].(map[string]any)["secret"])
	assert.Contains(t, out[1].(string), Sentinel)
}
