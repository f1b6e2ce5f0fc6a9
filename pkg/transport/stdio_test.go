package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opscorehq/opscore/pkg/rpc"
)

func TestSanitizeJSONString(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"valid JSON", `{"jsonrpc": "2.0", "method": "test", "params": {}}`, `{"jsonrpc": "2.0", "method": "test", "params": {}}`},
		{"JSON with control characters", "\x01{\"jsonrpc\": \"2.0\"}\x01", `{"jsonrpc": "2.0"}`},
		{"empty array", `[]`, `[]`},
		{"invalid JSON", `not a json`, ``},
		{"JSON with extra content", `extra{"jsonrpc": "2.0"}extra`, `{"jsonrpc": "2.0"}`},
		{"replacement char", "{\"a\":1}�", `{"a":1}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, sanitizeJSONString(tt.input))
		})
	}
}

func echoEngine() *rpc.Engine {
	return rpc.NewEngine(map[string]rpc.Handler{
		"ping": func(ctx context.Context, params json.RawMessage) (any, error) {
			return map[string]any{"pong": true}, nil
		},
	})
}

func TestStdioTransportServeWritesOneResponsePerRequest(t *testing.T) {
	in := strings.NewReader(
		`{"jsonrpc":"2.0","id":1,"method":"ping"}` + "\n" +
			`{"jsonrpc":"2.0","method":"ping"}` + "\n" +
			`{"jsonrpc":"2.0","id":2,"method":"ping"}` + "\n",
	)
	var out bytes.Buffer
	tr := NewStdio(echoEngine(), in, &out)

	err := tr.Serve(context.Background())
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 2, "the bare notification must not produce a response line")

	var first rpc.Response
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &first))
	assert.Nil(t, first.Error)
}

func TestStdioTransportSkipsUnparsableNoise(t *testing.T) {
	in := strings.NewReader("\x01\x01\n" + `{"jsonrpc":"2.0","id":1,"method":"ping"}` + "\n")
	var out bytes.Buffer
	tr := NewStdio(echoEngine(), in, &out)

	require.NoError(t, tr.Serve(context.Background()))
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 1)
}
