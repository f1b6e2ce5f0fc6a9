package audit

import (
	"bufio"
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFingerprintStableAcrossMapOrder(t *testing.T) {
	a := map[string]any{"server": "h1", "command": "echo ok", "timeout": 30}
	b := map[string]any{"timeout": 30, "command": "echo ok", "server": "h1"}
	assert.Equal(t, Fingerprint(a), Fingerprint(b))
}

func TestFingerprintDiffersOnValueChange(t *testing.T) {
	a := map[string]any{"server": "h1"}
	b := map[string]any{"server": "h2"}
	assert.NotEqual(t, Fingerprint(a), Fingerprint(b))
}

func TestWriterFlushesBeforeReturning(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "audit.log")

	w, err := Open(path)
	require.NoError(t, err)
	defer w.Close()

	rec := Record{
		Timestamp:       time.Now().UTC(),
		Profile:         "staging",
		Tool:            "ssh_execute",
		ArgsFingerprint: Fingerprint(map[string]any{"server": "h1"}),
		RequestID:       "req-1",
		Status:          StatusSuccess,
		DurationMS:      12,
	}
	require.NoError(t, w.Write(rec))

	contents, err := os.ReadFile(path)
	require.NoError(t, err)

	scanner := bufio.NewScanner(bytes.NewReader(contents))
	require.True(t, scanner.Scan())

	var decoded Record
	require.NoError(t, json.Unmarshal(scanner.Bytes(), &decoded))
	assert.Equal(t, "ssh_execute", decoded.Tool)
	assert.Equal(t, StatusSuccess, decoded.Status)
}

func TestWriterAppendsOneRecordPerCall(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "audit.log")

	w, err := Open(path)
	require.NoError(t, err)
	defer w.Close()

	for i := 0; i < 5; i++ {
		require.NoError(t, w.Write(Record{Tool: "ping", Status: StatusSuccess}))
	}

	contents, err := os.ReadFile(path)
	require.NoError(t, err)

	lines := 0
	scanner := bufio.NewScanner(bytes.NewReader(contents))
	for scanner.Scan() {
		lines++
	}
	assert.Equal(t, 5, lines)
}
