// Package transport implements the stdio and HTTP wire transports that
// carry JSON-RPC messages to and from the rpc.Engine (spec §4.1).
package transport

import (
	"bufio"
	"context"
	"io"
	"sync"

	"github.com/opscorehq/opscore/pkg/logger"
	"github.com/opscorehq/opscore/pkg/rpc"
)

// maxLineBytes bounds a single stdio line so a malformed or malicious
// client can't exhaust memory with an unterminated write.
const maxLineBytes = 16 * 1024 * 1024

// StdioTransport reads newline-delimited JSON-RPC messages from in and
// writes responses to out. A single goroutine reads lines in arrival
// order, but each line is dispatched on its own goroutine so multiple
// tool calls can be outstanding at once; writeMu serializes the actual
// socket writes so a response is always one complete, unbroken line.
// Diagnostics go to the process logger (stderr), never to out, since a
// mixed stdout stream would corrupt the wire.
type StdioTransport struct {
	engine *rpc.Engine
	in     io.Reader
	out    io.Writer

	writeMu sync.Mutex
	wg      sync.WaitGroup
}

// NewStdio builds a stdio transport over the given engine and streams.
func NewStdio(engine *rpc.Engine, in io.Reader, out io.Writer) *StdioTransport {
	return &StdioTransport{engine: engine, in: in, out: out}
}

// Serve reads lines from in until EOF, ctx cancellation, or a read error,
// dispatching each through the engine and writing back any response. A line
// that sanitizes to nothing (empty, all-control-bytes, no JSON value) is
// silently skipped rather than sent to the engine as a parse error, since
// it likely reflects pipe noise rather than a client message.
func (t *StdioTransport) Serve(ctx context.Context) error {
	scanner := bufio.NewScanner(t.in)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	for scanner.Scan() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		line := sanitizeJSONString(scanner.Text())
		if line == "" {
			continue
		}
		t.wg.Add(1)
		go func(line string) {
			defer t.wg.Done()
			t.handleLine(ctx, line)
		}(line)
	}
	t.wg.Wait()
	if err := scanner.Err(); err != nil {
		logger.Errorw("stdio transport read failed", "error", err)
		return err
	}
	return nil
}

func (t *StdioTransport) handleLine(ctx context.Context, line string) {
	resp := t.engine.HandleMessage(ctx, []byte(line))
	if resp == nil {
		return
	}

	t.writeMu.Lock()
	defer t.writeMu.Unlock()
	if _, err := t.out.Write(append(resp, '\n')); err != nil {
		logger.Errorw("stdio transport write failed", "error", err)
	}
}
