package rpc

import (
	"bytes"
	"context"
	"encoding/json"

	"github.com/google/uuid"

	opserrors "github.com/opscorehq/opscore/pkg/errors"
	"github.com/opscorehq/opscore/pkg/logger"
)

// Handler implements one JSON-RPC method. params is the raw params value
// exactly as received (object, array, or absent). Handlers report failures
// as an *errors.Error so the engine can choose the matching JSON-RPC error
// code; any other error is treated as an unclassified internal fault.
type Handler func(ctx context.Context, params json.RawMessage) (any, error)

// Engine is the method dispatch table. It is read-only after construction —
// safe for concurrent calls across transports (spec §5's "tool registry is
// read-only after startup" applies equally here).
type Engine struct {
	handlers map[string]Handler
}

// NewEngine builds an engine from a fixed dispatch table, copying it so the
// caller's map cannot be mutated out from under concurrent dispatch.
func NewEngine(handlers map[string]Handler) *Engine {
	cp := make(map[string]Handler, len(handlers))
	for k, v := range handlers {
		cp[k] = v
	}
	return &Engine{handlers: cp}
}

// HandleMessage parses and dispatches one wire message — a single envelope
// or a batch array — and returns the bytes to write back to the transport.
// It returns nil when nothing should be written: a lone notification, or a
// batch made entirely of notifications (spec §4.2/§8).
func (e *Engine) HandleMessage(ctx context.Context, raw []byte) []byte {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		return e.handleBatch(ctx, trimmed)
	}
	return e.handleSingle(ctx, trimmed)
}

func (e *Engine) handleSingle(ctx context.Context, raw []byte) []byte {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return mustMarshal(errorResponse(nil, CodeParseError, "parse error", nil))
	}
	resp := e.dispatch(ctx, env)
	if resp == nil {
		return nil
	}
	return mustMarshal(resp)
}

func (e *Engine) handleBatch(ctx context.Context, raw []byte) []byte {
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return mustMarshal(errorResponse(nil, CodeParseError, "parse error", nil))
	}
	if len(items) == 0 {
		return mustMarshal(errorResponse(nil, CodeInvalidRequest, "batch must not be empty", nil))
	}

	responses := make([]*Response, 0, len(items))
	for _, item := range items {
		var env Envelope
		if err := json.Unmarshal(item, &env); err != nil {
			responses = append(responses, errorResponse(nil, CodeParseError, "parse error", nil))
			continue
		}
		if resp := e.dispatch(ctx, env); resp != nil {
			responses = append(responses, resp)
		}
	}

	if len(responses) == 0 {
		return nil
	}
	return mustMarshal(responses)
}

func (e *Engine) dispatch(ctx context.Context, env Envelope) *Response {
	if !env.Valid() {
		if env.IsNotification() {
			logger.Warnw("dropping malformed notification", "method", env.Method)
			return nil
		}
		return errorResponse(env.ID, CodeInvalidRequest, "invalid request envelope", nil)
	}

	handler, ok := e.handlers[env.Method]
	if !ok {
		if env.IsNotification() {
			logger.Warnw("dropping unknown notification", "method", env.Method)
			return nil
		}
		return errorResponse(env.ID, CodeMethodNotFound, "method not found: "+env.Method, nil)
	}

	result, err := handler(ctx, env.Params)
	if err != nil {
		return e.errorResponseFor(env, err)
	}
	if env.IsNotification() {
		return nil
	}
	return &Response{JSONRPC: Version, ID: env.ID, Result: result}
}

func (e *Engine) errorResponseFor(env Envelope, err error) *Response {
	code, message, data := classify(err)

	if env.IsNotification() {
		logger.Warnw("error handling notification", "method", env.Method, "error", err)
		return nil
	}
	return errorResponse(env.ID, code, message, data)
}

// classify maps a handler error to a JSON-RPC code/message/data triple.
// Unrecognized errors become an internal fault carrying a correlation id
// rather than the underlying error text (spec §7: "no stack traces are
// exposed to the client").
func classify(err error) (code int, message string, data any) {
	oe, ok := err.(*opserrors.Error)
	if !ok {
		return internalFault(err)
	}

	switch oe.Type {
	case opserrors.ErrProtocolParse:
		return CodeParseError, oe.Message, nil
	case opserrors.ErrProtocolInvalid:
		return CodeInvalidRequest, oe.Message, nil
	case opserrors.ErrMethodNotFound:
		return CodeMethodNotFound, oe.Message, nil
	case opserrors.ErrInvalidParams:
		return CodeInvalidParams, oe.Message, map[string]string{"path": oe.Message}
	default:
		return internalFault(err)
	}
}

func internalFault(err error) (int, string, any) {
	correlation := uuid.NewString()
	logger.Errorw("internal fault", "correlation_id", correlation, "error", err)
	return CodeInternalError, "internal error", map[string]string{"correlation_id": correlation}
}

func mustMarshal(v any) []byte {
	b, err := json.Marshal(v)
	if err != nil {
		return []byte(`{"jsonrpc":"2.0","id":null,"error":{"code":-32603,"message":"internal error"}}`)
	}
	return b
}
