package tools

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/google/uuid"

	"github.com/opscorehq/opscore/pkg/audit"
	opserrors "github.com/opscorehq/opscore/pkg/errors"
	"github.com/opscorehq/opscore/pkg/logger"
)

// Dispatcher executes the tools/call flow of spec §4.5: resolve, scope
// check, schema validation, policy pre-check, lease acquisition, bounded
// invocation, redaction, result shaping, and audit.
type Dispatcher struct {
	registry *Registry
	leases   *LeasePool
}

// NewDispatcher builds a dispatcher over a registry and a shared lease pool.
func NewDispatcher(registry *Registry, leases *LeasePool) *Dispatcher {
	return &Dispatcher{registry: registry, leases: leases}
}

// Call runs one tools/call invocation. scope is the session's current scope
// filter snapshot; rc is the runtime context for the session's active
// profile; requestID correlates the audit record with the JSON-RPC request.
//
// The returned error is non-nil only for conditions the protocol engine
// must surface as a JSON-RPC error (unknown tool name, -32601; arguments
// that fail schema validation, -32602); every other
// outcome — including policy refusals and adapter failures — is returned as
// a *Result with IsError set, per spec §4.5 step 2's "not a protocol error"
// rule.
func (d *Dispatcher) Call(
	ctx context.Context,
	name string,
	rawArgs map[string]any,
	scope map[string]struct{},
	rc *RuntimeContext,
	requestID string,
) (*Result, error) {
	start := time.Now().UTC()

	desc, ok := d.registry.Get(name)
	if !ok {
		return nil, opserrors.NewMethodNotFoundError("unknown tool: "+name, nil)
	}

	if _, inScope := scope[name]; !inScope {
		result := ErrorResult(
			fmt.Sprintf("scope refusal: tool %q is not available under the active profile scope", name),
			"PolicyError", nil)
		d.audit(rc, desc, requestID, rawArgs, audit.StatusDenied, start, result)
		return result, nil
	}

	if err := ValidateArguments(desc.InputSchema, rawArgs); err != nil {
		return nil, err
	}
	if rawArgs == nil {
		rawArgs = map[string]any{}
	}

	if policyErr := d.precheck(desc, rawArgs, rc); policyErr != nil {
		result := ErrorResult(policyErr.Error(), "PolicyError", nil)
		d.audit(rc, desc, requestID, rawArgs, audit.StatusDenied, start, result)
		return result, nil
	}

	timeout := effectiveTimeout(desc, rawArgs)

	var release func()
	if desc.PassthroughCmd != "" || desc.IsMutation() || strings.HasPrefix(name, "k8s_") || strings.HasPrefix(name, "docker_") {
		leaseKey := leaseKeyFor(name, rawArgs, rc)
		var err error
		release, err = d.leases.Acquire(ctx, leaseKey, 5*time.Second)
		if err != nil {
			result := d.resultFromHandlerError(err)
			d.audit(rc, desc, requestID, rawArgs, audit.StatusError, start, result)
			return result, nil
		}
		defer release()
	}

	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	call := &Call{Name: name, Arguments: rawArgs, Deadline: timeout}
	result, handlerErr := d.invokeWithRetry(callCtx, desc, call, rc)
	if handlerErr != nil {
		result = d.resultFromHandlerError(handlerErr)
	}
	if result == nil {
		result = ErrorResult("handler returned no result", "InternalError", nil)
	}

	result = d.applyRedaction(result, rc)

	status := audit.StatusSuccess
	if result.IsError {
		status = audit.StatusError
	}
	d.audit(rc, desc, requestID, rawArgs, status, start, result)

	return result, nil
}

// invokeWithRetry runs the handler once, and retries it exactly once more if
// the failure is a Transient adapter error, per spec §7's propagation
// policy. The retry is bounded by ctx's own deadline (already scoped to the
// call's effective timeout), never extends it. Any other error type -
// including Timeout and Cancelled, which spec §7 says must never retry -
// short-circuits via backoff.Permanent.
func (d *Dispatcher) invokeWithRetry(ctx context.Context, desc Descriptor, call *Call, rc *RuntimeContext) (*Result, error) {
	op := func() (*Result, error) {
		result, err := d.invoke(ctx, desc, call, rc)
		if err == nil {
			return result, nil
		}
		if opserrors.IsTransient(err) {
			return nil, err
		}
		return nil, backoff.Permanent(err)
	}

	result, err := backoff.Retry(ctx, op, backoff.WithMaxTries(2), backoff.WithBackOff(backoff.NewExponentialBackOff()))
	if err != nil {
		var permanent *backoff.PermanentError
		if errors.As(err, &permanent) {
			return nil, permanent.Unwrap()
		}
		return nil, err
	}
	return result, nil
}

func (d *Dispatcher) invoke(ctx context.Context, desc Descriptor, call *Call, rc *RuntimeContext) (result *Result, err error) {
	defer func() {
		if p := recover(); p != nil {
			correlation := uuid.NewString()
			logger.Errorw("tool handler panicked", "tool", desc.Name, "correlation_id", correlation, "panic", p)
			result = ErrorResult(
				fmt.Sprintf("internal error while executing %s (ref: %s)", desc.Name, correlation),
				"InternalError", map[string]any{"correlation_id": correlation})
			err = nil
		}
	}()
	return desc.Handler(ctx, call, rc)
}

func (d *Dispatcher) precheck(desc Descriptor, args map[string]any, rc *RuntimeContext) error {
	if desc.PassthroughCmd != "" {
		if err := rc.Policy.CheckPassthrough(desc.PassthroughCmd, []string{desc.Verb}); err != nil {
			return err
		}
	}
	if desc.ScanCommandArg != "" {
		if cmd, ok := args[desc.ScanCommandArg].(string); ok && cmd != "" {
			if err := rc.Policy.CheckCommandFlags(strings.Fields(cmd)); err != nil {
				return err
			}
		}
	}
	return nil
}

func effectiveTimeout(desc Descriptor, args map[string]any) time.Duration {
	def := DefaultCommandTimeout
	switch {
	case desc.IsMutation():
		def = DefaultMutationTimeout
	case strings.Contains(desc.Name, "logs") || strings.Contains(desc.Name, "query_logs"):
		def = DefaultLogTailTimeout
	}

	raw, ok := args["timeout"]
	if !ok {
		return def
	}
	n, ok := toInt(raw)
	if !ok {
		return def
	}
	clamped := ClampTimeoutSeconds(n, int(def/time.Second))
	return time.Duration(clamped) * time.Second
}

func toInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	default:
		return 0, false
	}
}

func leaseKeyFor(name string, args map[string]any, rc *RuntimeContext) string {
	switch {
	case strings.HasPrefix(name, "docker_"):
		return "docker:" + rc.Profile.DefaultDockerEndpoint
	case strings.HasPrefix(name, "k8s_"):
		return "k8s:" + rc.Profile.DefaultKubeContext
	default:
		if server, ok := args["server"].(string); ok && server != "" {
			return "ssh:" + server
		}
		return "ssh:" + rc.Profile.DefaultHost
	}
}

func (d *Dispatcher) resultFromHandlerError(err error) *Result {
	oe, ok := err.(*opserrors.Error)
	if !ok {
		correlation := uuid.NewString()
		logger.Errorw("unrecognized tool fault", "correlation_id", correlation, "error", err)
		return ErrorResult(
			fmt.Sprintf("internal error (ref: %s)", correlation),
			"InternalError", map[string]any{"correlation_id": correlation})
	}

	switch oe.Type {
	case opserrors.ErrAdapter:
		return ErrorResult(
			fmt.Sprintf("%s: %s", oe.SubKind, oe.Message),
			string(oe.SubKind), map[string]any{"message": oe.Message})
	case opserrors.ErrValidation:
		return ErrorResult("validation error: "+oe.Message, "ValidationError", nil)
	case opserrors.ErrPolicy:
		return ErrorResult("policy refusal: "+oe.Message, "PolicyError", nil)
	default:
		correlation := uuid.NewString()
		logger.Errorw("internal tool fault", "correlation_id", correlation, "error", err)
		return ErrorResult(
			fmt.Sprintf("internal error (ref: %s)", correlation),
			"InternalError", map[string]any{"correlation_id": correlation})
	}
}

func (d *Dispatcher) applyRedaction(result *Result, rc *RuntimeContext) *Result {
	if rc.Redactor == nil {
		return result
	}
	for i, block := range result.Content {
		if block.Type == "text" {
			result.Content[i].Text = rc.Redactor.RedactText(block.Text)
		}
		if block.Structured != nil {
			result.Content[i].Structured = rc.Redactor.RedactStructured(block.Structured)
		}
	}
	return result
}

func (d *Dispatcher) audit(rc *RuntimeContext, desc Descriptor, requestID string, args map[string]any, status string, start time.Time, result *Result) {
	if rc == nil || rc.Audit == nil {
		return
	}
	rec := audit.Record{
		Timestamp:       start,
		Profile:         rc.ProfileName,
		Tool:            desc.Name,
		ArgsFingerprint: audit.Fingerprint(args),
		RequestID:       requestID,
		Target:          targetContext(args, rc),
		Status:          status,
		BytesIn:         len(fmt.Sprint(args)),
		BytesOut:        textLen(result),
		DurationMS:      time.Since(start).Milliseconds(),
	}
	if code, ok := exitCodeOf(result); ok {
		rec.ExitCode = &code
	}
	if err := rc.Audit.Write(rec); err != nil {
		logger.Errorw("failed to flush audit record", "tool", desc.Name, "error", err)
	}
}

func targetContext(args map[string]any, rc *RuntimeContext) map[string]string {
	target := map[string]string{}
	if rc != nil {
		if rc.Profile.DefaultHost != "" {
			target["host"] = rc.Profile.DefaultHost
		}
		if rc.Profile.DefaultKubeContext != "" {
			target["cluster"] = rc.Profile.DefaultKubeContext
		}
	}
	if server, ok := args["server"].(string); ok && server != "" {
		target["host"] = server
	}
	if ns, ok := args["namespace"].(string); ok && ns != "" {
		target["namespace"] = ns
	}
	if container, ok := args["container"].(string); ok && container != "" {
		target["container"] = container
	}
	return target
}

func exitCodeOf(result *Result) (int, bool) {
	for _, block := range result.Content {
		m, ok := block.Structured.(map[string]any)
		if !ok {
			continue
		}
		if raw, ok := m["exit_code"]; ok {
			if n, ok := toInt(raw); ok {
				return n, true
			}
		}
	}
	return 0, false
}

func textLen(result *Result) int {
	total := 0
	for _, block := range result.Content {
		total += len(block.Text)
	}
	return total
}
