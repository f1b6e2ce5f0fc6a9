package transport

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/opscorehq/opscore/pkg/logger"
	"github.com/opscorehq/opscore/pkg/rpc"
)

// maxRequestBytes bounds a single POST /rpc body.
const maxRequestBytes = 16 * 1024 * 1024

// keepAliveInterval is how often GET /events writes a comment line to keep
// an idle SSE connection from being reaped by an intermediate proxy.
const keepAliveInterval = 20 * time.Second

// HTTPTransport exposes the engine over `POST /rpc` and a `GET /events`
// SSE stream, the two surfaces of spec §4.1's HTTP mode.
type HTTPTransport struct {
	engine *rpc.Engine
	router chi.Router
}

// NewHTTP builds an HTTP transport around the given engine.
func NewHTTP(engine *rpc.Engine) *HTTPTransport {
	t := &HTTPTransport{engine: engine}
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Post("/rpc", t.handleRPC)
	r.Get("/events", t.handleEvents)
	t.router = r
	return t
}

// ServeHTTP makes HTTPTransport an http.Handler.
func (t *HTTPTransport) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	t.router.ServeHTTP(w, r)
}

func (t *HTTPTransport) handleRPC(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBytes+1))
	if err != nil {
		http.Error(w, "failed to read request body", http.StatusBadRequest)
		return
	}
	if len(body) > maxRequestBytes {
		http.Error(w, "request body too large", http.StatusRequestEntityTooLarge)
		return
	}

	resp := t.engine.HandleMessage(r.Context(), body)
	w.Header().Set("Content-Type", "application/json")
	if resp == nil {
		// A bare notification (or all-notification batch) has no JSON-RPC
		// response, but the HTTP request itself still needs a status.
		w.WriteHeader(http.StatusNoContent)
		return
	}
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(resp); err != nil {
		logger.Errorw("http transport write failed", "error", err)
	}
}

// handleEvents serves the SSE stream. A reconnect carrying Last-Event-ID
// is closed cleanly rather than replayed, since opscore keeps no durable
// event log to replay from (spec §4.1).
func (t *HTTPTransport) handleEvents(w http.ResponseWriter, r *http.Request) {
	if r.Header.Get("Last-Event-ID") != "" {
		w.WriteHeader(http.StatusOK)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	t.streamKeepAlives(r.Context(), w, flusher)
}

func (t *HTTPTransport) streamKeepAlives(ctx context.Context, w http.ResponseWriter, flusher http.Flusher) {
	ticker := time.NewTicker(keepAliveInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := w.Write([]byte(": keep-alive\n\n")); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}
