// Package server serves a generated schema over HTTP: GraphQL queries and
// mutations on POST/GET, subscriptions as Server-Sent Events.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/hanpama/domainql/internal/eventbus"
	"github.com/hanpama/domainql/internal/events"
	"github.com/hanpama/domainql/internal/executor"
	"github.com/hanpama/domainql/internal/language"
	"github.com/hanpama/domainql/internal/reqctx"
)

// BundleFunc builds the per-request bundle. The server fills the request id.
type BundleFunc func(r *http.Request) reqctx.Bundle

// Handler is an http.Handler serving one GraphQL endpoint.
type Handler struct {
	exec   *executor.Executor
	bundle BundleFunc
	opt    Options
}

type Options struct {
	// Timeout sets a default timeout if the incoming request context has
	// none. It does not apply to subscription streams. 0 disables it.
	Timeout time.Duration

	// Pretty enables indented JSON responses.
	Pretty bool

	// MaxBodyBytes limits the size of the request body. 0 means unlimited.
	MaxBodyBytes int64

	// CORS configuration. Empty AllowedOrigins disables CORS.
	CORS CORSOptions

	// GraphiQL enables the in-browser IDE when true.
	GraphiQL bool

	// KeepAlive is the SSE comment-ping interval for idle subscription
	// streams.
	KeepAlive time.Duration
}

type Option func(*Options)

func WithTimeout(d time.Duration) Option   { return func(o *Options) { o.Timeout = d } }
func WithPretty() Option                   { return func(o *Options) { o.Pretty = true } }
func WithMaxBodyBytes(n int64) Option      { return func(o *Options) { o.MaxBodyBytes = n } }
func WithGraphiQL(enable bool) Option      { return func(o *Options) { o.GraphiQL = enable } }
func WithKeepAlive(d time.Duration) Option { return func(o *Options) { o.KeepAlive = d } }
func WithCORS(origins ...string) Option {
	return func(o *Options) { o.CORS.AllowedOrigins = origins }
}

// CORSOptions holds simple CORS settings.
type CORSOptions struct {
	AllowedOrigins []string
}

// New creates the GraphQL HTTP handler.
func New(exec *executor.Executor, bundle BundleFunc, opts ...Option) (*Handler, error) {
	if exec == nil {
		return nil, fmt.Errorf("server: executor is required")
	}
	if bundle == nil {
		return nil, fmt.Errorf("server: bundle func is required")
	}
	op := Options{Timeout: 10 * time.Second, GraphiQL: true, KeepAlive: 15 * time.Second}
	for _, f := range opts {
		f(&op)
	}
	return &Handler{exec: exec, bundle: bundle, opt: op}, nil
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx, rid := reqctx.NewContext(r.Context(), h.bundle(r))

	status := http.StatusOK
	eventbus.Publish(ctx, events.HTTPStart{RequestID: rid, Method: r.Method, Path: r.URL.Path, At: time.Now()})
	defer func() {
		eventbus.Publish(ctx, events.HTTPFinish{RequestID: rid, Status: status, At: time.Now()})
	}()

	if r.Method == http.MethodOptions {
		if len(h.opt.CORS.AllowedOrigins) > 0 {
			setCORSHeaders(w, r, h.opt.CORS)
		}
		status = http.StatusNoContent
		w.WriteHeader(status)
		return
	}

	if r.Method != http.MethodPost && r.Method != http.MethodGet {
		status = http.StatusMethodNotAllowed
		writeJSON(w, status, errorResponse("method not allowed"), h.opt.Pretty)
		return
	}

	if r.Method == http.MethodGet && h.opt.GraphiQL && acceptsHTML(r.Header.Get("Accept")) && r.URL.Query().Get("query") == "" {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write(graphiqlPage)
		return
	}

	req, err := parseRequest(r, h.opt.MaxBodyBytes)
	if err != nil {
		status = http.StatusBadRequest
		if err.Error() == errBodyTooLarge {
			status = http.StatusRequestEntityTooLarge
		}
		writeJSON(w, status, errorResponse(err.Error()), h.opt.Pretty)
		return
	}

	if len(h.opt.CORS.AllowedOrigins) > 0 {
		setCORSHeaders(w, r, h.opt.CORS)
	}

	doc, perr := language.ParseQuery(req.Query)
	if perr != nil {
		writeJSON(w, status, errorResponse(perr.Error()), h.opt.Pretty)
		return
	}

	if isSubscription(doc, req.OperationName) {
		h.serveSubscription(ctx, w, r, rid, doc, req)
		return
	}

	if _, ok := ctx.Deadline(); !ok && h.opt.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.opt.Timeout)
		defer cancel()
	}
	writeJSON(w, status, h.executeOne(ctx, rid, doc, req), h.opt.Pretty)
}

func (h *Handler) executeOne(ctx context.Context, rid string, doc *language.QueryDocument, req Request) wireResult {
	eventbus.Publish(ctx, events.GraphQLStart{
		RequestID: rid, OperationName: req.OperationName, Query: req.Query, At: time.Now(),
	})
	result := h.exec.Execute(ctx, doc, req.OperationName, req.Variables)
	eventbus.Publish(ctx, events.GraphQLFinish{
		RequestID: rid, ErrorCount: len(result.Errors), At: time.Now(),
	})
	return toWireResult(result)
}

// serveSubscription streams projected events as SSE frames until the client
// disconnects or the stream ends.
func (h *Handler) serveSubscription(ctx context.Context, w http.ResponseWriter, r *http.Request, rid string, doc *language.QueryDocument, req Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeJSON(w, http.StatusInternalServerError, errorResponse("streaming not supported"), h.opt.Pretty)
		return
	}

	stream, err := h.exec.Subscribe(ctx, doc, req.OperationName, req.Variables)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse(err.Error()), h.opt.Pretty)
		return
	}
	defer stream.Stop()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	eventbus.Publish(ctx, events.GraphQLStart{
		RequestID: rid, OperationName: req.OperationName, Query: req.Query, At: time.Now(),
	})
	defer eventbus.Publish(ctx, events.GraphQLFinish{RequestID: rid, At: time.Now()})

	for {
		pullCtx := ctx
		var cancel context.CancelFunc
		if h.opt.KeepAlive > 0 {
			pullCtx, cancel = context.WithTimeout(ctx, h.opt.KeepAlive)
		}
		result, live, err := stream.Next(pullCtx)
		if cancel != nil {
			cancel()
		}
		switch {
		case errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil:
			// Idle ping keeps intermediaries from closing the stream.
			if _, werr := io.WriteString(w, ": keep-alive\n\n"); werr != nil {
				return
			}
			flusher.Flush()
			continue
		case err != nil:
			writeSSE(w, flusher, errorResponse(err.Error()))
			return
		case !live:
			_, _ = io.WriteString(w, "event: complete\ndata: {}\n\n")
			flusher.Flush()
			return
		}
		if !writeSSE(w, flusher, toWireResult(result)) {
			return
		}
	}
}

func writeSSE(w http.ResponseWriter, flusher http.Flusher, v any) bool {
	payload, err := json.Marshal(v)
	if err != nil {
		return false
	}
	if _, err := fmt.Fprintf(w, "data: %s\n\n", payload); err != nil {
		return false
	}
	flusher.Flush()
	return true
}

func isSubscription(doc *language.QueryDocument, operationName string) bool {
	op := doc.Operations.ForName(operationName)
	if op == nil && len(doc.Operations) == 1 {
		op = doc.Operations[0]
	}
	return op != nil && op.Operation == language.Subscription
}
