package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/hanpama/domainql/internal/executor"
)

// Request is one GraphQL request envelope.
type Request struct {
	Query         string         `json:"query"`
	OperationName string         `json:"operationName,omitempty"`
	Variables     map[string]any `json:"variables,omitempty"`
	Extensions    map[string]any `json:"extensions,omitempty"`
}

const errBodyTooLarge = "body too large"

func parseRequest(r *http.Request, maxBody int64) (Request, error) {
	if r.Method == http.MethodGet {
		q := r.URL.Query().Get("query")
		if q == "" {
			return Request{}, errors.New("missing 'query'")
		}
		vars := map[string]any{}
		if v := r.URL.Query().Get("variables"); v != "" {
			if err := json.Unmarshal([]byte(v), &vars); err != nil {
				return Request{}, errors.New("invalid 'variables' JSON")
			}
		}
		return Request{
			Query:         q,
			Variables:     vars,
			OperationName: r.URL.Query().Get("operationName"),
		}, nil
	}

	ct := r.Header.Get("Content-Type")
	if ct != "" && ct != "application/json" && !strings.HasPrefix(ct, "application/json;") {
		return Request{}, errors.New("unsupported Content-Type")
	}

	reader := io.Reader(r.Body)
	if maxBody > 0 {
		reader = io.LimitReader(r.Body, maxBody+1)
	}
	body, err := io.ReadAll(reader)
	if err != nil {
		return Request{}, errors.New("failed to read body")
	}
	defer r.Body.Close()
	if maxBody > 0 && int64(len(body)) > maxBody {
		return Request{}, errors.New(errBodyTooLarge)
	}

	var req Request
	if err := json.Unmarshal(body, &req); err != nil {
		return Request{}, errors.New("invalid JSON")
	}
	if req.Query == "" {
		return Request{}, errors.New("missing 'query'")
	}
	if req.Variables == nil {
		req.Variables = map[string]any{}
	}
	return req, nil
}

type wireError struct {
	Message    string         `json:"message"`
	Path       []any          `json:"path,omitempty"`
	Extensions map[string]any `json:"extensions,omitempty"`
}

type wireResult struct {
	Data   any         `json:"data"`
	Errors []wireError `json:"errors,omitempty"`
}

func errorResponse(message string) wireResult {
	return wireResult{Errors: []wireError{{Message: message}}}
}

func toWireResult(res *executor.Result) wireResult {
	out := wireResult{Data: res.Data}
	if len(res.Errors) == 0 {
		return out
	}
	out.Errors = make([]wireError, len(res.Errors))
	for i, e := range res.Errors {
		se := wireError{Message: e.Message, Extensions: e.Extensions}
		if len(e.Path) > 0 {
			se.Path = make([]any, len(e.Path))
			for j, pe := range e.Path {
				se.Path[j] = pe
			}
		}
		out.Errors[i] = se
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, v any, pretty bool) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	if pretty {
		enc.SetIndent("", "  ")
	}
	_ = enc.Encode(v)
}

func setCORSHeaders(w http.ResponseWriter, r *http.Request, opts CORSOptions) {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return
	}
	allowed := false
	wildcard := false
	for _, o := range opts.AllowedOrigins {
		if o == "*" {
			allowed = true
			wildcard = true
			break
		}
		if o == origin {
			allowed = true
		}
	}
	if !allowed {
		return
	}
	if wildcard {
		w.Header().Set("Access-Control-Allow-Origin", "*")
	} else {
		w.Header().Set("Access-Control-Allow-Origin", origin)
		w.Header().Add("Vary", "Origin")
	}
	if r.Method == http.MethodOptions {
		if hdr := r.Header.Get("Access-Control-Request-Headers"); hdr != "" {
			w.Header().Set("Access-Control-Allow-Headers", hdr)
		}
		w.Header().Set("Access-Control-Allow-Methods", "GET,POST,OPTIONS")
	}
}

func acceptsHTML(accept string) bool {
	for _, p := range strings.Split(accept, ",") {
		p = strings.TrimSpace(p)
		if strings.HasPrefix(p, "text/html") || p == "*/*" {
			return true
		}
	}
	return false
}
