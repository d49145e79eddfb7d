// Package reqctx builds the per-request value bundle resolvers receive. The
// bundle rides the request context; authentication happened upstream, so the
// user here is opaque, pre-authenticated data.
package reqctx

import (
	"context"

	"github.com/google/uuid"

	"github.com/hanpama/domainql/internal/descriptor"
	"github.com/hanpama/domainql/internal/domain"
	"github.com/hanpama/domainql/internal/pubsub"
)

// key is the context key for the bundle.
type key struct{}

// User is the pre-authenticated caller.
type User struct {
	ID     string         `json:"id"`
	Name   string         `json:"name,omitempty"`
	Claims map[string]any `json:"claims,omitempty"`
}

// Bundle is everything one request's resolvers need.
type Bundle struct {
	RequestID  string
	Runtime    domain.Runtime
	Descriptor *descriptor.Descriptor
	Broker     *pubsub.Broker
	User       *User
}

// NewContext returns a copy of parent carrying the bundle. A missing
// request id is filled with a fresh uuid; the final id is returned.
func NewContext(parent context.Context, b Bundle) (context.Context, string) {
	if b.RequestID == "" {
		b.RequestID = uuid.NewString()
	}
	return context.WithValue(parent, key{}, &b), b.RequestID
}

// FromContext extracts the bundle from ctx.
func FromContext(ctx context.Context) (*Bundle, bool) {
	b, ok := ctx.Value(key{}).(*Bundle)
	return b, ok
}

// RequestID returns the request id from ctx, empty when absent.
func RequestID(ctx context.Context) string {
	if b, ok := FromContext(ctx); ok {
		return b.RequestID
	}
	return ""
}
