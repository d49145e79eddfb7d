package resolve

import (
	"context"
	"sync"

	"github.com/hanpama/domainql/internal/fault"
)

// Compose tries candidates in order and returns the first non-nil result.
// A candidate returning nil defers to the next; an error stops the scan.
func Compose(fns ...Func) Func {
	return func(ctx context.Context, parent any, args map[string]any) (any, error) {
		for _, fn := range fns {
			v, err := fn(ctx, parent, args)
			if err != nil {
				return nil, err
			}
			if v != nil {
				return v, nil
			}
		}
		return nil, nil
	}
}

// Merge merges resolver maps left to right; later maps win on conflicts.
// Use it to layer hand-written resolvers over a generated set.
func Merge(maps ...Map) Map {
	out := Map{
		Query:        make(map[string]Func),
		Mutation:     make(map[string]Func),
		Subscription: make(map[string]SubscribeFunc),
		Fields:       make(map[string]map[string]Func),
	}
	for _, m := range maps {
		for k, v := range m.Query {
			out.Query[k] = v
		}
		for k, v := range m.Mutation {
			out.Mutation[k] = v
		}
		for k, v := range m.Subscription {
			out.Subscription[k] = v
		}
		for typeName, fields := range m.Fields {
			dst := out.Fields[typeName]
			if dst == nil {
				dst = make(map[string]Func)
				out.Fields[typeName] = dst
			}
			for k, v := range fields {
				dst[k] = v
			}
		}
	}
	return out
}

// Chain runs resolvers in order, feeding each result to the next as its
// parent. The first error stops the chain.
func Chain(fns ...Func) Func {
	return func(ctx context.Context, parent any, args map[string]any) (any, error) {
		current := parent
		for _, fn := range fns {
			v, err := fn(ctx, current, args)
			if err != nil {
				return nil, err
			}
			current = v
		}
		return current, nil
	}
}

// WithRecover converts a panicking resolver into a typed internal error.
// The factory applies it to every resolver it builds.
func WithRecover(fn Func) Func {
	return func(ctx context.Context, parent any, args map[string]any) (v any, err error) {
		defer func() {
			if rec := recover(); rec != nil {
				v = nil
				err = fault.New(fault.CodeInternal, "", "resolver panicked: %v", rec)
			}
		}()
		return fn(ctx, parent, args)
	}
}

// WithDefault catches a resolver failure, panic included, and returns def
// in its place.
func WithDefault(fn Func, def any) Func {
	return func(ctx context.Context, parent any, args map[string]any) (v any, err error) {
		defer func() {
			if rec := recover(); rec != nil {
				v, err = def, nil
			}
		}()
		v, err = fn(ctx, parent, args)
		if err != nil {
			return def, nil
		}
		return v, nil
	}
}

// Memoize caches fn's result per key for the life of the returned resolver.
// key derives the cache key from the call; an empty key bypasses the cache.
func Memoize(fn Func, key func(ctx context.Context, parent any, args map[string]any) string) Func {
	var cache sync.Map
	return func(ctx context.Context, parent any, args map[string]any) (any, error) {
		k := key(ctx, parent, args)
		if k == "" {
			return fn(ctx, parent, args)
		}
		if v, ok := cache.Load(k); ok {
			return v, nil
		}
		v, err := fn(ctx, parent, args)
		if err != nil {
			return nil, err
		}
		cache.Store(k, v)
		return v, nil
	}
}
