package typemap

import (
	"github.com/hanpama/domainql/internal/descriptor"
	"github.com/hanpama/domainql/internal/schema"
)

// Session memoizes generated types for the duration of one schema generation
// call. The target schema format forbids two distinct definitions sharing a
// name, so within a session an identical cache key always yields the same
// type instance. A session must not be shared across unrelated generation
// calls; construct a fresh one (or Reset) per call.
type Session struct {
	types  map[string]*schema.Type
	byNode map[nodeKey]*schema.Type
}

// nodeKey identifies one object node per mapping direction. Identity caching
// is what terminates self-referential and mutually recursive nodes: the
// depth-derived name changes at every level, the node pointer does not.
type nodeKey struct {
	node  *descriptor.Node
	input bool
}

// NewSession creates an empty generation session.
func NewSession() *Session {
	return &Session{
		types:  make(map[string]*schema.Type),
		byNode: make(map[nodeKey]*schema.Type),
	}
}

// Reset clears every memoized type, making the session safe to reuse for an
// unrelated generation call.
func (s *Session) Reset() {
	s.types = make(map[string]*schema.Type)
	s.byNode = make(map[nodeKey]*schema.Type)
}

// NamedTypes returns every named type generated in this session, keyed by
// type name, for composition into a larger schema. Pending lazy field
// populators are resolved first; resolving one type may register more, so
// the drain loops until no new types appear.
func (s *Session) NamedTypes() map[string]*schema.Type {
	out := make(map[string]*schema.Type, len(s.types))
	for {
		added := false
		for name, t := range s.types {
			if _, seen := out[name]; seen {
				continue
			}
			out[name] = t.Resolve()
			added = true
		}
		if !added {
			return out
		}
	}
}

// lookup returns the memoized type for key.
func (s *Session) lookup(key string) (*schema.Type, bool) {
	t, ok := s.types[key]
	return t, ok
}

// lookupNode returns the memoized type generated from exactly this node.
func (s *Session) lookupNode(node *descriptor.Node, input bool) (*schema.Type, bool) {
	t, ok := s.byNode[nodeKey{node: node, input: input}]
	return t, ok
}

// registerNode memoizes t as the mapping of node.
func (s *Session) registerNode(node *descriptor.Node, input bool, t *schema.Type) {
	s.byNode[nodeKey{node: node, input: input}] = t
}

// register memoizes t under key. The mapper registers an object type's shell
// before populating its fields, which is what lets mutually referencing
// object nodes both resolve through the cache.
func (s *Session) register(key string, t *schema.Type) *schema.Type {
	s.types[key] = t
	return t
}
