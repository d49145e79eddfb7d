package typemap

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hanpama/domainql/internal/descriptor"
	"github.com/hanpama/domainql/internal/schema"
)

func strNode() *descriptor.Node   { return &descriptor.Node{Kind: descriptor.KindString} }
func intNode() *descriptor.Node   { return &descriptor.Node{Kind: descriptor.KindNumber, Integer: true} }
func floatNode() *descriptor.Node { return &descriptor.Node{Kind: descriptor.KindNumber} }

func optional(n *descriptor.Node) *descriptor.Node {
	return &descriptor.Node{Kind: descriptor.KindOptional, Elem: n}
}

func withDefault(n *descriptor.Node, def any) *descriptor.Node {
	return &descriptor.Node{Kind: descriptor.KindDefault, Elem: n, Default: def}
}

func TestMapOutputPrimitives(t *testing.T) {
	s := NewSession()
	cases := []struct {
		node *descriptor.Node
		want string
	}{
		{strNode(), schema.ScalarString},
		{intNode(), schema.ScalarInt},
		{floatNode(), schema.ScalarFloat},
		{&descriptor.Node{Kind: descriptor.KindBoolean}, schema.ScalarBoolean},
		{&descriptor.Node{Kind: descriptor.KindDate}, schema.ScalarDateTime},
		{&descriptor.Node{Kind: descriptor.KindRecord, Elem: strNode()}, schema.ScalarJSON},
		{&descriptor.Node{Kind: descriptor.KindAny}, schema.ScalarJSON},
	}
	for _, c := range cases {
		ref := s.MapOutput(c.node, "T")
		require.True(t, schema.IsNonNull(ref), "%s should be non-null by default", c.want)
		require.Equal(t, c.want, schema.GetNamedType(ref))
	}
}

func TestWrappersAffectOnlyNullability(t *testing.T) {
	s := NewSession()

	plain := s.MapOutput(strNode(), "T")
	opt := s.MapOutput(optional(strNode()), "T")
	def := s.MapOutput(withDefault(strNode(), "x"), "T")
	nullable := s.MapOutput(&descriptor.Node{Kind: descriptor.KindNullable, Elem: strNode()}, "T")

	require.True(t, schema.IsNonNull(plain))
	require.True(t, schema.IsNonNull(def), "Default keeps the inner non-null contract")
	require.False(t, schema.IsNonNull(opt))
	require.False(t, schema.IsNonNull(nullable))

	for _, ref := range []*schema.TypeRef{plain, opt, def, nullable} {
		require.Equal(t, schema.ScalarString, schema.GetNamedType(ref))
	}
}

func TestDefaultWrappingOptionalStaysNullable(t *testing.T) {
	s := NewSession()
	ref := s.MapOutput(withDefault(optional(strNode()), "x"), "T")
	require.False(t, schema.IsNonNull(ref))
}

func TestSessionCacheIdentity(t *testing.T) {
	s := NewSession()
	obj := &descriptor.Node{Kind: descriptor.KindObject, Fields: []*descriptor.FieldNode{
		{Name: "city", Node: strNode(), Index: 0},
	}}

	a := s.MapOutput(obj, "Address")
	b := s.MapOutput(obj, "Address")
	require.Equal(t, schema.GetNamedType(a), schema.GetNamedType(b))

	types := s.NamedTypes()
	require.Len(t, types, 1)
	require.Contains(t, types, "Address")

	// A fresh session regenerates an equivalent but distinct instance.
	s2 := NewSession()
	s2.MapOutput(obj, "Address")
	other := s2.NamedTypes()["Address"]
	require.NotSame(t, types["Address"], other)
	require.Equal(t, types["Address"].Name, other.Name)
}

func TestInputAndOutputObjectsAreDistinct(t *testing.T) {
	s := NewSession()
	obj := &descriptor.Node{Kind: descriptor.KindObject, Fields: []*descriptor.FieldNode{
		{Name: "qty", Node: intNode(), Index: 0},
	}}

	out := s.MapOutput(obj, "Line")
	in := s.MapInput(obj, "Line")
	require.Equal(t, "Line", schema.GetNamedType(out))
	require.Equal(t, "LineInput", schema.GetNamedType(in))

	types := s.NamedTypes()
	require.Equal(t, schema.TypeKindObject, types["Line"].Kind)
	require.Equal(t, schema.TypeKindInputObject, types["LineInput"].Kind)
	require.Len(t, types["Line"].Fields, 1)
	require.Len(t, types["LineInput"].InputFields, 1)
}

func TestMutuallyRecursiveObjects(t *testing.T) {
	s := NewSession()
	a := &descriptor.Node{Kind: descriptor.KindObject}
	b := &descriptor.Node{Kind: descriptor.KindObject}
	a.Fields = []*descriptor.FieldNode{{Name: "b", Node: optional(b), Index: 0}}
	b.Fields = []*descriptor.FieldNode{{Name: "a", Node: optional(a), Index: 0}}

	ref := s.MapOutput(a, "A")
	require.Equal(t, "A", schema.GetNamedType(ref))

	types := s.NamedTypes()
	// a and b each map exactly once; b's back-reference hits the identity
	// cache instead of generating a new type per nesting level.
	require.Len(t, types, 2)
	bField := types["A"].GetField("b")
	require.NotNil(t, bField)
	require.Equal(t, "AB", schema.GetNamedType(bField.Type))
	aField := types["AB"].GetField("a")
	require.NotNil(t, aField)
	require.Equal(t, "A", schema.GetNamedType(aField.Type))
}

func TestSelfReferentialObject(t *testing.T) {
	selfRef := &descriptor.Node{Kind: descriptor.KindObject}
	selfRef.Fields = []*descriptor.FieldNode{{Name: "self", Node: optional(selfRef), Index: 0}}

	s := NewSession()
	s.MapOutput(selfRef, "Tree")
	types := s.NamedTypes()
	require.Len(t, types, 1)

	self := types["Tree"].GetField("self")
	require.NotNil(t, self)
	require.False(t, schema.IsNonNull(self.Type))
	require.Equal(t, "Tree", schema.GetNamedType(self.Type))
}

func TestEnumMapping(t *testing.T) {
	s := NewSession()
	enum := &descriptor.Node{Kind: descriptor.KindEnum, Values: []string{"pending", "in-transit", "in_transit", "done"}}
	ref := s.MapOutput(enum, "Status")
	require.Equal(t, "Status", schema.GetNamedType(ref))

	typ := s.NamedTypes()["Status"]
	require.Equal(t, schema.TypeKindEnum, typ.Kind)
	// "in-transit" and "in_transit" sanitize to the same id; the duplicate
	// is dropped.
	var ids []string
	for _, v := range typ.EnumValues {
		ids = append(ids, v.Name)
	}
	require.Equal(t, []string{"PENDING", "IN_TRANSIT", "DONE"}, ids)
}

func TestUnionReduction(t *testing.T) {
	s := NewSession()

	shared := &descriptor.Node{Kind: descriptor.KindUnion, Options: []*descriptor.Node{
		{Kind: descriptor.KindLiteral, Value: "a"},
		strNode(),
	}}
	ref := s.MapOutput(shared, "U")
	require.Equal(t, schema.ScalarString, schema.GetNamedType(ref))

	mixed := &descriptor.Node{Kind: descriptor.KindUnion, Options: []*descriptor.Node{
		strNode(),
		intNode(),
	}}
	ref = s.MapOutput(mixed, "U2")
	require.Equal(t, schema.ScalarJSON, schema.GetNamedType(ref))
}

func TestArrayMapping(t *testing.T) {
	s := NewSession()
	arr := &descriptor.Node{Kind: descriptor.KindArray, Elem: strNode()}
	ref := s.MapOutput(arr, "Tags")
	require.True(t, schema.IsNonNull(ref))
	require.True(t, schema.IsList(ref))
	inner := schema.Unwrap(schema.Unwrap(ref))
	require.True(t, schema.IsNonNull(inner))
	require.Equal(t, schema.ScalarString, schema.GetNamedType(inner))
}
