package descriptor

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func validOrder() *Descriptor {
	return &Descriptor{
		ID: "order",
		Data: &Node{Kind: KindObject, Fields: []*FieldNode{
			{Name: "total", Node: &Node{Kind: KindNumber}},
		}},
		State: &Node{Kind: KindObject, Fields: []*FieldNode{
			{Name: "status", Node: &Node{Kind: KindEnum, Values: []string{"draft", "confirmed"}}},
		}},
		Actions: map[string]*Action{
			"confirm": {
				Effect: SequenceEffect(
					SetEffect("status", "confirmed"),
					ConditionalEffect(ConditionRef{Path: "total"}, CustomEffect("notify", ""), nil),
				),
			},
		},
	}
}

func TestValidateAccepts(t *testing.T) {
	require.NoError(t, validOrder().Validate())
}

func TestValidateBackfillsActionIDs(t *testing.T) {
	d := validOrder()
	require.NoError(t, d.Validate())
	require.Equal(t, "confirm", d.Actions["confirm"].ID)
}

func TestValidateRejects(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Descriptor)
		want   string
	}{
		{"missing id", func(d *Descriptor) { d.ID = "" }, "id is required"},
		{"missing data", func(d *Descriptor) { d.Data = nil }, "data schema is required"},
		{"empty enum", func(d *Descriptor) {
			d.State.Fields[0].Node.Values = nil
		}, "enum requires at least one value"},
		{"empty native enum", func(d *Descriptor) {
			d.Data.Fields[0].Node = &Node{Kind: KindNativeEnum}
		}, "native enum requires at least one pair"},
		{"array without elem", func(d *Descriptor) {
			d.Data.Fields[0].Node = &Node{Kind: KindArray}
		}, "requires an element node"},
		{"wrapper without inner", func(d *Descriptor) {
			d.Data.Fields[0].Node = &Node{Kind: KindOptional}
		}, "wrapper requires an inner node"},
		{"unnamed object field", func(d *Descriptor) {
			d.Data.Fields = append(d.Data.Fields, &FieldNode{Node: &Node{Kind: KindString}})
		}, "object field requires a name"},
		{"duplicate object field", func(d *Descriptor) {
			d.Data.Fields = append(d.Data.Fields, &FieldNode{Name: "total", Node: &Node{Kind: KindString}})
		}, "duplicate field"},
		{"empty union", func(d *Descriptor) {
			d.Data.Fields[0].Node = &Node{Kind: KindUnion}
		}, "union requires at least one option"},
		{"unknown node kind", func(d *Descriptor) {
			d.Data.Fields[0].Node = &Node{Kind: NodeKind("QUATERNION")}
		}, "unknown node kind"},
		{"set without path", func(d *Descriptor) {
			d.Actions["confirm"].Effect = &Effect{Kind: EffectSet}
		}, "set effect requires a path"},
		{"conditional without condition", func(d *Descriptor) {
			d.Actions["confirm"].Effect = &Effect{Kind: EffectConditional, Then: SetEffect("a", 1)}
		}, "requires a condition"},
		{"conditional without then", func(d *Descriptor) {
			d.Actions["confirm"].Effect = &Effect{Kind: EffectConditional, Condition: &ConditionRef{Path: "total"}}
		}, "requires a then branch"},
		{"custom without handler", func(d *Descriptor) {
			d.Actions["confirm"].Effect = &Effect{Kind: EffectCustom}
		}, "requires a handler name"},
		{"invalid action input", func(d *Descriptor) {
			d.Actions["confirm"].Input = &Node{Kind: KindEnum}
		}, "enum requires at least one value"},
		{"invalid derived node", func(d *Descriptor) {
			d.Derived = map[string]*DerivedField{"x": {Path: "x", Node: &Node{Kind: KindArray}}}
		}, "requires an element node"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			d := validOrder()
			tc.mutate(d)
			err := d.Validate()
			require.Error(t, err)
			require.Contains(t, err.Error(), tc.want)
		})
	}
}
