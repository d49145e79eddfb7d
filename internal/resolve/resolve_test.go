package resolve

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/hanpama/domainql/internal/assemble"
	"github.com/hanpama/domainql/internal/descriptor"
	"github.com/hanpama/domainql/internal/domain"
	"github.com/hanpama/domainql/internal/effects"
	"github.com/hanpama/domainql/internal/fault"
	"github.com/hanpama/domainql/internal/pubsub"
	"github.com/hanpama/domainql/internal/reqctx"
)

func orderDescriptor() *descriptor.Descriptor {
	return &descriptor.Descriptor{
		ID: "order",
		Data: &descriptor.Node{Kind: descriptor.KindObject, Fields: []*descriptor.FieldNode{
			{Name: "total", Node: &descriptor.Node{Kind: descriptor.KindNumber}, Index: 0},
			{Name: "note", Node: &descriptor.Node{
				Kind: descriptor.KindOptional,
				Elem: &descriptor.Node{Kind: descriptor.KindString},
			}, Index: 1},
		}},
		State: &descriptor.Node{Kind: descriptor.KindObject, Fields: []*descriptor.FieldNode{
			{Name: "status", Node: &descriptor.Node{Kind: descriptor.KindEnum, Values: []string{"draft", "confirmed"}}},
		}},
		Derived: map[string]*descriptor.DerivedField{
			"total_with_tax": {Path: "total_with_tax"},
		},
		Async: map[string]*descriptor.AsyncField{
			"history": {Path: "history", Loader: "order_history"},
		},
		Actions: map[string]*descriptor.Action{
			"confirm": {
				ID:   "confirm",
				Verb: "Confirm",
				Preconditions: []descriptor.ConditionRef{
					{Path: "status", Expect: "draft", Description: "order must still be a draft"},
				},
				Effect: descriptor.SequenceEffect(
					descriptor.SetEffect("status", "confirmed"),
					descriptor.CustomEffect("notify", ""),
				),
			},
		},
	}
}

type fixture struct {
	desc    *descriptor.Descriptor
	names   assemble.Names
	runtime *domain.Memory
	broker  *pubsub.Broker
	interp  *effects.Interpreter
	m       Map
	ctx     context.Context
}

func newFixture(t *testing.T, state map[string]any) *fixture {
	t.Helper()
	desc := orderDescriptor()
	built, err := assemble.Build(desc, assemble.Config{EnableSubscriptions: true})
	require.NoError(t, err)
	names := built.Names
	rt := domain.NewMemory(desc, map[string]any{"total": 100.0}, state)
	broker := pubsub.NewBroker(zerolog.Nop())
	interp := effects.New(zerolog.Nop())
	f := NewFactory(desc, names, interp, zerolog.Nop())
	ctx, _ := reqctx.NewContext(context.Background(), reqctx.Bundle{
		Runtime: rt, Descriptor: desc, Broker: broker,
	})
	return &fixture{
		desc: desc, names: names, runtime: rt, broker: broker,
		interp: interp, m: f.Build(), ctx: ctx,
	}
}

func TestBuildCoversEverySurface(t *testing.T) {
	fx := newFixture(t, nil)
	require.Contains(t, fx.m.Query, fx.names.DomainQuery)
	require.Contains(t, fx.m.Query, fx.names.FieldQuery)
	require.Contains(t, fx.m.Query, fx.names.PoliciesQuery)
	require.Contains(t, fx.m.Query, fx.names.ActionsQuery)
	require.Contains(t, fx.m.Mutation, fx.names.SetFieldMutation)
	require.Contains(t, fx.m.Mutation, fx.names.ActionMutations["confirm"])
	require.Contains(t, fx.m.Subscription, fx.names.ChangedSubscription)
	require.Contains(t, fx.m.Subscription, fx.names.FieldChangedSubscription)
	require.Contains(t, fx.m.Fields[fx.names.DomainType], "totalWithTax")
	require.Contains(t, fx.m.Fields[fx.names.DomainType], "history")
}

func TestResolveDomainMergesSnapshot(t *testing.T) {
	fx := newFixture(t, map[string]any{"status": "draft"})
	v, err := fx.m.Query[fx.names.DomainQuery](fx.ctx, nil, nil)
	require.NoError(t, err)
	out := v.(map[string]any)
	require.Equal(t, 100.0, out["total"])
	require.Equal(t, "draft", out["status"])
	// The derived path has no live value, so the field degrades to absent.
	require.NotContains(t, out, "totalWithTax")
}

func TestResolveDomainWithoutRuntime(t *testing.T) {
	fx := newFixture(t, nil)
	_, err := fx.m.Query[fx.names.DomainQuery](context.Background(), nil, nil)
	require.Error(t, err)
	var fe *fault.Error
	require.ErrorAs(t, err, &fe)
	require.Equal(t, fault.CodeInternal, fe.Code)
}

func TestResolveFieldEnvelope(t *testing.T) {
	fx := newFixture(t, map[string]any{"status": "draft"})
	v, err := fx.m.Query[fx.names.FieldQuery](fx.ctx, nil, map[string]any{"path": "status"})
	require.NoError(t, err)
	env := v.(map[string]any)
	require.Equal(t, "status", env["path"])
	require.Equal(t, "draft", env["value"])
	validation := env["validation"].(map[string]any)
	require.Equal(t, true, validation["valid"])
	policy := env["policy"].(map[string]any)
	require.Equal(t, true, policy["editable"])
	require.Equal(t, true, policy["required"])
}

func TestResolveFieldUndeclaredPathIsNull(t *testing.T) {
	fx := newFixture(t, nil)
	v, err := fx.m.Query[fx.names.FieldQuery](fx.ctx, nil, map[string]any{"path": "nonsense"})
	require.NoError(t, err)
	require.Nil(t, v)
}

func TestResolvePoliciesSortedByPath(t *testing.T) {
	fx := newFixture(t, nil)
	v, err := fx.m.Query[fx.names.PoliciesQuery](fx.ctx, nil, nil)
	require.NoError(t, err)
	list := v.([]any)
	var paths []string
	for _, p := range list {
		paths = append(paths, p.(map[string]any)["path"].(string))
	}
	require.Equal(t, []string{"history", "note", "status", "total", "total_with_tax"}, paths)

	for _, p := range list {
		m := p.(map[string]any)
		if m["path"] == "note" {
			require.Equal(t, false, m["required"])
		}
		if m["path"] == "total" {
			require.Equal(t, true, m["required"])
		}
	}
}

func TestResolveActionsReportsAllowance(t *testing.T) {
	fx := newFixture(t, map[string]any{"status": "confirmed"})
	v, err := fx.m.Query[fx.names.ActionsQuery](fx.ctx, nil, nil)
	require.NoError(t, err)
	list := v.([]any)
	require.Len(t, list, 1)
	info := list[0].(map[string]any)
	require.Equal(t, "confirm", info["id"])
	require.Equal(t, false, info["allowed"])
	require.Equal(t, []any{"order must still be a draft"}, info["reasons"])

	fx2 := newFixture(t, map[string]any{"status": "draft"})
	v, err = fx2.m.Query[fx2.names.ActionsQuery](fx2.ctx, nil, nil)
	require.NoError(t, err)
	info = v.([]any)[0].(map[string]any)
	require.Equal(t, true, info["allowed"])
	require.Empty(t, info["reasons"])
}

func TestSetFieldWritesAndPublishes(t *testing.T) {
	fx := newFixture(t, map[string]any{"status": "draft"})

	var changed, fieldChanged []any
	fx.broker.Subscribe(pubsub.ChangedTrigger("order"), func(p any) { changed = append(changed, p) })
	fx.broker.Subscribe(pubsub.FieldTrigger("order", "total"), func(p any) { fieldChanged = append(fieldChanged, p) })

	v, err := fx.m.Mutation[fx.names.SetFieldMutation](fx.ctx, nil, map[string]any{"path": "total", "value": 250.0})
	require.NoError(t, err)
	env := v.(map[string]any)
	require.Equal(t, true, env["success"])
	require.Equal(t, "total", env["path"])
	require.Equal(t, 100.0, env["previousValue"])
	require.Equal(t, 250.0, env["newValue"])
	require.Empty(t, env["errors"])

	got, err := fx.runtime.Get(fx.ctx, "total")
	require.NoError(t, err)
	require.Equal(t, 250.0, got)

	require.Len(t, changed, 1)
	require.Equal(t, "field", changed[0].(map[string]any)["kind"])
	require.Len(t, fieldChanged, 1)
	require.Equal(t, 100.0, fieldChanged[0].(map[string]any)["previousValue"])
	require.Equal(t, 250.0, fieldChanged[0].(map[string]any)["newValue"])
}

func TestSetFieldUndeclaredPath(t *testing.T) {
	fx := newFixture(t, nil)

	var published int
	fx.broker.Subscribe(pubsub.ChangedTrigger("order"), func(any) { published++ })

	v, err := fx.m.Mutation[fx.names.SetFieldMutation](fx.ctx, nil, map[string]any{"path": "nonsense", "value": 1})
	require.NoError(t, err)
	env := v.(map[string]any)
	require.Equal(t, false, env["success"])
	errs := env["errors"].([]any)
	require.Len(t, errs, 1)
	require.Equal(t, string(fault.CodeFieldNotFound), errs[0].(map[string]any)["code"])
	require.Zero(t, published)
}

func TestActionPreconditionFailureSkipsEffects(t *testing.T) {
	fx := newFixture(t, map[string]any{"status": "confirmed"})

	notified := 0
	fx.interp.Register("notify", func(ctx context.Context, rt domain.Runtime, input map[string]any) (any, error) {
		notified++
		return nil, nil
	})
	var published int
	fx.broker.Subscribe(pubsub.ChangedTrigger("order"), func(any) { published++ })

	v, err := fx.m.Mutation[fx.names.ActionMutations["confirm"]](fx.ctx, nil, nil)
	require.NoError(t, err)
	env := v.(map[string]any)
	require.Equal(t, false, env["success"])
	errs := env["errors"].([]any)
	require.Len(t, errs, 1)
	fe := errs[0].(map[string]any)
	require.Equal(t, string(fault.CodePrecondition), fe["code"])
	require.Equal(t, "order must still be a draft", fe["message"])
	require.Equal(t, "status", fe["path"])

	require.Zero(t, notified)
	require.Zero(t, published)
	status, err := fx.runtime.Get(fx.ctx, "status")
	require.NoError(t, err)
	require.Equal(t, "confirmed", status)
}

func TestActionSuccessAppliesEffectsAndPublishes(t *testing.T) {
	fx := newFixture(t, map[string]any{"status": "draft"})

	notified := 0
	fx.interp.Register("notify", func(ctx context.Context, rt domain.Runtime, input map[string]any) (any, error) {
		notified++
		return nil, nil
	})
	var changed, actionTrigger int
	fx.broker.Subscribe(pubsub.ChangedTrigger("order"), func(p any) {
		changed++
		require.Equal(t, "action", p.(map[string]any)["kind"])
	})
	fx.broker.Subscribe(pubsub.ActionTrigger("order", "confirm"), func(any) { actionTrigger++ })

	v, err := fx.m.Mutation[fx.names.ActionMutations["confirm"]](fx.ctx, nil, nil)
	require.NoError(t, err)
	env := v.(map[string]any)
	require.Equal(t, true, env["success"])
	require.Empty(t, env["errors"])
	require.NotEmpty(t, env["effects"])

	require.Equal(t, 1, notified)
	require.Equal(t, 1, changed)
	require.Equal(t, 1, actionTrigger)
	status, err := fx.runtime.Get(fx.ctx, "status")
	require.NoError(t, err)
	require.Equal(t, "confirmed", status)
}

func TestSubscribeChangedReceivesPublishes(t *testing.T) {
	fx := newFixture(t, map[string]any{"status": "draft"})
	it, err := fx.m.Subscription[fx.names.ChangedSubscription](fx.ctx, nil)
	require.NoError(t, err)
	defer it.Stop()

	_, err = fx.m.Mutation[fx.names.SetFieldMutation](fx.ctx, nil, map[string]any{"path": "total", "value": 1.0})
	require.NoError(t, err)

	payload, live, err := it.Next(fx.ctx)
	require.NoError(t, err)
	require.True(t, live)
	require.Equal(t, "field", payload.(map[string]any)["kind"])
}

func TestSubscribeFieldChangedFiltersByPath(t *testing.T) {
	fx := newFixture(t, map[string]any{"status": "draft"})
	it, err := fx.m.Subscription[fx.names.FieldChangedSubscription](fx.ctx, map[string]any{"path": "status"})
	require.NoError(t, err)
	defer it.Stop()

	_, err = fx.m.Mutation[fx.names.SetFieldMutation](fx.ctx, nil, map[string]any{"path": "total", "value": 1.0})
	require.NoError(t, err)
	_, err = fx.m.Mutation[fx.names.SetFieldMutation](fx.ctx, nil, map[string]any{"path": "status", "value": "confirmed"})
	require.NoError(t, err)

	payload, live, err := it.Next(fx.ctx)
	require.NoError(t, err)
	require.True(t, live)
	require.Equal(t, "status", payload.(map[string]any)["path"])
}

func TestDerivedResolverPrefersParentValue(t *testing.T) {
	fx := newFixture(t, nil)
	fn := fx.m.Fields[fx.names.DomainType]["totalWithTax"]

	v, err := fn(fx.ctx, map[string]any{"totalWithTax": 121.0}, nil)
	require.NoError(t, err)
	require.Equal(t, 121.0, v)

	// No cached value and no live value degrades to null.
	v, err = fn(fx.ctx, map[string]any{}, nil)
	require.NoError(t, err)
	require.Nil(t, v)
}

func TestAsyncResolverUsesLoader(t *testing.T) {
	fx := newFixture(t, nil)
	fx.runtime.RegisterLoader("history", func(ctx context.Context) (any, error) {
		return []any{"created"}, nil
	})
	fn := fx.m.Fields[fx.names.DomainType]["history"]

	v, err := fn(fx.ctx, map[string]any{}, nil)
	require.NoError(t, err)
	require.Equal(t, []any{"created"}, v)

	// A cached parent value short-circuits the loader.
	v, err = fn(fx.ctx, map[string]any{"history": []any{"cached"}}, nil)
	require.NoError(t, err)
	require.Equal(t, []any{"cached"}, v)
}
