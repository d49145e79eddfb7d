package executor

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/hanpama/domainql/internal/language"
	"github.com/hanpama/domainql/internal/pubsub"
	"github.com/hanpama/domainql/internal/resolve"
	"github.com/hanpama/domainql/internal/schema"
)

func testSchema() *schema.Schema {
	character := schema.NewType("Character", schema.TypeKindObject, "").
		AddField(schema.NewField("name", "", schema.NonNullType(schema.NamedType(schema.ScalarString)))).
		AddField(schema.NewField("nickname", "", schema.NamedType(schema.ScalarString))).
		AddField(schema.NewField("friends", "", schema.ListType(schema.NonNullType(schema.NamedType("Character")))))

	event := schema.NewType("Event", schema.TypeKindObject, "").
		AddField(schema.NewField("kind", "", schema.NonNullType(schema.NamedType(schema.ScalarString)))).
		AddField(schema.NewField("path", "", schema.NamedType(schema.ScalarString)))

	query := schema.NewType("Query", schema.TypeKindObject, "").
		AddField(schema.NewField("hero", "", schema.NamedType("Character"))).
		AddField(schema.NewField("secret", "", schema.NonNullType(schema.NamedType(schema.ScalarString)))).
		AddField(schema.NewField("failing", "", schema.NamedType(schema.ScalarString))).
		AddField(schema.NewField("echo", "", schema.NamedType(schema.ScalarString)).
			AddArgument(schema.NewInputValue("message", "", schema.NonNullType(schema.NamedType(schema.ScalarString)))))

	mutation := schema.NewType("Mutation", schema.TypeKindObject, "").
		AddField(schema.NewField("rename", "", schema.NonNullType(schema.NamedType(schema.ScalarString))).
			AddArgument(schema.NewInputValue("name", "", schema.NonNullType(schema.NamedType(schema.ScalarString)))))

	subscription := schema.NewType("Subscription", schema.TypeKindObject, "").
		AddField(schema.NewField("changed", "", schema.NonNullType(schema.NamedType("Event"))))

	return schema.NewSchema("").
		AddType(character).AddType(event).
		AddType(query).AddType(mutation).AddType(subscription).
		SetQueryType("Query").SetMutationType("Mutation").SetSubscriptionType("Subscription")
}

func hero() map[string]any {
	return map[string]any{
		"name":     "R2-D2",
		"nickname": "Artoo",
		"friends": []any{
			map[string]any{"name": "Luke"},
			map[string]any{"name": "Leia"},
		},
	}
}

func testResolvers(broker *pubsub.Broker) resolve.Map {
	return resolve.Map{
		Query: map[string]resolve.Func{
			"hero": func(context.Context, any, map[string]any) (any, error) {
				return hero(), nil
			},
			"secret": func(context.Context, any, map[string]any) (any, error) {
				return nil, nil
			},
			"failing": func(context.Context, any, map[string]any) (any, error) {
				return nil, fmt.Errorf("backend unavailable")
			},
			"echo": func(_ context.Context, _ any, args map[string]any) (any, error) {
				return args["message"], nil
			},
		},
		Mutation: map[string]resolve.Func{
			"rename": func(_ context.Context, _ any, args map[string]any) (any, error) {
				return args["name"], nil
			},
		},
		Subscription: map[string]resolve.SubscribeFunc{
			"changed": func(context.Context, map[string]any) (*pubsub.Iterator, error) {
				return broker.Iterator("changed"), nil
			},
		},
	}
}

func newTestExecutor(t *testing.T) (*Executor, *pubsub.Broker) {
	t.Helper()
	broker := pubsub.NewBroker(zerolog.Nop())
	return New(testSchema(), testResolvers(broker)), broker
}

func execute(t *testing.T, e *Executor, query string, vars map[string]any) *Result {
	t.Helper()
	doc, err := language.ParseQuery(query)
	require.NoError(t, err)
	return e.Execute(context.Background(), doc, "", vars)
}

func resultData(t *testing.T, res *Result) map[string]any {
	t.Helper()
	m, ok := res.Data.(map[string]any)
	require.True(t, ok, "expected map data, got %T", res.Data)
	return m
}

func TestExecuteNestedQuery(t *testing.T) {
	e, _ := newTestExecutor(t)
	res := execute(t, e, `{ hero { name friends { name } } }`, nil)
	require.Empty(t, res.Errors)
	want := map[string]any{
		"hero": map[string]any{
			"name": "R2-D2",
			"friends": []any{
				map[string]any{"name": "Luke"},
				map[string]any{"name": "Leia"},
			},
		},
	}
	if diff := cmp.Diff(want, res.Data); diff != "" {
		t.Fatalf("unexpected data (-want +got):\n%s", diff)
	}
}

func TestExecuteAliases(t *testing.T) {
	e, _ := newTestExecutor(t)
	res := execute(t, e, `{ droid: hero { id: name } }`, nil)
	require.Empty(t, res.Errors)
	require.Equal(t, map[string]any{
		"droid": map[string]any{"id": "R2-D2"},
	}, res.Data)
}

func TestExecuteTypename(t *testing.T) {
	e, _ := newTestExecutor(t)
	res := execute(t, e, `{ __typename hero { __typename } }`, nil)
	require.Empty(t, res.Errors)
	data := resultData(t, res)
	require.Equal(t, "Query", data["__typename"])
	require.Equal(t, "Character", data["hero"].(map[string]any)["__typename"])
}

func TestExecuteSkipAndInclude(t *testing.T) {
	e, _ := newTestExecutor(t)
	res := execute(t, e, `
		query ($yes: Boolean!, $no: Boolean!) {
			hero {
				name @skip(if: $yes)
				nickname @include(if: $yes)
				friends @include(if: $no) { name }
			}
		}`,
		map[string]any{"yes": true, "no": false})
	require.Empty(t, res.Errors)
	require.Equal(t, map[string]any{
		"hero": map[string]any{"nickname": "Artoo"},
	}, res.Data)
}

func TestExecuteFragments(t *testing.T) {
	e, _ := newTestExecutor(t)
	res := execute(t, e, `
		{
			hero {
				...names
				... on Character { nickname }
				... on Droid { name }
			}
		}
		fragment names on Character { name }`, nil)
	require.Empty(t, res.Errors)
	require.Equal(t, map[string]any{
		"hero": map[string]any{"name": "R2-D2", "nickname": "Artoo"},
	}, res.Data)
}

func TestResolverErrorNullsNullableField(t *testing.T) {
	e, _ := newTestExecutor(t)
	res := execute(t, e, `{ failing hero { name } }`, nil)
	require.Len(t, res.Errors, 1)
	require.Equal(t, "backend unavailable", res.Errors[0].Message)
	require.Equal(t, Path{"failing"}, res.Errors[0].Path)
	data := resultData(t, res)
	require.Nil(t, data["failing"])
	require.NotNil(t, data["hero"])
}

func TestNonNullRootFieldErrors(t *testing.T) {
	e, _ := newTestExecutor(t)
	res := execute(t, e, `{ secret }`, nil)
	require.Len(t, res.Errors, 1)
	require.Contains(t, res.Errors[0].Message, "Cannot return null for non-nullable field secret")
	require.Nil(t, resultData(t, res)["secret"])
}

func TestNullPropagationNullsEnclosingObject(t *testing.T) {
	e, _ := newTestExecutor(t)
	e.resolvers.Query["hero"] = func(context.Context, any, map[string]any) (any, error) {
		return map[string]any{"nickname": "nameless"}, nil
	}
	res := execute(t, e, `{ hero { name nickname } }`, nil)
	require.NotEmpty(t, res.Errors)
	require.Nil(t, resultData(t, res)["hero"])
}

func TestArgumentPassing(t *testing.T) {
	e, _ := newTestExecutor(t)
	res := execute(t, e, `{ echo(message: "hi") }`, nil)
	require.Empty(t, res.Errors)
	require.Equal(t, "hi", resultData(t, res)["echo"])
}

func TestArgumentFromVariableWithDefault(t *testing.T) {
	e, _ := newTestExecutor(t)
	res := execute(t, e, `query ($msg: String = "fallback") { echo(message: $msg) }`, nil)
	require.Empty(t, res.Errors)
	require.Equal(t, "fallback", resultData(t, res)["echo"])
}

func TestMissingRequiredVariable(t *testing.T) {
	e, _ := newTestExecutor(t)
	res := execute(t, e, `query ($msg: String!) { echo(message: $msg) }`, nil)
	require.Len(t, res.Errors, 1)
	require.Contains(t, res.Errors[0].Message, "was not provided")
	require.Nil(t, res.Data)
}

func TestMissingRequiredArgument(t *testing.T) {
	e, _ := newTestExecutor(t)
	res := execute(t, e, `{ echo }`, nil)
	require.NotEmpty(t, res.Errors)
	require.Contains(t, res.Errors[0].Message, "argument 'message' of required type was not provided")
}

func TestUnknownFieldErrors(t *testing.T) {
	e, _ := newTestExecutor(t)
	res := execute(t, e, `{ starship }`, nil)
	require.Len(t, res.Errors, 1)
	require.Contains(t, res.Errors[0].Message, "Cannot query field 'starship' on type 'Query'")
}

func TestExecuteMutation(t *testing.T) {
	e, _ := newTestExecutor(t)
	res := execute(t, e, `mutation { rename(name: "C-3PO") }`, nil)
	require.Empty(t, res.Errors)
	require.Equal(t, "C-3PO", resultData(t, res)["rename"])
}

func TestExecuteRejectsSubscriptionOperation(t *testing.T) {
	e, _ := newTestExecutor(t)
	res := execute(t, e, `subscription { changed { kind } }`, nil)
	require.Len(t, res.Errors, 1)
	require.Contains(t, res.Errors[0].Message, "must be started with Subscribe")
}

func TestOperationSelectionByName(t *testing.T) {
	e, _ := newTestExecutor(t)
	doc, err := language.ParseQuery(`
		query A { echo(message: "a") }
		query B { echo(message: "b") }`)
	require.NoError(t, err)
	res := e.Execute(context.Background(), doc, "B", nil)
	require.Empty(t, res.Errors)
	require.Equal(t, "b", resultData(t, res)["echo"])

	res = e.Execute(context.Background(), doc, "C", nil)
	require.Len(t, res.Errors, 1)
	require.Equal(t, "operation not found", res.Errors[0].Message)
}

func TestSubscribeProjectsEvents(t *testing.T) {
	e, broker := newTestExecutor(t)
	doc, err := language.ParseQuery(`subscription { changed { kind path } }`)
	require.NoError(t, err)

	stream, err := e.Subscribe(context.Background(), doc, "", nil)
	require.NoError(t, err)
	require.Equal(t, "changed", stream.Field())
	defer stream.Stop()

	broker.Publish("changed", map[string]any{"kind": "field", "path": "total", "extra": "dropped"})

	res, live, err := stream.Next(context.Background())
	require.NoError(t, err)
	require.True(t, live)
	require.Empty(t, res.Errors)
	require.Equal(t, map[string]any{
		"changed": map[string]any{"kind": "field", "path": "total"},
	}, res.Data)
}

func TestSubscribeStopEndsStream(t *testing.T) {
	e, _ := newTestExecutor(t)
	doc, err := language.ParseQuery(`subscription { changed { kind } }`)
	require.NoError(t, err)

	stream, err := e.Subscribe(context.Background(), doc, "", nil)
	require.NoError(t, err)
	stream.Stop()

	_, live, err := stream.Next(context.Background())
	require.NoError(t, err)
	require.False(t, live)
}

func TestSubscribeRequiresSingleRootField(t *testing.T) {
	e, _ := newTestExecutor(t)
	doc, err := language.ParseQuery(`subscription { changed { kind } second: changed { kind } }`)
	require.NoError(t, err)
	_, err = e.Subscribe(context.Background(), doc, "", nil)
	require.Error(t, err)
	require.Contains(t, err.Error(), "exactly one root field")
}

func TestSubscribeRejectsQueryOperation(t *testing.T) {
	e, _ := newTestExecutor(t)
	doc, err := language.ParseQuery(`{ hero { name } }`)
	require.NoError(t, err)
	_, err = e.Subscribe(context.Background(), doc, "", nil)
	require.Error(t, err)
}
