package reqctx

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewContextFillsRequestID(t *testing.T) {
	ctx, rid := NewContext(context.Background(), Bundle{})
	require.NotEmpty(t, rid)

	b, ok := FromContext(ctx)
	require.True(t, ok)
	require.Equal(t, rid, b.RequestID)
	require.Equal(t, rid, RequestID(ctx))
}

func TestNewContextKeepsExplicitRequestID(t *testing.T) {
	ctx, rid := NewContext(context.Background(), Bundle{RequestID: "req-42"})
	require.Equal(t, "req-42", rid)
	require.Equal(t, "req-42", RequestID(ctx))
}

func TestFromContextMissing(t *testing.T) {
	_, ok := FromContext(context.Background())
	require.False(t, ok)
	require.Empty(t, RequestID(context.Background()))
}

func TestBundleIsCopiedPerContext(t *testing.T) {
	b := Bundle{RequestID: "a", User: &User{ID: "u1"}}
	ctx1, _ := NewContext(context.Background(), b)
	b.RequestID = "b"
	ctx2, _ := NewContext(context.Background(), b)

	first, _ := FromContext(ctx1)
	second, _ := FromContext(ctx2)
	require.Equal(t, "a", first.RequestID)
	require.Equal(t, "b", second.RequestID)
	require.Same(t, first.User, second.User)
}
