package httpapi

import (
	"context"
	"testing"
	"time"
)

type ctxKey struct{}

func TestSetBaseContext_NilResetsToBackground(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	SetBaseContext(ctx)
	// nolint:staticcheck // SA1012: this test intentionally passes nil to verify fallback behavior
	SetBaseContext(nil)
	cancel()
	if serverBaseCtx.Err() != nil {
		t.Fatal("base context should be Background after nil reset")
	}
}

func TestJoinContexts_CancelsWhenEitherDone(t *testing.T) {
	a, ac := context.WithCancel(context.Background())
	b, bc := context.WithCancel(context.WithValue(context.Background(), ctxKey{}, "v"))
	defer bc()
	j, cancelJ := joinContexts(a, b)
	defer cancelJ()
	if j.Value(ctxKey{}) != "v" {
		t.Fatal("joined context should carry values from b")
	}
	ac()
	select {
	case <-j.Done():
	case <-time.After(500 * time.Millisecond):
		t.Fatal("joined context did not cancel when first parent canceled")
	}
}

func TestCallContext_AppliesTimeout(t *testing.T) {
	SetCallTimeout(10 * time.Millisecond)
	defer SetCallTimeout(0)
	ctx, cancel := callContext(context.Background())
	defer cancel()
	if _, ok := ctx.Deadline(); !ok {
		t.Fatal("expected deadline")
	}
	select {
	case <-ctx.Done():
	case <-time.After(time.Second):
		t.Fatal("call context did not time out")
	}
}

func TestCallContext_CanceledOnShutdown(t *testing.T) {
	base, cancelBase := context.WithCancel(context.Background())
	SetBaseContext(base)
	defer SetBaseContext(nil)
	ctx, cancel := callContext(context.Background())
	defer cancel()
	cancelBase()
	select {
	case <-ctx.Done():
	case <-time.After(500 * time.Millisecond):
		t.Fatal("call context not canceled by base context")
	}
}
