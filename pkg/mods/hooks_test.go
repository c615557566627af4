package mods

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDispatcher_CallOrder(t *testing.T) {
	d := NewDispatcher()
	var calls []string
	for _, owner := range []string{"a", "b", "c"} {
		owner := owner
		d.Register(HookTick, owner, func(ctx context.Context, args ...interface{}) error {
			calls = append(calls, owner)
			return nil
		})
	}

	errs := d.Call(context.Background(), HookTick)
	assert.Empty(t, errs)
	assert.Equal(t, []string{"a", "b", "c"}, calls)
	assert.Equal(t, []string{"a", "b", "c"}, d.Owners(HookTick))
}

func TestDispatcher_FailuresAreIsolated(t *testing.T) {
	d := NewDispatcher()
	var calls []string
	d.Register(HookBlockBreak, "first", func(ctx context.Context, args ...interface{}) error {
		calls = append(calls, "first")
		return errors.New("boom")
	})
	d.Register(HookBlockBreak, "second", func(ctx context.Context, args ...interface{}) error {
		calls = append(calls, "second")
		panic("kaboom")
	})
	d.Register(HookBlockBreak, "third", func(ctx context.Context, args ...interface{}) error {
		calls = append(calls, "third")
		require.Len(t, args, 3)
		assert.Equal(t, "stone", args[0])
		return nil
	})

	errs := d.Call(context.Background(), HookBlockBreak, "stone", 1, 2)
	assert.Equal(t, []string{"first", "second", "third"}, calls)
	require.Len(t, errs, 2)

	var hookErr *HookError
	require.ErrorAs(t, errs[0], &hookErr)
	assert.Equal(t, "first", hookErr.Owner)
	assert.Equal(t, HookBlockBreak, hookErr.Hook)
	assert.Contains(t, errs[1].Error(), "kaboom")
}

func TestDispatcher_NoCallbacks(t *testing.T) {
	d := NewDispatcher()
	assert.Empty(t, d.Call(context.Background(), HookRespawn))
	assert.Equal(t, 0, d.Count(HookRespawn))
}

func TestDispatcher_Unregister(t *testing.T) {
	d := NewDispatcher()
	noop := func(ctx context.Context, args ...interface{}) error { return nil }
	d.Register(HookTick, "a", noop)
	d.Register(HookTick, "b", noop)
	d.Register(HookDeath, "a", noop)
	d.Register(Hook("custom_event"), "a", noop)

	assert.Equal(t, 3, d.Unregister("a"))
	assert.Equal(t, []string{"b"}, d.Owners(HookTick))
	assert.Equal(t, 0, d.Count(HookDeath))
	assert.Equal(t, 0, d.Unregister("missing"))
}

func TestDispatcher_NilCallbackIgnored(t *testing.T) {
	d := NewDispatcher()
	d.Register(HookTick, "a", nil)
	assert.Equal(t, 0, d.Count(HookTick))
}

func TestIsBuiltin(t *testing.T) {
	assert.Len(t, BuiltinHooks, 15)
	assert.True(t, IsBuiltin(HookMouseClick))
	assert.False(t, IsBuiltin(Hook("on_dance")))
}
