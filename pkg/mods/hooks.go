package mods

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"

	"github.com/cbodonnell/orderstone/pkg/log"
)

// Hook names a lifecycle or gameplay event mods may subscribe to.
type Hook string

const (
	HookGameStart     Hook = "on_game_start"
	HookPlayerMove    Hook = "on_player_move"
	HookBlockBreak    Hook = "on_block_break"
	HookBlockPlace    Hook = "on_block_place"
	HookItemUse       Hook = "on_item_use"
	HookChestOpen     Hook = "on_chest_open"
	HookChestClose    Hook = "on_chest_close"
	HookPlayerDamage  Hook = "on_player_damage"
	HookPlayerHeal    Hook = "on_player_heal"
	HookWorldGenerate Hook = "on_world_generate"
	HookTick          Hook = "on_tick"
	HookKeyPress      Hook = "on_key_press"
	HookMouseClick    Hook = "on_mouse_click"
	HookDeath         Hook = "on_death"
	HookRespawn       Hook = "on_respawn"
)

// BuiltinHooks lists the hooks fired by the game, in a stable order.
var BuiltinHooks = []Hook{
	HookGameStart,
	HookPlayerMove,
	HookBlockBreak,
	HookBlockPlace,
	HookItemUse,
	HookChestOpen,
	HookChestClose,
	HookPlayerDamage,
	HookPlayerHeal,
	HookWorldGenerate,
	HookTick,
	HookKeyPress,
	HookMouseClick,
	HookDeath,
	HookRespawn,
}

// IsBuiltin reports whether h is fired by the game itself.
func IsBuiltin(h Hook) bool {
	for _, b := range BuiltinHooks {
		if b == h {
			return true
		}
	}
	return false
}

// Callback is a hook subscriber.
type Callback func(ctx context.Context, args ...interface{}) error

// HookError is a failure of a single callback.
type HookError struct {
	Hook  Hook
	Owner string
	Err   error
}

func (e *HookError) Error() string {
	return fmt.Sprintf("mod %s failed in %s: %v", e.Owner, e.Hook, e.Err)
}

func (e *HookError) Unwrap() error {
	return e.Err
}

type registration struct {
	owner    string
	callback Callback
}

// Dispatcher maps hook names to ordered callback lists.
type Dispatcher struct {
	lock  sync.RWMutex
	hooks map[Hook][]registration
}

func NewDispatcher() *Dispatcher {
	return &Dispatcher{
		hooks: make(map[Hook][]registration),
	}
}

// Register appends a callback. Callbacks run in registration order.
func (d *Dispatcher) Register(hook Hook, owner string, callback Callback) {
	if callback == nil {
		return
	}
	d.lock.Lock()
	defer d.lock.Unlock()
	d.hooks[hook] = append(d.hooks[hook], registration{owner: owner, callback: callback})
}

// Unregister removes every callback registered by owner and returns how many
// were removed.
func (d *Dispatcher) Unregister(owner string) int {
	d.lock.Lock()
	defer d.lock.Unlock()
	removed := 0
	for hook, regs := range d.hooks {
		kept := regs[:0:0]
		for _, r := range regs {
			if r.owner == owner {
				removed++
				continue
			}
			kept = append(kept, r)
		}
		if len(kept) == 0 {
			delete(d.hooks, hook)
			continue
		}
		d.hooks[hook] = kept
	}
	return removed
}

// Count returns the number of callbacks registered for hook.
func (d *Dispatcher) Count(hook Hook) int {
	d.lock.RLock()
	defer d.lock.RUnlock()
	return len(d.hooks[hook])
}

// Owners returns the owners subscribed to hook, in call order.
func (d *Dispatcher) Owners(hook Hook) []string {
	d.lock.RLock()
	defer d.lock.RUnlock()
	owners := make([]string, 0, len(d.hooks[hook]))
	for _, r := range d.hooks[hook] {
		owners = append(owners, r.owner)
	}
	return owners
}

// Call runs every callback for hook synchronously, in registration order.
// A callback that fails or panics is logged and skipped; the rest still run.
// The failures are returned for callers that care.
func (d *Dispatcher) Call(ctx context.Context, hook Hook, args ...interface{}) []error {
	d.lock.RLock()
	regs := make([]registration, len(d.hooks[hook]))
	copy(regs, d.hooks[hook])
	d.lock.RUnlock()

	var errs []error
	for _, r := range regs {
		if err := invoke(ctx, r.callback, args); err != nil {
			hookErr := &HookError{Hook: hook, Owner: r.owner, Err: err}
			log.Error("Hook callback failed: %v", hookErr)
			errs = append(errs, hookErr)
		}
	}
	return errs
}

func invoke(ctx context.Context, callback Callback, args []interface{}) (err error) {
	defer func() {
		if r := recover(); r != nil {
			log.Debug("Recovered hook panic: %v\n%s", r, debug.Stack())
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return callback(ctx, args...)
}
