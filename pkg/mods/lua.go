package mods

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"

	"github.com/Shopify/go-lua"
)

const (
	callbacksGlobal = "__orderstone_callbacks"
	maxTableDepth   = 16
)

// LuaError is a failure raised inside a mod script.
type LuaError struct {
	Mod string
	Op  string
	Msg string
}

func (e *LuaError) Error() string {
	return fmt.Sprintf("lua mod %s: %s: %s", e.Mod, e.Op, e.Msg)
}

// luaMod runs one mod script in its own lua.State. It is driven from a single
// goroutine: the loader, then the game loop.
type luaMod struct {
	manifest Manifest
	dir      string
	state    *lua.State
	api      *API
	nextRef  int
}

func newLuaMod(manifest Manifest, dir string) *luaMod {
	return &luaMod{manifest: manifest, dir: dir}
}

func (m *luaMod) Manifest() Manifest {
	return m.manifest
}

func (m *luaMod) entryPath() string {
	return filepath.Join(m.dir, filepath.FromSlash(m.manifest.Entry))
}

// Register executes the entry script, calls initialize (or register) and
// subscribes every global function named after a built-in hook.
func (m *luaMod) Register(api *API) error {
	entry := m.entryPath()
	if _, err := os.Stat(entry); err != nil {
		return &LuaError{Mod: m.manifest.ID, Op: "load", Msg: fmt.Sprintf("entry script: %v", err)}
	}

	m.api = api
	m.state = lua.NewState()
	lua.OpenLibraries(m.state)

	m.state.NewTable()
	m.state.SetGlobal(callbacksGlobal)
	m.pushAPITable()
	m.state.SetGlobal("api")

	if err := lua.LoadFile(m.state, entry, ""); err != nil {
		return m.stackError("load", err)
	}
	if err := m.state.ProtectedCall(0, 0, 0); err != nil {
		return m.stackError("run", err)
	}

	called, err := m.callGlobal("initialize")
	if err != nil {
		return err
	}
	if !called {
		if _, err := m.callGlobal("register"); err != nil {
			return err
		}
	}

	for _, hook := range BuiltinHooks {
		if !m.hasGlobalFunction(string(hook)) {
			continue
		}
		m.state.Global(string(hook))
		ref := m.storeRef(-1)
		m.state.Pop(1)
		api.On(hook, m.callback(hook, ref))
	}
	return nil
}

func (m *luaMod) OnEnable(api *API) error {
	_, err := m.callGlobal("on_enable")
	return err
}

func (m *luaMod) OnReady(api *API) error {
	_, err := m.callGlobal("on_ready")
	return err
}

func (m *luaMod) Close() error {
	m.state = nil
	return nil
}

func (m *luaMod) hasGlobalFunction(name string) bool {
	if m.state == nil {
		return false
	}
	m.state.Global(name)
	defer m.state.Pop(1)
	return m.state.IsFunction(-1)
}

// callGlobal calls a global function with the api table when it exists.
func (m *luaMod) callGlobal(name string) (bool, error) {
	if !m.hasGlobalFunction(name) {
		return false, nil
	}
	m.state.Global(name)
	m.state.Global("api")
	if err := m.state.ProtectedCall(1, 0, 0); err != nil {
		return true, m.stackError(name, err)
	}
	return true, nil
}

// stackError pops the error value left by a failed protected call.
func (m *luaMod) stackError(op string, err error) error {
	msg := err.Error()
	if m.state != nil && m.state.Top() > 0 {
		if s, ok := m.state.ToString(-1); ok {
			msg = s
		}
		m.state.Pop(1)
	}
	return &LuaError{Mod: m.manifest.ID, Op: op, Msg: msg}
}

// storeRef keeps the function at index reachable from Go.
func (m *luaMod) storeRef(index int) int {
	index = m.state.AbsIndex(index)
	m.nextRef++
	m.state.Global(callbacksGlobal)
	m.state.PushValue(index)
	m.state.RawSetInt(-2, m.nextRef)
	m.state.Pop(1)
	return m.nextRef
}

// callRef calls a stored function with args and returns its first result.
func (m *luaMod) callRef(op string, ref int, args []interface{}) (interface{}, error) {
	if m.state == nil {
		return nil, &LuaError{Mod: m.manifest.ID, Op: op, Msg: "mod is closed"}
	}
	top := m.state.Top()
	m.state.Global(callbacksGlobal)
	m.state.RawGetInt(-1, ref)
	m.state.Remove(-2)
	if !m.state.IsFunction(-1) {
		m.state.SetTop(top)
		return nil, &LuaError{Mod: m.manifest.ID, Op: op, Msg: "callback is not a function"}
	}
	for _, arg := range args {
		pushValue(m.state, arg)
	}
	if err := m.state.ProtectedCall(len(args), 1, 0); err != nil {
		err = m.stackError(op, err)
		m.state.SetTop(top)
		return nil, err
	}
	result := toValue(m.state, -1, 0)
	m.state.SetTop(top)
	return result, nil
}

func (m *luaMod) callback(hook Hook, ref int) Callback {
	return func(ctx context.Context, args ...interface{}) error {
		_, err := m.callRef(string(hook), ref, args)
		return err
	}
}

func (m *luaMod) itemUse(item string, ref int) ItemUseFunc {
	return func(ctx context.Context, player string, used string) (bool, error) {
		result, err := m.callRef("item_use:"+item, ref, []interface{}{player, used})
		if err != nil {
			return false, err
		}
		handled, _ := result.(bool)
		return handled, nil
	}
}

// argBase skips the api table when a function is called with colon syntax.
func argBase(l *lua.State) int {
	if l.TypeOf(1) == lua.TypeTable {
		return 1
	}
	return 0
}

func optProps(l *lua.State, index int) map[string]interface{} {
	if l.IsNoneOrNil(index) {
		return nil
	}
	lua.CheckType(l, index, lua.TypeTable)
	switch v := toValue(l, index, 0).(type) {
	case map[string]interface{}:
		return v
	case []interface{}:
		if len(v) == 0 {
			return map[string]interface{}{}
		}
	}
	lua.ArgumentError(l, index, "properties must be a table with string keys")
	return nil
}

func raise(l *lua.State, err error) {
	if err != nil {
		lua.Errorf(l, "%s", err.Error())
	}
}

func (m *luaMod) pushAPITable() {
	l := m.state
	api := m.api
	hostCall := func(l *lua.State) Host {
		host := api.Host()
		if host == nil {
			lua.Errorf(l, "game host is not available yet")
		}
		return host
	}

	l.NewTable()
	lua.SetFunctions(l, []lua.RegistryFunction{
		{Name: "id", Function: func(l *lua.State) int {
			l.PushString(api.ID())
			return 1
		}},
		{Name: "log", Function: func(l *lua.State) int {
			b := argBase(l)
			api.Log("%s", lua.CheckString(l, b+1))
			return 0
		}},
		{Name: "register_item", Function: func(l *lua.State) int {
			b := argBase(l)
			raise(l, api.RegisterItem(lua.CheckString(l, b+1), optProps(l, b+2)))
			return 0
		}},
		{Name: "register_block", Function: func(l *lua.State) int {
			b := argBase(l)
			raise(l, api.RegisterBlock(lua.CheckString(l, b+1), optProps(l, b+2)))
			return 0
		}},
		{Name: "register_entity", Function: func(l *lua.State) int {
			b := argBase(l)
			raise(l, api.RegisterEntity(lua.CheckString(l, b+1), optProps(l, b+2)))
			return 0
		}},
		{Name: "add_texture", Function: func(l *lua.State) int {
			b := argBase(l)
			raise(l, api.AddTexture(lua.CheckString(l, b+1), lua.CheckString(l, b+2)))
			return 0
		}},
		{Name: "add_sound", Function: func(l *lua.State) int {
			b := argBase(l)
			raise(l, api.AddSound(lua.CheckString(l, b+1), lua.CheckString(l, b+2)))
			return 0
		}},
		{Name: "add_chest_loot", Function: func(l *lua.State) int {
			b := argBase(l)
			raise(l, api.AddChestLoot(lua.CheckString(l, b+1), lua.OptInteger(l, b+2, 1)))
			return 0
		}},
		{Name: "add_guaranteed_chest_item", Function: func(l *lua.State) int {
			b := argBase(l)
			raise(l, api.AddGuaranteedChestItem(lua.CheckString(l, b+1)))
			return 0
		}},
		{Name: "set_item_use", Function: func(l *lua.State) int {
			b := argBase(l)
			item := lua.CheckString(l, b+1)
			lua.CheckType(l, b+2, lua.TypeFunction)
			ref := m.storeRef(b + 2)
			raise(l, api.SetItemUse(item, m.itemUse(item, ref)))
			return 0
		}},
		{Name: "on", Function: func(l *lua.State) int {
			b := argBase(l)
			name := lua.CheckString(l, b+1)
			lua.CheckType(l, b+2, lua.TypeFunction)
			ref := m.storeRef(b + 2)
			api.On(Hook(name), m.callback(Hook(name), ref))
			return 0
		}},
		{Name: "emit", Function: func(l *lua.State) int {
			b := argBase(l)
			name := lua.CheckString(l, b+1)
			var args []interface{}
			for i := b + 2; i <= l.Top(); i++ {
				args = append(args, toValue(l, i, 0))
			}
			errs := api.Emit(context.Background(), name, args...)
			l.PushInteger(len(errs))
			return 1
		}},
		{Name: "broadcast", Function: func(l *lua.State) int {
			b := argBase(l)
			text := lua.CheckString(l, b+1)
			hostCall(l).Broadcast(text)
			return 0
		}},
		{Name: "give_item", Function: func(l *lua.State) int {
			b := argBase(l)
			player := lua.CheckString(l, b+1)
			item := lua.CheckString(l, b+2)
			count := lua.OptInteger(l, b+3, 1)
			raise(l, hostCall(l).GiveItem(player, item, count))
			return 0
		}},
		{Name: "heal", Function: func(l *lua.State) int {
			b := argBase(l)
			player := lua.CheckString(l, b+1)
			amount := lua.CheckInteger(l, b+2)
			raise(l, hostCall(l).Heal(player, amount))
			return 0
		}},
		{Name: "set_block", Function: func(l *lua.State) int {
			b := argBase(l)
			x := lua.CheckInteger(l, b+1)
			y := lua.CheckInteger(l, b+2)
			block := lua.CheckString(l, b+3)
			raise(l, hostCall(l).SetBlock(x, y, block))
			return 0
		}},
		{Name: "get_block", Function: func(l *lua.State) int {
			b := argBase(l)
			x := lua.CheckInteger(l, b+1)
			y := lua.CheckInteger(l, b+2)
			l.PushString(hostCall(l).GetBlock(x, y))
			return 1
		}},
		{Name: "players", Function: func(l *lua.State) int {
			players := hostCall(l).Players()
			values := make([]interface{}, 0, len(players))
			for _, p := range players {
				values = append(values, p)
			}
			pushValue(l, values)
			return 1
		}},
	}, 0)
}

// toValue converts the Lua value at index into nil, bool, int, float64,
// string, []interface{} or map[string]interface{}.
func toValue(l *lua.State, index int, depth int) interface{} {
	switch l.TypeOf(index) {
	case lua.TypeString:
		s, _ := l.ToString(index)
		return s
	case lua.TypeNumber:
		n, _ := l.ToNumber(index)
		return normalizeNumber(n)
	case lua.TypeBoolean:
		return l.ToBoolean(index)
	case lua.TypeTable:
		if depth >= maxTableDepth {
			return nil
		}
		return tableToValue(l, index, depth+1)
	default:
		return nil
	}
}

func normalizeNumber(n float64) interface{} {
	if math.Mod(n, 1) == 0 && n >= math.MinInt32 && n <= math.MaxInt32 {
		return int(n)
	}
	return n
}

func tableToValue(l *lua.State, index int, depth int) interface{} {
	index = l.AbsIndex(index)

	isArray := true
	maxIndex, count := 0, 0
	l.PushNil()
	for l.Next(index) {
		if isArray {
			if l.TypeOf(-2) != lua.TypeNumber {
				isArray = false
			} else if i, ok := l.ToInteger(-2); ok && i > 0 {
				count++
				if i > maxIndex {
					maxIndex = i
				}
			} else {
				isArray = false
			}
		}
		l.Pop(1)
	}

	if isArray && count > 0 && maxIndex == count {
		out := make([]interface{}, 0, maxIndex)
		for i := 1; i <= maxIndex; i++ {
			l.RawGetInt(index, i)
			out = append(out, toValue(l, -1, depth))
			l.Pop(1)
		}
		return out
	}

	out := make(map[string]interface{}, count)
	l.PushNil()
	for l.Next(index) {
		var key string
		switch l.TypeOf(-2) {
		case lua.TypeString:
			key, _ = l.ToString(-2)
		case lua.TypeNumber:
			n, _ := l.ToNumber(-2)
			key = fmt.Sprint(normalizeNumber(n))
		}
		if key != "" {
			out[key] = toValue(l, -1, depth)
		}
		l.Pop(1)
	}
	return out
}

// pushValue pushes a Go value converted to its Lua counterpart.
func pushValue(l *lua.State, v interface{}) {
	switch v := v.(type) {
	case nil:
		l.PushNil()
	case bool:
		l.PushBoolean(v)
	case int:
		l.PushInteger(v)
	case int32:
		l.PushInteger(int(v))
	case int64:
		l.PushNumber(float64(v))
	case float32:
		l.PushNumber(float64(v))
	case float64:
		l.PushNumber(v)
	case string:
		l.PushString(v)
	case []string:
		l.CreateTable(len(v), 0)
		for i, s := range v {
			l.PushString(s)
			l.RawSetInt(-2, i+1)
		}
	case []interface{}:
		l.CreateTable(len(v), 0)
		for i, item := range v {
			pushValue(l, item)
			l.RawSetInt(-2, i+1)
		}
	case map[string]interface{}:
		l.CreateTable(0, len(v))
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			pushValue(l, v[k])
			l.SetField(-2, k)
		}
	case error:
		l.PushString(v.Error())
	case fmt.Stringer:
		l.PushString(v.String())
	default:
		l.PushString(fmt.Sprint(v))
	}
}

// IsLuaError reports whether err was raised inside a mod script.
func IsLuaError(err error) bool {
	var luaErr *LuaError
	return errors.As(err, &luaErr)
}
