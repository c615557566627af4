package mods

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeMod(t *testing.T, root, name string, files map[string]string) string {
	t.Helper()
	dir := filepath.Join(root, name)
	for rel, content := range files {
		path := filepath.Join(dir, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	return dir
}

const alphaScript = `
function initialize(api)
  api.log("alpha starting")
  api.register_item("ruby", {damage = 3, name = "Ruby", tags = {"gem", "shiny"}})
  api.add_chest_loot("ruby", 0)
  api.add_guaranteed_chest_item("ruby")
  api.add_guaranteed_chest_item("ruby")
  api.add_texture("ruby", "textures/ruby.png")
  api.set_item_use("ruby", function(player, item)
    return player == "steve"
  end)
  api.on("custom_ping", function(n)
    api.register_block("ping_" .. n)
  end)
end

function on_block_break(block, x, y)
  if block == "stone" then
    error("stone is sacred")
  end
  api.register_entity("broke_" .. block .. "_" .. x .. "_" .. y)
end

function on_tick()
  api.broadcast("tick from " .. api.id())
end
`

const betaScript = `
function register(api)
  api:register_item("beta_item")
end

function on_enable(api)
  api.register_item("beta_enabled")
end

function on_ready(api)
  api.register_item("beta_ready")
  api.emit("custom_ping", 7)
end
`

type fakeHost struct {
	broadcasts []string
	blocks     map[[2]int]string
}

func (h *fakeHost) Broadcast(text string) {
	h.broadcasts = append(h.broadcasts, text)
}

func (h *fakeHost) GiveItem(player, item string, count int) error {
	return nil
}

func (h *fakeHost) Heal(player string, amount int) error {
	return errors.New("no such player")
}

func (h *fakeHost) SetBlock(x, y int, block string) error {
	if h.blocks == nil {
		h.blocks = map[[2]int]string{}
	}
	h.blocks[[2]int{x, y}] = block
	return nil
}

func (h *fakeHost) GetBlock(x, y int) string {
	if b, ok := h.blocks[[2]int{x, y}]; ok {
		return b
	}
	return "air"
}

func (h *fakeHost) Players() []string {
	return []string{"steve", "alex"}
}

func statuses(m *Manager) map[string]Info {
	out := map[string]Info{}
	for _, info := range m.Mods() {
		out[info.ID] = info
	}
	return out
}

func TestManager_LoadDir(t *testing.T) {
	root := t.TempDir()
	alphaDir := writeMod(t, root, "alpha", map[string]string{
		"mod.json": `{"id":"alpha","name":"Alpha","version":"1.2.0","author":"tester"}`,
		"main.lua": alphaScript,
	})
	writeMod(t, root, "beta", map[string]string{
		"mod.yaml": "id: beta\nversion: 0.1.0\ndependencies:\n  alpha: \">=1.0.0\"\n",
		"main.lua": betaScript,
	})
	writeMod(t, root, "broken", map[string]string{
		"main.lua": `
function initialize(api)
  api.register_item("broken_item")
  api.on("on_tick", function() end)
  error("cannot start")
end`,
	})
	writeMod(t, root, "orphan", map[string]string{
		"mod.json": `{"id":"orphan","dependencies":{"ghost":"*"}}`,
		"main.lua": ``,
	})
	writeMod(t, root, "noentry", map[string]string{
		"mod.json": `{"id":"noentry"}`,
	})
	writeMod(t, root, "impatient", map[string]string{
		"mod.json": `{"id":"impatient","dependencies":{"alpha":"^2.0"}}`,
		"main.lua": ``,
	})
	writeMod(t, root, "dupe", map[string]string{
		"mod.json": `{"id":"alpha"}`,
		"main.lua": ``,
	})

	m := NewManager(NewManagerOptions{})
	require.NoError(t, m.LoadDir(root))
	t.Cleanup(func() { assert.NoError(t, m.Close()) })

	infos := statuses(m)
	assert.Equal(t, StatusLoaded, infos["alpha"].Status)
	assert.Equal(t, KindLua, infos["alpha"].Kind)
	assert.Equal(t, "tester", infos["alpha"].Author)
	assert.Equal(t, StatusLoaded, infos["beta"].Status)
	assert.Equal(t, StatusFailed, infos["broken"].Status)
	assert.Contains(t, infos["broken"].Error, "cannot start")
	assert.Equal(t, StatusSkipped, infos["orphan"].Status)
	assert.Equal(t, StatusSkipped, infos["noentry"].Status)
	assert.Equal(t, StatusSkipped, infos["impatient"].Status)

	reg := m.Registry()

	ruby, ok := reg.Item("ruby")
	require.True(t, ok)
	assert.Equal(t, "alpha", ruby.Owner)
	assert.Equal(t, 3, ruby.Props["damage"])
	assert.Equal(t, []interface{}{"gem", "shiny"}, ruby.Props["tags"])

	for _, id := range []string{"beta_item", "beta_enabled", "beta_ready"} {
		_, ok := reg.Item(id)
		assert.True(t, ok, id)
	}
	_, ok = reg.Item("broken_item")
	assert.False(t, ok, "failed mod registrations are removed")
	assert.Equal(t, []string{"alpha"}, m.Dispatcher().Owners(HookTick))

	// beta's on_ready emitted custom_ping to alpha
	_, ok = reg.Block("ping_7")
	assert.True(t, ok)

	assert.Equal(t, []string{"ruby"}, reg.GuaranteedChestItems())
	require.Len(t, reg.ChestLoot(), 1)
	assert.Equal(t, 1, reg.ChestLoot()[0].Weight)

	textures := reg.Textures()
	require.Len(t, textures, 1)
	absAlpha, err := filepath.Abs(alphaDir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(absAlpha, "textures", "ruby.png"), textures[0].Path)
}

func TestManager_LuaHooks(t *testing.T) {
	root := t.TempDir()
	writeMod(t, root, "alpha", map[string]string{
		"mod.json": `{"id":"alpha","version":"1.2.0"}`,
		"main.lua": alphaScript,
	})

	m := NewManager(NewManagerOptions{})
	require.NoError(t, m.LoadDir(root))
	ctx := context.Background()

	errs := m.Call(ctx, HookBlockBreak, "dirt", 3, 4)
	assert.Empty(t, errs)
	_, ok := m.Registry().Block("broke_dirt_3_4")
	assert.False(t, ok)
	assert.Len(t, m.Registry().Entities(), 1)
	assert.Equal(t, "broke_dirt_3_4", m.Registry().Entities()[0].ID)

	errs = m.Call(ctx, HookBlockBreak, "stone", 0, 0)
	require.Len(t, errs, 1)
	assert.True(t, IsLuaError(errs[0]))
	assert.Contains(t, errs[0].Error(), "stone is sacred")

	handled, err := m.UseItem(ctx, "steve", "ruby")
	require.NoError(t, err)
	assert.True(t, handled)
	handled, err = m.UseItem(ctx, "alex", "ruby")
	require.NoError(t, err)
	assert.False(t, handled)
	handled, err = m.UseItem(ctx, "steve", "apple")
	require.NoError(t, err)
	assert.False(t, handled)

	// no host attached yet
	errs = m.Call(ctx, HookTick)
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0].Error(), "host is not available")

	host := &fakeHost{}
	m.SetHost(host)
	assert.Empty(t, m.Call(ctx, HookTick))
	assert.Equal(t, []string{"tick from alpha"}, host.broadcasts)
}

func TestManager_DependencyOrder(t *testing.T) {
	root := t.TempDir()
	writeMod(t, root, "aaa", map[string]string{
		"mod.json": `{"id":"aaa","dependencies":{"zzz":">=1.0.0"}}`,
		"main.lua": `function on_tick() end`,
	})
	writeMod(t, root, "zzz", map[string]string{
		"main.lua": `function on_tick() end`,
	})

	m := NewManager(NewManagerOptions{})
	require.NoError(t, m.LoadDir(root))
	assert.Equal(t, []string{"zzz", "aaa"}, m.Dispatcher().Owners(HookTick))
}

func TestManager_LoadDirMissing(t *testing.T) {
	m := NewManager(NewManagerOptions{})
	assert.NoError(t, m.LoadDir(filepath.Join(t.TempDir(), "nope")))
	assert.Empty(t, m.Mods())
}

func TestManager_SyntaxError(t *testing.T) {
	root := t.TempDir()
	writeMod(t, root, "typo", map[string]string{
		"main.lua": `function initialize(api`,
	})
	m := NewManager(NewManagerOptions{})
	require.NoError(t, m.LoadDir(root))
	info := statuses(m)["typo"]
	assert.Equal(t, StatusFailed, info.Status)
	assert.Contains(t, info.Error, "lua mod typo")
}

type testPlugin struct {
	manifest Manifest
	fail     bool
	enabled  bool
	readied  bool
	closed   bool
}

func (p *testPlugin) Manifest() Manifest {
	return p.manifest
}

func (p *testPlugin) Register(api *API) error {
	if err := api.RegisterItem(p.manifest.ID+"_gear", nil); err != nil {
		return err
	}
	api.On(HookRespawn, func(ctx context.Context, args ...interface{}) error { return nil })
	if p.fail {
		panic("plugin exploded")
	}
	return nil
}

func (p *testPlugin) OnEnable(api *API) error {
	p.enabled = true
	return nil
}

func (p *testPlugin) OnReady(api *API) error {
	p.readied = true
	return nil
}

func (p *testPlugin) Close() error {
	p.closed = true
	return nil
}

func TestManager_RegisterPlugin(t *testing.T) {
	m := NewManager(NewManagerOptions{})

	good := &testPlugin{manifest: Manifest{ID: "core", Version: "2.1.0"}}
	require.NoError(t, m.RegisterPlugin(good))
	assert.True(t, good.enabled)
	assert.False(t, good.readied)

	err := m.RegisterPlugin(&testPlugin{manifest: Manifest{ID: "core"}})
	assert.ErrorIs(t, err, ErrDuplicateID)

	bad := &testPlugin{manifest: Manifest{ID: "bad"}, fail: true}
	err = m.RegisterPlugin(bad)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "plugin exploded")
	assert.True(t, bad.closed)
	_, ok := m.Registry().Item("bad_gear")
	assert.False(t, ok)
	assert.Equal(t, []string{"core"}, m.Dispatcher().Owners(HookRespawn))

	needy := &testPlugin{manifest: Manifest{ID: "needy", Dependencies: map[string]string{"core": "^3.0.0"}}}
	assert.Error(t, m.RegisterPlugin(needy))

	m.Ready()
	assert.True(t, good.readied)

	infos := statuses(m)
	assert.Equal(t, KindGo, infos["core"].Kind)
	assert.Equal(t, StatusFailed, infos["bad"].Status)
	assert.Equal(t, StatusSkipped, infos["needy"].Status)

	require.NoError(t, m.Close())
	assert.True(t, good.closed)
}

type countingPlugin struct {
	id    string
	ready atomic.Int32
}

func (p *countingPlugin) Manifest() Manifest { return Manifest{ID: p.id} }

func (p *countingPlugin) Register(api *API) error { return nil }

func (p *countingPlugin) OnReady(api *API) error {
	p.ready.Add(1)
	return nil
}

func TestManager_ReadyConcurrent(t *testing.T) {
	m := NewManager(NewManagerOptions{})
	plugins := []*countingPlugin{{id: "alpha"}, {id: "beta"}, {id: "gamma"}}
	for _, p := range plugins {
		require.NoError(t, m.RegisterPlugin(p))
	}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m.Ready()
			_ = m.Mods()
		}()
	}
	wg.Wait()

	for _, p := range plugins {
		assert.Equal(t, int32(1), p.ready.Load(), p.id)
	}
}

func TestAPI_ResolvePath(t *testing.T) {
	dir := t.TempDir()
	api := newAPI("paths", dir, NewRegistry(), NewDispatcher(), nil)

	got, err := api.ResolvePath("sounds/boom.ogg")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "sounds", "boom.ogg"), got)

	for _, bad := range []string{"", "../other/file.png", "sounds/../../x", "/etc/passwd"} {
		_, err := api.ResolvePath(bad)
		assert.Error(t, err, bad)
	}
	assert.Nil(t, api.Host())
}
