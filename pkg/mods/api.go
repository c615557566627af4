package mods

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/cbodonnell/orderstone/pkg/log"
)

// Host is the part of the running game exposed to mods.
type Host interface {
	Broadcast(text string)
	GiveItem(player, item string, count int) error
	Heal(player string, amount int) error
	SetBlock(x, y int, block string) error
	GetBlock(x, y int) string
	Players() []string
}

// API is the surface a single mod registers through. Every registration is
// recorded under the mod's id.
type API struct {
	id         string
	dir        string
	logger     *log.Logger
	registry   *Registry
	dispatcher *Dispatcher
	host       func() Host
}

func newAPI(id, dir string, registry *Registry, dispatcher *Dispatcher, host func() Host) *API {
	return &API{
		id:         id,
		dir:        dir,
		logger:     log.Default().With("mod", id),
		registry:   registry,
		dispatcher: dispatcher,
		host:       host,
	}
}

func (a *API) ID() string {
	return a.id
}

func (a *API) Dir() string {
	return a.dir
}

func (a *API) Log(format string, args ...interface{}) {
	a.logger.Info(format, args...)
}

func (a *API) RegisterItem(id string, props map[string]interface{}) error {
	return a.registry.RegisterItem(a.id, id, props)
}

func (a *API) RegisterBlock(id string, props map[string]interface{}) error {
	return a.registry.RegisterBlock(a.id, id, props)
}

func (a *API) RegisterEntity(id string, props map[string]interface{}) error {
	return a.registry.RegisterEntity(a.id, id, props)
}

func (a *API) AddTexture(id, relPath string) error {
	path, err := a.ResolvePath(relPath)
	if err != nil {
		return err
	}
	return a.registry.AddTexture(a.id, id, path)
}

func (a *API) AddSound(id, relPath string) error {
	path, err := a.ResolvePath(relPath)
	if err != nil {
		return err
	}
	return a.registry.AddSound(a.id, id, path)
}

func (a *API) AddChestLoot(item string, weight int) error {
	return a.registry.AddChestLoot(a.id, item, weight)
}

func (a *API) AddGuaranteedChestItem(item string) error {
	return a.registry.AddGuaranteedChestItem(a.id, item)
}

func (a *API) SetItemUse(item string, fn ItemUseFunc) error {
	return a.registry.SetItemUse(a.id, item, fn)
}

// On subscribes to a built-in hook or a custom event name.
func (a *API) On(hook Hook, fn Callback) {
	a.dispatcher.Register(hook, a.id, fn)
}

// Emit fires a custom event to every subscriber.
func (a *API) Emit(ctx context.Context, name string, args ...interface{}) []error {
	return a.dispatcher.Call(ctx, Hook(name), args...)
}

// Host returns the running game, or nil before the server has attached one.
func (a *API) Host() Host {
	if a.host == nil {
		return nil
	}
	return a.host()
}

// ResolvePath resolves a path relative to the mod directory. Paths that would
// leave the directory are rejected.
func (a *API) ResolvePath(relPath string) (string, error) {
	if relPath == "" {
		return "", fmt.Errorf("empty asset path")
	}
	if filepath.IsAbs(relPath) {
		return "", fmt.Errorf("asset path %q must be relative to the mod directory", relPath)
	}
	base, err := filepath.Abs(a.dir)
	if err != nil {
		return "", fmt.Errorf("failed to resolve mod directory: %v", err)
	}
	full := filepath.Join(base, filepath.FromSlash(relPath))
	rel, err := filepath.Rel(base, full)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("asset path %q escapes the mod directory", relPath)
	}
	return full, nil
}
