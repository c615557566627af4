package mods

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime/debug"
	"strings"
	"sync"

	"github.com/cbodonnell/orderstone/pkg/log"
)

type Kind string

const (
	KindLua Kind = "lua"
	KindGo  Kind = "go"
)

type Status string

const (
	StatusLoaded  Status = "loaded"
	StatusFailed  Status = "failed"
	StatusSkipped Status = "skipped"
)

// Info describes a mod the manager has seen, whether or not it loaded.
type Info struct {
	ID           string            `json:"id"`
	Name         string            `json:"name"`
	Version      string            `json:"version"`
	Description  string            `json:"description,omitempty"`
	Author       string            `json:"author,omitempty"`
	Kind         Kind              `json:"kind"`
	Status       Status            `json:"status"`
	Error        string            `json:"error,omitempty"`
	Path         string            `json:"path,omitempty"`
	Dependencies map[string]string `json:"dependencies,omitempty"`
}

type record struct {
	info    Info
	plugin  Plugin
	api     *API
	readied bool
}

type Manager struct {
	lock       sync.RWMutex
	dispatcher *Dispatcher
	registry   *Registry
	host       Host
	records    []*record
}

type NewManagerOptions struct {
	Dispatcher *Dispatcher
	Registry   *Registry
	Host       Host
}

func NewManager(opts NewManagerOptions) *Manager {
	if opts.Dispatcher == nil {
		opts.Dispatcher = NewDispatcher()
	}
	if opts.Registry == nil {
		opts.Registry = NewRegistry()
	}
	return &Manager{
		dispatcher: opts.Dispatcher,
		registry:   opts.Registry,
		host:       opts.Host,
	}
}

func (m *Manager) Dispatcher() *Dispatcher {
	return m.dispatcher
}

func (m *Manager) Registry() *Registry {
	return m.registry
}

// SetHost attaches the running game. Mods loaded earlier see it immediately.
func (m *Manager) SetHost(host Host) {
	m.lock.Lock()
	defer m.lock.Unlock()
	m.host = host
}

func (m *Manager) getHost() Host {
	m.lock.RLock()
	defer m.lock.RUnlock()
	return m.host
}

// Call fires a hook on every subscribed mod.
func (m *Manager) Call(ctx context.Context, hook Hook, args ...interface{}) []error {
	return m.dispatcher.Call(ctx, hook, args...)
}

// UseItem runs the mod handler registered for item, if any.
func (m *Manager) UseItem(ctx context.Context, player, item string) (bool, error) {
	fn, owner, ok := m.registry.ItemUse(item)
	if !ok {
		return false, nil
	}
	var handled bool
	err := safeCall(func() error {
		var err error
		handled, err = fn(ctx, player, item)
		return err
	})
	if err != nil {
		err = &HookError{Hook: HookItemUse, Owner: owner, Err: err}
		log.Error("Item use handler failed: %v", err)
		return false, err
	}
	return handled, nil
}

func (m *Manager) isLoaded(id string) bool {
	m.lock.RLock()
	defer m.lock.RUnlock()
	for _, r := range m.records {
		if r.info.ID == id && r.info.Status == StatusLoaded {
			return true
		}
	}
	return false
}

func (m *Manager) loadedVersions() map[string]string {
	m.lock.RLock()
	defer m.lock.RUnlock()
	versions := make(map[string]string)
	for _, r := range m.records {
		if r.info.Status == StatusLoaded {
			versions[r.info.ID] = r.info.Version
		}
	}
	return versions
}

func (m *Manager) addRecord(r *record) {
	m.lock.Lock()
	defer m.lock.Unlock()
	m.records = append(m.records, r)
}

func infoFor(manifest Manifest, kind Kind, path string) Info {
	return Info{
		ID:           manifest.ID,
		Name:         manifest.Name,
		Version:      manifest.Version,
		Description:  manifest.Description,
		Author:       manifest.Author,
		Kind:         kind,
		Path:         path,
		Dependencies: manifest.Dependencies,
	}
}

func (m *Manager) skip(info Info, reason error) {
	log.Warn("Skipping mod %s: %v", info.ID, reason)
	info.Status = StatusSkipped
	info.Error = reason.Error()
	m.addRecord(&record{info: info})
}

// RegisterPlugin loads a Go plugin. Its dependencies must already be loaded.
func (m *Manager) RegisterPlugin(p Plugin) error {
	manifest := p.Manifest()
	if manifest.ID == "" {
		return fmt.Errorf("failed to register plugin: %w: empty id", ErrInvalidManifest)
	}
	manifest.applyDefaults(manifest.ID)
	if m.isLoaded(manifest.ID) {
		return fmt.Errorf("failed to register plugin: %w: mod %s is already loaded", ErrDuplicateID, manifest.ID)
	}

	versions := m.loadedVersions()
	for _, dep := range sortedKeys(manifest.Dependencies) {
		version, ok := versions[dep]
		if !ok {
			err := fmt.Errorf("missing dependency %s", dep)
			m.skip(infoFor(manifest, KindGo, ""), err)
			return fmt.Errorf("failed to register plugin %s: %v", manifest.ID, err)
		}
		if !Satisfies(version, manifest.Dependencies[dep]) {
			err := fmt.Errorf("dependency %s %s does not satisfy %s", dep, version, manifest.Dependencies[dep])
			m.skip(infoFor(manifest, KindGo, ""), err)
			return fmt.Errorf("failed to register plugin %s: %v", manifest.ID, err)
		}
	}
	return m.load(p, manifest, KindGo, "")
}

// load registers and enables a plugin. On failure everything the plugin
// registered is removed again.
func (m *Manager) load(p Plugin, manifest Manifest, kind Kind, dir string) error {
	info := infoFor(manifest, kind, dir)
	api := newAPI(manifest.ID, dir, m.registry, m.dispatcher, m.getHost)

	err := safeCall(func() error { return p.Register(api) })
	if err == nil {
		if enabler, ok := p.(Enabler); ok {
			err = safeCall(func() error { return enabler.OnEnable(api) })
		}
	}
	if err != nil {
		m.unload(p, manifest.ID)
		info.Status = StatusFailed
		info.Error = err.Error()
		m.addRecord(&record{info: info})
		log.Error("Failed to load mod %s: %v", manifest.ID, err)
		return fmt.Errorf("failed to load mod %s: %w", manifest.ID, err)
	}

	info.Status = StatusLoaded
	m.addRecord(&record{info: info, plugin: p, api: api})
	log.Info("Loaded %s mod %s v%s", kind, manifest.ID, strings.TrimPrefix(manifest.Version, "v"))
	return nil
}

func (m *Manager) unload(p Plugin, id string) {
	callbacks := m.dispatcher.Unregister(id)
	entries := m.registry.RemoveOwner(id)
	if closer, ok := p.(Closer); ok {
		if err := closer.Close(); err != nil {
			log.Warn("Failed to close mod %s: %v", id, err)
		}
	}
	log.Debug("Unloaded mod %s (%d callbacks, %d registrations)", id, callbacks, entries)
}

// LoadDir loads every Lua mod under dir, dependencies first, and then calls
// on_ready on each loaded mod. A missing directory is not an error.
func (m *Manager) LoadDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if errors.Is(err, os.ErrNotExist) {
		log.Info("Mods directory %s does not exist, no mods loaded", dir)
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read mods directory: %v", err)
	}

	seen := m.loadedVersions()
	var candidates []candidate
	for _, entry := range entries {
		name := entry.Name()
		if !entry.IsDir() || strings.HasPrefix(name, ".") || strings.HasPrefix(name, "_") {
			continue
		}
		modDir := filepath.Join(dir, name)
		manifest, found, err := ReadManifest(modDir)
		if err != nil {
			info := infoFor(DefaultManifest(name), KindLua, modDir)
			info.Status = StatusFailed
			info.Error = err.Error()
			m.addRecord(&record{info: info})
			log.Error("Failed to read manifest of mod %s: %v", name, err)
			continue
		}
		if !found {
			log.Debug("Mod %s has no manifest, using defaults", name)
		}
		entryPath := filepath.Join(modDir, filepath.FromSlash(manifest.Entry))
		if _, err := os.Stat(entryPath); err != nil {
			m.skip(infoFor(manifest, KindLua, modDir), fmt.Errorf("entry script %s not found", manifest.Entry))
			continue
		}
		if _, dup := seen[manifest.ID]; dup {
			m.skip(infoFor(manifest, KindLua, modDir), fmt.Errorf("%w: mod %s is already loaded", ErrDuplicateID, manifest.ID))
			continue
		}
		seen[manifest.ID] = manifest.Version
		candidates = append(candidates, candidate{manifest: manifest, dir: modDir})
	}

	ordered, skips := resolveOrder(candidates, m.loadedVersions())
	for _, s := range skips {
		c, _ := findCandidate(candidates, s.id)
		m.skip(infoFor(c.manifest, KindLua, s.dir), s.reason)
	}

	for _, c := range ordered {
		if dep, ok := m.firstUnloadedDependency(c.manifest); ok {
			m.skip(infoFor(c.manifest, KindLua, c.dir), fmt.Errorf("dependency %s failed to load", dep))
			continue
		}
		// failures are recorded and logged by load
		_ = m.load(newLuaMod(c.manifest, c.dir), c.manifest, KindLua, c.dir)
	}

	m.Ready()
	return nil
}

func (m *Manager) firstUnloadedDependency(manifest Manifest) (string, bool) {
	for _, dep := range sortedKeys(manifest.Dependencies) {
		if !m.isLoaded(dep) {
			return dep, true
		}
	}
	return "", false
}

// Ready calls on_ready once on every loaded mod that has not seen it yet.
func (m *Manager) Ready() {
	m.lock.Lock()
	pending := make([]*record, 0, len(m.records))
	for _, r := range m.records {
		if r.info.Status == StatusLoaded && !r.readied {
			r.readied = true
			pending = append(pending, r)
		}
	}
	m.lock.Unlock()

	for _, r := range pending {
		readier, ok := r.plugin.(Readier)
		if !ok {
			continue
		}
		if err := safeCall(func() error { return readier.OnReady(r.api) }); err != nil {
			log.Error("Mod %s failed in on_ready: %v", r.info.ID, err)
			m.lock.Lock()
			r.info.Error = err.Error()
			m.lock.Unlock()
		}
	}
}

// Mods lists every mod seen so far in load order.
func (m *Manager) Mods() []Info {
	m.lock.RLock()
	defer m.lock.RUnlock()
	infos := make([]Info, 0, len(m.records))
	for _, r := range m.records {
		infos = append(infos, r.info)
	}
	return infos
}

// Close releases every loaded mod.
func (m *Manager) Close() error {
	m.lock.Lock()
	records := m.records
	m.lock.Unlock()

	var errs []error
	for _, r := range records {
		if r.info.Status != StatusLoaded {
			continue
		}
		if closer, ok := r.plugin.(Closer); ok {
			if err := closer.Close(); err != nil {
				errs = append(errs, fmt.Errorf("failed to close mod %s: %v", r.info.ID, err))
			}
		}
	}
	return errors.Join(errs...)
}

func safeCall(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			log.Debug("Recovered mod panic: %v\n%s", r, debug.Stack())
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return fn()
}
