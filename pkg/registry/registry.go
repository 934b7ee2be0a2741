// Package registry implements the process-wide factory and plugin-
// description caches described in spec §9 ("shared module-level
// registries"): read-write-mutex-guarded maps, populated lazily and
// cleared only on explicit request, modeled on the teacher's
// pkg/framework/param.Registry (same RWMutex-over-a-map shape, scaled up
// to a process-wide singleton instead of one registry per plugin
// instance).
package registry

import (
	"sync"

	"github.com/rivermist/vsthost/pkg/backend"
)

// Registry caches probed PluginInfo by plugin path and the Factory used to
// instantiate Backends by Kind. Safe for concurrent use; reads are
// expected to vastly outnumber writes once a process has warmed up.
type Registry struct {
	mu        sync.RWMutex
	infos     map[string]backend.PluginInfo
	factories map[string]backend.Factory
}

// New returns an empty Registry.
func New() *Registry {
	return &Registry{
		infos:     make(map[string]backend.PluginInfo),
		factories: make(map[string]backend.Factory),
	}
}

// Info returns the cached PluginInfo for path, if present.
func (r *Registry) Info(path string) (backend.PluginInfo, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	info, ok := r.infos[path]
	return info, ok
}

// StoreInfo caches a probed PluginInfo under its Path.
func (r *Registry) StoreInfo(info backend.PluginInfo) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.infos[info.Path] = info
}

// Factory returns the cached Factory for kind, if present.
func (r *Registry) Factory(kind backend.Kind) (backend.Factory, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	f, ok := r.factories[factoryKey(kind)]
	return f, ok
}

// RegisterFactory installs the Factory used to instantiate Backends of
// the given Kind. Call once per Kind at process start.
func (r *Registry) RegisterFactory(kind backend.Kind, f backend.Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[factoryKey(kind)] = f
}

// Clear empties both caches. Never called implicitly; per spec §9 the
// registries are "never torn down implicitly."
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.infos = make(map[string]backend.PluginInfo)
	r.factories = make(map[string]backend.Factory)
}

// ForgetInfo drops a single cached PluginInfo, e.g. after a plugin file on
// disk changes and must be re-probed.
func (r *Registry) ForgetInfo(path string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.infos, path)
}

func factoryKey(kind backend.Kind) string { return kind.String() }
