package bridge

import (
	"sync"

	"github.com/tidwall/btree"
)

// Registry maps module names to modules. All operations are serialized, so a
// dispatch racing a late registration sees either the old or the new module,
// never a partial update.
type Registry struct {
	mu      sync.RWMutex
	modules btree.Map[string, Module]
}

func NewRegistry() *Registry {
	return &Registry{}
}

type registerOptions struct {
	allowOverwrite bool
}

type RegisterOption func(*registerOptions)

// NoOverwrite keeps an existing module with the same name in place.
func NoOverwrite() RegisterOption {
	return func(o *registerOptions) { o.allowOverwrite = false }
}

// Register inserts m under m.Name(). It returns false only when the name is
// taken and NoOverwrite was given; the existing module is left untouched.
func (r *Registry) Register(m Module, opts ...RegisterOption) bool {
	o := registerOptions{allowOverwrite: true}
	for _, opt := range opts {
		opt(&o)
	}

	name := m.Name()

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.modules.Get(name); exists && !o.allowOverwrite {
		return false
	}
	r.modules.Set(name, m)
	return true
}

// RegisterIf registers m only when cond holds, typically a feature flag.
func (r *Registry) RegisterIf(cond bool, m Module, opts ...RegisterOption) bool {
	if !cond {
		return false
	}
	return r.Register(m, opts...)
}

func (r *Registry) Module(name string) (Module, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.modules.Get(name)
}

func (r *Registry) Has(name string) bool {
	_, ok := r.Module(name)
	return ok
}

// Names lists registered module names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.modules.Keys()
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.modules.Len()
}

func (r *Registry) Unregister(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.modules.Delete(name)
	return ok
}

func (r *Registry) RemoveAll() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.modules = btree.Map[string, Module]{}
}
