// Package container is the composition root registry: services are registered
// under string keys with explicit factories and resolved on demand.
package container

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
)

var (
	// ErrUnresolvableDependency is returned when a key has no binding or a
	// factory (indirectly) depends on itself.
	ErrUnresolvableDependency = errors.New("unresolvable dependency")
	// ErrConcreteNotFound is returned when an alias points at a key that was
	// never registered.
	ErrConcreteNotFound = errors.New("concrete binding not found")
	// ErrNotInstantiable is returned for abstract bindings, failing factories,
	// factories that produce nil and values of the wrong type.
	ErrNotInstantiable = errors.New("binding is not instantiable")
)

// ResolutionError describes why a key could not be built.
type ResolutionError struct {
	Key  string
	Kind error
	Err  error
}

func (e *ResolutionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("container: %s %q: %v", e.Kind, e.Key, e.Err)
	}
	return fmt.Sprintf("container: %s %q", e.Kind, e.Key)
}

func (e *ResolutionError) Is(target error) bool {
	return target == e.Kind
}

func (e *ResolutionError) Unwrap() error {
	return e.Err
}

// Params carries explicit values for a single resolution.
type Params map[string]any

// Factory builds a service. It resolves its own dependencies through c.
type Factory func(c *Container, params Params) (any, error)

type lifecycle int

const (
	transient lifecycle = iota
	singleton
)

type binding struct {
	factory   Factory
	alias     string
	lifecycle lifecycle
}

type registry struct {
	mu        sync.Mutex
	bindings  map[string]*binding
	instances map[string]any
	locks     map[string]*sync.Mutex
}

// Container is a handle on a registry. Factories receive a child handle that
// remembers the keys being built, which is how cycles are reported.
type Container struct {
	reg   *registry
	chain []string
}

func New() *Container {
	return &Container{reg: &registry{
		bindings:  make(map[string]*binding),
		instances: make(map[string]any),
		locks:     make(map[string]*sync.Mutex),
	}}
}

// Bind registers a transient factory. A nil factory declares an abstract key
// that cannot be built until rebound.
func (c *Container) Bind(key string, factory Factory) {
	c.set(key, &binding{factory: factory, lifecycle: transient})
}

// Singleton registers a factory whose first result is cached for the
// container's lifetime.
func (c *Container) Singleton(key string, factory Factory) {
	c.set(key, &binding{factory: factory, lifecycle: singleton})
}

// Instance registers an already built value.
func (c *Container) Instance(key string, value any) {
	c.reg.mu.Lock()
	defer c.reg.mu.Unlock()
	c.reg.bindings[key] = &binding{lifecycle: singleton}
	c.reg.instances[key] = value
}

// Alias makes key resolve whatever target resolves to.
func (c *Container) Alias(key, target string) {
	c.set(key, &binding{alias: target})
}

func (c *Container) set(key string, b *binding) {
	c.reg.mu.Lock()
	defer c.reg.mu.Unlock()
	c.reg.bindings[key] = b
	delete(c.reg.instances, key)
}

func (c *Container) Has(key string) bool {
	c.reg.mu.Lock()
	defer c.reg.mu.Unlock()
	_, ok := c.reg.bindings[key]
	return ok
}

// Keys lists every registered key, sorted.
func (c *Container) Keys() []string {
	c.reg.mu.Lock()
	defer c.reg.mu.Unlock()
	keys := make([]string, 0, len(c.reg.bindings))
	for k := range c.reg.bindings {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (c *Container) Resolve(key string) (any, error) {
	return c.ResolveWith(key, nil)
}

// ResolveWith builds key using explicit params. A singleton that already
// exists is returned as is and params are ignored.
func (c *Container) ResolveWith(key string, params Params) (any, error) {
	c.reg.mu.Lock()
	if inst, ok := c.reg.instances[key]; ok {
		c.reg.mu.Unlock()
		return inst, nil
	}
	b, ok := c.reg.bindings[key]
	c.reg.mu.Unlock()

	if !ok {
		return nil, c.fail(key, ErrUnresolvableDependency, nil)
	}
	if c.inChain(key) {
		return nil, c.fail(key, ErrUnresolvableDependency,
			fmt.Errorf("dependency cycle %s -> %s", strings.Join(c.chain, " -> "), key))
	}

	if b.alias != "" {
		if !c.Has(b.alias) {
			return nil, c.fail(key, ErrConcreteNotFound, fmt.Errorf("alias target %q is not registered", b.alias))
		}
		return c.child(key).ResolveWith(b.alias, params)
	}
	if b.factory == nil {
		return nil, c.fail(key, ErrNotInstantiable, errors.New("abstract binding"))
	}
	if b.lifecycle == singleton {
		return c.buildSingleton(key, b, params)
	}
	return c.build(key, b, params)
}

func (c *Container) buildSingleton(key string, b *binding, params Params) (any, error) {
	lock := c.keyLock(key)
	lock.Lock()
	defer lock.Unlock()

	c.reg.mu.Lock()
	if inst, ok := c.reg.instances[key]; ok {
		c.reg.mu.Unlock()
		return inst, nil
	}
	c.reg.mu.Unlock()

	inst, err := c.build(key, b, params)
	if err != nil {
		return nil, err
	}

	c.reg.mu.Lock()
	c.reg.instances[key] = inst
	c.reg.mu.Unlock()
	return inst, nil
}

func (c *Container) build(key string, b *binding, params Params) (any, error) {
	inst, err := b.factory(c.child(key), params)
	if err != nil {
		var resErr *ResolutionError
		if errors.As(err, &resErr) {
			return nil, err
		}
		return nil, c.fail(key, ErrNotInstantiable, err)
	}
	if inst == nil {
		return nil, c.fail(key, ErrNotInstantiable, errors.New("factory returned nil"))
	}
	return inst, nil
}

func (c *Container) keyLock(key string) *sync.Mutex {
	c.reg.mu.Lock()
	defer c.reg.mu.Unlock()
	l, ok := c.reg.locks[key]
	if !ok {
		l = &sync.Mutex{}
		c.reg.locks[key] = l
	}
	return l
}

func (c *Container) child(key string) *Container {
	chain := make([]string, len(c.chain), len(c.chain)+1)
	copy(chain, c.chain)
	return &Container{reg: c.reg, chain: append(chain, key)}
}

func (c *Container) inChain(key string) bool {
	for _, k := range c.chain {
		if k == key {
			return true
		}
	}
	return false
}

func (c *Container) fail(key string, kind, err error) *ResolutionError {
	if err == nil && len(c.chain) > 0 {
		err = fmt.Errorf("required by %s", strings.Join(c.chain, " -> "))
	}
	return &ResolutionError{Key: key, Kind: kind, Err: err}
}
