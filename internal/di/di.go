// Package di provides a small dependency container with typed tokens.
// Services are registered under string names, either as values or as lazy
// factories resolved (once) on first lookup.
package di

import (
	"fmt"
	"sync"
)

// ServiceRegistry is the read side of the container.
type ServiceRegistry interface {
	// Get returns the service registered under name, invoking and caching
	// its factory if it has not been resolved yet. It panics when the name
	// is unknown; registration is a wiring-time concern, not a runtime one.
	Get(name string) any
}

// Container is the write side, used by modules during registration.
type Container interface {
	ServiceRegistry

	// Register stores an already-constructed value.
	Register(name string, value any)

	// RegisterFactory stores a lazy constructor for the service.
	RegisterFactory(name string, factory func(ServiceRegistry) any)
}

type container struct {
	mu        sync.RWMutex
	values    map[string]any
	factories map[string]func(ServiceRegistry) any
}

// NewContainer creates an empty container.
func NewContainer() Container {
	return &container{
		values:    make(map[string]any),
		factories: make(map[string]func(ServiceRegistry) any),
	}
}

func (c *container) Register(name string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.values[name] = value
}

func (c *container) RegisterFactory(name string, factory func(ServiceRegistry) any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.factories[name] = factory
}

func (c *container) Get(name string) any {
	c.mu.RLock()
	if v, ok := c.values[name]; ok {
		c.mu.RUnlock()
		return v
	}
	factory, ok := c.factories[name]
	c.mu.RUnlock()

	if !ok {
		panic(fmt.Sprintf("di: service %q is not registered", name))
	}

	// Resolve outside the lock so factories can Get their own dependencies.
	v := factory(c)

	c.mu.Lock()
	defer c.mu.Unlock()

	// Another goroutine may have resolved it in the meantime.
	if existing, ok := c.values[name]; ok {
		return existing
	}
	c.values[name] = v
	delete(c.factories, name)

	return v
}
