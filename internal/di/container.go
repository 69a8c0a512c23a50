// Package di provides a small service container with typed tokens.
// Factories are lazy singletons: they run once on first resolution.
package di

import (
	"fmt"
	"sync"
)

// ServiceRegistry is the read side of the container.
type ServiceRegistry interface {
	// Get resolves a service by name, running its factory if needed.
	// Panics if the name is unknown - wiring errors are programmer errors.
	Get(name string) any
}

// Container is the write side: modules register services during startup.
type Container interface {
	ServiceRegistry
	// Register stores an already-constructed service.
	Register(name string, svc any)
	// RegisterFactory stores a lazy constructor for a service.
	RegisterFactory(name string, factory func(ServiceRegistry) any)
}

type container struct {
	mu        sync.Mutex
	services  map[string]any
	factories map[string]func(ServiceRegistry) any
}

// NewContainer creates an empty container.
func NewContainer() Container {
	return &container{
		services:  make(map[string]any),
		factories: make(map[string]func(ServiceRegistry) any),
	}
}

func (c *container) Register(name string, svc any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, dup := c.services[name]; dup {
		panic(fmt.Sprintf("di: %q already registered", name))
	}
	c.services[name] = svc
}

func (c *container) RegisterFactory(name string, factory func(ServiceRegistry) any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, dup := c.factories[name]; dup {
		panic(fmt.Sprintf("di: factory %q already registered", name))
	}
	c.factories[name] = factory
}

func (c *container) Get(name string) any {
	c.mu.Lock()
	if svc, ok := c.services[name]; ok {
		c.mu.Unlock()
		return svc
	}
	factory, ok := c.factories[name]
	c.mu.Unlock()

	if !ok {
		panic(fmt.Sprintf("di: unknown service %q", name))
	}

	// Run the factory outside the lock so factories can resolve dependencies.
	svc := factory(c)

	c.mu.Lock()
	defer c.mu.Unlock()
	if cached, ok := c.services[name]; ok {
		return cached
	}
	c.services[name] = svc
	return svc
}
