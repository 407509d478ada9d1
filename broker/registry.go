package broker

import (
	"context"
	"fmt"
	"sync"
)

// Registry maintains a mapping of driver names to their dialers. Driver
// packages should register themselves using Register.
type Registry struct {
	mu      sync.RWMutex
	dialers map[string]Dialer
}

// DefaultRegistry is the global driver registry.
var DefaultRegistry = NewRegistry()

// NewRegistry creates a new driver registry.
func NewRegistry() *Registry {
	return &Registry{dialers: make(map[string]Dialer)}
}

// Register adds a driver dialer to the registry. The name should match the
// Driver config value (e.g. "amqp", "nats", "channel").
func (r *Registry) Register(name string, dialer Dialer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.dialers[name] = dialer
}

// Dial opens a connection using the registered dialer for name.
func (r *Registry) Dial(ctx context.Context, name string, cfg Config, onFault FaultHandler) (Connection, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}

	r.mu.RLock()
	dialer, ok := r.dialers[name]
	r.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("unknown broker driver: %q (registered: %v)", name, r.Names())
	}

	return dialer(ctx, cfg, onFault)
}

// Names returns the list of registered driver names.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.dialers))
	for name := range r.dialers {
		names = append(names, name)
	}
	return names
}

// Has returns true if a driver is registered with the given name.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.dialers[name]
	return ok
}

// Register adds a driver dialer to the default registry.
func Register(name string, dialer Dialer) {
	DefaultRegistry.Register(name, dialer)
}

// Dial opens a connection using the default registry.
func Dial(ctx context.Context, name string, cfg Config, onFault FaultHandler) (Connection, error) {
	return DefaultRegistry.Dial(ctx, name, cfg, onFault)
}
