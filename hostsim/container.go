package hostsim

import (
	"fmt"
	"reflect"
	"sync"
)

// Container is a minimal service locator. Hosts whose object graphs never
// reference the bus directly register it here; probes fall back to the
// container when fields and getters come up empty.
type Container struct {
	mu      sync.Mutex
	entries map[reflect.Type]any
}

func NewContainer() *Container {
	return &Container{entries: make(map[reflect.Type]any)}
}

// Provide registers value under its dynamic type, replacing any previous
// entry of the same type.
func (c *Container) Provide(value any) {
	if value == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[reflect.TypeOf(value)] = value
}

// Resolve returns the entry matching t. Exact type matches win; otherwise
// the first entry assignable to t (an interface, typically) is returned.
func (c *Container) Resolve(t reflect.Type) (any, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if v, ok := c.entries[t]; ok {
		return v, nil
	}
	for et, v := range c.entries {
		if et.AssignableTo(t) {
			return v, nil
		}
	}
	return nil, fmt.Errorf("hostsim: nothing provided for type %s", t)
}

// Instances returns every provided value. Observers probe these with the
// same accept logic they apply to fields and getters.
func (c *Container) Instances() []any {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]any, 0, len(c.entries))
	for _, v := range c.entries {
		out = append(out, v)
	}
	return out
}

// Clear drops every entry. Hosts call this on session teardown.
func (c *Container) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[reflect.Type]any)
}
