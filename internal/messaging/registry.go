package messaging

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Provider names registered by this package.
const (
	ProviderDefault = "default"
	ProviderNull    = "null"
	ProviderRich    = "rich"
)

// Factory builds a Provider from options.
type Factory func(opts Options) (Provider, error)

var (
	mu        sync.RWMutex
	factories = make(map[string]Factory)
)

func init() {
	Register(ProviderDefault, func(opts Options) (Provider, error) { return NewDefault(opts), nil })
	Register(ProviderNull, func(Options) (Provider, error) { return Null{}, nil })
	Register(ProviderRich, func(opts Options) (Provider, error) { return NewRich(opts), nil })
}

// Register makes a provider factory available by name. Registering the same
// name twice panics.
func Register(name string, factory Factory) {
	name = normalizeName(name)
	mu.Lock()
	defer mu.Unlock()

	if _, exists := factories[name]; exists {
		panic(fmt.Sprintf("messaging: duplicate registration for %q", name))
	}
	factories[name] = factory
}

// New builds the provider registered under name.
func New(name string, opts Options) (Provider, error) {
	name = normalizeName(name)
	mu.RLock()
	factory, ok := factories[name]
	mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("messaging: unknown provider %q", name)
	}
	return factory(opts)
}

// Registered reports whether a provider exists under name.
func Registered(name string) bool {
	mu.RLock()
	defer mu.RUnlock()
	_, ok := factories[normalizeName(name)]
	return ok
}

// Available returns the registered provider names in sorted order.
func Available() []string {
	mu.RLock()
	defer mu.RUnlock()

	names := make([]string, 0, len(factories))
	for name := range factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func normalizeName(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return ProviderDefault
	}
	return name
}
