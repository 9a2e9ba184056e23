package logger

import (
	"sync"
)

// Component names shared by the injector packages.
const (
	ComponentDI        = "di"
	ComponentConfig    = "config"
	ComponentBootstrap = "bootstrap"
)

// DefaultComponents are seeded by RegisterDefaults when no names are given.
var DefaultComponents = []string{ComponentDI, ComponentConfig, ComponentBootstrap}

var named = struct {
	sync.RWMutex
	byName map[string]*Logger
}{byName: make(map[string]*Logger)}

// Register binds l to a component name, replacing any earlier binding.
func Register(name string, l *Logger) {
	named.Lock()
	named.byName[name] = l
	named.Unlock()
}

// Get returns the logger bound to name. Unbound names fall back to the
// global logger tagged with the component.
func Get(name string) *Logger {
	named.RLock()
	l, ok := named.byName[name]
	named.RUnlock()
	if ok {
		return l
	}
	return GetGlobalLogger().WithComponent(name)
}

// RegisterDefaults binds component-tagged children of the global logger,
// one per name, or DefaultComponents when names is empty. Call it after Init
// so the bindings pick up the configured output.
func RegisterDefaults(names ...string) {
	if len(names) == 0 {
		names = DefaultComponents
	}
	base := GetGlobalLogger()
	for _, name := range names {
		Register(name, base.WithComponent(name))
	}
}
