package modkit

import (
	"time"

	"crimecast/internal/modkit/repokit"
)

// Option mutates build configuration for a module
type Option func(*buildCfg)

// buildCfg is internal wiring state for options
type buildCfg struct {
	name    string
	ports   any
	hooks   []repokit.BeginHook
	timeout time.Duration
}

// WithName sets a module name used in logs and registry
func WithName(name string) Option {
	return func(c *buildCfg) { c.name = name }
}

// WithPorts injects cross module ports declared by another module
// the concrete type is owned by the importing module
func WithPorts[T any](p T) Option {
	return func(c *buildCfg) { c.ports = p }
}

// WithTxHooks adds hooks that run at the start of every module transaction
func WithTxHooks(h ...repokit.BeginHook) Option {
	return func(c *buildCfg) { c.hooks = append(c.hooks, h...) }
}

// WithStatementTimeout bounds every statement inside module transactions
func WithStatementTimeout(d time.Duration) Option {
	return func(c *buildCfg) { c.timeout = d }
}
