package modkit

import "crimecast/internal/modkit/repokit"

// Built is a plain struct with the fields modules care about
type Built struct {
	Name    string
	Ports   any
	TxHooks []repokit.BeginHook
}

// Build applies Option funcs to an internal buildCfg and returns a plain struct
// a statement timeout becomes the first tx hook
func Build(opts ...Option) Built {
	var c buildCfg
	for _, o := range opts {
		o(&c)
	}
	var hooks []repokit.BeginHook
	if c.timeout > 0 {
		hooks = append(hooks, repokit.StatementTimeout(c.timeout))
	}
	hooks = append(hooks, c.hooks...)
	return Built{
		Name:    c.name,
		Ports:   c.ports,
		TxHooks: hooks,
	}
}

// Runner returns the deps tx runner wrapped with the built hooks, or nil when pg is disabled
func (b Built) Runner(d Deps) repokit.TxRunner {
	if d.PG == nil {
		return nil
	}
	if len(b.TxHooks) == 0 {
		return d.PG
	}
	return repokit.WithBeginHooks(d.PG, b.TxHooks...)
}
