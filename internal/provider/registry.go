package provider

import "insightpipeline/internal/config"

// Registry is the set of adapters usable in a session, keyed by id.
// Registration is config-only (spec.md §9, "Pluggable adapters"): adding a
// provider never touches the core type system.
type Registry struct {
	adapters map[string]Adapter
}

// NewRegistry builds a Registry from configuration, silently omitting any
// adapter whose API key is absent except arxiv, which needs none
// (spec.md §6).
func NewRegistry(cfg *config.Config) *Registry {
	r := &Registry{adapters: make(map[string]Adapter)}

	capFor := func(id string) int {
		if c, ok := cfg.ProviderCaps[id]; ok {
			return c
		}
		return cfg.ProviderCaps["default"]
	}

	if cfg.Providers.Brave != "" {
		r.adapters["brave"] = NewBrave(cfg.Providers.Brave, cfg.ProviderTimeout, capFor("brave"))
	}
	if cfg.Providers.Google != "" {
		r.adapters["google"] = NewGoogle(cfg.Providers.Google, "", cfg.ProviderTimeout, capFor("google"))
	}
	if cfg.Providers.Tavily != "" {
		r.adapters["tavily"] = NewTavily(cfg.Providers.Tavily, cfg.ProviderTimeout, capFor("tavily"))
	}
	if cfg.Providers.News != "" {
		r.adapters["news"] = NewNews(cfg.Providers.News, cfg.ProviderTimeout, capFor("news"))
	}
	r.adapters["arxiv"] = NewArxiv(cfg.ProviderTimeout, capFor("arxiv"))

	return r
}

// NewRegistryFromAdapters builds a Registry directly from a fixed adapter
// set, bypassing environment configuration. Used by tests and by any
// caller assembling adapters itself (e.g. mocked providers).
func NewRegistryFromAdapters(adapters ...Adapter) *Registry {
	r := &Registry{adapters: make(map[string]Adapter, len(adapters))}
	for _, a := range adapters {
		r.adapters[a.ID()] = a
	}
	return r
}

// Get returns the adapter for id, or nil if unconfigured.
func (r *Registry) Get(id string) Adapter { return r.adapters[id] }

// All returns every configured adapter.
func (r *Registry) All() []Adapter {
	out := make([]Adapter, 0, len(r.adapters))
	for _, a := range r.adapters {
		out = append(out, a)
	}
	return out
}

// ByCategory returns every configured adapter in the given category.
func (r *Registry) ByCategory(cat Category) []Adapter {
	var out []Adapter
	for _, a := range r.adapters {
		if a.Category() == cat {
			out = append(out, a)
		}
	}
	return out
}

// IDs returns the configured adapter ids.
func (r *Registry) IDs() []string {
	ids := make([]string, 0, len(r.adapters))
	for id := range r.adapters {
		ids = append(ids, id)
	}
	return ids
}
