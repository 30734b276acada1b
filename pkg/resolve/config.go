package resolve

import "time"

const (
	// DefaultTimeout bounds each upstream request.
	DefaultTimeout = 30 * time.Second
	// DefaultCacheTTL is how long registry metadata stays fresh.
	DefaultCacheTTL = 24 * time.Hour
)

// Config is the immutable per-run configuration, assembled by the option
// layer before a session starts.
type Config struct {
	Registries []string      // ordered registry base URLs, first preferred
	AuthToken  string        // bearer token for VCS API requests, optional
	Timeout    time.Duration // per-request timeout
	CacheTTL   time.Duration // metadata cache TTL
	Refresh    bool          // bypass the metadata cache for reads
	IncludeDev bool          // also resolve development dependencies
	Blacklist  []string      // names treated as unresolvable, skipped as deps
	CacheDepth int           // recursion depth from which preloaded entries
	// are trusted; 0 trusts always, negative never
}

// WithDefaults fills zero values with defaults.
func (c Config) WithDefaults() Config {
	cfg := c
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = DefaultCacheTTL
	}
	return cfg
}
