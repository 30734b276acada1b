package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

// appName is the application name used for directories and display.
const appName = "pingraph"

// duration wraps time.Duration so TOML values can be written as "30s".
type duration struct {
	time.Duration
}

func (d *duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = parsed
	return nil
}

// redisConfig selects a Redis cache backend instead of the file cache.
type redisConfig struct {
	Addr     string `toml:"addr"`
	Password string `toml:"password"`
	DB       int    `toml:"db"`
}

// fileConfig is the on-disk configuration. Every field has a flag
// counterpart; flags win when both are set.
type fileConfig struct {
	Registries []string     `toml:"registries"`
	Blacklist  []string     `toml:"blacklist"`
	CacheDepth int          `toml:"cache_depth"`
	Timeout    duration     `toml:"timeout"`
	CacheTTL   duration     `toml:"cache_ttl"`
	AuthToken  string       `toml:"auth_token"`
	Redis      *redisConfig `toml:"redis"`
}

// loadConfig reads the TOML configuration at path. An empty path falls
// back to the default location, where a missing file is not an error; an
// explicitly given path must exist.
func loadConfig(path string) (*fileConfig, error) {
	explicit := path != ""
	if !explicit {
		var err error
		path, err = defaultConfigPath()
		if err != nil {
			return &fileConfig{}, nil
		}
	}

	cfg := &fileConfig{}
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		if os.IsNotExist(err) && !explicit {
			return &fileConfig{}, nil
		}
		return nil, fmt.Errorf("load config %s: %w", path, err)
	}
	if cfg.AuthToken == "" {
		cfg.AuthToken = os.Getenv("GITHUB_TOKEN")
	}
	return cfg, nil
}

// defaultConfigPath returns the XDG config location
// (~/.config/pingraph/config.toml).
func defaultConfigPath() (string, error) {
	if configHome := os.Getenv("XDG_CONFIG_HOME"); configHome != "" {
		return filepath.Join(configHome, appName, "config.toml"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", appName, "config.toml"), nil
}

// cacheDir returns the cache directory using the XDG standard
// (~/.cache/pingraph/).
func cacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}
