// Package daemon holds the long-running process configuration.
package daemon

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

// Config is the daemon configuration, loaded from TOML.
type Config struct {
	API       APIConfig       `toml:"api"`
	Store     StoreConfig     `toml:"store"`
	Scheduler SchedulerConfig `toml:"scheduler"`
	Wallet    WalletConfig    `toml:"wallet"`
}

// APIConfig configures the HTTP API server.
type APIConfig struct {
	Host           string `toml:"host"`
	Port           int    `toml:"port"`
	MetricsEnabled bool   `toml:"metrics_enabled"`
	// Origin is the public origin used when producing invite links.
	Origin string `toml:"origin"`
}

// Addr returns the host:port listen address.
func (a APIConfig) Addr() string {
	return fmt.Sprintf("%s:%d", a.Host, a.Port)
}

// StoreConfig configures the sqlite chain directory.
type StoreConfig struct {
	Path string `toml:"path"`
}

// SchedulerConfig configures the rotation tick loop.
type SchedulerConfig struct {
	TickInterval string `toml:"tick_interval"`
}

// TickDuration parses the tick interval, falling back to one second.
func (s SchedulerConfig) TickDuration() time.Duration {
	d, err := time.ParseDuration(s.TickInterval)
	if err != nil || d <= 0 {
		return time.Second
	}
	return d
}

// WalletConfig configures the ledger/wallet collaborator.
type WalletConfig struct {
	// Mode is "memory" (process-local, for development) or "http".
	Mode     string `toml:"mode"`
	Endpoint string `toml:"endpoint"`
}

// DefaultConfig returns production defaults.
func DefaultConfig() Config {
	return Config{
		API: APIConfig{
			Host:           "127.0.0.1",
			Port:           8754,
			MetricsEnabled: true,
			Origin:         "http://127.0.0.1:8754",
		},
		Store: StoreConfig{
			Path: filepath.Join(Home(), "directory.db"),
		},
		Scheduler: SchedulerConfig{
			TickInterval: "1s",
		},
		Wallet: WalletConfig{
			Mode: "memory",
		},
	}
}

// Home returns the rotatechain state directory.
func Home() string {
	if env := os.Getenv("ROTATECHAIN_HOME"); env != "" {
		return env
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".rotatechain")
}

// ConfigPath is the default config file location.
func ConfigPath() string {
	return filepath.Join(Home(), "config.toml")
}

// Load reads the config file at path, layering it over the defaults. A
// missing file is not an error — defaults apply.
func Load(path string) (Config, error) {
	cfg := DefaultConfig()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}
