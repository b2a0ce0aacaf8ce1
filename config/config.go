// Package config handles configuration persistence for pplctl.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"gopkg.in/yaml.v3"
)

// ConfigListenerID is a unique identifier for a config change listener.
type ConfigListenerID string

// Config is the on-disk configuration for pplctl: a namespace for
// cache/eventlog key isolation, the optional cache/eventlog/status
// collaborators, and a Timeout that Validate requires to be positive. The
// CLIs take their per-query timeout from their -timeout flag, not from
// this field.
type Config struct {
	Namespace string        `yaml:"namespace"`
	Timeout   time.Duration `yaml:"timeout"`

	Cache    CacheConfig    `yaml:"cache,omitempty"`
	Eventlog EventlogConfig `yaml:"eventlog,omitempty"`
	Status   StatusConfig   `yaml:"status,omitempty"`

	dataMu          sync.Mutex                  `yaml:"-"`
	changeListeners map[ConfigListenerID]func() `yaml:"-"`
	listenersMu     sync.RWMutex                 `yaml:"-"`
	listenerCounter uint64                       `yaml:"-"`
}

// CacheConfig holds the optional Valkey/Redis idempotency cache settings.
type CacheConfig struct {
	Enabled bool          `yaml:"enabled"`
	Address string        `yaml:"address"` // host:port
	TTL     time.Duration `yaml:"ttl,omitempty"`
}

// EventlogConfig holds the optional Kafka event-mirror settings.
type EventlogConfig struct {
	Enabled bool     `yaml:"enabled"`
	Brokers []string `yaml:"brokers"`
	Topic   string   `yaml:"topic"`
}

// StatusConfig holds the optional read-only HTTP status surface settings.
type StatusConfig struct {
	Enabled bool   `yaml:"enabled"`
	Address string `yaml:"address"` // host:port
}

// DefaultConfig returns a Config with the defaults used when no file
// exists yet.
func DefaultConfig() *Config {
	return &Config{
		Timeout: 2 * time.Second,
		Cache:   CacheConfig{TTL: 24 * time.Hour},
	}
}

// DefaultPath returns the default config file location under the user's
// home directory.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "config.yaml"
	}
	return filepath.Join(home, ".rbridge", "config.yaml")
}

// Load reads configuration from a YAML file, falling back to defaults
// (and writing them out) when the file does not yet exist.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, err
		}
		if err := cfg.Save(path); err != nil {
			return nil, err
		}
		return cfg, nil
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// AddOnChangeListener registers a callback invoked (in its own goroutine)
// whenever the config is saved. Returns an ID usable with
// RemoveOnChangeListener.
func (c *Config) AddOnChangeListener(cb func()) ConfigListenerID {
	c.listenersMu.Lock()
	defer c.listenersMu.Unlock()

	if c.changeListeners == nil {
		c.changeListeners = make(map[ConfigListenerID]func())
	}
	id := ConfigListenerID(fmt.Sprintf("listener-%d", atomic.AddUint64(&c.listenerCounter, 1)))
	c.changeListeners[id] = cb
	return id
}

// RemoveOnChangeListener removes a previously registered listener.
func (c *Config) RemoveOnChangeListener(id ConfigListenerID) {
	c.listenersMu.Lock()
	defer c.listenersMu.Unlock()
	delete(c.changeListeners, id)
}

func (c *Config) notifyChangeListeners() {
	c.listenersMu.RLock()
	listeners := make([]func(), 0, len(c.changeListeners))
	for _, cb := range c.changeListeners {
		listeners = append(listeners, cb)
	}
	c.listenersMu.RUnlock()
	for _, cb := range listeners {
		go cb()
	}
}

// Lock acquires the config data mutex for exclusive access. Use before
// modifying fields directly, then call UnlockAndSave.
func (c *Config) Lock() { c.dataMu.Lock() }

// Unlock releases the config data mutex without saving.
func (c *Config) Unlock() { c.dataMu.Unlock() }

// Save acquires the lock, marshals, writes, and notifies listeners.
func (c *Config) Save(path string) error {
	c.dataMu.Lock()
	return c.saveLocked(path)
}

// UnlockAndSave marshals, releases the lock, writes, and notifies. The
// caller must already hold the lock via Lock().
func (c *Config) UnlockAndSave(path string) error {
	return c.saveLocked(path)
}

func (c *Config) saveLocked(path string) error {
	data, err := yaml.Marshal(c)
	c.dataMu.Unlock()
	if err != nil {
		return err
	}

	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return err
	}
	c.notifyChangeListeners()
	return nil
}

// Validate reports whether the config is internally consistent enough to
// start pplctl/ercictl.
func (c *Config) Validate() error {
	if c.Timeout <= 0 {
		return fmt.Errorf("config: timeout must be positive")
	}
	if c.Cache.Enabled && c.Cache.Address == "" {
		return fmt.Errorf("config: cache.address is required when cache.enabled is true")
	}
	if c.Eventlog.Enabled && (len(c.Eventlog.Brokers) == 0 || c.Eventlog.Topic == "") {
		return fmt.Errorf("config: eventlog.brokers and eventlog.topic are required when eventlog.enabled is true")
	}
	if c.Status.Enabled && c.Status.Address == "" {
		return fmt.Errorf("config: status.address is required when status.enabled is true")
	}
	return nil
}
