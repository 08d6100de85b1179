package stash

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// Backend names accepted in Config.Backend.
const (
	BackendMemory = "memory"
	BackendFile   = "file"
	BackendRedis  = "redis"
	BackendBuntDB = "buntdb"
	BackendBadger = "badger"
)

// EnvPrefix prefixes every environment override, e.g. STASH_LIFETIME.
const EnvPrefix = "stash"

// RedisConfig locates the Redis server of the redis backend.
type RedisConfig struct {
	Addr     string `yaml:"addr" json:"addr" mapstructure:"addr" split_words:"true"`
	Password string `yaml:"password" json:"password" mapstructure:"password" split_words:"true"`
	DB       int    `yaml:"db" json:"db" mapstructure:"db" split_words:"true"`
	Prefix   string `yaml:"prefix" json:"prefix" mapstructure:"prefix" split_words:"true"`
}

// Config configures a Manager.
type Config struct {
	// Name is the session namespace. It is sanitized to [a-z0-9_-].
	Name string `yaml:"name" json:"name" mapstructure:"name" split_words:"true"`

	// Lifetime is the idle window after which a session expires.
	Lifetime time.Duration `yaml:"lifetime" json:"lifetime" mapstructure:"lifetime" split_words:"true"`

	// ExpireOnClose issues browser-session cookies instead of dated ones.
	ExpireOnClose bool `yaml:"expire_on_close" json:"expire_on_close" mapstructure:"expire_on_close" split_words:"true"`

	// Lottery holds the per-request GC odds as [hits, draws].
	Lottery []int `yaml:"lottery" json:"lottery" mapstructure:"lottery" split_words:"true"`

	CookieName   string `yaml:"cookie_name" json:"cookie_name" mapstructure:"cookie_name" split_words:"true"`
	GCSchedule   string `yaml:"gc_schedule" json:"gc_schedule" mapstructure:"gc_schedule" split_words:"true"`
	GCBatchLimit int    `yaml:"gc_batch_limit" json:"gc_batch_limit" mapstructure:"gc_batch_limit" split_words:"true"`

	// Backend selects the record store: memory, file, redis, buntdb, badger or
	// any name added with RegisterBackend.
	Backend string `yaml:"backend" json:"backend" mapstructure:"backend" split_words:"true"`

	// Path is the file, BuntDB or Badger location.
	Path string `yaml:"path" json:"path" mapstructure:"path" split_words:"true"`

	Redis RedisConfig `yaml:"redis" json:"redis" mapstructure:"redis" split_words:"true"`

	LogLevel string `yaml:"log_level" json:"log_level" mapstructure:"log_level" split_words:"true"`

	// Compression stores payloads of CompressMinSize bytes or more as zstd frames.
	Compression     bool `yaml:"compression" json:"compression" mapstructure:"compression" split_words:"true"`
	CompressMinSize int  `yaml:"compress_min_size" json:"compress_min_size" mapstructure:"compress_min_size" split_words:"true"`

	// RedactKeys are regular expressions; admin views mask matching attribute keys.
	RedactKeys []string `yaml:"redact_keys" json:"redact_keys" mapstructure:"redact_keys" split_words:"true"`
}

// DefaultConfig returns the configuration used when nothing is set.
func DefaultConfig() Config {
	return Config{}.withDefaults()
}

func (c Config) withDefaults() Config {
	if c.Name == "" {
		c.Name = "stash"
	}
	c.Name = SanitizeName(c.Name)
	if c.Lifetime <= 0 {
		c.Lifetime = 120 * time.Minute
	}
	if len(c.Lottery) != 2 {
		c.Lottery = []int{2, 100}
	}
	if c.CookieName == "" {
		c.CookieName = c.Name + "_cookie"
	}
	if c.GCSchedule == "" {
		c.GCSchedule = "@hourly"
	}
	if c.GCBatchLimit <= 0 {
		c.GCBatchLimit = 10000
	}
	if c.Backend == "" {
		c.Backend = BackendMemory
	}
	c.Backend = strings.ToLower(c.Backend)
	if c.Path == "" {
		switch c.Backend {
		case BackendFile:
			c.Path = filepath.Join(".stash", "sessions")
		case BackendBuntDB:
			c.Path = filepath.Join(".stash", "sessions.db")
		case BackendBadger:
			c.Path = filepath.Join(".stash", "badger")
		}
	}
	if c.Redis.Addr == "" {
		c.Redis.Addr = "localhost:6379"
	}
	if c.Redis.Prefix == "" {
		c.Redis.Prefix = "stash:"
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	return c
}

// Validate reports configuration errors that defaults cannot fix.
func (c Config) Validate() error {
	if _, ok := lookupBackend(c.Backend); !ok {
		return fmt.Errorf("unknown backend %q (registered: %s)", c.Backend, strings.Join(Backends(), ", "))
	}
	if c.Name == "" {
		return fmt.Errorf("session name is empty after sanitizing")
	}
	if c.Lottery[0] < 0 || c.Lottery[1] < 0 {
		return fmt.Errorf("lottery odds must not be negative: %v", c.Lottery)
	}
	return nil
}

// LoadConfig reads a YAML file (optional when path is empty), applies STASH_*
// environment overrides and fills in defaults.
func LoadConfig(path string) (Config, error) {
	cfg, err := ReadConfig(path)
	if err != nil {
		return cfg, err
	}
	cfg = cfg.withDefaults()
	return cfg, cfg.Validate()
}

// ReadConfig is LoadConfig without defaults, for callers that layer further
// overrides (such as command-line flags) before handing the result to New.
func ReadConfig(path string) (Config, error) {
	var cfg Config

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("failed to read config: %w", err)
		}

		var raw map[string]any
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return cfg, fmt.Errorf("failed to parse %s: %w", path, err)
		}

		dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
			DecodeHook:       mapstructure.StringToTimeDurationHookFunc(),
			WeaklyTypedInput: true,
			Result:           &cfg,
		})
		if err != nil {
			return cfg, err
		}
		if err := dec.Decode(raw); err != nil {
			return cfg, fmt.Errorf("invalid config %s: %w", path, err)
		}
	}

	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return cfg, fmt.Errorf("invalid environment: %w", err)
	}
	return cfg, nil
}

var unsafeName = regexp.MustCompile(`[^a-z0-9_\-]`)

// SanitizeName lowercases name and drops every character outside [a-z0-9_-].
func SanitizeName(name string) string {
	return unsafeName.ReplaceAllString(strings.ToLower(name), "")
}
