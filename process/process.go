// Package process holds the process-level settings shared by every store:
// target region, debug flag and the environment prefix applied to physical
// table names.
//
// A Config is created once by the host and passed to the stores it opens.
// The environment is resolved lazily from the GENERALDB_ENV variable (or
// any key "env" visible to the backing viper instance) the first time it
// is needed, unless it was set explicitly.
package process

import (
	"strings"
	"sync"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	// EnvPrefix is the prefix of environment variables read by New.
	EnvPrefix = "GENERALDB"

	// EnvironmentKey is the configuration key holding the environment prefix.
	EnvironmentKey = "env"
)

// Config holds process-wide settings. It is safe for concurrent use.
type Config struct {
	mu       sync.Mutex
	region   string
	debug    bool
	loadedAt int64 // epoch milliseconds of the last Configure
	env      *string
	source   *viper.Viper
}

// New returns a Config that resolves its environment from GENERALDB_ENV.
func New() *Config {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()
	return NewWithSource(v)
}

// NewWithSource returns a Config that resolves its environment from v.
func NewWithSource(v *viper.Viper) *Config {
	if v == nil {
		v = viper.New()
	}
	return &Config{source: v}
}

// LoadDotEnv loads variables from dotenv files into the process environment.
// Missing files are ignored. With no arguments ".env" and ".env.local" are read.
func LoadDotEnv(files ...string) {
	if len(files) == 0 {
		files = []string{".env", ".env.local"}
	}
	for _, f := range files {
		_ = godotenv.Load(f)
	}
}

// Configure sets the region and debug flag, stamps the load time and
// resolves the environment if it has not been set yet.
func (c *Config) Configure(region string, debug bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.region = region
	c.debug = debug
	c.loadedAt = time.Now().UnixMilli()
	if c.env == nil {
		env := c.resolve()
		c.env = &env
	}
}

// Region returns the AWS region stores connect to by default.
func (c *Config) Region() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.region
}

// Debug reports whether stores log every item they touch.
func (c *Config) Debug() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.debug
}

// IsLoaded reports whether the environment has been resolved or set.
func (c *Config) IsLoaded() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.env != nil
}

// Environment returns the environment prefix, resolving it on first use.
// An unset source yields the empty environment.
func (c *Config) Environment() string {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.env == nil {
		env := c.resolve()
		c.env = &env
	}
	return *c.env
}

// SetEnvironment overrides the environment prefix.
func (c *Config) SetEnvironment(env string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.env = &env
}

// LoadedTime returns the time Configure was last called, or the zero time
// if it never was.
func (c *Config) LoadedTime() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.loadedAt == 0 {
		return time.Time{}
	}
	return time.UnixMilli(c.loadedAt)
}

func (c *Config) resolve() string {
	return strings.TrimSpace(c.source.GetString(EnvironmentKey))
}
