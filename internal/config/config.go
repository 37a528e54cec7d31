package config

import (
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration unmarshals YAML strings like "30s" via time.ParseDuration.
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}

func (d Duration) Std() time.Duration { return time.Duration(d) }

type Config struct {
	// Shell is the shell binary used for new sessions.
	Shell string `yaml:"shell"`
	// DefaultTimeout applies to CLI commands when no --timeout is given.
	// Zero means no timeout.
	DefaultTimeout Duration `yaml:"default_timeout"`
	// GracePeriod is how long a session keeps reading for the completion
	// token after a timeout interrupt.
	GracePeriod Duration `yaml:"grace_period"`
	// Env is merged into the parent environment for new sessions.
	Env map[string]string `yaml:"env"`
	// History toggles recording CLI executions to the state database.
	History *bool `yaml:"history"`
}

// Load reads the config from ~/.config/bashautom/config.yaml.
// Returns defaults if the file doesn't exist.
func Load() (*Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return withDefaults(&Config{}), nil
	}
	return LoadFrom(filepath.Join(home, ".config", "bashautom", "config.yaml"))
}

// LoadFrom reads the config from an explicit path.
func LoadFrom(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return withDefaults(&Config{}), nil
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	return withDefaults(&cfg), nil
}

// HistoryEnabled reports whether CLI executions should be recorded.
func (c *Config) HistoryEnabled() bool {
	return c.History == nil || *c.History
}

// SessionEnv returns the parent environment with the configured
// overrides appended, or nil when there are none (inherit as-is).
func (c *Config) SessionEnv() []string {
	if len(c.Env) == 0 {
		return nil
	}
	env := os.Environ()
	for k, v := range c.Env {
		env = append(env, k+"="+v)
	}
	return env
}

func withDefaults(cfg *Config) *Config {
	if cfg.Shell == "" {
		cfg.Shell = "/bin/bash"
	}
	if cfg.GracePeriod <= 0 {
		cfg.GracePeriod = Duration(3 * time.Second)
	}
	return cfg
}
