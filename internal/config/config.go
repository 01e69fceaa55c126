// Package config provides unified configuration loading for netlogolink.
// It supports loading from YAML files and environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config contains all netlogolink configuration settings.
type Config struct {
	// NetLogo locates the engine installation and picks workspace flags.
	NetLogo NetLogoConfig `json:"netlogo" yaml:"netlogo"`

	// JVM configures the managed runtime.
	JVM JVMConfig `json:"jvm" yaml:"jvm"`

	// Logging contains settings for operational logging.
	Logging LoggingConfig `json:"logging" yaml:"logging"`

	// Journal configures the operation journal.
	Journal JournalConfig `json:"journal" yaml:"journal"`
}

// NetLogoConfig describes the engine installation.
type NetLogoConfig struct {
	// Home is the NetLogo installation directory. Supports ${VAR} syntax.
	Home string `json:"home" yaml:"home"`

	// LinkJar is the link program archive. Defaults to Home/netlogolink.jar.
	LinkJar string `json:"link_jar,omitempty" yaml:"link_jar,omitempty"`

	// GUI opens workspaces with the engine's graphical interface.
	GUI bool `json:"gui" yaml:"gui"`

	// ThreeD opens workspaces in 3-D mode.
	ThreeD bool `json:"three_d" yaml:"three_d"`
}

// JVMConfig configures the JVM hosting the engine.
type JVMConfig struct {
	// JavaHome is used when the installation has no bundled JVM.
	JavaHome string `json:"java_home,omitempty" yaml:"java_home,omitempty"`

	// MaxHeap is the -Xmx value, e.g. "1024m" or "4g".
	MaxHeap string `json:"max_heap" yaml:"max_heap"`

	// Options are extra JVM options.
	Options []string `json:"options,omitempty" yaml:"options,omitempty"`

	// CallTimeout bounds each engine call made by the command line tools.
	// Zero waits indefinitely.
	CallTimeout time.Duration `json:"call_timeout,omitempty" yaml:"call_timeout,omitempty"`
}

// LoggingConfig configures netlogolink's logging behavior.
type LoggingConfig struct {
	// Level sets the log verbosity: "warn", "info" (default), "debug", or "trace".
	Level string `json:"level" yaml:"level"`

	// Format is "text" (default) or "json".
	Format string `json:"format,omitempty" yaml:"format,omitempty"`
}

// JournalConfig configures the SQLite operation journal.
type JournalConfig struct {
	// Path is the journal database file. Empty disables the journal.
	Path string `json:"path,omitempty" yaml:"path,omitempty"`
}

// Default returns a Config with sensible defaults.
func Default() *Config {
	return &Config{
		JVM: JVMConfig{
			MaxHeap: "1024m",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// DefaultPath returns ~/.netlogolink/config.yaml, or "" if the home
// directory is unknown.
func DefaultPath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(homeDir, ".netlogolink", "config.yaml")
}

// Load loads configuration from the default locations and environment variables.
// Order: defaults -> ~/.netlogolink/config.yaml -> environment variables
func Load() (*Config, error) {
	return LoadWithPath("")
}

// LoadWithPath is Load with an explicit config file. An explicit path must
// exist; the default path is optional.
func LoadWithPath(path string) (*Config, error) {
	config := Default()

	if path != "" {
		fileConfig, err := LoadFromFile(path)
		if err != nil {
			return nil, err
		}
		config = fileConfig
	} else if configPath := DefaultPath(); configPath != "" {
		if _, statErr := os.Stat(configPath); statErr == nil {
			fileConfig, loadErr := LoadFromFile(configPath)
			if loadErr != nil {
				return nil, fmt.Errorf("loading config file: %w", loadErr)
			}
			config = fileConfig
		}
	}

	applyEnvOverrides(config)

	return config, nil
}

// LoadFromFile loads configuration from a specific YAML file.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	config := Default()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	config.NetLogo.Home = expandEnvVars(config.NetLogo.Home)
	config.NetLogo.LinkJar = expandEnvVars(config.NetLogo.LinkJar)
	config.JVM.JavaHome = expandEnvVars(config.JVM.JavaHome)
	config.Journal.Path = expandEnvVars(config.Journal.Path)

	return config, nil
}

// Save writes the configuration as YAML, creating parent directories.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	return os.WriteFile(path, data, 0600)
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	validLevels := map[string]bool{"warn": true, "info": true, "debug": true, "trace": true}
	if c.Logging.Level != "" && !validLevels[c.Logging.Level] {
		return fmt.Errorf("invalid log level: %s (valid: warn, info, debug, trace, or empty for default)", c.Logging.Level)
	}

	validFormats := map[string]bool{"": true, "text": true, "json": true}
	if !validFormats[c.Logging.Format] {
		return fmt.Errorf("invalid log format: %s (valid: text, json)", c.Logging.Format)
	}

	if c.JVM.MaxHeap != "" && !validHeap(c.JVM.MaxHeap) {
		return fmt.Errorf("invalid max_heap: %s (expected a size such as 512m or 4g)", c.JVM.MaxHeap)
	}

	if c.JVM.CallTimeout < 0 {
		return fmt.Errorf("call_timeout must be non-negative, got %v", c.JVM.CallTimeout)
	}

	for _, opt := range c.JVM.Options {
		if !strings.HasPrefix(opt, "-") {
			return fmt.Errorf("invalid jvm option %q: options start with '-'", opt)
		}
	}

	return nil
}

// validHeap accepts the sizes -Xmx takes: digits with an optional k, m or
// g suffix.
func validHeap(s string) bool {
	digits := strings.TrimRight(strings.ToLower(s), "kmg")
	if len(s)-len(digits) > 1 || digits == "" {
		return false
	}
	_, err := strconv.ParseUint(digits, 10, 64)
	return err == nil
}

// applyEnvOverrides applies environment variable overrides to the config.
func applyEnvOverrides(config *Config) {
	if v := os.Getenv("NETLOGO_HOME"); v != "" {
		config.NetLogo.Home = v
	}

	if v := os.Getenv("NETLOGOLINK_JAR"); v != "" {
		config.NetLogo.LinkJar = v
	}

	if v := os.Getenv("NETLOGOLINK_GUI"); v != "" {
		config.NetLogo.GUI = v == "true" || v == "1"
	}

	if v := os.Getenv("JAVA_HOME"); v != "" && config.JVM.JavaHome == "" {
		config.JVM.JavaHome = v
	}

	if v := os.Getenv("NETLOGOLINK_MAX_HEAP"); v != "" {
		config.JVM.MaxHeap = v
	}

	if v := os.Getenv("NETLOGOLINK_CALL_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			config.JVM.CallTimeout = d
		}
	}

	if v := os.Getenv("NETLOGOLINK_LOG_LEVEL"); v != "" {
		config.Logging.Level = v
	}

	if v := os.Getenv("NETLOGOLINK_JOURNAL"); v != "" {
		config.Journal.Path = v
	}
}

// expandEnvVars expands ${VAR} patterns in a string with environment variable values.
func expandEnvVars(s string) string {
	if !strings.Contains(s, "${") {
		return s
	}
	return os.Expand(s, os.Getenv)
}
