// Package config loads the SEC node configuration from YAML.
//
// A node configuration names the equipment, the network interfaces to serve
// on and the list of modules with their per-module settings. Initial
// parameter values given under a module's params section are applied after
// the module has started.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/SampleEnvironment/frappy/secop"
)

// Config is the root configuration of one SEC node.
type Config struct {
	Node      NodeConfig     `yaml:"node"`
	Interface Interface      `yaml:"interface"`
	Logging   LoggingConfig  `yaml:"logging"`
	Modules   []ModuleConfig `yaml:"modules"`
}

// NodeConfig identifies the equipment this node represents.
type NodeConfig struct {
	EquipmentID string `yaml:"equipment_id"`
	Description string `yaml:"description"`
}

// Interface describes the network endpoints the node serves on. A ws_port
// of zero leaves the websocket interface disabled.
type Interface struct {
	Bind      string `yaml:"bind"`
	Port      int    `yaml:"port"`
	WSPort    int    `yaml:"ws_port"`
	Discovery bool   `yaml:"discovery"`
}

// LoggingConfig controls log output.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// ModuleConfig configures one module instance.
type ModuleConfig struct {
	Name         string         `yaml:"name"`
	Class        string         `yaml:"class"`
	Description  string         `yaml:"description"`
	Group        string         `yaml:"group"`
	PollInterval float64        `yaml:"pollinterval"`
	SlowInterval float64        `yaml:"slowinterval"`
	Params       map[string]any `yaml:"params"`
}

// PollDuration returns the fast poll interval, or the given default when
// unset.
func (m *ModuleConfig) PollDuration(def time.Duration) time.Duration {
	if m.PollInterval <= 0 {
		return def
	}
	return time.Duration(m.PollInterval * float64(time.Second))
}

// SlowDuration returns the slow poll interval, or the given default when
// unset.
func (m *ModuleConfig) SlowDuration(def time.Duration) time.Duration {
	if m.SlowInterval <= 0 {
		return def
	}
	return time.Duration(m.SlowInterval * float64(time.Second))
}

// Load reads, parses and validates a node configuration file.
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	return cfg, nil
}

// defaultConfig returns a Config with sensible defaults.
func defaultConfig() *Config {
	return &Config{
		Interface: Interface{
			Bind:      "0.0.0.0",
			Port:      10767,
			Discovery: true,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []string

	if c.Node.EquipmentID == "" {
		errs = append(errs, "node.equipment_id is required")
	}
	if c.Interface.Port < 1 || c.Interface.Port > 65535 {
		errs = append(errs, "interface.port must be between 1 and 65535")
	}
	if c.Interface.WSPort < 0 || c.Interface.WSPort > 65535 {
		errs = append(errs, "interface.ws_port must be between 0 and 65535")
	}
	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, "logging.level must be one of debug, info, warn, error")
	}

	if len(c.Modules) == 0 {
		errs = append(errs, "at least one module must be configured")
	}
	seen := make(map[string]bool)
	for i, m := range c.Modules {
		if !secop.ValidName(m.Name) {
			errs = append(errs, fmt.Sprintf("modules[%d].name %q is not a valid module name", i, m.Name))
		}
		if seen[m.Name] {
			errs = append(errs, fmt.Sprintf("modules[%d].name %q is duplicated", i, m.Name))
		}
		seen[m.Name] = true
		if m.Class == "" {
			errs = append(errs, fmt.Sprintf("modules[%d].class is required", i))
		}
		if m.PollInterval < 0 || m.SlowInterval < 0 {
			errs = append(errs, fmt.Sprintf("modules[%d] poll intervals must not be negative", i))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}
	return nil
}
