package demo

import (
	"fmt"

	"github.com/SampleEnvironment/frappy/config"
	"github.com/SampleEnvironment/frappy/logger"
	"github.com/SampleEnvironment/frappy/module"
)

// Builder creates a module instance from its configuration.
type Builder func(name string, log logger.Logger) (*module.Module, error)

// builders maps the class names usable in a node configuration.
var builders = map[string]Builder{
	"simulation.TempController": NewTempController,
	"simulation.Switch":         NewSwitch,
	"simulation.Sensor": func(name string, log logger.Logger) (*module.Module, error) {
		return NewSensor(name, nil, log)
	},
}

// Classes returns the known class names.
func Classes() []string {
	names := make([]string, 0, len(builders))
	for name := range builders {
		names = append(names, name)
	}
	return names
}

// Build instantiates one configured module: it creates the device class,
// applies the descriptive properties and poll intervals, and schedules the
// configured initial parameter values to be written at module start.
func Build(cfg config.ModuleConfig, log logger.Logger) (*module.Module, error) {
	builder, ok := builders[cfg.Class]
	if !ok {
		return nil, fmt.Errorf("unknown module class %q for module %q", cfg.Class, cfg.Name)
	}
	m, err := builder(cfg.Name, log)
	if err != nil {
		return nil, err
	}

	m.SetProperty("description", cfg.Description)
	if cfg.Group != "" {
		m.SetProperty("group", cfg.Group)
	}
	m.PollInterval = cfg.PollDuration(module.DefaultPollInterval)
	m.SlowInterval = cfg.SlowDuration(module.DefaultSlowInterval)

	if len(cfg.Params) > 0 {
		params := cfg.Params
		m.OnStart(func() error {
			for name, value := range params {
				if _, err := m.Write(name, value); err != nil {
					return fmt.Errorf("initial value for %s:%s: %w", cfg.Name, name, err)
				}
			}
			return nil
		})
	}
	return m, nil
}
