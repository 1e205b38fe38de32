// ABOUTME: Recorder configuration
// ABOUTME: Loads and validates the optional YAML config file
package config

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Config is the application-level recorder configuration. Flags in cmd
// override individual fields.
type Config struct {
	OutputDir      string   `yaml:"output_dir" validate:"required"`
	Container      string   `yaml:"container" validate:"oneof=wav caf"`
	Encoding       string   `yaml:"encoding" validate:"oneof=float32 int16"`
	Mode           string   `yaml:"mode" validate:"oneof=mixed system mic"`
	InputBackend   string   `yaml:"input_backend" validate:"oneof=malgo portaudio"`
	InputDevice    string   `yaml:"input_device"`
	MonitorAddr    string   `yaml:"monitor_addr"`
	ProcessFilters []string `yaml:"process_filters"`
}

// Default returns the configuration used when no file is present.
func Default() Config {
	return Config{
		OutputDir:    "recordings",
		Container:    "wav",
		Encoding:     "float32",
		Mode:         "mixed",
		InputBackend: "malgo",
	}
}

// Load reads path over the defaults and validates the result. An empty path
// returns the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config file: %w", err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return cfg, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}
