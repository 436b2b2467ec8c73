package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Inspector backends
const (
	InspectorExec    = "exec"
	InspectorNetlink = "netlink"
)

// Output formats
const (
	OutputTable = "table"
	OutputJSON  = "json"
	OutputYAML  = "yaml"
)

// Settings represents the application configuration
type Settings struct {
	StateDir     string `mapstructure:"state_dir" yaml:"state_dir"`
	NATInterface string `mapstructure:"nat_interface" yaml:"nat_interface"`
	WebPort      int    `mapstructure:"web_port" yaml:"web_port"`
	LogLevel     string `mapstructure:"log_level" yaml:"log_level"`
	LogJSON      bool   `mapstructure:"log_json" yaml:"log_json"`
	DryRun       bool   `mapstructure:"dry_run" yaml:"dry_run"`
	Inspector    string `mapstructure:"inspector" yaml:"inspector"`
	Output       string `mapstructure:"output" yaml:"output"`
}

// GetConfigDir returns the config directory path (~/.vpcctl)
func GetConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".vpcctl"
	}
	return filepath.Join(home, ".vpcctl")
}

// GetConfigPath returns the config file path (~/.vpcctl/config.yaml)
func GetConfigPath() string {
	return filepath.Join(GetConfigDir(), "config.yaml")
}

// SetDefaults registers default values on v
func SetDefaults(v *viper.Viper) {
	v.SetDefault("state_dir", GetConfigDir())
	v.SetDefault("nat_interface", "eth0")
	v.SetDefault("web_port", 8000)
	v.SetDefault("log_level", "info")
	v.SetDefault("log_json", false)
	v.SetDefault("dry_run", false)
	v.SetDefault("inspector", InspectorExec)
	v.SetDefault("output", OutputTable)
}

// Load reads the optional config file at path into v and decodes the settings.
// A missing file is not an error.
func Load(v *viper.Viper, path string) (*Settings, error) {
	SetDefaults(v)
	v.SetEnvPrefix("VPCCTL")
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Validate checks enumerated settings
func (s *Settings) Validate() error {
	switch s.Inspector {
	case InspectorExec, InspectorNetlink:
	default:
		return fmt.Errorf("unknown inspector %q (supported: %s, %s)", s.Inspector, InspectorExec, InspectorNetlink)
	}
	switch s.Output {
	case OutputTable, OutputJSON, OutputYAML:
	default:
		return fmt.Errorf("unknown output %q (supported: %s, %s, %s)", s.Output, OutputTable, OutputJSON, OutputYAML)
	}
	if s.WebPort < 1 || s.WebPort > 65535 {
		return fmt.Errorf("web_port %d out of range", s.WebPort)
	}
	if s.StateDir == "" {
		return errors.New("state_dir must not be empty")
	}
	return nil
}

// Marshal renders the settings as YAML
func (s *Settings) Marshal() ([]byte, error) {
	data, err := yaml.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config: %w", err)
	}
	return data, nil
}

// SaveConfig writes the settings to path
func SaveConfig(s *Settings, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := s.Marshal()
	if err != nil {
		return err
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
