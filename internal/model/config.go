package model

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// EndpointSettings holds the backend server address. Host and Port are kept
// as strings because both come straight from user input or the environment.
type EndpointSettings struct {
	Host string `mapstructure:"host" yaml:"host"`
	Port string `mapstructure:"port" yaml:"port"`
}

// BaseURL returns the API root for these settings.
func (s EndpointSettings) BaseURL() string {
	return fmt.Sprintf("http://%s:%s/api", s.Host, s.Port)
}

// Complete reports whether both fields are present.
func (s EndpointSettings) Complete() bool {
	return s.Host != "" && s.Port != ""
}

// DefaultConfigPath returns the default path for the configuration file,
// located at ~/.config/webmail/config.yaml.
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "config.yaml")
	}
	return filepath.Join(home, ".config", "webmail", "config.yaml")
}

// DefaultEndpointSettings returns the compiled-in server address, overridable
// through WEBMAIL_SERVER_HOST and WEBMAIL_SERVER_PORT (loaded from .env by
// the entry point).
func DefaultEndpointSettings() EndpointSettings {
	s := EndpointSettings{Host: "localhost", Port: "8080"}
	if host := os.Getenv("WEBMAIL_SERVER_HOST"); host != "" {
		s.Host = host
	}
	if port := os.Getenv("WEBMAIL_SERVER_PORT"); port != "" {
		s.Port = port
	}
	return s
}

// LoadEndpointSettings reads endpoint settings from the given YAML file using
// Viper. A missing or incomplete file resolves to the default settings; the
// file itself is left untouched.
func LoadEndpointSettings(path string) (EndpointSettings, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(*os.PathError); ok {
			return DefaultEndpointSettings(), nil
		}
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return DefaultEndpointSettings(), nil
		}
		return EndpointSettings{}, fmt.Errorf("reading config %s: %w", path, err)
	}

	var s EndpointSettings
	if err := v.UnmarshalKey("server", &s); err != nil {
		return EndpointSettings{}, fmt.Errorf("parsing config %s: %w", path, err)
	}

	if !s.Complete() {
		return DefaultEndpointSettings(), nil
	}
	return s, nil
}

// SaveEndpointSettings writes the given settings to a YAML file at path,
// creating parent directories if needed.
func SaveEndpointSettings(path string, s EndpointSettings) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory %s: %w", dir, err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.Set("server", map[string]string{
		"host": s.Host,
		"port": s.Port,
	})

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}

	return nil
}
