package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/goccy/go-yaml"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Config is the full runtime configuration of Hostwarden.
type Config struct {
	Database struct {
		Type string `mapstructure:"type" yaml:"type"`
		DSN  string `mapstructure:"dsn" yaml:"dsn"`
	} `mapstructure:"database" yaml:"database"`
	KnownHosts struct {
		Path string `mapstructure:"path" yaml:"path"`
	} `mapstructure:"known_hosts" yaml:"known_hosts"`
	Verify struct {
		TimeoutSeconds int `mapstructure:"timeout_seconds" yaml:"timeout_seconds"`
	} `mapstructure:"verify" yaml:"verify"`
	Keyscan struct {
		Binary         string `mapstructure:"binary" yaml:"binary"`
		TimeoutSeconds int    `mapstructure:"timeout_seconds" yaml:"timeout_seconds"`
	} `mapstructure:"keyscan" yaml:"keyscan"`
	Debug bool `mapstructure:"debug" yaml:"debug"`
}

// Defaults returns the default settings map applied before any config file,
// environment variable, or flag.
func Defaults() map[string]any {
	return map[string]any{
		"database.type":           "sqlite",
		"database.dsn":            "./hostwarden.db",
		"known_hosts.path":        defaultKnownHostsPath(),
		"verify.timeout_seconds":  120,
		"keyscan.binary":          "ssh-keyscan",
		"keyscan.timeout_seconds": 10,
		"debug":                   false,
	}
}

func defaultKnownHostsPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "./known_hosts"
	}
	return filepath.Join(home, ".hostwarden", "known_hosts")
}

// getConfigPath returns the full path for the configuration file.
func getConfigPath(system bool) (string, error) {
	var configDir string
	var err error

	if system {
		switch runtime.GOOS {
		case "windows":
			configDir = filepath.Join(os.Getenv("ProgramData"), "Hostwarden")
		default: // Linux, macOS, etc.
			configDir = "/etc/hostwarden"
		}
	} else {
		configDir, err = os.UserConfigDir()
		if err != nil {
			return "", fmt.Errorf("could not get user config directory: %w", err)
		}
		configDir = filepath.Join(configDir, "hostwarden")
	}

	return filepath.Join(configDir, "hostwarden.yaml"), nil
}

// LoadConfig resolves the effective configuration: defaults, then config
// file (explicit path beats the search paths), then HOSTWARDEN_* environment
// variables, then command-line flags.
func LoadConfig(cmd *cobra.Command, additionalConfigFilePath *string) (Config, error) {
	var c Config
	v := viper.New()

	for key, value := range Defaults() {
		v.SetDefault(key, value)
	}

	v.SetConfigName("hostwarden")
	v.SetConfigType("yaml")

	// An explicit --config path has the highest precedence for file-based
	// configuration.
	if additionalConfigFilePath != nil && *additionalConfigFilePath != "" {
		v.SetConfigFile(*additionalConfigFilePath)
	}

	if userConfigPath, err := getConfigPath(false); err == nil {
		v.AddConfigPath(filepath.Dir(userConfigPath))
	}
	if systemConfigPath, err := getConfigPath(true); err == nil {
		v.AddConfigPath(filepath.Dir(systemConfigPath))
	}
	v.AddConfigPath(".") // Look for hostwarden.yaml in current dir

	if err := v.ReadInConfig(); err != nil {
		// It's okay if the file is not found, but other errors are fatal.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return c, err
		}
	}

	v.AutomaticEnv()
	v.AllowEmptyEnv(true)
	v.SetEnvPrefix("hostwarden")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if cmd != nil {
		bindings := map[string]string{
			"database.type":          "db-type",
			"database.dsn":           "db-dsn",
			"known_hosts.path":       "known-hosts",
			"verify.timeout_seconds": "timeout",
			"debug":                  "debug",
		}
		for key, flag := range bindings {
			if f := cmd.Flags().Lookup(flag); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return c, err
				}
			}
		}
	}

	if err := v.Unmarshal(&c); err != nil {
		return c, err
	}

	return c, nil
}

// WriteConfigFile persists the configuration as YAML to the user or system
// config location.
func WriteConfigFile(c *Config, system bool) error {
	path, err := getConfigPath(system)
	if err != nil {
		return err
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}

	configDir := filepath.Dir(path)
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("could not create config directory %s: %w", configDir, err)
	}

	// 0600 for safety; the DSN may contain credentials.
	return os.WriteFile(path, data, 0600)
}
