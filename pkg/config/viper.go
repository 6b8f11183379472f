package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

const configDirName = "eventsource"

// InitViper creates and returns a configured *viper.Viper. It sets defaults
// from NewDefaultConfig(), reads config.toml from the resolved config
// directory when present, and binds environment variables with the
// EVENTSOURCE_ prefix.
//
// Config precedence (highest to lowest):
//  1. CLI flags (applied by commands in PreRunE)
//  2. Environment variables (EVENTSOURCE_CLIENT_TARGET, EVENTSOURCE_RELAY_TOPIC, etc.)
//  3. config.toml file values
//  4. Defaults from NewDefaultConfig()
func InitViper(configDir string) (*viper.Viper, error) {
	v := viper.New()

	setViperDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("toml")

	target, err := resolveConfigDir(configDir)
	if err != nil {
		return nil, fmt.Errorf("resolving config dir: %w", err)
	}
	if target != "" {
		v.AddConfigPath(target)
	}

	if err := v.ReadInConfig(); err != nil {
		// A missing config file is fine, defaults will apply.
		if !errors.As(err, &viper.ConfigFileNotFoundError{}) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	v.SetEnvPrefix("EVENTSOURCE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return v, nil
}

// Load materializes a Config from the viper precedence chain.
func Load(v *viper.Viper) *Config {
	return &Config{
		Version: v.GetInt("version"),
		Client: ClientConfig{
			Target:          v.GetString("client.target"),
			WithCredentials: v.GetBool("client.with_credentials"),
		},
		Relay: RelayConfig{
			Brokers: v.GetStringSlice("relay.brokers"),
			Topic:   v.GetString("relay.topic"),
		},
		Serve: ServeConfig{
			Listen: v.GetString("serve.listen"),
		},
	}
}

// resolveConfigDir returns the directory to look for config.toml in: the
// override when given, otherwise <user config dir>/eventsource.
func resolveConfigDir(override string) (string, error) {
	if override != "" {
		return override, nil
	}

	base, err := os.UserConfigDir()
	if err != nil {
		// No resolvable home; run on defaults alone.
		return "", nil
	}

	return filepath.Join(base, configDirName), nil
}

// setViperDefaults registers defaults from NewDefaultConfig() into viper
// using dotted-key notation. This keeps defaults.go as the single source
// of truth.
func setViperDefaults(v *viper.Viper) {
	d := NewDefaultConfig()

	v.SetDefault("version", d.Version)

	// Client
	v.SetDefault("client.target", d.Client.Target)
	v.SetDefault("client.with_credentials", d.Client.WithCredentials)

	// Relay
	v.SetDefault("relay.brokers", d.Relay.Brokers)
	v.SetDefault("relay.topic", d.Relay.Topic)

	// Serve
	v.SetDefault("serve.listen", d.Serve.Listen)
}
