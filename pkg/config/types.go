// Package config holds the persistent eventsource configuration, stored as
// config.toml in the user config directory and overridable via environment
// variables and CLI flags.
package config

// Config represents the persistent eventsource configuration. The TOML
// layout uses sections for logical grouping.
type Config struct {
	Version int          `toml:"version"`
	Client  ClientConfig `toml:"client"`
	Relay   RelayConfig  `toml:"relay"`
	Serve   ServeConfig  `toml:"serve"`
}

// ClientConfig holds settings for the listen command's outbound connection.
type ClientConfig struct {
	// Target is the default stream URL to connect to.
	Target string `toml:"target,omitempty"`

	// WithCredentials attaches ambient credentials to the request.
	WithCredentials bool `toml:"with_credentials,omitempty"`
}

// RelayConfig holds Kafka relay settings. Relaying is disabled until both
// brokers and a topic are configured.
type RelayConfig struct {
	Brokers []string `toml:"brokers,omitempty"`
	Topic   string   `toml:"topic,omitempty"`
}

// ServeConfig holds demo stream server settings.
type ServeConfig struct {
	Listen string `toml:"listen,omitempty"`
}
