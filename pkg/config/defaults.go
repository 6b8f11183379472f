package config

const (
	// CurrentV is the currently supported config schema version.
	CurrentV = 0

	defaultClientTarget = "http://localhost:8080/events"
	defaultServeListen  = ":8080"
)

// NewDefaultConfig returns a Config with sane defaults for all fields.
// This is the single source of truth for default values.
func NewDefaultConfig() *Config {
	return &Config{
		Version: CurrentV,
		Client: ClientConfig{
			Target: defaultClientTarget,
		},
		Serve: ServeConfig{
			Listen: defaultServeListen,
		},
	}
}
