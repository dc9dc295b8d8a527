package config

import "time"

// DefaultConfig returns the built-in configuration defaults.
func DefaultConfig() *Config {
	return &Config{
		Platform: PlatformConfig{
			PasswordEnv: "CAPREPORT_PASSWORD",
			Timeout:     60 * time.Second,
			MaxRetries:  3,
		},
		Output: OutputConfig{
			DefaultFormat: "table",
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Merge overlays loaded values onto defaults. Zero values in loaded
// fall back to the default.
func Merge(loaded, defaults *Config) *Config {
	merged := *defaults

	if loaded.Platform.Host != "" {
		merged.Platform.Host = loaded.Platform.Host
	}
	if loaded.Platform.Username != "" {
		merged.Platform.Username = loaded.Platform.Username
	}
	if loaded.Platform.PasswordEnv != "" {
		merged.Platform.PasswordEnv = loaded.Platform.PasswordEnv
	}
	if loaded.Platform.Insecure {
		merged.Platform.Insecure = true
	}
	if loaded.Platform.Timeout != 0 {
		merged.Platform.Timeout = loaded.Platform.Timeout
	}
	if loaded.Platform.MaxRetries != 0 {
		merged.Platform.MaxRetries = loaded.Platform.MaxRetries
	}
	if loaded.Output.DefaultFormat != "" {
		merged.Output.DefaultFormat = loaded.Output.DefaultFormat
	}
	if loaded.Log.Level != "" {
		merged.Log.Level = loaded.Log.Level
	}

	return &merged
}
