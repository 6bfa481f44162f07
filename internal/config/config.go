// Package config loads and validates the startup JSON configuration file
// of spec.md §6. Grounded on the teacher's encoding/json-based config
// structs (no viper/koanf anywhere in the pack) — JSON is the wire
// format the spec itself mandates, so no separate config DSL is
// introduced.
package config

import (
	"encoding/json"
	"fmt"
	"os"
)

// ACEndpoint is one device's IR-bridge connection detail.
type ACEndpoint struct {
	Endpoint string `json:"endpoint"`
	APIKey   string `json:"api_key"`
}

// Config is the process-wide startup configuration, per spec.md §6.
type Config struct {
	DatabasePath           string                `json:"database_path"`
	ListenAddress          string                `json:"listen_address"`
	ListenPort             int                    `json:"listen_port"`
	SmartMeterAPIEndpoint  string                `json:"smart_meter_api_endpoint"`
	WeatherAPIEndpoint     string                `json:"weather_api_endpoint"`
	ACControllerEndpoints  map[string]ACEndpoint `json:"ac_controller_endpoints"`
	Latitude               float64               `json:"latitude"`
	Longitude              float64               `json:"longitude"`
	PirAPIKey              string                `json:"pir_api_key"`
	PirTimeoutMinutes      int                    `json:"pir_timeout_minutes"`
}

// ErrInvalid wraps every validation failure, per spec.md §7's
// ConfigInvalid taxonomy entry ("fatal at startup only").
type ErrInvalid struct {
	Field  string
	Reason string
}

func (e *ErrInvalid) Error() string {
	return fmt.Sprintf("config: invalid %s: %s", e.Field, e.Reason)
}

// Load reads and validates the config file at path.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	var c Config
	if err := json.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate checks the loaded config for the minimum the rest of the
// system needs to start safely. Defaults (pir_timeout_minutes = 5 when
// zero) are applied here rather than at every call site.
func (c *Config) Validate() error {
	if c.DatabasePath == "" {
		return &ErrInvalid{Field: "database_path", Reason: "must not be empty"}
	}
	if c.ListenPort <= 0 || c.ListenPort > 65535 {
		return &ErrInvalid{Field: "listen_port", Reason: "must be in (0,65535]"}
	}
	if len(c.ACControllerEndpoints) == 0 {
		return &ErrInvalid{Field: "ac_controller_endpoints", Reason: "must configure at least one device"}
	}
	for device, ep := range c.ACControllerEndpoints {
		if ep.Endpoint == "" {
			return &ErrInvalid{Field: "ac_controller_endpoints." + device + ".endpoint", Reason: "must not be empty"}
		}
	}
	if c.PirTimeoutMinutes <= 0 {
		c.PirTimeoutMinutes = 5
	}
	return nil
}

// Devices returns the configured device identifiers, sorted for
// deterministic tick ordering (spec.md §4.4/§5: "devices are processed
// sequentially so their action-log entries form a total order").
func (c *Config) Devices() []string {
	out := make([]string, 0, len(c.ACControllerEndpoints))
	for d := range c.ACControllerEndpoints {
		out = append(out, d)
	}
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j-1] > out[j]; j-- {
			out[j-1], out[j] = out[j], out[j-1]
		}
	}
	return out
}
