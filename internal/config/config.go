package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Security finding severity levels
const (
	SeverityCritical = "critical"
	SeverityHigh     = "high"
	SeverityMedium   = "medium"
	SeverityLow      = "low"
)

// DefaultSensitiveEndpoints are path substrings considered
// security-sensitive when hit by a client.
var DefaultSensitiveEndpoints = []string{
	"/admin",
	"/wp-admin",
	"/wp-login",
	"/phpmyadmin",
	"/.env",
	"/login",
}

// Options is the full configuration surface consumed by the analysis
// core. Callers must run Validate before handing it to the pipeline.
type Options struct {
	TopN                   int      `yaml:"top_n"`
	ErrorThreshold         float64  `yaml:"error_threshold"`
	SensitiveEndpoints     []string `yaml:"sensitive_endpoints"`
	SuspiciousVolumeFactor float64  `yaml:"suspicious_volume_factor"`
	SuspiciousErrorRate    float64  `yaml:"suspicious_error_rate"`
}

// Default returns the default analysis options.
func Default() Options {
	return Options{
		TopN:                   10,
		ErrorThreshold:         0.1,
		SensitiveEndpoints:     DefaultSensitiveEndpoints,
		SuspiciousVolumeFactor: 3.0,
		SuspiciousErrorRate:    0.5,
	}
}

// Validate rejects out-of-range options. Values are never clamped;
// the analysis refuses to start with an invalid configuration.
func (o Options) Validate() error {
	if o.TopN < 1 {
		return fmt.Errorf("top_n must be >= 1, got %d", o.TopN)
	}
	if o.ErrorThreshold <= 0 || o.ErrorThreshold > 1 {
		return fmt.Errorf("error_threshold must be in (0,1], got %g", o.ErrorThreshold)
	}
	if o.SuspiciousVolumeFactor <= 0 {
		return fmt.Errorf("suspicious_volume_factor must be > 0, got %g", o.SuspiciousVolumeFactor)
	}
	if o.SuspiciousErrorRate <= 0 || o.SuspiciousErrorRate > 1 {
		return fmt.Errorf("suspicious_error_rate must be in (0,1], got %g", o.SuspiciousErrorRate)
	}
	return nil
}

// Load reads options from a YAML file. Fields absent from the file
// keep their defaults; the merged result is validated before return.
func Load(path string) (Options, error) {
	opts := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return opts, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, &opts); err != nil {
		return opts, fmt.Errorf("failed to parse config YAML: %w", err)
	}

	if err := opts.Validate(); err != nil {
		return opts, fmt.Errorf("invalid configuration: %w", err)
	}

	return opts, nil
}
