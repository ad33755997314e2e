// Package config loads and validates nexuscore's YAML configuration: LLM
// provider credentials, council membership, node discovery cadence, alert
// actor-token verification, and observability wiring.
package config

import (
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration for a nexuscore process.
type Config struct {
	Server        ServerConfig        `yaml:"server"`
	Workspace     string              `yaml:"workspace"`
	LLM           LLMConfig           `yaml:"llm"`
	Council       CouncilConfig       `yaml:"council"`
	Discovery     DiscoveryConfig     `yaml:"discovery"`
	Alerts        AlertsConfig        `yaml:"alerts"`
	Observability ObservabilityConfig `yaml:"observability"`
}

// ServerConfig configures the CLI's long-running serve command.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// LLMConfig selects the default provider and fallback chain shared by the
// router and the council.
type LLMConfig struct {
	DefaultProvider string                    `yaml:"default_provider"`
	FallbackChain   []string                  `yaml:"fallback_chain"`
	Providers       map[string]ProviderConfig `yaml:"providers"`
}

// ProviderConfig configures a single named LLM provider.
type ProviderConfig struct {
	APIKey       string `yaml:"api_key"`
	DefaultModel string `yaml:"default_model"`
	BaseURL      string `yaml:"base_url"`
}

// CouncilConfig selects which configured providers sit on the council and
// how deliberation behaves.
type CouncilConfig struct {
	Members          []string `yaml:"members"`
	Chairman         string   `yaml:"chairman"`
	EnablePeerReview bool     `yaml:"enable_peer_review"`
	MaxMemberTokens  int      `yaml:"max_member_tokens"`
}

// DiscoveryConfig mirrors discovery.Config's yaml-facing knobs.
type DiscoveryConfig struct {
	Enabled            bool `yaml:"enabled"`
	ScanIntervalSecs   int  `yaml:"scan_interval_secs"`
	ScanTimeoutMS      int  `yaml:"scan_timeout_ms"`
	StaleThresholdSecs int  `yaml:"stale_threshold_secs"`
}

// AlertsConfig configures bearer-token actor resolution for alert
// transitions. An empty JWTSecret disables verification.
type AlertsConfig struct {
	JWTSecret string `yaml:"jwt_secret"`
}

// ObservabilityConfig toggles metrics registration and configures the
// OpenTelemetry tracer.
type ObservabilityConfig struct {
	MetricsEnabled bool          `yaml:"metrics_enabled"`
	Tracing        TracingConfig `yaml:"tracing"`
}

// TracingConfig maps directly onto observability.TraceConfig.
type TracingConfig struct {
	ServiceName    string  `yaml:"service_name"`
	Environment    string  `yaml:"environment"`
	Endpoint       string  `yaml:"endpoint"`
	SamplingRate   float64 `yaml:"sampling_rate"`
	EnableInsecure bool    `yaml:"enable_insecure"`
}

// Load reads, env-expands, parses, defaults, and validates the config file
// at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	expanded := os.ExpandEnv(string(data))

	var cfg Config
	decoder := yaml.NewDecoder(strings.NewReader(expanded))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := decoder.Decode(&struct{}{}); err != io.EOF {
		return nil, fmt.Errorf("failed to parse config: expected single document")
	}

	applyEnvOverrides(&cfg)
	applyDefaults(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "0.0.0.0"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Workspace == "" {
		cfg.Workspace = "."
	}
	if cfg.LLM.DefaultProvider == "" {
		cfg.LLM.DefaultProvider = "anthropic"
	}
	if cfg.Council.MaxMemberTokens == 0 {
		cfg.Council.MaxMemberTokens = 4096
	}
	if cfg.Discovery.ScanIntervalSecs == 0 {
		cfg.Discovery.ScanIntervalSecs = 30
	}
	if cfg.Discovery.ScanTimeoutMS == 0 {
		cfg.Discovery.ScanTimeoutMS = 3000
	}
	if cfg.Discovery.StaleThresholdSecs == 0 {
		cfg.Discovery.StaleThresholdSecs = 120
	}
	if cfg.Observability.Tracing.ServiceName == "" {
		cfg.Observability.Tracing.ServiceName = "nexuscore"
	}
	if cfg.Observability.Tracing.SamplingRate == 0 {
		cfg.Observability.Tracing.SamplingRate = 1.0
	}
}

func applyEnvOverrides(cfg *Config) {
	if value := strings.TrimSpace(os.Getenv("NEXUSCORE_HOST")); value != "" {
		cfg.Server.Host = value
	}
	if value := strings.TrimSpace(os.Getenv("NEXUSCORE_JWT_SECRET")); value != "" {
		cfg.Alerts.JWTSecret = value
	}
	if value := strings.TrimSpace(os.Getenv("NEXUSCORE_OTEL_ENDPOINT")); value != "" {
		cfg.Observability.Tracing.Endpoint = value
	}
}

// ValidationError reports every problem found while validating a Config.
type ValidationError struct {
	Issues []string
}

func (e *ValidationError) Error() string {
	return "config validation failed:\n- " + strings.Join(e.Issues, "\n- ")
}

func validate(cfg *Config) error {
	var issues []string

	if cfg.Server.Port < 0 || cfg.Server.Port > 65535 {
		issues = append(issues, "server.port must be between 0 and 65535")
	}

	defaultProvider := strings.ToLower(strings.TrimSpace(cfg.LLM.DefaultProvider))
	if defaultProvider != "" {
		if _, ok := cfg.LLM.Providers[defaultProvider]; !ok {
			if _, ok := cfg.LLM.Providers[cfg.LLM.DefaultProvider]; !ok {
				issues = append(issues, fmt.Sprintf("llm.providers missing entry for default_provider %q", cfg.LLM.DefaultProvider))
			}
		}
	}

	if len(cfg.Council.Members) != 0 && len(cfg.Council.Members) < 2 {
		issues = append(issues, "council.members must list at least 2 providers when set")
	}
	if cfg.Council.MaxMemberTokens < 0 {
		issues = append(issues, "council.max_member_tokens must be >= 0")
	}

	if cfg.Discovery.ScanIntervalSecs < 0 {
		issues = append(issues, "discovery.scan_interval_secs must be >= 0")
	}
	if cfg.Discovery.StaleThresholdSecs < 0 {
		issues = append(issues, "discovery.stale_threshold_secs must be >= 0")
	}

	if secret := strings.TrimSpace(cfg.Alerts.JWTSecret); secret != "" && len(secret) < 32 {
		issues = append(issues, "alerts.jwt_secret must be at least 32 characters for security")
	}

	if cfg.Observability.Tracing.SamplingRate < 0 || cfg.Observability.Tracing.SamplingRate > 1 {
		issues = append(issues, "observability.tracing.sampling_rate must be between 0 and 1")
	}

	if len(issues) > 0 {
		return &ValidationError{Issues: issues}
	}
	return nil
}
