package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// ProviderConfig configures a single LLM provider.
type ProviderConfig struct {
	Model       string  `yaml:"model"`
	Temperature float32 `yaml:"temperature"`
	MaxTokens   int     `yaml:"max_tokens"`
}

// ProvidersConfig holds per-provider settings.
type ProvidersConfig struct {
	OpenAI    ProviderConfig `yaml:"openai"`
	Anthropic ProviderConfig `yaml:"anthropic"`
	Gemini    ProviderConfig `yaml:"gemini"`
}

// RolesConfig assigns a provider to each agent role.
type RolesConfig struct {
	Architect  string `yaml:"architect"`
	Critic     string `yaml:"critic"`
	Integrator string `yaml:"integrator"`
}

// LimitsConfig caps rounds, spend and per-call behavior.
type LimitsConfig struct {
	MaxRounds        int     `yaml:"max_rounds"`
	MaxTokensPerTurn int     `yaml:"max_tokens_per_turn"`
	MaxTotalCost     float64 `yaml:"max_total_cost"`
	TimeoutSeconds   int     `yaml:"timeout_seconds"`
}

// ContextConfig controls which project files are loaded as context.
type ContextConfig struct {
	AutoDetect      []string `yaml:"auto_detect"`
	IncludePatterns []string `yaml:"include_patterns"`
	ExcludePatterns []string `yaml:"exclude_patterns"`
}

// OutputConfig controls plan output generation.
type OutputConfig struct {
	Format             string `yaml:"format"`
	Path               string `yaml:"path"`
	IncludeTranscript  bool   `yaml:"include_transcript"`
	IncludeCostSummary bool   `yaml:"include_cost_summary"`
}

// Config is the full planify configuration.
type Config struct {
	Providers ProvidersConfig `yaml:"providers"`
	Roles     RolesConfig     `yaml:"roles"`
	Limits    LimitsConfig    `yaml:"limits"`
	Context   ContextConfig   `yaml:"context"`
	Output    OutputConfig    `yaml:"output"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Providers: ProvidersConfig{
			OpenAI:    ProviderConfig{Model: "gpt-4o", Temperature: 0.3, MaxTokens: 4096},
			Anthropic: ProviderConfig{Model: "claude-sonnet-4-20250514", Temperature: 0.3, MaxTokens: 4096},
			Gemini:    ProviderConfig{Model: "gemini-1.5-flash", Temperature: 0.3, MaxTokens: 4096},
		},
		Roles: RolesConfig{
			Architect:  "openai",
			Critic:     "anthropic",
			Integrator: "anthropic",
		},
		Limits: LimitsConfig{
			MaxRounds:        3,
			MaxTokensPerTurn: 4096,
			MaxTotalCost:     1.00,
			TimeoutSeconds:   300,
		},
		Context: ContextConfig{
			AutoDetect: []string{"CLAUDE.md", "PROJECT_BRIEF.md", "ARCHITECTURE.md", "README.md"},
			ExcludePatterns: []string{
				"**/*.env*",
				"**/node_modules/**",
				"**/.git/**",
				"**/dist/**",
				"**/build/**",
				"**/__pycache__/**",
			},
		},
		Output: OutputConfig{
			Format:             "markdown",
			Path:               ".agents/planner/plans/{slug}.md",
			IncludeCostSummary: true,
		},
	}
}

// Load reads configuration from the first existing path in the search chain:
// the explicit path, ./planify.yaml, ./.planify.yaml, then the user config
// dir. Missing files fall back to defaults.
func Load(path string) (Config, error) {
	var candidates []string
	if path != "" {
		candidates = append(candidates, path)
	}
	candidates = append(candidates, "planify.yaml", ".planify.yaml")
	if configDir, err := os.UserConfigDir(); err == nil {
		candidates = append(candidates, filepath.Join(configDir, "planify", "config.yaml"))
	}

	for _, candidate := range candidates {
		data, err := os.ReadFile(candidate)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return Config{}, err
		}
		return fromYAML(data)
	}

	return Default(), nil
}

func fromYAML(data []byte) (Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Save writes the configuration as YAML.
func Save(cfg Config, path string) error {
	if path == "" {
		return fmt.Errorf("config path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Validate checks limits and role assignments.
func (c *Config) Validate() error {
	if c.Limits.MaxRounds < 1 {
		return fmt.Errorf("limits.max_rounds must be at least 1")
	}
	if c.Limits.MaxTotalCost <= 0 {
		return fmt.Errorf("limits.max_total_cost must be greater than zero")
	}
	for role, provider := range map[string]string{
		"architect":  c.Roles.Architect,
		"critic":     c.Roles.Critic,
		"integrator": c.Roles.Integrator,
	} {
		switch provider {
		case "openai", "anthropic", "gemini":
		default:
			return fmt.Errorf("unknown provider %q for role %s", provider, role)
		}
	}
	return nil
}

// ProviderConfig returns the settings for a provider by name.
func (c *Config) ProviderConfig(provider string) (ProviderConfig, error) {
	switch provider {
	case "openai":
		return c.Providers.OpenAI, nil
	case "anthropic":
		return c.Providers.Anthropic, nil
	case "gemini":
		return c.Providers.Gemini, nil
	default:
		return ProviderConfig{}, fmt.Errorf("unknown provider: %s", provider)
	}
}

// ProviderForRole returns the provider name assigned to an agent role.
func (c *Config) ProviderForRole(role string) (string, error) {
	switch role {
	case "architect":
		return c.Roles.Architect, nil
	case "critic":
		return c.Roles.Critic, nil
	case "integrator":
		return c.Roles.Integrator, nil
	default:
		return "", fmt.Errorf("unknown role: %s", role)
	}
}
