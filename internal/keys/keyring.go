// Package keys stores provider API keys in the OS keyring and resolves them
// with environment variables taking precedence.
package keys

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/zalando/go-keyring"
)

const serviceName = "planify"

// envVarsByProvider lists the environment variables consulted, in order,
// before falling back to the keyring.
var envVarsByProvider = map[string][]string{
	"openai":    {"OPENAI_API_KEY"},
	"anthropic": {"ANTHROPIC_API_KEY"},
	"gemini":    {"GEMINI_API_KEY", "GOOGLE_API_KEY"},
}

type KeyringService struct {
}

func NewKeyringService() *KeyringService {
	return &KeyringService{}
}

// ResolveAPIKey returns the API key for a provider, preferring environment
// variables over the keyring.
func (s *KeyringService) ResolveAPIKey(provider string) (string, error) {
	envVars, ok := envVarsByProvider[provider]
	if !ok {
		return "", fmt.Errorf("unknown provider: %s", provider)
	}

	for _, name := range envVars {
		if value := os.Getenv(name); value != "" {
			return value, nil
		}
	}

	key, err := keyring.Get(serviceName, provider)
	if err != nil {
		return "", fmt.Errorf("no API key for %s: set %s or run 'planify keys set %s'", provider, envVars[0], provider)
	}
	return key, nil
}

func (s *KeyringService) StoreAPIKey(provider string, apiKey []byte) error {
	if len(apiKey) == 0 {
		return errors.New("API key is empty")
	}
	if provider == "" {
		return errors.New("provider is required")
	}

	if err := keyring.Set(serviceName, provider, string(apiKey)); err != nil {
		return err
	}

	return s.addProvider(provider)
}

func (s *KeyringService) GetAPIKey(provider string) (string, error) {
	if provider == "" {
		return "", errors.New("provider is required")
	}
	return keyring.Get(serviceName, provider)
}

func (s *KeyringService) DeleteAPIKey(provider string) error {
	if provider == "" {
		return errors.New("provider is required")
	}

	if err := keyring.Delete(serviceName, provider); err != nil {
		return err
	}

	return s.removeProvider(provider)
}

// ListAPIKeys returns the providers with a key currently present in the
// keyring.
func (s *KeyringService) ListAPIKeys() ([]string, error) {
	providers, err := s.loadProviders()
	if err != nil {
		return nil, err
	}

	var results []string
	for _, provider := range providers {
		if _, err := keyring.Get(serviceName, provider); err != nil {
			continue
		}
		results = append(results, provider)
	}
	return results, nil
}

func (s *KeyringService) providersConfigPath() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	appDir := filepath.Join(configDir, "planify")
	if err := os.MkdirAll(appDir, 0755); err != nil {
		return "", err
	}
	return filepath.Join(appDir, "providers.json"), nil
}

func (s *KeyringService) loadProviders() ([]string, error) {
	path, err := s.providersConfigPath()
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return []string{}, nil
	}
	if err != nil {
		return nil, err
	}

	var providers []string
	if err := json.Unmarshal(data, &providers); err != nil {
		return nil, err
	}
	return providers, nil
}

func (s *KeyringService) saveProviders(providers []string) error {
	path, err := s.providersConfigPath()
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(providers, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

func (s *KeyringService) addProvider(provider string) error {
	providers, err := s.loadProviders()
	if err != nil {
		return err
	}

	for _, p := range providers {
		if p == provider {
			return nil
		}
	}

	providers = append(providers, provider)
	return s.saveProviders(providers)
}

func (s *KeyringService) removeProvider(provider string) error {
	providers, err := s.loadProviders()
	if err != nil {
		return err
	}

	var remaining []string
	for _, p := range providers {
		if p != provider {
			remaining = append(remaining, p)
		}
	}

	return s.saveProviders(remaining)
}
