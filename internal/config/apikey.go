package config

import (
	"fmt"
	"os"
	"strings"
)

// ResolveAPIKey resolves an API key based on the given source.
// Supported sources: "env" (from environment variable), "config" (from config value),
// "none" (providers that need no key, such as a local ollama).
func ResolveAPIKey(source, configValue, envVar string) (string, error) {
	switch source {
	case "env", "":
		return resolveFromEnv(envVar)
	case "config":
		if configValue == "" {
			return "", fmt.Errorf("api_key_source is 'config' but no api_key value provided")
		}
		return configValue, nil
	case "none":
		return "", nil
	default:
		return "", fmt.Errorf("unknown api_key_source: %q", source)
	}
}

// APIKeyEnvVar returns the environment variable holding the key for the
// configured provider: the explicit api_key_env, or PROVIDER_API_KEY.
func (g GenerationConfig) APIKeyEnvVar() string {
	if g.APIKeyEnv != "" {
		return g.APIKeyEnv
	}
	return strings.ToUpper(g.Provider) + "_API_KEY"
}

// ResolveAPIKey resolves the provider key from g's source settings.
func (g GenerationConfig) ResolveAPIKey() (string, error) {
	return ResolveAPIKey(g.APIKeySource, g.APIKey, g.APIKeyEnvVar())
}

func resolveFromEnv(envVar string) (string, error) {
	if envVar == "" {
		return "", fmt.Errorf("no environment variable name specified")
	}
	val := os.Getenv(envVar)
	if val == "" {
		return "", fmt.Errorf("environment variable %s is not set", envVar)
	}
	return val, nil
}
