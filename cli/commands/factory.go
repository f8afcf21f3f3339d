package commands

import (
	"fmt"
	"os"

	"github.com/google/uuid"

	"github.com/hasura/promptql-go-sdk/cli/keystore"
	"github.com/hasura/promptql-go-sdk/core"
)

// Environment variable fallbacks for stored keys.
const (
	envPromptQLKey  = "PROMPTQL_API_KEY"
	envAnthropicKey = "ANTHROPIC_API_KEY"
	envOpenAIKey    = "OPENAI_API_KEY"
)

// newClient builds a core.Client from the effective flag and config values.
func newClient() (*core.Client, error) {
	apiKey, err := lookupKey("promptql", envPromptQLKey)
	if err != nil {
		return nil, err
	}
	if apiKey == "" {
		return nil, fmt.Errorf("no PromptQL API key: run 'promptql keys set promptql' or set %s", envPromptQLKey)
	}

	var opts []core.Option

	if ddnURL != "" {
		opts = append(opts, core.WithDDN(ddnURL))
	}
	if llmProvider != "" {
		provider, err := llmProviderFromName(llmProvider)
		if err != nil {
			return nil, err
		}
		opts = append(opts, core.WithLLMProvider(provider))
	}
	if buildID != "" {
		id, err := uuid.Parse(buildID)
		if err != nil {
			return nil, fmt.Errorf("invalid build ID %q: %w", buildID, err)
		}
		opts = append(opts, core.WithBuildID(id))
	}
	if buildVersion != "" {
		opts = append(opts, core.WithBuildVersion(buildVersion))
	}
	if timezone != "" {
		opts = append(opts, core.WithTimezone(timezone))
	}
	if baseURL != "" {
		opts = append(opts, core.WithBaseURL(baseURL))
	}
	if cfg != nil && len(cfg.DDNHeaders) > 0 {
		opts = append(opts, core.WithDDNHeaders(cfg.DDNHeaders))
	}

	return core.New(apiKey, opts...)
}

// llmProviderFromName resolves a provider name to its descriptor, loading
// credentials from the keystore or environment where the provider needs them.
func llmProviderFromName(name string) (core.LLMProvider, error) {
	switch name {
	case "hasura":
		return core.HasuraLLMProvider{}, nil
	case "anthropic":
		key, err := lookupKey("anthropic", envAnthropicKey)
		if err != nil {
			return nil, err
		}
		if key == "" {
			return nil, fmt.Errorf("no Anthropic API key: run 'promptql keys set anthropic' or set %s", envAnthropicKey)
		}
		return core.AnthropicLLMProvider{APIKey: key}, nil
	case "openai":
		key, err := lookupKey("openai", envOpenAIKey)
		if err != nil {
			return nil, err
		}
		if key == "" {
			return nil, fmt.Errorf("no OpenAI API key: run 'promptql keys set openai' or set %s", envOpenAIKey)
		}
		return core.OpenAILLMProvider{APIKey: key}, nil
	default:
		return nil, fmt.Errorf("unsupported llm provider: %s (available: hasura, anthropic, openai)", name)
	}
}

// lookupKey resolves a key from the environment first, then the keystore.
// A missing key is not an error; the caller decides.
func lookupKey(name, envVar string) (string, error) {
	if v := os.Getenv(envVar); v != "" {
		return v, nil
	}

	ks, err := keystore.NewKeystore()
	if err != nil {
		return "", fmt.Errorf("failed to open keystore: %w", err)
	}

	value, err := ks.Get(name)
	if err != nil {
		if _, ok := err.(*keystore.ErrKeyNotFound); ok {
			return "", nil
		}
		return "", fmt.Errorf("failed to read key %s: %w", name, err)
	}
	return value, nil
}
