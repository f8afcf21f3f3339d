package core

import (
	"net/http"
)

// queryPath is the API endpoint for natural-language queries.
const queryPath = "/query"

// Client is the entry point for the PromptQL Natural Language API.
// Client is safe for concurrent use; the Conversation type it creates is not.
//
// The active API version is fixed at construction: supplying a DDN URL or an
// LLM provider selects v1 (both are then required), otherwise the client
// operates in v2 mode against a DDN build (the applied build when no build
// selector is given).
type Client struct {
	config  Config
	version APIVersion
}

// New creates a new Client with the given API key and options.
// It fails fast on missing or conflicting configuration: mixing v1 options
// with v2 build selectors, supplying both a build ID and a build version, or
// supplying only half of the v1 settings.
func New(apiKey string, opts ...Option) (*Client, error) {
	cfg := Config{
		APIKey:     NewSecret(apiKey),
		BaseURL:    DefaultBaseURL,
		HTTPClient: http.DefaultClient,
		Timezone:   DefaultTimezone,
		Telemetry:  NoopTelemetryHook{},
	}

	for _, opt := range opts {
		opt(&cfg)
	}

	version, err := resolveVersion(&cfg)
	if err != nil {
		return nil, err
	}

	if cfg.Timeout > 0 && cfg.HTTPClient == http.DefaultClient {
		cfg.HTTPClient = &http.Client{Timeout: cfg.Timeout}
	}

	return &Client{config: cfg, version: version}, nil
}

// resolveVersion validates the configuration and picks the API version.
func resolveVersion(cfg *Config) (APIVersion, error) {
	if cfg.APIKey.IsEmpty() {
		return "", ErrAPIKeyRequired
	}

	v1 := cfg.DDNURL != "" || cfg.LLM != nil || cfg.AIPrimitivesLLM != nil
	v2 := cfg.BuildID != nil || cfg.BuildVersion != ""

	switch {
	case v1 && v2:
		return "", ErrConflictingVersions
	case v1:
		if cfg.DDNURL == "" || cfg.LLM == nil {
			return "", ErrIncompleteV1Config
		}
		return APIVersionV1, nil
	default:
		if cfg.BuildID != nil && cfg.BuildVersion != "" {
			return "", ErrConflictingBuild
		}
		return APIVersionV2, nil
	}
}

// Version returns the API version the client was configured for.
func (c *Client) Version() APIVersion {
	return c.version
}

// Timezone returns the timezone sent with requests.
func (c *Client) Timezone() string {
	return c.config.Timezone
}

// buildHeaders constructs the HTTP headers for an API request.
func (c *Client) buildHeaders() http.Header {
	headers := make(http.Header)

	headers.Set("Authorization", "Bearer "+c.config.APIKey.Expose())
	headers.Set("Content-Type", "application/json")

	// Copy any extra headers
	for key, values := range c.config.Headers {
		for _, v := range values {
			headers.Add(key, v)
		}
	}

	return headers
}

// Query returns a QueryBuilder for constructing and executing a query.
func (c *Client) Query(message string) *QueryBuilder {
	return &QueryBuilder{
		client:  c,
		message: message,
	}
}
