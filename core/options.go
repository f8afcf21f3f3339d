package core

import (
	"net/http"
	"time"

	"github.com/google/uuid"
)

// Config holds configuration for the PromptQL client.
type Config struct {
	// APIKey is the PromptQL API key (required).
	APIKey Secret

	// BaseURL is the API base URL. Defaults to https://api.promptql.pro.hasura.io
	BaseURL string

	// HTTPClient is the HTTP client to use. Defaults to http.DefaultClient.
	HTTPClient *http.Client

	// Headers contains optional extra headers to include in requests.
	Headers http.Header

	// Timeout is the optional request timeout, applied only when no custom
	// HTTPClient is supplied.
	Timeout time.Duration

	// Timezone is the IANA timezone used to interpret queries that implicitly
	// require one. Defaults to UTC.
	Timezone string

	// Telemetry receives query lifecycle events. Defaults to a no-op hook.
	Telemetry TelemetryHook

	// v1 settings: explicit DDN connection and LLM provider.
	DDNURL          string
	LLM             LLMProvider
	AIPrimitivesLLM LLMProvider

	// v2 settings: build selector. Both empty means the applied build.
	BuildID      *uuid.UUID
	BuildVersion string

	// DDNHeaders are forwarded to DDN with every request.
	DDNHeaders map[string]string
}

// DefaultBaseURL is the default PromptQL API base URL.
const DefaultBaseURL = "https://api.promptql.pro.hasura.io"

// DefaultTimezone is the timezone sent when none is configured.
const DefaultTimezone = "UTC"

// Option configures the PromptQL client.
type Option func(*Config)

// WithDDN sets the DDN connection URL, selecting the v1 API.
func WithDDN(url string) Option {
	return func(c *Config) {
		c.DDNURL = url
	}
}

// WithLLMProvider sets the LLM provider for v1 requests.
func WithLLMProvider(p LLMProvider) Option {
	return func(c *Config) {
		c.LLM = p
	}
}

// WithAIPrimitivesLLM sets a separate LLM provider for AI primitives in v1
// requests. When unset the main provider is used server-side.
func WithAIPrimitivesLLM(p LLMProvider) Option {
	return func(c *Config) {
		c.AIPrimitivesLLM = p
	}
}

// WithBuildID selects a DDN build by ID, selecting the v2 API.
func WithBuildID(id uuid.UUID) Option {
	return func(c *Config) {
		c.BuildID = &id
	}
}

// WithBuildVersion selects a DDN build by version, selecting the v2 API.
func WithBuildVersion(version string) Option {
	return func(c *Config) {
		c.BuildVersion = version
	}
}

// WithDDNHeaders sets HTTP headers forwarded to DDN with every request.
func WithDDNHeaders(headers map[string]string) Option {
	return func(c *Config) {
		c.DDNHeaders = headers
	}
}

// WithTimezone sets the IANA timezone sent with requests.
func WithTimezone(tz string) Option {
	return func(c *Config) {
		c.Timezone = tz
	}
}

// WithBaseURL sets the API base URL.
func WithBaseURL(url string) Option {
	return func(c *Config) {
		c.BaseURL = url
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Config) {
		c.HTTPClient = client
	}
}

// WithHeader adds an extra header to include in requests.
func WithHeader(key, value string) Option {
	return func(c *Config) {
		if c.Headers == nil {
			c.Headers = make(http.Header)
		}
		c.Headers.Set(key, value)
	}
}

// WithTimeout sets the request timeout.
// Ignored when a custom HTTP client is supplied; configure that client's
// timeout instead. Streaming responses count the whole stream lifetime
// against this timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Config) {
		c.Timeout = d
	}
}

// WithTelemetry sets the telemetry hook for the client.
func WithTelemetry(h TelemetryHook) Option {
	return func(c *Config) {
		if h != nil {
			c.Telemetry = h
		}
	}
}
