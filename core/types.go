// Package core provides the PromptQL SDK client and types.
package core

import (
	"encoding/json"

	"github.com/google/uuid"
)

// APIVersion selects the PromptQL request wire format.
type APIVersion string

const (
	// APIVersionV1 sends explicit LLM provider settings with each request.
	APIVersionV1 APIVersion = "v1"
	// APIVersionV2 selects a server-side DDN build instead.
	APIVersionV2 APIVersion = "v2"
)

// LLMProviderType identifies a supported LLM provider.
type LLMProviderType string

const (
	LLMProviderHasura    LLMProviderType = "hasura"
	LLMProviderAnthropic LLMProviderType = "anthropic"
	LLMProviderOpenAI    LLMProviderType = "openai"
)

// LLMProvider is the tagged variant over the supported provider descriptors.
// Implementations marshal to JSON carrying a "provider" discriminator.
type LLMProvider interface {
	// ProviderType returns the provider discriminator.
	ProviderType() LLMProviderType
}

// HasuraLLMProvider selects Hasura's built-in LLM. It carries no credentials.
type HasuraLLMProvider struct{}

// ProviderType returns the provider discriminator.
func (HasuraLLMProvider) ProviderType() LLMProviderType { return LLMProviderHasura }

// MarshalJSON emits the tagged wire form.
func (p HasuraLLMProvider) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Provider LLMProviderType `json:"provider"`
	}{LLMProviderHasura})
}

// AnthropicLLMProvider selects Anthropic with the caller's API key.
type AnthropicLLMProvider struct {
	APIKey string
}

// ProviderType returns the provider discriminator.
func (AnthropicLLMProvider) ProviderType() LLMProviderType { return LLMProviderAnthropic }

// MarshalJSON emits the tagged wire form.
func (p AnthropicLLMProvider) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Provider LLMProviderType `json:"provider"`
		APIKey   string          `json:"api_key"`
	}{LLMProviderAnthropic, p.APIKey})
}

// OpenAILLMProvider selects OpenAI with the caller's API key.
type OpenAILLMProvider struct {
	APIKey string
}

// ProviderType returns the provider discriminator.
func (OpenAILLMProvider) ProviderType() LLMProviderType { return LLMProviderOpenAI }

// MarshalJSON emits the tagged wire form.
func (p OpenAILLMProvider) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Provider LLMProviderType `json:"provider"`
		APIKey   string          `json:"api_key"`
	}{LLMProviderOpenAI, p.APIKey})
}

// DDNConfig is the v1 DDN connection configuration.
type DDNConfig struct {
	URL     string            `json:"url"`
	Headers map[string]string `json:"headers,omitempty"`
}

// DDNConfigV2 selects a DDN build for v2 requests.
// At most one of BuildID and BuildVersion may be set; when both are empty
// the currently applied build is used.
type DDNConfigV2 struct {
	BuildID      *uuid.UUID        `json:"build_id,omitempty"`
	BuildVersion string            `json:"build_version,omitempty"`
	Headers      map[string]string `json:"headers,omitempty"`
}

// ArtifactType identifies the kind of data an artifact carries.
type ArtifactType string

const (
	ArtifactTypeText  ArtifactType = "text"
	ArtifactTypeTable ArtifactType = "table"
)

// Artifact is a named output produced during a conversation turn.
// Identifier is stable within a conversation; later updates with the same
// identifier replace the artifact's content.
type Artifact struct {
	Identifier   string       `json:"identifier"`
	Title        string       `json:"title"`
	ArtifactType ArtifactType `json:"artifact_type"`
	Data         any          `json:"data"`
}

// UserMessage is the user's side of an interaction.
type UserMessage struct {
	Text string `json:"text"`
}

// AssistantAction is one element of the assistant's response: a message,
// a plan, generated code, or the output or error of running that code.
// Action order is render order.
type AssistantAction struct {
	Message    string `json:"message,omitempty"`
	Plan       string `json:"plan,omitempty"`
	Code       string `json:"code,omitempty"`
	CodeOutput string `json:"code_output,omitempty"`
	CodeError  string `json:"code_error,omitempty"`
}

// Interaction is a single user turn and the assistant actions it produced.
type Interaction struct {
	UserMessage      UserMessage       `json:"user_message"`
	AssistantActions []AssistantAction `json:"assistant_actions"`
}

// QueryResponse is the complete result of a non-streaming query.
type QueryResponse struct {
	ThreadID          uuid.UUID         `json:"thread_id"`
	AssistantActions  []AssistantAction `json:"assistant_actions"`
	ModifiedArtifacts []Artifact        `json:"modified_artifacts,omitempty"`
}

// upsertArtifact appends art, or replaces an existing artifact with the same
// identifier in place so creation order is preserved (last write wins).
func upsertArtifact(list []Artifact, art Artifact) []Artifact {
	for i := range list {
		if list[i].Identifier == art.Identifier {
			list[i] = art
			return list
		}
	}
	return append(list, art)
}

// Wire request bodies. The v1 variant carries the API key and LLM settings in
// the body; v2 carries only the build selector. Both share stream, artifacts,
// timezone and the interaction history.

type queryRequestV1 struct {
	Version            APIVersion    `json:"version"`
	PromptQLAPIKey     string        `json:"promptql_api_key"`
	LLM                LLMProvider   `json:"llm"`
	AIPrimitivesLLM    LLMProvider   `json:"ai_primitives_llm,omitempty"`
	DDN                DDNConfig     `json:"ddn"`
	SystemInstructions string        `json:"system_instructions,omitempty"`
	Stream             bool          `json:"stream"`
	Artifacts          []Artifact    `json:"artifacts"`
	Timezone           string        `json:"timezone"`
	Interactions       []Interaction `json:"interactions"`
}

type queryRequestV2 struct {
	Version      APIVersion    `json:"version"`
	DDN          DDNConfigV2   `json:"ddn"`
	Stream       bool          `json:"stream"`
	Artifacts    []Artifact    `json:"artifacts"`
	Timezone     string        `json:"timezone"`
	Interactions []Interaction `json:"interactions"`
}
