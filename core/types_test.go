package core

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
)

func TestLLMProviderMarshal(t *testing.T) {
	tests := []struct {
		name     string
		provider LLMProvider
		want     string
	}{
		{"hasura", HasuraLLMProvider{}, `{"provider":"hasura"}`},
		{"anthropic", AnthropicLLMProvider{APIKey: "sk-ant"}, `{"provider":"anthropic","api_key":"sk-ant"}`},
		{"openai", OpenAILLMProvider{APIKey: "sk-oai"}, `{"provider":"openai","api_key":"sk-oai"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := json.Marshal(tt.provider)
			if err != nil {
				t.Fatalf("Marshal() error = %v", err)
			}
			if string(data) != tt.want {
				t.Errorf("Marshal() = %s, want %s", data, tt.want)
			}
		})
	}
}

func TestLLMProviderType(t *testing.T) {
	if (HasuraLLMProvider{}).ProviderType() != LLMProviderHasura {
		t.Error("HasuraLLMProvider type mismatch")
	}
	if (AnthropicLLMProvider{}).ProviderType() != LLMProviderAnthropic {
		t.Error("AnthropicLLMProvider type mismatch")
	}
	if (OpenAILLMProvider{}).ProviderType() != LLMProviderOpenAI {
		t.Error("OpenAILLMProvider type mismatch")
	}
}

func TestDDNConfigV2Marshal(t *testing.T) {
	// Applied build: all selectors empty.
	data, err := json.Marshal(DDNConfigV2{})
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	if string(data) != `{}` {
		t.Errorf("applied build = %s, want {}", data)
	}

	id := uuid.MustParse("8ac7ccd4-7502-44d5-b2ee-ea9639b1f653")
	data, err = json.Marshal(DDNConfigV2{BuildID: &id})
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	if string(data) != `{"build_id":"8ac7ccd4-7502-44d5-b2ee-ea9639b1f653"}` {
		t.Errorf("build id form = %s", data)
	}
}

func TestUpsertArtifact(t *testing.T) {
	var list []Artifact

	list = upsertArtifact(list, Artifact{Identifier: "a", Title: "A"})
	list = upsertArtifact(list, Artifact{Identifier: "b", Title: "B"})
	list = upsertArtifact(list, Artifact{Identifier: "a", Title: "A2"})

	if len(list) != 2 {
		t.Fatalf("length = %d, want 2", len(list))
	}
	if list[0].Identifier != "a" || list[0].Title != "A2" {
		t.Errorf("list[0] = %+v, want updated 'a' in place", list[0])
	}
	if list[1].Identifier != "b" {
		t.Errorf("list[1] = %+v, want 'b'", list[1])
	}
}

func TestDecodeChunk(t *testing.T) {
	chunk, err := decodeChunk([]byte(`{"type":"thread_metadata_chunk","thread_id":"` + testThreadID + `"}`))
	if err != nil {
		t.Fatalf("decodeChunk() error = %v", err)
	}
	meta, ok := chunk.(*ThreadMetadataChunk)
	if !ok {
		t.Fatalf("chunk = %T, want *ThreadMetadataChunk", chunk)
	}
	if meta.Type() != ChunkTypeThreadMetadata {
		t.Errorf("Type() = %q", meta.Type())
	}

	chunk, err = decodeChunk([]byte(`{"type":"assistant_action_chunk","plan":"1. count orders","index":2}`))
	if err != nil {
		t.Fatalf("decodeChunk() error = %v", err)
	}
	action, ok := chunk.(*AssistantActionChunk)
	if !ok {
		t.Fatalf("chunk = %T, want *AssistantActionChunk", chunk)
	}
	if action.Plan != "1. count orders" || action.Index != 2 {
		t.Errorf("chunk = %+v", action)
	}

	if _, err := decodeChunk([]byte(`{"type":"mystery_chunk"}`)); err == nil {
		t.Error("unknown chunk type should fail to decode")
	}
	if _, err := decodeChunk([]byte(`{not json`)); err == nil {
		t.Error("malformed payload should fail to decode")
	}
}

func TestInteractionMarshal(t *testing.T) {
	interaction := Interaction{
		UserMessage: UserMessage{Text: "How many orders?"},
		AssistantActions: []AssistantAction{
			{Message: "42", Code: "SELECT COUNT(*) FROM orders"},
		},
	}

	data, err := json.Marshal(interaction)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}

	var decoded map[string]any
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}

	userMsg, _ := decoded["user_message"].(map[string]any)
	if userMsg["text"] != "How many orders?" {
		t.Errorf("user_message.text = %v", userMsg["text"])
	}
	actions, _ := decoded["assistant_actions"].([]any)
	if len(actions) != 1 {
		t.Fatalf("assistant_actions = %d, want 1", len(actions))
	}
	first, _ := actions[0].(map[string]any)
	// Empty action fields are omitted on the wire.
	if _, present := first["plan"]; present {
		t.Error("empty plan should be omitted")
	}
	if first["code"] != "SELECT COUNT(*) FROM orders" {
		t.Errorf("code = %v", first["code"])
	}
}
