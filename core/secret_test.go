package core

import (
	"encoding/json"
	"fmt"
	"strings"
	"testing"
)

func TestSecretRedaction(t *testing.T) {
	secret := NewSecret("pql-super-secret")

	if got := fmt.Sprintf("%s", secret); got != "[REDACTED]" {
		t.Errorf("%%s = %q, want [REDACTED]", got)
	}
	if got := fmt.Sprintf("%v", secret); got != "[REDACTED]" {
		t.Errorf("%%v = %q, want [REDACTED]", got)
	}
	if got := fmt.Sprintf("%#v", secret); strings.Contains(got, "super-secret") {
		t.Errorf("%%#v = %q, leaks the value", got)
	}
}

func TestSecretMarshalJSON(t *testing.T) {
	type payload struct {
		Key Secret `json:"key"`
	}

	data, err := json.Marshal(payload{Key: NewSecret("pql-super-secret")})
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	if strings.Contains(string(data), "super-secret") {
		t.Errorf("JSON = %s, leaks the value", data)
	}
	if !strings.Contains(string(data), "[REDACTED]") {
		t.Errorf("JSON = %s, want [REDACTED] placeholder", data)
	}
}

func TestSecretExpose(t *testing.T) {
	secret := NewSecret("pql-super-secret")
	if secret.Expose() != "pql-super-secret" {
		t.Errorf("Expose() = %q", secret.Expose())
	}
}

func TestSecretIsEmpty(t *testing.T) {
	if !NewSecret("").IsEmpty() {
		t.Error("empty secret should report IsEmpty")
	}
	if NewSecret("x").IsEmpty() {
		t.Error("non-empty secret should not report IsEmpty")
	}
}
