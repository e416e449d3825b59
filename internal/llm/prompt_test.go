package llm

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestBuildPrompt_IncludesNarrative(t *testing.T) {
	text := "J'ai eu un accident hier sur l'autoroute"
	prompt := BuildPrompt(text)

	if !strings.Contains(prompt, text) {
		t.Error("Expected prompt to contain the narrative")
	}
	for _, field := range []string{"claim_type", "confidence", "facts", "assumptions", "emotional_level"} {
		if !strings.Contains(prompt, field) {
			t.Errorf("Expected prompt to mention field %s", field)
		}
	}
}

func TestStructureSchema_Strict(t *testing.T) {
	raw, err := StructureSchema()
	if err != nil {
		t.Fatalf("StructureSchema failed: %v", err)
	}

	var schema map[string]interface{}
	if err := json.Unmarshal(raw, &schema); err != nil {
		t.Fatalf("Schema is not valid JSON: %v", err)
	}

	if schema["type"] != "object" {
		t.Errorf("Expected object schema, got %v", schema["type"])
	}
	if schema["additionalProperties"] != false {
		t.Error("Expected additionalProperties=false")
	}

	props, ok := schema["properties"].(map[string]interface{})
	if !ok {
		t.Fatal("Expected properties")
	}
	required, _ := schema["required"].([]interface{})
	if len(required) != len(props) {
		t.Errorf("Expected all %d properties required, got %d", len(props), len(required))
	}

	parties, ok := props["parties"].(map[string]interface{})
	if !ok {
		t.Fatal("Expected parties property")
	}
	items, ok := parties["items"].(map[string]interface{})
	if !ok || items["additionalProperties"] != false {
		t.Error("Expected nested party objects to be strict")
	}
}

func TestNewProvider_Factory(t *testing.T) {
	p, err := NewProvider(Config{Provider: ""})
	if err != nil || p != nil {
		t.Errorf("Expected nil provider for empty name, got %v, %v", p, err)
	}

	if _, err := NewProvider(Config{Provider: "gemini"}); err == nil {
		t.Error("Expected error for unknown provider")
	}

	if _, err := NewProvider(Config{Provider: "openai"}); err == nil {
		t.Error("Expected error for openai without API key")
	}

	p, err = NewProvider(Config{Provider: "ollama", Model: "mistral"})
	if err != nil {
		t.Fatalf("NewProvider(ollama) failed: %v", err)
	}
	if p.Name() != "ollama" {
		t.Errorf("Expected ollama, got %s", p.Name())
	}
}
