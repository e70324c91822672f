package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/nalgeon/be"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	be.Err(t, os.WriteFile(path, []byte(content), 0o644), nil)
	return path
}

func TestLoadClassifierDoc(t *testing.T) {
	path := writeFile(t, "classifier.json",
		`{"labels": ["Work", "Finance"], "classification_prompt": "Sort my mail."}`)

	doc, err := LoadClassifierDoc(path)
	be.Err(t, err, nil)
	be.Equal(t, doc.Labels, []string{"Work", "Finance"})
	be.Equal(t, doc.ClassificationPrompt, "Sort my mail.")
}

func TestLoadClassifierDocValidation(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"empty labels", `{"labels": [], "classification_prompt": "x"}`},
		{"missing prompt", `{"labels": ["Work"]}`},
		{"invalid json", `{"labels":`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, "classifier.json", tt.content)
			_, err := LoadClassifierDoc(path)
			be.True(t, err != nil)
		})
	}

	_, err := LoadClassifierDoc(filepath.Join(t.TempDir(), "missing.json"))
	be.True(t, err != nil)
}

func TestLoadModelDocValidation(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr bool
	}{
		{"valid", `{"model": "gpt-4o", "temperature": 0.2, "max_tokens": 500}`, false},
		{"missing model", `{"temperature": 0.2, "max_tokens": 500}`, true},
		{"temperature too high", `{"model": "m", "temperature": 2.5, "max_tokens": 500}`, true},
		{"zero max_tokens", `{"model": "m", "temperature": 0, "max_tokens": 0}`, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, "model.json", tt.content)
			doc, err := LoadModelDoc(path)
			if tt.wantErr {
				be.True(t, err != nil)
				return
			}
			be.Err(t, err, nil)
			be.Equal(t, doc.Model, "gpt-4o")
		})
	}
}

func TestModelDocOverridesProviderSettings(t *testing.T) {
	path := writeFile(t, "model.json",
		`{"model": "anthropic/claude-3-opus", "temperature": 0.5, "max_tokens": 256}`)

	v := NewEmptyViper()
	v.Set("llm.model_config_path", path)
	v.Set("openai.model", "gpt-4o-mini")
	v.Set("openai.temperature", 0.9)
	v.Set("openai.max_tokens", 4000)
	cfg := NewFromViper(v)
	be.Err(t, cfg.ModelDocError(), nil)

	// The document replaces every field, not just the ones that differ.
	got := cfg.GetOpenAI()
	be.Equal(t, got.Model, "anthropic/claude-3-opus")
	be.Equal(t, got.Temperature, float32(0.5))
	be.Equal(t, got.MaxTokens, 256)

	// And it applies to every provider the same way.
	be.Equal(t, cfg.GetBedrock().Model, "anthropic/claude-3-opus")
	be.Equal(t, cfg.GetGemini().MaxTokens, 256)
}

func TestUnreadableModelDocFallsBack(t *testing.T) {
	path := writeFile(t, "model.json", `{"model":`)

	v := NewEmptyViper()
	v.Set("llm.model_config_path", path)
	v.Set("openai.model", "gpt-4o-mini")
	cfg := NewFromViper(v)

	be.True(t, cfg.ModelDocError() != nil)
	be.Equal(t, cfg.GetOpenAI().Model, "gpt-4o-mini")
}
