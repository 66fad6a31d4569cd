package nl2sql

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestOpenAITranslateSendsChatRequest(t *testing.T) {
	var gotPath, gotAuth string
	var gotPayload struct {
		Model    string `json:"model"`
		Messages []struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"messages"`
		Temperature float64 `json:"temperature"`
		MaxTokens   int     `json:"max_tokens"`
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&gotPayload); err != nil {
			t.Errorf("decode payload: %v", err)
		}
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"SELECT employee_id FROM employees"}}]}`))
	}))
	defer srv.Close()

	translator, err := NewOpenAITranslator(OpenAIConfig{
		BaseURL:     srv.URL,
		APIKey:      "test-key",
		Model:       "sql-model",
		Temperature: 0.1,
		MaxTokens:   128,
	})
	if err != nil {
		t.Fatalf("NewOpenAITranslator() error = %v", err)
	}

	result, err := translator.Translate(context.Background(), "Convert to SQL: show all employees")
	if err != nil {
		t.Fatalf("Translate() error = %v", err)
	}
	if result.SQL != "SELECT employee_id FROM employees" {
		t.Fatalf("SQL = %q", result.SQL)
	}
	if result.Provider != "openai-compatible" || result.Model != "sql-model" {
		t.Fatalf("Provider = %q, Model = %q", result.Provider, result.Model)
	}
	if gotPath != "/v1/chat/completions" {
		t.Fatalf("path = %q", gotPath)
	}
	if gotAuth != "Bearer test-key" {
		t.Fatalf("auth header = %q", gotAuth)
	}
	if gotPayload.Model != "sql-model" || gotPayload.MaxTokens != 128 {
		t.Fatalf("payload model = %q, max_tokens = %d", gotPayload.Model, gotPayload.MaxTokens)
	}
	if len(gotPayload.Messages) != 2 || gotPayload.Messages[0].Role != "system" || gotPayload.Messages[1].Role != "user" {
		t.Fatalf("messages = %+v", gotPayload.Messages)
	}
	if gotPayload.Messages[1].Content != "Convert to SQL: show all employees" {
		t.Fatalf("user message = %q", gotPayload.Messages[1].Content)
	}
}

func TestOpenAITranslateCleansMarkdown(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"` + "```sql\\nSELECT 1;\\n```" + `"}}]}`))
	}))
	defer srv.Close()

	translator, err := NewOpenAITranslator(OpenAIConfig{BaseURL: srv.URL, APIKey: "k"})
	if err != nil {
		t.Fatalf("NewOpenAITranslator() error = %v", err)
	}

	result, err := translator.Translate(context.Background(), "anything")
	if err != nil {
		t.Fatalf("Translate() error = %v", err)
	}
	if result.SQL != "SELECT 1;" {
		t.Fatalf("SQL = %q", result.SQL)
	}
}

func TestOpenAITranslateRejectsEmptyChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[]}`))
	}))
	defer srv.Close()

	translator, err := NewOpenAITranslator(OpenAIConfig{BaseURL: srv.URL, APIKey: "k"})
	if err != nil {
		t.Fatalf("NewOpenAITranslator() error = %v", err)
	}

	if _, err := translator.Translate(context.Background(), "anything"); err == nil {
		t.Fatal("expected error for empty choices")
	}
}

func TestOpenAITranslateSurfacesHTTPFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model overloaded", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	translator, err := NewOpenAITranslator(OpenAIConfig{BaseURL: srv.URL, APIKey: "k"})
	if err != nil {
		t.Fatalf("NewOpenAITranslator() error = %v", err)
	}

	_, err = translator.Translate(context.Background(), "anything")
	if err == nil || !strings.Contains(err.Error(), "status=503") {
		t.Fatalf("Translate() error = %v", err)
	}
}

func TestNewOpenAITranslatorValidation(t *testing.T) {
	if _, err := NewOpenAITranslator(OpenAIConfig{APIKey: "k"}); err == nil {
		t.Fatal("expected error for missing base URL")
	}
	if _, err := NewOpenAITranslator(OpenAIConfig{BaseURL: "http://localhost"}); err == nil {
		t.Fatal("expected error for missing api key")
	}
}

func TestNewOpenAITranslatorDefaultsModel(t *testing.T) {
	translator, err := NewOpenAITranslator(OpenAIConfig{BaseURL: "http://localhost", APIKey: "k"})
	if err != nil {
		t.Fatalf("NewOpenAITranslator() error = %v", err)
	}
	if translator.model != "gpt-5" {
		t.Fatalf("model = %q", translator.model)
	}
}
