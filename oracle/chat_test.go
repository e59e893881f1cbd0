package oracle

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestChatClientComplete(t *testing.T) {
	var gotAuth, gotProject string
	var gotBody chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotProject = r.Header.Get("OpenAI-Project")
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("failed to decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"choices": [{"message": {"content": "[{\"result\": \"Yes\"}]"}}]}`))
	}))
	defer srv.Close()

	client := NewChatClient(ChatConfig{
		Endpoint: srv.URL,
		APIKey:   "sk-test",
		Project:  "proj-1",
		Model:    "gpt-4o-mini",
	})

	out, err := client.Complete(context.Background(), "judge this call")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != `[{"result": "Yes"}]` {
		t.Errorf("unexpected content: %q", out)
	}

	if gotAuth != "Bearer sk-test" {
		t.Errorf("expected bearer auth, got %q", gotAuth)
	}
	if gotProject != "proj-1" {
		t.Errorf("expected project header, got %q", gotProject)
	}
	if gotBody.Model != "gpt-4o-mini" {
		t.Errorf("expected model in body, got %q", gotBody.Model)
	}
	if len(gotBody.Messages) != 1 || gotBody.Messages[0].Content != "judge this call" {
		t.Errorf("prompt not forwarded: %+v", gotBody.Messages)
	}
}

func TestChatClientNonOKStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`rate limited`))
	}))
	defer srv.Close()

	client := NewChatClient(ChatConfig{Endpoint: srv.URL, APIKey: "sk-test"})

	_, err := client.Complete(context.Background(), "judge")
	if err == nil {
		t.Fatal("expected error for non-200 status")
	}
	if !strings.Contains(err.Error(), "429") || !strings.Contains(err.Error(), "rate limited") {
		t.Errorf("error should carry status and body, got: %v", err)
	}
}

func TestChatClientAPIErrorBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"error": {"message": "invalid api key"}}`))
	}))
	defer srv.Close()

	client := NewChatClient(ChatConfig{Endpoint: srv.URL, APIKey: "bad"})

	_, err := client.Complete(context.Background(), "judge")
	if err == nil || !strings.Contains(err.Error(), "invalid api key") {
		t.Errorf("expected API error message, got: %v", err)
	}
}

func TestChatClientNoChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"choices": []}`))
	}))
	defer srv.Close()

	client := NewChatClient(ChatConfig{Endpoint: srv.URL, APIKey: "sk-test"})

	_, err := client.Complete(context.Background(), "judge")
	if err == nil {
		t.Fatal("expected error for empty choices")
	}
}

func TestChatClientDefaults(t *testing.T) {
	client := NewChatClient(ChatConfig{APIKey: "sk-test"})
	if client.cfg.Endpoint != defaultChatEndpoint {
		t.Errorf("expected default endpoint, got %q", client.cfg.Endpoint)
	}
	if client.cfg.Model == "" {
		t.Error("expected default model")
	}
	if client.cfg.MaxTokens == 0 {
		t.Error("expected default max tokens")
	}
}

func TestFuncAdapter(t *testing.T) {
	var got string
	o := Func(func(ctx context.Context, prompt string) (string, error) {
		got = prompt
		return "ok", nil
	})

	out, err := o.Complete(context.Background(), "hello")
	if err != nil || out != "ok" {
		t.Fatalf("unexpected result: %q, %v", out, err)
	}
	if got != "hello" {
		t.Errorf("prompt not forwarded: %q", got)
	}
}
