package audio

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"callaudit-backend/models"
)

func writeAudioFixture(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "call.wav")
	if err := os.WriteFile(path, []byte("RIFFfake"), 0o644); err != nil {
		t.Fatalf("failed to write fixture: %v", err)
	}
	return path
}

func TestWhisperClientTranscribe(t *testing.T) {
	var gotModel, gotFormat, gotLanguage, gotFilename, gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("failed to parse multipart form: %v", err)
		}
		gotModel = r.FormValue("model")
		gotFormat = r.FormValue("response_format")
		gotLanguage = r.FormValue("language")
		if _, header, err := r.FormFile("file"); err == nil {
			gotFilename = header.Filename
		} else {
			t.Errorf("missing file part: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"text": "hello there goodbye",
			"segments": [
				{"start": 0.0, "end": 2.1, "text": " hello there "},
				{"start": 2.1, "end": 4.0, "text": "goodbye"}
			]
		}`))
	}))
	defer srv.Close()

	client := NewWhisperClient(WhisperConfig{
		Endpoint: srv.URL,
		APIKey:   "wk-test",
		Language: "en",
	})

	segments, err := client.Transcribe(context.Background(), writeAudioFixture(t))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []models.TranscriptSegment{
		{Start: 0, Text: "hello there"},
		{Start: 2.1, Text: "goodbye"},
	}
	if diff := cmp.Diff(want, segments); diff != "" {
		t.Errorf("segments mismatch (-want +got):\n%s", diff)
	}

	if gotModel != "whisper-1" {
		t.Errorf("expected default model whisper-1, got %q", gotModel)
	}
	if gotFormat != "verbose_json" {
		t.Errorf("expected verbose_json, got %q", gotFormat)
	}
	if gotLanguage != "en" {
		t.Errorf("expected language en, got %q", gotLanguage)
	}
	if gotFilename != "call.wav" {
		t.Errorf("expected filename call.wav, got %q", gotFilename)
	}
	if gotAuth != "Bearer wk-test" {
		t.Errorf("expected bearer auth, got %q", gotAuth)
	}
}

func TestWhisperClientFallsBackToFullText(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"text": "  plain transcription  "}`))
	}))
	defer srv.Close()

	client := NewWhisperClient(WhisperConfig{Endpoint: srv.URL})

	segments, err := client.Transcribe(context.Background(), writeAudioFixture(t))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []models.TranscriptSegment{{Start: 0, Text: "plain transcription"}}
	if diff := cmp.Diff(want, segments); diff != "" {
		t.Errorf("segments mismatch (-want +got):\n%s", diff)
	}
}

func TestWhisperClientAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte("backend unavailable"))
	}))
	defer srv.Close()

	client := NewWhisperClient(WhisperConfig{Endpoint: srv.URL})

	_, err := client.Transcribe(context.Background(), writeAudioFixture(t))
	if err == nil {
		t.Fatal("expected error for non-200 status")
	}
}

func TestWhisperClientMissingFile(t *testing.T) {
	client := NewWhisperClient(WhisperConfig{Endpoint: "http://127.0.0.1:1"})

	_, err := client.Transcribe(context.Background(), filepath.Join(t.TempDir(), "nope.wav"))
	if err == nil {
		t.Fatal("expected error for missing audio file")
	}
}
