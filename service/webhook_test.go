package service

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"callaudit-backend/models"
)

func TestWebhookPushDeliversPayload(t *testing.T) {
	var received models.AuditOutcome
	var contentType string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		contentType = r.Header.Get("Content-Type")
		if err := json.NewDecoder(r.Body).Decode(&received); err != nil {
			t.Errorf("failed to decode payload: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	d := NewWebhookDispatcher(srv.URL, time.Second, nil)

	outcome := &models.AuditOutcome{
		SampleID: "sample-42",
		Status:   models.StatusCompleted,
		Evaluations: []models.GroupResult{
			{ID: "1", Name: "greeting", Verdicts: []models.Verdict{{Result: models.ResultYes}}},
		},
	}
	d.Push(context.Background(), outcome)

	if contentType != "application/json" {
		t.Errorf("expected application/json, got %q", contentType)
	}
	if received.SampleID != "sample-42" {
		t.Errorf("expected sampleId sample-42, got %q", received.SampleID)
	}
	if received.Status != models.StatusCompleted {
		t.Errorf("expected completed, got %s", received.Status)
	}
}

func TestWebhookPushSwallowsCallbackErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	d := NewWebhookDispatcher(srv.URL, time.Second, nil)

	// Must not panic or surface anything to the caller.
	d.Push(context.Background(), &models.AuditOutcome{SampleID: "s", Status: models.StatusError})
}

func TestWebhookPushUnconfiguredIsNoOp(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	}))
	defer srv.Close()

	d := NewWebhookDispatcher("", time.Second, nil)
	if d.Configured() {
		t.Fatal("empty URL must report unconfigured")
	}

	d.Push(context.Background(), &models.AuditOutcome{SampleID: "s"})
	if hits.Load() != 0 {
		t.Error("unconfigured dispatcher must not send anything")
	}
}

func TestWebhookPushUnreachableEndpoint(t *testing.T) {
	d := NewWebhookDispatcher("http://127.0.0.1:1", 100*time.Millisecond, nil)
	d.Push(context.Background(), &models.AuditOutcome{SampleID: "s", Status: models.StatusCompleted})
}
