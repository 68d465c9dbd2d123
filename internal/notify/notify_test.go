package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestWebhookNotifierPostsAlert(t *testing.T) {
	var got alertPayload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("unexpected content type %s", ct)
		}
		json.NewDecoder(r.Body).Decode(&got)
	}))
	defer srv.Close()

	n := NewWebhookNotifier(srv.URL, nil)
	if err := n.Notify(context.Background(), "Surge warning", "Vector risk critical"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Subject != "Surge warning" || got.Body != "Vector risk critical" {
		t.Errorf("unexpected payload: %+v", got)
	}
}

func TestWebhookNotifierRelayFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	n := NewWebhookNotifier(srv.URL, nil)
	if err := n.Notify(context.Background(), "s", "b"); err == nil {
		t.Error("expected error for relay failure")
	}
}

func TestLogNotifierNeverFails(t *testing.T) {
	if err := (LogNotifier{}).Notify(context.Background(), "s", "b"); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}
