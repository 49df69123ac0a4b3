package classify_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"shelve/internal/classify"
)

func TestCompleteJSONReturnsContent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("missing auth header, got %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"{\"ok\":true}"}}]}`))
	}))
	defer server.Close()

	client := classify.NewClient(classify.ClientConfig{
		APIKey:  "test-key",
		BaseURL: server.URL,
		Model:   "test-model",
	})

	content, err := client.CompleteJSON(context.Background(), "system", "user")
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if content != `{"ok":true}` {
		t.Fatalf("unexpected content: %q", content)
	}
}

func TestCompleteJSONRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			http.Error(w, "overloaded", http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"{}"}}]}`))
	}))
	defer server.Close()

	var slept []time.Duration
	client := classify.NewClient(classify.ClientConfig{
		APIKey:  "test-key",
		BaseURL: server.URL,
		Model:   "test-model",
	},
		classify.WithRetryMaxAttempts(3),
		classify.WithRetryBackoff(time.Second, 4*time.Second),
		classify.WithSleeper(func(d time.Duration) { slept = append(slept, d) }),
	)

	content, err := client.CompleteJSON(context.Background(), "system", "user")
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if content != "{}" {
		t.Fatalf("unexpected content: %q", content)
	}
	if calls.Load() != 3 {
		t.Fatalf("expected 3 attempts, got %d", calls.Load())
	}
	if len(slept) != 2 || slept[0] != time.Second || slept[1] != 2*time.Second {
		t.Fatalf("unexpected backoff sequence: %v", slept)
	}
}

func TestCompleteJSONDoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "bad key", http.StatusUnauthorized)
	}))
	defer server.Close()

	client := classify.NewClient(classify.ClientConfig{
		APIKey:  "bad-key",
		BaseURL: server.URL,
		Model:   "test-model",
	}, classify.WithSleeper(func(time.Duration) {}))

	if _, err := client.CompleteJSON(context.Background(), "system", "user"); err == nil {
		t.Fatal("expected error")
	}
	if calls.Load() != 1 {
		t.Fatalf("client errors must not retry, got %d attempts", calls.Load())
	}
}

func TestCompleteJSONRequiresAPIKey(t *testing.T) {
	client := classify.NewClient(classify.ClientConfig{Model: "test-model"})
	if _, err := client.CompleteJSON(context.Background(), "system", "user"); err == nil {
		t.Fatal("expected error for missing api key")
	}
}

func TestDecodeJSONStripsCodeFences(t *testing.T) {
	var target struct {
		OK bool `json:"ok"`
	}
	payload := "```json\n{\"ok\": true}\n```"
	if err := classify.DecodeJSON(payload, &target); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !target.OK {
		t.Fatal("payload not decoded")
	}
}

func TestDecodeJSONExtractsEmbeddedObject(t *testing.T) {
	var target struct {
		OK bool `json:"ok"`
	}
	payload := `Here is your answer: {"ok": true} — let me know if you need more.`
	if err := classify.DecodeJSON(payload, &target); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !target.OK {
		t.Fatal("payload not decoded")
	}
}
