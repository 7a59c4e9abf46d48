package provider

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/erg0nix/synapse/internal/core"
)

func floatPtr(v float64) *float64 { return &v }
func intPtr(v int) *int           { return &v }

func TestGenerate_SendsPayload(t *testing.T) {
	var captured map[string]any

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/generate" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Errorf("decode payload: %v", err)
		}
		json.NewEncoder(w).Encode(map[string]string{"response": "the roots remember"})
	}))
	defer server.Close()

	client := New(Config{Endpoint: server.URL})
	text, err := client.Generate(context.Background(), Request{
		Model:  "gemma3:12b",
		System: "you are the synapse",
		Prompt: "what grows here?",
		Sampling: &core.SamplingConfig{
			Temperature: floatPtr(0.8),
			TopK:        intPtr(40),
		},
	})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if text != "the roots remember" {
		t.Fatalf("unexpected response %q", text)
	}

	if captured["model"] != "gemma3:12b" || captured["prompt"] != "what grows here?" {
		t.Fatalf("unexpected payload: %v", captured)
	}
	if captured["system"] != "you are the synapse" {
		t.Fatalf("system not forwarded: %v", captured)
	}
	if captured["stream"] != false {
		t.Fatal("streaming must be disabled")
	}
	options, ok := captured["options"].(map[string]any)
	if !ok || options["temperature"] != 0.8 {
		t.Fatalf("sampling options not forwarded: %v", captured["options"])
	}
}

func TestGenerate_RetriesTransient(t *testing.T) {
	var attempts atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if attempts.Add(1) < 3 {
			http.Error(w, `{"error": "model is loading"}`, http.StatusInternalServerError)
			return
		}
		json.NewEncoder(w).Encode(map[string]string{"response": "recovered"})
	}))
	defer server.Close()

	client := New(Config{Endpoint: server.URL, MaxAttempts: 3, Backoff: time.Millisecond})
	text, err := client.Generate(context.Background(), Request{Model: "m", Prompt: "p"})
	if err != nil {
		t.Fatalf("expected recovery after retries, got %v", err)
	}
	if text != "recovered" {
		t.Fatalf("unexpected response %q", text)
	}
	if got := attempts.Load(); got != 3 {
		t.Fatalf("expected 3 attempts, got %d", got)
	}
}

func TestGenerate_TransientExhausted(t *testing.T) {
	var attempts atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		http.Error(w, "overloaded", http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := New(Config{Endpoint: server.URL, MaxAttempts: 2, Backoff: time.Millisecond})
	_, err := client.Generate(context.Background(), Request{Model: "m", Prompt: "p"})

	var transient *TransientError
	if !errors.As(err, &transient) {
		t.Fatalf("expected TransientError, got %v", err)
	}
	if transient.Status != http.StatusTooManyRequests {
		t.Fatalf("unexpected status %d", transient.Status)
	}
	if got := attempts.Load(); got != 2 {
		t.Fatalf("expected 2 attempts, got %d", got)
	}
}

func TestGenerate_FatalNotRetried(t *testing.T) {
	var attempts atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		http.Error(w, `{"error": "model not found"}`, http.StatusNotFound)
	}))
	defer server.Close()

	client := New(Config{Endpoint: server.URL, MaxAttempts: 5, Backoff: time.Millisecond})
	_, err := client.Generate(context.Background(), Request{Model: "m", Prompt: "p"})

	var fatal *FatalError
	if !errors.As(err, &fatal) {
		t.Fatalf("expected FatalError, got %v", err)
	}
	if fatal.Status != http.StatusNotFound {
		t.Fatalf("unexpected status %d", fatal.Status)
	}
	if got := attempts.Load(); got != 1 {
		t.Fatalf("fatal errors must not be retried, got %d attempts", got)
	}
}

func TestGenerate_CancellationAborts(t *testing.T) {
	block := make(chan struct{})
	defer close(block)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-block:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()

	client := New(Config{Endpoint: server.URL, MaxAttempts: 3, Backoff: time.Second})

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	_, err := client.Generate(ctx, Request{Model: "m", Prompt: "p"})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Fatalf("cancellation took too long: %v", elapsed)
	}
}

func TestListModels(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/tags" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"models": []map[string]string{
				{"name": "gemma3:12b"},
				{"name": "qwen3:8b"},
			},
		})
	}))
	defer server.Close()

	client := New(Config{Endpoint: server.URL})
	models, err := client.ListModels(context.Background())
	if err != nil {
		t.Fatalf("list models: %v", err)
	}
	if len(models) != 2 || models[0] != "gemma3:12b" || models[1] != "qwen3:8b" {
		t.Fatalf("unexpected models: %v", models)
	}

	if !client.Healthy(context.Background()) {
		t.Fatal("expected healthy endpoint")
	}
}

func TestHealthy_Unreachable(t *testing.T) {
	client := New(Config{Endpoint: "http://127.0.0.1:1"})

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	if client.Healthy(ctx) {
		t.Fatal("expected unhealthy endpoint")
	}
}
