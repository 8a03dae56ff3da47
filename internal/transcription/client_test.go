package transcription

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func testConfig(endpoint string) Config {
	return Config{
		Endpoint: endpoint,
		APIKey:   "test-key",
		Model:    "whisper-large-v3-turbo",
		Language: "en",
		Timeout:  5 * time.Second,
	}
}

func TestNewClientValidation(t *testing.T) {
	tests := []struct {
		name   string
		config Config
		valid  bool
	}{
		{name: "valid", config: testConfig("http://localhost/transcribe"), valid: true},
		{name: "missing endpoint", config: Config{APIKey: "k", Model: "m"}, valid: false},
		{name: "missing api key", config: Config{Endpoint: "http://x", Model: "m"}, valid: false},
		{name: "missing model", config: Config{Endpoint: "http://x", APIKey: "k"}, valid: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewClient(tt.config)
			if tt.valid && err != nil {
				t.Errorf("Expected valid config but got error: %v", err)
			}
			if !tt.valid && err == nil {
				t.Error("Expected invalid config but got no error")
			}
		})
	}
}

func TestNewClientDefaultTimeout(t *testing.T) {
	cfg := testConfig("http://localhost/transcribe")
	cfg.Timeout = 0

	client, err := NewClient(cfg)
	if err != nil {
		t.Fatalf("Failed to create client: %v", err)
	}

	if client.httpClient.Timeout != 30*time.Second {
		t.Errorf("Expected default timeout 30s, got %v", client.httpClient.Timeout)
	}
}

func TestTranscribeSuccess(t *testing.T) {
	var gotAuth, gotModel, gotLanguage string
	var gotFile []byte

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")

		if err := r.ParseMultipartForm(10 << 20); err != nil {
			t.Errorf("Failed to parse multipart form: %v", err)
			http.Error(w, "bad form", http.StatusBadRequest)
			return
		}

		gotModel = r.FormValue("model")
		gotLanguage = r.FormValue("language")

		file, _, err := r.FormFile("file")
		if err != nil {
			t.Errorf("Missing file part: %v", err)
			http.Error(w, "no file", http.StatusBadRequest)
			return
		}
		defer file.Close()
		gotFile, _ = io.ReadAll(file)

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(Result{Text: "hello world"})
	}))
	defer server.Close()

	client, err := NewClient(testConfig(server.URL))
	if err != nil {
		t.Fatalf("Failed to create client: %v", err)
	}

	text, err := client.Transcribe(context.Background(), []byte("fake-webm-bytes"))
	if err != nil {
		t.Fatalf("Transcribe failed: %v", err)
	}

	if text != "hello world" {
		t.Errorf("Expected transcript 'hello world', got '%s'", text)
	}

	if gotAuth != "Bearer test-key" {
		t.Errorf("Expected bearer auth header, got '%s'", gotAuth)
	}

	if gotModel != "whisper-large-v3-turbo" {
		t.Errorf("Expected model field, got '%s'", gotModel)
	}

	if gotLanguage != "en" {
		t.Errorf("Expected language field, got '%s'", gotLanguage)
	}

	if string(gotFile) != "fake-webm-bytes" {
		t.Errorf("Uploaded artifact does not match, got %d bytes", len(gotFile))
	}

	stats := client.GetStats()
	if stats.TotalRequests != 1 || stats.SuccessRequests != 1 {
		t.Errorf("Expected 1/1 request stats, got %d/%d", stats.TotalRequests, stats.SuccessRequests)
	}
}

func TestTranscribeUnauthorized(t *testing.T) {
	for _, status := range []int{http.StatusUnauthorized, http.StatusForbidden} {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "invalid api key", status)
		}))

		client, err := NewClient(testConfig(server.URL))
		if err != nil {
			t.Fatalf("Failed to create client: %v", err)
		}

		_, err = client.Transcribe(context.Background(), []byte("audio"))
		if !errors.Is(err, ErrUnauthorized) {
			t.Errorf("Status %d: expected ErrUnauthorized, got %v", status, err)
		}

		server.Close()
	}
}

func TestTranscribeServiceError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "internal failure", http.StatusInternalServerError)
	}))
	defer server.Close()

	client, err := NewClient(testConfig(server.URL))
	if err != nil {
		t.Fatalf("Failed to create client: %v", err)
	}

	_, err = client.Transcribe(context.Background(), []byte("audio"))

	var serviceErr *ServiceError
	if !errors.As(err, &serviceErr) {
		t.Fatalf("Expected *ServiceError, got %v", err)
	}

	if serviceErr.Code != http.StatusInternalServerError {
		t.Errorf("Expected code 500, got %d", serviceErr.Code)
	}

	if !strings.Contains(serviceErr.Body, "internal failure") {
		t.Errorf("Expected diagnostic body, got '%s'", serviceErr.Body)
	}

	stats := client.GetStats()
	if stats.FailedRequests != 1 {
		t.Errorf("Expected 1 failed request, got %d", stats.FailedRequests)
	}
}

func TestTranscribeTransportError(t *testing.T) {
	// Dial a server that is already closed
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	endpoint := server.URL
	server.Close()

	client, err := NewClient(testConfig(endpoint))
	if err != nil {
		t.Fatalf("Failed to create client: %v", err)
	}

	_, err = client.Transcribe(context.Background(), []byte("audio"))

	var transportErr *TransportError
	if !errors.As(err, &transportErr) {
		t.Fatalf("Expected *TransportError, got %v", err)
	}
}

func TestTranscribeMalformedResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, "{not json")
	}))
	defer server.Close()

	client, err := NewClient(testConfig(server.URL))
	if err != nil {
		t.Fatalf("Failed to create client: %v", err)
	}

	_, err = client.Transcribe(context.Background(), []byte("audio"))

	var transportErr *TransportError
	if !errors.As(err, &transportErr) {
		t.Fatalf("Expected *TransportError for malformed JSON, got %v", err)
	}
}

func TestTranscribeEmptyArtifact(t *testing.T) {
	client, err := NewClient(testConfig("http://localhost:9/transcribe"))
	if err != nil {
		t.Fatalf("Failed to create client: %v", err)
	}

	if _, err := client.Transcribe(context.Background(), nil); err == nil {
		t.Error("Expected error for empty artifact but got none")
	}

	// Rejected before any network call
	if stats := client.GetStats(); stats.TotalRequests != 0 {
		t.Errorf("Expected 0 requests for empty artifact, got %d", stats.TotalRequests)
	}
}
