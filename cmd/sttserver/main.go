// Command sttserver is a local stand-in for the Groq transcription API. It
// accepts the same multipart request the relay sends and answers with a fixed
// transcript, which makes end-to-end testing possible without an API key.
package main

import (
	"encoding/json"
	"flag"
	"io"
	"log"
	"net/http"
	"strings"
	"time"
)

type transcriptionResponse struct {
	Text string `json:"text"`
}

var (
	requireKey = flag.String("require-key", "", "If set, reject requests whose Bearer token does not match")
	delay      = flag.Duration("delay", 200*time.Millisecond, "Simulated processing time per request")
)

func transcribeHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if *requireKey != "" {
		auth := r.Header.Get("Authorization")
		if auth != "Bearer "+*requireKey {
			http.Error(w, `{"error":{"message":"Invalid API Key"}}`, http.StatusUnauthorized)
			return
		}
	}

	// Parse multipart form
	if err := r.ParseMultipartForm(25 << 20); err != nil {
		http.Error(w, "Error parsing form", http.StatusBadRequest)
		return
	}

	model := r.FormValue("model")
	language := r.FormValue("language")
	responseFormat := r.FormValue("response_format")

	// Get audio file
	file, header, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "Error getting audio file", http.StatusBadRequest)
		return
	}
	defer file.Close()

	audioData, err := io.ReadAll(file)
	if err != nil {
		http.Error(w, "Error reading audio file", http.StatusInternalServerError)
		return
	}

	log.Printf("transcription request: model=%s language=%s response_format=%s file=%s size=%d",
		model, language, responseFormat, header.Filename, len(audioData))

	// Simulate processing time
	time.Sleep(*delay)

	response := transcriptionResponse{
		Text: "this is a test transcript for a " + byteCountLabel(len(audioData)) + " audio artifact",
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(response)

	log.Printf("transcription response sent: %q", response.Text)
}

func byteCountLabel(n int) string {
	switch {
	case n >= 1<<20:
		return "large"
	case n >= 1<<10:
		return "medium"
	default:
		return "small"
	}
}

func main() {
	addr := flag.String("addr", ":9000", "Listen address")
	flag.Parse()

	http.HandleFunc("/openai/v1/audio/transcriptions", transcribeHandler)

	endpoint := *addr
	if strings.HasPrefix(endpoint, ":") {
		endpoint = "localhost" + endpoint
	}
	log.Printf("STT stub server starting on %s", *addr)
	log.Printf("endpoint: http://%s/openai/v1/audio/transcriptions", endpoint)

	if err := http.ListenAndServe(*addr, nil); err != nil {
		log.Fatal("Server failed to start:", err)
	}
}
