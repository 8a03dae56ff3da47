// Package transcription implements the HTTP client for the speech-to-text API.
// It submits assembled audio artifacts as multipart form uploads with bearer
// authorization and maps failures to a typed taxonomy. Each call is a single
// attempt; retry policy belongs to the caller.
package transcription
