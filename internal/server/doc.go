// Package server implements the WebSocket endpoint clients stream audio to
// and the HTTP API for monitoring and management. Each WebSocket connection
// drives one session; transcripts travel back over the same connection as
// text messages.
package server
