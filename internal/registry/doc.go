// Package registry maps session identifiers to their outbound delivery
// channels so asynchronous transcription results reach the right connection.
// All operations are safe under concurrent use from many sessions.
package registry
