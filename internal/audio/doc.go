// Package audio handles per-session segment buffering and artifact assembly.
// It accumulates opaque binary audio segments in arrival order, enforces
// configurable size caps, and concatenates buffered segments into a single
// artifact for transcription.
package audio
