// Package session implements the per-connection state machine that buffers
// inbound audio segments, fires periodic transcription passes, and delivers
// results through the session registry. Each session is driven sequentially
// by its connection's read loop; passes for one session never overlap.
package session
