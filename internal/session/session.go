package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/ZaidGhaffar/Groq-transcriber/internal/audio"
	"github.com/ZaidGhaffar/Groq-transcriber/internal/metrics"
	"github.com/ZaidGhaffar/Groq-transcriber/internal/registry"
)

// State represents the lifecycle state of a session
type State int

const (
	// StateOpen - session is actively receiving segments
	StateOpen State = iota
	// StateClosed - terminal; buffered state discarded, registry entry removed
	StateClosed
)

// String returns the string representation of the state
func (s State) String() string {
	switch s {
	case StateOpen:
		return "OPEN"
	case StateClosed:
		return "CLOSED"
	default:
		return fmt.Sprintf("UNKNOWN(%d)", s)
	}
}

// ErrSessionClosed is returned when a segment arrives after the session
// reached its terminal state.
var ErrSessionClosed = errors.New("session is closed")

// Transcriber converts one audio artifact into text. Implemented by
// transcription.Client; faked in tests.
type Transcriber interface {
	Transcribe(ctx context.Context, artifact []byte) (string, error)
}

// Config contains per-session policy parameters
type Config struct {
	PassInterval     time.Duration // minimum time between triggered passes
	MinSegmentCount  int           // segments since session start required before any pass
	MaxSegmentBytes  int           // per-segment size cap
	MaxBufferedBytes int           // cap on bytes buffered between passes
	SpoolDir         string        // base directory for the segment spool; empty disables it
}

// Session owns one connection's lifecycle: segment accumulation, trigger
// evaluation, transcription passes, and result delivery. All methods are
// called from the connection's read loop, so passes are naturally
// serialized; Close may additionally be called once from shutdown paths.
type Session struct {
	id          string
	config      Config
	logger      *slog.Logger
	registry    *registry.Registry
	transcriber Transcriber
	metrics     *metrics.Metrics

	buffer *audio.Buffer
	spool  *audio.Spool

	startTime time.Time
	lastPass  time.Time
	state     State

	// Injectable clock for trigger evaluation
	now func() time.Time

	// Serializes segment handling and passes with Close. Shutdown may close
	// a session while its read loop is mid-pass; without this lock the final
	// flush would overlap that pass and re-submit the same buffered audio.
	passMu sync.Mutex

	mu sync.Mutex
}

// Info represents session information for monitoring and APIs
type Info struct {
	ID        string            `json:"id"`
	State     string            `json:"state"`
	StartTime time.Time         `json:"start_time"`
	LastPass  time.Time         `json:"last_pass"`
	Duration  time.Duration     `json:"duration"`
	Buffer    audio.BufferStats `json:"buffer"`
}

// New creates a session in the Open state and registers its outbound channel.
// The "last pass" timestamp starts at the connection start time, so the first
// pass cannot fire before one full interval has elapsed.
func New(id string, config Config, logger *slog.Logger, reg *registry.Registry,
	sender registry.Sender, transcriber Transcriber, m *metrics.Metrics) (*Session, error) {

	if id == "" {
		return nil, fmt.Errorf("session id cannot be empty")
	}

	if transcriber == nil {
		return nil, fmt.Errorf("transcriber cannot be nil")
	}

	var spool *audio.Spool
	if config.SpoolDir != "" {
		var err error
		spool, err = audio.NewSpool(config.SpoolDir, id)
		if err != nil {
			return nil, fmt.Errorf("failed to create session spool: %w", err)
		}
	}

	now := time.Now()
	s := &Session{
		id:          id,
		config:      config,
		logger:      logger.With(slog.String("session_id", id)),
		registry:    reg,
		transcriber: transcriber,
		metrics:     m,
		buffer:      audio.NewBuffer(config.MaxSegmentBytes, config.MaxBufferedBytes),
		spool:       spool,
		startTime:   now,
		lastPass:    now,
		state:       StateOpen,
		now:         time.Now,
	}

	reg.Register(id, sender)
	m.RecordSessionOpened()

	s.logger.Info("Session opened",
		slog.Duration("pass_interval", config.PassInterval),
		slog.Int("min_segment_count", config.MinSegmentCount),
	)

	return s, nil
}

// ID returns the session identifier
func (s *Session) ID() string {
	return s.id
}

// State returns the current lifecycle state
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// HandleSegment ingests one inbound binary segment and evaluates the trigger
// policy. When the trigger fires, the transcription pass runs inline: the
// caller's read loop suspends until the pass completes, which keeps passes
// for this session strictly ordered.
func (s *Session) HandleSegment(ctx context.Context, data []byte) error {
	s.passMu.Lock()
	defer s.passMu.Unlock()

	s.mu.Lock()
	if s.state != StateOpen {
		s.mu.Unlock()
		return ErrSessionClosed
	}
	s.mu.Unlock()

	if err := s.buffer.Append(data); err != nil {
		s.metrics.RecordSegmentRejected()
		s.logger.Error("Segment rejected",
			slog.Int("segment_bytes", len(data)),
			slog.String("error", err.Error()),
		)
		// A rejected segment is not fatal; the session stays open
		return nil
	}

	s.metrics.RecordSegment(len(data))

	if s.spool != nil {
		if err := s.spool.Add(data); err != nil {
			s.logger.Warn("Failed to spool segment", slog.String("error", err.Error()))
		}
	}

	s.logger.Debug("Segment buffered",
		slog.Int("segment_bytes", len(data)),
		slog.Int("pending_segments", s.buffer.SegmentCount()),
	)

	if s.shouldFirePass() {
		s.runPass(ctx)
	}

	return nil
}

// shouldFirePass evaluates the trigger policy: enough time since the last
// pass AND enough segments since session start. Only the elapsed-time
// condition resets after a pass; the count condition is a session-lifetime
// threshold.
func (s *Session) shouldFirePass() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.now().Sub(s.lastPass) < s.config.PassInterval {
		return false
	}

	return s.buffer.TotalSegments() >= s.config.MinSegmentCount
}

// runPass performs one assemble-and-transcribe attempt over the buffered
// segments and delivers the result. The buffer is dropped unconditionally
// after the attempt, success or failure. No failure here closes the session.
func (s *Session) runPass(ctx context.Context) {
	s.mu.Lock()
	s.lastPass = s.now()
	s.mu.Unlock()

	artifact, err := s.buffer.Assemble()
	if err != nil {
		if errors.Is(err, audio.ErrEmptyInput) {
			// Nothing buffered, nothing to send
			s.metrics.RecordPassSkippedEmpty()
			s.logger.Debug("Pass skipped, no buffered audio")
			return
		}
		s.logger.Error("Artifact assembly failed", slog.String("error", err.Error()))
		return
	}

	passStart := time.Now()
	text, err := s.transcriber.Transcribe(ctx, artifact)
	passDuration := time.Since(passStart)

	s.buffer.Reset()

	if err != nil {
		s.metrics.RecordPass(len(artifact), passDuration.Seconds(), true)
		s.logger.Error("Transcription pass failed",
			slog.Int("artifact_bytes", len(artifact)),
			slog.Float64("duration", passDuration.Seconds()),
			slog.String("error", err.Error()),
		)
		return
	}

	s.metrics.RecordPass(len(artifact), passDuration.Seconds(), false)

	if text == "" {
		s.logger.Debug("Transcription returned no text",
			slog.Int("artifact_bytes", len(artifact)),
		)
		return
	}

	s.deliver(text)
}

// deliver routes transcribed text to the session's outbound channel via the
// registry. A vanished session is logged, never treated as an error.
func (s *Session) deliver(text string) {
	delivered, err := s.registry.Send(s.id, text)
	if err != nil {
		s.metrics.RecordDelivery(false)
		s.logger.Error("Failed to write transcript to client", slog.String("error", err.Error()))
		return
	}

	s.metrics.RecordDelivery(delivered)

	if !delivered {
		s.logger.Warn("Transcript undeliverable, session no longer registered",
			slog.Int("text_length", len(text)),
		)
		return
	}

	s.logger.Info("Transcript delivered", slog.Int("text_length", len(text)))
}

// Close performs the disconnect transition: exactly one final pass over the
// remaining buffered segments (bypassing the trigger gate), then removal of
// the registry entry, then discard of all buffered state. It blocks until an
// in-flight pass on the read loop completes, so the final flush never overlaps
// another pass. Idempotent; never returns an error to the caller because
// teardown failures are recoverable and logged.
func (s *Session) Close(ctx context.Context) {
	s.passMu.Lock()
	defer s.passMu.Unlock()

	s.mu.Lock()
	if s.state == StateClosed {
		s.mu.Unlock()
		return
	}
	s.state = StateClosed
	s.mu.Unlock()

	// Final flush: the trigger gate does not apply on disconnect. An empty
	// buffer makes this a silent no-op inside runPass.
	s.runPass(ctx)

	// Unregister before discarding state so no later delivery can target
	// this identifier.
	s.registry.Unregister(s.id)

	s.buffer.Reset()

	if s.spool != nil {
		for _, err := range s.spool.Remove() {
			s.logger.Warn("Spool cleanup failure", slog.String("error", err.Error()))
		}
	}

	duration := time.Since(s.startTime)
	s.metrics.RecordSessionClosed(duration.Seconds())

	s.logger.Info("Session closed",
		slog.Duration("duration", duration),
		slog.Int("total_segments", s.buffer.TotalSegments()),
	)
}

// GetInfo returns session information for monitoring
func (s *Session) GetInfo() Info {
	s.mu.Lock()
	state := s.state
	lastPass := s.lastPass
	s.mu.Unlock()

	return Info{
		ID:        s.id,
		State:     state.String(),
		StartTime: s.startTime,
		LastPass:  lastPass,
		Duration:  time.Since(s.startTime),
		Buffer:    s.buffer.GetStats(),
	}
}
