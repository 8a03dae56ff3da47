package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/ZaidGhaffar/Groq-transcriber/internal/config"
	"github.com/ZaidGhaffar/Groq-transcriber/internal/metrics"
	"github.com/ZaidGhaffar/Groq-transcriber/internal/registry"
	"github.com/ZaidGhaffar/Groq-transcriber/internal/session"
)

// WSServer accepts client WebSocket connections and runs one session per
// connection. The read loop is the session's single driving task: segment
// ingestion, trigger evaluation, and transcription passes all execute on it
// sequentially.
type WSServer struct {
	server      *http.Server
	config      *config.Config
	logger      *slog.Logger
	registry    *registry.Registry
	transcriber session.Transcriber
	metrics     *metrics.Metrics
	upgrader    websocket.Upgrader

	// Live sessions for monitoring and shutdown
	sessions map[string]*session.Session
	mu       sync.RWMutex

	// Statistics
	connectionsAccepted uint64
	upgradeFailures     uint64
	statsMu             sync.RWMutex
}

// NewWSServer creates the client-facing WebSocket server
func NewWSServer(cfg *config.Config, logger *slog.Logger, reg *registry.Registry,
	transcriber session.Transcriber, m *metrics.Metrics) *WSServer {

	s := &WSServer{
		config:      cfg,
		logger:      logger,
		registry:    reg,
		transcriber: transcriber,
		metrics:     m,
		sessions:    make(map[string]*session.Session),
	}

	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		CheckOrigin:     s.checkOrigin,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleRoot)
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/ws", s.handleWebSocket)

	s.server = &http.Server{
		Addr:        fmt.Sprintf("%s:%d", cfg.Server.BindAddress, cfg.Server.Port),
		Handler:     mux,
		ReadTimeout: 0, // WebSocket connections are long-lived
		IdleTimeout: 120 * time.Second,
	}

	return s
}

// checkOrigin validates the Origin header against the configured allow list.
// Requests without an Origin header (non-browser clients) are accepted.
func (s *WSServer) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}

	for _, allowed := range s.config.Server.AllowedOrigins {
		if allowed == "*" || allowed == origin {
			return true
		}
	}

	s.logger.Warn("Rejected WebSocket origin", slog.String("origin", origin))
	return false
}

// Start begins serving WebSocket connections
func (s *WSServer) Start() error {
	s.logger.Info("Starting WebSocket server",
		slog.String("address", s.server.Addr),
		slog.Int64("read_limit", s.config.Server.ReadLimit),
	)

	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Error("WebSocket server error", slog.String("error", err.Error()))
		}
	}()

	return nil
}

// Stop gracefully stops the server and closes all live sessions. Each session
// gets its final flush before its buffered state is discarded.
func (s *WSServer) Stop(ctx context.Context) error {
	s.logger.Info("Stopping WebSocket server...")

	err := s.server.Shutdown(ctx)

	s.mu.Lock()
	remaining := make([]*session.Session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		remaining = append(remaining, sess)
	}
	s.sessions = make(map[string]*session.Session)
	s.mu.Unlock()

	for _, sess := range remaining {
		sess.Close(ctx)
	}

	return err
}

// handleWebSocket upgrades the connection and drives the session until
// disconnect
func (s *WSServer) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.statsMu.Lock()
		s.upgradeFailures++
		s.statsMu.Unlock()

		s.logger.Warn("WebSocket upgrade failed",
			slog.String("remote_addr", r.RemoteAddr),
			slog.String("error", err.Error()),
		)
		return
	}
	defer conn.Close()

	conn.SetReadLimit(s.config.Server.ReadLimit)

	id := uuid.NewString()

	sessionConfig := session.Config{
		PassInterval:     s.config.Session.GetPassInterval(),
		MinSegmentCount:  s.config.Session.MinSegmentCount,
		MaxSegmentBytes:  s.config.Session.MaxSegmentBytes,
		MaxBufferedBytes: s.config.Session.MaxBufferedBytes,
		SpoolDir:         s.config.Session.SpoolDir,
	}

	sender := newConnSender(conn)
	sess, err := session.New(id, sessionConfig, s.logger, s.registry, sender, s.transcriber, s.metrics)
	if err != nil {
		s.logger.Error("Failed to create session",
			slog.String("session_id", id),
			slog.String("error", err.Error()),
		)
		return
	}

	s.statsMu.Lock()
	s.connectionsAccepted++
	s.statsMu.Unlock()

	s.mu.Lock()
	s.sessions[id] = sess
	s.mu.Unlock()

	s.logger.Info("Client connected",
		slog.String("session_id", id),
		slog.String("remote_addr", r.RemoteAddr),
	)

	s.readLoop(r.Context(), conn, sess)

	// Disconnect: one final flush, then teardown
	sess.Close(context.Background())

	s.mu.Lock()
	delete(s.sessions, id)
	s.mu.Unlock()

	s.logger.Info("Client disconnected", slog.String("session_id", id))
}

// readLoop consumes inbound messages until the connection closes. Binary
// messages are audio segments; anything else is ignored.
func (s *WSServer) readLoop(ctx context.Context, conn *websocket.Conn, sess *session.Session) {
	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.logger.Warn("WebSocket read error",
					slog.String("session_id", sess.ID()),
					slog.String("error", err.Error()),
				)
			}
			return
		}

		if msgType != websocket.BinaryMessage {
			s.logger.Debug("Ignoring non-binary message",
				slog.String("session_id", sess.ID()),
				slog.Int("message_type", msgType),
			)
			continue
		}

		if err := sess.HandleSegment(ctx, data); err != nil {
			s.logger.Error("Failed to handle segment",
				slog.String("session_id", sess.ID()),
				slog.String("error", err.Error()),
			)
			return
		}
	}
}

// handleRoot implements the / status endpoint
func (s *WSServer) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "online"})
}

// handleHealth implements the /health endpoint
func (s *WSServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"status":  "healthy",
		"service": "groq-transcriber-backend",
	})
}

// GetSessions returns a snapshot of live session information for monitoring
func (s *WSServer) GetSessions() []session.Info {
	s.mu.RLock()
	defer s.mu.RUnlock()

	infos := make([]session.Info, 0, len(s.sessions))
	for _, sess := range s.sessions {
		infos = append(infos, sess.GetInfo())
	}

	return infos
}

// GetSession returns monitoring information for one session
func (s *WSServer) GetSession(id string) (session.Info, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, exists := s.sessions[id]
	if !exists {
		return session.Info{}, false
	}

	return sess.GetInfo(), true
}

// GetStatistics returns current server statistics
func (s *WSServer) GetStatistics() ServerStatistics {
	s.statsMu.RLock()
	defer s.statsMu.RUnlock()

	s.mu.RLock()
	active := len(s.sessions)
	s.mu.RUnlock()

	return ServerStatistics{
		ConnectionsAccepted: s.connectionsAccepted,
		UpgradeFailures:     s.upgradeFailures,
		ActiveSessions:      uint64(active),
	}
}

// ServerStatistics represents server performance metrics
type ServerStatistics struct {
	ConnectionsAccepted uint64 `json:"connections_accepted"`
	UpgradeFailures     uint64 `json:"upgrade_failures"`
	ActiveSessions      uint64 `json:"active_sessions"`
}

// connSender adapts a WebSocket connection to the registry's Sender
// interface. gorilla/websocket allows at most one concurrent writer, so
// writes are serialized with a mutex.
type connSender struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func newConnSender(conn *websocket.Conn) *connSender {
	return &connSender{conn: conn}
}

// SendText writes one transcript to the client as a text message
func (c *connSender) SendText(text string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteMessage(websocket.TextMessage, []byte(text))
}
