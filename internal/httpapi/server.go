package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/parkpro/assistant/internal/config"
	"github.com/parkpro/assistant/internal/dialogue"
	"github.com/parkpro/assistant/internal/observability"
	"github.com/parkpro/assistant/internal/protocol"
	"github.com/parkpro/assistant/internal/session"
)

// Dialogue is the slice of the engine the HTTP layer needs.
type Dialogue interface {
	HandleTurn(ctx context.Context, sessionID, text, token string) (dialogue.Result, error)
	Parse(text string) dialogue.Result
}

type Server struct {
	cfg      config.Config
	engine   Dialogue
	sessions *session.Store
	metrics  *observability.Metrics
	log      *zap.Logger
	upgrader websocket.Upgrader
}

func New(cfg config.Config, engine Dialogue, sessions *session.Store, metrics *observability.Metrics, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	return &Server{
		cfg:      cfg,
		engine:   engine,
		sessions: sessions,
		metrics:  metrics,
		log:      log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin: func(r *http.Request) bool {
				// Only allow browser websocket connections from the same
				// origin unless explicitly opened up.
				if cfg.AllowAnyOrigin {
					return true
				}
				origin := strings.TrimSpace(r.Header.Get("Origin"))
				if origin == "" {
					// Non-browser clients often omit Origin. Allow them.
					return true
				}
				u, err := url.Parse(origin)
				if err != nil {
					return false
				}
				if u.Scheme != "http" && u.Scheme != "https" {
					return false
				}
				return strings.EqualFold(u.Host, r.Host)
			},
		},
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", s.handleReady)
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		observability.MetricsHandler().ServeHTTP(w, r)
	})

	r.Post("/v1/chat", s.handleChat)
	r.Post("/v1/process", s.handleProcess)
	r.Get("/v1/chat/ws", s.handleChatWS)

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"backend": s.backendMode(),
	})
}

func (s *Server) handleReady(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"status":          "ready",
		"backend":         s.backendMode(),
		"active_sessions": s.sessions.Len(),
	})
}

type chatRequest struct {
	SessionID string `json:"session_id"`
	Text      string `json:"text"`
	AuthToken string `json:"auth_token,omitempty"`
}

type chatResponse struct {
	SessionID string          `json:"session_id"`
	Result    dialogue.Result `json:"result"`
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	if strings.TrimSpace(req.SessionID) == "" || strings.TrimSpace(req.Text) == "" {
		respondError(w, http.StatusBadRequest, "invalid_request", "session_id and text are required")
		return
	}
	token := req.AuthToken
	if token == "" {
		token = bearerToken(r)
	}

	res, err := s.engine.HandleTurn(r.Context(), req.SessionID, req.Text, token)
	if err != nil {
		respondError(w, http.StatusBadRequest, "turn_failed", err.Error())
		return
	}
	if s.metrics != nil {
		s.metrics.ActiveSessions.Set(float64(s.sessions.Len()))
	}
	respondJSON(w, http.StatusOK, chatResponse{SessionID: req.SessionID, Result: res})
}

type processRequest struct {
	Text string `json:"text"`
}

// handleProcess classifies a single utterance without creating or touching
// any session state.
func (s *Server) handleProcess(w http.ResponseWriter, r *http.Request) {
	var req processRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		respondError(w, http.StatusBadRequest, "invalid_request", "text is required")
		return
	}
	respondJSON(w, http.StatusOK, s.engine.Parse(req.Text))
}

func (s *Server) handleChatWS(w http.ResponseWriter, r *http.Request) {
	sessionID := strings.TrimSpace(r.URL.Query().Get("session_id"))
	if sessionID == "" {
		respondError(w, http.StatusBadRequest, "missing_session_id", "query parameter session_id is required")
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	if s.metrics != nil {
		s.metrics.SessionEvents.WithLabelValues("ws_connected").Inc()
		defer s.metrics.SessionEvents.WithLabelValues("ws_disconnected").Inc()
	}

	conn.SetReadLimit(1 << 20)
	_ = conn.SetReadDeadline(time.Now().Add(120 * time.Second))
	conn.SetPongHandler(func(string) error {
		_ = conn.SetReadDeadline(time.Now().Add(120 * time.Second))
		return nil
	})

	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		_ = conn.SetReadDeadline(time.Now().Add(120 * time.Second))
		if msgType != websocket.TextMessage {
			continue
		}

		parsed, err := protocol.ParseClientMessage(data)
		if err != nil {
			s.writeWS(conn, protocol.ErrorEvent{
				Type:      protocol.TypeErrorEvent,
				SessionID: sessionID,
				Code:      "invalid_client_message",
				Detail:    err.Error(),
			})
			continue
		}
		turn, ok := parsed.(protocol.ChatTurn)
		if !ok {
			continue
		}
		// Frames carry their own session id but may only speak for the
		// session this socket was opened for.
		if turn.SessionID != sessionID {
			s.writeWS(conn, protocol.ErrorEvent{
				Type:      protocol.TypeErrorEvent,
				SessionID: sessionID,
				Code:      "session_mismatch",
				Detail:    "chat_turn session_id does not match the connection",
			})
			continue
		}

		res, err := s.engine.HandleTurn(r.Context(), turn.SessionID, turn.Text, turn.AuthToken)
		if err != nil {
			s.writeWS(conn, protocol.ErrorEvent{
				Type:      protocol.TypeErrorEvent,
				SessionID: sessionID,
				Code:      "turn_failed",
				Detail:    err.Error(),
			})
			continue
		}
		if s.metrics != nil {
			s.metrics.ActiveSessions.Set(float64(s.sessions.Len()))
		}
		s.writeWS(conn, protocol.ChatResult{
			Type:      protocol.TypeChatResult,
			SessionID: sessionID,
			Result:    res,
		})
	}
}

func (s *Server) writeWS(conn *websocket.Conn, msg any) {
	_ = conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
	if err := conn.WriteJSON(msg); err != nil {
		s.log.Warn("websocket write failed", zap.Error(err))
	}
}

func (s *Server) backendMode() string {
	if strings.TrimSpace(s.cfg.BackendBaseURL) == "" {
		return "mock"
	}
	return "http"
}

func bearerToken(r *http.Request) string {
	auth := strings.TrimSpace(r.Header.Get("Authorization"))
	if len(auth) > 7 && strings.EqualFold(auth[:7], "bearer ") {
		return strings.TrimSpace(auth[7:])
	}
	return ""
}

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func decodeJSON(r *http.Request, out any) error {
	if r.Body == nil {
		return errors.New("empty body")
	}
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(out)
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, errorResponse{Error: message, Code: code})
}
