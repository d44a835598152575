package httpadapter

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/PabloGalante/farum-probe/internal/app/engine"
	"github.com/PabloGalante/farum-probe/internal/app/probelog"
	"github.com/PabloGalante/farum-probe/internal/domain"
	"github.com/PabloGalante/farum-probe/internal/observability"
)

const maxBodyBytes = 64 << 10

type Server struct {
	engine *engine.Engine
	events *probelog.Service
}

func NewServer(eng *engine.Engine, events *probelog.Service) http.Handler {
	s := &Server{engine: eng, events: events}
	mux := http.NewServeMux()

	mux.HandleFunc("/healthz", s.handleHealthz)

	// /probe → run one turn (POST)
	mux.HandleFunc("/probe", s.handleProbe)

	// /sessions/{id}/state  → GET: persisted session state
	// /sessions/{id}/events → GET: probe events of the session
	mux.HandleFunc("/sessions/", s.handleSessionWithID)

	return chainMiddlewares(mux, withLogging, withRequestID, withCORS)
}

// ─────────────────────────────────────────────
// DTOs (request/response)
// ─────────────────────────────────────────────

type probeRequest struct {
	SessionID string `json:"session_id"`
	Text      string `json:"text"`
}

type stateResponse struct {
	SessionID  string    `json:"session_id"`
	PressLevel int       `json:"pressLevel"`
	LastVoice  string    `json:"lastVoice"`
	LastTopic  string    `json:"lastTopic"`
	LastAt     time.Time `json:"lastAt"`
}

type eventsResponse struct {
	Events []domain.ProbeEvent `json:"events"`
}

// ─────────────────────────────────────────────
// Basic routing
// ─────────────────────────────────────────────

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// /probe
func (s *Server) handleProbe(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		s.handleRunProbe(w, r)
	default:
		methodNotAllowed(w)
	}
}

// /sessions/{id}/state or /sessions/{id}/events
func (s *Server) handleSessionWithID(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/sessions/")
	parts := strings.Split(path, "/")

	if len(parts) != 2 || parts[0] == "" {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}

	id := domain.SessionID(parts[0])
	switch parts[1] {
	case "state":
		s.handleGetState(w, r, id)
	case "events":
		s.handleListEvents(w, r, id)
	default:
		http.NotFound(w, r)
	}
}

// ─────────────────────────────────────────────
// Concrete handlers
// ─────────────────────────────────────────────

func (s *Server) handleRunProbe(w http.ResponseWriter, r *http.Request) {
	var req probeRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		badRequest(w, "invalid JSON body")
		return
	}

	if strings.TrimSpace(req.SessionID) == "" {
		badRequest(w, "session_id is required")
		return
	}
	if strings.Contains(req.SessionID, "/") {
		badRequest(w, "session_id must not contain '/'")
		return
	}

	res := s.engine.Run(r.Context(), domain.SessionID(req.SessionID), req.Text)
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleGetState(w http.ResponseWriter, r *http.Request, id domain.SessionID) {
	st := s.engine.State(r.Context(), id)

	writeJSON(w, http.StatusOK, stateResponse{
		SessionID:  string(id),
		PressLevel: st.PressLevel,
		LastVoice:  string(st.LastVoice),
		LastTopic:  st.LastTopic,
		LastAt:     st.LastAt,
	})
}

func (s *Server) handleListEvents(w http.ResponseWriter, r *http.Request, id domain.SessionID) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			badRequest(w, "limit must be a non-negative integer")
			return
		}
		limit = n
	}

	events, err := s.events.SessionEvents(r.Context(), id, limit)
	if err != nil {
		observability.LoggerFromContext(r.Context()).Error("list probe events failed",
			"session_id", id,
			"error", err,
		)
		internalError(w)
		return
	}

	writeJSON(w, http.StatusOK, eventsResponse{Events: events})
}

// ─────────────────────────────────────────────
// HTTP Helpers
// ─────────────────────────────────────────────

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func badRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, map[string]string{
		"error": msg,
	})
}

func internalError(w http.ResponseWriter) {
	writeJSON(w, http.StatusInternalServerError, map[string]string{
		"error": "internal server error",
	})
}

func methodNotAllowed(w http.ResponseWriter) {
	writeJSON(w, http.StatusMethodNotAllowed, map[string]string{
		"error": "method not allowed",
	})
}
