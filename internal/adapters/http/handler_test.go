package httpadapter_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	httpadapter "github.com/PabloGalante/farum-probe/internal/adapters/http"
	"github.com/PabloGalante/farum-probe/internal/adapters/storage/memory"
	"github.com/PabloGalante/farum-probe/internal/app/engine"
	"github.com/PabloGalante/farum-probe/internal/app/probelog"
	"github.com/PabloGalante/farum-probe/internal/app/questions"
	"github.com/PabloGalante/farum-probe/internal/domain"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func newTestServer(t *testing.T) http.Handler {
	t.Helper()

	stateStore := memory.NewStateStore()
	eventStore := memory.NewEventStore()

	eng, err := engine.New(engine.Options{
		Store:    stateStore,
		StateTTL: time.Hour,
		Sink:     eventStore,
		Rand:     questions.NewRand(3),
	})
	require.NoError(t, err)

	return httpadapter.NewServer(eng, probelog.NewService(eventStore))
}

func do(t *testing.T, srv http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)
	return w
}

func TestHealthz(t *testing.T) {
	srv := newTestServer(t)

	w := do(t, srv, http.MethodGet, "/healthz", "")

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestRequestIDIsEchoed(t *testing.T) {
	srv := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("X-Request-ID", "req-123")
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)

	assert.Equal(t, "req-123", w.Header().Get("X-Request-ID"))
}

func TestPreflight(t *testing.T) {
	srv := newTestServer(t)

	w := do(t, srv, http.MethodOptions, "/probe", "")
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestProbeThenStateAndEvents(t *testing.T) {
	srv := newTestServer(t)

	w := do(t, srv, http.MethodPost, "/probe", `{"session_id":"s1","text":"I guess maybe later"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var res domain.EngineResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.True(t, res.Voice.Valid())
	assert.Equal(t, 2, res.PressLevel)
	assert.Contains(t, res.Cues, domain.CueHedging)
	assert.NotEmpty(t, res.Questions)
	assert.Nil(t, res.Micro)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &raw))
	assert.Contains(t, raw, "micro")
	assert.Contains(t, raw, "pressLevel")

	w = do(t, srv, http.MethodGet, "/sessions/s1/state", "")
	require.Equal(t, http.StatusOK, w.Code)
	var st struct {
		SessionID  string `json:"session_id"`
		PressLevel int    `json:"pressLevel"`
		LastVoice  string `json:"lastVoice"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &st))
	assert.Equal(t, "s1", st.SessionID)
	assert.Equal(t, 2, st.PressLevel)
	assert.Equal(t, string(res.Voice), st.LastVoice)

	do(t, srv, http.MethodPost, "/probe", `{"session_id":"s1","text":"I guess maybe later"}`)

	w = do(t, srv, http.MethodGet, "/sessions/s1/events?limit=1", "")
	require.Equal(t, http.StatusOK, w.Code)
	var evs struct {
		Events []domain.ProbeEvent `json:"events"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &evs))
	require.Len(t, evs.Events, 1)
	assert.Equal(t, 3, evs.Events[0].Payload.Result.PressLevel)
	assert.Equal(t, domain.ProbeEventType, evs.Events[0].Type)
}

func TestStateOfUnknownSessionIsDefault(t *testing.T) {
	srv := newTestServer(t)

	w := do(t, srv, http.MethodGet, "/sessions/nobody/state", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"pressLevel":1`)
	assert.Contains(t, w.Body.String(), `"lastVoice":"mirror"`)

	w = do(t, srv, http.MethodGet, "/sessions/nobody/events", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"events":[]}`, w.Body.String())
}

func TestBadRequests(t *testing.T) {
	srv := newTestServer(t)

	tests := []struct {
		name   string
		method string
		target string
		body   string
		code   int
	}{
		{"invalid json", http.MethodPost, "/probe", `{"session_id":`, http.StatusBadRequest},
		{"missing session", http.MethodPost, "/probe", `{"text":"hello"}`, http.StatusBadRequest},
		{"blank session", http.MethodPost, "/probe", `{"session_id":"  ","text":"hello"}`, http.StatusBadRequest},
		{"slash in session", http.MethodPost, "/probe", `{"session_id":"a/b","text":"hello"}`, http.StatusBadRequest},
		{"probe via get", http.MethodGet, "/probe", "", http.StatusMethodNotAllowed},
		{"bad limit", http.MethodGet, "/sessions/s1/events?limit=abc", "", http.StatusBadRequest},
		{"unknown sub-resource", http.MethodGet, "/sessions/s1/messages", "", http.StatusNotFound},
		{"post state", http.MethodPost, "/sessions/s1/state", `{}`, http.StatusMethodNotAllowed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, srv, tt.method, tt.target, tt.body)
			assert.Equal(t, tt.code, w.Code, w.Body.String())
		})
	}
}
