package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubPinger struct{ err error }

func (p stubPinger) Ping(context.Context) error { return p.err }

type stubSwitch struct{ active bool }

func (s stubSwitch) AnyActive(context.Context) bool { return s.active }

func newTestServer(db DatabasePinger, sw SwitchReader) *Server {
	return NewServer(Config{
		ServiceName: "edge-engine",
		Version:     "1.0.0",
		DB:          db,
		KillSwitch:  sw,
	})
}

// TestHandleHealth tests the basic liveness endpoint
func TestHandleHealth(t *testing.T) {
	s := newTestServer(nil, nil)

	rec := httptest.NewRecorder()
	s.handleHealth(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)

	var resp HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "edge-engine", resp.Service)
	assert.Equal(t, "1.0.0", resp.Version)
}

// TestHandleReadyNotReady tests readiness before SetReady
func TestHandleReadyNotReady(t *testing.T) {
	s := newTestServer(nil, nil)

	rec := httptest.NewRecorder()
	s.handleReady(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

// TestHandleReadyDatabaseDown tests readiness with a failing database
func TestHandleReadyDatabaseDown(t *testing.T) {
	s := newTestServer(stubPinger{err: errors.New("connection refused")}, nil)
	s.SetReady(true)

	rec := httptest.NewRecorder()
	s.handleReady(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var resp ReadyResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Contains(t, resp.Checks["database"], "connection refused")
}

// TestHandleReadyKillSwitchEngaged tests that an engaged switch is surfaced
// without failing readiness
func TestHandleReadyKillSwitchEngaged(t *testing.T) {
	s := newTestServer(stubPinger{}, stubSwitch{active: true})
	s.SetReady(true)

	rec := httptest.NewRecorder()
	s.handleReady(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))

	assert.Equal(t, http.StatusOK, rec.Code)

	var resp ReadyResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "engaged", resp.Checks["kill_switch"])
	assert.Equal(t, "ok", resp.Checks["database"])
}
