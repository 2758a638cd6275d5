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

func up(context.Context) error { return nil }

func down(context.Context) error { return errors.New("connection refused") }

func ready(t *testing.T, c *Checker) (int, Report) {
	t.Helper()
	rec := httptest.NewRecorder()
	c.ReadyHandler()(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	var report Report
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	return rec.Code, report
}

func TestReadyAllUp(t *testing.T) {
	c := NewChecker()
	c.Register("corpus", Ping(up, StatusDown))
	code, report := ready(t, c)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, StatusUp, report.Status)
}

func TestDegradedIsStillReady(t *testing.T) {
	c := NewChecker()
	c.Register("corpus", Ping(up, StatusDown))
	c.Register("redis", Ping(down, StatusDegraded))
	code, report := ready(t, c)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, StatusDegraded, report.Status)
	assert.Equal(t, "connection refused", report.Components["redis"].Message)
}

func TestDownIsNotReady(t *testing.T) {
	c := NewChecker()
	c.Register("redis", Ping(down, StatusDegraded))
	c.Register("postgres", Ping(down, StatusDown))
	code, report := ready(t, c)
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, StatusDown, report.Status)
}

func TestLive(t *testing.T) {
	rec := httptest.NewRecorder()
	NewChecker().LiveHandler()(rec, httptest.NewRequest(http.MethodGet, "/health/live", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"alive"}`, rec.Body.String())
}
