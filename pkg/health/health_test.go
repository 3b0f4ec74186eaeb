package health

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func probe(t *testing.T, endpoint http.HandlerFunc) (int, map[string]string) {
	t.Helper()

	rec := httptest.NewRecorder()
	endpoint(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	var resp struct {
		Status string            `json:"status"`
		Checks map[string]string `json:"checks"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return rec.Code, resp.Checks
}

func TestReadyEndpoint_NotReadyByDefault(t *testing.T) {
	h := New()

	code, _ := probe(t, h.ReadyEndpoint)
	assert.Equal(t, http.StatusServiceUnavailable, code)
}

func TestReadyEndpoint_ReadyWithPassingChecks(t *testing.T) {
	h := New()
	h.AddReadinessCheck("ok", time.Second, func(context.Context) error { return nil })

	h.Start(context.Background(), 10*time.Millisecond)
	defer h.Stop()
	h.SetReady(true)

	require.Eventually(t, func() bool {
		code, _ := probe(t, h.ReadyEndpoint)
		return code == http.StatusOK
	}, time.Second, 10*time.Millisecond)
}

func TestReadyEndpoint_FailingCheck(t *testing.T) {
	h := New()
	h.AddReadinessCheck("db", time.Second, func(context.Context) error {
		return errors.New("connection refused")
	})

	h.Start(context.Background(), 10*time.Millisecond)
	defer h.Stop()
	h.SetReady(true)

	require.Eventually(t, func() bool {
		code, checks := probe(t, h.ReadyEndpoint)
		return code == http.StatusServiceUnavailable && checks["db"] == "connection refused"
	}, time.Second, 10*time.Millisecond)
}

func TestLiveEndpoint_IndependentOfReadyGate(t *testing.T) {
	h := New()
	h.AddLivenessCheck("goroutines", time.Second, GoroutineCountCheck(100000))

	h.Start(context.Background(), 10*time.Millisecond)
	defer h.Stop()

	// Liveness does not care about SetReady.
	require.Eventually(t, func() bool {
		code, checks := probe(t, h.LiveEndpoint)
		return code == http.StatusOK && checks["goroutines"] == "ok"
	}, time.Second, 10*time.Millisecond)
}

func TestGoroutineCountCheck(t *testing.T) {
	require.NoError(t, GoroutineCountCheck(100000)(context.Background()))
	require.Error(t, GoroutineCountCheck(0)(context.Background()))
}

func TestStop_TerminatesCheckLoop(t *testing.T) {
	h := New()
	h.AddLivenessCheck("noop", time.Second, func(context.Context) error { return nil })

	h.Start(context.Background(), time.Millisecond)
	h.Stop()

	// Stop is idempotent.
	h.Stop()
}
