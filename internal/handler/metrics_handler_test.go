package handler

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/edutask-api/internal/service"
	"github.com/noah-isme/edutask-api/internal/store"
	"github.com/noah-isme/edutask-api/pkg/jobs"
)

type snapshotStub struct {
	version int64
	err     error
}

func (s snapshotStub) Snapshot(context.Context) (store.Snapshot, error) {
	return store.Snapshot{Version: s.version}, s.err
}

type queueStub struct{}

func (queueStub) Stats() jobs.Stats { return jobs.Stats{Name: "reports", Processed: 3} }

func TestMetricsHandlerReady(t *testing.T) {
	h := NewMetricsHandler(service.NewMetricsService(), snapshotStub{version: 9}, queueStub{})
	c, w := newGinContext(http.MethodGet, "/ready", nil)

	h.Ready(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"version":9`)
	assert.Contains(t, w.Body.String(), `"processed":3`)
}

func TestMetricsHandlerNotReady(t *testing.T) {
	h := NewMetricsHandler(nil, snapshotStub{err: errors.New("connection refused")}, nil)
	c, w := newGinContext(http.MethodGet, "/ready", nil)

	h.Ready(c)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "connection refused")
}

func TestMetricsHandlerHealthAndPrometheus(t *testing.T) {
	metrics := service.NewMetricsService()
	metrics.RecordCommand("task.create", "ok")
	h := NewMetricsHandler(metrics, nil, nil)

	c, w := newGinContext(http.MethodGet, "/health", nil)
	h.Health(c)
	assert.Equal(t, http.StatusOK, w.Code)

	c, w = newGinContext(http.MethodGet, "/metrics", nil)
	h.Prometheus(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "task.create")

	c, w = newGinContext(http.MethodGet, "/metrics/summary", nil)
	h.Summary(c)
	assert.Equal(t, http.StatusOK, w.Code)
}
