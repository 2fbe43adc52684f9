package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/smallbiznis/garagedesk/internal/clock"
	obsmetrics "github.com/smallbiznis/garagedesk/internal/observability/metrics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newMetricsScheduler(t *testing.T) (*Scheduler, *prometheus.Registry) {
	t.Helper()

	registry := prometheus.NewRegistry()
	oldRegisterer, oldGatherer := prometheus.DefaultRegisterer, prometheus.DefaultGatherer
	prometheus.DefaultRegisterer = registry
	prometheus.DefaultGatherer = registry
	t.Cleanup(func() {
		prometheus.DefaultRegisterer = oldRegisterer
		prometheus.DefaultGatherer = oldGatherer
		obsmetrics.ResetSchedulerMetricsForTest()
	})

	obsmetrics.ResetSchedulerMetricsForTest()
	obsmetrics.SchedulerWithConfig(obsmetrics.Config{ServiceName: "garagedesk", Environment: "test"})

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	return &Scheduler{log: zap.NewNop(), genID: node, clock: clock.NewFakeClock(time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC))}, registry
}

func TestRunJobTimeoutIsSoft(t *testing.T) {
	s, registry := newMetricsScheduler(t)

	err := s.runJob(context.Background(), JobOverdueSweep, 0, 5*time.Millisecond, func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})
	require.NoError(t, err)

	assert.Equal(t, 1.0, counterValue(t, registry, "garagedesk_scheduler_job_timeouts_total", map[string]string{
		"service": "garagedesk", "env": "test", "job": JobOverdueSweep,
	}))
	assert.Equal(t, 1.0, counterValue(t, registry, "garagedesk_scheduler_job_errors_total", map[string]string{
		"service": "garagedesk", "env": "test", "job": JobOverdueSweep,
		"reason": obsmetrics.SchedulerJobReasonDeadlineExceeded,
	}))
}

func TestRunJobFailureIsReturned(t *testing.T) {
	s, registry := newMetricsScheduler(t)
	boom := errors.New("database gone")

	err := s.runJob(context.Background(), JobOverdueSweep, 10, time.Second, func(context.Context) error {
		return boom
	})
	require.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), JobOverdueSweep)

	assert.Equal(t, 1.0, counterValue(t, registry, "garagedesk_scheduler_job_runs_total", map[string]string{
		"service": "garagedesk", "env": "test", "job": JobOverdueSweep,
	}))
	assert.Equal(t, 1.0, counterValue(t, registry, "garagedesk_scheduler_job_errors_total", map[string]string{
		"service": "garagedesk", "env": "test", "job": JobOverdueSweep,
		"reason": obsmetrics.SchedulerJobReasonUnknown,
	}))
}

func counterValue(t *testing.T, registry *prometheus.Registry, name string, labels map[string]string) float64 {
	t.Helper()
	families, err := registry.Gather()
	require.NoError(t, err)
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
		for _, metric := range mf.Metric {
			if labelsMatch(metric, labels) {
				require.NotNil(t, metric.Counter, "%s is not a counter", name)
				return metric.GetCounter().GetValue()
			}
		}
	}
	t.Fatalf("metric %s with labels %v not found", name, labels)
	return 0
}

func labelsMatch(metric *dto.Metric, labels map[string]string) bool {
	if len(metric.Label) != len(labels) {
		return false
	}
	for _, label := range metric.Label {
		if labels[label.GetName()] != label.GetValue() {
			return false
		}
	}
	return true
}
