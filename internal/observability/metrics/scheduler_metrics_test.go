package metrics

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
	"gorm.io/gorm"
)

func TestClassifySchedulerJobReason(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want string
	}{
		{
			name: "deadline",
			err:  context.DeadlineExceeded,
			want: SchedulerJobReasonDeadlineExceeded,
		},
		{
			name: "db_lock_timeout",
			err:  &pgconn.PgError{Code: "55P03"},
			want: SchedulerJobReasonDBLockTimeout,
		},
		{
			name: "serialization_failure",
			err:  fmt.Errorf("sweep: %w", &pgconn.PgError{Code: "40001"}),
			want: SchedulerJobReasonSerializationFailure,
		},
		{
			name: "unique_violation",
			err:  gorm.ErrDuplicatedKey,
			want: SchedulerJobReasonUniqueViolation,
		},
		{
			name: "unknown",
			err:  errors.New("boom"),
			want: SchedulerJobReasonUnknown,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ClassifySchedulerJobReason(tc.err); got != tc.want {
				t.Fatalf("expected reason %q, got %q", tc.want, got)
			}
		})
	}
}

func TestAddBatchProcessed(t *testing.T) {
	registry := prometheus.NewRegistry()
	metrics := newSchedulerMetrics(registry, Config{
		ServiceName: "garagedesk",
		Environment: "test",
	})

	metrics.AddBatchProcessed("overdue_sweep", "invoices", 3)
	metrics.AddBatchProcessed("overdue_sweep", "invoices", 0)

	got := testutil.ToFloat64(metrics.batchProcessed.WithLabelValues("overdue_sweep", "invoices"))
	if got != 3 {
		t.Fatalf("expected processed count 3, got %v", got)
	}
}

func TestJobErrorCarriesConstLabels(t *testing.T) {
	registry := prometheus.NewRegistry()
	metrics := newSchedulerMetrics(registry, Config{
		ServiceName: "garagedesk",
		Environment: "test",
	})
	metrics.IncJobError("overdue_sweep", context.DeadlineExceeded)

	families, err := registry.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	var family *dto.MetricFamily
	for _, f := range families {
		if f.GetName() == "garagedesk_scheduler_job_errors_total" {
			family = f
		}
	}
	if family == nil || len(family.Metric) != 1 {
		t.Fatalf("expected one job error series")
	}
	labels := map[string]string{}
	for _, pair := range family.Metric[0].GetLabel() {
		labels[pair.GetName()] = pair.GetValue()
	}
	if labels["env"] != "test" || labels["service"] != "garagedesk" || labels["reason"] != SchedulerJobReasonDeadlineExceeded {
		t.Fatalf("unexpected labels %v", labels)
	}
	if family.Metric[0].GetCounter().GetValue() != 1 {
		t.Fatalf("expected counter 1")
	}
}
