package metrics

import (
	"context"
	"testing"

	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func TestFilterAttributesDropsForbiddenLabels(t *testing.T) {
	attrs := FilterAttributes(
		attribute.String("outcome", "created"),
		attribute.String("customer_id", "456"),
		attribute.String("method", "cash"),
	)
	if len(attrs) != 2 {
		t.Fatalf("expected 2 attributes, got %d", len(attrs))
	}
	if attrs[0].Key != "outcome" && attrs[1].Key != "outcome" {
		t.Fatalf("expected outcome to be retained")
	}
	if attrs[0].Key != "method" && attrs[1].Key != "method" {
		t.Fatalf("expected method to be retained")
	}
}

func TestRecordInvoiceGeneration(t *testing.T) {
	ctx := context.Background()
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))

	m, err := New(Config{ServiceName: "garagedesk"}, provider)
	if err != nil {
		t.Fatalf("new metrics: %v", err)
	}
	m.RecordInvoiceGeneration(ctx, "created")
	m.RecordInvoiceGeneration(ctx, "created")
	m.RecordInvoiceGeneration(ctx, "existing")

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(ctx, &rm); err != nil {
		t.Fatalf("collect: %v", err)
	}

	var total int64
	found := false
	for _, scope := range rm.ScopeMetrics {
		for _, item := range scope.Metrics {
			if item.Name != "garagedesk_invoices_generated_total" {
				continue
			}
			found = true
			sum, ok := item.Data.(metricdata.Sum[int64])
			if !ok {
				t.Fatalf("unexpected data type %T", item.Data)
			}
			for _, dp := range sum.DataPoints {
				total += dp.Value
			}
		}
	}
	if !found {
		t.Fatalf("metric not exported")
	}
	if total != 3 {
		t.Fatalf("expected 3 generations, got %d", total)
	}
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	m.RecordInvoiceGeneration(context.Background(), "created")
	m.RecordPaymentEvent(context.Background(), "cash", "recorded")
	m.RecordReconciliation(context.Background(), "paid")
	m.RecordOverdue(context.Background(), 3)
}
