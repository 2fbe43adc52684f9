package tracing

import (
	"errors"
	"testing"

	"go.opentelemetry.io/otel/attribute"
)

func TestSafeAttributesDropsContactData(t *testing.T) {
	attrs := SafeAttributes(
		attribute.String("http.route", "/api/customers/:id"),
		attribute.String("customer.email", "a@example.com"),
	)
	if len(attrs) != 1 || attrs[0].Key != "http.route" {
		t.Fatalf("unexpected attributes %v", attrs)
	}
}

func TestSafeError(t *testing.T) {
	if SafeError(nil) != nil {
		t.Fatalf("expected nil")
	}
	got := SafeError(errors.New("query failed\nSELECT * FROM customers"))
	if got == nil || got.Error() != "query failed" {
		t.Fatalf("unexpected error %v", got)
	}
}
