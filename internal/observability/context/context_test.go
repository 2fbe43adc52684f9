package context

import (
	"context"
	"testing"
)

func TestRequestID(t *testing.T) {
	ctx := WithRequestID(context.Background(), " req-1 ")
	if got := RequestIDFromContext(ctx); got != "req-1" {
		t.Fatalf("expected req-1, got %q", got)
	}
	if got := RequestIDFromContext(WithRequestID(context.Background(), "")); got != "" {
		t.Fatalf("expected empty request id, got %q", got)
	}
}

func TestActor(t *testing.T) {
	actorType, actorID := ActorFromContext(context.Background())
	if actorType != "" || actorID != "" {
		t.Fatalf("expected empty actor")
	}

	ctx := WithActor(context.Background(), "system", "scheduler")
	actorType, actorID = ActorFromContext(ctx)
	if actorType != "system" || actorID != "scheduler" {
		t.Fatalf("unexpected actor %q/%q", actorType, actorID)
	}
}
