package logger

import (
	"context"
	"log/slog"
	"testing"
)

func TestFromContext_Default(t *testing.T) {
	if got := FromContext(context.Background()); got != slog.Default() {
		t.Fatalf("FromContext(empty) = %p, want slog.Default()", got)
	}
}

func TestWithLogger_FromContext(t *testing.T) {
	l, buf := newBufLogger(t, "info", "json")
	ctx := WithLogger(context.Background(), l)

	FromContext(ctx).Info("test message")
	if buf.Len() == 0 {
		t.Error("Logger from context should produce output")
	}
}

func TestWithLogger_Nil(t *testing.T) {
	ctx := WithLogger(context.Background(), nil)
	if got := FromContext(ctx); got != slog.Default() {
		t.Fatalf("FromContext(nil logger) = %p, want slog.Default()", got)
	}
}

func TestConnIDFromContext(t *testing.T) {
	ctx := context.Background()
	if got := ConnIDFromContext(ctx); got != "" {
		t.Errorf("ConnIDFromContext(empty) = %q, want empty", got)
	}

	ctx = WithConnID(ctx, "conn-1")
	if got := ConnIDFromContext(ctx); got != "conn-1" {
		t.Errorf("ConnIDFromContext() = %q, want conn-1", got)
	}
}
