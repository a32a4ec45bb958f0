package transitlog

import (
	"context"
	"testing"

	"github.com/hyp3rd/transitlog/internal/constants"
)

type testExtractorKey struct{}

func TestRegisterContextExtractor(t *testing.T) {
	ClearContextExtractors()
	t.Cleanup(ClearContextExtractors)

	RegisterContextExtractor(func(ctx context.Context) []Field {
		if v := ctx.Value(testExtractorKey{}); v != nil {
			return []Field{{Key: "key", Value: v}}
		}

		return nil
	})

	extractors := GlobalContextExtractors()
	if len(extractors) != 1 {
		t.Fatalf("expected 1 extractor, got %d", len(extractors))
	}

	fields := ApplyContextExtractors(context.WithValue(context.Background(), testExtractorKey{}, "value"), extractors...)
	if len(fields) != 1 || fields[0].Key != "key" || fields[0].Value != "value" {
		t.Fatalf("unexpected fields: %+v", fields)
	}
}

func TestDefaultContextExtractor(t *testing.T) {
	ctx := context.WithValue(context.Background(), constants.TraceKey{}, "trace-123")
	ctx = context.WithValue(ctx, constants.UserKey{}, "alice")

	fields := DefaultContextExtractor(ctx)
	if len(fields) != 2 {
		t.Fatalf("expected 2 fields, got %d: %+v", len(fields), fields)
	}

	if fields[0].Key != "trace_id" || fields[0].Value != "trace-123" {
		t.Fatalf("unexpected trace field: %+v", fields[0])
	}

	if fields[1].Key != "user" || fields[1].Value != "alice" {
		t.Fatalf("unexpected user field: %+v", fields[1])
	}
}

func TestDefaultContextExtractorEmptyContext(t *testing.T) {
	if fields := DefaultContextExtractor(context.Background()); fields != nil {
		t.Fatalf("expected no fields, got %+v", fields)
	}
}

func TestDefaultContextExtractorOrdering(t *testing.T) {
	ctx := context.Background()
	for _, key := range constants.ContextKeys() {
		ctx = context.WithValue(ctx, key, "set")
	}

	fields := DefaultContextExtractor(ctx)

	want := []string{"trace_id", "request_id", "service", "component", "user", "session_id"}
	if len(fields) != len(want) {
		t.Fatalf("expected %d fields, got %d", len(want), len(fields))
	}

	for i, name := range want {
		if fields[i].Key != name {
			t.Fatalf("field %d: expected key %s, got %s", i, name, fields[i].Key)
		}
	}
}
