package publishers

import (
	"context"
	"errors"
	"testing"
)

type stubPublisher struct {
	id    string
	typ   string
	err   error
	calls int
}

func (s *stubPublisher) ID() string   { return s.id }
func (s *stubPublisher) Type() string { return s.typ }
func (s *stubPublisher) Publish(context.Context, Event) error {
	s.calls++
	return s.err
}

func TestFanoutPublishAggregatesErrors(t *testing.T) {
	ok := &stubPublisher{id: "ok", typ: "http"}
	bad := &stubPublisher{id: "bad", typ: "http", err: errors.New("failed")}
	fanout := NewFanout([]Publisher{ok, bad})

	count, err := fanout.Publish(context.Background(), Event{DeviceEUI: "70b3d5e75e00491c"})
	if count != 1 {
		t.Fatalf("expected 1 success, got %d", count)
	}
	if err == nil {
		t.Fatalf("expected aggregated error")
	}
	if ok.calls != 1 || bad.calls != 1 {
		t.Fatalf("each publisher should be called exactly once, got %d/%d", ok.calls, bad.calls)
	}
}

func TestFanoutPublishCallsEachSinkOnce(t *testing.T) {
	a := &stubPublisher{id: "a", typ: "sqs"}
	b := &stubPublisher{id: "b", typ: "sns"}
	fanout := NewFanout([]Publisher{a, b, nil})

	if fanout.Size() != 2 {
		t.Fatalf("nil publishers should be dropped, size = %d", fanout.Size())
	}

	count, err := fanout.Publish(context.Background(), Event{})
	if err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if count != 2 {
		t.Fatalf("expected 2 successes, got %d", count)
	}
	if a.calls != 1 || b.calls != 1 {
		t.Fatalf("expected exactly one call per sink, got %d/%d", a.calls, b.calls)
	}
}

func TestBuildAllWithDefaultRegistry(t *testing.T) {
	reg := DefaultRegistry()
	pubs, err := BuildAll(context.Background(), reg, []PublisherConfig{
		{ID: "hub", Type: TypeHTTP, HTTP: &HTTPPublisherConfig{URL: "https://example.com"}},
	}, nil)
	if err != nil {
		t.Fatalf("BuildAll: %v", err)
	}
	if len(pubs) != 1 {
		t.Fatalf("expected 1 publisher, got %d", len(pubs))
	}
}

func TestBuildAllUnknownType(t *testing.T) {
	reg := DefaultRegistry()
	_, err := BuildAll(context.Background(), reg, []PublisherConfig{
		{ID: "k", Type: "kafka"},
	}, nil)
	if err == nil {
		t.Fatalf("expected error for unregistered publisher type")
	}
}
