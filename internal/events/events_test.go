package events

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
)

type captureSink struct {
	mu     sync.Mutex
	events []Event
}

func (s *captureSink) Publish(_ context.Context, event Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
}

func (s *captureSink) Events() []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Event(nil), s.events...)
}

func TestNewFillsIdentity(t *testing.T) {
	runID := uuid.New()
	event := New(runID, KindNodeResolved, "worker")

	if event.ID == uuid.Nil {
		t.Error("event ID not set")
	}
	if event.RunID != runID {
		t.Errorf("run id = %v, want %v", event.RunID, runID)
	}
	if event.Node != "worker" || event.Kind != KindNodeResolved {
		t.Errorf("unexpected event: %+v", event)
	}
	if event.Timestamp.IsZero() {
		t.Error("timestamp not set")
	}
}

func TestMultiSinkFansOut(t *testing.T) {
	first := &captureSink{}
	second := &captureSink{}
	multi := MultiSink{first, second}

	multi.Publish(context.Background(), New(uuid.New(), KindRunStarted, ""))

	if len(first.Events()) != 1 || len(second.Events()) != 1 {
		t.Fatalf("fan-out failed: %d/%d", len(first.Events()), len(second.Events()))
	}
}

func TestReporterFromContextDefaultsToNop(t *testing.T) {
	rep := ReporterFromContext(context.Background())

	// Не должно паниковать без слушателей
	rep.Status("working")
	rep.Progress(0.5)
}

func TestSinkReporterPublishesStatusAndProgress(t *testing.T) {
	sink := &captureSink{}
	runID := uuid.New()
	ctx := WithReporter(context.Background(), NewSinkReporter(context.Background(), sink, runID, "dl"))

	rep := ReporterFromContext(ctx)
	rep.Status("downloading")
	rep.Progress(0.25)

	got := sink.Events()
	if len(got) != 2 {
		t.Fatalf("events = %d, want 2", len(got))
	}
	if got[0].Kind != KindStatus || got[0].Message != "downloading" || got[0].Node != "dl" {
		t.Errorf("status event = %+v", got[0])
	}
	if got[1].Kind != KindProgress || got[1].Progress != 0.25 {
		t.Errorf("progress event = %+v", got[1])
	}
	for _, event := range got {
		if event.RunID != runID {
			t.Errorf("run id = %v, want %v", event.RunID, runID)
		}
	}
}
