package audit

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
	"time"
)

func TestDispatcherDisabledIsNil(t *testing.T) {
	d := NewDispatcher(Config{Enabled: false}, nil, nil)
	if d != nil {
		t.Fatal("disabled dispatcher should be nil")
	}
	// Every operation is a nil-safe no-op.
	d.Emit(context.Background(), Event{EventType: EventLogin})
	d.Close()
	if d.Dropped() != 0 {
		t.Fatal("nil dispatcher should report zero drops")
	}
}

func TestDispatcherDeliversToSink(t *testing.T) {
	sink := NewChannelSink(8)
	d := NewDispatcher(Config{Enabled: true, BufferSize: 8}, sink, nil)

	d.Emit(context.Background(), Event{EventType: EventLogin, UserID: "u-1", Success: true})

	select {
	case event := <-sink.Events():
		if event.EventType != EventLogin || event.UserID != "u-1" {
			t.Fatalf("unexpected event: %+v", event)
		}
	case <-time.After(time.Second):
		t.Fatal("event never reached the sink")
	}

	d.Close()
}

func TestDispatcherDrainsOnClose(t *testing.T) {
	sink := NewChannelSink(16)
	d := NewDispatcher(Config{Enabled: true, BufferSize: 16, DropIfFull: true}, sink, nil)

	for i := 0; i < 5; i++ {
		d.Emit(context.Background(), Event{EventType: EventEnroll})
	}
	d.Close()

	received := 0
	for {
		select {
		case <-sink.Events():
			received++
		default:
			if received != 5 {
				t.Fatalf("expected 5 drained events, got %d", received)
			}
			return
		}
	}
}

func TestDispatcherDropsAndLogsUnderBackpressure(t *testing.T) {
	// blockingSink never returns, so the worker wedges on the first event
	// and the buffer fills behind it.
	release := make(chan struct{})
	var logBuf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logBuf, nil))

	d := NewDispatcher(Config{Enabled: true, BufferSize: 1, DropIfFull: true}, blockingSink{release}, logger)
	defer d.Close()
	defer close(release) // unwedge the sink before Close waits on the worker

	for i := 0; i < 10; i++ {
		d.Emit(context.Background(), Event{EventType: EventLogout})
	}

	if d.Dropped() == 0 {
		t.Fatal("expected drops with a wedged sink and DropIfFull")
	}

	// The first drop is logged with the event type it lost.
	logged := logBuf.String()
	if !strings.Contains(logged, "audit event dropped under backpressure") {
		t.Fatalf("expected a backpressure warning, log was: %q", logged)
	}
	if !strings.Contains(logged, "event_type="+EventLogout) {
		t.Fatalf("expected the dropped event type in the warning, log was: %q", logged)
	}

	// Drops 2..99 are counted silently.
	if got := strings.Count(logged, "audit event dropped under backpressure"); got != 1 {
		t.Fatalf("expected exactly 1 rate-limited warning for %d drops, got %d", d.Dropped(), got)
	}
}

type blockingSink struct {
	release chan struct{}
}

func (s blockingSink) Emit(context.Context, Event) {
	<-s.release
}

func TestDispatcherEmitAfterClose(t *testing.T) {
	sink := NewChannelSink(4)
	d := NewDispatcher(Config{Enabled: true, BufferSize: 4}, sink, nil)
	d.Close()

	// Must not panic or block.
	d.Emit(context.Background(), Event{EventType: EventLogin})
	d.Close()
}

func TestJSONWriterSinkWritesOneLinePerEvent(t *testing.T) {
	var buf bytes.Buffer
	sink := NewJSONWriterSink(&buf)

	sink.Emit(context.Background(), Event{EventType: EventLogin, UserID: "u-1", Success: true})
	sink.Emit(context.Background(), Event{EventType: EventLogout, UserID: "u-1", Success: true})

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d: %q", len(lines), buf.String())
	}
	if !strings.Contains(lines[0], `"event_type":"login"`) {
		t.Errorf("unexpected first line: %s", lines[0])
	}
	if !strings.Contains(lines[1], `"event_type":"logout"`) {
		t.Errorf("unexpected second line: %s", lines[1])
	}
}
