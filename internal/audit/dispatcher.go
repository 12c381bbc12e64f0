package audit

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
)

// dropLogEvery rate-limits backpressure warnings: the first drop and every
// 100th after it are logged, the rest only counted.
const dropLogEvery = 100

// Config controls dispatcher buffering behavior.
type Config struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

// Dispatcher forwards session and enrollment audit events to a sink from a
// single worker goroutine, so a slow sink never stalls a login or progress
// update. A nil Dispatcher (audit disabled) is a valid no-op.
type Dispatcher struct {
	sink Sink
	log  *slog.Logger

	events chan Event
	quit   chan struct{}
	worker sync.WaitGroup

	dropIfFull bool
	dropped    atomic.Uint64
	closed     atomic.Bool
	closeOnce  sync.Once
}

// NewDispatcher starts the worker. Returns nil when auditing is disabled.
// log may be nil; drops are then counted but not logged.
func NewDispatcher(cfg Config, sink Sink, log *slog.Logger) *Dispatcher {
	if !cfg.Enabled {
		return nil
	}
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = 1
	}
	if sink == nil {
		sink = NoOpSink{}
	}
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}

	d := &Dispatcher{
		sink:       sink,
		log:        log,
		events:     make(chan Event, cfg.BufferSize),
		quit:       make(chan struct{}),
		dropIfFull: cfg.DropIfFull,
	}

	d.worker.Add(1)
	go d.run()
	return d
}

func (d *Dispatcher) run() {
	defer d.worker.Done()

	for {
		select {
		case event := <-d.events:
			d.sink.Emit(context.Background(), event)
		case <-d.quit:
			d.drain()
			return
		}
	}
}

// drain delivers everything already buffered, then returns.
func (d *Dispatcher) drain() {
	for {
		select {
		case event := <-d.events:
			d.sink.Emit(context.Background(), event)
		default:
			return
		}
	}
}

// Emit enqueues one event. With DropIfFull the call never blocks: a full
// buffer drops the event, counts it, and logs the first and every 100th
// confirmed drop with its event type. Without DropIfFull the call blocks
// until the worker catches up or ctx is done.
func (d *Dispatcher) Emit(ctx context.Context, event Event) {
	if d == nil || d.closed.Load() {
		return
	}
	if ctx == nil {
		ctx = context.Background()
	}

	if d.dropIfFull {
		select {
		case d.events <- event:
		case <-d.quit:
		default:
			n := d.dropped.Add(1)
			if n == 1 || n%dropLogEvery == 0 {
				d.log.Warn("audit event dropped under backpressure",
					"event_type", event.EventType,
					"dropped_total", n)
			}
		}
		return
	}

	select {
	case d.events <- event:
	case <-ctx.Done():
	case <-d.quit:
	}
}

// Close stops accepting events, flushes the buffer through the sink, and
// waits for the worker. Safe to call more than once.
func (d *Dispatcher) Close() {
	if d == nil {
		return
	}
	d.closeOnce.Do(func() {
		d.closed.Store(true)
		close(d.quit)
		d.worker.Wait()
		if n := d.dropped.Load(); n > 0 {
			d.log.Warn("audit dispatcher closed with dropped events", "dropped_total", n)
		}
	})
}

// Dropped reports events lost to backpressure so far.
func (d *Dispatcher) Dropped() uint64 {
	if d == nil {
		return 0
	}
	return d.dropped.Load()
}
