package plugin

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
)

const queueSize = 32

type job struct {
	event     string
	sessionID string
	payload   json.RawMessage
}

// Dispatcher delivers events to subscribed plugins on a background worker so
// callers on the frame pipeline never wait for a plugin.
type Dispatcher struct {
	mgr    *Manager
	exec   *Executor
	logger *slog.Logger

	queue  chan job
	cancel context.CancelFunc
	done   chan struct{}

	mu     sync.Mutex
	closed bool
}

// NewDispatcher starts a worker that runs plugins from mgr with exec.
func NewDispatcher(mgr *Manager, exec *Executor, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	ctx, cancel := context.WithCancel(context.Background())
	d := &Dispatcher{
		mgr:    mgr,
		exec:   exec,
		logger: logger.With("component", "plugin"),
		queue:  make(chan job, queueSize),
		cancel: cancel,
		done:   make(chan struct{}),
	}
	go d.run(ctx)
	return d
}

// Notify queues event for delivery. It returns false when the event was dropped
// because the queue is full, the payload cannot be encoded, or the dispatcher is closed.
func (d *Dispatcher) Notify(event, sessionID string, payload any) bool {
	if len(d.mgr.For(event)) == 0 {
		return false
	}
	body, err := json.Marshal(payload)
	if err != nil {
		d.logger.Warn("encode event", "event", event, "error", err)
		return false
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return false
	}
	select {
	case d.queue <- job{event: event, sessionID: sessionID, payload: body}:
		return true
	default:
		d.logger.Warn("plugin queue full, dropping event", "event", event)
		return false
	}
}

// Close stops accepting events, waits for queued ones, and stops the worker.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	close(d.queue)
	d.mu.Unlock()
	<-d.done
	d.cancel()
}

func (d *Dispatcher) run(ctx context.Context) {
	defer close(d.done)
	for j := range d.queue {
		for _, p := range d.mgr.For(j.event) {
			resp, err := d.exec.Execute(ctx, p, &Request{
				Event:     j.event,
				SessionID: j.sessionID,
				Payload:   j.payload,
			})
			switch {
			case err != nil:
				d.logger.Warn("plugin run failed", "plugin", p.Manifest.Name, "event", j.event, "error", err)
			case !resp.Success:
				d.logger.Warn("plugin reported failure", "plugin", p.Manifest.Name, "event", j.event, "error", resp.Error)
			default:
				d.logger.Debug("plugin ran", "plugin", p.Manifest.Name, "event", j.event)
			}
		}
	}
}
