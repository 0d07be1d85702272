package midi

import (
	"context"
	"sync"
	"time"

	"go-steps/debug"
)

// Watcher polls the MIDI driver and reports ports as they come and go
type Watcher struct {
	mu       sync.RWMutex
	ins      map[string]bool
	outs     map[string]bool
	events   chan PortEvent
	pollRate time.Duration
	list     func() (ins, outs []string, err error)
}

// NewWatcher creates a watcher polling every pollRate (1s when zero)
func NewWatcher(pollRate time.Duration) *Watcher {
	if pollRate <= 0 {
		pollRate = time.Second
	}
	return &Watcher{
		ins:      make(map[string]bool),
		outs:     make(map[string]bool),
		events:   make(chan PortEvent, 16),
		pollRate: pollRate,
		list:     ListPorts,
	}
}

// Events returns port connect/disconnect events. Closed when Run returns.
func (w *Watcher) Events() <-chan PortEvent {
	return w.events
}

// Ports returns the ports seen by the last scan
func (w *Watcher) Ports() (ins, outs []string) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	for name := range w.ins {
		ins = append(ins, name)
	}
	for name := range w.outs {
		outs = append(outs, name)
	}
	return ins, outs
}

// Run polls until ctx is done (blocking - run in goroutine)
func (w *Watcher) Run(ctx context.Context) {
	defer close(w.events)

	ticker := time.NewTicker(w.pollRate)
	defer ticker.Stop()

	// Initial scan
	if !w.scan(ctx) {
		return
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !w.scan(ctx) {
				return
			}
		}
	}
}

// scan diffs the driver's ports against the last scan. Returns false once ctx is done.
func (w *Watcher) scan(ctx context.Context) bool {
	ins, outs, err := w.list()
	if err != nil {
		// hung driver: skip this round, keep last known state
		debug.LogEvery(10, "midi", "port scan failed: %v", err)
		return true
	}

	var evts []PortEvent
	w.mu.Lock()
	w.ins, evts = diffPorts(w.ins, ins, PortIn, evts)
	w.outs, evts = diffPorts(w.outs, outs, PortOut, evts)
	w.mu.Unlock()

	for _, e := range evts {
		debug.Log("midi", "%s port %s: %s", e.Dir, e.Type, e.Name)
		select {
		case w.events <- e:
		case <-ctx.Done():
			return false
		}
	}
	return true
}

func diffPorts(prev map[string]bool, now []string, dir PortDir, evts []PortEvent) (map[string]bool, []PortEvent) {
	seen := make(map[string]bool, len(now))
	for _, name := range now {
		seen[name] = true
		if !prev[name] {
			evts = append(evts, PortEvent{Type: PortConnected, Dir: dir, Name: name})
		}
	}
	for name := range prev {
		if !seen[name] {
			evts = append(evts, PortEvent{Type: PortDisconnected, Dir: dir, Name: name})
		}
	}
	return seen, evts
}
