package trace

import (
	"fmt"
	"sync"
	"time"
)

// Heartbeat periodically emits events while a blocking call is in progress,
// so a hung MetaEditor process is visible in the trace.
type Heartbeat struct {
	tracer   Tracer
	name     string
	interval time.Duration
	stopCh   chan struct{}
	once     sync.Once
	wg       sync.WaitGroup
}

// StartHeartbeat returns nil when tracing is off or interval <= 0; Stop on a
// nil Heartbeat is a no-op.
func StartHeartbeat(tracer Tracer, name string, interval time.Duration) *Heartbeat {
	if tracer == nil || !tracer.Enabled() || interval <= 0 {
		return nil
	}

	h := &Heartbeat{
		tracer:   tracer,
		name:     name,
		interval: interval,
		stopCh:   make(chan struct{}),
	}
	h.wg.Add(1)
	go h.run()
	return h
}

func (h *Heartbeat) run() {
	defer h.wg.Done()

	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	started := time.Now()
	for n := 1; ; n++ {
		select {
		case <-ticker.C:
			h.tracer.Emit(Event{
				Time:   time.Now(),
				Seq:    NextSeq(),
				Kind:   KindHeartbeat,
				Scope:  ScopeDriver,
				Name:   h.name,
				Detail: fmt.Sprintf("#%d after %s", n, time.Since(started).Round(time.Millisecond)),
			})
		case <-h.stopCh:
			return
		}
	}
}

// Stop stops the heartbeat goroutine and waits for it to finish.
func (h *Heartbeat) Stop() {
	if h == nil {
		return
	}
	h.once.Do(func() { close(h.stopCh) })
	h.wg.Wait()
}
