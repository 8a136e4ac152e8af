package workspace

import (
	"sort"
	"sync"
	"time"
)

// Debouncer collapses bursts of file events into one batch, emitted after a quiet interval.
type Debouncer struct {
	interval time.Duration

	barrier sync.Mutex
	pending map[string]struct{}
	timer   *time.Timer

	output chan []string
	stop   chan struct{}
	once   sync.Once
}

func NewDebouncer(interval time.Duration) *Debouncer {
	return &Debouncer{
		interval: interval,
		pending:  make(map[string]struct{}),
		output:   make(chan []string, 16),
		stop:     make(chan struct{}),
	}
}

func (x *Debouncer) Output() <-chan []string { return x.output }

func (x *Debouncer) Add(path string) {
	x.barrier.Lock()
	defer x.barrier.Unlock()

	x.pending[path] = struct{}{}
	if x.timer != nil {
		x.timer.Stop()
	}
	x.timer = time.AfterFunc(x.interval, x.flush)
}

// Stop drops pending paths and unblocks a flush waiting on a full output.
func (x *Debouncer) Stop() {
	x.once.Do(func() {
		x.barrier.Lock()
		defer x.barrier.Unlock()
		if x.timer != nil {
			x.timer.Stop()
		}
		x.pending = make(map[string]struct{})
		close(x.stop)
	})
}

func (x *Debouncer) flush() {
	x.barrier.Lock()
	if len(x.pending) == 0 {
		x.barrier.Unlock()
		return
	}
	batch := make([]string, 0, len(x.pending))
	for path := range x.pending {
		batch = append(batch, path)
	}
	x.pending = make(map[string]struct{})
	x.barrier.Unlock()

	sort.Strings(batch)
	select {
	case x.output <- batch:
	case <-x.stop:
	}
}
