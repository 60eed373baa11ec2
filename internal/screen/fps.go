package screen

import (
	"sync"
	"time"

	"github.com/zsiec/viewport/internal/logger"
	"github.com/zsiec/viewport/internal/metrics"
)

// FPSCounter aggregates rendered and skipped frame counts. A ticker
// goroutine publishes the rate once per interval: always to the metrics
// gauge, and to the log when the counter was built with logging enabled.
//
// AddRenderedFrame is called from the presentation loop and
// AddSkippedFrame from the producer context, so the counters are
// mutex-protected.
type FPSCounter struct {
	log      logger.Logger
	logEach  bool
	interval time.Duration

	mu            sync.Mutex
	rendered      uint32
	skipped       uint32
	totalRendered uint64
	totalSkipped  uint64

	stopOnce sync.Once
	stop     chan struct{}
	done     chan struct{}
}

// NewFPSCounter creates a counter. logEach enables the per-interval
// summary log line.
func NewFPSCounter(logEach bool, log logger.Logger) *FPSCounter {
	return &FPSCounter{
		log:      log,
		logEach:  logEach,
		interval: time.Second,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start launches the ticker goroutine.
func (f *FPSCounter) Start() {
	go f.run()
}

// AddRenderedFrame counts one presented frame.
func (f *FPSCounter) AddRenderedFrame() {
	f.mu.Lock()
	f.rendered++
	f.totalRendered++
	f.mu.Unlock()
}

// AddSkippedFrame counts one frame replaced before it was presented.
func (f *FPSCounter) AddSkippedFrame() {
	f.mu.Lock()
	f.skipped++
	f.totalSkipped++
	f.mu.Unlock()
}

// Totals returns the lifetime rendered and skipped counts.
func (f *FPSCounter) Totals() (rendered, skipped uint64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.totalRendered, f.totalSkipped
}

// Interrupt signals the ticker goroutine to stop. Safe to call more than
// once.
func (f *FPSCounter) Interrupt() {
	f.stopOnce.Do(func() {
		close(f.stop)
	})
}

// Join blocks until the ticker goroutine has exited.
func (f *FPSCounter) Join() {
	<-f.done
}

func (f *FPSCounter) run() {
	defer close(f.done)

	ticker := time.NewTicker(f.interval)
	defer ticker.Stop()

	for {
		select {
		case <-f.stop:
			return
		case <-ticker.C:
			f.tick()
		}
	}
}

func (f *FPSCounter) tick() {
	f.mu.Lock()
	rendered, skipped := f.rendered, f.skipped
	f.rendered, f.skipped = 0, 0
	f.mu.Unlock()

	metrics.SetRenderFPS(float64(rendered) * float64(time.Second) / float64(f.interval))

	if !f.logEach {
		return
	}
	if skipped > 0 {
		f.log.Infof("%d fps (+%d frames skipped)", rendered, skipped)
	} else {
		f.log.Infof("%d fps", rendered)
	}
}
