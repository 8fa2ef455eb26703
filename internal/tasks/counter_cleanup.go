package tasks

import (
	"sync"
	"time"

	"github.com/sheegull/deephand-forms/internal/logging"
)

// Sweeper removes expired entries and reports how many were dropped.
type Sweeper interface {
	Sweep() int
}

// CounterCleanup periodically drops expired rate-limit counters from an
// in-process store. Redis expires keys on its own and needs no cleanup.
type CounterCleanup struct {
	store    Sweeper
	interval time.Duration
	logger   *logging.Logger
	done     chan struct{}
	wg       sync.WaitGroup
	once     sync.Once
}

// NewCounterCleanup creates a new counter cleanup task
func NewCounterCleanup(store Sweeper, interval time.Duration) *CounterCleanup {
	if interval <= 0 {
		interval = 10 * time.Minute
	}
	return &CounterCleanup{
		store:    store,
		interval: interval,
		logger:   logging.GetLogger(),
		done:     make(chan struct{}),
	}
}

// Start begins the cleanup task in the background
func (cc *CounterCleanup) Start() {
	cc.wg.Add(1)
	go cc.runPeriodically()
}

// Stop gracefully stops the cleanup task
func (cc *CounterCleanup) Stop() {
	cc.once.Do(func() { close(cc.done) })
	cc.wg.Wait()
}

func (cc *CounterCleanup) runPeriodically() {
	defer cc.wg.Done()

	ticker := time.NewTicker(cc.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			cc.cleanup()
		case <-cc.done:
			cc.logger.Debug("Counter cleanup task stopped")
			return
		}
	}
}

func (cc *CounterCleanup) cleanup() {
	if removed := cc.store.Sweep(); removed > 0 {
		cc.logger.Debug("Removed %d expired rate limit counters", removed)
	}
}
