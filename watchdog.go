package frameScheduler

import (
	"context"
	"time"

	"github.com/joeycumines/go-catrate"
)

// watchdog periodically samples every active stack's iteration counter and
// logs a warning (rate-limited per stack) for any stack that has not
// advanced since the previous sample (spec.md §8 B2: "a stack can stall
// indefinitely if its dependency is never satisfied... detecting this
// requires an external watchdog"). It never touches scheduler state beyond
// reading it: a stall is a diagnostic, not something the watchdog can or
// should resolve on its own.
type watchdog struct {
	s        *Scheduler
	interval time.Duration
	limiter  *catrate.Limiter

	last [NumStacks]uint32

	cancel context.CancelFunc
	done   chan struct{}
}

func newWatchdog(s *Scheduler, interval time.Duration) *watchdog {
	return &watchdog{
		s:        s,
		interval: interval,
		// one warning per stack per 10x the poll interval at most, so a
		// stack stuck for a long time doesn't flood the log.
		limiter: catrate.NewLimiter(map[time.Duration]int{
			interval * 10: 1,
		}),
		done: make(chan struct{}),
	}
}

func (w *watchdog) start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	w.cancel = cancel
	for i := 0; i < w.s.numActiveStacks; i++ {
		w.last[i] = w.s.Iteration(i)
	}
	go w.run(ctx)
}

func (w *watchdog) run(ctx context.Context) {
	defer close(w.done)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.poll()
		}
	}
}

func (w *watchdog) poll() {
	for i := 0; i < w.s.numActiveStacks; i++ {
		current := w.s.Iteration(i)
		if current == w.last[i] {
			if _, ok := w.limiter.Allow(i); ok {
				LogWatchdogStall(w.s.logger, i, current, w.interval)
			}
		}
		w.last[i] = current
	}
}

func (w *watchdog) stop() {
	if w.cancel != nil {
		w.cancel()
	}
	<-w.done
}
