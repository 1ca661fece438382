// Package signal ties command contexts to SIGINT/SIGTERM and lets critical
// sections (a history write, a schema migration) finish before cancelling.
package signal

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"
)

var (
	mu       sync.Mutex
	depth    int                  // nesting of Block calls
	deferred []context.CancelFunc // cancels held back while blocked
)

// WithSignalCancel returns a context cancelled on SIGINT or SIGTERM.
// A signal that arrives inside a critical section cancels once the section ends.
func WithSignalCancel(parent context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		defer signal.Stop(sigs)
		select {
		case <-sigs:
			requestCancel(cancel)
		case <-ctx.Done():
		}
	}()

	return ctx, cancel
}

func requestCancel(cancel context.CancelFunc) {
	mu.Lock()
	if depth > 0 {
		deferred = append(deferred, cancel)
		mu.Unlock()
		return
	}
	mu.Unlock()
	cancel()
}

// BlockSignals starts a critical section. Calls nest.
func BlockSignals() {
	mu.Lock()
	defer mu.Unlock()
	depth++
}

// UnblockSignals ends a critical section and runs any cancellation that was
// held back by it.
func UnblockSignals() {
	mu.Lock()
	if depth > 0 {
		depth--
	}
	var run []context.CancelFunc
	if depth == 0 {
		run, deferred = deferred, nil
	}
	mu.Unlock()

	for _, cancel := range run {
		cancel()
	}
}

// Critical runs fn with signals blocked.
func Critical(fn func() error) error {
	BlockSignals()
	defer UnblockSignals()
	return fn()
}
