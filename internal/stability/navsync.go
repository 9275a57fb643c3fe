package stability

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Synchronizer defaults.
const (
	DefaultNavigationTimeout = 30 * time.Second
	DefaultFallback          = 3 * time.Second
)

// NavigationWaiter blocks until the page finishes a navigation.
type NavigationWaiter interface {
	WaitForNavigation(ctx context.Context) error
}

// NavigationWaiterFunc adapts a function to NavigationWaiter.
type NavigationWaiterFunc func(ctx context.Context) error

func (f NavigationWaiterFunc) WaitForNavigation(ctx context.Context) error { return f(ctx) }

// NavResult tells which side of the race won.
type NavResult int

const (
	Navigated NavResult = iota
	FallbackElapsed
	NativeFailed
)

func (r NavResult) String() string {
	switch r {
	case Navigated:
		return "navigated"
	case FallbackElapsed:
		return "fallback"
	case NativeFailed:
		return "native-failed"
	}
	return "unknown"
}

// Synchronizer races a native navigation wait against a short fallback so
// client side routing, which fires no navigation event, still proceeds.
type Synchronizer struct {
	Timeout  time.Duration
	Fallback time.Duration

	logger *zap.Logger
}

func NewSynchronizer(logger *zap.Logger) *Synchronizer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Synchronizer{
		Timeout:  DefaultNavigationTimeout,
		Fallback: DefaultFallback,
		logger:   logger.Named("navsync"),
	}
}

// Wait returns when either side resolves. The losing native wait is
// cancelled and drained before returning. Only caller cancellation yields
// an error.
func (s *Synchronizer) Wait(ctx context.Context, w NavigationWaiter) (NavResult, error) {
	waitCtx, cancel := context.WithTimeout(ctx, s.Timeout)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- w.WaitForNavigation(waitCtx)
	}()

	fallback := time.NewTimer(s.Fallback)
	defer fallback.Stop()

	// stop the native wait and wait for it to return
	abandon := func() {
		cancel()
		<-done
	}

	select {
	case err := <-done:
		if err != nil {
			if ctx.Err() != nil {
				return NativeFailed, ctx.Err()
			}
			s.logger.Info("No navigation detected, likely SPA", zap.Error(err))
			return NativeFailed, nil
		}
		return Navigated, nil
	case <-fallback.C:
		abandon()
		s.logger.Info("No navigation detected, likely SPA")
		return FallbackElapsed, nil
	case <-ctx.Done():
		abandon()
		return NativeFailed, ctx.Err()
	}
}
