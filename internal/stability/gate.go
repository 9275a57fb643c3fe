// Package stability waits out conditions that make a freshly loaded page
// unsafe to drive: anti-bot interstitials and client side route changes.
package stability

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Gate defaults.
const (
	DefaultInterval = 1 * time.Second
	DefaultCeiling  = 15 * time.Second
	DefaultSettle   = 2 * time.Second
)

// ChallengeProbeJS evaluates to true while the page shows an automated
// traffic check.
const ChallengeProbeJS = `() => {
	const text = (document.body && document.body.innerText) || '';
	return text.includes('Verifying you are human') ||
		text.includes('Checking your browser') ||
		document.title.includes('Just a moment') ||
		document.querySelector('.cf-browser-verification') !== null ||
		document.querySelector('#cf-challenge-running') !== null;
}`

// Detector reports whether a challenge page is currently displayed.
type Detector interface {
	ChallengeDetected(ctx context.Context) (bool, error)
}

// DetectorFunc adapts a function to Detector.
type DetectorFunc func(ctx context.Context) (bool, error)

func (f DetectorFunc) ChallengeDetected(ctx context.Context) (bool, error) { return f(ctx) }

// Outcome describes one pass through the gate.
type Outcome struct {
	Rounds  int  // extra poll rounds spent waiting
	Cleared bool // false when the ceiling was reached with markers still present
	Waited  time.Duration
}

// Gate polls a Detector until the challenge clears or the ceiling passes.
// It never fails on its own; only context cancellation is returned.
type Gate struct {
	Interval time.Duration
	Ceiling  time.Duration
	Settle   time.Duration

	logger *zap.Logger
}

// NewGate returns a gate with the default timings.
func NewGate(logger *zap.Logger) *Gate {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Gate{
		Interval: DefaultInterval,
		Ceiling:  DefaultCeiling,
		Settle:   DefaultSettle,
		logger:   logger.Named("gate"),
	}
}

// Wait blocks until d reports no challenge or the ceiling expires, then
// applies the settle delay once.
func (g *Gate) Wait(ctx context.Context, d Detector) (Outcome, error) {
	start := time.Now()
	var out Outcome

	for {
		detected, err := d.ChallengeDetected(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return out, ctx.Err()
			}
			g.logger.Warn("Challenge probe failed, assuming none", zap.Error(err))
			detected = false
		}
		if !detected {
			out.Cleared = true
			break
		}

		remaining := g.Ceiling - time.Since(start)
		if remaining <= 0 {
			g.logger.Warn("Challenge still present at ceiling, proceeding",
				zap.Int("rounds", out.Rounds), zap.Duration("ceiling", g.Ceiling))
			break
		}
		if out.Rounds == 0 {
			g.logger.Info("Challenge detected, waiting for it to clear")
		}

		if err := sleep(ctx, min(g.Interval, remaining)); err != nil {
			return out, err
		}
		out.Rounds++
	}

	if out.Rounds > 0 && out.Cleared {
		g.logger.Info("Challenge cleared", zap.Int("rounds", out.Rounds))
	}

	if err := sleep(ctx, g.Settle); err != nil {
		return out, err
	}
	out.Waited = time.Since(start)
	return out, nil
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
