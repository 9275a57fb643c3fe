package executor

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/v0xg/hatter/internal/command"
	"github.com/v0xg/hatter/internal/observability"
	"github.com/v0xg/hatter/internal/stability"
)

// failureCaptureTimeout bounds the diagnostic screenshot taken on abort.
const failureCaptureTimeout = 10 * time.Second

// Options configures execution behavior
type Options struct {
	AllowEvaluate      bool
	ScreenshotMaxWidth int // 0 keeps screenshots at viewport size
}

// Executor runs command lists, one fresh session per run.
type Executor struct {
	Gate       *stability.Gate
	Navigation *stability.Synchronizer

	open    Opener
	opts    Options
	logger  *zap.Logger
	metrics *observability.Metrics
	now     func() time.Time
}

// New returns an executor opening sessions with open. metrics may be nil.
func New(open Opener, opts Options, logger *zap.Logger, metrics *observability.Metrics) *Executor {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("executor")
	return &Executor{
		Gate:       stability.NewGate(logger),
		Navigation: stability.NewSynchronizer(logger),
		open:       open,
		opts:       opts,
		logger:     logger,
		metrics:    metrics,
		now:        time.Now,
	}
}

// Run executes cmds in order against a new session and stops at the first
// failing command. An empty list is rejected with a ValidationError before
// any session is opened; every other outcome is described by the report.
func (e *Executor) Run(ctx context.Context, cmds []command.Command) (*Report, error) {
	if len(cmds) == 0 {
		return nil, &command.ValidationError{Index: -1, Reason: "commands must be a non-empty list", Err: command.ErrNoCommands}
	}

	report := &Report{RunID: uuid.NewString(), Screenshots: []Screenshot{}}
	log := e.logger.With(zap.String("run_id", report.RunID))
	start := e.now()
	defer func() {
		report.ExecutionTime = max(e.now().Sub(start).Milliseconds(), 1)
		e.metrics.ObserveRun(report.Success, e.now().Sub(start))
		log.Info("Run finished",
			zap.Bool("success", report.Success),
			zap.Int64("execution_ms", report.ExecutionTime),
			zap.Int("screenshots", len(report.Screenshots)))
	}()

	log.Info("Starting run", zap.Int("commands", len(cmds)))

	sess, err := e.open(ctx)
	if err != nil {
		log.Error("Failed to open browser session", zap.Error(err))
		report.Error = fmt.Sprintf("failed to open browser session: %v", err)
		return report, nil
	}
	e.metrics.SessionOpened()
	defer func() {
		if err := sess.Close(); err != nil {
			log.Warn("Failed to close session", zap.Error(err))
		}
		e.metrics.SessionClosed()
	}()

	r := &runner{ctx: ctx, exec: e, sess: sess, report: report}
	for i, c := range cmds {
		r.log = log.With(zap.Int("step", i+1), zap.String("action", string(c.Action())))
		r.log.Info("Step", zap.String("description", c.Describe()))

		if err := c.Accept(r); err != nil {
			aerr := &command.ActionError{Step: i + 1, Action: c.Action(), Err: err}
			r.log.Error("Step failed", zap.Error(err))
			e.metrics.IncCommandFailure(string(c.Action()))
			report.Error = aerr.Error()
			e.captureFailure(ctx, sess, report, log)
			return report, nil
		}
	}

	report.Success = true
	return report, nil
}

// captureFailure makes exactly one attempt at a diagnostic screenshot. It
// runs even when ctx is already cancelled and never changes the outcome.
func (e *Executor) captureFailure(ctx context.Context, sess Session, report *Report, log *zap.Logger) {
	cctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), failureCaptureTimeout)
	defer cancel()

	raw, err := sess.Screenshot(cctx)
	if err != nil {
		log.Warn("Failed to capture failure screenshot", zap.Error(err))
		return
	}
	data, err := encodeScreenshot(raw, e.opts.ScreenshotMaxWidth)
	if err != nil {
		log.Warn("Failed to encode failure screenshot", zap.Error(err))
		return
	}

	now := e.now()
	report.Screenshots = append(report.Screenshots, Screenshot{
		Filename: fmt.Sprintf("failure-%d.png", now.UnixMilli()),
		Data:     data,
		TakenAt:  now,
		Type:     ScreenshotFailure,
	})
}
