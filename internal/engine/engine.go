// Package engine ties the executor, compiler and scraper together behind
// the three invocations hatter exposes: run, compile and scrape.
package engine

import (
	"context"

	"go.uber.org/zap"

	"github.com/v0xg/hatter/internal/browser"
	"github.com/v0xg/hatter/internal/command"
	"github.com/v0xg/hatter/internal/compiler"
	"github.com/v0xg/hatter/internal/config"
	"github.com/v0xg/hatter/internal/executor"
	"github.com/v0xg/hatter/internal/observability"
	"github.com/v0xg/hatter/internal/scraper"
)

// RunResult is a run report plus the plan compiled to the configured
// script target.
type RunResult struct {
	*executor.Report
	Script string `json:"script"`
}

// Engine is safe for concurrent use; every invocation opens its own
// browser session.
type Engine struct {
	exec     *executor.Executor
	scraper  *scraper.Scraper
	compile  compiler.Options
	launcher *browser.Launcher
	logger   *zap.Logger
}

// New wires an engine that drives real browsers according to cfg.
func New(cfg *config.Config, logger *zap.Logger, metrics *observability.Metrics) *Engine {
	launcher := browser.NewLauncher(cfg.Browser, logger)
	exec := executor.New(executor.BrowserOpener(launcher), executor.Options{
		AllowEvaluate:      cfg.Engine.AllowEvaluate,
		ScreenshotMaxWidth: cfg.Engine.ScreenshotMaxWidth,
	}, logger, metrics)
	sc := scraper.New(scraper.BrowserOpener(launcher), logger, metrics)

	e := NewWith(exec, sc, CompileOptions(cfg), logger)
	e.launcher = launcher
	return e
}

// NewWith assembles an engine from prebuilt parts.
func NewWith(exec *executor.Executor, sc *scraper.Scraper, copts compiler.Options, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		exec:    exec,
		scraper: sc,
		compile: copts,
		logger:  logger.Named("engine"),
	}
}

// CompileOptions derives compiler settings from cfg so generated scripts
// launch the browser the way the executor does.
func CompileOptions(cfg *config.Config) compiler.Options {
	return compiler.Options{
		Target:        compiler.Target(cfg.Engine.ScriptTarget),
		AllowEvaluate: cfg.Engine.AllowEvaluate,
		Headless:      cfg.Browser.Headless,
		Profile:       cfg.Browser.Profile,
	}
}

// Launcher returns the browser launcher, or nil for an engine built with
// NewWith.
func (e *Engine) Launcher() *browser.Launcher { return e.launcher }

// Run executes p and attaches its compiled script. A ValidationError is
// returned for an empty plan; a failing command is reported in the result.
func (e *Engine) Run(ctx context.Context, p *command.Plan) (*RunResult, error) {
	if p == nil {
		p = &command.Plan{}
	}
	report, err := e.exec.Run(ctx, p.Commands)
	if err != nil {
		return nil, err
	}

	script, err := e.Compile(p, "")
	if err != nil {
		e.logger.Warn("Failed to compile script for run", zap.String("run_id", report.RunID), zap.Error(err))
	}
	return &RunResult{Report: report, Script: script}, nil
}

// Compile renders p for target, or for the configured target when target
// is empty.
func (e *Engine) Compile(p *command.Plan, target compiler.Target) (string, error) {
	opts := e.compile
	if target != "" {
		opts.Target = target
	}
	c, err := compiler.New(opts)
	if err != nil {
		return "", err
	}
	return c.Compile(p)
}

// Scrape inventories the form controls at url.
func (e *Engine) Scrape(ctx context.Context, url string) (*scraper.Result, error) {
	return e.scraper.Scrape(ctx, url)
}
