package engine

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/v0xg/hatter/internal/command"
	"github.com/v0xg/hatter/internal/compiler"
	"github.com/v0xg/hatter/internal/config"
	"github.com/v0xg/hatter/internal/executor"
	"github.com/v0xg/hatter/internal/scraper"
)

// stubSession implements the handful of driver calls these tests reach.
// Anything else panics through the nil embedded interface.
type stubSession struct {
	executor.Session
	exists bool
	closed bool
}

func (s *stubSession) ChallengeDetected(context.Context) (bool, error) { return false, nil }
func (s *stubSession) Navigate(context.Context, string) error         { return nil }
func (s *stubSession) Exists(context.Context, string) (bool, error)   { return s.exists, nil }
func (s *stubSession) HTML(context.Context) (string, error) {
	return `<form><input id="q" name="q"></form>`, nil
}

func (s *stubSession) Screenshot(context.Context) ([]byte, error) {
	var buf bytes.Buffer
	err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 4, 4)))
	return buf.Bytes(), err
}

func (s *stubSession) Close() error {
	s.closed = true
	return nil
}

func newEngine(t *testing.T, sess *stubSession) *Engine {
	t.Helper()
	logger := zaptest.NewLogger(t)

	exec := executor.New(func(context.Context) (executor.Session, error) { return sess, nil },
		executor.Options{}, logger, nil)
	exec.Gate.Settle = 0

	sc := scraper.New(func(context.Context) (scraper.Page, error) { return sess, nil }, logger, nil)
	sc.Gate.Settle = 0
	sc.Settle = 0

	return NewWith(exec, sc, CompileOptions(config.NewDefaultConfig()), logger)
}

const plan = `{"testName":"Smoke","commands":[
	{"action":"navigate","url":"https://example.com"},
	{"action":"assertElementExists","selector":"h1"}
]}`

func parsePlan(t *testing.T) *command.Plan {
	t.Helper()
	p, err := command.ParsePlan([]byte(plan))
	require.NoError(t, err)
	return p
}

func TestRun(t *testing.T) {
	sess := &stubSession{exists: true}
	res, err := newEngine(t, sess).Run(context.Background(), parsePlan(t))
	require.NoError(t, err)

	assert.True(t, res.Success, res.Error)
	assert.Empty(t, res.Screenshots)
	assert.NotEmpty(t, res.RunID)
	assert.Contains(t, res.Script, "package main")
	assert.Contains(t, res.Script, "// Test: Smoke")
	assert.True(t, sess.closed)
}

func TestRun_FailedCommand(t *testing.T) {
	res, err := newEngine(t, &stubSession{}).Run(context.Background(), parsePlan(t))
	require.NoError(t, err)

	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "step 2 (assertElementExists)")
	require.Len(t, res.Screenshots, 1)
	assert.Equal(t, executor.ScreenshotFailure, res.Screenshots[0].Type)
	assert.NotEmpty(t, res.Script)
}

func TestRun_EmptyPlan(t *testing.T) {
	sess := &stubSession{}
	_, err := newEngine(t, sess).Run(context.Background(), nil)
	assert.True(t, command.IsValidation(err))
	assert.False(t, sess.closed)
}

func TestCompile(t *testing.T) {
	e := newEngine(t, &stubSession{})

	src, err := e.Compile(parsePlan(t), "")
	require.NoError(t, err)
	assert.Contains(t, src, "github.com/go-rod/rod")

	src, err = e.Compile(parsePlan(t), compiler.TargetPuppeteer)
	require.NoError(t, err)
	assert.Contains(t, src, "require('puppeteer')")

	_, err = e.Compile(parsePlan(t), "basic")
	assert.ErrorIs(t, err, compiler.ErrUnknownTarget)
}

func TestScrape(t *testing.T) {
	res, err := newEngine(t, &stubSession{}).Scrape(context.Background(), "https://example.com/search")
	require.NoError(t, err)
	require.Len(t, res.Fields, 1)
	assert.Equal(t, "#q", res.Fields[0].Selector)
}

func TestCompileOptions(t *testing.T) {
	cfg := config.NewDefaultConfig()
	cfg.Engine.AllowEvaluate = true
	cfg.Engine.ScriptTarget = config.TargetPuppeteer

	opts := CompileOptions(cfg)
	assert.Equal(t, compiler.TargetPuppeteer, opts.Target)
	assert.True(t, opts.AllowEvaluate)
	assert.Equal(t, cfg.Browser.Headless, opts.Headless)
	assert.Equal(t, cfg.Browser.Profile, opts.Profile)
}
