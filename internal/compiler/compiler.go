// Package compiler renders a command list as a standalone program that
// behaves like the executor.
package compiler

import (
	"bytes"
	"errors"
	"fmt"
	"go/format"
	"strings"
	"text/template"
	"time"

	"github.com/v0xg/hatter/internal/browser"
	"github.com/v0xg/hatter/internal/command"
	"github.com/v0xg/hatter/internal/stability"
)

// Target selects the output language.
type Target string

const (
	TargetGo        Target = "go"
	TargetPuppeteer Target = "puppeteer"
)

// ErrUnknownTarget is returned for an unsupported Target.
var ErrUnknownTarget = errors.New("unknown script target")

// Options configures a Compiler.
type Options struct {
	Target        Target
	AllowEvaluate bool
	Headless      bool
	Profile       browser.Profile
}

// Compiler turns plans into program text.
type Compiler struct {
	opts Options
	tmpl *template.Template
	now  func() time.Time
}

// New returns a compiler for opts.Target, defaulting to Go.
func New(opts Options) (*Compiler, error) {
	if opts.Target == "" {
		opts.Target = TargetGo
	}
	var tmpl *template.Template
	switch opts.Target {
	case TargetGo:
		tmpl = goTemplates
	case TargetPuppeteer:
		tmpl = jsTemplates
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownTarget, opts.Target)
	}
	return &Compiler{opts: opts, tmpl: tmpl, now: time.Now}, nil
}

// Target returns the language the compiler emits.
func (c *Compiler) Target() Target { return c.opts.Target }

// Compile renders p. An empty command list is a ValidationError, as it is
// for the executor.
func (c *Compiler) Compile(p *command.Plan) (string, error) {
	if p == nil || len(p.Commands) == 0 {
		return "", &command.ValidationError{Index: -1, Reason: "commands must be a non-empty list", Err: command.ErrNoCommands}
	}

	b := &stepBuilder{tmpl: c.tmpl, allowEvaluate: c.opts.AllowEvaluate}
	for i, cmd := range p.Commands {
		if err := cmd.Accept(b); err != nil {
			return "", fmt.Errorf("render step %d (%s): %w", i+1, cmd.Action(), err)
		}
	}

	data := c.programData(p, b.steps)
	var buf bytes.Buffer
	if err := c.tmpl.ExecuteTemplate(&buf, "program", data); err != nil {
		return "", fmt.Errorf("render program: %w", err)
	}

	if c.opts.Target == TargetGo {
		src, err := format.Source(buf.Bytes())
		if err != nil {
			return "", fmt.Errorf("format generated program: %w", err)
		}
		return string(src), nil
	}
	return buf.String(), nil
}

type programData struct {
	TestName    string
	Description string
	GeneratedAt string

	Headless         bool
	Profile          browser.Profile
	AcceptLanguage   string
	ProfileScript    string
	ChallengeProbe   string
	SelectScript     string
	EvaluateDisabled string

	SelectorTimeoutMs   int64
	NavigationTimeoutMs int64
	TextTimeoutMs       int64
	EvaluateTimeoutMs   int64
	KeystrokeDelayMs    int64
	ScrollSettleMs      int64
	GateIntervalMs      int64
	GateCeilingMs       int64
	GateSettleMs        int64
	NavFallbackMs       int64

	Steps []step
}

func (c *Compiler) programData(p *command.Plan, steps []step) programData {
	name := p.TestName
	if name == "" {
		name = "Untitled test"
	}
	return programData{
		TestName:    name,
		Description: p.TestDescription,
		GeneratedAt: c.now().UTC().Format(time.RFC3339),

		Headless:         c.opts.Headless,
		Profile:          c.opts.Profile,
		AcceptLanguage:   c.opts.Profile.AcceptLanguage(),
		ProfileScript:    c.opts.Profile.Script(),
		ChallengeProbe:   stability.ChallengeProbeJS,
		SelectScript:     browser.SelectOptionJS,
		EvaluateDisabled: command.ErrEvaluateDisabled.Error(),

		SelectorTimeoutMs:   command.SelectorTimeout.Milliseconds(),
		NavigationTimeoutMs: command.NavigationTimeout.Milliseconds(),
		TextTimeoutMs:       command.TextTimeout.Milliseconds(),
		EvaluateTimeoutMs:   command.EvaluateTimeout.Milliseconds(),
		KeystrokeDelayMs:    command.KeystrokeDelay.Milliseconds(),
		ScrollSettleMs:      command.ScrollSettle.Milliseconds(),
		GateIntervalMs:      stability.DefaultInterval.Milliseconds(),
		GateCeilingMs:       stability.DefaultCeiling.Milliseconds(),
		GateSettleMs:        stability.DefaultSettle.Milliseconds(),
		NavFallbackMs:       stability.DefaultFallback.Milliseconds(),

		Steps: steps,
	}
}

// comment flattens s onto one line so it cannot leave a line comment.
func comment(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '\n', '\r', '\u2028', '\u2029', '\v', '\f', '\u0085':
			return ' '
		}
		return r
	}, s)
}
