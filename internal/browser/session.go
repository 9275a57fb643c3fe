package browser

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/input"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/launcher/flags"
	"github.com/go-rod/rod/lib/proto"
	"go.uber.org/zap"

	"github.com/v0xg/hatter/internal/command"
	"github.com/v0xg/hatter/internal/stability"
)

// ErrNotFound is returned when an element lookup times out.
var ErrNotFound = errors.New("element not found")

// Launcher opens sessions with a fixed configuration.
type Launcher struct {
	opts   Options
	logger *zap.Logger
}

func NewLauncher(opts Options, logger *zap.Logger) *Launcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Launcher{opts: opts, logger: logger.Named("browser")}
}

// Options returns the configuration sessions are opened with.
func (l *Launcher) Options() Options { return l.opts }

// Session wraps one browser process and its single page.
type Session struct {
	launcher *launcher.Launcher
	browser  *rod.Browser
	page     *rod.Page
	logger   *zap.Logger
	keepData bool

	closeOnce sync.Once
	closeErr  error
}

// Open launches a browser, creates a page and applies the fingerprint
// profile before any document loads.
func (l *Launcher) Open(ctx context.Context) (*Session, error) {
	bin := l.opts.Bin
	if bin == "" {
		bin, _ = launcher.LookPath()
	}

	ln := launcher.New().
		Context(ctx).
		Bin(bin).
		Headless(l.opts.Headless).
		NoSandbox(l.opts.NoSandbox)
	for name, value := range stealthFlags {
		setFlag(ln, name, value)
	}
	if l.opts.UserDataDir != "" {
		ln = ln.UserDataDir(l.opts.UserDataDir)
	}
	for _, f := range l.opts.Flags {
		name, value := splitFlag(f)
		if name != "" {
			setFlag(ln, name, value)
		}
	}

	u, err := ln.Launch()
	if err != nil {
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	s := &Session{launcher: ln, logger: l.logger, keepData: l.opts.UserDataDir != ""}

	s.browser = rod.New().ControlURL(u)
	if err := s.browser.Connect(); err != nil {
		ln.Kill()
		return nil, fmt.Errorf("failed to connect to browser: %w", err)
	}

	s.page, err = s.browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("failed to create page: %w", err)
	}

	if err := s.apply(l.opts.Profile); err != nil {
		s.Close()
		return nil, fmt.Errorf("failed to apply profile: %w", err)
	}

	l.logger.Debug("Session opened", zap.String("control_url", u))
	return s, nil
}

func setFlag(ln *launcher.Launcher, name, value string) {
	if value == "" {
		ln.Set(flags.Flag(name))
		return
	}
	ln.Set(flags.Flag(name), value)
}

func (s *Session) apply(p Profile) error {
	if p.UserAgent != "" {
		err := s.page.SetUserAgent(&proto.NetworkSetUserAgentOverride{
			UserAgent:      p.UserAgent,
			AcceptLanguage: p.AcceptLanguage(),
			Platform:       p.Platform,
		})
		if err != nil {
			return err
		}
	}
	if p.Width > 0 && p.Height > 0 {
		err := s.page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
			Width:             p.Width,
			Height:            p.Height,
			DeviceScaleFactor: 1,
		})
		if err != nil {
			return err
		}
	}
	if js := p.Script(); js != "" {
		if _, err := s.page.EvalOnNewDocument(js); err != nil {
			return err
		}
	}
	return nil
}

// Page returns the underlying rod page
func (s *Session) Page() *rod.Page { return s.page }

// Close releases the page, the browser and the process. It is safe to call
// more than once.
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		if s.browser != nil {
			s.closeErr = s.browser.Close()
		}
		if s.launcher != nil {
			s.launcher.Kill()
			// Cleanup removes the user data dir, which must survive when
			// it was supplied
			if !s.keepData {
				s.launcher.Cleanup()
			}
		}
	})
	return s.closeErr
}

// Navigate loads url and waits for the load event.
func (s *Session) Navigate(ctx context.Context, url string) error {
	p := s.page.Context(ctx).Timeout(command.NavigationTimeout)
	if err := p.Navigate(url); err != nil {
		return fmt.Errorf("navigate to %s: %w", url, err)
	}
	if err := p.WaitLoad(); err != nil {
		return fmt.Errorf("wait for load of %s: %w", url, err)
	}
	return nil
}

// ChallengeDetected evaluates the interstitial markers in the page.
func (s *Session) ChallengeDetected(ctx context.Context) (bool, error) {
	res, err := s.page.Context(ctx).Eval(stability.ChallengeProbeJS)
	if err != nil {
		return false, err
	}
	return res.Value.Bool(), nil
}

func (s *Session) element(ctx context.Context, sel string) (*rod.Element, error) {
	el, err := s.page.Context(ctx).Timeout(command.SelectorTimeout).Element(sel)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
			return nil, fmt.Errorf("%w: %s (waited %s)", ErrNotFound, sel, command.SelectorTimeout)
		}
		return nil, fmt.Errorf("find %s: %w", sel, err)
	}
	// detach the element from the lookup timeout
	return el.Context(ctx), nil
}

// WaitForSelector waits until sel matches an element.
func (s *Session) WaitForSelector(ctx context.Context, sel string) error {
	_, err := s.element(ctx, sel)
	return err
}

func (s *Session) visible(ctx context.Context, sel string) (*rod.Element, error) {
	el, err := s.element(ctx, sel)
	if err != nil {
		return nil, err
	}
	if err := el.Timeout(command.SelectorTimeout).WaitVisible(); err != nil {
		return nil, fmt.Errorf("wait for %s to be visible: %w", sel, err)
	}
	if err := el.ScrollIntoView(); err != nil {
		return nil, fmt.Errorf("scroll %s into view: %w", sel, err)
	}
	return el, nil
}

// Click waits for sel to be visible, scrolls it into view and clicks it.
func (s *Session) Click(ctx context.Context, sel string) error {
	el, err := s.visible(ctx, sel)
	if err != nil {
		return err
	}
	return el.Click(proto.InputMouseButtonLeft, 1)
}

// Type focuses sel by clicking it, then types text one key at a time.
func (s *Session) Type(ctx context.Context, sel, text string) error {
	if err := s.Click(ctx, sel); err != nil {
		return err
	}

	p := s.page.Context(ctx)
	for _, r := range text {
		if err := typeRune(p, r); err != nil {
			return fmt.Errorf("type into %s: %w", sel, err)
		}
		if err := pause(ctx, command.KeystrokeDelay); err != nil {
			return err
		}
	}
	return nil
}

func typeRune(p *rod.Page, r rune) error {
	switch {
	case r == '\n':
		return p.Keyboard.Type(input.Enter)
	case r == '\t':
		return p.Keyboard.Type(input.Tab)
	case r >= 0x20 && r < 0x7f:
		return p.Keyboard.Type(input.Key(r))
	default:
		return p.InsertText(string(r))
	}
}

// SelectOptionJS selects the option whose value property equals the
// argument and fires input and change. An option without a value
// attribute takes its text as value, so scraped values always match. It
// evaluates to false when no option matches.
const SelectOptionJS = `function (value) {
	const options = Array.from(this.options || []);
	if (!options.some((o) => o.value === value)) return false;
	for (const o of options) o.selected = o.value === value;
	this.dispatchEvent(new Event('input', { bubbles: true }));
	this.dispatchEvent(new Event('change', { bubbles: true }));
	return true;
}`

// SelectOption selects the option of sel whose value equals value.
func (s *Session) SelectOption(ctx context.Context, sel, value string) error {
	el, err := s.element(ctx, sel)
	if err != nil {
		return err
	}
	res, err := el.Eval(SelectOptionJS, value)
	if err != nil {
		return fmt.Errorf("select %q in %s: %w", value, sel, err)
	}
	if !res.Value.Bool() {
		return fmt.Errorf("select %q in %s: no such option", value, sel)
	}
	return nil
}

// Hover moves the mouse over sel.
func (s *Session) Hover(ctx context.Context, sel string) error {
	el, err := s.visible(ctx, sel)
	if err != nil {
		return err
	}
	return el.Hover()
}

// ScrollTo scrolls the window to y, or to the bottom of the document when
// y is nil, then lets the page settle.
func (s *Session) ScrollTo(ctx context.Context, y *int) error {
	p := s.page.Context(ctx)
	var err error
	if y == nil {
		_, err = p.Eval(`() => window.scrollTo(0, document.body.scrollHeight)`)
	} else {
		_, err = p.Eval(`(y) => window.scrollTo(0, y)`, *y)
	}
	if err != nil {
		return fmt.Errorf("scroll: %w", err)
	}
	return pause(ctx, command.ScrollSettle)
}

// WaitForNavigation blocks until the page reaches network almost idle after
// a navigation, or ctx is done.
func (s *Session) WaitForNavigation(ctx context.Context) error {
	wait := s.page.Context(ctx).WaitNavigation(proto.PageLifecycleEventNameNetworkAlmostIdle)
	wait()
	return ctx.Err()
}

// WaitForText waits until the body's rendered text contains text.
func (s *Session) WaitForText(ctx context.Context, text string) error {
	p := s.page.Context(ctx).Timeout(command.TextTimeout)
	err := p.Wait(rod.Eval(`(t) => !!document.body && document.body.innerText.includes(t)`, text))
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
			return fmt.Errorf("text %q did not appear within %s", text, command.TextTimeout)
		}
		return fmt.Errorf("wait for text %q: %w", text, err)
	}
	return nil
}

// Screenshot captures the viewport as PNG.
func (s *Session) Screenshot(ctx context.Context) ([]byte, error) {
	return s.page.Context(ctx).Screenshot(false, &proto.PageCaptureScreenshot{
		Format: proto.PageCaptureScreenshotFormatPng,
	})
}

// Cookies returns the cookies visible to the current page.
func (s *Session) Cookies(ctx context.Context) ([]command.Cookie, error) {
	raw, err := s.page.Context(ctx).Cookies(nil)
	if err != nil {
		return nil, err
	}
	out := make([]command.Cookie, 0, len(raw))
	for _, c := range raw {
		out = append(out, command.Cookie{
			Name:     c.Name,
			Value:    c.Value,
			Domain:   c.Domain,
			Path:     c.Path,
			Expires:  float64(c.Expires),
			HTTPOnly: c.HTTPOnly,
			Secure:   c.Secure,
			SameSite: string(c.SameSite),
		})
	}
	return out, nil
}

// SetCookie stores c. Without a url or domain the cookie is scoped to the
// current page URL.
func (s *Session) SetCookie(ctx context.Context, c command.Cookie) error {
	p := s.page.Context(ctx)
	param := &proto.NetworkCookieParam{
		Name:     c.Name,
		Value:    c.Value,
		URL:      c.URL,
		Domain:   c.Domain,
		Path:     c.Path,
		Secure:   c.Secure,
		HTTPOnly: c.HTTPOnly,
		SameSite: proto.NetworkCookieSameSite(c.SameSite),
		Expires:  proto.TimeSinceEpoch(c.Expires),
	}
	if param.URL == "" && param.Domain == "" {
		info, err := p.Info()
		if err != nil {
			return fmt.Errorf("resolve cookie url: %w", err)
		}
		param.URL = info.URL
	}
	return p.SetCookies([]*proto.NetworkCookieParam{param})
}

// Evaluate runs code as the body of an async function in the page and
// returns its JSON encoded result.
func (s *Session) Evaluate(ctx context.Context, code string) (string, error) {
	p := s.page.Context(ctx).Timeout(command.EvaluateTimeout)
	res, err := p.Evaluate(rod.Eval("async () => {\n" + code + "\n}").ByPromise())
	if err != nil {
		return "", err
	}
	return res.Value.JSON("", ""), nil
}

// TextContent waits for sel and returns its textContent.
func (s *Session) TextContent(ctx context.Context, sel string) (string, error) {
	el, err := s.element(ctx, sel)
	if err != nil {
		return "", err
	}
	res, err := el.Eval(`() => this.textContent`)
	if err != nil {
		return "", fmt.Errorf("read text of %s: %w", sel, err)
	}
	return res.Value.Str(), nil
}

// Exists reports whether sel matches an element right now, without waiting.
func (s *Session) Exists(ctx context.Context, sel string) (bool, error) {
	has, _, err := s.page.Context(ctx).Has(sel)
	return has, err
}

// ClearInput selects the field's content with a triple click and deletes it.
func (s *Session) ClearInput(ctx context.Context, sel string) error {
	el, err := s.visible(ctx, sel)
	if err != nil {
		return err
	}
	if err := el.Click(proto.InputMouseButtonLeft, 3); err != nil {
		return fmt.Errorf("select content of %s: %w", sel, err)
	}
	return s.page.Context(ctx).Keyboard.Press(input.Backspace)
}

// HTML returns the rendered document.
func (s *Session) HTML(ctx context.Context) (string, error) {
	return s.page.Context(ctx).HTML()
}

// URL returns the page's current location.
func (s *Session) URL(ctx context.Context) (string, error) {
	info, err := s.page.Context(ctx).Info()
	if err != nil {
		return "", err
	}
	return info.URL, nil
}

func pause(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
