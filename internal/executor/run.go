package executor

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/v0xg/hatter/internal/command"
	"github.com/v0xg/hatter/internal/selector"
)

// runner executes single commands against the run's session.
type runner struct {
	ctx    context.Context
	exec   *Executor
	sess   Session
	report *Report
	log    *zap.Logger
}

var _ command.Visitor = (*runner)(nil)

func target(c command.Targeted) (string, error) {
	sel, err := c.Target()
	if errors.Is(err, selector.ErrEmpty) {
		return "", errors.New("selector is required")
	}
	return sel, err
}

func (r *runner) VisitNavigate(c *command.Navigate) error {
	if c.URL == "" {
		return errors.New("url is required")
	}
	if err := r.sess.Navigate(r.ctx, c.URL); err != nil {
		return err
	}

	out, err := r.exec.Gate.Wait(r.ctx, r.sess)
	r.exec.metrics.ObserveChallengeRounds(out.Rounds)
	if err != nil {
		return err
	}
	if !out.Cleared {
		r.log.Warn("Proceeding with challenge still present", zap.Int("rounds", out.Rounds))
	}
	return nil
}

func (r *runner) VisitWaitForSelector(c *command.WaitForSelector) error { return r.waitFor(c) }

func (r *runner) VisitWaitForSelectorPartial(c *command.WaitForSelectorPartial) error {
	return r.waitFor(c)
}

func (r *runner) waitFor(c command.Targeted) error {
	sel, err := target(c)
	if err != nil {
		return err
	}
	return r.sess.WaitForSelector(r.ctx, sel)
}

func (r *runner) VisitType(c *command.Type) error { return r.typeInto(c, c.Text) }

func (r *runner) VisitTypePartial(c *command.TypePartial) error { return r.typeInto(c, c.Text) }

func (r *runner) typeInto(c command.Targeted, text string) error {
	sel, err := target(c)
	if err != nil {
		return err
	}
	return r.sess.Type(r.ctx, sel, text)
}

func (r *runner) VisitClick(c *command.Click) error { return r.click(c) }

func (r *runner) VisitClickPartial(c *command.ClickPartial) error { return r.click(c) }

func (r *runner) click(c command.Targeted) error {
	sel, err := target(c)
	if err != nil {
		return err
	}
	return r.sess.Click(r.ctx, sel)
}

func (r *runner) VisitSelectOption(c *command.SelectOption) error {
	sel, err := target(c)
	if err != nil {
		return err
	}
	return r.sess.SelectOption(r.ctx, sel, c.Value)
}

func (r *runner) VisitHover(c *command.Hover) error {
	sel, err := target(c)
	if err != nil {
		return err
	}
	return r.sess.Hover(r.ctx, sel)
}

func (r *runner) VisitScroll(c *command.Scroll) error {
	return r.sess.ScrollTo(r.ctx, c.Y)
}

func (r *runner) VisitWait(c *command.Wait) error {
	t := time.NewTimer(time.Duration(c.Millis()) * time.Millisecond)
	defer t.Stop()
	select {
	case <-r.ctx.Done():
		return r.ctx.Err()
	case <-t.C:
		return nil
	}
}

func (r *runner) VisitWaitForNavigation(*command.WaitForNavigation) error {
	_, err := r.exec.Navigation.Wait(r.ctx, r.sess)
	return err
}

func (r *runner) VisitWaitForText(c *command.WaitForText) error {
	if c.Text == "" {
		return errors.New("text is required")
	}
	return r.sess.WaitForText(r.ctx, c.Text)
}

func (r *runner) VisitScreenshot(c *command.Screenshot) error {
	raw, err := r.sess.Screenshot(r.ctx)
	if err != nil {
		return fmt.Errorf("capture screenshot: %w", err)
	}
	data, err := encodeScreenshot(raw, r.exec.opts.ScreenshotMaxWidth)
	if err != nil {
		return err
	}

	now := r.exec.now()
	shot := Screenshot{
		Filename: c.Name(now),
		Data:     data,
		TakenAt:  now,
		Type:     ScreenshotSuccess,
	}
	r.report.Screenshots = append(r.report.Screenshots, shot)
	r.log.Info("Screenshot taken", zap.String("filename", shot.Filename))
	return nil
}

func (r *runner) VisitGetCookies(*command.GetCookies) error {
	cookies, err := r.sess.Cookies(r.ctx)
	if err != nil {
		return fmt.Errorf("read cookies: %w", err)
	}
	names := make([]string, 0, len(cookies))
	for _, c := range cookies {
		names = append(names, c.Name)
	}
	r.log.Info("Cookies", zap.Int("count", len(cookies)), zap.Strings("names", names))
	return nil
}

func (r *runner) VisitSetCookie(c *command.SetCookie) error {
	if c.Cookie == nil || c.Cookie.Name == "" {
		return errors.New("cookie with a name is required")
	}
	return r.sess.SetCookie(r.ctx, *c.Cookie)
}

func (r *runner) VisitEvaluate(c *command.Evaluate) error {
	if !r.exec.opts.AllowEvaluate {
		return command.ErrEvaluateDisabled
	}
	if strings.TrimSpace(c.Code) == "" {
		return errors.New("code is required")
	}
	result, err := r.sess.Evaluate(r.ctx, c.Code)
	if err != nil {
		return fmt.Errorf("evaluate: %w", err)
	}
	r.log.Info("Evaluate result", zap.String("result", result))
	return nil
}

func (r *runner) VisitAssertText(c *command.AssertText) error {
	sel, err := target(c)
	if err != nil {
		return err
	}
	text, err := r.sess.TextContent(r.ctx, sel)
	if err != nil {
		return err
	}
	if !strings.Contains(text, c.ExpectedText) {
		return fmt.Errorf("Text assertion failed: Expected %q but found %q", c.ExpectedText, text)
	}
	return nil
}

func (r *runner) VisitAssertElementExists(c *command.AssertElementExists) error {
	sel, err := target(c)
	if err != nil {
		return err
	}
	found, err := r.sess.Exists(r.ctx, sel)
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("Element assertion failed: Element %q not found", sel)
	}
	return nil
}

func (r *runner) VisitClearInput(c *command.ClearInput) error {
	sel, err := target(c)
	if err != nil {
		return err
	}
	return r.sess.ClearInput(r.ctx, sel)
}

func (r *runner) VisitUnknown(c *command.Unknown) error {
	r.log.Warn("Unknown action, skipping", zap.String("name", c.Name))
	r.exec.metrics.IncUnknownCommand()
	return nil
}

func (r *runner) VisitMalformed(c *command.Malformed) error {
	return c.Err
}
