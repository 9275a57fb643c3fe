package compiler

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"text/template"

	jsoniter "github.com/json-iterator/go"

	"github.com/v0xg/hatter/internal/command"
)

// step is one rendered command.
type step struct {
	Action      string
	Description string
	Code        string
}

// stepData feeds the per-action templates. Only the fields of the
// rendered action are set.
type stepData struct {
	Sel    string
	Text   string
	Value  string
	URL    string
	Code   string
	Name   string
	Msg    string
	Y      int
	Ms     int
	Cookie command.Cookie
}

// stepBuilder renders each command through the target's template of the
// same name as its action.
type stepBuilder struct {
	tmpl          *template.Template
	allowEvaluate bool
	steps         []step
}

var _ command.Visitor = (*stepBuilder)(nil)

func (b *stepBuilder) emit(c command.Command, block string, data stepData) error {
	var buf bytes.Buffer
	if err := b.tmpl.ExecuteTemplate(&buf, block, data); err != nil {
		return err
	}
	desc := c.Describe()
	if desc == "" {
		desc = string(c.Action())
	}
	b.steps = append(b.steps, step{
		Action:      string(c.Action()),
		Description: desc,
		Code:        strings.TrimSpace(buf.String()),
	})
	return nil
}

// fail renders a step that raises msg when it runs, mirroring the
// executor's runtime error for the same input.
func (b *stepBuilder) fail(c command.Command, msg string) error {
	return b.emit(c, "fail", stepData{Msg: msg})
}

// targeted resolves c's selector, or renders the executor's error for a
// missing one.
func (b *stepBuilder) targeted(c command.Targeted, block string, data stepData) error {
	sel, err := c.Target()
	if err != nil {
		return b.fail(c, "selector is required")
	}
	data.Sel = sel
	return b.emit(c, block, data)
}

func (b *stepBuilder) VisitNavigate(c *command.Navigate) error {
	if c.URL == "" {
		return b.fail(c, "url is required")
	}
	return b.emit(c, "navigate", stepData{URL: c.URL})
}

func (b *stepBuilder) VisitWaitForSelector(c *command.WaitForSelector) error {
	return b.targeted(c, "waitForSelector", stepData{})
}

func (b *stepBuilder) VisitWaitForSelectorPartial(c *command.WaitForSelectorPartial) error {
	return b.targeted(c, "waitForSelector", stepData{})
}

func (b *stepBuilder) VisitType(c *command.Type) error {
	return b.targeted(c, "type", stepData{Text: c.Text})
}

func (b *stepBuilder) VisitTypePartial(c *command.TypePartial) error {
	return b.targeted(c, "type", stepData{Text: c.Text})
}

func (b *stepBuilder) VisitClick(c *command.Click) error {
	return b.targeted(c, "click", stepData{})
}

func (b *stepBuilder) VisitClickPartial(c *command.ClickPartial) error {
	return b.targeted(c, "click", stepData{})
}

func (b *stepBuilder) VisitSelectOption(c *command.SelectOption) error {
	return b.targeted(c, "selectOption", stepData{Value: c.Value})
}

func (b *stepBuilder) VisitHover(c *command.Hover) error {
	return b.targeted(c, "hover", stepData{})
}

func (b *stepBuilder) VisitScroll(c *command.Scroll) error {
	if c.Y == nil {
		return b.emit(c, "scrollBottom", stepData{})
	}
	return b.emit(c, "scroll", stepData{Y: *c.Y})
}

func (b *stepBuilder) VisitWait(c *command.Wait) error {
	return b.emit(c, "wait", stepData{Ms: c.Millis()})
}

func (b *stepBuilder) VisitWaitForNavigation(c *command.WaitForNavigation) error {
	return b.emit(c, "waitForNavigation", stepData{})
}

func (b *stepBuilder) VisitWaitForText(c *command.WaitForText) error {
	if c.Text == "" {
		return b.fail(c, "text is required")
	}
	return b.emit(c, "waitForText", stepData{Text: c.Text})
}

func (b *stepBuilder) VisitScreenshot(c *command.Screenshot) error {
	return b.emit(c, "screenshot", stepData{Name: c.Filename})
}

func (b *stepBuilder) VisitGetCookies(c *command.GetCookies) error {
	return b.emit(c, "getCookies", stepData{})
}

func (b *stepBuilder) VisitSetCookie(c *command.SetCookie) error {
	if c.Cookie == nil || c.Cookie.Name == "" {
		return b.fail(c, "cookie with a name is required")
	}
	return b.emit(c, "setCookie", stepData{Cookie: *c.Cookie})
}

func (b *stepBuilder) VisitEvaluate(c *command.Evaluate) error {
	if !b.allowEvaluate {
		return b.emit(c, "evaluateDisabled", stepData{})
	}
	if strings.TrimSpace(c.Code) == "" {
		return b.fail(c, "code is required")
	}
	return b.emit(c, "evaluate", stepData{Code: c.Code})
}

func (b *stepBuilder) VisitAssertText(c *command.AssertText) error {
	return b.targeted(c, "assertText", stepData{Text: c.ExpectedText})
}

func (b *stepBuilder) VisitAssertElementExists(c *command.AssertElementExists) error {
	return b.targeted(c, "assertElementExists", stepData{})
}

func (b *stepBuilder) VisitClearInput(c *command.ClearInput) error {
	return b.targeted(c, "clearInput", stepData{})
}

func (b *stepBuilder) VisitUnknown(c *command.Unknown) error {
	return b.emit(c, "unknown", stepData{Name: c.Name})
}

func (b *stepBuilder) VisitMalformed(c *command.Malformed) error {
	return b.fail(c, c.Err.Error())
}

// goLiteral renders any scalar as a Go literal.
func goLiteral(v any) (string, error) {
	switch x := v.(type) {
	case string:
		return strconv.Quote(x), nil
	case bool:
		return strconv.FormatBool(x), nil
	case int:
		return strconv.Itoa(x), nil
	case int64:
		return strconv.FormatInt(x, 10), nil
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64), nil
	}
	return "", fmt.Errorf("no Go literal for %T", v)
}

// scriptJSON leaves markup alone since the output is never embedded in HTML.
var scriptJSON = jsoniter.Config{EscapeHTML: false, SortMapKeys: true}.Froze()

// jsLiteral renders v as a JSON value, which is also a JavaScript literal
// once the two line separators JSON allows raw are escaped.
func jsLiteral(v any) (string, error) {
	out, err := scriptJSON.MarshalToString(v)
	if err != nil {
		return "", err
	}
	out = strings.ReplaceAll(out, "\u2028", `\u2028`)
	return strings.ReplaceAll(out, "\u2029", `\u2029`), nil
}
