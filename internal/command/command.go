package command

import (
	"fmt"
	"time"

	"github.com/v0xg/hatter/internal/selector"
)

// Action is the discriminator tag of a command
type Action string

const (
	ActionNavigate               Action = "navigate"
	ActionWaitForSelector        Action = "waitForSelector"
	ActionWaitForSelectorPartial Action = "waitForSelectorPartial"
	ActionType                   Action = "type"
	ActionTypePartial            Action = "typePartial"
	ActionClick                  Action = "click"
	ActionClickPartial           Action = "clickPartial"
	ActionSelectOption           Action = "selectOption"
	ActionWait                   Action = "wait"
	ActionWaitForNavigation      Action = "waitForNavigation"
	ActionWaitForText            Action = "waitForText"
	ActionScreenshot             Action = "screenshot"
	ActionEvaluate               Action = "evaluate"
	ActionAssertText             Action = "assertText"
	ActionAssertElementExists    Action = "assertElementExists"
	ActionClearInput             Action = "clearInput"

	// Extension actions. Both the executor and the compiler support them,
	// but they are not part of the vocabulary handed to plan generators.
	ActionHover      Action = "hover"
	ActionScroll     Action = "scroll"
	ActionGetCookies Action = "getCookies"
	ActionSetCookie  Action = "setCookie"
)

// Command is one step of a test. The set of implementations is closed;
// dispatch goes through Accept and a Visitor.
type Command interface {
	Action() Action
	Describe() string
	Accept(v Visitor) error
	sealed()
}

// Targeted is implemented by commands that act on a single element.
type Targeted interface {
	Command
	// Target resolves the command's selector or partial id into a CSS selector.
	Target() (string, error)
}

// Base carries the fields shared by every command
type Base struct {
	Description string `json:"description,omitempty"`
}

func (b Base) Describe() string { return b.Description }
func (Base) sealed()             {}

// Cookie is the payload of a setCookie command
type Cookie struct {
	Name     string  `json:"name"`
	Value    string  `json:"value"`
	URL      string  `json:"url,omitempty"`
	Domain   string  `json:"domain,omitempty"`
	Path     string  `json:"path,omitempty"`
	Expires  float64 `json:"expires,omitempty"` // seconds since epoch
	HTTPOnly bool    `json:"httpOnly,omitempty"`
	Secure   bool    `json:"secure,omitempty"`
	SameSite string  `json:"sameSite,omitempty"` // Strict, Lax or None
}

type Navigate struct {
	Base
	URL string `json:"url"`
}

type WaitForSelector struct {
	Base
	Selector string `json:"selector"`
}

type WaitForSelectorPartial struct {
	Base
	PartialID string `json:"partialId"`
}

type Type struct {
	Base
	Selector string `json:"selector"`
	Text     string `json:"text"`
}

type TypePartial struct {
	Base
	PartialID string `json:"partialId"`
	Text      string `json:"text"`
}

type Click struct {
	Base
	Selector string `json:"selector"`
}

type ClickPartial struct {
	Base
	PartialID string `json:"partialId"`
}

type SelectOption struct {
	Base
	Selector string `json:"selector"`
	Value    string `json:"value"`
}

type Hover struct {
	Base
	Selector string `json:"selector"`
}

// Scroll scrolls the window vertically. A nil Y scrolls to the bottom.
type Scroll struct {
	Base
	Y *int `json:"y,omitempty"`
}

// Wait pauses for Duration milliseconds
type Wait struct {
	Base
	Duration int `json:"duration,omitempty"`
}

type WaitForNavigation struct {
	Base
}

type WaitForText struct {
	Base
	Text string `json:"text"`
}

type Screenshot struct {
	Base
	Filename string `json:"filename,omitempty"`
}

type GetCookies struct {
	Base
}

type SetCookie struct {
	Base
	Cookie *Cookie `json:"cookie"`
}

// Evaluate runs an opaque script body in the page. It is a privileged
// command and only runs when explicitly allowed.
type Evaluate struct {
	Base
	Code string `json:"code"`
}

type AssertText struct {
	Base
	Selector     string `json:"selector"`
	ExpectedText string `json:"expectedText"`
}

type AssertElementExists struct {
	Base
	Selector string `json:"selector"`
}

type ClearInput struct {
	Base
	Selector string `json:"selector"`
}

// Unknown holds an entry whose action is not recognised. It is kept so the
// run can log it and carry on.
type Unknown struct {
	Base
	Name string `json:"-"`
	Raw  []byte `json:"-"`
}

// Malformed holds an entry of a known action whose fields have the wrong
// JSON types. Running it fails the step with Err.
type Malformed struct {
	Base
	Name Action `json:"-"`
	Err  error  `json:"-"`
	Raw  []byte `json:"-"`
}

func (*Navigate) Action() Action               { return ActionNavigate }
func (*WaitForSelector) Action() Action        { return ActionWaitForSelector }
func (*WaitForSelectorPartial) Action() Action { return ActionWaitForSelectorPartial }
func (*Type) Action() Action                   { return ActionType }
func (*TypePartial) Action() Action            { return ActionTypePartial }
func (*Click) Action() Action                  { return ActionClick }
func (*ClickPartial) Action() Action           { return ActionClickPartial }
func (*SelectOption) Action() Action           { return ActionSelectOption }
func (*Hover) Action() Action                  { return ActionHover }
func (*Scroll) Action() Action                 { return ActionScroll }
func (*Wait) Action() Action                   { return ActionWait }
func (*WaitForNavigation) Action() Action      { return ActionWaitForNavigation }
func (*WaitForText) Action() Action            { return ActionWaitForText }
func (*Screenshot) Action() Action             { return ActionScreenshot }
func (*GetCookies) Action() Action             { return ActionGetCookies }
func (*SetCookie) Action() Action              { return ActionSetCookie }
func (*Evaluate) Action() Action               { return ActionEvaluate }
func (*AssertText) Action() Action             { return ActionAssertText }
func (*AssertElementExists) Action() Action    { return ActionAssertElementExists }
func (*ClearInput) Action() Action             { return ActionClearInput }
func (u *Unknown) Action() Action              { return Action(u.Name) }
func (m *Malformed) Action() Action            { return m.Name }

func (c *WaitForSelector) Target() (string, error)        { return selector.Exact(c.Selector) }
func (c *WaitForSelectorPartial) Target() (string, error) { return selector.Partial(c.PartialID) }
func (c *Type) Target() (string, error)                   { return selector.Exact(c.Selector) }
func (c *TypePartial) Target() (string, error)            { return selector.Partial(c.PartialID) }
func (c *Click) Target() (string, error)                  { return selector.Exact(c.Selector) }
func (c *ClickPartial) Target() (string, error)           { return selector.Partial(c.PartialID) }
func (c *SelectOption) Target() (string, error)           { return selector.Exact(c.Selector) }
func (c *Hover) Target() (string, error)                  { return selector.Exact(c.Selector) }
func (c *AssertText) Target() (string, error)             { return selector.Exact(c.Selector) }
func (c *AssertElementExists) Target() (string, error)    { return selector.Exact(c.Selector) }
func (c *ClearInput) Target() (string, error)             { return selector.Exact(c.Selector) }

// Millis returns the wait duration, falling back to DefaultWait.
func (c *Wait) Millis() int {
	if c.Duration <= 0 {
		return int(DefaultWait / time.Millisecond)
	}
	return c.Duration
}

// Name returns the filename, generating a time-based one when absent.
func (c *Screenshot) Name(now time.Time) string {
	if c.Filename != "" {
		return c.Filename
	}
	return fmt.Sprintf("screenshot-%d.png", now.UnixMilli())
}
