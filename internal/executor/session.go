package executor

import (
	"context"

	"github.com/v0xg/hatter/internal/browser"
	"github.com/v0xg/hatter/internal/command"
	"github.com/v0xg/hatter/internal/stability"
)

// Session is the page driver a run is executed against. Element operations
// wait for their selector with command.SelectorTimeout.
type Session interface {
	stability.Detector
	stability.NavigationWaiter

	Navigate(ctx context.Context, url string) error
	WaitForSelector(ctx context.Context, sel string) error
	Click(ctx context.Context, sel string) error
	Type(ctx context.Context, sel, text string) error
	SelectOption(ctx context.Context, sel, value string) error
	Hover(ctx context.Context, sel string) error
	ScrollTo(ctx context.Context, y *int) error
	WaitForText(ctx context.Context, text string) error
	Screenshot(ctx context.Context) ([]byte, error)
	Cookies(ctx context.Context) ([]command.Cookie, error)
	SetCookie(ctx context.Context, c command.Cookie) error
	Evaluate(ctx context.Context, code string) (string, error)
	TextContent(ctx context.Context, sel string) (string, error)
	Exists(ctx context.Context, sel string) (bool, error)
	ClearInput(ctx context.Context, sel string) error
	Close() error
}

// Opener acquires a fresh session for one run.
type Opener func(ctx context.Context) (Session, error)

// BrowserOpener opens real browser sessions through l.
func BrowserOpener(l *browser.Launcher) Opener {
	return func(ctx context.Context) (Session, error) {
		s, err := l.Open(ctx)
		if err != nil {
			// keep a nil *browser.Session out of the interface
			return nil, err
		}
		return s, nil
	}
}

var _ Session = (*browser.Session)(nil)
