// File: internal/portal/session.go
package portal

import (
	"context"

	"github.com/rfalmeida/detranbridge/internal/browser"
)

// Session is the slice of a browser session the portal layer drives:
// authentication, cookie scope, navigation primitives and page reads.
// *browser.Session satisfies it.
type Session interface {
	Authenticate(ctx context.Context, username, password string) error
	RestoreCookies(ctx context.Context) error
	ClearCookies(ctx context.Context) error
	ResetExpired()
	Expired() bool

	Navigate(ctx context.Context, url string) error
	Hover(ctx context.Context, selector string) error
	Click(ctx context.Context, selector string) error
	Type(ctx context.Context, selector, text string) error

	IsPresent(ctx context.Context, selector string) (bool, error)
	OuterHTML(ctx context.Context, selector string) (string, error)
	Text(ctx context.Context, selector string) (string, error)

	Close() error
}

// SessionFactory creates one isolated browser session per query.
type SessionFactory interface {
	NewSession(ctx context.Context) (Session, error)
}

// NewBrowserFactory adapts the browser manager to the SessionFactory
// contract.
func NewBrowserFactory(m *browser.Manager) SessionFactory {
	return managerFactory{m: m}
}

type managerFactory struct {
	m *browser.Manager
}

func (f managerFactory) NewSession(ctx context.Context) (Session, error) {
	return f.m.NewSession(ctx)
}
