// File: internal/portal/session_test.go
package portal

import (
	"context"
	"sync"
)

// fakeSession is a scripted Session for driving the navigator and extractor
// without a browser. Call recording is mutex-guarded; behavior is controlled
// through the exported-looking fields below.
type fakeSession struct {
	mu     sync.Mutex
	calls  []string
	closed bool

	// expired is cleared by ResetExpired; stickyExpired models a portal that
	// bounces the session again after re-authentication.
	expired       bool
	stickyExpired bool

	navigateErr error
	clickErrOn  string
	clickErr    error

	present    map[string]bool
	presentErr error
	html       string
	htmlErr    error
	text       string
}

func (f *fakeSession) record(call string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
}

func (f *fakeSession) count(call string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if c == call {
			n++
		}
	}
	return n
}

func (f *fakeSession) Authenticate(ctx context.Context, username, password string) error {
	f.record("authenticate")
	return nil
}

func (f *fakeSession) RestoreCookies(ctx context.Context) error {
	f.record("restore_cookies")
	return nil
}

func (f *fakeSession) ClearCookies(ctx context.Context) error {
	f.record("clear_cookies")
	return nil
}

func (f *fakeSession) ResetExpired() {
	f.record("reset_expired")
	f.mu.Lock()
	defer f.mu.Unlock()
	f.expired = false
}

func (f *fakeSession) Expired() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.expired || f.stickyExpired
}

func (f *fakeSession) Navigate(ctx context.Context, url string) error {
	f.record("navigate")
	return f.navigateErr
}

func (f *fakeSession) Hover(ctx context.Context, selector string) error {
	f.record("hover:" + selector)
	return nil
}

func (f *fakeSession) Click(ctx context.Context, selector string) error {
	f.record("click:" + selector)
	if f.clickErrOn != "" && selector == f.clickErrOn {
		return f.clickErr
	}
	return nil
}

func (f *fakeSession) Type(ctx context.Context, selector, text string) error {
	f.record("type:" + selector)
	return nil
}

func (f *fakeSession) IsPresent(ctx context.Context, selector string) (bool, error) {
	f.record("is_present:" + selector)
	if f.presentErr != nil {
		return false, f.presentErr
	}
	return f.present[selector], nil
}

func (f *fakeSession) OuterHTML(ctx context.Context, selector string) (string, error) {
	f.record("outer_html")
	return f.html, f.htmlErr
}

func (f *fakeSession) Text(ctx context.Context, selector string) (string, error) {
	f.record("text")
	return f.text, nil
}

func (f *fakeSession) Close() error {
	f.record("close")
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakeSession) isClosed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}
