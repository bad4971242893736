// File: internal/browser/session.go
package browser

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/fetch"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/rfalmeida/detranbridge/internal/config"
)

// Session is one browser tab owned exclusively by one in-flight query.
// It is created per query and destroyed at the end of the query regardless
// of outcome.
type Session struct {
	id     string
	ctx    context.Context
	cancel context.CancelFunc
	logger *zap.Logger
	cfg    *config.Config
	jar    *Jar

	onClose func()

	// expired flips when navigation lands on the portal's access-control
	// page; a subsequent login-completion event clears it.
	expired atomic.Bool

	mu       sync.Mutex
	isClosed bool
}

// newSession derives a tab context from the allocator and wires up the
// navigation watcher that persists and discards cookies.
func newSession(ctx context.Context, allocatorCtx context.Context, cfg *config.Config, logger *zap.Logger, jar *Jar, onClose func()) (*Session, error) {
	tabCtx, cancel := chromedp.NewContext(allocatorCtx)

	sessionID := uuid.New().String()
	s := &Session{
		id:      sessionID,
		ctx:     tabCtx,
		cancel:  cancel,
		logger:  logger.Named("session").With(zap.String("session_id", sessionID)),
		cfg:     cfg,
		jar:     jar,
		onClose: onClose,
	}

	// Materialize the tab and enable the network domain before any
	// navigation so cookie events are observable.
	initCtx, initCancel := combineContext(tabCtx, ctx)
	defer initCancel()
	if err := chromedp.Run(initCtx, network.Enable()); err != nil {
		cancel()
		return nil, fmt.Errorf("failed to initialize browser tab: %w", err)
	}

	s.watchNavigation()
	return s, nil
}

// ID returns the unique identifier for the session.
func (s *Session) ID() string {
	return s.id
}

// Expired reports whether the portal bounced this session to its
// access-control page, meaning the persisted login is no longer valid.
func (s *Session) Expired() bool {
	return s.expired.Load()
}

// ResetExpired clears the expiry flag. Callers use it after discarding the
// stale cookie scope, so a fresh authentication pass is not judged by the
// previous session's fate.
func (s *Session) ResetExpired() {
	s.expired.Store(false)
}

// Authenticate answers the portal's HTTP authentication challenge for all
// subsequent navigation in this session.
func (s *Session) Authenticate(ctx context.Context, username, password string) error {
	runCtx, cancel := combineContext(s.ctx, ctx)
	defer cancel()

	if err := chromedp.Run(runCtx, fetch.Enable().WithHandleAuthRequests(true)); err != nil {
		return fmt.Errorf("failed to enable auth interception: %w", err)
	}

	chromedp.ListenTarget(s.ctx, func(ev interface{}) {
		switch ev := ev.(type) {
		case *fetch.EventAuthRequired:
			requestID := ev.RequestID
			go func() {
				exec := cdp.WithExecutor(s.ctx, chromedp.FromContext(s.ctx).Target)
				resp := &fetch.AuthChallengeResponse{
					Response: fetch.AuthChallengeResponseResponseProvideCredentials,
					Username: username,
					Password: password,
				}
				if err := fetch.ContinueWithAuth(requestID, resp).Do(exec); err != nil {
					s.logger.Debug("Could not answer auth challenge.", zap.Error(err))
				}
			}()
		case *fetch.EventRequestPaused:
			requestID := ev.RequestID
			go func() {
				exec := cdp.WithExecutor(s.ctx, chromedp.FromContext(s.ctx).Target)
				if err := fetch.ContinueRequest(requestID).Do(exec); err != nil {
					s.logger.Debug("Could not continue paused request.", zap.Error(err))
				}
			}()
		}
	})
	return nil
}

// watchNavigation observes outgoing requests. A login-completion URL persists
// the fresh cookie set; an access-control URL discards the in-memory cookies
// (the persisted file is left untouched until the next successful login).
func (s *Session) watchNavigation() {
	loginPattern := s.cfg.Portal.LoginURLPattern
	logoutPattern := s.cfg.Portal.LogoutURLPattern

	chromedp.ListenTarget(s.ctx, func(ev interface{}) {
		req, ok := ev.(*network.EventRequestWillBeSent)
		if !ok {
			return
		}
		url := req.Request.URL

		switch {
		case loginPattern != "" && strings.Contains(url, loginPattern):
			s.expired.Store(false)
			go func() {
				exec := cdp.WithExecutor(s.ctx, chromedp.FromContext(s.ctx).Target)
				cookies, err := network.GetCookies().Do(exec)
				if err != nil {
					s.logger.Warn("Could not capture cookies after login.", zap.Error(err))
					return
				}
				s.jar.Save(cookies)
			}()
		case logoutPattern != "" && strings.Contains(url, logoutPattern):
			s.expired.Store(true)
			go func() {
				exec := cdp.WithExecutor(s.ctx, chromedp.FromContext(s.ctx).Target)
				if err := network.ClearBrowserCookies().Do(exec); err != nil {
					s.logger.Warn("Could not clear in-memory cookies.", zap.Error(err))
				}
			}()
		}
	})
}

// RestoreCookies loads the persisted jar into this session's cookie scope.
func (s *Session) RestoreCookies(ctx context.Context) error {
	cookies := s.jar.Load()
	if len(cookies) == 0 {
		return nil
	}

	return s.runActions(ctx, chromedp.ActionFunc(func(c context.Context) error {
		for _, ck := range cookies {
			param := network.SetCookie(ck.Name, ck.Value).
				WithDomain(ck.Domain).
				WithPath(ck.Path).
				WithSecure(ck.Secure).
				WithHTTPOnly(ck.HTTPOnly)
			if ck.Expires > 0 {
				expires := cdp.TimeSinceEpoch(time.Unix(int64(ck.Expires), 0))
				param = param.WithExpires(&expires)
			}
			if err := param.Do(c); err != nil {
				s.logger.Warn("Could not restore cookie.", zap.String("name", ck.Name), zap.Error(err))
			}
		}
		return nil
	}))
}

// ClearCookies discards every cookie in this session's browsing context.
func (s *Session) ClearCookies(ctx context.Context) error {
	return s.runActions(ctx, network.ClearBrowserCookies())
}

// Navigate loads the URL and waits for the document to become ready.
func (s *Session) Navigate(ctx context.Context, url string) error {
	s.logger.Debug("Navigating to URL", zap.String("url", url))

	opCtx, opCancel := combineContext(s.ctx, ctx)
	defer opCancel()

	navTimeout := s.cfg.Portal.NavigationTimeout
	if navTimeout <= 0 {
		navTimeout = 90 * time.Second
	}
	navCtx, navCancel := context.WithTimeout(opCtx, navTimeout)
	defer navCancel()

	if err := chromedp.Run(navCtx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
	); err != nil {
		if navCtx.Err() == context.DeadlineExceeded {
			return fmt.Errorf("navigation timed out after %s: %w", navTimeout, err)
		}
		if opCtx.Err() != nil {
			return fmt.Errorf("navigation canceled: %w", opCtx.Err())
		}
		return fmt.Errorf("navigation failed: %w", err)
	}
	return nil
}

// Hover waits for the element and dispatches mouse-over events to it. The
// portal renders each menu level only while its parent is hovered.
func (s *Session) Hover(ctx context.Context, selector string) error {
	s.logger.Debug("Hovering element", zap.String("selector", selector))

	script := fmt.Sprintf(`(function() {
        const el = document.querySelector(%q);
        if (!el) { return false; }
        el.dispatchEvent(new MouseEvent('mouseenter', {bubbles: true}));
        el.dispatchEvent(new MouseEvent('mouseover', {bubbles: true}));
        return true;
    })()`, selector)

	var ok bool
	err := s.runStep(ctx, chromedp.Tasks{
		chromedp.WaitVisible(selector, chromedp.ByQuery),
		chromedp.Evaluate(script, &ok),
	})
	if err != nil {
		return fmt.Errorf("hover failed for selector '%s': %w", selector, err)
	}
	if !ok {
		return fmt.Errorf("hover target '%s' disappeared before dispatch", selector)
	}
	return nil
}

// Click waits for the element and clicks it.
func (s *Session) Click(ctx context.Context, selector string) error {
	s.logger.Debug("Clicking element", zap.String("selector", selector))

	err := s.runStep(ctx, chromedp.Tasks{
		chromedp.WaitVisible(selector, chromedp.ByQuery),
		chromedp.Click(selector, chromedp.ByQuery),
	})
	if err != nil {
		return fmt.Errorf("click failed for selector '%s': %w", selector, err)
	}
	return nil
}

// Type waits for the field and sets its value.
func (s *Session) Type(ctx context.Context, selector, text string) error {
	s.logger.Debug("Typing into element", zap.String("selector", selector), zap.Int("text_length", len(text)))

	err := s.runStep(ctx, chromedp.Tasks{
		chromedp.WaitVisible(selector, chromedp.ByQuery),
		chromedp.SendKeys(selector, text, chromedp.ByQuery),
	})
	if err != nil {
		return fmt.Errorf("type failed for selector '%s': %w", selector, err)
	}
	return nil
}

// WaitVisible suspends until the element is visible or the timeout elapses.
func (s *Session) WaitVisible(ctx context.Context, selector string, timeout time.Duration) error {
	opCtx, opCancel := combineContext(s.ctx, ctx)
	defer opCancel()

	waitCtx, cancel := context.WithTimeout(opCtx, timeout)
	defer cancel()

	if err := chromedp.Run(waitCtx, chromedp.WaitVisible(selector, chromedp.ByQuery)); err != nil {
		return fmt.Errorf("wait for selector '%s' failed: %w", selector, err)
	}
	return nil
}

// IsPresent reports whether the selector currently matches an element.
func (s *Session) IsPresent(ctx context.Context, selector string) (bool, error) {
	script := fmt.Sprintf(`document.querySelector(%q) !== null`, selector)
	var present bool
	if err := s.runActions(ctx, chromedp.Evaluate(script, &present)); err != nil {
		return false, err
	}
	return present, nil
}

// OuterHTML returns the rendered HTML of the first element matching selector.
func (s *Session) OuterHTML(ctx context.Context, selector string) (string, error) {
	var html string
	if err := s.runActions(ctx, chromedp.OuterHTML(selector, &html, chromedp.ByQuery)); err != nil {
		return "", fmt.Errorf("could not capture HTML for selector '%s': %w", selector, err)
	}
	return html, nil
}

// Text returns the visible text of the first element matching selector.
func (s *Session) Text(ctx context.Context, selector string) (string, error) {
	var text string
	if err := s.runActions(ctx, chromedp.Text(selector, &text, chromedp.ByQuery)); err != nil {
		return "", fmt.Errorf("could not read text for selector '%s': %w", selector, err)
	}
	return text, nil
}

// Close terminates the browser tab. Safe to call more than once.
func (s *Session) Close() error {
	s.mu.Lock()
	if s.isClosed {
		s.mu.Unlock()
		return nil
	}
	s.isClosed = true
	s.mu.Unlock()

	s.logger.Debug("Closing browser session.")

	if s.cancel != nil {
		s.cancel()
	}
	if s.onClose != nil {
		s.onClose()
	}
	return nil
}

// runStep executes element-interaction actions under the configured step timeout.
func (s *Session) runStep(ctx context.Context, actions ...chromedp.Action) error {
	stepTimeout := s.cfg.Portal.StepTimeout
	if stepTimeout <= 0 {
		stepTimeout = 30 * time.Second
	}
	stepCtx, cancel := context.WithTimeout(ctx, stepTimeout)
	defer cancel()
	return s.runActions(stepCtx, actions...)
}

// runActions executes chromedp actions respecting both the session lifetime
// and the incoming request context.
func (s *Session) runActions(ctx context.Context, actions ...chromedp.Action) error {
	runCtx, cancel := combineContext(s.ctx, ctx)
	defer cancel()
	return chromedp.Run(runCtx, actions...)
}
