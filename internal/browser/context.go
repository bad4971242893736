// File: internal/browser/context.go
package browser

import "context"

// combineContext derives a context from primary that is additionally canceled
// when secondary is done. The primary carries the chromedp target values; the
// secondary is the caller's request context.
func combineContext(primary, secondary context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(primary)
	stop := context.AfterFunc(secondary, cancel)
	return ctx, func() {
		stop()
		cancel()
	}
}
