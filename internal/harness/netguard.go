package harness

import (
	"strings"
	"sync"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
)

// BlockedRequest is one aborted network attempt recorded by the guard.
type BlockedRequest struct {
	URL               string
	ResourceType      proto.NetworkResourceType
	InitiatorIsScript bool
}

// NetworkGuard intercepts every request a page issues via the CDP Fetch
// domain (rod's HijackRequests), permitting only the synthetic document
// itself and recording every other attempt before aborting it. One guard
// instance is scoped to a single case; it must be attached before the
// first navigation so early resources (e.g. <script src> in the initial
// HTML) are caught.
type NetworkGuard struct {
	mu      sync.Mutex
	router  *rod.HijackRouter
	blocked []BlockedRequest
	started bool
}

// NewNetworkGuard builds a guard bound to page. Call Attach before
// navigating, and Detach once the case's signal collection is complete.
func NewNetworkGuard(page *rod.Page) *NetworkGuard {
	return &NetworkGuard{router: page.HijackRequests()}
}

// Attach installs the interception handler and starts the router's event
// loop in the background. Only requests whose URL matches the harness
// origin's synthetic document are allowed through; everything else is
// aborted and recorded.
func (g *NetworkGuard) Attach() {
	g.router.MustAdd("*", func(ctx *rod.Hijack) {
		reqURL := ctx.Request.URL().String()

		if isSyntheticDocument(reqURL) {
			ctx.ContinueRequest(&proto.FetchContinueRequest{})
			return
		}

		resType := ctx.Request.Type()
		g.mu.Lock()
		g.blocked = append(g.blocked, BlockedRequest{
			URL:               reqURL,
			ResourceType:      resType,
			InitiatorIsScript: resType == proto.NetworkResourceTypeScript,
		})
		g.mu.Unlock()

		ctx.Response.Fail(proto.NetworkErrorReasonBlockedByClient)
	})

	g.started = true
	go g.router.Run()
}

// Detach stops the router's event loop. Safe to call even if Attach was
// never called.
func (g *NetworkGuard) Detach() {
	if !g.started {
		return
	}
	_ = g.router.Stop()
}

// Blocked returns a snapshot of every request recorded so far.
func (g *NetworkGuard) Blocked() []BlockedRequest {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]BlockedRequest, len(g.blocked))
	copy(out, g.blocked)
	return out
}

// ScriptAttempted reports whether any blocked request was a script fetch.
func (g *NetworkGuard) ScriptAttempted() bool {
	for _, b := range g.Blocked() {
		if b.InitiatorIsScript {
			return true
		}
	}
	return false
}

// NonScriptAttempted reports whether any blocked request was for a
// non-script resource type.
func (g *NetworkGuard) NonScriptAttempted() bool {
	for _, b := range g.Blocked() {
		if !b.InitiatorIsScript {
			return true
		}
	}
	return false
}

// isSyntheticDocument reports whether reqURL is the harness's own
// composed document rather than a resource the page is trying to fetch.
// data: URLs (used to load the composed document) and the harness origin
// itself are both treated as same-document.
func isSyntheticDocument(reqURL string) bool {
	return strings.HasPrefix(reqURL, "data:") || reqURL == origin
}
