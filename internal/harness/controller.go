package harness

import (
	"context"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"

	"github.com/EmilStenstrom/justhtml-xss-bench/internal/adapter"
	"github.com/EmilStenstrom/justhtml-xss-bench/internal/classify"
	"github.com/EmilStenstrom/justhtml-xss-bench/internal/fidelity"
	"github.com/EmilStenstrom/justhtml-xss-bench/internal/probe"
	"github.com/EmilStenstrom/justhtml-xss-bench/internal/vector"
)

// navigationTimeout bounds how long the controller waits for the
// composed document to reach load, independent of the case's adaptive
// signal-collection budget.
const navigationTimeout = 5 * time.Second

// CaseRun is everything the Page Controller needs to execute one case.
type CaseRun struct {
	Context         vector.PayloadContext
	SanitizedHTML   string
	AdapterStatus   adapter.Status
	AdapterErr      error
	ExpectedTags    []vector.TagSpec
	Timeout         time.Duration
	ExpectedHrefURL string
}

// CaseOutcome is the Page Controller's return value: the classifier's
// verdict, the fidelity verdict, and the raw signals for diagnostics.
type CaseOutcome struct {
	Outcome classify.Outcome
	Lossy   bool
	Details string
	Signals classify.Signals
}

// PageController owns one page inside one worker's browser context and
// runs the per-case lifecycle described in SPEC_FULL.md §4.4: reset,
// compose, guard, navigate, probe, collect, fidelity-check, classify.
// Pages are reused across cases; each case's navigation discards prior
// DOM/JS state, so the controller does not recreate the page itself.
type PageController struct {
	page *rod.Page
}

// NewPageController wraps an already-created page (see NewPage).
func NewPageController(page *rod.Page) *PageController {
	return &PageController{page: page}
}

// Run executes one case end to end and returns its outcome.
func (c *PageController) Run(ctx context.Context, run CaseRun) (CaseOutcome, error) {
	if run.AdapterStatus != adapter.StatusOK {
		signals := classify.Signals{AdapterStatus: run.AdapterStatus}
		return CaseOutcome{Outcome: classify.Classify(signals), Signals: signals}, nil
	}

	if err := c.reset(ctx); err != nil {
		return CaseOutcome{}, fmt.Errorf("reset page: %w", err)
	}

	doc, err := Compose(run.Context, run.SanitizedHTML)
	if err != nil {
		return CaseOutcome{}, err
	}
	doc = speedUpMetaRefresh(doc, 0)

	guard := NewNetworkGuard(c.page)
	guard.Attach()
	defer guard.Detach()

	navCtx, cancel := context.WithTimeout(ctx, navigationTimeout)
	defer cancel()

	navURL := "data:text/html;base64," + base64.StdEncoding.EncodeToString([]byte(doc))
	page := c.page.Context(navCtx)
	_ = page.Navigate(navURL)
	_ = page.WaitLoad()

	hits := c.runDangerousURLProbe(page)

	// A real, trusted click on the href-context anchor must land before P2
	// installs its capturing preventDefault on click/submit, or the click's
	// navigation would be suppressed before it ever reaches the network.
	var navOccurred, navDangerous bool
	if run.Context == vector.ContextHref {
		navOccurred, navDangerous = c.clickHrefLink(page, run.ExpectedHrefURL)
	}

	c.runProbe(page, probe.KindEventSynth)
	c.runProbe(page, probe.KindFormPingActivate)
	hits = append(hits, c.runDangerousURLProbe(page)...)

	// Give deferred/async signals (timers, meta-refresh) the case's
	// adaptive budget to surface before reading final state.
	if run.Timeout > 0 {
		select {
		case <-ctx.Done():
		case <-time.After(run.Timeout):
		}
	}

	dialogFired, details := c.readMarker(page)
	blocked := guard.Blocked()

	signals := classify.Signals{
		AdapterStatus:            run.AdapterStatus,
		DialogFired:              dialogFired,
		DialogDetails:            details,
		ExternalScriptAttempted:  guard.ScriptAttempted(),
		NonScriptExternalAttempt: guard.NonScriptAttempted(),
		DangerousURLHits:         hits,
		DangerousNavigation:      navDangerous,
		NavigationOccurred:       navOccurred,
	}
	for _, b := range blocked {
		if b.InitiatorIsScript {
			if signals.ExternalScriptURL == "" {
				signals.ExternalScriptURL = b.URL
			}
		} else if signals.NonScriptURL == "" {
			signals.NonScriptURL = b.URL
		}
	}

	outcome := classify.Classify(signals)

	var lossy bool
	var fidelityDetails string
	if run.Context.ComputesLossy() {
		fragment := c.readInjectionSite(page)
		res, err := fidelity.Check(fragment, run.ExpectedTags)
		if err == nil {
			lossy = res.Lossy
			fidelityDetails = res.Details
		}
	}

	return CaseOutcome{
		Outcome: outcome,
		Lossy:   lossy,
		Details: fidelityDetails,
		Signals: signals,
	}, nil
}

// reset purges pending timers left by the previous case via the prelude's
// cleanup() hook, if it has been installed yet.
func (c *PageController) reset(ctx context.Context) error {
	_, err := c.page.Context(ctx).Eval(`() => { if (window.__xssbench) window.__xssbench.cleanup(); }`)
	if err != nil {
		// No prelude installed yet (first case on a fresh page) is fine.
		return nil
	}
	return nil
}

func (c *PageController) runDangerousURLProbe(page *rod.Page) []classify.DangerousURLHit {
	src, err := probe.Script(probe.KindDangerousURL)
	if err != nil {
		return nil
	}
	res, err := page.Eval(src)
	if err != nil || res == nil {
		return nil
	}

	var raw []struct {
		Tag   string `json:"tag"`
		Attr  string `json:"attr"`
		Value string `json:"value"`
	}
	if err := res.Value.Unmarshal(&raw); err != nil {
		return nil
	}
	hits := make([]classify.DangerousURLHit, 0, len(raw))
	for _, h := range raw {
		hits = append(hits, classify.DangerousURLHit{Tag: h.Tag, Attr: h.Attr, Value: h.Value})
	}
	return hits
}

func (c *PageController) runProbe(page *rod.Page, kind probe.Kind) {
	src, err := probe.Script(kind)
	if err != nil {
		return
	}
	_, _ = page.Eval(src)
}

func (c *PageController) readMarker(page *rod.Page) (executed bool, details string) {
	res, err := page.Eval(`() => window.__xssbench ? {executed: window.__xssbench.executed, details: window.__xssbench.details} : {executed: false, details: null}`)
	if err != nil || res == nil {
		return false, ""
	}
	var m struct {
		Executed bool   `json:"executed"`
		Details  string `json:"details"`
	}
	if err := res.Value.Unmarshal(&m); err != nil {
		return false, ""
	}
	return m.Executed, m.Details
}

func (c *PageController) readInjectionSite(page *rod.Page) string {
	res, err := page.Eval(`() => { const r = document.getElementById('root'); return r ? r.innerHTML : document.body.innerHTML; }`)
	if err != nil || res == nil {
		return ""
	}
	return res.Value.Str()
}

// CurrentURL returns the page's current top-level document URL, used by
// clickHrefLink to detect a post-click navigation.
func CurrentURL(page *rod.Page) (string, error) {
	info, err := proto.TargetGetTargetInfo{TargetID: page.TargetID}.Call(page)
	if err != nil {
		return "", err
	}
	return info.TargetInfo.URL, nil
}

// clickHrefLink performs a real, trusted click on the href-context anchor
// and reports whether the top-level document navigated, and if so whether
// that navigation lands on filterNavigationURLsForExecution's suspicious
// list rather than being the page's own same-document anchor or an
// ignorable chrome/about URL.
func (c *PageController) clickHrefLink(page *rod.Page, expectedHrefClickURL string) (navigated bool, dangerous bool) {
	before, err := CurrentURL(page)
	if err != nil {
		return false, false
	}

	expected := expectedHrefClickURL
	if expected == "" {
		expected = c.readLinkHref(page)
	}

	el, err := page.Element("#xssbench-link")
	if err != nil {
		return false, false
	}
	if err := el.Click(proto.InputMouseButtonLeft, 1); err != nil {
		return false, false
	}

	after, err := CurrentURL(page)
	if err != nil || after == before {
		return false, false
	}

	suspicious := filterNavigationURLsForExecution([]string{after}, origin, string(vector.ContextHref), expected)
	return true, len(suspicious) > 0
}

// readLinkHref resolves the href-context anchor's live href property,
// used as the click's expected-destination baseline when the case didn't
// supply one explicitly.
func (c *PageController) readLinkHref(page *rod.Page) string {
	res, err := page.Eval(`() => { const a = document.getElementById('xssbench-link'); return a ? a.href : ''; }`)
	if err != nil || res == nil {
		return ""
	}
	return res.Value.Str()
}

// ForceBlank reclaims the page by navigating it to about:blank. The
// scheduler calls this after a case blows its hard wall-clock deadline, so
// the next case on this worker doesn't inherit a page stuck mid-navigation
// or mid-script.
func (c *PageController) ForceBlank(ctx context.Context) error {
	return c.page.Context(ctx).Navigate("about:blank")
}
