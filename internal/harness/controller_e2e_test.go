//go:build xssbench_e2e

// End-to-end Page Controller tests require an installed Chromium binary
// and are excluded from the default `go test ./...` run. Run with
// `go test -tags xssbench_e2e ./internal/harness/...`.
package harness

import (
	"context"
	"testing"
	"time"

	"github.com/EmilStenstrom/justhtml-xss-bench/internal/adapter"
	"github.com/EmilStenstrom/justhtml-xss-bench/internal/classify"
	"github.com/EmilStenstrom/justhtml-xss-bench/internal/probe"
	"github.com/EmilStenstrom/justhtml-xss-bench/internal/vector"
)

func newTestController(t *testing.T) (*PageController, func()) {
	t.Helper()
	pool := NewEnginePool()
	ctx := context.Background()
	if err := pool.Start(ctx, EngineConfig{Engine: "chromium", Headless: true}); err != nil {
		t.Skipf("chromium not available: %v", err)
	}
	browserCtx, err := pool.NewWorkerContext("chromium")
	if err != nil {
		t.Fatalf("NewWorkerContext: %v", err)
	}
	page, err := NewPage(browserCtx, probe.Prelude())
	if err != nil {
		t.Fatalf("NewPage: %v", err)
	}
	return NewPageController(page), func() { _ = pool.Shutdown() }
}

func TestScriptTagFiresXSS(t *testing.T) {
	c, cleanup := newTestController(t)
	defer cleanup()

	out, err := c.Run(context.Background(), CaseRun{
		Context:       vector.ContextHTML,
		SanitizedHTML: `<script>alert(1)</script>`,
		AdapterStatus: adapter.StatusOK,
		ExpectedTags:  nil,
		Timeout:       100 * time.Millisecond,
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if out.Outcome != classify.OutcomeXSS {
		t.Fatalf("want xss, got %v (signals=%+v)", out.Outcome, out.Signals)
	}
}

func TestPlainParagraphPasses(t *testing.T) {
	c, cleanup := newTestController(t)
	defer cleanup()

	out, err := c.Run(context.Background(), CaseRun{
		Context:       vector.ContextHTML,
		SanitizedHTML: `<p>hi</p>`,
		AdapterStatus: adapter.StatusOK,
		ExpectedTags:  []vector.TagSpec{{Tag: "p"}},
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if out.Outcome != classify.OutcomePass || out.Lossy {
		t.Fatalf("want pass/non-lossy, got %v lossy=%v", out.Outcome, out.Lossy)
	}
}

func TestExternalImageIsExternalNotXSS(t *testing.T) {
	c, cleanup := newTestController(t)
	defer cleanup()

	out, err := c.Run(context.Background(), CaseRun{
		Context:       vector.ContextHTML,
		SanitizedHTML: `<img src="https://example.com/y.png">`,
		AdapterStatus: adapter.StatusOK,
		ExpectedTags:  []vector.TagSpec{{Tag: "img", Attrs: []string{"src"}}},
		Timeout:       100 * time.Millisecond,
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if out.Outcome != classify.OutcomeExternal {
		t.Fatalf("want external, got %v (signals=%+v)", out.Outcome, out.Signals)
	}
}

func TestHrefClickToExternalIsExternalNotPass(t *testing.T) {
	c, cleanup := newTestController(t)
	defer cleanup()

	out, err := c.Run(context.Background(), CaseRun{
		Context:       vector.ContextHref,
		SanitizedHTML: "https://example.com/",
		AdapterStatus: adapter.StatusOK,
		Timeout:       100 * time.Millisecond,
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if out.Outcome != classify.OutcomeExternal {
		t.Fatalf("want external (a real click aborted by the network guard), got %v (signals=%+v)", out.Outcome, out.Signals)
	}
	if !out.Signals.NavigationOccurred {
		t.Fatalf("want NavigationOccurred set once the click lands, signals=%+v", out.Signals)
	}
	if out.Signals.DangerousNavigation {
		t.Fatalf("a plain https href is guard-blocked traffic, not a dangerous navigation: %+v", out.Signals)
	}
}

func TestUnsupportedConfigIsSkip(t *testing.T) {
	c, cleanup := newTestController(t)
	defer cleanup()

	out, err := c.Run(context.Background(), CaseRun{
		Context:       vector.ContextHref,
		AdapterStatus: adapter.StatusUnsupportedConfig,
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if out.Outcome != classify.OutcomeSkip {
		t.Fatalf("want skip, got %v", out.Outcome)
	}
}

func TestPreludeCleanupPreventsSpuriousDialogAcrossCases(t *testing.T) {
	c, cleanup := newTestController(t)
	defer cleanup()

	first, err := c.Run(context.Background(), CaseRun{
		Context:       vector.ContextHTML,
		SanitizedHTML: `<script>setTimeout(function(){ alert(1); }, 10000000);</script>`,
		AdapterStatus: adapter.StatusOK,
		ExpectedTags:  []vector.TagSpec{{Tag: "script"}},
		Timeout:       50 * time.Millisecond,
	})
	if err != nil {
		t.Fatalf("Run first: %v", err)
	}
	if first.Outcome != classify.OutcomePass {
		t.Fatalf("first case: want pass, got %v", first.Outcome)
	}

	second, err := c.Run(context.Background(), CaseRun{
		Context:       vector.ContextHTML,
		SanitizedHTML: `<p>ok</p>`,
		AdapterStatus: adapter.StatusOK,
		ExpectedTags:  []vector.TagSpec{{Tag: "p"}},
		Timeout:       50 * time.Millisecond,
	})
	if err != nil {
		t.Fatalf("Run second: %v", err)
	}
	if second.Signals.DialogFired {
		t.Fatal("cleanup() should have purged the deferred timer; dialog must not fire on next case")
	}
}
