// Package harness implements the Page Controller (C6) and Network Guard
// (C7): the per-case page lifecycle and the request-interception policy
// that backs it. The browser lifecycle management here -- launching or
// attaching to a browser, tracking one incognito context per worker, and
// creating pages inside it -- is adapted from the launcher/connect/
// incognito/page pattern in internal/browser/session_manager.go, stripped
// of everything downstream of page creation (DOM/React fact ingestion,
// CDP event streaming) since a benchmark case only needs a page it can
// compose, navigate, and reset.
package harness

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/launcher/flags"
	"github.com/go-rod/rod/lib/proto"
)

// EngineConfig configures one browser engine's launch/connect behavior.
type EngineConfig struct {
	// Engine names the browser engine, e.g. "chromium".
	Engine string
	// Bin is the path to a browser binary to launch. Empty means let the
	// launcher resolve a default.
	Bin string
	// DebuggerURL, if set, connects to an already-running browser instead
	// of launching one.
	DebuggerURL string
	// LaunchFlags are extra `--flag` or `--flag=value` launcher flags.
	LaunchFlags []string
	Headless    bool
}

// EnginePool owns one long-lived *rod.Browser per configured engine and
// hands out fresh incognito pages to workers. One EnginePool is shared
// across the run; each worker starts with one context and page per engine
// and replaces the page on periodic refresh or after an error, and the
// context after a browser-context crash (see internal/scheduler).
type EnginePool struct {
	mu       sync.Mutex
	browsers map[string]*rod.Browser
}

// NewEnginePool constructs an empty pool. Call Start once per engine
// before acquiring pages from it.
func NewEnginePool() *EnginePool {
	return &EnginePool{browsers: make(map[string]*rod.Browser)}
}

// Start launches (or connects to) the browser for cfg.Engine and keeps it
// for the run's duration. Calling Start twice for the same engine is a
// no-op if the existing browser is still healthy.
func (p *EnginePool) Start(ctx context.Context, cfg EngineConfig) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if b, ok := p.browsers[cfg.Engine]; ok {
		if _, err := b.Version(); err == nil {
			return nil
		}
		_ = b.Close()
		delete(p.browsers, cfg.Engine)
	}

	controlURL := cfg.DebuggerURL
	if controlURL == "" {
		l := launcher.New().Headless(cfg.Headless)
		if cfg.Bin != "" {
			l = l.Bin(cfg.Bin)
		}
		for _, raw := range cfg.LaunchFlags {
			name, val, hasVal := strings.Cut(strings.TrimLeft(raw, "-"), "=")
			if hasVal {
				l = l.Set(flags.Flag(name), val)
			} else {
				l = l.Set(flags.Flag(name))
			}
		}
		url, err := l.Launch()
		if err != nil {
			return fmt.Errorf("launch %s: %w", cfg.Engine, err)
		}
		controlURL = url
	}

	browser := rod.New().ControlURL(controlURL).Context(ctx)
	if err := browser.Connect(); err != nil {
		return fmt.Errorf("connect to %s: %w", cfg.Engine, err)
	}

	p.browsers[cfg.Engine] = browser
	return nil
}

// Shutdown closes every tracked browser.
func (p *EnginePool) Shutdown() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	var firstErr error
	for engine, b := range p.browsers {
		if err := b.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("close %s: %w", engine, err)
		}
		delete(p.browsers, engine)
	}
	return firstErr
}

// Version returns the engine's reported browser version string, used for
// the run artifact's engine_version field.
func (p *EnginePool) Version(engine string) (string, error) {
	p.mu.Lock()
	b, ok := p.browsers[engine]
	p.mu.Unlock()
	if !ok {
		return "", fmt.Errorf("engine %q not started", engine)
	}
	v, err := b.Version()
	if err != nil {
		return "", err
	}
	return v.Product, nil
}

// NewWorkerContext creates a fresh incognito browser context for engine,
// isolated from every other worker's context and every prior case's
// cookies/storage. Each worker holds one of these at a time and opens a
// replacement after a browser-context crash.
func (p *EnginePool) NewWorkerContext(engine string) (*rod.Browser, error) {
	p.mu.Lock()
	b, ok := p.browsers[engine]
	p.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("engine %q not started", engine)
	}
	incognito, err := b.Incognito()
	if err != nil {
		return nil, fmt.Errorf("incognito context: %w", err)
	}
	return incognito, nil
}

// NewPage opens a fresh about:blank page in ctx and installs the C1
// prelude as an init script on that page (EvalOnNewDocument), which the
// browser runs in every frame of the page -- including iframe[srcdoc]
// subdocuments -- before any payload runs. The script is registered per
// page, not once for the whole browser context.
func NewPage(browserCtx *rod.Browser, preludeJS string) (*rod.Page, error) {
	if browserCtx == nil {
		return nil, errors.New("harness: nil browser context")
	}
	page, err := browserCtx.Page(proto.TargetCreateTarget{URL: "about:blank"})
	if err != nil {
		return nil, fmt.Errorf("create page: %w", err)
	}
	if _, err := page.EvalOnNewDocument(preludeJS); err != nil {
		return nil, fmt.Errorf("install prelude: %w", err)
	}
	return page, nil
}
