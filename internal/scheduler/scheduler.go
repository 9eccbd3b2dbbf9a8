// Package scheduler implements the Scheduler (C9): a worker pool over the
// (vector, sanitizer, engine, context) case space that owns a browser
// context per worker, dispatches cases through the Page Controller, and
// aggregates outcomes into a run report. Grounded on the worker-pool
// pattern golang.org/x/sync/errgroup provides throughout the examples for
// bounded fan-out with first-error propagation, adapted here so a single
// case's harness-level failure does not abort the run (only scheduler
// setup failures do).
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/EmilStenstrom/justhtml-xss-bench/internal/adapter"
	"github.com/EmilStenstrom/justhtml-xss-bench/internal/classify"
	"github.com/EmilStenstrom/justhtml-xss-bench/internal/harness"
	"github.com/EmilStenstrom/justhtml-xss-bench/internal/probe"
	"github.com/EmilStenstrom/justhtml-xss-bench/internal/vector"
)

// refreshEveryNCases bounds how long a worker reuses one page before
// closing and reopening it, guaranteeing no hidden state carries over
// even if the reset/navigation isolation strategy has a gap.
const refreshEveryNCases = 200

// caseHardTimeout is the outer wall-clock bound on one case's entire
// lifecycle (sanitize, compose, navigate, probe, collect, classify),
// independent of the Page Controller's own adaptive signal-collection
// window. It exists to guarantee forward progress: a page wedged on a
// runaway script or a navigation that never settles must not stall its
// worker indefinitely.
const caseHardTimeout = 10 * time.Second

// queueItem wraps a case with the one bit of retry bookkeeping the crash
// policy needs: a BrowserContextCrash gets the case recycled onto a fresh
// context and re-enqueued exactly once before it is recorded as an error.
type queueItem struct {
	input   vector.CaseInput
	retried bool
}

// CaseResult is one case's terminal record, per the data model's
// CaseResult.
type CaseResult struct {
	Input      vector.CaseInput
	Engine     string
	Outcome    classify.Outcome
	Lossy      bool
	Details    string
	DurationMs int64
	Err        error
}

// Tally is the per-(sanitizer, engine) outcome count.
type Tally struct {
	Pass, XSS, External, Skip, Error, Lossy int
}

// Config configures one scheduler run.
type Config struct {
	Workers       int
	Engines       []string
	TimeoutMs     int // override; 0 means use the adaptive heuristic
	EngineConfigs map[string]harness.EngineConfig
}

// Adapters maps a sanitizer id to its Adapter implementation.
type Adapters map[string]adapter.Adapter

// Scheduler drains a case queue across a worker pool and aggregates
// results. One Scheduler instance corresponds to one run.
type Scheduler struct {
	cfg      Config
	adapters Adapters
	pool     *harness.EnginePool

	mu      sync.Mutex
	tallies map[string]*Tally // key: sanitizerID + "|" + engine
	results []CaseResult
}

// New constructs a Scheduler bound to pool, ready to run cases against
// the given adapters.
func New(cfg Config, adapters Adapters, pool *harness.EnginePool) *Scheduler {
	return &Scheduler{
		cfg:      cfg,
		adapters: adapters,
		pool:     pool,
		tallies:  make(map[string]*Tally),
	}
}

// Run dispatches every case in cases across a worker pool sized by
// cfg.Workers, one worker per (engine) lane, and blocks until the queue
// drains. It returns only on a scheduler-level setup failure (e.g. an
// engine failing to start); per-case failures are recorded as outcome
// error and never abort the run.
func (s *Scheduler) Run(ctx context.Context, cases []vector.CaseInput) error {
	if len(cases) == 0 {
		return nil
	}
	if len(s.cfg.Engines) == 0 {
		return fmt.Errorf("scheduler: no engines configured")
	}

	// Sized for one retry per case (the BrowserContextCrash policy below
	// re-enqueues a case exactly once), so a requeue send never blocks.
	queue := make(chan queueItem, len(cases)*2)
	for _, c := range cases {
		queue <- queueItem{input: c}
	}

	workers := s.cfg.Workers
	if workers < 1 {
		workers = 1
	}

	var pending sync.WaitGroup
	pending.Add(len(cases))
	workCtx, cancelWork := context.WithCancel(ctx)
	defer cancelWork()
	go func() {
		pending.Wait()
		cancelWork()
	}()

	g, gctx := errgroup.WithContext(workCtx)
	for _, engine := range s.cfg.Engines {
		engine := engine
		engCfg, ok := s.cfg.EngineConfigs[engine]
		if !ok {
			engCfg = harness.EngineConfig{Engine: engine, Headless: true}
		}
		if err := s.pool.Start(ctx, engCfg); err != nil {
			return fmt.Errorf("start engine %s: %w", engine, err)
		}

		for w := 0; w < workers; w++ {
			g.Go(func() error {
				return s.runWorker(gctx, engine, queue, &pending)
			})
		}
	}

	return g.Wait()
}

// runWorker owns one browser context and one reused page, pulling cases
// off queue until the pool's work is done or ctx is cancelled.
func (s *Scheduler) runWorker(ctx context.Context, engine string, queue chan queueItem, pending *sync.WaitGroup) error {
	browserCtx, err := s.pool.NewWorkerContext(engine)
	if err != nil {
		return fmt.Errorf("worker context for %s: %w", engine, err)
	}

	page, err := harness.NewPage(browserCtx, probe.Prelude())
	if err != nil {
		return fmt.Errorf("new page for %s: %w", engine, err)
	}
	controller := harness.NewPageController(page)

	casesSinceRefresh := 0
	for {
		select {
		case <-ctx.Done():
			return nil
		case item, ok := <-queue:
			if !ok {
				return nil
			}

			result, crashed := s.runCase(ctx, controller, engine, item.input)
			if crashed && !item.retried {
				// Recycle the browser context before the retry: whatever
				// wedged the old one shouldn't be handed the replay too.
				if newCtx, err := s.pool.NewWorkerContext(engine); err == nil {
					browserCtx = newCtx
					if newPage, err := harness.NewPage(browserCtx, probe.Prelude()); err == nil {
						_ = page.Close()
						page = newPage
						controller = harness.NewPageController(page)
					}
				}
				queue <- queueItem{input: item.input, retried: true}
				continue
			}
			if crashed && item.retried {
				result.Outcome = classify.OutcomeError
				if result.Err == nil {
					result.Err = fmt.Errorf("browser context crashed twice running case %s", item.input.Vector.ID)
				}
			}

			s.record(result)
			pending.Done()

			casesSinceRefresh++
			if casesSinceRefresh >= refreshEveryNCases || result.Outcome == classify.OutcomeError {
				casesSinceRefresh = 0
				newPage, err := harness.NewPage(browserCtx, probe.Prelude())
				if err == nil {
					_ = page.Close()
					page = newPage
					controller = harness.NewPageController(page)
				}
			}
		}
	}
}

// runCase runs one case under a hard wall-clock deadline and reports
// whether the failure looks like a browser context crash, as opposed to
// an ordinary adapter/classification error or a PageTimeout. The caller
// owns the crash-retry policy; runCase only classifies the failure.
func (s *Scheduler) runCase(ctx context.Context, controller *harness.PageController, engine string, input vector.CaseInput) (CaseResult, bool) {
	start := time.Now()

	a, ok := s.adapters[input.SanitizerID]
	if !ok {
		return CaseResult{
			Input: input, Engine: engine, Outcome: classify.OutcomeError,
			Err: fmt.Errorf("unknown sanitizer id %q", input.SanitizerID),
		}, false
	}

	caseCtx, cancel := context.WithTimeout(ctx, caseHardTimeout)
	defer cancel()

	sanResult := a.Sanitize(caseCtx, input.Vector.PayloadHTML, string(input.Context), adapter.DefaultPolicy())

	timeout := TimeoutForCase(input.Vector.PayloadHTML, sanResult.HTML, time.Duration(s.cfg.TimeoutMs)*time.Millisecond)

	out, err := controller.Run(caseCtx, harness.CaseRun{
		Context:       input.Context,
		SanitizedHTML: sanResult.HTML,
		AdapterStatus: sanResult.Status,
		AdapterErr:    sanResult.Err,
		ExpectedTags:  input.Vector.ExpectedTags,
		Timeout:       timeout,
	})

	elapsed := time.Since(start).Milliseconds()
	if err != nil {
		if caseCtx.Err() == context.DeadlineExceeded {
			// PageTimeout (§7): the hard bound tripped mid-lifecycle.
			// Reclaim the page for the next case rather than retrying;
			// the case's own budget is what's exhausted, not the browser.
			_ = controller.ForceBlank(context.Background())
			return CaseResult{
				Input: input, Engine: engine, Outcome: classify.OutcomeError,
				Err: fmt.Errorf("case exceeded %s hard timeout", caseHardTimeout), DurationMs: elapsed,
			}, false
		}
		// Anything else is treated as a browser context crash.
		return CaseResult{Input: input, Engine: engine, Err: err, DurationMs: elapsed}, true
	}

	return CaseResult{
		Input:      input,
		Engine:     engine,
		Outcome:    out.Outcome,
		Lossy:      out.Lossy,
		Details:    out.Details,
		DurationMs: elapsed,
	}, false
}

func (s *Scheduler) record(r CaseResult) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.results = append(s.results, r)

	key := r.Input.SanitizerID + "|" + r.Engine
	t, ok := s.tallies[key]
	if !ok {
		t = &Tally{}
		s.tallies[key] = t
	}
	switch r.Outcome {
	case classify.OutcomePass:
		t.Pass++
	case classify.OutcomeXSS:
		t.XSS++
	case classify.OutcomeExternal:
		t.External++
	case classify.OutcomeSkip:
		t.Skip++
	case classify.OutcomeError:
		t.Error++
	}
	if r.Lossy {
		t.Lossy++
	}
}

// Results returns every recorded case result. Safe to call after Run
// returns.
func (s *Scheduler) Results() []CaseResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]CaseResult, len(s.results))
	copy(out, s.results)
	return out
}

// Tallies returns the per-(sanitizer, engine) aggregate tallies, keyed as
// "sanitizerID|engine".
func (s *Scheduler) Tallies() map[string]Tally {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]Tally, len(s.tallies))
	for k, v := range s.tallies {
		out[k] = *v
	}
	return out
}
