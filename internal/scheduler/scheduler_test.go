package scheduler

import (
	"context"
	"testing"

	"go.uber.org/goleak"

	"github.com/EmilStenstrom/justhtml-xss-bench/internal/adapter"
	"github.com/EmilStenstrom/justhtml-xss-bench/internal/harness"
	"github.com/EmilStenstrom/justhtml-xss-bench/internal/vector"
)

func TestRunWithNoCasesIsNoop(t *testing.T) {
	defer goleak.VerifyNone(t)
	s := New(Config{Workers: 2, Engines: []string{"chromium"}}, Adapters{}, harness.NewEnginePool())
	if err := s.Run(context.Background(), nil); err != nil {
		t.Fatalf("Run with no cases: %v", err)
	}
	if len(s.Results()) != 0 {
		t.Fatalf("want no results, got %d", len(s.Results()))
	}
}

func TestRunWithoutEnginesErrors(t *testing.T) {
	s := New(Config{Workers: 1}, Adapters{}, harness.NewEnginePool())
	v := &vector.Vector{ID: "v1", PayloadHTML: "<p>hi</p>", Contexts: []vector.PayloadContext{vector.ContextHTML}}
	err := s.Run(context.Background(), []vector.CaseInput{{Vector: v, Context: vector.ContextHTML, SanitizerID: "noop"}})
	if err == nil {
		t.Fatal("want error when no engines configured")
	}
}

func TestRunCaseUnknownSanitizerRecordsError(t *testing.T) {
	s := New(Config{}, Adapters{"noop": adapter.NewNoop()}, harness.NewEnginePool())
	v := &vector.Vector{ID: "v1", PayloadHTML: "<p>hi</p>"}
	result, crashed := s.runCase(context.Background(), nil, "chromium", vector.CaseInput{
		Vector: v, Context: vector.ContextHTML, SanitizerID: "does-not-exist",
	})
	if crashed {
		t.Fatal("unknown sanitizer id should not be treated as a browser context crash")
	}
	if result.Err == nil {
		t.Fatal("want error for unknown sanitizer id")
	}
	if result.Outcome != "error" {
		t.Fatalf("want outcome error, got %v", result.Outcome)
	}
}

func TestRecordAggregatesTallies(t *testing.T) {
	s := New(Config{}, Adapters{}, harness.NewEnginePool())
	s.record(CaseResult{Input: vector.CaseInput{SanitizerID: "noop"}, Engine: "chromium", Outcome: "pass"})
	s.record(CaseResult{Input: vector.CaseInput{SanitizerID: "noop"}, Engine: "chromium", Outcome: "xss"})
	s.record(CaseResult{Input: vector.CaseInput{SanitizerID: "noop"}, Engine: "chromium", Outcome: "pass", Lossy: true})

	tallies := s.Tallies()
	got, ok := tallies["noop|chromium"]
	if !ok {
		t.Fatal("expected tally for noop|chromium")
	}
	if got.Pass != 2 || got.XSS != 1 || got.Lossy != 1 {
		t.Fatalf("unexpected tally: %+v", got)
	}
}
