// Package classify implements the Execution Classifier (C8): a pure
// function that fuses one case's collected Signals into a single ranked
// Outcome, grounded on the precedence chain in the harness's run_vector
// (original_source/src/xssbench/harness.py) — adapter failure first,
// then script-execution evidence, then leaked-but-benign traffic, then
// pass — generalized here into an explicit, independently testable type.
package classify

import "github.com/EmilStenstrom/justhtml-xss-bench/internal/adapter"

// Outcome is a case's terminal classification, ranked error > xss >
// external > skip > pass. Lossy is tracked separately — it is orthogonal
// and may co-occur with any Outcome.
type Outcome string

const (
	OutcomeError    Outcome = "error"
	OutcomeXSS      Outcome = "xss"
	OutcomeExternal Outcome = "external"
	OutcomeSkip     Outcome = "skip"
	OutcomePass     Outcome = "pass"
)

// rank gives each outcome's precedence; lower wins.
var rank = map[Outcome]int{
	OutcomeError:    0,
	OutcomeXSS:      1,
	OutcomeExternal: 2,
	OutcomeSkip:     3,
	OutcomePass:     4,
}

// Less reports whether a ranks strictly higher precedence than b.
func (a Outcome) Less(b Outcome) bool { return rank[a] < rank[b] }

// DangerousURLHit is one P1 detection: the element/attribute that carried
// a dangerous URL, plus the raw attribute value (as written, before
// normalization) that tripped it.
type DangerousURLHit struct {
	Tag   string
	Attr  string
	Value string
}

// Signals is the bag of observations the Page Controller collects during
// one case run, per the data model's Signals record.
type Signals struct {
	AdapterStatus adapter.Status

	DialogFired   bool
	DialogDetails string

	ExternalScriptAttempted bool
	ExternalScriptURL       string

	NonScriptExternalAttempt bool
	NonScriptURL             string

	DangerousURLHits []DangerousURLHit

	// DangerousNavigation is set when the top-level document actually
	// navigated to a URL whose scheme/payload is dangerous (e.g. a
	// clicked javascript: href), distinct from a static P1 DOM hit on an
	// attribute that was never activated.
	DangerousNavigation bool

	NavigationOccurred bool
}

// Classify fuses signals into a single outcome following the fixed
// precedence chain. It is pure: identical input always yields identical
// output.
func Classify(s Signals) Outcome {
	if s.AdapterStatus == adapter.StatusAdapterError {
		return OutcomeError
	}
	if s.AdapterStatus == adapter.StatusUnsupportedConfig {
		return OutcomeSkip
	}
	if s.DialogFired || len(s.DangerousURLHits) > 0 || s.ExternalScriptAttempted || s.DangerousNavigation {
		return OutcomeXSS
	}
	if s.NonScriptExternalAttempt {
		return OutcomeExternal
	}
	return OutcomePass
}
