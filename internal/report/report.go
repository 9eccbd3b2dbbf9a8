// Package report serializes one run's results into the run artifact
// format from the external interfaces section: engine, engine version,
// timestamps, per-(sanitizer) totals, and the full case list. Grounded on
// the teacher's convention of a single flat JSON artifact written via
// os.WriteFile / json.MarshalIndent rather than a streaming encoder,
// since one run's case list comfortably fits in memory.
package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/EmilStenstrom/justhtml-xss-bench/internal/scheduler"
)

// CaseRecord is one case's entry in the run artifact's cases array.
type CaseRecord struct {
	VectorID    string `json:"vector_id"`
	Context     string `json:"context"`
	SanitizerID string `json:"sanitizer_id"`
	Engine      string `json:"engine"`
	Outcome     string `json:"outcome"`
	Lossy       bool   `json:"lossy"`
	Details     string `json:"details,omitempty"`
	DurationMs  int64  `json:"duration_ms"`
	Error       string `json:"error,omitempty"`
}

// Totals is the per-sanitizer outcome tally over the case results it was
// built from: in an Artifact that is the one engine the artifact covers.
type Totals struct {
	Pass     int `json:"pass"`
	XSS      int `json:"xss"`
	External int `json:"external"`
	Skip     int `json:"skip"`
	Error    int `json:"error"`
	Lossy    int `json:"lossy"`
}

// Artifact is the top-level run artifact written to --json-out.
type Artifact struct {
	RunID             string            `json:"run_id"`
	Engine            string            `json:"engine"`
	EngineVersion     string            `json:"engine_version"`
	StartedAt         time.Time         `json:"started_at"`
	FinishedAt        time.Time         `json:"finished_at"`
	TotalsBySanitizer map[string]Totals `json:"totals_by_sanitizer"`
	Cases             []CaseRecord      `json:"cases"`
}

// Build assembles an Artifact from a scheduler's recorded results and
// tallies. engine/engineVersion identify the single engine this artifact
// covers; callers running a multi-engine matrix build one Artifact per
// engine.
func Build(engine, engineVersion string, startedAt, finishedAt time.Time, results []scheduler.CaseResult) Artifact {
	a := Artifact{
		RunID:             uuid.NewString(),
		Engine:            engine,
		EngineVersion:     engineVersion,
		StartedAt:         startedAt,
		FinishedAt:        finishedAt,
		TotalsBySanitizer: make(map[string]Totals),
		Cases:             make([]CaseRecord, 0, len(results)),
	}

	for _, r := range results {
		rec := CaseRecord{
			VectorID:    r.Input.Vector.ID,
			Context:     string(r.Input.Context),
			SanitizerID: r.Input.SanitizerID,
			Engine:      r.Engine,
			Outcome:     string(r.Outcome),
			Lossy:       r.Lossy,
			Details:     r.Details,
			DurationMs:  r.DurationMs,
		}
		if r.Err != nil {
			rec.Error = r.Err.Error()
		}
		a.Cases = append(a.Cases, rec)

		t := a.TotalsBySanitizer[r.Input.SanitizerID]
		switch r.Outcome {
		case "pass":
			t.Pass++
		case "xss":
			t.XSS++
		case "external":
			t.External++
		case "skip":
			t.Skip++
		case "error":
			t.Error++
		}
		if r.Lossy {
			t.Lossy++
		}
		a.TotalsBySanitizer[r.Input.SanitizerID] = t
	}

	return a
}

// Write renders the artifact as indented JSON to dest. If dest names an
// existing directory (or ends in a path separator), the artifact is
// written to "<engine>.json" inside it; otherwise dest is used verbatim
// as the output file path.
func Write(a Artifact, dest string) error {
	out := dest
	if info, err := os.Stat(dest); (err == nil && info.IsDir()) || strings.HasSuffix(dest, string(filepath.Separator)) || strings.HasSuffix(dest, "/") {
		out = filepath.Join(dest, a.Engine+".json")
	}

	data, err := json.MarshalIndent(a, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal run artifact: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	if err := os.WriteFile(out, data, 0o644); err != nil {
		return fmt.Errorf("write run artifact %s: %w", out, err)
	}
	return nil
}
