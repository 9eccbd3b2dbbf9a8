// Package probe embeds the in-page instrumentation scripts (C1 prelude,
// C2 probes) and exposes their source text for the Page Controller to
// install as a page init script (prelude) or run post-load via
// page evaluation (probes). Grounded on SPEC_FULL.md §4.1/§4.2, written
// from first principles since original_source/ was filtered to code and
// build files only and carries no JS assets.
package probe

import (
	"embed"
	"fmt"
)

//go:embed assets/*.js
var assets embed.FS

// Kind identifies one of the three post-load probes.
type Kind string

const (
	KindDangerousURL     Kind = "p1_dangerous_url"
	KindEventSynth       Kind = "p2_event_synth"
	KindFormPingActivate Kind = "p3_form_ping"
)

var assetFiles = map[Kind]string{
	KindDangerousURL:     "assets/p1_dangerous_url.js",
	KindEventSynth:       "assets/p2_event_synth.js",
	KindFormPingActivate: "assets/p3_form_ping.js",
}

// Prelude returns the source of the C1 instrumentation script, installed
// once per page as an init script so every frame of the page -- including
// iframe[srcdoc] subdocuments -- runs it before any payload script.
func Prelude() string {
	return mustRead("assets/prelude.js")
}

// Script returns the source of the named post-load probe.
func Script(k Kind) (string, error) {
	path, ok := assetFiles[k]
	if !ok {
		return "", fmt.Errorf("probe: unknown kind %q", k)
	}
	return mustRead(path), nil
}

func mustRead(path string) string {
	data, err := assets.ReadFile(path)
	if err != nil {
		// Embedded at build time; a missing asset is a packaging bug, not
		// a runtime condition callers can recover from.
		panic(fmt.Sprintf("probe: embedded asset %q missing: %v", path, err))
	}
	return string(data)
}

// Order is the fixed run order P1 -> P2 -> P3 within one case, per the
// ordering guarantees in SPEC_FULL.md §5. P1 runs again after P2/P3 to
// catch DOM mutations from the event sweep.
var Order = []Kind{KindDangerousURL, KindEventSynth, KindFormPingActivate, KindDangerousURL}
