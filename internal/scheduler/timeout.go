package scheduler

import (
	"regexp"
	"strings"
	"time"
)

// asyncMarkers are substrings whose presence suggests a payload defers
// execution rather than running synchronously.
var asyncMarkers = []string{
	"settimeout", "setinterval", "requestanimationframe",
	"promise.resolve", "new promise", "async ", "await ",
}

var onLoadOrErrorAttr = regexp.MustCompile(`(?i)\bon(load|error)\s*=`)

// AutoTimeout implements the adaptive per-case timeout heuristic named
// but not numerically specified by the harness: most vectors execute
// synchronously and are detected immediately via the page hook, so the
// default is zero extra wait; only vectors whose payload text suggests
// deferred or delayed execution get a longer budget. Ported from the
// original harness's timeout heuristic (SPEC_FULL.md §9 decision 2).
func AutoTimeout(payloadHTML, sanitizedHTML string) time.Duration {
	blob := strings.ToLower(payloadHTML + "\n" + sanitizedHTML)

	for _, marker := range asyncMarkers {
		if strings.Contains(blob, marker) {
			return 250 * time.Millisecond
		}
	}

	if strings.Contains(blob, "http-equiv") && strings.Contains(blob, "refresh") {
		return 400 * time.Millisecond
	}

	if onLoadOrErrorAttr.MatchString(blob) {
		return 25 * time.Millisecond
	}

	return 0
}

// TimeoutForCase resolves the effective per-case timeout: an explicit
// override (--timeout-ms) takes precedence over the adaptive heuristic.
func TimeoutForCase(payloadHTML, sanitizedHTML string, override time.Duration) time.Duration {
	if override > 0 {
		return override
	}
	return AutoTimeout(payloadHTML, sanitizedHTML)
}
