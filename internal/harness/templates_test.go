package harness

import (
	"strings"
	"testing"

	"github.com/EmilStenstrom/justhtml-xss-bench/internal/vector"
)

func TestComposeSubstitutesPayload(t *testing.T) {
	out, err := Compose(vector.ContextHTML, `<b>hi</b>`)
	if err != nil {
		t.Fatalf("Compose: %v", err)
	}
	if !strings.Contains(out, `<div id="root"><b>hi</b></div>`) {
		t.Fatalf("payload not substituted into root div: %q", out)
	}
	if strings.Contains(out, payloadPlaceholder) {
		t.Fatalf("placeholder leaked into output: %q", out)
	}
}

func TestComposeHTTPLeakPlacesPayloadInHeadAndBody(t *testing.T) {
	out, err := Compose(vector.ContextHTTPLeak, `<img src="https://evil/x.png">`)
	if err != nil {
		t.Fatalf("Compose: %v", err)
	}
	if strings.Count(out, `<img src="https://evil/x.png">`) != 2 {
		t.Fatalf("expected payload rendered in both head and body, got %q", out)
	}
}

func TestComposeAllContextsResolve(t *testing.T) {
	for ctx := range templates {
		if _, err := Compose(ctx, "x"); err != nil {
			t.Errorf("Compose(%v): %v", ctx, err)
		}
	}
}

func TestComposeUnknownContextErrors(t *testing.T) {
	if _, err := Compose(vector.PayloadContext("bogus"), "x"); err == nil {
		t.Fatal("expected error for unknown context")
	}
}
