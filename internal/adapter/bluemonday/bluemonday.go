// Package bluemonday wires github.com/microcosm-cc/bluemonday in as a
// concrete, real sanitizer under test, grounded on the Sanitizer
// dataclass pattern (name, description, sanitize fn, supported_contexts)
// the original harness's bundled sanitizers follow. bluemonday only
// operates on HTML fragments, so it declares support for the three
// fragment contexts and returns StatusUnsupportedConfig everywhere else —
// it has no meaningful way to sanitize a raw JS string or an href value.
package bluemonday

import (
	"context"
	"fmt"

	"github.com/microcosm-cc/bluemonday"

	"github.com/EmilStenstrom/justhtml-xss-bench/internal/adapter"
)

const fragmentHTML = "html"
const fragmentHTMLHead = "html_head"
const fragmentHTMLOuter = "html_outer"

// supportedContexts are the payload_context values bluemonday can sanitize.
// Kept as plain strings rather than importing internal/vector so this
// adapter stays decoupled from the vector package's context type.
var supportedContexts = map[string]bool{
	fragmentHTML:      true,
	fragmentHTMLHead:  true,
	fragmentHTMLOuter: true,
}

// Adapter wraps a bluemonday.Policy built from adapter.Policy.
type Adapter struct {
	policy *bluemonday.Policy
}

// New builds a bluemonday-backed adapter configured from p.
func New(p adapter.Policy) *Adapter {
	bp := bluemonday.NewPolicy()

	bp.AllowElements(p.AllowedTags...)

	if global := p.AllowedAttributes["*"]; len(global) > 0 {
		bp.AllowAttrs(global...).Globally()
	}
	for tag, attrs := range p.AllowedAttributes {
		if tag == "*" || len(attrs) == 0 {
			continue
		}
		bp.AllowAttrs(attrs...).OnElements(tag)
	}

	if len(p.AllowedURLSchemes) > 0 {
		bp.AllowURLSchemes(p.AllowedURLSchemes...)
		bp.RequireParseableURLs(true)
	}

	return &Adapter{policy: bp}
}

func (a *Adapter) ID() string { return "bluemonday" }

// Sanitize applies the policy the adapter was built with in New; the
// policy argument is ignored.
func (a *Adapter) Sanitize(_ context.Context, html string, payloadContext string, _ adapter.Policy) adapter.Result {
	if !supportedContexts[payloadContext] {
		return adapter.Result{Status: adapter.StatusUnsupportedConfig}
	}

	out, err := sanitize(a.policy, html)
	if err != nil {
		return adapter.Result{Status: adapter.StatusAdapterError, Err: err}
	}
	return adapter.Result{HTML: out, Status: adapter.StatusOK}
}

// sanitize isolates the bluemonday call so a panic inside the third-party
// library (seen historically with malformed fragments) surfaces as a
// StatusAdapterError rather than crashing the scheduler worker.
func sanitize(p *bluemonday.Policy, html string) (out string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("bluemonday panicked: %v", r)
		}
	}()
	out = p.Sanitize(html)
	return out, nil
}
