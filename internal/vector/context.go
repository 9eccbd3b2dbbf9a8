// Package vector defines the typed vector model: payload contexts, tag
// specs, and the loader for the xssbench.vectorfile.v1 JSON schema.
package vector

// PayloadContext is the syntactic slot a payload is injected into.
type PayloadContext string

const (
	ContextHTML           PayloadContext = "html"
	ContextHTMLHead       PayloadContext = "html_head"
	ContextHTMLOuter      PayloadContext = "html_outer"
	ContextHref           PayloadContext = "href"
	ContextOnerrorAttr    PayloadContext = "onerror_attr"
	ContextJS             PayloadContext = "js"
	ContextJSArg          PayloadContext = "js_arg"
	ContextJSString       PayloadContext = "js_string"
	ContextJSStringDouble PayloadContext = "js_string_double"
	ContextHTTPLeak       PayloadContext = "http_leak"
)

// allContexts is the full set of contexts accepted in a vector file.
var allContexts = map[PayloadContext]bool{
	ContextHTML:           true,
	ContextHTMLHead:       true,
	ContextHTMLOuter:      true,
	ContextHref:           true,
	ContextOnerrorAttr:    true,
	ContextJS:             true,
	ContextJSArg:          true,
	ContextJSString:       true,
	ContextJSStringDouble: true,
	ContextHTTPLeak:       true,
}

// Valid reports whether c is a recognized payload context.
func (c PayloadContext) Valid() bool {
	return allContexts[c]
}

// fragmentContexts are the contexts that inject into an HTML fragment and
// are checked by the fidelity checker; expected_tags is required for these.
var fragmentContexts = map[PayloadContext]bool{
	ContextHTML:        true,
	ContextHTMLHead:    true,
	ContextHTMLOuter:   true,
	ContextOnerrorAttr: true,
}

// RequiresExpectedTags reports whether c is a fragment context where
// expected_tags must be present on the vector.
func (c PayloadContext) RequiresExpectedTags() bool {
	return fragmentContexts[c]
}

// ForbidsExpectedTags reports whether c is a non-fragment context where
// expected_tags must be absent.
func (c PayloadContext) ForbidsExpectedTags() bool {
	return c.Valid() && !fragmentContexts[c]
}

// IsHTTPLeak reports whether c is the http_leak context, the only context
// for which sanitizer_allow_tags is meaningful.
func (c PayloadContext) IsHTTPLeak() bool {
	return c == ContextHTTPLeak
}

// ComputesLossy reports whether the fidelity checker runs for c. Per
// invariant 3, js/js_arg/js_string/js_string_double/href never compute
// lossy.
func (c PayloadContext) ComputesLossy() bool {
	return fragmentContexts[c]
}
