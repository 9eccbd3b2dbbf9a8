package adapter

// DefaultAllowedTags is the baseline tag allowlist shared by the
// fragment-context sanitizers under test, ported from the allowlist the
// original harness's bundled sanitizers use.
var DefaultAllowedTags = []string{
	"a", "abbr", "b", "blockquote", "br", "code", "div", "em", "h1", "h2",
	"h3", "h4", "h5", "h6", "hr", "i", "img", "li", "ol", "p", "pre",
	"span", "strong", "sub", "sup", "table", "tbody", "td", "th", "thead",
	"tr", "u", "ul",
}

// globalAttrs are permitted on every allowed tag.
var globalAttrs = []string{"class", "id", "title", "lang"}

// aAttrs are permitted additionally on <a>.
var aAttrs = []string{"href", "rel", "target"}

// imgAttrs are permitted additionally on <img>.
var imgAttrs = []string{"src", "alt", "width", "height"}

// tableCellAttrs are permitted additionally on <td>/<th>.
var tableCellAttrs = []string{"colspan", "rowspan"}

// defaultURLProtocols is the allowlisted set of URL schemes for href/src.
var defaultURLProtocols = []string{"http", "https", "mailto"}

// DefaultPolicy builds the shared allowlist policy every fragment
// sanitizer in this repo is configured with.
func DefaultPolicy() Policy {
	attrs := map[string][]string{
		"*":   globalAttrs,
		"a":   aAttrs,
		"img": imgAttrs,
		"td":  tableCellAttrs,
		"th":  tableCellAttrs,
	}
	return Policy{
		AllowedTags:       append([]string(nil), DefaultAllowedTags...),
		AllowedAttributes: attrs,
		AllowedURLSchemes: append([]string(nil), defaultURLProtocols...),
	}
}

// AllowedAttributesForTag returns the attributes permitted on tag under p,
// combining the tag-specific set with the global set.
func AllowedAttributesForTag(p Policy, tag string) []string {
	out := append([]string(nil), p.AllowedAttributes["*"]...)
	if specific, ok := p.AllowedAttributes[tag]; ok {
		out = append(out, specific...)
	}
	return out
}
