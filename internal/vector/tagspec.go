package vector

import (
	"fmt"
	"strings"
)

// TagSpec is one entry of an expected_tags contract: a bare tag name, or a
// tag plus a list of attribute names the surviving element must carry.
//
// String forms: "p" (bare) or "a[href, style]" (tag + required attrs).
type TagSpec struct {
	Tag   string
	Attrs []string
}

// ParseTagSpec parses one expected_tags string entry.
func ParseTagSpec(s string) (TagSpec, error) {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return TagSpec{}, fmt.Errorf("empty tag spec")
	}

	open := strings.IndexByte(trimmed, '[')
	if open == -1 {
		return TagSpec{Tag: strings.ToLower(trimmed)}, nil
	}

	if !strings.HasSuffix(trimmed, "]") {
		return TagSpec{}, fmt.Errorf("tag spec %q: missing closing bracket", s)
	}

	tag := strings.ToLower(strings.TrimSpace(trimmed[:open]))
	if tag == "" {
		return TagSpec{}, fmt.Errorf("tag spec %q: missing tag name", s)
	}

	inner := trimmed[open+1 : len(trimmed)-1]
	if strings.TrimSpace(inner) == "" {
		return TagSpec{}, fmt.Errorf("tag spec %q: empty attribute list", s)
	}

	rawAttrs := strings.Split(inner, ",")
	attrs := make([]string, 0, len(rawAttrs))
	for _, a := range rawAttrs {
		a = strings.ToLower(strings.TrimSpace(a))
		if a == "" {
			return TagSpec{}, fmt.Errorf("tag spec %q: empty attribute name", s)
		}
		attrs = append(attrs, a)
	}

	return TagSpec{Tag: tag, Attrs: attrs}, nil
}

// String renders the canonical textual form of the spec.
func (t TagSpec) String() string {
	if len(t.Attrs) == 0 {
		return t.Tag
	}
	return fmt.Sprintf("%s[%s]", t.Tag, strings.Join(t.Attrs, ", "))
}
