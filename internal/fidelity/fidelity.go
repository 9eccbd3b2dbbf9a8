// Package fidelity implements the Fidelity Checker (C5): a pure function
// deciding whether sanitized output satisfies a vector's expected_tags
// structural contract. Grounded on the fragment-parsing pattern used
// throughout the examples for walking golang.org/x/net/html trees
// (see e.g. adammathes-deckle's sanitize.go), generalized here to a
// depth-first pre-order element walk plus ordered tag/attribute matching.
package fidelity

import (
	"fmt"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/EmilStenstrom/justhtml-xss-bench/internal/vector"
)

// Result is the fidelity checker's verdict for one case.
type Result struct {
	Lossy   bool
	Details string
}

// Check parses sanitizedHTML as an HTML5 fragment (injection-site parent
// context is a synthetic <div>, matching the harness's fragment contexts)
// and compares the ordered list of surviving elements against expected.
// The checker is pure: identical input always yields identical output.
func Check(sanitizedHTML string, expected []vector.TagSpec) (Result, error) {
	elements, err := collectElements(sanitizedHTML)
	if err != nil {
		return Result{}, fmt.Errorf("fidelity: parse sanitized fragment: %w", err)
	}

	if len(expected) == 0 {
		if len(elements) == 0 {
			return Result{Lossy: false}, nil
		}
		return Result{
			Lossy:   true,
			Details: fmt.Sprintf("expected no tags, found %d unexpected element(s): %s", len(elements), describeElements(elements)),
		}, nil
	}

	if len(elements) != len(expected) {
		return Result{
			Lossy:   true,
			Details: fmt.Sprintf("expected %d element(s) %s, found %d: %s", len(expected), describeSpecs(expected), len(elements), describeElements(elements)),
		}, nil
	}

	var mismatches []string
	for i, spec := range expected {
		el := elements[i]
		if !strings.EqualFold(el.tag, spec.Tag) {
			mismatches = append(mismatches, fmt.Sprintf("position %d: want tag %q, got %q", i, spec.Tag, el.tag))
			continue
		}
		for _, attr := range spec.Attrs {
			if !el.hasAttr(attr) {
				mismatches = append(mismatches, fmt.Sprintf("position %d: %s missing required attribute %q", i, spec.String(), attr))
			}
		}
	}

	if len(mismatches) > 0 {
		return Result{Lossy: true, Details: strings.Join(mismatches, "; ")}, nil
	}
	return Result{Lossy: false}, nil
}

type element struct {
	tag   string
	attrs map[string]bool
}

func (e element) hasAttr(name string) bool {
	return e.attrs[strings.ToLower(name)]
}

// collectElements parses html as a fragment rooted under a synthetic div
// (a neutral parent that imposes no tree-construction foster-parenting
// rules) and returns its elements in depth-first pre-order.
func collectElements(fragment string) ([]element, error) {
	context := &html.Node{Type: html.ElementNode, Data: "div", DataAtom: atom.Div}
	nodes, err := html.ParseFragment(strings.NewReader(fragment), context)
	if err != nil {
		return nil, err
	}

	var out []element
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			attrs := make(map[string]bool, len(n.Attr))
			for _, a := range n.Attr {
				attrs[strings.ToLower(a.Key)] = true
			}
			out = append(out, element{tag: strings.ToLower(n.Data), attrs: attrs})
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	for _, n := range nodes {
		walk(n)
	}
	return out, nil
}

func describeElements(els []element) string {
	parts := make([]string, len(els))
	for i, e := range els {
		parts[i] = e.tag
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

func describeSpecs(specs []vector.TagSpec) string {
	parts := make([]string, len(specs))
	for i, s := range specs {
		parts[i] = s.String()
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
