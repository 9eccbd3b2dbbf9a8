package vector

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func writeVectorFile(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "vectors.json")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write vector file: %v", err)
	}
	return path
}

func TestLoadFiles_BareListSchema(t *testing.T) {
	path := writeVectorFile(t, `[
		{"id": "v1", "description": "d", "payload_html": "<p>hi</p>", "expected_tags": ["p"]}
	]`)

	vs, err := LoadFiles([]string{path})
	if err != nil {
		t.Fatalf("LoadFiles: %v", err)
	}
	if len(vs) != 1 {
		t.Fatalf("want 1 vector, got %d", len(vs))
	}
	if vs[0].Contexts[0] != ContextHTML {
		t.Fatalf("default context should be html, got %v", vs[0].Contexts[0])
	}
	if len(vs[0].ExpectedTags) != 1 || vs[0].ExpectedTags[0].Tag != "p" {
		t.Fatalf("unexpected expected_tags: %+v", vs[0].ExpectedTags)
	}
}

func TestLoadFiles_V1EnvelopeSchema(t *testing.T) {
	path := writeVectorFile(t, `{
		"schema": "xssbench.vectorfile.v1",
		"meta": {"license": {"file": "LICENSE"}},
		"vectors": [
			{"id": "v1", "description": "d", "payload_html": "javascript:alert(1)", "payload_context": "href"}
		]
	}`)

	vs, err := LoadFiles([]string{path})
	if err != nil {
		t.Fatalf("LoadFiles: %v", err)
	}
	if len(vs) != 1 || vs[0].Contexts[0] != ContextHref {
		t.Fatalf("unexpected vectors: %+v", vs)
	}
	if vs[0].ExpectedTags != nil {
		t.Fatalf("href must not carry expected_tags")
	}
}

func TestLoadFiles_MissingVectorsKeyIsSchemaError(t *testing.T) {
	path := writeVectorFile(t, `{"schema": "xssbench.vectorfile.v1"}`)
	if _, err := LoadFiles([]string{path}); err == nil {
		t.Fatal("expected schema error for missing 'vectors' key")
	}
}

func TestLoadFiles_ContextList(t *testing.T) {
	path := writeVectorFile(t, `[
		{"id": "v1", "description": "d", "payload_html": "x", "payload_context": ["js", "js_arg"]}
	]`)

	vs, err := LoadFiles([]string{path})
	if err != nil {
		t.Fatalf("LoadFiles: %v", err)
	}
	if len(vs[0].Contexts) != 2 || vs[0].Contexts[0] != ContextJS || vs[0].Contexts[1] != ContextJSArg {
		t.Fatalf("unexpected contexts: %+v", vs[0].Contexts)
	}
}

func TestLoadFiles_RejectsExpectedTagsForJSContext(t *testing.T) {
	path := writeVectorFile(t, `[
		{"id": "v1", "description": "d", "payload_html": "alert(1)", "payload_context": "js", "expected_tags": []}
	]`)

	_, err := LoadFiles([]string{path})
	if err == nil {
		t.Fatal("expected invariant error")
	}
	if _, ok := err.(*InvariantError); !ok {
		t.Fatalf("expected *InvariantError, got %T: %v", err, err)
	}
}

func TestLoadFiles_RequiresExpectedTagsForHTMLContext(t *testing.T) {
	path := writeVectorFile(t, `[
		{"id": "v1", "description": "d", "payload_html": "<p>x</p>"}
	]`)

	_, err := LoadFiles([]string{path})
	if err == nil {
		t.Fatal("expected invariant error")
	}
}

func TestLoadFiles_RejectsInvalidContext(t *testing.T) {
	path := writeVectorFile(t, `[
		{"id": "v1", "description": "d", "payload_html": "x", "payload_context": "bogus"}
	]`)
	if _, err := LoadFiles([]string{path}); err == nil {
		t.Fatal("expected schema error for invalid context")
	}
}

func TestLoadFiles_SanitizerAllowTagsRequiresHTTPLeak(t *testing.T) {
	path := writeVectorFile(t, `[
		{"id": "v1", "description": "d", "payload_html": "<p>x</p>", "expected_tags": ["p"], "sanitizer_allow_tags": ["img"]}
	]`)
	if _, err := LoadFiles([]string{path}); err == nil {
		t.Fatal("expected invariant error for sanitizer_allow_tags outside http_leak")
	}
}

func TestLoadFiles_AllowlistSanityAcceptsAllowedAttribute(t *testing.T) {
	path := writeVectorFile(t, `[
		{"id": "v1", "description": "d", "payload_html": "<a href=\"#\">x</a>", "expected_tags": ["a[href]"]}
	]`)
	if _, err := LoadFiles([]string{path}); err != nil {
		t.Fatalf("LoadFiles: %v", err)
	}
}

func TestLoadFiles_AllowlistSanityRejectsAttributeOutsidePolicy(t *testing.T) {
	path := writeVectorFile(t, `[
		{"id": "v1", "description": "d", "payload_html": "<img>", "expected_tags": ["img[onerror]"]}
	]`)
	_, err := LoadFiles([]string{path})
	if err == nil {
		t.Fatal("expected allowlist-sanity invariant error for img[onerror]")
	}
	if _, ok := err.(*InvariantError); !ok {
		t.Fatalf("expected *InvariantError, got %T: %v", err, err)
	}
}

func TestLoadFiles_AllowlistSanityIsCorpusWide(t *testing.T) {
	pathOK := writeVectorFile(t, `[
		{"id": "v1", "description": "d", "payload_html": "<p>x</p>", "expected_tags": ["p"]}
	]`)
	pathBad := writeVectorFile(t, `[
		{"id": "v2", "description": "d", "payload_html": "<div>x</div>", "expected_tags": ["div[onclick]"]}
	]`)
	_, err := LoadFiles([]string{pathOK, pathBad})
	if err == nil {
		t.Fatal("expected allowlist-sanity error from the second file to abort the whole load")
	}
}

func TestParseTagSpec(t *testing.T) {
	cases := []struct {
		in      string
		want    TagSpec
		wantErr bool
	}{
		{in: "p", want: TagSpec{Tag: "p"}},
		{in: "a[href, style]", want: TagSpec{Tag: "a", Attrs: []string{"href", "style"}}},
		{in: "IMG[SRC]", want: TagSpec{Tag: "img", Attrs: []string{"src"}}},
		{in: "a[]", wantErr: true},
		{in: "", wantErr: true},
	}
	for _, c := range cases {
		got, err := ParseTagSpec(c.in)
		if c.wantErr {
			if err == nil {
				t.Errorf("ParseTagSpec(%q): expected error", c.in)
			}
			continue
		}
		if err != nil {
			t.Fatalf("ParseTagSpec(%q): %v", c.in, err)
		}
		gotJSON, _ := json.Marshal(got)
		wantJSON, _ := json.Marshal(c.want)
		if string(gotJSON) != string(wantJSON) {
			t.Errorf("ParseTagSpec(%q) = %+v, want %+v", c.in, got, c.want)
		}
	}
}
