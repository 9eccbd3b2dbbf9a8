package vector

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/EmilStenstrom/justhtml-xss-bench/internal/adapter"
)

// fileEnvelope matches the xssbench.vectorfile.v1 schema: either a bare
// JSON list of vector objects, or an object carrying a "vectors" key plus
// header metadata the loader otherwise ignores (license/source info is an
// external collaborator's concern, see SPEC_FULL.md §1).
type fileEnvelope struct {
	Schema  string            `json:"schema"`
	Vectors []json.RawMessage `json:"vectors"`
}

// rawVector is the on-wire shape of one vector item, decoded permissively
// so presence-vs-absence of optional keys can be distinguished from the
// zero value.
type rawVector struct {
	ID                 *string         `json:"id"`
	Description        *string         `json:"description"`
	PayloadHTML        *string         `json:"payload_html"`
	PayloadContext     json.RawMessage `json:"payload_context"`
	ExpectedTags       *[]string       `json:"expected_tags"`
	SanitizerAllowTags []string        `json:"sanitizer_allow_tags"`
}

// LoadFiles reads and validates one or more vector files, expanding each
// vector's payload_context into the Contexts slice and enforcing the
// expected_tags invariants. Any violation aborts the whole load — per
// §7, schema and invariant errors are fatal before any case runs.
func LoadFiles(paths []string) ([]*Vector, error) {
	var out []*Vector
	for _, p := range paths {
		vs, err := loadFile(p)
		if err != nil {
			return nil, err
		}
		out = append(out, vs...)
	}
	if err := checkAllowlistSanity(out); err != nil {
		return nil, err
	}
	return out, nil
}

// checkAllowlistSanity enforces §4.5 step 4: every attribute name named in
// any vector's expected_tags, across the whole corpus, must belong to the
// shared allowlist policy. This is a corpus-wide invariant rather than a
// per-vector one, so it only runs once all files have loaded. A fidelity
// checker expecting an attribute the adapters under test can never produce
// would otherwise silently never pass.
func checkAllowlistSanity(vectors []*Vector) error {
	policy := adapter.DefaultPolicy()
	for _, v := range vectors {
		for _, spec := range v.ExpectedTags {
			allowed := adapter.AllowedAttributesForTag(policy, spec.Tag)
			for _, attr := range spec.Attrs {
				if !containsAttr(allowed, attr) {
					return &InvariantError{
						VectorID: v.ID,
						Msg:      fmt.Sprintf("expected_tags attribute %q on <%s> is not in the shared allowlist policy", attr, spec.Tag),
					}
				}
			}
		}
	}
	return nil
}

func containsAttr(allowed []string, attr string) bool {
	for _, a := range allowed {
		if a == attr {
			return true
		}
	}
	return false
}

func loadFile(path string) ([]*Vector, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read vector file %s: %w", path, err)
	}

	items, err := extractVectorItems(path, data)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, &SchemaError{File: path, Msg: ErrEmptyVectorList.Error()}
	}

	out := make([]*Vector, 0, len(items))
	for i, raw := range items {
		var rv rawVector
		if err := json.Unmarshal(raw, &rv); err != nil {
			return nil, &SchemaError{File: path, Msg: fmt.Sprintf("vector[%d]: %v", i, err)}
		}

		v, err := buildVector(path, i, rv)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// extractVectorItems accepts either a bare JSON list or the v1 envelope
// object and returns the raw per-vector JSON objects.
func extractVectorItems(path string, data []byte) ([]json.RawMessage, error) {
	trimmed := firstNonSpace(data)
	switch trimmed {
	case '[':
		var items []json.RawMessage
		if err := json.Unmarshal(data, &items); err != nil {
			return nil, &SchemaError{File: path, Msg: fmt.Sprintf("invalid JSON list: %v", err)}
		}
		return items, nil
	case '{':
		var env fileEnvelope
		if err := json.Unmarshal(data, &env); err != nil {
			return nil, &SchemaError{File: path, Msg: fmt.Sprintf("invalid JSON object: %v", err)}
		}
		if env.Vectors == nil {
			return nil, &SchemaError{File: path, Msg: "vector file object must contain a 'vectors' key"}
		}
		return env.Vectors, nil
	default:
		return nil, &SchemaError{File: path, Msg: "vector file must be a JSON list or an object with 'vectors'"}
	}
}

func firstNonSpace(data []byte) byte {
	for _, b := range data {
		switch b {
		case ' ', '\t', '\n', '\r':
			continue
		default:
			return b
		}
	}
	return 0
}

func buildVector(path string, index int, rv rawVector) (*Vector, error) {
	if rv.ID == nil || rv.Description == nil || rv.PayloadHTML == nil {
		return nil, &SchemaError{
			File: path,
			Msg:  fmt.Sprintf("vector[%d]: missing required keys (id, description, payload_html)", index),
		}
	}

	contexts, err := parseContexts(path, index, rv.PayloadContext)
	if err != nil {
		return nil, err
	}

	v := &Vector{
		ID:                 *rv.ID,
		Description:        *rv.Description,
		PayloadHTML:        *rv.PayloadHTML,
		Contexts:           contexts,
		SanitizerAllowTags: rv.SanitizerAllowTags,
	}

	for _, ctx := range contexts {
		if err := checkExpectedTagsInvariant(v.ID, ctx, rv.ExpectedTags); err != nil {
			return nil, err
		}
		if len(rv.SanitizerAllowTags) > 0 && !ctx.IsHTTPLeak() {
			return nil, &InvariantError{
				VectorID: v.ID,
				Context:  ctx,
				Msg:      "sanitizer_allow_tags is only valid when payload_context == http_leak",
			}
		}
	}

	if rv.ExpectedTags != nil {
		tags, err := parseTagSpecs(v.ID, *rv.ExpectedTags)
		if err != nil {
			return nil, err
		}
		v.ExpectedTags = tags
	}

	return v, nil
}

func parseContexts(path string, index int, raw json.RawMessage) ([]PayloadContext, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return []PayloadContext{ContextHTML}, nil
	}

	var asString string
	if err := json.Unmarshal(raw, &asString); err == nil {
		ctx := PayloadContext(asString)
		if !ctx.Valid() {
			return nil, &SchemaError{File: path, Msg: fmt.Sprintf("vector[%d]: invalid payload_context %q", index, asString)}
		}
		return []PayloadContext{ctx}, nil
	}

	var asList []string
	if err := json.Unmarshal(raw, &asList); err == nil {
		if len(asList) == 0 {
			return nil, &SchemaError{File: path, Msg: fmt.Sprintf("vector[%d]: payload_context list must be non-empty", index)}
		}
		out := make([]PayloadContext, 0, len(asList))
		for _, s := range asList {
			ctx := PayloadContext(s)
			if !ctx.Valid() {
				return nil, &SchemaError{File: path, Msg: fmt.Sprintf("vector[%d]: invalid payload_context %q", index, s)}
			}
			out = append(out, ctx)
		}
		return out, nil
	}

	return nil, &SchemaError{File: path, Msg: fmt.Sprintf("vector[%d]: payload_context must be a string or list of strings", index)}
}

func checkExpectedTagsInvariant(id string, ctx PayloadContext, expectedTags *[]string) error {
	if ctx.RequiresExpectedTags() && expectedTags == nil {
		return &InvariantError{VectorID: id, Context: ctx, Msg: "expected_tags is required for this context"}
	}
	if ctx.ForbidsExpectedTags() && expectedTags != nil {
		return &InvariantError{VectorID: id, Context: ctx, Msg: "expected_tags is not allowed for this context"}
	}
	return nil
}

func parseTagSpecs(id string, raw []string) ([]TagSpec, error) {
	out := make([]TagSpec, 0, len(raw))
	for _, s := range raw {
		spec, err := ParseTagSpec(s)
		if err != nil {
			return nil, &InvariantError{VectorID: id, Msg: err.Error()}
		}
		out = append(out, spec)
	}
	return out, nil
}
