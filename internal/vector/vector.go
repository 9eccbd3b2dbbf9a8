package vector

// Vector is an immutable adversarial HTML payload plus metadata. Vectors
// load once and are never mutated thereafter.
type Vector struct {
	ID          string
	Description string
	PayloadHTML string

	// Contexts is the ordered list of contexts this vector runs in. A
	// single-context vector still has a one-element slice. A vector with
	// N contexts expands to N cases per sanitizer.
	Contexts []PayloadContext

	// ExpectedTags is the ordered structural contract checked by the
	// fidelity checker. Set (possibly to an empty, non-nil slice) only for
	// fragment contexts; nil for every other context.
	ExpectedTags []TagSpec

	// SanitizerAllowTags is only meaningful when a vector's context is
	// http_leak; nil otherwise.
	SanitizerAllowTags []string
}

// CaseInput is one concrete (vector, context, sanitizer) case.
type CaseInput struct {
	Vector      *Vector
	Context     PayloadContext
	SanitizerID string
}

// Expand returns one CaseInput per (context, sanitizer) pair for v.
func (v *Vector) Expand(sanitizerIDs []string) []CaseInput {
	cases := make([]CaseInput, 0, len(v.Contexts)*len(sanitizerIDs))
	for _, ctx := range v.Contexts {
		for _, sid := range sanitizerIDs {
			cases = append(cases, CaseInput{Vector: v, Context: ctx, SanitizerID: sid})
		}
	}
	return cases
}
