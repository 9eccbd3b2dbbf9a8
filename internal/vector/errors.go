package vector

import "errors"

// SchemaError indicates the vector file itself is malformed — wrong JSON
// shape, missing required keys, or an unrecognized payload_context. This
// is fatal at load time per the error taxonomy: the run aborts before any
// case executes.
type SchemaError struct {
	File string
	Msg  string
}

func (e *SchemaError) Error() string {
	if e.File == "" {
		return e.Msg
	}
	return e.File + ": " + e.Msg
}

// InvariantError indicates a vector violates a structural invariant (e.g.
// expected_tags present for a js* context). Also fatal at load time.
type InvariantError struct {
	VectorID string
	Context  PayloadContext
	Msg      string
}

func (e *InvariantError) Error() string {
	if e.Context == "" {
		return e.VectorID + ": " + e.Msg
	}
	return e.VectorID + "@" + string(e.Context) + ": " + e.Msg
}

// ErrEmptyVectorList is returned when a vector file contains zero vectors.
var ErrEmptyVectorList = errors.New("vector file contains no vectors")
