// Persistence for the Model artifact: the encoding table, join graph
// shape, candidate specs, flattened trees and update rates, serialized via
// encoding/gob. gob reproduces the same bytes for the same value on every
// call, so the artifact re-serializes byte-for-byte after a round trip
// without pulling in a schema compiler for one artifact type.
package model

import (
	"bytes"
	"encoding/gob"

	"github.com/sqlnet/relboost/errs"
)

// Marshal serializes a Fitted Model to its byte-for-byte-stable wire form.
// Marshal on a Model that is not Fitted is a validation error: only a
// completed fit may be persisted.
func Marshal(m *Model) ([]byte, error) {
	if m.state != Fitted {
		return nil, errs.Validation("model: cannot marshal a Model in state %q", m.state)
	}
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(m); err != nil {
		return nil, errs.Trace(err)
	}
	return buf.Bytes(), nil
}

// Unmarshal restores a Model from bytes produced by Marshal. The restored
// Model is Fitted and immutable, matching the artifact it came from.
func Unmarshal(data []byte) (*Model, error) {
	var m Model
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&m); err != nil {
		return nil, errs.Trace(err)
	}
	m.state = Fitted
	return &m, nil
}
