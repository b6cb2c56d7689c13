package httputil

import (
	"bytes"
	"encoding/json"
)

// OptionalString distinguishes an absent JSON field from an explicit
// null, which a plain *string cannot. PATCH bodies (RFC 7396) need the
// three states: absent leaves the column alone, null clears it, a
// string sets it.
type OptionalString struct {
	Present bool
	Value   *string
}

// UnmarshalJSON only runs when the field appears in the payload, so
// Present is unconditionally true here.
func (o *OptionalString) UnmarshalJSON(data []byte) error {
	o.Present = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		o.Value = nil
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	o.Value = &s
	return nil
}
