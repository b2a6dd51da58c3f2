package alert

import (
	"bytes"
	"encoding/json"
)

// Optional is a scalar copied from a source record. A field missing on the
// record stays unset and serializes as JSON null so receivers see a stable schema.
type Optional struct {
	Value string
	Set   bool
}

// Some returns a set Optional holding v.
func Some(v string) Optional {
	return Optional{Value: v, Set: true}
}

// Unset returns an Optional without a value.
func Unset() Optional {
	return Optional{}
}

// String returns the value or an empty string when unset.
func (o Optional) String() string {
	return o.Value
}

// MarshalJSON implements json.Marshaler.
func (o Optional) MarshalJSON() ([]byte, error) {
	if !o.Set {
		return []byte("null"), nil
	}

	return json.Marshal(o.Value)
}

// UnmarshalJSON implements json.Unmarshaler.
func (o *Optional) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*o = Unset()
		return nil
	}

	var v string
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}

	*o = Some(v)

	return nil
}
