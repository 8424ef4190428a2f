package model

import (
	"bytes"
	"encoding/json"
)

// Optional is a JSON field that distinguishes an omitted key from an
// explicit null. The zero value is "absent" and is dropped by omitzero;
// Null() marshals as null; Some(v) marshals as v. A decode followed by an
// encode reproduces the original presence exactly.
type Optional[T any] struct {
	value   T
	present bool
	valid   bool
}

// Some returns a present, non-null value.
func Some[T any](v T) Optional[T] {
	return Optional[T]{value: v, present: true, valid: true}
}

// Null returns a present value that encodes as JSON null.
func Null[T any]() Optional[T] {
	return Optional[T]{present: true}
}

// Get returns the value and whether it is present and non-null.
func (o Optional[T]) Get() (T, bool) {
	return o.value, o.valid
}

// OrZero returns the value, or the zero value when absent or null.
func (o Optional[T]) OrZero() T {
	return o.value
}

// Valid reports whether the value is present and non-null.
func (o Optional[T]) Valid() bool { return o.valid }

// IsNull reports whether the key was present with a null value.
func (o Optional[T]) IsNull() bool { return o.present && !o.valid }

// IsZero reports whether the key is absent. Used by the omitzero tag option.
func (o Optional[T]) IsZero() bool { return !o.present }

func (o Optional[T]) MarshalJSON() ([]byte, error) {
	if !o.valid {
		return []byte("null"), nil
	}
	return json.Marshal(o.value)
}

func (o *Optional[T]) UnmarshalJSON(data []byte) error {
	o.present = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		var zero T
		o.value = zero
		o.valid = false
		return nil
	}
	if err := json.Unmarshal(data, &o.value); err != nil {
		return err
	}
	o.valid = true
	return nil
}
