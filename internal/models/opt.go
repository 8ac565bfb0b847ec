package models

import (
	"bytes"
	"encoding/json"
)

// Opt records whether a key was present in a patch at all. A present key
// with a nil Value is an explicit null, which is not the same as absence.
type Opt[T any] struct {
	Present bool
	Value   *T
}

func Some[T any](v T) Opt[T] {
	return Opt[T]{Present: true, Value: &v}
}

func Null[T any]() Opt[T] {
	return Opt[T]{Present: true}
}

// IsZero lets `omitzero` drop absent keys when encoding.
func (o Opt[T]) IsZero() bool {
	return !o.Present
}

func (o Opt[T]) IsNull() bool {
	return o.Present && o.Value == nil
}

// Get returns the value when the key is present and non-null.
func (o Opt[T]) Get() (T, bool) {
	if o.Value == nil {
		var zero T
		return zero, false
	}
	return *o.Value, true
}

func (o Opt[T]) MarshalJSON() ([]byte, error) {
	if o.Value == nil {
		return []byte("null"), nil
	}
	return json.Marshal(*o.Value)
}

func (o *Opt[T]) UnmarshalJSON(data []byte) error {
	o.Present = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		o.Value = nil
		return nil
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	o.Value = &v
	return nil
}
