package domain

import (
	"bytes"
	"encoding/json"
)

// Optional carries a value together with whether it was supplied at all.
// A JSON null sets the field to its zero value, an absent key leaves it unset.
type Optional[T any] struct {
	Value T
	Set   bool
}

func Some[T any](v T) Optional[T] { return Optional[T]{Value: v, Set: true} }

func (o Optional[T]) Get() (T, bool) { return o.Value, o.Set }

func (o *Optional[T]) UnmarshalJSON(data []byte) error {
	o.Set = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		var zero T
		o.Value = zero
		return nil
	}
	return json.Unmarshal(data, &o.Value)
}

func (o Optional[T]) MarshalJSON() ([]byte, error) {
	if !o.Set {
		return []byte("null"), nil
	}
	return json.Marshal(o.Value)
}

// BookingPatch is a partial update of the staff-editable booking details.
type BookingPatch struct {
	Participants    Optional[int]    `json:"participants"`
	SpecialRequests Optional[string] `json:"special_requests"`
	Notes           Optional[string] `json:"notes"`
}

func (p BookingPatch) Empty() bool {
	return !p.Participants.Set && !p.SpecialRequests.Set && !p.Notes.Set
}
