package validator

import (
	"errors"
	"testing"

	"coworking/internal/domain"

	"github.com/stretchr/testify/assert"
)

type sample struct {
	Name  string `json:"name" validate:"required"`
	Seats int    `json:"seats" validate:"gt=0"`
	Kind  string `json:"kind" validate:"oneof=hourly daily"`
}

func TestValidate_UsesJSONNames(t *testing.T) {
	errs := Validate(sample{Kind: "weekly"})
	assert.Equal(t, map[string]string{"name": "required", "seats": "gt", "kind": "oneof"}, errs)
	assert.Nil(t, Validate(sample{Name: "a", Seats: 1, Kind: "daily"}))
}

func TestCheck(t *testing.T) {
	err := Check(sample{Name: "a", Kind: "daily"})
	assert.True(t, errors.Is(err, domain.ErrValidation))
	assert.Contains(t, err.Error(), "seats (gt)")
	assert.NoError(t, Check(sample{Name: "a", Seats: 2, Kind: "hourly"}))
}
