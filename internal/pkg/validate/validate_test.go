package validate

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Name     string `json:"name" validate:"required,min=2,max=5"`
	Email    string `json:"email" validate:"required,email"`
	Quantity int    `json:"quantity" validate:"gte=0"`
}

func TestDescribe_UsesJSONFieldNames(t *testing.T) {
	err := New().Struct(sample{Name: "a", Email: "bad", Quantity: -1})
	require.Error(t, err)

	msg := Describe(err)
	assert.Contains(t, msg, "name must be at least 2 characters")
	assert.Contains(t, msg, "email must be a valid email address")
	assert.Contains(t, msg, "quantity must be greater than or equal to 0")
}

func TestDescribe_Required(t *testing.T) {
	err := New().Struct(sample{Email: "a@x.com"})
	require.Error(t, err)
	assert.Equal(t, "name is required", Describe(err))
}

func TestDescribe_PlainError(t *testing.T) {
	assert.Equal(t, "boom", Describe(errors.New("boom")))
}

func TestNew_ValidStruct(t *testing.T) {
	assert.NoError(t, New().Struct(sample{Name: "abc", Email: "a@x.com"}))
}
