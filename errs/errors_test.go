package errs

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	t.Run("Wrapped", func(t *testing.T) {
		err := fmt.Errorf("creating inquiry: %w", Conflict("Category name must be unique"))
		assert.Equal(t, ErrConflict, KindOf(err))
		assert.True(t, errors.Is(err, ErrConflict))
		assert.False(t, errors.Is(err, ErrNotFound))
	})

	t.Run("Unclassified", func(t *testing.T) {
		assert.Nil(t, KindOf(errors.New("connection reset")))
	})
}

func TestValidationFields(t *testing.T) {
	err := Validation("nic", "civil requester requires nic")
	assert.Equal(t, "civil requester requires nic", err.Error())
	assert.Equal(t, map[string]string{"nic": "civil requester requires nic"}, err.Fields())
	assert.Nil(t, AccessDenied("nope").Fields())
}
