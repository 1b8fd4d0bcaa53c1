package validate

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/user-service/internal/apperror"
)

type sampleAddress struct {
	City string `json:"city" validate:"required"`
}

type sampleRequest struct {
	Name    string         `json:"name"    validate:"required,max=5"`
	Email   string         `json:"email"   validate:"required,email"`
	Salary  *float64       `json:"salary"  validate:"omitnil,gte=0"`
	Address *sampleAddress `json:"address"`
}

func TestStructs_Check(t *testing.T) {
	v := NewStructs()
	neg := -1.0

	tests := []struct {
		name      string
		in        sampleRequest
		wantField string
	}{
		{"valid", sampleRequest{Name: "Ada", Email: "ada@example.com"}, ""},
		{"missing name", sampleRequest{Email: "ada@example.com"}, "name"},
		{"name too long", sampleRequest{Name: "Adalovelace", Email: "ada@example.com"}, "name"},
		{"bad email", sampleRequest{Name: "Ada", Email: "nope"}, "email"},
		{"negative salary", sampleRequest{Name: "Ada", Email: "ada@example.com", Salary: &neg}, "salary"},
		{"nested required", sampleRequest{Name: "Ada", Email: "ada@example.com", Address: &sampleAddress{}}, "address.city"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Check(tt.in)
			if tt.wantField == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, errors.Is(err, apperror.ErrValidation))

			var appErr *apperror.AppError
			require.True(t, errors.As(err, &appErr))
			assert.Equal(t, tt.wantField, appErr.Field)
		})
	}
}
