package apperrors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"validation", MissingField("reference"), KindValidation},
		{"not found", NotFound("student", "abc"), KindNotFound},
		{"already matched", AlreadyMatched("TX1"), KindAlreadyMatched},
		{"conflict", Conflict("payment", "duplicate reference", errors.New("23505")), KindConflict},
		{"wrapped", fmt.Errorf("row 3: %w", Validation("amount", "not a number")), KindValidation},
		{"plain error", errors.New("boom"), KindInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, KindOf(tt.err))
		})
	}
}

func TestHTTPStatus(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, HTTPStatus(MissingField("date")))
	assert.Equal(t, http.StatusNotFound, HTTPStatus(NotFound("invoice", 1)))
	assert.Equal(t, http.StatusConflict, HTTPStatus(AlreadyMatched("TX")))
	assert.Equal(t, http.StatusConflict, HTTPStatus(Conflict("student", "dup", nil)))
	assert.Equal(t, http.StatusInternalServerError, HTTPStatus(errors.New("x")))
}

func TestWrapKeepsCause(t *testing.T) {
	cause := errors.New("connection reset")
	err := Internal("load students", cause)

	require.NotNil(t, err)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "load students")
	assert.NotEmpty(t, err.StackTrace())
	assert.Nil(t, Wrap(nil, KindInternal, CodeUnexpected, "nothing"))
}

func TestHasCode(t *testing.T) {
	err := fmt.Errorf("generate: %w", New(KindNotFound, CodeNoFeeStructure, "no fee structure"))
	assert.True(t, HasCode(err, CodeNoFeeStructure))
	assert.True(t, Is(err, KindNotFound))
	assert.False(t, HasCode(err, CodeNotFound))
	assert.False(t, Is(nil, KindNotFound))
}

func TestWithContext(t *testing.T) {
	err := NotFound("term", "t-1")
	assert.Equal(t, "term", err.Context["entity"])
	assert.Equal(t, "t-1", err.Context["id"])
}
