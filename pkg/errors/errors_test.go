package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *AppError
		want string
	}{
		{
			name: "message only",
			err:  New(ErrCodeNoValidMolecules, "no valid SMILES strings given"),
			want: "[MOL_002] no valid SMILES strings given",
		},
		{
			name: "message with detail",
			err:  New(ErrCodeUnknownATCCode, "unknown ATC code").WithDetail("atc=zzz"),
			want: "[REF_001] unknown ATC code: atc=zzz",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}

func TestWrap(t *testing.T) {
	t.Run("nil error returns nil", func(t *testing.T) {
		assert.Nil(t, Wrap(nil, ErrCodeDatabaseError, "query failed"))
	})

	t.Run("wraps and unwraps", func(t *testing.T) {
		cause := fmt.Errorf("connection refused")
		err := Wrap(cause, ErrCodeDatabaseError, "query failed")
		assert.Equal(t, ErrCodeDatabaseError, err.Code)
		assert.True(t, errors.Is(err, cause))
	})

	t.Run("CodeUnknown preserves wrapped code", func(t *testing.T) {
		inner := New(ErrCodeTooManyMolecules, "batch too large")
		err := Wrap(inner, CodeUnknown, "while handling request")
		assert.Equal(t, ErrCodeTooManyMolecules, err.Code)
	})
}

func TestIsCode(t *testing.T) {
	inner := New(ErrCodeInvalidSMILES, "invalid SMILES string")
	outer := Wrap(fmt.Errorf("parse: %w", inner), ErrCodeInternal, "prediction failed")

	assert.True(t, IsCode(outer, ErrCodeInvalidSMILES))
	assert.True(t, IsCode(outer, ErrCodeInternal))
	assert.False(t, IsCode(outer, ErrCodeRenderFailed))
	assert.False(t, IsCode(nil, ErrCodeInternal))
}

func TestIsNotFound(t *testing.T) {
	assert.True(t, IsNotFound(New(ErrCodePredictionsNotFound, "no stored predictions")))
	assert.True(t, IsNotFound(NotFound("missing")))
	assert.False(t, IsNotFound(New(ErrCodeInternal, "boom")))
	assert.False(t, IsNotFound(errors.New("plain")))
}

func TestGetCode(t *testing.T) {
	assert.Equal(t, CodeOK, GetCode(nil))
	assert.Equal(t, CodeUnknown, GetCode(errors.New("plain")))
	assert.Equal(t, ErrCodeModelNotLoaded, GetCode(New(ErrCodeModelNotLoaded, "model missing")))
}

func TestHTTPStatusForCode(t *testing.T) {
	tests := []struct {
		code ErrorCode
		want int
	}{
		{ErrCodeTooManyMolecules, http.StatusBadRequest},
		{ErrCodePredictionsNotFound, http.StatusNotFound},
		{ErrCodeModelNotLoaded, http.StatusServiceUnavailable},
		{ErrCodeInsufficientReference, http.StatusUnprocessableEntity},
		{ErrorCode("NOPE_999"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, HTTPStatusForCode(tt.code), "code %s", tt.code)
	}
}

func TestIsClientServerError(t *testing.T) {
	assert.True(t, IsClientError(ErrCodeInvalidSMILES))
	assert.False(t, IsServerError(ErrCodeInvalidSMILES))
	assert.True(t, IsServerError(ErrCodeInferenceFailed))
	assert.False(t, IsClientError(ErrCodeInferenceFailed))
}

func TestModuleForCode(t *testing.T) {
	assert.Equal(t, "MOL", ModuleForCode(ErrCodeInvalidSMILES))
	assert.Equal(t, "STORE", ModuleForCode(ErrCodeStoreUnavailable))
	assert.Equal(t, "UNKNOWN", ModuleForCode(ErrorCode("")))
}
