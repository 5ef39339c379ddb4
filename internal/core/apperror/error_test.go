package apperror

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewInsufficientStock_NamesItemAndQuantity(t *testing.T) {
	err := NewInsufficientStock("Paracetamol 500mg", "B12", 10, 4)

	assert.Equal(t, "Paracetamol 500mg: only 4 available in batch B12", err.Message)
	assert.Equal(t, http.StatusUnprocessableEntity, err.HTTPStatus)
	assert.Equal(t, int64(4), err.Details["available"])
	assert.True(t, IsInsufficientStock(err))

	noBatch := NewInsufficientStock("Cough Syrup", "", 2, 0)
	assert.Equal(t, "Cough Syrup: only 0 available", noBatch.Message)
}

func TestAsAppError_Wrapped(t *testing.T) {
	base := NewNotFound("item", "42")
	wrapped := fmt.Errorf("load: %w", base)

	appErr, ok := AsAppError(wrapped)
	require.True(t, ok)
	assert.Equal(t, CodeNotFound, appErr.Code)
	assert.True(t, IsNotFound(wrapped))
	assert.Equal(t, http.StatusNotFound, GetHTTPStatus(wrapped))
	assert.Equal(t, http.StatusInternalServerError, GetHTTPStatus(fmt.Errorf("plain")))
}

func TestNewInvalidTransition(t *testing.T) {
	err := NewInvalidTransition("adjustment", "pending", "take")

	assert.Equal(t, CodeInvalidTransition, err.Code)
	assert.Equal(t, "cannot take adjustment in state pending", err.Message)
}
