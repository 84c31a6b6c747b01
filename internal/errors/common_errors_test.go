package errors

import (
	"errors"
	"fmt"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *AppError
		expected string
	}{
		{
			name:     "without cause",
			err:      NewAppError(ErrTypeEmptyResult, "filter produced no rows", nil),
			expected: "[EMPTY_RESULT] filter produced no rows",
		},
		{
			name:     "with cause",
			err:      NewParsingError("bad value", fmt.Errorf("strconv: invalid syntax")),
			expected: "[PARSING] bad value: strconv: invalid syntax",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.err.Error())
		})
	}
}

func TestAppError_Is(t *testing.T) {
	keyErr := NewKeyNotFoundError("cell", "abc123")

	assert.True(t, errors.Is(keyErr, ErrKeyNotFound))
	assert.False(t, errors.Is(keyErr, ErrEmptyResult))

	wrapped := fmt.Errorf("select series: %w", keyErr)
	assert.True(t, errors.Is(wrapped, ErrKeyNotFound))
	assert.Equal(t, ErrTypeKeyNotFound, TypeOf(wrapped))
}

func TestAppError_Unwrap(t *testing.T) {
	err := NewFileNotFoundError("data/kpi.csv", os.ErrNotExist)

	assert.True(t, errors.Is(err, os.ErrNotExist))
	assert.True(t, errors.Is(err, ErrFileNotFound))
	assert.Equal(t, "data/kpi.csv", err.Context["path"])
}

func TestAppError_WithContext(t *testing.T) {
	err := &AppError{Type: ErrTypeStorage, Message: "query failed"}
	err.WithContext("table", "kpi").WithContext("rows", 0)

	require.Len(t, err.Context, 2)
	assert.Equal(t, "kpi", err.Context["table"])
	assert.Equal(t, 0, err.Context["rows"])
}

func TestConstructors(t *testing.T) {
	tests := []struct {
		name     string
		err      *AppError
		wantType ErrorType
		contains string
	}{
		{"key not found", NewKeyNotFoundError("kpi", "UL_VOL"), ErrTypeKeyNotFound, `kpi "UL_VOL" not found`},
		{"empty result", NewEmptyResultError("window filter"), ErrTypeEmptyResult, "window filter produced no rows"},
		{"storage", NewStorageError("open sqlite", nil), ErrTypeStorage, "open sqlite"},
		{"validation", NewAppValidationError("unknown variant"), ErrTypeValidation, "unknown variant"},
		{"config", NewConfigError("bad timezone", nil), ErrTypeConfig, "bad timezone"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantType, tt.err.Type)
			assert.Contains(t, tt.err.Error(), tt.contains)
		})
	}
}

func TestTypeOf(t *testing.T) {
	assert.Equal(t, ErrorType(""), TypeOf(nil))
	assert.Equal(t, ErrorType(""), TypeOf(fmt.Errorf("plain")))
	assert.Equal(t, ErrTypeEmptyResult, TypeOf(NewEmptyResultError("partition")))
}
