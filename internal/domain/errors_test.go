package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDomainErrorFormatting(t *testing.T) {
	plain := ModelError("request failed", nil)
	assert.Equal(t, "[model] request failed", plain.Error())

	wrapped := ModelError("request failed", errors.New("connection refused"))
	assert.Equal(t, "[model] request failed: connection refused", wrapped.Error())

	paged := PageConversionError(2, "failed to render page", nil)
	assert.Equal(t, "[conversion] page 3: failed to render page", paged.Error())
}

func TestDomainErrorUnwrap(t *testing.T) {
	cause := errors.New("boom")
	err := ConversionError("failed", cause)

	assert.ErrorIs(t, err, cause)

	wrapped := fmt.Errorf("outer: %w", err)
	var de *DomainError
	require.True(t, errors.As(wrapped, &de))
	assert.Equal(t, ErrorTypeConversion, de.Type)
}

func TestIsType(t *testing.T) {
	err := UnsupportedFormatError("unsupported file type", nil)

	assert.True(t, IsType(err, ErrorTypeUnsupportedFormat))
	assert.False(t, IsType(err, ErrorTypeNotFound))
	assert.False(t, IsType(errors.New("plain"), ErrorTypeUnsupportedFormat))
	assert.False(t, IsType(nil, ErrorTypeUnsupportedFormat))
}

func TestTypePredicates(t *testing.T) {
	assert.True(t, IsUnsupportedFormat(UnsupportedFormatError("bad type", nil)))
	assert.True(t, IsNotFound(NotFoundError("missing", nil)))
	assert.False(t, IsUnsupportedFormat(NotFoundError("missing", nil)))
	assert.False(t, IsNotFound(fmt.Errorf("wrapped: %w", ModelError("fail", nil))))
}

func TestPageConversionErrorCarriesIndex(t *testing.T) {
	err := PageConversionError(0, "markdown generation failed", errors.New("timeout"))

	var de *DomainError
	require.True(t, errors.As(err, &de))
	assert.Equal(t, 0, de.PageIndex)
	assert.Contains(t, de.Error(), "page 1")
}
