package errors

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSentinelHelpers(t *testing.T) {
	wrapped := fmt.Errorf("pop ticket: %w: dial tcp refused", ErrConnectivity)

	assert.True(t, IsConnectivity(wrapped))
	assert.False(t, IsConnectivity(ErrClassification))

	assert.True(t, IsDuplicateDelivery(fmt.Errorf("x: %w", ErrDuplicateDelivery)))
	assert.True(t, IsMalformedRecord(fmt.Errorf("x: %w", ErrMalformedRecord)))
	assert.True(t, IsClassification(fmt.Errorf("x: %w", ErrClassification)))
	assert.True(t, IsNotFound(fmt.Errorf("x: %w", ErrNotFound)))

	assert.False(t, IsConnectivity(nil))
}
