package detect

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMockDetectWithOverride(t *testing.T) {
	reading, err := NewMock().Detect(context.Background(), nil, "abc1234")
	require.NoError(t, err)

	assert.Equal(t, "ABC1234", reading.PlateText)
	assert.Equal(t, 0.99, reading.Confidence)
}

func TestMockDetectWithoutOverride(t *testing.T) {
	reading, err := NewMock().Detect(context.Background(), []byte("snapshot"), "")
	require.NoError(t, err)

	assert.Equal(t, "UNKNOWN", reading.PlateText)
	assert.Equal(t, 0.0, reading.Confidence)
}
