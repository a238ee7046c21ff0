//go:build !tesseract

package tesseract

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStubEngineFails(t *testing.T) {
	require.False(t, Available())

	blocks, err := NewEngine("eng").DetectText(context.Background(), []byte{0x89, 'P', 'N', 'G'}, "image/png")
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.Nil(t, blocks)
}
