package handler

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prodpilot/prodpilot/pkg/source"
)

func TestReadUploadPartBoundsMemory(t *testing.T) {
	const maxSize = 16

	small, err := readUploadPart(strings.NewReader("hello"), maxSize)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(small))

	exact, err := readUploadPart(strings.NewReader(strings.Repeat("a", maxSize)), maxSize)
	require.NoError(t, err)
	assert.Len(t, exact, maxSize)

	oversize, err := readUploadPart(strings.NewReader(strings.Repeat("a", maxSize*100)), maxSize)
	require.NoError(t, err)
	assert.Len(t, oversize, maxSize+1)
}

func TestReadUploadPartTruncationTripsSizeLimit(t *testing.T) {
	const maxSize = 16

	raw, err := readUploadPart(strings.NewReader(strings.Repeat("a", maxSize*100)), maxSize)
	require.NoError(t, err)

	adapter := source.NewUploadAdapter([]source.UploadedFile{
		{Name: "big.txt", Data: raw},
	}, maxSize)

	res, err := adapter.Fetch(context.Background())
	require.NoError(t, err)
	assert.Empty(t, res.Items)
	require.Len(t, res.Skipped, 1)
	assert.Contains(t, res.Skipped[0].Reason, "byte limit")
}
