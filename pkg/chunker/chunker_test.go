package chunker_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prodpilot/prodpilot/pkg/chunker"
)

func TestSplitWindowing(t *testing.T) {
	text := strings.Repeat("a", 1200)

	pieces, err := chunker.Split(text, 500, 100)
	require.NoError(t, err)
	require.Len(t, pieces, 3)

	assert.Equal(t, 0, pieces[0].StartChar)
	assert.Equal(t, 500, pieces[0].EndChar)
	assert.Equal(t, 400, pieces[1].StartChar)
	assert.Equal(t, 900, pieces[1].EndChar)
	assert.Equal(t, 800, pieces[2].StartChar)
	assert.Equal(t, 1200, pieces[2].EndChar)

	for i, p := range pieces {
		assert.Equal(t, i, p.Position)
	}
}

func TestSplitOverlapIsExact(t *testing.T) {
	var b strings.Builder
	for i := 0; i < 1000; i++ {
		b.WriteRune(rune('一' + i%500))
	}
	text := b.String()

	pieces, err := chunker.Split(text, 300, 50)
	require.NoError(t, err)
	require.True(t, len(pieces) > 1)

	for i := 1; i < len(pieces); i++ {
		prev := []rune(pieces[i-1].Content)
		cur := []rune(pieces[i].Content)
		assert.Equal(t, string(prev[len(prev)-50:]), string(cur[:50]))
	}

	// every rune of the source appears at its recorded offset
	runes := []rune(text)
	for _, p := range pieces {
		assert.Equal(t, string(runes[p.StartChar:p.EndChar]), p.Content)
	}
	assert.Equal(t, len(runes), pieces[len(pieces)-1].EndChar)
}

func TestSplitShortAndEmptyInput(t *testing.T) {
	pieces, err := chunker.Split("short text", 500, 100)
	require.NoError(t, err)
	require.Len(t, pieces, 1)
	assert.Equal(t, "short text", pieces[0].Content)

	pieces, err = chunker.Split("   \n\t  ", 500, 100)
	require.NoError(t, err)
	assert.Empty(t, pieces)

	pieces, err = chunker.Split("", 500, 100)
	require.NoError(t, err)
	assert.Empty(t, pieces)
}

func TestSplitInvalidConfig(t *testing.T) {
	cases := []struct {
		size    int
		overlap int
	}{
		{0, 0},
		{-1, 0},
		{100, 100},
		{100, 150},
		{100, -1},
	}
	for _, tt := range cases {
		_, err := chunker.Split("some text", tt.size, tt.overlap)
		assert.ErrorIs(t, err, chunker.ErrInvalidConfig)
	}
}

func TestSplitDeterministic(t *testing.T) {
	text := strings.Repeat("the quick brown fox jumps over the lazy dog. ", 40)

	first, err := chunker.Split(text, 200, 40)
	require.NoError(t, err)
	second, err := chunker.Split(text, 200, 40)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestTokenCount(t *testing.T) {
	n := chunker.TokenCount("hello world")
	assert.True(t, n > 0)
	assert.Equal(t, 0, chunker.TokenCount(""))
}
