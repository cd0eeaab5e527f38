package ai

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsKnownEmbeddingModel(t *testing.T) {
	assert.True(t, IsKnownEmbeddingModel("text-embedding-3-small"))
	assert.True(t, IsKnownEmbeddingModel("text-embedding-ada-002"))
	assert.False(t, IsKnownEmbeddingModel("gpt-4o"))
	assert.False(t, IsKnownEmbeddingModel(""))
}

func TestRequestDimensions(t *testing.T) {
	assert.Equal(t, VectorDimension, RequestDimensions("text-embedding-3-small"))
	assert.Equal(t, VectorDimension, RequestDimensions("text-embedding-3-large"))
	// ada-002 不支持 dimensions 参数，原生输出就是 1536
	assert.Equal(t, 0, RequestDimensions("text-embedding-ada-002"))
}

func TestTruncateForEmbeddingShortInputUntouched(t *testing.T) {
	text := "hello world"
	assert.Equal(t, text, TruncateForEmbedding(text))
}

func TestTruncateForEmbeddingDeterministic(t *testing.T) {
	long := strings.Repeat("the quick brown fox jumps over the lazy dog ", 2000)

	first := TruncateForEmbedding(long)
	second := TruncateForEmbedding(long)

	assert.Equal(t, first, second)
	assert.Less(t, len(first), len(long))
}
