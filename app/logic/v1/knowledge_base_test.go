package v1

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/prodpilot/prodpilot/pkg/types"
)

func TestValidateSettingsDefaults(t *testing.T) {
	settings := &types.KnowledgeBaseSettings{}
	assert.NoError(t, validateSettings(settings))
	assert.Equal(t, DEFAULT_CHUNK_SIZE, settings.ChunkSize)
	assert.Equal(t, DEFAULT_CHUNK_OVERLAP, settings.ChunkOverlap)
	assert.Equal(t, DEFAULT_EMBEDDING_MODEL, settings.EmbeddingModel)
}

func TestValidateSettingsRejectsBadChunkConfig(t *testing.T) {
	cases := []types.KnowledgeBaseSettings{
		{ChunkSize: 100, ChunkOverlap: 100, EmbeddingModel: DEFAULT_EMBEDDING_MODEL},
		{ChunkSize: 100, ChunkOverlap: 200, EmbeddingModel: DEFAULT_EMBEDDING_MODEL},
		{ChunkSize: -1, ChunkOverlap: 0, EmbeddingModel: DEFAULT_EMBEDDING_MODEL},
	}
	for _, c := range cases {
		c := c
		assert.Error(t, validateSettings(&c), "size=%d overlap=%d", c.ChunkSize, c.ChunkOverlap)
	}
}

func TestValidateSettingsRejectsUnknownModel(t *testing.T) {
	settings := &types.KnowledgeBaseSettings{
		ChunkSize:      500,
		ChunkOverlap:   100,
		EmbeddingModel: "text-embedding-unknown",
	}
	assert.Error(t, validateSettings(settings))
}

func TestSourceOf(t *testing.T) {
	assert.Equal(t, types.DOCUMENT_SOURCE_GITHUB, sourceOf(types.SourceMetadata{Github: &types.GithubMeta{}}))
	assert.Equal(t, types.DOCUMENT_SOURCE_FILE_UPLOAD, sourceOf(types.SourceMetadata{File: &types.FileMeta{}}))
	assert.Equal(t, types.DOCUMENT_SOURCE_FILE_UPLOAD, sourceOf(types.SourceMetadata{}))
}
