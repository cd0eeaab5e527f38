package types_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/prodpilot/prodpilot/pkg/types"
)

func TestSourceMetadataRoundTrip(t *testing.T) {
	meta := types.SourceMetadata{
		Github: &types.GithubMeta{
			RepoURL:   "https://github.com/owner/repo",
			Branch:    "main",
			Path:      "docs/readme.md",
			CommitSHA: "abc123",
		},
	}

	raw, err := meta.Value()
	assert.NoError(t, err)

	var got types.SourceMetadata
	assert.NoError(t, got.Scan(raw))
	assert.Nil(t, got.File)
	assert.NotNil(t, got.Github)
	assert.Equal(t, meta.Github, got.Github)
}

func TestDeriveKnowledgeBaseStatus(t *testing.T) {
	tests := []struct {
		name   string
		counts []types.DocumentStatusCount
		expect types.KnowledgeBaseStatus
	}{
		{
			name:   "no documents",
			counts: nil,
			expect: types.KNOWLEDGE_BASE_STATUS_PENDING,
		},
		{
			name: "any active document wins",
			counts: []types.DocumentStatusCount{
				{Status: types.DOCUMENT_STATUS_INDEXED, Count: 3},
				{Status: types.DOCUMENT_STATUS_PROCESSING, Count: 1},
				{Status: types.DOCUMENT_STATUS_ERROR, Count: 2},
			},
			expect: types.KNOWLEDGE_BASE_STATUS_PROCESSING,
		},
		{
			name: "indexed with failures is still ready",
			counts: []types.DocumentStatusCount{
				{Status: types.DOCUMENT_STATUS_INDEXED, Count: 1},
				{Status: types.DOCUMENT_STATUS_ERROR, Count: 5},
			},
			expect: types.KNOWLEDGE_BASE_STATUS_READY,
		},
		{
			name: "all failed",
			counts: []types.DocumentStatusCount{
				{Status: types.DOCUMENT_STATUS_ERROR, Count: 2},
			},
			expect: types.KNOWLEDGE_BASE_STATUS_ERROR,
		},
		{
			name: "pending only",
			counts: []types.DocumentStatusCount{
				{Status: types.DOCUMENT_STATUS_PENDING, Count: 4},
			},
			expect: types.KNOWLEDGE_BASE_STATUS_PROCESSING,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expect, types.DeriveKnowledgeBaseStatus(tt.counts))
		})
	}
}
