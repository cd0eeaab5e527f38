package source_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prodpilot/prodpilot/pkg/source"
)

func TestUploadAdapterSkipAndContinue(t *testing.T) {
	files := []source.UploadedFile{
		{Name: "notes.md", Data: []byte("# hello\nworld")},
		{Name: "logo.png", Data: []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A, 0x00, 0x00}},
		{Name: "data.txt", Data: []byte("plain text")},
	}

	res, err := source.NewUploadAdapter(files, 0).Fetch(context.Background())
	require.NoError(t, err)

	require.Len(t, res.Items, 2)
	assert.Equal(t, "notes.md", res.Items[0].Name)
	assert.Equal(t, "# hello\nworld", res.Items[0].Content)
	require.NotNil(t, res.Items[0].Metadata.File)
	assert.Equal(t, "text/markdown", res.Items[0].Metadata.File.MimeType)
	assert.Equal(t, int64(13), res.Items[0].Metadata.File.FileSize)
	assert.Equal(t, "data.txt", res.Items[1].Name)

	require.Len(t, res.Skipped, 1)
	assert.Equal(t, "logo.png", res.Skipped[0].Name)
	assert.Contains(t, res.Skipped[0].Reason, "unsupported format")
}

func TestUploadAdapterSizeLimit(t *testing.T) {
	big := make([]byte, 20)
	for i := range big {
		big[i] = 'a'
	}

	res, err := source.NewUploadAdapter([]source.UploadedFile{{Name: "big.txt", Data: big}}, 10).Fetch(context.Background())
	require.NoError(t, err)
	assert.Empty(t, res.Items)
	require.Len(t, res.Skipped, 1)
	assert.Contains(t, res.Skipped[0].Reason, "byte limit")
}

func TestUploadAdapterInvalidUTF8(t *testing.T) {
	res, err := source.NewUploadAdapter([]source.UploadedFile{
		{Name: "broken.txt", Data: []byte{'h', 'i', 0xff, 0xfe}},
	}, 0).Fetch(context.Background())
	require.NoError(t, err)
	assert.Empty(t, res.Items)
	require.Len(t, res.Skipped, 1)
	assert.Contains(t, res.Skipped[0].Reason, "UTF-8")
}
