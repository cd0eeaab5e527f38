package source_test

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prodpilot/prodpilot/pkg/source"
)

type stubBlob struct {
	path string
	data []byte
}

func newGithubStub(t *testing.T, blobs []stubBlob, flakyBlobSHA string) *httptest.Server {
	t.Helper()

	shaOf := func(i int) string { return fmt.Sprintf("blob%04d", i) }
	var flakyCalls int32

	mux := http.NewServeMux()
	mux.HandleFunc("/repos/owner/repo", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"default_branch": "main"})
	})
	mux.HandleFunc("/repos/owner/repo/branches/main", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"commit": map[string]any{"sha": "headsha"}})
	})
	mux.HandleFunc("/repos/owner/repo/git/trees/headsha", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "1", r.URL.Query().Get("recursive"))
		var tree []map[string]any
		for i, b := range blobs {
			tree = append(tree, map[string]any{
				"path": b.path,
				"type": "blob",
				"sha":  shaOf(i),
				"size": len(b.data),
			})
		}
		tree = append(tree, map[string]any{"path": "src", "type": "tree", "sha": "treesha"})
		json.NewEncoder(w).Encode(map[string]any{"tree": tree})
	})
	for i, b := range blobs {
		i, b := i, b
		mux.HandleFunc("/repos/owner/repo/git/blobs/"+shaOf(i), func(w http.ResponseWriter, r *http.Request) {
			if shaOf(i) == flakyBlobSHA && atomic.AddInt32(&flakyCalls, 1) == 1 {
				w.WriteHeader(http.StatusBadGateway)
				return
			}
			json.NewEncoder(w).Encode(map[string]any{
				"content":  base64.StdEncoding.EncodeToString(b.data),
				"encoding": "base64",
			})
		})
	}

	return httptest.NewServer(mux)
}

func TestGithubAdapterImport(t *testing.T) {
	srv := newGithubStub(t, []stubBlob{
		{path: "README.md", data: []byte("# project\ndocs here")},
		{path: "main.go", data: []byte("package main")},
		{path: "assets/logo.bin", data: []byte{0x00, 0x01, 0x02}},
	}, "")
	defer srv.Close()

	adapter, err := source.NewGithubAdapter(source.GithubConfig{
		APIBase: srv.URL,
		RepoURL: "https://github.com/owner/repo",
	})
	require.NoError(t, err)

	res, err := adapter.Fetch(context.Background())
	require.NoError(t, err)

	// logo.bin is filtered by extension before any blob download
	require.Len(t, res.Items, 2)
	assert.Equal(t, "README.md", res.Items[0].Name)
	assert.Equal(t, "# project\ndocs here", res.Items[0].Content)
	require.NotNil(t, res.Items[0].Metadata.Github)
	assert.Equal(t, "main", res.Items[0].Metadata.Github.Branch)
	assert.Equal(t, "headsha", res.Items[0].Metadata.Github.CommitSHA)
	assert.Equal(t, "README.md", res.Items[0].Metadata.Github.Path)
	assert.Equal(t, "https://github.com/owner/repo", res.Items[0].Metadata.Github.RepoURL)
	assert.Empty(t, res.Skipped)
}

func TestGithubAdapterRetriesTransientFailure(t *testing.T) {
	srv := newGithubStub(t, []stubBlob{
		{path: "doc.md", data: []byte("content")},
	}, "blob0000")
	defer srv.Close()

	adapter, err := source.NewGithubAdapter(source.GithubConfig{
		APIBase: srv.URL,
		RepoURL: "https://github.com/owner/repo",
	})
	require.NoError(t, err)

	res, err := adapter.Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, res.Items, 1)
	assert.Equal(t, "content", res.Items[0].Content)
}

func TestGithubAdapterBinarySniff(t *testing.T) {
	srv := newGithubStub(t, []stubBlob{
		{path: "weird.md", data: []byte{'a', 0x00, 'b'}},
	}, "")
	defer srv.Close()

	adapter, err := source.NewGithubAdapter(source.GithubConfig{
		APIBase: srv.URL,
		RepoURL: "https://github.com/owner/repo",
	})
	require.NoError(t, err)

	res, err := adapter.Fetch(context.Background())
	require.NoError(t, err)
	assert.Empty(t, res.Items)
	require.Len(t, res.Skipped, 1)
	assert.Equal(t, "weird.md", res.Skipped[0].Name)
	assert.Contains(t, res.Skipped[0].Reason, "binary")
}

func TestGithubAdapterRejectsBadRepoURL(t *testing.T) {
	_, err := source.NewGithubAdapter(source.GithubConfig{RepoURL: "https://github.com/just-owner"})
	require.Error(t, err)

	_, err = source.NewGithubAdapter(source.GithubConfig{RepoURL: "://bad"})
	require.Error(t, err)
}
