package source

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/prodpilot/prodpilot/pkg/types"
)

const (
	DefaultGithubAPIBase = "https://api.github.com"

	githubFetchRetries = 3
	githubMaxFileSize  = 1 << 20
)

// textFileExtensions GitHub 导入时允许的文本类文件后缀
var textFileExtensions = map[string]bool{
	".md": true, ".markdown": true, ".txt": true, ".rst": true, ".adoc": true,
	".go": true, ".py": true, ".js": true, ".ts": true, ".tsx": true, ".jsx": true,
	".java": true, ".rs": true, ".rb": true, ".c": true, ".h": true, ".cpp": true,
	".cs": true, ".php": true, ".swift": true, ".kt": true, ".scala": true,
	".sh": true, ".sql": true, ".html": true, ".css": true, ".xml": true,
	".json": true, ".yaml": true, ".yml": true, ".toml": true, ".ini": true, ".cfg": true,
	".proto": true, ".graphql": true, ".tf": true, ".dockerfile": true,
}

// GithubAdapter walks a repository tree via the REST API and yields one
// item per text file, capturing the commit snapshot at fetch time.
type GithubAdapter struct {
	apiBase string
	repoURL string
	owner   string
	repo    string
	branch  string
	token   string
	client  *http.Client
}

type GithubConfig struct {
	APIBase string
	RepoURL string
	Branch  string
	Token   string
	Timeout time.Duration
}

func NewGithubAdapter(cfg GithubConfig) (*GithubAdapter, error) {
	owner, repo, err := parseRepoURL(cfg.RepoURL)
	if err != nil {
		return nil, err
	}
	if cfg.APIBase == "" {
		cfg.APIBase = DefaultGithubAPIBase
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = time.Second * 30
	}
	return &GithubAdapter{
		apiBase: strings.TrimSuffix(cfg.APIBase, "/"),
		repoURL: cfg.RepoURL,
		owner:   owner,
		repo:    repo,
		branch:  cfg.Branch,
		token:   cfg.Token,
		client:  &http.Client{Timeout: cfg.Timeout},
	}, nil
}

func parseRepoURL(repoURL string) (string, string, error) {
	u, err := url.Parse(strings.TrimSpace(repoURL))
	if err != nil {
		return "", "", fmt.Errorf("invalid repository url: %w", err)
	}
	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("repository url must look like https://github.com/owner/repo")
	}
	return parts[0], strings.TrimSuffix(parts[1], ".git"), nil
}

type repoResponse struct {
	DefaultBranch string `json:"default_branch"`
}

type branchResponse struct {
	Commit struct {
		SHA string `json:"sha"`
	} `json:"commit"`
}

type treeEntry struct {
	Path string `json:"path"`
	Type string `json:"type"`
	SHA  string `json:"sha"`
	Size int64  `json:"size"`
}

type treeResponse struct {
	Tree      []treeEntry `json:"tree"`
	Truncated bool        `json:"truncated"`
}

type blobResponse struct {
	Content  string `json:"content"`
	Encoding string `json:"encoding"`
}

// Fetch resolves the branch head, walks the tree and downloads every
// text-like blob. Blob failures after retries skip the file, not the batch.
func (s *GithubAdapter) Fetch(ctx context.Context) (Result, error) {
	var res Result

	branch := s.branch
	if branch == "" {
		var repo repoResponse
		if err := s.getJSON(ctx, fmt.Sprintf("/repos/%s/%s", s.owner, s.repo), &repo); err != nil {
			return res, fmt.Errorf("failed to resolve repository: %w", err)
		}
		branch = repo.DefaultBranch
	}

	var head branchResponse
	if err := s.getJSON(ctx, fmt.Sprintf("/repos/%s/%s/branches/%s", s.owner, s.repo, url.PathEscape(branch)), &head); err != nil {
		return res, fmt.Errorf("failed to resolve branch %s: %w", branch, err)
	}
	commitSHA := head.Commit.SHA

	var tree treeResponse
	if err := s.getJSON(ctx, fmt.Sprintf("/repos/%s/%s/git/trees/%s?recursive=1", s.owner, s.repo, commitSHA), &tree); err != nil {
		return res, fmt.Errorf("failed to list repository tree: %w", err)
	}
	if tree.Truncated {
		slog.Warn("github tree listing truncated, large repository partially imported",
			slog.String("repo", s.repoURL), slog.String("commit", commitSHA))
	}

	for _, entry := range tree.Tree {
		if entry.Type != "blob" {
			continue
		}
		if !isTextPath(entry.Path) {
			continue
		}
		if entry.Size > githubMaxFileSize {
			res.Skipped = append(res.Skipped, SkippedItem{
				Name:   entry.Path,
				Reason: fmt.Sprintf("file exceeds the %d byte import limit", githubMaxFileSize),
			})
			continue
		}

		data, err := s.fetchBlob(ctx, entry.SHA)
		if err != nil {
			if ctx.Err() != nil {
				return res, ctx.Err()
			}
			res.Skipped = append(res.Skipped, SkippedItem{
				Name:   entry.Path,
				Reason: fmt.Sprintf("failed to download file: %s", err.Error()),
			})
			continue
		}
		if isLikelyBinary(data) {
			res.Skipped = append(res.Skipped, SkippedItem{
				Name:   entry.Path,
				Reason: "binary content cannot be indexed",
			})
			continue
		}

		res.Items = append(res.Items, Item{
			Name:    entry.Path,
			Content: string(data),
			Metadata: types.SourceMetadata{
				Github: &types.GithubMeta{
					RepoURL:   s.repoURL,
					Branch:    branch,
					Path:      entry.Path,
					CommitSHA: commitSHA,
				},
			},
		})
	}

	return res, nil
}

func (s *GithubAdapter) fetchBlob(ctx context.Context, sha string) ([]byte, error) {
	var blob blobResponse
	if err := s.getJSON(ctx, fmt.Sprintf("/repos/%s/%s/git/blobs/%s", s.owner, s.repo, sha), &blob); err != nil {
		return nil, err
	}
	if blob.Encoding == "base64" {
		return base64.StdEncoding.DecodeString(strings.ReplaceAll(blob.Content, "\n", ""))
	}
	return []byte(blob.Content), nil
}

// getJSON issues a GET with bounded retries on 5xx and transport errors.
func (s *GithubAdapter) getJSON(ctx context.Context, path string, out any) error {
	var lastErr error
	backoff := time.Second

	for attempt := 0; attempt < githubFetchRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
			backoff *= 2
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.apiBase+path, nil)
		if err != nil {
			return err
		}
		req.Header.Set("Accept", "application/vnd.github+json")
		req.Header.Set("X-GitHub-Api-Version", "2022-11-28")
		if s.token != "" {
			req.Header.Set("Authorization", "Bearer "+s.token)
		}

		resp, err := s.client.Do(req)
		if err != nil {
			lastErr = err
			continue
		}

		body, err := io.ReadAll(io.LimitReader(resp.Body, githubMaxFileSize*2))
		resp.Body.Close()
		if err != nil {
			lastErr = err
			continue
		}

		switch {
		case resp.StatusCode == http.StatusOK:
			return json.Unmarshal(body, out)
		case resp.StatusCode >= http.StatusInternalServerError:
			lastErr = fmt.Errorf("github responded %d", resp.StatusCode)
			continue
		default:
			// 4xx is not retryable
			return fmt.Errorf("github responded %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
		}
	}
	return lastErr
}

func isTextPath(path string) bool {
	base := strings.ToLower(path[strings.LastIndex(path, "/")+1:])
	if base == "dockerfile" || base == "makefile" || base == "license" || base == "readme" {
		return true
	}
	idx := strings.LastIndex(base, ".")
	if idx < 0 {
		return false
	}
	return textFileExtensions[base[idx:]]
}

func isLikelyBinary(data []byte) bool {
	if len(data) == 0 {
		return false
	}
	if !utf8.Valid(data) {
		return true
	}
	for _, b := range data {
		if b == 0 {
			return true
		}
	}
	return false
}
