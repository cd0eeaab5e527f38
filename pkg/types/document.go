package types

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"

	sq "github.com/Masterminds/squirrel"
)

type DocumentSource string

const (
	DOCUMENT_SOURCE_FILE_UPLOAD DocumentSource = "file_upload"
	DOCUMENT_SOURCE_GITHUB      DocumentSource = "github"
)

type DocumentStatus string

const (
	DOCUMENT_STATUS_PENDING    DocumentStatus = "pending"
	DOCUMENT_STATUS_PROCESSING DocumentStatus = "processing"
	DOCUMENT_STATUS_INDEXED    DocumentStatus = "indexed"
	DOCUMENT_STATUS_ERROR      DocumentStatus = "error"
)

func (s DocumentStatus) String() string {
	return string(s)
}

// FileMeta 上传文件的来源信息
type FileMeta struct {
	FileName string `json:"file_name"`
	MimeType string `json:"mime_type"`
	FileSize int64  `json:"file_size"`
}

// GithubMeta GitHub 导入文件的来源信息
type GithubMeta struct {
	RepoURL   string `json:"repo_url"`
	Branch    string `json:"branch"`
	Path      string `json:"path"`
	CommitSHA string `json:"commit_sha"`
}

// SourceMetadata 按来源类型区分的元数据，以 jsonb 存储
type SourceMetadata struct {
	File   *FileMeta   `json:"file,omitempty"`
	Github *GithubMeta `json:"github,omitempty"`
}

func (m SourceMetadata) Value() (driver.Value, error) {
	return json.Marshal(m)
}

func (m *SourceMetadata) Scan(src interface{}) error {
	switch src := src.(type) {
	case []byte:
		return json.Unmarshal(src, m)
	case string:
		return json.Unmarshal([]byte(src), m)
	case nil:
		return nil
	}
	return fmt.Errorf("pp: cannot convert %T to SourceMetadata", src)
}

type Document struct {
	ID              string         `json:"id" db:"id"`
	KnowledgeBaseID string         `json:"knowledge_base_id" db:"knowledge_base_id"`
	Name            string         `json:"name" db:"name"`
	Source          DocumentSource `json:"source" db:"source"`
	Metadata        SourceMetadata `json:"metadata" db:"metadata"`
	Content         string         `json:"-" db:"content"` // 保留原文，供重新索引使用
	Status          DocumentStatus `json:"status" db:"status"`
	Error           string         `json:"error,omitempty" db:"error"`
	ChunkCount      int            `json:"chunk_count" db:"chunk_count"`
	RetryTimes      int            `json:"-" db:"retry_times"`
	CreatedAt       int64          `json:"created_at" db:"created_at"`
	UpdatedAt       int64          `json:"updated_at" db:"updated_at"`
}

type GetDocumentOptions struct {
	ID              string
	IDs             []string
	KnowledgeBaseID string
	Source          DocumentSource
	Status          DocumentStatus
	Statuses        []DocumentStatus
}

func (opts GetDocumentOptions) Apply(query *sq.SelectBuilder) {
	if opts.ID != "" {
		*query = query.Where(sq.Eq{"id": opts.ID})
	} else if len(opts.IDs) > 0 {
		*query = query.Where(sq.Eq{"id": opts.IDs})
	}
	if opts.KnowledgeBaseID != "" {
		*query = query.Where(sq.Eq{"knowledge_base_id": opts.KnowledgeBaseID})
	}
	if opts.Source != "" {
		*query = query.Where(sq.Eq{"source": opts.Source})
	}
	if opts.Status != "" {
		*query = query.Where(sq.Eq{"status": opts.Status})
	} else if len(opts.Statuses) > 0 {
		*query = query.Where(sq.Eq{"status": opts.Statuses})
	}
}

// DocumentStatusCount 按状态分组的文档数量
type DocumentStatusCount struct {
	Status DocumentStatus `json:"status" db:"status"`
	Count  int            `json:"count" db:"count"`
}
