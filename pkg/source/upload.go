package source

import (
	"context"
	"fmt"
	"mime"
	"net/http"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/prodpilot/prodpilot/pkg/types"
)

// DefaultMaxUploadSize 单个上传文件的大小上限
const DefaultMaxUploadSize = 10 << 20

// allowedMimeTypes 允许入库的文本类型
var allowedMimeTypes = map[string]bool{
	"text/plain":       true,
	"text/markdown":    true,
	"text/csv":         true,
	"text/html":        true,
	"text/xml":         true,
	"application/json": true,
	"application/xml":  true,
	"application/yaml": true,
}

// UploadedFile 内存中的上传文件
type UploadedFile struct {
	Name string
	Data []byte
}

type UploadAdapter struct {
	files   []UploadedFile
	maxSize int64
}

func NewUploadAdapter(files []UploadedFile, maxSize int64) *UploadAdapter {
	if maxSize <= 0 {
		maxSize = DefaultMaxUploadSize
	}
	return &UploadAdapter{files: files, maxSize: maxSize}
}

// Fetch validates each file independently. A rejected file is reported in
// Result.Skipped and never aborts the batch.
func (s *UploadAdapter) Fetch(ctx context.Context) (Result, error) {
	var res Result
	for _, f := range s.files {
		select {
		case <-ctx.Done():
			return res, ctx.Err()
		default:
		}

		mimeType, ok := detectMimeType(f.Name, f.Data)
		if !ok {
			res.Skipped = append(res.Skipped, SkippedItem{
				Name:   f.Name,
				Reason: fmt.Sprintf("unsupported format %s, only text documents can be indexed", mimeType),
			})
			continue
		}
		if int64(len(f.Data)) > s.maxSize {
			res.Skipped = append(res.Skipped, SkippedItem{
				Name:   f.Name,
				Reason: fmt.Sprintf("file exceeds the %d byte limit", s.maxSize),
			})
			continue
		}
		if !utf8.Valid(f.Data) {
			res.Skipped = append(res.Skipped, SkippedItem{
				Name:   f.Name,
				Reason: "file is not valid UTF-8 text",
			})
			continue
		}

		res.Items = append(res.Items, Item{
			Name:    f.Name,
			Content: string(f.Data),
			Metadata: types.SourceMetadata{
				File: &types.FileMeta{
					FileName: f.Name,
					MimeType: mimeType,
					FileSize: int64(len(f.Data)),
				},
			},
		})
	}
	return res, nil
}

// detectMimeType resolves the type from the file extension first, falling
// back to content sniffing for extensionless files.
func detectMimeType(name string, data []byte) (string, bool) {
	ext := strings.ToLower(filepath.Ext(name))
	if ext != "" {
		if byExt := mime.TypeByExtension(ext); byExt != "" {
			base := strings.TrimSpace(strings.SplitN(byExt, ";", 2)[0])
			return base, allowedMimeTypes[base]
		}
		// common text extensions the platform mime table may not know
		switch ext {
		case ".md", ".markdown":
			return "text/markdown", true
		case ".txt", ".log", ".go", ".py", ".js", ".ts", ".java", ".rs", ".rb", ".sh", ".sql", ".toml", ".ini", ".cfg":
			return "text/plain", true
		case ".yaml", ".yml":
			return "application/yaml", true
		}
	}

	sniffed := strings.TrimSpace(strings.SplitN(http.DetectContentType(data), ";", 2)[0])
	return sniffed, allowedMimeTypes[sniffed]
}
