// Package source turns external document origins (file uploads, GitHub
// repositories) into a uniform set of ingestable items.
package source

import (
	"context"

	"github.com/prodpilot/prodpilot/pkg/types"
)

// Item 一份待入库的文档原文及其来源信息
type Item struct {
	Name     string
	Content  string
	Metadata types.SourceMetadata
}

// SkippedItem 被跳过的条目及原因，例如二进制或不支持的类型
type SkippedItem struct {
	Name   string `json:"name"`
	Reason string `json:"reason"`
}

type Result struct {
	Items   []Item
	Skipped []SkippedItem
}

// Adapter fetches items from a source. Per-item problems are reported in
// Result.Skipped; an error means the source as a whole was unreachable.
type Adapter interface {
	Fetch(ctx context.Context) (Result, error)
}
