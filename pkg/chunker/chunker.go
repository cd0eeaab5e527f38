// Package chunker splits document text into fixed-size overlapping pieces
// for embedding and retrieval.
package chunker

import (
	"errors"
	"log/slog"
	"strings"
	"sync"

	"github.com/pkoukk/tiktoken-go"
)

var (
	ErrInvalidConfig = errors.New("chunk overlap must be smaller than chunk size")
)

// Piece 切片结果，位置以 rune 偏移计
type Piece struct {
	Position   int
	Content    string
	StartChar  int
	EndChar    int
	TokenCount int
}

// Split cuts text into rune windows of chunkSize with the given overlap.
// Consecutive pieces share exactly overlap runes. Whitespace-only input
// yields no pieces.
func Split(text string, chunkSize, chunkOverlap int) ([]Piece, error) {
	if chunkSize <= 0 || chunkOverlap < 0 || chunkOverlap >= chunkSize {
		return nil, ErrInvalidConfig
	}

	if strings.TrimSpace(text) == "" {
		return nil, nil
	}

	runes := []rune(text)
	step := chunkSize - chunkOverlap

	var pieces []Piece
	for start := 0; start < len(runes); start += step {
		end := start + chunkSize
		if end > len(runes) {
			end = len(runes)
		}

		content := string(runes[start:end])
		pieces = append(pieces, Piece{
			Position:   len(pieces),
			Content:    content,
			StartChar:  start,
			EndChar:    end,
			TokenCount: TokenCount(content),
		})

		if end == len(runes) {
			break
		}
	}

	return pieces, nil
}

var (
	tokenizerOnce sync.Once
	tokenizer     *tiktoken.Tiktoken
)

// TokenCount counts cl100k_base tokens. Falls back to a rune/4 estimate
// when the encoding dictionary cannot be loaded (e.g. offline).
func TokenCount(text string) int {
	tokenizerOnce.Do(func() {
		enc, err := tiktoken.GetEncoding(tiktoken.MODEL_CL100K_BASE)
		if err != nil {
			slog.Error("failed to load tiktoken encoding", slog.String("error", err.Error()))
			return
		}
		tokenizer = enc
	})

	if tokenizer == nil {
		return (len([]rune(text)) + 3) / 4
	}
	return len(tokenizer.Encode(text, nil, nil))
}
