package process

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	cmap "github.com/orcaman/concurrent-map/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prodpilot/prodpilot/pkg/chunker"
	"github.com/prodpilot/prodpilot/pkg/types"
	"github.com/prodpilot/prodpilot/pkg/utils"
)

func TestBuildChunkRowsSortedByPosition(t *testing.T) {
	utils.SetupIDWorker(1)

	kb := &types.KnowledgeBase{ID: "kb1"}
	doc := &types.Document{ID: "doc1", KnowledgeBaseID: "kb1"}

	// deliberately out of order
	pieces := []chunker.Piece{
		{Position: 2, Content: "third", StartChar: 800, EndChar: 1200, TokenCount: 3},
		{Position: 0, Content: "first", StartChar: 0, EndChar: 500, TokenCount: 1},
		{Position: 1, Content: "second", StartChar: 400, EndChar: 900, TokenCount: 2},
	}
	vectors := [][]float32{{0.3}, {0.1}, {0.2}}

	chunks := buildChunkRows(kb, doc, pieces, vectors)
	require.Len(t, chunks, 3)

	for i, c := range chunks {
		assert.Equal(t, i, c.Position)
		assert.Equal(t, "kb1", c.KnowledgeBaseID)
		assert.Equal(t, "doc1", c.DocumentID)
		assert.NotEmpty(t, c.ID)
	}
	assert.Equal(t, "first", chunks[0].Content)
	assert.Equal(t, "second", chunks[1].Content)
	assert.Equal(t, "third", chunks[2].Content)

	// vectors stay attached to their piece
	assert.Equal(t, []float32{0.1}, chunks[0].Embedding.Slice())
	assert.Equal(t, []float32{0.3}, chunks[2].Embedding.Slice())
}

func TestCheckProcessSingleFlight(t *testing.T) {
	p := &DocumentProcess{processing: cmap.New[struct{}]()}

	var entered int32
	start := make(chan struct{})
	release := make(chan struct{})

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			p.CheckProcess("doc1", func() {
				atomic.AddInt32(&entered, 1)
				<-release
			})
		}()
	}

	close(start)
	for atomic.LoadInt32(&entered) == 0 {
		time.Sleep(time.Millisecond)
	}
	time.Sleep(time.Millisecond * 20) // let the losers hit the lock
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&entered))

	// lock is released after the handler returns
	p.CheckProcess("doc1", func() {
		atomic.AddInt32(&entered, 1)
	})
	assert.Equal(t, int32(2), atomic.LoadInt32(&entered))
}
