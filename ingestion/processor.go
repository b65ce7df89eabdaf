package ingestion

import (
	"context"
	"strings"

	"github.com/poiesic/recall/chunk"
	"github.com/poiesic/recall/core"
	"github.com/poiesic/recall/extract"
)

// run executes one ingestion task to completion. Errors before chunking are
// fatal to the task (the document row stays, with zero chunks); errors on an
// individual chunk are logged and the loop continues. The task always ends,
// possibly with fewer chunks than planned.
func (p *Pipeline) run(ctx context.Context, documentId core.ID, data []byte) {
	logger := p.logger.With("document", documentId)

	doc, err := p.documents.GetDocument(ctx, documentId)
	if err != nil {
		logger.Error("ingestion aborted: document not found", "err", err)
		return
	}

	result, err := extract.Extract(ctx, data, doc.FileType)
	if err != nil {
		logger.Error("ingestion aborted: text extraction failed", "err", err)
		return
	}
	logger.Info("text extracted", "words", result.WordCount, "pages", result.PageCount)

	doc.Content = result.Text
	doc.WordCount = result.WordCount
	doc.PageCount = result.PageCount
	if _, err := p.documents.UpdateDocument(ctx, doc); err != nil {
		logger.Error("ingestion aborted: failed to store extracted text", "err", err)
		return
	}

	segments := chunk.SplitSegments(result.Text, p.maxTokens)
	logger.Info("chunking complete", "chunks", len(segments))

	pages := newPageIndex(result.Pages)

	persisted := 0
	for i, seg := range segments {
		if strings.TrimSpace(seg.Text) == "" {
			continue
		}

		vector, err := p.embedder.EmbedText(ctx, seg.Text)
		if err != nil {
			logger.Warn("skipping chunk: embedding failed", "chunk", i, "err", err)
			continue
		}

		record := &core.DocumentChunk{
			DocumentId: doc.Id,
			ChunkIndex: i,
			Content:    seg.Text,
			PageNumber: pages.pageFor(seg.Start),
			Vector:     vector,
		}
		if _, err := p.documents.AddChunk(ctx, record); err != nil {
			logger.Warn("skipping chunk: persistence failed", "chunk", i, "err", err)
			continue
		}
		persisted++
	}

	logger.Info("ingestion done", "chunks", len(segments), "persisted", persisted)
}

// pageIndex maps word offsets in the full extracted text back to source page
// numbers.
type pageIndex struct {
	// bounds[i] is the word offset where page i+1's text begins.
	bounds  []int
	numbers []int
}

func newPageIndex(pages []extract.Page) *pageIndex {
	idx := &pageIndex{}
	offset := 0
	for _, page := range pages {
		idx.bounds = append(idx.bounds, offset)
		idx.numbers = append(idx.numbers, page.Number)
		offset += len(strings.Fields(page.Text))
	}
	return idx
}

// pageFor returns the page number containing the given word offset, or 0 for
// unpaginated documents.
func (idx *pageIndex) pageFor(wordOffset int) int {
	if len(idx.bounds) == 0 {
		return 0
	}
	page := idx.numbers[0]
	for i, bound := range idx.bounds {
		if wordOffset < bound {
			break
		}
		page = idx.numbers[i]
	}
	return page
}
