package retrieval

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/text/unicode/norm"

	"avangard-rag-api/internal/domain/entity"
	"avangard-rag-api/pkg/logger"
	"avangard-rag-api/pkg/metrics"
	"avangard-rag-api/pkg/tracer"
)

const defaultEmbeddingBatch = 32

// Indexer 文档索引器：抽取文本、分类、自适应分块、向量化并写入向量库。
type Indexer struct {
	extractor TextExtractor
	embedder  Embedder
	vector    VectorRepository

	embeddingBatchSize int
}

// NewIndexer 创建文档索引器。
func NewIndexer(extractor TextExtractor, embedder Embedder, vector VectorRepository, embeddingBatchSize int) *Indexer {
	bs := embeddingBatchSize
	if bs <= 0 {
		bs = defaultEmbeddingBatch
	}
	return &Indexer{
		extractor:          extractor,
		embedder:           embedder,
		vector:             vector,
		embeddingBatchSize: bs,
	}
}

// IndexDocument 解析并索引一份文档，返回判定的内容类别与写入的分块数。
// 重复索引同一文档时会先清除旧分块，保证不残留。
func (i *Indexer) IndexDocument(ctx context.Context, doc *entity.Document, content []byte, mimeType string) (*IndexStats, error) {
	ctx, span := tracer.Start(ctx, "retrieval.IndexDocument")
	defer span.End()

	if doc == nil {
		return nil, fmt.Errorf("document is nil")
	}
	if doc.UserID <= 0 {
		return nil, fmt.Errorf("document user_id is required")
	}

	start := time.Now()

	text, err := i.extractor.Extract(doc.Filename, mimeType, content)
	if err != nil {
		return nil, err
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyDocument
	}

	contentType := ClassifyContent(text, doc.Filename)
	params := ChunkParamsFor(contentType)
	logger.Info(ctx, "document classified",
		"document_id", doc.ID,
		"content_type", contentType,
		"chunk_size", params.Size,
		"chunk_overlap", params.Overlap,
	)

	chunks := SplitText(text, params)
	if len(chunks) == 0 {
		return nil, ErrEmptyDocument
	}

	if err := i.vector.EnsureCollection(ctx); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIndexWriteFailed, err)
	}

	// 清除旧分块，保证重复索引不产生残留
	if err := i.vector.DeleteByFilter(ctx, VectorFilter{DocumentID: doc.ID}); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIndexWriteFailed, err)
	}

	vectors, err := i.embedBatch(ctx, chunks)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIndexWriteFailed, err)
	}

	// 文件名归一化为 NFC，避免同一文件名出现多种 Unicode 表示
	filename := norm.NFC.String(doc.Filename)
	visibility := string(doc.Visibility)

	vectorChunks := make([]*VectorChunk, 0, len(chunks))
	for idx, chunk := range chunks {
		vectorChunks = append(vectorChunks, &VectorChunk{
			ID:             uuid.NewString(),
			DocumentID:     doc.ID,
			UserID:         doc.UserID,
			OrganizationID: doc.OrganizationID,
			Visibility:     visibility,
			Filename:       filename,
			ContentType:    string(contentType),
			Text:           chunk,
			Vector:         vectors[idx],
		})
	}

	if err := i.vector.Insert(ctx, vectorChunks); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIndexWriteFailed, err)
	}

	metrics.IndexingDuration.WithLabelValues(string(contentType)).Observe(time.Since(start).Seconds())
	metrics.IndexedChunks.WithLabelValues(string(contentType)).Observe(float64(len(vectorChunks)))
	logger.Info(ctx, "document indexed",
		"document_id", doc.ID,
		"filename", filename,
		"content_type", contentType,
		"chunks", len(vectorChunks),
	)

	return &IndexStats{ContentType: contentType, Chunks: len(vectorChunks)}, nil
}

// DeleteDocument 删除文档的全部分块。
// 优先按 document_id 删除；对早期缺少 document_id 的数据回退为按文件名删除，
// 文件名同时尝试 NFC 与 NFD 两种归一化形式。
func (i *Indexer) DeleteDocument(ctx context.Context, documentID, filename string) error {
	ctx, span := tracer.Start(ctx, "retrieval.DeleteDocument")
	defer span.End()

	deleted := false

	if documentID != "" {
		if err := i.vector.DeleteByFilter(ctx, VectorFilter{DocumentID: documentID}); err != nil {
			logger.Warn(ctx, "delete by document_id failed", "document_id", documentID, "error", err)
		} else {
			deleted = true
		}
	}

	if filename != "" {
		for _, form := range []norm.Form{norm.NFC, norm.NFD} {
			normalized := form.String(filename)
			if err := i.vector.DeleteByFilter(ctx, VectorFilter{Filename: normalized}); err != nil {
				logger.Warn(ctx, "delete by filename failed", "filename", normalized, "error", err)
				continue
			}
			deleted = true
		}
	}

	if !deleted {
		return fmt.Errorf("%w: document %s", ErrIndexWriteFailed, documentID)
	}
	return nil
}

func (i *Indexer) embedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += i.embeddingBatchSize {
		end := start + i.embeddingBatchSize
		if end > len(texts) {
			end = len(texts)
		}
		vecs, err := i.embedder.EmbedStrings(ctx, texts[start:end])
		if err != nil {
			return nil, err
		}
		if len(vecs) != end-start {
			return nil, fmt.Errorf("embedding count mismatch: want %d, got %d", end-start, len(vecs))
		}
		out = append(out, vecs...)
	}
	return out, nil
}
