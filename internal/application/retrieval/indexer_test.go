package retrieval

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/unicode/norm"

	"avangard-rag-api/internal/domain/entity"
)

func testDocument() *entity.Document {
	return &entity.Document{
		ID:         "doc-1",
		UserID:     42,
		Filename:   "contract.txt",
		Visibility: entity.VisibilityPrivate,
	}
}

func TestIndexerEmptyDocument(t *testing.T) {
	indexer := NewIndexer(&fakeExtractor{}, &fakeEmbedder{}, &fakeVectorRepo{}, 0)

	_, err := indexer.IndexDocument(context.Background(), testDocument(), []byte("   \n  "), "text/plain")
	assert.ErrorIs(t, err, ErrEmptyDocument)
}

func TestIndexerUnsupportedContentPassesThrough(t *testing.T) {
	extractor := &fakeExtractor{
		extractFunc: func(filename, mimeType string, content []byte) (string, error) {
			return "", ErrUnsupportedContent
		},
	}
	indexer := NewIndexer(extractor, &fakeEmbedder{}, &fakeVectorRepo{}, 0)

	_, err := indexer.IndexDocument(context.Background(), testDocument(), []byte("binary"), "image/png")
	assert.ErrorIs(t, err, ErrUnsupportedContent)
}

func TestIndexerIndexesWithMetadata(t *testing.T) {
	vector := &fakeVectorRepo{}
	doc := testDocument()
	doc.OrganizationID = 7
	doc.Visibility = entity.VisibilityOrganization
	text := "Настоящий договор определяет условия. Согласно закону каждый пункт обязателен."

	indexer := NewIndexer(&fakeExtractor{}, &fakeEmbedder{}, vector, 0)
	stats, err := indexer.IndexDocument(context.Background(), doc, []byte(text), "text/plain")
	require.NoError(t, err)

	assert.Equal(t, entity.ContentTypeLegal, stats.ContentType, "contract filename hints legal")
	assert.Equal(t, len(vector.inserted), stats.Chunks)
	require.NotEmpty(t, vector.inserted)

	for _, chunk := range vector.inserted {
		assert.NotEmpty(t, chunk.ID)
		assert.Equal(t, "doc-1", chunk.DocumentID)
		assert.Equal(t, int64(42), chunk.UserID)
		assert.Equal(t, int64(7), chunk.OrganizationID)
		assert.Equal(t, string(entity.VisibilityOrganization), chunk.Visibility)
		assert.Equal(t, string(entity.ContentTypeLegal), chunk.ContentType)
		assert.NotEmpty(t, chunk.Text)
		assert.NotEmpty(t, chunk.Vector)
	}
}

func TestIndexerDeletesOldChunksBeforeInsert(t *testing.T) {
	vector := &fakeVectorRepo{}
	indexer := NewIndexer(&fakeExtractor{}, &fakeEmbedder{}, vector, 0)

	_, err := indexer.IndexDocument(context.Background(), testDocument(), []byte("обычный текст документа"), "text/plain")
	require.NoError(t, err)

	require.Len(t, vector.deleted, 1)
	assert.Equal(t, "doc-1", vector.deleted[0].DocumentID)
}

func TestIndexerNormalizesFilenameToNFC(t *testing.T) {
	vector := &fakeVectorRepo{}
	doc := testDocument()
	doc.Filename = norm.NFD.String("отчёт.txt") // 分解形式

	indexer := NewIndexer(&fakeExtractor{}, &fakeEmbedder{}, vector, 0)
	_, err := indexer.IndexDocument(context.Background(), doc, []byte("обычный текст документа"), "text/plain")
	require.NoError(t, err)

	require.NotEmpty(t, vector.inserted)
	assert.Equal(t, norm.NFC.String("отчёт.txt"), vector.inserted[0].Filename)
}

func TestIndexerEmbedsInBatches(t *testing.T) {
	embedder := &fakeEmbedder{}
	vector := &fakeVectorRepo{}
	// FAQ 小分块，保证产生多于一个 embedding 批次
	var b strings.Builder
	b.WriteString("Вопрос: раз? Ответ: раз. Вопрос: два? Ответ: два. faq faq faq\n")
	for i := 0; i < 80; i++ {
		b.WriteString("Вопрос: как работает система? Ответ: система работает вот так. ")
	}

	indexer := NewIndexer(&fakeExtractor{}, embedder, vector, 4)
	doc := testDocument()
	doc.Filename = "faq.txt"
	stats, err := indexer.IndexDocument(context.Background(), doc, []byte(b.String()), "text/plain")
	require.NoError(t, err)

	assert.Equal(t, entity.ContentTypeFAQ, stats.ContentType)
	require.Greater(t, len(embedder.calls), 1, "chunks must be embedded in batches")
	for _, call := range embedder.calls {
		assert.LessOrEqual(t, len(call), 4)
	}
}

func TestIndexerInsertFailureIsIndexWriteFailed(t *testing.T) {
	vector := &fakeVectorRepo{
		insertFunc: func(ctx context.Context, chunks []*VectorChunk) error {
			return errors.New("milvus down")
		},
	}
	indexer := NewIndexer(&fakeExtractor{}, &fakeEmbedder{}, vector, 0)

	_, err := indexer.IndexDocument(context.Background(), testDocument(), []byte("обычный текст документа"), "text/plain")
	assert.ErrorIs(t, err, ErrIndexWriteFailed)
}

func TestIndexerDeleteDocumentByID(t *testing.T) {
	vector := &fakeVectorRepo{}
	indexer := NewIndexer(&fakeExtractor{}, &fakeEmbedder{}, vector, 0)

	err := indexer.DeleteDocument(context.Background(), "doc-1", "")
	require.NoError(t, err)
	require.Len(t, vector.deleted, 1)
	assert.Equal(t, "doc-1", vector.deleted[0].DocumentID)
}

func TestIndexerDeleteDocumentFilenameFallbackBothForms(t *testing.T) {
	vector := &fakeVectorRepo{
		deleteFunc: func(ctx context.Context, filter VectorFilter) error {
			if filter.DocumentID != "" {
				return errors.New("no such field")
			}
			return nil
		},
	}
	indexer := NewIndexer(&fakeExtractor{}, &fakeEmbedder{}, vector, 0)

	err := indexer.DeleteDocument(context.Background(), "doc-legacy", "отчёт.txt")
	require.NoError(t, err, "filename fallback must succeed")

	var filenames []string
	for _, f := range vector.deleted {
		if f.Filename != "" {
			filenames = append(filenames, f.Filename)
		}
	}
	require.Len(t, filenames, 2, "both NFC and NFD forms must be attempted")
	assert.Contains(t, filenames, norm.NFC.String("отчёт.txt"))
	assert.Contains(t, filenames, norm.NFD.String("отчёт.txt"))
}

func TestIndexerDeleteDocumentAllAttemptsFail(t *testing.T) {
	vector := &fakeVectorRepo{
		deleteFunc: func(ctx context.Context, filter VectorFilter) error {
			return errors.New("milvus down")
		},
	}
	indexer := NewIndexer(&fakeExtractor{}, &fakeEmbedder{}, vector, 0)

	err := indexer.DeleteDocument(context.Background(), "doc-1", "file.txt")
	assert.ErrorIs(t, err, ErrIndexWriteFailed)
}
