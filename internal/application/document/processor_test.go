package document

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"avangard-rag-api/internal/application/retrieval"
	"avangard-rag-api/internal/domain/entity"
	"avangard-rag-api/internal/infrastructure/messaging"
)

type stubExtractor struct{ err error }

func (e *stubExtractor) Extract(filename, mimeType string, content []byte) (string, error) {
	if e.err != nil {
		return "", e.err
	}
	return string(content), nil
}

type stubEmbedder struct{ err error }

func (e *stubEmbedder) EmbedStrings(ctx context.Context, texts []string) ([][]float32, error) {
	if e.err != nil {
		return nil, e.err
	}
	vectors := make([][]float32, len(texts))
	for i := range texts {
		vectors[i] = []float32{0.1, 0.2}
	}
	return vectors, nil
}

type stubVectorRepo struct {
	mu       sync.Mutex
	inserted []*retrieval.VectorChunk
	deleted  []retrieval.VectorFilter
}

func (r *stubVectorRepo) EnsureCollection(ctx context.Context) error { return nil }

func (r *stubVectorRepo) Search(ctx context.Context, params *retrieval.VectorSearchParams) ([]*retrieval.VectorSearchResult, error) {
	return nil, nil
}

func (r *stubVectorRepo) Insert(ctx context.Context, chunks []*retrieval.VectorChunk) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.inserted = append(r.inserted, chunks...)
	return nil
}

func (r *stubVectorRepo) DeleteByFilter(ctx context.Context, filter retrieval.VectorFilter) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.deleted = append(r.deleted, filter)
	return nil
}

func indexMessage(t *testing.T, job *messaging.DocumentIndexMessage) *messaging.Message {
	t.Helper()
	msg, err := messaging.NewMessage(job.DocumentID, messaging.TypeDocumentIndex, job.UserID, job.OrganizationID, job)
	require.NoError(t, err)
	return msg
}

func TestHandleIndex_Success(t *testing.T) {
	repo := newFakeDocRepo()
	store := newFakeStore()
	vector := &stubVectorRepo{}
	indexer := retrieval.NewIndexer(&stubExtractor{}, &stubEmbedder{}, vector, 0)
	proc := NewProcessor(repo, indexer, store, nil)

	doc := entity.NewDocument(1, 0, "рецепт.txt", entity.VisibilityPrivate)
	path, err := store.Save(doc.ID, []byte(strings.Repeat("Нарежьте лук и обжарьте на сковороде. ", 5)))
	require.NoError(t, err)
	doc.StoragePath = path
	require.NoError(t, repo.Create(context.Background(), doc))

	err = proc.HandleIndex(context.Background(), indexMessage(t, &messaging.DocumentIndexMessage{
		DocumentID: doc.ID,
		UserID:     1,
	}))
	require.NoError(t, err)

	updated, _ := repo.GetByID(context.Background(), doc.ID)
	require.NotNil(t, updated)
	assert.Equal(t, entity.DocumentStatusIndexed, updated.Status)
	assert.Greater(t, updated.ChunksCount, 0)
	assert.NotEmpty(t, vector.inserted)
}

func TestHandleIndex_DocumentGone(t *testing.T) {
	proc := NewProcessor(newFakeDocRepo(), retrieval.NewIndexer(&stubExtractor{}, &stubEmbedder{}, &stubVectorRepo{}, 0), newFakeStore(), nil)

	err := proc.HandleIndex(context.Background(), indexMessage(t, &messaging.DocumentIndexMessage{
		DocumentID: "missing",
		UserID:     1,
	}))
	assert.NoError(t, err)
}

func TestHandleIndex_EmptyDocumentIsTerminal(t *testing.T) {
	repo := newFakeDocRepo()
	store := newFakeStore()
	indexer := retrieval.NewIndexer(&stubExtractor{}, &stubEmbedder{}, &stubVectorRepo{}, 0)
	proc := NewProcessor(repo, indexer, store, nil)

	doc := entity.NewDocument(1, 0, "empty.txt", entity.VisibilityPrivate)
	path, err := store.Save(doc.ID, []byte("   \n  "))
	require.NoError(t, err)
	doc.StoragePath = path
	require.NoError(t, repo.Create(context.Background(), doc))

	err = proc.HandleIndex(context.Background(), indexMessage(t, &messaging.DocumentIndexMessage{
		DocumentID: doc.ID,
		UserID:     1,
	}))
	// 终态失败不交回队列重试
	require.NoError(t, err)

	updated, _ := repo.GetByID(context.Background(), doc.ID)
	assert.Equal(t, entity.DocumentStatusFailed, updated.Status)
	assert.NotEmpty(t, updated.ErrorMessage)
}

func TestHandleIndex_UnsupportedContentIsTerminal(t *testing.T) {
	repo := newFakeDocRepo()
	store := newFakeStore()
	indexer := retrieval.NewIndexer(&stubExtractor{err: retrieval.ErrUnsupportedContent}, &stubEmbedder{}, &stubVectorRepo{}, 0)
	proc := NewProcessor(repo, indexer, store, nil)

	doc := entity.NewDocument(1, 0, "binary.bin", entity.VisibilityPrivate)
	path, _ := store.Save(doc.ID, []byte{0x01, 0x02})
	doc.StoragePath = path
	require.NoError(t, repo.Create(context.Background(), doc))

	err := proc.HandleIndex(context.Background(), indexMessage(t, &messaging.DocumentIndexMessage{
		DocumentID: doc.ID,
		UserID:     1,
	}))
	require.NoError(t, err)

	updated, _ := repo.GetByID(context.Background(), doc.ID)
	assert.Equal(t, entity.DocumentStatusFailed, updated.Status)
}

func TestHandleIndex_TransientFailureRetries(t *testing.T) {
	repo := newFakeDocRepo()
	store := newFakeStore()
	indexer := retrieval.NewIndexer(&stubExtractor{}, &stubEmbedder{err: errors.New("embedding down")}, &stubVectorRepo{}, 0)
	proc := NewProcessor(repo, indexer, store, nil)

	doc := entity.NewDocument(1, 0, "a.txt", entity.VisibilityPrivate)
	path, _ := store.Save(doc.ID, []byte("нормальный текст для индексации."))
	doc.StoragePath = path
	require.NoError(t, repo.Create(context.Background(), doc))

	err := proc.HandleIndex(context.Background(), indexMessage(t, &messaging.DocumentIndexMessage{
		DocumentID: doc.ID,
		UserID:     1,
	}))
	// 依赖故障返回错误，由队列重投
	assert.Error(t, err)
}

func TestHandleDelete_RemovesChunks(t *testing.T) {
	vector := &stubVectorRepo{}
	indexer := retrieval.NewIndexer(&stubExtractor{}, &stubEmbedder{}, vector, 0)
	proc := NewProcessor(newFakeDocRepo(), indexer, newFakeStore(), nil)

	job := &messaging.DocumentDeleteMessage{
		DocumentID: "doc-1",
		UserID:     1,
		Filename:   "a.txt",
	}
	msg, err := messaging.NewMessage(job.DocumentID, messaging.TypeDocumentDelete, job.UserID, 0, job)
	require.NoError(t, err)

	require.NoError(t, proc.HandleDelete(context.Background(), msg))
	require.NotEmpty(t, vector.deleted)
	assert.Equal(t, "doc-1", vector.deleted[0].DocumentID)
}
