package retrieval

import (
	"context"
	"path"
	"sync"
	"time"
)

type fakeEmbedder struct {
	embedFunc func(ctx context.Context, texts []string) ([][]float32, error)
	calls     [][]string
}

func (f *fakeEmbedder) EmbedStrings(ctx context.Context, texts []string) ([][]float32, error) {
	f.calls = append(f.calls, texts)
	if f.embedFunc != nil {
		return f.embedFunc(ctx, texts)
	}
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{0.1, 0.2, 0.3}
	}
	return out, nil
}

type fakeVectorRepo struct {
	searchFunc func(ctx context.Context, params *VectorSearchParams) ([]*VectorSearchResult, error)
	insertFunc func(ctx context.Context, chunks []*VectorChunk) error
	deleteFunc func(ctx context.Context, filter VectorFilter) error

	mu            sync.Mutex
	searchFilters []VectorFilter
	inserted      []*VectorChunk
	deleted       []VectorFilter
}

func (f *fakeVectorRepo) EnsureCollection(ctx context.Context) error {
	return nil
}

func (f *fakeVectorRepo) Search(ctx context.Context, params *VectorSearchParams) ([]*VectorSearchResult, error) {
	f.mu.Lock()
	f.searchFilters = append(f.searchFilters, params.Filter)
	f.mu.Unlock()
	if f.searchFunc != nil {
		return f.searchFunc(ctx, params)
	}
	return nil, nil
}

func (f *fakeVectorRepo) Insert(ctx context.Context, chunks []*VectorChunk) error {
	f.mu.Lock()
	f.inserted = append(f.inserted, chunks...)
	f.mu.Unlock()
	if f.insertFunc != nil {
		return f.insertFunc(ctx, chunks)
	}
	return nil
}

func (f *fakeVectorRepo) DeleteByFilter(ctx context.Context, filter VectorFilter) error {
	f.mu.Lock()
	f.deleted = append(f.deleted, filter)
	f.mu.Unlock()
	if f.deleteFunc != nil {
		return f.deleteFunc(ctx, filter)
	}
	return nil
}

type fakeReranker struct {
	rerankFunc func(ctx context.Context, query string, docs []string) ([]float64, error)
	queries    []string
}

func (f *fakeReranker) Rerank(ctx context.Context, query string, docs []string) ([]float64, error) {
	f.queries = append(f.queries, query)
	if f.rerankFunc != nil {
		return f.rerankFunc(ctx, query, docs)
	}
	scores := make([]float64, len(docs))
	return scores, nil
}

type fakeCacheStore struct {
	mu     sync.Mutex
	data   map[string][]byte
	getErr error
	setErr error
}

func newFakeCacheStore() *fakeCacheStore {
	return &fakeCacheStore{data: make(map[string][]byte)}
}

func (f *fakeCacheStore) Get(ctx context.Context, key string) ([]byte, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.data[key]
	if !ok {
		return nil, ErrCacheMiss
	}
	return v, nil
}

func (f *fakeCacheStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if f.setErr != nil {
		return f.setErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.data[key] = value
	return nil
}

func (f *fakeCacheStore) DeleteByPattern(ctx context.Context, pattern string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var deleted int64
	for k := range f.data {
		if ok, _ := path.Match(pattern, k); ok {
			delete(f.data, k)
			deleted++
		}
	}
	return deleted, nil
}

func (f *fakeCacheStore) keys() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.data))
	for k := range f.data {
		out = append(out, k)
	}
	return out
}

type fakeExtractor struct {
	extractFunc func(filename, mimeType string, content []byte) (string, error)
}

func (f *fakeExtractor) Extract(filename, mimeType string, content []byte) (string, error) {
	if f.extractFunc != nil {
		return f.extractFunc(filename, mimeType, content)
	}
	return string(content), nil
}
