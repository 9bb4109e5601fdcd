package document

import (
	"context"
	"sync"

	"avangard-rag-api/internal/domain/entity"
	"avangard-rag-api/internal/domain/repository"
	"avangard-rag-api/internal/infrastructure/messaging"
)

type fakeDocRepo struct {
	mu   sync.Mutex
	docs map[string]*entity.Document

	getByHashErr error
	createErr    error
}

func newFakeDocRepo() *fakeDocRepo {
	return &fakeDocRepo{docs: make(map[string]*entity.Document)}
}

func (r *fakeDocRepo) Create(ctx context.Context, doc *entity.Document) error {
	if r.createErr != nil {
		return r.createErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *doc
	r.docs[doc.ID] = &copied
	return nil
}

func (r *fakeDocRepo) GetByID(ctx context.Context, id string) (*entity.Document, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	doc, ok := r.docs[id]
	if !ok {
		return nil, nil
	}
	copied := *doc
	return &copied, nil
}

func (r *fakeDocRepo) GetByHash(ctx context.Context, userID int64, fileHash string) (*entity.Document, error) {
	if r.getByHashErr != nil {
		return nil, r.getByHashErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, doc := range r.docs {
		if doc.UserID == userID && doc.FileHash == fileHash {
			copied := *doc
			return &copied, nil
		}
	}
	return nil, nil
}

func (r *fakeDocRepo) Update(ctx context.Context, doc *entity.Document) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *doc
	r.docs[doc.ID] = &copied
	return nil
}

func (r *fakeDocRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.docs, id)
	return nil
}

func (r *fakeDocRepo) ListByUser(ctx context.Context, userID int64, filter repository.DocumentFilter, pagination repository.Pagination) (*repository.PagedResult[*entity.Document], error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var items []*entity.Document
	for _, doc := range r.docs {
		if doc.UserID == userID {
			copied := *doc
			items = append(items, &copied)
		}
	}
	return repository.NewPagedResult(items, int64(len(items)), pagination), nil
}

func (r *fakeDocRepo) ListByOrganization(ctx context.Context, organizationID int64, filter repository.DocumentFilter, pagination repository.Pagination) (*repository.PagedResult[*entity.Document], error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var items []*entity.Document
	for _, doc := range r.docs {
		if doc.OrganizationID == organizationID && doc.Visibility == entity.VisibilityOrganization {
			copied := *doc
			items = append(items, &copied)
		}
	}
	return repository.NewPagedResult(items, int64(len(items)), pagination), nil
}

type fakePublisher struct {
	mu         sync.Mutex
	indexJobs  []*messaging.DocumentIndexMessage
	deleteJobs []*messaging.DocumentDeleteMessage

	publishErr error
}

func (p *fakePublisher) PublishIndexJob(ctx context.Context, job *messaging.DocumentIndexMessage) (string, error) {
	if p.publishErr != nil {
		return "", p.publishErr
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.indexJobs = append(p.indexJobs, job)
	return "1-0", nil
}

func (p *fakePublisher) PublishDeleteJob(ctx context.Context, job *messaging.DocumentDeleteMessage) (string, error) {
	if p.publishErr != nil {
		return "", p.publishErr
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.deleteJobs = append(p.deleteJobs, job)
	return "1-0", nil
}

type fakeStore struct {
	mu    sync.Mutex
	files map[string][]byte

	loadErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{files: make(map[string][]byte)}
}

func (s *fakeStore) Save(documentID string, content []byte) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	path := "/fake/" + documentID
	s.files[path] = content
	return path, nil
}

func (s *fakeStore) Load(path string) ([]byte, error) {
	if s.loadErr != nil {
		return nil, s.loadErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	content, ok := s.files[path]
	if !ok {
		return nil, errNotFound
	}
	return content, nil
}

func (s *fakeStore) Remove(path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.files, path)
	return nil
}
