package document

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"avangard-rag-api/internal/domain/entity"
)

var errNotFound = errors.New("not found")

func newTestService(repo *fakeDocRepo, pub *fakePublisher, store *fakeStore) *Service {
	return NewService(repo, pub, store, nil, 1<<20)
}

func TestUpload_CreatesAndPublishes(t *testing.T) {
	repo := newFakeDocRepo()
	pub := &fakePublisher{}
	store := newFakeStore()
	svc := newTestService(repo, pub, store)

	doc, err := svc.Upload(context.Background(), UploadInput{
		UserID:   1,
		Filename: "договор.txt",
		MimeType: "text/plain",
		Content:  []byte("Договор аренды"),
	})
	require.NoError(t, err)
	require.NotNil(t, doc)

	assert.Equal(t, entity.DocumentStatusPending, doc.Status)
	assert.Equal(t, entity.VisibilityPrivate, doc.Visibility)
	assert.NotEmpty(t, doc.FileHash)
	assert.NotEmpty(t, doc.StoragePath)

	require.Len(t, pub.indexJobs, 1)
	assert.Equal(t, doc.ID, pub.indexJobs[0].DocumentID)
	assert.Equal(t, doc.StoragePath, pub.indexJobs[0].StoragePath)

	stored, err := store.Load(doc.StoragePath)
	require.NoError(t, err)
	assert.Equal(t, []byte("Договор аренды"), stored)
}

func TestUpload_DuplicateContent(t *testing.T) {
	repo := newFakeDocRepo()
	pub := &fakePublisher{}
	svc := newTestService(repo, pub, newFakeStore())

	first, err := svc.Upload(context.Background(), UploadInput{
		UserID:   1,
		Filename: "a.txt",
		Content:  []byte("тот же самый текст"),
	})
	require.NoError(t, err)

	dup, err := svc.Upload(context.Background(), UploadInput{
		UserID:   1,
		Filename: "b.txt",
		Content:  []byte("тот же самый текст"),
	})
	assert.ErrorIs(t, err, ErrDuplicateDocument)
	require.NotNil(t, dup)
	assert.Equal(t, first.ID, dup.ID)

	// 重复上传不应再次入队
	assert.Len(t, pub.indexJobs, 1)
}

func TestUpload_DuplicateAllowedAfterFailure(t *testing.T) {
	repo := newFakeDocRepo()
	pub := &fakePublisher{}
	svc := newTestService(repo, pub, newFakeStore())

	first, err := svc.Upload(context.Background(), UploadInput{
		UserID:   1,
		Filename: "a.txt",
		Content:  []byte("содержимое"),
	})
	require.NoError(t, err)

	failed, _ := repo.GetByID(context.Background(), first.ID)
	failed.MarkFailed("index error")
	require.NoError(t, repo.Update(context.Background(), failed))

	again, err := svc.Upload(context.Background(), UploadInput{
		UserID:   1,
		Filename: "a.txt",
		Content:  []byte("содержимое"),
	})
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, again.ID)
}

func TestUpload_DifferentUsersNotDeduped(t *testing.T) {
	repo := newFakeDocRepo()
	pub := &fakePublisher{}
	svc := newTestService(repo, pub, newFakeStore())

	_, err := svc.Upload(context.Background(), UploadInput{UserID: 1, Filename: "a.txt", Content: []byte("общий текст")})
	require.NoError(t, err)

	_, err = svc.Upload(context.Background(), UploadInput{UserID: 2, Filename: "a.txt", Content: []byte("общий текст")})
	assert.NoError(t, err)
}

func TestUpload_OrganizationVisibilityRequiresOrganization(t *testing.T) {
	svc := newTestService(newFakeDocRepo(), &fakePublisher{}, newFakeStore())

	_, err := svc.Upload(context.Background(), UploadInput{
		UserID:     1,
		Filename:   "a.txt",
		Visibility: entity.VisibilityOrganization,
		Content:    []byte("текст"),
	})
	assert.ErrorIs(t, err, ErrOrganizationRequired)
}

func TestUpload_FileTooLarge(t *testing.T) {
	svc := NewService(newFakeDocRepo(), &fakePublisher{}, newFakeStore(), nil, 10)

	_, err := svc.Upload(context.Background(), UploadInput{
		UserID:   1,
		Filename: "big.txt",
		Content:  []byte("очень длинное содержимое"),
	})
	assert.ErrorIs(t, err, ErrFileTooLarge)
}

func TestUpload_PublishFailureMarksFailed(t *testing.T) {
	repo := newFakeDocRepo()
	pub := &fakePublisher{publishErr: errors.New("queue down")}
	svc := newTestService(repo, pub, newFakeStore())

	_, err := svc.Upload(context.Background(), UploadInput{
		UserID:   1,
		Filename: "a.txt",
		Content:  []byte("текст"),
	})
	require.Error(t, err)

	// 记录已创建但被标记为失败
	var failed *entity.Document
	for _, d := range repo.docs {
		failed = d
	}
	require.NotNil(t, failed)
	assert.Equal(t, entity.DocumentStatusFailed, failed.Status)
}

func TestGet_AccessControl(t *testing.T) {
	repo := newFakeDocRepo()
	svc := newTestService(repo, &fakePublisher{}, newFakeStore())

	private := entity.NewDocument(1, 0, "private.txt", entity.VisibilityPrivate)
	shared := entity.NewDocument(1, 10, "shared.txt", entity.VisibilityOrganization)
	require.NoError(t, repo.Create(context.Background(), private))
	require.NoError(t, repo.Create(context.Background(), shared))

	// 归属人可读
	_, err := svc.Get(context.Background(), 1, 0, private.ID)
	assert.NoError(t, err)

	// 其他用户不可读私有文档
	_, err = svc.Get(context.Background(), 2, 10, private.ID)
	assert.ErrorIs(t, err, ErrAccessDenied)

	// 同组织成员可读组织共享文档
	_, err = svc.Get(context.Background(), 2, 10, shared.ID)
	assert.NoError(t, err)

	// 其他组织成员不可读
	_, err = svc.Get(context.Background(), 2, 11, shared.ID)
	assert.ErrorIs(t, err, ErrAccessDenied)
}

func TestGet_NotFound(t *testing.T) {
	svc := newTestService(newFakeDocRepo(), &fakePublisher{}, newFakeStore())

	_, err := svc.Get(context.Background(), 1, 0, "missing")
	assert.ErrorIs(t, err, ErrDocumentNotFound)
}

func TestDelete_OwnerAndAdmin(t *testing.T) {
	repo := newFakeDocRepo()
	pub := &fakePublisher{}
	store := newFakeStore()
	svc := newTestService(repo, pub, store)

	shared := entity.NewDocument(1, 10, "shared.txt", entity.VisibilityOrganization)
	shared.StoragePath = "/fake/shared"
	store.files["/fake/shared"] = []byte("x")
	require.NoError(t, repo.Create(context.Background(), shared))

	// 普通成员不能删除他人的组织文档
	err := svc.Delete(context.Background(), 2, 10, entity.UserRoleMember, shared.ID)
	assert.ErrorIs(t, err, ErrAccessDenied)

	// 组织管理员可以
	err = svc.Delete(context.Background(), 2, 10, entity.UserRoleAdmin, shared.ID)
	require.NoError(t, err)

	got, _ := repo.GetByID(context.Background(), shared.ID)
	assert.Nil(t, got)
	assert.Empty(t, store.files)
	require.Len(t, pub.deleteJobs, 1)
	assert.Equal(t, shared.ID, pub.deleteJobs[0].DocumentID)
}

func TestReindex_ResetsStatusAndPublishes(t *testing.T) {
	repo := newFakeDocRepo()
	pub := &fakePublisher{}
	svc := newTestService(repo, pub, newFakeStore())

	doc := entity.NewDocument(1, 0, "a.txt", entity.VisibilityPrivate)
	doc.MarkIndexed(entity.ContentTypeGeneral, 3)
	doc.StoragePath = "/fake/a"
	require.NoError(t, repo.Create(context.Background(), doc))

	updated, err := svc.Reindex(context.Background(), 1, 0, entity.UserRoleMember, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.DocumentStatusPending, updated.Status)

	require.Len(t, pub.indexJobs, 1)
	assert.True(t, pub.indexJobs[0].Reindex)
	assert.Equal(t, "/fake/a", pub.indexJobs[0].StoragePath)
}
