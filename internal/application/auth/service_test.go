package auth

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"avangard-rag-api/internal/domain/entity"
	"avangard-rag-api/internal/domain/repository"
	"avangard-rag-api/pkg/utils"
)

type fakeUserRepo struct {
	mu     sync.Mutex
	users  map[int64]*entity.User
	nextID int64
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[int64]*entity.User), nextID: 1}
}

func (r *fakeUserRepo) Create(ctx context.Context, user *entity.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	user.ID = r.nextID
	r.nextID++
	copied := *user
	r.users[user.ID] = &copied
	return nil
}

func (r *fakeUserRepo) GetByID(ctx context.Context, id int64) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		return nil, nil
	}
	copied := *user
	return &copied, nil
}

func (r *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, user := range r.users {
		if user.Email == email {
			copied := *user
			return &copied, nil
		}
	}
	return nil, nil
}

func (r *fakeUserRepo) Update(ctx context.Context, user *entity.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *user
	r.users[user.ID] = &copied
	return nil
}

func (r *fakeUserRepo) UpdateLastLogin(ctx context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if user, ok := r.users[id]; ok {
		now := time.Now()
		user.LastLoginAt = &now
	}
	return nil
}

func (r *fakeUserRepo) ListByOrganization(ctx context.Context, organizationID int64, pagination repository.Pagination) (*repository.PagedResult[*entity.User], error) {
	return repository.NewPagedResult[*entity.User](nil, 0, pagination), nil
}

func (r *fakeUserRepo) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	user, _ := r.GetByEmail(ctx, email)
	return user != nil, nil
}

func newTestService() (*Service, *fakeUserRepo) {
	repo := newFakeUserRepo()
	jwt := utils.NewJWTManager("test-secret", 15*time.Minute, 24*time.Hour, "avangard-rag-api")
	return NewService(repo, jwt), repo
}

func TestRegisterAndLogin(t *testing.T) {
	svc, _ := newTestService()

	user, err := svc.Register(context.Background(), RegisterInput{
		Email:    "ivan@example.com",
		Name:     "Иван",
		Password: "secret123",
	})
	require.NoError(t, err)
	assert.NotZero(t, user.ID)
	assert.NotEmpty(t, user.PasswordHash)
	assert.NotEqual(t, "secret123", user.PasswordHash)

	pair, loggedIn, err := svc.Login(context.Background(), "ivan@example.com", "secret123")
	require.NoError(t, err)
	assert.NotEmpty(t, pair.AccessToken)
	assert.NotEmpty(t, pair.RefreshToken)
	assert.Equal(t, user.ID, loggedIn.ID)
}

func TestRegister_DuplicateEmail(t *testing.T) {
	svc, _ := newTestService()

	_, err := svc.Register(context.Background(), RegisterInput{Email: "a@b.c", Name: "A", Password: "pass1234"})
	require.NoError(t, err)

	_, err = svc.Register(context.Background(), RegisterInput{Email: "a@b.c", Name: "B", Password: "pass5678"})
	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestLogin_WrongPassword(t *testing.T) {
	svc, _ := newTestService()

	_, err := svc.Register(context.Background(), RegisterInput{Email: "a@b.c", Name: "A", Password: "pass1234"})
	require.NoError(t, err)

	_, _, err = svc.Login(context.Background(), "a@b.c", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, _, err = svc.Login(context.Background(), "missing@b.c", "pass1234")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLogin_InactiveUser(t *testing.T) {
	svc, repo := newTestService()

	user, err := svc.Register(context.Background(), RegisterInput{Email: "a@b.c", Name: "A", Password: "pass1234"})
	require.NoError(t, err)

	user.IsActive = false
	require.NoError(t, repo.Update(context.Background(), user))

	_, _, err = svc.Login(context.Background(), "a@b.c", "pass1234")
	assert.ErrorIs(t, err, ErrUserInactive)
}

func TestLogin_UpdatesLastLogin(t *testing.T) {
	svc, repo := newTestService()

	user, err := svc.Register(context.Background(), RegisterInput{Email: "a@b.c", Name: "A", Password: "pass1234"})
	require.NoError(t, err)

	_, _, err = svc.Login(context.Background(), "a@b.c", "pass1234")
	require.NoError(t, err)

	stored, _ := repo.GetByID(context.Background(), user.ID)
	assert.NotNil(t, stored.LastLoginAt)
}

func TestRefresh(t *testing.T) {
	svc, _ := newTestService()

	_, err := svc.Register(context.Background(), RegisterInput{Email: "a@b.c", Name: "A", Password: "pass1234"})
	require.NoError(t, err)

	pair, _, err := svc.Login(context.Background(), "a@b.c", "pass1234")
	require.NoError(t, err)

	refreshed, err := svc.Refresh(context.Background(), pair.RefreshToken)
	require.NoError(t, err)
	assert.NotEmpty(t, refreshed.AccessToken)

	// 访问令牌不能用于刷新
	_, err = svc.Refresh(context.Background(), pair.AccessToken)
	assert.ErrorIs(t, err, ErrInvalidRefreshToken)

	_, err = svc.Refresh(context.Background(), "garbage")
	assert.ErrorIs(t, err, ErrInvalidRefreshToken)
}
