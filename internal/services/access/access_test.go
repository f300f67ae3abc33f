package access

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/feature-access/internal/models"
)

type RepoMock struct{ mock.Mock }

func (m *RepoMock) GetUser(ctx context.Context, userUID string) (*models.User, error) {
	args := m.Called(ctx, userUID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

type CacheMock struct{ mock.Mock }

func (m *CacheMock) Get(key string, result any) (bool, error) {
	args := m.Called(key, result)
	if args.Bool(0) {
		*(result.(*models.Role)) = args.Get(2).(models.Role)
	}
	return args.Bool(0), args.Error(1)
}
func (m *CacheMock) Set(key string, value any, expiration time.Duration) error {
	return m.Called(key, value, expiration).Error(0)
}
func (m *CacheMock) Invalidate(key string) error {
	return m.Called(key).Error(0)
}

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

func TestAccessService_Resolve(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	cacheTTL := 30 * time.Second
	uid := "550e8400-e29b-41d4-a716-446655440000"

	activeExpiry := now.Add(time.Hour)
	expiredExpiry := now.Add(-time.Hour)
	exactExpiry := now

	userWith := func(role models.Role, temp bool, expiry *time.Time) *models.User {
		return &models.User{
			UID:                   uid,
			Role:                  role,
			TemporaryAccess:       temp,
			TemporaryAccessExpiry: expiry,
		}
	}

	tests := []struct {
		name       string
		userUID    string
		setupMocks func(r *RepoMock, c *CacheMock)
		want       models.Role
	}{
		{
			name:       "пустая идентичность дает free без обращений к хранилищу",
			userUID:    "",
			setupMocks: func(_ *RepoMock, _ *CacheMock) {},
			want:       models.RoleFree,
		},
		{
			name:    "попадание в кеш не трогает хранилище",
			userUID: uid,
			setupMocks: func(_ *RepoMock, c *CacheMock) {
				c.On("Get", "role:"+uid, mock.Anything).Return(true, nil, models.RolePaid).Once()
			},
			want: models.RolePaid,
		},
		{
			name:    "отсутствующая учётная запись дает free",
			userUID: uid,
			setupMocks: func(r *RepoMock, c *CacheMock) {
				c.On("Get", "role:"+uid, mock.Anything).Return(false, nil, nil).Once()
				r.On("GetUser", mock.Anything, uid).Return(nil, sql.ErrNoRows).Once()
			},
			want: models.RoleFree,
		},
		{
			name:    "ошибка чтения хранилища деградирует до free",
			userUID: uid,
			setupMocks: func(r *RepoMock, c *CacheMock) {
				c.On("Get", "role:"+uid, mock.Anything).Return(false, nil, nil).Once()
				r.On("GetUser", mock.Anything, uid).Return(nil, errors.New("connection refused")).Once()
			},
			want: models.RoleFree,
		},
		{
			name:    "базовая роль без гранта возвращается как есть",
			userUID: uid,
			setupMocks: func(r *RepoMock, c *CacheMock) {
				c.On("Get", "role:"+uid, mock.Anything).Return(false, nil, nil).Once()
				r.On("GetUser", mock.Anything, uid).Return(userWith(models.RolePaid, false, nil), nil).Once()
				c.On("Set", "role:"+uid, models.RolePaid, cacheTTL).Return(nil).Once()
			},
			want: models.RolePaid,
		},
		{
			name:    "активный грант поднимает free до paid",
			userUID: uid,
			setupMocks: func(r *RepoMock, c *CacheMock) {
				c.On("Get", "role:"+uid, mock.Anything).Return(false, nil, nil).Once()
				r.On("GetUser", mock.Anything, uid).Return(userWith(models.RoleFree, true, &activeExpiry), nil).Once()
				c.On("Set", "role:"+uid, models.RolePaid, cacheTTL).Return(nil).Once()
			},
			want: models.RolePaid,
		},
		{
			name:    "истекший грант игнорируется",
			userUID: uid,
			setupMocks: func(r *RepoMock, c *CacheMock) {
				c.On("Get", "role:"+uid, mock.Anything).Return(false, nil, nil).Once()
				r.On("GetUser", mock.Anything, uid).Return(userWith(models.RoleFree, true, &expiredExpiry), nil).Once()
				c.On("Set", "role:"+uid, models.RoleFree, cacheTTL).Return(nil).Once()
			},
			want: models.RoleFree,
		},
		{
			name:    "в момент истечения грант уже не действует",
			userUID: uid,
			setupMocks: func(r *RepoMock, c *CacheMock) {
				c.On("Get", "role:"+uid, mock.Anything).Return(false, nil, nil).Once()
				r.On("GetUser", mock.Anything, uid).Return(userWith(models.RoleFree, true, &exactExpiry), nil).Once()
				c.On("Set", "role:"+uid, models.RoleFree, cacheTTL).Return(nil).Once()
			},
			want: models.RoleFree,
		},
		{
			name:    "грант с флагом но без даты истечения не действует",
			userUID: uid,
			setupMocks: func(r *RepoMock, c *CacheMock) {
				c.On("Get", "role:"+uid, mock.Anything).Return(false, nil, nil).Once()
				r.On("GetUser", mock.Anything, uid).Return(userWith(models.RoleFree, true, nil), nil).Once()
				c.On("Set", "role:"+uid, models.RoleFree, cacheTTL).Return(nil).Once()
			},
			want: models.RoleFree,
		},
		{
			name:    "активный грант не опускает admin до paid",
			userUID: uid,
			setupMocks: func(r *RepoMock, c *CacheMock) {
				c.On("Get", "role:"+uid, mock.Anything).Return(false, nil, nil).Once()
				r.On("GetUser", mock.Anything, uid).Return(userWith(models.RoleAdmin, true, &activeExpiry), nil).Once()
				c.On("Set", "role:"+uid, models.RoleAdmin, cacheTTL).Return(nil).Once()
			},
			want: models.RoleAdmin,
		},
		{
			name:    "неизвестная базовая роль деградирует до free",
			userUID: uid,
			setupMocks: func(r *RepoMock, c *CacheMock) {
				c.On("Get", "role:"+uid, mock.Anything).Return(false, nil, nil).Once()
				r.On("GetUser", mock.Anything, uid).Return(userWith(models.Role("moderator"), false, nil), nil).Once()
				c.On("Set", "role:"+uid, models.RoleFree, cacheTTL).Return(nil).Once()
			},
			want: models.RoleFree,
		},
		{
			name:    "ошибка записи в кеш не мешает вернуть роль",
			userUID: uid,
			setupMocks: func(r *RepoMock, c *CacheMock) {
				c.On("Get", "role:"+uid, mock.Anything).Return(false, nil, nil).Once()
				r.On("GetUser", mock.Anything, uid).Return(userWith(models.RolePaid, false, nil), nil).Once()
				c.On("Set", "role:"+uid, models.RolePaid, cacheTTL).Return(errors.New("redis down")).Once()
			},
			want: models.RolePaid,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(RepoMock)
			cache := new(CacheMock)
			tt.setupMocks(repo, cache)

			svc := New(repo, cache, newNoopLogger(), cacheTTL)
			svc.now = func() time.Time { return now }

			got := svc.Resolve(context.Background(), tt.userUID)

			assert.Equal(t, tt.want, got)
			repo.AssertExpectations(t)
			cache.AssertExpectations(t)
		})
	}
}

func TestAccessService_Resolve_TTLCappedByGrantExpiry(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	uid := "550e8400-e29b-41d4-a716-446655440000"
	// Грант истекает раньше, чем стандартный TTL кеша.
	expiry := now.Add(10 * time.Second)

	repo := new(RepoMock)
	cache := new(CacheMock)

	cache.On("Get", "role:"+uid, mock.Anything).Return(false, nil, nil).Once()
	repo.On("GetUser", mock.Anything, uid).Return(&models.User{
		UID:                   uid,
		Role:                  models.RoleFree,
		TemporaryAccess:       true,
		TemporaryAccessExpiry: &expiry,
	}, nil).Once()
	cache.On("Set", "role:"+uid, models.RolePaid, 10*time.Second).Return(nil).Once()

	svc := New(repo, cache, newNoopLogger(), 30*time.Second)
	svc.now = func() time.Time { return now }

	got := svc.Resolve(context.Background(), uid)

	assert.Equal(t, models.RolePaid, got)
	cache.AssertExpectations(t)
}

func TestAccessService_InvalidateRole(t *testing.T) {
	uid := "550e8400-e29b-41d4-a716-446655440000"

	repo := new(RepoMock)
	cache := new(CacheMock)
	cache.On("Invalidate", "role:"+uid).Return(nil).Once()

	svc := New(repo, cache, newNoopLogger(), 30*time.Second)
	svc.InvalidateRole(uid)

	cache.AssertExpectations(t)

	// Ошибка инвалидации только логируется.
	cache.On("Invalidate", "role:"+uid).Return(errors.New("redis down")).Once()
	assert.NotPanics(t, func() {
		svc.InvalidateRole(uid)
	})
}
