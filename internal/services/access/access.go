// Package access содержит бизнес-логику вычисления эффективной роли пользователя.
//
// Эффективная роль складывается из персистентной базовой роли и, при наличии,
// активного временного гранта. Действие гранта переоценивается при каждом
// чтении; фоновой задачи истечения нет.
package access

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/feature-access/internal/lib/grant"
	"github.com/magabrotheeeer/feature-access/internal/lib/sl"
	"github.com/magabrotheeeer/feature-access/internal/metrics"
	"github.com/magabrotheeeer/feature-access/internal/models"
)

// UserRepository определяет методы чтения учётных записей из хранилища.
type UserRepository interface {
	// GetUser возвращает учётную запись по UID.
	GetUser(ctx context.Context, userUID string) (*models.User, error)
}

// Cache описывает методы для кэширования данных.
type Cache interface {
	// Get пытается получить значение из кеша по ключу.
	Get(key string, result any) (bool, error)
	// Set сохраняет значение в кеш с временем жизни.
	Set(key string, value any, expiration time.Duration) error
	// Invalidate удаляет значение из кеша по ключу.
	Invalidate(key string) error
}

// AccessService вычисляет эффективную роль пользователя, кешируя результат.
type AccessService struct {
	repo     UserRepository
	cache    Cache
	log      *slog.Logger
	cacheTTL time.Duration
	now      func() time.Time
}

// New создает новый экземпляр AccessService.
func New(repo UserRepository, cache Cache, log *slog.Logger, cacheTTL time.Duration) *AccessService {
	return &AccessService{
		repo:     repo,
		cache:    cache,
		log:      log,
		cacheTTL: cacheTTL,
		now:      time.Now,
	}
}

func roleKey(userUID string) string {
	return fmt.Sprintf("role:%s", userUID)
}

// Resolve возвращает эффективную роль пользователя.
//
// Отсутствующая идентичность, отсутствующая учётная запись и ошибка чтения
// хранилища дают RoleFree: доступ деградирует до наименее привилегированного
// уровня, но никогда не блокируется целиком. Ошибки чтения не поднимаются
// к вызывающему, операция всегда завершается ролью.
func (s *AccessService) Resolve(ctx context.Context, userUID string) models.Role {
	const op = "access.Resolve"
	if userUID == "" {
		return models.RoleFree
	}

	log := s.log.With(slog.String("op", op), slog.String("user_uid", userUID))

	cacheKey := roleKey(userUID)
	var cached models.Role
	found, err := s.cache.Get(cacheKey, &cached)
	if err != nil {
		log.Warn("role cache read failed", sl.Err(err))
	} else if found {
		return cached
	}

	now := s.now().UTC()
	user, err := s.repo.GetUser(ctx, userUID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("user record not found, defaulting to free")
		} else {
			log.Warn("store read failed, defaulting to free", sl.Err(err))
		}
		metrics.ResolutionsTotal.WithLabelValues(string(models.RoleFree)).Inc()
		return models.RoleFree
	}

	role := effectiveRole(user, now)
	metrics.ResolutionsTotal.WithLabelValues(string(role)).Inc()

	ttl := s.cacheTTL
	if user.TemporaryAccess && user.TemporaryAccessExpiry != nil {
		// Кеш не должен переживать момент истечения гранта.
		if remaining := user.TemporaryAccessExpiry.Sub(now); remaining > 0 && remaining < ttl {
			ttl = remaining
		}
	}
	if err := s.cache.Set(cacheKey, role, ttl); err != nil {
		log.Warn("failed to cache resolved role", sl.Err(err))
	}

	return role
}

// InvalidateRole сбрасывает закешированную эффективную роль пользователя.
// Вызывается после любой записи, меняющей роль или окно временного доступа.
func (s *AccessService) InvalidateRole(userUID string) {
	if err := s.cache.Invalidate(roleKey(userUID)); err != nil {
		s.log.Warn("failed to invalidate cached role",
			slog.String("user_uid", userUID), sl.Err(err))
	}
}

// effectiveRole вычисляет роль по учётной записи на момент now.
// Активный грант поднимает роль до paid, но не опускает более высокую:
// администратор с посторонним грантом остаётся администратором.
func effectiveRole(user *models.User, now time.Time) models.Role {
	base := user.Role
	if !base.IsValid() {
		base = models.RoleFree
	}
	if user.TemporaryAccess && user.TemporaryAccessExpiry != nil &&
		grant.IsActive(now, *user.TemporaryAccessExpiry) {
		return models.MaxRole(base, models.RolePaid)
	}
	return base
}
