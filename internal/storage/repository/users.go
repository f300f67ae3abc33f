package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/magabrotheeeer/feature-access/internal/models"
)

// EnsureUser создает учётную запись с ролью free, если её ещё нет.
// Повторный вызов для существующего пользователя ничего не меняет.
func (s *Storage) EnsureUser(ctx context.Context, user models.User) error {
	const op = "storage.EnsureUser"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO users (uid, email, username, role, is_admin)
			  VALUES ($1, $2, $3, $4, $5)
			  ON CONFLICT (uid) DO NOTHING`
	_, err := s.DB.ExecContext(ctx, query,
		user.UID, user.Email, user.Username, models.RoleFree, false)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// GetUser возвращает учётную запись по её UID.
func (s *Storage) GetUser(ctx context.Context, userUID string) (*models.User, error) {
	const op = "storage.GetUser"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT uid, email, username, role, is_admin, temporary_access,
			      temporary_access_expiry, created_at, updated_at
			  FROM users
			  WHERE uid = $1`
	u := &models.User{}
	row := s.DB.QueryRowContext(ctx, query, userUID)

	var expiry sql.NullTime
	if err := row.Scan(&u.UID, &u.Email, &u.Username, &u.Role, &u.IsAdmin,
		&u.TemporaryAccess, &expiry, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if expiry.Valid {
		u.TemporaryAccessExpiry = &expiry.Time
	}
	return u, nil
}

// UpdateUserRole записывает базовую роль вместе с пересчитанным устаревшим
// зеркалом is_admin и возвращает количество изменённых строк. Используется
// операционным путём прямого переопределения роли.
func (s *Storage) UpdateUserRole(ctx context.Context, userUID string, role models.Role) (int, error) {
	const op = "storage.UpdateUserRole"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE users
			  SET role = $1, is_admin = $2, updated_at = $3
			  WHERE uid = $4`
	result, err := s.DB.ExecContext(ctx, query,
		role, role == models.RoleAdmin, time.Now().UTC(), userUID)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return int(rowsAffected), nil
}

// ApplyGrantPatch применяет патч окна временного доступа к учётной записи.
func (s *Storage) ApplyGrantPatch(ctx context.Context, userUID string, patch models.UserGrantPatch) (int, error) {
	const op = "storage.ApplyGrantPatch"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE users
			  SET temporary_access = $1, temporary_access_expiry = $2, updated_at = $3
			  WHERE uid = $4`
	result, err := s.DB.ExecContext(ctx, query,
		patch.TemporaryAccess, patch.TemporaryAccessExpiry, time.Now().UTC(), userUID)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return int(rowsAffected), nil
}
