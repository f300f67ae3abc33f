package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/magabrotheeeer/feature-access/internal/models"
)

// CreateRequest вставляет новую заявку и возвращает её ID.
func (s *Storage) CreateRequest(ctx context.Context, req models.FeatureRequest) (string, error) {
	const op = "storage.CreateRequest"
	select {
	case <-ctx.Done():
		return "", fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO feature_requests (user_uid, email, username,
			      requested_feature, request_message, status, created_at)
			  VALUES ($1, $2, $3, $4, $5, $6, $7)
			  RETURNING id`
	var newID string
	err := s.DB.QueryRowContext(ctx, query,
		req.UserUID, req.Email, req.Username, req.RequestedFeature,
		req.RequestMessage, req.Status, req.CreatedAt).Scan(&newID)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return newID, nil
}

// GetRequest возвращает заявку по её ID.
func (s *Storage) GetRequest(ctx context.Context, id string) (*models.FeatureRequest, error) {
	const op = "storage.GetRequest"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, user_uid, email, username, requested_feature, request_message,
			      status, reviewed_by, review_notes, approval_start_date,
			      approval_end_date, approval_duration_days, created_at, updated_at
			  FROM feature_requests
			  WHERE id = $1`
	row := s.DB.QueryRowContext(ctx, query, id)

	result, err := scanRequest(row.Scan)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// ListPendingRequests возвращает список ожидающих решения заявок с пагинацией,
// от старых к новым.
func (s *Storage) ListPendingRequests(ctx context.Context, limit, offset int) ([]*models.FeatureRequest, error) {
	const op = "storage.ListPendingRequests"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, user_uid, email, username, requested_feature, request_message,
			      status, reviewed_by, review_notes, approval_start_date,
			      approval_end_date, approval_duration_days, created_at, updated_at
			  FROM feature_requests
			  WHERE status = $1
			  ORDER BY created_at
			  LIMIT $2 OFFSET $3`
	rows, err := s.DB.QueryContext(ctx, query, models.StatusPending, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.FeatureRequest
	for rows.Next() {
		req, err := scanRequest(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, req)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// RejectRequest переводит заявку из pending в rejected и возвращает количество
// изменённых строк. Условие по текущему статусу служит compare-and-set
// примитивом: проигравшая конкурентная попытка получает 0 строк.
func (s *Storage) RejectRequest(ctx context.Context, id, reviewer, notes string, now time.Time) (int, error) {
	const op = "storage.RejectRequest"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE feature_requests
			  SET status = $1, reviewed_by = $2, review_notes = $3, updated_at = $4
			  WHERE id = $5 AND status = $6`
	result, err := s.DB.ExecContext(ctx, query,
		models.StatusRejected, reviewer, notes, now, id, models.StatusPending)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return int(rowsAffected), nil
}

// ApproveRequest атомарно переводит заявку в approved и применяет патч окна
// временного доступа к учётной записи заявителя. Оба обновления выполняются
// в одной транзакции: либо применяются вместе, либо не применяются вовсе.
// Возвращает 0 строк, если заявка уже не в статусе pending.
func (s *Storage) ApproveRequest(ctx context.Context, req *models.FeatureRequest, patch models.UserGrantPatch, now time.Time) (int, error) {
	const op = "storage.ApproveRequest"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	query := `UPDATE feature_requests
			  SET status = $1, reviewed_by = $2, review_notes = $3,
			      approval_start_date = $4, approval_end_date = $5,
			      approval_duration_days = $6, updated_at = $7
			  WHERE id = $8 AND status = $9`
	result, err := tx.ExecContext(ctx, query,
		models.StatusApproved, req.ReviewedBy, req.ReviewNotes,
		req.ApprovalStartDate, req.ApprovalEndDate, req.ApprovalDurationDays,
		now, req.ID, models.StatusPending)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	if rowsAffected == 0 {
		return 0, nil
	}

	userQuery := `UPDATE users
			  SET temporary_access = $1, temporary_access_expiry = $2, updated_at = $3
			  WHERE uid = $4`
	userResult, err := tx.ExecContext(ctx, userQuery,
		patch.TemporaryAccess, patch.TemporaryAccessExpiry, now, req.UserUID)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	userRows, err := userResult.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	if userRows == 0 {
		return 0, fmt.Errorf("%s: user %s not found for grant patch", op, req.UserUID)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return int(rowsAffected), nil
}

// scanRequest читает строку заявки, разворачивая NULL-поля терминальных
// статусов в указатели и пустые строки.
func scanRequest(scan func(dest ...any) error) (*models.FeatureRequest, error) {
	req := &models.FeatureRequest{}
	var (
		reviewedBy, reviewNotes, requestMessage sql.NullString
		approvalStart, approvalEnd, updatedAt   sql.NullTime
		durationDays                            sql.NullInt64
	)
	if err := scan(&req.ID, &req.UserUID, &req.Email, &req.Username,
		&req.RequestedFeature, &requestMessage, &req.Status, &reviewedBy,
		&reviewNotes, &approvalStart, &approvalEnd, &durationDays,
		&req.CreatedAt, &updatedAt); err != nil {
		return nil, err
	}

	req.RequestMessage = requestMessage.String
	req.ReviewedBy = reviewedBy.String
	req.ReviewNotes = reviewNotes.String
	if approvalStart.Valid {
		req.ApprovalStartDate = &approvalStart.Time
	}
	if approvalEnd.Valid {
		req.ApprovalEndDate = &approvalEnd.Time
	}
	if durationDays.Valid {
		days := int(durationDays.Int64)
		req.ApprovalDurationDays = &days
	}
	if updatedAt.Valid {
		req.UpdatedAt = &updatedAt.Time
	}
	return req, nil
}
