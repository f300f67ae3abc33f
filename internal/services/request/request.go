// Package request содержит бизнес-логику жизненного цикла заявок на
// расширенный доступ: создание, одобрение с вычислением окна временного
// доступа и отклонение.
//
// Машина статусов: pending -> approved | rejected, оба терминальные.
// Попытка повторного решения по терминальной заявке или проигрыш
// конкурентной гонки решений даёт ErrInvalidStateTransition.
package request

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/magabrotheeeer/feature-access/internal/lib/sl"
	"github.com/magabrotheeeer/feature-access/internal/metrics"
	"github.com/magabrotheeeer/feature-access/internal/models"
)

var (
	// ErrEmptyFeature — в заявке не названа запрашиваемая функциональность.
	ErrEmptyFeature = errors.New("requested feature must not be empty")
	// ErrInvalidGrantWindow — окно временного доступа пустое или вывернутое.
	ErrInvalidGrantWindow = errors.New("grant window end must be after start")
	// ErrInvalidStateTransition — заявка уже не в статусе pending.
	ErrInvalidStateTransition = errors.New("request is not pending")
	// ErrRequestNotFound — заявка с таким ID не существует.
	ErrRequestNotFound = errors.New("request not found")
)

// Repository определяет методы хранилища для заявок и учётных записей.
type Repository interface {
	// EnsureUser создает учётную запись с ролью free при первом обращении.
	EnsureUser(ctx context.Context, user models.User) error
	// CreateRequest сохраняет новую заявку и возвращает её ID.
	CreateRequest(ctx context.Context, req models.FeatureRequest) (string, error)
	// GetRequest возвращает заявку по ID.
	GetRequest(ctx context.Context, id string) (*models.FeatureRequest, error)
	// ListPendingRequests возвращает ожидающие решения заявки с пагинацией.
	ListPendingRequests(ctx context.Context, limit, offset int) ([]*models.FeatureRequest, error)
	// RejectRequest условно переводит заявку в rejected, 0 строк при проигранном CAS.
	RejectRequest(ctx context.Context, id, reviewer, notes string, now time.Time) (int, error)
	// ApproveRequest атомарно переводит заявку в approved и применяет грант-патч.
	ApproveRequest(ctx context.Context, req *models.FeatureRequest, patch models.UserGrantPatch, now time.Time) (int, error)
}

// Publisher публикует события решений для внешнего слоя уведомлений.
type Publisher interface {
	Publish(routingKey string, message any) error
}

// RoleInvalidator сбрасывает закешированную эффективную роль пользователя.
type RoleInvalidator interface {
	InvalidateRole(userUID string)
}

// Service реализует workflow заявок на расширенный доступ.
type Service struct {
	repo      Repository
	publisher Publisher
	roles     RoleInvalidator
	log       *slog.Logger
	now       func() time.Time
}

// New создает новый экземпляр Service.
func New(repo Repository, publisher Publisher, roles RoleInvalidator, log *slog.Logger) *Service {
	return &Service{
		repo:      repo,
		publisher: publisher,
		roles:     roles,
		log:       log,
		now:       time.Now,
	}
}

// Submit создает заявку от имени пользователя и возвращает её ID.
// Название функциональности обязательно после обрезки пробелов.
// Статус принудительно pending, поля решения не заполняются.
func (s *Service) Submit(ctx context.Context, userUID, username string, req models.DummyFeatureRequest) (string, error) {
	const op = "request.Submit"

	feature := strings.TrimSpace(req.RequestedFeature)
	if feature == "" {
		return "", ErrEmptyFeature
	}

	// Учётная запись появляется при первом действии пользователя.
	if err := s.repo.EnsureUser(ctx, models.User{
		UID:      userUID,
		Email:    req.Email,
		Username: username,
	}); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	id, err := s.repo.CreateRequest(ctx, models.FeatureRequest{
		UserUID:          userUID,
		Email:            req.Email,
		Username:         username,
		RequestedFeature: feature,
		RequestMessage:   strings.TrimSpace(req.RequestMessage),
		Status:           models.StatusPending,
		CreatedAt:        s.now().UTC(),
	})
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("created feature request",
		slog.String("id", id), slog.String("user_uid", userUID),
		slog.String("feature", feature))
	return id, nil
}

// Approve переводит заявку в approved, разрешает окно временного доступа и
// применяет грант к учётной записи заявителя одной транзакцией.
//
// Разрешение окна: start — из окна или момент одобрения; конец — явный end
// либо start + durationDays, день считается фиксированными 24 часами.
// End и DurationDays взаимоисключающие: оба сразу, как и ни одного,
// дают ErrInvalidGrantWindow. Окно с end <= start также отклоняется.
func (s *Service) Approve(ctx context.Context, id, reviewer string, window models.GrantWindow, notes string) (*models.FeatureRequest, error) {
	const op = "request.Approve"

	req, err := s.getPending(ctx, id)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	start := now
	if window.Start != nil {
		start = window.Start.UTC()
	}

	if window.End != nil && window.DurationDays > 0 {
		return nil, ErrInvalidGrantWindow
	}

	var end time.Time
	switch {
	case window.End != nil:
		end = window.End.UTC()
	case window.DurationDays > 0:
		end = start.Add(time.Duration(window.DurationDays) * 24 * time.Hour)
	default:
		return nil, ErrInvalidGrantWindow
	}
	if !end.After(start) {
		return nil, ErrInvalidGrantWindow
	}

	req.ReviewedBy = reviewer
	req.ReviewNotes = notes
	req.ApprovalStartDate = &start
	req.ApprovalEndDate = &end
	if window.DurationDays > 0 {
		// Исходная длительность сохраняется для аудита.
		days := window.DurationDays
		req.ApprovalDurationDays = &days
	}

	patch := models.UserGrantPatch{
		TemporaryAccess:       true,
		TemporaryAccessExpiry: end,
	}

	rows, err := s.repo.ApproveRequest(ctx, req, patch, now)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if rows == 0 {
		// Конкурентное решение успело раньше.
		return nil, ErrInvalidStateTransition
	}

	req.Status = models.StatusApproved
	req.UpdatedAt = &now

	s.roles.InvalidateRole(req.UserUID)
	metrics.DecisionsTotal.WithLabelValues(string(models.StatusApproved)).Inc()
	s.publishDecision(req)

	s.log.Info("approved feature request",
		slog.String("id", req.ID), slog.String("reviewer", reviewer),
		slog.Time("grant_end", end))
	return req, nil
}

// Reject переводит заявку в rejected. Учётная запись не меняется.
func (s *Service) Reject(ctx context.Context, id, reviewer, notes string) (*models.FeatureRequest, error) {
	const op = "request.Reject"

	req, err := s.getPending(ctx, id)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	rows, err := s.repo.RejectRequest(ctx, id, reviewer, notes, now)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if rows == 0 {
		return nil, ErrInvalidStateTransition
	}

	req.Status = models.StatusRejected
	req.ReviewedBy = reviewer
	req.ReviewNotes = notes
	req.UpdatedAt = &now

	metrics.DecisionsTotal.WithLabelValues(string(models.StatusRejected)).Inc()
	s.publishDecision(req)

	s.log.Info("rejected feature request",
		slog.String("id", req.ID), slog.String("reviewer", reviewer))
	return req, nil
}

// ListPending возвращает ожидающие решения заявки для админского обзора.
func (s *Service) ListPending(ctx context.Context, limit, offset int) ([]*models.FeatureRequest, error) {
	const op = "request.ListPending"
	result, err := s.repo.ListPendingRequests(ctx, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// getPending загружает заявку и проверяет, что она ещё ждет решения.
func (s *Service) getPending(ctx context.Context, id string) (*models.FeatureRequest, error) {
	const op = "request.getPending"
	req, err := s.repo.GetRequest(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRequestNotFound
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if req.Status.IsTerminal() {
		return nil, ErrInvalidStateTransition
	}
	return req, nil
}

// publishDecision отправляет событие решения; сбой публикации не отменяет
// уже зафиксированное решение и только логируется.
func (s *Service) publishDecision(req *models.FeatureRequest) {
	event := models.DecisionEvent{
		RequestID:        req.ID,
		UserUID:          req.UserUID,
		Email:            req.Email,
		Username:         req.Username,
		RequestedFeature: req.RequestedFeature,
		Status:           req.Status,
		ReviewedBy:       req.ReviewedBy,
		ApprovalEndDate:  req.ApprovalEndDate,
	}
	if err := s.publisher.Publish(string(req.Status), event); err != nil {
		s.log.Warn("failed to publish decision event",
			slog.String("id", req.ID), sl.Err(err))
	}
}
