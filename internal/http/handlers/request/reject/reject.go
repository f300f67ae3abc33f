// Package reject реализует HTTP-обработчик отклонения заявки администратором.
package reject

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/feature-access/internal/http/middlewarectx"
	"github.com/magabrotheeeer/feature-access/internal/http/response"
	"github.com/magabrotheeeer/feature-access/internal/lib/sl"
	"github.com/magabrotheeeer/feature-access/internal/models"
	requestservice "github.com/magabrotheeeer/feature-access/internal/services/request"
)

// Handler управляет HTTP-запросами на отклонение заявок.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает интерфейс бизнес-логики отклонения заявки.
type Service interface {
	Reject(ctx context.Context, id, reviewer, notes string) (*models.FeatureRequest, error)
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Отклонить заявку на расширенный доступ
// @Description Переводит заявку в rejected. Учётная запись заявителя не меняется.
// @Tags Requests
// @Accept  json
// @Produce  json
// @Param id path string true "ID заявки"
// @Param request body models.DummyRejection false "Комментарий администратора"
// @Success 200 {object} map[string]any "Заявка отклонена"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 404 {object} response.ErrorResponse "Заявка не найдена"
// @Failure 409 {object} response.ErrorResponse "Заявка уже рассмотрена"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /requests/{id}/reject [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.request.reject"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	id := chi.URLParam(r, "id")
	if id == "" {
		log.Error("missing request id in url")
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("failed to decode id from url"))
		return
	}

	// Тело необязательно: отклонение без комментария допустимо.
	var req models.DummyRejection
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		log.Error("failed to decode request", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}

	reviewer, ok := r.Context().Value(middlewarectx.User).(string)
	if !ok || reviewer == "" {
		log.Error("reviewer not found in context")
		w.WriteHeader(http.StatusUnauthorized)
		render.JSON(w, r, response.Error("unauthorized"))
		return
	}

	rejected, err := h.service.Reject(r.Context(), id, reviewer, req.ReviewNotes)
	if err != nil {
		switch {
		case errors.Is(err, requestservice.ErrRequestNotFound):
			log.Error("request not found", slog.String("id", id))
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error("request not found"))
		case errors.Is(err, requestservice.ErrInvalidStateTransition):
			log.Error("request already decided", slog.String("id", id))
			w.WriteHeader(http.StatusConflict)
			render.JSON(w, r, response.Error("request already decided"))
		default:
			log.Error("failed to reject request", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error("could not reject request"))
		}
		return
	}

	log.Info("rejected feature request", slog.String("id", id))
	render.JSON(w, r, response.OKWithData(map[string]any{
		"status": rejected.Status,
	}))
}
