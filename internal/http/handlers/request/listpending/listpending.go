// Package listpending реализует HTTP-обработчик списка ожидающих заявок
// для админской страницы обзора.
package listpending

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/feature-access/internal/http/response"
	"github.com/magabrotheeeer/feature-access/internal/lib/sl"
	"github.com/magabrotheeeer/feature-access/internal/models"
)

const (
	defaultLimit = 20
	maxLimit     = 100
)

// Handler управляет HTTP-запросами на получение списка ожидающих заявок.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает интерфейс бизнес-логики списка заявок.
type Service interface {
	ListPending(ctx context.Context, limit, offset int) ([]*models.FeatureRequest, error)
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Список ожидающих заявок
// @Description Возвращает заявки в статусе pending с пагинацией, от старых к новым.
// @Tags Requests
// @Produce  json
// @Param limit query int false "Максимум записей (по умолчанию 20)"
// @Param offset query int false "Смещение"
// @Success 200 {object} map[string]any "Список заявок"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /requests/pending [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.request.listpending"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	limit := defaultLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 && parsed <= maxLimit {
			limit = parsed
		}
	}
	offset := 0
	if v := r.URL.Query().Get("offset"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed >= 0 {
			offset = parsed
		}
	}

	requests, err := h.service.ListPending(r.Context(), limit, offset)
	if err != nil {
		log.Error("failed to list pending requests", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not list pending requests"))
		return
	}

	log.Info("listed pending requests", slog.Int("count", len(requests)))
	render.JSON(w, r, response.OKWithData(map[string]any{
		"requests": requests,
		"count":    len(requests),
	}))
}
