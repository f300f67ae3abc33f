// Package approve реализует HTTP-обработчик одобрения заявки администратором.
//
// Handler принимает JSON-запрос с окном временного доступа (явная дата конца
// либо длительность в днях), валидирует его и вызывает бизнес-логику
// одобрения. Конфликт статусов транслируется в HTTP 409.
package approve

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/feature-access/internal/http/middlewarectx"
	"github.com/magabrotheeeer/feature-access/internal/http/response"
	"github.com/magabrotheeeer/feature-access/internal/lib/sl"
	"github.com/magabrotheeeer/feature-access/internal/models"
	requestservice "github.com/magabrotheeeer/feature-access/internal/services/request"
)

// dateLayout — формат дат окна доступа во входящем JSON.
const dateLayout = "02-01-2006"

// Handler управляет HTTP-запросами на одобрение заявок.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// Service описывает интерфейс бизнес-логики одобрения заявки.
type Service interface {
	Approve(ctx context.Context, id, reviewer string, window models.GrantWindow, notes string) (*models.FeatureRequest, error)
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validator.New(),
	}
}

// ServeHTTP godoc
// @Summary Одобрить заявку на расширенный доступ
// @Description Переводит заявку в approved и открывает окно временного доступа заявителю.
// @Tags Requests
// @Accept  json
// @Produce  json
// @Param id path string true "ID заявки"
// @Param request body models.DummyDecision true "Окно временного доступа"
// @Success 200 {object} map[string]any "Заявка одобрена"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 404 {object} response.ErrorResponse "Заявка не найдена"
// @Failure 409 {object} response.ErrorResponse "Заявка уже рассмотрена"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации или пустое окно"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /requests/{id}/approve [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.request.approve"
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

	var req models.DummyDecision
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}

	if err := h.validate.Struct(req); err != nil {
		log.Error("validation failed", sl.Err(err))
		w.WriteHeader(http.StatusUnprocessableEntity)
		render.JSON(w, r, response.ValidationError(err.(validator.ValidationErrors)))
		return
	}

	reviewer, ok := r.Context().Value(middlewarectx.User).(string)
	if !ok || reviewer == "" {
		log.Error("reviewer not found in context")
		w.WriteHeader(http.StatusUnauthorized)
		render.JSON(w, r, response.Error("unauthorized"))
		return
	}

	window, err := parseWindow(req)
	if err != nil {
		log.Error("invalid grant window", sl.Err(err))
		w.WriteHeader(http.StatusUnprocessableEntity)
		render.JSON(w, r, response.Error("invalid grant window"))
		return
	}

	approved, err := h.service.Approve(r.Context(), id, reviewer, window, req.ReviewNotes)
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
		case errors.Is(err, requestservice.ErrInvalidGrantWindow):
			log.Error("invalid grant window", sl.Err(err))
			w.WriteHeader(http.StatusUnprocessableEntity)
			render.JSON(w, r, response.Error("invalid grant window"))
		default:
			log.Error("failed to approve request", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error("could not approve request"))
		}
		return
	}

	log.Info("approved feature request", slog.String("id", id))
	render.JSON(w, r, response.OKWithData(map[string]any{
		"status":            approved.Status,
		"approval_end_date": approved.ApprovalEndDate,
	}))
}

// parseWindow конвертирует строковые даты решения в GrantWindow.
// Проверка взаимоисключения end/duration остаётся за бизнес-логикой.
func parseWindow(req models.DummyDecision) (models.GrantWindow, error) {
	var window models.GrantWindow
	if req.StartDate != "" {
		start, err := time.Parse(dateLayout, req.StartDate)
		if err != nil {
			return models.GrantWindow{}, err
		}
		window.Start = &start
	}
	if req.EndDate != "" {
		end, err := time.Parse(dateLayout, req.EndDate)
		if err != nil {
			return models.GrantWindow{}, err
		}
		window.End = &end
	}
	window.DurationDays = req.DurationDays
	return window, nil
}
