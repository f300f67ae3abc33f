// Package submit реализует HTTP-обработчик создания заявок на расширенный доступ.
//
// Handler принимает JSON-запрос с данными заявки, валидирует их, извлекает
// идентичность заявителя из контекста, вызывает бизнес-логику создания заявки
// и возвращает ID созданной записи в JSON-формате.
//
// В случае ошибок формируются соответствующие HTTP-ответы с описанием проблемы.
package submit

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/feature-access/internal/http/middlewarectx"
	"github.com/magabrotheeeer/feature-access/internal/http/response"
	"github.com/magabrotheeeer/feature-access/internal/lib/sl"
	"github.com/magabrotheeeer/feature-access/internal/models"
	requestservice "github.com/magabrotheeeer/feature-access/internal/services/request"
)

// Handler управляет HTTP-запросами на создание заявок.
type Handler struct {
	log      *slog.Logger        // Логгер для записи информации и ошибок
	service  Service             // Сервис бизнес-логики заявок
	validate *validator.Validate // Валидатор структуры входящих данных
}

// Service описывает интерфейс бизнес-логики создания заявки.
type Service interface {
	Submit(ctx context.Context, userUID, username string, req models.DummyFeatureRequest) (string, error)
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
// @Summary Создать заявку на расширенный доступ
// @Description Создает заявку от имени текущего пользователя. Возвращает ID созданной записи.
// @Tags Requests
// @Accept  json
// @Produce  json
// @Param request body models.DummyFeatureRequest true "Данные новой заявки"
// @Success 200 {object} map[string]any "Успешное создание заявки"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера при создании заявки"
// @Router /requests [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.request.submit"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req models.DummyFeatureRequest
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

	username, okUser := r.Context().Value(middlewarectx.User).(string)
	userUID, okUID := r.Context().Value(middlewarectx.UserUID).(string)
	if !okUser || !okUID || username == "" || userUID == "" {
		log.Error("user identification missing in context")
		w.WriteHeader(http.StatusUnauthorized)
		render.JSON(w, r, response.Error("unauthorized"))
		return
	}

	id, err := h.service.Submit(r.Context(), userUID, username, req)
	if err != nil {
		if errors.Is(err, requestservice.ErrEmptyFeature) {
			log.Error("empty requested feature")
			w.WriteHeader(http.StatusUnprocessableEntity)
			render.JSON(w, r, response.Error("requested feature must not be empty"))
			return
		}
		log.Error("failed to create feature request", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not create feature request"))
		return
	}

	log.Info("created feature request", slog.String("id", id))
	render.JSON(w, r, response.OKWithData(map[string]any{
		"request_id": id,
	}))
}
