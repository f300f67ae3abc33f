// Package resolve реализует HTTP-обработчик вычисления эффективной роли.
//
// Маршрут открытый: запрос без токена или с невалидным токеном не получает
// 401, а разрешается в роль free — неаутентифицированный вызыватель
// деградирует до базового уровня, а не блокируется.
package resolve

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/feature-access/internal/http/response"
	"github.com/magabrotheeeer/feature-access/internal/lib/jwt"
	"github.com/magabrotheeeer/feature-access/internal/models"
)

// Handler управляет HTTP-запросами на вычисление эффективной роли.
type Handler struct {
	log     *slog.Logger
	service Service
	maker   jwt.Maker
}

// Service описывает интерфейс вычисления эффективной роли.
type Service interface {
	Resolve(ctx context.Context, userUID string) models.Role
}

// New создает новый Handler с переданными логгером, сервисом и maker'ом токенов.
func New(log *slog.Logger, service Service, maker jwt.Maker) *Handler {
	return &Handler{
		log:     log,
		service: service,
		maker:   maker,
	}
}

// ServeHTTP godoc
// @Summary Эффективная роль вызывающего
// @Description Возвращает эффективную роль: базовую роль с учётом активного временного гранта. Без токена — free.
// @Tags Access
// @Produce  json
// @Success 200 {object} map[string]any "Эффективная роль"
// @Router /access [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.access.resolve"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	userUID := ""
	if authHeader := r.Header.Get("Authorization"); strings.HasPrefix(authHeader, "Bearer ") {
		tokenStr := strings.TrimPrefix(authHeader, "Bearer ")
		if claims, err := h.maker.ParseToken(tokenStr); err == nil {
			userUID = claims.UserUID
		} else {
			log.Debug("unparseable token, resolving as free")
		}
	}

	role := h.service.Resolve(r.Context(), userUID)

	log.Info("resolved effective role",
		slog.String("user_uid", userUID), slog.String("role", string(role)))
	render.JSON(w, r, response.OKWithData(map[string]any{
		"role": role,
	}))
}
