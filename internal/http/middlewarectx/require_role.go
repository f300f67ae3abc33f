package middlewarectx

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/render"

	"github.com/magabrotheeeer/feature-access/internal/http/response"
	"github.com/magabrotheeeer/feature-access/internal/models"
)

// RoleResolver определяет вычисление эффективной роли пользователя.
type RoleResolver interface {
	Resolve(ctx context.Context, userUID string) models.Role
}

// RequireRoleMiddleware создает middleware, пропускающий запрос только если
// эффективная роль пользователя не ниже требуемой. Роль вычисляется заново
// при каждом запросе, а не берётся из токена: прямые переопределения роли и
// истечение грантов видны сразу.
func RequireRoleMiddleware(log *slog.Logger, resolver RoleResolver, required models.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userUID, ok := r.Context().Value(UserUID).(string)
			if !ok || userUID == "" {
				log.Error("user identification missing")
				w.WriteHeader(http.StatusUnauthorized)
				render.JSON(w, r, response.Error("user identification missing"))
				return
			}

			effective := resolver.Resolve(r.Context(), userUID)
			if !models.HasAccess(effective, required) {
				log.Warn("insufficient role",
					slog.String("user_uid", userUID),
					slog.String("effective", string(effective)),
					slog.String("required", string(required)))
				w.WriteHeader(http.StatusForbidden)
				render.JSON(w, r, response.Error("insufficient access level"))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
