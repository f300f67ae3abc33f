package access

import (
	"context"
	"sync"

	"github.com/magabrotheeeer/feature-access/internal/models"
)

// Resolver описывает вычисление эффективной роли для активной идентичности.
type Resolver interface {
	Resolve(ctx context.Context, userUID string) models.Role
}

// SessionResolver отслеживает активную идентичность сессии и держит её
// эффективную роль. Каждая смена идентичности запускает независимое
// вычисление; результат устаревшего вычисления отбрасывается, побеждает
// последняя смена, а не последнее завершение.
type SessionResolver struct {
	resolver Resolver

	mu      sync.Mutex
	gen     uint64
	userUID string
	role    models.Role
	done    chan struct{}
}

// NewSessionResolver создает SessionResolver без активной идентичности.
func NewSessionResolver(resolver Resolver) *SessionResolver {
	return &SessionResolver{
		resolver: resolver,
		role:     models.RoleFree,
	}
}

// Switch переключает активную идентичность и асинхронно вычисляет её роль.
// До завершения вычисления Current возвращает RoleFree: наименее
// привилегированный уровень до подтверждения, а не роль прошлой идентичности.
// Пустая идентичность сбрасывает сессию в RoleFree без обращения к хранилищу.
func (s *SessionResolver) Switch(ctx context.Context, userUID string) {
	s.mu.Lock()
	s.gen++
	gen := s.gen
	s.userUID = userUID
	s.role = models.RoleFree
	done := make(chan struct{})
	s.done = done
	s.mu.Unlock()

	if userUID == "" {
		close(done)
		return
	}

	go func() {
		role := s.resolver.Resolve(ctx, userUID)

		s.mu.Lock()
		defer s.mu.Unlock()
		if s.gen != gen {
			// Идентичность успела смениться, результат устарел.
			close(done)
			return
		}
		s.role = role
		close(done)
	}()
}

// Current возвращает активную идентичность и её последнюю известную роль.
func (s *SessionResolver) Current() (string, models.Role) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.userUID, s.role
}

// Wait блокируется до завершения вычисления, запущенного последним Switch.
// Используется слоем сессии, когда роль нужна синхронно.
func (s *SessionResolver) Wait() {
	s.mu.Lock()
	done := s.done
	s.mu.Unlock()
	if done != nil {
		<-done
	}
}
