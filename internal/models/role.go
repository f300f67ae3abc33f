// Package models содержит доменную модель сервиса управления доступом:
// роли пользователей, учётные записи и заявки на расширенный доступ.
// Структуры используются в бизнес‑логике и при работе с хранилищем.
package models

// Role представляет уровень доступа пользователя.
// Порядок уровней строгий: free < paid < admin.
type Role string

const (
	// RoleFree — базовый уровень, выдаётся при создании учётной записи.
	RoleFree Role = "free"
	// RolePaid — платный уровень, выдаётся по подписке или временному гранту.
	RolePaid Role = "paid"
	// RoleAdmin — административный уровень.
	RoleAdmin Role = "admin"
)

// roleRanks задает порядок ролей для сравнения уровней доступа.
var roleRanks = map[Role]int{
	RoleFree:  0,
	RolePaid:  1,
	RoleAdmin: 2,
}

// Rank возвращает числовой ранг роли. Неизвестная роль получает ранг -1
// и не проходит ни одну проверку доступа, включая требование RoleFree.
func (r Role) Rank() int {
	rank, ok := roleRanks[r]
	if !ok {
		return -1
	}
	return rank
}

// IsValid сообщает, входит ли роль в известный набор уровней.
func (r Role) IsValid() bool {
	_, ok := roleRanks[r]
	return ok
}

// HasAccess проверяет, достаточно ли эффективной роли для требуемого уровня.
// Требование RoleFree выполняется для любой валидной роли.
func HasAccess(effective, required Role) bool {
	return effective.Rank() >= required.Rank()
}

// MaxRole возвращает роль с большим рангом.
func MaxRole(a, b Role) Role {
	if b.Rank() > a.Rank() {
		return b
	}
	return a
}
