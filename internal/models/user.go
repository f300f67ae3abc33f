package models

import "time"

// User представляет учётную запись пользователя сервиса.
// Поле IsAdmin — устаревшее зеркало роли, сохраняется для старых читателей
// и пересчитывается при каждой записи роли: IsAdmin == (Role == RoleAdmin).
type User struct {
	UID                   string     // Уникальный идентификатор пользователя
	Email                 string     // Электронная почта
	Username              string     // Имя пользователя
	Role                  Role       // Персистентная базовая роль
	IsAdmin               bool       // Устаревшее зеркало Role == RoleAdmin
	TemporaryAccess       bool       // Флаг активного временного гранта
	TemporaryAccessExpiry *time.Time // Момент истечения временного гранта
	CreatedAt             time.Time
	UpdatedAt             time.Time
}

// UserGrantPatch описывает частичное обновление учётной записи,
// которое создаёт окно временного доступа при одобрении заявки.
type UserGrantPatch struct {
	TemporaryAccess       bool
	TemporaryAccessExpiry time.Time
}
