package models

import "time"

// RequestStatus — статус заявки на расширенный доступ.
type RequestStatus string

const (
	// StatusPending — начальный статус, заявка ждет решения администратора.
	StatusPending RequestStatus = "pending"
	// StatusApproved — терминальный статус, заявка одобрена.
	StatusApproved RequestStatus = "approved"
	// StatusRejected — терминальный статус, заявка отклонена.
	StatusRejected RequestStatus = "rejected"
)

// IsTerminal сообщает, допускает ли статус дальнейшие переходы.
func (s RequestStatus) IsTerminal() bool {
	return s == StatusApproved || s == StatusRejected
}

// FeatureRequest представляет заявку пользователя на расширенный доступ.
// Контактные данные денормализованы, чтобы админ видел заявку без join'а.
// Поля Approval* заполняются только при одобрении; ApprovalDurationDays
// сохраняется для аудита, авторитетным остаётся ApprovalEndDate.
type FeatureRequest struct {
	ID                   string        // Уникальный идентификатор заявки
	UserUID              string        // Идентификатор заявителя
	Email                string        // Электронная почта заявителя
	Username             string        // Имя заявителя
	RequestedFeature     string        // Запрошенная функциональность
	RequestMessage       string        // Необязательное сопровождение заявки
	Status               RequestStatus // Текущий статус
	ReviewedBy           string        // Администратор, принявший решение
	ReviewNotes          string        // Комментарий администратора
	ApprovalStartDate    *time.Time    // Начало окна временного доступа
	ApprovalEndDate      *time.Time    // Конец окна временного доступа
	ApprovalDurationDays *int          // Исходная длительность в днях, если задавалась
	CreatedAt            time.Time
	UpdatedAt            *time.Time
}

// DummyFeatureRequest используется для приёма данных из JSON-запроса
// на создание заявки, прежде чем конвертировать их в FeatureRequest.
type DummyFeatureRequest struct {
	Email            string `json:"email" validate:"required,email"`       // Контакт для ответа
	RequestedFeature string `json:"requested_feature" validate:"required"` // Название функциональности
	RequestMessage   string `json:"request_message" validate:"omitempty"`  // Сопровождение
}

// DummyDecision используется для приёма данных из JSON-запроса на одобрение.
// Даты приходят строками в формате 02-01-2006, их формат проверяется при
// ручном парсинге в обработчике, а не тегами валидатора.
// Должно быть задано ровно одно из полей EndDate и DurationDays.
type DummyDecision struct {
	StartDate    string `json:"start_date"`                              // Начало окна, по умолчанию момент одобрения
	EndDate      string `json:"end_date"`                                // Явный конец окна
	DurationDays int    `json:"duration_days" validate:"omitempty,gt=0"` // Длительность в днях от начала окна
	ReviewNotes  string `json:"review_notes" validate:"omitempty"`       // Комментарий администратора
}

// DummyRejection используется для приёма данных из JSON-запроса на отклонение.
type DummyRejection struct {
	ReviewNotes string `json:"review_notes" validate:"omitempty"`
}

// GrantWindow — разобранное сервисом окно временного доступа.
// Start может быть не задан, тогда используется момент одобрения.
// Задаётся либо End, либо DurationDays.
type GrantWindow struct {
	Start        *time.Time
	End          *time.Time
	DurationDays int
}
