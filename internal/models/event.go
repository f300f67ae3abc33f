package models

import "time"

// DecisionEvent — событие о принятом решении по заявке, публикуемое
// во внешнюю очередь для слоя уведомлений. Содержит денормализованные
// контакты заявителя, чтобы потребителю не требовалось обращение к базе.
type DecisionEvent struct {
	RequestID        string        `json:"request_id"`
	UserUID          string        `json:"user_uid"`
	Email            string        `json:"email"`
	Username         string        `json:"username"`
	RequestedFeature string        `json:"requested_feature"`
	Status           RequestStatus `json:"status"`
	ReviewedBy       string        `json:"reviewed_by"`
	ApprovalEndDate  *time.Time    `json:"approval_end_date,omitempty"`
}
