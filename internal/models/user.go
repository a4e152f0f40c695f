// Package models содержит доменную модель пользователя сервиса:
// учётные данные, хэш пароля и состояние подписки.
// Структура используется в бизнес-логике и при работе с хранилищем.
package models

import "time"

// Статусы подписки пользователя.
const (
	// SubscriptionInactive — подписка не оформлена или отменена.
	SubscriptionInactive = "inactive"
	// SubscriptionActive — подписка оплачена и действует до SubscriptionExpiry.
	SubscriptionActive = "active"
)

// User представляет зарегистрированного пользователя сервиса.
type User struct {
	ID                 int64      // Числовой идентификатор, назначается хранилищем
	UID                string     // UUID пользователя
	Username           string     // Имя пользователя (уникальное)
	PasswordHash       string     // bcrypt-хэш пароля, никогда не отдаётся клиенту
	SubscriptionStatus string     // Статус подписки: active или inactive
	SubscriptionExpiry *time.Time // Дата истечения оплаченной подписки, NULL если не оформлялась
	CreatedAt          time.Time  // Дата регистрации
}

// IsEntitled сообщает, имеет ли пользователь оплаченный доступ на момент now.
// Активный статус с пустой датой истечения трактуется как бессрочный доступ.
func (u *User) IsEntitled(now time.Time) bool {
	if u.SubscriptionStatus != SubscriptionActive {
		return false
	}
	return u.SubscriptionExpiry == nil || u.SubscriptionExpiry.After(now)
}
