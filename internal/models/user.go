package models

import (
	"time"
)

// SuspendedType — вид административной блокировки пользователя.
type SuspendedType string

const (
	// SuspendedNone — блокировки нет.
	SuspendedNone SuspendedType = "NONE"
	// SuspendedBlock — полная блокировка аккаунта.
	SuspendedBlock SuspendedType = "BLOCK"
)

// User - модель пользователя в системе.
// Поля блокировки (SuspendedType/SuspendedReason/UnsuspendAt) никем не очищаются
// фоново: актуальность блокировки вычисляется лениво в момент проверки.
type User struct {
	ID              int64
	Name            string
	Nickname        string
	CreatedAt       time.Time
	UpdatedAt       time.Time
	SuspendedType   SuspendedType
	SuspendedReason string     // пустая строка, если блокировки нет
	UnsuspendAt     *time.Time // nil, если блокировка не назначалась
}

// SuspensionActive сообщает, действует ли блокировка на момент now.
// Блокировка активна, только если тип != NONE и now < UnsuspendAt;
// просроченная запись о блокировке считается погашенной.
func (u *User) SuspensionActive(now time.Time) bool {
	if u.SuspendedType == "" || u.SuspendedType == SuspendedNone {
		return false
	}

	return u.UnsuspendAt != nil && now.Before(*u.UnsuspendAt)
}
