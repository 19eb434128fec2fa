// Package event реализует случайные события — маленькие задания,
// которые система подбрасывает пользователю сама.
// models.go описывает структуру события и записи расписания.
package event

import "time"

// Статусы события. Из active событие уходит в completed либо expired.
const (
	StatusActive    = "active"
	StatusCompleted = "completed"
	StatusExpired   = "expired"
)

// Event представляет одно случайное событие.
// Событие принадлежит владельцу, но засчитывает его только партнёр:
// выполнение подтверждается второй стороной, а награду получает владелец.
type Event struct {
	ID          int64  `db:"id"`
	UserID      int64  `db:"user_id"` // Владелец события
	Title       string `db:"title"`
	Description string `db:"description"`
	Status      string `db:"status"`

	RewardMana       int64   `db:"reward_mana"`
	RewardExperience int64   `db:"reward_experience"`
	Multiplier       float64 `db:"multiplier"` // Случайный множитель наград

	CompletedBy *int64    `db:"completed_by"` // Кто подтвердил выполнение
	ExpiresAt   time.Time `db:"expires_at"`
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`
}

// IsActive сообщает, ждёт ли событие выполнения.
func (e *Event) IsActive() bool {
	return e.Status == StatusActive
}

// Schedule — отложенная генерация следующего события.
// После завершения события владельцу назначается новое со случайной
// задержкой; строка расписания потребляется фоновым обходом.
type Schedule struct {
	ID        int64     `db:"id"`
	UserID    int64     `db:"user_id"`
	DueAt     time.Time `db:"due_at"`
	Consumed  bool      `db:"consumed"`
	CreatedAt time.Time `db:"created_at"`
}
