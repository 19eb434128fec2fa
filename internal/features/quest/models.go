// Package quest реализует квесты — поручения с дедлайном и наградой.
// models.go описывает структуру квеста и запросы операций.
package quest

import "time"

// Статусы квеста. Из active квест уходит ровно в один конечный статус.
const (
	StatusActive    = "active"
	StatusCompleted = "completed"
	StatusExpired   = "expired"
	StatusCancelled = "cancelled"
)

// Сложности квестов. hard и epic закрыты ранговыми привилегиями.
const (
	DifficultyEasy   = "easy"
	DifficultyMedium = "medium"
	DifficultyHard   = "hard"
	DifficultyEpic   = "epic"
)

// Quest представляет одно поручение.
// Автор ставит квест партнёру-исполнителю; награду при завершении
// получает исполнитель.
type Quest struct {
	ID          int64  `db:"id"`
	AuthorID    int64  `db:"author_id"`
	AssigneeID  int64  `db:"assignee_id"`
	Title       string `db:"title"`
	Description string `db:"description"`
	Category    string `db:"category"`
	Difficulty  string `db:"difficulty"`
	Status      string `db:"status"`

	RewardMana       int64 `db:"reward_mana"`
	RewardExperience int64 `db:"reward_experience"`

	DueDate     *time.Time `db:"due_date"` // nil — квест без дедлайна
	CompletedAt *time.Time `db:"completed_at"`
	CreatedAt   time.Time  `db:"created_at"`
	UpdatedAt   time.Time  `db:"updated_at"`
}

// IsActive сообщает, можно ли ещё менять квест.
func (q *Quest) IsActive() bool {
	return q.Status == StatusActive
}

// CreateRequest — параметры создания квеста.
// Нулевые RewardMana/RewardExperience означают «взять награды
// по умолчанию для сложности».
type CreateRequest struct {
	Title       string
	Description string
	AssigneeID  int64
	Category    string
	Difficulty  string
	DueDate     *time.Time // nil — без дедлайна, срок не истекает

	RewardMana       *int64
	RewardExperience *int64
}

// UpdateRequest — частичное обновление активного квеста.
// nil-поля остаются без изменений.
type UpdateRequest struct {
	Title       *string
	Description *string
	Difficulty  *string
	DueDate     *time.Time

	RewardMana       *int64
	RewardExperience *int64
}

// CompleteResult — итог завершения квеста.
// RewardsGranted ложно, когда квест завершён, но начисление награды
// не прошло: статус при этом не откатывается.
type CompleteResult struct {
	Quest          *Quest
	RewardsGranted bool
}
