// Package wish управляет желаниями — единицами обмена услугами в паре.
// models.go описывает структуру желания и типы зачарований.
package wish

import "time"

// Статусы желания. Покинув active, желание больше не меняется.
const (
	StatusActive    = "active"
	StatusCompleted = "completed"
	StatusCancelled = "cancelled"
)

// EnchantmentType — тип зачарования желания.
// Набор закрытый: расчёт стоимости и валидация перебирают его целиком.
type EnchantmentType string

const (
	// EnchantPriority — повышение приоритета (уровни 1–5)
	EnchantPriority EnchantmentType = "priority"
	// EnchantAura — тематическая аура
	EnchantAura EnchantmentType = "aura"
	// EnchantLinked — связка с другим желанием
	EnchantLinked EnchantmentType = "linked_wish"
	// EnchantRecurring — повторяющееся желание
	EnchantRecurring EnchantmentType = "recurring"
)

// Auras — допустимые значения ауры. Всё вне этого набора отклоняется.
var Auras = []string{"romantic", "urgent", "playful", "mysterious"}

// ValidAura проверяет значение ауры по допустимому набору.
func ValidAura(aura string) bool {
	for _, a := range Auras {
		if a == aura {
			return true
		}
	}
	return false
}

// Границы уровня приоритета
const (
	PriorityMin = 1
	PriorityMax = 5
)

// Wish представляет одно желание.
// Автор может зачаровывать его, исполнитель — завершать.
type Wish struct {
	ID          int64  `db:"id"`
	AuthorID    int64  `db:"author_id"`
	AssigneeID  *int64 `db:"assignee_id"` // nil — пока никому не назначено
	Description string `db:"description"`
	Category    string `db:"category"`
	Status      string `db:"status"`

	IsShared     bool `db:"is_shared"`
	IsGift       bool `db:"is_gift"`
	IsHistorical bool `db:"is_historical"`

	// Запись зачарований. Новые зачарования дописываются,
	// не сбрасывая уже применённые.
	Priority    int     `db:"priority"` // 1–5, по умолчанию 1
	Aura        *string `db:"aura"`
	IsLinked    bool    `db:"is_linked"`
	IsRecurring bool    `db:"is_recurring"`

	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// IsActive сообщает, можно ли ещё менять желание.
func (w *Wish) IsActive() bool {
	return w.Status == StatusActive
}

// CreateRequest — параметры создания желания.
type CreateRequest struct {
	Description  string
	AssigneeID   *int64
	Category     string
	IsShared     bool
	IsGift       bool
	IsHistorical bool
}

// EnchantmentRequest — запрос на зачарование (вариант по типу).
// Для priority заполняется Level, для aura — Aura; связка и
// повторение дополнительных полей не имеют.
type EnchantmentRequest struct {
	WishID int64
	Type   EnchantmentType
	Level  int
	Aura   string
}
