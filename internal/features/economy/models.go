// Package economy управляет маной — единой валютой пары.
// models.go описывает транзакции журнала, квоты и результаты операций.
package economy

import "time"

// Направления движения маны
const (
	DirectionCredit = "credit"
	DirectionDebit  = "debit"
)

// Категории транзакций
const (
	CategoryQuestReward   = "quest_reward"   // Награда за квест
	CategoryEventReward   = "event_reward"   // Награда за случайное событие
	CategoryGiftSent      = "gift_sent"      // Отправленный подарок (мана не движется)
	CategoryEnchantment   = "enchantment"    // Покупка зачарования
	CategoryWishCompleted = "wish_completed" // Выполнение желания (только опыт)
	CategoryGrant         = "grant"          // Ручное начисление
	CategoryMigration     = "migration"      // Перенос данных
)

// Transaction — одна запись журнала маны.
// Журнал append-only: записи никогда не меняются и не удаляются.
// Сумма записей пользователя со знаком всегда сходится с его балансом.
type Transaction struct {
	ID               int64     `db:"id"`
	UserID           int64     `db:"user_id"`
	Direction        string    `db:"direction"`
	Amount           int64     `db:"mana_amount"` // Всегда неотрицательная
	Description      string    `db:"description"`
	Category         string    `db:"transaction_category"`
	Detail           *string   `db:"detail"` // Уточнение категории (тип зачарования)
	ReferenceID      *int64    `db:"reference_id"`
	ReferenceType    *string   `db:"reference_type"`
	ExperienceGained int64     `db:"experience_gained"`
	CreatedAt        time.Time `db:"created_at"`
}

// Signed возвращает сумму со знаком: кредит положителен, дебет отрицателен.
func (t *Transaction) Signed() int64 {
	if t.Direction == DirectionDebit {
		return -t.Amount
	}
	return t.Amount
}

// QuotaWindow — состояние одного окна квоты подарков.
type QuotaWindow struct {
	Limit   int // base + ранговый бонус
	Used    int
	ResetAt time.Time // Когда окно обнулится
}

// Remaining возвращает остаток окна (не меньше нуля).
func (w QuotaWindow) Remaining() int {
	if w.Used >= w.Limit {
		return 0
	}
	return w.Limit - w.Used
}

// QuotaStatus — все три окна квоты пользователя.
type QuotaStatus struct {
	Daily   QuotaWindow
	Weekly  QuotaWindow
	Monthly QuotaWindow
}

// QuotaLimits — посчитанные лимиты окон, передаются в атомарное списание.
type QuotaLimits struct {
	Daily   int
	Weekly  int
	Monthly int
}

// GiftRequest — запрос на подарок желания.
// Подарок расходует квоту, а не ману: дефицитный ресурс — внимание,
// поэтому mana_amount у записи gift_sent равен нулю.
type GiftRequest struct {
	ToUserID int64
	Amount   int    // Стоимость в единицах квоты; 0 трактуется как 1
	Message  string // Необязательное послание получателю
}

// GiftResult — итог успешного подарка.
type GiftResult struct {
	Remaining int // Минимальный остаток по окнам после списания
}

// EnchantResult — итог покупки зачарования.
type EnchantResult struct {
	Cost       int64
	NewBalance int64
}

// Metrics — производные метрики экономики пользователя.
// Считаются по ограниченному окну последних транзакций.
type Metrics struct {
	GiftsSent        int
	ManaEarned       int64
	ManaSpent        int64
	QuotaUtilization map[string]float64 // окно → занятость в процентах
	TopEnchantment   string             // Самый частый тип зачарования ("" — нет данных)
}

// EnchantmentUpdate — слияние нового зачарования в запись желания.
// nil-поля не трогают уже применённые зачарования.
type EnchantmentUpdate struct {
	Priority     *int
	Aura         *string
	SetLinked    bool
	SetRecurring bool
}
