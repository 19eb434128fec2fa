// Package user управляет участниками пары.
// models.go описывает структуру пользователя и его игровое состояние.
package user

import "time"

// User представляет одного участника пары.
// Баланс маны, опыт и счётчики квот лежат прямо здесь —
// каждая строка users и есть «кошелёк» пользователя.
type User struct {
	ID        int64  `db:"id"`
	UserID    int64  `db:"user_id"`    // Telegram user ID
	PartnerID *int64 `db:"partner_id"` // Второй участник пары (nil, пока пара не связана)
	Name      string `db:"name"`

	Mana             int64  `db:"mana"`              // Текущий баланс (неотрицательный)
	ManaSpent        int64  `db:"mana_spent"`        // Сколько всего потрачено
	ExperiencePoints int64  `db:"experience_points"` // Опыт (только растёт)
	Rank             string `db:"rank"`              // Имя текущего ранга

	QuotaDailyUsed   int       `db:"quota_daily_used"`
	QuotaWeeklyUsed  int       `db:"quota_weekly_used"`
	QuotaMonthlyUsed int       `db:"quota_monthly_used"`
	LastQuotaReset   time.Time `db:"last_quota_reset"`

	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// HasPartner сообщает, связан ли пользователь с партнёром.
func (u *User) HasPartner() bool {
	return u.PartnerID != nil && *u.PartnerID != 0
}

// IsPartner проверяет, что other — подтверждённый партнёр пользователя.
func (u *User) IsPartner(other int64) bool {
	return u.PartnerID != nil && *u.PartnerID == other
}
