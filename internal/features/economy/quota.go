// Package economy — quota.go реализует скользящие квоты подарков.
//
// Три окна: день, неделя (с понедельника), месяц. Лимит каждого окна —
// база из настроек плюс бонус текущего ранга. Сброс привязан к
// календарным границам и идемпотентен: сколько бы раз обход ни
// запускался за день, счётчики обнулятся ровно один раз.
package economy

import (
	"time"

	"wishmana.ru/wish-bot/internal/common"
	"wishmana.ru/wish-bot/internal/features/rank"
	"wishmana.ru/wish-bot/internal/features/settings"
	"wishmana.ru/wish-bot/internal/features/user"
)

// buildQuotaStatus собирает состояние всех окон квоты пользователя.
func buildQuotaStatus(u *user.User, g *settings.Gameplay, r rank.Rank, now time.Time) QuotaStatus {
	return QuotaStatus{
		Daily: QuotaWindow{
			Limit:   g.QuotaBases.Daily + r.QuotaBonusDaily,
			Used:    u.QuotaDailyUsed,
			ResetAt: common.StartOfDay(now).AddDate(0, 0, 1),
		},
		Weekly: QuotaWindow{
			Limit:   g.QuotaBases.Weekly + r.QuotaBonusWeekly,
			Used:    u.QuotaWeeklyUsed,
			ResetAt: common.StartOfWeek(now).AddDate(0, 0, 7),
		},
		Monthly: QuotaWindow{
			Limit:   g.QuotaBases.Monthly + r.QuotaBonusMonthly,
			Used:    u.QuotaMonthlyUsed,
			ResetAt: common.StartOfMonth(now).AddDate(0, 1, 0),
		},
	}
}

// resetsNeeded определяет, какие счётчики пора обнулить.
//
// Дневной — при смене календарного дня. Недельный — если последний
// сброс был до понедельника текущей недели (покрывает и пропущенные
// понедельники). Месячный — если последний сброс был до первого числа
// текущего месяца.
func resetsNeeded(lastReset, now time.Time) (daily, weekly, monthly bool) {
	daily = !common.SameDay(lastReset, now)
	weekly = lastReset.Before(common.StartOfWeek(now))
	monthly = lastReset.Before(common.StartOfMonth(now))
	return daily, weekly, monthly
}

// validateGift проверяет подарок по всем окнам сразу.
// Возвращает минимальный остаток по окнам либо QuotaExceededError,
// перечисляющую КАЖДОЕ окно, которое было бы превышено.
func validateGift(status QuotaStatus, amount int) (int, error) {
	windows := []struct {
		name   string
		window QuotaWindow
	}{
		{"daily", status.Daily},
		{"weekly", status.Weekly},
		{"monthly", status.Monthly},
	}

	var violations []common.QuotaViolation
	headroom := -1
	for _, w := range windows {
		if w.window.Used+amount > w.window.Limit {
			violations = append(violations, common.QuotaViolation{
				Window:    w.name,
				Limit:     w.window.Limit,
				Used:      w.window.Used,
				Requested: amount,
			})
			continue
		}
		if remaining := w.window.Remaining(); headroom < 0 || remaining < headroom {
			headroom = remaining
		}
	}

	if len(violations) > 0 {
		return 0, &common.QuotaExceededError{Violations: violations}
	}
	return headroom, nil
}
