// Package economy — metrics.go считает производные метрики по журналу.
package economy

import (
	"context"

	"wishmana.ru/wish-bot/internal/common"
	"wishmana.ru/wish-bot/internal/features/rank"
)

// Metrics собирает метрики экономики пользователя по окну последних
// транзакций. Размер окна задаётся конфигурацией, поэтому стоимость
// расчёта не растёт вместе с журналом.
func (s *Service) Metrics(ctx context.Context, userID int64) (*Metrics, error) {
	u, err := s.users.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	g, err := s.gameplay.Gameplay(ctx)
	if err != nil {
		return nil, err
	}
	transactions, err := s.repo.RecentTransactions(ctx, userID, s.cfg.EconomyMetricsWindow)
	if err != nil {
		return nil, err
	}

	m := &Metrics{QuotaUtilization: make(map[string]float64, 3)}
	enchantments := make(map[string]int)
	for _, t := range transactions {
		switch {
		case t.Category == CategoryGiftSent:
			m.GiftsSent++
		case t.Direction == DirectionCredit:
			m.ManaEarned += t.Amount
		case t.Direction == DirectionDebit:
			m.ManaSpent += t.Amount
			if t.Category == CategoryEnchantment && t.Detail != nil {
				enchantments[*t.Detail]++
			}
		}
	}

	top := 0
	for typ, count := range enchantments {
		// При равенстве побеждает лексикографически меньший тип,
		// чтобы результат не зависел от порядка обхода карты
		if count > top || (count == top && typ < m.TopEnchantment) {
			top = count
			m.TopEnchantment = typ
		}
	}

	status := buildQuotaStatus(u, g, rank.Current(u.ExperiencePoints), common.Now())
	for name, w := range map[string]QuotaWindow{
		"daily":   status.Daily,
		"weekly":  status.Weekly,
		"monthly": status.Monthly,
	} {
		if w.Limit > 0 {
			m.QuotaUtilization[name] = float64(w.Used) / float64(w.Limit) * 100
		}
	}

	return m, nil
}
