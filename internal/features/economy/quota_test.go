package economy

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wishmana.ru/wish-bot/internal/common"
	"wishmana.ru/wish-bot/internal/features/rank"
	"wishmana.ru/wish-bot/internal/features/settings"
	"wishmana.ru/wish-bot/internal/features/user"
)

func TestBuildQuotaStatusLimits(t *testing.T) {
	g := settings.DefaultGameplay()
	u := &user.User{QuotaDailyUsed: 1, QuotaWeeklyUsed: 2, QuotaMonthlyUsed: 3}
	now := time.Date(2026, 8, 19, 12, 0, 0, 0, common.AppLocation())

	// Новичок: лимиты равны базам
	novice, _ := rank.ByName("novice")
	status := buildQuotaStatus(u, g, novice, now)
	assert.Equal(t, 5, status.Daily.Limit)
	assert.Equal(t, 20, status.Weekly.Limit)
	assert.Equal(t, 50, status.Monthly.Limit)

	// Адепт: база + ранговый бонус
	adept, _ := rank.ByName("adept")
	status = buildQuotaStatus(u, g, adept, now)
	assert.Equal(t, 7, status.Daily.Limit)
	assert.Equal(t, 25, status.Weekly.Limit)
	assert.Equal(t, 60, status.Monthly.Limit)

	assert.Equal(t, 6, status.Daily.Remaining())
}

func TestValidateGiftExceeded(t *testing.T) {
	// Дневное окно 4/5, подарок на 2 — отказ, окно названо в ошибке
	status := QuotaStatus{
		Daily:   QuotaWindow{Limit: 5, Used: 4},
		Weekly:  QuotaWindow{Limit: 20, Used: 4},
		Monthly: QuotaWindow{Limit: 50, Used: 4},
	}

	_, err := validateGift(status, 2)
	require.ErrorIs(t, err, common.ErrQuotaExceeded)

	var qErr *common.QuotaExceededError
	require.True(t, errors.As(err, &qErr))
	require.Len(t, qErr.Violations, 1)
	assert.Equal(t, "daily", qErr.Violations[0].Window)
	assert.Equal(t, 5, qErr.Violations[0].Limit)
	assert.Equal(t, 4, qErr.Violations[0].Used)
}

func TestValidateGiftAllViolations(t *testing.T) {
	// Превышены все окна — в ошибке перечислено каждое
	status := QuotaStatus{
		Daily:   QuotaWindow{Limit: 5, Used: 5},
		Weekly:  QuotaWindow{Limit: 20, Used: 20},
		Monthly: QuotaWindow{Limit: 50, Used: 50},
	}

	_, err := validateGift(status, 1)
	var qErr *common.QuotaExceededError
	require.True(t, errors.As(err, &qErr))
	assert.Len(t, qErr.Violations, 3)
}

func TestValidateGiftHeadroom(t *testing.T) {
	status := QuotaStatus{
		Daily:   QuotaWindow{Limit: 5, Used: 2},
		Weekly:  QuotaWindow{Limit: 20, Used: 18},
		Monthly: QuotaWindow{Limit: 50, Used: 10},
	}

	// Остаток — минимум по окнам: недельное окно даёт 2
	headroom, err := validateGift(status, 1)
	require.NoError(t, err)
	assert.Equal(t, 2, headroom)

	// Ровно в лимит — проходит
	_, err = validateGift(status, 2)
	require.NoError(t, err)
}

func TestResetsNeeded(t *testing.T) {
	loc := common.AppLocation()

	tests := []struct {
		name      string
		lastReset time.Time
		now       time.Time
		daily     bool
		weekly    bool
		monthly   bool
	}{
		{
			name:      "тот же день",
			lastReset: time.Date(2026, 8, 19, 9, 0, 0, 0, loc),
			now:       time.Date(2026, 8, 19, 23, 0, 0, 0, loc),
		},
		{
			name:      "следующий день той же недели",
			lastReset: time.Date(2026, 8, 18, 9, 0, 0, 0, loc),
			now:       time.Date(2026, 8, 19, 1, 0, 0, 0, loc),
			daily:     true,
		},
		{
			name:      "переход через понедельник",
			lastReset: time.Date(2026, 8, 16, 9, 0, 0, 0, loc), // воскресенье
			now:       time.Date(2026, 8, 17, 0, 30, 0, 0, loc), // понедельник
			daily:     true,
			weekly:    true,
		},
		{
			name:      "переход через первое число",
			lastReset: time.Date(2026, 7, 31, 9, 0, 0, 0, loc),
			now:       time.Date(2026, 8, 1, 0, 30, 0, 0, loc), // суббота, неделя та же
			daily:     true,
			monthly:   true,
		},
		{
			name:      "простой в несколько недель",
			lastReset: time.Date(2026, 7, 1, 9, 0, 0, 0, loc),
			now:       time.Date(2026, 8, 19, 9, 0, 0, 0, loc),
			daily:     true,
			weekly:    true,
			monthly:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			daily, weekly, monthly := resetsNeeded(tt.lastReset, tt.now)
			assert.Equal(t, tt.daily, daily, "daily")
			assert.Equal(t, tt.weekly, weekly, "weekly")
			assert.Equal(t, tt.monthly, monthly, "monthly")
		})
	}
}
