// Package quest — rewards.go считает награды квестов по умолчанию.
package quest

import (
	"math"

	"wishmana.ru/wish-bot/internal/features/settings"
)

// defaultRewards возвращает награду по умолчанию для сложности
// с учётом множителя категории. Неизвестная сложность даёт false.
func defaultRewards(difficulty, category string, g *settings.Gameplay) (settings.Reward, bool) {
	base, ok := g.DifficultyRewards[difficulty]
	if !ok {
		return settings.Reward{}, false
	}
	if multiplier, ok := g.CategoryMultipliers[category]; ok && multiplier > 0 {
		base.Mana = int64(math.Round(float64(base.Mana) * multiplier))
		base.Experience = int64(math.Round(float64(base.Experience) * multiplier))
	}
	return base, true
}
