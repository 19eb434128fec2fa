// Package wish — costs.go рассчитывает стоимость зачарований.
//
// Стоимость приоритета: base_cost["priority"] × множитель уровня.
// Множитель уровня 1 равен 0 — «уже на базовом уровне» ничего не
// стоит и не требует особого случая. Остальные типы стоят плоскую
// базовую цену.
package wish

import (
	"wishmana.ru/wish-bot/internal/common"
	"wishmana.ru/wish-bot/internal/features/settings"
)

// EnchantCost возвращает стоимость зачарования по таблицам настроек.
//
// Ошибки:
//   - ErrInvalidLevel — для priority уровень вне настроенных множителей
//   - ErrUnknownEnchantment — тип без базовой стоимости в настройках
func EnchantCost(typ EnchantmentType, level int, g *settings.Gameplay) (int64, error) {
	base, ok := g.EnchantBaseCosts[string(typ)]
	if !ok {
		return 0, common.ErrUnknownEnchantment
	}

	if typ == EnchantPriority {
		multiplier, ok := g.PriorityMultipliers[level]
		if !ok {
			return 0, common.ErrInvalidLevel
		}
		return base * multiplier, nil
	}

	return base, nil
}
