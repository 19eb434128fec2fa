// Package settings хранит игровые таблицы экономики (economy_settings).
// models.go описывает структуру Gameplay и значения по умолчанию.
//
// Настройки читаются при каждом вызове движков, поэтому их можно
// крутить на живой системе без редеплоя. Отсутствующий в БД ключ
// означает «использовать значение по умолчанию».
package settings

import "time"

// Ключи таблицы economy_settings. Значение каждого ключа — JSON.
const (
	KeyQuotaBases          = "quota_bases"
	KeyEnchantBaseCosts    = "enchant_base_costs"
	KeyPriorityMultipliers = "priority_multipliers"
	KeyDifficultyRewards   = "difficulty_rewards"
	KeyExperiencePerAction = "experience_per_action"
	KeyCategoryMultipliers = "category_multipliers"
)

// QuotaBases — базовые лимиты подарков до ранговых бонусов.
type QuotaBases struct {
	Daily   int `json:"daily"`
	Weekly  int `json:"weekly"`
	Monthly int `json:"monthly"`
}

// Reward — пара «мана + опыт» за одно действие.
type Reward struct {
	Mana       int64 `json:"mana"`
	Experience int64 `json:"experience"`
}

// Gameplay — все игровые таблицы, собранные в одну структуру.
type Gameplay struct {
	QuotaBases QuotaBases

	// Базовые стоимости зачарований по типу ("priority", "aura", ...)
	EnchantBaseCosts map[string]int64
	// Множители стоимости приоритета по уровню 1–5.
	// Уровень 1 стоит 0 — «уже на базовом уровне» бесплатен.
	PriorityMultipliers map[int]int64
	// Награды за квест по сложности ("easy".."epic")
	DifficultyRewards map[string]Reward
	// Опыт за действия ("gift_sent", "wish_completed", ...)
	ExperiencePerAction map[string]int64
	// Множители наград по категории квеста
	CategoryMultipliers map[string]float64
}

// Setting — одна строка economy_settings.
type Setting struct {
	Key       string    `db:"key"`
	Value     []byte    `db:"value"` // JSON
	UpdatedAt time.Time `db:"updated_at"`
}

// DefaultGameplay возвращает таблицы по умолчанию.
// Уровень 1 приоритета умножается на 0 → бесплатный no-op,
// дальше стоимость строго растёт.
func DefaultGameplay() *Gameplay {
	return &Gameplay{
		QuotaBases: QuotaBases{Daily: 5, Weekly: 20, Monthly: 50},
		EnchantBaseCosts: map[string]int64{
			"priority":    5,
			"aura":        15,
			"linked_wish": 10,
			"recurring":   20,
		},
		PriorityMultipliers: map[int]int64{
			1: 0,
			2: 1,
			3: 3,
			4: 6,
			5: 10,
		},
		DifficultyRewards: map[string]Reward{
			"easy":   {Mana: 10, Experience: 5},
			"medium": {Mana: 25, Experience: 15},
			"hard":   {Mana: 50, Experience: 30},
			"epic":   {Mana: 100, Experience: 75},
		},
		ExperiencePerAction: map[string]int64{
			"gift_sent":      5,
			"wish_completed": 10,
		},
		CategoryMultipliers: map[string]float64{},
	}
}
