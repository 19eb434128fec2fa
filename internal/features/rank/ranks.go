// Package rank реализует прогрессию рангов по накопленному опыту.
// ranks.go содержит статическую таблицу рангов и чистые функции расчёта.
//
// Ранг пользователя — это старший ранг, порог которого он достиг.
// Ранги дают бонусы к квотам подарков и особые привилегии
// (множитель опыта, право создавать сложные квесты).
package rank

// Privileges — набор привилегий ранга.
// Значение 0 или отсутствующий ключ означают «не выдано»;
// булевы привилегии кодируются как 1.
type Privileges map[string]float64

// Ключи привилегий
const (
	PrivBonusExperience      = "bonus_experience"       // множитель опыта: итог = 1 + значение
	PrivCreateHardQuests     = "can_create_hard_quests" // право создавать квесты сложности hard
	PrivCreateEpicQuests     = "can_create_epic_quests" // право создавать квесты сложности epic
)

// Rank — одна строка статической таблицы рангов.
type Rank struct {
	Name              string
	MinExperience     int64
	QuotaBonusDaily   int
	QuotaBonusWeekly  int
	QuotaBonusMonthly int
	SpecialPrivileges Privileges
}

// Table — таблица рангов, отсортированная по порогу опыта.
// Порог каждого следующего ранга строго больше предыдущего.
var Table = []Rank{
	{
		Name:          "novice",
		MinExperience: 0,
	},
	{
		Name:              "apprentice",
		MinExperience:     100,
		QuotaBonusDaily:   1,
		QuotaBonusWeekly:  2,
		QuotaBonusMonthly: 5,
		SpecialPrivileges: Privileges{PrivBonusExperience: 0.1},
	},
	{
		Name:              "adept",
		MinExperience:     500,
		QuotaBonusDaily:   2,
		QuotaBonusWeekly:  5,
		QuotaBonusMonthly: 10,
		SpecialPrivileges: Privileges{PrivBonusExperience: 0.2, PrivCreateHardQuests: 1},
	},
	{
		Name:              "master",
		MinExperience:     1500,
		QuotaBonusDaily:   3,
		QuotaBonusWeekly:  10,
		QuotaBonusMonthly: 20,
		SpecialPrivileges: Privileges{PrivBonusExperience: 0.3, PrivCreateHardQuests: 1},
	},
	{
		Name:              "grandmaster",
		MinExperience:     5000,
		QuotaBonusDaily:   5,
		QuotaBonusWeekly:  15,
		QuotaBonusMonthly: 40,
		SpecialPrivileges: Privileges{
			PrivBonusExperience:  0.5,
			PrivCreateHardQuests: 1,
			PrivCreateEpicQuests: 1,
		},
	},
}

// Current возвращает старший ранг с порогом <= experience.
// Отрицательный опыт невозможен, но на всякий случай даёт младший ранг.
func Current(experience int64) Rank {
	current := Table[0]
	for _, r := range Table {
		if r.MinExperience <= experience {
			current = r
		}
	}
	return current
}

// ByName находит ранг по имени.
func ByName(name string) (Rank, bool) {
	for _, r := range Table {
		if r.Name == name {
			return r, true
		}
	}
	return Rank{}, false
}

// Promotion — результат сравнения рангов до и после получения опыта.
type Promotion struct {
	Promoted bool
	OldRank  Rank
	NewRank  Rank
}

// Promote сравнивает ранги до и после прироста опыта.
// Promoted истинно тогда и только тогда, когда имена рангов различаются.
func Promote(oldExperience, newExperience int64) Promotion {
	oldRank := Current(oldExperience)
	newRank := Current(newExperience)
	return Promotion{
		Promoted: oldRank.Name != newRank.Name,
		OldRank:  oldRank,
		NewRank:  newRank,
	}
}

// ExperienceMultiplier возвращает множитель опыта ранга: 1 + bonus_experience.
func ExperienceMultiplier(r Rank) float64 {
	return 1 + PrivilegeValue(r, PrivBonusExperience)
}

// HasPrivilege сообщает, выдана ли рангу привилегия.
// Отсутствующий ключ означает «не выдано».
func HasPrivilege(r Rank, key string) bool {
	return PrivilegeValue(r, key) != 0
}

// PrivilegeValue возвращает числовое значение привилегии (0, если нет).
func PrivilegeValue(r Rank, key string) float64 {
	if r.SpecialPrivileges == nil {
		return 0
	}
	return r.SpecialPrivileges[key]
}
