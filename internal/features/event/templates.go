// Package event — templates.go содержит пул шаблонов событий.
package event

// Template — заготовка случайного события с базовыми наградами.
// Итоговые награды получаются умножением на случайный множитель.
type Template struct {
	Title          string
	Description    string
	BaseMana       int64
	BaseExperience int64
}

// DefaultTemplates — пул шаблонов по умолчанию.
// Сервис принимает пул снаружи, поэтому в тестах его можно подменить.
var DefaultTemplates = []Template{
	{
		Title:          "Неожиданный комплимент",
		Description:    "Сделайте партнёру искренний комплимент без повода",
		BaseMana:       10,
		BaseExperience: 5,
	},
	{
		Title:          "Маленький сюрприз",
		Description:    "Приготовьте партнёру маленький сюрприз — что угодно",
		BaseMana:       20,
		BaseExperience: 10,
	},
	{
		Title:          "Вечер без телефонов",
		Description:    "Проведите вечер вдвоём, не заглядывая в телефоны",
		BaseMana:       30,
		BaseExperience: 15,
	},
	{
		Title:          "Совместный завтрак",
		Description:    "Приготовьте и съешьте завтрак вместе",
		BaseMana:       15,
		BaseExperience: 8,
	},
	{
		Title:          "Письмо от руки",
		Description:    "Напишите партнёру короткое письмо от руки",
		BaseMana:       25,
		BaseExperience: 12,
	},
	{
		Title:          "Прогулка по новому маршруту",
		Description:    "Погуляйте вдвоём там, где ещё не были",
		BaseMana:       20,
		BaseExperience: 10,
	},
}
