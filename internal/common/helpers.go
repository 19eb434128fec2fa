// Package common содержит общие утилиты, используемые во всём проекте.
// Сюда входят: русская плюрализация, форматирование, работа с календарём.
package common

import (
	"fmt"
	"math"
	"time"
)

// PluralizeMana возвращает правильную форму слова «мана» для числа n.
//
// Правила русского языка:
//   - n%10==1 И n%100!=11 → "мана" (1, 21, 31, 101, ...)
//   - n%10 в [2,3,4] И n%100 НЕ в [12,13,14] → "маны" (2, 3, 4, 22, 23, ...)
//   - Остальные случаи → "ман" (0, 5-20, 25-30, 100, ...)
func PluralizeMana(n int64) string {
	absN := int64(math.Abs(float64(n)))
	lastDigit := absN % 10
	lastTwoDigits := absN % 100

	if lastDigit == 1 && lastTwoDigits != 11 {
		return "мана"
	}
	if lastDigit >= 2 && lastDigit <= 4 && (lastTwoDigits < 12 || lastTwoDigits > 14) {
		return "маны"
	}
	return "ман"
}

// FormatMana форматирует сумму маны в читабельную строку.
// Пример: FormatMana(150) → "150 ман"
func FormatMana(amount int64) string {
	return fmt.Sprintf("%d %s", amount, PluralizeMana(amount))
}

// AppLocation возвращает часовой пояс приложения (Europe/Moscow).
// Все календарные границы квот (день/неделя/месяц) считаются в нём.
func AppLocation() *time.Location {
	loc, err := time.LoadLocation("Europe/Moscow")
	if err != nil {
		// Если не удалось загрузить — используем UTC+3 вручную
		loc = time.FixedZone("MSK", 3*60*60)
	}
	return loc
}

// Now возвращает текущее время в часовом поясе приложения.
func Now() time.Time {
	return time.Now().In(AppLocation())
}

// StartOfDay возвращает полночь дня, в котором лежит t.
func StartOfDay(t time.Time) time.Time {
	t = t.In(AppLocation())
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// StartOfWeek возвращает полночь понедельника недели, в которой лежит t.
// Неделя начинается с понедельника.
func StartOfWeek(t time.Time) time.Time {
	day := StartOfDay(t)
	weekday := int(day.Weekday())
	if weekday == 0 { // воскресенье в Go — 0
		weekday = 7
	}
	return day.AddDate(0, 0, -(weekday - 1))
}

// StartOfMonth возвращает полночь первого числа месяца, в котором лежит t.
func StartOfMonth(t time.Time) time.Time {
	t = t.In(AppLocation())
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
}

// SameDay сообщает, лежат ли a и b в одном календарном дне.
func SameDay(a, b time.Time) bool {
	return StartOfDay(a).Equal(StartOfDay(b))
}

// FormatDateTime форматирует время в формат "02.01.2006 15:04".
// Используется для отображения дат транзакций и дедлайнов.
func FormatDateTime(t time.Time) string {
	return t.In(AppLocation()).Format("02.01.2006 15:04")
}
