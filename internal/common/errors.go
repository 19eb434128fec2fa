// Package common — errors.go определяет пользовательские ошибки,
// которые используются во всех движках бота.
// Обработчики по ним различают типы проблем и показывают
// пользователю понятные сообщения.
package common

import (
	"errors"
	"fmt"
	"strings"
)

// Ошибки экономики (мана, подарки, зачарования)
var (
	// ErrInvalidAmount — некорректная сумма (отрицательная)
	ErrInvalidAmount = errors.New("сумма должна быть неотрицательной")
	// ErrSelfGift — попытка подарить желание самому себе
	ErrSelfGift = errors.New("нельзя дарить желание самому себе")
	// ErrRecipientNotFound — получатель подарка не найден
	ErrRecipientNotFound = errors.New("получатель не найден")
	// ErrQuotaExceeded — превышена квота подарков
	ErrQuotaExceeded = errors.New("квота подарков исчерпана")
	// ErrInsufficientMana — недостаточно маны на счёте
	ErrInsufficientMana = errors.New("недостаточно маны")
	// ErrInvalidLevel — уровень приоритета вне настроенной таблицы
	ErrInvalidLevel = errors.New("некорректный уровень приоритета")
	// ErrUnknownEnchantment — тип зачарования не настроен
	ErrUnknownEnchantment = errors.New("неизвестный тип зачарования")
	// ErrInvalidAura — аура вне допустимого набора
	ErrInvalidAura = errors.New("недопустимая аура")
)

// Ошибки жизненных циклов (желания, квесты, события)
var (
	// ErrNotFound — сущность не найдена в базе
	ErrNotFound = errors.New("не найдено")
	// ErrUserNotFound — пользователь не найден
	ErrUserNotFound = errors.New("пользователь не найден")
	// ErrPermissionDenied — нет прав на операцию над сущностью
	ErrPermissionDenied = errors.New("нет прав на эту операцию")
	// ErrInvalidState — операция недопустима в текущем статусе
	ErrInvalidState = errors.New("операция недопустима в текущем статусе")
	// ErrAlreadyActive — у пользователя уже есть активное событие
	ErrAlreadyActive = errors.New("активное событие уже существует")
	// ErrSelfCompletion — владелец пытается завершить своё событие сам
	ErrSelfCompletion = errors.New("своё событие завершает только партнёр")
	// ErrEventExpired — событие просрочено
	ErrEventExpired = errors.New("событие просрочено")
	// ErrValidation — входные данные не прошли проверку
	ErrValidation = errors.New("данные не прошли проверку")
)

// Ошибки настроек
var (
	// ErrWrongPassword — неверный пароль администратора
	ErrWrongPassword = errors.New("неверный пароль")
	// ErrUnknownSetting — неизвестный ключ настройки
	ErrUnknownSetting = errors.New("неизвестный ключ настройки")
)

// QuotaViolation описывает одно нарушенное окно квоты.
type QuotaViolation struct {
	Window    string // daily / weekly / monthly
	Limit     int
	Used      int
	Requested int
}

// QuotaExceededError перечисляет ВСЕ окна, которые были бы превышены подарком.
// errors.Is(err, ErrQuotaExceeded) возвращает true.
type QuotaExceededError struct {
	Violations []QuotaViolation
}

func (e *QuotaExceededError) Error() string {
	parts := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		parts = append(parts, fmt.Sprintf("%s: %d+%d из %d", v.Window, v.Used, v.Requested, v.Limit))
	}
	return "квота подарков исчерпана (" + strings.Join(parts, ", ") + ")"
}

func (e *QuotaExceededError) Is(target error) bool { return target == ErrQuotaExceeded }

// InsufficientManaError сообщает, сколько маны нужно и сколько есть.
// errors.Is(err, ErrInsufficientMana) возвращает true.
type InsufficientManaError struct {
	Required  int64
	Available int64
}

func (e *InsufficientManaError) Error() string {
	return fmt.Sprintf("недостаточно маны: нужно %d, есть %d", e.Required, e.Available)
}

func (e *InsufficientManaError) Is(target error) bool { return target == ErrInsufficientMana }

// ValidationError собирает все нарушенные правила в один список,
// чтобы пользователь исправил всё за один заход.
// errors.Is(err, ErrValidation) возвращает true.
type ValidationError struct {
	Violations []string
}

func (e *ValidationError) Error() string {
	return "данные не прошли проверку: " + strings.Join(e.Violations, "; ")
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }
