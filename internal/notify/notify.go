// Package notify доставляет уведомления пользователям.
//
// Уведомления — fire-and-forget: сбой доставки логируется и никогда
// не влияет на операцию, которая уведомление породила. Подарок
// состоялся, даже если сообщение о нём не дошло.
package notify

import (
	"context"

	log "github.com/sirupsen/logrus"
)

// Виды уведомлений
const (
	KindGiftReceived   = "gift_received"
	KindQuestCompleted = "quest_completed"
	KindQuestExpired   = "quest_expired"
	KindEventCompleted = "event_completed"
	KindEventNew       = "event_new"
	KindRankPromoted   = "rank_promoted"
)

// Notifier отправляет уведомление пользователю.
// Реализации не возвращают ошибку: доставка негарантированная.
type Notifier interface {
	Notify(ctx context.Context, kind string, recipientID int64, text string)
}

// LogNotifier пишет уведомления в лог.
// Используется без Telegram-токена и в тестах.
type LogNotifier struct{}

// NewLogNotifier создаёт лог-заглушку уведомлений.
func NewLogNotifier() *LogNotifier {
	return &LogNotifier{}
}

// Notify пишет уведомление в лог вместо отправки.
func (n *LogNotifier) Notify(_ context.Context, kind string, recipientID int64, text string) {
	log.WithFields(log.Fields{
		"kind":      kind,
		"recipient": recipientID,
		"text":      text,
	}).Info("Уведомление (без доставки)")
}
