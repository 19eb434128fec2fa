// Package notify — telegram.go отправляет уведомления через Telegram Bot API.
package notify

import (
	"context"

	"github.com/mymmrac/telego"
	log "github.com/sirupsen/logrus"
)

// TelegramNotifier доставляет уведомления личными сообщениями в Telegram.
type TelegramNotifier struct {
	bot *telego.Bot
}

// NewTelegramNotifier создаёт отправителя по токену бота.
func NewTelegramNotifier(token string) (*TelegramNotifier, error) {
	bot, err := telego.NewBot(token)
	if err != nil {
		return nil, err
	}
	return &TelegramNotifier{bot: bot}, nil
}

// Notify отправляет сообщение пользователю.
// Ошибка доставки логируется и проглатывается — операции движков
// не откатываются из-за недоставленного уведомления.
func (n *TelegramNotifier) Notify(ctx context.Context, kind string, recipientID int64, text string) {
	_, err := n.bot.SendMessage(ctx, &telego.SendMessageParams{
		ChatID: telego.ChatID{ID: recipientID},
		Text:   text,
	})
	if err != nil {
		log.WithError(err).WithFields(log.Fields{
			"kind":      kind,
			"recipient": recipientID,
		}).Error("Ошибка доставки уведомления")
	}
}
