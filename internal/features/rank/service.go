// Package rank — service.go реализует фоновый пересчёт рангов.
package rank

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"

	"wishmana.ru/wish-bot/internal/features/user"
	"wishmana.ru/wish-bot/internal/notify"
)

// userStore — минимальный срез репозитория пользователей,
// нужный пересчёту рангов. Реализуется user.Repository.
type userStore interface {
	List(ctx context.Context) ([]*user.User, error)
	UpdateRank(ctx context.Context, userID int64, rank string) error
}

// Service пересчитывает ранги пользователей.
type Service struct {
	users    userStore
	notifier notify.Notifier
}

// NewService создаёт сервис рангов.
func NewService(users userStore, notifier notify.Notifier) *Service {
	return &Service{users: users, notifier: notifier}
}

// RecalculateAll проходит по всем пользователям и обновляет устаревшие ранги.
// Идемпотентен: повторный запуск ничего не меняет. Ошибка на одном
// пользователе не прерывает обход — строка будет поправлена следующим циклом.
func (s *Service) RecalculateAll(ctx context.Context) (int, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("ошибка получения пользователей: %w", err)
	}

	updated := 0
	for _, u := range users {
		actual := Current(u.ExperiencePoints)
		if actual.Name == u.Rank {
			continue
		}

		if err := s.users.UpdateRank(ctx, u.UserID, actual.Name); err != nil {
			log.WithError(err).WithField("user_id", u.UserID).Error("Ошибка обновления ранга")
			continue
		}
		updated++

		// Понижение невозможно (опыт только растёт) — это повышение
		s.notifier.Notify(ctx, notify.KindRankPromoted, u.UserID,
			fmt.Sprintf("🏅 Новый ранг: %s!", actual.Name))

		log.WithFields(log.Fields{
			"user_id": u.UserID,
			"old":     u.Rank,
			"new":     actual.Name,
		}).Info("Ранг обновлён")
	}

	return updated, nil
}
