// Package user — service.go содержит бизнес-логику регистрации и пар.
package user

import (
	"context"

	log "github.com/sirupsen/logrus"

	"wishmana.ru/wish-bot/internal/common"
	"wishmana.ru/wish-bot/internal/config"
)

// Service управляет участниками.
type Service struct {
	repo *Repository
	cfg  *config.Config
}

// NewService создаёт сервис пользователей.
func NewService(repo *Repository, cfg *config.Config) *Service {
	return &Service{repo: repo, cfg: cfg}
}

// Register создаёт нового участника с начальным балансом из конфига.
func (s *Service) Register(ctx context.Context, userID int64, name string) error {
	if err := s.repo.Create(ctx, userID, name, s.cfg.EconomyStartingBalance); err != nil {
		return err
	}
	log.WithFields(log.Fields{"user_id": userID, "name": name}).Info("Пользователь зарегистрирован")
	return nil
}

// Get возвращает пользователя по Telegram ID.
func (s *Service) Get(ctx context.Context, userID int64) (*User, error) {
	return s.repo.Get(ctx, userID)
}

// List возвращает всех пользователей.
func (s *Service) List(ctx context.Context) ([]*User, error) {
	return s.repo.List(ctx)
}

// LinkPartners связывает двух участников в пару.
func (s *Service) LinkPartners(ctx context.Context, userID, partnerID int64) error {
	if userID == partnerID {
		return &common.ValidationError{Violations: []string{"нельзя стать партнёром самому себе"}}
	}
	if err := s.repo.SetPartner(ctx, userID, partnerID); err != nil {
		return err
	}
	log.WithFields(log.Fields{"user": userID, "partner": partnerID}).Info("Пара связана")
	return nil
}
