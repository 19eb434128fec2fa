// Package wish — service.go содержит бизнес-логику желаний:
// создание, завершение исполнителем, отмена автором.
// Зачарование желаний живёт в экономике — это денежная операция.
package wish

import (
	"context"
	"math"

	log "github.com/sirupsen/logrus"

	"wishmana.ru/wish-bot/internal/common"
	"wishmana.ru/wish-bot/internal/features/rank"
	"wishmana.ru/wish-bot/internal/features/settings"
	"wishmana.ru/wish-bot/internal/features/user"
)

// store — срез репозитория желаний, нужный сервису.
type store interface {
	Create(ctx context.Context, authorID int64, req CreateRequest) (*Wish, error)
	Get(ctx context.Context, wishID int64) (*Wish, error)
	ListActiveByAuthor(ctx context.Context, authorID int64) ([]*Wish, error)
	SetStatus(ctx context.Context, wishID int64, status string) (bool, error)
}

// rewarder начисляет награду за действие. Реализуется economy.Service.
type rewarder interface {
	GrantReward(ctx context.Context, userID, mana, experience int64, category, description string, refID int64, refType string) error
}

// userDirectory отдаёт пользователей для расчёта множителя опыта.
type userDirectory interface {
	Get(ctx context.Context, userID int64) (*user.User, error)
}

// gameplayProvider отдаёт актуальные игровые таблицы.
type gameplayProvider interface {
	Gameplay(ctx context.Context) (*settings.Gameplay, error)
}

// Service управляет жизненным циклом желаний.
type Service struct {
	repo     store
	rewards  rewarder
	users    userDirectory
	gameplay gameplayProvider
}

// NewService создаёт сервис желаний.
func NewService(repo store, rewards rewarder, users userDirectory, gameplay gameplayProvider) *Service {
	return &Service{repo: repo, rewards: rewards, users: users, gameplay: gameplay}
}

// Create проверяет и сохраняет новое желание.
func (s *Service) Create(ctx context.Context, authorID int64, req CreateRequest) (*Wish, error) {
	var violations []string
	if len([]rune(req.Description)) < 3 {
		violations = append(violations, "описание короче 3 символов")
	}
	if req.AssigneeID != nil && *req.AssigneeID == authorID {
		violations = append(violations, "нельзя назначить желание самому себе")
	}
	if len(violations) > 0 {
		return nil, &common.ValidationError{Violations: violations}
	}

	w, err := s.repo.Create(ctx, authorID, req)
	if err != nil {
		return nil, err
	}
	log.WithFields(log.Fields{"wish_id": w.ID, "author": authorID}).Info("Желание создано")
	return w, nil
}

// Get возвращает желание по ID.
func (s *Service) Get(ctx context.Context, wishID int64) (*Wish, error) {
	return s.repo.Get(ctx, wishID)
}

// Complete завершает желание. Разрешено только исполнителю.
// Исполнитель получает опыт за выполнение (по таблице настроек,
// с учётом множителя его ранга).
func (s *Service) Complete(ctx context.Context, callerID, wishID int64) (*Wish, error) {
	w, err := s.repo.Get(ctx, wishID)
	if err != nil {
		return nil, err
	}
	if w.AssigneeID == nil || *w.AssigneeID != callerID {
		return nil, common.ErrPermissionDenied
	}
	if !w.IsActive() {
		return nil, common.ErrInvalidState
	}

	ok, err := s.repo.SetStatus(ctx, wishID, StatusCompleted)
	if err != nil {
		return nil, err
	}
	if !ok {
		// Гонка: кто-то успел перевести желание в конечный статус
		return nil, common.ErrInvalidState
	}
	w.Status = StatusCompleted

	// Начисление опыта — отдельный шаг после смены статуса:
	// сбой начисления не возвращает желание в active
	if err := s.grantCompletionExperience(ctx, callerID, w); err != nil {
		log.WithError(err).WithField("wish_id", wishID).
			Error("ALERT: желание завершено, но опыт не начислен")
	}

	return w, nil
}

// Cancel отменяет желание. Разрешено только автору.
func (s *Service) Cancel(ctx context.Context, callerID, wishID int64) error {
	w, err := s.repo.Get(ctx, wishID)
	if err != nil {
		return err
	}
	if w.AuthorID != callerID {
		return common.ErrPermissionDenied
	}
	if !w.IsActive() {
		return common.ErrInvalidState
	}

	ok, err := s.repo.SetStatus(ctx, wishID, StatusCancelled)
	if err != nil {
		return err
	}
	if !ok {
		return common.ErrInvalidState
	}
	return nil
}

// ListActive возвращает активные желания автора.
func (s *Service) ListActive(ctx context.Context, authorID int64) ([]*Wish, error) {
	return s.repo.ListActiveByAuthor(ctx, authorID)
}

// grantCompletionExperience начисляет исполнителю опыт за выполнение.
func (s *Service) grantCompletionExperience(ctx context.Context, completerID int64, w *Wish) error {
	g, err := s.gameplay.Gameplay(ctx)
	if err != nil {
		return err
	}
	base := g.ExperiencePerAction["wish_completed"]
	if base == 0 {
		return nil
	}

	u, err := s.users.Get(ctx, completerID)
	if err != nil {
		return err
	}
	multiplier := rank.ExperienceMultiplier(rank.Current(u.ExperiencePoints))
	experience := int64(math.Round(float64(base) * multiplier))

	return s.rewards.GrantReward(ctx, completerID, 0, experience,
		"wish_completed", "Выполнение желания", w.ID, "wish")
}
