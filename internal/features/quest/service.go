// Package quest — service.go содержит бизнес-логику квестов:
// создание с проверками, завершение автором с выплатой исполнителю,
// отмена, обновление и обход просроченных.
package quest

import (
	"context"
	"fmt"
	"math"
	"time"

	log "github.com/sirupsen/logrus"

	"wishmana.ru/wish-bot/internal/common"
	"wishmana.ru/wish-bot/internal/config"
	"wishmana.ru/wish-bot/internal/features/rank"
	"wishmana.ru/wish-bot/internal/features/settings"
	"wishmana.ru/wish-bot/internal/features/user"
	"wishmana.ru/wish-bot/internal/notify"
)

// store — срез репозитория квестов, нужный сервису.
type store interface {
	Create(ctx context.Context, q *Quest) (*Quest, error)
	Get(ctx context.Context, questID int64) (*Quest, error)
	CountActiveByAuthor(ctx context.Context, authorID int64) (int, error)
	ListActiveByAssignee(ctx context.Context, assigneeID int64) ([]*Quest, error)
	SetStatus(ctx context.Context, questID int64, status string) (bool, error)
	Update(ctx context.Context, q *Quest) (*Quest, error)
	FindExpired(ctx context.Context, now time.Time) ([]*Quest, error)
}

// rewarder начисляет награду за квест. Реализуется economy.Service.
type rewarder interface {
	GrantReward(ctx context.Context, userID, mana, experience int64, category, description string, refID int64, refType string) error
}

// userDirectory отдаёт пользователей для проверки рангов.
type userDirectory interface {
	Get(ctx context.Context, userID int64) (*user.User, error)
}

// gameplayProvider отдаёт актуальные игровые таблицы.
type gameplayProvider interface {
	Gameplay(ctx context.Context) (*settings.Gameplay, error)
}

// Service управляет жизненным циклом квестов.
type Service struct {
	repo     store
	rewards  rewarder
	users    userDirectory
	gameplay gameplayProvider
	notifier notify.Notifier
	cfg      *config.Config
}

// NewService создаёт сервис квестов.
func NewService(repo store, rewards rewarder, users userDirectory, gameplay gameplayProvider, notifier notify.Notifier, cfg *config.Config) *Service {
	return &Service{repo: repo, rewards: rewards, users: users, gameplay: gameplay, notifier: notifier, cfg: cfg}
}

// Create проверяет и сохраняет новый квест.
// Все нарушения собираются в один список, чтобы автор исправил
// всё за один заход. Дедлайн дальше года — не ошибка, а предупреждение.
func (s *Service) Create(ctx context.Context, authorID int64, req CreateRequest) (*Quest, error) {
	g, err := s.gameplay.Gameplay(ctx)
	if err != nil {
		return nil, err
	}

	var violations []string
	if len([]rune(req.Title)) < 3 {
		violations = append(violations, "название короче 3 символов")
	}
	if len([]rune(req.Description)) < 10 {
		violations = append(violations, "описание короче 10 символов")
	}
	if req.AssigneeID == 0 {
		violations = append(violations, "не указан исполнитель")
	} else if req.AssigneeID == authorID {
		violations = append(violations, "нельзя назначить квест самому себе")
	}

	rewards, knownDifficulty := defaultRewards(req.Difficulty, req.Category, g)
	if !knownDifficulty {
		violations = append(violations, fmt.Sprintf("неизвестная сложность «%s»", req.Difficulty))
	}

	// Дедлайн необязателен: квест без него не просрочивается
	now := common.Now()
	if req.DueDate != nil {
		minDue := now.AddDate(0, 0, s.cfg.QuestMinDueDays)
		if req.DueDate.Before(minDue) {
			violations = append(violations, fmt.Sprintf("дедлайн раньше чем через %d дн.", s.cfg.QuestMinDueDays))
		}
	}

	count, err := s.repo.CountActiveByAuthor(ctx, authorID)
	if err != nil {
		return nil, err
	}
	if count >= s.cfg.QuestActiveLimit {
		violations = append(violations, fmt.Sprintf("уже %d активных квестов (лимит %d)", count, s.cfg.QuestActiveLimit))
	}

	author, err := s.users.Get(ctx, authorID)
	if err != nil {
		return nil, err
	}
	if knownDifficulty {
		if v := difficultyGateViolation(req.Difficulty, rank.Current(author.ExperiencePoints)); v != "" {
			violations = append(violations, v)
		}
	}

	if len(violations) > 0 {
		return nil, &common.ValidationError{Violations: violations}
	}

	if req.DueDate != nil && req.DueDate.After(now.AddDate(0, 0, s.cfg.QuestWarnDueDays)) {
		log.WithFields(log.Fields{"author": authorID, "due_date": req.DueDate}).
			Warn("Дедлайн квеста дальше года")
	}

	q := &Quest{
		AuthorID:         authorID,
		AssigneeID:       req.AssigneeID,
		Title:            req.Title,
		Description:      req.Description,
		Category:         req.Category,
		Difficulty:       req.Difficulty,
		RewardMana:       rewards.Mana,
		RewardExperience: rewards.Experience,
		DueDate:          req.DueDate,
	}
	if req.RewardMana != nil {
		q.RewardMana = *req.RewardMana
	}
	if req.RewardExperience != nil {
		q.RewardExperience = *req.RewardExperience
	}

	created, err := s.repo.Create(ctx, q)
	if err != nil {
		return nil, err
	}
	log.WithFields(log.Fields{
		"quest_id":   created.ID,
		"author":     authorID,
		"assignee":   created.AssigneeID,
		"difficulty": created.Difficulty,
	}).Info("Квест создан")
	return created, nil
}

// Get возвращает квест по ID.
func (s *Service) Get(ctx context.Context, questID int64) (*Quest, error) {
	return s.repo.Get(ctx, questID)
}

// ListActive возвращает активные квесты исполнителя.
func (s *Service) ListActive(ctx context.Context, assigneeID int64) ([]*Quest, error) {
	return s.repo.ListActiveByAssignee(ctx, assigneeID)
}

// Complete завершает квест. Разрешено только автору: именно он
// подтверждает, что поручение выполнено.
//
// Смена статуса фиксируется первой; выплата исполнителю — отдельный
// второй шаг. Сбой выплаты не возвращает квест в active: он остаётся
// завершённым с RewardsGranted=false и тревожной записью в логе.
func (s *Service) Complete(ctx context.Context, callerID, questID int64) (*CompleteResult, error) {
	q, err := s.repo.Get(ctx, questID)
	if err != nil {
		return nil, err
	}
	if q.AuthorID != callerID {
		return nil, common.ErrPermissionDenied
	}
	if !q.IsActive() {
		return nil, common.ErrInvalidState
	}

	ok, err := s.repo.SetStatus(ctx, questID, StatusCompleted)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, common.ErrInvalidState
	}
	q.Status = StatusCompleted
	completedAt := common.Now()
	q.CompletedAt = &completedAt

	result := &CompleteResult{Quest: q, RewardsGranted: true}
	if err := s.payout(ctx, q); err != nil {
		result.RewardsGranted = false
		log.WithError(err).WithField("quest_id", questID).
			Error("ALERT: квест завершён, но награда не начислена")
		return result, nil
	}

	log.WithFields(log.Fields{
		"quest_id": questID,
		"assignee": q.AssigneeID,
		"mana":     q.RewardMana,
	}).Info("Квест завершён, награда начислена")

	s.notifier.Notify(ctx, notify.KindQuestCompleted, q.AssigneeID,
		fmt.Sprintf("✅ Квест «%s» завершён! Награда: %s", q.Title, common.FormatMana(q.RewardMana)))
	return result, nil
}

// Cancel отменяет квест. Разрешено только автору. Наград нет.
func (s *Service) Cancel(ctx context.Context, callerID, questID int64) error {
	q, err := s.repo.Get(ctx, questID)
	if err != nil {
		return err
	}
	if q.AuthorID != callerID {
		return common.ErrPermissionDenied
	}
	if !q.IsActive() {
		return common.ErrInvalidState
	}

	ok, err := s.repo.SetStatus(ctx, questID, StatusCancelled)
	if err != nil {
		return err
	}
	if !ok {
		return common.ErrInvalidState
	}
	return nil
}

// Update меняет поля активного квеста. Разрешено только автору.
// При смене сложности ранговая проверка повторяется, а награды
// пересчитываются по умолчанию, если не заданы явно.
func (s *Service) Update(ctx context.Context, callerID, questID int64, req UpdateRequest) (*Quest, error) {
	q, err := s.repo.Get(ctx, questID)
	if err != nil {
		return nil, err
	}
	if q.AuthorID != callerID {
		return nil, common.ErrPermissionDenied
	}
	if !q.IsActive() {
		return nil, common.ErrInvalidState
	}

	var violations []string
	if req.Title != nil {
		if len([]rune(*req.Title)) < 3 {
			violations = append(violations, "название короче 3 символов")
		}
		q.Title = *req.Title
	}
	if req.Description != nil {
		if len([]rune(*req.Description)) < 10 {
			violations = append(violations, "описание короче 10 символов")
		}
		q.Description = *req.Description
	}
	if req.DueDate != nil {
		minDue := common.Now().AddDate(0, 0, s.cfg.QuestMinDueDays)
		if req.DueDate.Before(minDue) {
			violations = append(violations, fmt.Sprintf("дедлайн раньше чем через %d дн.", s.cfg.QuestMinDueDays))
		}
		q.DueDate = req.DueDate
	}

	if req.Difficulty != nil && *req.Difficulty != q.Difficulty {
		g, err := s.gameplay.Gameplay(ctx)
		if err != nil {
			return nil, err
		}
		rewards, ok := defaultRewards(*req.Difficulty, q.Category, g)
		if !ok {
			violations = append(violations, fmt.Sprintf("неизвестная сложность «%s»", *req.Difficulty))
		} else {
			author, err := s.users.Get(ctx, callerID)
			if err != nil {
				return nil, err
			}
			if v := difficultyGateViolation(*req.Difficulty, rank.Current(author.ExperiencePoints)); v != "" {
				violations = append(violations, v)
			}
			q.Difficulty = *req.Difficulty
			// Смена сложности перебивает старые награды по умолчанию
			if req.RewardMana == nil {
				q.RewardMana = rewards.Mana
			}
			if req.RewardExperience == nil {
				q.RewardExperience = rewards.Experience
			}
		}
	}
	if req.RewardMana != nil {
		q.RewardMana = *req.RewardMana
	}
	if req.RewardExperience != nil {
		q.RewardExperience = *req.RewardExperience
	}

	if len(violations) > 0 {
		return nil, &common.ValidationError{Violations: violations}
	}
	return s.repo.Update(ctx, q)
}

// ExpireSweep переводит просроченные квесты в expired.
// Возвращает число истёкших. Ошибка по одному квесту не прерывает
// обход: остаток доберёт следующий запуск.
func (s *Service) ExpireSweep(ctx context.Context) (int, error) {
	expired, err := s.repo.FindExpired(ctx, common.Now())
	if err != nil {
		return 0, err
	}

	count := 0
	for _, q := range expired {
		ok, err := s.repo.SetStatus(ctx, q.ID, StatusExpired)
		if err != nil {
			log.WithError(err).WithField("quest_id", q.ID).Error("Ошибка истечения квеста")
			continue
		}
		if !ok {
			// Квест успел завершиться между выборкой и обновлением
			continue
		}
		count++

		text := fmt.Sprintf("⌛ Квест «%s» просрочен", q.Title)
		s.notifier.Notify(ctx, notify.KindQuestExpired, q.AuthorID, text)
		s.notifier.Notify(ctx, notify.KindQuestExpired, q.AssigneeID, text)
	}

	if count > 0 {
		log.WithField("count", count).Info("Обход квестов: просроченные закрыты")
	}
	return count, nil
}

// payout начисляет награду исполнителю с учётом множителя его ранга.
func (s *Service) payout(ctx context.Context, q *Quest) error {
	assignee, err := s.users.Get(ctx, q.AssigneeID)
	if err != nil {
		return err
	}
	multiplier := rank.ExperienceMultiplier(rank.Current(assignee.ExperiencePoints))
	experience := int64(math.Round(float64(q.RewardExperience) * multiplier))

	return s.rewards.GrantReward(ctx, q.AssigneeID, q.RewardMana, experience,
		"quest_reward", fmt.Sprintf("Награда за квест «%s»", q.Title), q.ID, "quest")
}

// difficultyGateViolation проверяет ранговую привилегию для сложности.
// Пустая строка означает «разрешено».
func difficultyGateViolation(difficulty string, r rank.Rank) string {
	switch difficulty {
	case DifficultyHard:
		if !rank.HasPrivilege(r, rank.PrivCreateHardQuests) {
			return fmt.Sprintf("ранг «%s» не позволяет создавать сложные квесты", r.Name)
		}
	case DifficultyEpic:
		if !rank.HasPrivilege(r, rank.PrivCreateEpicQuests) {
			return fmt.Sprintf("ранг «%s» не позволяет создавать эпические квесты", r.Name)
		}
	}
	return ""
}
