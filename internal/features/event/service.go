// Package event — service.go содержит бизнес-логику случайных событий:
// генерацию со случайным множителем, завершение партнёром с наградой
// владельцу и обход просроченных с перегенерацией.
package event

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"wishmana.ru/wish-bot/internal/common"
	"wishmana.ru/wish-bot/internal/config"
	"wishmana.ru/wish-bot/internal/features/user"
	"wishmana.ru/wish-bot/internal/notify"
)

// store — срез репозитория событий, нужный сервису.
type store interface {
	Create(ctx context.Context, e *Event) (*Event, error)
	Get(ctx context.Context, eventID int64) (*Event, error)
	GetActiveByUser(ctx context.Context, userID int64) (*Event, error)
	Complete(ctx context.Context, eventID, completedBy int64) (bool, error)
	Expire(ctx context.Context, eventID int64) (bool, error)
	FindExpired(ctx context.Context, now time.Time) ([]*Event, error)
	ScheduleNext(ctx context.Context, userID int64, dueAt time.Time) error
	DueSchedules(ctx context.Context, now time.Time) ([]*Schedule, error)
	ConsumeSchedule(ctx context.Context, scheduleID int64) (bool, error)
}

// rewarder начисляет награду за событие. Реализуется economy.Service.
type rewarder interface {
	GrantReward(ctx context.Context, userID, mana, experience int64, category, description string, refID int64, refType string) error
}

// userDirectory отдаёт пользователей для проверки партнёрства.
type userDirectory interface {
	Get(ctx context.Context, userID int64) (*user.User, error)
}

// Service управляет жизненным циклом случайных событий.
type Service struct {
	repo      store
	rewards   rewarder
	users     userDirectory
	notifier  notify.Notifier
	cfg       *config.Config
	templates []Template

	mu  sync.Mutex
	rng *rand.Rand
}

// NewService создаёт сервис событий.
// Пул шаблонов и генератор случайных чисел передаются снаружи,
// чтобы тесты могли их подменить.
func NewService(repo store, rewards rewarder, users userDirectory, notifier notify.Notifier, cfg *config.Config, templates []Template, rng *rand.Rand) *Service {
	if len(templates) == 0 {
		templates = DefaultTemplates
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Service{
		repo: repo, rewards: rewards, users: users,
		notifier: notifier, cfg: cfg, templates: templates, rng: rng,
	}
}

// Generate создаёт пользователю новое случайное событие.
// У пользователя может быть только одно активное событие; force
// принудительно гасит старое и ставит новое.
func (s *Service) Generate(ctx context.Context, userID int64, force bool) (*Event, error) {
	if _, err := s.users.Get(ctx, userID); err != nil {
		return nil, err
	}

	active, err := s.repo.GetActiveByUser(ctx, userID)
	if err != nil && !errors.Is(err, common.ErrNotFound) {
		return nil, err
	}
	if active != nil {
		if !force {
			return nil, common.ErrAlreadyActive
		}
		if _, err := s.repo.Expire(ctx, active.ID); err != nil {
			return nil, err
		}
	}

	s.mu.Lock()
	template := s.templates[s.rng.Intn(len(s.templates))]
	multiplier := s.cfg.EventMultiplierMin +
		s.rng.Float64()*(s.cfg.EventMultiplierMax-s.cfg.EventMultiplierMin)
	s.mu.Unlock()

	e := &Event{
		UserID:           userID,
		Title:            template.Title,
		Description:      template.Description,
		RewardMana:       int64(math.Round(float64(template.BaseMana) * multiplier)),
		RewardExperience: int64(math.Round(float64(template.BaseExperience) * multiplier)),
		Multiplier:       multiplier,
		ExpiresAt:        common.Now().Add(time.Duration(s.cfg.EventTTLHours) * time.Hour),
	}

	created, err := s.repo.Create(ctx, e)
	if err != nil {
		return nil, err
	}
	log.WithFields(log.Fields{
		"event_id": created.ID,
		"user_id":  userID,
		"title":    created.Title,
	}).Info("Событие сгенерировано")

	s.notifier.Notify(ctx, notify.KindEventNew, userID,
		fmt.Sprintf("✨ Новое событие: %s\n%s\nНаграда: %s",
			created.Title, created.Description, common.FormatMana(created.RewardMana)))
	return created, nil
}

// Complete засчитывает событие. Владелец не может подтвердить своё
// событие сам — это делает только его партнёр. Награду получает
// владелец события.
//
// Смена статуса фиксируется первой; начисление награды и расписание
// следующего события — отдельные шаги, их сбой статус не откатывает.
func (s *Service) Complete(ctx context.Context, callerID, eventID int64) (*Event, error) {
	e, err := s.repo.Get(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if !e.IsActive() {
		return nil, common.ErrInvalidState
	}
	if common.Now().After(e.ExpiresAt) {
		return nil, common.ErrEventExpired
	}
	if callerID == e.UserID {
		return nil, common.ErrSelfCompletion
	}

	owner, err := s.users.Get(ctx, e.UserID)
	if err != nil {
		return nil, err
	}
	if !owner.IsPartner(callerID) {
		return nil, common.ErrPermissionDenied
	}

	ok, err := s.repo.Complete(ctx, eventID, callerID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, common.ErrInvalidState
	}
	e.Status = StatusCompleted
	e.CompletedBy = &callerID

	if err := s.rewards.GrantReward(ctx, e.UserID, e.RewardMana, e.RewardExperience,
		"event_reward", fmt.Sprintf("Награда за событие «%s»", e.Title), e.ID, "event"); err != nil {
		log.WithError(err).WithField("event_id", eventID).
			Error("ALERT: событие завершено, но награда не начислена")
	}

	if err := s.scheduleNext(ctx, e.UserID); err != nil {
		log.WithError(err).WithField("user_id", e.UserID).
			Error("Ошибка планирования следующего события")
	}

	log.WithFields(log.Fields{
		"event_id":     eventID,
		"owner":        e.UserID,
		"completed_by": callerID,
	}).Info("Событие завершено")

	s.notifier.Notify(ctx, notify.KindEventCompleted, e.UserID,
		fmt.Sprintf("🎉 Партнёр подтвердил событие «%s»! Награда: %s",
			e.Title, common.FormatMana(e.RewardMana)))
	return e, nil
}

// ExpireSweep гасит просроченные события и тут же генерирует владельцу
// новые, чтобы никто не оставался без события. Заодно материализует
// наступившие записи расписания. Возвращает число истёкших.
func (s *Service) ExpireSweep(ctx context.Context) (int, error) {
	now := common.Now()

	expired, err := s.repo.FindExpired(ctx, now)
	if err != nil {
		return 0, err
	}
	count := 0
	for _, e := range expired {
		ok, err := s.repo.Expire(ctx, e.ID)
		if err != nil {
			log.WithError(err).WithField("event_id", e.ID).Error("Ошибка истечения события")
			continue
		}
		if !ok {
			continue
		}
		count++
		if _, err := s.Generate(ctx, e.UserID, false); err != nil &&
			!errors.Is(err, common.ErrAlreadyActive) {
			log.WithError(err).WithField("user_id", e.UserID).
				Error("Ошибка перегенерации события")
		}
	}

	schedules, err := s.repo.DueSchedules(ctx, now)
	if err != nil {
		return count, err
	}
	for _, sched := range schedules {
		ok, err := s.repo.ConsumeSchedule(ctx, sched.ID)
		if err != nil {
			log.WithError(err).WithField("schedule_id", sched.ID).
				Error("Ошибка потребления расписания")
			continue
		}
		if !ok {
			continue
		}
		if _, err := s.Generate(ctx, sched.UserID, false); err != nil &&
			!errors.Is(err, common.ErrAlreadyActive) {
			log.WithError(err).WithField("user_id", sched.UserID).
				Error("Ошибка генерации события по расписанию")
		}
	}

	if count > 0 {
		log.WithField("count", count).Info("Обход событий: просроченные закрыты")
	}
	return count, nil
}

// scheduleNext назначает следующее событие со случайной задержкой.
func (s *Service) scheduleNext(ctx context.Context, userID int64) error {
	s.mu.Lock()
	hours := s.cfg.EventNextDelayMinH +
		s.rng.Float64()*(s.cfg.EventNextDelayMaxH-s.cfg.EventNextDelayMinH)
	s.mu.Unlock()

	dueAt := common.Now().Add(time.Duration(hours * float64(time.Hour)))
	return s.repo.ScheduleNext(ctx, userID, dueAt)
}
