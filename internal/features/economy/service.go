// Package economy — service.go содержит бизнес-логику экономики:
// начисления маны, подарки с квотами, покупку зачарований,
// сбросы квот и плановый обход сбросов.
package economy

import (
	"context"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"wishmana.ru/wish-bot/internal/common"
	"wishmana.ru/wish-bot/internal/config"
	"wishmana.ru/wish-bot/internal/features/rank"
	"wishmana.ru/wish-bot/internal/features/settings"
	"wishmana.ru/wish-bot/internal/features/user"
	"wishmana.ru/wish-bot/internal/features/wish"
	"wishmana.ru/wish-bot/internal/notify"
)

// store — срез репозитория экономики, нужный сервису.
type store interface {
	GrantMana(ctx context.Context, userID, amount, experience int64, category, description string, refID *int64, refType *string) (*Transaction, error)
	RecordGift(ctx context.Context, fromUserID int64, quotaCost int, limits QuotaLimits, experience int64, description string) (*Transaction, error)
	ApplyEnchantment(ctx context.Context, userID, wishID, cost int64, upd EnchantmentUpdate, description, detail string) (*Transaction, error)
	ResetQuotas(ctx context.Context, userID int64, daily, weekly, monthly bool, expected, now time.Time) (bool, error)
	RecentTransactions(ctx context.Context, userID int64, limit int) ([]*Transaction, error)
}

// userDirectory отдаёт пользователей для расчёта квот и рангов.
type userDirectory interface {
	Get(ctx context.Context, userID int64) (*user.User, error)
	List(ctx context.Context) ([]*user.User, error)
}

// wishDirectory отдаёт желания для зачарований.
type wishDirectory interface {
	Get(ctx context.Context, wishID int64) (*wish.Wish, error)
}

// gameplayProvider отдаёт актуальные игровые таблицы.
type gameplayProvider interface {
	Gameplay(ctx context.Context) (*settings.Gameplay, error)
}

// Service управляет экономикой маны.
type Service struct {
	repo     store
	users    userDirectory
	wishes   wishDirectory
	gameplay gameplayProvider
	notifier notify.Notifier
	cfg      *config.Config
}

// NewService создаёт сервис экономики.
func NewService(repo store, users userDirectory, wishes wishDirectory, gameplay gameplayProvider, notifier notify.Notifier, cfg *config.Config) *Service {
	return &Service{repo: repo, users: users, wishes: wishes, gameplay: gameplay, notifier: notifier, cfg: cfg}
}

// GrantMana начисляет пользователю ману с записью в журнал.
// Отрицательные суммы запрещены: мана уходит только через покупки.
func (s *Service) GrantMana(ctx context.Context, userID, amount int64, category, description string) (*Transaction, error) {
	if amount < 0 {
		return nil, common.ErrInvalidAmount
	}
	entry, err := s.repo.GrantMana(ctx, userID, amount, 0, category, description, nil, nil)
	if err != nil {
		return nil, err
	}
	log.WithFields(log.Fields{
		"user_id":  userID,
		"amount":   amount,
		"category": category,
	}).Info("Мана начислена")
	return entry, nil
}

// GrantReward начисляет ману и опыт за игровое действие со ссылкой
// на его источник. Используется квестами, событиями и желаниями.
func (s *Service) GrantReward(ctx context.Context, userID, mana, experience int64, category, description string, refID int64, refType string) error {
	if mana < 0 || experience < 0 {
		return common.ErrInvalidAmount
	}
	_, err := s.repo.GrantMana(ctx, userID, mana, experience, category, description, &refID, &refType)
	return err
}

// CheckQuotas возвращает состояние квот пользователя, предварительно
// выполнив просроченные сбросы.
func (s *Service) CheckQuotas(ctx context.Context, userID int64) (*QuotaStatus, error) {
	if _, err := s.CheckAndResetQuotas(ctx, userID); err != nil {
		return nil, err
	}
	u, err := s.users.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	g, err := s.gameplay.Gameplay(ctx)
	if err != nil {
		return nil, err
	}
	status := buildQuotaStatus(u, g, rank.Current(u.ExperiencePoints), common.Now())
	return &status, nil
}

// CheckAndResetQuotas обнуляет просроченные счётчики квот пользователя.
// Возвращает true, если хотя бы один счётчик был сброшен.
// Повторный вызов в том же окне ничего не меняет.
func (s *Service) CheckAndResetQuotas(ctx context.Context, userID int64) (bool, error) {
	u, err := s.users.Get(ctx, userID)
	if err != nil {
		return false, err
	}
	now := common.Now()
	daily, weekly, monthly := resetsNeeded(u.LastQuotaReset, now)
	if !daily && !weekly && !monthly {
		return false, nil
	}

	ok, err := s.repo.ResetQuotas(ctx, userID, daily, weekly, monthly, u.LastQuotaReset, now)
	if err != nil {
		return false, err
	}
	if ok {
		log.WithFields(log.Fields{
			"user_id": userID,
			"daily":   daily,
			"weekly":  weekly,
			"monthly": monthly,
		}).Info("Квоты сброшены")
	}
	// ok == false значит, что параллельный обход успел раньше — это не ошибка
	return ok, nil
}

// QuotaResetSweep обходит всех пользователей и сбрасывает просроченные
// квоты. Возвращает число пользователей, у которых был сброс.
// Ошибка по одному пользователю не прерывает обход.
func (s *Service) QuotaResetSweep(ctx context.Context) (int, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return 0, err
	}

	reset := 0
	for _, u := range users {
		ok, err := s.CheckAndResetQuotas(ctx, u.UserID)
		if err != nil {
			log.WithError(err).WithField("user_id", u.UserID).
				Error("Ошибка сброса квот в обходе")
			continue
		}
		if ok {
			reset++
		}
	}
	return reset, nil
}

// GiftWish отправляет желание в подарок партнёру.
// Подарок расходует квоту отправителя во всех трёх окнах.
func (s *Service) GiftWish(ctx context.Context, fromUserID int64, req GiftRequest) (*GiftResult, error) {
	amount := req.Amount
	if amount <= 0 {
		amount = 1
	}
	if req.ToUserID == fromUserID {
		return nil, common.ErrSelfGift
	}
	if _, err := s.users.Get(ctx, req.ToUserID); err != nil {
		return nil, common.ErrRecipientNotFound
	}

	// Сначала просроченные сбросы, потом свежее чтение счётчиков
	if _, err := s.CheckAndResetQuotas(ctx, fromUserID); err != nil {
		return nil, err
	}
	sender, err := s.users.Get(ctx, fromUserID)
	if err != nil {
		return nil, err
	}
	g, err := s.gameplay.Gameplay(ctx)
	if err != nil {
		return nil, err
	}

	r := rank.Current(sender.ExperiencePoints)
	status := buildQuotaStatus(sender, g, r, common.Now())
	headroom, err := validateGift(status, amount)
	if err != nil {
		return nil, err
	}

	experience := g.ExperiencePerAction["gift_sent"]
	limits := QuotaLimits{
		Daily:   status.Daily.Limit,
		Weekly:  status.Weekly.Limit,
		Monthly: status.Monthly.Limit,
	}
	description := fmt.Sprintf("Подарок для пользователя %d", req.ToUserID)
	if _, err := s.repo.RecordGift(ctx, fromUserID, amount, limits, experience, description); err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"from":   fromUserID,
		"to":     req.ToUserID,
		"amount": amount,
	}).Info("Подарок отправлен")

	text := fmt.Sprintf("🎁 %s дарит вам желание!", sender.Name)
	if req.Message != "" {
		text += "\n\n" + req.Message
	}
	s.notifier.Notify(ctx, notify.KindGiftReceived, req.ToUserID, text)

	return &GiftResult{Remaining: headroom - amount}, nil
}

// EnchantWish покупает зачарование желания за ману автора.
// Стоимость считается по игровым таблицам, списание атомарно
// с записью зачарования в желание.
func (s *Service) EnchantWish(ctx context.Context, callerID int64, req wish.EnchantmentRequest) (*EnchantResult, error) {
	w, err := s.wishes.Get(ctx, req.WishID)
	if err != nil {
		return nil, err
	}
	if w.AuthorID != callerID {
		return nil, common.ErrPermissionDenied
	}
	if !w.IsActive() {
		return nil, common.ErrInvalidState
	}

	var upd EnchantmentUpdate
	switch req.Type {
	case wish.EnchantPriority:
		if req.Level < wish.PriorityMin || req.Level > wish.PriorityMax {
			return nil, common.ErrInvalidLevel
		}
		level := req.Level
		upd.Priority = &level
	case wish.EnchantAura:
		if !wish.ValidAura(req.Aura) {
			return nil, common.ErrInvalidAura
		}
		aura := req.Aura
		upd.Aura = &aura
	case wish.EnchantLinked:
		upd.SetLinked = true
	case wish.EnchantRecurring:
		upd.SetRecurring = true
	default:
		return nil, common.ErrUnknownEnchantment
	}

	g, err := s.gameplay.Gameplay(ctx)
	if err != nil {
		return nil, err
	}
	cost, err := wish.EnchantCost(req.Type, req.Level, g)
	if err != nil {
		return nil, err
	}

	u, err := s.users.Get(ctx, callerID)
	if err != nil {
		return nil, err
	}
	if u.Mana < cost {
		return nil, &common.InsufficientManaError{Required: cost, Available: u.Mana}
	}

	description := fmt.Sprintf("Зачарование «%s» для желания %d", req.Type, req.WishID)
	if _, err := s.repo.ApplyEnchantment(ctx, callerID, req.WishID, cost, upd, description, string(req.Type)); err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"user_id": callerID,
		"wish_id": req.WishID,
		"type":    req.Type,
		"cost":    cost,
	}).Info("Зачарование куплено")

	return &EnchantResult{Cost: cost, NewBalance: u.Mana - cost}, nil
}
