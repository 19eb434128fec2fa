// Package jobs управляет фоновыми задачами (cron).
// scheduler.go настраивает четыре обхода обслуживания: истечение
// квестов, истечение событий с перегенерацией, сброс квот подарков
// и пересчёт рангов.
//
// Каждый обход идемпотентен, а его ошибки не останавливают планировщик:
// недоделанное доберёт следующий запуск.
package jobs

import (
	"context"

	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"

	"wishmana.ru/wish-bot/internal/common"
	"wishmana.ru/wish-bot/internal/config"
)

// questSweeper гасит просроченные квесты.
type questSweeper interface {
	ExpireSweep(ctx context.Context) (int, error)
}

// eventSweeper гасит просроченные события и генерирует новые.
type eventSweeper interface {
	ExpireSweep(ctx context.Context) (int, error)
}

// quotaSweeper сбрасывает просроченные квоты подарков.
type quotaSweeper interface {
	QuotaResetSweep(ctx context.Context) (int, error)
}

// rankSweeper пересчитывает устаревшие ранги.
type rankSweeper interface {
	RecalculateAll(ctx context.Context) (int, error)
}

// Scheduler управляет фоновыми задачами.
type Scheduler struct {
	cron   *cron.Cron
	cfg    *config.Config
	quests questSweeper
	events eventSweeper
	quotas quotaSweeper
	ranks  rankSweeper
}

// NewScheduler создаёт планировщик задач в часовом поясе приложения.
func NewScheduler(cfg *config.Config, quests questSweeper, events eventSweeper, quotas quotaSweeper, ranks rankSweeper) *Scheduler {
	return &Scheduler{
		cron:   cron.New(cron.WithLocation(common.AppLocation())),
		cfg:    cfg,
		quests: quests,
		events: events,
		quotas: quotas,
		ranks:  ranks,
	}
}

// Start регистрирует обходы по расписаниям из конфигурации и запускает их.
func (s *Scheduler) Start(ctx context.Context) error {
	jobs := []struct {
		name string
		spec string
		run  func(context.Context) (int, error)
	}{
		{"истечение квестов", s.cfg.CronQuestExpirySpec, s.quests.ExpireSweep},
		{"истечение событий", s.cfg.CronEventExpirySpec, s.events.ExpireSweep},
		{"сброс квот", s.cfg.CronQuotaResetSpec, s.quotas.QuotaResetSweep},
		{"пересчёт рангов", s.cfg.CronRankRecalcSpec, s.ranks.RecalculateAll},
	}

	for _, j := range jobs {
		name, run := j.name, j.run
		if _, err := s.cron.AddFunc(j.spec, func() {
			log.Debugf("[CRON] Обход: %s", name)
			count, err := run(ctx)
			if err != nil {
				log.WithError(err).Errorf("[CRON] Ошибка обхода: %s", name)
				return
			}
			if count > 0 {
				log.WithField("count", count).Infof("[CRON] Обход завершён: %s", name)
			}
		}); err != nil {
			return err
		}
	}

	s.cron.Start()
	log.Info("Планировщик задач запущен")
	return nil
}

// Stop останавливает планировщик, дождавшись текущих обходов.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	log.Info("Планировщик задач остановлен")
}
