// Package app инициализирует все компоненты приложения.
// app.go — точка сборки: создаёт БД-пул, репозитории, сервисы,
// уведомления и планировщик задач.
package app

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"

	"wishmana.ru/wish-bot/internal/config"
	"wishmana.ru/wish-bot/internal/db/postgres"
	"wishmana.ru/wish-bot/internal/features/economy"
	"wishmana.ru/wish-bot/internal/features/event"
	"wishmana.ru/wish-bot/internal/features/quest"
	"wishmana.ru/wish-bot/internal/features/rank"
	"wishmana.ru/wish-bot/internal/features/settings"
	"wishmana.ru/wish-bot/internal/features/user"
	"wishmana.ru/wish-bot/internal/features/wish"
	"wishmana.ru/wish-bot/internal/jobs"
	"wishmana.ru/wish-bot/internal/notify"
)

// App содержит все компоненты приложения.
type App struct {
	Scheduler *jobs.Scheduler
	DB        *pgxpool.Pool

	Users    *user.Service
	Settings *settings.Service
	Economy  *economy.Service
	Wishes   *wish.Service
	Quests   *quest.Service
	Events   *event.Service
	Ranks    *rank.Service
}

// New создаёт и инициализирует приложение.
// Порядок инициализации важен — компоненты зависят друг от друга.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	// === 1. База данных ===
	pool, err := postgres.NewPool(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("ошибка подключения к БД: %w", err)
	}

	if err := runMigrations(ctx, pool); err != nil {
		return nil, fmt.Errorf("ошибка миграций: %w", err)
	}

	// === 2. Уведомления ===
	// Без токена уведомления просто пишутся в лог
	var notifier notify.Notifier
	if cfg.TelegramBotToken != "" {
		tg, err := notify.NewTelegramNotifier(cfg.TelegramBotToken)
		if err != nil {
			return nil, fmt.Errorf("ошибка создания Telegram-уведомлений: %w", err)
		}
		notifier = tg
	} else {
		log.Warn("TELEGRAM_BOT_TOKEN не задан, уведомления идут в лог")
		notifier = notify.NewLogNotifier()
	}

	// === 3. Репозитории ===
	userRepo := user.NewRepository(pool)
	settingsRepo := settings.NewRepository(pool)
	economyRepo := economy.NewRepository(pool)
	wishRepo := wish.NewRepository(pool)
	questRepo := quest.NewRepository(pool)
	eventRepo := event.NewRepository(pool)

	// === 4. Сервисы ===
	userService := user.NewService(userRepo, cfg)
	settingsService := settings.NewService(settingsRepo, cfg)
	economyService := economy.NewService(economyRepo, userRepo, wishRepo, settingsService, notifier, cfg)
	wishService := wish.NewService(wishRepo, economyService, userRepo, settingsService)
	questService := quest.NewService(questRepo, economyService, userRepo, settingsService, notifier, cfg)
	eventService := event.NewService(eventRepo, economyService, userRepo, notifier, cfg, nil, nil)
	rankService := rank.NewService(userRepo, notifier)

	// === 5. Планировщик задач ===
	scheduler := jobs.NewScheduler(cfg, questService, eventService, economyService, rankService)

	return &App{
		Scheduler: scheduler,
		DB:        pool,
		Users:     userService,
		Settings:  settingsService,
		Economy:   economyService,
		Wishes:    wishService,
		Quests:    questService,
		Events:    eventService,
		Ranks:     rankService,
	}, nil
}

// runMigrations выполняет все SQL-миграции.
func runMigrations(ctx context.Context, pool *pgxpool.Pool) error {
	if err := postgres.EnsureMigrationsTable(ctx, pool); err != nil {
		return err
	}

	migrations := []struct {
		version int
		sql     string
	}{
		{1, migration001Users},
		{2, migration002Wishes},
		{3, migration003Quests},
		{4, migration004Events},
		{5, migration005Transactions},
		{6, migration006Settings},
	}

	for _, m := range migrations {
		if err := postgres.ExecMigrationSQL(ctx, pool, m.version, m.sql); err != nil {
			return fmt.Errorf("миграция %d: %w", m.version, err)
		}
		log.Infof("Миграция %d применена", m.version)
	}

	return nil
}

// SQL-миграции встроены в код для упрощения деплоя.

var migration001Users = `
CREATE TABLE IF NOT EXISTS users (
    id BIGSERIAL PRIMARY KEY,
    user_id BIGINT UNIQUE NOT NULL,
    partner_id BIGINT,
    name VARCHAR(255) NOT NULL,
    mana BIGINT DEFAULT 0,
    mana_spent BIGINT DEFAULT 0,
    experience_points BIGINT DEFAULT 0,
    rank VARCHAR(64) DEFAULT 'novice',
    quota_daily_used INTEGER DEFAULT 0,
    quota_weekly_used INTEGER DEFAULT 0,
    quota_monthly_used INTEGER DEFAULT 0,
    last_quota_reset TIMESTAMP DEFAULT NOW(),
    created_at TIMESTAMP DEFAULT NOW(),
    updated_at TIMESTAMP DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_users_user_id ON users(user_id);
`

var migration002Wishes = `
CREATE TABLE IF NOT EXISTS wishes (
    id BIGSERIAL PRIMARY KEY,
    author_id BIGINT NOT NULL REFERENCES users(user_id),
    assignee_id BIGINT REFERENCES users(user_id),
    description TEXT NOT NULL,
    category VARCHAR(64),
    status VARCHAR(32) DEFAULT 'active',
    is_shared BOOLEAN DEFAULT FALSE,
    is_gift BOOLEAN DEFAULT FALSE,
    is_historical BOOLEAN DEFAULT FALSE,
    priority INTEGER DEFAULT 1,
    aura VARCHAR(32),
    is_linked BOOLEAN DEFAULT FALSE,
    is_recurring BOOLEAN DEFAULT FALSE,
    created_at TIMESTAMP DEFAULT NOW(),
    updated_at TIMESTAMP DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_wishes_author ON wishes(author_id);
CREATE INDEX IF NOT EXISTS idx_wishes_status ON wishes(status);
`

var migration003Quests = `
CREATE TABLE IF NOT EXISTS quests (
    id BIGSERIAL PRIMARY KEY,
    author_id BIGINT NOT NULL REFERENCES users(user_id),
    assignee_id BIGINT NOT NULL REFERENCES users(user_id),
    title VARCHAR(255) NOT NULL,
    description TEXT NOT NULL,
    category VARCHAR(64),
    difficulty VARCHAR(32) NOT NULL,
    status VARCHAR(32) DEFAULT 'active',
    reward_mana BIGINT NOT NULL,
    reward_experience BIGINT NOT NULL,
    due_date TIMESTAMP,
    completed_at TIMESTAMP,
    created_at TIMESTAMP DEFAULT NOW(),
    updated_at TIMESTAMP DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_quests_author ON quests(author_id);
CREATE INDEX IF NOT EXISTS idx_quests_assignee ON quests(assignee_id);
CREATE INDEX IF NOT EXISTS idx_quests_status_due ON quests(status, due_date);
`

var migration004Events = `
CREATE TABLE IF NOT EXISTS events (
    id BIGSERIAL PRIMARY KEY,
    user_id BIGINT NOT NULL REFERENCES users(user_id),
    title VARCHAR(255) NOT NULL,
    description TEXT NOT NULL,
    status VARCHAR(32) DEFAULT 'active',
    reward_mana BIGINT NOT NULL,
    reward_experience BIGINT NOT NULL,
    multiplier DECIMAL(4,2) NOT NULL,
    completed_by BIGINT REFERENCES users(user_id),
    expires_at TIMESTAMP NOT NULL,
    created_at TIMESTAMP DEFAULT NOW(),
    updated_at TIMESTAMP DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_events_user_status ON events(user_id, status);
CREATE INDEX IF NOT EXISTS idx_events_status_expires ON events(status, expires_at);
CREATE TABLE IF NOT EXISTS event_schedule (
    id BIGSERIAL PRIMARY KEY,
    user_id BIGINT NOT NULL REFERENCES users(user_id),
    due_at TIMESTAMP NOT NULL,
    consumed BOOLEAN DEFAULT FALSE,
    created_at TIMESTAMP DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_event_schedule_due ON event_schedule(consumed, due_at);
`

var migration005Transactions = `
CREATE TABLE IF NOT EXISTS transactions (
    id BIGSERIAL PRIMARY KEY,
    user_id BIGINT NOT NULL REFERENCES users(user_id),
    direction VARCHAR(16) NOT NULL,
    mana_amount BIGINT NOT NULL CHECK (mana_amount >= 0),
    description TEXT,
    transaction_category VARCHAR(50) NOT NULL,
    detail VARCHAR(64),
    reference_id BIGINT,
    reference_type VARCHAR(32),
    experience_gained BIGINT DEFAULT 0,
    created_at TIMESTAMP DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_transactions_user ON transactions(user_id, created_at DESC);
CREATE INDEX IF NOT EXISTS idx_transactions_category ON transactions(transaction_category);
`

var migration006Settings = `
CREATE TABLE IF NOT EXISTS economy_settings (
    key TEXT PRIMARY KEY,
    value JSONB NOT NULL,
    updated_at TIMESTAMP DEFAULT NOW()
);
`
