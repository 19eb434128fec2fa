// Package config загружает конфигурацию бота из переменных окружения.
// Используется envconfig для маппинга переменных окружения на поля структуры.
package config

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
)

// Config содержит ВСЕ настройки приложения.
// Игровые таблицы (стоимости зачарований, награды за сложность) живут
// в таблице economy_settings и читаются при каждом вызове — здесь только
// то, что задаётся при деплое.
type Config struct {
	// --- Telegram ---
	// Токен не обязателен: без него уведомления просто пишутся в лог.
	TelegramBotToken string `envconfig:"TELEGRAM_BOT_TOKEN"`

	// --- Database ---
	// В Docker внутри контейнера "localhost" почти всегда неправильно.
	// Дефолт ставим "postgres" (имя сервиса в docker-compose), а для локалки переопределяй DB_HOST=localhost.
	DBHost     string `envconfig:"DB_HOST" default:"postgres"`
	DBPort     int    `envconfig:"DB_PORT" default:"5432"`
	DBUser     string `envconfig:"DB_USER" default:"botuser"`
	DBPassword string `envconfig:"DB_PASSWORD" required:"true"`
	DBName     string `envconfig:"DB_NAME" default:"wish_bot"`
	DBSSLMode  string `envconfig:"DB_SSLMODE" default:"disable"`
	DBMaxConns int32  `envconfig:"DB_MAX_CONNS" default:"25"`
	DBMinConns int32  `envconfig:"DB_MIN_CONNS" default:"5"`

	// --- Application ---
	AppEnv      string `envconfig:"APP_ENV" default:"development"`
	AppLogLevel string `envconfig:"APP_LOG_LEVEL" default:"debug"`

	// --- Admin ---
	// Хеш Argon2id пароля, которым защищено обновление economy_settings.
	// Генерируется scripts/generate_hash.go.
	AdminPasswordHash string `envconfig:"ADMIN_PASSWORD_HASH" required:"true"`

	// --- Economy ---
	EconomyStartingBalance int64 `envconfig:"ECONOMY_STARTING_BALANCE" default:"0"`
	// Сколько последних транзакций смотрит расчёт метрик
	EconomyMetricsWindow int `envconfig:"ECONOMY_METRICS_WINDOW" default:"200"`

	// --- Quests ---
	QuestActiveLimit int `envconfig:"QUEST_ACTIVE_LIMIT" default:"10"`
	// Дедлайн квеста: минимум через сутки, дальше года — предупреждение
	QuestMinDueDays  int `envconfig:"QUEST_MIN_DUE_DAYS" default:"1"`
	QuestWarnDueDays int `envconfig:"QUEST_WARN_DUE_DAYS" default:"365"`

	// --- Random events ---
	EventTTLHours      int     `envconfig:"EVENT_TTL_HOURS" default:"24"`
	EventMultiplierMin float64 `envconfig:"EVENT_MULTIPLIER_MIN" default:"0.8"`
	EventMultiplierMax float64 `envconfig:"EVENT_MULTIPLIER_MAX" default:"1.2"`
	EventNextDelayMinH float64 `envconfig:"EVENT_NEXT_DELAY_MIN_HOURS" default:"2"`
	EventNextDelayMaxH float64 `envconfig:"EVENT_NEXT_DELAY_MAX_HOURS" default:"8"`

	// --- Cron (расписания фоновых задач) ---
	CronQuestExpirySpec string `envconfig:"CRON_QUEST_EXPIRY" default:"*/10 * * * *"`
	CronEventExpirySpec string `envconfig:"CRON_EVENT_EXPIRY" default:"*/10 * * * *"`
	CronQuotaResetSpec  string `envconfig:"CRON_QUOTA_RESET" default:"0 * * * *"`
	CronRankRecalcSpec  string `envconfig:"CRON_RANK_RECALC" default:"30 * * * *"`
}

// DatabaseDSN возвращает строку подключения к PostgreSQL в формате DSN.
func (c *Config) DatabaseDSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName, c.DBSSLMode,
	)
}

// Validate проверяет согласованность настроек.
func (c *Config) Validate() error {
	if c.DBMaxConns <= 0 || c.DBMinConns < 0 || c.DBMinConns > c.DBMaxConns {
		return fmt.Errorf("некорректные DB_MIN_CONNS/DB_MAX_CONNS")
	}
	if c.QuestActiveLimit <= 0 {
		return fmt.Errorf("QUEST_ACTIVE_LIMIT должен быть > 0")
	}
	if c.EventTTLHours <= 0 {
		return fmt.Errorf("EVENT_TTL_HOURS должен быть > 0")
	}
	if c.EventMultiplierMin <= 0 || c.EventMultiplierMax < c.EventMultiplierMin {
		return fmt.Errorf("некорректные границы EVENT_MULTIPLIER_MIN/MAX")
	}
	if c.EventNextDelayMinH <= 0 || c.EventNextDelayMaxH < c.EventNextDelayMinH {
		return fmt.Errorf("некорректные границы EVENT_NEXT_DELAY_MIN/MAX_HOURS")
	}
	if c.EconomyMetricsWindow <= 0 {
		return fmt.Errorf("ECONOMY_METRICS_WINDOW должен быть > 0")
	}
	return nil
}

// Load читает переменные окружения и заполняет структуру Config.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("не удалось загрузить конфигурацию: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
