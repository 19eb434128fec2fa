// Package settings — repository.go выполняет операции с таблицей economy_settings.
package settings

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository предоставляет доступ к таблице economy_settings.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository создаёт репозиторий настроек.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// All возвращает все строки настроек.
// Отсутствующие ключи дополняются значениями по умолчанию на уровне сервиса.
func (r *Repository) All(ctx context.Context) (map[string][]byte, error) {
	rows, err := r.db.Query(ctx, `SELECT key, value FROM economy_settings`)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения настроек: %w", err)
	}
	defer rows.Close()

	values := make(map[string][]byte)
	for rows.Next() {
		var key string
		var value []byte
		if err := rows.Scan(&key, &value); err != nil {
			return nil, fmt.Errorf("ошибка сканирования настройки: %w", err)
		}
		values[key] = value
	}
	return values, rows.Err()
}

// Upsert записывает значение ключа (JSON).
func (r *Repository) Upsert(ctx context.Context, key string, value []byte) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO economy_settings (key, value, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = NOW()
	`, key, value)
	if err != nil {
		return fmt.Errorf("ошибка записи настройки %s: %w", key, err)
	}
	return nil
}
