// Package user — repository.go выполняет все операции с таблицей users.
package user

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"wishmana.ru/wish-bot/internal/common"
)

// Repository предоставляет методы для работы с пользователями.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository создаёт новый репозиторий пользователей.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

const userColumns = `id, user_id, partner_id, name, mana, mana_spent, experience_points, rank,
	quota_daily_used, quota_weekly_used, quota_monthly_used, last_quota_reset, created_at, updated_at`

func scanUser(row pgx.Row) (*User, error) {
	var u User
	err := row.Scan(
		&u.ID, &u.UserID, &u.PartnerID, &u.Name, &u.Mana, &u.ManaSpent,
		&u.ExperiencePoints, &u.Rank,
		&u.QuotaDailyUsed, &u.QuotaWeeklyUsed, &u.QuotaMonthlyUsed, &u.LastQuotaReset,
		&u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, common.ErrUserNotFound
		}
		return nil, fmt.Errorf("ошибка чтения пользователя: %w", err)
	}
	return &u, nil
}

// Create регистрирует нового участника с начальным балансом.
// Повторная регистрация — no-op.
func (r *Repository) Create(ctx context.Context, userID int64, name string, startingMana int64) error {
	query := `
		INSERT INTO users (user_id, name, mana, last_quota_reset)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (user_id) DO NOTHING
	`
	_, err := r.db.Exec(ctx, query, userID, name, startingMana)
	if err != nil {
		return fmt.Errorf("ошибка создания пользователя: %w", err)
	}
	return nil
}

// Get возвращает пользователя по Telegram ID.
func (r *Repository) Get(ctx context.Context, userID int64) (*User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE user_id = $1`
	return scanUser(r.db.QueryRow(ctx, query, userID))
}

// List возвращает всех пользователей (для фоновых обходов).
func (r *Repository) List(ctx context.Context) ([]*User, error) {
	query := `SELECT ` + userColumns + ` FROM users ORDER BY id`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения пользователей: %w", err)
	}
	defer rows.Close()

	var users []*User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// SetPartner связывает двух пользователей в пару (симметрично).
// Атомарно: либо оба получат партнёра, либо никто.
func (r *Repository) SetPartner(ctx context.Context, userID, partnerID int64) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("ошибка начала транзакции: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, pair := range [][2]int64{{userID, partnerID}, {partnerID, userID}} {
		tag, err := tx.Exec(ctx, `
			UPDATE users SET partner_id = $2, updated_at = NOW() WHERE user_id = $1
		`, pair[0], pair[1])
		if err != nil {
			return fmt.Errorf("ошибка связывания пары: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return common.ErrUserNotFound
		}
	}

	return tx.Commit(ctx)
}

// UpdateRank записывает новое имя ранга пользователя.
// Вызывается обходом пересчёта рангов.
func (r *Repository) UpdateRank(ctx context.Context, userID int64, rank string) error {
	_, err := r.db.Exec(ctx, `
		UPDATE users SET rank = $2, updated_at = NOW() WHERE user_id = $1
	`, userID, rank)
	if err != nil {
		return fmt.Errorf("ошибка обновления ранга: %w", err)
	}
	return nil
}

// Exists проверяет, зарегистрирован ли пользователь.
func (r *Repository) Exists(ctx context.Context, userID int64) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM users WHERE user_id = $1)`, userID,
	).Scan(&exists)
	return exists, err
}
