// Package wish — repository.go выполняет операции с таблицей wishes.
package wish

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"wishmana.ru/wish-bot/internal/common"
)

// Repository предоставляет методы для работы с желаниями.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository создаёт репозиторий желаний.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

const wishColumns = `id, author_id, assignee_id, description, category, status,
	is_shared, is_gift, is_historical, priority, aura, is_linked, is_recurring,
	created_at, updated_at`

func scanWish(row pgx.Row) (*Wish, error) {
	var w Wish
	err := row.Scan(
		&w.ID, &w.AuthorID, &w.AssigneeID, &w.Description, &w.Category, &w.Status,
		&w.IsShared, &w.IsGift, &w.IsHistorical,
		&w.Priority, &w.Aura, &w.IsLinked, &w.IsRecurring,
		&w.CreatedAt, &w.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("ошибка чтения желания: %w", err)
	}
	return &w, nil
}

// Create сохраняет новое желание в статусе active с приоритетом 1.
func (r *Repository) Create(ctx context.Context, authorID int64, req CreateRequest) (*Wish, error) {
	query := `
		INSERT INTO wishes (author_id, assignee_id, description, category, status,
			is_shared, is_gift, is_historical, priority)
		VALUES ($1, $2, $3, $4, 'active', $5, $6, $7, 1)
		RETURNING ` + wishColumns
	return scanWish(r.db.QueryRow(ctx, query,
		authorID, req.AssigneeID, req.Description, req.Category,
		req.IsShared, req.IsGift, req.IsHistorical,
	))
}

// Get возвращает желание по ID.
func (r *Repository) Get(ctx context.Context, wishID int64) (*Wish, error) {
	query := `SELECT ` + wishColumns + ` FROM wishes WHERE id = $1`
	return scanWish(r.db.QueryRow(ctx, query, wishID))
}

// ListActiveByAuthor возвращает активные желания автора.
func (r *Repository) ListActiveByAuthor(ctx context.Context, authorID int64) ([]*Wish, error) {
	query := `SELECT ` + wishColumns + ` FROM wishes
		WHERE author_id = $1 AND status = 'active' ORDER BY priority DESC, created_at`
	rows, err := r.db.Query(ctx, query, authorID)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения желаний: %w", err)
	}
	defer rows.Close()

	var wishes []*Wish
	for rows.Next() {
		w, err := scanWish(rows)
		if err != nil {
			return nil, err
		}
		wishes = append(wishes, w)
	}
	return wishes, rows.Err()
}

// SetStatus переводит желание из active в конечный статус.
// Условие status = 'active' в WHERE защищает от гонки двух завершений:
// повторная попытка не найдёт строку.
func (r *Repository) SetStatus(ctx context.Context, wishID int64, status string) (bool, error) {
	tag, err := r.db.Exec(ctx, `
		UPDATE wishes SET status = $2, updated_at = NOW()
		WHERE id = $1 AND status = 'active'
	`, wishID, status)
	if err != nil {
		return false, fmt.Errorf("ошибка смены статуса желания: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}
