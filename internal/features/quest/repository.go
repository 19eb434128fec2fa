// Package quest — repository.go выполняет операции с таблицей quests.
package quest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"wishmana.ru/wish-bot/internal/common"
)

// Repository предоставляет методы для работы с квестами.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository создаёт репозиторий квестов.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

const questColumns = `id, author_id, assignee_id, title, description, category,
	difficulty, status, reward_mana, reward_experience, due_date, completed_at,
	created_at, updated_at`

func scanQuest(row pgx.Row) (*Quest, error) {
	var q Quest
	err := row.Scan(
		&q.ID, &q.AuthorID, &q.AssigneeID, &q.Title, &q.Description, &q.Category,
		&q.Difficulty, &q.Status, &q.RewardMana, &q.RewardExperience,
		&q.DueDate, &q.CompletedAt, &q.CreatedAt, &q.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("ошибка чтения квеста: %w", err)
	}
	return &q, nil
}

// Create сохраняет новый квест в статусе active.
func (r *Repository) Create(ctx context.Context, q *Quest) (*Quest, error) {
	query := `
		INSERT INTO quests (author_id, assignee_id, title, description, category,
			difficulty, status, reward_mana, reward_experience, due_date)
		VALUES ($1, $2, $3, $4, $5, $6, 'active', $7, $8, $9)
		RETURNING ` + questColumns
	return scanQuest(r.db.QueryRow(ctx, query,
		q.AuthorID, q.AssigneeID, q.Title, q.Description, q.Category,
		q.Difficulty, q.RewardMana, q.RewardExperience, q.DueDate,
	))
}

// Get возвращает квест по ID.
func (r *Repository) Get(ctx context.Context, questID int64) (*Quest, error) {
	query := `SELECT ` + questColumns + ` FROM quests WHERE id = $1`
	return scanQuest(r.db.QueryRow(ctx, query, questID))
}

// CountActiveByAuthor возвращает число активных квестов автора.
func (r *Repository) CountActiveByAuthor(ctx context.Context, authorID int64) (int, error) {
	var count int
	err := r.db.QueryRow(ctx, `
		SELECT COUNT(*) FROM quests WHERE author_id = $1 AND status = 'active'
	`, authorID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("ошибка подсчёта квестов: %w", err)
	}
	return count, nil
}

// ListActiveByAssignee возвращает активные квесты исполнителя.
func (r *Repository) ListActiveByAssignee(ctx context.Context, assigneeID int64) ([]*Quest, error) {
	query := `SELECT ` + questColumns + ` FROM quests
		WHERE assignee_id = $1 AND status = 'active' ORDER BY due_date`
	rows, err := r.db.Query(ctx, query, assigneeID)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения квестов: %w", err)
	}
	defer rows.Close()

	var quests []*Quest
	for rows.Next() {
		q, err := scanQuest(rows)
		if err != nil {
			return nil, err
		}
		quests = append(quests, q)
	}
	return quests, rows.Err()
}

// SetStatus переводит квест из active в конечный статус. При переходе
// в completed проставляется completed_at.
// Условие status = 'active' защищает от гонки двух завершений.
func (r *Repository) SetStatus(ctx context.Context, questID int64, status string) (bool, error) {
	tag, err := r.db.Exec(ctx, `
		UPDATE quests
		SET status = $2,
		    completed_at = CASE WHEN $2 = 'completed' THEN NOW() ELSE completed_at END,
		    updated_at = NOW()
		WHERE id = $1 AND status = 'active'
	`, questID, status)
	if err != nil {
		return false, fmt.Errorf("ошибка смены статуса квеста: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// Update переписывает изменяемые поля активного квеста.
func (r *Repository) Update(ctx context.Context, q *Quest) (*Quest, error) {
	query := `
		UPDATE quests
		SET title = $2, description = $3, difficulty = $4,
		    reward_mana = $5, reward_experience = $6, due_date = $7, updated_at = NOW()
		WHERE id = $1 AND status = 'active'
		RETURNING ` + questColumns
	updated, err := scanQuest(r.db.QueryRow(ctx, query,
		q.ID, q.Title, q.Description, q.Difficulty,
		q.RewardMana, q.RewardExperience, q.DueDate,
	))
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.ErrInvalidState
		}
		return nil, err
	}
	return updated, nil
}

// FindExpired возвращает активные квесты с прошедшим дедлайном.
// Квесты без дедлайна (due_date IS NULL) никогда не истекают.
func (r *Repository) FindExpired(ctx context.Context, now time.Time) ([]*Quest, error) {
	query := `SELECT ` + questColumns + ` FROM quests
		WHERE status = 'active' AND due_date < $1 ORDER BY due_date`
	rows, err := r.db.Query(ctx, query, now)
	if err != nil {
		return nil, fmt.Errorf("ошибка поиска просроченных квестов: %w", err)
	}
	defer rows.Close()

	var quests []*Quest
	for rows.Next() {
		q, err := scanQuest(rows)
		if err != nil {
			return nil, err
		}
		quests = append(quests, q)
	}
	return quests, rows.Err()
}
