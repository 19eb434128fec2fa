// Package event — repository.go выполняет операции с таблицами
// events и event_schedule.
package event

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"wishmana.ru/wish-bot/internal/common"
)

// Repository предоставляет методы для работы с событиями.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository создаёт репозиторий событий.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

const eventColumns = `id, user_id, title, description, status, reward_mana,
	reward_experience, multiplier, completed_by, expires_at, created_at, updated_at`

func scanEvent(row pgx.Row) (*Event, error) {
	var e Event
	err := row.Scan(
		&e.ID, &e.UserID, &e.Title, &e.Description, &e.Status,
		&e.RewardMana, &e.RewardExperience, &e.Multiplier,
		&e.CompletedBy, &e.ExpiresAt, &e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("ошибка чтения события: %w", err)
	}
	return &e, nil
}

// Create сохраняет новое событие в статусе active.
func (r *Repository) Create(ctx context.Context, e *Event) (*Event, error) {
	query := `
		INSERT INTO events (user_id, title, description, status, reward_mana,
			reward_experience, multiplier, expires_at)
		VALUES ($1, $2, $3, 'active', $4, $5, $6, $7)
		RETURNING ` + eventColumns
	return scanEvent(r.db.QueryRow(ctx, query,
		e.UserID, e.Title, e.Description, e.RewardMana,
		e.RewardExperience, e.Multiplier, e.ExpiresAt,
	))
}

// Get возвращает событие по ID.
func (r *Repository) Get(ctx context.Context, eventID int64) (*Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE id = $1`
	return scanEvent(r.db.QueryRow(ctx, query, eventID))
}

// GetActiveByUser возвращает активное событие пользователя.
// У пользователя активно не больше одного события.
func (r *Repository) GetActiveByUser(ctx context.Context, userID int64) (*Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events
		WHERE user_id = $1 AND status = 'active' ORDER BY created_at DESC LIMIT 1`
	return scanEvent(r.db.QueryRow(ctx, query, userID))
}

// Complete переводит событие из active в completed и записывает,
// кто подтвердил выполнение. Условие status = 'active' защищает
// от гонки двух подтверждений.
func (r *Repository) Complete(ctx context.Context, eventID, completedBy int64) (bool, error) {
	tag, err := r.db.Exec(ctx, `
		UPDATE events SET status = 'completed', completed_by = $2, updated_at = NOW()
		WHERE id = $1 AND status = 'active'
	`, eventID, completedBy)
	if err != nil {
		return false, fmt.Errorf("ошибка завершения события: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// Expire переводит событие из active в expired.
func (r *Repository) Expire(ctx context.Context, eventID int64) (bool, error) {
	tag, err := r.db.Exec(ctx, `
		UPDATE events SET status = 'expired', updated_at = NOW()
		WHERE id = $1 AND status = 'active'
	`, eventID)
	if err != nil {
		return false, fmt.Errorf("ошибка истечения события: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// FindExpired возвращает активные события с прошедшим сроком.
func (r *Repository) FindExpired(ctx context.Context, now time.Time) ([]*Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events
		WHERE status = 'active' AND expires_at < $1 ORDER BY expires_at`
	rows, err := r.db.Query(ctx, query, now)
	if err != nil {
		return nil, fmt.Errorf("ошибка поиска просроченных событий: %w", err)
	}
	defer rows.Close()

	var events []*Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

// ScheduleNext добавляет запись расписания следующего события.
func (r *Repository) ScheduleNext(ctx context.Context, userID int64, dueAt time.Time) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO event_schedule (user_id, due_at) VALUES ($1, $2)
	`, userID, dueAt)
	if err != nil {
		return fmt.Errorf("ошибка записи расписания события: %w", err)
	}
	return nil
}

// DueSchedules возвращает непотреблённые записи расписания,
// срок которых наступил.
func (r *Repository) DueSchedules(ctx context.Context, now time.Time) ([]*Schedule, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, user_id, due_at, consumed, created_at FROM event_schedule
		WHERE consumed = FALSE AND due_at <= $1 ORDER BY due_at
	`, now)
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения расписания событий: %w", err)
	}
	defer rows.Close()

	var schedules []*Schedule
	for rows.Next() {
		var s Schedule
		if err := rows.Scan(&s.ID, &s.UserID, &s.DueAt, &s.Consumed, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("ошибка чтения записи расписания: %w", err)
		}
		schedules = append(schedules, &s)
	}
	return schedules, rows.Err()
}

// ConsumeSchedule помечает запись расписания потреблённой.
// Условие consumed = FALSE защищает от двойной генерации.
func (r *Repository) ConsumeSchedule(ctx context.Context, scheduleID int64) (bool, error) {
	tag, err := r.db.Exec(ctx, `
		UPDATE event_schedule SET consumed = TRUE WHERE id = $1 AND consumed = FALSE
	`, scheduleID)
	if err != nil {
		return false, fmt.Errorf("ошибка потребления записи расписания: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}
