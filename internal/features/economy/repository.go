// Package economy — repository.go выполняет все денежные операции
// с таблицами users, transactions и wishes.
//
// Каждое изменение баланса выполняется в транзакции БД в паре ровно
// с одной записью журнала: либо применяется всё, либо ничего.
// Строки пользователей блокируются через SELECT ... FOR UPDATE, чтобы
// гонки не увели баланс в минус и не пробили квоту.
package economy

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"wishmana.ru/wish-bot/internal/common"
)

// Repository предоставляет атомарные операции экономики.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository создаёт репозиторий экономики.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

const txColumns = `id, user_id, direction, mana_amount, description, transaction_category,
	detail, reference_id, reference_type, experience_gained, created_at`

func scanTransaction(row pgx.Row) (*Transaction, error) {
	var t Transaction
	err := row.Scan(
		&t.ID, &t.UserID, &t.Direction, &t.Amount, &t.Description, &t.Category,
		&t.Detail, &t.ReferenceID, &t.ReferenceType, &t.ExperienceGained, &t.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения транзакции: %w", err)
	}
	return &t, nil
}

// insertTransaction добавляет запись журнала внутри открытой транзакции БД.
func insertTransaction(ctx context.Context, tx pgx.Tx, t *Transaction) (*Transaction, error) {
	query := `
		INSERT INTO transactions (user_id, direction, mana_amount, description,
			transaction_category, detail, reference_id, reference_type, experience_gained)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING ` + txColumns
	return scanTransaction(tx.QueryRow(ctx, query,
		t.UserID, t.Direction, t.Amount, t.Description, t.Category,
		t.Detail, t.ReferenceID, t.ReferenceType, t.ExperienceGained,
	))
}

// GrantMana начисляет ману и опыт пользователю.
// Баланс и запись журнала обновляются атомарно.
func (r *Repository) GrantMana(ctx context.Context, userID, amount, experience int64, category, description string, refID *int64, refType *string) (*Transaction, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("ошибка начала транзакции: %w", err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `
		UPDATE users
		SET mana = mana + $2, experience_points = experience_points + $3, updated_at = NOW()
		WHERE user_id = $1
	`, userID, amount, experience)
	if err != nil {
		return nil, fmt.Errorf("ошибка начисления: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, common.ErrUserNotFound
	}

	entry, err := insertTransaction(ctx, tx, &Transaction{
		UserID:           userID,
		Direction:        DirectionCredit,
		Amount:           amount,
		Description:      description,
		Category:         category,
		ReferenceID:      refID,
		ReferenceType:    refType,
		ExperienceGained: experience,
	})
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("ошибка фиксации транзакции: %w", err)
	}
	return entry, nil
}

// RecordGift списывает квоту подарка и пишет запись журнала gift_sent.
// Мана не движется (mana_amount = 0) — дефицитный ресурс здесь квота.
// Счётчики перепроверяются под блокировкой строки: два подарка,
// бегущие наперегонки за остатком квоты, не пробьют лимит.
func (r *Repository) RecordGift(ctx context.Context, fromUserID int64, quotaCost int, limits QuotaLimits, experience int64, description string) (*Transaction, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("ошибка начала транзакции: %w", err)
	}
	defer tx.Rollback(ctx)

	var daily, weekly, monthly int
	err = tx.QueryRow(ctx, `
		SELECT quota_daily_used, quota_weekly_used, quota_monthly_used
		FROM users WHERE user_id = $1 FOR UPDATE
	`, fromUserID).Scan(&daily, &weekly, &monthly)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, common.ErrUserNotFound
		}
		return nil, fmt.Errorf("ошибка чтения квот: %w", err)
	}

	var violations []common.QuotaViolation
	for _, w := range []struct {
		name        string
		used, limit int
	}{
		{"daily", daily, limits.Daily},
		{"weekly", weekly, limits.Weekly},
		{"monthly", monthly, limits.Monthly},
	} {
		if w.used+quotaCost > w.limit {
			violations = append(violations, common.QuotaViolation{
				Window: w.name, Limit: w.limit, Used: w.used, Requested: quotaCost,
			})
		}
	}
	if len(violations) > 0 {
		return nil, &common.QuotaExceededError{Violations: violations}
	}

	_, err = tx.Exec(ctx, `
		UPDATE users
		SET quota_daily_used = quota_daily_used + $2,
		    quota_weekly_used = quota_weekly_used + $2,
		    quota_monthly_used = quota_monthly_used + $2,
		    experience_points = experience_points + $3,
		    updated_at = NOW()
		WHERE user_id = $1
	`, fromUserID, quotaCost, experience)
	if err != nil {
		return nil, fmt.Errorf("ошибка списания квоты: %w", err)
	}

	entry, err := insertTransaction(ctx, tx, &Transaction{
		UserID:           fromUserID,
		Direction:        DirectionDebit,
		Amount:           0,
		Description:      description,
		Category:         CategoryGiftSent,
		ExperienceGained: experience,
	})
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("ошибка фиксации транзакции: %w", err)
	}
	return entry, nil
}

// ApplyEnchantment списывает стоимость зачарования и дописывает его
// в запись желания. Проверка баланса — под блокировкой строки.
// nil-поля EnchantmentUpdate не трогают прежние зачарования.
func (r *Repository) ApplyEnchantment(ctx context.Context, userID, wishID, cost int64, upd EnchantmentUpdate, description, detail string) (*Transaction, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("ошибка начала транзакции: %w", err)
	}
	defer tx.Rollback(ctx)

	var balance int64
	err = tx.QueryRow(ctx, `
		SELECT mana FROM users WHERE user_id = $1 FOR UPDATE
	`, userID).Scan(&balance)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, common.ErrUserNotFound
		}
		return nil, fmt.Errorf("ошибка чтения баланса: %w", err)
	}
	if balance < cost {
		return nil, &common.InsufficientManaError{Required: cost, Available: balance}
	}

	_, err = tx.Exec(ctx, `
		UPDATE users
		SET mana = mana - $2, mana_spent = mana_spent + $2, updated_at = NOW()
		WHERE user_id = $1
	`, userID, cost)
	if err != nil {
		return nil, fmt.Errorf("ошибка списания: %w", err)
	}

	tag, err := tx.Exec(ctx, `
		UPDATE wishes
		SET priority = COALESCE($2, priority),
		    aura = COALESCE($3, aura),
		    is_linked = is_linked OR $4,
		    is_recurring = is_recurring OR $5,
		    updated_at = NOW()
		WHERE id = $1 AND status = 'active'
	`, wishID, upd.Priority, upd.Aura, upd.SetLinked, upd.SetRecurring)
	if err != nil {
		return nil, fmt.Errorf("ошибка записи зачарования: %w", err)
	}
	if tag.RowsAffected() == 0 {
		// Желание успело покинуть active — покупка отменяется целиком
		return nil, common.ErrInvalidState
	}

	refType := "wish"
	entry, err := insertTransaction(ctx, tx, &Transaction{
		UserID:        userID,
		Direction:     DirectionDebit,
		Amount:        cost,
		Description:   description,
		Category:      CategoryEnchantment,
		Detail:        &detail,
		ReferenceID:   &wishID,
		ReferenceType: &refType,
	})
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("ошибка фиксации транзакции: %w", err)
	}
	return entry, nil
}

// ResetQuotas обнуляет выбранные счётчики квот.
// Оптимистическая проверка last_quota_reset = expected защищает от
// двух обходов, сбрасывающих одного пользователя одновременно:
// второй просто не найдёт строку и вернёт false.
func (r *Repository) ResetQuotas(ctx context.Context, userID int64, daily, weekly, monthly bool, expected, now time.Time) (bool, error) {
	tag, err := r.db.Exec(ctx, `
		UPDATE users
		SET quota_daily_used = CASE WHEN $2 THEN 0 ELSE quota_daily_used END,
		    quota_weekly_used = CASE WHEN $3 THEN 0 ELSE quota_weekly_used END,
		    quota_monthly_used = CASE WHEN $4 THEN 0 ELSE quota_monthly_used END,
		    last_quota_reset = $6,
		    updated_at = NOW()
		WHERE user_id = $1 AND last_quota_reset = $5
	`, userID, daily, weekly, monthly, expected, now)
	if err != nil {
		return false, fmt.Errorf("ошибка сброса квот: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// RecentTransactions возвращает последние N записей журнала пользователя.
func (r *Repository) RecentTransactions(ctx context.Context, userID int64, limit int) ([]*Transaction, error) {
	query := `SELECT ` + txColumns + ` FROM transactions
		WHERE user_id = $1 ORDER BY created_at DESC, id DESC LIMIT $2`
	rows, err := r.db.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения транзакций: %w", err)
	}
	defer rows.Close()

	var transactions []*Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		transactions = append(transactions, t)
	}
	return transactions, rows.Err()
}
