package economy

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wishmana.ru/wish-bot/internal/common"
	"wishmana.ru/wish-bot/internal/config"
	"wishmana.ru/wish-bot/internal/features/settings"
	"wishmana.ru/wish-bot/internal/features/user"
	"wishmana.ru/wish-bot/internal/features/wish"
)

// --- фейки ---

type grantCall struct {
	userID, amount, experience int64
	category                   string
}

type enchantCall struct {
	userID, wishID, cost int64
	upd                  EnchantmentUpdate
	detail               string
}

type giftCall struct {
	fromUserID int64
	quotaCost  int
	limits     QuotaLimits
	experience int64
}

type fakeStore struct {
	grants       []grantCall
	gifts        []giftCall
	enchants     []enchantCall
	resets       []resetCall
	transactions []*Transaction
	grantErr     error
}

func (f *fakeStore) GrantMana(_ context.Context, userID, amount, experience int64, category, _ string, _ *int64, _ *string) (*Transaction, error) {
	if f.grantErr != nil {
		return nil, f.grantErr
	}
	f.grants = append(f.grants, grantCall{userID, amount, experience, category})
	return &Transaction{UserID: userID, Direction: DirectionCredit, Amount: amount, Category: category}, nil
}

func (f *fakeStore) RecordGift(_ context.Context, fromUserID int64, quotaCost int, limits QuotaLimits, experience int64, _ string) (*Transaction, error) {
	f.gifts = append(f.gifts, giftCall{fromUserID, quotaCost, limits, experience})
	return &Transaction{UserID: fromUserID, Direction: DirectionDebit, Category: CategoryGiftSent}, nil
}

func (f *fakeStore) ApplyEnchantment(_ context.Context, userID, wishID, cost int64, upd EnchantmentUpdate, _, detail string) (*Transaction, error) {
	f.enchants = append(f.enchants, enchantCall{userID, wishID, cost, upd, detail})
	return &Transaction{UserID: userID, Direction: DirectionDebit, Amount: cost, Category: CategoryEnchantment}, nil
}

type resetCall struct {
	userID                 int64
	daily, weekly, monthly bool
}

func (f *fakeStore) ResetQuotas(_ context.Context, userID int64, daily, weekly, monthly bool, _, _ time.Time) (bool, error) {
	f.resets = append(f.resets, resetCall{userID, daily, weekly, monthly})
	return true, nil
}

func (f *fakeStore) RecentTransactions(_ context.Context, _ int64, _ int) ([]*Transaction, error) {
	return f.transactions, nil
}

type fakeUsers struct {
	users map[int64]*user.User
}

func (f *fakeUsers) Get(_ context.Context, userID int64) (*user.User, error) {
	u, ok := f.users[userID]
	if !ok {
		return nil, common.ErrUserNotFound
	}
	return u, nil
}

func (f *fakeUsers) List(_ context.Context) ([]*user.User, error) {
	var list []*user.User
	for _, u := range f.users {
		list = append(list, u)
	}
	return list, nil
}

type fakeWishes struct {
	wishes map[int64]*wish.Wish
}

func (f *fakeWishes) Get(_ context.Context, wishID int64) (*wish.Wish, error) {
	w, ok := f.wishes[wishID]
	if !ok {
		return nil, common.ErrNotFound
	}
	return w, nil
}

type fakeGameplay struct{}

func (fakeGameplay) Gameplay(_ context.Context) (*settings.Gameplay, error) {
	return settings.DefaultGameplay(), nil
}

type notification struct {
	kind        string
	recipientID int64
}

type fakeNotifier struct {
	sent []notification
}

func (f *fakeNotifier) Notify(_ context.Context, kind string, recipientID int64, _ string) {
	f.sent = append(f.sent, notification{kind, recipientID})
}

func testConfig() *config.Config {
	return &config.Config{EconomyMetricsWindow: 200}
}

func freshUser(id int64, mana int64) *user.User {
	return &user.User{
		UserID:         id,
		Name:           "Тест",
		Mana:           mana,
		Rank:           "novice",
		LastQuotaReset: common.Now(),
	}
}

func newTestService(store *fakeStore, users *fakeUsers, wishes *fakeWishes, notifier *fakeNotifier) *Service {
	return NewService(store, users, wishes, fakeGameplay{}, notifier, testConfig())
}

// --- начисления ---

func TestGrantManaRejectsNegative(t *testing.T) {
	s := newTestService(&fakeStore{}, &fakeUsers{}, &fakeWishes{}, &fakeNotifier{})
	_, err := s.GrantMana(context.Background(), 1, -10, CategoryGrant, "тест")
	assert.ErrorIs(t, err, common.ErrInvalidAmount)
}

func TestGrantMana(t *testing.T) {
	store := &fakeStore{}
	s := newTestService(store, &fakeUsers{}, &fakeWishes{}, &fakeNotifier{})

	entry, err := s.GrantMana(context.Background(), 1, 50, CategoryGrant, "тест")
	require.NoError(t, err)
	assert.Equal(t, DirectionCredit, entry.Direction)
	require.Len(t, store.grants, 1)
	assert.Equal(t, int64(50), store.grants[0].amount)
}

// --- подарки ---

func TestGiftWishSelf(t *testing.T) {
	s := newTestService(&fakeStore{}, &fakeUsers{}, &fakeWishes{}, &fakeNotifier{})
	_, err := s.GiftWish(context.Background(), 1, GiftRequest{ToUserID: 1})
	assert.ErrorIs(t, err, common.ErrSelfGift)
}

func TestGiftWishRecipientNotFound(t *testing.T) {
	users := &fakeUsers{users: map[int64]*user.User{1: freshUser(1, 0)}}
	s := newTestService(&fakeStore{}, users, &fakeWishes{}, &fakeNotifier{})

	_, err := s.GiftWish(context.Background(), 1, GiftRequest{ToUserID: 99})
	assert.ErrorIs(t, err, common.ErrRecipientNotFound)
}

func TestGiftWishQuotaExceeded(t *testing.T) {
	// Дневное окно 4/5, подарок на 2: отказ, счётчики не тронуты
	sender := freshUser(1, 0)
	sender.QuotaDailyUsed = 4
	users := &fakeUsers{users: map[int64]*user.User{1: sender, 2: freshUser(2, 0)}}
	store := &fakeStore{}
	s := newTestService(store, users, &fakeWishes{}, &fakeNotifier{})

	_, err := s.GiftWish(context.Background(), 1, GiftRequest{ToUserID: 2, Amount: 2})
	require.ErrorIs(t, err, common.ErrQuotaExceeded)

	var qErr *common.QuotaExceededError
	require.True(t, errors.As(err, &qErr))
	assert.Equal(t, "daily", qErr.Violations[0].Window)
	assert.Empty(t, store.gifts, "списания быть не должно")
}

func TestGiftWish(t *testing.T) {
	users := &fakeUsers{users: map[int64]*user.User{1: freshUser(1, 0), 2: freshUser(2, 0)}}
	store := &fakeStore{}
	notifier := &fakeNotifier{}
	s := newTestService(store, users, &fakeWishes{}, notifier)

	result, err := s.GiftWish(context.Background(), 1, GiftRequest{ToUserID: 2, Message: "Лови!"})
	require.NoError(t, err)

	// Дневное окно самое узкое: 5 − 0 − 1 = 4
	assert.Equal(t, 4, result.Remaining)

	require.Len(t, store.gifts, 1)
	assert.Equal(t, 1, store.gifts[0].quotaCost)
	assert.Equal(t, int64(5), store.gifts[0].experience) // gift_sent из таблицы опыта
	assert.Equal(t, QuotaLimits{Daily: 5, Weekly: 20, Monthly: 50}, store.gifts[0].limits)

	require.Len(t, notifier.sent, 1)
	assert.Equal(t, int64(2), notifier.sent[0].recipientID)
}

// --- зачарования ---

func activeWish(id, authorID int64) *wish.Wish {
	return &wish.Wish{ID: id, AuthorID: authorID, Status: wish.StatusActive, Priority: 1}
}

func TestEnchantWishPriority(t *testing.T) {
	// Баланс 100, приоритет уровня 2 стоит 5: остаток 95
	users := &fakeUsers{users: map[int64]*user.User{1: freshUser(1, 100)}}
	wishes := &fakeWishes{wishes: map[int64]*wish.Wish{10: activeWish(10, 1)}}
	store := &fakeStore{}
	s := newTestService(store, users, wishes, &fakeNotifier{})

	result, err := s.EnchantWish(context.Background(), 1, wish.EnchantmentRequest{
		WishID: 10, Type: wish.EnchantPriority, Level: 2,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(5), result.Cost)
	assert.Equal(t, int64(95), result.NewBalance)

	require.Len(t, store.enchants, 1)
	call := store.enchants[0]
	assert.Equal(t, int64(5), call.cost)
	assert.Equal(t, "priority", call.detail)
	require.NotNil(t, call.upd.Priority)
	assert.Equal(t, 2, *call.upd.Priority)
}

func TestEnchantWishNotAuthor(t *testing.T) {
	users := &fakeUsers{users: map[int64]*user.User{2: freshUser(2, 100)}}
	wishes := &fakeWishes{wishes: map[int64]*wish.Wish{10: activeWish(10, 1)}}
	s := newTestService(&fakeStore{}, users, wishes, &fakeNotifier{})

	_, err := s.EnchantWish(context.Background(), 2, wish.EnchantmentRequest{
		WishID: 10, Type: wish.EnchantAura, Aura: "romantic",
	})
	assert.ErrorIs(t, err, common.ErrPermissionDenied)
}

func TestEnchantWishNotActive(t *testing.T) {
	w := activeWish(10, 1)
	w.Status = wish.StatusCompleted
	users := &fakeUsers{users: map[int64]*user.User{1: freshUser(1, 100)}}
	wishes := &fakeWishes{wishes: map[int64]*wish.Wish{10: w}}
	s := newTestService(&fakeStore{}, users, wishes, &fakeNotifier{})

	_, err := s.EnchantWish(context.Background(), 1, wish.EnchantmentRequest{
		WishID: 10, Type: wish.EnchantAura, Aura: "romantic",
	})
	assert.ErrorIs(t, err, common.ErrInvalidState)
}

func TestEnchantWishInvalidVariants(t *testing.T) {
	users := &fakeUsers{users: map[int64]*user.User{1: freshUser(1, 100)}}
	wishes := &fakeWishes{wishes: map[int64]*wish.Wish{10: activeWish(10, 1)}}
	s := newTestService(&fakeStore{}, users, wishes, &fakeNotifier{})
	ctx := context.Background()

	_, err := s.EnchantWish(ctx, 1, wish.EnchantmentRequest{WishID: 10, Type: wish.EnchantPriority, Level: 6})
	assert.ErrorIs(t, err, common.ErrInvalidLevel)

	_, err = s.EnchantWish(ctx, 1, wish.EnchantmentRequest{WishID: 10, Type: wish.EnchantAura, Aura: "cosmic"})
	assert.ErrorIs(t, err, common.ErrInvalidAura)

	_, err = s.EnchantWish(ctx, 1, wish.EnchantmentRequest{WishID: 10, Type: "blessing"})
	assert.ErrorIs(t, err, common.ErrUnknownEnchantment)
}

func TestEnchantWishInsufficientMana(t *testing.T) {
	users := &fakeUsers{users: map[int64]*user.User{1: freshUser(1, 3)}}
	wishes := &fakeWishes{wishes: map[int64]*wish.Wish{10: activeWish(10, 1)}}
	store := &fakeStore{}
	s := newTestService(store, users, wishes, &fakeNotifier{})

	_, err := s.EnchantWish(context.Background(), 1, wish.EnchantmentRequest{
		WishID: 10, Type: wish.EnchantAura, Aura: "urgent",
	})
	require.ErrorIs(t, err, common.ErrInsufficientMana)

	var mErr *common.InsufficientManaError
	require.True(t, errors.As(err, &mErr))
	assert.Equal(t, int64(15), mErr.Required)
	assert.Equal(t, int64(3), mErr.Available)
	assert.Empty(t, store.enchants)
}

// --- сбросы квот ---

func TestCheckAndResetQuotasFresh(t *testing.T) {
	// Последний сброс сегодня — делать нечего
	users := &fakeUsers{users: map[int64]*user.User{1: freshUser(1, 0)}}
	store := &fakeStore{}
	s := newTestService(store, users, &fakeWishes{}, &fakeNotifier{})

	ok, err := s.CheckAndResetQuotas(context.Background(), 1)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, store.resets)
}

func TestCheckAndResetQuotasStale(t *testing.T) {
	u := freshUser(1, 0)
	u.LastQuotaReset = common.Now().AddDate(0, -2, 0)
	users := &fakeUsers{users: map[int64]*user.User{1: u}}
	store := &fakeStore{}
	s := newTestService(store, users, &fakeWishes{}, &fakeNotifier{})

	ok, err := s.CheckAndResetQuotas(context.Background(), 1)
	require.NoError(t, err)
	assert.True(t, ok)
	require.Len(t, store.resets, 1)
	assert.True(t, store.resets[0].daily)
	assert.True(t, store.resets[0].weekly)
	assert.True(t, store.resets[0].monthly)
}

func TestQuotaResetSweep(t *testing.T) {
	stale := freshUser(1, 0)
	stale.LastQuotaReset = common.Now().AddDate(0, 0, -3)
	users := &fakeUsers{users: map[int64]*user.User{1: stale, 2: freshUser(2, 0)}}
	store := &fakeStore{}
	s := newTestService(store, users, &fakeWishes{}, &fakeNotifier{})

	reset, err := s.QuotaResetSweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, reset)
	require.Len(t, store.resets, 1)
	assert.Equal(t, int64(1), store.resets[0].userID)
}

// --- метрики ---

func TestMetrics(t *testing.T) {
	detail := "aura"
	store := &fakeStore{transactions: []*Transaction{
		{Direction: DirectionCredit, Amount: 100, Category: CategoryQuestReward},
		{Direction: DirectionCredit, Amount: 30, Category: CategoryEventReward},
		{Direction: DirectionDebit, Amount: 15, Category: CategoryEnchantment, Detail: &detail},
		{Direction: DirectionDebit, Amount: 0, Category: CategoryGiftSent},
		{Direction: DirectionDebit, Amount: 0, Category: CategoryGiftSent},
	}}
	users := &fakeUsers{users: map[int64]*user.User{1: freshUser(1, 115)}}
	s := newTestService(store, users, &fakeWishes{}, &fakeNotifier{})

	m, err := s.Metrics(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, 2, m.GiftsSent)
	assert.Equal(t, int64(130), m.ManaEarned)
	assert.Equal(t, int64(15), m.ManaSpent)
	assert.Equal(t, "aura", m.TopEnchantment)
	assert.Contains(t, m.QuotaUtilization, "daily")
}
