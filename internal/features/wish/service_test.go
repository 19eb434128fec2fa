package wish

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wishmana.ru/wish-bot/internal/common"
	"wishmana.ru/wish-bot/internal/features/settings"
	"wishmana.ru/wish-bot/internal/features/user"
)

// --- фейки ---

type fakeStore struct {
	wishes map[int64]*Wish
	nextID int64
}

func newFakeStore() *fakeStore {
	return &fakeStore{wishes: make(map[int64]*Wish)}
}

func (f *fakeStore) Create(_ context.Context, authorID int64, req CreateRequest) (*Wish, error) {
	f.nextID++
	w := &Wish{
		ID: f.nextID, AuthorID: authorID, AssigneeID: req.AssigneeID,
		Description: req.Description, Category: req.Category,
		Status: StatusActive, Priority: 1,
	}
	f.wishes[w.ID] = w
	return w, nil
}

func (f *fakeStore) Get(_ context.Context, wishID int64) (*Wish, error) {
	w, ok := f.wishes[wishID]
	if !ok {
		return nil, common.ErrNotFound
	}
	copied := *w
	return &copied, nil
}

func (f *fakeStore) ListActiveByAuthor(_ context.Context, authorID int64) ([]*Wish, error) {
	var list []*Wish
	for _, w := range f.wishes {
		if w.AuthorID == authorID && w.Status == StatusActive {
			list = append(list, w)
		}
	}
	return list, nil
}

func (f *fakeStore) SetStatus(_ context.Context, wishID int64, status string) (bool, error) {
	w, ok := f.wishes[wishID]
	if !ok || w.Status != StatusActive {
		return false, nil
	}
	w.Status = status
	return true, nil
}

type rewardCall struct {
	userID, mana, experience int64
	category                 string
}

type fakeRewarder struct {
	calls []rewardCall
	err   error
}

func (f *fakeRewarder) GrantReward(_ context.Context, userID, mana, experience int64, category, _ string, _ int64, _ string) error {
	if f.err != nil {
		return f.err
	}
	f.calls = append(f.calls, rewardCall{userID, mana, experience, category})
	return nil
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

type fakeGameplay struct{}

func (fakeGameplay) Gameplay(_ context.Context) (*settings.Gameplay, error) {
	return settings.DefaultGameplay(), nil
}

func testUsers(assigneeExp int64) *fakeUsers {
	return &fakeUsers{users: map[int64]*user.User{
		1: {UserID: 1},
		2: {UserID: 2, ExperiencePoints: assigneeExp},
	}}
}

// --- создание ---

func TestCreateValidation(t *testing.T) {
	s := NewService(newFakeStore(), &fakeRewarder{}, testUsers(0), fakeGameplay{})
	self := int64(1)

	_, err := s.Create(context.Background(), 1, CreateRequest{
		Description: "ай",
		AssigneeID:  &self,
	})
	require.ErrorIs(t, err, common.ErrValidation)

	var vErr *common.ValidationError
	require.True(t, errors.As(err, &vErr))
	assert.Len(t, vErr.Violations, 2)
}

func TestCreate(t *testing.T) {
	s := NewService(newFakeStore(), &fakeRewarder{}, testUsers(0), fakeGameplay{})
	partner := int64(2)

	w, err := s.Create(context.Background(), 1, CreateRequest{
		Description: "Сходить вместе в кино",
		AssigneeID:  &partner,
	})
	require.NoError(t, err)
	assert.Equal(t, StatusActive, w.Status)
	assert.Equal(t, 1, w.Priority)
}

// --- завершение ---

func TestCompleteGrantsExperience(t *testing.T) {
	store := newFakeStore()
	rewarder := &fakeRewarder{}
	s := NewService(store, rewarder, testUsers(0), fakeGameplay{})
	ctx := context.Background()
	partner := int64(2)

	w, err := s.Create(ctx, 1, CreateRequest{Description: "Завтрак в постель", AssigneeID: &partner})
	require.NoError(t, err)

	completed, err := s.Complete(ctx, 2, w.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, completed.Status)

	// Исполнитель получает опыт за выполнение, маны нет
	require.Len(t, rewarder.calls, 1)
	assert.Equal(t, int64(2), rewarder.calls[0].userID)
	assert.Equal(t, int64(0), rewarder.calls[0].mana)
	assert.Equal(t, int64(10), rewarder.calls[0].experience)
	assert.Equal(t, "wish_completed", rewarder.calls[0].category)
}

func TestCompleteExperienceMultiplier(t *testing.T) {
	// Исполнитель-подмастерье: 10 × 1.1 = 11
	store := newFakeStore()
	rewarder := &fakeRewarder{}
	s := NewService(store, rewarder, testUsers(100), fakeGameplay{})
	ctx := context.Background()
	partner := int64(2)

	w, err := s.Create(ctx, 1, CreateRequest{Description: "Завтрак в постель", AssigneeID: &partner})
	require.NoError(t, err)

	_, err = s.Complete(ctx, 2, w.ID)
	require.NoError(t, err)
	require.Len(t, rewarder.calls, 1)
	assert.Equal(t, int64(11), rewarder.calls[0].experience)
}

func TestCompleteOnlyAssignee(t *testing.T) {
	store := newFakeStore()
	s := NewService(store, &fakeRewarder{}, testUsers(0), fakeGameplay{})
	ctx := context.Background()
	partner := int64(2)

	w, err := s.Create(ctx, 1, CreateRequest{Description: "Завтрак в постель", AssigneeID: &partner})
	require.NoError(t, err)

	// Автор завершить не может — только исполнитель
	_, err = s.Complete(ctx, 1, w.ID)
	assert.ErrorIs(t, err, common.ErrPermissionDenied)

	// Желание без исполнителя завершить некому
	orphan, err := s.Create(ctx, 1, CreateRequest{Description: "Когда-нибудь потом"})
	require.NoError(t, err)
	_, err = s.Complete(ctx, 2, orphan.ID)
	assert.ErrorIs(t, err, common.ErrPermissionDenied)
}

func TestCompleteTwice(t *testing.T) {
	store := newFakeStore()
	s := NewService(store, &fakeRewarder{}, testUsers(0), fakeGameplay{})
	ctx := context.Background()
	partner := int64(2)

	w, err := s.Create(ctx, 1, CreateRequest{Description: "Завтрак в постель", AssigneeID: &partner})
	require.NoError(t, err)

	_, err = s.Complete(ctx, 2, w.ID)
	require.NoError(t, err)
	_, err = s.Complete(ctx, 2, w.ID)
	assert.ErrorIs(t, err, common.ErrInvalidState)
}

func TestCompletePayoutFailureKeepsStatus(t *testing.T) {
	store := newFakeStore()
	s := NewService(store, &fakeRewarder{err: errors.New("база недоступна")}, testUsers(0), fakeGameplay{})
	ctx := context.Background()
	partner := int64(2)

	w, err := s.Create(ctx, 1, CreateRequest{Description: "Завтрак в постель", AssigneeID: &partner})
	require.NoError(t, err)

	completed, err := s.Complete(ctx, 2, w.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, completed.Status)
	assert.Equal(t, StatusCompleted, store.wishes[w.ID].Status)
}

// --- отмена ---

func TestCancel(t *testing.T) {
	store := newFakeStore()
	s := NewService(store, &fakeRewarder{}, testUsers(0), fakeGameplay{})
	ctx := context.Background()
	partner := int64(2)

	w, err := s.Create(ctx, 1, CreateRequest{Description: "Завтрак в постель", AssigneeID: &partner})
	require.NoError(t, err)

	require.ErrorIs(t, s.Cancel(ctx, 2, w.ID), common.ErrPermissionDenied)
	require.NoError(t, s.Cancel(ctx, 1, w.ID))
	assert.Equal(t, StatusCancelled, store.wishes[w.ID].Status)

	assert.ErrorIs(t, s.Cancel(ctx, 1, w.ID), common.ErrInvalidState)
}
