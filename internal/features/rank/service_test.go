package rank

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wishmana.ru/wish-bot/internal/features/user"
)

type fakeUserStore struct {
	users     []*user.User
	updateErr map[int64]error
	updated   map[int64]string
}

func (f *fakeUserStore) List(_ context.Context) ([]*user.User, error) {
	return f.users, nil
}

func (f *fakeUserStore) UpdateRank(_ context.Context, userID int64, rank string) error {
	if err := f.updateErr[userID]; err != nil {
		return err
	}
	if f.updated == nil {
		f.updated = make(map[int64]string)
	}
	f.updated[userID] = rank
	return nil
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

func TestRecalculateAll(t *testing.T) {
	store := &fakeUserStore{users: []*user.User{
		{UserID: 1, Rank: "novice", ExperiencePoints: 150},  // пора в apprentice
		{UserID: 2, Rank: "novice", ExperiencePoints: 50},   // ранг актуален
		{UserID: 3, Rank: "apprentice", ExperiencePoints: 600}, // пора в adept
	}}
	notifier := &fakeNotifier{}
	s := NewService(store, notifier)

	updated, err := s.RecalculateAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, updated)
	assert.Equal(t, "apprentice", store.updated[1])
	assert.Equal(t, "adept", store.updated[3])
	assert.NotContains(t, store.updated, int64(2))

	// Повышенные уведомлены
	assert.Len(t, notifier.sent, 2)
}

func TestRecalculateAllContinuesOnError(t *testing.T) {
	store := &fakeUserStore{
		users: []*user.User{
			{UserID: 1, Rank: "novice", ExperiencePoints: 150},
			{UserID: 2, Rank: "novice", ExperiencePoints: 600},
		},
		updateErr: map[int64]error{1: errors.New("база недоступна")},
	}
	s := NewService(store, &fakeNotifier{})

	updated, err := s.RecalculateAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, updated)
	assert.Equal(t, "adept", store.updated[2])
}

func TestRecalculateAllIdempotent(t *testing.T) {
	store := &fakeUserStore{users: []*user.User{
		{UserID: 1, Rank: "apprentice", ExperiencePoints: 150},
	}}
	s := NewService(store, &fakeNotifier{})

	updated, err := s.RecalculateAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, updated)
}
