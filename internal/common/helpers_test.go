package common

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPluralizeMana(t *testing.T) {
	tests := []struct {
		n    int64
		want string
	}{
		{1, "мана"},
		{2, "маны"},
		{4, "маны"},
		{5, "ман"},
		{11, "ман"},
		{12, "ман"},
		{14, "ман"},
		{21, "мана"},
		{22, "маны"},
		{100, "ман"},
		{101, "мана"},
		{0, "ман"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, PluralizeMana(tt.n), "n=%d", tt.n)
	}
}

func TestStartOfWeek(t *testing.T) {
	loc := AppLocation()

	// Среда 19.08.2026 → понедельник 17.08.2026
	wednesday := time.Date(2026, 8, 19, 15, 30, 0, 0, loc)
	assert.Equal(t, time.Date(2026, 8, 17, 0, 0, 0, 0, loc), StartOfWeek(wednesday))

	// Воскресенье относится к текущей неделе, не к следующей
	sunday := time.Date(2026, 8, 23, 10, 0, 0, 0, loc)
	assert.Equal(t, time.Date(2026, 8, 17, 0, 0, 0, 0, loc), StartOfWeek(sunday))

	// Понедельник — начало своей же недели
	monday := time.Date(2026, 8, 17, 0, 0, 0, 0, loc)
	assert.Equal(t, monday, StartOfWeek(monday))
}

func TestStartOfMonth(t *testing.T) {
	loc := AppLocation()
	mid := time.Date(2026, 2, 14, 23, 59, 0, 0, loc)
	assert.Equal(t, time.Date(2026, 2, 1, 0, 0, 0, 0, loc), StartOfMonth(mid))
}

func TestSameDay(t *testing.T) {
	loc := AppLocation()
	a := time.Date(2026, 8, 19, 0, 1, 0, 0, loc)
	b := time.Date(2026, 8, 19, 23, 59, 0, 0, loc)
	c := time.Date(2026, 8, 20, 0, 0, 0, 0, loc)

	assert.True(t, SameDay(a, b))
	assert.False(t, SameDay(b, c))
}
