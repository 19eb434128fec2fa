package rank

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTableOrdered(t *testing.T) {
	// Пороги строго растут — Current опирается на этот порядок
	for i := 1; i < len(Table); i++ {
		assert.Greater(t, Table[i].MinExperience, Table[i-1].MinExperience,
			"порог ранга %s", Table[i].Name)
	}
}

func TestCurrent(t *testing.T) {
	tests := []struct {
		experience int64
		want       string
	}{
		{0, "novice"},
		{99, "novice"},
		{100, "apprentice"},
		{499, "apprentice"},
		{500, "adept"},
		{1500, "master"},
		{4999, "master"},
		{5000, "grandmaster"},
		{100000, "grandmaster"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Current(tt.experience).Name, "experience=%d", tt.experience)
	}
}

func TestPromote(t *testing.T) {
	p := Promote(90, 110)
	assert.True(t, p.Promoted)
	assert.Equal(t, "novice", p.OldRank.Name)
	assert.Equal(t, "apprentice", p.NewRank.Name)

	// Рост опыта внутри одного ранга — не повышение
	p = Promote(110, 400)
	assert.False(t, p.Promoted)
}

func TestExperienceMultiplier(t *testing.T) {
	novice, ok := ByName("novice")
	require.True(t, ok)
	assert.Equal(t, 1.0, ExperienceMultiplier(novice))

	apprentice, ok := ByName("apprentice")
	require.True(t, ok)
	assert.InDelta(t, 1.1, ExperienceMultiplier(apprentice), 1e-9)

	grandmaster, ok := ByName("grandmaster")
	require.True(t, ok)
	assert.InDelta(t, 1.5, ExperienceMultiplier(grandmaster), 1e-9)
}

func TestPrivileges(t *testing.T) {
	novice, _ := ByName("novice")
	adept, _ := ByName("adept")
	grandmaster, _ := ByName("grandmaster")

	// Отсутствующий ключ означает «не выдано»
	assert.False(t, HasPrivilege(novice, PrivCreateHardQuests))
	assert.True(t, HasPrivilege(adept, PrivCreateHardQuests))
	assert.False(t, HasPrivilege(adept, PrivCreateEpicQuests))
	assert.True(t, HasPrivilege(grandmaster, PrivCreateEpicQuests))
	assert.False(t, HasPrivilege(grandmaster, "unknown_privilege"))
}
