package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLevelFor(t *testing.T) {
	tests := []struct {
		points   int
		expected string
	}{
		{0, "Bronze"},
		{999, "Bronze"},
		{1000, "Prata"},
		{2999, "Prata"},
		{3000, "Ouro"},
		{7999, "Ouro"},
		{8000, "Platina"},
		{19999, "Platina"},
		{20000, "Diamante"},
		{1000000, "Diamante"},
	}

	for _, tt := range tests {
		level := LevelFor(tt.points, DefaultLevels)
		assert.Equal(t, tt.expected, level.Name, "points=%d", tt.points)
	}
}

func TestNextLevelFor(t *testing.T) {
	next, needed := NextLevelFor(0, DefaultLevels)
	require.NotNil(t, next)
	assert.Equal(t, "Prata", next.Name)
	assert.Equal(t, 1000, needed)

	next, needed = NextLevelFor(2500, DefaultLevels)
	require.NotNil(t, next)
	assert.Equal(t, "Ouro", next.Name)
	assert.Equal(t, 500, needed)

	// Top tier has no next level.
	next, needed = NextLevelFor(20000, DefaultLevels)
	assert.Nil(t, next)
	assert.Zero(t, needed)
}

func TestLevelStatusFor(t *testing.T) {
	// Rank comes from lifetime earnings, not the spendable balance.
	status := LevelStatusFor(200, 1000, DefaultLevels)
	assert.Equal(t, 2, status.LevelNumber)
	assert.Equal(t, "Prata", status.Name)
	assert.Equal(t, 200, status.CurrentPoints)
	assert.Equal(t, 1000, status.LifetimeEarned)
	require.NotNil(t, status.NextLevel)
	assert.Equal(t, "Ouro", *status.NextLevel)
	assert.Equal(t, 2000, status.PointsNeeded)
	// Freshly promoted: no progress through Prata yet.
	assert.Zero(t, status.Progress)
	assert.NotEmpty(t, status.Benefits)
}

func TestLevelStatusForProgressIsTierRelative(t *testing.T) {
	// Halfway between Prata (1000) and Ouro (3000).
	status := LevelStatusFor(2000, 2000, DefaultLevels)
	assert.Equal(t, "Prata", status.Name)
	assert.Equal(t, float64(50), status.Progress)

	status = LevelStatusFor(2500, 2500, DefaultLevels)
	assert.Equal(t, float64(75), status.Progress)
}

func TestLevelStatusForTopTier(t *testing.T) {
	status := LevelStatusFor(5000, 25000, DefaultLevels)
	assert.Equal(t, "Diamante", status.Name)
	assert.Nil(t, status.NextLevel)
	assert.Nil(t, status.MaxPoints)
	assert.Zero(t, status.PointsNeeded)
	assert.Equal(t, float64(100), status.Progress)
}

func TestLevelStatusForSpendingNeverDemotes(t *testing.T) {
	before := LevelStatusFor(3200, 3200, DefaultLevels)
	after := LevelStatusFor(0, 3200, DefaultLevels)
	assert.Equal(t, before.Name, after.Name)
	assert.Equal(t, "Ouro", after.Name)
}
