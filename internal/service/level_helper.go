package service

import (
	"math"

	"uniplay.tv/loyalty/internal/dto"
)

// Level is one tier of the loyalty ladder. The table is ordered by
// MinPoints, non-overlapping, and covers [0, ∞): the top tier has a nil
// MaxPoints.
type Level struct {
	Number    int
	Name      string
	MinPoints int
	MaxPoints *int
	Benefits  []string
}

// DefaultLevels is the reseller ladder. Levels derive from accumulated
// points on every read; they are never persisted.
var DefaultLevels = []Level{
	{Number: 1, Name: "Bronze", MinPoints: 0, MaxPoints: intPtr(999),
		Benefits: []string{"Acesso ao catálogo de recompensas"}},
	{Number: 2, Name: "Prata", MinPoints: 1000, MaxPoints: intPtr(2999),
		Benefits: []string{"5% de desconto em renovações", "Suporte prioritário"}},
	{Number: 3, Name: "Ouro", MinPoints: 3000, MaxPoints: intPtr(7999),
		Benefits: []string{"10% de desconto em renovações", "Suporte prioritário", "1 tela extra"}},
	{Number: 4, Name: "Platina", MinPoints: 8000, MaxPoints: intPtr(19999),
		Benefits: []string{"15% de desconto em renovações", "Suporte VIP", "2 telas extras"}},
	{Number: 5, Name: "Diamante", MinPoints: 20000, MaxPoints: nil,
		Benefits: []string{"20% de desconto em renovações", "Suporte VIP", "Telas ilimitadas", "Acesso antecipado a promoções"}},
}

// LevelFor returns the tier whose [MinPoints, MaxPoints] range contains
// points. The table covers zero upward, so there is always a match.
func LevelFor(points int, table []Level) Level {
	current := table[0]
	for _, level := range table {
		if points >= level.MinPoints {
			current = level
		}
	}
	return current
}

// NextLevelFor returns the tier after the one containing points, along with
// how many points are still needed to reach it. On the top tier it returns
// nil and zero.
func NextLevelFor(points int, table []Level) (*Level, int) {
	current := LevelFor(points, table)
	for i, level := range table {
		if level.Number == current.Number && i+1 < len(table) {
			next := table[i+1]
			return &next, next.MinPoints - points
		}
	}
	return nil, 0
}

// LevelStatusFor assembles the full status payload. The rank derives from
// lifetimeEarned so spending points never demotes a user; currentPoints is
// carried along for spendable context.
func LevelStatusFor(currentPoints, lifetimeEarned int, table []Level) dto.LevelStatus {
	level := LevelFor(lifetimeEarned, table)
	next, needed := NextLevelFor(lifetimeEarned, table)

	status := dto.LevelStatus{
		LevelNumber:    level.Number,
		Name:           level.Name,
		MinPoints:      level.MinPoints,
		MaxPoints:      level.MaxPoints,
		Benefits:       level.Benefits,
		CurrentPoints:  currentPoints,
		LifetimeEarned: lifetimeEarned,
		PointsNeeded:   needed,
		Progress:       100,
	}

	if next != nil {
		status.NextLevel = &next.Name
		// Progress through the current tier, not from zero.
		status.Progress = float64(lifetimeEarned-level.MinPoints) /
			float64(next.MinPoints-level.MinPoints) * 100
	}

	// Round progress to 2 decimal places
	status.Progress = math.Round(status.Progress*100) / 100

	return status
}

func intPtr(i int) *int {
	return &i
}
