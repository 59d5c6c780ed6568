package engine

import "github.com/DoyleJ11/brawlbracket-backend/internal/bracket"

// TurnOrder lists match sides in the order they act.
type TurnOrder [2]int

// higherSeedFirst puts the side with the larger seed number first.
func higherSeedFirst(teams [2]*bracket.Team) TurnOrder {
	if teams[0].Seed > teams[1].Seed {
		return TurnOrder{0, 1}
	}
	return TurnOrder{1, 0}
}

// lowerSeedFirst puts the side with the smaller seed number first.
func lowerSeedFirst(teams [2]*bracket.Team) TurnOrder {
	o := higherSeedFirst(teams)
	return TurnOrder{o[1], o[0]}
}

// Alternate returns the side acting on the i-th turn.
func (o TurnOrder) Alternate(i int) int { return o[i%2] }
