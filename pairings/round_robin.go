package pairings

import (
	"context"
	"fmt"
	"sort"

	"github.com/tilewise/scrabble-director/models"
)

type RoundRobinGenerator struct{}

func NewRoundRobinGenerator() Generator {
	return &RoundRobinGenerator{}
}

func (g *RoundRobinGenerator) GetName() string {
	return "RoundRobin"
}

// Generate emits the full schedule for the rule's round range in one call,
// using the circle method: seat one player fixed, rotate the rest one step per
// round. An odd pool gets a synthetic bye seat; whoever rotates onto it sits
// out that round with a completed bye match. When plays_per_opponent is above
// one, repeat cycles swap who is player A.
func (g *RoundRobinGenerator) Generate(ctx context.Context, p Params) ([]*models.Match, error) {
	if len(p.Players) < 2 {
		return nil, fmt.Errorf("round robin needs at least 2 players in division %s, got %d",
			p.Division, len(p.Players))
	}
	if p.Rule == nil {
		return nil, fmt.Errorf("round robin requires a pairing rule to bound its schedule")
	}

	seats := make([]*models.Player, len(p.Players))
	copy(seats, p.Players)
	sort.SliceStable(seats, func(i, j int) bool {
		if seats[i].Seed != seats[j].Seed {
			return seats[i].Seed < seats[j].Seed
		}
		return seats[i].Rating > seats[j].Rating
	})
	if len(seats)%2 != 0 {
		seats = append(seats, nil) // bye seat
	}

	n := len(seats)
	roundsPerCycle := n - 1
	totalRounds := p.Rule.EndRound - p.Rule.StartRound + 1

	matches := make([]*models.Match, 0, totalRounds*n/2)
	for r := 0; r < totalRounds; r++ {
		round := p.Rule.StartRound + r
		cycle := r / roundsPerCycle
		step := r % roundsPerCycle

		lineup := make([]*models.Player, 0, n)
		lineup = append(lineup, seats[0])
		for i := 1; i < n; i++ {
			idx := ((i - 1 + step) % roundsPerCycle) + 1
			lineup = append(lineup, seats[idx])
		}

		for i := 0; i < n/2; i++ {
			a, b := lineup[i], lineup[n-1-i]
			if a == nil {
				a, b = b, a
			}
			if b == nil {
				matches = append(matches, byeMatch(p, round, a))
				continue
			}
			if cycle%2 == 1 {
				a, b = b, a
			}
			matches = append(matches, newPendingMatch(p, round, a, b))
		}
	}
	return matches, nil
}
