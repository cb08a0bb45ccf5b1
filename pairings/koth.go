package pairings

import (
	"context"
	"log"

	"github.com/tilewise/scrabble-director/models"
)

type KOTHGenerator struct{}

func NewKOTHGenerator() Generator {
	return &KOTHGenerator{}
}

func (g *KOTHGenerator) GetName() string {
	return "KingOfTheHill"
}

// Generate pairs strictly by rank: 1v2, 3v4, and so on. No rematch avoidance.
func (g *KOTHGenerator) Generate(ctx context.Context, p Params) ([]*models.Match, error) {
	sorted := sortByRank(p.Players, p.Standings)
	matches := kothPairs(p, p.Round, sorted)
	if len(sorted)%2 != 0 {
		log.Printf("koth: division %s round %d has an odd pool of %d, player %d left unpaired",
			p.Division, p.Round, len(sorted), sorted[len(sorted)-1].ID)
	}
	return matches, nil
}

// kothPairs pairs an already rank-ordered pool adjacently; a trailing odd
// player is skipped and handled by the caller.
func kothPairs(p Params, round int, sorted []*models.Player) []*models.Match {
	matches := make([]*models.Match, 0, len(sorted)/2)
	for i := 0; i+1 < len(sorted); i += 2 {
		matches = append(matches, newPendingMatch(p, round, sorted[i], sorted[i+1]))
	}
	return matches
}
