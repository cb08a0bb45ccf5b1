package pairings

import (
	"context"
	"log"
	"sort"

	"github.com/tilewise/scrabble-director/models"
)

type SwissGenerator struct{}

func NewSwissGenerator() Generator {
	return &SwissGenerator{}
}

func (g *SwissGenerator) GetName() string {
	return "Swiss"
}

// Generate pairs one round by score groups. Groups are processed from the
// highest score down; an odd group leaves a floater who is prepended to the
// next lower group. Within a group the top half plays the bottom half, each
// top-half player taking the first bottom-half player they have not met yet,
// falling back to a repeat rather than leaving anyone unpaired.
func (g *SwissGenerator) Generate(ctx context.Context, p Params) ([]*models.Match, error) {
	groups := scoreGroups(p.Players, p.Standings)
	played := playedPairs(p.History)

	matches := make([]*models.Match, 0, len(p.Players)/2)
	var carried []*models.Player

	for _, group := range groups {
		pool := append(carried, group...)
		carried = nil

		paired, leftover := pairGroup(pool, played)
		for _, pr := range paired {
			matches = append(matches, newPendingMatch(p, p.Round, pr[0], pr[1]))
		}
		carried = leftover
	}

	if len(carried) > 0 {
		// Should not happen when the bye resolver ran first. Keep the
		// players visible in the log instead of dropping them silently.
		ids := make([]int, 0, len(carried))
		for _, pl := range carried {
			ids = append(ids, pl.ID)
		}
		log.Printf("swiss: division %s round %d left %d unpaired player(s) %v",
			p.Division, p.Round, len(carried), ids)
	}
	return matches, nil
}

// scoreGroups partitions the pool into score groups using the standings input,
// ordered from the highest score down, each group ordered by rank.
func scoreGroups(players []*models.Player, standings []models.Standing) [][]*models.Player {
	scores := scoreOf(standings)
	byScore := make(map[float64][]*models.Player)
	for _, pl := range players {
		byScore[scores[pl.ID]] = append(byScore[scores[pl.ID]], pl)
	}

	keys := make([]float64, 0, len(byScore))
	for s := range byScore {
		keys = append(keys, s)
	}
	sort.Sort(sort.Reverse(sort.Float64Slice(keys)))

	groups := make([][]*models.Player, 0, len(keys))
	for _, s := range keys {
		groups = append(groups, sortByRank(byScore[s], standings))
	}
	return groups
}

// pairGroup pairs a rank-ordered pool top half against bottom half. Returns
// the pairs and any leftover players (one, when the pool is odd).
func pairGroup(pool []*models.Player, played map[pairKey]int) ([][2]*models.Player, []*models.Player) {
	if len(pool) < 2 {
		return nil, pool
	}
	half := len(pool) / 2
	top := pool[:half]
	bottom := pool[half:]

	used := make([]bool, len(bottom))
	pairs := make([][2]*models.Player, 0, half)

	for _, t := range top {
		pick := -1
		for i, b := range bottom {
			if used[i] {
				continue
			}
			if played[makePairKey(t.ID, b.ID)] == 0 {
				pick = i
				break
			}
		}
		if pick == -1 {
			// No fresh opponent left in the group: accept a repeat.
			for i := range bottom {
				if !used[i] {
					pick = i
					break
				}
			}
		}
		if pick == -1 {
			continue
		}
		used[pick] = true
		pairs = append(pairs, [2]*models.Player{t, bottom[pick]})
	}

	var leftover []*models.Player
	for i, b := range bottom {
		if !used[i] {
			leftover = append(leftover, b)
		}
	}
	return pairs, leftover
}
