package pairings

import (
	"sort"

	"github.com/tilewise/scrabble-director/models"
)

// PickBye selects who sits out of an odd-sized pool: the fewest prior byes
// first, ties broken by the configured placement (lowest- or highest-ranked
// first). Returns the chosen player and the remaining pool.
func PickBye(
	players []*models.Player,
	standings []models.Standing,
	placement models.ByePlacement,
) (*models.Player, []*models.Player) {
	if len(players) == 0 {
		return nil, nil
	}
	ranks := rankOf(standings)
	rankFor := func(pl *models.Player) int {
		if r, ok := ranks[pl.ID]; ok {
			return r
		}
		// Unranked players sort after the field, biased by rating so the
		// ordering stays deterministic.
		return len(standings) + 1 + (5000 - pl.Rating)
	}

	candidates := make([]*models.Player, len(players))
	copy(candidates, players)
	sort.SliceStable(candidates, func(i, j int) bool {
		bi, bj := len(candidates[i].ByeRounds), len(candidates[j].ByeRounds)
		if bi != bj {
			return bi < bj
		}
		if placement == models.ByeHighestRanked {
			return rankFor(candidates[i]) < rankFor(candidates[j])
		}
		return rankFor(candidates[i]) > rankFor(candidates[j])
	})

	chosen := candidates[0]
	rest := make([]*models.Player, 0, len(players)-1)
	for _, pl := range players {
		if pl.ID != chosen.ID {
			rest = append(rest, pl)
		}
	}
	return chosen, rest
}

// FilterByesThrough clones the players with bye rounds after the given round
// dropped. Round robin schedules byes for future rounds up front; those must
// not count toward standings until their round is actually reached.
func FilterByesThrough(players []*models.Player, round int) []*models.Player {
	out := make([]*models.Player, len(players))
	for i, p := range players {
		clone := *p
		clone.ByeRounds = nil
		for _, r := range p.ByeRounds {
			if r <= round {
				clone.ByeRounds = append(clone.ByeRounds, r)
			}
		}
		out[i] = &clone
	}
	return out
}

// byeMatch encodes a sat-out round: created already completed, scored as a
// win by the configured bye spread.
func byeMatch(p Params, round int, player *models.Player) *models.Match {
	scoreA := p.Settings.ByeSpread
	scoreB := 0
	return &models.Match{
		TournamentID: p.TournamentID,
		Division:     p.Division,
		Round:        round,
		PlayerAID:    player.ID,
		ScoreA:       &scoreA,
		ScoreB:       &scoreB,
		Status:       models.MatchCompleted,
	}
}

// ByeMatch is the exported form used by the scheduler once the bye recipient
// is known.
func ByeMatch(p Params, round int, player *models.Player) *models.Match {
	return byeMatch(p, round, player)
}

// ApplyForfeit marks a match decided off the board: completed, with the
// configured forfeit win/loss scores and the forfeiting side recorded.
func ApplyForfeit(m *models.Match, forfeitedPlayerID int, settings models.TournamentSettings) {
	win := settings.ForfeitWinScore
	loss := settings.ForfeitLossScore
	if m.PlayerAID == forfeitedPlayerID {
		m.ScoreA = &loss
		m.ScoreB = &win
	} else {
		m.ScoreA = &win
		m.ScoreB = &loss
	}
	m.Status = models.MatchCompleted
	m.Forfeit = true
	m.ForfeitedPlayerID = &forfeitedPlayerID
}
