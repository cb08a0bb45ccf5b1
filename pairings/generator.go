package pairings

import (
	"context"
	"sort"

	"github.com/tilewise/scrabble-director/models"
)

// Params carries everything a pairing algorithm may consume for one division.
// Generators must treat all of it as read-only: a generator is a pure function
// of the active players, the standings it was handed and the match history.
type Params struct {
	TournamentID int
	Division     string
	Round        int
	TotalRounds  int
	Players      []*models.Player  // active players of the division
	Standings    []models.Standing // standings input for this division, ranked
	History      []*models.Match   // all prior matches, for rematch checks
	Settings     models.TournamentSettings
	Rule         *models.PairingRule
}

// Generator produces the pending matches for a round. The round-robin
// generator is the one exception to the one-round contract: it emits the full
// schedule for its rule's round range in a single call.
type Generator interface {
	Generate(ctx context.Context, params Params) ([]*models.Match, error)

	GetName() string
}

// ForMethod returns the generator implementing the given pairing method.
func ForMethod(method models.PairingMethod) (Generator, bool) {
	switch method {
	case models.MethodSwiss:
		return NewSwissGenerator(), true
	case models.MethodKOTH:
		return NewKOTHGenerator(), true
	case models.MethodRoundRobin:
		return NewRoundRobinGenerator(), true
	case models.MethodQuartile:
		return NewQuartileGenerator(), true
	case models.MethodChew:
		return NewChewGenerator(), true
	default:
		return nil, false
	}
}

// rankOf maps player id to rank from the standings input. Players missing
// from the standings (late additions) sort after everyone else.
func rankOf(standings []models.Standing) map[int]int {
	ranks := make(map[int]int, len(standings))
	for _, s := range standings {
		ranks[s.PlayerID] = s.Rank
	}
	return ranks
}

// scoreOf maps player id to cumulative score from the standings input.
func scoreOf(standings []models.Standing) map[int]float64 {
	scores := make(map[int]float64, len(standings))
	for _, s := range standings {
		scores[s.PlayerID] = s.Score
	}
	return scores
}

// sortByRank orders players best rank first, using the standings input.
// Players without a rank fall back to rating descending.
func sortByRank(players []*models.Player, standings []models.Standing) []*models.Player {
	ranks := rankOf(standings)
	sorted := make([]*models.Player, len(players))
	copy(sorted, players)
	sort.SliceStable(sorted, func(i, j int) bool {
		ri, iOK := ranks[sorted[i].ID]
		rj, jOK := ranks[sorted[j].ID]
		switch {
		case iOK && jOK:
			return ri < rj
		case iOK:
			return true
		case jOK:
			return false
		default:
			return sorted[i].Rating > sorted[j].Rating
		}
	})
	return sorted
}

// pairKey is an unordered player-id pair.
type pairKey struct {
	lo, hi int
}

func makePairKey(a, b int) pairKey {
	if a > b {
		a, b = b, a
	}
	return pairKey{lo: a, hi: b}
}

// playedPairs collects every unordered pair that already met, for rematch
// avoidance.
func playedPairs(history []*models.Match) map[pairKey]int {
	pairs := make(map[pairKey]int)
	for _, m := range history {
		if m.PlayerBID == nil {
			continue
		}
		pairs[makePairKey(m.PlayerAID, *m.PlayerBID)]++
	}
	return pairs
}

// newPendingMatch builds the standard pending match produced by generators.
func newPendingMatch(p Params, round int, a, b *models.Player) *models.Match {
	bID := b.ID
	return &models.Match{
		TournamentID: p.TournamentID,
		Division:     p.Division,
		Round:        round,
		PlayerAID:    a.ID,
		PlayerBID:    &bID,
		Status:       models.MatchPending,
	}
}
