package pairings

import (
	"fmt"
	"sort"

	"github.com/tilewise/scrabble-director/models"
)

// playerTally is the working accumulator for one player during the match walk.
type playerTally struct {
	player    *models.Player
	score     float64
	wins      float64
	losses    float64
	spread    int
	opponents []int
	rating    float64 // live rating, adjusted game by game
	delta     float64
	lastGame  *string
}

// ComputeStandings derives ranked standings for every division from the
// completed matches. roundsRemaining drives clinch detection; pass zero for a
// finished tournament.
//
// The walk is strictly chronological (round, then id): the Elo delta uses the
// live, already-adjusted ratings of both players at each step, so the result
// is path-dependent on match order on purpose.
func ComputeStandings(
	players []*models.Player,
	matches []*models.Match,
	settings models.TournamentSettings,
	roundsRemaining int,
) ([]models.Standing, error) {
	tallies := make(map[int]*playerTally, len(players))
	for _, p := range players {
		tallies[p.ID] = &playerTally{
			player: p,
			// Byes always count as a win toward score and the win column.
			score:  float64(len(p.ByeRounds)) * settings.WinPoints,
			wins:   float64(len(p.ByeRounds)),
			rating: float64(p.Rating),
		}
	}

	completed := make([]*models.Match, 0, len(matches))
	for _, m := range matches {
		if m.Status == models.MatchCompleted && !m.IsBye() {
			completed = append(completed, m)
		}
	}
	sort.SliceStable(completed, func(i, j int) bool {
		if completed[i].Round != completed[j].Round {
			return completed[i].Round < completed[j].Round
		}
		return completed[i].ID < completed[j].ID
	})

	for _, m := range completed {
		a, okA := tallies[m.PlayerAID]
		b, okB := tallies[*m.PlayerBID]
		if !okA || !okB {
			return nil, fmt.Errorf("match %d references unknown player (a=%d, b=%d)",
				m.ID, m.PlayerAID, *m.PlayerBID)
		}
		if m.ScoreA == nil || m.ScoreB == nil {
			return nil, fmt.Errorf("completed match %d is missing a score", m.ID)
		}
		sa, sb := *m.ScoreA, *m.ScoreB

		var actualA float64
		switch {
		case sa > sb:
			actualA = 1
			a.score += settings.WinPoints
			b.score += settings.LossPoints
			a.wins++
			b.losses++
		case sa < sb:
			actualA = 0
			a.score += settings.LossPoints
			b.score += settings.WinPoints
			a.losses++
			b.wins++
		default:
			// A tie bumps both counters by half for each side, keeping the
			// W-L display symmetric at the cost of inflating games played.
			actualA = 0.5
			a.score += settings.DrawPoints
			b.score += settings.DrawPoints
			a.wins += 0.5
			a.losses += 0.5
			b.wins += 0.5
			b.losses += 0.5
		}

		a.spread += sa - sb
		b.spread += sb - sa
		a.opponents = append(a.opponents, b.player.ID)
		b.opponents = append(b.opponents, a.player.ID)

		expectedA := ExpectedScore(a.rating, b.rating)
		delta := RatingDelta(settings.KFactor, actualA, expectedA)
		a.rating += delta
		a.delta += delta
		b.rating -= delta
		b.delta -= delta

		a.lastGame = lastGameSummary(sa, sb, b.player.Name)
		b.lastGame = lastGameSummary(sb, sa, a.player.Name)
	}

	// Buchholz needs everyone's final score, hence the second pass. Opponent
	// scores are looked up globally so cross-division pairings (which should
	// not occur, but can in imported data) still resolve.
	type buchholz struct{ full, median float64 }
	tieBreaks := make(map[int]buchholz, len(tallies))
	for id, t := range tallies {
		oppScores := make([]float64, 0, len(t.opponents))
		for _, oppID := range t.opponents {
			if opp, ok := tallies[oppID]; ok {
				oppScores = append(oppScores, opp.score)
			}
		}
		full := 0.0
		for _, s := range oppScores {
			full += s
		}
		median := full
		if len(oppScores) >= 3 {
			sort.Float64s(oppScores)
			median = full - oppScores[0] - oppScores[len(oppScores)-1]
		}
		tieBreaks[id] = buchholz{full: full, median: median}
	}

	byDivision := make(map[string][]models.Standing)
	for _, p := range players {
		t := tallies[p.ID]
		tb := tieBreaks[p.ID]
		byDivision[p.Division] = append(byDivision[p.Division], models.Standing{
			PlayerID:       p.ID,
			Name:           p.Name,
			Division:       p.Division,
			Score:          t.score,
			Wins:           t.wins,
			Losses:         t.losses,
			Spread:         t.spread,
			Buchholz:       tb.full,
			MedianBuchholz: tb.median,
			LastGame:       t.lastGame,
			Rating:         p.Rating,
			RatingDelta:    t.delta,
			Team:           p.Team,
		})
	}

	divisions := make([]string, 0, len(byDivision))
	for name := range byDivision {
		divisions = append(divisions, name)
	}
	sort.Strings(divisions)

	out := make([]models.Standing, 0, len(players))
	for _, name := range divisions {
		group := byDivision[name]
		sortStandings(group, settings.TiebreakOrder)
		for i := range group {
			group[i].Rank = i + 1
		}
		markClinched(group, roundsRemaining)
		out = append(out, group...)
	}
	return out, nil
}

// InitialStandings produces the round-0 view: initial ratings, zero scores,
// ranked by rating within each division.
func InitialStandings(players []*models.Player) []models.Standing {
	byDivision := make(map[string][]models.Standing)
	for _, p := range players {
		byDivision[p.Division] = append(byDivision[p.Division], models.Standing{
			PlayerID: p.ID,
			Name:     p.Name,
			Division: p.Division,
			Rating:   p.Rating,
			Team:     p.Team,
		})
	}
	divisions := make([]string, 0, len(byDivision))
	for name := range byDivision {
		divisions = append(divisions, name)
	}
	sort.Strings(divisions)

	out := make([]models.Standing, 0, len(players))
	for _, name := range divisions {
		group := byDivision[name]
		sort.SliceStable(group, func(i, j int) bool {
			return group[i].Rating > group[j].Rating
		})
		for i := range group {
			group[i].Rank = i + 1
		}
		out = append(out, group...)
	}
	return out
}

// sortStandings orders one division: score descending, then the configured
// tie-break sequence, then raw rating descending as the final fallback.
func sortStandings(group []models.Standing, order []models.TiebreakKey) {
	sort.SliceStable(group, func(i, j int) bool {
		a, b := group[i], group[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		for _, key := range order {
			switch key {
			case models.TiebreakSpread:
				if a.Spread != b.Spread {
					return a.Spread > b.Spread
				}
			case models.TiebreakBuchholz:
				if a.Buchholz != b.Buchholz {
					return a.Buchholz > b.Buchholz
				}
			case models.TiebreakMedianBuchholz:
				if a.MedianBuchholz != b.MedianBuchholz {
					return a.MedianBuchholz > b.MedianBuchholz
				}
			case models.TiebreakRating:
				if a.Rating != b.Rating {
					return a.Rating > b.Rating
				}
			}
		}
		return a.Rating > b.Rating
	})
}

// markClinched flags the division leader once the runner-up can no longer
// reach the leader's win total. This deliberately checks only rank 1 against
// rank 2 on wins; tie-break exhaustion is not modeled.
func markClinched(group []models.Standing, roundsRemaining int) {
	if len(group) == 0 {
		return
	}
	if roundsRemaining <= 0 {
		group[0].Clinched = true
		return
	}
	if len(group) < 2 {
		return
	}
	reachable := group[1].Wins + float64(roundsRemaining)
	if reachable < group[0].Wins {
		group[0].Clinched = true
	}
}

func lastGameSummary(own, opp int, oppName string) *string {
	verdict := "T"
	if own > opp {
		verdict = "W"
	} else if own < opp {
		verdict = "L"
	}
	s := fmt.Sprintf("%s %d-%d vs %s", verdict, own, opp, oppName)
	return &s
}
