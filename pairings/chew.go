package pairings

import (
	"context"

	"github.com/tilewise/scrabble-director/models"
)

type ChewGenerator struct{}

func NewChewGenerator() Generator {
	return &ChewGenerator{}
}

func (g *ChewGenerator) GetName() string {
	return "Chew"
}

// Generate splits the field into contenders and non-contenders. A contender's
// maximum theoretical final score (current score + remaining rounds × win
// weight) still reaches the division leader's current score. Contenders are
// paired king-of-the-hill to force separation at the top; everyone else is
// paired Swiss. An odd contender set floats its lowest-ranked member down; a
// clinched leader with no one left in reach simply joins the field below.
func (g *ChewGenerator) Generate(ctx context.Context, p Params) ([]*models.Match, error) {
	scores := scoreOf(p.Standings)
	sorted := sortByRank(p.Players, p.Standings)

	leaderScore := 0.0
	if len(sorted) > 0 {
		leaderScore = scores[sorted[0].ID]
	}
	roundsRemaining := p.TotalRounds - p.Round + 1
	if roundsRemaining < 0 {
		roundsRemaining = 0
	}

	var contenders, rest []*models.Player
	for _, pl := range sorted {
		maxReachable := scores[pl.ID] + float64(roundsRemaining)*p.Settings.WinPoints
		if maxReachable >= leaderScore {
			contenders = append(contenders, pl)
		} else {
			rest = append(rest, pl)
		}
	}

	if len(contenders)%2 != 0 {
		floated := contenders[len(contenders)-1]
		contenders = contenders[:len(contenders)-1]
		rest = append([]*models.Player{floated}, rest...)
	}

	matches := kothPairs(p, p.Round, contenders)

	if len(rest) > 0 {
		swiss := Params{
			TournamentID: p.TournamentID,
			Division:     p.Division,
			Round:        p.Round,
			TotalRounds:  p.TotalRounds,
			Players:      rest,
			Standings:    p.Standings,
			History:      p.History,
			Settings:     p.Settings,
			Rule:         p.Rule,
		}
		swissMatches, err := NewSwissGenerator().Generate(ctx, swiss)
		if err != nil {
			return nil, err
		}
		matches = append(matches, swissMatches...)
	}
	return matches, nil
}
