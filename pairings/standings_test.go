package pairings

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tilewise/scrabble-director/models"
)

func testSettings() models.TournamentSettings {
	return models.DefaultTournamentSettings()
}

func testPlayer(id, rating int, division string) *models.Player {
	return &models.Player{
		ID:       id,
		Name:     playerName(id),
		Rating:   rating,
		Seed:     id,
		Status:   models.PlayerActive,
		Division: division,
	}
}

func playerName(id int) string {
	return "Player " + string(rune('A'+id-1))
}

func completedMatch(id, round, aID, bID, scoreA, scoreB int) *models.Match {
	return &models.Match{
		ID:        id,
		Round:     round,
		PlayerAID: aID,
		PlayerBID: &bID,
		ScoreA:    &scoreA,
		ScoreB:    &scoreB,
		Status:    models.MatchCompleted,
	}
}

func standingFor(t *testing.T, standings []models.Standing, playerID int) models.Standing {
	t.Helper()
	for _, s := range standings {
		if s.PlayerID == playerID {
			return s
		}
	}
	t.Fatalf("no standing for player %d", playerID)
	return models.Standing{}
}

func TestComputeStandingsWinLossAndSpread(t *testing.T) {
	players := []*models.Player{
		testPlayer(1, 1800, "A"),
		testPlayer(2, 1700, "A"),
	}
	matches := []*models.Match{
		completedMatch(1, 1, 1, 2, 420, 380),
	}

	standings, err := ComputeStandings(players, matches, testSettings(), 3)
	require.NoError(t, err)
	require.Len(t, standings, 2)

	winner := standingFor(t, standings, 1)
	loser := standingFor(t, standings, 2)

	assert.Equal(t, 1.0, winner.Score)
	assert.Equal(t, 1.0, winner.Wins)
	assert.Equal(t, 0.0, winner.Losses)
	assert.Equal(t, 40, winner.Spread)
	assert.Equal(t, 1, winner.Rank)

	assert.Equal(t, 0.0, loser.Score)
	assert.Equal(t, 1.0, loser.Losses)
	assert.Equal(t, -40, loser.Spread)
	assert.Equal(t, 2, loser.Rank)

	require.NotNil(t, winner.LastGame)
	assert.Equal(t, "W 420-380 vs "+playerName(2), *winner.LastGame)
}

func TestComputeStandingsTieSplitsBothColumns(t *testing.T) {
	players := []*models.Player{
		testPlayer(1, 1500, "A"),
		testPlayer(2, 1500, "A"),
	}
	matches := []*models.Match{
		completedMatch(1, 1, 1, 2, 400, 400),
	}

	standings, err := ComputeStandings(players, matches, testSettings(), 0)
	require.NoError(t, err)

	for _, id := range []int{1, 2} {
		s := standingFor(t, standings, id)
		assert.Equal(t, 0.5, s.Score, "player %d score", id)
		assert.Equal(t, 0.5, s.Wins, "player %d wins", id)
		assert.Equal(t, 0.5, s.Losses, "player %d losses", id)
		assert.Equal(t, 0, s.Spread, "player %d spread", id)
	}
}

func TestComputeStandingsByesSeedScoreAndWins(t *testing.T) {
	withBye := testPlayer(1, 1500, "A")
	withBye.ByeRounds = []int{2}
	players := []*models.Player{withBye, testPlayer(2, 1500, "A")}

	standings, err := ComputeStandings(players, nil, testSettings(), 5)
	require.NoError(t, err)

	s := standingFor(t, standings, 1)
	assert.Equal(t, 1.0, s.Score)
	assert.Equal(t, 1.0, s.Wins)
	assert.Equal(t, 1, s.Rank)
}

func TestComputeStandingsEloIsSymmetricAndPathDependent(t *testing.T) {
	players := []*models.Player{
		testPlayer(1, 1500, "A"),
		testPlayer(2, 1500, "A"),
	}
	settings := testSettings() // K = 16
	matches := []*models.Match{
		completedMatch(1, 1, 1, 2, 450, 300),
	}

	standings, err := ComputeStandings(players, matches, settings, 0)
	require.NoError(t, err)

	a := standingFor(t, standings, 1)
	b := standingFor(t, standings, 2)

	// Equal ratings: expectation 0.5, so the winner gains exactly K/2.
	assert.InDelta(t, 8.0, a.RatingDelta, 1e-9)
	assert.InDelta(t, -8.0, b.RatingDelta, 1e-9)

	// A second game between the same two players uses the adjusted ratings,
	// so the second delta must be smaller than the first.
	matches = append(matches, completedMatch(2, 2, 1, 2, 450, 300))
	standings, err = ComputeStandings(players, matches, settings, 0)
	require.NoError(t, err)

	a = standingFor(t, standings, 1)
	assert.Less(t, a.RatingDelta, 16.0)
	assert.Greater(t, a.RatingDelta, 8.0)
	assert.InDelta(t, -a.RatingDelta, standingFor(t, standings, 2).RatingDelta, 1e-9)
}

func TestComputeStandingsBuchholz(t *testing.T) {
	players := []*models.Player{
		testPlayer(1, 1900, "A"),
		testPlayer(2, 1800, "A"),
		testPlayer(3, 1700, "A"),
		testPlayer(4, 1600, "A"),
	}
	matches := []*models.Match{
		completedMatch(1, 1, 1, 2, 400, 300),
		completedMatch(2, 1, 3, 4, 400, 300),
		completedMatch(3, 2, 1, 3, 400, 300),
		completedMatch(4, 2, 2, 4, 400, 300),
	}

	standings, err := ComputeStandings(players, matches, testSettings(), 0)
	require.NoError(t, err)

	// Player 1 beat players 2 (final score 1) and 3 (final score 1).
	assert.Equal(t, 2.0, standingFor(t, standings, 1).Buchholz)
	// Player 4 lost to players 3 (score 1) and 2 (score 1).
	assert.Equal(t, 2.0, standingFor(t, standings, 4).Buchholz)
}

func TestComputeStandingsTiebreakOrder(t *testing.T) {
	players := []*models.Player{
		testPlayer(1, 1500, "A"),
		testPlayer(2, 1500, "A"),
		testPlayer(3, 1500, "A"),
		testPlayer(4, 1500, "A"),
	}
	// Both 1 and 3 win, but 3 wins by a larger spread.
	matches := []*models.Match{
		completedMatch(1, 1, 1, 2, 400, 390),
		completedMatch(2, 1, 3, 4, 500, 300),
	}

	standings, err := ComputeStandings(players, matches, testSettings(), 0)
	require.NoError(t, err)

	assert.Equal(t, 1, standingFor(t, standings, 3).Rank)
	assert.Equal(t, 2, standingFor(t, standings, 1).Rank)
}

func TestComputeStandingsClinch(t *testing.T) {
	players := []*models.Player{
		testPlayer(1, 1500, "A"),
		testPlayer(2, 1500, "A"),
		testPlayer(3, 1500, "A"),
		testPlayer(4, 1500, "A"),
	}
	// Player 1 wins three times; player 3 once, player 2 once.
	matches := []*models.Match{
		completedMatch(1, 1, 1, 2, 400, 300),
		completedMatch(2, 1, 3, 4, 400, 300),
		completedMatch(3, 2, 1, 3, 400, 300),
		completedMatch(4, 2, 2, 4, 400, 300),
		completedMatch(5, 3, 1, 4, 400, 300),
		completedMatch(6, 3, 2, 3, 350, 400),
	}

	// One round left: runner-up on 2 wins could still reach 3.
	standings, err := ComputeStandings(players, matches, testSettings(), 1)
	require.NoError(t, err)
	assert.False(t, standingFor(t, standings, 1).Clinched)

	// Zero rounds left: the leader has clinched trivially.
	standings, err = ComputeStandings(players, matches, testSettings(), 0)
	require.NoError(t, err)
	assert.True(t, standingFor(t, standings, 1).Clinched)
}

func TestComputeStandingsRanksPerDivision(t *testing.T) {
	players := []*models.Player{
		testPlayer(1, 1900, "A"),
		testPlayer(2, 1800, "A"),
		testPlayer(3, 1200, "B"),
		testPlayer(4, 1100, "B"),
	}
	matches := []*models.Match{
		completedMatch(1, 1, 1, 2, 400, 300),
		completedMatch(2, 1, 3, 4, 400, 300),
	}

	standings, err := ComputeStandings(players, matches, testSettings(), 2)
	require.NoError(t, err)
	require.Len(t, standings, 4)

	seen := map[string][]int{}
	for _, s := range standings {
		seen[s.Division] = append(seen[s.Division], s.Rank)
	}
	assert.ElementsMatch(t, []int{1, 2}, seen["A"])
	assert.ElementsMatch(t, []int{1, 2}, seen["B"])
}

func TestComputeStandingsRejectsUnknownPlayer(t *testing.T) {
	players := []*models.Player{testPlayer(1, 1500, "A")}
	matches := []*models.Match{completedMatch(1, 1, 1, 99, 400, 300)}

	_, err := ComputeStandings(players, matches, testSettings(), 0)
	assert.Error(t, err)
}

func TestInitialStandingsRankByRating(t *testing.T) {
	players := []*models.Player{
		testPlayer(1, 1400, "A"),
		testPlayer(2, 1900, "A"),
		testPlayer(3, 1600, "A"),
	}

	standings := InitialStandings(players)
	require.Len(t, standings, 3)

	assert.Equal(t, 2, standings[0].PlayerID)
	assert.Equal(t, 1, standings[0].Rank)
	assert.Equal(t, 3, standings[1].PlayerID)
	assert.Equal(t, 1, standings[2].PlayerID)
	assert.Equal(t, 0.0, standings[0].Score)
}
