package pairings

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tilewise/scrabble-director/models"
)

func TestPickByeFewestByesFirst(t *testing.T) {
	p1 := testPlayer(1, 1900, "A")
	p2 := testPlayer(2, 1800, "A")
	p2.ByeRounds = []int{1}
	p3 := testPlayer(3, 1700, "A")
	players := []*models.Player{p1, p2, p3}
	standings := []models.Standing{
		{PlayerID: 1, Rank: 1},
		{PlayerID: 2, Rank: 2},
		{PlayerID: 3, Rank: 3},
	}

	chosen, rest := PickBye(players, standings, models.ByeLowestRanked)
	require.NotNil(t, chosen)
	// Players 1 and 3 are tied on zero byes; lowest-ranked placement picks
	// the bottom of the standings.
	assert.Equal(t, 3, chosen.ID)
	require.Len(t, rest, 2)
	for _, pl := range rest {
		assert.NotEqual(t, chosen.ID, pl.ID)
	}
}

func TestPickByeHighestRankedPlacement(t *testing.T) {
	players := []*models.Player{
		testPlayer(1, 1900, "A"),
		testPlayer(2, 1800, "A"),
		testPlayer(3, 1700, "A"),
	}
	standings := []models.Standing{
		{PlayerID: 1, Rank: 1},
		{PlayerID: 2, Rank: 2},
		{PlayerID: 3, Rank: 3},
	}

	chosen, _ := PickBye(players, standings, models.ByeHighestRanked)
	require.NotNil(t, chosen)
	assert.Equal(t, 1, chosen.ID)
}

func TestPickByeUnrankedPlayersSortLast(t *testing.T) {
	ranked := testPlayer(1, 1900, "A")
	late := testPlayer(2, 1200, "A") // joined after the standings were taken
	players := []*models.Player{ranked, late}
	standings := []models.Standing{{PlayerID: 1, Rank: 1}}

	chosen, _ := PickBye(players, standings, models.ByeLowestRanked)
	require.NotNil(t, chosen)
	assert.Equal(t, 2, chosen.ID)
}

func TestPickByeEmptyPool(t *testing.T) {
	chosen, rest := PickBye(nil, nil, models.ByeLowestRanked)
	assert.Nil(t, chosen)
	assert.Nil(t, rest)
}

func TestByeMatchIsCompletedWin(t *testing.T) {
	p := Params{TournamentID: 3, Division: "A", Settings: testSettings()}
	player := testPlayer(7, 1500, "A")

	m := ByeMatch(p, 4, player)
	assert.Equal(t, models.MatchCompleted, m.Status)
	assert.True(t, m.IsBye())
	assert.Equal(t, 7, m.PlayerAID)
	assert.Equal(t, 4, m.Round)
	require.NotNil(t, m.ScoreA)
	assert.Equal(t, testSettings().ByeSpread, *m.ScoreA)
	require.NotNil(t, m.ScoreB)
	assert.Equal(t, 0, *m.ScoreB)
}

func TestApplyForfeit(t *testing.T) {
	bID := 2
	m := &models.Match{PlayerAID: 1, PlayerBID: &bID, Status: models.MatchPending}
	settings := testSettings()

	ApplyForfeit(m, 1, settings)

	assert.Equal(t, models.MatchCompleted, m.Status)
	assert.True(t, m.Forfeit)
	require.NotNil(t, m.ForfeitedPlayerID)
	assert.Equal(t, 1, *m.ForfeitedPlayerID)
	require.NotNil(t, m.ScoreA)
	require.NotNil(t, m.ScoreB)
	assert.Equal(t, settings.ForfeitLossScore, *m.ScoreA)
	assert.Equal(t, settings.ForfeitWinScore, *m.ScoreB)
}

func TestFilterByesThroughDropsFutureByes(t *testing.T) {
	p := testPlayer(1, 1500, "A")
	p.ByeRounds = []int{2, 5, 9}

	filtered := FilterByesThrough([]*models.Player{p}, 5)
	require.Len(t, filtered, 1)
	assert.Equal(t, []int{2, 5}, filtered[0].ByeRounds)

	// The original is untouched.
	assert.Equal(t, []int{2, 5, 9}, p.ByeRounds)
}
