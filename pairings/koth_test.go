package pairings

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tilewise/scrabble-director/models"
)

func TestKOTHPairsAdjacentRanks(t *testing.T) {
	players := []*models.Player{
		testPlayer(1, 1600, "A"),
		testPlayer(2, 1900, "A"),
		testPlayer(3, 1700, "A"),
		testPlayer(4, 1800, "A"),
	}
	standings := []models.Standing{
		{PlayerID: 2, Rank: 1},
		{PlayerID: 4, Rank: 2},
		{PlayerID: 3, Rank: 3},
		{PlayerID: 1, Rank: 4},
	}

	matches, err := NewKOTHGenerator().Generate(context.Background(), Params{
		Round:     4,
		Players:   players,
		Standings: standings,
		Settings:  testSettings(),
	})
	require.NoError(t, err)
	require.Len(t, matches, 2)

	pairs := pairSet(t, matches)
	assert.True(t, pairs[makePairKey(2, 4)], "1v2")
	assert.True(t, pairs[makePairKey(3, 1)], "3v4")
}

func TestKOTHIgnoresHistory(t *testing.T) {
	players := []*models.Player{
		testPlayer(1, 1900, "A"),
		testPlayer(2, 1800, "A"),
	}
	history := []*models.Match{
		completedMatch(1, 1, 1, 2, 400, 300),
	}

	matches, err := NewKOTHGenerator().Generate(context.Background(), Params{
		Round:     2,
		Players:   players,
		Standings: InitialStandings(players),
		History:   history,
		Settings:  testSettings(),
	})
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.True(t, pairSet(t, matches)[makePairKey(1, 2)])
}

func TestKOTHOddPoolLeavesLastUnpaired(t *testing.T) {
	players := []*models.Player{
		testPlayer(1, 1900, "A"),
		testPlayer(2, 1800, "A"),
		testPlayer(3, 1700, "A"),
	}

	matches, err := NewKOTHGenerator().Generate(context.Background(), Params{
		Round:     1,
		Players:   players,
		Standings: InitialStandings(players),
		Settings:  testSettings(),
	})
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.True(t, pairSet(t, matches)[makePairKey(1, 2)])
}
