package services

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tilewise/scrabble-director/models"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func snapshotTestService(snapshotRepo *fakeSnapshotRepo) *pairingService {
	return &pairingService{
		snapshotRepo: snapshotRepo,
		logger:       discardLogger(),
	}
}

func testTournament(totalRounds int) *models.Tournament {
	return &models.Tournament{
		ID:          1,
		Name:        "Club Night",
		DirectorID:  1,
		TotalRounds: totalRounds,
		Status:      models.StatusActive,
		Settings:    models.DefaultTournamentSettings(),
	}
}

func rosterOf(n int) []*models.Player {
	players := make([]*models.Player, 0, n)
	for i := 1; i <= n; i++ {
		players = append(players, &models.Player{
			ID:           i,
			TournamentID: 1,
			Name:         "Player",
			Rating:       2000 - i*50,
			Status:       models.PlayerActive,
			Division:     "Open",
		})
	}
	return players
}

func TestResolveStandingsSourceRound0(t *testing.T) {
	svc := snapshotTestService(newFakeSnapshotRepo())
	players := rosterOf(4)

	standings, err := svc.resolveStandingsSource(
		context.Background(), testTournament(8), players, nil, models.SourceRound0, 3, nil)
	require.NoError(t, err)
	require.Len(t, standings, 4)

	// Round-0 standings carry no scores, only initial ratings.
	for _, s := range standings {
		assert.Equal(t, 0.0, s.Score)
	}
	assert.Equal(t, 1, standings[0].PlayerID)
}

func TestResolveStandingsSourcePreviousRoundPrefersLiveInput(t *testing.T) {
	svc := snapshotTestService(newFakeSnapshotRepo())
	live := []models.Standing{{PlayerID: 42, Rank: 1, Score: 3}}

	standings, err := svc.resolveStandingsSource(
		context.Background(), testTournament(8), rosterOf(4), nil, models.SourcePreviousRound, 3, live)
	require.NoError(t, err)
	assert.Equal(t, live, standings)
}

func TestResolveStandingsSourcePreviousRoundUsesSnapshot(t *testing.T) {
	snapshotRepo := newFakeSnapshotRepo()
	stored := &models.StandingsSnapshot{
		TournamentID: 1,
		Round:        3,
		Standings:    []models.Standing{{PlayerID: 7, Rank: 1, Score: 3}},
	}
	require.NoError(t, snapshotRepo.Upsert(context.Background(), nil, stored))
	svc := snapshotTestService(snapshotRepo)

	standings, err := svc.resolveStandingsSource(
		context.Background(), testTournament(8), rosterOf(4), nil, models.SourcePreviousRound, 3, nil)
	require.NoError(t, err)
	require.Len(t, standings, 1)
	assert.Equal(t, 7, standings[0].PlayerID)
}

func TestResolveStandingsSourcePreviousRoundAtKickoff(t *testing.T) {
	svc := snapshotTestService(newFakeSnapshotRepo())
	players := rosterOf(4)

	// Kickoff pairing of round 1: no round has been played, the previous-round
	// view degenerates to initial ratings.
	standings, err := svc.resolveStandingsSource(
		context.Background(), testTournament(8), players, nil, models.SourcePreviousRound, 0, nil)
	require.NoError(t, err)
	require.Len(t, standings, 4)
	for _, s := range standings {
		assert.Equal(t, 0.0, s.Score)
	}
}

func TestResolveStandingsSourceLaggedIsTwoRoundsBack(t *testing.T) {
	snapshotRepo := newFakeSnapshotRepo()
	for round := 1; round <= 3; round++ {
		require.NoError(t, snapshotRepo.Upsert(context.Background(), nil, &models.StandingsSnapshot{
			TournamentID: 1,
			Round:        round,
			Standings:    []models.Standing{{PlayerID: round, Rank: 1}},
		}))
	}
	svc := snapshotTestService(snapshotRepo)

	// Pairing round 4 after round 3 completed: lagged uses the round 2 view.
	standings, err := svc.resolveStandingsSource(
		context.Background(), testTournament(8), rosterOf(4), nil, models.SourceLagged, 3, nil)
	require.NoError(t, err)
	require.Len(t, standings, 1)
	assert.Equal(t, 2, standings[0].PlayerID)
}

func TestResolveStandingsSourceLaggedBeforeRoundTwo(t *testing.T) {
	svc := snapshotTestService(newFakeSnapshotRepo())
	players := rosterOf(4)

	standings, err := svc.resolveStandingsSource(
		context.Background(), testTournament(8), players, nil, models.SourceLagged, 1, nil)
	require.NoError(t, err)
	require.Len(t, standings, 4)
	for _, s := range standings {
		assert.Equal(t, 0.0, s.Score)
	}
}

func TestResolveStandingsSourceLaggedFallsBackToRecompute(t *testing.T) {
	svc := snapshotTestService(newFakeSnapshotRepo())
	players := rosterOf(2)
	scoreA, scoreB := 420, 380
	matches := []*models.Match{
		{
			ID: 1, Round: 1, PlayerAID: 1, PlayerBID: &players[1].ID,
			ScoreA: &scoreA, ScoreB: &scoreB, Status: models.MatchCompleted,
		},
		{
			ID: 2, Round: 2, PlayerAID: 1, PlayerBID: &players[1].ID,
			ScoreA: &scoreB, ScoreB: &scoreA, Status: models.MatchCompleted,
		},
	}

	// No snapshot for round 1 exists: the service recomputes standings from
	// the match history truncated to round 1.
	standings, err := svc.resolveStandingsSource(
		context.Background(), testTournament(8), players, matches, models.SourceLagged, 2, nil)
	require.NoError(t, err)
	require.Len(t, standings, 2)

	assert.Equal(t, 1, standings[0].PlayerID)
	assert.Equal(t, 1.0, standings[0].Score, "round 2 result must not leak into the round 1 view")
}

func TestResolveStandingsSourceUnknown(t *testing.T) {
	svc := snapshotTestService(newFakeSnapshotRepo())
	_, err := svc.resolveStandingsSource(
		context.Background(), testTournament(8), rosterOf(2), nil, "tarot", 1, nil)
	assert.ErrorIs(t, err, ErrValidationFailed)
}
