package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tilewise/scrabble-director/models"
)

func TestCreateTournamentDefaultsAndStatus(t *testing.T) {
	repo := newFakeTournamentRepo()
	svc := NewTournamentService(repo, newFakePlayerRepo(), newFakeMatchRepo(), nil, &fakeScheduler{})

	tournament := &models.Tournament{Name: "City Open", TotalRounds: 8}
	require.NoError(t, svc.Create(context.Background(), 5, tournament))

	assert.Equal(t, models.StatusSetup, tournament.Status)
	assert.Equal(t, 5, tournament.DirectorID)
	// Untouched settings fall back to the defaults.
	assert.Equal(t, models.DefaultTournamentSettings().KFactor, tournament.Settings.KFactor)
	assert.NotZero(t, tournament.ID)
}

func TestCreateTournamentValidation(t *testing.T) {
	svc := NewTournamentService(newFakeTournamentRepo(), newFakePlayerRepo(), newFakeMatchRepo(), nil, &fakeScheduler{})

	err := svc.Create(context.Background(), 5, &models.Tournament{TotalRounds: 8})
	assert.ErrorIs(t, err, ErrTournamentNameRequired)

	err = svc.Create(context.Background(), 5, &models.Tournament{Name: "X", TotalRounds: 0})
	assert.ErrorIs(t, err, ErrValidationFailed)
}

func TestSetStatusTransitions(t *testing.T) {
	ctx := context.Background()
	repo := newFakeTournamentRepo()
	svc := NewTournamentService(repo, newFakePlayerRepo(), newFakeMatchRepo(), nil, &fakeScheduler{})

	tournament := &models.Tournament{Name: "City Open", TotalRounds: 8}
	require.NoError(t, svc.Create(ctx, 5, tournament))

	require.NoError(t, svc.SetStatus(ctx, 5, tournament.ID, models.StatusActive))

	// Active cannot go back to setup.
	err := svc.SetStatus(ctx, 5, tournament.ID, models.StatusSetup)
	assert.ErrorIs(t, err, ErrValidationFailed)

	require.NoError(t, svc.SetStatus(ctx, 5, tournament.ID, models.StatusCompleted))

	// Completed is terminal.
	err = svc.SetStatus(ctx, 5, tournament.ID, models.StatusActive)
	assert.ErrorIs(t, err, ErrValidationFailed)
}

func TestSetStatusRequiresDirector(t *testing.T) {
	ctx := context.Background()
	svc := NewTournamentService(newFakeTournamentRepo(), newFakePlayerRepo(), newFakeMatchRepo(), nil, &fakeScheduler{})

	tournament := &models.Tournament{Name: "City Open", TotalRounds: 8}
	require.NoError(t, svc.Create(ctx, 5, tournament))

	err := svc.SetStatus(ctx, 99, tournament.ID, models.StatusActive)
	assert.ErrorIs(t, err, ErrForbiddenOperation)
}

func TestUpdateFreezesTotalRoundsOnceActive(t *testing.T) {
	ctx := context.Background()
	repo := newFakeTournamentRepo()
	svc := NewTournamentService(repo, newFakePlayerRepo(), newFakeMatchRepo(), nil, &fakeScheduler{})

	tournament := &models.Tournament{Name: "City Open", TotalRounds: 8}
	require.NoError(t, svc.Create(ctx, 5, tournament))
	require.NoError(t, svc.SetStatus(ctx, 5, tournament.ID, models.StatusActive))

	edited := *tournament
	edited.TotalRounds = 10
	err := svc.Update(ctx, 5, &edited)
	assert.ErrorIs(t, err, ErrTournamentNotEditable)

	edited.TotalRounds = 8
	edited.Name = "City Open Renamed"
	assert.NoError(t, svc.Update(ctx, 5, &edited))
}

func TestActivationKicksOffOpeningRound(t *testing.T) {
	ctx := context.Background()
	scheduler := &fakeScheduler{}
	svc := NewTournamentService(newFakeTournamentRepo(), newFakePlayerRepo(), newFakeMatchRepo(), nil, scheduler)

	tournament := &models.Tournament{Name: "City Open", TotalRounds: 8}
	require.NoError(t, svc.Create(ctx, 5, tournament))
	assert.Empty(t, scheduler.calls)

	require.NoError(t, svc.SetStatus(ctx, 5, tournament.ID, models.StatusActive))
	assert.Equal(t, []int{0}, scheduler.calls, "going active pairs round 1 via the kickoff")

	require.NoError(t, svc.SetStatus(ctx, 5, tournament.ID, models.StatusCompleted))
	assert.Equal(t, []int{0}, scheduler.calls, "only the setup to active move triggers pairing")
}

func TestActivationWithoutOpeningRuleStillActivates(t *testing.T) {
	ctx := context.Background()
	repo := newFakeTournamentRepo()
	scheduler := &fakeScheduler{err: ErrNoRuleForRound}
	svc := NewTournamentService(repo, newFakePlayerRepo(), newFakeMatchRepo(), nil, scheduler)

	tournament := &models.Tournament{Name: "City Open", TotalRounds: 8}
	require.NoError(t, svc.Create(ctx, 5, tournament))

	// No rule covering round 1 means the director pairs by hand; activation
	// itself must not fail.
	require.NoError(t, svc.SetStatus(ctx, 5, tournament.ID, models.StatusActive))

	stored, err := repo.GetByID(ctx, tournament.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusActive, stored.Status)
}

func TestActivationSurfacesPairingFailure(t *testing.T) {
	ctx := context.Background()
	repo := newFakeTournamentRepo()
	scheduler := &fakeScheduler{err: errors.New("division A could not be paired")}
	svc := NewTournamentService(repo, newFakePlayerRepo(), newFakeMatchRepo(), nil, scheduler)

	tournament := &models.Tournament{Name: "City Open", TotalRounds: 8}
	require.NoError(t, svc.Create(ctx, 5, tournament))

	err := svc.SetStatus(ctx, 5, tournament.ID, models.StatusActive)
	assert.ErrorIs(t, err, ErrActivationPairingFailed)

	// The status change committed before pairing ran and stays committed.
	stored, err := repo.GetByID(ctx, tournament.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusActive, stored.Status)
}
