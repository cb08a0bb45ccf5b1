package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/tilewise/scrabble-director/models"
	"github.com/tilewise/scrabble-director/pairings"
	"github.com/tilewise/scrabble-director/repositories"
)

// StandingsService computes ranked standings on demand and serves the
// per-round snapshot cache. Standings are never stored as source of truth;
// every live view is derived from the match list from scratch.
type StandingsService interface {
	CurrentStandings(ctx context.Context, tournamentID int) ([]models.Standing, error)
	SnapshotForRound(ctx context.Context, tournamentID, round int) (*models.StandingsSnapshot, error)
}

type standingsService struct {
	tournamentRepo repositories.TournamentRepository
	playerRepo     repositories.PlayerRepository
	matchRepo      repositories.MatchRepository
	snapshotRepo   repositories.SnapshotRepository
	logger         *slog.Logger
}

func NewStandingsService(
	tournamentRepo repositories.TournamentRepository,
	playerRepo repositories.PlayerRepository,
	matchRepo repositories.MatchRepository,
	snapshotRepo repositories.SnapshotRepository,
	logger *slog.Logger,
) StandingsService {
	return &standingsService{
		tournamentRepo: tournamentRepo,
		playerRepo:     playerRepo,
		matchRepo:      matchRepo,
		snapshotRepo:   snapshotRepo,
		logger:         logger,
	}
}

func (s *standingsService) CurrentStandings(ctx context.Context, tournamentID int) ([]models.Standing, error) {
	t, err := s.tournamentRepo.GetByID(ctx, tournamentID)
	if err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, ErrTournamentNotFound
		}
		return nil, fmt.Errorf("failed to load tournament %d: %w", tournamentID, err)
	}
	players, err := s.playerRepo.ListByTournament(ctx, tournamentID, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to load players for tournament %d: %w", tournamentID, err)
	}
	matches, err := s.matchRepo.ListByTournament(ctx, tournamentID, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to load matches for tournament %d: %w", tournamentID, err)
	}

	scored := scoredRounds(matches)
	remaining := t.TotalRounds - scored
	if remaining < 0 {
		remaining = 0
	}
	standings, err := pairings.ComputeStandings(
		pairings.FilterByesThrough(players, scored), matches, t.Settings, remaining)
	if err != nil {
		return nil, fmt.Errorf("failed to compute standings for tournament %d: %w", tournamentID, err)
	}
	return standings, nil
}

func (s *standingsService) SnapshotForRound(ctx context.Context, tournamentID, round int) (*models.StandingsSnapshot, error) {
	snapshot, err := s.snapshotRepo.GetByRound(ctx, tournamentID, round)
	if err != nil {
		if errors.Is(err, repositories.ErrSnapshotNotFound) {
			return nil, ErrSnapshotNotFound
		}
		return nil, fmt.Errorf("failed to load snapshot (tournament %d, round %d): %w",
			tournamentID, round, err)
	}
	return snapshot, nil
}

// scoredRounds counts rounds that have at least one match and no pending
// ones, i.e. rounds that are fully scored.
func scoredRounds(matches []*models.Match) int {
	pending := make(map[int]bool)
	seen := make(map[int]bool)
	for _, m := range matches {
		seen[m.Round] = true
		if m.Status == models.MatchPending {
			pending[m.Round] = true
		}
	}
	count := 0
	for round := range seen {
		if !pending[round] {
			count++
		}
	}
	return count
}
