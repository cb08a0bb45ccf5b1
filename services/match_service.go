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

type SubmitScoreInput struct {
	ScoreA int `json:"score_a"`
	ScoreB int `json:"score_b"`
}

// MatchService handles score submission and edits. Scoring and the automatic
// next-round pairing are two separate steps: once the score write commits it
// is never rolled back, and a pairing failure afterwards surfaces as
// ErrScoresSavedPairingFailed.
type MatchService interface {
	ListByTournament(ctx context.Context, tournamentID int, round *int) ([]*models.Match, error)
	SubmitScore(ctx context.Context, directorID, matchID int, input SubmitScoreInput) (*models.Match, error)
	EditScore(ctx context.Context, directorID, matchID int, input SubmitScoreInput) (*models.Match, error)
	RecordForfeit(ctx context.Context, directorID, matchID, forfeitedPlayerID int) (*models.Match, error)
}

type matchService struct {
	matchRepo      repositories.MatchRepository
	tournamentRepo repositories.TournamentRepository
	playerRepo     repositories.PlayerRepository
	snapshotRepo   repositories.SnapshotRepository
	pairingService PairingService
	hub            *pairings.Hub
	logger         *slog.Logger
}

func NewMatchService(
	matchRepo repositories.MatchRepository,
	tournamentRepo repositories.TournamentRepository,
	playerRepo repositories.PlayerRepository,
	snapshotRepo repositories.SnapshotRepository,
	pairingService PairingService,
	hub *pairings.Hub,
	logger *slog.Logger,
) MatchService {
	return &matchService{
		matchRepo:      matchRepo,
		tournamentRepo: tournamentRepo,
		playerRepo:     playerRepo,
		snapshotRepo:   snapshotRepo,
		pairingService: pairingService,
		hub:            hub,
		logger:         logger,
	}
}

func (s *matchService) ListByTournament(ctx context.Context, tournamentID int, round *int) ([]*models.Match, error) {
	matches, err := s.matchRepo.ListByTournament(ctx, tournamentID, round, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list matches for tournament %d: %w", tournamentID, err)
	}
	if matches == nil {
		matches = []*models.Match{}
	}
	return matches, nil
}

func (s *matchService) SubmitScore(ctx context.Context, directorID, matchID int, input SubmitScoreInput) (*models.Match, error) {
	match, _, err := s.loadMatchForDirector(ctx, directorID, matchID)
	if err != nil {
		return nil, err
	}
	if match.Status == models.MatchCompleted {
		return nil, ErrMatchAlreadyScored
	}
	if match.IsBye() {
		return nil, fmt.Errorf("%w: match %d is a bye", ErrValidationFailed, matchID)
	}

	scoreA, scoreB := input.ScoreA, input.ScoreB
	match.ScoreA = &scoreA
	match.ScoreB = &scoreB
	match.Status = models.MatchCompleted

	if err := s.matchRepo.UpdateScore(ctx, match); err != nil {
		return nil, fmt.Errorf("failed to save score for match %d: %w", matchID, err)
	}
	s.hub.BroadcastToRoom(roomID(match.TournamentID), pairings.WebSocketMessage{
		Type:    pairings.EventMatchUpdated,
		Payload: match,
	})

	if err := s.maybeAdvanceRound(ctx, match); err != nil {
		return match, err
	}
	return match, nil
}

func (s *matchService) EditScore(ctx context.Context, directorID, matchID int, input SubmitScoreInput) (*models.Match, error) {
	match, t, err := s.loadMatchForDirector(ctx, directorID, matchID)
	if err != nil {
		return nil, err
	}
	if match.Status != models.MatchCompleted {
		return nil, fmt.Errorf("%w: match %d is not scored yet", ErrValidationFailed, matchID)
	}
	if match.IsBye() {
		return nil, fmt.Errorf("%w: match %d is a bye", ErrValidationFailed, matchID)
	}

	scoreA, scoreB := input.ScoreA, input.ScoreB
	match.ScoreA = &scoreA
	match.ScoreB = &scoreB

	if err := s.matchRepo.UpdateScore(ctx, match); err != nil {
		return nil, fmt.Errorf("failed to edit score for match %d: %w", matchID, err)
	}

	// The round's snapshot is a cache; rebuild it so later lagged lookups
	// see the corrected result.
	if err := s.rebuildSnapshot(ctx, t, match.Round); err != nil {
		s.logger.Error("failed to rebuild snapshot after score edit",
			slog.Int("tournament_id", t.ID), slog.Int("round", match.Round), slog.Any("error", err))
	}
	s.hub.BroadcastToRoom(roomID(match.TournamentID), pairings.WebSocketMessage{
		Type:    pairings.EventMatchUpdated,
		Payload: match,
	})
	return match, nil
}

func (s *matchService) RecordForfeit(ctx context.Context, directorID, matchID, forfeitedPlayerID int) (*models.Match, error) {
	match, t, err := s.loadMatchForDirector(ctx, directorID, matchID)
	if err != nil {
		return nil, err
	}
	if match.Status == models.MatchCompleted {
		return nil, ErrMatchAlreadyScored
	}
	if !match.Involves(forfeitedPlayerID) {
		return nil, ErrForfeitPlayerNotInMatch
	}

	pairings.ApplyForfeit(match, forfeitedPlayerID, t.Settings)
	if err := s.matchRepo.UpdateScore(ctx, match); err != nil {
		return nil, fmt.Errorf("failed to record forfeit for match %d: %w", matchID, err)
	}
	s.logger.Info("forfeit recorded",
		slog.Int("tournament_id", match.TournamentID),
		slog.Int("match_id", matchID),
		slog.Int("forfeited_player_id", forfeitedPlayerID))
	s.hub.BroadcastToRoom(roomID(match.TournamentID), pairings.WebSocketMessage{
		Type:    pairings.EventMatchUpdated,
		Payload: match,
	})

	if err := s.maybeAdvanceRound(ctx, match); err != nil {
		return match, err
	}
	return match, nil
}

// maybeAdvanceRound triggers the scheduler when the match's round has no
// pending games left. The returned error wraps ErrScoresSavedPairingFailed:
// the score write above already committed and stays committed.
func (s *matchService) maybeAdvanceRound(ctx context.Context, match *models.Match) error {
	pending, err := s.matchRepo.CountPending(ctx, nil, match.TournamentID, match.Round)
	if err != nil {
		return fmt.Errorf("%w: could not check round completion: %v", ErrScoresSavedPairingFailed, err)
	}
	if pending > 0 {
		return nil
	}

	if _, err := s.pairingService.HandleRoundCompleted(ctx, match.TournamentID, match.Round); err != nil {
		// A concurrent submission may have won the race and paired already.
		if errors.Is(err, ErrRoundNotComplete) {
			return nil
		}
		s.logger.Error("automatic pairing failed after score submission",
			slog.Int("tournament_id", match.TournamentID),
			slog.Int("round", match.Round),
			slog.Any("error", err))
		return fmt.Errorf("%w: %v", ErrScoresSavedPairingFailed, err)
	}
	return nil
}

func (s *matchService) rebuildSnapshot(ctx context.Context, t *models.Tournament, round int) error {
	pending, err := s.matchRepo.CountPending(ctx, nil, t.ID, round)
	if err != nil {
		return err
	}
	if pending > 0 {
		return nil // round reopened; no snapshot to maintain
	}
	players, err := s.playerRepo.ListByTournament(ctx, t.ID, nil)
	if err != nil {
		return err
	}
	matches, err := s.matchRepo.ListByTournament(ctx, t.ID, nil, nil)
	if err != nil {
		return err
	}
	truncated := make([]*models.Match, 0, len(matches))
	for _, m := range matches {
		if m.Round <= round {
			truncated = append(truncated, m)
		}
	}
	remaining := t.TotalRounds - round
	if remaining < 0 {
		remaining = 0
	}
	standings, err := pairings.ComputeStandings(
		pairings.FilterByesThrough(players, round), truncated, t.Settings, remaining)
	if err != nil {
		return err
	}
	return s.snapshotRepo.Upsert(ctx, nil, &models.StandingsSnapshot{
		TournamentID: t.ID,
		Round:        round,
		Standings:    standings,
	})
}

func (s *matchService) loadMatchForDirector(ctx context.Context, directorID, matchID int) (*models.Match, *models.Tournament, error) {
	match, err := s.matchRepo.GetByID(ctx, matchID)
	if err != nil {
		if errors.Is(err, repositories.ErrMatchNotFound) {
			return nil, nil, ErrMatchNotFound
		}
		return nil, nil, fmt.Errorf("failed to load match %d: %w", matchID, err)
	}
	t, err := s.tournamentRepo.GetByID(ctx, match.TournamentID)
	if err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, nil, ErrTournamentNotFound
		}
		return nil, nil, fmt.Errorf("failed to load tournament %d: %w", match.TournamentID, err)
	}
	if t.DirectorID != directorID {
		return nil, nil, ErrForbiddenOperation
	}
	if t.Status != models.StatusActive {
		return nil, nil, ErrTournamentNotActive
	}
	return match, t, nil
}
