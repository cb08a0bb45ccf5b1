package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/tilewise/scrabble-director/models"
	"github.com/tilewise/scrabble-director/pairings"
	"github.com/tilewise/scrabble-director/repositories"
)

// PairingService is the pairing-rule scheduler: once a round is fully scored
// it snapshots standings, resolves the rule covering the next round and runs
// the matching algorithm per division. The whole trigger is serialized per
// tournament so concurrent score submissions generate the next round exactly
// once.
type PairingService interface {
	// HandleRoundCompleted runs the automatic pairing pipeline after the
	// given round was fully scored. completedRound 0 is the kickoff: it pairs
	// the opening round when the tournament goes active. A nil match slice
	// with a nil error means the tournament is over.
	HandleRoundCompleted(ctx context.Context, tournamentID, completedRound int) ([]*models.Match, error)

	// PairRoundManually bypasses the rule lookup: Swiss against the previous
	// round's standings for an explicitly requested round.
	PairRoundManually(ctx context.Context, directorID, tournamentID, round int) ([]*models.Match, error)
}

type pairingService struct {
	db             *sql.DB
	tournamentRepo repositories.TournamentRepository
	playerRepo     repositories.PlayerRepository
	matchRepo      repositories.MatchRepository
	ruleRepo       repositories.PairingRuleRepository
	snapshotRepo   repositories.SnapshotRepository
	hub            *pairings.Hub
	logger         *slog.Logger

	locks sync.Map // tournament id -> *sync.Mutex
}

func NewPairingService(
	db *sql.DB,
	tournamentRepo repositories.TournamentRepository,
	playerRepo repositories.PlayerRepository,
	matchRepo repositories.MatchRepository,
	ruleRepo repositories.PairingRuleRepository,
	snapshotRepo repositories.SnapshotRepository,
	hub *pairings.Hub,
	logger *slog.Logger,
) PairingService {
	return &pairingService{
		db:             db,
		tournamentRepo: tournamentRepo,
		playerRepo:     playerRepo,
		matchRepo:      matchRepo,
		ruleRepo:       ruleRepo,
		snapshotRepo:   snapshotRepo,
		hub:            hub,
		logger:         logger,
	}
}

func (s *pairingService) lockTournament(tournamentID int) func() {
	v, _ := s.locks.LoadOrStore(tournamentID, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

func (s *pairingService) HandleRoundCompleted(ctx context.Context, tournamentID, completedRound int) ([]*models.Match, error) {
	unlock := s.lockTournament(tournamentID)
	defer unlock()

	t, players, matches, err := s.loadState(ctx, tournamentID)
	if err != nil {
		return nil, err
	}

	// Re-check under the lock: another submission may have triggered the
	// pairing already, or the round may in fact still be open.
	pending, err := s.matchRepo.CountPending(ctx, nil, tournamentID, completedRound)
	if err != nil {
		return nil, fmt.Errorf("failed to check round %d completion: %w", completedRound, err)
	}
	if pending > 0 {
		return nil, fmt.Errorf("%w: round %d of tournament %d", ErrRoundNotComplete, completedRound, tournamentID)
	}

	// Step 1: persist the standings snapshot for the completed round.
	remaining := t.TotalRounds - completedRound
	if remaining < 0 {
		remaining = 0
	}
	standings, err := pairings.ComputeStandings(
		pairings.FilterByesThrough(players, completedRound), matches, t.Settings, remaining)
	if err != nil {
		return nil, fmt.Errorf("failed to compute standings after round %d: %w", completedRound, err)
	}
	snapshot := &models.StandingsSnapshot{
		TournamentID: tournamentID,
		Round:        completedRound,
		Standings:    standings,
	}
	if err := s.snapshotRepo.Upsert(ctx, nil, snapshot); err != nil {
		return nil, fmt.Errorf("failed to persist standings snapshot for round %d: %w", completedRound, err)
	}
	s.hub.BroadcastToRoom(roomID(tournamentID), pairings.WebSocketMessage{
		Type:    pairings.EventStandingsUpdated,
		Payload: standings,
	})

	// Step 2: target round.
	target := completedRound + 1
	if target > t.TotalRounds {
		s.logger.Info("final round scored, completing tournament",
			slog.Int("tournament_id", tournamentID), slog.Int("round", completedRound))
		if err := s.tournamentRepo.UpdateStatus(ctx, tournamentID, models.StatusCompleted); err != nil {
			return nil, fmt.Errorf("failed to complete tournament %d: %w", tournamentID, err)
		}
		return nil, nil
	}

	// The target round may already exist: round robin pre-generates its
	// whole block in one call.
	existing := matchesForRound(matches, target)
	if len(existing) > 0 {
		s.logger.Info("target round already paired, skipping generation",
			slog.Int("tournament_id", tournamentID), slog.Int("round", target))
		return existing, nil
	}

	// Step 3: rule lookup. No rule covering the round is a deliberate
	// fail-safe: the director has to intervene by hand.
	rules, err := s.ruleRepo.ListByTournament(ctx, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to load pairing rules for tournament %d: %w", tournamentID, err)
	}
	var rule *models.PairingRule
	for _, r := range rules {
		if r.Covers(target) {
			rule = r
			break
		}
	}
	if rule == nil {
		return nil, fmt.Errorf("%w: round %d of tournament %d", ErrNoRuleForRound, target, tournamentID)
	}

	// Step 4: resolve the standings input.
	input, err := s.resolveStandingsSource(ctx, t, players, matches, rule.Source, completedRound, standings)
	if err != nil {
		return nil, err
	}

	// Step 5: generate per division.
	generated, err := s.generateRound(ctx, t, players, matches, rule, target, input)
	if err != nil {
		return nil, err
	}

	s.logger.Info("round paired automatically",
		slog.Int("tournament_id", tournamentID),
		slog.Int("round", target),
		slog.String("method", string(rule.Method)),
		slog.Int("matches", len(generated)))
	s.hub.BroadcastToRoom(roomID(tournamentID), pairings.WebSocketMessage{
		Type:    pairings.EventRoundPaired,
		Payload: generated,
	})
	return generated, nil
}

func (s *pairingService) PairRoundManually(ctx context.Context, directorID, tournamentID, round int) ([]*models.Match, error) {
	unlock := s.lockTournament(tournamentID)
	defer unlock()

	t, players, matches, err := s.loadState(ctx, tournamentID)
	if err != nil {
		return nil, err
	}
	if t.DirectorID != directorID {
		return nil, ErrForbiddenOperation
	}
	if round < 1 || round > t.TotalRounds {
		return nil, fmt.Errorf("%w: round %d, tournament has %d", ErrRoundOutOfRange, round, t.TotalRounds)
	}
	if existing := matchesForRound(matches, round); len(existing) > 0 {
		return nil, fmt.Errorf("%w: round %d already has %d matches", ErrValidationFailed, round, len(existing))
	}

	input, err := s.resolveStandingsSource(ctx, t, players, matches, models.SourcePreviousRound, round-1, nil)
	if err != nil {
		return nil, err
	}

	override := &models.PairingRule{
		TournamentID: tournamentID,
		StartRound:   round,
		EndRound:     round,
		Method:       models.MethodSwiss,
		Source:       models.SourcePreviousRound,
	}
	generated, err := s.generateRound(ctx, t, players, matches, override, round, input)
	if err != nil {
		return nil, err
	}

	s.logger.Warn("manual pairing override applied",
		slog.Int("tournament_id", tournamentID),
		slog.Int("round", round),
		slog.Int("director_id", directorID),
		slog.Int("matches", len(generated)))
	s.hub.BroadcastToRoom(roomID(tournamentID), pairings.WebSocketMessage{
		Type:    pairings.EventRoundPaired,
		Payload: generated,
	})
	return generated, nil
}

// resolveStandingsSource picks the standings fed to the algorithm.
// liveStandings, when non-nil, is the freshly computed view for refRound and
// saves a recompute on the previous_round path.
func (s *pairingService) resolveStandingsSource(
	ctx context.Context,
	t *models.Tournament,
	players []*models.Player,
	matches []*models.Match,
	source models.StandingsSource,
	refRound int,
	liveStandings []models.Standing,
) ([]models.Standing, error) {
	switch source {
	case models.SourceRound0:
		return pairings.InitialStandings(players), nil

	case models.SourceLagged:
		lagTarget := refRound - 1
		if lagTarget <= 0 {
			s.logger.Info("lagged standings source before round 2, using initial ratings",
				slog.Int("tournament_id", t.ID))
			return pairings.InitialStandings(players), nil
		}
		snapshot, err := s.snapshotRepo.GetByRound(ctx, t.ID, lagTarget)
		if err == nil {
			return snapshot.Standings, nil
		}
		if !errors.Is(err, repositories.ErrSnapshotNotFound) {
			return nil, fmt.Errorf("failed to load lagged snapshot (round %d): %w", lagTarget, err)
		}
		// Degraded path: the exact lagged view is gone, approximate it from
		// the live data. Loud on purpose so "exact" and "approximate" stay
		// distinguishable in the log.
		s.logger.Warn("lagged standings snapshot missing, falling back to live recompute",
			slog.Int("tournament_id", t.ID), slog.Int("wanted_round", lagTarget))
		return s.recomputeThrough(players, matches, t, lagTarget)

	case models.SourcePreviousRound:
		if liveStandings != nil {
			return liveStandings, nil
		}
		if refRound <= 0 {
			return pairings.InitialStandings(players), nil
		}
		snapshot, err := s.snapshotRepo.GetByRound(ctx, t.ID, refRound)
		if err == nil {
			return snapshot.Standings, nil
		}
		if !errors.Is(err, repositories.ErrSnapshotNotFound) {
			return nil, fmt.Errorf("failed to load snapshot (round %d): %w", refRound, err)
		}
		s.logger.Warn("previous-round snapshot missing, falling back to live recompute",
			slog.Int("tournament_id", t.ID), slog.Int("wanted_round", refRound))
		return s.recomputeThrough(players, matches, t, refRound)

	default:
		return nil, fmt.Errorf("%w: unknown standings source %q", ErrValidationFailed, source)
	}
}

// recomputeThrough approximates a historical view from matches up to and
// including the given round.
func (s *pairingService) recomputeThrough(
	players []*models.Player,
	matches []*models.Match,
	t *models.Tournament,
	round int,
) ([]models.Standing, error) {
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
		return nil, fmt.Errorf("failed to recompute standings through round %d: %w", round, err)
	}
	return standings, nil
}

// generateRound runs one algorithm per division and persists the batch in a
// single transaction. A division that cannot be paired is logged and skipped;
// its siblings still get their matches.
func (s *pairingService) generateRound(
	ctx context.Context,
	t *models.Tournament,
	players []*models.Player,
	matches []*models.Match,
	rule *models.PairingRule,
	round int,
	input []models.Standing,
) ([]*models.Match, error) {
	generator, ok := pairings.ForMethod(rule.Method)
	if !ok {
		return nil, fmt.Errorf("%w: unsupported pairing method %q", ErrValidationFailed, rule.Method)
	}

	byDivision := make(map[string][]*models.Player)
	for _, p := range players {
		if p.Status == models.PlayerActive {
			byDivision[p.Division] = append(byDivision[p.Division], p)
		}
	}
	if len(byDivision) == 0 {
		return nil, fmt.Errorf("%w: tournament %d has no active players", ErrNotEnoughPlayers, t.ID)
	}

	standingsByDivision := make(map[string][]models.Standing)
	for _, st := range input {
		standingsByDivision[st.Division] = append(standingsByDivision[st.Division], st)
	}

	var batch []*models.Match
	var byes []*models.Match
	for division, pool := range byDivision {
		if len(pool) < 2 {
			s.logger.Error("division skipped: not enough active players",
				slog.Int("tournament_id", t.ID),
				slog.String("division", division),
				slog.Int("players", len(pool)))
			continue
		}

		params := pairings.Params{
			TournamentID: t.ID,
			Division:     division,
			Round:        round,
			TotalRounds:  t.TotalRounds,
			Standings:    standingsByDivision[division],
			History:      matches,
			Settings:     t.Settings,
			Rule:         rule,
		}

		pool := pool
		// Round robin handles odd pools itself with a rotating bye seat.
		if rule.Method != models.MethodRoundRobin && len(pool)%2 != 0 {
			sitOut, rest := pairings.PickBye(pool, params.Standings, t.Settings.ByePlacement)
			bye := pairings.ByeMatch(params, round, sitOut)
			byes = append(byes, bye)
			batch = append(batch, bye)
			pool = rest
			s.logger.Info("bye assigned",
				slog.Int("tournament_id", t.ID),
				slog.String("division", division),
				slog.Int("round", round),
				slog.Int("player_id", sitOut.ID))
		}
		params.Players = pool

		divisionMatches, err := generator.Generate(ctx, params)
		if err != nil {
			s.logger.Error("division pairing failed, siblings continue",
				slog.Int("tournament_id", t.ID),
				slog.String("division", division),
				slog.Int("round", round),
				slog.Any("error", err))
			continue
		}
		for _, m := range divisionMatches {
			if m.IsBye() {
				byes = append(byes, m)
			}
		}
		batch = append(batch, divisionMatches...)
	}
	if len(batch) == 0 {
		return nil, fmt.Errorf("%w: no division could be paired for round %d", ErrNotEnoughPlayers, round)
	}
	pairings.AssignFirstMovers(batch, matches)

	if err := s.persistBatch(ctx, batch, byes); err != nil {
		return nil, err
	}
	return batch, nil
}

// persistBatch writes the generated matches and bye-round mutations in one
// transaction.
func (s *pairingService) persistBatch(ctx context.Context, batch, byes []*models.Match) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin pairing transaction: %w", err)
	}
	var txErr error
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		} else if txErr != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				s.logger.Error("rollback failed after pairing error",
					slog.Any("error", rbErr), slog.Any("cause", txErr))
			}
		}
	}()

	for _, m := range batch {
		if txErr = s.matchRepo.Create(ctx, tx, m); txErr != nil {
			return fmt.Errorf("failed to persist match for round %d: %w", m.Round, txErr)
		}
	}
	for _, bye := range byes {
		if txErr = s.playerRepo.AppendByeRound(ctx, tx, bye.PlayerAID, bye.Round); txErr != nil {
			return fmt.Errorf("failed to record bye round for player %d: %w", bye.PlayerAID, txErr)
		}
	}
	if txErr = tx.Commit(); txErr != nil {
		return fmt.Errorf("failed to commit pairing transaction: %w", txErr)
	}
	return nil
}

func (s *pairingService) loadState(ctx context.Context, tournamentID int) (*models.Tournament, []*models.Player, []*models.Match, error) {
	t, err := s.tournamentRepo.GetByID(ctx, tournamentID)
	if err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, nil, nil, ErrTournamentNotFound
		}
		return nil, nil, nil, fmt.Errorf("failed to load tournament %d: %w", tournamentID, err)
	}
	players, err := s.playerRepo.ListByTournament(ctx, tournamentID, nil)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to load players for tournament %d: %w", tournamentID, err)
	}
	matches, err := s.matchRepo.ListByTournament(ctx, tournamentID, nil, nil)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to load matches for tournament %d: %w", tournamentID, err)
	}
	return t, players, matches, nil
}

func matchesForRound(matches []*models.Match, round int) []*models.Match {
	var out []*models.Match
	for _, m := range matches {
		if m.Round == round {
			out = append(out, m)
		}
	}
	return out
}

func roomID(tournamentID int) string {
	return fmt.Sprintf("tournament_%d", tournamentID)
}
