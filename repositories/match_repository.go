package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/lib/pq"
	"github.com/tilewise/scrabble-director/models"
)

var (
	ErrMatchNotFound      = errors.New("match not found")
	ErrMatchPlayerInvalid = errors.New("match player conflict or invalid")
)

type MatchRepository interface {
	Create(ctx context.Context, exec SQLExecutor, match *models.Match) error
	GetByID(ctx context.Context, id int) (*models.Match, error)
	ListByTournament(ctx context.Context, tournamentID int, round *int, status *models.MatchStatus) ([]*models.Match, error)
	CountPending(ctx context.Context, exec SQLExecutor, tournamentID int, round int) (int, error)
	UpdateScore(ctx context.Context, match *models.Match) error
}

type postgresMatchRepository struct {
	db *sql.DB
}

func NewPostgresMatchRepository(db *sql.DB) MatchRepository {
	return &postgresMatchRepository{db: db}
}

func (r *postgresMatchRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresMatchRepository) Create(ctx context.Context, exec SQLExecutor, match *models.Match) error {
	executor := r.getExecutor(exec)
	query := `
		INSERT INTO matches
			(tournament_id, division, round, player_a_id, player_b_id, score_a, score_b,
			 status, forfeit, forfeited_player_id, first_mover_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id, created_at`

	err := executor.QueryRowContext(ctx, query,
		match.TournamentID,
		match.Division,
		match.Round,
		match.PlayerAID,
		match.PlayerBID,
		match.ScoreA,
		match.ScoreB,
		match.Status,
		match.Forfeit,
		match.ForfeitedPlayerID,
		match.FirstMoverID,
	).Scan(&match.ID, &match.CreatedAt)

	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23503" {
			return ErrMatchPlayerInvalid
		}
		return err
	}
	return nil
}

func (r *postgresMatchRepository) GetByID(ctx context.Context, id int) (*models.Match, error) {
	query := selectMatchColumns + ` WHERE id = $1`

	match := &models.Match{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(matchScanDest(match)...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMatchNotFound
		}
		return nil, fmt.Errorf("failed to scan match by id %d: %w", id, err)
	}
	return match, nil
}

func (r *postgresMatchRepository) ListByTournament(ctx context.Context, tournamentID int, round *int, status *models.MatchStatus) ([]*models.Match, error) {
	var queryBuilder strings.Builder
	queryBuilder.WriteString(selectMatchColumns)
	queryBuilder.WriteString(` WHERE tournament_id = $1`)

	args := []interface{}{tournamentID}
	placeholderIndex := 2

	if round != nil {
		queryBuilder.WriteString(" AND round = $")
		queryBuilder.WriteString(strconv.Itoa(placeholderIndex))
		args = append(args, *round)
		placeholderIndex++
	}
	if status != nil {
		queryBuilder.WriteString(" AND status = $")
		queryBuilder.WriteString(strconv.Itoa(placeholderIndex))
		args = append(args, *status)
		placeholderIndex++
	}
	queryBuilder.WriteString(" ORDER BY round ASC, id ASC")

	rows, err := r.db.QueryContext(ctx, queryBuilder.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list matches for tournament %d: %w", tournamentID, err)
	}
	defer rows.Close()

	var matches []*models.Match
	for rows.Next() {
		match := &models.Match{}
		if err := rows.Scan(matchScanDest(match)...); err != nil {
			return nil, fmt.Errorf("failed to scan match row: %w", err)
		}
		matches = append(matches, match)
	}
	return matches, rows.Err()
}

func (r *postgresMatchRepository) CountPending(ctx context.Context, exec SQLExecutor, tournamentID int, round int) (int, error) {
	executor := r.getExecutor(exec)
	var count int
	err := executor.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM matches WHERE tournament_id = $1 AND round = $2 AND status = $3`,
		tournamentID, round, models.MatchPending,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count pending matches for tournament %d round %d: %w",
			tournamentID, round, err)
	}
	return count, nil
}

func (r *postgresMatchRepository) UpdateScore(ctx context.Context, match *models.Match) error {
	query := `
		UPDATE matches
		SET score_a = $1, score_b = $2, status = $3, forfeit = $4, forfeited_player_id = $5
		WHERE id = $6`

	result, err := r.db.ExecContext(ctx, query,
		match.ScoreA,
		match.ScoreB,
		match.Status,
		match.Forfeit,
		match.ForfeitedPlayerID,
		match.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update match %d score: %w", match.ID, err)
	}
	return checkAffectedRows(result, ErrMatchNotFound)
}

const selectMatchColumns = `
	SELECT id, tournament_id, division, round, player_a_id, player_b_id, score_a, score_b,
	       status, forfeit, forfeited_player_id, first_mover_id, created_at
	FROM matches`

func matchScanDest(m *models.Match) []interface{} {
	return []interface{}{
		&m.ID,
		&m.TournamentID,
		&m.Division,
		&m.Round,
		&m.PlayerAID,
		&m.PlayerBID,
		&m.ScoreA,
		&m.ScoreB,
		&m.Status,
		&m.Forfeit,
		&m.ForfeitedPlayerID,
		&m.FirstMoverID,
		&m.CreatedAt,
	}
}
