package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
	"github.com/tilewise/scrabble-director/models"
)

var (
	ErrPlayerNotFound          = errors.New("player not found")
	ErrPlayerTournamentInvalid = errors.New("player tournament conflict or invalid")
)

type PlayerRepository interface {
	Create(ctx context.Context, exec SQLExecutor, player *models.Player) error
	GetByID(ctx context.Context, id int) (*models.Player, error)
	ListByTournament(ctx context.Context, tournamentID int, status *models.PlayerStatus) ([]*models.Player, error)
	Update(ctx context.Context, player *models.Player) error
	UpdateStatus(ctx context.Context, id int, status models.PlayerStatus) error
	AppendByeRound(ctx context.Context, exec SQLExecutor, id int, round int) error
}

type postgresPlayerRepository struct {
	db *sql.DB
}

func NewPostgresPlayerRepository(db *sql.DB) PlayerRepository {
	return &postgresPlayerRepository{db: db}
}

func (r *postgresPlayerRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresPlayerRepository) Create(ctx context.Context, exec SQLExecutor, player *models.Player) error {
	executor := r.getExecutor(exec)
	query := `
		INSERT INTO players (tournament_id, name, rating, seed, bye_rounds, status, division, class, team)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at`

	byeRounds := player.ByeRounds
	if byeRounds == nil {
		byeRounds = []int{}
	}
	err := executor.QueryRowContext(ctx, query,
		player.TournamentID,
		player.Name,
		player.Rating,
		player.Seed,
		pq.Array(intsToInt64(byeRounds)),
		player.Status,
		player.Division,
		player.Class,
		player.Team,
	).Scan(&player.ID, &player.CreatedAt)

	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23503" {
			return ErrPlayerTournamentInvalid
		}
		return err
	}
	return nil
}

func (r *postgresPlayerRepository) GetByID(ctx context.Context, id int) (*models.Player, error) {
	query := `
		SELECT id, tournament_id, name, rating, seed, bye_rounds, status, division, class, team, created_at
		FROM players
		WHERE id = $1`

	player := &models.Player{}
	var byeRounds pq.Int64Array
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&player.ID,
		&player.TournamentID,
		&player.Name,
		&player.Rating,
		&player.Seed,
		&byeRounds,
		&player.Status,
		&player.Division,
		&player.Class,
		&player.Team,
		&player.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPlayerNotFound
		}
		return nil, fmt.Errorf("failed to scan player by id %d: %w", id, err)
	}
	player.ByeRounds = int64sToInts(byeRounds)
	return player, nil
}

func (r *postgresPlayerRepository) ListByTournament(ctx context.Context, tournamentID int, status *models.PlayerStatus) ([]*models.Player, error) {
	query := `
		SELECT id, tournament_id, name, rating, seed, bye_rounds, status, division, class, team, created_at
		FROM players
		WHERE tournament_id = $1`
	args := []interface{}{tournamentID}
	if status != nil {
		query += ` AND status = $2`
		args = append(args, *status)
	}
	query += ` ORDER BY rating DESC, id ASC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list players for tournament %d: %w", tournamentID, err)
	}
	defer rows.Close()

	var players []*models.Player
	for rows.Next() {
		player := &models.Player{}
		var byeRounds pq.Int64Array
		if err := rows.Scan(
			&player.ID,
			&player.TournamentID,
			&player.Name,
			&player.Rating,
			&player.Seed,
			&byeRounds,
			&player.Status,
			&player.Division,
			&player.Class,
			&player.Team,
			&player.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan player row: %w", err)
		}
		player.ByeRounds = int64sToInts(byeRounds)
		players = append(players, player)
	}
	return players, rows.Err()
}

func (r *postgresPlayerRepository) Update(ctx context.Context, player *models.Player) error {
	query := `
		UPDATE players
		SET name = $1, rating = $2, seed = $3, status = $4, division = $5, class = $6, team = $7
		WHERE id = $8`

	result, err := r.db.ExecContext(ctx, query,
		player.Name,
		player.Rating,
		player.Seed,
		player.Status,
		player.Division,
		player.Class,
		player.Team,
		player.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update player %d: %w", player.ID, err)
	}
	return checkAffectedRows(result, ErrPlayerNotFound)
}

func (r *postgresPlayerRepository) UpdateStatus(ctx context.Context, id int, status models.PlayerStatus) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE players SET status = $1 WHERE id = $2`, status, id)
	if err != nil {
		return fmt.Errorf("failed to update player %d status: %w", id, err)
	}
	return checkAffectedRows(result, ErrPlayerNotFound)
}

func (r *postgresPlayerRepository) AppendByeRound(ctx context.Context, exec SQLExecutor, id int, round int) error {
	executor := r.getExecutor(exec)
	result, err := executor.ExecContext(ctx,
		`UPDATE players SET bye_rounds = array_append(bye_rounds, $1) WHERE id = $2`, round, id)
	if err != nil {
		return fmt.Errorf("failed to append bye round for player %d: %w", id, err)
	}
	return checkAffectedRows(result, ErrPlayerNotFound)
}

func intsToInt64(values []int) []int64 {
	out := make([]int64, len(values))
	for i, v := range values {
		out[i] = int64(v)
	}
	return out
}

func int64sToInts(values pq.Int64Array) []int {
	out := make([]int, len(values))
	for i, v := range values {
		out[i] = int(v)
	}
	return out
}
