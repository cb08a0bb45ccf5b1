package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/tilewise/scrabble-director/models"
)

var ErrSnapshotNotFound = errors.New("standings snapshot not found")

// SnapshotRepository caches one standings view per (tournament, round). The
// unique key makes Upsert idempotent when a round's scores are edited and the
// snapshot is rebuilt.
type SnapshotRepository interface {
	Upsert(ctx context.Context, exec SQLExecutor, snapshot *models.StandingsSnapshot) error
	GetByRound(ctx context.Context, tournamentID, round int) (*models.StandingsSnapshot, error)
}

type postgresSnapshotRepository struct {
	db *sql.DB
}

func NewPostgresSnapshotRepository(db *sql.DB) SnapshotRepository {
	return &postgresSnapshotRepository{db: db}
}

func (r *postgresSnapshotRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresSnapshotRepository) Upsert(ctx context.Context, exec SQLExecutor, snapshot *models.StandingsSnapshot) error {
	executor := r.getExecutor(exec)
	payload, err := json.Marshal(snapshot.Standings)
	if err != nil {
		return fmt.Errorf("failed to marshal standings snapshot: %w", err)
	}

	query := `
		INSERT INTO standings_snapshots (tournament_id, round, payload)
		VALUES ($1, $2, $3)
		ON CONFLICT (tournament_id, round)
		DO UPDATE SET payload = EXCLUDED.payload, created_at = NOW()
		RETURNING id, created_at`

	err = executor.QueryRowContext(ctx, query,
		snapshot.TournamentID,
		snapshot.Round,
		payload,
	).Scan(&snapshot.ID, &snapshot.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert standings snapshot (tournament %d, round %d): %w",
			snapshot.TournamentID, snapshot.Round, err)
	}
	return nil
}

func (r *postgresSnapshotRepository) GetByRound(ctx context.Context, tournamentID, round int) (*models.StandingsSnapshot, error) {
	query := `
		SELECT id, tournament_id, round, payload, created_at
		FROM standings_snapshots
		WHERE tournament_id = $1 AND round = $2`

	snapshot := &models.StandingsSnapshot{}
	var payload []byte
	err := r.db.QueryRowContext(ctx, query, tournamentID, round).Scan(
		&snapshot.ID,
		&snapshot.TournamentID,
		&snapshot.Round,
		&payload,
		&snapshot.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSnapshotNotFound
		}
		return nil, fmt.Errorf("failed to scan standings snapshot (tournament %d, round %d): %w",
			tournamentID, round, err)
	}
	if err := json.Unmarshal(payload, &snapshot.Standings); err != nil {
		return nil, fmt.Errorf("failed to parse standings snapshot payload: %w", err)
	}
	return snapshot, nil
}
