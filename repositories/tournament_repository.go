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
	ErrTournamentNotFound     = errors.New("tournament not found")
	ErrTournamentNameConflict = errors.New("tournament name conflict")
	ErrTournamentUserInvalid  = errors.New("tournament director conflict or invalid")
)

type TournamentRepository interface {
	Create(ctx context.Context, tournament *models.Tournament) error
	GetByID(ctx context.Context, id int) (*models.Tournament, error)
	List(ctx context.Context, status *models.TournamentStatus) ([]*models.Tournament, error)
	Update(ctx context.Context, tournament *models.Tournament) error
	UpdateStatus(ctx context.Context, id int, status models.TournamentStatus) error
	UpdateLogoKey(ctx context.Context, id int, logoKey *string) error
	Delete(ctx context.Context, id int) error
}

type postgresTournamentRepository struct {
	db *sql.DB
}

func NewPostgresTournamentRepository(db *sql.DB) TournamentRepository {
	return &postgresTournamentRepository{db: db}
}

func (r *postgresTournamentRepository) Create(ctx context.Context, t *models.Tournament) error {
	settingsJSON, err := t.SettingsJSON()
	if err != nil {
		return err
	}
	query := `
		INSERT INTO tournaments (name, description, director_id, total_rounds, status, start_date, settings)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at`

	err = r.db.QueryRowContext(ctx, query,
		t.Name,
		t.Description,
		t.DirectorID,
		t.TotalRounds,
		t.Status,
		t.StartDate,
		settingsJSON,
	).Scan(&t.ID, &t.CreatedAt)

	return r.handleTournamentError(err)
}

func (r *postgresTournamentRepository) GetByID(ctx context.Context, id int) (*models.Tournament, error) {
	query := `
		SELECT id, name, description, director_id, total_rounds, status, start_date, settings, logo_key, created_at
		FROM tournaments
		WHERE id = $1`

	t := &models.Tournament{}
	var settingsJSON sql.NullString
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&t.ID,
		&t.Name,
		&t.Description,
		&t.DirectorID,
		&t.TotalRounds,
		&t.Status,
		&t.StartDate,
		&settingsJSON,
		&t.LogoKey,
		&t.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTournamentNotFound
		}
		return nil, fmt.Errorf("failed to scan tournament by id %d: %w", id, err)
	}
	if err := t.ParseSettings(settingsJSON.String); err != nil {
		return nil, fmt.Errorf("tournament %d: %w", id, err)
	}
	return t, nil
}

func (r *postgresTournamentRepository) List(ctx context.Context, status *models.TournamentStatus) ([]*models.Tournament, error) {
	query := `
		SELECT id, name, description, director_id, total_rounds, status, start_date, settings, logo_key, created_at
		FROM tournaments`
	args := []interface{}{}
	if status != nil {
		query += ` WHERE status = $1`
		args = append(args, *status)
	}
	query += ` ORDER BY start_date DESC, id DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list tournaments: %w", err)
	}
	defer rows.Close()

	var tournaments []*models.Tournament
	for rows.Next() {
		t := &models.Tournament{}
		var settingsJSON sql.NullString
		if err := rows.Scan(
			&t.ID,
			&t.Name,
			&t.Description,
			&t.DirectorID,
			&t.TotalRounds,
			&t.Status,
			&t.StartDate,
			&settingsJSON,
			&t.LogoKey,
			&t.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan tournament row: %w", err)
		}
		if err := t.ParseSettings(settingsJSON.String); err != nil {
			return nil, fmt.Errorf("tournament %d: %w", t.ID, err)
		}
		tournaments = append(tournaments, t)
	}
	return tournaments, rows.Err()
}

func (r *postgresTournamentRepository) Update(ctx context.Context, t *models.Tournament) error {
	settingsJSON, err := t.SettingsJSON()
	if err != nil {
		return err
	}
	query := `
		UPDATE tournaments
		SET name = $1, description = $2, total_rounds = $3, status = $4, start_date = $5, settings = $6
		WHERE id = $7`

	result, err := r.db.ExecContext(ctx, query,
		t.Name,
		t.Description,
		t.TotalRounds,
		t.Status,
		t.StartDate,
		settingsJSON,
		t.ID,
	)
	if err != nil {
		return r.handleTournamentError(err)
	}
	return checkAffectedRows(result, ErrTournamentNotFound)
}

func (r *postgresTournamentRepository) UpdateStatus(ctx context.Context, id int, status models.TournamentStatus) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE tournaments SET status = $1 WHERE id = $2`, status, id)
	if err != nil {
		return fmt.Errorf("failed to update tournament %d status: %w", id, err)
	}
	return checkAffectedRows(result, ErrTournamentNotFound)
}

func (r *postgresTournamentRepository) UpdateLogoKey(ctx context.Context, id int, logoKey *string) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE tournaments SET logo_key = $1 WHERE id = $2`, logoKey, id)
	if err != nil {
		return fmt.Errorf("failed to update tournament %d logo: %w", id, err)
	}
	return checkAffectedRows(result, ErrTournamentNotFound)
}

func (r *postgresTournamentRepository) Delete(ctx context.Context, id int) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM tournaments WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete tournament %d: %w", id, err)
	}
	return checkAffectedRows(result, ErrTournamentNotFound)
}

func (r *postgresTournamentRepository) handleTournamentError(err error) error {
	if err == nil {
		return nil
	}
	if pqErr, ok := err.(*pq.Error); ok {
		switch pqErr.Code {
		case "23505": // unique_violation
			if pqErr.Constraint == "tournaments_name_key" {
				return ErrTournamentNameConflict
			}
		case "23503": // foreign_key_violation
			if pqErr.Constraint == "tournaments_director_id_fkey" {
				return ErrTournamentUserInvalid
			}
		}
	}
	return err
}
