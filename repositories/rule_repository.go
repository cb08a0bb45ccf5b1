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
	ErrPairingRuleNotFound          = errors.New("pairing rule not found")
	ErrPairingRuleTournamentInvalid = errors.New("pairing rule tournament conflict or invalid")
)

// PairingRuleRepository stores the per-tournament rule set. ReplaceAll is the
// only write path: the rule editor always submits the complete set.
type PairingRuleRepository interface {
	ListByTournament(ctx context.Context, tournamentID int) ([]*models.PairingRule, error)
	ReplaceAll(ctx context.Context, exec SQLExecutor, tournamentID int, rules []*models.PairingRule) error
}

type postgresPairingRuleRepository struct {
	db *sql.DB
}

func NewPostgresPairingRuleRepository(db *sql.DB) PairingRuleRepository {
	return &postgresPairingRuleRepository{db: db}
}

func (r *postgresPairingRuleRepository) ListByTournament(ctx context.Context, tournamentID int) ([]*models.PairingRule, error) {
	query := `
		SELECT id, tournament_id, start_round, end_round, method, source, allowed_repeats, quartile_scheme
		FROM pairing_rules
		WHERE tournament_id = $1
		ORDER BY start_round ASC`

	rows, err := r.db.QueryContext(ctx, query, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list pairing rules for tournament %d: %w", tournamentID, err)
	}
	defer rows.Close()

	var rules []*models.PairingRule
	for rows.Next() {
		rule := &models.PairingRule{}
		if err := rows.Scan(
			&rule.ID,
			&rule.TournamentID,
			&rule.StartRound,
			&rule.EndRound,
			&rule.Method,
			&rule.Source,
			&rule.AllowedRepeats,
			&rule.QuartileScheme,
		); err != nil {
			return nil, fmt.Errorf("failed to scan pairing rule row: %w", err)
		}
		rules = append(rules, rule)
	}
	return rules, rows.Err()
}

func (r *postgresPairingRuleRepository) ReplaceAll(ctx context.Context, exec SQLExecutor, tournamentID int, rules []*models.PairingRule) error {
	executor := SQLExecutor(r.db)
	if exec != nil {
		executor = exec
	}

	if _, err := executor.ExecContext(ctx,
		`DELETE FROM pairing_rules WHERE tournament_id = $1`, tournamentID); err != nil {
		return fmt.Errorf("failed to clear pairing rules for tournament %d: %w", tournamentID, err)
	}

	query := `
		INSERT INTO pairing_rules
			(tournament_id, start_round, end_round, method, source, allowed_repeats, quartile_scheme)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`

	for _, rule := range rules {
		err := executor.QueryRowContext(ctx, query,
			tournamentID,
			rule.StartRound,
			rule.EndRound,
			rule.Method,
			rule.Source,
			rule.AllowedRepeats,
			rule.QuartileScheme,
		).Scan(&rule.ID)
		if err != nil {
			if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23503" {
				return ErrPairingRuleTournamentInvalid
			}
			return fmt.Errorf("failed to insert pairing rule [%d..%d]: %w",
				rule.StartRound, rule.EndRound, err)
		}
		rule.TournamentID = tournamentID
	}
	return nil
}
