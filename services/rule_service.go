package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"

	"github.com/tilewise/scrabble-director/models"
	"github.com/tilewise/scrabble-director/repositories"
)

// RuleService owns the pairing-rule set of a tournament. Writes are
// replace-all: the full set is validated and swapped atomically, so a bad
// submission never leaves a half-edited schedule behind.
type RuleService interface {
	ListRules(ctx context.Context, tournamentID int) ([]*models.PairingRule, error)
	ReplaceRules(ctx context.Context, directorID, tournamentID int, rules []*models.PairingRule) ([]*models.PairingRule, error)
}

type ruleService struct {
	db             *sql.DB
	ruleRepo       repositories.PairingRuleRepository
	tournamentRepo repositories.TournamentRepository
}

func NewRuleService(
	db *sql.DB,
	ruleRepo repositories.PairingRuleRepository,
	tournamentRepo repositories.TournamentRepository,
) RuleService {
	return &ruleService{
		db:             db,
		ruleRepo:       ruleRepo,
		tournamentRepo: tournamentRepo,
	}
}

func (s *ruleService) ListRules(ctx context.Context, tournamentID int) ([]*models.PairingRule, error) {
	rules, err := s.ruleRepo.ListByTournament(ctx, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list pairing rules for tournament %d: %w", tournamentID, err)
	}
	return rules, nil
}

func (s *ruleService) ReplaceRules(ctx context.Context, directorID, tournamentID int, rules []*models.PairingRule) ([]*models.PairingRule, error) {
	t, err := s.tournamentRepo.GetByID(ctx, tournamentID)
	if err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, ErrTournamentNotFound
		}
		return nil, fmt.Errorf("failed to load tournament %d: %w", tournamentID, err)
	}
	if t.DirectorID != directorID {
		return nil, ErrForbiddenOperation
	}

	if err := ValidateRules(rules, t.TotalRounds); err != nil {
		return nil, err
	}

	// Delete and re-insert in one transaction so a rejected insert cannot
	// leave the tournament with a half-replaced schedule.
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin rule replace transaction: %w", err)
	}
	if err := s.ruleRepo.ReplaceAll(ctx, tx, tournamentID, rules); err != nil {
		_ = tx.Rollback()
		return nil, fmt.Errorf("failed to replace pairing rules for tournament %d: %w", tournamentID, err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit rule replace transaction: %w", err)
	}
	return rules, nil
}

// ValidateRules rejects malformed or overlapping round ranges before the set
// is accepted. The scheduler relies on at most one rule covering any round.
func ValidateRules(rules []*models.PairingRule, totalRounds int) error {
	sorted := make([]*models.PairingRule, len(rules))
	copy(sorted, rules)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].StartRound < sorted[j].StartRound
	})

	prevEnd := 0
	for _, rule := range sorted {
		if rule.StartRound < 1 || rule.EndRound < rule.StartRound {
			return fmt.Errorf("%w: [%d..%d]", ErrRuleRangeInvalid, rule.StartRound, rule.EndRound)
		}
		if totalRounds > 0 && rule.EndRound > totalRounds {
			return fmt.Errorf("%w: [%d..%d] exceeds %d total rounds",
				ErrRuleRangeInvalid, rule.StartRound, rule.EndRound, totalRounds)
		}
		if rule.StartRound <= prevEnd {
			return fmt.Errorf("%w: round %d is covered twice", ErrRuleRangesOverlap, rule.StartRound)
		}
		prevEnd = rule.EndRound

		if _, ok := pairingMethodKnown(rule.Method); !ok {
			return fmt.Errorf("%w: unknown pairing method %q", ErrValidationFailed, rule.Method)
		}
		switch rule.Source {
		case models.SourcePreviousRound, models.SourceLagged, models.SourceRound0:
		default:
			return fmt.Errorf("%w: unknown standings source %q", ErrValidationFailed, rule.Source)
		}
		if rule.QuartileScheme != nil {
			switch *rule.QuartileScheme {
			case models.Scheme1v3_2v4, models.Scheme1v2_3v4:
			default:
				return fmt.Errorf("%w: unknown quartile scheme %q", ErrValidationFailed, *rule.QuartileScheme)
			}
		}
		if rule.AllowedRepeats < 0 {
			return fmt.Errorf("%w: allowed_repeats must not be negative", ErrValidationFailed)
		}
	}
	return nil
}

func pairingMethodKnown(method models.PairingMethod) (models.PairingMethod, bool) {
	switch method {
	case models.MethodSwiss, models.MethodKOTH, models.MethodRoundRobin,
		models.MethodQuartile, models.MethodChew:
		return method, true
	}
	return method, false
}
