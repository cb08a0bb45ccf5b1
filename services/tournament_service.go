package services

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/tilewise/scrabble-director/models"
	"github.com/tilewise/scrabble-director/repositories"
	"github.com/tilewise/scrabble-director/storage"
	"golang.org/x/sync/errgroup"
)

type CreateTournamentInput struct {
	Name        string                     `json:"name"`
	Description *string                    `json:"description,omitempty"`
	TotalRounds int                        `json:"total_rounds"`
	StartDate   string                     `json:"start_date"`
	Settings    *models.TournamentSettings `json:"settings,omitempty"`
}

type TournamentService interface {
	Create(ctx context.Context, directorID int, tournament *models.Tournament) error
	GetByID(ctx context.Context, id int) (*models.Tournament, error)
	GetFullTournamentData(ctx context.Context, id int) (*models.Tournament, error)
	List(ctx context.Context, status *models.TournamentStatus) ([]*models.Tournament, error)
	Update(ctx context.Context, directorID int, tournament *models.Tournament) error
	UpdateSettings(ctx context.Context, directorID, tournamentID int, settings models.TournamentSettings) (*models.Tournament, error)
	SetStatus(ctx context.Context, directorID, tournamentID int, status models.TournamentStatus) error
	UploadLogo(ctx context.Context, directorID, tournamentID int, contentType string, reader io.Reader) (*models.Tournament, error)
	Delete(ctx context.Context, directorID, tournamentID int) error
}

type tournamentService struct {
	tournamentRepo repositories.TournamentRepository
	playerRepo     repositories.PlayerRepository
	matchRepo      repositories.MatchRepository
	uploader       storage.FileUploader
	pairingService PairingService
}

func NewTournamentService(
	tournamentRepo repositories.TournamentRepository,
	playerRepo repositories.PlayerRepository,
	matchRepo repositories.MatchRepository,
	uploader storage.FileUploader,
	pairingService PairingService,
) TournamentService {
	return &tournamentService{
		tournamentRepo: tournamentRepo,
		playerRepo:     playerRepo,
		matchRepo:      matchRepo,
		uploader:       uploader,
		pairingService: pairingService,
	}
}

func (s *tournamentService) Create(ctx context.Context, directorID int, t *models.Tournament) error {
	if t.Name == "" {
		return ErrTournamentNameRequired
	}
	if t.TotalRounds < 1 {
		return fmt.Errorf("%w: total_rounds must be at least 1", ErrValidationFailed)
	}
	if t.Settings.KFactor == 0 && len(t.Settings.Divisions) == 0 {
		t.Settings = models.DefaultTournamentSettings()
	}
	if err := t.Settings.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrValidationFailed, err)
	}

	t.DirectorID = directorID
	t.Status = models.StatusSetup

	if err := s.tournamentRepo.Create(ctx, t); err != nil {
		if errors.Is(err, repositories.ErrTournamentNameConflict) {
			return ErrTournamentNameConflict
		}
		return fmt.Errorf("failed to create tournament: %w", err)
	}
	return nil
}

func (s *tournamentService) GetByID(ctx context.Context, id int) (*models.Tournament, error) {
	t, err := s.tournamentRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, ErrTournamentNotFound
		}
		return nil, fmt.Errorf("failed to load tournament %d: %w", id, err)
	}
	s.attachLogoURL(t)
	return t, nil
}

// GetFullTournamentData loads the tournament with its roster and full match
// list, fetching the two collections in parallel.
func (s *tournamentService) GetFullTournamentData(ctx context.Context, id int) (*models.Tournament, error) {
	t, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		players, err := s.playerRepo.ListByTournament(gCtx, id, nil)
		if err != nil {
			return fmt.Errorf("failed to load players for tournament %d: %w", id, err)
		}
		t.Players = make([]models.Player, len(players))
		for i, p := range players {
			t.Players[i] = *p
		}
		return nil
	})

	g.Go(func() error {
		matches, err := s.matchRepo.ListByTournament(gCtx, id, nil, nil)
		if err != nil {
			return fmt.Errorf("failed to load matches for tournament %d: %w", id, err)
		}
		t.Matches = make([]models.Match, len(matches))
		for i, m := range matches {
			t.Matches[i] = *m
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return t, nil
}

func (s *tournamentService) List(ctx context.Context, status *models.TournamentStatus) ([]*models.Tournament, error) {
	tournaments, err := s.tournamentRepo.List(ctx, status)
	if err != nil {
		return nil, fmt.Errorf("failed to list tournaments: %w", err)
	}
	for _, t := range tournaments {
		s.attachLogoURL(t)
	}
	return tournaments, nil
}

func (s *tournamentService) Update(ctx context.Context, directorID int, t *models.Tournament) error {
	existing, err := s.requireDirector(ctx, directorID, t.ID)
	if err != nil {
		return err
	}
	if t.Name == "" {
		return ErrTournamentNameRequired
	}
	if existing.Status != models.StatusSetup && t.TotalRounds != existing.TotalRounds {
		return fmt.Errorf("%w: total_rounds is frozen once the tournament starts", ErrTournamentNotEditable)
	}
	if err := t.Settings.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrValidationFailed, err)
	}
	t.Status = existing.Status

	if err := s.tournamentRepo.Update(ctx, t); err != nil {
		if errors.Is(err, repositories.ErrTournamentNameConflict) {
			return ErrTournamentNameConflict
		}
		return fmt.Errorf("failed to update tournament %d: %w", t.ID, err)
	}
	return nil
}

func (s *tournamentService) UpdateSettings(ctx context.Context, directorID, tournamentID int, settings models.TournamentSettings) (*models.Tournament, error) {
	t, err := s.requireDirector(ctx, directorID, tournamentID)
	if err != nil {
		return nil, err
	}
	if err := settings.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidationFailed, err)
	}
	t.Settings = settings
	if err := s.tournamentRepo.Update(ctx, t); err != nil {
		return nil, fmt.Errorf("failed to update tournament %d settings: %w", tournamentID, err)
	}
	return t, nil
}

// validStatusTransitions lists the allowed lifecycle moves.
var validStatusTransitions = map[models.TournamentStatus][]models.TournamentStatus{
	models.StatusSetup:     {models.StatusActive, models.StatusCanceled},
	models.StatusActive:    {models.StatusCompleted, models.StatusCanceled},
	models.StatusCompleted: {},
	models.StatusCanceled:  {},
}

// SetStatus moves the tournament through its lifecycle. Going active kicks
// off the opening round: the scheduler resolves the rule covering round 1 and
// pairs it, so rule sets that start with quartile or a round robin block are
// reachable without a scored round behind them.
func (s *tournamentService) SetStatus(ctx context.Context, directorID, tournamentID int, status models.TournamentStatus) error {
	t, err := s.requireDirector(ctx, directorID, tournamentID)
	if err != nil {
		return err
	}
	allowed := false
	for _, next := range validStatusTransitions[t.Status] {
		if next == status {
			allowed = true
			break
		}
	}
	if !allowed {
		return fmt.Errorf("%w: cannot move from %s to %s", ErrValidationFailed, t.Status, status)
	}
	if err := s.tournamentRepo.UpdateStatus(ctx, tournamentID, status); err != nil {
		return fmt.Errorf("failed to set tournament %d status: %w", tournamentID, err)
	}

	if status == models.StatusActive {
		if _, err := s.pairingService.HandleRoundCompleted(ctx, tournamentID, 0); err != nil {
			// No rule covering round 1 is a valid setup: the director pairs
			// the opener by hand.
			if errors.Is(err, ErrNoRuleForRound) {
				return nil
			}
			return fmt.Errorf("%w: %v", ErrActivationPairingFailed, err)
		}
	}
	return nil
}

func (s *tournamentService) UploadLogo(ctx context.Context, directorID, tournamentID int, contentType string, reader io.Reader) (*models.Tournament, error) {
	t, err := s.requireDirector(ctx, directorID, tournamentID)
	if err != nil {
		return nil, err
	}

	key := fmt.Sprintf("tournaments/%d/logo", tournamentID)
	result, err := s.uploader.Upload(ctx, key, contentType, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to upload tournament %d logo: %w", tournamentID, err)
	}

	if err := s.tournamentRepo.UpdateLogoKey(ctx, tournamentID, &result.Key); err != nil {
		return nil, fmt.Errorf("failed to store tournament %d logo key: %w", tournamentID, err)
	}
	t.LogoKey = &result.Key
	s.attachLogoURL(t)
	return t, nil
}

func (s *tournamentService) Delete(ctx context.Context, directorID, tournamentID int) error {
	t, err := s.requireDirector(ctx, directorID, tournamentID)
	if err != nil {
		return err
	}
	if t.LogoKey != nil {
		// Best effort: a dangling object is preferable to a blocked delete.
		_ = s.uploader.Delete(ctx, *t.LogoKey)
	}
	if err := s.tournamentRepo.Delete(ctx, tournamentID); err != nil {
		return fmt.Errorf("failed to delete tournament %d: %w", tournamentID, err)
	}
	return nil
}

func (s *tournamentService) requireDirector(ctx context.Context, directorID, tournamentID int) (*models.Tournament, error) {
	t, err := s.GetByID(ctx, tournamentID)
	if err != nil {
		return nil, err
	}
	if t.DirectorID != directorID {
		return nil, ErrForbiddenOperation
	}
	return t, nil
}

func (s *tournamentService) attachLogoURL(t *models.Tournament) {
	if t.LogoKey != nil && s.uploader != nil {
		url := s.uploader.GetPublicURL(*t.LogoKey)
		if url != "" {
			t.LogoURL = &url
		}
	}
}
