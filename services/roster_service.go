package services

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/tilewise/scrabble-director/models"
	"github.com/tilewise/scrabble-director/repositories"
)

type AddPlayerInput struct {
	Name   string  `json:"name"`
	Rating int     `json:"rating"`
	Class  *string `json:"class,omitempty"`
	Team   *string `json:"team,omitempty"`
}

// RosterService manages a tournament's entrants. Players are never deleted
// once the event starts; withdrawal is a soft status change.
type RosterService interface {
	AddPlayer(ctx context.Context, directorID, tournamentID int, input AddPlayerInput) (*models.Player, error)
	ListPlayers(ctx context.Context, tournamentID int) ([]*models.Player, error)
	ListActivePlayers(ctx context.Context, tournamentID int) ([]*models.Player, error)
	UpdatePlayer(ctx context.Context, directorID int, player *models.Player) error
	WithdrawPlayer(ctx context.Context, directorID, tournamentID, playerID int) error
	ReseedRoster(ctx context.Context, directorID, tournamentID int) ([]*models.Player, error)
}

type rosterService struct {
	playerRepo     repositories.PlayerRepository
	tournamentRepo repositories.TournamentRepository
}

func NewRosterService(
	playerRepo repositories.PlayerRepository,
	tournamentRepo repositories.TournamentRepository,
) RosterService {
	return &rosterService{
		playerRepo:     playerRepo,
		tournamentRepo: tournamentRepo,
	}
}

func (s *rosterService) AddPlayer(ctx context.Context, directorID, tournamentID int, input AddPlayerInput) (*models.Player, error) {
	if input.Name == "" {
		return nil, ErrPlayerNameRequired
	}
	t, err := s.requireDirector(ctx, directorID, tournamentID)
	if err != nil {
		return nil, err
	}
	if t.Status != models.StatusSetup {
		return nil, ErrTournamentNotEditable
	}

	player := &models.Player{
		TournamentID: tournamentID,
		Name:         input.Name,
		Rating:       input.Rating,
		Status:       models.PlayerActive,
		Division:     t.Settings.DivisionFor(input.Rating),
		Class:        input.Class,
		Team:         input.Team,
		ByeRounds:    []int{},
	}
	if err := s.playerRepo.Create(ctx, nil, player); err != nil {
		return nil, fmt.Errorf("failed to add player to tournament %d: %w", tournamentID, err)
	}
	return player, nil
}

func (s *rosterService) ListPlayers(ctx context.Context, tournamentID int) ([]*models.Player, error) {
	players, err := s.playerRepo.ListByTournament(ctx, tournamentID, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list players for tournament %d: %w", tournamentID, err)
	}
	return players, nil
}

func (s *rosterService) ListActivePlayers(ctx context.Context, tournamentID int) ([]*models.Player, error) {
	status := models.PlayerActive
	players, err := s.playerRepo.ListByTournament(ctx, tournamentID, &status)
	if err != nil {
		return nil, fmt.Errorf("failed to list active players for tournament %d: %w", tournamentID, err)
	}
	return players, nil
}

func (s *rosterService) UpdatePlayer(ctx context.Context, directorID int, player *models.Player) error {
	t, err := s.requireDirector(ctx, directorID, player.TournamentID)
	if err != nil {
		return err
	}
	// Rating edits re-home the player in the matching division band.
	player.Division = t.Settings.DivisionFor(player.Rating)

	if err := s.playerRepo.Update(ctx, player); err != nil {
		if errors.Is(err, repositories.ErrPlayerNotFound) {
			return ErrPlayerNotFound
		}
		return fmt.Errorf("failed to update player %d: %w", player.ID, err)
	}
	return nil
}

func (s *rosterService) WithdrawPlayer(ctx context.Context, directorID, tournamentID, playerID int) error {
	if _, err := s.requireDirector(ctx, directorID, tournamentID); err != nil {
		return err
	}
	if err := s.playerRepo.UpdateStatus(ctx, playerID, models.PlayerWithdrawn); err != nil {
		if errors.Is(err, repositories.ErrPlayerNotFound) {
			return ErrPlayerNotFound
		}
		return fmt.Errorf("failed to withdraw player %d: %w", playerID, err)
	}
	return nil
}

// ReseedRoster assigns seeds by rating (1 = highest) and refreshes division
// assignments. Run when the roster is locked before round one.
func (s *rosterService) ReseedRoster(ctx context.Context, directorID, tournamentID int) ([]*models.Player, error) {
	t, err := s.requireDirector(ctx, directorID, tournamentID)
	if err != nil {
		return nil, err
	}

	players, err := s.playerRepo.ListByTournament(ctx, tournamentID, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list players for reseed: %w", err)
	}
	sort.SliceStable(players, func(i, j int) bool {
		if players[i].Rating != players[j].Rating {
			return players[i].Rating > players[j].Rating
		}
		return players[i].ID < players[j].ID
	})
	for i, p := range players {
		p.Seed = i + 1
		p.Division = t.Settings.DivisionFor(p.Rating)
		if err := s.playerRepo.Update(ctx, p); err != nil {
			return nil, fmt.Errorf("failed to store seed for player %d: %w", p.ID, err)
		}
	}
	return players, nil
}

func (s *rosterService) requireDirector(ctx context.Context, directorID, tournamentID int) (*models.Tournament, error) {
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
	return t, nil
}
