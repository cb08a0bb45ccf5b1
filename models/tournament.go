package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// TournamentStatus mirrors the ENUM in the database.
type TournamentStatus string

const (
	StatusSetup     TournamentStatus = "setup"
	StatusActive    TournamentStatus = "active"
	StatusCompleted TournamentStatus = "completed"
	StatusCanceled  TournamentStatus = "canceled"
)

// TiebreakKey identifies one criterion in the configured tie-break order.
type TiebreakKey string

const (
	TiebreakSpread         TiebreakKey = "cumulative_spread"
	TiebreakBuchholz       TiebreakKey = "buchholz"
	TiebreakMedianBuchholz TiebreakKey = "median_buchholz"
	TiebreakRating         TiebreakKey = "rating"
)

// ByePlacement controls who gets the bye among players tied on prior bye count.
type ByePlacement string

const (
	ByeLowestRanked  ByePlacement = "lowest_ranked"
	ByeHighestRanked ByePlacement = "highest_ranked"
)

// DivisionBand is a rating band; players whose rating falls inside the band
// (checked highest floor first) belong to the division.
type DivisionBand struct {
	Name    string `json:"name"`
	Floor   int    `json:"floor"`
	Ceiling int    `json:"ceiling"`
}

// TournamentSettings is the typed per-tournament configuration, stored as a
// single JSON column and validated before any engine use.
type TournamentSettings struct {
	WinPoints        float64        `json:"win_points"`
	DrawPoints       float64        `json:"draw_points"`
	LossPoints       float64        `json:"loss_points"`
	TiebreakOrder    []TiebreakKey  `json:"tiebreak_order"`
	KFactor          float64        `json:"k_factor"`
	ByeSpread        int            `json:"bye_spread"`
	ByePlacement     ByePlacement   `json:"bye_placement"`
	ForfeitWinScore  int            `json:"forfeit_win_score"`
	ForfeitLossScore int            `json:"forfeit_loss_score"`
	PlaysPerOpponent int            `json:"plays_per_opponent"`
	Divisions        []DivisionBand `json:"divisions"`
	Teams            []string       `json:"teams,omitempty"`
}

// DefaultTournamentSettings returns the settings a new tournament starts with.
func DefaultTournamentSettings() TournamentSettings {
	return TournamentSettings{
		WinPoints:        1,
		DrawPoints:       0.5,
		LossPoints:       0,
		TiebreakOrder:    []TiebreakKey{TiebreakSpread, TiebreakBuchholz, TiebreakMedianBuchholz, TiebreakRating},
		KFactor:          16,
		ByeSpread:        50,
		ByePlacement:     ByeLowestRanked,
		ForfeitWinScore:  1,
		ForfeitLossScore: 0,
		PlaysPerOpponent: 1,
		Divisions:        []DivisionBand{{Name: "Open", Floor: 0, Ceiling: 5000}},
	}
}

// Validate checks the settings for values the engine cannot work with.
func (s *TournamentSettings) Validate() error {
	if s.WinPoints < s.DrawPoints || s.DrawPoints < s.LossPoints {
		return fmt.Errorf("scoring weights must satisfy win >= draw >= loss (got %v/%v/%v)",
			s.WinPoints, s.DrawPoints, s.LossPoints)
	}
	if s.KFactor <= 0 {
		return fmt.Errorf("k_factor must be positive, got %v", s.KFactor)
	}
	if s.ByeSpread < 0 {
		return fmt.Errorf("bye_spread must not be negative, got %d", s.ByeSpread)
	}
	if s.PlaysPerOpponent < 1 {
		return fmt.Errorf("plays_per_opponent must be at least 1, got %d", s.PlaysPerOpponent)
	}
	switch s.ByePlacement {
	case ByeLowestRanked, ByeHighestRanked:
	default:
		return fmt.Errorf("invalid bye_placement %q", s.ByePlacement)
	}
	if len(s.Divisions) == 0 {
		return fmt.Errorf("at least one division band is required")
	}
	for _, d := range s.Divisions {
		if d.Name == "" {
			return fmt.Errorf("division band without a name")
		}
		if d.Ceiling < d.Floor {
			return fmt.Errorf("division %q: ceiling %d below floor %d", d.Name, d.Ceiling, d.Floor)
		}
	}
	seen := make(map[TiebreakKey]bool, len(s.TiebreakOrder))
	for _, k := range s.TiebreakOrder {
		switch k {
		case TiebreakSpread, TiebreakBuchholz, TiebreakMedianBuchholz, TiebreakRating:
		default:
			return fmt.Errorf("unknown tiebreak key %q", k)
		}
		if seen[k] {
			return fmt.Errorf("duplicate tiebreak key %q", k)
		}
		seen[k] = true
	}
	return nil
}

// DivisionFor picks the division for a rating: the first band, checked from the
// highest floor down, whose range contains it, falling back to the lowest-floor
// band.
func (s *TournamentSettings) DivisionFor(rating int) string {
	best := -1
	lowest := 0
	for i, d := range s.Divisions {
		if d.Floor <= s.Divisions[lowest].Floor {
			lowest = i
		}
		if rating >= d.Floor && rating <= d.Ceiling {
			if best == -1 || d.Floor > s.Divisions[best].Floor {
				best = i
			}
		}
	}
	if best == -1 {
		best = lowest
	}
	return s.Divisions[best].Name
}

// Tournament is a single multi-round event.
type Tournament struct {
	ID          int              `json:"id" db:"id"`
	Name        string           `json:"name" db:"name"`
	Description *string          `json:"description,omitempty" db:"description"`
	DirectorID  int              `json:"director_id" db:"director_id"`
	TotalRounds int              `json:"total_rounds" db:"total_rounds"`
	Status      TournamentStatus `json:"status" db:"status"`
	StartDate   time.Time        `json:"start_date" db:"start_date"`
	CreatedAt   time.Time        `json:"created_at" db:"created_at"`
	LogoKey     *string          `json:"-" db:"logo_key"`
	LogoURL     *string          `json:"logo_url,omitempty" db:"-"`

	Settings TournamentSettings `json:"settings" db:"-"`

	// Optional linked entities, populated by services.
	Director *User    `json:"director,omitempty" db:"-"`
	Players  []Player `json:"players,omitempty" db:"-"`
	Matches  []Match  `json:"matches,omitempty" db:"-"`
}

// SettingsJSON marshals the typed settings for the JSON column.
func (t *Tournament) SettingsJSON() (string, error) {
	raw, err := json.Marshal(t.Settings)
	if err != nil {
		return "", fmt.Errorf("failed to marshal tournament settings: %w", err)
	}
	return string(raw), nil
}

// ParseSettings unmarshals the JSON column into typed settings, applying
// defaults when the column is empty.
func (t *Tournament) ParseSettings(raw string) error {
	if raw == "" {
		t.Settings = DefaultTournamentSettings()
		return nil
	}
	var s TournamentSettings
	if err := json.Unmarshal([]byte(raw), &s); err != nil {
		return fmt.Errorf("failed to parse tournament settings: %w", err)
	}
	t.Settings = s
	return nil
}
