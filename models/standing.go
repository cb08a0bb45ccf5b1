package models

import "time"

// Standing is a derived, non-persistent view of one player's position inside
// a division. It is recomputed from scratch on every request; the per-round
// snapshot table is a cache for historical standings sources, not a model of
// record.
type Standing struct {
	Rank           int     `json:"rank"`
	PlayerID       int     `json:"player_id"`
	Name           string  `json:"name"`
	Division       string  `json:"division"`
	Score          float64 `json:"score"`
	Wins           float64 `json:"wins"`
	Losses         float64 `json:"losses"`
	Spread         int     `json:"spread"`
	Buchholz       float64 `json:"buchholz"`
	MedianBuchholz float64 `json:"median_buchholz"`
	LastGame       *string `json:"last_game,omitempty"`
	Rating         int     `json:"rating"`
	RatingDelta    float64 `json:"rating_delta"`
	Clinched       bool    `json:"clinched,omitempty"`
	Team           *string `json:"team,omitempty"`
}

// StandingsSnapshot is the persisted per-round cache, keyed uniquely by
// (tournament, round) and upserted on conflict.
type StandingsSnapshot struct {
	ID           int        `json:"id" db:"id"`
	TournamentID int        `json:"tournament_id" db:"tournament_id"`
	Round        int        `json:"round" db:"round"`
	Standings    []Standing `json:"standings" db:"-"`
	CreatedAt    time.Time  `json:"created_at" db:"created_at"`
}
