package models

import "time"

type MatchStatus string

const (
	MatchPending   MatchStatus = "pending"
	MatchCompleted MatchStatus = "completed"
)

// Match is one pairing in one round. PlayerBID == nil means a bye; bye matches
// are created already completed with the configured bye score. A completed
// non-bye match always carries both scores.
type Match struct {
	ID                int         `json:"id" db:"id"`
	TournamentID      int         `json:"tournament_id" db:"tournament_id"`
	Division          string      `json:"division" db:"division"`
	Round             int         `json:"round" db:"round"`
	PlayerAID         int         `json:"player_a_id" db:"player_a_id"`
	PlayerBID         *int        `json:"player_b_id,omitempty" db:"player_b_id"`
	ScoreA            *int        `json:"score_a,omitempty" db:"score_a"`
	ScoreB            *int        `json:"score_b,omitempty" db:"score_b"`
	Status            MatchStatus `json:"status" db:"status"`
	Forfeit           bool        `json:"forfeit" db:"forfeit"`
	ForfeitedPlayerID *int        `json:"forfeited_player_id,omitempty" db:"forfeited_player_id"`
	FirstMoverID      *int        `json:"first_mover_id,omitempty" db:"first_mover_id"`
	CreatedAt         time.Time   `json:"created_at" db:"created_at"`
}

// IsBye reports whether the match encodes a round sat out.
func (m *Match) IsBye() bool {
	return m.PlayerBID == nil
}

// Involves reports whether the given player is one of the two sides.
func (m *Match) Involves(playerID int) bool {
	if m.PlayerAID == playerID {
		return true
	}
	return m.PlayerBID != nil && *m.PlayerBID == playerID
}
