package models

import "time"

type PlayerStatus string

const (
	PlayerActive    PlayerStatus = "active"
	PlayerWithdrawn PlayerStatus = "withdrawn"
)

// Player is one tournament entrant. Identity is immutable; rating, the
// bye-round list and status are the only fields the engine mutates.
type Player struct {
	ID           int          `json:"id" db:"id"`
	TournamentID int          `json:"tournament_id" db:"tournament_id"`
	Name         string       `json:"name" db:"name"`
	Rating       int          `json:"rating" db:"rating"`
	Seed         int          `json:"seed" db:"seed"`
	ByeRounds    []int        `json:"bye_rounds" db:"bye_rounds"`
	Status       PlayerStatus `json:"status" db:"status"`
	Division     string       `json:"division" db:"division"`
	Class        *string      `json:"class,omitempty" db:"class"`
	Team         *string      `json:"team,omitempty" db:"team"`
	CreatedAt    time.Time    `json:"created_at" db:"created_at"`
}

// HadBye reports whether the player already sat out the given round.
func (p *Player) HadBye(round int) bool {
	for _, r := range p.ByeRounds {
		if r == round {
			return true
		}
	}
	return false
}
