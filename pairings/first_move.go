package pairings

import "github.com/tilewise/scrabble-director/models"

// AssignFirstMovers gives the opening move of each new non-bye match to the
// side that has started fewer games so far, balancing starts over the
// tournament. Ties go to the listed first player. Counts carry forward within
// the batch, so a pre-generated round robin block alternates starts on its
// own.
func AssignFirstMovers(generated, history []*models.Match) {
	starts := make(map[int]int)
	for _, m := range history {
		if m.FirstMoverID != nil {
			starts[*m.FirstMoverID]++
		}
	}
	for _, m := range generated {
		if m.IsBye() || m.FirstMoverID != nil {
			continue
		}
		mover := m.PlayerAID
		if starts[*m.PlayerBID] < starts[mover] {
			mover = *m.PlayerBID
		}
		id := mover
		m.FirstMoverID = &id
		starts[mover]++
	}
}
