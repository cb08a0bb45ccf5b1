package pairings

import (
	"context"
	"math/rand"
	"sort"
	"time"

	"github.com/tilewise/scrabble-director/models"
)

type QuartileGenerator struct {
	rnd *rand.Rand
}

func NewQuartileGenerator() Generator {
	return &QuartileGenerator{rnd: rand.New(rand.NewSource(time.Now().UnixNano()))}
}

func (g *QuartileGenerator) GetName() string {
	return "Quartile"
}

// Generate runs an Australian draw: the pool is sorted by rating, cut into
// four near-equal quartiles (extras going to the earliest quartiles), shuffled
// within each quartile to randomize ties, then cross-paired per the rule's
// scheme. A size mismatch between two crossed quartiles leaves a remainder
// pool that is paired off sequentially at the end.
func (g *QuartileGenerator) Generate(ctx context.Context, p Params) ([]*models.Match, error) {
	pool := make([]*models.Player, len(p.Players))
	copy(pool, p.Players)
	sort.SliceStable(pool, func(i, j int) bool {
		return pool[i].Rating > pool[j].Rating
	})

	quartiles := splitQuartiles(pool)
	for _, q := range quartiles {
		g.rnd.Shuffle(len(q), func(i, j int) { q[i], q[j] = q[j], q[i] })
	}

	scheme := models.Scheme1v3_2v4
	if p.Rule != nil && p.Rule.QuartileScheme != nil {
		scheme = *p.Rule.QuartileScheme
	}

	var crossings [2][2]int
	if scheme == models.Scheme1v2_3v4 {
		crossings = [2][2]int{{0, 1}, {2, 3}}
	} else {
		crossings = [2][2]int{{0, 2}, {1, 3}}
	}

	matches := make([]*models.Match, 0, len(pool)/2)
	var remainder []*models.Player
	for _, cross := range crossings {
		upper, lower := quartiles[cross[0]], quartiles[cross[1]]
		n := len(upper)
		if len(lower) < n {
			n = len(lower)
		}
		for i := 0; i < n; i++ {
			matches = append(matches, newPendingMatch(p, p.Round, upper[i], lower[i]))
		}
		remainder = append(remainder, upper[n:]...)
		remainder = append(remainder, lower[n:]...)
	}

	for i := 0; i+1 < len(remainder); i += 2 {
		matches = append(matches, newPendingMatch(p, p.Round, remainder[i], remainder[i+1]))
	}
	return matches, nil
}

// splitQuartiles cuts a rating-sorted pool into four near-equal parts, the
// first len%4 parts taking one extra player each.
func splitQuartiles(pool []*models.Player) [4][]*models.Player {
	var quartiles [4][]*models.Player
	base := len(pool) / 4
	extra := len(pool) % 4
	idx := 0
	for q := 0; q < 4; q++ {
		size := base
		if q < extra {
			size++
		}
		quartiles[q] = append([]*models.Player(nil), pool[idx:idx+size]...)
		idx += size
	}
	return quartiles
}
