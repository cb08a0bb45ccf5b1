package pairings

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExpectedScore(t *testing.T) {
	assert.InDelta(t, 0.5, ExpectedScore(1500, 1500), 1e-9)

	// A 400-point gap gives the stronger player ~0.909.
	assert.InDelta(t, 0.909, ExpectedScore(1900, 1500), 0.001)

	// Expectations of the two sides always sum to 1.
	assert.InDelta(t, 1.0, ExpectedScore(1720, 1480)+ExpectedScore(1480, 1720), 1e-9)
}

func TestRatingDelta(t *testing.T) {
	// Favorite wins: small gain.
	assert.InDelta(t, 16*(1-0.909), RatingDelta(16, 1, 0.909), 0.001)
	// Favorite loses: large loss.
	assert.InDelta(t, -16*0.909, RatingDelta(16, 0, 0.909), 0.001)
	// Draw at equal strength moves nothing.
	assert.InDelta(t, 0, RatingDelta(16, 0.5, 0.5), 1e-9)
}
