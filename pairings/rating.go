package pairings

import "math"

// ExpectedScore returns the Elo expectation for a player rated ra facing an
// opponent rated rb.
func ExpectedScore(ra, rb float64) float64 {
	return 1.0 / (1.0 + math.Pow(10, (rb-ra)/400.0))
}

// RatingDelta returns the rating adjustment for one game: K * (actual −
// expected). The opposing side receives the negated delta.
func RatingDelta(k, actual, expected float64) float64 {
	return k * (actual - expected)
}
