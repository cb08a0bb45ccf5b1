package models

// PairingMethod selects the algorithm used to generate a round.
type PairingMethod string

const (
	MethodSwiss      PairingMethod = "swiss"
	MethodKOTH       PairingMethod = "koth"
	MethodRoundRobin PairingMethod = "round_robin"
	MethodQuartile   PairingMethod = "quartile"
	MethodChew       PairingMethod = "chew"
)

// StandingsSource selects which standings feed the pairing algorithm.
type StandingsSource string

const (
	// SourcePreviousRound pairs on the snapshot of the round just completed.
	SourcePreviousRound StandingsSource = "previous_round"
	// SourceLagged pairs on the snapshot two rounds back.
	SourceLagged StandingsSource = "lagged"
	// SourceRound0 pairs on initial ratings with zero scores.
	SourceRound0 StandingsSource = "round0"
)

// QuartileScheme selects how rating quartiles are crossed in an Australian draw.
type QuartileScheme string

const (
	Scheme1v3_2v4 QuartileScheme = "1v3_2v4"
	Scheme1v2_3v4 QuartileScheme = "1v2_3v4"
)

// PairingRule binds an inclusive round range to one pairing discipline.
// Ranges of the rules belonging to one tournament must not overlap.
type PairingRule struct {
	ID             int             `json:"id" db:"id"`
	TournamentID   int             `json:"tournament_id" db:"tournament_id"`
	StartRound     int             `json:"start_round" db:"start_round"`
	EndRound       int             `json:"end_round" db:"end_round"`
	Method         PairingMethod   `json:"method" db:"method"`
	Source         StandingsSource `json:"source" db:"source"`
	AllowedRepeats int             `json:"allowed_repeats" db:"allowed_repeats"`
	QuartileScheme *QuartileScheme `json:"quartile_scheme,omitempty" db:"quartile_scheme"`
}

// Covers reports whether the rule applies to the given round.
func (r *PairingRule) Covers(round int) bool {
	return round >= r.StartRound && round <= r.EndRound
}
