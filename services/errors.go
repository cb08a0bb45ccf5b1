package services

import "errors"

// Shared errors, used across services and the HTTP mapping layer.
var (
	ErrNotFound = errors.New("requested resource not found")

	// Validation and business rules
	ErrValidationFailed        = errors.New("validation failed")
	ErrPasswordTooShort        = errors.New("password is too short")
	ErrTournamentNameRequired  = errors.New("tournament name is required")
	ErrPlayerNameRequired      = errors.New("player name is required")
	ErrTournamentNotEditable   = errors.New("tournament is no longer in setup")
	ErrTournamentNotActive     = errors.New("tournament is not active")
	ErrRoundOutOfRange         = errors.New("round is outside the tournament's total rounds")
	ErrRoundNotComplete        = errors.New("round still has pending matches")
	ErrNotEnoughPlayers        = errors.New("not enough active players to pair")
	ErrNoRuleForRound          = errors.New("no pairing rule covers the requested round")
	ErrRuleRangesOverlap       = errors.New("pairing rule round ranges overlap")
	ErrRuleRangeInvalid        = errors.New("pairing rule round range is invalid")
	ErrMatchAlreadyScored      = errors.New("match is already scored; use score edit")
	ErrMatchScoresRequired     = errors.New("both scores are required for a non-bye match")
	ErrForfeitPlayerNotInMatch = errors.New("forfeited player is not part of the match")

	// Conflicts
	ErrUserEmailConflict      = errors.New("email address is already in use")
	ErrUserNicknameConflict   = errors.New("nickname is already in use")
	ErrTournamentNameConflict = errors.New("tournament name already exists")

	// Authentication and authorization
	ErrAuthInvalidCredentials = errors.New("invalid email or password")
	ErrForbiddenOperation     = errors.New("operation not allowed for the current user")

	// Entity lookups
	ErrUserNotFound       = errors.New("user not found")
	ErrTournamentNotFound = errors.New("tournament not found")
	ErrPlayerNotFound     = errors.New("player not found")
	ErrMatchNotFound      = errors.New("match not found")
	ErrSnapshotNotFound   = errors.New("standings snapshot not found")

	// ErrScoresSavedPairingFailed signals that the score write succeeded but
	// the automatic next-round pairing did not. Callers must not report this
	// as a lost score.
	ErrScoresSavedPairingFailed = errors.New("scores saved, but automatic pairing failed")

	// ErrActivationPairingFailed is the same contract for the kickoff: the
	// tournament went active but the opening round could not be paired.
	ErrActivationPairingFailed = errors.New("tournament activated, but first-round pairing failed")
)
