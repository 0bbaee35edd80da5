package engine

import "errors"

// Tournament engine errors
var (
	// Configuration validation errors
	ErrInvalidTournamentName = errors.New("tournament name is required")
	ErrInvalidBuyIn          = errors.New("buy-in must be non-negative")
	ErrInvalidStartingChips  = errors.New("starting chips must be positive")
	ErrEmptyBlindStructure   = errors.New("blind structure cannot be empty")
	ErrInvalidBlindAmounts   = errors.New("blind amounts must be positive")
	ErrBigBlindTooSmall      = errors.New("big blind must be at least the small blind")
	ErrInvalidLevelDuration  = errors.New("level duration must be positive")
	ErrNegativeAnte          = errors.New("ante cannot be negative")
	ErrLevelsNotSequential   = errors.New("blind levels must be numbered sequentially from 1")
	ErrInvalidPayoutTiers    = errors.New("payout positions must be sequential starting from 1")
	ErrPayoutOver100         = errors.New("payout percentages cannot exceed 100")
	ErrPresetNotFound        = errors.New("structure preset not found")
	ErrNoWorkingDay          = errors.New("paid tournaments require a working day")

	// Lifecycle errors
	ErrTournamentNotFound   = errors.New("tournament not found")
	ErrInvalidTransition    = errors.New("invalid tournament status transition")
	ErrTournamentFinished   = errors.New("tournament has already finished")
	ErrTournamentCanceled   = errors.New("tournament has been canceled")
	ErrPlayersStillActive   = errors.New("cannot finish while more than one player is active")
	ErrNoPlayers            = errors.New("cannot start without an active registration")

	// Registration errors
	ErrRegistrationClosed   = errors.New("tournament is not accepting registrations")
	ErrAlreadyRegistered    = errors.New("player already has an active registration")
	ErrRegistrationNotFound = errors.New("registration not found")
	ErrNotActive            = errors.New("registration is not active")
	ErrCannotUnregister     = errors.New("cannot unregister after elimination")

	// Rebuy and addon errors
	ErrRebuyDisabled    = errors.New("rebuys are not enabled for this tournament")
	ErrRebuyWindowOver  = errors.New("rebuy window has closed")
	ErrRebuyLimit       = errors.New("rebuy limit reached for this player")
	ErrAddonDisabled    = errors.New("addons are not enabled for this tournament")
	ErrAddonWindowOver  = errors.New("addon window has closed")

	// Seating errors
	ErrTableNotFound    = errors.New("table not found")
	ErrTableNotActive   = errors.New("table is not active")
	ErrSeatTaken        = errors.New("seat is already taken")
	ErrInvalidSeat      = errors.New("seat number out of range")
	ErrNoTables         = errors.New("tournament has no active tables")

	// Concurrency errors
	ErrRevisionConflict = errors.New("tournament was modified by another writer")
)
