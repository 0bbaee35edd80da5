package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// TournamentStatus is the lifecycle state of a tournament.
// Allowed transitions: scheduled -> late_registration -> running,
// running <-> paused, any pre-finished state -> canceled,
// running/paused -> finished.
type TournamentStatus string

const (
	TournamentScheduled TournamentStatus = "scheduled"
	TournamentLateReg   TournamentStatus = "late_registration"
	TournamentRunning   TournamentStatus = "running"
	TournamentPaused    TournamentStatus = "paused"
	TournamentFinished  TournamentStatus = "finished"
	TournamentCanceled  TournamentStatus = "canceled"
)

// Valid reports whether s is a known tournament status.
func (s TournamentStatus) Valid() bool {
	switch s {
	case TournamentScheduled, TournamentLateReg, TournamentRunning,
		TournamentPaused, TournamentFinished, TournamentCanceled:
		return true
	}
	return false
}

// RegistrationStatus is the state of a single tournament entry.
// Transitions are one-way; a reentry is a new registration row,
// never a revived one.
type RegistrationStatus string

const (
	RegistrationActive       RegistrationStatus = "active"
	RegistrationEliminated   RegistrationStatus = "eliminated"
	RegistrationUnregistered RegistrationStatus = "unregistered"
)

// RegistrationType distinguishes how an entry was obtained.
type RegistrationType string

const (
	RegistrationStandard        RegistrationType = "standard"
	RegistrationSatelliteWinner RegistrationType = "satellite_winner"
	RegistrationInvitation      RegistrationType = "invitation"
	RegistrationReentry         RegistrationType = "reentry"
)

// TableStatus is the state of a tournament table. Tables are never
// deleted, only status-transitioned, so the row set is an audit trail.
type TableStatus string

const (
	TableActive     TableStatus = "active"
	TableBroken     TableStatus = "broken"
	TableFinalTable TableStatus = "final_table"
	TablePaused     TableStatus = "paused"
	TableFinished   TableStatus = "finished"
)

// BalancingMode controls whether the engine redistributes players when a
// table empties out.
type BalancingMode string

const (
	BalancingManual BalancingMode = "manual"
	BalancingAuto   BalancingMode = "auto"
	BalancingStrict BalancingMode = "strict"
)

// BlindLevel is one timed phase of a tournament's blind structure.
// The level list is configuration: it is validated at creation time and
// never mutated once the clock starts consuming it.
type BlindLevel struct {
	Level        int  `json:"level"`
	DurationSecs int  `json:"duration_secs"`
	SmallBlind   int  `json:"small_blind"`
	BigBlind     int  `json:"big_blind"`
	Ante         int  `json:"ante"`
	IsBreak      bool `json:"is_break"`
	RebuyAllowed bool `json:"rebuy_allowed"`
	AddonAllowed bool `json:"addon_allowed"`
}

// PayoutTier is one slice of the prize pool. Percentages across all tiers
// of a tournament must sum to at most 100.
type PayoutTier struct {
	Position   int             `json:"position"`
	Percentage decimal.Decimal `json:"percentage"`
}

// SeatingConfig governs table sizes and balancing behaviour.
type SeatingConfig struct {
	MaxSeatsPerTable   int           `json:"max_seats_per_table" gorm:"column:max_seats_per_table;default:9"`
	BalancingMode      BalancingMode `json:"balancing_mode" gorm:"column:balancing_mode;type:varchar(16);default:'auto'"`
	BalancingThreshold int           `json:"balancing_threshold" gorm:"column:balancing_threshold;default:3"`
}

// RebuyConfig governs the rebuy window.
type RebuyConfig struct {
	RebuyEnabled       bool            `json:"rebuy_enabled" gorm:"column:rebuy_enabled;default:false"`
	RebuyPrice         decimal.Decimal `json:"rebuy_price" gorm:"column:rebuy_price;type:decimal(12,2);default:0"`
	RebuyChips         int             `json:"rebuy_chips" gorm:"column:rebuy_chips;default:0"`
	RebuyUntilLevel    int             `json:"rebuy_until_level" gorm:"column:rebuy_until_level;default:0"`
	MaxRebuysPerPlayer int             `json:"max_rebuys_per_player" gorm:"column:max_rebuys_per_player;default:0"`
}

// AddonConfig governs the addon window.
type AddonConfig struct {
	AddonEnabled      bool            `json:"addon_enabled" gorm:"column:addon_enabled;default:false"`
	AddonPrice        decimal.Decimal `json:"addon_price" gorm:"column:addon_price;type:decimal(12,2);default:0"`
	AddonChips        int             `json:"addon_chips" gorm:"column:addon_chips;default:0"`
	AddonAllowedLevel int             `json:"addon_allowed_level" gorm:"column:addon_allowed_level;default:0"`
}

// BountyConfig governs knockout bounties.
type BountyConfig struct {
	BountyEnabled bool            `json:"bounty_enabled" gorm:"column:bounty_enabled;default:false"`
	BountyAmount  decimal.Decimal `json:"bounty_amount" gorm:"column:bounty_amount;type:decimal(12,2);default:0"`
}

// Tournament is the aggregate root: configuration, clock state and
// lifecycle status for one event. Registrations, tables and ledger entries
// hang off its ID and are never addressed outside it.
//
// Revision is an optimistic-concurrency token: every persisted mutation of
// this row must go through engine.SaveTournament, which bumps it and fails
// with ErrRevisionConflict if another writer got there first.
type Tournament struct {
	ID               string           `gorm:"column:id;type:varchar(36);primaryKey" json:"id"`
	Name             string           `gorm:"column:name;type:varchar(100);not null" json:"name"`
	WorkingDayID     *string          `gorm:"column:working_day_id;type:varchar(36);index:idx_tournament_working_day" json:"working_day_id,omitempty"`
	ScheduledAt      time.Time        `gorm:"column:scheduled_at" json:"scheduled_at"`
	Status           TournamentStatus `gorm:"column:status;type:varchar(24);default:'scheduled';index:idx_tournament_status" json:"status"`
	BuyIn            decimal.Decimal  `gorm:"column:buy_in;type:decimal(12,2);not null" json:"buy_in"`
	Fee              decimal.Decimal  `gorm:"column:fee;type:decimal(12,2);default:0" json:"fee"`
	GuaranteedAmount decimal.Decimal  `gorm:"column:guaranteed_amount;type:decimal(12,2);default:0" json:"guaranteed_amount"`
	StartingChips    int              `gorm:"column:starting_chips;not null" json:"starting_chips"`

	Seating SeatingConfig `gorm:"embedded" json:"seating"`
	Rebuys  RebuyConfig   `gorm:"embedded" json:"rebuys"`
	Addons  AddonConfig   `gorm:"embedded" json:"addons"`
	Bounty  BountyConfig  `gorm:"embedded" json:"bounty"`

	BlindLevels []BlindLevel `gorm:"column:blind_levels;serializer:json" json:"blind_levels"`
	PayoutTiers []PayoutTier `gorm:"column:payout_tiers;serializer:json" json:"payout_tiers"`

	// Clock state. SecondsRemaining is only meaningful while the clock is
	// not paused; ClockUpdatedAt anchors elapsed-time computation on the
	// next tick.
	CurrentLevel     int        `gorm:"column:current_level;default:0" json:"current_level"`
	ClockPaused      bool       `gorm:"column:clock_paused;default:true" json:"clock_paused"`
	SecondsRemaining float64    `gorm:"column:seconds_remaining;default:0" json:"seconds_remaining"`
	ClockUpdatedAt   *time.Time `gorm:"column:clock_updated_at" json:"clock_updated_at,omitempty"`

	LateRegOpen       bool  `gorm:"column:late_reg_open;default:false" json:"late_reg_open"`
	LateRegUntilLevel int   `gorm:"column:late_reg_until_level;default:0" json:"late_reg_until_level"`
	TotalEntries      int   `gorm:"column:total_entries;default:0" json:"total_entries"`
	Revision          int64 `gorm:"column:revision;default:0" json:"revision"`

	CreatedAt  time.Time  `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	StartedAt  *time.Time `gorm:"column:started_at" json:"started_at,omitempty"`
	FinishedAt *time.Time `gorm:"column:finished_at" json:"finished_at,omitempty"`
	CanceledAt *time.Time `gorm:"column:canceled_at" json:"canceled_at,omitempty"`
}

// TableName specifies the table name for Tournament model
func (Tournament) TableName() string {
	return "tournaments"
}

// Level returns the blind level with the given 1-indexed level number, or
// nil if no such level is configured.
func (t *Tournament) Level(n int) *BlindLevel {
	for i := range t.BlindLevels {
		if t.BlindLevels[i].Level == n {
			return &t.BlindLevels[i]
		}
	}
	return nil
}

// TournamentRegistration is one player entry. Reentries create a fresh row
// with Type=reentry instead of reviving an eliminated one.
type TournamentRegistration struct {
	ID           string             `gorm:"column:id;type:varchar(36);primaryKey" json:"id"`
	TournamentID string             `gorm:"column:tournament_id;type:varchar(36);not null;index:idx_registration_tournament" json:"tournament_id"`
	PlayerID     string             `gorm:"column:player_id;type:varchar(36);not null;index:idx_registration_player" json:"player_id"`
	DisplayName  string             `gorm:"column:display_name;type:varchar(100)" json:"display_name"`
	MemberID     *string            `gorm:"column:member_id;type:varchar(36)" json:"member_id,omitempty"`
	TableID      *string            `gorm:"column:table_id;type:varchar(36);index:idx_registration_table" json:"table_id,omitempty"`
	SeatNumber   *int               `gorm:"column:seat_number" json:"seat_number,omitempty"`
	Chips        int                `gorm:"column:chips;default:0" json:"chips"`
	Type         RegistrationType   `gorm:"column:type;type:varchar(24);default:'standard'" json:"type"`
	Status       RegistrationStatus `gorm:"column:status;type:varchar(16);default:'active'" json:"status"`
	RebuyCount   int                `gorm:"column:rebuy_count;default:0" json:"rebuy_count"`
	AddonCount   int                `gorm:"column:addon_count;default:0" json:"addon_count"`

	PaidAmount    decimal.Decimal `gorm:"column:paid_amount;type:decimal(12,2);default:0" json:"paid_amount"`
	PaymentMethod string          `gorm:"column:payment_method;type:varchar(16)" json:"payment_method"`
	PayoutAmount  decimal.Decimal `gorm:"column:payout_amount;type:decimal(12,2);default:0" json:"payout_amount"`

	FinishPosition *int       `gorm:"column:finish_position" json:"finish_position,omitempty"`
	RegisteredAt   time.Time  `gorm:"column:registered_at;autoCreateTime" json:"registered_at"`
	EliminatedAt   *time.Time `gorm:"column:eliminated_at" json:"eliminated_at,omitempty"`
}

// TableName specifies the table name for TournamentRegistration model
func (TournamentRegistration) TableName() string {
	return "tournament_registrations"
}

// TournamentTable is one physical table assigned to a tournament.
type TournamentTable struct {
	ID            string      `gorm:"column:id;type:varchar(36);primaryKey" json:"id"`
	TournamentID  string      `gorm:"column:tournament_id;type:varchar(36);not null;index:idx_table_tournament" json:"tournament_id"`
	TableNumber   int         `gorm:"column:table_number;not null" json:"table_number"`
	Status        TableStatus `gorm:"column:status;type:varchar(16);default:'active'" json:"status"`
	ActivePlayers int         `gorm:"column:active_players;default:0" json:"active_players"`
	DealerID      *string     `gorm:"column:dealer_id;type:varchar(36)" json:"dealer_id,omitempty"`
	MaxSeats      int         `gorm:"column:max_seats;default:9" json:"max_seats"`
	CreatedAt     time.Time   `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

// TableName specifies the table name for TournamentTable model
func (TournamentTable) TableName() string {
	return "tournament_tables"
}

// CashSessionStatus is the state of a cash-game table session.
type CashSessionStatus string

const (
	CashSessionOpen   CashSessionStatus = "open"
	CashSessionClosed CashSessionStatus = "closed"
)

// CashSession is one cash-game table sitting inside a working day. Its
// buy-ins and cash-outs live in the financial ledger keyed by SessionID.
type CashSession struct {
	ID           string            `gorm:"column:id;type:varchar(36);primaryKey" json:"id"`
	WorkingDayID string            `gorm:"column:working_day_id;type:varchar(36);not null;index:idx_session_working_day" json:"working_day_id"`
	TableNumber  int               `gorm:"column:table_number;not null" json:"table_number"`
	Status       CashSessionStatus `gorm:"column:status;type:varchar(16);default:'open'" json:"status"`
	OpenedAt     time.Time         `gorm:"column:opened_at" json:"opened_at"`
	ClosedAt     *time.Time        `gorm:"column:closed_at" json:"closed_at,omitempty"`
}

// TableName specifies the table name for CashSession model
func (CashSession) TableName() string {
	return "cash_sessions"
}

// WorkingDay is the club's operating-day boundary: every tournament, cash
// session and ledger entry for the day hangs off one of these.
type WorkingDay struct {
	ID       string     `gorm:"column:id;type:varchar(36);primaryKey" json:"id"`
	Date     string     `gorm:"column:date;type:varchar(10);uniqueIndex" json:"date"` // YYYY-MM-DD
	OpenedAt time.Time  `gorm:"column:opened_at" json:"opened_at"`
	ClosedAt *time.Time `gorm:"column:closed_at" json:"closed_at,omitempty"`
}

// TableName specifies the table name for WorkingDay model
func (WorkingDay) TableName() string {
	return "working_days"
}

// Operator is a staff account that can hold a session token. The role on
// the row decides which routes the token may hit.
type Operator struct {
	ID           string    `gorm:"column:id;type:varchar(36);primaryKey" json:"id"`
	Username     string    `gorm:"column:username;type:varchar(50);uniqueIndex;not null" json:"username"`
	PasswordHash string    `gorm:"column:password_hash;type:varchar(255);not null" json:"-"`
	Role         string    `gorm:"column:role;type:varchar(16);not null" json:"role"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

// TableName specifies the table name for Operator model
func (Operator) TableName() string {
	return "operators"
}
