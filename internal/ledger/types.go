package ledger

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType classifies a ledger entry. Inflow types carry positive
// amounts, outflow types negative; Validate enforces the sign convention.
type TransactionType string

const (
	TypeBuyIn       TransactionType = "buy_in"
	TypeReBuy       TransactionType = "re_buy"
	TypeAddOn       TransactionType = "add_on"
	TypeLateReg     TransactionType = "late_registration"
	TypeServiceSale TransactionType = "service_sale"
	TypePenalty     TransactionType = "penalty"
	TypeHouseRake   TransactionType = "house_rake"
	TypeCashBuyIn   TransactionType = "cash_buy_in"
	TypePrizePayout TransactionType = "prize_payout"
	TypeBounty      TransactionType = "bounty"
	TypeExpense     TransactionType = "expense"
	TypeCashOut     TransactionType = "cash_out"
	TypeRefund      TransactionType = "refund"
)

var inflowTypes = map[TransactionType]bool{
	TypeBuyIn:       true,
	TypeReBuy:       true,
	TypeAddOn:       true,
	TypeLateReg:     true,
	TypeServiceSale: true,
	TypePenalty:     true,
	TypeHouseRake:   true,
	TypeCashBuyIn:   true,
}

var outflowTypes = map[TransactionType]bool{
	TypePrizePayout: true,
	TypeBounty:      true,
	TypeExpense:     true,
	TypeCashOut:     true,
	TypeRefund:      true,
}

// Inflow reports whether entries of this type add money to the treasury.
func (t TransactionType) Inflow() bool { return inflowTypes[t] }

// Outflow reports whether entries of this type remove money from the treasury.
func (t TransactionType) Outflow() bool { return outflowTypes[t] }

// Valid reports whether t is a known transaction type.
func (t TransactionType) Valid() bool { return inflowTypes[t] || outflowTypes[t] }

// PaymentMethod is how money changed hands for an entry.
type PaymentMethod string

const (
	MethodCash     PaymentMethod = "cash"
	MethodCourtesy PaymentMethod = "courtesy"
	MethodBalance  PaymentMethod = "balance"
	MethodTransfer PaymentMethod = "transfer"
)

// Valid reports whether m is a known payment method.
func (m PaymentMethod) Valid() bool {
	switch m {
	case MethodCash, MethodCourtesy, MethodBalance, MethodTransfer:
		return true
	}
	return false
}

// PaymentStatus tracks settlement. Pending entries count toward debt, not
// toward money received. Voided marks a correction entry that cancels an
// earlier one.
type PaymentStatus string

const (
	StatusPaid    PaymentStatus = "paid"
	StatusPending PaymentStatus = "pending"
	StatusVoided  PaymentStatus = "voided"
)

// Valid reports whether s is a known payment status.
func (s PaymentStatus) Valid() bool {
	switch s {
	case StatusPaid, StatusPending, StatusVoided:
		return true
	}
	return false
}

// Transaction is one immutable ledger entry. Rows are append-only: the only
// update ever applied after insert is flipping a pending entry to paid;
// amounts and classification never change. Corrections are new entries with
// the opposite sign pointing at the entry they cancel via CorrectsID.
type Transaction struct {
	ID           string          `gorm:"column:id;type:varchar(36);primaryKey" json:"id"`
	WorkingDayID string          `gorm:"column:working_day_id;type:varchar(36);not null;index:idx_tx_working_day" json:"working_day_id"`
	TournamentID *string         `gorm:"column:tournament_id;type:varchar(36);index:idx_tx_tournament" json:"tournament_id,omitempty"`
	SessionID    *string         `gorm:"column:session_id;type:varchar(36);index:idx_tx_session" json:"session_id,omitempty"`
	PlayerID     *string         `gorm:"column:player_id;type:varchar(36);index:idx_tx_player" json:"player_id,omitempty"`
	Type         TransactionType `gorm:"column:type;type:varchar(24);not null" json:"type"`
	Amount       decimal.Decimal `gorm:"column:amount;type:decimal(12,2);not null" json:"amount"`
	Method       PaymentMethod   `gorm:"column:method;type:varchar(16);not null" json:"method"`
	Provider     string          `gorm:"column:provider;type:varchar(32)" json:"provider,omitempty"`
	Status       PaymentStatus   `gorm:"column:status;type:varchar(16);default:'paid'" json:"status"`
	Description  string          `gorm:"column:description;type:varchar(255)" json:"description,omitempty"`
	RecordedBy   string          `gorm:"column:recorded_by;type:varchar(36)" json:"recorded_by,omitempty"`
	CorrectsID   *string         `gorm:"column:corrects_id;type:varchar(36);index:idx_tx_corrects" json:"corrects_id,omitempty"`
	CreatedAt    time.Time       `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	SettledAt    *time.Time      `gorm:"column:settled_at" json:"settled_at,omitempty"`
}

// TableName specifies the table name for Transaction model
func (Transaction) TableName() string {
	return "financial_transactions"
}

// MethodTotal is the received amount for one payment method, with transfer
// entries further broken down by provider.
type MethodTotal struct {
	Method     PaymentMethod              `json:"method"`
	Total      decimal.Decimal            `json:"total"`
	ByProvider map[string]decimal.Decimal `json:"by_provider,omitempty"`
}

// TreasurySummary is the aggregate view of a set of ledger entries. All
// figures are exact decimals; pending entries appear only in PendingDebt.
type TreasurySummary struct {
	TotalInflow  decimal.Decimal `json:"total_inflow"`
	TotalOutflow decimal.Decimal `json:"total_outflow"`
	NetBalance   decimal.Decimal `json:"net_balance"`
	PendingDebt  decimal.Decimal `json:"pending_debt"`
	ByMethod     []MethodTotal   `json:"by_method"`
	ByType       map[TransactionType]decimal.Decimal `json:"by_type"`
	EntryCount   int             `json:"entry_count"`
}
