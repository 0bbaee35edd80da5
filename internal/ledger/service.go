package ledger

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var (
	ErrInvalidType   = errors.New("unknown transaction type")
	ErrInvalidMethod = errors.New("unknown payment method")
	ErrInvalidStatus = errors.New("unknown payment status")
	ErrWrongSign     = errors.New("amount sign does not match transaction type")
	ErrZeroAmount    = errors.New("amount must be non-zero")
	ErrNotFound      = errors.New("transaction not found")
	ErrNotPending    = errors.New("transaction is not pending")
	ErrAlreadyVoided = errors.New("transaction is already voided")
	ErrMissingDay    = errors.New("working day id is required")
)

// Service records and aggregates ledger entries.
type Service struct {
	db *gorm.DB
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// RecordInput carries everything needed to append one entry.
type RecordInput struct {
	WorkingDayID string
	TournamentID *string
	SessionID    *string
	PlayerID     *string
	Type         TransactionType
	Amount       decimal.Decimal
	Method       PaymentMethod
	Provider     string
	Status       PaymentStatus
	Description  string
	RecordedBy   string
}

// Validate checks the input against the ledger's invariants without
// touching the database.
func (in *RecordInput) Validate() error {
	if in.WorkingDayID == "" {
		return ErrMissingDay
	}
	if !in.Type.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidType, in.Type)
	}
	if !in.Method.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidMethod, in.Method)
	}
	if in.Status == "" {
		in.Status = StatusPaid
	}
	if !in.Status.Valid() || in.Status == StatusVoided {
		return fmt.Errorf("%w: %q", ErrInvalidStatus, in.Status)
	}
	if in.Amount.IsZero() {
		return ErrZeroAmount
	}
	if in.Type.Inflow() && in.Amount.IsNegative() {
		return fmt.Errorf("%w: %s requires a positive amount", ErrWrongSign, in.Type)
	}
	if in.Type.Outflow() && in.Amount.IsPositive() {
		return fmt.Errorf("%w: %s requires a negative amount", ErrWrongSign, in.Type)
	}
	return nil
}

// Record appends one entry to the ledger. Entries are immutable after this
// point except for pending-to-paid settlement; corrections append.
func (s *Service) Record(in RecordInput) (*Transaction, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	tx := &Transaction{
		ID:           uuid.New().String(),
		WorkingDayID: in.WorkingDayID,
		TournamentID: in.TournamentID,
		SessionID:    in.SessionID,
		PlayerID:     in.PlayerID,
		Type:         in.Type,
		Amount:       in.Amount,
		Method:       in.Method,
		Provider:     in.Provider,
		Status:       in.Status,
		Description:  in.Description,
		RecordedBy:   in.RecordedBy,
	}
	if in.Status == StatusPaid {
		now := time.Now()
		tx.SettledAt = &now
	}

	if err := s.db.Create(tx).Error; err != nil {
		return nil, fmt.Errorf("failed to record transaction: %w", err)
	}

	log.Printf("[LEDGER] Recorded %s %s (%s/%s) on day %s", tx.Type, tx.Amount, tx.Method, tx.Status, tx.WorkingDayID)
	return tx, nil
}

// Settle flips a pending entry to paid. Passing a method records how the
// debt was actually collected when it differs from the one promised at
// record time; an empty method keeps the recorded one.
func (s *Service) Settle(id string, method PaymentMethod, provider string) (*Transaction, error) {
	if method != "" && !method.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidMethod, method)
	}

	var tx Transaction
	if err := s.db.First(&tx, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if tx.Status != StatusPending {
		return nil, ErrNotPending
	}

	now := time.Now()
	updates := map[string]interface{}{
		"status":     StatusPaid,
		"settled_at": now,
	}
	if method != "" {
		updates["method"] = method
		updates["provider"] = provider
		tx.Method = method
		tx.Provider = provider
	}
	if err := s.db.Model(&tx).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("failed to settle transaction: %w", err)
	}

	tx.Status = StatusPaid
	tx.SettledAt = &now
	log.Printf("[LEDGER] Settled %s via %s", tx.ID, tx.Method)
	return &tx, nil
}

// Void cancels an entry by appending an offsetting correction. The original
// row is never touched; the pair drops out of every aggregate but both stay
// in the ledger for audit.
func (s *Service) Void(id string, reason string) (*Transaction, error) {
	var orig Transaction
	if err := s.db.First(&orig, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if orig.Status == StatusVoided {
		return nil, ErrAlreadyVoided
	}
	var corrections int64
	if err := s.db.Model(&Transaction{}).Where("corrects_id = ?", id).
		Count(&corrections).Error; err != nil {
		return nil, err
	}
	if corrections > 0 {
		return nil, ErrAlreadyVoided
	}

	description := "voids " + orig.ID
	if reason != "" {
		description += ": " + reason
	}
	correction := &Transaction{
		ID:           uuid.New().String(),
		WorkingDayID: orig.WorkingDayID,
		TournamentID: orig.TournamentID,
		SessionID:    orig.SessionID,
		PlayerID:     orig.PlayerID,
		Type:         orig.Type,
		Amount:       orig.Amount.Neg(),
		Method:       orig.Method,
		Provider:     orig.Provider,
		Status:       StatusVoided,
		CorrectsID:   &orig.ID,
		Description:  description,
	}
	if err := s.db.Create(correction).Error; err != nil {
		return nil, fmt.Errorf("failed to void transaction: %w", err)
	}

	log.Printf("[LEDGER] Voided %s: %s", orig.ID, reason)
	return correction, nil
}

// ListByTournament returns all effective entries for a tournament in
// insertion order. Corrections and the entries they cancel are dropped.
func (s *Service) ListByTournament(tournamentID string) ([]Transaction, error) {
	var txs []Transaction
	err := s.db.Where("tournament_id = ?", tournamentID).
		Order("created_at ASC").
		Find(&txs).Error
	return Effective(txs), err
}

// ListByWorkingDay returns all effective entries for a working day in
// insertion order. Corrections and the entries they cancel are dropped.
func (s *Service) ListByWorkingDay(workingDayID string) ([]Transaction, error) {
	var txs []Transaction
	err := s.db.Where("working_day_id = ?", workingDayID).
		Order("created_at ASC").
		Find(&txs).Error
	return Effective(txs), err
}

// Effective removes correction entries and the entries they cancel.
func Effective(txs []Transaction) []Transaction {
	corrected := make(map[string]bool)
	for _, tx := range txs {
		if tx.CorrectsID != nil {
			corrected[*tx.CorrectsID] = true
		}
	}
	out := txs[:0]
	for _, tx := range txs {
		if tx.Status == StatusVoided || corrected[tx.ID] {
			continue
		}
		out = append(out, tx)
	}
	return out
}
