package engine

import (
	"fmt"
	"log"
	"time"

	"poker-club/backend/internal/ledger"
	"poker-club/backend/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// EventPublisher receives engine events for fan-out to external consumers.
// Publish must never block; implementations report whether the event was
// accepted.
type EventPublisher interface {
	Publish(eventType, tournamentID string, payload map[string]interface{}) bool
}

// Service handles tournament operations
type Service struct {
	db     *gorm.DB
	ledger *ledger.Service
	events EventPublisher
}

// NewService creates a new tournament engine service
func NewService(db *gorm.DB, ledgerSvc *ledger.Service) *Service {
	return &Service{db: db, ledger: ledgerSvc}
}

// SetEventPublisher sets the publisher used for engine events.
func (s *Service) SetEventPublisher(p EventPublisher) {
	s.events = p
}

func (s *Service) publish(eventType, tournamentID string, payload map[string]interface{}) {
	if s.events == nil {
		return
	}
	s.events.Publish(eventType, tournamentID, payload)
}

// SaveTournament persists a mutated tournament with a revision check. The
// write succeeds only if the row still carries the revision the tournament
// was loaded with; otherwise nothing is written and ErrRevisionConflict is
// returned. On success the in-memory revision is bumped to match the row.
func SaveTournament(tx *gorm.DB, t *models.Tournament) error {
	prev := t.Revision
	t.Revision = prev + 1

	result := tx.Model(&models.Tournament{}).
		Where("id = ? AND revision = ?", t.ID, prev).
		Select("*").
		Omit("id", "created_at").
		Updates(t)
	if result.Error != nil {
		t.Revision = prev
		return result.Error
	}
	if result.RowsAffected == 0 {
		t.Revision = prev
		return ErrRevisionConflict
	}
	return nil
}

// GetTournament loads one tournament by ID.
func (s *Service) GetTournament(id string) (*models.Tournament, error) {
	var t models.Tournament
	if err := s.db.First(&t, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrTournamentNotFound
		}
		return nil, err
	}
	return &t, nil
}

// ListTournaments returns tournaments, optionally filtered by status and
// working day, newest first.
func (s *Service) ListTournaments(status models.TournamentStatus, workingDayID string) ([]models.Tournament, error) {
	q := s.db.Order("scheduled_at DESC")
	if status != "" {
		q = q.Where("status = ?", status)
	}
	if workingDayID != "" {
		q = q.Where("working_day_id = ?", workingDayID)
	}
	var ts []models.Tournament
	err := q.Find(&ts).Error
	return ts, err
}

// CreateTournamentRequest carries the configuration for a new tournament.
type CreateTournamentRequest struct {
	Name              string               `json:"name" binding:"required"`
	WorkingDayID      *string              `json:"working_day_id"`
	ScheduledAt       time.Time            `json:"scheduled_at"`
	BuyIn             decimal.Decimal      `json:"buy_in"`
	Fee               decimal.Decimal      `json:"fee"`
	GuaranteedAmount  decimal.Decimal      `json:"guaranteed_amount"`
	StartingChips     int                  `json:"starting_chips"`
	StructurePreset   string               `json:"structure_preset"`
	BlindLevels       []models.BlindLevel  `json:"blind_levels"`
	PayoutPreset      string               `json:"payout_preset"`
	PayoutTiers       []models.PayoutTier  `json:"payout_tiers"`
	Seating           models.SeatingConfig `json:"seating"`
	Rebuys            models.RebuyConfig   `json:"rebuys"`
	Addons            models.AddonConfig   `json:"addons"`
	Bounty            models.BountyConfig  `json:"bounty"`
	LateRegUntilLevel int                  `json:"late_reg_until_level"`
}

// CreateTournament validates the configuration and persists a new
// tournament in Scheduled status with the clock parked on level 1.
func (s *Service) CreateTournament(req CreateTournamentRequest) (*models.Tournament, error) {
	if req.Name == "" {
		return nil, ErrInvalidTournamentName
	}
	if req.BuyIn.IsNegative() || req.Fee.IsNegative() {
		return nil, ErrInvalidBuyIn
	}
	if req.StartingChips <= 0 {
		return nil, ErrInvalidStartingChips
	}

	levels := req.BlindLevels
	if req.StructurePreset != "" {
		preset, exists := GetStructurePreset(req.StructurePreset)
		if !exists {
			return nil, ErrPresetNotFound
		}
		levels = preset
	}
	if err := ValidateBlindLevels(levels); err != nil {
		return nil, err
	}

	tiers := req.PayoutTiers
	if req.PayoutPreset != "" {
		preset, exists := GetPayoutPreset(req.PayoutPreset)
		if !exists {
			return nil, ErrPresetNotFound
		}
		tiers = preset
	}
	if err := ValidatePayoutTiers(tiers); err != nil {
		return nil, err
	}

	// Money can only be ledgered against a working day, so a tournament
	// that charges anything must belong to one.
	if req.WorkingDayID == nil && (req.BuyIn.IsPositive() || req.Fee.IsPositive()) {
		return nil, ErrNoWorkingDay
	}

	seating := req.Seating
	if seating.MaxSeatsPerTable == 0 {
		seating.MaxSeatsPerTable = 9
	}
	if seating.BalancingMode == "" {
		seating.BalancingMode = models.BalancingAuto
	}
	if seating.BalancingThreshold == 0 {
		seating.BalancingThreshold = 3
	}

	scheduledAt := req.ScheduledAt
	if scheduledAt.IsZero() {
		scheduledAt = time.Now()
	}

	t := &models.Tournament{
		ID:                uuid.New().String(),
		Name:              req.Name,
		WorkingDayID:      req.WorkingDayID,
		ScheduledAt:       scheduledAt,
		Status:            models.TournamentScheduled,
		BuyIn:             req.BuyIn,
		Fee:               req.Fee,
		GuaranteedAmount:  req.GuaranteedAmount,
		StartingChips:     req.StartingChips,
		Seating:           seating,
		Rebuys:            req.Rebuys,
		Addons:            req.Addons,
		Bounty:            req.Bounty,
		BlindLevels:       levels,
		PayoutTiers:       tiers,
		CurrentLevel:      1,
		ClockPaused:       true,
		SecondsRemaining:  float64(levels[0].DurationSecs),
		LateRegUntilLevel: req.LateRegUntilLevel,
	}

	if err := s.db.Create(t).Error; err != nil {
		return nil, fmt.Errorf("failed to create tournament: %w", err)
	}

	log.Printf("[ENGINE] Created tournament %s (%s), %d blind levels", t.ID, t.Name, len(levels))
	return t, nil
}

// ValidateBlindLevels checks a blind structure for the engine's invariants.
func ValidateBlindLevels(levels []models.BlindLevel) error {
	if len(levels) == 0 {
		return ErrEmptyBlindStructure
	}
	for i, lvl := range levels {
		if lvl.Level != i+1 {
			return ErrLevelsNotSequential
		}
		if lvl.DurationSecs <= 0 {
			return ErrInvalidLevelDuration
		}
		if lvl.Ante < 0 {
			return ErrNegativeAnte
		}
		if lvl.IsBreak {
			continue
		}
		if lvl.SmallBlind <= 0 || lvl.BigBlind <= 0 {
			return ErrInvalidBlindAmounts
		}
		if lvl.BigBlind < lvl.SmallBlind {
			return ErrBigBlindTooSmall
		}
	}
	return nil
}

// ValidatePayoutTiers checks prize tiers for sequential positions and a
// percentage total of at most 100. An empty tier list is allowed; such
// tournaments pay nothing automatically.
func ValidatePayoutTiers(tiers []models.PayoutTier) error {
	total := decimal.Zero
	for i, tier := range tiers {
		if tier.Position != i+1 {
			return ErrInvalidPayoutTiers
		}
		if tier.Percentage.IsNegative() {
			return ErrInvalidPayoutTiers
		}
		total = total.Add(tier.Percentage)
	}
	if total.GreaterThan(decimal.NewFromInt(100)) {
		return ErrPayoutOver100
	}
	return nil
}
