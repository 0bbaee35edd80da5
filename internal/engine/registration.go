package engine

import (
	"log"

	"poker-club/backend/internal/ledger"
	"poker-club/backend/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// RegisterPlayerRequest carries one entry purchase.
type RegisterPlayerRequest struct {
	PlayerID    string                  `json:"player_id" binding:"required"`
	DisplayName string                  `json:"display_name"`
	MemberID    *string                 `json:"member_id"`
	Type        models.RegistrationType `json:"type"`
	Method      ledger.PaymentMethod    `json:"method" binding:"required"`
	Provider    string                  `json:"provider"`
	OnCredit    bool                    `json:"on_credit"`
	RecordedBy  string                  `json:"recorded_by"`
}

// registrationOpen reports whether the tournament accepts new entries in
// its current state, and whether the entry counts as a late registration.
func registrationOpen(t *models.Tournament) (open, late bool) {
	switch t.Status {
	case models.TournamentScheduled:
		return true, false
	case models.TournamentLateReg:
		return true, true
	case models.TournamentRunning, models.TournamentPaused:
		if t.LateRegOpen && (t.LateRegUntilLevel == 0 || t.CurrentLevel <= t.LateRegUntilLevel) {
			return true, true
		}
	}
	return false, false
}

// RegisterPlayer creates a new entry, charges the buy-in plus fee through
// the ledger and bumps the tournament's entry count. A player may hold at
// most one active registration; a fresh entry after elimination is only
// possible as a reentry while registration is still open.
func (s *Service) RegisterPlayer(tournamentID string, req RegisterPlayerRequest) (*models.TournamentRegistration, error) {
	tx := s.db.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	t, err := s.lockTournament(tx, tournamentID)
	if err != nil {
		tx.Rollback()
		return nil, err
	}

	open, late := registrationOpen(t)
	if !open {
		tx.Rollback()
		return nil, ErrRegistrationClosed
	}

	var existing int64
	if err := tx.Model(&models.TournamentRegistration{}).
		Where("tournament_id = ? AND player_id = ? AND status = ?", tournamentID, req.PlayerID, models.RegistrationActive).
		Count(&existing).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	if existing > 0 {
		tx.Rollback()
		return nil, ErrAlreadyRegistered
	}

	regType := req.Type
	if regType == "" {
		regType = models.RegistrationStandard
	}

	var eliminated int64
	if err := tx.Model(&models.TournamentRegistration{}).
		Where("tournament_id = ? AND player_id = ? AND status = ?", tournamentID, req.PlayerID, models.RegistrationEliminated).
		Count(&eliminated).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	if eliminated > 0 {
		regType = models.RegistrationReentry
	}

	price := t.BuyIn.Add(t.Fee)
	reg := &models.TournamentRegistration{
		ID:            uuid.New().String(),
		TournamentID:  tournamentID,
		PlayerID:      req.PlayerID,
		DisplayName:   req.DisplayName,
		MemberID:      req.MemberID,
		Chips:         t.StartingChips,
		Type:          regType,
		Status:        models.RegistrationActive,
		PaidAmount:    price,
		PaymentMethod: string(req.Method),
	}
	if err := tx.Create(reg).Error; err != nil {
		tx.Rollback()
		return nil, err
	}

	t.TotalEntries++
	if err := SaveTournament(tx, t); err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}

	if t.WorkingDayID != nil && !price.IsZero() {
		txType := ledger.TypeBuyIn
		if late {
			txType = ledger.TypeLateReg
		}
		status := ledger.StatusPaid
		if req.OnCredit {
			status = ledger.StatusPending
		}
		if _, err := s.ledger.Record(ledger.RecordInput{
			WorkingDayID: *t.WorkingDayID,
			TournamentID: &t.ID,
			PlayerID:     &req.PlayerID,
			Type:         txType,
			Amount:       price,
			Method:       req.Method,
			Provider:     req.Provider,
			Status:       status,
			Description:  "entry: " + t.Name,
			RecordedBy:   req.RecordedBy,
		}); err != nil {
			return nil, err
		}
	}

	log.Printf("[ENGINE] Registered player %s in tournament %s (late=%v, type=%s)", req.PlayerID, tournamentID, late, regType)
	s.publish("player_registered", tournamentID, map[string]interface{}{
		"player_id":     req.PlayerID,
		"total_entries": t.TotalEntries,
	})
	return reg, nil
}

// Unregister withdraws an active entry before play reaches the player.
// Withdrawal is only possible while the tournament has not finished; the
// paid entry is refunded through the ledger.
func (s *Service) Unregister(tournamentID, registrationID string) error {
	tx := s.db.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	t, err := s.lockTournament(tx, tournamentID)
	if err != nil {
		tx.Rollback()
		return err
	}
	if t.Status == models.TournamentFinished {
		tx.Rollback()
		return ErrTournamentFinished
	}

	var reg models.TournamentRegistration
	if err := tx.First(&reg, "id = ? AND tournament_id = ?", registrationID, tournamentID).Error; err != nil {
		tx.Rollback()
		if err == gorm.ErrRecordNotFound {
			return ErrRegistrationNotFound
		}
		return err
	}
	if reg.Status == models.RegistrationEliminated {
		tx.Rollback()
		return ErrCannotUnregister
	}
	if reg.Status != models.RegistrationActive {
		tx.Rollback()
		return ErrNotActive
	}

	updates := map[string]interface{}{
		"status":      models.RegistrationUnregistered,
		"table_id":    nil,
		"seat_number": nil,
	}
	if err := tx.Model(&reg).Updates(updates).Error; err != nil {
		tx.Rollback()
		return err
	}
	if reg.TableID != nil {
		if err := tx.Model(&models.TournamentTable{}).
			Where("id = ?", *reg.TableID).
			Update("active_players", gorm.Expr("active_players - 1")).Error; err != nil {
			tx.Rollback()
			return err
		}
	}

	t.TotalEntries--
	if err := SaveTournament(tx, t); err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Commit().Error; err != nil {
		return err
	}

	if t.WorkingDayID != nil && !reg.PaidAmount.IsZero() {
		if _, err := s.ledger.Record(ledger.RecordInput{
			WorkingDayID: *t.WorkingDayID,
			TournamentID: &t.ID,
			PlayerID:     &reg.PlayerID,
			Type:         ledger.TypeRefund,
			Amount:       reg.PaidAmount.Neg(),
			Method:       ledger.PaymentMethod(reg.PaymentMethod),
			Description:  "unregistered: " + t.Name,
		}); err != nil {
			return err
		}
	}

	log.Printf("[ENGINE] Unregistered %s from tournament %s", reg.PlayerID, tournamentID)
	return nil
}

// Rebuy sells a rebuy to an active player inside the rebuy window and
// tops up their stack.
func (s *Service) Rebuy(tournamentID, registrationID string, method ledger.PaymentMethod, provider string) (*models.TournamentRegistration, error) {
	tx := s.db.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	t, err := s.lockTournament(tx, tournamentID)
	if err != nil {
		tx.Rollback()
		return nil, err
	}
	if !t.Rebuys.RebuyEnabled {
		tx.Rollback()
		return nil, ErrRebuyDisabled
	}
	if t.Status != models.TournamentRunning && t.Status != models.TournamentPaused && t.Status != models.TournamentLateReg {
		tx.Rollback()
		return nil, ErrRebuyWindowOver
	}
	if t.Rebuys.RebuyUntilLevel > 0 && t.CurrentLevel > t.Rebuys.RebuyUntilLevel {
		tx.Rollback()
		return nil, ErrRebuyWindowOver
	}

	var reg models.TournamentRegistration
	if err := tx.First(&reg, "id = ? AND tournament_id = ?", registrationID, tournamentID).Error; err != nil {
		tx.Rollback()
		if err == gorm.ErrRecordNotFound {
			return nil, ErrRegistrationNotFound
		}
		return nil, err
	}
	if reg.Status != models.RegistrationActive {
		tx.Rollback()
		return nil, ErrNotActive
	}
	if t.Rebuys.MaxRebuysPerPlayer > 0 && reg.RebuyCount >= t.Rebuys.MaxRebuysPerPlayer {
		tx.Rollback()
		return nil, ErrRebuyLimit
	}

	reg.RebuyCount++
	reg.Chips += t.Rebuys.RebuyChips
	reg.PaidAmount = reg.PaidAmount.Add(t.Rebuys.RebuyPrice)
	if err := tx.Model(&reg).Updates(map[string]interface{}{
		"rebuy_count": reg.RebuyCount,
		"chips":       reg.Chips,
		"paid_amount": reg.PaidAmount,
	}).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}

	if t.WorkingDayID != nil && !t.Rebuys.RebuyPrice.IsZero() {
		if _, err := s.ledger.Record(ledger.RecordInput{
			WorkingDayID: *t.WorkingDayID,
			TournamentID: &t.ID,
			PlayerID:     &reg.PlayerID,
			Type:         ledger.TypeReBuy,
			Amount:       t.Rebuys.RebuyPrice,
			Method:       method,
			Provider:     provider,
			Description:  "rebuy: " + t.Name,
		}); err != nil {
			return nil, err
		}
	}

	log.Printf("[ENGINE] Rebuy #%d for %s in tournament %s", reg.RebuyCount, reg.PlayerID, tournamentID)
	return &reg, nil
}

// Addon sells an addon to an active player while the addon window is open.
func (s *Service) Addon(tournamentID, registrationID string, method ledger.PaymentMethod, provider string) (*models.TournamentRegistration, error) {
	tx := s.db.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	t, err := s.lockTournament(tx, tournamentID)
	if err != nil {
		tx.Rollback()
		return nil, err
	}
	if !t.Addons.AddonEnabled {
		tx.Rollback()
		return nil, ErrAddonDisabled
	}
	if t.Status != models.TournamentRunning && t.Status != models.TournamentPaused && t.Status != models.TournamentLateReg {
		tx.Rollback()
		return nil, ErrAddonWindowOver
	}
	if t.Addons.AddonAllowedLevel > 0 && t.CurrentLevel > t.Addons.AddonAllowedLevel {
		tx.Rollback()
		return nil, ErrAddonWindowOver
	}

	var reg models.TournamentRegistration
	if err := tx.First(&reg, "id = ? AND tournament_id = ?", registrationID, tournamentID).Error; err != nil {
		tx.Rollback()
		if err == gorm.ErrRecordNotFound {
			return nil, ErrRegistrationNotFound
		}
		return nil, err
	}
	if reg.Status != models.RegistrationActive {
		tx.Rollback()
		return nil, ErrNotActive
	}

	reg.AddonCount++
	reg.Chips += t.Addons.AddonChips
	reg.PaidAmount = reg.PaidAmount.Add(t.Addons.AddonPrice)
	if err := tx.Model(&reg).Updates(map[string]interface{}{
		"addon_count": reg.AddonCount,
		"chips":       reg.Chips,
		"paid_amount": reg.PaidAmount,
	}).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}

	if t.WorkingDayID != nil && !t.Addons.AddonPrice.IsZero() {
		if _, err := s.ledger.Record(ledger.RecordInput{
			WorkingDayID: *t.WorkingDayID,
			TournamentID: &t.ID,
			PlayerID:     &reg.PlayerID,
			Type:         ledger.TypeAddOn,
			Amount:       t.Addons.AddonPrice,
			Method:       method,
			Provider:     provider,
			Description:  "addon: " + t.Name,
		}); err != nil {
			return nil, err
		}
	}

	log.Printf("[ENGINE] Addon #%d for %s in tournament %s", reg.AddonCount, reg.PlayerID, tournamentID)
	return &reg, nil
}

// Standings returns every registration ordered by finish: active players
// first by chip count, then eliminated ones by finish position.
func (s *Service) Standings(tournamentID string) ([]models.TournamentRegistration, error) {
	var regs []models.TournamentRegistration
	err := s.db.Where("tournament_id = ? AND status != ?", tournamentID, models.RegistrationUnregistered).
		Order("CASE WHEN finish_position IS NULL THEN 0 ELSE 1 END, chips DESC, finish_position ASC").
		Find(&regs).Error
	return regs, err
}
