package engine

import (
	"fmt"
	"log"
	"time"

	"poker-club/backend/internal/ledger"
	"poker-club/backend/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var validTransitions = map[models.TournamentStatus][]models.TournamentStatus{
	models.TournamentScheduled: {models.TournamentLateReg, models.TournamentRunning, models.TournamentCanceled},
	models.TournamentLateReg:   {models.TournamentRunning, models.TournamentCanceled},
	models.TournamentRunning:   {models.TournamentPaused, models.TournamentFinished, models.TournamentCanceled},
	models.TournamentPaused:    {models.TournamentRunning, models.TournamentFinished, models.TournamentCanceled},
}

// CanTransition reports whether a tournament may move from one status to
// another. Finished and Canceled are terminal.
func CanTransition(from, to models.TournamentStatus) bool {
	for _, s := range validTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

func (s *Service) lockTournament(tx *gorm.DB, id string) (*models.Tournament, error) {
	var t models.Tournament
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&t, "id = ?", id).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrTournamentNotFound
		}
		return nil, err
	}
	return &t, nil
}

// OpenLateRegistration moves a scheduled tournament into the late
// registration phase. Entries taken from now on are recorded as late
// registrations in the ledger.
func (s *Service) OpenLateRegistration(id string) (*models.Tournament, error) {
	return s.transition(id, models.TournamentLateReg, func(tx *gorm.DB, t *models.Tournament) error {
		t.LateRegOpen = true
		return nil
	})
}

// Start moves a tournament into Running and releases the clock on the
// first level. At least one active registration must exist. Late
// registration stays open if the tournament is configured with a late
// registration cutoff level.
func (s *Service) Start(id string) (*models.Tournament, error) {
	return s.transition(id, models.TournamentRunning, func(tx *gorm.DB, t *models.Tournament) error {
		var active int64
		if err := tx.Model(&models.TournamentRegistration{}).
			Where("tournament_id = ? AND status = ?", t.ID, models.RegistrationActive).
			Count(&active).Error; err != nil {
			return err
		}
		if active == 0 {
			return ErrNoPlayers
		}
		if t.StartedAt == nil {
			now := time.Now()
			t.StartedAt = &now
			t.CurrentLevel = 1
			if lvl := t.Level(1); lvl != nil {
				t.SecondsRemaining = float64(lvl.DurationSecs)
			}
			t.LateRegOpen = t.LateRegUntilLevel > 0
		}
		now := time.Now()
		t.ClockPaused = false
		t.ClockUpdatedAt = &now
		return nil
	})
}

// Pause freezes the clock without losing the remaining time in the
// current level.
func (s *Service) Pause(id string) (*models.Tournament, error) {
	return s.transition(id, models.TournamentPaused, func(tx *gorm.DB, t *models.Tournament) error {
		t.ClockPaused = true
		return nil
	})
}

// Resume continues a paused tournament from exactly where the clock
// stopped.
func (s *Service) Resume(id string) (*models.Tournament, error) {
	return s.transition(id, models.TournamentRunning, func(tx *gorm.DB, t *models.Tournament) error {
		now := time.Now()
		t.ClockPaused = false
		t.ClockUpdatedAt = &now
		return nil
	})
}

// Finish completes a tournament. At most one player may still be active;
// that player is recorded as the winner, prizes are computed from the
// ledger and paid out as outflow entries, and the clock stops for good.
func (s *Service) Finish(id string) (*models.Tournament, error) {
	tx := s.db.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	t, err := s.lockTournament(tx, id)
	if err != nil {
		tx.Rollback()
		return nil, err
	}
	if !CanTransition(t.Status, models.TournamentFinished) {
		tx.Rollback()
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, t.Status, models.TournamentFinished)
	}

	var active []models.TournamentRegistration
	if err := tx.Where("tournament_id = ? AND status = ?", id, models.RegistrationActive).
		Find(&active).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	if len(active) > 1 {
		tx.Rollback()
		return nil, ErrPlayersStillActive
	}

	if len(active) == 1 {
		winner := active[0]
		pos := 1
		now := time.Now()
		updates := map[string]interface{}{
			"status":          models.RegistrationEliminated,
			"finish_position": pos,
			"eliminated_at":   now,
		}
		if err := tx.Model(&models.TournamentRegistration{}).
			Where("id = ?", winner.ID).Updates(updates).Error; err != nil {
			tx.Rollback()
			return nil, err
		}
	}

	now := time.Now()
	t.Status = models.TournamentFinished
	t.FinishedAt = &now
	t.ClockPaused = true
	t.LateRegOpen = false
	if err := SaveTournament(tx, t); err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := tx.Model(&models.TournamentTable{}).
		Where("tournament_id = ? AND status NOT IN ?", id, []models.TableStatus{models.TableBroken, models.TableFinished}).
		Update("status", models.TableFinished).Error; err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}

	payouts, err := s.DistributePayouts(t)
	if err != nil {
		log.Printf("[ENGINE] Payout distribution failed for %s: %v", id, err)
		return nil, err
	}

	log.Printf("[ENGINE] Tournament %s finished, %d payouts recorded", id, len(payouts))
	s.publish("tournament_finished", id, map[string]interface{}{
		"payouts": len(payouts),
	})
	return t, nil
}

// Cancel aborts a tournament from any non-terminal state. Every paid
// entry fee is refunded through the ledger; pending entries are voided
// instead.
func (s *Service) Cancel(id string, reason string) (*models.Tournament, error) {
	tx := s.db.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	t, err := s.lockTournament(tx, id)
	if err != nil {
		tx.Rollback()
		return nil, err
	}
	if !CanTransition(t.Status, models.TournamentCanceled) {
		tx.Rollback()
		if t.Status == models.TournamentFinished {
			return nil, ErrTournamentFinished
		}
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, t.Status, models.TournamentCanceled)
	}

	now := time.Now()
	t.Status = models.TournamentCanceled
	t.CanceledAt = &now
	t.ClockPaused = true
	t.LateRegOpen = false
	if err := SaveTournament(tx, t); err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}

	if err := s.refundEntries(t, reason); err != nil {
		return nil, err
	}

	log.Printf("[ENGINE] Tournament %s canceled: %s", id, reason)
	s.publish("tournament_canceled", id, map[string]interface{}{
		"reason": reason,
	})
	return t, nil
}

func (s *Service) refundEntries(t *models.Tournament, reason string) error {
	entries, err := s.ledger.ListByTournament(t.ID)
	if err != nil {
		return err
	}
	for _, e := range entries {
		if !e.Type.Inflow() {
			continue
		}
		if e.Status == ledger.StatusPending {
			if _, err := s.ledger.Void(e.ID, "tournament canceled"); err != nil {
				return err
			}
			continue
		}
		if e.Status != ledger.StatusPaid {
			continue
		}
		day := t.WorkingDayID
		dayID := e.WorkingDayID
		if day != nil {
			dayID = *day
		}
		_, err := s.ledger.Record(ledger.RecordInput{
			WorkingDayID: dayID,
			TournamentID: &t.ID,
			PlayerID:     e.PlayerID,
			Type:         ledger.TypeRefund,
			Amount:       e.Amount.Neg(),
			Method:       e.Method,
			Provider:     e.Provider,
			Description:  "refund: " + reason,
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// transition applies a guarded status change plus a mutation inside one
// transaction.
func (s *Service) transition(id string, to models.TournamentStatus, mutate func(tx *gorm.DB, t *models.Tournament) error) (*models.Tournament, error) {
	tx := s.db.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	t, err := s.lockTournament(tx, id)
	if err != nil {
		tx.Rollback()
		return nil, err
	}
	if !CanTransition(t.Status, to) {
		tx.Rollback()
		switch t.Status {
		case models.TournamentFinished:
			return nil, ErrTournamentFinished
		case models.TournamentCanceled:
			return nil, ErrTournamentCanceled
		}
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, t.Status, to)
	}

	from := t.Status
	t.Status = to
	if mutate != nil {
		if err := mutate(tx, t); err != nil {
			tx.Rollback()
			return nil, err
		}
	}
	if err := SaveTournament(tx, t); err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}

	log.Printf("[ENGINE] Tournament %s: %s -> %s", id, from, to)
	s.publish("tournament_status_changed", id, map[string]interface{}{
		"from": string(from),
		"to":   string(to),
	})
	return t, nil
}
