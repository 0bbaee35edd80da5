package engine

import (
	"log"
	"time"

	"poker-club/backend/internal/ledger"
	"poker-club/backend/internal/models"

	"gorm.io/gorm"
)

// EliminatePlayer knocks an active player out. The finish position is the
// number of players still active at the moment of elimination, so the last
// two players bust in positions 2 and 1. When bounties are enabled and an
// eliminator is named, the bounty is paid out through the ledger.
func (s *Service) EliminatePlayer(tournamentID, registrationID string, eliminatorRegID *string) (*models.TournamentRegistration, error) {
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
	if t.Status != models.TournamentRunning && t.Status != models.TournamentPaused {
		tx.Rollback()
		return nil, ErrInvalidTransition
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

	var remaining int64
	if err := tx.Model(&models.TournamentRegistration{}).
		Where("tournament_id = ? AND status = ?", tournamentID, models.RegistrationActive).
		Count(&remaining).Error; err != nil {
		tx.Rollback()
		return nil, err
	}

	position := int(remaining)
	now := time.Now()
	if err := tx.Model(&reg).Updates(map[string]interface{}{
		"status":          models.RegistrationEliminated,
		"finish_position": position,
		"eliminated_at":   now,
		"chips":           0,
	}).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	reg.Status = models.RegistrationEliminated
	reg.FinishPosition = &position
	reg.EliminatedAt = &now
	reg.Chips = 0

	var tableID *string
	if reg.TableID != nil {
		tableID = reg.TableID
		if err := tx.Model(&models.TournamentTable{}).
			Where("id = ?", *reg.TableID).
			Update("active_players", gorm.Expr("active_players - 1")).Error; err != nil {
			tx.Rollback()
			return nil, err
		}
	}

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}

	if t.Bounty.BountyEnabled && eliminatorRegID != nil && t.WorkingDayID != nil && !t.Bounty.BountyAmount.IsZero() {
		var eliminator models.TournamentRegistration
		if err := s.db.First(&eliminator, "id = ? AND tournament_id = ?", *eliminatorRegID, tournamentID).Error; err == nil {
			if _, err := s.ledger.Record(ledger.RecordInput{
				WorkingDayID: *t.WorkingDayID,
				TournamentID: &t.ID,
				PlayerID:     &eliminator.PlayerID,
				Type:         ledger.TypeBounty,
				Amount:       t.Bounty.BountyAmount.Neg(),
				Method:       ledger.MethodCash,
				Description:  "bounty for knocking out " + reg.PlayerID,
			}); err != nil {
				return nil, err
			}
		}
	}

	log.Printf("[ENGINE] Player %s eliminated from %s in position %d", reg.PlayerID, tournamentID, position)
	s.publish("player_eliminated", tournamentID, map[string]interface{}{
		"player_id": reg.PlayerID,
		"position":  position,
	})

	if remaining-1 == 1 {
		s.publish("final_player_standing", tournamentID, nil)
	}

	if tableID != nil && t.Seating.BalancingMode != models.BalancingManual {
		if err := s.RebalanceTables(tournamentID); err != nil {
			log.Printf("[ENGINE] Table rebalance failed for %s: %v", tournamentID, err)
		}
	}

	return &reg, nil
}
