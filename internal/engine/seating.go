package engine

import (
	"fmt"
	"log"

	"poker-club/backend/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// TablesNeeded returns the minimum number of tables for the given player
// count and table size.
func TablesNeeded(players, seatsPerTable int) int {
	if players <= 0 || seatsPerTable <= 0 {
		return 0
	}
	return (players + seatsPerTable - 1) / seatsPerTable
}

// SeatPlayers creates the initial tables for a tournament and deals every
// active unseated player into a seat round-robin, so table sizes never
// differ by more than one.
func (s *Service) SeatPlayers(tournamentID string) ([]models.TournamentTable, error) {
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

	var regs []models.TournamentRegistration
	if err := tx.Where("tournament_id = ? AND status = ? AND table_id IS NULL", tournamentID, models.RegistrationActive).
		Order("registered_at ASC").
		Find(&regs).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	if len(regs) == 0 {
		tx.Rollback()
		return nil, fmt.Errorf("no unseated players in tournament %s", tournamentID)
	}

	var tables []models.TournamentTable
	if err := tx.Where("tournament_id = ? AND status = ?", tournamentID, models.TableActive).
		Order("table_number ASC").
		Find(&tables).Error; err != nil {
		tx.Rollback()
		return nil, err
	}

	seats := t.Seating.MaxSeatsPerTable
	var seated int64
	if err := tx.Model(&models.TournamentRegistration{}).
		Where("tournament_id = ? AND status = ? AND table_id IS NOT NULL", tournamentID, models.RegistrationActive).
		Count(&seated).Error; err != nil {
		tx.Rollback()
		return nil, err
	}

	needed := TablesNeeded(len(regs)+int(seated), seats)
	nextNumber := len(tables) + 1
	for len(tables) < needed {
		table := models.TournamentTable{
			ID:           uuid.New().String(),
			TournamentID: tournamentID,
			TableNumber:  nextNumber,
			Status:       models.TableActive,
			MaxSeats:     seats,
		}
		if err := tx.Create(&table).Error; err != nil {
			tx.Rollback()
			return nil, err
		}
		tables = append(tables, table)
		nextNumber++
	}

	// Round-robin assignment keeps table sizes within one of each other.
	occupied := make(map[string]map[int]bool, len(tables))
	for i := range tables {
		occupied[tables[i].ID] = make(map[int]bool)
	}
	var seatedRegs []models.TournamentRegistration
	if err := tx.Where("tournament_id = ? AND status = ? AND table_id IS NOT NULL", tournamentID, models.RegistrationActive).
		Find(&seatedRegs).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	for _, r := range seatedRegs {
		if r.TableID != nil && r.SeatNumber != nil {
			if m, ok := occupied[*r.TableID]; ok {
				m[*r.SeatNumber] = true
			}
		}
	}

	counts := make([]int, len(tables))
	for i := range tables {
		counts[i] = tables[i].ActivePlayers
	}

	for _, reg := range regs {
		// pick the table with the fewest players
		best := 0
		for i := range tables {
			if counts[i] < counts[best] {
				best = i
			}
		}
		table := &tables[best]
		seat := 0
		for n := 1; n <= table.MaxSeats; n++ {
			if !occupied[table.ID][n] {
				seat = n
				break
			}
		}
		if seat == 0 {
			tx.Rollback()
			return nil, fmt.Errorf("table %d is full", table.TableNumber)
		}
		occupied[table.ID][seat] = true
		counts[best]++

		if err := tx.Model(&models.TournamentRegistration{}).
			Where("id = ?", reg.ID).
			Updates(map[string]interface{}{"table_id": table.ID, "seat_number": seat}).Error; err != nil {
			tx.Rollback()
			return nil, err
		}
	}

	for i := range tables {
		if err := tx.Model(&tables[i]).Update("active_players", counts[i]).Error; err != nil {
			tx.Rollback()
			return nil, err
		}
		tables[i].ActivePlayers = counts[i]
	}

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}

	log.Printf("[ENGINE] Seated %d players across %d tables in tournament %s", len(regs), len(tables), tournamentID)
	return tables, nil
}

// AssignSeat moves a player to a specific seat. The target seat must be
// free and inside the table's seat range.
func (s *Service) AssignSeat(tournamentID, registrationID, tableID string, seatNumber int) error {
	tx := s.db.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	var table models.TournamentTable
	if err := tx.First(&table, "id = ? AND tournament_id = ?", tableID, tournamentID).Error; err != nil {
		tx.Rollback()
		if err == gorm.ErrRecordNotFound {
			return ErrTableNotFound
		}
		return err
	}
	if table.Status != models.TableActive && table.Status != models.TableFinalTable {
		tx.Rollback()
		return ErrTableNotActive
	}
	if seatNumber < 1 || seatNumber > table.MaxSeats {
		tx.Rollback()
		return ErrInvalidSeat
	}

	var taken int64
	if err := tx.Model(&models.TournamentRegistration{}).
		Where("table_id = ? AND seat_number = ? AND status = ?", tableID, seatNumber, models.RegistrationActive).
		Count(&taken).Error; err != nil {
		tx.Rollback()
		return err
	}
	if taken > 0 {
		tx.Rollback()
		return ErrSeatTaken
	}

	var reg models.TournamentRegistration
	if err := tx.First(&reg, "id = ? AND tournament_id = ?", registrationID, tournamentID).Error; err != nil {
		tx.Rollback()
		if err == gorm.ErrRecordNotFound {
			return ErrRegistrationNotFound
		}
		return err
	}
	if reg.Status != models.RegistrationActive {
		tx.Rollback()
		return ErrNotActive
	}

	if reg.TableID != nil && *reg.TableID != tableID {
		if err := tx.Model(&models.TournamentTable{}).
			Where("id = ?", *reg.TableID).
			Update("active_players", gorm.Expr("active_players - 1")).Error; err != nil {
			tx.Rollback()
			return err
		}
	}
	if reg.TableID == nil || *reg.TableID != tableID {
		if err := tx.Model(&table).
			Update("active_players", gorm.Expr("active_players + 1")).Error; err != nil {
			tx.Rollback()
			return err
		}
	}

	if err := tx.Model(&reg).Updates(map[string]interface{}{
		"table_id":    tableID,
		"seat_number": seatNumber,
	}).Error; err != nil {
		tx.Rollback()
		return err
	}

	return tx.Commit().Error
}

// ListTables returns every table of a tournament, including broken ones,
// ordered by table number.
func (s *Service) ListTables(tournamentID string) ([]models.TournamentTable, error) {
	var tables []models.TournamentTable
	err := s.db.Where("tournament_id = ?", tournamentID).
		Order("table_number ASC").
		Find(&tables).Error
	return tables, err
}
