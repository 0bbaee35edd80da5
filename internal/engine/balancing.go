package engine

import (
	"log"
	"sort"

	"poker-club/backend/internal/models"
)

// RebalanceTables breaks emptied tables and redistributes their players.
//
// In auto mode a table is broken once its active count falls to the
// configured threshold or below, provided the remaining tables can absorb
// its players. Strict mode additionally levels the surviving tables so no
// two differ by more than one player.
func (s *Service) RebalanceTables(tournamentID string) error {
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
	if t.Seating.BalancingMode == models.BalancingManual {
		tx.Rollback()
		return nil
	}

	var tables []models.TournamentTable
	if err := tx.Where("tournament_id = ? AND status IN ?", tournamentID,
		[]models.TableStatus{models.TableActive, models.TableFinalTable}).
		Order("table_number ASC").
		Find(&tables).Error; err != nil {
		tx.Rollback()
		return err
	}
	if len(tables) <= 1 {
		tx.Rollback()
		return nil
	}

	type tableState struct {
		table   *models.TournamentTable
		players []models.TournamentRegistration
		seats   map[int]bool
	}

	states := make([]*tableState, len(tables))
	total := 0
	for i := range tables {
		var players []models.TournamentRegistration
		if err := tx.Where("table_id = ? AND status = ?", tables[i].ID, models.RegistrationActive).
			Order("seat_number ASC").
			Find(&players).Error; err != nil {
			tx.Rollback()
			return err
		}
		seats := make(map[int]bool)
		for _, p := range players {
			if p.SeatNumber != nil {
				seats[*p.SeatNumber] = true
			}
		}
		states[i] = &tableState{table: &tables[i], players: players, seats: seats}
		total += len(players)
	}

	// Break the smallest tables while the rest can hold everyone.
	sort.Slice(states, func(i, j int) bool {
		return len(states[i].players) < len(states[j].players)
	})

	var broken []*tableState
	survivors := append([]*tableState(nil), states...)
	for len(survivors) > 1 {
		smallest := survivors[0]
		if len(smallest.players) > t.Seating.BalancingThreshold {
			break
		}
		capacity := 0
		for _, st := range survivors[1:] {
			capacity += st.table.MaxSeats - len(st.players)
		}
		if capacity < len(smallest.players) {
			break
		}
		broken = append(broken, smallest)
		survivors = survivors[1:]
	}

	if len(broken) == 0 && t.Seating.BalancingMode != models.BalancingStrict {
		tx.Rollback()
		return nil
	}

	move := func(reg *models.TournamentRegistration, from, to *tableState) error {
		seat := 0
		for n := 1; n <= to.table.MaxSeats; n++ {
			if !to.seats[n] {
				seat = n
				break
			}
		}
		if seat == 0 {
			return ErrSeatTaken
		}
		if err := tx.Model(&models.TournamentRegistration{}).
			Where("id = ?", reg.ID).
			Updates(map[string]interface{}{"table_id": to.table.ID, "seat_number": seat}).Error; err != nil {
			return err
		}
		if reg.SeatNumber != nil {
			delete(from.seats, *reg.SeatNumber)
		}
		to.seats[seat] = true
		reg.TableID = &to.table.ID
		reg.SeatNumber = &seat
		to.players = append(to.players, *reg)
		return nil
	}

	moved := 0
	for _, st := range broken {
		for i := range st.players {
			// smallest surviving table takes the next player
			sort.Slice(survivors, func(a, b int) bool {
				return len(survivors[a].players) < len(survivors[b].players)
			})
			if err := move(&st.players[i], st, survivors[0]); err != nil {
				tx.Rollback()
				return err
			}
			moved++
		}
		st.players = nil
		if err := tx.Model(st.table).Updates(map[string]interface{}{
			"status":         models.TableBroken,
			"active_players": 0,
		}).Error; err != nil {
			tx.Rollback()
			return err
		}
	}

	if t.Seating.BalancingMode == models.BalancingStrict {
		for {
			sort.Slice(survivors, func(a, b int) bool {
				return len(survivors[a].players) < len(survivors[b].players)
			})
			small, large := survivors[0], survivors[len(survivors)-1]
			if len(large.players)-len(small.players) <= 1 {
				break
			}
			reg := large.players[len(large.players)-1]
			large.players = large.players[:len(large.players)-1]
			if err := move(&reg, large, small); err != nil {
				tx.Rollback()
				return err
			}
			moved++
		}
	}

	for _, st := range survivors {
		if err := tx.Model(st.table).
			Update("active_players", len(st.players)).Error; err != nil {
			tx.Rollback()
			return err
		}
	}

	if err := tx.Commit().Error; err != nil {
		return err
	}

	if len(broken) > 0 || moved > 0 {
		log.Printf("[ENGINE] Rebalanced tournament %s: %d tables broken, %d players moved", tournamentID, len(broken), moved)
		s.publish("tables_rebalanced", tournamentID, map[string]interface{}{
			"tables_broken": len(broken),
			"players_moved": moved,
		})
	}
	return nil
}
