package engine

import (
	"errors"
	"testing"

	"poker-club/backend/internal/ledger"
	"poker-club/backend/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// setupTestDB creates an in-memory SQLite database for testing
func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open("file::memory:?mode=memory"), &gorm.Config{})
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	err = db.AutoMigrate(
		&models.WorkingDay{},
		&models.Tournament{},
		&models.TournamentRegistration{},
		&models.TournamentTable{},
		&ledger.Transaction{},
	)
	if err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}
	return db
}

func newTestService(t *testing.T) (*Service, *gorm.DB) {
	db := setupTestDB(t)
	return NewService(db, ledger.NewService(db)), db
}

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func testLevels(durationSecs int, count int) []models.BlindLevel {
	levels := make([]models.BlindLevel, count)
	for i := 0; i < count; i++ {
		levels[i] = models.BlindLevel{
			Level:        i + 1,
			DurationSecs: durationSecs,
			SmallBlind:   25 * (i + 1),
			BigBlind:     50 * (i + 1),
		}
	}
	return levels
}

func createTestDay(t *testing.T, db *gorm.DB) string {
	day := models.WorkingDay{ID: "day1", Date: "2026-09-01"}
	if err := db.Create(&day).Error; err != nil {
		t.Fatalf("Failed to create working day: %v", err)
	}
	return day.ID
}

func createTestTournament(t *testing.T, svc *Service, db *gorm.DB) *models.Tournament {
	dayID := createTestDay(t, db)
	tourney, err := svc.CreateTournament(CreateTournamentRequest{
		Name:          "Friday Deepstack",
		WorkingDayID:  &dayID,
		BuyIn:         dec("90"),
		Fee:           dec("10"),
		StartingChips: 20000,
		BlindLevels:   testLevels(600, 5),
		PayoutTiers: []models.PayoutTier{
			{Position: 1, Percentage: dec("50")},
			{Position: 2, Percentage: dec("30")},
			{Position: 3, Percentage: dec("20")},
		},
		LateRegUntilLevel: 2,
	})
	if err != nil {
		t.Fatalf("CreateTournament() failed: %v", err)
	}
	return tourney
}

func registerTestPlayer(t *testing.T, svc *Service, tournamentID, playerID string) *models.TournamentRegistration {
	reg, err := svc.RegisterPlayer(tournamentID, RegisterPlayerRequest{
		PlayerID: playerID,
		Method:   ledger.MethodCash,
	})
	if err != nil {
		t.Fatalf("RegisterPlayer(%s) failed: %v", playerID, err)
	}
	return reg
}

func TestCreateTournament_Validation(t *testing.T) {
	svc, _ := newTestService(t)

	tests := []struct {
		name string
		req  CreateTournamentRequest
		want error
	}{
		{
			name: "missing name",
			req:  CreateTournamentRequest{BuyIn: dec("100"), StartingChips: 10000, BlindLevels: testLevels(600, 2)},
			want: ErrInvalidTournamentName,
		},
		{
			name: "negative buy-in",
			req:  CreateTournamentRequest{Name: "x", BuyIn: dec("-1"), StartingChips: 10000, BlindLevels: testLevels(600, 2)},
			want: ErrInvalidBuyIn,
		},
		{
			name: "no chips",
			req:  CreateTournamentRequest{Name: "x", BuyIn: dec("100"), BlindLevels: testLevels(600, 2)},
			want: ErrInvalidStartingChips,
		},
		{
			name: "empty structure",
			req:  CreateTournamentRequest{Name: "x", BuyIn: dec("100"), StartingChips: 10000},
			want: ErrEmptyBlindStructure,
		},
		{
			name: "unknown preset",
			req:  CreateTournamentRequest{Name: "x", BuyIn: dec("100"), StartingChips: 10000, StructurePreset: "hyper"},
			want: ErrPresetNotFound,
		},
		{
			name: "paid without a working day",
			req:  CreateTournamentRequest{Name: "x", BuyIn: dec("100"), StartingChips: 10000, BlindLevels: testLevels(600, 2)},
			want: ErrNoWorkingDay,
		},
		{
			name: "non-sequential payouts",
			req: CreateTournamentRequest{
				Name: "x", BuyIn: dec("100"), StartingChips: 10000, BlindLevels: testLevels(600, 2),
				PayoutTiers: []models.PayoutTier{{Position: 2, Percentage: dec("100")}},
			},
			want: ErrInvalidPayoutTiers,
		},
		{
			name: "payouts over 100",
			req: CreateTournamentRequest{
				Name: "x", BuyIn: dec("100"), StartingChips: 10000, BlindLevels: testLevels(600, 2),
				PayoutTiers: []models.PayoutTier{
					{Position: 1, Percentage: dec("70")},
					{Position: 2, Percentage: dec("40")},
				},
			},
			want: ErrPayoutOver100,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreateTournament(tt.req)
			if !errors.Is(err, tt.want) {
				t.Errorf("CreateTournament() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestCreateTournament_WithPreset(t *testing.T) {
	svc, db := newTestService(t)
	dayID := createTestDay(t, db)

	tourney, err := svc.CreateTournament(CreateTournamentRequest{
		Name:            "Turbo Tuesday",
		WorkingDayID:    &dayID,
		BuyIn:           dec("50"),
		StartingChips:   10000,
		StructurePreset: "turbo",
		PayoutPreset:    "top3",
	})
	if err != nil {
		t.Fatalf("CreateTournament() failed: %v", err)
	}
	if tourney.Status != models.TournamentScheduled {
		t.Errorf("expected scheduled, got %s", tourney.Status)
	}
	if len(tourney.BlindLevels) == 0 || len(tourney.PayoutTiers) != 3 {
		t.Errorf("preset not applied: %d levels, %d tiers", len(tourney.BlindLevels), len(tourney.PayoutTiers))
	}
	if tourney.CurrentLevel != 1 || !tourney.ClockPaused {
		t.Errorf("clock should park on level 1 paused, got level %d paused=%v", tourney.CurrentLevel, tourney.ClockPaused)
	}
}

func TestLifecycle_Transitions(t *testing.T) {
	svc, _ := newTestService(t)
	tourney := createTestTournament(t, svc, svc.db)

	// Pause before start is invalid
	if _, err := svc.Pause(tourney.ID); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("Pause from scheduled: got %v, want ErrInvalidTransition", err)
	}

	// Start with nobody registered is rejected
	if _, err := svc.Start(tourney.ID); !errors.Is(err, ErrNoPlayers) {
		t.Errorf("Start without players: got %v, want ErrNoPlayers", err)
	}
	registerTestPlayer(t, svc, tourney.ID, "alice")

	started, err := svc.Start(tourney.ID)
	if err != nil {
		t.Fatalf("Start() failed: %v", err)
	}
	if started.Status != models.TournamentRunning || started.ClockPaused || started.StartedAt == nil {
		t.Errorf("Start() left bad state: %+v", started)
	}
	if !started.LateRegOpen {
		t.Error("late registration should stay open after start")
	}

	paused, err := svc.Pause(tourney.ID)
	if err != nil {
		t.Fatalf("Pause() failed: %v", err)
	}
	if paused.Status != models.TournamentPaused || !paused.ClockPaused {
		t.Errorf("Pause() left bad state: %+v", paused)
	}

	resumed, err := svc.Resume(tourney.ID)
	if err != nil {
		t.Fatalf("Resume() failed: %v", err)
	}
	if resumed.Status != models.TournamentRunning || resumed.ClockPaused {
		t.Errorf("Resume() left bad state: %+v", resumed)
	}
}

func TestCancel_IsTerminal(t *testing.T) {
	svc, _ := newTestService(t)
	tourney := createTestTournament(t, svc, svc.db)

	if _, err := svc.Cancel(tourney.ID, "rained out"); err != nil {
		t.Fatalf("Cancel() failed: %v", err)
	}
	if _, err := svc.Start(tourney.ID); !errors.Is(err, ErrTournamentCanceled) {
		t.Errorf("Start after cancel: got %v, want ErrTournamentCanceled", err)
	}
}

func TestRegisterPlayer_DuplicateGuard(t *testing.T) {
	svc, _ := newTestService(t)
	tourney := createTestTournament(t, svc, svc.db)

	registerTestPlayer(t, svc, tourney.ID, "alice")
	_, err := svc.RegisterPlayer(tourney.ID, RegisterPlayerRequest{
		PlayerID: "alice",
		Method:   ledger.MethodCash,
	})
	if !errors.Is(err, ErrAlreadyRegistered) {
		t.Errorf("duplicate registration: got %v, want ErrAlreadyRegistered", err)
	}
}

func TestRegisterPlayer_LedgerEntry(t *testing.T) {
	svc, _ := newTestService(t)
	tourney := createTestTournament(t, svc, svc.db)

	registerTestPlayer(t, svc, tourney.ID, "alice")

	entries, err := svc.ledger.ListByTournament(tourney.ID)
	if err != nil {
		t.Fatalf("ListByTournament() failed: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 ledger entry, got %d", len(entries))
	}
	if entries[0].Type != ledger.TypeBuyIn {
		t.Errorf("entry type = %s, want buy_in", entries[0].Type)
	}
	if !entries[0].Amount.Equal(dec("100")) {
		t.Errorf("entry amount = %s, want 100", entries[0].Amount)
	}

	fresh, _ := svc.GetTournament(tourney.ID)
	if fresh.TotalEntries != 1 {
		t.Errorf("TotalEntries = %d, want 1", fresh.TotalEntries)
	}
}

func TestRegisterPlayer_LateRegistration(t *testing.T) {
	svc, _ := newTestService(t)
	tourney := createTestTournament(t, svc, svc.db)
	registerTestPlayer(t, svc, tourney.ID, "alice")

	if _, err := svc.Start(tourney.ID); err != nil {
		t.Fatalf("Start() failed: %v", err)
	}

	registerTestPlayer(t, svc, tourney.ID, "bob")

	entries, _ := svc.ledger.ListByTournament(tourney.ID)
	if len(entries) != 2 {
		t.Fatalf("expected 2 ledger entries, got %d", len(entries))
	}
	if entries[1].Type != ledger.TypeLateReg {
		t.Fatalf("entry after start should be late_registration, got %s", entries[1].Type)
	}
}

func TestRegisterPlayer_ClosedAfterCutoff(t *testing.T) {
	svc, db := newTestService(t)
	tourney := createTestTournament(t, svc, svc.db)
	registerTestPlayer(t, svc, tourney.ID, "alice")

	if _, err := svc.Start(tourney.ID); err != nil {
		t.Fatalf("Start() failed: %v", err)
	}

	// Simulate the clock closing late registration past the cutoff level
	if err := db.Model(&models.Tournament{}).Where("id = ?", tourney.ID).
		Updates(map[string]interface{}{"late_reg_open": false, "current_level": 3}).Error; err != nil {
		t.Fatalf("Failed to update tournament: %v", err)
	}

	_, err := svc.RegisterPlayer(tourney.ID, RegisterPlayerRequest{
		PlayerID: "carol",
		Method:   ledger.MethodCash,
	})
	if !errors.Is(err, ErrRegistrationClosed) {
		t.Errorf("got %v, want ErrRegistrationClosed", err)
	}
}

func TestUnregister_Refunds(t *testing.T) {
	svc, _ := newTestService(t)
	tourney := createTestTournament(t, svc, svc.db)
	reg := registerTestPlayer(t, svc, tourney.ID, "alice")

	if err := svc.Unregister(tourney.ID, reg.ID); err != nil {
		t.Fatalf("Unregister() failed: %v", err)
	}

	summary, err := svc.ledger.SummarizeTournament(tourney.ID)
	if err != nil {
		t.Fatalf("SummarizeTournament() failed: %v", err)
	}
	if !summary.NetBalance.IsZero() {
		t.Errorf("refund should zero the balance, got %s", summary.NetBalance)
	}

	fresh, _ := svc.GetTournament(tourney.ID)
	if fresh.TotalEntries != 0 {
		t.Errorf("TotalEntries = %d, want 0", fresh.TotalEntries)
	}
}

func TestRebuy_WindowEnforced(t *testing.T) {
	svc, db := newTestService(t)
	dayID := createTestDay(t, db)

	tourney, err := svc.CreateTournament(CreateTournamentRequest{
		Name:          "Rebuy Madness",
		WorkingDayID:  &dayID,
		BuyIn:         dec("100"),
		StartingChips: 10000,
		BlindLevels:   testLevels(600, 6),
		Rebuys: models.RebuyConfig{
			RebuyEnabled:       true,
			RebuyPrice:         dec("100"),
			RebuyChips:         10000,
			RebuyUntilLevel:    2,
			MaxRebuysPerPlayer: 1,
		},
	})
	if err != nil {
		t.Fatalf("CreateTournament() failed: %v", err)
	}
	reg := registerTestPlayer(t, svc, tourney.ID, "alice")
	bob := registerTestPlayer(t, svc, tourney.ID, "bob")
	if _, err := svc.Start(tourney.ID); err != nil {
		t.Fatalf("Start() failed: %v", err)
	}

	updated, err := svc.Rebuy(tourney.ID, reg.ID, ledger.MethodCash, "")
	if err != nil {
		t.Fatalf("Rebuy() failed: %v", err)
	}
	if updated.Chips != 20000 || updated.RebuyCount != 1 {
		t.Errorf("rebuy not applied: chips=%d count=%d", updated.Chips, updated.RebuyCount)
	}

	// Per-player limit
	if _, err := svc.Rebuy(tourney.ID, reg.ID, ledger.MethodCash, ""); !errors.Is(err, ErrRebuyLimit) {
		t.Errorf("got %v, want ErrRebuyLimit", err)
	}

	// Window closes past the cutoff level
	db.Model(&models.Tournament{}).Where("id = ?", tourney.ID).Update("current_level", 3)
	if _, err := svc.Rebuy(tourney.ID, bob.ID, ledger.MethodCash, ""); !errors.Is(err, ErrRebuyWindowOver) {
		t.Errorf("got %v, want ErrRebuyWindowOver", err)
	}
}

func TestEliminate_AssignsPositions(t *testing.T) {
	svc, _ := newTestService(t)
	tourney := createTestTournament(t, svc, svc.db)

	alice := registerTestPlayer(t, svc, tourney.ID, "alice")
	bob := registerTestPlayer(t, svc, tourney.ID, "bob")
	registerTestPlayer(t, svc, tourney.ID, "carol")

	if _, err := svc.Start(tourney.ID); err != nil {
		t.Fatalf("Start() failed: %v", err)
	}

	out, err := svc.EliminatePlayer(tourney.ID, alice.ID, nil)
	if err != nil {
		t.Fatalf("EliminatePlayer() failed: %v", err)
	}
	if out.FinishPosition == nil || *out.FinishPosition != 3 {
		t.Errorf("first bust should finish 3rd, got %v", out.FinishPosition)
	}

	out, err = svc.EliminatePlayer(tourney.ID, bob.ID, nil)
	if err != nil {
		t.Fatalf("EliminatePlayer() failed: %v", err)
	}
	if out.FinishPosition == nil || *out.FinishPosition != 2 {
		t.Errorf("second bust should finish 2nd, got %v", out.FinishPosition)
	}

	// Double elimination is rejected
	if _, err := svc.EliminatePlayer(tourney.ID, bob.ID, nil); !errors.Is(err, ErrNotActive) {
		t.Errorf("got %v, want ErrNotActive", err)
	}
}

func TestStandings_ActiveByChipsThenFinishers(t *testing.T) {
	svc, db := newTestService(t)
	tourney := createTestTournament(t, svc, svc.db)

	alice := registerTestPlayer(t, svc, tourney.ID, "alice")
	bob := registerTestPlayer(t, svc, tourney.ID, "bob")
	carol := registerTestPlayer(t, svc, tourney.ID, "carol")
	if _, err := svc.Start(tourney.ID); err != nil {
		t.Fatalf("Start() failed: %v", err)
	}

	db.Model(&models.TournamentRegistration{}).Where("id = ?", alice.ID).Update("chips", 5000)
	db.Model(&models.TournamentRegistration{}).Where("id = ?", bob.ID).Update("chips", 45000)
	if _, err := svc.EliminatePlayer(tourney.ID, carol.ID, nil); err != nil {
		t.Fatalf("EliminatePlayer() failed: %v", err)
	}

	standings, err := svc.Standings(tourney.ID)
	if err != nil {
		t.Fatalf("Standings() failed: %v", err)
	}
	if len(standings) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(standings))
	}
	// Big stack leads, short stack follows, busted player sits last.
	if standings[0].PlayerID != "bob" || standings[1].PlayerID != "alice" || standings[2].PlayerID != "carol" {
		t.Errorf("standings order = %s, %s, %s", standings[0].PlayerID, standings[1].PlayerID, standings[2].PlayerID)
	}
}

func TestFinish_RequiresSingleSurvivor(t *testing.T) {
	svc, _ := newTestService(t)
	tourney := createTestTournament(t, svc, svc.db)

	alice := registerTestPlayer(t, svc, tourney.ID, "alice")
	registerTestPlayer(t, svc, tourney.ID, "bob")

	if _, err := svc.Start(tourney.ID); err != nil {
		t.Fatalf("Start() failed: %v", err)
	}

	if _, err := svc.Finish(tourney.ID); !errors.Is(err, ErrPlayersStillActive) {
		t.Errorf("got %v, want ErrPlayersStillActive", err)
	}

	if _, err := svc.EliminatePlayer(tourney.ID, alice.ID, nil); err != nil {
		t.Fatalf("EliminatePlayer() failed: %v", err)
	}

	finished, err := svc.Finish(tourney.ID)
	if err != nil {
		t.Fatalf("Finish() failed: %v", err)
	}
	if finished.Status != models.TournamentFinished || finished.FinishedAt == nil {
		t.Errorf("Finish() left bad state: %+v", finished)
	}

	// The survivor takes position 1
	var winner models.TournamentRegistration
	if err := svc.db.First(&winner, "tournament_id = ? AND player_id = ?", tourney.ID, "bob").Error; err != nil {
		t.Fatalf("Failed to load winner: %v", err)
	}
	if winner.FinishPosition == nil || *winner.FinishPosition != 1 {
		t.Errorf("winner position = %v, want 1", winner.FinishPosition)
	}
}

func TestCancel_RefundsPaidEntries(t *testing.T) {
	svc, _ := newTestService(t)
	tourney := createTestTournament(t, svc, svc.db)

	registerTestPlayer(t, svc, tourney.ID, "alice")
	registerTestPlayer(t, svc, tourney.ID, "bob")

	if _, err := svc.Cancel(tourney.ID, "not enough players"); err != nil {
		t.Fatalf("Cancel() failed: %v", err)
	}

	summary, err := svc.ledger.SummarizeTournament(tourney.ID)
	if err != nil {
		t.Fatalf("SummarizeTournament() failed: %v", err)
	}
	if !summary.NetBalance.IsZero() {
		t.Errorf("refunds should zero the balance, got %s", summary.NetBalance)
	}
}

func TestSaveTournament_RevisionConflict(t *testing.T) {
	svc, db := newTestService(t)
	tourney := createTestTournament(t, svc, svc.db)

	var first, second models.Tournament
	if err := db.First(&first, "id = ?", tourney.ID).Error; err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if err := db.First(&second, "id = ?", tourney.ID).Error; err != nil {
		t.Fatalf("load failed: %v", err)
	}

	first.Name = "writer one"
	if err := SaveTournament(db, &first); err != nil {
		t.Fatalf("first SaveTournament() failed: %v", err)
	}

	second.Name = "writer two"
	if err := SaveTournament(db, &second); !errors.Is(err, ErrRevisionConflict) {
		t.Errorf("got %v, want ErrRevisionConflict", err)
	}

	// The stale writer lost without clobbering anything
	var current models.Tournament
	db.First(&current, "id = ?", tourney.ID)
	if current.Name != "writer one" {
		t.Errorf("row holds %q, want %q", current.Name, "writer one")
	}
	if current.Revision != first.Revision {
		t.Errorf("revision = %d, want %d", current.Revision, first.Revision)
	}
}
