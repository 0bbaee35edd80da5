package reports

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
		&models.CashSession{},
		&ledger.Transaction{},
	)
	if err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}
	return db
}

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func recordEntry(t *testing.T, svc *ledger.Service, in ledger.RecordInput) *ledger.Transaction {
	tx, err := svc.Record(in)
	if err != nil {
		t.Fatalf("Record() failed: %v", err)
	}
	return tx
}

func TestOpenDay_OncePerDate(t *testing.T) {
	svc := NewService(setupTestDB(t))

	if _, err := svc.OpenDay("2026-09-01"); err != nil {
		t.Fatalf("OpenDay() failed: %v", err)
	}
	if _, err := svc.OpenDay("2026-09-01"); !errors.Is(err, ErrDayAlreadyOpen) {
		t.Errorf("got %v, want ErrDayAlreadyOpen", err)
	}
}

func TestCloseDay_Guards(t *testing.T) {
	db := setupTestDB(t)
	svc := NewService(db)

	day, err := svc.OpenDay("2026-09-01")
	if err != nil {
		t.Fatalf("OpenDay() failed: %v", err)
	}

	session, err := svc.OpenSession(day.ID, 1)
	if err != nil {
		t.Fatalf("OpenSession() failed: %v", err)
	}
	if _, err := svc.CloseDay(day.ID); !errors.Is(err, ErrSessionsStillOpen) {
		t.Errorf("got %v, want ErrSessionsStillOpen", err)
	}
	if _, err := svc.CloseSession(session.ID); err != nil {
		t.Fatalf("CloseSession() failed: %v", err)
	}

	tournament := models.Tournament{
		ID:            "t1",
		Name:          "Main Event",
		WorkingDayID:  &day.ID,
		Status:        models.TournamentRunning,
		StartingChips: 10000,
	}
	if err := db.Create(&tournament).Error; err != nil {
		t.Fatalf("Failed to create tournament: %v", err)
	}
	if _, err := svc.CloseDay(day.ID); !errors.Is(err, ErrTournamentsLive) {
		t.Errorf("got %v, want ErrTournamentsLive", err)
	}

	db.Model(&tournament).Update("status", models.TournamentFinished)
	closed, err := svc.CloseDay(day.ID)
	if err != nil {
		t.Fatalf("CloseDay() failed: %v", err)
	}
	if closed.ClosedAt == nil {
		t.Error("closed day should carry a close time")
	}

	if _, err := svc.CloseDay(day.ID); !errors.Is(err, ErrDayClosed) {
		t.Errorf("got %v, want ErrDayClosed", err)
	}
}

func TestBuildDailyReport(t *testing.T) {
	db := setupTestDB(t)
	svc := NewService(db)
	ledgerSvc := ledger.NewService(db)

	day, err := svc.OpenDay("2026-09-01")
	if err != nil {
		t.Fatalf("OpenDay() failed: %v", err)
	}

	tournamentID := "t1"
	tournament := models.Tournament{
		ID:            tournamentID,
		Name:          "Main Event",
		WorkingDayID:  &day.ID,
		Status:        models.TournamentFinished,
		Fee:           dec("10"),
		BuyIn:         dec("90"),
		StartingChips: 10000,
		TotalEntries:  2,
	}
	if err := db.Create(&tournament).Error; err != nil {
		t.Fatalf("Failed to create tournament: %v", err)
	}

	session, err := svc.OpenSession(day.ID, 5)
	if err != nil {
		t.Fatalf("OpenSession() failed: %v", err)
	}

	// Tournament money: two entries, one rebuy, one payout.
	recordEntry(t, ledgerSvc, ledger.RecordInput{
		WorkingDayID: day.ID, TournamentID: &tournamentID,
		Type: ledger.TypeBuyIn, Amount: dec("100"), Method: ledger.MethodCash,
	})
	recordEntry(t, ledgerSvc, ledger.RecordInput{
		WorkingDayID: day.ID, TournamentID: &tournamentID,
		Type: ledger.TypeBuyIn, Amount: dec("100"), Method: ledger.MethodTransfer, Provider: "wise",
	})
	recordEntry(t, ledgerSvc, ledger.RecordInput{
		WorkingDayID: day.ID, TournamentID: &tournamentID,
		Type: ledger.TypeReBuy, Amount: dec("100"), Method: ledger.MethodCash,
	})
	recordEntry(t, ledgerSvc, ledger.RecordInput{
		WorkingDayID: day.ID, TournamentID: &tournamentID,
		Type: ledger.TypePrizePayout, Amount: dec("-200"), Method: ledger.MethodCash,
	})

	// Cash session money.
	recordEntry(t, ledgerSvc, ledger.RecordInput{
		WorkingDayID: day.ID, SessionID: &session.ID,
		Type: ledger.TypeCashBuyIn, Amount: dec("500"), Method: ledger.MethodCash,
	})
	recordEntry(t, ledgerSvc, ledger.RecordInput{
		WorkingDayID: day.ID, SessionID: &session.ID,
		Type: ledger.TypeCashOut, Amount: dec("-350"), Method: ledger.MethodCash,
	})

	// A pending service sale counts as debt, not received money.
	recordEntry(t, ledgerSvc, ledger.RecordInput{
		WorkingDayID: day.ID,
		Type:         ledger.TypeServiceSale, Amount: dec("40"), Method: ledger.MethodBalance,
		Status: ledger.StatusPending,
	})

	// House revenue beyond the cash tables.
	recordEntry(t, ledgerSvc, ledger.RecordInput{
		WorkingDayID: day.ID,
		Type:         ledger.TypeHouseRake, Amount: dec("25"), Method: ledger.MethodCash,
	})
	recordEntry(t, ledgerSvc, ledger.RecordInput{
		WorkingDayID: day.ID,
		Type:         ledger.TypeServiceSale, Amount: dec("15"), Method: ledger.MethodCash,
	})

	report, err := svc.BuildDailyReport(day.ID)
	if err != nil {
		t.Fatalf("BuildDailyReport() failed: %v", err)
	}

	if !report.Treasury.TotalInflow.Equal(dec("840")) {
		t.Errorf("TotalInflow = %s, want 840", report.Treasury.TotalInflow)
	}
	if !report.Treasury.TotalOutflow.Equal(dec("550")) {
		t.Errorf("TotalOutflow = %s, want 550", report.Treasury.TotalOutflow)
	}
	if !report.Treasury.PendingDebt.Equal(dec("40")) {
		t.Errorf("PendingDebt = %s, want 40", report.Treasury.PendingDebt)
	}

	if len(report.Tournaments) != 1 {
		t.Fatalf("expected 1 tournament in report, got %d", len(report.Tournaments))
	}
	tr := report.Tournaments[0]
	if tr.Rebuys != 1 {
		t.Errorf("Rebuys = %d, want 1", tr.Rebuys)
	}
	if !tr.Collected.Equal(dec("300")) {
		t.Errorf("Collected = %s, want 300", tr.Collected)
	}
	// Two buy-ins minus the 10 fee each, plus the rebuy in full.
	if !tr.PrizePool.Equal(dec("280")) {
		t.Errorf("PrizePool = %s, want 280", tr.PrizePool)
	}
	if !tr.PaidOut.Equal(dec("200")) {
		t.Errorf("PaidOut = %s, want 200", tr.PaidOut)
	}

	if len(report.Sessions) != 1 {
		t.Fatalf("expected 1 session in report, got %d", len(report.Sessions))
	}
	sr := report.Sessions[0]
	if !sr.BuyIns.Equal(dec("500")) || !sr.CashOuts.Equal(dec("350")) || !sr.Net.Equal(dec("150")) {
		t.Errorf("session figures wrong: buyins=%s cashouts=%s net=%s", sr.BuyIns, sr.CashOuts, sr.Net)
	}

	cash := report.CashGames
	if cash.Tables != 1 {
		t.Errorf("cash tables = %d, want 1", cash.Tables)
	}
	if cash.Hours <= 0 {
		t.Errorf("cash hours = %f, want > 0", cash.Hours)
	}
	if !cash.BuyIns.Equal(dec("500")) || !cash.CashOuts.Equal(dec("350")) || !cash.GrossProfit.Equal(dec("150")) {
		t.Errorf("cash summary wrong: buyins=%s cashouts=%s gross=%s", cash.BuyIns, cash.CashOuts, cash.GrossProfit)
	}

	// Net profit: cash gross profit plus rake and the paid service sale.
	if !report.NetProfit.Equal(dec("190")) {
		t.Errorf("NetProfit = %s, want 190", report.NetProfit)
	}
}
