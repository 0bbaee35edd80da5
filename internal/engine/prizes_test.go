package engine

import (
	"testing"

	"poker-club/backend/internal/ledger"
	"poker-club/backend/internal/models"

	"github.com/shopspring/decimal"
)

func TestSplitPool_PayoutsSumToPool(t *testing.T) {
	tiers := []models.PayoutTier{
		{Position: 1, Percentage: dec("33.33")},
		{Position: 2, Percentage: dec("33.33")},
		{Position: 3, Percentage: dec("33.34")},
	}

	pool := dec("99.99")
	payouts := SplitPool(pool, tiers)
	if len(payouts) != 3 {
		t.Fatalf("expected 3 payouts, got %d", len(payouts))
	}

	sum := decimal.Zero
	for _, p := range payouts {
		if p.Amount.Exponent() < -2 {
			t.Errorf("payout %d has sub-cent precision: %s", p.Position, p.Amount)
		}
		sum = sum.Add(p.Amount)
	}
	if !sum.Equal(pool) {
		t.Errorf("payouts sum to %s, want %s", sum, pool)
	}
}

func TestSplitPool_RemainderGoesToFirst(t *testing.T) {
	tiers := []models.PayoutTier{
		{Position: 1, Percentage: dec("33.33")},
		{Position: 2, Percentage: dec("33.33")},
		{Position: 3, Percentage: dec("33.34")},
	}

	payouts := SplitPool(dec("99.99"), tiers)

	// Plain rounding gives 33.33 + 33.33 + 33.34 = 100.00, one cent over
	// the pool; the first tier absorbs the difference.
	if !payouts[0].Amount.Equal(dec("33.32")) {
		t.Errorf("first payout = %s, want 33.32", payouts[0].Amount)
	}
	if !payouts[1].Amount.Equal(dec("33.33")) || !payouts[2].Amount.Equal(dec("33.34")) {
		t.Errorf("lower payouts changed: %s, %s", payouts[1].Amount, payouts[2].Amount)
	}
}

func TestSplitPool_Under100SplitStillPaysFullPool(t *testing.T) {
	tiers := []models.PayoutTier{
		{Position: 1, Percentage: dec("50")},
		{Position: 2, Percentage: dec("40")},
	}

	payouts := SplitPool(dec("100"), tiers)

	// The 10% the tiers leave unclaimed goes to first place so the whole
	// pool is always paid out.
	if !payouts[0].Amount.Equal(dec("60")) {
		t.Errorf("first payout = %s, want 60", payouts[0].Amount)
	}
	if !payouts[1].Amount.Equal(dec("40")) {
		t.Errorf("second payout = %s, want 40", payouts[1].Amount)
	}
}

func TestSplitPool_EmptyInputs(t *testing.T) {
	if got := SplitPool(decimal.Zero, []models.PayoutTier{{Position: 1, Percentage: dec("100")}}); got != nil {
		t.Errorf("zero pool should pay nothing, got %v", got)
	}
	if got := SplitPool(dec("100"), nil); got != nil {
		t.Errorf("no tiers should pay nothing, got %v", got)
	}
}

func TestPrizePool_FeeWithheldPerEntry(t *testing.T) {
	tourney := &models.Tournament{Fee: dec("10")}
	entries := []ledger.Transaction{
		{Type: ledger.TypeBuyIn, Amount: dec("100"), Status: ledger.StatusPaid},
		{Type: ledger.TypeBuyIn, Amount: dec("100"), Status: ledger.StatusPaid},
		{Type: ledger.TypeLateReg, Amount: dec("100"), Status: ledger.StatusPaid},
	}

	pool := PrizePoolFromEntries(tourney, entries)
	if !pool.Equal(dec("270")) {
		t.Errorf("pool = %s, want 270", pool)
	}
}

func TestPrizePool_RebuysAndAddonsCountFull(t *testing.T) {
	tourney := &models.Tournament{Fee: dec("10")}
	entries := []ledger.Transaction{
		{Type: ledger.TypeBuyIn, Amount: dec("100"), Status: ledger.StatusPaid},
		{Type: ledger.TypeReBuy, Amount: dec("100"), Status: ledger.StatusPaid},
		{Type: ledger.TypeAddOn, Amount: dec("50"), Status: ledger.StatusPaid},
	}

	pool := PrizePoolFromEntries(tourney, entries)
	if !pool.Equal(dec("240")) {
		t.Errorf("pool = %s, want 240", pool)
	}
}

func TestPrizePool_IgnoresPendingAndServiceSales(t *testing.T) {
	tourney := &models.Tournament{Fee: decimal.Zero}
	entries := []ledger.Transaction{
		{Type: ledger.TypeBuyIn, Amount: dec("100"), Status: ledger.StatusPaid},
		{Type: ledger.TypeBuyIn, Amount: dec("100"), Status: ledger.StatusPending},
		{Type: ledger.TypeServiceSale, Amount: dec("30"), Status: ledger.StatusPaid},
	}

	pool := PrizePoolFromEntries(tourney, entries)
	if !pool.Equal(dec("100")) {
		t.Errorf("pool = %s, want 100", pool)
	}
}

func TestComputePrizePool_GuaranteeOverlay(t *testing.T) {
	svc, db := newTestService(t)
	dayID := createTestDay(t, db)

	tourney, err := svc.CreateTournament(CreateTournamentRequest{
		Name:             "Guaranteed 1K",
		WorkingDayID:     &dayID,
		BuyIn:            dec("100"),
		GuaranteedAmount: dec("1000"),
		StartingChips:    10000,
		BlindLevels:      testLevels(600, 3),
	})
	if err != nil {
		t.Fatalf("CreateTournament() failed: %v", err)
	}

	registerTestPlayer(t, svc, tourney.ID, "alice")
	registerTestPlayer(t, svc, tourney.ID, "bob")

	pool, overlay, err := svc.ComputePrizePool(tourney)
	if err != nil {
		t.Fatalf("ComputePrizePool() failed: %v", err)
	}
	if !pool.Equal(dec("1000")) {
		t.Errorf("pool = %s, want guaranteed 1000", pool)
	}
	if !overlay.Equal(dec("800")) {
		t.Errorf("overlay = %s, want 800", overlay)
	}
}

func TestDistributePayouts_RecordsLedgerEntries(t *testing.T) {
	svc, _ := newTestService(t)
	tourney := createTestTournament(t, svc, svc.db)

	alice := registerTestPlayer(t, svc, tourney.ID, "alice")
	bob := registerTestPlayer(t, svc, tourney.ID, "bob")
	if _, err := svc.Start(tourney.ID); err != nil {
		t.Fatalf("Start() failed: %v", err)
	}
	if _, err := svc.EliminatePlayer(tourney.ID, alice.ID, nil); err != nil {
		t.Fatalf("EliminatePlayer() failed: %v", err)
	}
	if _, err := svc.Finish(tourney.ID); err != nil {
		t.Fatalf("Finish() failed: %v", err)
	}

	// Pool: two entries of 100 minus 10 fee each = 180.
	// Positions 1 and 2 exist, so 50% and 30% pay out.
	entries, _ := svc.ledger.ListByTournament(tourney.ID)
	paid := map[string]decimal.Decimal{}
	for _, e := range entries {
		if e.Type == ledger.TypePrizePayout && e.PlayerID != nil {
			paid[*e.PlayerID] = e.Amount
		}
	}
	if !paid["bob"].Equal(dec("-90")) {
		t.Errorf("winner payout = %s, want -90", paid["bob"])
	}
	if !paid["alice"].Equal(dec("-54")) {
		t.Errorf("runner-up payout = %s, want -54", paid["alice"])
	}

	var winner models.TournamentRegistration
	svc.db.First(&winner, "id = ?", bob.ID)
	if !winner.PayoutAmount.Equal(dec("90")) {
		t.Errorf("winner PayoutAmount = %s, want 90", winner.PayoutAmount)
	}
}
