package engine

import (
	"log"
	"strconv"

	"poker-club/backend/internal/ledger"
	"poker-club/backend/internal/models"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Payout is one computed prize.
type Payout struct {
	Position int             `json:"position"`
	Amount   decimal.Decimal `json:"amount"`
	PlayerID string          `json:"player_id,omitempty"`
}

// ComputePrizePool derives the pool from the ledger: every settled entry
// purchase counts in full except the house fee, which is withheld once per
// buy-in. A guarantee raises the pool when collections fall short; the
// difference is the house overlay.
func (s *Service) ComputePrizePool(t *models.Tournament) (pool, overlay decimal.Decimal, err error) {
	entries, err := s.ledger.ListByTournament(t.ID)
	if err != nil {
		return decimal.Zero, decimal.Zero, err
	}
	pool = PrizePoolFromEntries(t, entries)
	if t.GuaranteedAmount.GreaterThan(pool) {
		overlay = t.GuaranteedAmount.Sub(pool)
		pool = t.GuaranteedAmount
	}
	return pool, overlay, nil
}

// PrizePoolFromEntries folds settled ledger entries into the raw pool,
// before any guarantee is applied.
func PrizePoolFromEntries(t *models.Tournament, entries []ledger.Transaction) decimal.Decimal {
	pool := decimal.Zero
	for _, e := range entries {
		if e.Status != ledger.StatusPaid {
			continue
		}
		switch e.Type {
		case ledger.TypeBuyIn, ledger.TypeLateReg:
			pool = pool.Add(e.Amount).Sub(t.Fee)
		case ledger.TypeReBuy, ledger.TypeAddOn:
			pool = pool.Add(e.Amount)
		}
	}
	if pool.IsNegative() {
		return decimal.Zero
	}
	return pool
}

// SplitPool distributes a pool over the payout tiers. Each tier gets its
// percentage rounded to cents; whatever is left of the pool after that,
// rounding dust or an under-100 split, lands on the first tier so the
// payouts always sum to the pool exactly.
func SplitPool(pool decimal.Decimal, tiers []models.PayoutTier) []Payout {
	if len(tiers) == 0 || pool.IsZero() {
		return nil
	}

	payouts := make([]Payout, len(tiers))
	sum := decimal.Zero
	for i, tier := range tiers {
		amount := pool.Mul(tier.Percentage).Div(hundred).Round(2)
		payouts[i] = Payout{Position: tier.Position, Amount: amount}
		sum = sum.Add(amount)
	}

	if diff := pool.Sub(sum); !diff.IsZero() {
		payouts[0].Amount = payouts[0].Amount.Add(diff)
	}
	return payouts
}

// DistributePayouts computes the prize pool, splits it over the payout
// tiers and records one payout entry per paying finisher. Positions with
// no finisher are skipped.
func (s *Service) DistributePayouts(t *models.Tournament) ([]Payout, error) {
	pool, overlay, err := s.ComputePrizePool(t)
	if err != nil {
		return nil, err
	}
	payouts := SplitPool(pool, t.PayoutTiers)
	if len(payouts) == 0 {
		return nil, nil
	}
	if !overlay.IsZero() {
		log.Printf("[ENGINE] Tournament %s pays on a %s overlay", t.ID, overlay)
	}

	var finishers []models.TournamentRegistration
	if err := s.db.Where("tournament_id = ? AND finish_position IS NOT NULL", t.ID).
		Find(&finishers).Error; err != nil {
		return nil, err
	}
	byPosition := make(map[int]*models.TournamentRegistration, len(finishers))
	for i := range finishers {
		byPosition[*finishers[i].FinishPosition] = &finishers[i]
	}

	var recorded []Payout
	for _, p := range payouts {
		reg, ok := byPosition[p.Position]
		if !ok || p.Amount.IsZero() {
			continue
		}
		p.PlayerID = reg.PlayerID

		if t.WorkingDayID != nil {
			if _, err := s.ledger.Record(ledger.RecordInput{
				WorkingDayID: *t.WorkingDayID,
				TournamentID: &t.ID,
				PlayerID:     &reg.PlayerID,
				Type:         ledger.TypePrizePayout,
				Amount:       p.Amount.Neg(),
				Method:       ledger.MethodCash,
				Description:  "prize for finishing " + ordinal(p.Position),
			}); err != nil {
				return recorded, err
			}
		}
		if err := s.db.Model(&models.TournamentRegistration{}).
			Where("id = ?", reg.ID).
			Update("payout_amount", p.Amount).Error; err != nil {
			return recorded, err
		}
		recorded = append(recorded, p)
	}

	return recorded, nil
}

func ordinal(n int) string {
	suffix := "th"
	switch n % 10 {
	case 1:
		if n%100 != 11 {
			suffix = "st"
		}
	case 2:
		if n%100 != 12 {
			suffix = "nd"
		}
	case 3:
		if n%100 != 13 {
			suffix = "rd"
		}
	}
	return strconv.Itoa(n) + suffix
}
