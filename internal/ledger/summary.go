package ledger

import (
	"github.com/shopspring/decimal"
)

// knownProviders are the transfer providers reported individually; anything
// else lands in the "other" bucket.
var knownProviders = map[string]bool{
	"bank":    true,
	"wise":    true,
	"paypal":  true,
	"revolut": true,
}

const providerOther = "other"

// Summarize folds a slice of entries into a treasury summary. Corrections
// and the entries they cancel are skipped, pending entries of any type
// count only toward PendingDebt, the per-method breakdown covers received
// funds only, and every figure is computed with exact decimal arithmetic.
func Summarize(entries []Transaction) TreasurySummary {
	sum := TreasurySummary{
		TotalInflow:  decimal.Zero,
		TotalOutflow: decimal.Zero,
		NetBalance:   decimal.Zero,
		PendingDebt:  decimal.Zero,
		ByType:       make(map[TransactionType]decimal.Decimal),
	}

	byMethod := make(map[PaymentMethod]decimal.Decimal)
	byProvider := make(map[string]decimal.Decimal)

	corrected := make(map[string]bool)
	for _, e := range entries {
		if e.CorrectsID != nil {
			corrected[*e.CorrectsID] = true
		}
	}

	for _, e := range entries {
		if e.Status == StatusVoided || corrected[e.ID] {
			continue
		}
		if e.Status == StatusPending {
			sum.PendingDebt = sum.PendingDebt.Add(e.Amount.Abs())
			continue
		}

		sum.EntryCount++
		sum.ByType[e.Type] = sum.ByType[e.Type].Add(e.Amount)

		if !e.Type.Inflow() {
			sum.TotalOutflow = sum.TotalOutflow.Add(e.Amount.Abs())
			continue
		}
		sum.TotalInflow = sum.TotalInflow.Add(e.Amount)

		byMethod[e.Method] = byMethod[e.Method].Add(e.Amount)
		if e.Method == MethodTransfer {
			p := e.Provider
			if !knownProviders[p] {
				p = providerOther
			}
			byProvider[p] = byProvider[p].Add(e.Amount)
		}
	}

	sum.NetBalance = sum.TotalInflow.Sub(sum.TotalOutflow)

	for _, m := range []PaymentMethod{MethodCash, MethodCourtesy, MethodBalance, MethodTransfer} {
		total, ok := byMethod[m]
		if !ok {
			continue
		}
		mt := MethodTotal{Method: m, Total: total}
		if m == MethodTransfer && len(byProvider) > 0 {
			mt.ByProvider = byProvider
		}
		sum.ByMethod = append(sum.ByMethod, mt)
	}

	return sum
}

// SummarizeTournament aggregates every entry recorded against a tournament.
func (s *Service) SummarizeTournament(tournamentID string) (TreasurySummary, error) {
	var txs []Transaction
	if err := s.db.Where("tournament_id = ?", tournamentID).Find(&txs).Error; err != nil {
		return TreasurySummary{}, err
	}
	return Summarize(txs), nil
}

// SummarizeWorkingDay aggregates every entry recorded against a working day.
func (s *Service) SummarizeWorkingDay(workingDayID string) (TreasurySummary, error) {
	var txs []Transaction
	if err := s.db.Where("working_day_id = ?", workingDayID).Find(&txs).Error; err != nil {
		return TreasurySummary{}, err
	}
	return Summarize(txs), nil
}
