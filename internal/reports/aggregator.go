package reports

import (
	"time"

	"poker-club/backend/internal/engine"
	"poker-club/backend/internal/ledger"
	"poker-club/backend/internal/models"

	"github.com/shopspring/decimal"
)

// TournamentReport is the per-tournament slice of a daily report.
type TournamentReport struct {
	ID        string                  `json:"id"`
	Name      string                  `json:"name"`
	Status    models.TournamentStatus `json:"status"`
	Entries   int                     `json:"entries"`
	Rebuys    int                     `json:"rebuys"`
	Addons    int                     `json:"addons"`
	Collected decimal.Decimal         `json:"collected"`
	PrizePool decimal.Decimal         `json:"prize_pool"`
	Overlay   decimal.Decimal         `json:"overlay"`
	PaidOut   decimal.Decimal         `json:"paid_out"`
}

// SessionReport is the per-cash-session slice of a daily report.
type SessionReport struct {
	ID          string                   `json:"id"`
	TableNumber int                      `json:"table_number"`
	Status      models.CashSessionStatus `json:"status"`
	BuyIns      decimal.Decimal          `json:"buy_ins"`
	CashOuts    decimal.Decimal          `json:"cash_outs"`
	Net         decimal.Decimal          `json:"net"`
}

// CashGameSummary totals the day's cash-game activity across every
// session.
type CashGameSummary struct {
	Tables      int             `json:"tables"`
	Hours       float64         `json:"hours"`
	BuyIns      decimal.Decimal `json:"buy_ins"`
	CashOuts    decimal.Decimal `json:"cash_outs"`
	GrossProfit decimal.Decimal `json:"gross_profit"`
}

// DailyReport is the full financial and operational picture of one
// working day, derived entirely from the ledger and the day's records.
// NetProfit is the house take: cash-game gross profit plus rake and
// service sales.
type DailyReport struct {
	Day         models.WorkingDay      `json:"day"`
	Treasury    ledger.TreasurySummary `json:"treasury"`
	Tournaments []TournamentReport     `json:"tournaments"`
	Sessions    []SessionReport        `json:"sessions"`
	CashGames   CashGameSummary        `json:"cash_games"`
	NetProfit   decimal.Decimal        `json:"net_profit"`
	GeneratedAt time.Time              `json:"generated_at"`
}

// BuildDailyReport aggregates everything recorded against a working day.
// The report is a pure read: it can be regenerated at any time and always
// reflects the ledger as of now.
func (s *Service) BuildDailyReport(dayID string) (*DailyReport, error) {
	day, err := s.GetDay(dayID)
	if err != nil {
		return nil, err
	}

	var entries []ledger.Transaction
	if err := s.db.Where("working_day_id = ?", dayID).
		Order("created_at ASC").
		Find(&entries).Error; err != nil {
		return nil, err
	}

	report := &DailyReport{
		Day:         *day,
		Treasury:    ledger.Summarize(entries),
		GeneratedAt: time.Now(),
	}
	entries = ledger.Effective(entries)

	byTournament := make(map[string][]ledger.Transaction)
	bySession := make(map[string][]ledger.Transaction)
	for _, e := range entries {
		if e.TournamentID != nil {
			byTournament[*e.TournamentID] = append(byTournament[*e.TournamentID], e)
		}
		if e.SessionID != nil {
			bySession[*e.SessionID] = append(bySession[*e.SessionID], e)
		}
	}

	var tournaments []models.Tournament
	if err := s.db.Where("working_day_id = ?", dayID).
		Order("scheduled_at ASC").
		Find(&tournaments).Error; err != nil {
		return nil, err
	}
	for i := range tournaments {
		tr, err := s.tournamentReport(&tournaments[i], byTournament[tournaments[i].ID])
		if err != nil {
			return nil, err
		}
		report.Tournaments = append(report.Tournaments, tr)
	}

	var sessions []models.CashSession
	if err := s.db.Where("working_day_id = ?", dayID).
		Order("opened_at ASC").
		Find(&sessions).Error; err != nil {
		return nil, err
	}
	cash := CashGameSummary{
		Tables:      len(sessions),
		BuyIns:      decimal.Zero,
		CashOuts:    decimal.Zero,
		GrossProfit: decimal.Zero,
	}
	now := time.Now()
	for _, session := range sessions {
		sr := sessionReport(session, bySession[session.ID])
		report.Sessions = append(report.Sessions, sr)

		end := now
		if session.ClosedAt != nil {
			end = *session.ClosedAt
		}
		cash.Hours += end.Sub(session.OpenedAt).Hours()
		cash.BuyIns = cash.BuyIns.Add(sr.BuyIns)
		cash.CashOuts = cash.CashOuts.Add(sr.CashOuts)
	}
	cash.GrossProfit = cash.BuyIns.Sub(cash.CashOuts)
	report.CashGames = cash

	report.NetProfit = cash.GrossProfit.
		Add(report.Treasury.ByType[ledger.TypeHouseRake]).
		Add(report.Treasury.ByType[ledger.TypeServiceSale])

	return report, nil
}

func (s *Service) tournamentReport(t *models.Tournament, entries []ledger.Transaction) (TournamentReport, error) {
	tr := TournamentReport{
		ID:        t.ID,
		Name:      t.Name,
		Status:    t.Status,
		Entries:   t.TotalEntries,
		Collected: decimal.Zero,
		Overlay:   decimal.Zero,
		PaidOut:   decimal.Zero,
	}

	for _, e := range entries {
		if e.Status != ledger.StatusPaid {
			continue
		}
		switch {
		case e.Type == ledger.TypeReBuy:
			tr.Rebuys++
			tr.Collected = tr.Collected.Add(e.Amount)
		case e.Type == ledger.TypeAddOn:
			tr.Addons++
			tr.Collected = tr.Collected.Add(e.Amount)
		case e.Type.Inflow():
			tr.Collected = tr.Collected.Add(e.Amount)
		case e.Type == ledger.TypePrizePayout || e.Type == ledger.TypeBounty:
			tr.PaidOut = tr.PaidOut.Add(e.Amount.Abs())
		}
	}

	tr.PrizePool = engine.PrizePoolFromEntries(t, entries)
	if t.GuaranteedAmount.GreaterThan(tr.PrizePool) {
		tr.Overlay = t.GuaranteedAmount.Sub(tr.PrizePool)
		tr.PrizePool = t.GuaranteedAmount
	}
	return tr, nil
}

func sessionReport(session models.CashSession, entries []ledger.Transaction) SessionReport {
	sr := SessionReport{
		ID:          session.ID,
		TableNumber: session.TableNumber,
		Status:      session.Status,
		BuyIns:      decimal.Zero,
		CashOuts:    decimal.Zero,
	}
	for _, e := range entries {
		if e.Status != ledger.StatusPaid {
			continue
		}
		switch e.Type {
		case ledger.TypeCashBuyIn:
			sr.BuyIns = sr.BuyIns.Add(e.Amount)
		case ledger.TypeCashOut:
			sr.CashOuts = sr.CashOuts.Add(e.Amount.Abs())
		}
	}
	sr.Net = sr.BuyIns.Sub(sr.CashOuts)
	return sr
}
