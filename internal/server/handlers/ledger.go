package handlers

import (
	"errors"
	"net/http"

	"poker-club/backend/internal/ledger"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type recordTransactionRequest struct {
	WorkingDayID string                 `json:"working_day_id" binding:"required"`
	TournamentID *string                `json:"tournament_id"`
	SessionID    *string                `json:"session_id"`
	PlayerID     *string                `json:"player_id"`
	Type         ledger.TransactionType `json:"type" binding:"required"`
	Amount       decimal.Decimal        `json:"amount" binding:"required"`
	Method       ledger.PaymentMethod   `json:"method" binding:"required"`
	Provider     string                 `json:"provider"`
	OnCredit     bool                   `json:"on_credit"`
	Description  string                 `json:"description"`
}

func statusForLedgerError(err error) int {
	switch {
	case errors.Is(err, ledger.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ledger.ErrNotPending), errors.Is(err, ledger.ErrAlreadyVoided):
		return http.StatusConflict
	default:
		return http.StatusBadRequest
	}
}

// HandleRecordTransaction appends a ledger entry
func HandleRecordTransaction(c *gin.Context, svc *ledger.Service) {
	var req recordTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}

	status := ledger.StatusPaid
	if req.OnCredit {
		status = ledger.StatusPending
	}

	tx, err := svc.Record(ledger.RecordInput{
		WorkingDayID: req.WorkingDayID,
		TournamentID: req.TournamentID,
		SessionID:    req.SessionID,
		PlayerID:     req.PlayerID,
		Type:         req.Type,
		Amount:       req.Amount,
		Method:       req.Method,
		Provider:     req.Provider,
		Status:       status,
		Description:  req.Description,
		RecordedBy:   c.GetString("operator_id"),
	})
	if err != nil {
		c.JSON(statusForLedgerError(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, tx)
}

// HandleSettleTransaction flips a pending entry to paid. The method is
// optional; when omitted the entry settles with the method it was
// recorded under.
func HandleSettleTransaction(c *gin.Context, svc *ledger.Service) {
	var req struct {
		Method   ledger.PaymentMethod `json:"method"`
		Provider string               `json:"provider"`
	}
	_ = c.ShouldBindJSON(&req)

	tx, err := svc.Settle(c.Param("txId"), req.Method, req.Provider)
	if err != nil {
		c.JSON(statusForLedgerError(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, tx)
}

// HandleVoidTransaction appends an offsetting correction for an entry
func HandleVoidTransaction(c *gin.Context, svc *ledger.Service) {
	var req struct {
		Reason string `json:"reason"`
	}
	_ = c.ShouldBindJSON(&req)

	tx, err := svc.Void(c.Param("txId"), req.Reason)
	if err != nil {
		c.JSON(statusForLedgerError(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, tx)
}

// HandleListTransactions lists entries for a tournament or working day
func HandleListTransactions(c *gin.Context, svc *ledger.Service) {
	var (
		txs []ledger.Transaction
		err error
	)
	if tournamentID := c.Query("tournament_id"); tournamentID != "" {
		txs, err = svc.ListByTournament(tournamentID)
	} else if dayID := c.Query("working_day_id"); dayID != "" {
		txs, err = svc.ListByWorkingDay(dayID)
	} else {
		c.JSON(http.StatusBadRequest, gin.H{"error": "tournament_id or working_day_id is required"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch transactions"})
		return
	}

	limit := parseIntQuery(c, "limit", len(txs))
	if limit < len(txs) {
		txs = txs[:limit]
	}
	c.JSON(http.StatusOK, txs)
}

// HandleTreasurySummary aggregates entries for a tournament or working day
func HandleTreasurySummary(c *gin.Context, svc *ledger.Service) {
	var (
		summary ledger.TreasurySummary
		err     error
	)
	if tournamentID := c.Query("tournament_id"); tournamentID != "" {
		summary, err = svc.SummarizeTournament(tournamentID)
	} else if dayID := c.Query("working_day_id"); dayID != "" {
		summary, err = svc.SummarizeWorkingDay(dayID)
	} else {
		c.JSON(http.StatusBadRequest, gin.H{"error": "tournament_id or working_day_id is required"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to build summary"})
		return
	}
	c.JSON(http.StatusOK, summary)
}
