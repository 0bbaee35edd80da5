package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"poker-club/backend/internal/engine"
	"poker-club/backend/internal/ledger"
	"poker-club/backend/internal/models"

	"github.com/gin-gonic/gin"
)

// HandleCreateTournament creates a new tournament
func HandleCreateTournament(c *gin.Context, svc *engine.Service) {
	var req engine.CreateTournamentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}

	t, err := svc.CreateTournament(req)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, t)
}

// HandleListTournaments lists tournaments, optionally filtered by status
// and working day
func HandleListTournaments(c *gin.Context, svc *engine.Service) {
	status := models.TournamentStatus(c.Query("status"))
	if status != "" && !status.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown status"})
		return
	}

	tournaments, err := svc.ListTournaments(status, c.Query("working_day_id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch tournaments"})
		return
	}

	c.JSON(http.StatusOK, tournaments)
}

// HandleGetTournament gets a tournament by ID
func HandleGetTournament(c *gin.Context, svc *engine.Service) {
	t, err := svc.GetTournament(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Tournament not found"})
		return
	}

	c.JSON(http.StatusOK, t)
}

// statusForEngineError maps engine errors onto HTTP codes. Revision
// conflicts surface as 409 so clients know to reload and retry.
func statusForEngineError(err error) int {
	switch {
	case errors.Is(err, engine.ErrTournamentNotFound),
		errors.Is(err, engine.ErrRegistrationNotFound),
		errors.Is(err, engine.ErrTableNotFound):
		return http.StatusNotFound
	case errors.Is(err, engine.ErrRevisionConflict):
		return http.StatusConflict
	case errors.Is(err, engine.ErrInvalidTransition),
		errors.Is(err, engine.ErrTournamentFinished),
		errors.Is(err, engine.ErrTournamentCanceled),
		errors.Is(err, engine.ErrPlayersStillActive),
		errors.Is(err, engine.ErrAlreadyRegistered),
		errors.Is(err, engine.ErrSeatTaken):
		return http.StatusConflict
	default:
		return http.StatusBadRequest
	}
}

type lifecycleFunc func(id string) (*models.Tournament, error)

func runLifecycle(c *gin.Context, fn lifecycleFunc) {
	t, err := fn(c.Param("id"))
	if err != nil {
		c.JSON(statusForEngineError(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, t)
}

// HandleOpenLateRegistration moves a tournament into late registration
func HandleOpenLateRegistration(c *gin.Context, svc *engine.Service) {
	runLifecycle(c, svc.OpenLateRegistration)
}

// HandleStartTournament starts a tournament and its clock
func HandleStartTournament(c *gin.Context, svc *engine.Service) {
	runLifecycle(c, svc.Start)
}

// HandlePauseTournament pauses a running tournament
func HandlePauseTournament(c *gin.Context, svc *engine.Service) {
	runLifecycle(c, svc.Pause)
}

// HandleResumeTournament resumes a paused tournament
func HandleResumeTournament(c *gin.Context, svc *engine.Service) {
	runLifecycle(c, svc.Resume)
}

// HandleFinishTournament finishes a tournament and distributes prizes
func HandleFinishTournament(c *gin.Context, svc *engine.Service) {
	runLifecycle(c, svc.Finish)
}

// HandleCancelTournament cancels a tournament and refunds paid entries
func HandleCancelTournament(c *gin.Context, svc *engine.Service) {
	var req struct {
		Reason string `json:"reason"`
	}
	_ = c.ShouldBindJSON(&req)

	t, err := svc.Cancel(c.Param("id"), req.Reason)
	if err != nil {
		c.JSON(statusForEngineError(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, t)
}

// HandleRegisterPlayer sells an entry
func HandleRegisterPlayer(c *gin.Context, svc *engine.Service) {
	var req engine.RegisterPlayerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}
	if req.RecordedBy == "" {
		req.RecordedBy = c.GetString("operator_id")
	}

	reg, err := svc.RegisterPlayer(c.Param("id"), req)
	if err != nil {
		c.JSON(statusForEngineError(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, reg)
}

// HandleUnregisterPlayer withdraws an entry and refunds it
func HandleUnregisterPlayer(c *gin.Context, svc *engine.Service) {
	if err := svc.Unregister(c.Param("id"), c.Param("regId")); err != nil {
		c.JSON(statusForEngineError(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "unregistered"})
}

type purchaseRequest struct {
	Method   ledger.PaymentMethod `json:"method" binding:"required"`
	Provider string               `json:"provider"`
}

// HandleRebuy sells a rebuy inside the rebuy window
func HandleRebuy(c *gin.Context, svc *engine.Service) {
	var req purchaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}

	reg, err := svc.Rebuy(c.Param("id"), c.Param("regId"), req.Method, req.Provider)
	if err != nil {
		c.JSON(statusForEngineError(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, reg)
}

// HandleAddon sells an addon inside the addon window
func HandleAddon(c *gin.Context, svc *engine.Service) {
	var req purchaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}

	reg, err := svc.Addon(c.Param("id"), c.Param("regId"), req.Method, req.Provider)
	if err != nil {
		c.JSON(statusForEngineError(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, reg)
}

// HandleEliminatePlayer knocks a player out
func HandleEliminatePlayer(c *gin.Context, svc *engine.Service) {
	var req struct {
		EliminatorRegID *string `json:"eliminator_registration_id"`
	}
	_ = c.ShouldBindJSON(&req)

	reg, err := svc.EliminatePlayer(c.Param("id"), c.Param("regId"), req.EliminatorRegID)
	if err != nil {
		c.JSON(statusForEngineError(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, reg)
}

// HandleStandings returns the live standings of a tournament
func HandleStandings(c *gin.Context, svc *engine.Service) {
	standings, err := svc.Standings(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch standings"})
		return
	}
	c.JSON(http.StatusOK, standings)
}

// HandleSeatPlayers deals unseated players onto tables
func HandleSeatPlayers(c *gin.Context, svc *engine.Service) {
	tables, err := svc.SeatPlayers(c.Param("id"))
	if err != nil {
		c.JSON(statusForEngineError(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, tables)
}

// HandleAssignSeat moves a player to a specific seat
func HandleAssignSeat(c *gin.Context, svc *engine.Service) {
	var req struct {
		TableID    string `json:"table_id" binding:"required"`
		SeatNumber int    `json:"seat_number" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}

	if err := svc.AssignSeat(c.Param("id"), c.Param("regId"), req.TableID, req.SeatNumber); err != nil {
		c.JSON(statusForEngineError(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "seated"})
}

// HandleListTables lists a tournament's tables
func HandleListTables(c *gin.Context, svc *engine.Service) {
	tables, err := svc.ListTables(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch tables"})
		return
	}
	c.JSON(http.StatusOK, tables)
}

// HandleRebalanceTables forces a table rebalance
func HandleRebalanceTables(c *gin.Context, svc *engine.Service) {
	if err := svc.RebalanceTables(c.Param("id")); err != nil {
		c.JSON(statusForEngineError(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "rebalanced"})
}

// HandlePrizePool previews the current prize pool and payouts
func HandlePrizePool(c *gin.Context, svc *engine.Service) {
	t, err := svc.GetTournament(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Tournament not found"})
		return
	}

	pool, overlay, err := svc.ComputePrizePool(t)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to compute prize pool"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"pool":    pool,
		"overlay": overlay,
		"payouts": engine.SplitPool(pool, t.PayoutTiers),
	})
}

// HandleListPresets lists blind structure and payout presets
func HandleListPresets(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"structures": engine.StructurePresetNames(),
		"payouts":    engine.PayoutPresetNames(),
	})
}

// parseIntQuery reads an integer query parameter with a fallback.
func parseIntQuery(c *gin.Context, name string, fallback int) int {
	v, err := strconv.Atoi(c.DefaultQuery(name, strconv.Itoa(fallback)))
	if err != nil {
		return fallback
	}
	return v
}
