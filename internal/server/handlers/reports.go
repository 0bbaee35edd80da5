package handlers

import (
	"errors"
	"net/http"

	"poker-club/backend/internal/reports"

	"github.com/gin-gonic/gin"
)

func statusForReportsError(err error) int {
	switch {
	case errors.Is(err, reports.ErrDayNotFound), errors.Is(err, reports.ErrSessionNotFound):
		return http.StatusNotFound
	case errors.Is(err, reports.ErrDayAlreadyOpen),
		errors.Is(err, reports.ErrDayClosed),
		errors.Is(err, reports.ErrSessionsStillOpen),
		errors.Is(err, reports.ErrTournamentsLive),
		errors.Is(err, reports.ErrSessionClosed):
		return http.StatusConflict
	default:
		return http.StatusBadRequest
	}
}

// HandleOpenDay opens the working day for a date
func HandleOpenDay(c *gin.Context, svc *reports.Service) {
	var req struct {
		Date string `json:"date" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}

	day, err := svc.OpenDay(req.Date)
	if err != nil {
		c.JSON(statusForReportsError(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, day)
}

// HandleCloseDay closes a working day
func HandleCloseDay(c *gin.Context, svc *reports.Service) {
	day, err := svc.CloseDay(c.Param("id"))
	if err != nil {
		c.JSON(statusForReportsError(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, day)
}

// HandleDailyReport builds the full report for a working day
func HandleDailyReport(c *gin.Context, svc *reports.Service) {
	report, err := svc.BuildDailyReport(c.Param("id"))
	if err != nil {
		c.JSON(statusForReportsError(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, report)
}

// HandleOpenSession opens a cash session inside a working day
func HandleOpenSession(c *gin.Context, svc *reports.Service) {
	var req struct {
		TableNumber int `json:"table_number" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}

	session, err := svc.OpenSession(c.Param("id"), req.TableNumber)
	if err != nil {
		c.JSON(statusForReportsError(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, session)
}

// HandleCloseSession closes a cash session
func HandleCloseSession(c *gin.Context, svc *reports.Service) {
	session, err := svc.CloseSession(c.Param("sessionId"))
	if err != nil {
		c.JSON(statusForReportsError(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, session)
}
