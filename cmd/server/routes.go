package main

import (
	"poker-club/backend/internal/auth"
	"poker-club/backend/internal/middleware"
	"poker-club/backend/internal/server/handlers"

	"github.com/gin-gonic/gin"
)

func (s *Server) registerRoutes(router *gin.Engine) {
	router.POST("/api/v1/auth/login", func(c *gin.Context) { handlers.HandleLogin(c, s.db, s.authService) })

	api := router.Group("/api/v1")
	api.Use(middleware.RequireAuth(s.authService))

	manager := middleware.RequireRole(auth.RoleManager)
	floor := middleware.RequireRole(auth.RoleFloor)

	// Operators
	api.GET("/auth/me", func(c *gin.Context) { handlers.HandleCurrentOperator(c, s.db) })
	api.POST("/auth/operators", manager, func(c *gin.Context) { handlers.HandleCreateOperator(c, s.db, s.authService) })

	// Tournaments
	tournaments := api.Group("/tournaments")
	{
		tournaments.GET("", func(c *gin.Context) { handlers.HandleListTournaments(c, s.engineService) })
		tournaments.POST("", manager, func(c *gin.Context) { handlers.HandleCreateTournament(c, s.engineService) })
		tournaments.GET("/presets", handlers.HandleListPresets)
		tournaments.GET("/:id", func(c *gin.Context) { handlers.HandleGetTournament(c, s.engineService) })

		// Lifecycle
		tournaments.POST("/:id/late-registration", floor, func(c *gin.Context) { handlers.HandleOpenLateRegistration(c, s.engineService) })
		tournaments.POST("/:id/start", floor, func(c *gin.Context) { handlers.HandleStartTournament(c, s.engineService) })
		tournaments.POST("/:id/pause", floor, func(c *gin.Context) { handlers.HandlePauseTournament(c, s.engineService) })
		tournaments.POST("/:id/resume", floor, func(c *gin.Context) { handlers.HandleResumeTournament(c, s.engineService) })
		tournaments.POST("/:id/finish", manager, func(c *gin.Context) { handlers.HandleFinishTournament(c, s.engineService) })
		tournaments.POST("/:id/cancel", manager, func(c *gin.Context) { handlers.HandleCancelTournament(c, s.engineService) })

		// Entries
		tournaments.POST("/:id/registrations", floor, func(c *gin.Context) { handlers.HandleRegisterPlayer(c, s.engineService) })
		tournaments.DELETE("/:id/registrations/:regId", floor, func(c *gin.Context) { handlers.HandleUnregisterPlayer(c, s.engineService) })
		tournaments.POST("/:id/registrations/:regId/rebuy", floor, func(c *gin.Context) { handlers.HandleRebuy(c, s.engineService) })
		tournaments.POST("/:id/registrations/:regId/addon", floor, func(c *gin.Context) { handlers.HandleAddon(c, s.engineService) })
		tournaments.POST("/:id/registrations/:regId/eliminate", floor, func(c *gin.Context) { handlers.HandleEliminatePlayer(c, s.engineService) })
		tournaments.POST("/:id/registrations/:regId/seat", floor, func(c *gin.Context) { handlers.HandleAssignSeat(c, s.engineService) })
		tournaments.GET("/:id/standings", func(c *gin.Context) { handlers.HandleStandings(c, s.engineService) })

		// Tables
		tournaments.GET("/:id/tables", func(c *gin.Context) { handlers.HandleListTables(c, s.engineService) })
		tournaments.POST("/:id/tables/seat", floor, func(c *gin.Context) { handlers.HandleSeatPlayers(c, s.engineService) })
		tournaments.POST("/:id/tables/rebalance", floor, func(c *gin.Context) { handlers.HandleRebalanceTables(c, s.engineService) })

		// Money
		tournaments.GET("/:id/prize-pool", func(c *gin.Context) { handlers.HandlePrizePool(c, s.engineService) })
	}

	// Ledger
	transactions := api.Group("/transactions")
	{
		transactions.GET("", func(c *gin.Context) { handlers.HandleListTransactions(c, s.ledgerService) })
		transactions.POST("", floor, func(c *gin.Context) { handlers.HandleRecordTransaction(c, s.ledgerService) })
		transactions.POST("/:txId/settle", floor, func(c *gin.Context) { handlers.HandleSettleTransaction(c, s.ledgerService) })
		transactions.POST("/:txId/void", manager, func(c *gin.Context) { handlers.HandleVoidTransaction(c, s.ledgerService) })
	}
	api.GET("/treasury", func(c *gin.Context) { handlers.HandleTreasurySummary(c, s.ledgerService) })

	// Working days and cash sessions
	days := api.Group("/working-days")
	{
		days.POST("", manager, func(c *gin.Context) { handlers.HandleOpenDay(c, s.reportService) })
		days.POST("/:id/close", manager, func(c *gin.Context) { handlers.HandleCloseDay(c, s.reportService) })
		days.GET("/:id/report", func(c *gin.Context) { handlers.HandleDailyReport(c, s.reportService) })
		days.POST("/:id/sessions", floor, func(c *gin.Context) { handlers.HandleOpenSession(c, s.reportService) })
	}
	api.POST("/sessions/:sessionId/close", floor, func(c *gin.Context) { handlers.HandleCloseSession(c, s.reportService) })
}
