package handlers

import (
	"net/http"

	"poker-club/backend/internal/auth"
	"poker-club/backend/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type createOperatorRequest struct {
	Username string    `json:"username" binding:"required"`
	Password string    `json:"password" binding:"required,min=8"`
	Role     auth.Role `json:"role" binding:"required"`
}

func validRole(r auth.Role) bool {
	switch r {
	case auth.RoleManager, auth.RoleFloor, auth.RoleViewer:
		return true
	}
	return false
}

// HandleLogin exchanges operator credentials for a session token
func HandleLogin(c *gin.Context, db *gorm.DB, authSvc *auth.Service) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}

	var op models.Operator
	if err := db.Where("username = ?", req.Username).First(&op).Error; err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}
	if !authSvc.CheckPassword(req.Password, op.PasswordHash) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}

	token, err := authSvc.GenerateToken(op.ID, auth.Role(op.Role))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to issue token"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": token, "operator": op})
}

// HandleCreateOperator registers a new staff account
func HandleCreateOperator(c *gin.Context, db *gorm.DB, authSvc *auth.Service) {
	var req createOperatorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}
	if !validRole(req.Role) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown role"})
		return
	}

	hash, err := authSvc.HashPassword(req.Password)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to hash password"})
		return
	}

	op := models.Operator{
		ID:           uuid.New().String(),
		Username:     req.Username,
		PasswordHash: hash,
		Role:         string(req.Role),
	}
	if err := db.Create(&op).Error; err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": "Username already exists"})
		return
	}
	c.JSON(http.StatusCreated, op)
}

// HandleCurrentOperator returns the account behind the request token
func HandleCurrentOperator(c *gin.Context, db *gorm.DB) {
	var op models.Operator
	if err := db.First(&op, "id = ?", c.GetString("operator_id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Operator not found"})
		return
	}
	c.JSON(http.StatusOK, op)
}
