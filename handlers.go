package main

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"ghostbudget/models"
	"ghostbudget/pkg/charge"
	"ghostbudget/pkg/ledger"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// server carries the process-wide handles every handler needs.
type server struct {
	svc         *ledger.Service
	adminSecret []byte
}

func setupRoutes(r *gin.Engine, s *server) {
	r.Use(requestIDMiddleware())
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})
	r.POST("/predict", s.predictHandler)
	r.POST("/calculate-charge", s.calculateChargeHandler)

	r.POST("/users/", s.createUserHandler)
	r.GET("/users/:id", s.getUserHandler)
	r.GET("/users/:id/transactions", s.listTransactionsHandler)
	r.POST("/users/claim", s.claimHandler)
	r.POST("/users/continue-saving", s.continueSavingHandler)
	r.PUT("/users/update-financials/", adminAuthMiddleware(s.adminSecret), s.updateFinancialsHandler)

	r.POST("/transactions/", s.createTransactionHandler)
	r.POST("/transactions/calc", s.calcTransactionHandler)
}

// writeError maps ledger errors onto HTTP status codes.
func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ledger.ErrValidation), errors.Is(err, ledger.ErrUsernameTaken):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, ledger.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	default:
		log.Printf("request %s %s failed (id=%s): %v", c.Request.Method, c.FullPath(), c.GetString(requestIDKey), err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
}

type expenseRequest struct {
	ExpenseDate models.Date      `json:"expense_date"`
	ExpenseType string           `json:"expense_type" binding:"required"`
	Amount      *decimal.Decimal `json:"amount" binding:"required"`
}

func (r expenseRequest) input() ledger.ExpenseInput {
	return ledger.ExpenseInput{Date: r.ExpenseDate, Type: r.ExpenseType, Amount: *r.Amount}
}

func (s *server) predictHandler(c *gin.Context) {
	var req expenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	pred, err := s.svc.Predict(c.Request.Context(), req.input())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"prediction": pred.Label, "probability": pred.Probability})
}

func (s *server) calculateChargeHandler(c *gin.Context) {
	var req struct {
		ActualCharge        *decimal.Decimal `json:"actual_charge" binding:"required"`
		UnnecessarySpending *decimal.Decimal `json:"unnecessary_spending" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"adjusted_charge": charge.Adjusted(*req.ActualCharge, *req.UnnecessarySpending)})
}

func (s *server) createUserHandler(c *gin.Context) {
	var req struct {
		Username string `json:"username" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	u, err := s.svc.CreateUser(c.Request.Context(), req.Username)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, u)
}

func userIDParam(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return 0, false
	}
	return uint(id), true
}

func (s *server) getUserHandler(c *gin.Context) {
	id, ok := userIDParam(c)
	if !ok {
		return
	}
	u, err := s.svc.GetUser(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, u)
}

func (s *server) listTransactionsHandler(c *gin.Context) {
	id, ok := userIDParam(c)
	if !ok {
		return
	}
	items, err := s.svc.ListUserTransactions(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, items)
}

func (s *server) createTransactionHandler(c *gin.Context) {
	var req struct {
		UserID        uint             `json:"user_id" binding:"required"`
		ExpenseDate   models.Date      `json:"expense_date"`
		ExpenseType   string           `json:"expense_type" binding:"required"`
		ExpenseAmount *decimal.Decimal `json:"expense_amount" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	t, err := s.svc.RecordTransaction(c.Request.Context(), ledger.TransactionInput{
		UserID: req.UserID,
		Date:   req.ExpenseDate,
		Type:   req.ExpenseType,
		Amount: *req.ExpenseAmount,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, t)
}

func (s *server) updateFinancialsHandler(c *gin.Context) {
	var req struct {
		UserID              uint             `json:"user_id" binding:"required"`
		CurrentBalance      *decimal.Decimal `json:"current_balance" binding:"required"`
		RothIRAContribution *decimal.Decimal `json:"roth_ira_contribution" binding:"required"`
		HighYieldSavings    *decimal.Decimal `json:"high_yield_savings" binding:"required"`
		GhostBudget         *decimal.Decimal `json:"ghost_budget" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	u, err := s.svc.UpdateFinancials(c.Request.Context(), ledger.FinancialsUpdate{
		UserID:              req.UserID,
		CurrentBalance:      *req.CurrentBalance,
		RothIRAContribution: *req.RothIRAContribution,
		HighYieldSavings:    *req.HighYieldSavings,
		GhostBudget:         *req.GhostBudget,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, u)
}

// calcTransactionHandler runs the full classification and ledger update.
// Without user_id it acts on the demo user.
func (s *server) calcTransactionHandler(c *gin.Context) {
	var req struct {
		expenseRequest
		UserID *uint `json:"user_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	res, err := s.svc.ProcessExpense(c.Request.Context(), req.UserID, req.input())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

type userIDRequest struct {
	UserID uint `json:"user_id" binding:"required"`
}

func (s *server) claimHandler(c *gin.Context) {
	var req userIDRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	u, err := s.svc.Claim(c.Request.Context(), req.UserID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message":          "ghost budget claimed into current balance",
		"current_balance":  u.CurrentBalance,
		"new_ghost_budget": u.GhostBudget,
	})
}

func (s *server) continueSavingHandler(c *gin.Context) {
	var req userIDRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	u, err := s.svc.ContinueSaving(c.Request.Context(), req.UserID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message":               "ghost budget split between roth ira and high-yield savings",
		"roth_ira_contribution": u.RothIRAContribution,
		"high_yield_savings":    u.HighYieldSavings,
		"new_ghost_budget":      u.GhostBudget,
	})
}
