package handlers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"plufi-chat/internal/models"
	"plufi-chat/internal/repositories"
)

// ExpenseHandler serves the legacy expense tracker endpoints.
type ExpenseHandler struct {
	expenses repositories.ExpenseRepository
}

// NewExpenseHandler builds an ExpenseHandler.
func NewExpenseHandler(expenses repositories.ExpenseRepository) *ExpenseHandler {
	return &ExpenseHandler{expenses: expenses}
}

// Create records a new expense for the caller.
func (h *ExpenseHandler) Create(c *gin.Context) {
	var req struct {
		Name     string  `json:"name" binding:"required"`
		Amount   float64 `json:"amount" binding:"required,gt=0"`
		Category string  `json:"category" binding:"required"`
		Date     string  `json:"date"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	date := time.Now().UTC()
	if req.Date != "" {
		parsed, err := time.Parse("2006-01-02", req.Date)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "date must be YYYY-MM-DD"})
			return
		}
		date = parsed
	}

	expense, err := h.expenses.CreateExpense(c.Request.Context(), c.GetInt("userID"),
		strings.TrimSpace(req.Name), req.Amount, strings.TrimSpace(req.Category), date)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not record expense"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"expense": expense})
}

// List returns the caller's expenses, optionally filtered by category.
func (h *ExpenseHandler) List(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	expenses, err := h.expenses.ListExpenses(c.Request.Context(), c.GetInt("userID"),
		strings.TrimSpace(c.Query("category")), limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load expenses"})
		return
	}
	if expenses == nil {
		expenses = []models.Expense{}
	}
	c.JSON(http.StatusOK, gin.H{"expenses": expenses})
}

// Delete removes an expense the caller owns.
func (h *ExpenseHandler) Delete(c *gin.Context) {
	expenseID, err := strconv.Atoi(c.Param("expense_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid expense id"})
		return
	}

	deleted, err := h.expenses.DeleteExpense(c.Request.Context(), c.GetInt("userID"), expenseID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not delete expense"})
		return
	}
	if !deleted {
		c.JSON(http.StatusNotFound, gin.H{"error": "expense not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": true})
}

// CategorySummary totals the caller's spend per category.
func (h *ExpenseHandler) CategorySummary(c *gin.Context) {
	totals, err := h.expenses.CategorySummary(c.Request.Context(), c.GetInt("userID"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not summarize expenses"})
		return
	}
	if totals == nil {
		totals = []models.CategoryTotal{}
	}
	c.JSON(http.StatusOK, gin.H{"categories": totals})
}

// MonthlySummary totals the caller's spend per calendar month.
func (h *ExpenseHandler) MonthlySummary(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("months", "12"))
	totals, err := h.expenses.MonthlySummary(c.Request.Context(), c.GetInt("userID"), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not summarize expenses"})
		return
	}
	if totals == nil {
		totals = []models.MonthTotal{}
	}
	c.JSON(http.StatusOK, gin.H{"months": totals})
}
