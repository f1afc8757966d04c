package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"plufi-chat/internal/mocks"
	"plufi-chat/internal/models"
)

func setupExpenseRouter(handler *ExpenseHandler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set("userID", 1)
		c.Next()
	})
	r.POST("/expenses", handler.Create)
	r.GET("/expenses", handler.List)
	r.DELETE("/expenses/:expense_id", handler.Delete)
	r.GET("/expenses/summary/categories", handler.CategorySummary)
	r.GET("/expenses/summary/months", handler.MonthlySummary)
	return r
}

func TestCreateExpenseWithDate(t *testing.T) {
	expenses := new(mocks.ExpenseRepositoryMock)
	handler := NewExpenseHandler(expenses)
	router := setupExpenseRouter(handler)

	date := time.Date(2025, 8, 14, 0, 0, 0, 0, time.UTC)
	expenses.On("CreateExpense", mock.Anything, 1, "groceries", 42.5, "food", date).
		Return(models.Expense{ID: 3, Name: "groceries", Amount: 42.5, Category: "food"}, nil).Once()

	body := bytes.NewBufferString(`{"name":"groceries","amount":42.5,"category":"food","date":"2025-08-14"}`)
	req := httptest.NewRequest(http.MethodPost, "/expenses", body)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	expenses.AssertExpectations(t)
}

func TestCreateExpenseBadDate(t *testing.T) {
	handler := NewExpenseHandler(new(mocks.ExpenseRepositoryMock))
	router := setupExpenseRouter(handler)

	body := bytes.NewBufferString(`{"name":"groceries","amount":10,"category":"food","date":"14-08-2025"}`)
	req := httptest.NewRequest(http.MethodPost, "/expenses", body)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateExpenseRejectsNonPositiveAmount(t *testing.T) {
	handler := NewExpenseHandler(new(mocks.ExpenseRepositoryMock))
	router := setupExpenseRouter(handler)

	body := bytes.NewBufferString(`{"name":"groceries","amount":-5,"category":"food"}`)
	req := httptest.NewRequest(http.MethodPost, "/expenses", body)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListExpensesWithCategoryFilter(t *testing.T) {
	expenses := new(mocks.ExpenseRepositoryMock)
	handler := NewExpenseHandler(expenses)
	router := setupExpenseRouter(handler)

	expenses.On("ListExpenses", mock.Anything, 1, "food", 5, 0).
		Return([]models.Expense{{ID: 3, Category: "food"}}, nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/expenses?category=food&limit=5", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	expenses.AssertExpectations(t)
}

func TestDeleteExpenseNotOwned(t *testing.T) {
	expenses := new(mocks.ExpenseRepositoryMock)
	handler := NewExpenseHandler(expenses)
	router := setupExpenseRouter(handler)

	expenses.On("DeleteExpense", mock.Anything, 1, 7).Return(false, nil).Once()

	req := httptest.NewRequest(http.MethodDelete, "/expenses/7", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)
	expenses.AssertExpectations(t)
}

func TestCategorySummaryEndpoint(t *testing.T) {
	expenses := new(mocks.ExpenseRepositoryMock)
	handler := NewExpenseHandler(expenses)
	router := setupExpenseRouter(handler)

	expenses.On("CategorySummary", mock.Anything, 1).
		Return([]models.CategoryTotal{{Category: "food", Total: 99.5}}, nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/expenses/summary/categories", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp map[string][]models.CategoryTotal
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Len(t, resp["categories"], 1)
	expenses.AssertExpectations(t)
}

func TestMonthlySummaryEndpoint(t *testing.T) {
	expenses := new(mocks.ExpenseRepositoryMock)
	handler := NewExpenseHandler(expenses)
	router := setupExpenseRouter(handler)

	expenses.On("MonthlySummary", mock.Anything, 1, 6).
		Return([]models.MonthTotal{{Month: "2025-08", Count: 4, Total: 120}}, nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/expenses/summary/months?months=6", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	expenses.AssertExpectations(t)
}
