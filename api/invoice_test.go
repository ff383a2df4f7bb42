package api

import (
	"bytes"
	"database/sql/driver"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"kontor/config"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setUserIDMiddleware(userID uint) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("userID", userID)
		c.Next()
	}
}

func billingTestConfig() *config.Config {
	return &config.Config{
		Server:  config.ServerConfig{Mode: "debug"},
		Billing: config.BillingConfig{Threshold: 1.50},
	}
}

func invoiceTestColumns() []string {
	return []string{"id", "user_id", "invoice_number", "client_name", "total_amount",
		"currency", "status", "issue_date", "due_date", "created_at", "updated_at", "deleted_at"}
}

func invoiceTestRow(id uint, total string) []driver.Value {
	now := time.Now()
	return []driver.Value{id, 1, "2024-001", "Acme GmbH", total,
		"EUR", "sent", now, now, now, now, nil}
}

func paymentTestColumns() []string {
	return []string{"id", "invoice_id", "amount", "type", "date", "method", "note", "created_at", "updated_at"}
}

func newInvoiceRouter(cfg *config.Config) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(setUserIDMiddleware(1))
	h := NewInvoiceHandler(cfg)
	router.GET("/invoices/:id/validate", h.Validate)
	router.GET("/invoices/:id/duplicates", h.CheckDuplicates)
	router.GET("/invoices/:id/payments", h.GetPayments)
	router.POST("/invoices/:id/validate-payment", h.ValidateProposedPayment)
	return router
}

func TestInvoiceHandler_Validate_Underbilled(t *testing.T) {
	mock, cleanup := setupMockDB(t)
	defer cleanup()

	mock.ExpectQuery("SELECT .* FROM `invoices`").
		WithArgs(1, 1).
		WillReturnRows(sqlmock.NewRows(invoiceTestColumns()).AddRow(invoiceTestRow(1, "100.00")...))
	mock.ExpectQuery("SELECT .* FROM `payments`").
		WithArgs(1).
		WillReturnRows(sqlmock.NewRows(paymentTestColumns()))

	router := newInvoiceRouter(billingTestConfig())
	req := httptest.NewRequest("GET", "/invoices/1/validate", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, 200, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data := resp["data"].(map[string]interface{})
	assert.Equal(t, "underbilled", data["status"])
	assert.Equal(t, "100", data["balance"])
	warnings := data["warnings"].([]interface{})
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0], "underbilled")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestInvoiceHandler_Validate_CustomThreshold(t *testing.T) {
	mock, cleanup := setupMockDB(t)
	defer cleanup()

	mock.ExpectQuery("SELECT .* FROM `invoices`").
		WithArgs(1, 1).
		WillReturnRows(sqlmock.NewRows(invoiceTestColumns()).AddRow(invoiceTestRow(1, "100.00")...))
	now := time.Now()
	mock.ExpectQuery("SELECT .* FROM `payments`").
		WithArgs(1).
		WillReturnRows(sqlmock.NewRows(paymentTestColumns()).
			AddRow(1, 1, "95.00", "payment", now, "bank_transfer", "", now, now))

	router := newInvoiceRouter(billingTestConfig())
	req := httptest.NewRequest("GET", "/invoices/1/validate?threshold=10", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, 200, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data := resp["data"].(map[string]interface{})
	assert.Equal(t, "valid", data["status"])
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestInvoiceHandler_Validate_BadThreshold(t *testing.T) {
	_, cleanup := setupMockDB(t)
	defer cleanup()

	router := newInvoiceRouter(billingTestConfig())
	req := httptest.NewRequest("GET", "/invoices/1/validate?threshold=abc", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, 400, w.Code)
}

func TestInvoiceHandler_Validate_NotFound(t *testing.T) {
	mock, cleanup := setupMockDB(t)
	defer cleanup()

	mock.ExpectQuery("SELECT .* FROM `invoices`").
		WithArgs(404, 1).
		WillReturnRows(sqlmock.NewRows(invoiceTestColumns()))

	router := newInvoiceRouter(billingTestConfig())
	req := httptest.NewRequest("GET", "/invoices/404/validate", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, 404, w.Code)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestInvoiceHandler_CheckDuplicates(t *testing.T) {
	mock, cleanup := setupMockDB(t)
	defer cleanup()

	day := time.Date(2024, 4, 10, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery("SELECT .* FROM `invoices`").
		WithArgs(1, 1).
		WillReturnRows(sqlmock.NewRows(invoiceTestColumns()).AddRow(invoiceTestRow(1, "200.00")...))
	mock.ExpectQuery("SELECT .* FROM `payments`").
		WithArgs(1).
		WillReturnRows(sqlmock.NewRows(paymentTestColumns()).
			AddRow(1, 1, "100.00", "payment", day, "", "", day, day).
			AddRow(2, 1, "100.00", "payment", day, "", "", day, day))

	router := newInvoiceRouter(billingTestConfig())
	req := httptest.NewRequest("GET", "/invoices/1/duplicates", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, 200, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data := resp["data"].(map[string]interface{})
	assert.Equal(t, true, data["hasDuplicates"])
	assert.Equal(t, float64(1), data["duplicateCount"])
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestInvoiceHandler_ValidateProposedPayment_Strict(t *testing.T) {
	mock, cleanup := setupMockDB(t)
	defer cleanup()

	mock.ExpectQuery("SELECT .* FROM `invoices`").
		WithArgs(1, 1).
		WillReturnRows(sqlmock.NewRows(invoiceTestColumns()).AddRow(invoiceTestRow(1, "100.00")...))
	mock.ExpectQuery("SELECT .* FROM `payments`").
		WithArgs(1).
		WillReturnRows(sqlmock.NewRows(paymentTestColumns()))

	router := newInvoiceRouter(billingTestConfig())
	body := `{"amount":150.00,"strict":true}`
	req := httptest.NewRequest("POST", "/invoices/1/validate-payment", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, 200, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data := resp["data"].(map[string]interface{})
	assert.Equal(t, false, data["isValid"])
	assert.Equal(t, "overbilled", data["projectedStatus"])
	assert.Equal(t, "-50", data["projectedBalance"])
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestInvoiceHandler_GetPayments_Empty(t *testing.T) {
	mock, cleanup := setupMockDB(t)
	defer cleanup()

	mock.ExpectQuery("SELECT .* FROM `invoices`").
		WithArgs(1, 1).
		WillReturnRows(sqlmock.NewRows(invoiceTestColumns()).AddRow(invoiceTestRow(1, "100.00")...))
	mock.ExpectQuery("SELECT .* FROM `payments`").
		WithArgs(1).
		WillReturnRows(sqlmock.NewRows(paymentTestColumns()))

	router := newInvoiceRouter(billingTestConfig())
	req := httptest.NewRequest("GET", "/invoices/1/payments", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, 200, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data, ok := resp["data"].([]interface{})
	require.True(t, ok, "data should be an array, got %T", resp["data"])
	assert.Empty(t, data)
	require.NoError(t, mock.ExpectationsWereMet())
}
