package api

import (
	"errors"
	"strconv"

	"kontor/config"
	"kontor/database"
	"kontor/middleware"
	"kontor/models"
	"kontor/service"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// InvoiceHandler handles invoices, payments and billing reconciliation.
type InvoiceHandler struct {
	cfg          *config.Config
	emailService *service.EmailService
}

// NewInvoiceHandler creates an invoice handler.
func NewInvoiceHandler(cfg *config.Config) *InvoiceHandler {
	return &InvoiceHandler{
		cfg:          cfg,
		emailService: service.NewEmailService(&cfg.Email),
	}
}

// CreateInvoiceRequest is the payload for creating an invoice.
type CreateInvoiceRequest struct {
	InvoiceNumber string          `json:"invoice_number" binding:"required" example:"2024-001"`
	ClientName    string          `json:"client_name" example:"ACME GmbH"`
	TotalAmount   decimal.Decimal `json:"total_amount" binding:"required" example:"1190.00"`
	Currency      string          `json:"currency" example:"EUR"`
	Status        string          `json:"status" binding:"omitempty,oneof=draft sent paid" example:"sent"`
	IssueDate     string          `json:"issue_date" example:"2024-01-15"`
	DueDate       string          `json:"due_date" example:"2024-02-14"`
}

// CreatePaymentRequest is the payload for recording a payment or refund.
type CreatePaymentRequest struct {
	Amount decimal.Decimal `json:"amount" binding:"required" example:"1190.00"`
	Type   string          `json:"type" binding:"omitempty,oneof=payment refund" example:"payment"`
	Date   string          `json:"date" binding:"required" example:"2024-02-01"`
	Method string          `json:"method" example:"bank_transfer"`
	Note   string          `json:"note"`
}

// ProposedPaymentRequest is the payload for evaluating a hypothetical payment.
type ProposedPaymentRequest struct {
	Amount    decimal.Decimal `json:"amount" binding:"required" example:"500.00"`
	Threshold decimal.Decimal `json:"threshold"`
	Strict    bool            `json:"strict"`
}

// RemindRequest is the payload for sending a payment reminder.
type RemindRequest struct {
	Email string `json:"email" binding:"required,email" example:"billing@acme.example"`
}

// threshold resolves the reconciliation tolerance: explicit value, else the
// configured one, else the built-in default of 1.50.
func (h *InvoiceHandler) threshold(explicit decimal.Decimal) decimal.Decimal {
	if !explicit.IsZero() {
		return explicit
	}
	if h.cfg.Billing.Threshold > 0 {
		return decimal.NewFromFloat(h.cfg.Billing.Threshold)
	}
	return service.DefaultThreshold
}

func (h *InvoiceHandler) queryThreshold(c *gin.Context) (decimal.Decimal, error) {
	raw := c.Query("threshold")
	if raw == "" {
		return h.threshold(decimal.Zero), nil
	}
	explicit, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, errors.New("invalid threshold")
	}
	return h.threshold(explicit), nil
}

func invoiceID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		BadRequest(c, "invalid ID")
		return 0, false
	}
	return uint(id), true
}

// Create creates an invoice
// @Summary Create invoice
// @Tags invoices
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CreateInvoiceRequest true "invoice payload"
// @Success 200 {object} Response{data=models.Invoice}
// @Failure 400 {object} Response
// @Router /api/v1/invoices [post]
func (h *InvoiceHandler) Create(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)

	var req CreateInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, SafeErrorMessage(err, "invalid request"))
		return
	}

	issueDate, err := parseDate(req.IssueDate)
	if req.IssueDate != "" && err != nil {
		BadRequest(c, "invalid issue_date, expected 2006-01-02")
		return
	}
	dueDate, err := parseOptionalDate(req.DueDate)
	if err != nil {
		BadRequest(c, "invalid due_date, expected 2006-01-02")
		return
	}

	currency := req.Currency
	if currency == "" {
		currency = "EUR"
	}
	status := req.Status
	if status == "" {
		status = models.InvoiceStatusDraft
	}

	invoice := models.Invoice{
		UserID:        userID,
		InvoiceNumber: req.InvoiceNumber,
		ClientName:    req.ClientName,
		TotalAmount:   req.TotalAmount,
		Currency:      currency,
		Status:        status,
		IssueDate:     issueDate,
		DueDate:       dueDate,
	}

	if err := database.DB.Create(&invoice).Error; err != nil {
		InternalError(c, SafeErrorMessage(err, "creating invoice failed"))
		return
	}

	SuccessWithMessage(c, "created", invoice)
}

// Get returns one invoice with its payments
// @Summary Get invoice
// @Tags invoices
// @Produce json
// @Security BearerAuth
// @Param id path int true "invoice ID"
// @Success 200 {object} Response{data=models.Invoice}
// @Failure 404 {object} Response
// @Router /api/v1/invoices/{id} [get]
func (h *InvoiceHandler) Get(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)
	id, ok := invoiceID(c)
	if !ok {
		return
	}

	var invoice models.Invoice
	if err := database.DB.Preload("Payments").
		Where("id = ? AND user_id = ?", id, userID).First(&invoice).Error; err != nil {
		NotFound(c, "record not found")
		return
	}

	Success(c, invoice)
}

// AddPayment records a payment or refund
// @Summary Record payment
// @Description Records a payment or refund against the invoice and returns the reconciliation snapshot after the write.
// @Tags invoices
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "invoice ID"
// @Param request body CreatePaymentRequest true "payment payload"
// @Success 200 {object} Response
// @Failure 400 {object} Response
// @Failure 404 {object} Response
// @Router /api/v1/invoices/{id}/payments [post]
func (h *InvoiceHandler) AddPayment(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)
	id, ok := invoiceID(c)
	if !ok {
		return
	}

	var req CreatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, SafeErrorMessage(err, "invalid request"))
		return
	}

	var invoice models.Invoice
	if err := database.DB.Where("id = ? AND user_id = ?", id, userID).First(&invoice).Error; err != nil {
		NotFound(c, "record not found")
		return
	}

	date, err := parseDate(req.Date)
	if err != nil {
		BadRequest(c, "invalid date, expected 2006-01-02")
		return
	}

	paymentType := req.Type
	if paymentType == "" {
		paymentType = models.PaymentTypePayment
	}

	payment := models.Payment{
		InvoiceID: invoice.ID,
		Amount:    req.Amount,
		Type:      paymentType,
		Date:      date,
		Method:    req.Method,
		Note:      req.Note,
	}

	if err := database.DB.Create(&payment).Error; err != nil {
		InternalError(c, SafeErrorMessage(err, "recording payment failed"))
		return
	}

	// Reconcile right after the write so the caller sees the new state.
	validation, err := service.NewBillingService(database.DB).
		ValidateInvoice(userID, invoice.ID, h.threshold(decimal.Zero))
	if err != nil {
		InternalError(c, SafeErrorMessage(err, "reconciliation failed"))
		return
	}

	SuccessWithMessage(c, "recorded", gin.H{
		"payment":    payment,
		"validation": validation,
	})
}

// Validate classifies the invoice's payment state
// @Summary Validate invoice
// @Description Classifies the invoice as valid, underbilled or overbilled against its recorded payments.
// @Tags invoices
// @Produce json
// @Security BearerAuth
// @Param id path int true "invoice ID"
// @Param threshold query number false "tolerance, defaults to 1.50"
// @Success 200 {object} Response{data=service.InvoiceValidation}
// @Failure 404 {object} Response
// @Router /api/v1/invoices/{id}/validate [get]
func (h *InvoiceHandler) Validate(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)
	id, ok := invoiceID(c)
	if !ok {
		return
	}

	threshold, err := h.queryThreshold(c)
	if err != nil {
		BadRequest(c, err.Error())
		return
	}

	validation, err := service.NewBillingService(database.DB).ValidateInvoice(userID, id, threshold)
	if errors.Is(err, service.ErrNotFound) {
		NotFound(c, "record not found")
		return
	}
	if err != nil {
		InternalError(c, SafeErrorMessage(err, "reconciliation failed"))
		return
	}

	Success(c, validation)
}

// CheckDuplicates flags probable duplicate payments
// @Summary Check duplicate payments
// @Description Flags payments sharing identical amount and date. An advisory review signal, not an error.
// @Tags invoices
// @Produce json
// @Security BearerAuth
// @Param id path int true "invoice ID"
// @Success 200 {object} Response{data=service.DuplicateCheck}
// @Failure 404 {object} Response
// @Router /api/v1/invoices/{id}/duplicates [get]
func (h *InvoiceHandler) CheckDuplicates(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)
	id, ok := invoiceID(c)
	if !ok {
		return
	}

	check, err := service.NewBillingService(database.DB).CheckDuplicatePayments(userID, id)
	if errors.Is(err, service.ErrNotFound) {
		NotFound(c, "record not found")
		return
	}
	if err != nil {
		InternalError(c, SafeErrorMessage(err, "duplicate check failed"))
		return
	}

	Success(c, check)
}

// ValidateProposedPayment evaluates a hypothetical payment
// @Summary Validate proposed payment
// @Description Applies the proposed amount on top of the recorded payments without persisting. Strict mode rejects payments that would overbill the invoice.
// @Tags invoices
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "invoice ID"
// @Param request body ProposedPaymentRequest true "proposed payment"
// @Success 200 {object} Response{data=service.ProposedPaymentResult}
// @Failure 404 {object} Response
// @Router /api/v1/invoices/{id}/validate-payment [post]
func (h *InvoiceHandler) ValidateProposedPayment(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)
	id, ok := invoiceID(c)
	if !ok {
		return
	}

	var req ProposedPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, SafeErrorMessage(err, "invalid request"))
		return
	}

	result, err := service.NewBillingService(database.DB).
		ValidateProposedPayment(userID, id, req.Amount, h.threshold(req.Threshold), req.Strict)
	if errors.Is(err, service.ErrNotFound) {
		NotFound(c, "record not found")
		return
	}
	if err != nil {
		InternalError(c, SafeErrorMessage(err, "validation failed"))
		return
	}

	Success(c, result)
}

// GetPayments lists the invoice's payments
// @Summary Payment breakdown
// @Tags invoices
// @Produce json
// @Security BearerAuth
// @Param id path int true "invoice ID"
// @Success 200 {object} Response{data=[]models.Payment}
// @Failure 404 {object} Response
// @Router /api/v1/invoices/{id}/payments [get]
func (h *InvoiceHandler) GetPayments(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)
	id, ok := invoiceID(c)
	if !ok {
		return
	}

	payments, err := service.NewBillingService(database.DB).GetPaymentBreakdown(userID, id)
	if errors.Is(err, service.ErrNotFound) {
		NotFound(c, "record not found")
		return
	}
	if err != nil {
		InternalError(c, SafeErrorMessage(err, "query failed"))
		return
	}

	Success(c, payments)
}

// Remind mails a payment reminder for an underbilled invoice
// @Summary Send payment reminder
// @Description Reconciles the invoice and mails the open balance to the given address when the invoice is underbilled.
// @Tags invoices
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "invoice ID"
// @Param request body RemindRequest true "recipient"
// @Success 200 {object} Response
// @Failure 400 {object} Response
// @Failure 404 {object} Response
// @Router /api/v1/invoices/{id}/remind [post]
func (h *InvoiceHandler) Remind(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)
	id, ok := invoiceID(c)
	if !ok {
		return
	}

	var req RemindRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, SafeErrorMessage(err, "invalid request"))
		return
	}

	var invoice models.Invoice
	if err := database.DB.Where("id = ? AND user_id = ?", id, userID).First(&invoice).Error; err != nil {
		NotFound(c, "record not found")
		return
	}

	validation, err := service.NewBillingService(database.DB).
		ValidateInvoice(userID, id, h.threshold(decimal.Zero))
	if err != nil {
		InternalError(c, SafeErrorMessage(err, "reconciliation failed"))
		return
	}

	if validation.Status != service.BillingStatusUnderbilled {
		BadRequest(c, "invoice has no open balance beyond the threshold")
		return
	}

	if err := h.emailService.SendPaymentReminder(req.Email, invoice.ClientName,
		invoice.InvoiceNumber, validation.Balance, invoice.Currency); err != nil {
		InternalError(c, SafeErrorMessage(err, "sending reminder failed"))
		return
	}

	SuccessWithMessage(c, "reminder sent", validation)
}
