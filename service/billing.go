package service

import (
	"errors"
	"fmt"

	"kontor/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Billing statuses
const (
	BillingStatusValid       = "valid"
	BillingStatusUnderbilled = "underbilled"
	BillingStatusOverbilled  = "overbilled"
)

// DefaultThreshold is the tolerance within which an invoice balance still
// counts as settled.
var DefaultThreshold = decimal.NewFromFloat(1.50)

// InvoiceValidation is the reconciliation result for one invoice. Under- and
// over-billing are business observations, reported as status and warnings,
// never as errors.
type InvoiceValidation struct {
	InvoiceID    uint            `json:"invoice_id"`
	InvoiceTotal decimal.Decimal `json:"invoice_total"`
	TotalPaid    decimal.Decimal `json:"total_paid"`
	Balance      decimal.Decimal `json:"balance"`
	Status       string          `json:"status"`
	Warnings     []string        `json:"warnings"`
	Threshold    decimal.Decimal `json:"threshold"`
	Currency     string          `json:"currency"`
}

// DuplicateCheck flags payments sharing identical amount and date. A review
// heuristic, not a hard error: legitimately split identical payments will
// false-positive.
type DuplicateCheck struct {
	HasDuplicates  bool `json:"hasDuplicates"`
	DuplicateCount int  `json:"duplicateCount"`
}

// ProposedPaymentResult evaluates a hypothetical payment without persisting it.
type ProposedPaymentResult struct {
	IsValid          bool            `json:"isValid"`
	Warnings         []string        `json:"warnings"`
	ProjectedBalance decimal.Decimal `json:"projectedBalance"`
	ProjectedStatus  string          `json:"projectedStatus"`
}

// BillingService reconciles invoices against their recorded payments. It is
// read-then-compute: results are snapshots with no linearizability guarantee
// against concurrent payment writes, and it never mutates state.
type BillingService struct {
	db *gorm.DB
}

// NewBillingService creates a billing reconciliation service.
func NewBillingService(db *gorm.DB) *BillingService {
	return &BillingService{db: db}
}

// TotalPaid sums payments minus refunds.
func TotalPaid(payments []models.Payment) decimal.Decimal {
	total := decimal.Zero
	for _, p := range payments {
		if p.Type == models.PaymentTypeRefund {
			total = total.Sub(p.Amount)
		} else {
			total = total.Add(p.Amount)
		}
	}
	return total
}

// ClassifyBalance maps a balance to a billing status under the threshold.
func ClassifyBalance(balance, threshold decimal.Decimal) string {
	switch {
	case balance.Abs().LessThanOrEqual(threshold):
		return BillingStatusValid
	case balance.GreaterThan(threshold):
		return BillingStatusUnderbilled
	default:
		return BillingStatusOverbilled
	}
}

func balanceWarnings(balance decimal.Decimal, status string) []string {
	warnings := []string{}
	switch status {
	case BillingStatusUnderbilled:
		warnings = append(warnings, fmt.Sprintf("invoice underbilled by %s", balance.StringFixed(2)))
	case BillingStatusOverbilled:
		warnings = append(warnings, fmt.Sprintf("invoice overbilled by %s", balance.Abs().StringFixed(2)))
	}
	return warnings
}

// ValidateInvoice classifies the invoice's payment state. A zero threshold
// means the default of 1.50.
func (s *BillingService) ValidateInvoice(userID, invoiceID uint, threshold decimal.Decimal) (*InvoiceValidation, error) {
	invoice, payments, err := s.load(userID, invoiceID)
	if err != nil {
		return nil, err
	}
	if threshold.IsZero() {
		threshold = DefaultThreshold
	}

	paid := TotalPaid(payments)
	balance := invoice.TotalAmount.Sub(paid)
	status := ClassifyBalance(balance, threshold)

	return &InvoiceValidation{
		InvoiceID:    invoice.ID,
		InvoiceTotal: invoice.TotalAmount,
		TotalPaid:    paid,
		Balance:      balance,
		Status:       status,
		Warnings:     balanceWarnings(balance, status),
		Threshold:    threshold,
		Currency:     invoice.Currency,
	}, nil
}

// CheckDuplicatePayments flags probable duplicates: payments of the same
// invoice with identical amount and identical date. The count covers the
// surplus payments beyond the first of each group.
func (s *BillingService) CheckDuplicatePayments(userID, invoiceID uint) (*DuplicateCheck, error) {
	_, payments, err := s.load(userID, invoiceID)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]int)
	duplicates := 0
	for _, p := range payments {
		key := p.Amount.StringFixed(2) + "@" + p.Date.Format("2006-01-02")
		if seen[key] > 0 {
			duplicates++
		}
		seen[key]++
	}

	return &DuplicateCheck{
		HasDuplicates:  duplicates > 0,
		DuplicateCount: duplicates,
	}, nil
}

// ValidateProposedPayment applies proposedAmount on top of the recorded
// payments without persisting anything. Non-strict mode always reports valid
// and surfaces findings as warnings; strict mode rejects iff the projected
// status would be overbilled.
func (s *BillingService) ValidateProposedPayment(userID, invoiceID uint, proposedAmount, threshold decimal.Decimal, strict bool) (*ProposedPaymentResult, error) {
	invoice, payments, err := s.load(userID, invoiceID)
	if err != nil {
		return nil, err
	}
	if threshold.IsZero() {
		threshold = DefaultThreshold
	}

	projected := invoice.TotalAmount.Sub(TotalPaid(payments).Add(proposedAmount))
	status := ClassifyBalance(projected, threshold)

	return &ProposedPaymentResult{
		IsValid:          !strict || status != BillingStatusOverbilled,
		Warnings:         balanceWarnings(projected, status),
		ProjectedBalance: projected,
		ProjectedStatus:  status,
	}, nil
}

// GetPaymentBreakdown lists all payments of the invoice, oldest first. An
// invoice without payments yields an empty slice, not nil.
func (s *BillingService) GetPaymentBreakdown(userID, invoiceID uint) ([]models.Payment, error) {
	_, payments, err := s.load(userID, invoiceID)
	if err != nil {
		return nil, err
	}
	if payments == nil {
		payments = []models.Payment{}
	}
	return payments, nil
}

func (s *BillingService) load(userID, invoiceID uint) (*models.Invoice, []models.Payment, error) {
	var invoice models.Invoice
	err := s.db.Where("id = ? AND user_id = ?", invoiceID, userID).First(&invoice).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil, ErrNotFound
	}
	if err != nil {
		return nil, nil, err
	}

	var payments []models.Payment
	if err := s.db.Where("invoice_id = ?", invoiceID).
		Order("date ASC, id ASC").Find(&payments).Error; err != nil {
		return nil, nil, err
	}
	return &invoice, payments, nil
}
