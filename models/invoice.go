package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Invoice statuses
const (
	InvoiceStatusDraft = "draft"
	InvoiceStatusSent  = "sent"
	InvoiceStatusPaid  = "paid"
)

// Payment types. Refunds subtract from the paid total.
const (
	PaymentTypePayment = "payment"
	PaymentTypeRefund  = "refund"
)

// Invoice is an outgoing invoice. Reconciliation treats TotalAmount as
// read-only and classifies it against the recorded payments.
type Invoice struct {
	ID            uint            `json:"id" gorm:"primaryKey"`
	UserID        uint            `json:"user_id" gorm:"index;not null"`
	InvoiceNumber string          `json:"invoice_number" gorm:"size:50;not null;index"`
	ClientName    string          `json:"client_name" gorm:"size:100"`
	TotalAmount   decimal.Decimal `json:"total_amount" gorm:"type:decimal(12,2);not null"`
	Currency      string          `json:"currency" gorm:"size:3;default:EUR"`
	Status        string          `json:"status" gorm:"size:20;default:draft"`
	IssueDate     time.Time       `json:"issue_date"`
	DueDate       *time.Time      `json:"due_date,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
	DeletedAt     gorm.DeletedAt  `json:"-" gorm:"index"`
	Payments      []Payment       `json:"payments,omitempty" gorm:"foreignKey:InvoiceID"`
}

func (Invoice) TableName() string {
	return "invoices"
}

// Payment is a recorded payment or refund against an invoice.
type Payment struct {
	ID        uint            `json:"id" gorm:"primaryKey"`
	InvoiceID uint            `json:"invoice_id" gorm:"index;not null"`
	Amount    decimal.Decimal `json:"amount" gorm:"type:decimal(12,2);not null"`
	Type      string          `json:"type" gorm:"size:20;default:payment"`
	Date      time.Time       `json:"date" gorm:"not null"`
	Method    string          `json:"method" gorm:"size:50"`
	Note      string          `json:"note" gorm:"size:255"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

func (Payment) TableName() string {
	return "payments"
}
