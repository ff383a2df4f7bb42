package service

import (
	"fmt"

	"kontor/config"

	"github.com/shopspring/decimal"
	"gopkg.in/gomail.v2"
)

// EmailService sends payment reminder mail for underbilled invoices.
type EmailService struct {
	cfg *config.EmailConfig
}

// NewEmailService creates an email service.
func NewEmailService(cfg *config.EmailConfig) *EmailService {
	return &EmailService{cfg: cfg}
}

// SendPaymentReminder mails the client of an underbilled invoice the open
// balance found by reconciliation.
func (s *EmailService) SendPaymentReminder(toEmail, clientName, invoiceNumber string, balance decimal.Decimal, currency string) error {
	if !s.cfg.Enabled {
		return fmt.Errorf("email service disabled, set email.enabled=true to use it")
	}

	subject := fmt.Sprintf("Payment reminder for invoice %s", invoiceNumber)
	body := s.generateReminderBody(clientName, invoiceNumber, balance, currency)

	return s.sendEmail(toEmail, subject, body)
}

// generateReminderBody renders the reminder mail body.
func (s *EmailService) generateReminderBody(clientName, invoiceNumber string, balance decimal.Decimal, currency string) string {
	return fmt.Sprintf(`
<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <style>
        body { font-family: Arial, sans-serif; background: #f5f5f5; margin: 0; padding: 20px; }
        .container { max-width: 600px; margin: 0 auto; background: #fff; border-radius: 12px; overflow: hidden; box-shadow: 0 4px 20px rgba(0,0,0,0.1); }
        .header { background: linear-gradient(135deg, #2563eb, #1d4ed8); color: white; padding: 30px; text-align: center; }
        .header h1 { margin: 0; font-size: 24px; }
        .content { padding: 40px 30px; }
        .content p { color: #333; line-height: 1.8; margin: 0 0 20px; }
        .amount { font-size: 28px; font-weight: 700; color: #1d4ed8; text-align: center; margin: 20px 0; }
        .footer { background: #f8f9fa; padding: 20px 30px; text-align: center; color: #6c757d; font-size: 12px; }
    </style>
</head>
<body>
    <div class="container">
        <div class="header">
            <h1>Payment Reminder</h1>
        </div>
        <div class="content">
            <p>Dear <strong>%s</strong>,</p>
            <p>According to our records, invoice <strong>%s</strong> has an outstanding balance:</p>
            <p class="amount">%s %s</p>
            <p>If you have already settled this invoice, please disregard this message.</p>
        </div>
        <div class="footer">
            <p>This reminder was generated automatically from the recorded payments.</p>
        </div>
    </div>
</body>
</html>
`, clientName, invoiceNumber, balance.StringFixed(2), currency)
}

// sendEmail delivers one HTML mail.
func (s *EmailService) sendEmail(to, subject, body string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", m.FormatAddress(s.cfg.Username, s.cfg.From))
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", body)

	d := gomail.NewDialer(s.cfg.Host, s.cfg.Port, s.cfg.Username, s.cfg.Password)

	if err := d.DialAndSend(m); err != nil {
		return fmt.Errorf("sending mail failed: %w", err)
	}

	return nil
}

// SendTestEmail verifies the SMTP configuration.
func (s *EmailService) SendTestEmail(toEmail string) error {
	if !s.cfg.Enabled {
		return fmt.Errorf("email service disabled")
	}

	subject := "Kontor mail configuration test"
	body := `
<!DOCTYPE html>
<html>
<head><meta charset="UTF-8"></head>
<body style="font-family: Arial, sans-serif; padding: 20px;">
    <h2>Mail configuration works</h2>
    <p>If you received this message, the SMTP settings are correct.</p>
</body>
</html>
`
	return s.sendEmail(toEmail, subject, body)
}
