package notifier

import (
	"fmt"
	"html"
	"strings"

	"github.com/fjod/athometyre/internal/domain"
	"github.com/fjod/athometyre/internal/i18n"
	"github.com/shopspring/decimal"
)

var paymentLabels = map[domain.PaymentMethod]string{
	domain.PaymentCreditCard: "Credit card",
	domain.PaymentDebitCard:  "Debit card",
	domain.PaymentUPI:        "UPI",
	domain.PaymentWallet:     "Wallet",
	domain.PaymentCOD:        "Cash on delivery",
}

// OrderConfirmation renders the email sent after an order is placed.
func OrderConfirmation(e domain.OrderPlacedEvent) (Email, error) {
	amount, err := decimal.NewFromString(e.TotalAmount)
	if err != nil {
		return Email{}, fmt.Errorf("bad total amount %q: %w", e.TotalAmount, err)
	}
	name := strings.TrimSpace(e.CustomerName)
	if name == "" {
		name = "Customer"
	}
	total := i18n.FormatCurrency(i18n.DefaultLanguage, amount)
	method := paymentLabels[e.PaymentMethod]
	placed := i18n.FormatDate(i18n.DefaultLanguage, e.PlacedAt)

	due := "Paid"
	if e.PaymentStatus == domain.PaymentStatusPending {
		due = "Pay on delivery"
	}

	text := fmt.Sprintf(
		"Dear %s,\n\nThank you for your order %s placed on %s.\n\nItems: %d\nTotal: %s\nPayment: %s (%s)\n\nWe will let you know when it ships.\n",
		name, e.OrderNumber, placed, e.ItemCount, total, method, due)
	htmlBody := fmt.Sprintf(
		"<p>Dear %s,</p><p>Thank you for your order <strong>%s</strong> placed on %s.</p>"+
			"<p>Items: %d<br>Total: <strong>%s</strong><br>Payment: %s (%s)</p>"+
			"<p>We will let you know when it ships.</p>",
		html.EscapeString(name), html.EscapeString(e.OrderNumber), placed, e.ItemCount,
		html.EscapeString(total), method, due)

	return Email{
		To:       e.CustomerEmail,
		Subject:  fmt.Sprintf("Order %s confirmed", e.OrderNumber),
		HTMLBody: htmlBody,
		TextBody: text,
		Tag:      "order-confirmation",
	}, nil
}
