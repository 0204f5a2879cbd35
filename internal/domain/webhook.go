package domain

import "time"

// Webhook is an account's subscription to one order event, delivered to
// URL whenever the account is the seller or buyer of that order.
type Webhook struct {
	WebhookID string
	Account   Address
	Event     string
	URL       string
	CreatedAt time.Time
	UpdatedAt time.Time
}
