package model

import "github.com/shopspring/decimal"

// Decision is the result of comparing a stored baseline with a fresh price.
type Decision struct {
	OldPrice    decimal.Decimal
	NewPrice    decimal.Decimal
	Notify      bool
	DropPercent int // only set when Notify is true
}

// Notification is the payload handed to a notification sink. Alerts sharing a
// StableID replace each other instead of piling up.
type Notification struct {
	StableID int
	Title    string
	Body     string
}
