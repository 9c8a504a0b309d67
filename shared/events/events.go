package events

import "time"

// Event types
const (
	UserCreated = "user.created"

	AccountCreated = "account.created"
	AccountUpdated = "account.updated"
	AccountDeleted = "account.deleted"
	BalanceUpdated = "balance.updated"
)

// Stream names
const (
	UserEventsStream    = "user.events"
	AccountEventsStream = "account.events"
)

// Base event structure
type Event struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data"`
}

// User events
type UserCreatedEvent struct {
	UserID   int64  `json:"userId"`
	Username string `json:"username"`
	Role     string `json:"role"`
	By       string `json:"requestedBy"`
}

// Account events
type AccountCreatedEvent struct {
	AccountID        int64  `json:"accountId"`
	AccountType      string `json:"accountType"`
	PrimaryOwnerID   int64  `json:"primaryOwnerId"`
	SecondaryOwnerID *int64 `json:"secondaryOwnerId,omitempty"`
	By               string `json:"requestedBy"`
}

type AccountUpdatedEvent struct {
	AccountID int64  `json:"accountId"`
	Status    string `json:"status"`
	By        string `json:"requestedBy"`
}

type AccountDeletedEvent struct {
	AccountID        int64  `json:"accountId"`
	PrimaryOwnerID   int64  `json:"primaryOwnerId"`
	SecondaryOwnerID *int64 `json:"secondaryOwnerId,omitempty"`
	By               string `json:"requestedBy"`
}

type BalanceUpdatedEvent struct {
	AccountID int64  `json:"accountId"`
	Amount    string `json:"amount"`
	Currency  string `json:"currency"`
	By        string `json:"requestedBy"`
}
