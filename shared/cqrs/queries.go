package cqrs

import (
	"time"

	"github.com/eaglebank/admin-service/shared/models"
)

// GetAccountQuery fetches a single account of any variant by id.
type GetAccountQuery struct {
	AccountID int64
}

// GetAccountBalanceQuery fetches only the balance of an account.
type GetAccountBalanceQuery struct {
	AccountID int64
}

// GetAccountHolderQuery fetches an account holder with its account count.
type GetAccountHolderQuery struct {
	HolderID int64
}

// Session is the result of a successful login or token refresh.
type Session struct {
	Token     string
	ExpiresAt time.Time
	Username  string
	Roles     []models.Role
}
