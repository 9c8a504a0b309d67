package cqrs

import (
	"time"

	"github.com/eaglebank/admin-service/shared/models"
	"github.com/shopspring/decimal"
)

// RequestedBy on every command is the username of the authenticated admin.

type AddAdminCommand struct {
	Name        string
	Username    string
	Password    string
	RequestedBy string
}

type AddAccountHolderCommand struct {
	Name           string
	Username       string
	Password       string
	DateOfBirth    time.Time
	PrimaryAddress models.Address
	MailAddress    *models.Address
	RequestedBy    string
}

type AddThirdPartyCommand struct {
	Name        string
	HashedKey   string
	Password    string
	Username    string
	RequestedBy string
}

type AddCheckingCommand struct {
	PrimaryOwnerID   int64
	SecondaryOwnerID *int64
	SecretKey        string
	Currency         string
	RequestedBy      string
}

type AddSavingsCommand struct {
	PrimaryOwnerID   int64
	SecondaryOwnerID *int64
	SecretKey        string
	Currency         string
	MinimumBalance   *decimal.Decimal
	InterestRate     *decimal.Decimal
	RequestedBy      string
}

type AddCreditCardCommand struct {
	PrimaryOwnerID   int64
	SecondaryOwnerID *int64
	SecretKey        string
	Currency         string
	CreditLimit      *decimal.Decimal
	InterestRate     *decimal.Decimal
	RequestedBy      string
}

// UpdateAccountBalanceCommand carries the raw currency; an empty one means
// the configured default currency.
type UpdateAccountBalanceCommand struct {
	AccountID   int64
	Amount      decimal.Decimal
	Currency    string
	RequestedBy string
}

type UpdateAccountStatusCommand struct {
	AccountID   int64
	Status      models.AccountStatus
	RequestedBy string
}

type DeleteAccountCommand struct {
	AccountID   int64
	RequestedBy string
}

type LoginCommand struct {
	Username string
	Password string
}

type RefreshTokenCommand struct {
	Token string
}
