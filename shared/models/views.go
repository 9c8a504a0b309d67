package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// AccountView is the read-optimised projection of any account variant.
// Variant-specific fields are omitted when the variant does not have them.
// The secret key is never part of the view.
type AccountView struct {
	ID                    int64            `json:"id"`
	AccountType           AccountType      `json:"accountType"`
	PrimaryOwnerID        int64            `json:"primaryOwnerId"`
	SecondaryOwnerID      *int64           `json:"secondaryOwnerId,omitempty"`
	Balance               Money            `json:"balance"`
	PenaltyFee            Money            `json:"penaltyFee"`
	Status                AccountStatus    `json:"status"`
	MinimumBalance        *Money           `json:"minimumBalance,omitempty"`
	MonthlyMaintenanceFee *Money           `json:"monthlyMaintenanceFee,omitempty"`
	CreditLimit           *Money           `json:"creditLimit,omitempty"`
	InterestRate          *decimal.Decimal `json:"interestRate,omitempty"`
	CreatedAt             time.Time        `json:"createdTimestamp"`
	UpdatedAt             time.Time        `json:"updatedTimestamp"`
}

func ToAccountView(a Account) *AccountView {
	base := a.Details()
	view := &AccountView{
		ID:               base.ID,
		AccountType:      a.Type(),
		PrimaryOwnerID:   base.PrimaryOwnerID,
		SecondaryOwnerID: base.SecondaryOwnerID,
		Balance:          base.Balance,
		PenaltyFee:       base.PenaltyFee,
		Status:           base.Status,
		CreatedAt:        base.CreatedAt,
		UpdatedAt:        base.UpdatedAt,
	}
	switch acc := a.(type) {
	case *Checking:
		view.MinimumBalance = &acc.MinimumBalance
		view.MonthlyMaintenanceFee = &acc.MonthlyMaintenanceFee
	case *Savings:
		view.MinimumBalance = &acc.MinimumBalance
		view.InterestRate = &acc.InterestRate
	case *CreditCard:
		view.CreditLimit = &acc.CreditLimit
		view.InterestRate = &acc.InterestRate
	}
	return view
}

// BalanceView is returned by balance queries.
type BalanceView struct {
	AccountID int64 `json:"accountId"`
	Balance   Money `json:"balance"`
}

// AccountHolderView is the read-optimised projection of an account holder.
// AccountCount is maintained from account events.
type AccountHolderView struct {
	ID             int64     `json:"id"`
	Name           string    `json:"name"`
	Username       string    `json:"username"`
	Roles          []Role    `json:"roles"`
	DateOfBirth    time.Time `json:"dateOfBirth"`
	PrimaryAddress Address   `json:"primaryAddress"`
	MailAddress    *Address  `json:"mailAddress,omitempty"`
	AccountCount   int64     `json:"accountCount"`
	CreatedAt      time.Time `json:"createdTimestamp"`
}

func ToAccountHolderView(h *AccountHolder) *AccountHolderView {
	return &AccountHolderView{
		ID:             h.ID,
		Name:           h.Name,
		Username:       h.Username,
		Roles:          h.Roles,
		DateOfBirth:    h.DateOfBirth,
		PrimaryAddress: h.PrimaryAddress,
		MailAddress:    h.MailAddress,
		CreatedAt:      h.CreatedAt,
	}
}
