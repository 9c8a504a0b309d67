package models

import (
	"time"

	"github.com/eaglebank/admin-service/shared/apperror"
	"github.com/shopspring/decimal"
)

type AccountType string

const (
	AccountTypeChecking        AccountType = "CHECKING"
	AccountTypeStudentChecking AccountType = "STUDENT_CHECKING"
	AccountTypeSavings         AccountType = "SAVINGS"
	AccountTypeCreditCard      AccountType = "CREDIT_CARD"
)

type AccountStatus string

const (
	StatusActive AccountStatus = "ACTIVE"
	StatusFrozen AccountStatus = "FROZEN"
)

func (s AccountStatus) Valid() bool {
	return s == StatusActive || s == StatusFrozen
}

var (
	PenaltyFee = decimal.NewFromInt(40)

	CheckingMinimumBalance        = decimal.NewFromInt(250)
	CheckingMonthlyMaintenanceFee = decimal.NewFromInt(12)

	SavingsDefaultMinimumBalance = decimal.NewFromInt(1000)
	SavingsLowestMinimumBalance  = decimal.NewFromInt(100)
	SavingsDefaultInterestRate   = decimal.RequireFromString("0.0025")
	SavingsMaxInterestRate       = decimal.RequireFromString("0.5")

	CreditCardDefaultLimit        = decimal.NewFromInt(100)
	CreditCardMaxLimit            = decimal.NewFromInt(100000)
	CreditCardDefaultInterestRate = decimal.RequireFromString("0.2")
	CreditCardMinInterestRate     = decimal.RequireFromString("0.1")
)

// InterestRatePlaces is the precision interest rates are stored with.
const InterestRatePlaces = 4

// Account is the closed set of account variants. The concrete type is chosen
// once at construction and never changes.
type Account interface {
	Details() *AccountBase
	Type() AccountType
	isAccount()
}

// AccountBase holds the fields every variant shares. Owners are referenced by
// id; the holder records live in the users table.
type AccountBase struct {
	ID               int64         `json:"id"`
	PrimaryOwnerID   int64         `json:"primaryOwnerId"`
	SecondaryOwnerID *int64        `json:"secondaryOwnerId,omitempty"`
	Balance          Money         `json:"balance"`
	PenaltyFee       Money         `json:"penaltyFee"`
	Status           AccountStatus `json:"status"`
	CreatedAt        time.Time     `json:"createdTimestamp"`
	UpdatedAt        time.Time     `json:"updatedTimestamp"`
}

func (b *AccountBase) Details() *AccountBase { return b }
func (b *AccountBase) isAccount()            {}

// NewAccountBase returns an active account with a zero balance in currency.
func NewAccountBase(primaryOwnerID int64, secondaryOwnerID *int64, currency string, now time.Time) AccountBase {
	balance := Zero(currency)
	return AccountBase{
		PrimaryOwnerID:   primaryOwnerID,
		SecondaryOwnerID: secondaryOwnerID,
		Balance:          balance,
		PenaltyFee:       NewMoney(PenaltyFee, balance.Currency),
		Status:           StatusActive,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
}

type Checking struct {
	AccountBase
	SecretKey             string `json:"-"`
	MinimumBalance        Money  `json:"minimumBalance"`
	MonthlyMaintenanceFee Money  `json:"monthlyMaintenanceFee"`
}

func (*Checking) Type() AccountType { return AccountTypeChecking }

func NewChecking(base AccountBase, secretKey string) *Checking {
	return &Checking{
		AccountBase:           base,
		SecretKey:             secretKey,
		MinimumBalance:        NewMoney(CheckingMinimumBalance, base.Balance.Currency),
		MonthlyMaintenanceFee: NewMoney(CheckingMonthlyMaintenanceFee, base.Balance.Currency),
	}
}

// StudentChecking has no minimum balance and no maintenance fee.
type StudentChecking struct {
	AccountBase
	SecretKey string `json:"-"`
}

func (*StudentChecking) Type() AccountType { return AccountTypeStudentChecking }

func NewStudentChecking(base AccountBase, secretKey string) *StudentChecking {
	return &StudentChecking{AccountBase: base, SecretKey: secretKey}
}

type Savings struct {
	AccountBase
	SecretKey      string          `json:"-"`
	MinimumBalance Money           `json:"minimumBalance"`
	InterestRate   decimal.Decimal `json:"interestRate"`
}

func (*Savings) Type() AccountType { return AccountTypeSavings }

// NewSavings applies the default minimum balance and interest rate when they
// are nil and rejects values outside the allowed ranges. Rates are rounded to
// InterestRatePlaces first, so a rate that rounds to zero is rejected.
func NewSavings(base AccountBase, secretKey string, minimumBalance, interestRate *decimal.Decimal) (*Savings, error) {
	minBal := SavingsDefaultMinimumBalance
	if minimumBalance != nil {
		minBal = *minimumBalance
	}
	rate := SavingsDefaultInterestRate
	if interestRate != nil {
		rate = interestRate.Round(InterestRatePlaces)
	}

	if minBal.LessThan(SavingsLowestMinimumBalance) || minBal.GreaterThan(SavingsDefaultMinimumBalance) {
		return nil, apperror.Validation("savings minimum balance must be between %s and %s",
			SavingsLowestMinimumBalance, SavingsDefaultMinimumBalance)
	}
	if !rate.IsPositive() || rate.GreaterThan(SavingsMaxInterestRate) {
		return nil, apperror.Validation("savings interest rate must be at least 0.0001 and at most %s", SavingsMaxInterestRate)
	}

	return &Savings{
		AccountBase:    base,
		SecretKey:      secretKey,
		MinimumBalance: NewMoney(minBal, base.Balance.Currency),
		InterestRate:   rate,
	}, nil
}

type CreditCard struct {
	AccountBase
	SecretKey    string          `json:"-"`
	CreditLimit  Money           `json:"creditLimit"`
	InterestRate decimal.Decimal `json:"interestRate"`
}

func (*CreditCard) Type() AccountType { return AccountTypeCreditCard }

// NewCreditCard applies the default limit and interest rate when they are nil.
// Rates are rounded to InterestRatePlaces before the range check.
func NewCreditCard(base AccountBase, secretKey string, creditLimit, interestRate *decimal.Decimal) (*CreditCard, error) {
	limit := CreditCardDefaultLimit
	if creditLimit != nil {
		limit = *creditLimit
	}
	rate := CreditCardDefaultInterestRate
	if interestRate != nil {
		rate = interestRate.Round(InterestRatePlaces)
	}

	if limit.LessThan(CreditCardDefaultLimit) || limit.GreaterThan(CreditCardMaxLimit) {
		return nil, apperror.Validation("credit limit must be between %s and %s", CreditCardDefaultLimit, CreditCardMaxLimit)
	}
	if rate.LessThan(CreditCardMinInterestRate) || rate.GreaterThan(CreditCardDefaultInterestRate) {
		return nil, apperror.Validation("credit card interest rate must be between %s and %s",
			CreditCardMinInterestRate, CreditCardDefaultInterestRate)
	}

	return &CreditCard{
		AccountBase:  base,
		SecretKey:    secretKey,
		CreditLimit:  NewMoney(limit, base.Balance.Currency),
		InterestRate: rate,
	}, nil
}

// SecretKeyOf returns the secret key of variants that carry one.
func SecretKeyOf(a Account) string {
	switch acc := a.(type) {
	case *Checking:
		return acc.SecretKey
	case *StudentChecking:
		return acc.SecretKey
	case *Savings:
		return acc.SecretKey
	case *CreditCard:
		return acc.SecretKey
	default:
		return ""
	}
}
