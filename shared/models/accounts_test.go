package models

import (
	"testing"
	"time"

	"github.com/eaglebank/admin-service/shared/apperror"
	"github.com/shopspring/decimal"
)

var testNow = time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)

func dec(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func TestAgeAt(t *testing.T) {
	tests := []struct {
		name     string
		dob      time.Time
		expected int
	}{
		{name: "born 1970", dob: time.Date(1970, 2, 20, 0, 0, 0, 0, time.UTC), expected: 56},
		{name: "born 2005", dob: time.Date(2005, 8, 30, 0, 0, 0, 0, time.UTC), expected: 21},
		{name: "birthday later this year", dob: time.Date(2002, 12, 1, 0, 0, 0, 0, time.UTC), expected: 23},
		{name: "birthday today", dob: time.Date(2002, 10, 18, 0, 0, 0, 0, time.UTC), expected: 24},
		{name: "birthday tomorrow", dob: time.Date(2002, 10, 19, 0, 0, 0, 0, time.UTC), expected: 23},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := AgeAt(tt.dob, testNow); got != tt.expected {
				t.Errorf("expected %d got %d", tt.expected, got)
			}
		})
	}
}

func TestNewAccountBase(t *testing.T) {
	base := NewAccountBase(1, nil, "", testNow)
	if base.Status != StatusActive {
		t.Errorf("expected ACTIVE, got %s", base.Status)
	}
	if base.Balance.Currency != DefaultCurrency || !base.Balance.Amount.IsZero() {
		t.Errorf("expected zero USD balance, got %s", base.Balance)
	}
	if base.SecondaryOwnerID != nil {
		t.Error("expected no secondary owner")
	}
	if !base.PenaltyFee.Equal(MustParseMoney("40", "USD")) {
		t.Errorf("unexpected penalty fee %s", base.PenaltyFee)
	}
}

func TestCheckingVariants(t *testing.T) {
	base := NewAccountBase(1, nil, "EUR", testNow)

	var checking Account = NewChecking(base, "secretKey")
	if checking.Type() != AccountTypeChecking {
		t.Fatalf("unexpected type %s", checking.Type())
	}
	c := checking.(*Checking)
	if !c.MinimumBalance.Equal(MustParseMoney("250", "EUR")) || !c.MonthlyMaintenanceFee.Equal(MustParseMoney("12", "EUR")) {
		t.Errorf("unexpected checking terms %s / %s", c.MinimumBalance, c.MonthlyMaintenanceFee)
	}

	var student Account = NewStudentChecking(base, "secretKey")
	if student.Type() != AccountTypeStudentChecking {
		t.Fatalf("unexpected type %s", student.Type())
	}
	if SecretKeyOf(student) != "secretKey" {
		t.Errorf("unexpected secret key %q", SecretKeyOf(student))
	}
	view := ToAccountView(student)
	if view.MinimumBalance != nil || view.MonthlyMaintenanceFee != nil {
		t.Error("student checking view must not carry minimum balance or fee")
	}
}

func TestNewSavings(t *testing.T) {
	tests := []struct {
		name           string
		minimumBalance *decimal.Decimal
		interestRate   *decimal.Decimal
		wantErr        bool
		wantMinBalance string
		wantRate       string
	}{
		{name: "defaults", wantMinBalance: "1000", wantRate: "0.0025"},
		{name: "supplied values", minimumBalance: dec("1000"), interestRate: dec("0.2"), wantMinBalance: "1000", wantRate: "0.2"},
		{name: "lowest minimum balance", minimumBalance: dec("100"), wantMinBalance: "100", wantRate: "0.0025"},
		{name: "minimum balance too low", minimumBalance: dec("99.99"), wantErr: true},
		{name: "minimum balance too high", minimumBalance: dec("1000.01"), wantErr: true},
		{name: "interest rate too high", interestRate: dec("0.51"), wantErr: true},
		{name: "negative interest rate", interestRate: dec("-0.1"), wantErr: true},
		{name: "interest rate rounds to zero", interestRate: dec("0.00004"), wantErr: true},
		{name: "interest rate rounded to four places", interestRate: dec("0.12345"), wantMinBalance: "1000", wantRate: "0.1235"},
		{name: "smallest storable interest rate", interestRate: dec("0.00005"), wantMinBalance: "1000", wantRate: "0.0001"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := NewSavings(NewAccountBase(1, nil, "", testNow), "savingsSecretKey", tt.minimumBalance, tt.interestRate)
			if tt.wantErr {
				if !apperror.IsValidation(err) {
					t.Fatalf("expected validation error, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !s.MinimumBalance.Equal(MustParseMoney(tt.wantMinBalance, "USD")) {
				t.Errorf("expected minimum balance %s got %s", tt.wantMinBalance, s.MinimumBalance)
			}
			if !s.InterestRate.Equal(decimal.RequireFromString(tt.wantRate)) {
				t.Errorf("expected interest rate %s got %s", tt.wantRate, s.InterestRate)
			}
			if s.SecretKey != "savingsSecretKey" {
				t.Errorf("unexpected secret key %q", s.SecretKey)
			}
		})
	}
}

func TestNewCreditCard(t *testing.T) {
	tests := []struct {
		name         string
		creditLimit  *decimal.Decimal
		interestRate *decimal.Decimal
		wantErr      bool
		wantLimit    string
		wantRate     string
	}{
		{name: "defaults", wantLimit: "100", wantRate: "0.2"},
		{name: "supplied values", creditLimit: dec("1000"), interestRate: dec("0.2"), wantLimit: "1000", wantRate: "0.2"},
		{name: "max limit", creditLimit: dec("100000"), interestRate: dec("0.1"), wantLimit: "100000", wantRate: "0.1"},
		{name: "negative limit", creditLimit: dec("-1"), wantErr: true},
		{name: "limit too high", creditLimit: dec("100001"), wantErr: true},
		{name: "interest rate too low", interestRate: dec("0.05"), wantErr: true},
		{name: "interest rate too high", interestRate: dec("0.3"), wantErr: true},
		{name: "interest rate rounds below minimum", interestRate: dec("0.09994"), wantErr: true},
		{name: "interest rate rounded to four places", interestRate: dec("0.15006"), wantLimit: "100", wantRate: "0.1501"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cc, err := NewCreditCard(NewAccountBase(1, nil, "", testNow), "password", tt.creditLimit, tt.interestRate)
			if tt.wantErr {
				if !apperror.IsValidation(err) {
					t.Fatalf("expected validation error, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !cc.CreditLimit.Equal(MustParseMoney(tt.wantLimit, "USD")) {
				t.Errorf("expected limit %s got %s", tt.wantLimit, cc.CreditLimit)
			}
			if !cc.InterestRate.Equal(decimal.RequireFromString(tt.wantRate)) {
				t.Errorf("expected rate %s got %s", tt.wantRate, cc.InterestRate)
			}
			if cc.Balance.Currency != "USD" {
				t.Errorf("expected USD balance, got %s", cc.Balance.Currency)
			}
			if SecretKeyOf(cc) != "password" {
				t.Errorf("expected secret key to be kept, got %q", SecretKeyOf(cc))
			}
		})
	}
}

func TestAccountStatusValid(t *testing.T) {
	if !StatusActive.Valid() || !StatusFrozen.Valid() {
		t.Fatal("known statuses must be valid")
	}
	if AccountStatus("CLOSED").Valid() {
		t.Fatal("unknown status reported valid")
	}
}
