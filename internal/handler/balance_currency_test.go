package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/eaglebank/admin-service/internal/command"
	"github.com/eaglebank/admin-service/internal/repository"
	"github.com/eaglebank/admin-service/shared/apperror"
	"github.com/eaglebank/admin-service/shared/models"
)

// memAccounts is just enough of an AccountStore to run the real command
// service behind the handler.
type memAccounts struct {
	holder   *models.AccountHolder
	accounts map[int64]models.Account
}

func (m *memAccounts) WithTx(_ context.Context, fn func(repository.AccountStore) error) error {
	return fn(m)
}

func (m *memAccounts) GetAccountHolder(_ context.Context, id int64) (*models.AccountHolder, error) {
	if m.holder == nil || m.holder.ID != id {
		return nil, apperror.NotFound("account holder %d not found", id)
	}
	return m.holder, nil
}

func (m *memAccounts) Create(_ context.Context, a models.Account) error {
	a.Details().ID = int64(len(m.accounts) + 1)
	m.accounts[a.Details().ID] = a
	return nil
}

func (m *memAccounts) GetByID(_ context.Context, id int64) (models.Account, error) {
	a, ok := m.accounts[id]
	if !ok {
		return nil, apperror.NotFound("account %d not found", id)
	}
	return a, nil
}

func (m *memAccounts) UpdateBalance(ctx context.Context, id int64, balance models.Money, _ time.Time) error {
	a, err := m.GetByID(ctx, id)
	if err != nil {
		return err
	}
	a.Details().Balance = balance
	return nil
}

func (m *memAccounts) UpdateStatus(ctx context.Context, id int64, status models.AccountStatus, _ time.Time) error {
	a, err := m.GetByID(ctx, id)
	if err != nil {
		return err
	}
	a.Details().Status = status
	return nil
}

func (m *memAccounts) Delete(context.Context, int64) (int64, *int64, error) {
	return 0, nil, apperror.NotFound("not used")
}

type noopUsers struct{}

func (noopUsers) CreateAdmin(context.Context, *models.Admin) error {
	return nil
}

func (noopUsers) CreateAccountHolder(context.Context, *models.AccountHolder) error {
	return nil
}

func (noopUsers) CreateThirdParty(context.Context, *models.ThirdParty) error {
	return nil
}

func (noopUsers) GetAdminByUsername(context.Context, string) (*models.Admin, error) {
	return nil, apperror.NotFound("not used")
}

// noopReadModel stands in for the Redis read model and the event publisher.
type noopReadModel struct{}

func (noopReadModel) CacheAccountView(context.Context, *models.AccountView) {}

func (noopReadModel) InvalidateAccountView(context.Context, int64) {}

func (noopReadModel) CacheHolderView(context.Context, *models.AccountHolderView) {}

func (noopReadModel) IncrAccountCount(context.Context, int64) {}

func (noopReadModel) DecrAccountCount(context.Context, int64) {}

func (noopReadModel) MarkEventApplied(context.Context, string) (bool, error) {
	return true, nil
}

func (noopReadModel) Publish(context.Context, string, string, any) error {
	return nil
}

func TestBalanceUpdateUsesConfiguredDefaultCurrency(t *testing.T) {
	accounts := &memAccounts{
		holder: &models.AccountHolder{
			User:        models.User{ID: 1, Name: "Teresa", Username: "username"},
			DateOfBirth: time.Date(1970, 2, 20, 0, 0, 0, 0, time.UTC),
		},
		accounts: map[int64]models.Account{},
	}
	svc := command.NewAdminCommandService(accounts, noopUsers{}, noopReadModel{}, noopReadModel{}, noopReadModel{}, command.Options{
		DefaultCurrency: "EUR",
		Now:             func() time.Time { return handlerNow },
	})
	router := newAdminTestRouter(svc, &mockAdminQuerier{})

	created := doRequest(router, http.MethodPost, "/v1/admin/accounts/checking", map[string]any{
		"primaryOwnerId": 1, "secretKey": "password",
	})
	if created.Code != http.StatusCreated {
		t.Fatalf("expected %d got %d; body: %s", http.StatusCreated, created.Code, created.Body.String())
	}

	tests := []struct {
		name string
		body map[string]any
		want models.Money
	}{
		{"omitted currency", map[string]any{"amount": "50"}, models.MustParseMoney("50", "EUR")},
		{"explicit currency", map[string]any{"amount": "75.5", "currency": "GBP"}, models.MustParseMoney("75.50", "GBP")},
	}
	for _, tt := range tests {
		w := doRequest(router, http.MethodPatch, "/v1/admin/accounts/1/balance", tt.body)
		if w.Code != http.StatusOK {
			t.Fatalf("[%s] expected %d got %d; body: %s", tt.name, http.StatusOK, w.Code, w.Body.String())
		}
		var view models.AccountView
		if err := json.Unmarshal(w.Body.Bytes(), &view); err != nil {
			t.Fatalf("[%s] decode: %v", tt.name, err)
		}
		if !view.Balance.Equal(tt.want) {
			t.Errorf("[%s] expected balance %s got %s", tt.name, tt.want, view.Balance)
		}
		if view.PenaltyFee.Currency != "EUR" {
			t.Errorf("[%s] expected penalty fee to stay in EUR, got %s", tt.name, view.PenaltyFee)
		}
	}
}
