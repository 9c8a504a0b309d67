package query

import (
	"context"

	"github.com/eaglebank/admin-service/shared/cqrs"
	"github.com/eaglebank/admin-service/shared/models"
)

type AccountViewReader interface {
	GetByID(ctx context.Context, id int64) (*models.AccountView, error)
}

type HolderViewReader interface {
	GetAccountHolder(ctx context.Context, id int64) (*models.AccountHolderView, error)
}

// AccountQueryService reads account and holder views from the Redis read
// model, which falls back to PostgreSQL on a miss.
type AccountQueryService struct {
	accounts AccountViewReader
	holders  HolderViewReader
}

func NewAccountQueryService(accounts AccountViewReader, holders HolderViewReader) *AccountQueryService {
	return &AccountQueryService{accounts: accounts, holders: holders}
}

func (s *AccountQueryService) GetAccount(ctx context.Context, q cqrs.GetAccountQuery) (*models.AccountView, error) {
	return s.accounts.GetByID(ctx, q.AccountID)
}

func (s *AccountQueryService) GetAccountBalance(ctx context.Context, q cqrs.GetAccountBalanceQuery) (*models.BalanceView, error) {
	view, err := s.accounts.GetByID(ctx, q.AccountID)
	if err != nil {
		return nil, err
	}
	return &models.BalanceView{AccountID: view.ID, Balance: view.Balance}, nil
}

func (s *AccountQueryService) GetAccountHolder(ctx context.Context, q cqrs.GetAccountHolderQuery) (*models.AccountHolderView, error) {
	return s.holders.GetAccountHolder(ctx, q.HolderID)
}
