package command

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/eaglebank/admin-service/internal/repository"
	"github.com/eaglebank/admin-service/shared/apperror"
	"github.com/eaglebank/admin-service/shared/cqrs"
	"github.com/eaglebank/admin-service/shared/events"
	"github.com/eaglebank/admin-service/shared/models"
	"github.com/eaglebank/admin-service/shared/utils"
)

type EventPublisher interface {
	Publish(ctx context.Context, stream, eventType string, data any) error
}

// AccountViewCache is the account side of the Redis read model.
type AccountViewCache interface {
	CacheAccountView(ctx context.Context, view *models.AccountView)
	InvalidateAccountView(ctx context.Context, id int64)
}

// HolderViewCache is the account holder side of the Redis read model.
// MarkEventApplied reports false when eventID was already applied.
type HolderViewCache interface {
	CacheHolderView(ctx context.Context, view *models.AccountHolderView)
	IncrAccountCount(ctx context.Context, holderID int64)
	DecrAccountCount(ctx context.Context, holderID int64)
	MarkEventApplied(ctx context.Context, eventID string) (bool, error)
}

type Options struct {
	// Holders younger than this get a StudentChecking instead of a Checking.
	StudentAgeThreshold int
	DefaultCurrency     string
	Now                 func() time.Time
}

// AdminCommandService performs every administrative write: user creation,
// account opening, balance and status changes, and account removal. Each
// write is persisted immediately, mirrored into the read model and announced
// on the event streams.
type AdminCommandService struct {
	accounts  repository.AccountStore
	users     repository.UserStore
	views     AccountViewCache
	holders   HolderViewCache
	publisher EventPublisher

	studentAgeThreshold int
	defaultCurrency     string
	now                 func() time.Time
}

func NewAdminCommandService(
	accounts repository.AccountStore,
	users repository.UserStore,
	views AccountViewCache,
	holders HolderViewCache,
	publisher EventPublisher,
	opts Options,
) *AdminCommandService {
	if opts.StudentAgeThreshold <= 0 {
		opts.StudentAgeThreshold = 24
	}
	if opts.DefaultCurrency == "" {
		opts.DefaultCurrency = models.DefaultCurrency
	}
	if opts.Now == nil {
		opts.Now = func() time.Time { return time.Now().UTC() }
	}
	return &AdminCommandService{
		accounts:            accounts,
		users:               users,
		views:               views,
		holders:             holders,
		publisher:           publisher,
		studentAgeThreshold: opts.StudentAgeThreshold,
		defaultCurrency:     strings.ToUpper(opts.DefaultCurrency),
		now:                 opts.Now,
	}
}

func (s *AdminCommandService) AddAdmin(ctx context.Context, cmd cqrs.AddAdminCommand) (*models.Admin, error) {
	user, err := s.newUser(cmd.Name, cmd.Username, cmd.Password, models.RoleAdmin)
	if err != nil {
		return nil, err
	}
	admin := &models.Admin{User: user}
	if err := s.users.CreateAdmin(ctx, admin); err != nil {
		return nil, err
	}
	log.Printf("AdminCommandService: admin %d (%s) created by %s", admin.ID, admin.Username, cmd.RequestedBy)
	s.publishUserCreated(ctx, &admin.User, cmd.RequestedBy)
	return admin, nil
}

func (s *AdminCommandService) AddAccountHolder(ctx context.Context, cmd cqrs.AddAccountHolderCommand) (*models.AccountHolder, error) {
	if cmd.DateOfBirth.IsZero() {
		return nil, apperror.Validation("date of birth is required")
	}
	if cmd.DateOfBirth.After(s.now()) {
		return nil, apperror.Validation("date of birth cannot be in the future")
	}
	user, err := s.newUser(cmd.Name, cmd.Username, cmd.Password, models.RoleAccountHolder)
	if err != nil {
		return nil, err
	}
	holder := &models.AccountHolder{
		User:           user,
		DateOfBirth:    cmd.DateOfBirth,
		PrimaryAddress: cmd.PrimaryAddress,
		MailAddress:    cmd.MailAddress,
	}
	if err := s.users.CreateAccountHolder(ctx, holder); err != nil {
		return nil, err
	}
	log.Printf("AdminCommandService: account holder %d (%s) created by %s", holder.ID, holder.Username, cmd.RequestedBy)
	s.holders.CacheHolderView(ctx, models.ToAccountHolderView(holder))
	s.publishUserCreated(ctx, &holder.User, cmd.RequestedBy)
	return holder, nil
}

// AddThirdParty stores the hashed key and username exactly as supplied.
func (s *AdminCommandService) AddThirdParty(ctx context.Context, cmd cqrs.AddThirdPartyCommand) (*models.ThirdParty, error) {
	user, err := s.newUser(cmd.Name, cmd.Username, cmd.Password, models.RoleThirdParty)
	if err != nil {
		return nil, err
	}
	thirdParty := &models.ThirdParty{User: user, HashedKey: cmd.HashedKey}
	if err := s.users.CreateThirdParty(ctx, thirdParty); err != nil {
		return nil, err
	}
	log.Printf("AdminCommandService: third party %d (%s) created by %s", thirdParty.ID, thirdParty.Username, cmd.RequestedBy)
	s.publishUserCreated(ctx, &thirdParty.User, cmd.RequestedBy)
	return thirdParty, nil
}

// AddChecking opens a StudentChecking when the primary owner is younger than
// the student age threshold and a regular Checking otherwise.
func (s *AdminCommandService) AddChecking(ctx context.Context, cmd cqrs.AddCheckingCommand) (models.Account, error) {
	var account models.Account
	err := s.accounts.WithTx(ctx, func(tx repository.AccountStore) error {
		primary, err := resolveOwners(ctx, tx, cmd.PrimaryOwnerID, cmd.SecondaryOwnerID)
		if err != nil {
			return err
		}
		now := s.now()
		base := models.NewAccountBase(primary.ID, cmd.SecondaryOwnerID, s.currency(cmd.Currency), now)
		if primary.AgeAt(now) < s.studentAgeThreshold {
			account = models.NewStudentChecking(base, cmd.SecretKey)
		} else {
			account = models.NewChecking(base, cmd.SecretKey)
		}
		return tx.Create(ctx, account)
	})
	if err != nil {
		return nil, err
	}
	s.accountCreated(ctx, account, cmd.RequestedBy)
	return account, nil
}

func (s *AdminCommandService) AddSavings(ctx context.Context, cmd cqrs.AddSavingsCommand) (*models.Savings, error) {
	var savings *models.Savings
	err := s.accounts.WithTx(ctx, func(tx repository.AccountStore) error {
		primary, err := resolveOwners(ctx, tx, cmd.PrimaryOwnerID, cmd.SecondaryOwnerID)
		if err != nil {
			return err
		}
		base := models.NewAccountBase(primary.ID, cmd.SecondaryOwnerID, s.currency(cmd.Currency), s.now())
		savings, err = models.NewSavings(base, cmd.SecretKey, cmd.MinimumBalance, cmd.InterestRate)
		if err != nil {
			return err
		}
		return tx.Create(ctx, savings)
	})
	if err != nil {
		return nil, err
	}
	s.accountCreated(ctx, savings, cmd.RequestedBy)
	return savings, nil
}

func (s *AdminCommandService) AddCreditCard(ctx context.Context, cmd cqrs.AddCreditCardCommand) (*models.CreditCard, error) {
	var card *models.CreditCard
	err := s.accounts.WithTx(ctx, func(tx repository.AccountStore) error {
		primary, err := resolveOwners(ctx, tx, cmd.PrimaryOwnerID, cmd.SecondaryOwnerID)
		if err != nil {
			return err
		}
		base := models.NewAccountBase(primary.ID, cmd.SecondaryOwnerID, s.currency(cmd.Currency), s.now())
		card, err = models.NewCreditCard(base, cmd.SecretKey, cmd.CreditLimit, cmd.InterestRate)
		if err != nil {
			return err
		}
		return tx.Create(ctx, card)
	})
	if err != nil {
		return nil, err
	}
	s.accountCreated(ctx, card, cmd.RequestedBy)
	return card, nil
}

// UpdateAccountBalance overwrites the stored balance amount and currency; it
// is an administrative correction, not a transfer. The account's fees and
// limits keep the currency the account was opened in.
func (s *AdminCommandService) UpdateAccountBalance(ctx context.Context, cmd cqrs.UpdateAccountBalanceCommand) (models.Account, error) {
	balance := models.NewMoney(cmd.Amount, s.currency(cmd.Currency))
	if err := s.accounts.UpdateBalance(ctx, cmd.AccountID, balance, s.now()); err != nil {
		return nil, err
	}
	account, err := s.accounts.GetByID(ctx, cmd.AccountID)
	if err != nil {
		return nil, err
	}
	log.Printf("AdminCommandService: balance of account %d set to %s by %s", cmd.AccountID, balance, cmd.RequestedBy)
	s.views.CacheAccountView(ctx, models.ToAccountView(account))
	if err := s.publisher.Publish(ctx, events.AccountEventsStream, events.BalanceUpdated, events.BalanceUpdatedEvent{
		AccountID: cmd.AccountID,
		Amount:    balance.Amount.StringFixed(2),
		Currency:  balance.Currency,
		By:        cmd.RequestedBy,
	}); err != nil {
		log.Printf("Failed to publish balance.updated event: %v", err)
	}
	return account, nil
}

func (s *AdminCommandService) UpdateAccountStatus(ctx context.Context, cmd cqrs.UpdateAccountStatusCommand) (models.Account, error) {
	if !cmd.Status.Valid() {
		return nil, apperror.Validation("unknown account status %q", cmd.Status)
	}
	if err := s.accounts.UpdateStatus(ctx, cmd.AccountID, cmd.Status, s.now()); err != nil {
		return nil, err
	}
	account, err := s.accounts.GetByID(ctx, cmd.AccountID)
	if err != nil {
		return nil, err
	}
	log.Printf("AdminCommandService: account %d set to %s by %s", cmd.AccountID, cmd.Status, cmd.RequestedBy)
	s.views.CacheAccountView(ctx, models.ToAccountView(account))
	if err := s.publisher.Publish(ctx, events.AccountEventsStream, events.AccountUpdated, events.AccountUpdatedEvent{
		AccountID: cmd.AccountID,
		Status:    string(cmd.Status),
		By:        cmd.RequestedBy,
	}); err != nil {
		log.Printf("Failed to publish account.updated event: %v", err)
	}
	return account, nil
}

// DeleteAccount removes the account permanently. A missing id is NotFound and
// leaves the store untouched.
func (s *AdminCommandService) DeleteAccount(ctx context.Context, cmd cqrs.DeleteAccountCommand) error {
	primary, secondary, err := s.accounts.Delete(ctx, cmd.AccountID)
	if err != nil {
		return err
	}
	log.Printf("AdminCommandService: account %d deleted by %s", cmd.AccountID, cmd.RequestedBy)
	s.views.InvalidateAccountView(ctx, cmd.AccountID)
	if err := s.publisher.Publish(ctx, events.AccountEventsStream, events.AccountDeleted, events.AccountDeletedEvent{
		AccountID:        cmd.AccountID,
		PrimaryOwnerID:   primary,
		SecondaryOwnerID: secondary,
		By:               cmd.RequestedBy,
	}); err != nil {
		log.Printf("Failed to publish account.deleted event: %v", err)
	}
	return nil
}

// HandleAccountEvent keeps the per-holder account counters in step with
// account creation and deletion. Redelivered events are applied once, and a
// holder who is both owners of an account is counted once.
func (s *AdminCommandService) HandleAccountEvent(ctx context.Context, event events.Event) error {
	var (
		owners []int64
		apply  func(context.Context, int64)
	)
	switch event.Type {
	case events.AccountCreated:
		var data events.AccountCreatedEvent
		if err := events.Decode(event, &data); err != nil {
			return err
		}
		owners, apply = accountOwners(data.PrimaryOwnerID, data.SecondaryOwnerID), s.holders.IncrAccountCount
	case events.AccountDeleted:
		var data events.AccountDeletedEvent
		if err := events.Decode(event, &data); err != nil {
			return err
		}
		owners, apply = accountOwners(data.PrimaryOwnerID, data.SecondaryOwnerID), s.holders.DecrAccountCount
	default:
		return nil
	}

	first, err := s.holders.MarkEventApplied(ctx, event.ID)
	if err != nil {
		return err
	}
	if !first {
		log.Printf("AdminCommandService: skipping already applied %s event %s", event.Type, event.ID)
		return nil
	}
	for _, id := range owners {
		apply(ctx, id)
	}
	return nil
}

func accountOwners(primary int64, secondary *int64) []int64 {
	if secondary == nil || *secondary == primary {
		return []int64{primary}
	}
	return []int64{primary, *secondary}
}

// resolveOwners looks each owner reference up exactly once. An absent
// secondary owner is fine; one that does not resolve is NotFound.
func resolveOwners(ctx context.Context, tx repository.AccountStore, primaryID int64, secondaryID *int64) (*models.AccountHolder, error) {
	primary, err := tx.GetAccountHolder(ctx, primaryID)
	if err != nil {
		return nil, err
	}
	if secondaryID != nil {
		if _, err := tx.GetAccountHolder(ctx, *secondaryID); err != nil {
			return nil, err
		}
	}
	return primary, nil
}

func (s *AdminCommandService) newUser(name, username, password string, role models.Role) (models.User, error) {
	if strings.TrimSpace(name) == "" || strings.TrimSpace(username) == "" || password == "" {
		return models.User{}, apperror.Validation("name, username and password are required")
	}
	hash, err := utils.HashPassword(password)
	if err != nil {
		return models.User{}, apperror.Internal("failed to hash password", err)
	}
	return models.User{
		Name:         name,
		Username:     username,
		PasswordHash: hash,
		Roles:        []models.Role{role},
		CreatedAt:    s.now(),
	}, nil
}

func (s *AdminCommandService) currency(requested string) string {
	if strings.TrimSpace(requested) == "" {
		return s.defaultCurrency
	}
	return requested
}

func (s *AdminCommandService) accountCreated(ctx context.Context, account models.Account, by string) {
	base := account.Details()
	log.Printf("AdminCommandService: %s account %d opened for holder %d by %s", account.Type(), base.ID, base.PrimaryOwnerID, by)
	s.views.CacheAccountView(ctx, models.ToAccountView(account))
	if err := s.publisher.Publish(ctx, events.AccountEventsStream, events.AccountCreated, events.AccountCreatedEvent{
		AccountID:        base.ID,
		AccountType:      string(account.Type()),
		PrimaryOwnerID:   base.PrimaryOwnerID,
		SecondaryOwnerID: base.SecondaryOwnerID,
		By:               by,
	}); err != nil {
		log.Printf("Failed to publish account.created event: %v", err)
	}
}

func (s *AdminCommandService) publishUserCreated(ctx context.Context, user *models.User, by string) {
	if err := s.publisher.Publish(ctx, events.UserEventsStream, events.UserCreated, events.UserCreatedEvent{
		UserID:   user.ID,
		Username: user.Username,
		Role:     string(user.Kind()),
		By:       by,
	}); err != nil {
		log.Printf("Failed to publish user.created event: %v", err)
	}
}
