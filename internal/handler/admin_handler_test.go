package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/eaglebank/admin-service/shared/apperror"
	"github.com/eaglebank/admin-service/shared/cqrs"
	"github.com/eaglebank/admin-service/shared/middleware"
	"github.com/eaglebank/admin-service/shared/models"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// ---- mock implementations ----

type mockAdminCommander struct {
	addAdminFn      func(cqrs.AddAdminCommand) (*models.Admin, error)
	addHolderFn     func(cqrs.AddAccountHolderCommand) (*models.AccountHolder, error)
	addThirdPartyFn func(cqrs.AddThirdPartyCommand) (*models.ThirdParty, error)
	addCheckingFn   func(cqrs.AddCheckingCommand) (models.Account, error)
	addSavingsFn    func(cqrs.AddSavingsCommand) (*models.Savings, error)
	addCardFn       func(cqrs.AddCreditCardCommand) (*models.CreditCard, error)
	balanceFn       func(cqrs.UpdateAccountBalanceCommand) (models.Account, error)
	statusFn        func(cqrs.UpdateAccountStatusCommand) (models.Account, error)
	deleteFn        func(cqrs.DeleteAccountCommand) error
}

func (m *mockAdminCommander) AddAdmin(_ context.Context, cmd cqrs.AddAdminCommand) (*models.Admin, error) {
	if m.addAdminFn != nil {
		return m.addAdminFn(cmd)
	}
	return nil, fmt.Errorf("not configured")
}
func (m *mockAdminCommander) AddAccountHolder(_ context.Context, cmd cqrs.AddAccountHolderCommand) (*models.AccountHolder, error) {
	if m.addHolderFn != nil {
		return m.addHolderFn(cmd)
	}
	return nil, fmt.Errorf("not configured")
}
func (m *mockAdminCommander) AddThirdParty(_ context.Context, cmd cqrs.AddThirdPartyCommand) (*models.ThirdParty, error) {
	if m.addThirdPartyFn != nil {
		return m.addThirdPartyFn(cmd)
	}
	return nil, fmt.Errorf("not configured")
}
func (m *mockAdminCommander) AddChecking(_ context.Context, cmd cqrs.AddCheckingCommand) (models.Account, error) {
	if m.addCheckingFn != nil {
		return m.addCheckingFn(cmd)
	}
	return nil, fmt.Errorf("not configured")
}
func (m *mockAdminCommander) AddSavings(_ context.Context, cmd cqrs.AddSavingsCommand) (*models.Savings, error) {
	if m.addSavingsFn != nil {
		return m.addSavingsFn(cmd)
	}
	return nil, fmt.Errorf("not configured")
}
func (m *mockAdminCommander) AddCreditCard(_ context.Context, cmd cqrs.AddCreditCardCommand) (*models.CreditCard, error) {
	if m.addCardFn != nil {
		return m.addCardFn(cmd)
	}
	return nil, fmt.Errorf("not configured")
}
func (m *mockAdminCommander) UpdateAccountBalance(_ context.Context, cmd cqrs.UpdateAccountBalanceCommand) (models.Account, error) {
	if m.balanceFn != nil {
		return m.balanceFn(cmd)
	}
	return nil, fmt.Errorf("not configured")
}
func (m *mockAdminCommander) UpdateAccountStatus(_ context.Context, cmd cqrs.UpdateAccountStatusCommand) (models.Account, error) {
	if m.statusFn != nil {
		return m.statusFn(cmd)
	}
	return nil, fmt.Errorf("not configured")
}
func (m *mockAdminCommander) DeleteAccount(_ context.Context, cmd cqrs.DeleteAccountCommand) error {
	if m.deleteFn != nil {
		return m.deleteFn(cmd)
	}
	return fmt.Errorf("not configured")
}

type mockAdminQuerier struct {
	getAccountFn func(cqrs.GetAccountQuery) (*models.AccountView, error)
	getBalanceFn func(cqrs.GetAccountBalanceQuery) (*models.BalanceView, error)
	getHolderFn  func(cqrs.GetAccountHolderQuery) (*models.AccountHolderView, error)
}

func (m *mockAdminQuerier) GetAccount(_ context.Context, q cqrs.GetAccountQuery) (*models.AccountView, error) {
	if m.getAccountFn != nil {
		return m.getAccountFn(q)
	}
	return nil, fmt.Errorf("not configured")
}
func (m *mockAdminQuerier) GetAccountBalance(_ context.Context, q cqrs.GetAccountBalanceQuery) (*models.BalanceView, error) {
	if m.getBalanceFn != nil {
		return m.getBalanceFn(q)
	}
	return nil, fmt.Errorf("not configured")
}
func (m *mockAdminQuerier) GetAccountHolder(_ context.Context, q cqrs.GetAccountHolderQuery) (*models.AccountHolderView, error) {
	if m.getHolderFn != nil {
		return m.getHolderFn(q)
	}
	return nil, fmt.Errorf("not configured")
}

// ---- helpers ----

func fakeAdmin(username string) gin.HandlerFunc {
	return func(c *gin.Context) {
		middleware.SetPrincipal(c, middleware.Principal{UserID: 1, Username: username, Roles: []models.Role{models.RoleAdmin}})
		c.Next()
	}
}

func newAdminTestRouter(cmds AdminCommander, qrys AdminQuerier) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(fakeAdmin("root"))
	NewAdminHandler(cmds, qrys).RegisterRoutes(r.Group("/v1/admin"))
	return r
}

var handlerNow = time.Date(2026, 10, 18, 0, 0, 0, 0, time.UTC)

func testBase(id int64) models.AccountBase {
	base := models.NewAccountBase(1, nil, "", handlerNow)
	base.ID = id
	return base
}

var validAddress = map[string]string{"street": "Gran Via 1", "postalCode": "28013", "city": "Madrid", "country": "Spain"}

// ---- tests ----

func TestAddAdmin(t *testing.T) {
	tests := []struct {
		name           string
		body           any
		addFn          func(cqrs.AddAdminCommand) (*models.Admin, error)
		expectedStatus int
	}{
		{
			name: "success - admin created",
			body: map[string]string{"name": "Root", "username": "root2", "password": "password"},
			addFn: func(cmd cqrs.AddAdminCommand) (*models.Admin, error) {
				if cmd.RequestedBy != "root" {
					return nil, fmt.Errorf("expected requestedBy root, got %q", cmd.RequestedBy)
				}
				return &models.Admin{User: models.User{ID: 2, Name: cmd.Name, Username: cmd.Username}}, nil
			},
			expectedStatus: http.StatusCreated,
		},
		{
			name:           "bad request - missing password",
			body:           map[string]string{"name": "Root", "username": "root2"},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "server error - store failure",
			body:           map[string]string{"name": "Root", "username": "root2", "password": "password"},
			addFn:          func(cqrs.AddAdminCommand) (*models.Admin, error) { return nil, apperror.Internal("boom", nil) },
			expectedStatus: http.StatusInternalServerError,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newAdminTestRouter(&mockAdminCommander{addAdminFn: tt.addFn}, &mockAdminQuerier{})
			w := doRequest(router, http.MethodPost, "/v1/admin/admins", tt.body)
			if w.Code != tt.expectedStatus {
				t.Errorf("[%s] expected %d got %d; body: %s", tt.name, tt.expectedStatus, w.Code, w.Body.String())
			}
		})
	}
}

func TestAddAccountHolder(t *testing.T) {
	tests := []struct {
		name           string
		body           any
		expectedStatus int
	}{
		{
			name: "success - holder created",
			body: map[string]any{
				"name": "Marisa", "username": "username", "password": "password",
				"dateOfBirth": "2005-08-30", "primaryAddress": validAddress,
			},
			expectedStatus: http.StatusCreated,
		},
		{
			name: "bad request - malformed date of birth",
			body: map[string]any{
				"name": "Marisa", "username": "username", "password": "password",
				"dateOfBirth": "30/08/2005", "primaryAddress": validAddress,
			},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "bad request - incomplete address",
			body: map[string]any{
				"name": "Marisa", "username": "username", "password": "password",
				"dateOfBirth": "2005-08-30", "primaryAddress": map[string]string{"street": "Gran Via 1"},
			},
			expectedStatus: http.StatusBadRequest,
		},
	}
	addFn := func(cmd cqrs.AddAccountHolderCommand) (*models.AccountHolder, error) {
		if !cmd.DateOfBirth.Equal(time.Date(2005, 8, 30, 0, 0, 0, 0, time.UTC)) {
			return nil, fmt.Errorf("unexpected date of birth %s", cmd.DateOfBirth)
		}
		return &models.AccountHolder{User: models.User{ID: 2, Name: cmd.Name}, DateOfBirth: cmd.DateOfBirth}, nil
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newAdminTestRouter(&mockAdminCommander{addHolderFn: addFn}, &mockAdminQuerier{})
			w := doRequest(router, http.MethodPost, "/v1/admin/account-holders", tt.body)
			if w.Code != tt.expectedStatus {
				t.Errorf("[%s] expected %d got %d; body: %s", tt.name, tt.expectedStatus, w.Code, w.Body.String())
			}
		})
	}
}

func TestAddThirdParty(t *testing.T) {
	cmds := &mockAdminCommander{addThirdPartyFn: func(cmd cqrs.AddThirdPartyCommand) (*models.ThirdParty, error) {
		return &models.ThirdParty{User: models.User{ID: 3, Name: cmd.Name, Username: cmd.Username}, HashedKey: cmd.HashedKey}, nil
	}}
	router := newAdminTestRouter(cmds, &mockAdminQuerier{})
	w := doRequest(router, http.MethodPost, "/v1/admin/third-parties", map[string]string{
		"name": "name", "hashedKey": "hashedKey", "password": "password", "username": "user456",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("expected %d got %d; body: %s", http.StatusCreated, w.Code, w.Body.String())
	}
	var got map[string]any
	_ = json.Unmarshal(w.Body.Bytes(), &got)
	if got["hashedKey"] != "hashedKey" || got["username"] != "user456" {
		t.Errorf("unexpected body %s", w.Body.String())
	}
}

func TestAddChecking(t *testing.T) {
	tests := []struct {
		name           string
		body           any
		addFn          func(cqrs.AddCheckingCommand) (models.Account, error)
		expectedStatus int
		expectedType   models.AccountType
	}{
		{
			name: "success - student checking for a young holder",
			body: map[string]any{"primaryOwnerId": 2, "secretKey": "password"},
			addFn: func(cmd cqrs.AddCheckingCommand) (models.Account, error) {
				return models.NewStudentChecking(testBase(10), cmd.SecretKey), nil
			},
			expectedStatus: http.StatusCreated,
			expectedType:   models.AccountTypeStudentChecking,
		},
		{
			name: "success - checking for an adult holder",
			body: map[string]any{"primaryOwnerId": 1, "secondaryOwnerId": 2, "secretKey": "password", "currency": "EUR"},
			addFn: func(cmd cqrs.AddCheckingCommand) (models.Account, error) {
				if cmd.SecondaryOwnerID == nil || *cmd.SecondaryOwnerID != 2 || cmd.Currency != "EUR" {
					return nil, fmt.Errorf("unexpected command %+v", cmd)
				}
				return models.NewChecking(testBase(11), cmd.SecretKey), nil
			},
			expectedStatus: http.StatusCreated,
			expectedType:   models.AccountTypeChecking,
		},
		{
			name:           "not found - unknown owner",
			body:           map[string]any{"primaryOwnerId": 99, "secretKey": "password"},
			addFn:          func(cqrs.AddCheckingCommand) (models.Account, error) { return nil, apperror.NotFound("account holder 99 not found") },
			expectedStatus: http.StatusNotFound,
		},
		{
			name:           "bad request - unknown currency",
			body:           map[string]any{"primaryOwnerId": 1, "secretKey": "password", "currency": "XYZ"},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "bad request - missing primary owner",
			body:           map[string]any{"secretKey": "password"},
			expectedStatus: http.StatusBadRequest,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newAdminTestRouter(&mockAdminCommander{addCheckingFn: tt.addFn}, &mockAdminQuerier{})
			w := doRequest(router, http.MethodPost, "/v1/admin/accounts/checking", tt.body)
			if w.Code != tt.expectedStatus {
				t.Fatalf("[%s] expected %d got %d; body: %s", tt.name, tt.expectedStatus, w.Code, w.Body.String())
			}
			if tt.expectedType == "" {
				return
			}
			var view models.AccountView
			if err := json.Unmarshal(w.Body.Bytes(), &view); err != nil {
				t.Fatalf("[%s] decode: %v", tt.name, err)
			}
			if view.AccountType != tt.expectedType {
				t.Errorf("[%s] expected %s got %s", tt.name, tt.expectedType, view.AccountType)
			}
		})
	}
}

func TestAddSavings(t *testing.T) {
	tests := []struct {
		name           string
		body           any
		addFn          func(cqrs.AddSavingsCommand) (*models.Savings, error)
		expectedStatus int
	}{
		{
			name: "success - savings with explicit terms",
			body: map[string]any{"primaryOwnerId": 1, "secretKey": "password", "minimumBalance": 1000, "interestRate": "0.2"},
			addFn: func(cmd cqrs.AddSavingsCommand) (*models.Savings, error) {
				if cmd.InterestRate == nil || !cmd.InterestRate.Equal(decimal.RequireFromString("0.2")) {
					return nil, fmt.Errorf("unexpected interest rate %v", cmd.InterestRate)
				}
				return models.NewSavings(testBase(12), cmd.SecretKey, cmd.MinimumBalance, cmd.InterestRate)
			},
			expectedStatus: http.StatusCreated,
		},
		{
			name: "bad request - interest rate out of range",
			body: map[string]any{"primaryOwnerId": 1, "secretKey": "password", "interestRate": 0.9},
			addFn: func(cmd cqrs.AddSavingsCommand) (*models.Savings, error) {
				return models.NewSavings(testBase(12), cmd.SecretKey, cmd.MinimumBalance, cmd.InterestRate)
			},
			expectedStatus: http.StatusBadRequest,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newAdminTestRouter(&mockAdminCommander{addSavingsFn: tt.addFn}, &mockAdminQuerier{})
			w := doRequest(router, http.MethodPost, "/v1/admin/accounts/savings", tt.body)
			if w.Code != tt.expectedStatus {
				t.Errorf("[%s] expected %d got %d; body: %s", tt.name, tt.expectedStatus, w.Code, w.Body.String())
			}
		})
	}
}

func TestAddCreditCard(t *testing.T) {
	cmds := &mockAdminCommander{addCardFn: func(cmd cqrs.AddCreditCardCommand) (*models.CreditCard, error) {
		if cmd.SecretKey != "password" {
			return nil, fmt.Errorf("secret key not passed through: %q", cmd.SecretKey)
		}
		return models.NewCreditCard(testBase(13), cmd.SecretKey, cmd.CreditLimit, cmd.InterestRate)
	}}
	router := newAdminTestRouter(cmds, &mockAdminQuerier{})

	missingKey := doRequest(router, http.MethodPost, "/v1/admin/accounts/credit-cards", map[string]any{
		"primaryOwnerId": 1, "creditLimit": 1000, "interestRate": 0.2,
	})
	if missingKey.Code != http.StatusBadRequest {
		t.Errorf("expected %d without secretKey got %d", http.StatusBadRequest, missingKey.Code)
	}

	w := doRequest(router, http.MethodPost, "/v1/admin/accounts/credit-cards", map[string]any{
		"primaryOwnerId": 1, "secretKey": "password", "creditLimit": 1000, "interestRate": 0.2,
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("expected %d got %d; body: %s", http.StatusCreated, w.Code, w.Body.String())
	}
	var view models.AccountView
	if err := json.Unmarshal(w.Body.Bytes(), &view); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if view.CreditLimit == nil || !view.CreditLimit.Equal(models.MustParseMoney("1000", "USD")) {
		t.Errorf("unexpected credit limit %v", view.CreditLimit)
	}
	if view.MinimumBalance != nil {
		t.Error("credit card view must not carry a minimum balance")
	}
}

func TestGetAccountAndBalance(t *testing.T) {
	qrys := &mockAdminQuerier{
		getAccountFn: func(q cqrs.GetAccountQuery) (*models.AccountView, error) {
			if q.AccountID != 10 {
				return nil, apperror.NotFound("account %d not found", q.AccountID)
			}
			return models.ToAccountView(models.NewChecking(testBase(10), "secret")), nil
		},
		getBalanceFn: func(q cqrs.GetAccountBalanceQuery) (*models.BalanceView, error) {
			return &models.BalanceView{AccountID: q.AccountID, Balance: models.MustParseMoney("100", "USD")}, nil
		},
	}
	router := newAdminTestRouter(&mockAdminCommander{}, qrys)

	tests := []struct {
		name           string
		url            string
		expectedStatus int
	}{
		{"success - account found", "/v1/admin/accounts/10", http.StatusOK},
		{"not found - unknown account", "/v1/admin/accounts/11", http.StatusNotFound},
		{"bad request - non numeric id", "/v1/admin/accounts/abc", http.StatusBadRequest},
		{"success - balance", "/v1/admin/accounts/10/balance", http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doRequest(router, http.MethodGet, tt.url, nil)
			if w.Code != tt.expectedStatus {
				t.Errorf("[%s] expected %d got %d; body: %s", tt.name, tt.expectedStatus, w.Code, w.Body.String())
			}
		})
	}

	w := doRequest(router, http.MethodGet, "/v1/admin/accounts/10", nil)
	var body map[string]any
	_ = json.Unmarshal(w.Body.Bytes(), &body)
	if _, leaked := body["secretKey"]; leaked {
		t.Error("secret key must not be serialised")
	}
}

func TestGetAccountHolder(t *testing.T) {
	qrys := &mockAdminQuerier{getHolderFn: func(q cqrs.GetAccountHolderQuery) (*models.AccountHolderView, error) {
		return &models.AccountHolderView{ID: q.HolderID, Name: "Teresa", AccountCount: 3}, nil
	}}
	router := newAdminTestRouter(&mockAdminCommander{}, qrys)
	w := doRequest(router, http.MethodGet, "/v1/admin/account-holders/1", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected %d got %d; body: %s", http.StatusOK, w.Code, w.Body.String())
	}
	var view models.AccountHolderView
	_ = json.Unmarshal(w.Body.Bytes(), &view)
	if view.AccountCount != 3 {
		t.Errorf("expected account count 3 got %d", view.AccountCount)
	}
}

func TestUpdateAccountBalance(t *testing.T) {
	tests := []struct {
		name           string
		url            string
		body           any
		expectedStatus int
	}{
		{"success - balance overwritten", "/v1/admin/accounts/10/balance", map[string]any{"amount": "250.75"}, http.StatusOK},
		{"not found - unknown account", "/v1/admin/accounts/11/balance", map[string]any{"amount": "1"}, http.StatusNotFound},
		{"bad request - missing amount", "/v1/admin/accounts/10/balance", map[string]any{"currency": "USD"}, http.StatusBadRequest},
	}
	cmds := &mockAdminCommander{balanceFn: func(cmd cqrs.UpdateAccountBalanceCommand) (models.Account, error) {
		if cmd.AccountID != 10 {
			return nil, apperror.NotFound("account %d not found", cmd.AccountID)
		}
		if cmd.Currency != "" {
			return nil, fmt.Errorf("expected currency to be left to the service, got %q", cmd.Currency)
		}
		account := models.NewChecking(testBase(10), "secret")
		account.Balance = models.NewMoney(cmd.Amount, "USD")
		return account, nil
	}}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newAdminTestRouter(cmds, &mockAdminQuerier{})
			w := doRequest(router, http.MethodPatch, tt.url, tt.body)
			if w.Code != tt.expectedStatus {
				t.Errorf("[%s] expected %d got %d; body: %s", tt.name, tt.expectedStatus, w.Code, w.Body.String())
			}
		})
	}
}

func TestUpdateAccountStatus(t *testing.T) {
	cmds := &mockAdminCommander{statusFn: func(cmd cqrs.UpdateAccountStatusCommand) (models.Account, error) {
		account := models.NewChecking(testBase(cmd.AccountID), "secret")
		account.Status = cmd.Status
		return account, nil
	}}
	router := newAdminTestRouter(cmds, &mockAdminQuerier{})

	w := doRequest(router, http.MethodPatch, "/v1/admin/accounts/10/status", map[string]string{"status": "FROZEN"})
	if w.Code != http.StatusOK {
		t.Errorf("expected %d got %d; body: %s", http.StatusOK, w.Code, w.Body.String())
	}
	w = doRequest(router, http.MethodPatch, "/v1/admin/accounts/10/status", map[string]string{"status": "CLOSED"})
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected %d got %d; body: %s", http.StatusBadRequest, w.Code, w.Body.String())
	}
}

func TestDeleteAccount(t *testing.T) {
	tests := []struct {
		name           string
		url            string
		expectedStatus int
	}{
		{"success - account deleted", "/v1/admin/accounts/10", http.StatusNoContent},
		{"not found - unknown account", "/v1/admin/accounts/9223372036854775807", http.StatusNotFound},
	}
	cmds := &mockAdminCommander{deleteFn: func(cmd cqrs.DeleteAccountCommand) error {
		if cmd.AccountID != 10 {
			return apperror.NotFound("account %d not found", cmd.AccountID)
		}
		return nil
	}}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newAdminTestRouter(cmds, &mockAdminQuerier{})
			w := doRequest(router, http.MethodDelete, tt.url, nil)
			if w.Code != tt.expectedStatus {
				t.Errorf("[%s] expected %d got %d; body: %s", tt.name, tt.expectedStatus, w.Code, w.Body.String())
			}
		})
	}
}

func TestAdminRoutesRequireAdminRole(t *testing.T) {
	middleware.MustInitJWTSecret("test-secret")
	gin.SetMode(gin.TestMode)
	r := gin.New()
	group := r.Group("/v1/admin", middleware.AuthMiddleware(), middleware.RequireRole(models.RoleAdmin))
	NewAdminHandler(&mockAdminCommander{}, &mockAdminQuerier{getAccountFn: func(q cqrs.GetAccountQuery) (*models.AccountView, error) {
		return &models.AccountView{ID: q.AccountID}, nil
	}}).RegisterRoutes(group)

	adminToken, _ := middleware.IssueToken(middleware.Principal{UserID: 1, Username: "root", Roles: []models.Role{models.RoleAdmin}}, time.Hour)
	holderToken, _ := middleware.IssueToken(middleware.Principal{UserID: 2, Username: "username", Roles: []models.Role{models.RoleAccountHolder}}, time.Hour)

	tests := []struct {
		name           string
		headers        []string
		expectedStatus int
	}{
		{"unauthorised - no token", nil, http.StatusUnauthorized},
		{"forbidden - account holder token", []string{"Authorization", "Bearer " + holderToken}, http.StatusForbidden},
		{"success - admin token", []string{"Authorization", "Bearer " + adminToken}, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doRequest(r, http.MethodGet, "/v1/admin/accounts/1", nil, tt.headers...)
			if w.Code != tt.expectedStatus {
				t.Errorf("[%s] expected %d got %d; body: %s", tt.name, tt.expectedStatus, w.Code, w.Body.String())
			}
		})
	}
}
