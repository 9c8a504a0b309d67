package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/eaglebank/admin-service/shared/cqrs"
	"github.com/eaglebank/admin-service/shared/middleware"
	"github.com/eaglebank/admin-service/shared/models"
	"github.com/eaglebank/admin-service/shared/utils"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

const dateLayout = "2006-01-02"

// AdminCommander defines the write-side operations used by AdminHandler.
type AdminCommander interface {
	AddAdmin(context.Context, cqrs.AddAdminCommand) (*models.Admin, error)
	AddAccountHolder(context.Context, cqrs.AddAccountHolderCommand) (*models.AccountHolder, error)
	AddThirdParty(context.Context, cqrs.AddThirdPartyCommand) (*models.ThirdParty, error)
	AddChecking(context.Context, cqrs.AddCheckingCommand) (models.Account, error)
	AddSavings(context.Context, cqrs.AddSavingsCommand) (*models.Savings, error)
	AddCreditCard(context.Context, cqrs.AddCreditCardCommand) (*models.CreditCard, error)
	UpdateAccountBalance(context.Context, cqrs.UpdateAccountBalanceCommand) (models.Account, error)
	UpdateAccountStatus(context.Context, cqrs.UpdateAccountStatusCommand) (models.Account, error)
	DeleteAccount(context.Context, cqrs.DeleteAccountCommand) error
}

// AdminQuerier defines the read-side operations used by AdminHandler.
type AdminQuerier interface {
	GetAccount(context.Context, cqrs.GetAccountQuery) (*models.AccountView, error)
	GetAccountBalance(context.Context, cqrs.GetAccountBalanceQuery) (*models.BalanceView, error)
	GetAccountHolder(context.Context, cqrs.GetAccountHolderQuery) (*models.AccountHolderView, error)
}

// AdminHandler serves the /v1/admin routes. Every route sits behind
// AuthMiddleware and RequireRole(ADMIN).
type AdminHandler struct {
	commands AdminCommander
	queries  AdminQuerier
}

type AddAdminRequest struct {
	Name     string `json:"name" validate:"required"`
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type AddAccountHolderRequest struct {
	Name           string          `json:"name" validate:"required"`
	Username       string          `json:"username" validate:"required"`
	Password       string          `json:"password" validate:"required"`
	DateOfBirth    string          `json:"dateOfBirth" validate:"required,datetime=2006-01-02"`
	PrimaryAddress models.Address  `json:"primaryAddress" validate:"required"`
	MailAddress    *models.Address `json:"mailAddress" validate:"omitempty"`
}

type AddThirdPartyRequest struct {
	Name      string `json:"name" validate:"required"`
	HashedKey string `json:"hashedKey" validate:"required"`
	Password  string `json:"password" validate:"required"`
	Username  string `json:"username" validate:"required"`
}

type AddCheckingRequest struct {
	PrimaryOwnerID   int64  `json:"primaryOwnerId" validate:"required,gt=0"`
	SecondaryOwnerID *int64 `json:"secondaryOwnerId" validate:"omitempty,gt=0"`
	SecretKey        string `json:"secretKey" validate:"required"`
	Currency         string `json:"currency" validate:"omitempty,iso4217"`
}

type AddSavingsRequest struct {
	PrimaryOwnerID   int64            `json:"primaryOwnerId" validate:"required,gt=0"`
	SecondaryOwnerID *int64           `json:"secondaryOwnerId" validate:"omitempty,gt=0"`
	SecretKey        string           `json:"secretKey" validate:"required"`
	Currency         string           `json:"currency" validate:"omitempty,iso4217"`
	MinimumBalance   *decimal.Decimal `json:"minimumBalance"`
	InterestRate     *decimal.Decimal `json:"interestRate"`
}

type AddCreditCardRequest struct {
	PrimaryOwnerID   int64            `json:"primaryOwnerId" validate:"required,gt=0"`
	SecondaryOwnerID *int64           `json:"secondaryOwnerId" validate:"omitempty,gt=0"`
	SecretKey        string           `json:"secretKey" validate:"required"`
	Currency         string           `json:"currency" validate:"omitempty,iso4217"`
	CreditLimit      *decimal.Decimal `json:"creditLimit"`
	InterestRate     *decimal.Decimal `json:"interestRate"`
}

type UpdateBalanceRequest struct {
	Amount   *decimal.Decimal `json:"amount" validate:"required"`
	Currency string           `json:"currency" validate:"omitempty,iso4217"`
}

type UpdateStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=ACTIVE FROZEN"`
}

func NewAdminHandler(commands AdminCommander, queries AdminQuerier) *AdminHandler {
	return &AdminHandler{commands: commands, queries: queries}
}

// bind decodes and validates the JSON body into req, answering 400 itself
// when either step fails.
func bind(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		middleware.RespondWithError(c, http.StatusBadRequest, "Invalid request body")
		return false
	}
	if validationErrors := middleware.ValidateRequest(req); validationErrors != nil {
		middleware.RespondWithValidationError(c, validationErrors)
		return false
	}
	return true
}

func pathID(c *gin.Context, name string) (int64, bool) {
	id, ok := utils.ParseID(c.Param(name))
	if !ok {
		middleware.RespondWithError(c, http.StatusBadRequest, "Invalid "+name)
	}
	return id, ok
}

func (h *AdminHandler) AddAdmin(c *gin.Context) {
	var req AddAdminRequest
	if !bind(c, &req) {
		return
	}
	admin, err := h.commands.AddAdmin(c.Request.Context(), cqrs.AddAdminCommand{
		Name:        req.Name,
		Username:    req.Username,
		Password:    req.Password,
		RequestedBy: middleware.Username(c),
	})
	if err != nil {
		middleware.RespondWithAppError(c, err, "Failed to create admin")
		return
	}
	c.JSON(http.StatusCreated, admin)
}

func (h *AdminHandler) AddAccountHolder(c *gin.Context) {
	var req AddAccountHolderRequest
	if !bind(c, &req) {
		return
	}
	dob, err := time.Parse(dateLayout, req.DateOfBirth)
	if err != nil {
		middleware.RespondWithError(c, http.StatusBadRequest, "Invalid date of birth")
		return
	}
	holder, err := h.commands.AddAccountHolder(c.Request.Context(), cqrs.AddAccountHolderCommand{
		Name:           req.Name,
		Username:       req.Username,
		Password:       req.Password,
		DateOfBirth:    dob,
		PrimaryAddress: req.PrimaryAddress,
		MailAddress:    req.MailAddress,
		RequestedBy:    middleware.Username(c),
	})
	if err != nil {
		middleware.RespondWithAppError(c, err, "Failed to create account holder")
		return
	}
	c.JSON(http.StatusCreated, models.ToAccountHolderView(holder))
}

func (h *AdminHandler) AddThirdParty(c *gin.Context) {
	var req AddThirdPartyRequest
	if !bind(c, &req) {
		return
	}
	thirdParty, err := h.commands.AddThirdParty(c.Request.Context(), cqrs.AddThirdPartyCommand{
		Name:        req.Name,
		HashedKey:   req.HashedKey,
		Password:    req.Password,
		Username:    req.Username,
		RequestedBy: middleware.Username(c),
	})
	if err != nil {
		middleware.RespondWithAppError(c, err, "Failed to create third party")
		return
	}
	c.JSON(http.StatusCreated, thirdParty)
}

func (h *AdminHandler) AddChecking(c *gin.Context) {
	var req AddCheckingRequest
	if !bind(c, &req) {
		return
	}
	account, err := h.commands.AddChecking(c.Request.Context(), cqrs.AddCheckingCommand{
		PrimaryOwnerID:   req.PrimaryOwnerID,
		SecondaryOwnerID: req.SecondaryOwnerID,
		SecretKey:        req.SecretKey,
		Currency:         req.Currency,
		RequestedBy:      middleware.Username(c),
	})
	if err != nil {
		middleware.RespondWithAppError(c, err, "Failed to create checking account")
		return
	}
	c.JSON(http.StatusCreated, models.ToAccountView(account))
}

func (h *AdminHandler) AddSavings(c *gin.Context) {
	var req AddSavingsRequest
	if !bind(c, &req) {
		return
	}
	savings, err := h.commands.AddSavings(c.Request.Context(), cqrs.AddSavingsCommand{
		PrimaryOwnerID:   req.PrimaryOwnerID,
		SecondaryOwnerID: req.SecondaryOwnerID,
		SecretKey:        req.SecretKey,
		Currency:         req.Currency,
		MinimumBalance:   req.MinimumBalance,
		InterestRate:     req.InterestRate,
		RequestedBy:      middleware.Username(c),
	})
	if err != nil {
		middleware.RespondWithAppError(c, err, "Failed to create savings account")
		return
	}
	c.JSON(http.StatusCreated, models.ToAccountView(savings))
}

func (h *AdminHandler) AddCreditCard(c *gin.Context) {
	var req AddCreditCardRequest
	if !bind(c, &req) {
		return
	}
	card, err := h.commands.AddCreditCard(c.Request.Context(), cqrs.AddCreditCardCommand{
		PrimaryOwnerID:   req.PrimaryOwnerID,
		SecondaryOwnerID: req.SecondaryOwnerID,
		SecretKey:        req.SecretKey,
		Currency:         req.Currency,
		CreditLimit:      req.CreditLimit,
		InterestRate:     req.InterestRate,
		RequestedBy:      middleware.Username(c),
	})
	if err != nil {
		middleware.RespondWithAppError(c, err, "Failed to create credit card")
		return
	}
	c.JSON(http.StatusCreated, models.ToAccountView(card))
}

func (h *AdminHandler) GetAccountHolder(c *gin.Context) {
	id, ok := pathID(c, "holderId")
	if !ok {
		return
	}
	view, err := h.queries.GetAccountHolder(c.Request.Context(), cqrs.GetAccountHolderQuery{HolderID: id})
	if err != nil {
		middleware.RespondWithAppError(c, err, "Failed to get account holder")
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *AdminHandler) GetAccount(c *gin.Context) {
	id, ok := pathID(c, "accountId")
	if !ok {
		return
	}
	view, err := h.queries.GetAccount(c.Request.Context(), cqrs.GetAccountQuery{AccountID: id})
	if err != nil {
		middleware.RespondWithAppError(c, err, "Failed to get account")
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *AdminHandler) GetAccountBalance(c *gin.Context) {
	id, ok := pathID(c, "accountId")
	if !ok {
		return
	}
	view, err := h.queries.GetAccountBalance(c.Request.Context(), cqrs.GetAccountBalanceQuery{AccountID: id})
	if err != nil {
		middleware.RespondWithAppError(c, err, "Failed to get balance")
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *AdminHandler) UpdateAccountBalance(c *gin.Context) {
	id, ok := pathID(c, "accountId")
	if !ok {
		return
	}
	var req UpdateBalanceRequest
	if !bind(c, &req) {
		return
	}
	account, err := h.commands.UpdateAccountBalance(c.Request.Context(), cqrs.UpdateAccountBalanceCommand{
		AccountID:   id,
		Amount:      *req.Amount,
		Currency:    req.Currency,
		RequestedBy: middleware.Username(c),
	})
	if err != nil {
		middleware.RespondWithAppError(c, err, "Failed to update balance")
		return
	}
	c.JSON(http.StatusOK, models.ToAccountView(account))
}

func (h *AdminHandler) UpdateAccountStatus(c *gin.Context) {
	id, ok := pathID(c, "accountId")
	if !ok {
		return
	}
	var req UpdateStatusRequest
	if !bind(c, &req) {
		return
	}
	account, err := h.commands.UpdateAccountStatus(c.Request.Context(), cqrs.UpdateAccountStatusCommand{
		AccountID:   id,
		Status:      models.AccountStatus(req.Status),
		RequestedBy: middleware.Username(c),
	})
	if err != nil {
		middleware.RespondWithAppError(c, err, "Failed to update status")
		return
	}
	c.JSON(http.StatusOK, models.ToAccountView(account))
}

func (h *AdminHandler) DeleteAccount(c *gin.Context) {
	id, ok := pathID(c, "accountId")
	if !ok {
		return
	}
	if err := h.commands.DeleteAccount(c.Request.Context(), cqrs.DeleteAccountCommand{
		AccountID:   id,
		RequestedBy: middleware.Username(c),
	}); err != nil {
		middleware.RespondWithAppError(c, err, "Failed to delete account")
		return
	}
	c.Status(http.StatusNoContent)
}

// RegisterRoutes mounts every admin route on group.
func (h *AdminHandler) RegisterRoutes(group *gin.RouterGroup) {
	group.POST("/admins", h.AddAdmin)
	group.POST("/account-holders", h.AddAccountHolder)
	group.GET("/account-holders/:holderId", h.GetAccountHolder)
	group.POST("/third-parties", h.AddThirdParty)
	group.POST("/accounts/checking", h.AddChecking)
	group.POST("/accounts/savings", h.AddSavings)
	group.POST("/accounts/credit-cards", h.AddCreditCard)
	group.GET("/accounts/:accountId", h.GetAccount)
	group.GET("/accounts/:accountId/balance", h.GetAccountBalance)
	group.PATCH("/accounts/:accountId/balance", h.UpdateAccountBalance)
	group.PATCH("/accounts/:accountId/status", h.UpdateAccountStatus)
	group.DELETE("/accounts/:accountId", h.DeleteAccount)
}
