package models

import (
	"slices"
	"time"
)

type Role string

const (
	RoleAdmin         Role = "ADMIN"
	RoleAccountHolder Role = "ACCOUNT_HOLDER"
	RoleThirdParty    Role = "THIRD_PARTY"
)

type Address struct {
	Street     string `json:"street" validate:"required"`
	PostalCode string `json:"postalCode" validate:"required"`
	City       string `json:"city" validate:"required"`
	Country    string `json:"country" validate:"required"`
}

// User is the record shared by admins, account holders and third parties.
// The variant is identified by its role set.
type User struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	Roles        []Role    `json:"roles"`
	CreatedAt    time.Time `json:"createdTimestamp"`
}

func (u *User) HasRole(role Role) bool {
	return slices.Contains(u.Roles, role)
}

// Kind is the role that identifies which variant the record belongs to.
func (u *User) Kind() Role {
	if len(u.Roles) == 0 {
		return ""
	}
	return u.Roles[0]
}

type Admin struct {
	User
}

type AccountHolder struct {
	User
	DateOfBirth    time.Time `json:"dateOfBirth"`
	PrimaryAddress Address   `json:"primaryAddress"`
	MailAddress    *Address  `json:"mailAddress,omitempty"`
}

// AgeAt returns the holder's age in whole years at the given instant.
func (h *AccountHolder) AgeAt(now time.Time) int {
	return AgeAt(h.DateOfBirth, now)
}

type ThirdParty struct {
	User
	HashedKey string `json:"hashedKey"`
}

// AgeAt counts completed years between dateOfBirth and now.
func AgeAt(dateOfBirth, now time.Time) int {
	years := now.Year() - dateOfBirth.Year()
	if now.Month() < dateOfBirth.Month() ||
		(now.Month() == dateOfBirth.Month() && now.Day() < dateOfBirth.Day()) {
		years--
	}
	return years
}
