// Package model defines domain entities for the application.
package model

import (
	"errors"
	"fmt"
	"net/mail"
	"strings"
)

// ErrInvalidEmail indicates a user record carries a malformed email address.
var ErrInvalidEmail = errors.New("invalid email address")

// User is one row of the backing dataset.
// Values are immutable once loaded; a reload replaces the whole set.
type User struct {
	ID        int64  `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Gender    string `json:"gender"`
	IPAddress string `json:"ip_address"`
}

// Validate checks the record against the response contract.
func (u *User) Validate() error {
	if !IsValidEmail(u.Email) {
		return fmt.Errorf("user %d: %w", u.ID, ErrInvalidEmail)
	}
	return nil
}

// IsValidEmail reports whether s is a bare addr-spec (no display name, no angle brackets).
func IsValidEmail(s string) bool {
	if s == "" || strings.ContainsAny(s, " <>") {
		return false
	}
	addr, err := mail.ParseAddress(s)
	if err != nil {
		return false
	}
	at := strings.LastIndex(addr.Address, "@")
	if at <= 0 || at == len(addr.Address)-1 {
		return false
	}
	// Domain must have at least one dot, e.g. example.com.
	return addr.Address == s && strings.Contains(addr.Address[at+1:], ".")
}
