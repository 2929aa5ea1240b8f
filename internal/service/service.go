// Package service implements business logic, validation, and orchestration
// between HTTP handlers and the document store.
//
// The RSVP, token and purchase services form the transaction engine: each of
// their mutating operations runs as one repository transaction that reads
// every quantity it decides on (confirmed count, balance, prior status) and
// writes the RSVP, balance, ledger and audit documents together.
package service

import (
	"errors"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Shivanand-hulikatti/club-membership/internal/apperr"
)

// Clock returns the current time. Services take one so tests can pin it.
type Clock func() time.Time

func systemClock() time.Time { return time.Now().UTC() }

func clockOrDefault(c Clock) Clock {
	if c == nil {
		return systemClock
	}
	return c
}

func newID() string {
	return uuid.New().String()
}

func isNotFound(err error) bool {
	return errors.Is(err, apperr.ErrNotFound)
}

// isValidEmail accepts a bare address with a dotted domain. Display-name
// forms such as "Ann <ann@club.org>" are rejected.
func isValidEmail(email string) bool {
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return false
	}
	at := strings.LastIndexByte(email, '@')
	return strings.Contains(email[at+1:], ".")
}

// requireLen trims s and checks it has between min and max runes.
func requireLen(field, s string, min, max int) (string, error) {
	s = strings.TrimSpace(s)
	n := len([]rune(s))
	if n < min {
		if min == 1 {
			return "", apperr.Validation("%s is required", field)
		}
		return "", apperr.Validation("%s must be at least %d characters", field, min)
	}
	if max > 0 && n > max {
		return "", apperr.Validation("%s must be at most %d characters", field, max)
	}
	return s, nil
}

func clampLimit(limit, def, max int) int {
	if limit <= 0 {
		return def
	}
	if limit > max {
		return max
	}
	return limit
}
