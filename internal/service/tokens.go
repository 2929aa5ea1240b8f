package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/Shivanand-hulikatti/club-membership/internal/apperr"
	"github.com/Shivanand-hulikatti/club-membership/internal/model"
	"github.com/Shivanand-hulikatti/club-membership/internal/repository"
)

// credit increments a user's balance and appends the matching CREDIT entry.
// The pre-mutation balance is read through tx, never from an earlier read.
func credit(ctx context.Context, tx repository.Tx, userID string, amount int, description string, eventID *string, now time.Time) (*model.LedgerEntry, error) {
	if amount <= 0 {
		return nil, apperr.Validation("credit amount must be positive")
	}
	user, err := tx.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	user.TokenBalance += amount
	user.UpdatedAt = now
	if err := tx.PutUser(ctx, user); err != nil {
		return nil, fmt.Errorf("update balance: %w", err)
	}
	return appendEntry(ctx, tx, userID, model.Credit, amount, description, eventID, now)
}

// debit decrements a user's balance and appends the matching DEBIT entry.
// It fails with InsufficientFunds rather than let the balance go negative.
func debit(ctx context.Context, tx repository.Tx, userID string, amount int, description string, eventID *string, now time.Time) (*model.LedgerEntry, error) {
	if amount <= 0 {
		return nil, apperr.Validation("debit amount must be positive")
	}
	user, err := tx.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.TokenBalance < amount {
		return nil, apperr.InsufficientFunds("insufficient tokens: balance %d, required %d", user.TokenBalance, amount)
	}
	user.TokenBalance -= amount
	user.UpdatedAt = now
	if err := tx.PutUser(ctx, user); err != nil {
		return nil, fmt.Errorf("update balance: %w", err)
	}
	return appendEntry(ctx, tx, userID, model.Debit, amount, description, eventID, now)
}

func appendEntry(ctx context.Context, tx repository.Tx, userID string, typ model.EntryType, amount int, description string, eventID *string, now time.Time) (*model.LedgerEntry, error) {
	entry := &model.LedgerEntry{
		ID:          newID(),
		UserID:      userID,
		Type:        typ,
		Amount:      amount,
		Description: description,
		EventID:     eventID,
		CreatedAt:   now,
	}
	if err := tx.AppendLedger(ctx, entry); err != nil {
		return nil, fmt.Errorf("append ledger entry: %w", err)
	}
	return entry, nil
}

func audit(ctx context.Context, tx repository.Tx, actorID string, action model.AuditAction, entityType, entityID string, details map[string]string, now time.Time) error {
	entry := &model.AuditEntry{
		ID:         newID(),
		ActorID:    actorID,
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		Details:    details,
		CreatedAt:  now,
	}
	if err := tx.AppendAudit(ctx, entry); err != nil {
		return fmt.Errorf("append audit entry: %w", err)
	}
	return nil
}

// TokenService exposes balances, ledger history and manual adjustments.
type TokenService struct {
	store repository.Store
	now   Clock
}

// NewTokenService constructs a TokenService.
func NewTokenService(store repository.Store, now Clock) *TokenService {
	return &TokenService{store: store, now: clockOrDefault(now)}
}

// Statement is a user's balance with their most recent ledger entries.
type Statement struct {
	Balance      int                 `json:"balance"`
	Transactions []model.LedgerEntry `json:"transactions"`
}

// Statement returns the balance and the latest ledger entries for a user,
// read from one consistent view.
func (s *TokenService) Statement(ctx context.Context, userID string) (*Statement, error) {
	var st Statement
	err := s.store.View(ctx, func(ctx context.Context, tx repository.Tx) error {
		user, err := tx.GetUser(ctx, userID)
		if err != nil {
			return err
		}
		entries, err := tx.ListLedger(ctx, repository.LedgerFilter{UserID: userID, Limit: 100})
		if err != nil {
			return err
		}
		st = Statement{Balance: user.TokenBalance, Transactions: entries}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &st, nil
}

// Balance returns a user's current token balance.
func (s *TokenService) Balance(ctx context.Context, userID string) (int, error) {
	var balance int
	err := s.store.View(ctx, func(ctx context.Context, tx repository.Tx) error {
		user, err := tx.GetUser(ctx, userID)
		if err != nil {
			return err
		}
		balance = user.TokenBalance
		return nil
	})
	return balance, err
}

// History lists ledger entries, newest first. An empty userID lists all users.
func (s *TokenService) History(ctx context.Context, userID string, limit int) ([]model.LedgerEntry, error) {
	var entries []model.LedgerEntry
	err := s.store.View(ctx, func(ctx context.Context, tx repository.Tx) error {
		var err error
		entries, err = tx.ListLedger(ctx, repository.LedgerFilter{
			UserID: strings.TrimSpace(userID),
			Limit:  clampLimit(limit, 100, 500),
		})
		return err
	})
	return entries, err
}

// Credit manually adds tokens to a user on behalf of a super-admin.
func (s *TokenService) Credit(ctx context.Context, actorID string, req model.AdjustTokensRequest) (*model.LedgerEntry, error) {
	return s.adjust(ctx, actorID, req, model.Credit)
}

// Debit manually removes tokens from a user on behalf of a super-admin.
// A debit larger than the balance fails and leaves everything unchanged.
func (s *TokenService) Debit(ctx context.Context, actorID string, req model.AdjustTokensRequest) (*model.LedgerEntry, error) {
	return s.adjust(ctx, actorID, req, model.Debit)
}

func (s *TokenService) adjust(ctx context.Context, actorID string, req model.AdjustTokensRequest, typ model.EntryType) (*model.LedgerEntry, error) {
	userID := strings.TrimSpace(req.UserID)
	if userID == "" || req.Amount <= 0 {
		return nil, apperr.Validation("userId and positive amount required")
	}

	description := "Admin credit"
	action := model.AuditTokenCredit
	apply := credit
	if typ == model.Debit {
		description = "Admin debit"
		action = model.AuditTokenDebit
		apply = debit
	}
	if req.Description != nil && strings.TrimSpace(*req.Description) != "" {
		description = strings.TrimSpace(*req.Description)
	}

	var entry *model.LedgerEntry
	err := s.store.RunTransaction(ctx, func(ctx context.Context, tx repository.Tx) error {
		now := s.now()
		var err error
		entry, err = apply(ctx, tx, userID, req.Amount, description, nil, now)
		if err != nil {
			return err
		}
		return audit(ctx, tx, actorID, action, "USER", userID, map[string]string{
			"amount":      strconv.Itoa(req.Amount),
			"description": description,
		}, now)
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// Reconciliation compares a stored balance with the sum of its ledger.
type Reconciliation struct {
	UserID     string `json:"userId"`
	Balance    int    `json:"balance"`
	LedgerSum  int    `json:"ledgerSum"`
	Entries    int    `json:"entries"`
	Consistent bool   `json:"consistent"`
}

// Reconcile recomputes a user's balance from the full ledger.
func (s *TokenService) Reconcile(ctx context.Context, userID string) (*Reconciliation, error) {
	var rec Reconciliation
	err := s.store.View(ctx, func(ctx context.Context, tx repository.Tx) error {
		user, err := tx.GetUser(ctx, userID)
		if err != nil {
			return err
		}
		entries, err := tx.ListLedger(ctx, repository.LedgerFilter{UserID: userID})
		if err != nil {
			return err
		}
		sum := 0
		for i := range entries {
			sum += entries[i].Signed()
		}
		rec = Reconciliation{
			UserID:     userID,
			Balance:    user.TokenBalance,
			LedgerSum:  sum,
			Entries:    len(entries),
			Consistent: sum == user.TokenBalance,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &rec, nil
}
