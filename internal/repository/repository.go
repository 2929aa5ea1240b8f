// Package repository defines the transactional document store the club
// service is built on. Implementations live in the memstore (in-process,
// optimistic) and pgstore (PostgreSQL) subpackages.
//
// Every operation that reads a derived quantity (confirmed count, current
// balance) and writes a decision based on it must do both through one Tx
// inside Store.RunTransaction. If a document or query result read by the
// transaction is changed by a concurrent commit, the commit fails with an
// apperr.ErrConflict and none of the writes become visible.
package repository

import (
	"context"
	"time"

	"github.com/Shivanand-hulikatti/club-membership/internal/model"
)

// Collection names used by the in-memory store. The Postgres schema maps each
// to a snake_case table.
const (
	CollUsers           = "users"
	CollEvents          = "events"
	CollRSVPs           = "eventRsvps"
	CollLedger          = "tokenTransactions"
	CollPurchases       = "purchases"
	CollPackages        = "tokenPackages"
	CollAudit           = "auditLog"
	CollNews            = "newsPosts"
	CollContactMessages = "contactMessages"
)

// TxFunc is the body of a transaction. Returning an error aborts it.
type TxFunc func(ctx context.Context, tx Tx) error

// Store is the transactional document store.
type Store interface {
	// RunTransaction runs fn and commits all of its writes atomically, or
	// none of them. A lost optimistic race is reported as apperr.ErrConflict.
	RunTransaction(ctx context.Context, fn TxFunc) error
	// View runs fn with read-only handles. Writes fail.
	View(ctx context.Context, fn TxFunc) error
	Close() error
}

// UserFilter narrows ListUsers. Results are newest first.
type UserFilter struct {
	Active *bool
	Limit  int
}

// EventFilter narrows ListEvents. Results are ordered by start time.
type EventFilter struct {
	Status       model.EventStatus
	Category     model.EventCategory
	SportID      string
	GenderPolicy model.GenderPolicy
	// StartsAfter keeps only events whose start time is strictly after it.
	StartsAfter *time.Time
	Limit       int
}

// RSVPFilter narrows ListRSVPs and CountRSVPs. Results are newest first.
type RSVPFilter struct {
	EventID string
	UserID  string
	Status  model.RSVPStatus
	Limit   int
}

// LedgerFilter narrows ListLedger. Results are newest first.
type LedgerFilter struct {
	UserID string
	Limit  int
}

// PurchaseFilter narrows ListPurchases. Results are newest first.
type PurchaseFilter struct {
	UserID string
	Status model.PurchaseStatus
	Limit  int
}

// NewsFilter narrows ListNews. Results are ordered by publish date, newest first.
type NewsFilter struct {
	Status model.NewsStatus
	Limit  int
	Offset int
}

// Tx is the set of typed read/write handles available inside a transaction.
// Get methods return an apperr.ErrNotFound error for absent documents.
type Tx interface {
	GetUser(ctx context.Context, id string) (*model.User, error)
	PutUser(ctx context.Context, u *model.User) error
	ListUsers(ctx context.Context, f UserFilter) ([]model.User, error)

	GetEvent(ctx context.Context, id string) (*model.Event, error)
	PutEvent(ctx context.Context, e *model.Event) error
	ListEvents(ctx context.Context, f EventFilter) ([]model.Event, error)

	GetRSVP(ctx context.Context, id string) (*model.RSVP, error)
	PutRSVP(ctx context.Context, r *model.RSVP) error
	ListRSVPs(ctx context.Context, f RSVPFilter) ([]model.RSVP, error)
	CountRSVPs(ctx context.Context, f RSVPFilter) (int, error)

	AppendLedger(ctx context.Context, e *model.LedgerEntry) error
	ListLedger(ctx context.Context, f LedgerFilter) ([]model.LedgerEntry, error)

	GetPurchase(ctx context.Context, id string) (*model.Purchase, error)
	PutPurchase(ctx context.Context, p *model.Purchase) error
	ListPurchases(ctx context.Context, f PurchaseFilter) ([]model.Purchase, error)

	GetPackage(ctx context.Context, id string) (*model.TokenPackage, error)
	PutPackage(ctx context.Context, p *model.TokenPackage) error
	ListPackages(ctx context.Context, activeOnly bool) ([]model.TokenPackage, error)

	AppendAudit(ctx context.Context, a *model.AuditEntry) error
	ListAudit(ctx context.Context, limit int) ([]model.AuditEntry, error)

	GetNews(ctx context.Context, id string) (*model.NewsPost, error)
	GetNewsBySlug(ctx context.Context, slug string) (*model.NewsPost, error)
	PutNews(ctx context.Context, n *model.NewsPost) error
	DeleteNews(ctx context.Context, id string) error
	ListNews(ctx context.Context, f NewsFilter) ([]model.NewsPost, error)

	AddContactMessage(ctx context.Context, m *model.ContactMessage) error
}
