// Package model defines the core domain types for the club membership system.
package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Role is the access level of a user account.
type Role string

const (
	RoleMember     Role = "MEMBER"
	RoleAdmin      Role = "ADMIN"
	RoleSuperAdmin Role = "SUPER_ADMIN"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleMember, RoleAdmin, RoleSuperAdmin:
		return true
	}
	return false
}

// IsAdmin is true for both admin tiers.
func (r Role) IsAdmin() bool {
	return r == RoleAdmin || r == RoleSuperAdmin
}

// User is a club member account. TokenBalance always equals the signed sum of
// the user's ledger entries.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	FirstName    string    `json:"firstName"`
	LastName     string    `json:"lastName"`
	Phone        *string   `json:"phone"`
	Role         Role      `json:"role"`
	TokenBalance int       `json:"tokenBalance"`
	IsActive     bool      `json:"isActive"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// ProfileComplete reports whether the mandatory profile fields are filled in.
func (u *User) ProfileComplete() bool {
	return u.FirstName != "" && u.LastName != "" && u.Email != ""
}

// EventStatus is the publication lifecycle of an event.
type EventStatus string

const (
	EventDraft     EventStatus = "DRAFT"
	EventPublished EventStatus = "PUBLISHED"
	EventCancelled EventStatus = "CANCELLED"
	EventCompleted EventStatus = "COMPLETED"
)

func (s EventStatus) Valid() bool {
	switch s {
	case EventDraft, EventPublished, EventCancelled, EventCompleted:
		return true
	}
	return false
}

// EventCategory groups events on the public pages.
type EventCategory string

const (
	CategoryWeeklySports   EventCategory = "WEEKLY_SPORTS"
	CategoryMonthlyEvents  EventCategory = "MONTHLY_EVENTS"
	CategoryFeaturedEvents EventCategory = "FEATURED_EVENTS"
)

func (c EventCategory) Valid() bool {
	switch c {
	case CategoryWeeklySports, CategoryMonthlyEvents, CategoryFeaturedEvents:
		return true
	}
	return false
}

// GenderPolicy restricts who an event is advertised to.
type GenderPolicy string

const (
	GenderAll        GenderPolicy = "ALL"
	GenderMaleOnly   GenderPolicy = "MALE_ONLY"
	GenderFemaleOnly GenderPolicy = "FEMALE_ONLY"
)

func (g GenderPolicy) Valid() bool {
	switch g {
	case GenderAll, GenderMaleOnly, GenderFemaleOnly:
		return true
	}
	return false
}

// Event represents a bookable club session.
type Event struct {
	ID             string        `json:"id"`
	Title          string        `json:"title"`
	Description    *string       `json:"description"`
	Category       EventCategory `json:"category"`
	SportID        string        `json:"sportId"`
	LocationID     *string       `json:"locationId"`
	StartTime      time.Time     `json:"startTime"`
	EndTime        time.Time     `json:"endTime"`
	Capacity       int           `json:"capacity"`
	TokensRequired int           `json:"tokensRequired"`
	GenderPolicy   GenderPolicy  `json:"genderPolicy"`
	Status         EventStatus   `json:"status"`
	IsPublic       bool          `json:"isPublic"`
	CreatedAt      time.Time     `json:"createdAt"`
	CreatedBy      string        `json:"createdBy,omitempty"`
	UpdatedAt      time.Time     `json:"updatedAt"`
}

// HasStarted reports whether the event start time is at or before now.
func (e *Event) HasStarted(now time.Time) bool {
	return !e.StartTime.After(now)
}

// RSVPStatus is the state of a user's claim on an event slot.
type RSVPStatus string

const (
	RSVPConfirmed  RSVPStatus = "CONFIRMED"
	RSVPWaitlisted RSVPStatus = "WAITLISTED"
	RSVPCancelled  RSVPStatus = "CANCELLED"
)

func (s RSVPStatus) Valid() bool {
	switch s {
	case RSVPConfirmed, RSVPWaitlisted, RSVPCancelled:
		return true
	}
	return false
}

// RSVPID returns the deterministic document id for an (event, user) pair.
// At most one RSVP document exists per pair; re-RSVPs reuse it.
func RSVPID(eventID, userID string) string {
	return eventID + "_" + userID
}

// RSVP is one user's relationship to one event.
type RSVP struct {
	ID               string     `json:"id"`
	EventID          string     `json:"eventId"`
	UserID           string     `json:"userId"`
	Status           RSVPStatus `json:"status"`
	WaitlistPosition *int       `json:"waitlistPosition"`
	Attended         *bool      `json:"attended"`
	CreatedAt        time.Time  `json:"createdAt"`
	UpdatedAt        time.Time  `json:"updatedAt"`
}

// Active reports whether the RSVP holds a slot or a waitlist place.
func (r *RSVP) Active() bool {
	return r.Status == RSVPConfirmed || r.Status == RSVPWaitlisted
}

// EntryType is the sign of a ledger entry.
type EntryType string

const (
	Credit EntryType = "CREDIT"
	Debit  EntryType = "DEBIT"
)

// LedgerEntry is an immutable record explaining one balance change.
type LedgerEntry struct {
	ID          string    `json:"id"`
	UserID      string    `json:"userId"`
	Type        EntryType `json:"type"`
	Amount      int       `json:"amount"`
	Description string    `json:"description"`
	EventID     *string   `json:"eventId"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Signed returns the entry amount with its ledger sign applied.
func (e *LedgerEntry) Signed() int {
	if e.Type == Debit {
		return -e.Amount
	}
	return e.Amount
}

// PurchaseStatus tracks manual reconciliation of a token purchase.
type PurchaseStatus string

const (
	PurchasePending   PurchaseStatus = "PENDING"
	PurchaseCompleted PurchaseStatus = "COMPLETED"
	PurchaseFailed    PurchaseStatus = "FAILED"
	PurchaseRefunded  PurchaseStatus = "REFUNDED"
)

func (s PurchaseStatus) Valid() bool {
	switch s {
	case PurchasePending, PurchaseCompleted, PurchaseFailed, PurchaseRefunded:
		return true
	}
	return false
}

// Purchase records a member's request to buy a token package.
type Purchase struct {
	ID        string          `json:"id"`
	UserID    string          `json:"userId"`
	PackageID string          `json:"packageId"`
	Tokens    int             `json:"tokens"`
	Amount    decimal.Decimal `json:"amount"`
	Status    PurchaseStatus  `json:"status"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

// TokenPackage is a purchasable bundle of tokens.
type TokenPackage struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	Tokens   int             `json:"tokens"`
	Price    decimal.Decimal `json:"price"`
	IsActive bool            `json:"isActive"`
}

// AuditAction names a privileged mutation recorded in the audit log.
type AuditAction string

const (
	AuditTokenCredit       AuditAction = "TOKEN_CREDIT"
	AuditTokenDebit        AuditAction = "TOKEN_DEBIT"
	AuditPurchaseCompleted AuditAction = "PURCHASE_COMPLETED"
	AuditPurchaseStatus    AuditAction = "PURCHASE_STATUS_CHANGED"
	AuditRoleChanged       AuditAction = "ROLE_CHANGED"
	AuditUserStatus        AuditAction = "USER_STATUS_CHANGED"
	AuditRSVPRemoved       AuditAction = "RSVP_REMOVED"
	AuditRSVPPromoted      AuditAction = "RSVP_PROMOTED"
)

// AuditEntry records who performed a privileged action and on what.
type AuditEntry struct {
	ID         string            `json:"id"`
	ActorID    string            `json:"actorId"`
	Action     AuditAction       `json:"action"`
	EntityType string            `json:"entityType"`
	EntityID   string            `json:"entityId"`
	Details    map[string]string `json:"details,omitempty"`
	CreatedAt  time.Time         `json:"createdAt"`
}

// NewsStatus is the publication state of a news post.
type NewsStatus string

const (
	NewsDraft     NewsStatus = "DRAFT"
	NewsPublished NewsStatus = "PUBLISHED"
)

// NewsPost is a club announcement.
type NewsPost struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Slug        string     `json:"slug"`
	Excerpt     *string    `json:"excerpt"`
	Content     string     `json:"content"`
	Author      *string    `json:"author"`
	PublishDate time.Time  `json:"publishDate"`
	Status      NewsStatus `json:"status"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// ContactMessage is a submission from the public contact form.
type ContactMessage struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Subject   string    `json:"subject"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"createdAt"`
}
