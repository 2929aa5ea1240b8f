package model

import "time"

// RegisterRequest is the payload for creating the caller's user document.
type RegisterRequest struct {
	UID       string  `json:"uid"`
	Email     string  `json:"email"`
	FirstName string  `json:"firstName"`
	LastName  string  `json:"lastName"`
	Phone     *string `json:"phone,omitempty"`
}

// UpdateProfileRequest patches the caller's own profile fields.
type UpdateProfileRequest struct {
	FirstName *string `json:"firstName,omitempty"`
	LastName  *string `json:"lastName,omitempty"`
	Phone     *string `json:"phone,omitempty"`
}

// CreateEventRequest is the payload for creating a new event.
type CreateEventRequest struct {
	Title          string        `json:"title"`
	Description    *string       `json:"description,omitempty"`
	Category       EventCategory `json:"category"`
	SportID        string        `json:"sportId"`
	LocationID     *string       `json:"locationId,omitempty"`
	StartTime      time.Time     `json:"startTime"`
	EndTime        time.Time     `json:"endTime"`
	Capacity       int           `json:"capacity"`
	TokensRequired *int          `json:"tokensRequired,omitempty"`
	GenderPolicy   GenderPolicy  `json:"genderPolicy,omitempty"`
	IsPublic       *bool         `json:"isPublic,omitempty"`
	Status         EventStatus   `json:"status,omitempty"`
}

// UpdateEventRequest is a partial event patch; nil fields are left unchanged.
type UpdateEventRequest struct {
	Title          *string        `json:"title,omitempty"`
	Description    *string        `json:"description,omitempty"`
	Category       *EventCategory `json:"category,omitempty"`
	SportID        *string        `json:"sportId,omitempty"`
	LocationID     *string        `json:"locationId,omitempty"`
	StartTime      *time.Time     `json:"startTime,omitempty"`
	EndTime        *time.Time     `json:"endTime,omitempty"`
	Capacity       *int           `json:"capacity,omitempty"`
	TokensRequired *int           `json:"tokensRequired,omitempty"`
	GenderPolicy   *GenderPolicy  `json:"genderPolicy,omitempty"`
	IsPublic       *bool          `json:"isPublic,omitempty"`
	Status         *EventStatus   `json:"status,omitempty"`
}

// RSVPRequest is the payload for a member RSVP.
type RSVPRequest struct {
	EventID string `json:"eventId"`
}

// RSVPAction is an admin operation on an existing RSVP.
type RSVPAction string

const (
	ActionRemove       RSVPAction = "remove"
	ActionPromote      RSVPAction = "promote"
	ActionMarkAttended RSVPAction = "mark_attended"
	ActionMarkNoShow   RSVPAction = "mark_no_show"
)

// AdminRSVPRequest is the payload for PATCH /api/admin/events/{id}/rsvps.
type AdminRSVPRequest struct {
	RSVPID string     `json:"rsvpId"`
	Action RSVPAction `json:"action"`
}

// PurchaseRequest is the payload for buying a token package.
type PurchaseRequest struct {
	PackageID string `json:"packageId"`
}

// UpdatePurchaseRequest moves a purchase to a new status.
type UpdatePurchaseRequest struct {
	PurchaseID string         `json:"purchaseId"`
	Status     PurchaseStatus `json:"status"`
}

// AdjustTokensRequest is a manual super-admin ledger adjustment.
type AdjustTokensRequest struct {
	UserID      string  `json:"userId"`
	Amount      int     `json:"amount"`
	Description *string `json:"description,omitempty"`
}

// ChangeRoleRequest sets a user's role.
type ChangeRoleRequest struct {
	Role Role `json:"role"`
}

// SetStatusRequest activates or deactivates a user.
type SetStatusRequest struct {
	IsActive bool `json:"isActive"`
}

// NewsRequest creates or replaces a news post.
type NewsRequest struct {
	Title       string     `json:"title"`
	Slug        string     `json:"slug,omitempty"`
	Excerpt     *string    `json:"excerpt,omitempty"`
	Content     string     `json:"content"`
	Author      *string    `json:"author,omitempty"`
	PublishDate time.Time  `json:"publishDate"`
	Status      NewsStatus `json:"status,omitempty"`
}

// ContactRequest is the public contact form payload.
type ContactRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Subject string `json:"subject"`
	Message string `json:"message"`
}

// RSVPResult summarises the outcome of an RSVP attempt.
type RSVPResult struct {
	Status           RSVPStatus `json:"status"`
	WaitlistPosition *int       `json:"waitlistPosition"`
}

// EventRSVPs is the admin view of an event's attendees.
type EventRSVPs struct {
	Confirmed  []RSVPView `json:"confirmed"`
	Waitlisted []RSVPView `json:"waitlisted"`
}

// RSVPView joins an RSVP with display fields from its user.
type RSVPView struct {
	RSVP
	UserName  string `json:"userName"`
	UserEmail string `json:"userEmail"`
}

// ErrorResponse is a standard JSON error envelope.
type ErrorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}

// AdminStats backs the admin dashboard.
type AdminStats struct {
	TotalEvents    int `json:"totalEvents"`
	UpcomingEvents int `json:"upcomingEvents"`
	TotalRSVPs     int `json:"totalRsvps"`
	ActiveMembers  int `json:"activeMembers"`
}

// SuperAdminStats backs the super-admin dashboard.
type SuperAdminStats struct {
	TotalUsers         int    `json:"totalUsers"`
	ActiveUsers        int    `json:"activeUsers"`
	TotalPurchases     int    `json:"totalPurchases"`
	PendingPurchases   int    `json:"pendingPurchases"`
	CompletedPurchases int    `json:"completedPurchases"`
	TotalRevenue       string `json:"totalRevenue"`
}

// MemberRSVP is an RSVP joined with its event, as shown in the member portal.
type MemberRSVP struct {
	RSVP
	Event *Event `json:"event"`
}

// CalendarEntry is an event on a member's calendar with the member's RSVP
// status for it.
type CalendarEntry struct {
	Event
	RSVPStatus       RSVPStatus `json:"rsvpStatus"`
	WaitlistPosition *int       `json:"waitlistPosition,omitempty"`
}

// EventSummary is an event with its current occupancy.
type EventSummary struct {
	Event
	ConfirmedCount int `json:"rsvpCount"`
	WaitlistCount  int `json:"waitlistCount"`
	SpotsLeft      int `json:"spotsLeft"`
}

// Profile is the member's own account view.
type Profile struct {
	User
	UpcomingRSVPs   int  `json:"upcomingRsvps"`
	ProfileComplete bool `json:"profileComplete"`
}
