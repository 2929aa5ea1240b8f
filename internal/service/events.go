package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/Shivanand-hulikatti/club-membership/internal/apperr"
	"github.com/Shivanand-hulikatti/club-membership/internal/model"
	"github.com/Shivanand-hulikatti/club-membership/internal/repository"
)

const maxCapacity = 100000

// EventService handles event administration and the public event listings.
type EventService struct {
	store repository.Store
	now   Clock
}

// NewEventService constructs an EventService.
func NewEventService(store repository.Store, now Clock) *EventService {
	return &EventService{store: store, now: clockOrDefault(now)}
}

// EventQuery narrows the public and admin event listings.
type EventQuery struct {
	Status       model.EventStatus
	Category     model.EventCategory
	SportID      string
	GenderPolicy model.GenderPolicy
	Limit        int
}

// Create validates and persists a new event. Events start as DRAFT unless a
// status is given.
func (s *EventService) Create(ctx context.Context, actorID string, req model.CreateEventRequest) (*model.Event, error) {
	title, err := requireLen("title", req.Title, 1, 200)
	if err != nil {
		return nil, err
	}
	if !req.Category.Valid() {
		return nil, apperr.Validation("category is invalid")
	}
	sportID := strings.TrimSpace(req.SportID)
	if sportID == "" {
		return nil, apperr.Validation("sportId is required")
	}
	if req.StartTime.IsZero() || req.EndTime.IsZero() {
		return nil, apperr.Validation("startTime and endTime are required")
	}
	if !req.StartTime.Before(req.EndTime) {
		return nil, apperr.Validation("startTime must be before endTime")
	}
	if req.Capacity < 1 || req.Capacity > maxCapacity {
		return nil, apperr.Validation("capacity must be between 1 and %d", maxCapacity)
	}

	event := &model.Event{
		ID:             newID(),
		Title:          title,
		Description:    trimmedOrNil(req.Description),
		Category:       req.Category,
		SportID:        sportID,
		LocationID:     trimmedOrNil(req.LocationID),
		StartTime:      req.StartTime.UTC(),
		EndTime:        req.EndTime.UTC(),
		Capacity:       req.Capacity,
		TokensRequired: 1,
		GenderPolicy:   model.GenderAll,
		Status:         model.EventDraft,
		IsPublic:       true,
		CreatedBy:      actorID,
	}
	if req.TokensRequired != nil {
		if *req.TokensRequired < 0 {
			return nil, apperr.Validation("tokensRequired must not be negative")
		}
		event.TokensRequired = *req.TokensRequired
	}
	if req.GenderPolicy != "" {
		if !req.GenderPolicy.Valid() {
			return nil, apperr.Validation("genderPolicy is invalid")
		}
		event.GenderPolicy = req.GenderPolicy
	}
	if req.Status != "" {
		if !req.Status.Valid() {
			return nil, apperr.Validation("status is invalid")
		}
		event.Status = req.Status
	}
	if req.IsPublic != nil {
		event.IsPublic = *req.IsPublic
	}

	err = s.store.RunTransaction(ctx, func(ctx context.Context, tx repository.Tx) error {
		now := s.now()
		event.CreatedAt = now
		event.UpdatedAt = now
		return tx.PutEvent(ctx, event)
	})
	if err != nil {
		return nil, fmt.Errorf("create event: %w", err)
	}
	return event, nil
}

// Get returns any event by id, including drafts.
func (s *EventService) Get(ctx context.Context, id string) (*model.EventSummary, error) {
	var summary *model.EventSummary
	err := s.store.View(ctx, func(ctx context.Context, tx repository.Tx) error {
		event, err := tx.GetEvent(ctx, id)
		if err != nil {
			return err
		}
		summary, err = summarize(ctx, tx, event)
		return err
	})
	return summary, err
}

// GetPublic returns a published, public event. Anything else is NotFound.
func (s *EventService) GetPublic(ctx context.Context, id string) (*model.EventSummary, error) {
	summary, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if summary.Status != model.EventPublished || !summary.IsPublic {
		return nil, apperr.NotFound("event not found")
	}
	return summary, nil
}

// ListPublic returns upcoming published public events in start order, each
// with its current occupancy.
func (s *EventService) ListPublic(ctx context.Context, q EventQuery) ([]model.EventSummary, error) {
	now := s.now()
	f := repository.EventFilter{
		Status:       model.EventPublished,
		Category:     q.Category,
		SportID:      strings.TrimSpace(q.SportID),
		GenderPolicy: q.GenderPolicy,
		StartsAfter:  &now,
	}
	limit := clampLimit(q.Limit, 50, 100)

	out := []model.EventSummary{}
	err := s.store.View(ctx, func(ctx context.Context, tx repository.Tx) error {
		events, err := tx.ListEvents(ctx, f)
		if err != nil {
			return err
		}
		for i := range events {
			if !events[i].IsPublic {
				continue
			}
			summary, err := summarize(ctx, tx, &events[i])
			if err != nil {
				return err
			}
			out = append(out, *summary)
			if len(out) == limit {
				break
			}
		}
		return nil
	})
	return out, err
}

// ListAdmin returns events of any status for the admin panel.
func (s *EventService) ListAdmin(ctx context.Context, q EventQuery) ([]model.EventSummary, error) {
	if q.Status != "" && !q.Status.Valid() {
		return nil, apperr.Validation("invalid status %q", q.Status)
	}
	f := repository.EventFilter{
		Status:       q.Status,
		Category:     q.Category,
		SportID:      strings.TrimSpace(q.SportID),
		GenderPolicy: q.GenderPolicy,
		Limit:        clampLimit(q.Limit, 100, 500),
	}

	out := []model.EventSummary{}
	err := s.store.View(ctx, func(ctx context.Context, tx repository.Tx) error {
		events, err := tx.ListEvents(ctx, f)
		if err != nil {
			return err
		}
		for i := range events {
			summary, err := summarize(ctx, tx, &events[i])
			if err != nil {
				return err
			}
			out = append(out, *summary)
		}
		return nil
	})
	return out, err
}

// Update applies a partial patch. Capacity may not drop below the number of
// confirmed RSVPs already held.
func (s *EventService) Update(ctx context.Context, id string, req model.UpdateEventRequest) (*model.Event, error) {
	var event *model.Event
	err := s.store.RunTransaction(ctx, func(ctx context.Context, tx repository.Tx) error {
		e, err := tx.GetEvent(ctx, id)
		if err != nil {
			return err
		}
		if err := applyEventPatch(e, req); err != nil {
			return err
		}
		if req.Capacity != nil {
			confirmed, err := tx.CountRSVPs(ctx, repository.RSVPFilter{EventID: id, Status: model.RSVPConfirmed})
			if err != nil {
				return fmt.Errorf("count confirmed: %w", err)
			}
			if e.Capacity < confirmed {
				return apperr.CapacityExceeded("capacity %d is below %d confirmed RSVPs", e.Capacity, confirmed)
			}
		}
		e.UpdatedAt = s.now()
		event = e
		return tx.PutEvent(ctx, e)
	})
	if err != nil {
		return nil, err
	}
	return event, nil
}

// Cancel marks an event CANCELLED. Events are never deleted, and existing
// RSVPs keep their status.
func (s *EventService) Cancel(ctx context.Context, id string) (*model.Event, error) {
	status := model.EventCancelled
	return s.Update(ctx, id, model.UpdateEventRequest{Status: &status})
}

func applyEventPatch(e *model.Event, req model.UpdateEventRequest) error {
	var err error
	if req.Title != nil {
		if e.Title, err = requireLen("title", *req.Title, 1, 200); err != nil {
			return err
		}
	}
	if req.Description != nil {
		e.Description = trimmedOrNil(req.Description)
	}
	if req.Category != nil {
		if !req.Category.Valid() {
			return apperr.Validation("category is invalid")
		}
		e.Category = *req.Category
	}
	if req.SportID != nil {
		sportID := strings.TrimSpace(*req.SportID)
		if sportID == "" {
			return apperr.Validation("sportId is required")
		}
		e.SportID = sportID
	}
	if req.LocationID != nil {
		e.LocationID = trimmedOrNil(req.LocationID)
	}
	if req.StartTime != nil {
		e.StartTime = req.StartTime.UTC()
	}
	if req.EndTime != nil {
		e.EndTime = req.EndTime.UTC()
	}
	if !e.StartTime.Before(e.EndTime) {
		return apperr.Validation("startTime must be before endTime")
	}
	if req.Capacity != nil {
		if *req.Capacity < 1 || *req.Capacity > maxCapacity {
			return apperr.Validation("capacity must be between 1 and %d", maxCapacity)
		}
		e.Capacity = *req.Capacity
	}
	if req.TokensRequired != nil {
		if *req.TokensRequired < 0 {
			return apperr.Validation("tokensRequired must not be negative")
		}
		e.TokensRequired = *req.TokensRequired
	}
	if req.GenderPolicy != nil {
		if !req.GenderPolicy.Valid() {
			return apperr.Validation("genderPolicy is invalid")
		}
		e.GenderPolicy = *req.GenderPolicy
	}
	if req.IsPublic != nil {
		e.IsPublic = *req.IsPublic
	}
	if req.Status != nil {
		if !req.Status.Valid() {
			return apperr.Validation("status is invalid")
		}
		e.Status = *req.Status
	}
	return nil
}

func summarize(ctx context.Context, tx repository.Tx, e *model.Event) (*model.EventSummary, error) {
	confirmed, err := tx.CountRSVPs(ctx, repository.RSVPFilter{EventID: e.ID, Status: model.RSVPConfirmed})
	if err != nil {
		return nil, err
	}
	waitlisted, err := tx.CountRSVPs(ctx, repository.RSVPFilter{EventID: e.ID, Status: model.RSVPWaitlisted})
	if err != nil {
		return nil, err
	}
	left := e.Capacity - confirmed
	if left < 0 {
		left = 0
	}
	return &model.EventSummary{
		Event:          *e,
		ConfirmedCount: confirmed,
		WaitlistCount:  waitlisted,
		SpotsLeft:      left,
	}, nil
}

func trimmedOrNil(s *string) *string {
	if s == nil {
		return nil
	}
	t := strings.TrimSpace(*s)
	if t == "" {
		return nil
	}
	return &t
}
