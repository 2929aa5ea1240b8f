package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/Shivanand-hulikatti/club-membership/internal/apperr"
	"github.com/Shivanand-hulikatti/club-membership/internal/model"
	"github.com/Shivanand-hulikatti/club-membership/internal/repository"
)

// RSVPService owns the lifecycle of a user's RSVP to an event.
//
// States: none → CONFIRMED | WAITLISTED → CANCELLED, and WAITLISTED →
// CONFIRMED by admin promotion. A cancelled RSVP can be re-entered; the
// document id {eventId}_{userId} is reused. Every transition between
// CONFIRMED and any other status writes exactly one ledger entry of
// tokensRequired in the same transaction as the status change.
type RSVPService struct {
	store repository.Store
	now   Clock
}

// NewRSVPService constructs an RSVPService.
func NewRSVPService(store repository.Store, now Clock) *RSVPService {
	return &RSVPService{store: store, now: clockOrDefault(now)}
}

// Create reserves a slot for userID, or a waitlist place when the event is
// full. Tokens are only spent on confirmation.
//
// Two concurrent creates for the same pair both write the same RSVP
// document, so the store's conflict detection lets only one commit; the
// retried loser then sees the active RSVP and fails with InvalidState.
func (s *RSVPService) Create(ctx context.Context, eventID, userID string) (*model.RSVPResult, error) {
	eventID = strings.TrimSpace(eventID)
	if eventID == "" {
		return nil, apperr.Validation("eventId is required")
	}

	var result model.RSVPResult
	err := s.store.RunTransaction(ctx, func(ctx context.Context, tx repository.Tx) error {
		now := s.now()

		event, err := tx.GetEvent(ctx, eventID)
		if err != nil {
			return err
		}
		if event.Status != model.EventPublished {
			return apperr.InvalidState("event is not available")
		}
		if event.HasStarted(now) {
			return apperr.InvalidState("event has already started")
		}

		user, err := tx.GetUser(ctx, userID)
		if err != nil {
			return err
		}

		id := model.RSVPID(eventID, userID)
		existing, err := tx.GetRSVP(ctx, id)
		if err != nil && !isNotFound(err) {
			return err
		}
		if existing != nil && existing.Active() {
			return apperr.InvalidState("already RSVP'd to this event")
		}

		if user.TokenBalance < event.TokensRequired {
			return apperr.InsufficientFunds("insufficient tokens: %d required, %d available", event.TokensRequired, user.TokenBalance)
		}

		confirmed, err := tx.CountRSVPs(ctx, repository.RSVPFilter{EventID: eventID, Status: model.RSVPConfirmed})
		if err != nil {
			return fmt.Errorf("count confirmed: %w", err)
		}
		waitlisted, err := tx.ListRSVPs(ctx, repository.RSVPFilter{EventID: eventID, Status: model.RSVPWaitlisted})
		if err != nil {
			return fmt.Errorf("list waitlist: %w", err)
		}
		placement := Decide(confirmed, event.Capacity, waitlistTail(waitlisted))

		rsvp := &model.RSVP{
			ID:               id,
			EventID:          eventID,
			UserID:           userID,
			Status:           placement.Status,
			WaitlistPosition: placement.WaitlistPosition,
			CreatedAt:        now,
			UpdatedAt:        now,
		}
		if err := tx.PutRSVP(ctx, rsvp); err != nil {
			return fmt.Errorf("write rsvp: %w", err)
		}

		if placement.Status == model.RSVPConfirmed && event.TokensRequired > 0 {
			if _, err := debit(ctx, tx, userID, event.TokensRequired, "RSVP to "+event.Title, &eventID, now); err != nil {
				return err
			}
		}

		result = model.RSVPResult{Status: placement.Status, WaitlistPosition: placement.WaitlistPosition}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// Cancel is the member's own cancellation. It is refused once the event has
// started. A confirmed RSVP is refunded; a waitlisted one was never charged.
// Remaining waitlist positions are not renumbered.
func (s *RSVPService) Cancel(ctx context.Context, eventID, userID string) error {
	eventID = strings.TrimSpace(eventID)
	if eventID == "" {
		return apperr.Validation("eventId is required")
	}

	return s.store.RunTransaction(ctx, func(ctx context.Context, tx repository.Tx) error {
		now := s.now()

		rsvp, err := tx.GetRSVP(ctx, model.RSVPID(eventID, userID))
		if isNotFound(err) {
			return apperr.NotFound("RSVP not found")
		}
		if err != nil {
			return err
		}
		if !rsvp.Active() {
			return apperr.InvalidState("RSVP is already cancelled")
		}

		event, err := tx.GetEvent(ctx, eventID)
		if err != nil {
			return err
		}
		if event.HasStarted(now) {
			return apperr.InvalidState("cannot cancel RSVP for past event")
		}

		return release(ctx, tx, rsvp, event, "Cancelled RSVP to "+event.Title, now)
	})
}

// AdminRemove cancels any RSVP of the event regardless of timing or
// ownership, refunding it if it was confirmed. Removing an already
// cancelled RSVP changes nothing.
func (s *RSVPService) AdminRemove(ctx context.Context, actorID, eventID, rsvpID string) error {
	return s.store.RunTransaction(ctx, func(ctx context.Context, tx repository.Tx) error {
		now := s.now()

		rsvp, err := eventRSVP(ctx, tx, eventID, rsvpID)
		if err != nil {
			return err
		}
		if !rsvp.Active() {
			return nil
		}
		event, err := tx.GetEvent(ctx, eventID)
		if err != nil {
			return err
		}

		prior := rsvp.Status
		if err := release(ctx, tx, rsvp, event, "Admin removed RSVP from "+event.Title, now); err != nil {
			return err
		}
		return audit(ctx, tx, actorID, model.AuditRSVPRemoved, "RSVP", rsvp.ID, map[string]string{
			"eventId":     eventID,
			"userId":      rsvp.UserID,
			"priorStatus": string(prior),
		}, now)
	})
}

// Promote confirms a waitlisted RSVP. The confirmed count is recomputed
// inside the transaction; promotion never happens automatically.
func (s *RSVPService) Promote(ctx context.Context, actorID, eventID, rsvpID string) error {
	return s.store.RunTransaction(ctx, func(ctx context.Context, tx repository.Tx) error {
		now := s.now()

		rsvp, err := eventRSVP(ctx, tx, eventID, rsvpID)
		if err != nil {
			return err
		}
		if rsvp.Status != model.RSVPWaitlisted {
			return apperr.InvalidState("can only promote waitlisted users")
		}
		event, err := tx.GetEvent(ctx, eventID)
		if err != nil {
			return err
		}

		confirmed, err := tx.CountRSVPs(ctx, repository.RSVPFilter{EventID: eventID, Status: model.RSVPConfirmed})
		if err != nil {
			return fmt.Errorf("count confirmed: %w", err)
		}
		if !CanPromote(confirmed, event.Capacity) {
			return apperr.CapacityExceeded("event at capacity")
		}

		user, err := tx.GetUser(ctx, rsvp.UserID)
		if err != nil {
			return err
		}
		if user.TokenBalance < event.TokensRequired {
			return apperr.InsufficientFunds("user has insufficient tokens")
		}

		position := rsvp.WaitlistPosition
		rsvp.Status = model.RSVPConfirmed
		rsvp.WaitlistPosition = nil
		rsvp.UpdatedAt = now
		if err := tx.PutRSVP(ctx, rsvp); err != nil {
			return fmt.Errorf("write rsvp: %w", err)
		}
		if event.TokensRequired > 0 {
			if _, err := debit(ctx, tx, rsvp.UserID, event.TokensRequired, "Promoted from waitlist: "+event.Title, &eventID, now); err != nil {
				return err
			}
		}

		details := map[string]string{"eventId": eventID, "userId": rsvp.UserID}
		if position != nil {
			details["waitlistPosition"] = fmt.Sprint(*position)
		}
		return audit(ctx, tx, actorID, model.AuditRSVPPromoted, "RSVP", rsvp.ID, details, now)
	})
}

// MarkAttendance records whether the RSVP holder turned up. No ledger effect.
func (s *RSVPService) MarkAttendance(ctx context.Context, eventID, rsvpID string, attended bool) error {
	return s.store.RunTransaction(ctx, func(ctx context.Context, tx repository.Tx) error {
		rsvp, err := eventRSVP(ctx, tx, eventID, rsvpID)
		if err != nil {
			return err
		}
		rsvp.Attended = &attended
		rsvp.UpdatedAt = s.now()
		return tx.PutRSVP(ctx, rsvp)
	})
}

// Apply dispatches an admin RSVP action.
func (s *RSVPService) Apply(ctx context.Context, actorID, eventID string, req model.AdminRSVPRequest) error {
	if strings.TrimSpace(req.RSVPID) == "" || req.Action == "" {
		return apperr.Validation("rsvpId and action are required")
	}
	switch req.Action {
	case model.ActionRemove:
		return s.AdminRemove(ctx, actorID, eventID, req.RSVPID)
	case model.ActionPromote:
		return s.Promote(ctx, actorID, eventID, req.RSVPID)
	case model.ActionMarkAttended:
		return s.MarkAttendance(ctx, eventID, req.RSVPID, true)
	case model.ActionMarkNoShow:
		return s.MarkAttendance(ctx, eventID, req.RSVPID, false)
	}
	return apperr.Validation("invalid action %q", req.Action)
}

// ListForEvent returns the event's confirmed attendees and its waitlist in
// position order. Cancelled RSVPs are omitted.
func (s *RSVPService) ListForEvent(ctx context.Context, eventID string) (*model.EventRSVPs, error) {
	out := &model.EventRSVPs{Confirmed: []model.RSVPView{}, Waitlisted: []model.RSVPView{}}
	err := s.store.View(ctx, func(ctx context.Context, tx repository.Tx) error {
		if _, err := tx.GetEvent(ctx, eventID); err != nil {
			return err
		}
		rsvps, err := tx.ListRSVPs(ctx, repository.RSVPFilter{EventID: eventID})
		if err != nil {
			return err
		}
		for _, r := range rsvps {
			if !r.Active() {
				continue
			}
			view := model.RSVPView{RSVP: r, UserName: "Unknown"}
			if u, err := tx.GetUser(ctx, r.UserID); err == nil {
				view.UserEmail = u.Email
				view.UserName = strings.TrimSpace(u.FirstName + " " + u.LastName)
				if view.UserName == "" {
					view.UserName = u.Email
				}
			} else if !isNotFound(err) {
				return err
			}
			if r.Status == model.RSVPConfirmed {
				out.Confirmed = append(out.Confirmed, view)
			} else {
				out.Waitlisted = append(out.Waitlisted, view)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.SliceStable(out.Confirmed, func(i, j int) bool {
		return out.Confirmed[i].CreatedAt.Before(out.Confirmed[j].CreatedAt)
	})
	sort.SliceStable(out.Waitlisted, func(i, j int) bool {
		a, b := out.Waitlisted[i], out.Waitlisted[j]
		pa, pb := positionOf(a.RSVP), positionOf(b.RSVP)
		if pa != pb {
			return pa < pb
		}
		return a.CreatedAt.Before(b.CreatedAt)
	})
	return out, nil
}

// ListForUser returns a member's RSVPs with their events, newest first.
func (s *RSVPService) ListForUser(ctx context.Context, userID string, status model.RSVPStatus, limit int) ([]model.MemberRSVP, error) {
	if status != "" && !status.Valid() {
		status = ""
	}
	limit = clampLimit(limit, 20, 100)

	out := []model.MemberRSVP{}
	err := s.store.View(ctx, func(ctx context.Context, tx repository.Tx) error {
		rsvps, err := tx.ListRSVPs(ctx, repository.RSVPFilter{UserID: userID, Status: status, Limit: limit})
		if err != nil {
			return err
		}
		for _, r := range rsvps {
			event, err := tx.GetEvent(ctx, r.EventID)
			if isNotFound(err) {
				continue
			}
			if err != nil {
				return err
			}
			out = append(out, model.MemberRSVP{RSVP: r, Event: event})
		}
		return nil
	})
	return out, err
}

// Calendar returns the events a member is confirmed or waitlisted for, in
// start order. from and to bound the event start time inclusively when set.
func (s *RSVPService) Calendar(ctx context.Context, userID string, from, to *time.Time) ([]model.CalendarEntry, error) {
	if from != nil && to != nil && to.Before(*from) {
		return nil, apperr.Validation("endDate must not be before startDate")
	}

	out := []model.CalendarEntry{}
	err := s.store.View(ctx, func(ctx context.Context, tx repository.Tx) error {
		rsvps, err := tx.ListRSVPs(ctx, repository.RSVPFilter{UserID: userID})
		if err != nil {
			return err
		}
		for _, r := range rsvps {
			if !r.Active() {
				continue
			}
			event, err := tx.GetEvent(ctx, r.EventID)
			if isNotFound(err) {
				continue
			}
			if err != nil {
				return err
			}
			if from != nil && event.StartTime.Before(*from) {
				continue
			}
			if to != nil && event.StartTime.After(*to) {
				continue
			}
			out = append(out, model.CalendarEntry{
				Event:            *event,
				RSVPStatus:       r.Status,
				WaitlistPosition: r.WaitlistPosition,
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].StartTime.Equal(out[j].StartTime) {
			return out[i].StartTime.Before(out[j].StartTime)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// release cancels rsvp and refunds it when it held a confirmed slot.
func release(ctx context.Context, tx repository.Tx, rsvp *model.RSVP, event *model.Event, description string, now time.Time) error {
	prior := rsvp.Status
	rsvp.Status = model.RSVPCancelled
	rsvp.WaitlistPosition = nil
	rsvp.UpdatedAt = now
	if err := tx.PutRSVP(ctx, rsvp); err != nil {
		return fmt.Errorf("write rsvp: %w", err)
	}
	if prior != model.RSVPConfirmed || event.TokensRequired <= 0 {
		return nil
	}
	eventID := event.ID
	_, err := credit(ctx, tx, rsvp.UserID, event.TokensRequired, description, &eventID, now)
	return err
}

// eventRSVP loads an RSVP and checks it belongs to eventID.
func eventRSVP(ctx context.Context, tx repository.Tx, eventID, rsvpID string) (*model.RSVP, error) {
	rsvp, err := tx.GetRSVP(ctx, rsvpID)
	if err != nil && !isNotFound(err) {
		return nil, err
	}
	if rsvp == nil || rsvp.EventID != eventID {
		return nil, apperr.NotFound("RSVP not found")
	}
	return rsvp, nil
}

func positionOf(r model.RSVP) int {
	if r.WaitlistPosition == nil {
		return int(^uint(0) >> 1)
	}
	return *r.WaitlistPosition
}
