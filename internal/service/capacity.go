package service

import "github.com/Shivanand-hulikatti/club-membership/internal/model"

// Placement is the outcome of a capacity decision for a new RSVP.
type Placement struct {
	Status           model.RSVPStatus
	WaitlistPosition *int
}

// Decide places a new RSVP. A free slot confirms it; otherwise it is
// appended to the tail of the waitlist at waitlistTail+1. Existing waitlist
// positions are never renumbered, so positions are an ordering key and may
// contain gaps.
//
// Decide holds no locks. Callers must read both counts inside the same
// transaction that writes the RSVP.
func Decide(confirmedCount, capacity, waitlistTail int) Placement {
	if confirmedCount < capacity {
		return Placement{Status: model.RSVPConfirmed}
	}
	pos := waitlistTail + 1
	return Placement{Status: model.RSVPWaitlisted, WaitlistPosition: &pos}
}

// CanPromote reports whether a waitlisted RSVP fits under capacity.
func CanPromote(confirmedCount, capacity int) bool {
	return confirmedCount < capacity
}

// waitlistTail returns the position a new waitlist entry should follow: the
// larger of the waitlist size and the highest position in use. With no gaps
// both are equal; with gaps the highest position wins so a new entry never
// shares a position with an older one.
func waitlistTail(waitlisted []model.RSVP) int {
	tail := len(waitlisted)
	for _, r := range waitlisted {
		if r.WaitlistPosition != nil && *r.WaitlistPosition > tail {
			tail = *r.WaitlistPosition
		}
	}
	return tail
}
