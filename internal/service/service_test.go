package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Shivanand-hulikatti/club-membership/internal/model"
	"github.com/Shivanand-hulikatti/club-membership/internal/repository"
	"github.com/Shivanand-hulikatti/club-membership/internal/repository/memstore"
)

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return testNow }

type fixture struct {
	store     repository.Store
	users     *UserService
	events    *EventService
	rsvps     *RSVPService
	tokens    *TokenService
	purchases *PurchaseService
	content   *ContentService
	stats     *StatsService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memstore.New()
	return &fixture{
		store:     store,
		users:     NewUserService(store, fixedClock),
		events:    NewEventService(store, fixedClock),
		rsvps:     NewRSVPService(store, fixedClock),
		tokens:    NewTokenService(store, fixedClock),
		purchases: NewPurchaseService(store, fixedClock),
		content:   NewContentService(store, fixedClock),
		stats:     NewStatsService(store, fixedClock),
	}
}

// member registers a user and credits balance through the ledger so the
// balance invariant holds from the start.
func (f *fixture) member(t *testing.T, id string, balance int) *model.User {
	t.Helper()
	ctx := context.Background()
	u, err := f.users.Register(ctx, id, model.RegisterRequest{
		UID:       id,
		Email:     id + "@club.test",
		FirstName: "Test",
		LastName:  id,
	})
	require.NoError(t, err)
	if balance > 0 {
		_, err = f.tokens.Credit(ctx, "root", model.AdjustTokensRequest{UserID: id, Amount: balance})
		require.NoError(t, err)
	}
	return u
}

func (f *fixture) event(t *testing.T, capacity, tokens int) *model.Event {
	t.Helper()
	e, err := f.events.Create(context.Background(), "admin", model.CreateEventRequest{
		Title:          "Friday Futsal",
		Category:       model.CategoryWeeklySports,
		SportID:        "futsal",
		StartTime:      testNow.Add(48 * time.Hour),
		EndTime:        testNow.Add(50 * time.Hour),
		Capacity:       capacity,
		TokensRequired: &tokens,
		Status:         model.EventPublished,
	})
	require.NoError(t, err)
	return e
}

func (f *fixture) balance(t *testing.T, userID string) int {
	t.Helper()
	n, err := f.tokens.Balance(context.Background(), userID)
	require.NoError(t, err)
	return n
}

func (f *fixture) rsvp(t *testing.T, eventID, userID string) *model.RSVP {
	t.Helper()
	var r *model.RSVP
	require.NoError(t, f.store.View(context.Background(), func(ctx context.Context, tx repository.Tx) error {
		var err error
		r, err = tx.GetRSVP(ctx, model.RSVPID(eventID, userID))
		return err
	}))
	return r
}

func (f *fixture) requireConsistent(t *testing.T, userIDs ...string) {
	t.Helper()
	for _, id := range userIDs {
		rec, err := f.tokens.Reconcile(context.Background(), id)
		require.NoError(t, err)
		require.Truef(t, rec.Consistent, "user %s: balance %d, ledger sum %d", id, rec.Balance, rec.LedgerSum)
	}
}

func ptr[T any](v T) *T { return &v }
