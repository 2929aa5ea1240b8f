package pgstore

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"

	"github.com/Shivanand-hulikatti/club-membership/internal/apperr"
	"github.com/Shivanand-hulikatti/club-membership/internal/model"
	"github.com/Shivanand-hulikatti/club-membership/internal/repository"
)

func TestWhereBuilder(t *testing.T) {
	var w where
	require.Equal(t, "", w.String())

	w.add("status = ?", "PUBLISHED")
	w.add("start_time > ?", time.Unix(0, 0))
	require.Equal(t, " WHERE status = $1 AND start_time > $2", w.String())
	require.Equal(t, " LIMIT $3 OFFSET $4", w.page(10, 20))
	require.Len(t, w.args, 4)

	var empty where
	require.Equal(t, "", empty.page(0, 0))
}

func TestClassify(t *testing.T) {
	wrap := func(code string) error {
		return fmt.Errorf("commit transaction: %w", &pgconn.PgError{Code: code, Message: "boom"})
	}

	require.ErrorIs(t, classify(wrap(codeSerializationFailure)), apperr.ErrConflict)
	require.ErrorIs(t, classify(wrap(codeDeadlockDetected)), apperr.ErrConflict)
	require.ErrorIs(t, classify(wrap(codeUniqueViolation)), apperr.ErrInvalidState)
	require.ErrorIs(t, classify(wrap(codeForeignKeyViolation)), apperr.ErrNotFound)
	require.True(t, apperr.IsRetryable(classify(wrap(codeSerializationFailure))))

	other := wrap("42P01")
	require.Equal(t, other, classify(other))

	business := apperr.InsufficientFunds("no")
	require.Equal(t, business, classify(business))
}

// openTestStore connects to PGSTORE_TEST_DSN, applies the schema and empties
// every table. Tests using it are skipped when the variable is unset.
func openTestStore(t *testing.T) *Store {
	t.Helper()
	dsn := os.Getenv("PGSTORE_TEST_DSN")
	if dsn == "" {
		t.Skip("PGSTORE_TEST_DSN not set")
	}
	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)

	s := New(pool)
	t.Cleanup(func() { _ = s.Close() })
	require.NoError(t, s.Migrate(ctx))
	_, err = pool.Exec(ctx, `TRUNCATE users, events, event_rsvps, token_transactions, purchases,
		token_packages, audit_log, news_posts, contact_messages`)
	require.NoError(t, err)
	return s
}

func TestRoundTripAndConflict(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Microsecond)

	require.NoError(t, s.RunTransaction(ctx, func(ctx context.Context, tx repository.Tx) error {
		if err := tx.PutUser(ctx, &model.User{ID: "u1", Email: "u1@club.test", Role: model.RoleMember, IsActive: true, CreatedAt: now, UpdatedAt: now}); err != nil {
			return err
		}
		return tx.PutEvent(ctx, &model.Event{
			ID: "e1", Title: "Futsal", Category: model.CategoryWeeklySports, SportID: "futsal",
			StartTime: now.Add(time.Hour), EndTime: now.Add(2 * time.Hour), Capacity: 1,
			TokensRequired: 1, GenderPolicy: model.GenderAll, Status: model.EventPublished,
			IsPublic: true, CreatedAt: now, UpdatedAt: now,
		})
	}))

	err := s.View(ctx, func(ctx context.Context, tx repository.Tx) error {
		_, err := tx.GetRSVP(ctx, "missing")
		return err
	})
	require.ErrorIs(t, err, apperr.ErrNotFound)

	// Two transactions both count the confirmed RSVPs and then insert one.
	// Under SERIALIZABLE only one can commit.
	ready := make(chan struct{})
	release := make(chan struct{})
	errs := make(chan error, 2)
	for _, id := range []string{"a", "b"} {
		go func(id string) {
			errs <- s.RunTransaction(ctx, func(ctx context.Context, tx repository.Tx) error {
				if _, err := tx.CountRSVPs(ctx, repository.RSVPFilter{EventID: "e1", Status: model.RSVPConfirmed}); err != nil {
					return err
				}
				ready <- struct{}{}
				<-release
				return tx.PutRSVP(ctx, &model.RSVP{ID: "e1_" + id, EventID: "e1", UserID: "u1", Status: model.RSVPConfirmed, CreatedAt: now, UpdatedAt: now})
			})
		}(id)
	}
	<-ready
	<-ready
	close(release)

	var conflicts int
	for i := 0; i < 2; i++ {
		if err := <-errs; err != nil {
			require.ErrorIs(t, err, apperr.ErrConflict)
			conflicts++
		}
	}
	require.Equal(t, 1, conflicts)
}
