package memstore

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Shivanand-hulikatti/club-membership/internal/apperr"
	"github.com/Shivanand-hulikatti/club-membership/internal/model"
	"github.com/Shivanand-hulikatti/club-membership/internal/repository"
)

func putUser(t *testing.T, s *Store, u model.User) {
	t.Helper()
	require.NoError(t, s.RunTransaction(context.Background(), func(ctx context.Context, tx repository.Tx) error {
		return tx.PutUser(ctx, &u)
	}))
}

func TestGetMissingIsNotFound(t *testing.T) {
	s := New()
	err := s.View(context.Background(), func(ctx context.Context, tx repository.Tx) error {
		_, err := tx.GetUser(ctx, "nobody")
		return err
	})
	require.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestAbortedTransactionWritesNothing(t *testing.T) {
	s := New()
	err := s.RunTransaction(context.Background(), func(ctx context.Context, tx repository.Tx) error {
		require.NoError(t, tx.PutUser(ctx, &model.User{ID: "u1", TokenBalance: 5}))
		return apperr.InvalidState("abort")
	})
	require.ErrorIs(t, err, apperr.ErrInvalidState)

	err = s.View(context.Background(), func(ctx context.Context, tx repository.Tx) error {
		_, err := tx.GetUser(ctx, "u1")
		return err
	})
	require.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestReadYourOwnWrites(t *testing.T) {
	s := New()
	err := s.RunTransaction(context.Background(), func(ctx context.Context, tx repository.Tx) error {
		require.NoError(t, tx.PutRSVP(ctx, &model.RSVP{ID: "e1_u1", EventID: "e1", UserID: "u1", Status: model.RSVPConfirmed}))
		n, err := tx.CountRSVPs(ctx, repository.RSVPFilter{EventID: "e1", Status: model.RSVPConfirmed})
		require.NoError(t, err)
		require.Equal(t, 1, n)
		r, err := tx.GetRSVP(ctx, "e1_u1")
		require.NoError(t, err)
		require.Equal(t, model.RSVPConfirmed, r.Status)
		return nil
	})
	require.NoError(t, err)
}

func TestConcurrentDocumentWriteConflicts(t *testing.T) {
	s := New()
	putUser(t, s, model.User{ID: "u1", TokenBalance: 5})

	err := s.RunTransaction(context.Background(), func(ctx context.Context, tx repository.Tx) error {
		u, err := tx.GetUser(ctx, "u1")
		require.NoError(t, err)

		// A competing transaction commits in between our read and our commit.
		putUser(t, s, model.User{ID: "u1", TokenBalance: 1})

		u.TokenBalance -= 2
		return tx.PutUser(ctx, u)
	})
	require.ErrorIs(t, err, apperr.ErrConflict)

	require.NoError(t, s.View(context.Background(), func(ctx context.Context, tx repository.Tx) error {
		u, err := tx.GetUser(ctx, "u1")
		require.NoError(t, err)
		require.Equal(t, 1, u.TokenBalance)
		return nil
	}))
}

func TestQueryIndexConflict(t *testing.T) {
	s := New()
	ctx := context.Background()

	err := s.RunTransaction(ctx, func(ctx context.Context, tx repository.Tx) error {
		n, err := tx.CountRSVPs(ctx, repository.RSVPFilter{EventID: "e1", Status: model.RSVPConfirmed})
		require.NoError(t, err)
		require.Zero(t, n)

		// Another RSVP for the same event lands first: our count is stale.
		require.NoError(t, s.RunTransaction(ctx, func(ctx context.Context, other repository.Tx) error {
			return other.PutRSVP(ctx, &model.RSVP{ID: "e1_u2", EventID: "e1", UserID: "u2", Status: model.RSVPConfirmed})
		}))

		return tx.PutRSVP(ctx, &model.RSVP{ID: "e1_u1", EventID: "e1", UserID: "u1", Status: model.RSVPConfirmed})
	})
	require.ErrorIs(t, err, apperr.ErrConflict)
}

func TestUnrelatedIndexDoesNotConflict(t *testing.T) {
	s := New()
	ctx := context.Background()

	err := s.RunTransaction(ctx, func(ctx context.Context, tx repository.Tx) error {
		_, err := tx.CountRSVPs(ctx, repository.RSVPFilter{EventID: "e1"})
		require.NoError(t, err)

		require.NoError(t, s.RunTransaction(ctx, func(ctx context.Context, other repository.Tx) error {
			return other.PutRSVP(ctx, &model.RSVP{ID: "e2_u2", EventID: "e2", UserID: "u2", Status: model.RSVPConfirmed})
		}))

		return tx.PutRSVP(ctx, &model.RSVP{ID: "e1_u1", EventID: "e1", UserID: "u1", Status: model.RSVPConfirmed})
	})
	require.NoError(t, err)
}

func TestAppendLedgerRejectsDuplicateID(t *testing.T) {
	s := New()
	ctx := context.Background()
	entry := &model.LedgerEntry{ID: "l1", UserID: "u1", Type: model.Credit, Amount: 3, CreatedAt: time.Now()}

	require.NoError(t, s.RunTransaction(ctx, func(ctx context.Context, tx repository.Tx) error {
		return tx.AppendLedger(ctx, entry)
	}))
	err := s.RunTransaction(ctx, func(ctx context.Context, tx repository.Tx) error {
		return tx.AppendLedger(ctx, entry)
	})
	require.ErrorIs(t, err, apperr.ErrInvalidState)
}

func TestViewRejectsWrites(t *testing.T) {
	s := New()
	err := s.View(context.Background(), func(ctx context.Context, tx repository.Tx) error {
		return tx.PutUser(ctx, &model.User{ID: "u1"})
	})
	require.Error(t, err)
}

func TestListOrderingAndPaging(t *testing.T) {
	s := New()
	ctx := context.Background()
	base := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, s.RunTransaction(ctx, func(ctx context.Context, tx repository.Tx) error {
		for i, id := range []string{"a", "b", "c"} {
			if err := tx.PutNews(ctx, &model.NewsPost{
				ID: id, Slug: id, Status: model.NewsPublished,
				PublishDate: base.Add(time.Duration(i) * time.Hour),
			}); err != nil {
				return err
			}
		}
		return tx.PutNews(ctx, &model.NewsPost{ID: "d", Slug: "d", Status: model.NewsDraft, PublishDate: base})
	}))

	require.NoError(t, s.View(ctx, func(ctx context.Context, tx repository.Tx) error {
		posts, err := tx.ListNews(ctx, repository.NewsFilter{Status: model.NewsPublished, Limit: 2, Offset: 1})
		require.NoError(t, err)
		require.Len(t, posts, 2)
		require.Equal(t, "b", posts[0].ID)
		require.Equal(t, "a", posts[1].ID)

		p, err := tx.GetNewsBySlug(ctx, "d")
		require.NoError(t, err)
		require.Equal(t, model.NewsDraft, p.Status)
		return nil
	}))

	require.NoError(t, s.RunTransaction(ctx, func(ctx context.Context, tx repository.Tx) error {
		return tx.DeleteNews(ctx, "d")
	}))
	require.ErrorIs(t, s.View(ctx, func(ctx context.Context, tx repository.Tx) error {
		_, err := tx.GetNewsBySlug(ctx, "d")
		return err
	}), apperr.ErrNotFound)
}

func TestFailureOnStaleReadIsConflict(t *testing.T) {
	s := New()
	putUser(t, s, model.User{ID: "u1", TokenBalance: 1})

	err := s.RunTransaction(context.Background(), func(ctx context.Context, tx repository.Tx) error {
		u, err := tx.GetUser(ctx, "u1")
		require.NoError(t, err)

		putUser(t, s, model.User{ID: "u1", TokenBalance: 10})

		if u.TokenBalance < 3 {
			return apperr.InsufficientFunds("balance %d", u.TokenBalance)
		}
		return nil
	})
	require.ErrorIs(t, err, apperr.ErrConflict)
}

func TestFailureOnCurrentReadKeepsItsKind(t *testing.T) {
	s := New()
	putUser(t, s, model.User{ID: "u1", TokenBalance: 1})

	err := s.RunTransaction(context.Background(), func(ctx context.Context, tx repository.Tx) error {
		if _, err := tx.GetUser(ctx, "u1"); err != nil {
			return err
		}
		return apperr.InsufficientFunds("not enough")
	})
	require.ErrorIs(t, err, apperr.ErrInsufficientFunds)
}

func TestViewReadsOneSnapshot(t *testing.T) {
	s := New()
	ctx := context.Background()
	putUser(t, s, model.User{ID: "u1", TokenBalance: 5})

	done := make(chan error, 1)
	require.NoError(t, s.View(ctx, func(ctx context.Context, tx repository.Tx) error {
		before, err := tx.GetUser(ctx, "u1")
		require.NoError(t, err)

		go func() {
			done <- s.RunTransaction(ctx, func(ctx context.Context, w repository.Tx) error {
				return w.PutUser(ctx, &model.User{ID: "u1", TokenBalance: 1})
			})
		}()

		select {
		case err := <-done:
			t.Fatalf("commit finished during a view: %v", err)
		case <-time.After(50 * time.Millisecond):
		}

		after, err := tx.GetUser(ctx, "u1")
		require.NoError(t, err)
		require.Equal(t, before.TokenBalance, after.TokenBalance)
		return nil
	}))

	require.NoError(t, <-done)
	require.NoError(t, s.View(ctx, func(ctx context.Context, tx repository.Tx) error {
		u, err := tx.GetUser(ctx, "u1")
		require.NoError(t, err)
		require.Equal(t, 1, u.TokenBalance)
		return nil
	}))
}
