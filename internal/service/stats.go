package service

import (
	"context"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/Shivanand-hulikatti/club-membership/internal/model"
	"github.com/Shivanand-hulikatti/club-membership/internal/repository"
)

// StatsService computes dashboard counters. Each counter is read in its own
// view, concurrently, so the figures are individually but not jointly
// consistent.
type StatsService struct {
	store repository.Store
	now   Clock
}

// NewStatsService constructs a StatsService.
func NewStatsService(store repository.Store, now Clock) *StatsService {
	return &StatsService{store: store, now: clockOrDefault(now)}
}

// Admin returns the admin dashboard counters.
func (s *StatsService) Admin(ctx context.Context) (*model.AdminStats, error) {
	var st model.AdminStats
	now := s.now()
	active := true

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return s.store.View(ctx, func(ctx context.Context, tx repository.Tx) error {
			events, err := tx.ListEvents(ctx, repository.EventFilter{})
			st.TotalEvents = len(events)
			return err
		})
	})
	g.Go(func() error {
		return s.store.View(ctx, func(ctx context.Context, tx repository.Tx) error {
			events, err := tx.ListEvents(ctx, repository.EventFilter{Status: model.EventPublished, StartsAfter: &now})
			st.UpcomingEvents = len(events)
			return err
		})
	})
	g.Go(func() error {
		return s.store.View(ctx, func(ctx context.Context, tx repository.Tx) error {
			n, err := tx.CountRSVPs(ctx, repository.RSVPFilter{Status: model.RSVPConfirmed})
			st.TotalRSVPs = n
			return err
		})
	})
	g.Go(func() error {
		return s.store.View(ctx, func(ctx context.Context, tx repository.Tx) error {
			users, err := tx.ListUsers(ctx, repository.UserFilter{Active: &active})
			st.ActiveMembers = len(users)
			return err
		})
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &st, nil
}

// SuperAdmin returns user and purchase counters, with revenue summed over
// completed purchases.
func (s *StatsService) SuperAdmin(ctx context.Context) (*model.SuperAdminStats, error) {
	var (
		st        model.SuperAdminStats
		purchases []model.Purchase
	)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return s.store.View(ctx, func(ctx context.Context, tx repository.Tx) error {
			users, err := tx.ListUsers(ctx, repository.UserFilter{})
			if err != nil {
				return err
			}
			st.TotalUsers = len(users)
			for i := range users {
				if users[i].IsActive {
					st.ActiveUsers++
				}
			}
			return nil
		})
	})
	g.Go(func() error {
		return s.store.View(ctx, func(ctx context.Context, tx repository.Tx) error {
			var err error
			purchases, err = tx.ListPurchases(ctx, repository.PurchaseFilter{})
			return err
		})
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	revenue := decimal.Zero
	st.TotalPurchases = len(purchases)
	for i := range purchases {
		switch purchases[i].Status {
		case model.PurchasePending:
			st.PendingPurchases++
		case model.PurchaseCompleted:
			st.CompletedPurchases++
			revenue = revenue.Add(purchases[i].Amount)
		}
	}
	st.TotalRevenue = revenue.StringFixed(2)
	return &st, nil
}
