package service

import (
	"context"
	"strconv"
	"strings"

	"github.com/Shivanand-hulikatti/club-membership/internal/apperr"
	"github.com/Shivanand-hulikatti/club-membership/internal/model"
	"github.com/Shivanand-hulikatti/club-membership/internal/repository"
)

// PurchaseService records token purchases and fulfils them.
//
// Purchases are created PENDING and reconciled by hand. The move from
// PENDING to COMPLETED is the only transition that touches the ledger; every
// other status change is bookkeeping. A purchase never returns to PENDING,
// which keeps a completed purchase from being credited twice.
type PurchaseService struct {
	store repository.Store
	now   Clock
}

// NewPurchaseService constructs a PurchaseService.
func NewPurchaseService(store repository.Store, now Clock) *PurchaseService {
	return &PurchaseService{store: store, now: clockOrDefault(now)}
}

// Packages lists token packages; members only see active ones.
func (s *PurchaseService) Packages(ctx context.Context, activeOnly bool) ([]model.TokenPackage, error) {
	var pkgs []model.TokenPackage
	err := s.store.View(ctx, func(ctx context.Context, tx repository.Tx) error {
		var err error
		pkgs, err = tx.ListPackages(ctx, activeOnly)
		return err
	})
	if pkgs == nil {
		pkgs = []model.TokenPackage{}
	}
	return pkgs, err
}

// Create records a PENDING purchase of packageID. Tokens and price come from
// the package, never from the client.
func (s *PurchaseService) Create(ctx context.Context, userID string, req model.PurchaseRequest) (*model.Purchase, error) {
	packageID := strings.TrimSpace(req.PackageID)
	if packageID == "" {
		return nil, apperr.Validation("packageId is required")
	}

	var purchase *model.Purchase
	err := s.store.RunTransaction(ctx, func(ctx context.Context, tx repository.Tx) error {
		pkg, err := tx.GetPackage(ctx, packageID)
		if err != nil {
			return err
		}
		if !pkg.IsActive {
			return apperr.InvalidState("token package is not available")
		}
		now := s.now()
		purchase = &model.Purchase{
			ID:        newID(),
			UserID:    userID,
			PackageID: pkg.ID,
			Tokens:    pkg.Tokens,
			Amount:    pkg.Price,
			Status:    model.PurchasePending,
			CreatedAt: now,
			UpdatedAt: now,
		}
		return tx.PutPurchase(ctx, purchase)
	})
	if err != nil {
		return nil, err
	}
	return purchase, nil
}

// ListForUser returns a member's purchases, newest first.
func (s *PurchaseService) ListForUser(ctx context.Context, userID string) ([]model.Purchase, error) {
	return s.list(ctx, repository.PurchaseFilter{UserID: userID, Limit: 100})
}

// List returns all purchases, optionally filtered by status.
func (s *PurchaseService) List(ctx context.Context, status model.PurchaseStatus, limit int) ([]model.Purchase, error) {
	if status != "" && !status.Valid() {
		return nil, apperr.Validation("invalid status %q", status)
	}
	return s.list(ctx, repository.PurchaseFilter{Status: status, Limit: clampLimit(limit, 100, 500)})
}

func (s *PurchaseService) list(ctx context.Context, f repository.PurchaseFilter) ([]model.Purchase, error) {
	purchases := []model.Purchase{}
	err := s.store.View(ctx, func(ctx context.Context, tx repository.Tx) error {
		var err error
		purchases, err = tx.ListPurchases(ctx, f)
		return err
	})
	return purchases, err
}

// UpdateStatus moves a purchase to status on behalf of a super-admin.
// PENDING → COMPLETED credits the purchased tokens in the same transaction.
// Setting the current status again is a no-op.
func (s *PurchaseService) UpdateStatus(ctx context.Context, actorID string, req model.UpdatePurchaseRequest) (*model.Purchase, error) {
	purchaseID := strings.TrimSpace(req.PurchaseID)
	if purchaseID == "" || !req.Status.Valid() {
		return nil, apperr.Validation("purchaseId and valid status required")
	}

	var purchase *model.Purchase
	err := s.store.RunTransaction(ctx, func(ctx context.Context, tx repository.Tx) error {
		now := s.now()

		p, err := tx.GetPurchase(ctx, purchaseID)
		if err != nil {
			return err
		}
		purchase = p
		prior := p.Status
		if prior == req.Status {
			return nil
		}
		if req.Status == model.PurchasePending {
			return apperr.InvalidState("purchase cannot return to PENDING from %s", prior)
		}

		p.Status = req.Status
		p.UpdatedAt = now
		if err := tx.PutPurchase(ctx, p); err != nil {
			return err
		}

		if prior == model.PurchasePending && req.Status == model.PurchaseCompleted {
			if p.Tokens > 0 {
				if _, err := credit(ctx, tx, p.UserID, p.Tokens, "Purchase "+p.ID+" completed", nil, now); err != nil {
					return err
				}
			}
			return audit(ctx, tx, actorID, model.AuditPurchaseCompleted, "PURCHASE", p.ID, map[string]string{
				"tokens": strconv.Itoa(p.Tokens),
				"userId": p.UserID,
			}, now)
		}
		return audit(ctx, tx, actorID, model.AuditPurchaseStatus, "PURCHASE", p.ID, map[string]string{
			"from": string(prior),
			"to":   string(req.Status),
		}, now)
	})
	if err != nil {
		return nil, err
	}
	return purchase, nil
}

// Complete fulfils a pending purchase. Completing it again does nothing.
func (s *PurchaseService) Complete(ctx context.Context, actorID, purchaseID string) (*model.Purchase, error) {
	return s.UpdateStatus(ctx, actorID, model.UpdatePurchaseRequest{PurchaseID: purchaseID, Status: model.PurchaseCompleted})
}

// SeedPackages upserts the given packages. Used at startup for demo data.
func (s *PurchaseService) SeedPackages(ctx context.Context, pkgs []model.TokenPackage) error {
	return s.store.RunTransaction(ctx, func(ctx context.Context, tx repository.Tx) error {
		for i := range pkgs {
			if err := tx.PutPackage(ctx, &pkgs[i]); err != nil {
				return err
			}
		}
		return nil
	})
}
