package memstore

import (
	"context"
	"sort"

	"github.com/Shivanand-hulikatti/club-membership/internal/apperr"
	"github.com/Shivanand-hulikatti/club-membership/internal/model"
	"github.com/Shivanand-hulikatti/club-membership/internal/repository"
)

var _ repository.Tx = (*tx)(nil)

// ─── Users ────────────────────────────────────────────────────────────────────

func (t *tx) GetUser(_ context.Context, id string) (*model.User, error) {
	var u model.User
	ok, err := t.get(repository.CollUsers, id, &u)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperr.NotFound("user %s not found", id)
	}
	return &u, nil
}

func (t *tx) PutUser(_ context.Context, u *model.User) error {
	return t.put(repository.CollUsers, u.ID, u)
}

func (t *tx) ListUsers(_ context.Context, f repository.UserFilter) ([]model.User, error) {
	users, err := scan[model.User](t, repository.CollUsers, "")
	if err != nil {
		return nil, err
	}
	users = filter(users, func(u *model.User) bool {
		return f.Active == nil || u.IsActive == *f.Active
	})
	sort.SliceStable(users, func(i, j int) bool { return users[i].CreatedAt.After(users[j].CreatedAt) })
	return limit(users, f.Limit), nil
}

// ─── Events ───────────────────────────────────────────────────────────────────

func (t *tx) GetEvent(_ context.Context, id string) (*model.Event, error) {
	var e model.Event
	ok, err := t.get(repository.CollEvents, id, &e)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperr.NotFound("event %s not found", id)
	}
	return &e, nil
}

func (t *tx) PutEvent(_ context.Context, e *model.Event) error {
	return t.put(repository.CollEvents, e.ID, e)
}

func (t *tx) ListEvents(_ context.Context, f repository.EventFilter) ([]model.Event, error) {
	events, err := scan[model.Event](t, repository.CollEvents, "")
	if err != nil {
		return nil, err
	}
	events = filter(events, func(e *model.Event) bool {
		switch {
		case f.Status != "" && e.Status != f.Status:
			return false
		case f.Category != "" && e.Category != f.Category:
			return false
		case f.SportID != "" && e.SportID != f.SportID:
			return false
		case f.GenderPolicy != "" && e.GenderPolicy != f.GenderPolicy:
			return false
		case f.StartsAfter != nil && !e.StartTime.After(*f.StartsAfter):
			return false
		}
		return true
	})
	sort.SliceStable(events, func(i, j int) bool { return events[i].StartTime.Before(events[j].StartTime) })
	return limit(events, f.Limit), nil
}

// ─── RSVPs ────────────────────────────────────────────────────────────────────

func rsvpIndexes(r *model.RSVP) []string {
	return []string{
		indexKey(repository.CollRSVPs, "eventId", r.EventID),
		indexKey(repository.CollRSVPs, "userId", r.UserID),
	}
}

func (t *tx) GetRSVP(_ context.Context, id string) (*model.RSVP, error) {
	var r model.RSVP
	ok, err := t.get(repository.CollRSVPs, id, &r)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperr.NotFound("rsvp %s not found", id)
	}
	return &r, nil
}

func (t *tx) PutRSVP(_ context.Context, r *model.RSVP) error {
	return t.put(repository.CollRSVPs, r.ID, r, rsvpIndexes(r)...)
}

func (t *tx) ListRSVPs(_ context.Context, f repository.RSVPFilter) ([]model.RSVP, error) {
	index := ""
	switch {
	case f.EventID != "":
		index = indexKey(repository.CollRSVPs, "eventId", f.EventID)
	case f.UserID != "":
		index = indexKey(repository.CollRSVPs, "userId", f.UserID)
	}
	rsvps, err := scan[model.RSVP](t, repository.CollRSVPs, index)
	if err != nil {
		return nil, err
	}
	rsvps = filter(rsvps, func(r *model.RSVP) bool {
		switch {
		case f.EventID != "" && r.EventID != f.EventID:
			return false
		case f.UserID != "" && r.UserID != f.UserID:
			return false
		case f.Status != "" && r.Status != f.Status:
			return false
		}
		return true
	})
	sort.SliceStable(rsvps, func(i, j int) bool { return rsvps[i].CreatedAt.After(rsvps[j].CreatedAt) })
	return limit(rsvps, f.Limit), nil
}

func (t *tx) CountRSVPs(ctx context.Context, f repository.RSVPFilter) (int, error) {
	f.Limit = 0
	rsvps, err := t.ListRSVPs(ctx, f)
	if err != nil {
		return 0, err
	}
	return len(rsvps), nil
}

// ─── Ledger ───────────────────────────────────────────────────────────────────

func (t *tx) AppendLedger(_ context.Context, e *model.LedgerEntry) error {
	return t.create(repository.CollLedger, e.ID, e,
		indexKey(repository.CollLedger, "userId", e.UserID))
}

func (t *tx) ListLedger(_ context.Context, f repository.LedgerFilter) ([]model.LedgerEntry, error) {
	index := ""
	if f.UserID != "" {
		index = indexKey(repository.CollLedger, "userId", f.UserID)
	}
	entries, err := scan[model.LedgerEntry](t, repository.CollLedger, index)
	if err != nil {
		return nil, err
	}
	entries = filter(entries, func(e *model.LedgerEntry) bool {
		return f.UserID == "" || e.UserID == f.UserID
	})
	sort.SliceStable(entries, func(i, j int) bool { return entries[i].CreatedAt.After(entries[j].CreatedAt) })
	return limit(entries, f.Limit), nil
}

// ─── Purchases & packages ─────────────────────────────────────────────────────

func (t *tx) GetPurchase(_ context.Context, id string) (*model.Purchase, error) {
	var p model.Purchase
	ok, err := t.get(repository.CollPurchases, id, &p)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperr.NotFound("purchase %s not found", id)
	}
	return &p, nil
}

func (t *tx) PutPurchase(_ context.Context, p *model.Purchase) error {
	return t.put(repository.CollPurchases, p.ID, p)
}

func (t *tx) ListPurchases(_ context.Context, f repository.PurchaseFilter) ([]model.Purchase, error) {
	purchases, err := scan[model.Purchase](t, repository.CollPurchases, "")
	if err != nil {
		return nil, err
	}
	purchases = filter(purchases, func(p *model.Purchase) bool {
		switch {
		case f.UserID != "" && p.UserID != f.UserID:
			return false
		case f.Status != "" && p.Status != f.Status:
			return false
		}
		return true
	})
	sort.SliceStable(purchases, func(i, j int) bool { return purchases[i].CreatedAt.After(purchases[j].CreatedAt) })
	return limit(purchases, f.Limit), nil
}

func (t *tx) GetPackage(_ context.Context, id string) (*model.TokenPackage, error) {
	var p model.TokenPackage
	ok, err := t.get(repository.CollPackages, id, &p)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperr.NotFound("token package %s not found", id)
	}
	return &p, nil
}

func (t *tx) PutPackage(_ context.Context, p *model.TokenPackage) error {
	return t.put(repository.CollPackages, p.ID, p)
}

func (t *tx) ListPackages(_ context.Context, activeOnly bool) ([]model.TokenPackage, error) {
	pkgs, err := scan[model.TokenPackage](t, repository.CollPackages, "")
	if err != nil {
		return nil, err
	}
	pkgs = filter(pkgs, func(p *model.TokenPackage) bool { return !activeOnly || p.IsActive })
	sort.SliceStable(pkgs, func(i, j int) bool { return pkgs[i].Tokens < pkgs[j].Tokens })
	return pkgs, nil
}

// ─── Audit ────────────────────────────────────────────────────────────────────

func (t *tx) AppendAudit(_ context.Context, a *model.AuditEntry) error {
	return t.create(repository.CollAudit, a.ID, a)
}

func (t *tx) ListAudit(_ context.Context, n int) ([]model.AuditEntry, error) {
	entries, err := scan[model.AuditEntry](t, repository.CollAudit, "")
	if err != nil {
		return nil, err
	}
	sort.SliceStable(entries, func(i, j int) bool { return entries[i].CreatedAt.After(entries[j].CreatedAt) })
	return limit(entries, n), nil
}

// ─── News & contact ───────────────────────────────────────────────────────────

func (t *tx) GetNews(_ context.Context, id string) (*model.NewsPost, error) {
	var n model.NewsPost
	ok, err := t.get(repository.CollNews, id, &n)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperr.NotFound("news post %s not found", id)
	}
	return &n, nil
}

func (t *tx) GetNewsBySlug(_ context.Context, slug string) (*model.NewsPost, error) {
	posts, err := scan[model.NewsPost](t, repository.CollNews, "")
	if err != nil {
		return nil, err
	}
	for i := range posts {
		if posts[i].Slug == slug {
			return &posts[i], nil
		}
	}
	return nil, apperr.NotFound("news post %q not found", slug)
}

func (t *tx) PutNews(_ context.Context, n *model.NewsPost) error {
	return t.put(repository.CollNews, n.ID, n)
}

func (t *tx) DeleteNews(ctx context.Context, id string) error {
	if _, err := t.GetNews(ctx, id); err != nil {
		return err
	}
	return t.remove(repository.CollNews, id)
}

func (t *tx) ListNews(_ context.Context, f repository.NewsFilter) ([]model.NewsPost, error) {
	posts, err := scan[model.NewsPost](t, repository.CollNews, "")
	if err != nil {
		return nil, err
	}
	posts = filter(posts, func(n *model.NewsPost) bool { return f.Status == "" || n.Status == f.Status })
	sort.SliceStable(posts, func(i, j int) bool { return posts[i].PublishDate.After(posts[j].PublishDate) })
	if f.Offset > 0 {
		if f.Offset >= len(posts) {
			return []model.NewsPost{}, nil
		}
		posts = posts[f.Offset:]
	}
	return limit(posts, f.Limit), nil
}

func (t *tx) AddContactMessage(_ context.Context, m *model.ContactMessage) error {
	return t.create(repository.CollContactMessages, m.ID, m)
}
