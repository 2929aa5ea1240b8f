package pgstore

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/Shivanand-hulikatti/club-membership/internal/apperr"
	"github.com/Shivanand-hulikatti/club-membership/internal/model"
	"github.com/Shivanand-hulikatti/club-membership/internal/repository"
)

type tx struct {
	q pgx.Tx
}

var _ repository.Tx = (*tx)(nil)

// collect scans every row with scan and closes rows.
func collect[T any](rows pgx.Rows, scan func(pgx.Rows, *T) error) ([]T, error) {
	defer rows.Close()
	out := []T{}
	for rows.Next() {
		var v T
		if err := scan(rows, &v); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// ── Users ────────────────────────────────────────────────────────────────

const userColumns = `id, email, first_name, last_name, phone, role, token_balance, is_active, created_at, updated_at`

func scanUser(row pgx.Row, u *model.User) error {
	return row.Scan(&u.ID, &u.Email, &u.FirstName, &u.LastName, &u.Phone, &u.Role,
		&u.TokenBalance, &u.IsActive, &u.CreatedAt, &u.UpdatedAt)
}

func (t *tx) GetUser(ctx context.Context, id string) (*model.User, error) {
	var u model.User
	err := scanUser(t.q.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id), &u)
	if err != nil {
		return nil, notFound(err, "user %s not found", id)
	}
	return &u, nil
}

func (t *tx) PutUser(ctx context.Context, u *model.User) error {
	_, err := t.q.Exec(ctx,
		`INSERT INTO users (`+userColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		 ON CONFLICT (id) DO UPDATE SET
		   email = EXCLUDED.email, first_name = EXCLUDED.first_name,
		   last_name = EXCLUDED.last_name, phone = EXCLUDED.phone, role = EXCLUDED.role,
		   token_balance = EXCLUDED.token_balance, is_active = EXCLUDED.is_active,
		   updated_at = EXCLUDED.updated_at`,
		u.ID, u.Email, u.FirstName, u.LastName, u.Phone, u.Role, u.TokenBalance, u.IsActive, u.CreatedAt, u.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert user: %w", err)
	}
	return nil
}

func (t *tx) ListUsers(ctx context.Context, f repository.UserFilter) ([]model.User, error) {
	var w where
	if f.Active != nil {
		w.add("is_active = ?", *f.Active)
	}
	sql := `SELECT ` + userColumns + ` FROM users` + w.String() + ` ORDER BY created_at DESC` + w.page(f.Limit, 0)
	rows, err := t.q.Query(ctx, sql, w.args...)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return collect(rows, func(r pgx.Rows, u *model.User) error { return scanUser(r, u) })
}

// ── Events ───────────────────────────────────────────────────────────────

const eventColumns = `id, title, description, category, sport_id, location_id, start_time, end_time,
	capacity, tokens_required, gender_policy, status, is_public, created_at, created_by, updated_at`

func scanEvent(row pgx.Row, e *model.Event) error {
	return row.Scan(&e.ID, &e.Title, &e.Description, &e.Category, &e.SportID, &e.LocationID,
		&e.StartTime, &e.EndTime, &e.Capacity, &e.TokensRequired, &e.GenderPolicy, &e.Status,
		&e.IsPublic, &e.CreatedAt, &e.CreatedBy, &e.UpdatedAt)
}

func (t *tx) GetEvent(ctx context.Context, id string) (*model.Event, error) {
	var e model.Event
	err := scanEvent(t.q.QueryRow(ctx, `SELECT `+eventColumns+` FROM events WHERE id = $1`, id), &e)
	if err != nil {
		return nil, notFound(err, "event %s not found", id)
	}
	return &e, nil
}

func (t *tx) PutEvent(ctx context.Context, e *model.Event) error {
	_, err := t.q.Exec(ctx,
		`INSERT INTO events (`+eventColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		 ON CONFLICT (id) DO UPDATE SET
		   title = EXCLUDED.title, description = EXCLUDED.description,
		   category = EXCLUDED.category, sport_id = EXCLUDED.sport_id,
		   location_id = EXCLUDED.location_id, start_time = EXCLUDED.start_time,
		   end_time = EXCLUDED.end_time, capacity = EXCLUDED.capacity,
		   tokens_required = EXCLUDED.tokens_required, gender_policy = EXCLUDED.gender_policy,
		   status = EXCLUDED.status, is_public = EXCLUDED.is_public,
		   updated_at = EXCLUDED.updated_at`,
		e.ID, e.Title, e.Description, e.Category, e.SportID, e.LocationID, e.StartTime, e.EndTime,
		e.Capacity, e.TokensRequired, e.GenderPolicy, e.Status, e.IsPublic, e.CreatedAt, e.CreatedBy, e.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert event: %w", err)
	}
	return nil
}

func (t *tx) ListEvents(ctx context.Context, f repository.EventFilter) ([]model.Event, error) {
	var w where
	if f.Status != "" {
		w.add("status = ?", f.Status)
	}
	if f.Category != "" {
		w.add("category = ?", f.Category)
	}
	if f.SportID != "" {
		w.add("sport_id = ?", f.SportID)
	}
	if f.GenderPolicy != "" {
		w.add("gender_policy = ?", f.GenderPolicy)
	}
	if f.StartsAfter != nil {
		w.add("start_time > ?", *f.StartsAfter)
	}
	sql := `SELECT ` + eventColumns + ` FROM events` + w.String() + ` ORDER BY start_time ASC, id` + w.page(f.Limit, 0)
	rows, err := t.q.Query(ctx, sql, w.args...)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	return collect(rows, func(r pgx.Rows, e *model.Event) error { return scanEvent(r, e) })
}

// ── RSVPs ────────────────────────────────────────────────────────────────

const rsvpColumns = `id, event_id, user_id, status, waitlist_position, attended, created_at, updated_at`

func scanRSVP(row pgx.Row, r *model.RSVP) error {
	return row.Scan(&r.ID, &r.EventID, &r.UserID, &r.Status, &r.WaitlistPosition, &r.Attended, &r.CreatedAt, &r.UpdatedAt)
}

func (t *tx) GetRSVP(ctx context.Context, id string) (*model.RSVP, error) {
	var r model.RSVP
	err := scanRSVP(t.q.QueryRow(ctx, `SELECT `+rsvpColumns+` FROM event_rsvps WHERE id = $1`, id), &r)
	if err != nil {
		return nil, notFound(err, "rsvp %s not found", id)
	}
	return &r, nil
}

func (t *tx) PutRSVP(ctx context.Context, r *model.RSVP) error {
	_, err := t.q.Exec(ctx,
		`INSERT INTO event_rsvps (`+rsvpColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 ON CONFLICT (id) DO UPDATE SET
		   status = EXCLUDED.status, waitlist_position = EXCLUDED.waitlist_position,
		   attended = EXCLUDED.attended, created_at = EXCLUDED.created_at,
		   updated_at = EXCLUDED.updated_at`,
		r.ID, r.EventID, r.UserID, r.Status, r.WaitlistPosition, r.Attended, r.CreatedAt, r.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert rsvp: %w", err)
	}
	return nil
}

func rsvpWhere(f repository.RSVPFilter) *where {
	w := &where{}
	if f.EventID != "" {
		w.add("event_id = ?", f.EventID)
	}
	if f.UserID != "" {
		w.add("user_id = ?", f.UserID)
	}
	if f.Status != "" {
		w.add("status = ?", f.Status)
	}
	return w
}

func (t *tx) ListRSVPs(ctx context.Context, f repository.RSVPFilter) ([]model.RSVP, error) {
	w := rsvpWhere(f)
	sql := `SELECT ` + rsvpColumns + ` FROM event_rsvps` + w.String() + ` ORDER BY created_at DESC, id` + w.page(f.Limit, 0)
	rows, err := t.q.Query(ctx, sql, w.args...)
	if err != nil {
		return nil, fmt.Errorf("list rsvps: %w", err)
	}
	return collect(rows, func(r pgx.Rows, v *model.RSVP) error { return scanRSVP(r, v) })
}

func (t *tx) CountRSVPs(ctx context.Context, f repository.RSVPFilter) (int, error) {
	w := rsvpWhere(f)
	var n int
	if err := t.q.QueryRow(ctx, `SELECT COUNT(*) FROM event_rsvps`+w.String(), w.args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count rsvps: %w", err)
	}
	return n, nil
}

// ── Ledger ───────────────────────────────────────────────────────────────

const ledgerColumns = `id, user_id, type, amount, description, event_id, created_at`

func (t *tx) AppendLedger(ctx context.Context, e *model.LedgerEntry) error {
	_, err := t.q.Exec(ctx,
		`INSERT INTO token_transactions (`+ledgerColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		e.ID, e.UserID, e.Type, e.Amount, e.Description, e.EventID, e.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert ledger entry: %w", err)
	}
	return nil
}

func (t *tx) ListLedger(ctx context.Context, f repository.LedgerFilter) ([]model.LedgerEntry, error) {
	var w where
	if f.UserID != "" {
		w.add("user_id = ?", f.UserID)
	}
	sql := `SELECT ` + ledgerColumns + ` FROM token_transactions` + w.String() + ` ORDER BY created_at DESC, id` + w.page(f.Limit, 0)
	rows, err := t.q.Query(ctx, sql, w.args...)
	if err != nil {
		return nil, fmt.Errorf("list ledger: %w", err)
	}
	return collect(rows, func(r pgx.Rows, e *model.LedgerEntry) error {
		return r.Scan(&e.ID, &e.UserID, &e.Type, &e.Amount, &e.Description, &e.EventID, &e.CreatedAt)
	})
}

// ── Purchases & packages ─────────────────────────────────────────────────

// Money columns are NUMERIC and cross the wire as text so no precision is
// lost on the way into decimal.Decimal.
const purchaseColumns = `id, user_id, package_id, tokens, amount::text, status, created_at, updated_at`

func scanPurchase(row pgx.Row, p *model.Purchase) error {
	var amount string
	if err := row.Scan(&p.ID, &p.UserID, &p.PackageID, &p.Tokens, &amount, &p.Status, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return err
	}
	return parseMoney(amount, &p.Amount)
}

func parseMoney(s string, dst *decimal.Decimal) error {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return fmt.Errorf("parse amount %q: %w", s, err)
	}
	*dst = d
	return nil
}

func (t *tx) GetPurchase(ctx context.Context, id string) (*model.Purchase, error) {
	var p model.Purchase
	err := scanPurchase(t.q.QueryRow(ctx, `SELECT `+purchaseColumns+` FROM purchases WHERE id = $1`, id), &p)
	if err != nil {
		return nil, notFound(err, "purchase %s not found", id)
	}
	return &p, nil
}

func (t *tx) PutPurchase(ctx context.Context, p *model.Purchase) error {
	_, err := t.q.Exec(ctx,
		`INSERT INTO purchases (id, user_id, package_id, tokens, amount, status, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, CAST($5 AS TEXT)::NUMERIC, $6, $7, $8)
		 ON CONFLICT (id) DO UPDATE SET
		   status = EXCLUDED.status, updated_at = EXCLUDED.updated_at`,
		p.ID, p.UserID, p.PackageID, p.Tokens, p.Amount.String(), p.Status, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert purchase: %w", err)
	}
	return nil
}

func (t *tx) ListPurchases(ctx context.Context, f repository.PurchaseFilter) ([]model.Purchase, error) {
	var w where
	if f.UserID != "" {
		w.add("user_id = ?", f.UserID)
	}
	if f.Status != "" {
		w.add("status = ?", f.Status)
	}
	sql := `SELECT ` + purchaseColumns + ` FROM purchases` + w.String() + ` ORDER BY created_at DESC, id` + w.page(f.Limit, 0)
	rows, err := t.q.Query(ctx, sql, w.args...)
	if err != nil {
		return nil, fmt.Errorf("list purchases: %w", err)
	}
	return collect(rows, func(r pgx.Rows, p *model.Purchase) error { return scanPurchase(r, p) })
}

const packageColumns = `id, name, tokens, price::text, is_active`

func scanPackage(row pgx.Row, p *model.TokenPackage) error {
	var price string
	if err := row.Scan(&p.ID, &p.Name, &p.Tokens, &price, &p.IsActive); err != nil {
		return err
	}
	return parseMoney(price, &p.Price)
}

func (t *tx) GetPackage(ctx context.Context, id string) (*model.TokenPackage, error) {
	var p model.TokenPackage
	err := scanPackage(t.q.QueryRow(ctx, `SELECT `+packageColumns+` FROM token_packages WHERE id = $1`, id), &p)
	if err != nil {
		return nil, notFound(err, "token package %s not found", id)
	}
	return &p, nil
}

func (t *tx) PutPackage(ctx context.Context, p *model.TokenPackage) error {
	_, err := t.q.Exec(ctx,
		`INSERT INTO token_packages (id, name, tokens, price, is_active)
		 VALUES ($1, $2, $3, CAST($4 AS TEXT)::NUMERIC, $5)
		 ON CONFLICT (id) DO UPDATE SET
		   name = EXCLUDED.name, tokens = EXCLUDED.tokens,
		   price = EXCLUDED.price, is_active = EXCLUDED.is_active`,
		p.ID, p.Name, p.Tokens, p.Price.String(), p.IsActive,
	)
	if err != nil {
		return fmt.Errorf("upsert token package: %w", err)
	}
	return nil
}

func (t *tx) ListPackages(ctx context.Context, activeOnly bool) ([]model.TokenPackage, error) {
	var w where
	if activeOnly {
		w.add("is_active = ?", true)
	}
	rows, err := t.q.Query(ctx, `SELECT `+packageColumns+` FROM token_packages`+w.String()+` ORDER BY tokens ASC, id`, w.args...)
	if err != nil {
		return nil, fmt.Errorf("list token packages: %w", err)
	}
	return collect(rows, func(r pgx.Rows, p *model.TokenPackage) error { return scanPackage(r, p) })
}

// ── Audit ────────────────────────────────────────────────────────────────

func (t *tx) AppendAudit(ctx context.Context, a *model.AuditEntry) error {
	_, err := t.q.Exec(ctx,
		`INSERT INTO audit_log (id, actor_id, action, entity_type, entity_id, details, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		a.ID, a.ActorID, a.Action, a.EntityType, a.EntityID, a.Details, a.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert audit entry: %w", err)
	}
	return nil
}

func (t *tx) ListAudit(ctx context.Context, limit int) ([]model.AuditEntry, error) {
	var w where
	sql := `SELECT id, actor_id, action, entity_type, entity_id, details, created_at
		 FROM audit_log ORDER BY created_at DESC, id` + w.page(limit, 0)
	rows, err := t.q.Query(ctx, sql, w.args...)
	if err != nil {
		return nil, fmt.Errorf("list audit log: %w", err)
	}
	return collect(rows, func(r pgx.Rows, a *model.AuditEntry) error {
		return r.Scan(&a.ID, &a.ActorID, &a.Action, &a.EntityType, &a.EntityID, &a.Details, &a.CreatedAt)
	})
}

// ── News & contact ───────────────────────────────────────────────────────

const newsColumns = `id, title, slug, excerpt, content, author, publish_date, status, created_at, updated_at`

func scanNews(row pgx.Row, n *model.NewsPost) error {
	return row.Scan(&n.ID, &n.Title, &n.Slug, &n.Excerpt, &n.Content, &n.Author, &n.PublishDate, &n.Status, &n.CreatedAt, &n.UpdatedAt)
}

func (t *tx) GetNews(ctx context.Context, id string) (*model.NewsPost, error) {
	var n model.NewsPost
	err := scanNews(t.q.QueryRow(ctx, `SELECT `+newsColumns+` FROM news_posts WHERE id = $1`, id), &n)
	if err != nil {
		return nil, notFound(err, "news post %s not found", id)
	}
	return &n, nil
}

func (t *tx) GetNewsBySlug(ctx context.Context, slug string) (*model.NewsPost, error) {
	var n model.NewsPost
	err := scanNews(t.q.QueryRow(ctx, `SELECT `+newsColumns+` FROM news_posts WHERE slug = $1`, slug), &n)
	if err != nil {
		return nil, notFound(err, "news post %q not found", slug)
	}
	return &n, nil
}

func (t *tx) PutNews(ctx context.Context, n *model.NewsPost) error {
	_, err := t.q.Exec(ctx,
		`INSERT INTO news_posts (`+newsColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		 ON CONFLICT (id) DO UPDATE SET
		   title = EXCLUDED.title, slug = EXCLUDED.slug, excerpt = EXCLUDED.excerpt,
		   content = EXCLUDED.content, author = EXCLUDED.author,
		   publish_date = EXCLUDED.publish_date, status = EXCLUDED.status,
		   updated_at = EXCLUDED.updated_at`,
		n.ID, n.Title, n.Slug, n.Excerpt, n.Content, n.Author, n.PublishDate, n.Status, n.CreatedAt, n.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert news post: %w", err)
	}
	return nil
}

func (t *tx) DeleteNews(ctx context.Context, id string) error {
	tag, err := t.q.Exec(ctx, `DELETE FROM news_posts WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete news post: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("news post %s not found", id)
	}
	return nil
}

func (t *tx) ListNews(ctx context.Context, f repository.NewsFilter) ([]model.NewsPost, error) {
	var w where
	if f.Status != "" {
		w.add("status = ?", f.Status)
	}
	sql := `SELECT ` + newsColumns + ` FROM news_posts` + w.String() + ` ORDER BY publish_date DESC, id` + w.page(f.Limit, f.Offset)
	rows, err := t.q.Query(ctx, sql, w.args...)
	if err != nil {
		return nil, fmt.Errorf("list news: %w", err)
	}
	return collect(rows, func(r pgx.Rows, n *model.NewsPost) error { return scanNews(r, n) })
}

func (t *tx) AddContactMessage(ctx context.Context, m *model.ContactMessage) error {
	_, err := t.q.Exec(ctx,
		`INSERT INTO contact_messages (id, name, email, subject, message, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		m.ID, m.Name, m.Email, m.Subject, m.Message, m.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert contact message: %w", err)
	}
	return nil
}
