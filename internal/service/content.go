package service

import (
	"context"
	"regexp"
	"strconv"
	"strings"

	"github.com/Shivanand-hulikatti/club-membership/internal/apperr"
	"github.com/Shivanand-hulikatti/club-membership/internal/model"
	"github.com/Shivanand-hulikatti/club-membership/internal/repository"
)

var nonSlugChars = regexp.MustCompile(`[^a-z0-9]+`)

// slugify lowercases s and collapses everything that is not a letter or
// digit into single hyphens.
func slugify(s string) string {
	s = nonSlugChars.ReplaceAllString(strings.ToLower(s), "-")
	return strings.Trim(s, "-")
}

// ContentService manages news posts and contact form submissions.
type ContentService struct {
	store repository.Store
	now   Clock
}

// NewContentService constructs a ContentService.
func NewContentService(store repository.Store, now Clock) *ContentService {
	return &ContentService{store: store, now: clockOrDefault(now)}
}

// PublishedNews lists published posts, newest first.
func (s *ContentService) PublishedNews(ctx context.Context, limit, offset int) ([]model.NewsPost, error) {
	return s.listNews(ctx, repository.NewsFilter{
		Status: model.NewsPublished,
		Limit:  clampLimit(limit, 10, 50),
		Offset: max(offset, 0),
	})
}

// AllNews lists posts of every status for the admin panel.
func (s *ContentService) AllNews(ctx context.Context, limit int) ([]model.NewsPost, error) {
	return s.listNews(ctx, repository.NewsFilter{Limit: clampLimit(limit, 100, 500)})
}

func (s *ContentService) listNews(ctx context.Context, f repository.NewsFilter) ([]model.NewsPost, error) {
	posts := []model.NewsPost{}
	err := s.store.View(ctx, func(ctx context.Context, tx repository.Tx) error {
		var err error
		posts, err = tx.ListNews(ctx, f)
		return err
	})
	return posts, err
}

// NewsBySlug returns a published post. Drafts are NotFound.
func (s *ContentService) NewsBySlug(ctx context.Context, slug string) (*model.NewsPost, error) {
	var post *model.NewsPost
	err := s.store.View(ctx, func(ctx context.Context, tx repository.Tx) error {
		var err error
		post, err = tx.GetNewsBySlug(ctx, slug)
		return err
	})
	if err != nil {
		return nil, err
	}
	if post.Status != model.NewsPublished {
		return nil, apperr.NotFound("news post %q not found", slug)
	}
	return post, nil
}

// CreateNews adds a post. A slug is derived from the title when none is given
// and suffixed with a counter until it is unique.
func (s *ContentService) CreateNews(ctx context.Context, req model.NewsRequest) (*model.NewsPost, error) {
	post := &model.NewsPost{ID: newID()}
	if err := applyNews(post, req); err != nil {
		return nil, err
	}

	err := s.store.RunTransaction(ctx, func(ctx context.Context, tx repository.Tx) error {
		slug, err := uniqueSlug(ctx, tx, post.Slug, post.ID)
		if err != nil {
			return err
		}
		now := s.now()
		post.Slug = slug
		post.CreatedAt = now
		post.UpdatedAt = now
		return tx.PutNews(ctx, post)
	})
	if err != nil {
		return nil, err
	}
	return post, nil
}

// UpdateNews replaces the editable fields of a post.
func (s *ContentService) UpdateNews(ctx context.Context, id string, req model.NewsRequest) (*model.NewsPost, error) {
	var post *model.NewsPost
	err := s.store.RunTransaction(ctx, func(ctx context.Context, tx repository.Tx) error {
		p, err := tx.GetNews(ctx, id)
		if err != nil {
			return err
		}
		if err := applyNews(p, req); err != nil {
			return err
		}
		if p.Slug, err = uniqueSlug(ctx, tx, p.Slug, p.ID); err != nil {
			return err
		}
		p.UpdatedAt = s.now()
		post = p
		return tx.PutNews(ctx, p)
	})
	if err != nil {
		return nil, err
	}
	return post, nil
}

// DeleteNews removes a post.
func (s *ContentService) DeleteNews(ctx context.Context, id string) error {
	return s.store.RunTransaction(ctx, func(ctx context.Context, tx repository.Tx) error {
		return tx.DeleteNews(ctx, id)
	})
}

// SubmitContact stores a contact form message.
func (s *ContentService) SubmitContact(ctx context.Context, req model.ContactRequest) (*model.ContactMessage, error) {
	name, err := requireLen("name", req.Name, 1, 200)
	if err != nil {
		return nil, err
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if !isValidEmail(email) {
		return nil, apperr.Validation("email is not a valid email address")
	}
	subject, err := requireLen("subject", req.Subject, 1, 200)
	if err != nil {
		return nil, err
	}
	message, err := requireLen("message", req.Message, 10, 5000)
	if err != nil {
		return nil, err
	}

	msg := &model.ContactMessage{
		ID:      newID(),
		Name:    name,
		Email:   email,
		Subject: subject,
		Message: message,
	}
	err = s.store.RunTransaction(ctx, func(ctx context.Context, tx repository.Tx) error {
		msg.CreatedAt = s.now()
		return tx.AddContactMessage(ctx, msg)
	})
	if err != nil {
		return nil, err
	}
	return msg, nil
}

func applyNews(p *model.NewsPost, req model.NewsRequest) error {
	title, err := requireLen("title", req.Title, 1, 200)
	if err != nil {
		return err
	}
	content, err := requireLen("content", req.Content, 1, 50000)
	if err != nil {
		return err
	}
	if req.PublishDate.IsZero() {
		return apperr.Validation("publishDate is required")
	}
	status := req.Status
	if status == "" {
		status = model.NewsDraft
	}
	if status != model.NewsDraft && status != model.NewsPublished {
		return apperr.Validation("status is invalid")
	}
	slug := slugify(req.Slug)
	if slug == "" {
		slug = slugify(title)
	}
	if slug == "" {
		return apperr.Validation("slug is required")
	}

	p.Title = title
	p.Slug = slug
	p.Content = content
	p.Excerpt = trimmedOrNil(req.Excerpt)
	p.Author = trimmedOrNil(req.Author)
	p.PublishDate = req.PublishDate.UTC()
	p.Status = status
	return nil
}

// uniqueSlug returns base, or base-2, base-3, ... if another post owns it.
func uniqueSlug(ctx context.Context, tx repository.Tx, base, ownerID string) (string, error) {
	slug := base
	for n := 2; ; n++ {
		existing, err := tx.GetNewsBySlug(ctx, slug)
		if isNotFound(err) {
			return slug, nil
		}
		if err != nil {
			return "", err
		}
		if existing.ID == ownerID {
			return slug, nil
		}
		slug = base + "-" + strconv.Itoa(n)
	}
}
