package service

import (
	"context"
	"strconv"
	"strings"

	"github.com/Shivanand-hulikatti/club-membership/internal/apperr"
	"github.com/Shivanand-hulikatti/club-membership/internal/model"
	"github.com/Shivanand-hulikatti/club-membership/internal/repository"
)

// UserService manages member accounts.
type UserService struct {
	store repository.Store
	now   Clock
}

// NewUserService constructs a UserService.
func NewUserService(store repository.Store, now Clock) *UserService {
	return &UserService{store: store, now: clockOrDefault(now)}
}

// Get returns a user by identity id.
func (s *UserService) Get(ctx context.Context, id string) (*model.User, error) {
	var user *model.User
	err := s.store.View(ctx, func(ctx context.Context, tx repository.Tx) error {
		var err error
		user, err = tx.GetUser(ctx, id)
		return err
	})
	return user, err
}

// Register creates the user document for a verified identity. Registering
// an existing user returns it unchanged.
func (s *UserService) Register(ctx context.Context, verifiedUID string, req model.RegisterRequest) (*model.User, error) {
	uid := strings.TrimSpace(req.UID)
	if uid == "" {
		return nil, apperr.Validation("uid is required")
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if !isValidEmail(email) {
		return nil, apperr.Validation("email is not a valid email address")
	}
	firstName, err := requireLen("firstName", req.FirstName, 1, 200)
	if err != nil {
		return nil, err
	}
	lastName, err := requireLen("lastName", req.LastName, 1, 200)
	if err != nil {
		return nil, err
	}
	if req.Phone != nil && len(*req.Phone) > 50 {
		return nil, apperr.Validation("phone must be at most 50 characters")
	}
	if uid != verifiedUID {
		return nil, apperr.Forbidden("UID mismatch")
	}

	var user *model.User
	err = s.store.RunTransaction(ctx, func(ctx context.Context, tx repository.Tx) error {
		existing, err := tx.GetUser(ctx, uid)
		if err == nil {
			user = existing
			return nil
		}
		if !isNotFound(err) {
			return err
		}
		now := s.now()
		user = &model.User{
			ID:        uid,
			Email:     email,
			FirstName: firstName,
			LastName:  lastName,
			Phone:     req.Phone,
			Role:      model.RoleMember,
			IsActive:  true,
			CreatedAt: now,
			UpdatedAt: now,
		}
		return tx.PutUser(ctx, user)
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

// Profile returns the member's own account with RSVP summary fields.
func (s *UserService) Profile(ctx context.Context, id string) (*model.Profile, error) {
	var p model.Profile
	err := s.store.View(ctx, func(ctx context.Context, tx repository.Tx) error {
		user, err := tx.GetUser(ctx, id)
		if err != nil {
			return err
		}
		n, err := tx.CountRSVPs(ctx, repository.RSVPFilter{UserID: id, Status: model.RSVPConfirmed})
		if err != nil {
			return err
		}
		p = model.Profile{User: *user, UpcomingRSVPs: n, ProfileComplete: user.ProfileComplete()}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// UpdateProfile patches the caller's name and phone.
func (s *UserService) UpdateProfile(ctx context.Context, id string, req model.UpdateProfileRequest) (*model.User, error) {
	if req.FirstName == nil && req.LastName == nil && req.Phone == nil {
		return nil, apperr.Validation("no valid fields to update")
	}

	var user *model.User
	err := s.store.RunTransaction(ctx, func(ctx context.Context, tx repository.Tx) error {
		u, err := tx.GetUser(ctx, id)
		if err != nil {
			return err
		}
		if req.FirstName != nil {
			if u.FirstName, err = requireLen("firstName", *req.FirstName, 1, 200); err != nil {
				return err
			}
		}
		if req.LastName != nil {
			if u.LastName, err = requireLen("lastName", *req.LastName, 1, 200); err != nil {
				return err
			}
		}
		if req.Phone != nil {
			phone := strings.TrimSpace(*req.Phone)
			if len(phone) > 50 {
				return apperr.Validation("phone must be at most 50 characters")
			}
			if phone == "" {
				u.Phone = nil
			} else {
				u.Phone = &phone
			}
		}
		u.UpdatedAt = s.now()
		user = u
		return tx.PutUser(ctx, u)
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

// List returns users, newest first.
func (s *UserService) List(ctx context.Context, limit int) ([]model.User, error) {
	users := []model.User{}
	err := s.store.View(ctx, func(ctx context.Context, tx repository.Tx) error {
		var err error
		users, err = tx.ListUsers(ctx, repository.UserFilter{Limit: clampLimit(limit, 200, 1000)})
		return err
	})
	return users, err
}

// ChangeRole sets a user's role. Super-admins cannot change their own role.
func (s *UserService) ChangeRole(ctx context.Context, actorID, userID string, role model.Role) (*model.User, error) {
	if !role.Valid() {
		return nil, apperr.Validation("invalid role")
	}
	if actorID == userID {
		return nil, apperr.InvalidState("cannot change your own role")
	}
	return s.update(ctx, userID, func(u *model.User) (model.AuditAction, map[string]string) {
		prior := u.Role
		u.Role = role
		return model.AuditRoleChanged, map[string]string{"newRole": string(role), "priorRole": string(prior)}
	}, actorID)
}

// SetActive activates or deactivates a user. Inactive users are treated as
// unauthenticated everywhere.
func (s *UserService) SetActive(ctx context.Context, actorID, userID string, active bool) (*model.User, error) {
	if actorID == userID && !active {
		return nil, apperr.InvalidState("cannot deactivate your own account")
	}
	return s.update(ctx, userID, func(u *model.User) (model.AuditAction, map[string]string) {
		u.IsActive = active
		return model.AuditUserStatus, map[string]string{"isActive": strconv.FormatBool(active)}
	}, actorID)
}

func (s *UserService) update(ctx context.Context, userID string, mutate func(*model.User) (model.AuditAction, map[string]string), actorID string) (*model.User, error) {
	var user *model.User
	err := s.store.RunTransaction(ctx, func(ctx context.Context, tx repository.Tx) error {
		now := s.now()
		u, err := tx.GetUser(ctx, userID)
		if err != nil {
			return err
		}
		action, details := mutate(u)
		u.UpdatedAt = now
		if err := tx.PutUser(ctx, u); err != nil {
			return err
		}
		user = u
		return audit(ctx, tx, actorID, action, "USER", userID, details, now)
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

// AuditLog returns the most recent privileged actions.
func (s *UserService) AuditLog(ctx context.Context, limit int) ([]model.AuditEntry, error) {
	entries := []model.AuditEntry{}
	err := s.store.View(ctx, func(ctx context.Context, tx repository.Tx) error {
		var err error
		entries, err = tx.ListAudit(ctx, clampLimit(limit, 100, 500))
		return err
	})
	return entries, err
}
