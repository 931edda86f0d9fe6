package service

import (
	"context"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"time"

	"github.com/gunheehan/FitnessPT-api/internal/services/fitness/internal/model"
	"github.com/gunheehan/FitnessPT-api/internal/services/fitness/internal/store"
)

const (
	maxUserName    = 100
	maxFitnessGoal = 50
)

type userStore interface {
	store.UserStore
	store.ProfileStore
}

// Users manages accounts and their fitness profiles.
type Users struct {
	store userStore
	now   func() time.Time
}

func NewUsers(st userStore) *Users {
	return &Users{store: st, now: time.Now}
}

type ListUsersRequest struct {
	PageRequest
	Search string
	Active *bool
}

func (s *Users) ListUsers(ctx context.Context, actor Actor, r ListUsersRequest) (model.Page[model.User], error) {
	if err := requireAdmin(actor); err != nil {
		return model.Page[model.User]{}, err
	}

	limit, offset, err := r.bounds()
	if err != nil {
		return model.Page[model.User]{}, err
	}

	items, total, err := s.store.ListUsers(ctx, store.ListUsersRequest{
		Search: strings.TrimSpace(r.Search),
		Active: r.Active,
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		return model.Page[model.User]{}, fmt.Errorf("list users: %w", err)
	}

	return model.NewPage(items, r.Page, r.PageSize, total), nil
}

func (s *Users) GetUser(ctx context.Context, actor Actor, id int64) (model.User, error) {
	if !actor.CanAccessUser(id) {
		return model.User{}, forbidden().With("user_id", id)
	}

	u, err := s.store.GetUser(ctx, id)
	return u, storeErr(err, "user", id)
}

type CreateUserInput struct {
	GoogleID        *string
	Email           string
	Name            string
	ProfileImageURL *string
	Role            string
}

func (s *Users) CreateUser(ctx context.Context, actor Actor, in CreateUserInput) (model.User, error) {
	if err := requireAdmin(actor); err != nil {
		return model.User{}, err
	}

	email, err := validEmail(in.Email)
	if err != nil {
		return model.User{}, err
	}
	if err := required("name", in.Name, maxUserName); err != nil {
		return model.User{}, err
	}

	role := model.RoleMember
	if in.Role != "" {
		if role, err = model.ParseRole(in.Role); err != nil {
			return model.User{}, enumErr(err)
		}
	}

	u, err := s.store.CreateUser(ctx, store.CreateUserRequest{
		GoogleID:        in.GoogleID,
		Email:           email,
		Name:            strings.TrimSpace(in.Name),
		ProfileImageURL: in.ProfileImageURL,
		Role:            role,
		IsActive:        true,
	})
	if err != nil {
		return model.User{}, storeErr(err, "user", nil)
	}

	slog.Info("user created", "user_id", u.ID, "email", u.Email, "by", actor.UserID)
	return u, nil
}

// UpdateUserInput leaves a field untouched when it is nil. Role and IsActive need an admin.
type UpdateUserInput struct {
	Email           *string
	Name            *string
	ProfileImageURL *string
	Role            *string
	IsActive        *bool
}

func (s *Users) UpdateUser(ctx context.Context, actor Actor, id int64, in UpdateUserInput) (model.User, error) {
	if !actor.CanAccessUser(id) {
		return model.User{}, forbidden().With("user_id", id)
	}
	if !actor.IsAdmin() && (in.Role != nil || in.IsActive != nil) {
		return model.User{}, forbidden().With("user_id", id)
	}

	u, err := s.store.GetUser(ctx, id)
	if err != nil {
		return model.User{}, storeErr(err, "user", id)
	}

	req := store.UpdateUserRequest{
		ID:              id,
		Email:           u.Email,
		Name:            u.Name,
		ProfileImageURL: u.ProfileImageURL,
		Role:            u.Role,
		IsActive:        u.IsActive,
	}
	if in.Email != nil {
		if req.Email, err = validEmail(*in.Email); err != nil {
			return model.User{}, err
		}
	}
	if in.Name != nil {
		if err := required("name", *in.Name, maxUserName); err != nil {
			return model.User{}, err
		}
		req.Name = strings.TrimSpace(*in.Name)
	}
	if in.ProfileImageURL != nil {
		req.ProfileImageURL = nonEmpty(*in.ProfileImageURL)
	}
	if in.Role != nil {
		if req.Role, err = model.ParseRole(*in.Role); err != nil {
			return model.User{}, enumErr(err)
		}
	}
	if in.IsActive != nil {
		req.IsActive = *in.IsActive
	}

	u, err = s.store.UpdateUser(ctx, req)
	return u, storeErr(err, "user", id)
}

// DeactivateUser is the only way to remove a user. Accounts are never hard deleted.
func (s *Users) DeactivateUser(ctx context.Context, actor Actor, id int64) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}

	if err := s.store.SetUserActive(ctx, id, false); err != nil {
		return storeErr(err, "user", id)
	}

	slog.Info("user deactivated", "user_id", id, "by", actor.UserID)
	return nil
}

type ProfileInput struct {
	BirthDate       *time.Time
	Gender          *string
	HeightCm        *float64
	CurrentWeightKg *float64
	FitnessGoal     *string
	FitnessLevel    *string
}

func (in ProfileInput) profile(userID int64, now time.Time) (model.UserProfile, error) {
	p := model.UserProfile{
		UserID:          userID,
		BirthDate:       in.BirthDate,
		HeightCm:        in.HeightCm,
		CurrentWeightKg: in.CurrentWeightKg,
		FitnessGoal:     in.FitnessGoal,
	}

	if in.BirthDate != nil && in.BirthDate.After(now) {
		return p, invalid("birth date must not be in the future")
	}
	if in.HeightCm != nil && (*in.HeightCm <= 0 || *in.HeightCm >= 1000) {
		return p, invalid("height must be between 0 and 1000 cm")
	}
	if in.CurrentWeightKg != nil && (*in.CurrentWeightKg <= 0 || *in.CurrentWeightKg >= 1000) {
		return p, invalid("weight must be between 0 and 1000 kg")
	}
	if in.FitnessGoal != nil && len([]rune(*in.FitnessGoal)) > maxFitnessGoal {
		return p, invalid("fitness goal must be at most %d characters", maxFitnessGoal)
	}

	if in.Gender != nil {
		g, err := model.ParseGender(*in.Gender)
		if err != nil {
			return p, enumErr(err)
		}
		p.Gender = &g
	}
	if in.FitnessLevel != nil {
		l, err := model.ParseLevel(*in.FitnessLevel)
		if err != nil {
			return p, enumErr(err)
		}
		p.FitnessLevel = &l
	}

	return p, nil
}

func (s *Users) GetProfile(ctx context.Context, actor Actor, userID int64) (model.UserProfile, error) {
	if !actor.CanAccessUser(userID) {
		return model.UserProfile{}, forbidden().With("user_id", userID)
	}

	p, err := s.store.GetProfile(ctx, userID)
	return p, storeErr(err, "profile", userID)
}

// CreateProfile fails with a conflict when the user already has a profile.
func (s *Users) CreateProfile(ctx context.Context, actor Actor, userID int64, in ProfileInput) (model.UserProfile, error) {
	return s.writeProfile(ctx, actor, userID, in, s.store.InsertProfile)
}

func (s *Users) UpdateProfile(ctx context.Context, actor Actor, userID int64, in ProfileInput) (model.UserProfile, error) {
	return s.writeProfile(ctx, actor, userID, in, s.store.UpdateProfile)
}

func (s *Users) UpsertProfile(ctx context.Context, actor Actor, userID int64, in ProfileInput) (model.UserProfile, error) {
	return s.writeProfile(ctx, actor, userID, in, s.store.UpsertProfile)
}

func (s *Users) DeleteProfile(ctx context.Context, actor Actor, userID int64) error {
	if !actor.CanAccessUser(userID) {
		return forbidden().With("user_id", userID)
	}

	return storeErr(s.store.DeleteProfile(ctx, userID), "profile", userID)
}

func (s *Users) writeProfile(
	ctx context.Context,
	actor Actor,
	userID int64,
	in ProfileInput,
	write func(context.Context, model.UserProfile) (model.UserProfile, error),
) (model.UserProfile, error) {
	if !actor.CanAccessUser(userID) {
		return model.UserProfile{}, forbidden().With("user_id", userID)
	}

	p, err := in.profile(userID, s.now())
	if err != nil {
		return model.UserProfile{}, err
	}

	p, err = write(ctx, p)
	return p, storeErr(err, "profile", userID)
}

func validEmail(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	addr, err := mail.ParseAddress(raw)
	if err != nil || addr.Address != raw || len(raw) > 255 {
		return "", invalid("invalid email address")
	}
	return raw, nil
}
