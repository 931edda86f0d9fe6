package service

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gunheehan/FitnessPT-api/internal/pkg/serr"
	"github.com/gunheehan/FitnessPT-api/internal/services/fitness/internal/model"
	"github.com/gunheehan/FitnessPT-api/internal/services/fitness/internal/store"
)

const (
	DefaultPage     = 1
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Actor is the authenticated caller of a service operation.
type Actor struct {
	UserID int64
	Role   model.Role
}

func (a Actor) IsAdmin() bool {
	return a.Role == model.RoleAdmin
}

// CanAccessUser reports whether the actor may read or change data owned by userID.
func (a Actor) CanAccessUser(userID int64) bool {
	return a.IsAdmin() || (a.UserID > 0 && a.UserID == userID)
}

type PageRequest struct {
	Page     int
	PageSize int
}

// bounds validates the paging parameters and converts them to limit/offset.
// Zero values fall back to the defaults.
func (p *PageRequest) bounds() (limit, offset int, err error) {
	if p.Page == 0 {
		p.Page = DefaultPage
	}
	if p.PageSize == 0 {
		p.PageSize = DefaultPageSize
	}

	if p.Page < 1 {
		return 0, 0, invalid("page must be >= 1")
	}
	if p.PageSize < 1 || p.PageSize > MaxPageSize {
		return 0, 0, invalid("pageSize must be between 1 and %d", MaxPageSize)
	}

	return p.PageSize, (p.Page - 1) * p.PageSize, nil
}

func invalid(msg string, args ...any) *serr.ServiceError {
	return serr.NewServiceError(nil, http.StatusBadRequest, msg, args...)
}

func forbidden() *serr.ServiceError {
	return serr.NewServiceError(nil, http.StatusForbidden, "forbidden")
}

func requireAdmin(actor Actor) error {
	if !actor.IsAdmin() {
		return forbidden().With("user_id", actor.UserID)
	}
	return nil
}

// enumErr turns a model parse failure into a 400.
func enumErr(err error) error {
	if errors.Is(err, model.ErrInvalidEnum) {
		return serr.NewServiceError(err, http.StatusBadRequest, "%s", err.Error())
	}
	return err
}

// storeErr maps store sentinels to client facing errors. what names the entity.
func storeErr(err error, what string, id any) error {
	var sErr *serr.ServiceError
	switch {
	case err == nil:
		return nil
	case errors.As(err, &sErr):
		return err
	case errors.Is(err, store.ErrNotFound):
		sErr = serr.NewServiceError(err, http.StatusNotFound, "%s not found", what)
	case errors.Is(err, store.ErrExists):
		sErr = serr.NewServiceError(err, http.StatusConflict, "%s already exists", what)
	case errors.Is(err, store.ErrInUse):
		sErr = serr.NewServiceError(err, http.StatusConflict, "%s is still in use", what)
	case errors.Is(err, store.ErrInvalid):
		sErr = serr.NewServiceError(err, http.StatusBadRequest, "invalid %s", what)
	default:
		return fmt.Errorf("%s: %w", what, err)
	}

	if id != nil {
		sErr.With(strings.ReplaceAll(what, " ", "_")+"_id", id)
	}
	return sErr
}

func positive(name string, v *int) error {
	if v != nil && *v <= 0 {
		return invalid("%s must be greater than 0", name)
	}
	return nil
}

func nonNegative(name string, v *float64) error {
	if v != nil && *v < 0 {
		return invalid("%s must not be negative", name)
	}
	return nil
}

func required(name, v string, maxLen int) error {
	v = strings.TrimSpace(v)
	if v == "" {
		return invalid("%s is required", name)
	}
	if len([]rune(v)) > maxLen {
		return invalid("%s must be at most %d characters", name, maxLen)
	}
	return nil
}

func ptr[T any](v T) *T {
	return &v
}
