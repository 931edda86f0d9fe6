package service

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/gunheehan/FitnessPT-api/internal/services/fitness/internal/model"
	"github.com/gunheehan/FitnessPT-api/internal/services/fitness/internal/store"
)

type memState struct {
	routines map[int64]model.Routine
	slots    map[int64]model.Slot
	nextID   int64
}

func (s memState) clone() memState {
	return memState{
		routines: maps.Clone(s.routines),
		slots:    maps.Clone(s.slots),
		nextID:   s.nextID,
	}
}

// memRoutines is an in-memory store.RoutineStore. It enforces the
// (routine, order index) uniqueness like the database does, including the
// deferred check at commit, and rolls back failed transactions and savepoints.
type memRoutines struct {
	state     memState
	exercises map[int64]string
	inTx      bool
	deferred  bool
	locks     []int64
}

var _ store.RoutineStore = (*memRoutines)(nil)

func newMemRoutines(exercises map[int64]string) *memRoutines {
	return &memRoutines{
		state: memState{
			routines: make(map[int64]model.Routine),
			slots:    make(map[int64]model.Slot),
		},
		exercises: exercises,
	}
}

func (m *memRoutines) id() int64 {
	m.state.nextID++
	return m.state.nextID
}

func (m *memRoutines) GetRoutine(_ context.Context, id int64) (model.Routine, error) {
	r, ok := m.state.routines[id]
	if !ok {
		return model.Routine{}, store.ErrNotFound
	}
	return r, nil
}

func (m *memRoutines) ListRoutines(_ context.Context, r store.ListRoutinesRequest) ([]model.Routine, int, error) {
	var out []model.Routine
	for _, rt := range m.state.routines {
		switch {
		case r.OwnerID == nil && rt.OwnerID != nil:
			continue
		case r.OwnerID != nil && (rt.OwnerID == nil || *rt.OwnerID != *r.OwnerID):
			continue
		case r.Level != nil && rt.Level != *r.Level:
			continue
		case r.Category != nil && rt.Category != *r.Category:
			continue
		}
		out = append(out, rt)
	}
	slices.SortFunc(out, func(a, b model.Routine) int { return int(b.ID - a.ID) })

	total := len(out)
	lo := min(r.Offset, total)
	hi := min(lo+r.Limit, total)
	return out[lo:hi], total, nil
}

func (m *memRoutines) InsertRoutine(_ context.Context, r store.InsertRoutineRequest) (model.Routine, error) {
	now := time.Now()
	rt := model.Routine{
		Model:             model.Model{CreatedAt: now, UpdatedAt: now},
		ID:                m.id(),
		Name:              r.Name,
		Description:       r.Description,
		Level:             r.Level,
		Category:          r.Category,
		EstimatedDuration: r.EstimatedDuration,
		ThumbnailURL:      r.ThumbnailURL,
		OwnerID:           r.OwnerID,
	}
	m.state.routines[rt.ID] = rt
	return rt, nil
}

func (m *memRoutines) UpdateRoutine(_ context.Context, r store.UpdateRoutineRequest) (model.Routine, error) {
	rt, ok := m.state.routines[r.ID]
	if !ok {
		return model.Routine{}, store.ErrNotFound
	}
	rt.Name = r.Name
	rt.Description = r.Description
	rt.Level = r.Level
	rt.Category = r.Category
	rt.EstimatedDuration = r.EstimatedDuration
	rt.ThumbnailURL = r.ThumbnailURL
	rt.UpdatedAt = time.Now()
	m.state.routines[r.ID] = rt
	return rt, nil
}

func (m *memRoutines) DeleteRoutine(_ context.Context, id int64) error {
	if _, ok := m.state.routines[id]; !ok {
		return store.ErrNotFound
	}
	delete(m.state.routines, id)
	maps.DeleteFunc(m.state.slots, func(_ int64, sl model.Slot) bool { return sl.RoutineID == id })
	return nil
}

func (m *memRoutines) LockRoutine(ctx context.Context, id int64) (model.Routine, error) {
	if !m.inTx {
		return model.Routine{}, errors.New("lock outside of transaction")
	}
	m.locks = append(m.locks, id)
	return m.GetRoutine(ctx, id)
}

func (m *memRoutines) ListSlots(_ context.Context, routineID int64) ([]model.Slot, error) {
	var out []model.Slot
	for _, sl := range m.state.slots {
		if sl.RoutineID == routineID {
			out = append(out, sl)
		}
	}
	slices.SortFunc(out, func(a, b model.Slot) int { return a.OrderIndex - b.OrderIndex })
	return out, nil
}

func (m *memRoutines) GetSlot(_ context.Context, id int64) (model.Slot, error) {
	sl, ok := m.state.slots[id]
	if !ok {
		return model.Slot{}, store.ErrNotFound
	}
	return sl, nil
}

func (m *memRoutines) InsertSlot(_ context.Context, r store.InsertSlotRequest) (model.Slot, error) {
	if _, ok := m.state.routines[r.RoutineID]; !ok {
		return model.Slot{}, store.ErrNotFound
	}
	name, ok := m.exercises[r.ExerciseID]
	if !ok {
		return model.Slot{}, store.ErrNotFound
	}
	if r.OrderIndex < 0 {
		return model.Slot{}, store.ErrInvalid
	}
	if !m.deferred && m.taken(r.RoutineID, r.OrderIndex, 0) {
		return model.Slot{}, store.ErrExists
	}

	sl := model.Slot{
		ID:              m.id(),
		RoutineID:       r.RoutineID,
		ExerciseID:      r.ExerciseID,
		ExerciseName:    name,
		OrderIndex:      r.OrderIndex,
		Sets:            r.Sets,
		Reps:            r.Reps,
		DurationSeconds: r.DurationSeconds,
		RestSeconds:     r.RestSeconds,
		CreatedAt:       time.Now(),
	}
	m.state.slots[sl.ID] = sl
	return sl, nil
}

func (m *memRoutines) UpdateSlot(_ context.Context, r store.UpdateSlotRequest) (model.Slot, error) {
	sl, ok := m.state.slots[r.ID]
	if !ok {
		return model.Slot{}, store.ErrNotFound
	}
	name, ok := m.exercises[r.ExerciseID]
	if !ok {
		return model.Slot{}, store.ErrNotFound
	}
	if !m.deferred && m.taken(sl.RoutineID, r.OrderIndex, sl.ID) {
		return model.Slot{}, store.ErrExists
	}

	sl.ExerciseID = r.ExerciseID
	sl.ExerciseName = name
	sl.OrderIndex = r.OrderIndex
	sl.Sets = r.Sets
	sl.Reps = r.Reps
	sl.DurationSeconds = r.DurationSeconds
	sl.RestSeconds = r.RestSeconds
	m.state.slots[sl.ID] = sl
	return sl, nil
}

func (m *memRoutines) DeleteSlot(_ context.Context, id int64) error {
	if _, ok := m.state.slots[id]; !ok {
		return store.ErrNotFound
	}
	delete(m.state.slots, id)
	return nil
}

func (m *memRoutines) ShiftSlots(_ context.Context, r store.ShiftSlotsRequest) error {
	for id, sl := range m.state.slots {
		if sl.RoutineID == r.RoutineID && sl.OrderIndex >= r.From {
			sl.OrderIndex += r.Delta
			m.state.slots[id] = sl
		}
	}
	if !m.deferred && !m.unique() {
		return store.ErrExists
	}
	return nil
}

func (m *memRoutines) SetSlotOrder(_ context.Context, slotID int64, orderIndex int) error {
	sl, ok := m.state.slots[slotID]
	if !ok {
		return store.ErrNotFound
	}
	if !m.deferred && m.taken(sl.RoutineID, orderIndex, slotID) {
		return store.ErrExists
	}
	sl.OrderIndex = orderIndex
	m.state.slots[slotID] = sl
	return nil
}

func (m *memRoutines) DeferSlotOrderCheck(context.Context) error {
	if !m.inTx {
		return errors.New("SET CONSTRAINTS outside of transaction")
	}
	m.deferred = true
	return nil
}

func (m *memRoutines) Savepoint(_ context.Context, fn func() error) error {
	snap := m.state.clone()
	if err := fn(); err != nil {
		m.state = snap
		return err
	}
	return nil
}

func (m *memRoutines) WithRoutineTx(_ context.Context, fn func(tx store.RoutineStore) error) error {
	snap := m.state.clone()
	m.inTx = true
	defer func() {
		m.inTx = false
		m.deferred = false
	}()

	err := fn(m)
	if err == nil && !m.unique() {
		err = fmt.Errorf("commit: %w", store.ErrExists)
	}
	if err != nil {
		m.state = snap
	}
	return err
}

func (m *memRoutines) taken(routineID int64, orderIndex int, except int64) bool {
	for _, sl := range m.state.slots {
		if sl.RoutineID == routineID && sl.OrderIndex == orderIndex && sl.ID != except {
			return true
		}
	}
	return false
}

func (m *memRoutines) unique() bool {
	type key struct {
		routine int64
		index   int
	}
	seen := make(map[key]bool, len(m.state.slots))
	for _, sl := range m.state.slots {
		k := key{sl.RoutineID, sl.OrderIndex}
		if seen[k] {
			return false
		}
		seen[k] = true
	}
	return true
}

// memUsers is an in-memory store.UserStore with unique google id and email.
type memUsers struct {
	users  map[int64]model.User
	nextID int64
}

var _ store.UserStore = (*memUsers)(nil)

func newMemUsers() *memUsers {
	return &memUsers{users: make(map[int64]model.User)}
}

func (m *memUsers) GetUser(_ context.Context, id int64) (model.User, error) {
	u, ok := m.users[id]
	if !ok {
		return model.User{}, store.ErrNotFound
	}
	return u, nil
}

func (m *memUsers) GetUserByGoogleID(_ context.Context, googleID string) (model.User, error) {
	for _, u := range m.users {
		if u.GoogleID != nil && *u.GoogleID == googleID {
			return u, nil
		}
	}
	return model.User{}, store.ErrNotFound
}

func (m *memUsers) ListUsers(_ context.Context, r store.ListUsersRequest) ([]model.User, int, error) {
	var out []model.User
	for _, u := range m.users {
		if r.Search != "" && !strings.Contains(u.Name+u.Email, r.Search) {
			continue
		}
		if r.Active != nil && u.IsActive != *r.Active {
			continue
		}
		out = append(out, u)
	}
	slices.SortFunc(out, func(a, b model.User) int { return int(a.ID - b.ID) })

	total := len(out)
	lo := min(r.Offset, total)
	hi := min(lo+r.Limit, total)
	return out[lo:hi], total, nil
}

func (m *memUsers) CreateUser(_ context.Context, r store.CreateUserRequest) (model.User, error) {
	for _, u := range m.users {
		if u.Email == r.Email {
			return model.User{}, store.ErrExists
		}
		if r.GoogleID != nil && u.GoogleID != nil && *u.GoogleID == *r.GoogleID {
			return model.User{}, store.ErrExists
		}
	}

	m.nextID++
	now := time.Now()
	u := model.User{
		Model:           model.Model{CreatedAt: now, UpdatedAt: now},
		ID:              m.nextID,
		GoogleID:        r.GoogleID,
		Email:           r.Email,
		Name:            r.Name,
		ProfileImageURL: r.ProfileImageURL,
		Role:            r.Role,
		IsActive:        r.IsActive,
		LastLoginAt:     r.LastLoginAt,
	}
	m.users[u.ID] = u
	return u, nil
}

func (m *memUsers) UpdateUser(_ context.Context, r store.UpdateUserRequest) (model.User, error) {
	u, ok := m.users[r.ID]
	if !ok {
		return model.User{}, store.ErrNotFound
	}
	for id, other := range m.users {
		if id != r.ID && other.Email == r.Email {
			return model.User{}, store.ErrExists
		}
	}

	u.Email = r.Email
	u.Name = r.Name
	u.ProfileImageURL = r.ProfileImageURL
	u.Role = r.Role
	u.IsActive = r.IsActive
	u.UpdatedAt = time.Now()
	m.users[r.ID] = u
	return u, nil
}

func (m *memUsers) TouchLastLogin(_ context.Context, id int64, at time.Time) error {
	u, ok := m.users[id]
	if !ok {
		return store.ErrNotFound
	}
	u.LastLoginAt = &at
	m.users[id] = u
	return nil
}

func (m *memUsers) SetUserActive(_ context.Context, id int64, active bool) error {
	u, ok := m.users[id]
	if !ok {
		return store.ErrNotFound
	}
	u.IsActive = active
	m.users[id] = u
	return nil
}
