package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"slices"
	"sort"

	"github.com/gunheehan/FitnessPT-api/internal/pkg/serr"
	"github.com/gunheehan/FitnessPT-api/internal/services/fitness/internal/model"
	"github.com/gunheehan/FitnessPT-api/internal/services/fitness/internal/store"
)

const (
	DefaultSets        = 3
	DefaultRestSeconds = 60

	maxRoutineName = 100
)

// Routines composes routines out of ordered exercise slots.
// Every slot mutation holds the routine row lock for the duration of its transaction.
type Routines struct {
	store store.RoutineStore
}

func NewRoutines(st store.RoutineStore) *Routines {
	return &Routines{store: st}
}

// SlotSpec describes a slot to add or the new state of an existing one.
type SlotSpec struct {
	ExerciseID      int64
	OrderIndex      int
	Sets            *int
	Reps            *int
	DurationSeconds *int
	RestSeconds     *int
}

func (s SlotSpec) validate() error {
	if s.ExerciseID <= 0 {
		return invalid("exercise id must be greater than 0")
	}
	if s.OrderIndex < 0 {
		return invalid("order index must not be negative")
	}

	return firstErr(
		positive("sets", s.Sets),
		positive("reps", s.Reps),
		positive("duration seconds", s.DurationSeconds),
		positive("rest seconds", s.RestSeconds),
	)
}

func (s SlotSpec) withDefaults() SlotSpec {
	if s.Sets == nil {
		s.Sets = ptr(DefaultSets)
	}
	if s.RestSeconds == nil {
		s.RestSeconds = ptr(DefaultRestSeconds)
	}
	return s
}

func (s SlotSpec) insert(routineID int64, orderIndex int) store.InsertSlotRequest {
	s = s.withDefaults()
	return store.InsertSlotRequest{
		RoutineID:       routineID,
		ExerciseID:      s.ExerciseID,
		OrderIndex:      orderIndex,
		Sets:            s.Sets,
		Reps:            s.Reps,
		DurationSeconds: s.DurationSeconds,
		RestSeconds:     s.RestSeconds,
	}
}

// SlotResult reports the outcome for one SlotSpec of a batch.
type SlotResult struct {
	Spec SlotSpec
	Slot model.Slot
	Err  error
}

type RoutineHeader struct {
	Name              string
	Description       *string
	Level             string
	Category          string
	EstimatedDuration *int
	ThumbnailURL      *string
}

type header struct {
	RoutineHeader
	level    model.Level
	category model.Category
}

func (h RoutineHeader) parse() (header, error) {
	if err := required("name", h.Name, maxRoutineName); err != nil {
		return header{}, err
	}
	if err := positive("estimated duration", h.EstimatedDuration); err != nil {
		return header{}, err
	}

	lvl, err := model.ParseLevel(h.Level)
	if err != nil {
		return header{}, enumErr(err)
	}

	cat, err := model.ParseCategory(h.Category)
	if err != nil {
		return header{}, enumErr(err)
	}

	return header{RoutineHeader: h, level: lvl, category: cat}, nil
}

type CreateRoutineRequest struct {
	RoutineHeader
	Slots []SlotSpec
}

// CreateRoutine stores the header and then adds the initial slots. The routine survives a
// failing slot; the returned detail then holds the slots that made it together with an error.
func (s *Routines) CreateRoutine(ctx context.Context, actor Actor, r CreateRoutineRequest) (model.RoutineDetail, error) {
	h, err := r.parse()
	if err != nil {
		return model.RoutineDetail{}, err
	}

	var owner *int64
	if !actor.IsAdmin() {
		if actor.UserID <= 0 {
			return model.RoutineDetail{}, forbidden()
		}
		owner = ptr(actor.UserID)
	}

	rt, err := s.store.InsertRoutine(ctx, store.InsertRoutineRequest{
		Name:              h.Name,
		Description:       h.Description,
		Level:             h.level,
		Category:          h.category,
		EstimatedDuration: h.EstimatedDuration,
		ThumbnailURL:      h.ThumbnailURL,
		OwnerID:           owner,
	})
	if err != nil {
		return model.RoutineDetail{}, storeErr(err, "routine", nil)
	}

	slog.Info("routine created", "routine_id", rt.ID, "user_id", actor.UserID, "system", rt.IsSystem(), "slots", len(r.Slots))

	detail := model.RoutineDetail{Routine: rt, Slots: []model.Slot{}}
	if len(r.Slots) == 0 {
		return detail, nil
	}

	results, err := s.AddSlots(ctx, actor, rt.ID, r.Slots)
	for _, res := range results {
		if res.Err == nil {
			detail.Slots = append(detail.Slots, res.Slot)
		}
	}
	slices.SortFunc(detail.Slots, func(a, b model.Slot) int { return a.OrderIndex - b.OrderIndex })

	return detail, err
}

// AddSlots appends the specs after the current last slot. Specs are ordered by their
// OrderIndex (stable) and then numbered consecutively, so the supplied values only rank.
// A failing spec does not affect the others. Results follow the order of specs.
func (s *Routines) AddSlots(ctx context.Context, actor Actor, routineID int64, specs []SlotSpec) ([]SlotResult, error) {
	if len(specs) == 0 {
		return nil, invalid("at least one slot is required")
	}

	results := make([]SlotResult, len(specs))
	for i, spec := range specs {
		results[i] = SlotResult{Spec: spec, Err: spec.validate()}
	}

	order := make([]int, len(specs))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return specs[order[a]].OrderIndex < specs[order[b]].OrderIndex
	})

	err := s.mutate(ctx, actor, routineID, func(tx store.RoutineStore, _ model.Routine) error {
		existing, err := tx.ListSlots(ctx, routineID)
		if err != nil {
			return fmt.Errorf("list slots: %w", err)
		}

		next := 0
		for _, sl := range existing {
			next = max(next, sl.OrderIndex+1)
		}

		for _, i := range order {
			res := &results[i]
			if res.Err != nil {
				continue
			}

			err := tx.Savepoint(ctx, func() error {
				sl, err := tx.InsertSlot(ctx, res.Spec.insert(routineID, next))
				res.Slot = sl
				return err
			})
			if err != nil {
				res.Err = slotErr(err, routineID, next)
				continue
			}
			next++
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return results, batchErr(results)
}

// AddSlot inserts a slot at the index the caller asked for. A taken index is a conflict.
func (s *Routines) AddSlot(ctx context.Context, actor Actor, routineID int64, spec SlotSpec) (model.Slot, error) {
	if err := spec.validate(); err != nil {
		return model.Slot{}, err
	}

	var sl model.Slot
	err := s.mutate(ctx, actor, routineID, func(tx store.RoutineStore, _ model.Routine) error {
		var err error
		sl, err = tx.InsertSlot(ctx, spec.insert(routineID, spec.OrderIndex))
		return slotErr(err, routineID, spec.OrderIndex)
	})

	return sl, err
}

// InsertSlotAt puts the slot at spec.OrderIndex and moves the slots at or after it one place down.
func (s *Routines) InsertSlotAt(ctx context.Context, actor Actor, routineID int64, spec SlotSpec) (model.Slot, error) {
	if err := spec.validate(); err != nil {
		return model.Slot{}, err
	}

	var sl model.Slot
	err := s.mutate(ctx, actor, routineID, func(tx store.RoutineStore, _ model.Routine) error {
		if err := tx.DeferSlotOrderCheck(ctx); err != nil {
			return err
		}

		err := tx.ShiftSlots(ctx, store.ShiftSlotsRequest{RoutineID: routineID, From: spec.OrderIndex, Delta: 1})
		if err != nil {
			return fmt.Errorf("shift slots: %w", err)
		}

		sl, err = tx.InsertSlot(ctx, spec.insert(routineID, spec.OrderIndex))
		return slotErr(err, routineID, spec.OrderIndex)
	})

	return sl, err
}

// ReorderSlots renumbers the routine so that slotIDs[i] gets order index i.
// slotIDs must name every slot of the routine exactly once.
func (s *Routines) ReorderSlots(ctx context.Context, actor Actor, routineID int64, slotIDs []int64) ([]model.Slot, error) {
	var slots []model.Slot
	err := s.mutate(ctx, actor, routineID, func(tx store.RoutineStore, _ model.Routine) error {
		existing, err := tx.ListSlots(ctx, routineID)
		if err != nil {
			return fmt.Errorf("list slots: %w", err)
		}

		if !isPermutation(existing, slotIDs) {
			return invalid("slot ids must list every slot of the routine exactly once").With("routine_id", routineID)
		}

		if err := tx.DeferSlotOrderCheck(ctx); err != nil {
			return err
		}

		for i, id := range slotIDs {
			if err := tx.SetSlotOrder(ctx, id, i); err != nil {
				return storeErr(err, "slot", id)
			}
		}

		slots, err = tx.ListSlots(ctx, routineID)
		if err != nil {
			return fmt.Errorf("list slots: %w", err)
		}
		return nil
	})

	return slots, err
}

type UpdateSlotRequest struct {
	RoutineID int64
	SlotID    int64
	SlotSpec
}

// UpdateSlot overwrites every field of a slot. The slot must belong to RoutineID.
func (s *Routines) UpdateSlot(ctx context.Context, actor Actor, r UpdateSlotRequest) (model.Slot, error) {
	if err := r.validate(); err != nil {
		return model.Slot{}, err
	}

	var sl model.Slot
	err := s.mutate(ctx, actor, r.RoutineID, func(tx store.RoutineStore, _ model.Routine) error {
		cur, err := tx.GetSlot(ctx, r.SlotID)
		if err != nil {
			return storeErr(err, "slot", r.SlotID)
		}
		if cur.RoutineID != r.RoutineID {
			return serr.NewServiceError(store.ErrNotFound, http.StatusNotFound, "slot not found").
				With("slot_id", r.SlotID).
				With("routine_id", r.RoutineID)
		}

		sl, err = tx.UpdateSlot(ctx, store.UpdateSlotRequest{
			ID:              r.SlotID,
			ExerciseID:      r.ExerciseID,
			OrderIndex:      r.OrderIndex,
			Sets:            r.Sets,
			Reps:            r.Reps,
			DurationSeconds: r.DurationSeconds,
			RestSeconds:     r.RestSeconds,
		})
		return slotErr(err, r.RoutineID, r.OrderIndex)
	})

	return sl, err
}

// RemoveSlot deletes a slot of the routine and returns what was removed.
// A slot that belongs to another routine is reported as not found.
func (s *Routines) RemoveSlot(ctx context.Context, actor Actor, routineID, slotID int64) (model.Slot, error) {
	var sl model.Slot
	err := s.mutate(ctx, actor, routineID, func(tx store.RoutineStore, _ model.Routine) error {
		cur, err := tx.GetSlot(ctx, slotID)
		if err != nil {
			return storeErr(err, "slot", slotID)
		}
		if cur.RoutineID != routineID {
			return serr.NewServiceError(store.ErrNotFound, http.StatusNotFound, "slot not found").
				With("slot_id", slotID).
				With("routine_id", routineID)
		}

		sl = cur
		return storeErr(tx.DeleteSlot(ctx, slotID), "slot", slotID)
	})
	if err != nil {
		return model.Slot{}, err
	}

	return sl, nil
}

// GetDetail returns the slots of a routine ordered by order index.
func (s *Routines) GetDetail(ctx context.Context, routineID int64) ([]model.Slot, error) {
	if _, err := s.store.GetRoutine(ctx, routineID); err != nil {
		return nil, storeErr(err, "routine", routineID)
	}

	slots, err := s.store.ListSlots(ctx, routineID)
	if err != nil {
		return nil, fmt.Errorf("list slots: %w", err)
	}
	if slots == nil {
		slots = []model.Slot{}
	}

	return slots, nil
}

func (s *Routines) GetRoutine(ctx context.Context, id int64) (model.RoutineDetail, error) {
	rt, err := s.store.GetRoutine(ctx, id)
	if err != nil {
		return model.RoutineDetail{}, storeErr(err, "routine", id)
	}

	slots, err := s.GetDetail(ctx, id)
	if err != nil {
		return model.RoutineDetail{}, err
	}

	return model.RoutineDetail{Routine: rt, Slots: slots}, nil
}

type ListRoutinesRequest struct {
	PageRequest
	// UserID selects that user's routines; nil lists the system routines.
	UserID   *int64
	Level    string
	Category string
}

func (s *Routines) ListRoutines(ctx context.Context, r ListRoutinesRequest) (model.Page[model.Routine], error) {
	limit, offset, err := r.bounds()
	if err != nil {
		return model.Page[model.Routine]{}, err
	}

	q := store.ListRoutinesRequest{OwnerID: r.UserID, Limit: limit, Offset: offset}
	if r.Level != "" {
		lvl, err := model.ParseLevel(r.Level)
		if err != nil {
			return model.Page[model.Routine]{}, enumErr(err)
		}
		q.Level = &lvl
	}
	if r.Category != "" {
		cat, err := model.ParseCategory(r.Category)
		if err != nil {
			return model.Page[model.Routine]{}, enumErr(err)
		}
		q.Category = &cat
	}

	items, total, err := s.store.ListRoutines(ctx, q)
	if err != nil {
		return model.Page[model.Routine]{}, fmt.Errorf("list routines: %w", err)
	}

	return model.NewPage(items, r.Page, r.PageSize, total), nil
}

type UpdateRoutineRequest struct {
	ID int64
	RoutineHeader
}

func (s *Routines) UpdateRoutine(ctx context.Context, actor Actor, r UpdateRoutineRequest) (model.Routine, error) {
	h, err := r.parse()
	if err != nil {
		return model.Routine{}, err
	}

	var rt model.Routine
	err = s.mutate(ctx, actor, r.ID, func(tx store.RoutineStore, _ model.Routine) error {
		var err error
		rt, err = tx.UpdateRoutine(ctx, store.UpdateRoutineRequest{
			ID:                r.ID,
			Name:              h.Name,
			Description:       h.Description,
			Level:             h.level,
			Category:          h.category,
			EstimatedDuration: h.EstimatedDuration,
			ThumbnailURL:      h.ThumbnailURL,
		})
		return storeErr(err, "routine", r.ID)
	})

	return rt, err
}

// DeleteRoutine removes the routine and all of its slots.
func (s *Routines) DeleteRoutine(ctx context.Context, actor Actor, id int64) error {
	err := s.mutate(ctx, actor, id, func(tx store.RoutineStore, _ model.Routine) error {
		return storeErr(tx.DeleteRoutine(ctx, id), "routine", id)
	})
	if err != nil {
		return err
	}

	slog.Info("routine deleted", "routine_id", id, "user_id", actor.UserID)
	return nil
}

// mutate runs fn in a transaction that holds the routine row lock, after checking
// that the actor may change the routine.
func (s *Routines) mutate(ctx context.Context, actor Actor, routineID int64, fn func(tx store.RoutineStore, rt model.Routine) error) error {
	err := s.store.WithRoutineTx(ctx, func(tx store.RoutineStore) error {
		rt, err := tx.LockRoutine(ctx, routineID)
		if err != nil {
			return storeErr(err, "routine", routineID)
		}

		if !canModify(actor, rt) {
			return forbidden().With("routine_id", routineID).With("user_id", actor.UserID)
		}

		return fn(tx, rt)
	})

	// deferred order checks fail on commit
	if errors.Is(err, store.ErrExists) {
		var sErr *serr.ServiceError
		if !errors.As(err, &sErr) {
			return serr.NewServiceError(err, http.StatusConflict, "order index is already taken").With("routine_id", routineID)
		}
	}

	return storeErr(err, "routine", routineID)
}

// canModify reports whether actor may change rt. System routines belong to admins.
func canModify(actor Actor, rt model.Routine) bool {
	if actor.IsAdmin() {
		return true
	}
	return rt.OwnerID != nil && *rt.OwnerID == actor.UserID
}

// slotErr maps a slot write failure. The routine is locked at that point, so a
// missing reference can only be the exercise.
func slotErr(err error, routineID int64, orderIndex int) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, store.ErrExists):
		return serr.NewServiceError(err, http.StatusConflict, "order index %d is already taken", orderIndex).
			With("routine_id", routineID)
	case errors.Is(err, store.ErrNotFound):
		return serr.NewServiceError(err, http.StatusNotFound, "exercise not found").With("routine_id", routineID)
	case errors.Is(err, store.ErrInvalid):
		return serr.NewServiceError(err, http.StatusBadRequest, "invalid slot").With("routine_id", routineID)
	}
	return fmt.Errorf("write slot: %w", err)
}

// batchErr summarizes failed slots. The status is taken from the first failure.
func batchErr(results []SlotResult) error {
	failed := 0
	var first error
	for _, r := range results {
		if r.Err != nil {
			failed++
			if first == nil {
				first = r.Err
			}
		}
	}
	if first == nil {
		return nil
	}

	status := http.StatusInternalServerError
	msg := "internal error"
	var sErr *serr.ServiceError
	if errors.As(first, &sErr) {
		status = sErr.StatusCode
		msg = sErr.Msg
	}

	return serr.NewServiceError(first, status, "%d of %d slots failed: %s", failed, len(results), msg)
}

func isPermutation(slots []model.Slot, ids []int64) bool {
	if len(slots) != len(ids) {
		return false
	}

	want := make(map[int64]bool, len(slots))
	for _, sl := range slots {
		want[sl.ID] = true
	}
	for _, id := range ids {
		if !want[id] {
			return false
		}
		delete(want, id)
	}

	return true
}
