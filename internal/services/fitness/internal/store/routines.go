package store

import (
	"context"
	"fmt"

	"github.com/gunheehan/FitnessPT-api/internal/services/fitness/internal/model"
)

const routineColumns = `id, name, description, level, category, estimated_duration, thumbnail_url, user_id, created_at, updated_at`

const slotColumns = `re.id, re.routine_id, re.exercise_id, e.name, re.order_index, re.sets, re.reps,
		re.duration_seconds, re.rest_seconds, re.created_at`

func scanRoutine(row scanner) (model.Routine, error) {
	var r model.Routine
	err := row.Scan(
		&r.ID,
		&r.Name,
		&r.Description,
		&r.Level,
		&r.Category,
		&r.EstimatedDuration,
		&r.ThumbnailURL,
		&r.OwnerID,
		&r.CreatedAt,
		&r.UpdatedAt)

	return r, err
}

func scanSlot(row scanner) (model.Slot, error) {
	var sl model.Slot
	err := row.Scan(
		&sl.ID,
		&sl.RoutineID,
		&sl.ExerciseID,
		&sl.ExerciseName,
		&sl.OrderIndex,
		&sl.Sets,
		&sl.Reps,
		&sl.DurationSeconds,
		&sl.RestSeconds,
		&sl.CreatedAt)

	return sl, err
}

func (s *PostgresStore) GetRoutine(ctx context.Context, id int64) (model.Routine, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+routineColumns+" FROM routines WHERE id=$1", id)

	r, err := scanRoutine(row)
	if err != nil {
		return r, mapScanErr(err, "get routine")
	}

	return r, nil
}

// ListRoutines returns routines newest first. A nil OwnerID selects system routines.
func (s *PostgresStore) ListRoutines(ctx context.Context, r ListRoutinesRequest) ([]model.Routine, int, error) {
	var w where
	if r.OwnerID != nil {
		w.add("user_id = $%d", *r.OwnerID)
	} else {
		w.conds = append(w.conds, "user_id IS NULL")
	}
	if r.Level != nil {
		w.add("level = $%d", *r.Level)
	}
	if r.Category != nil {
		w.add("category = $%d", *r.Category)
	}

	total, err := s.count(ctx, "routines", &w)
	if err != nil {
		return nil, 0, err
	}

	limit, args := w.page(r.Limit, r.Offset)
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+routineColumns+" FROM routines"+w.String()+" ORDER BY created_at DESC, id DESC"+limit, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("query routines: %w", err)
	}
	defer rows.Close()

	var routines []model.Routine
	for rows.Next() {
		rt, err := scanRoutine(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan routine: %w", err)
		}
		routines = append(routines, rt)
	}

	return routines, total, rows.Err()
}

func (s *PostgresStore) InsertRoutine(ctx context.Context, r InsertRoutineRequest) (model.Routine, error) {
	row := s.db.QueryRowContext(ctx,
		`INSERT INTO routines (name, description, level, category, estimated_duration, thumbnail_url, user_id)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING `+routineColumns,
		r.Name,
		r.Description,
		r.Level,
		r.Category,
		r.EstimatedDuration,
		r.ThumbnailURL,
		r.OwnerID)

	rt, err := scanRoutine(row)
	if err != nil {
		return rt, mapWriteErr(err, "insert routine")
	}

	return rt, nil
}

func (s *PostgresStore) UpdateRoutine(ctx context.Context, r UpdateRoutineRequest) (model.Routine, error) {
	row := s.db.QueryRowContext(ctx,
		`UPDATE routines
		 SET name=$2, description=$3, level=$4, category=$5, estimated_duration=$6, thumbnail_url=$7, updated_at=NOW()
		 WHERE id=$1
		 RETURNING `+routineColumns,
		r.ID,
		r.Name,
		r.Description,
		r.Level,
		r.Category,
		r.EstimatedDuration,
		r.ThumbnailURL)

	rt, err := scanRoutine(row)
	if err != nil {
		return rt, mapScanErr(err, "update routine")
	}

	return rt, nil
}

// DeleteRoutine removes a routine together with its slots.
func (s *PostgresStore) DeleteRoutine(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM routines WHERE id=$1", id)
	if err != nil {
		return mapDeleteErr(err, "delete routine")
	}

	return expectAffected(res, "delete routine")
}

// LockRoutine takes a row lock on the routine for the rest of the transaction.
// Every slot mutation of the routine goes through this lock.
func (s *PostgresStore) LockRoutine(ctx context.Context, id int64) (model.Routine, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+routineColumns+" FROM routines WHERE id=$1 FOR UPDATE", id)

	r, err := scanRoutine(row)
	if err != nil {
		return r, mapScanErr(err, "lock routine")
	}

	return r, nil
}

// ListSlots returns the routine's slots ordered by position.
func (s *PostgresStore) ListSlots(ctx context.Context, routineID int64) ([]model.Slot, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+slotColumns+`
		 FROM routine_exercises AS re
		 JOIN exercises AS e ON e.id = re.exercise_id
		 WHERE re.routine_id=$1
		 ORDER BY re.order_index`, routineID)
	if err != nil {
		return nil, fmt.Errorf("query slots: %w", err)
	}
	defer rows.Close()

	slots := []model.Slot{}
	for rows.Next() {
		sl, err := scanSlot(rows)
		if err != nil {
			return nil, fmt.Errorf("scan slot: %w", err)
		}
		slots = append(slots, sl)
	}

	return slots, rows.Err()
}

func (s *PostgresStore) GetSlot(ctx context.Context, id int64) (model.Slot, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+slotColumns+`
		 FROM routine_exercises AS re
		 JOIN exercises AS e ON e.id = re.exercise_id
		 WHERE re.id=$1`, id)

	sl, err := scanSlot(row)
	if err != nil {
		return sl, mapScanErr(err, "get slot")
	}

	return sl, nil
}

// InsertSlot adds a slot. A taken order index yields ErrExists, an unknown routine or
// exercise yields ErrNotFound.
func (s *PostgresStore) InsertSlot(ctx context.Context, r InsertSlotRequest) (model.Slot, error) {
	row := s.db.QueryRowContext(ctx,
		`WITH re AS (
			INSERT INTO routine_exercises (routine_id, exercise_id, order_index, sets, reps, duration_seconds, rest_seconds)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			RETURNING *
		 )
		 SELECT `+slotColumns+`
		 FROM re
		 JOIN exercises AS e ON e.id = re.exercise_id`,
		r.RoutineID,
		r.ExerciseID,
		r.OrderIndex,
		r.Sets,
		r.Reps,
		r.DurationSeconds,
		r.RestSeconds)

	sl, err := scanSlot(row)
	if err != nil {
		return sl, mapScanErr(err, "insert slot")
	}

	return sl, nil
}

// UpdateSlot overwrites every mutable field of the slot.
func (s *PostgresStore) UpdateSlot(ctx context.Context, r UpdateSlotRequest) (model.Slot, error) {
	row := s.db.QueryRowContext(ctx,
		`WITH re AS (
			UPDATE routine_exercises
			SET exercise_id=$2, order_index=$3, sets=$4, reps=$5, duration_seconds=$6, rest_seconds=$7
			WHERE id=$1
			RETURNING *
		 )
		 SELECT `+slotColumns+`
		 FROM re
		 JOIN exercises AS e ON e.id = re.exercise_id`,
		r.ID,
		r.ExerciseID,
		r.OrderIndex,
		r.Sets,
		r.Reps,
		r.DurationSeconds,
		r.RestSeconds)

	sl, err := scanSlot(row)
	if err != nil {
		return sl, mapScanErr(err, "update slot")
	}

	return sl, nil
}

func (s *PostgresStore) DeleteSlot(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM routine_exercises WHERE id=$1", id)
	if err != nil {
		return mapDeleteErr(err, "delete slot")
	}

	return expectAffected(res, "delete slot")
}

// ShiftSlots moves a tail of the routine. Call DeferSlotOrderCheck first, the
// intermediate states may collide.
func (s *PostgresStore) ShiftSlots(ctx context.Context, r ShiftSlotsRequest) error {
	_, err := s.db.ExecContext(ctx,
		"UPDATE routine_exercises SET order_index = order_index + $3 WHERE routine_id=$1 AND order_index >= $2",
		r.RoutineID, r.From, r.Delta)
	if err != nil {
		return mapWriteErr(err, "shift slots")
	}

	return nil
}

func (s *PostgresStore) SetSlotOrder(ctx context.Context, slotID int64, orderIndex int) error {
	res, err := s.db.ExecContext(ctx, "UPDATE routine_exercises SET order_index=$2 WHERE id=$1", slotID, orderIndex)
	if err != nil {
		return mapWriteErr(err, "set slot order")
	}

	return expectAffected(res, "set slot order")
}

// DeferSlotOrderCheck postpones the (routine_id, order_index) uniqueness check to commit.
func (s *PostgresStore) DeferSlotOrderCheck(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, "SET CONSTRAINTS routine_exercises_routine_order_key DEFERRED")
	if err != nil {
		return fmt.Errorf("defer order check: %w", err)
	}

	return nil
}

func (s *PostgresStore) WithRoutineTx(ctx context.Context, fn func(tx RoutineStore) error) error {
	return s.WithTx(ctx, func(tx *PostgresStore) error {
		return fn(tx)
	})
}
