package store

import (
	"context"
	"fmt"

	"github.com/gunheehan/FitnessPT-api/internal/services/fitness/internal/model"
)

const bodyRecordColumns = `id, user_id, recorded_date, weight_kg, body_fat_percentage, muscle_mass_kg, notes, created_at`

const workoutRecordColumns = `id, user_id, exercise_id, workout_date, sets_data, total_duration_minutes, notes, created_at`

func scanBodyRecord(row scanner) (model.BodyRecord, error) {
	var r model.BodyRecord
	err := row.Scan(
		&r.ID,
		&r.UserID,
		&r.RecordedDate,
		&r.WeightKg,
		&r.BodyFatPercentage,
		&r.MuscleMassKg,
		&r.Notes,
		&r.CreatedAt)

	return r, err
}

func scanWorkoutRecord(row scanner) (model.WorkoutRecord, error) {
	var (
		r    model.WorkoutRecord
		sets []byte
	)
	err := row.Scan(
		&r.ID,
		&r.UserID,
		&r.ExerciseID,
		&r.WorkoutDate,
		&sets,
		&r.TotalDurationMinutes,
		&r.Notes,
		&r.CreatedAt)
	r.SetsData = sets

	return r, err
}

func (s *PostgresStore) GetBodyRecord(ctx context.Context, id int64) (model.BodyRecord, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+bodyRecordColumns+" FROM body_records WHERE id=$1", id)

	r, err := scanBodyRecord(row)
	if err != nil {
		return r, mapScanErr(err, "get body record")
	}

	return r, nil
}

func (s *PostgresStore) LatestBodyRecord(ctx context.Context, userID int64) (model.BodyRecord, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+bodyRecordColumns+" FROM body_records WHERE user_id=$1 ORDER BY recorded_date DESC, id DESC LIMIT 1", userID)

	r, err := scanBodyRecord(row)
	if err != nil {
		return r, mapScanErr(err, "latest body record")
	}

	return r, nil
}

func recordFilter(r ListRecordsRequest, dateColumn string) *where {
	var w where
	if r.UserID != nil {
		w.add("user_id = $%d", *r.UserID)
	}
	if r.ExerciseID != nil {
		w.add("exercise_id = $%d", *r.ExerciseID)
	}
	if r.From != nil {
		w.add(dateColumn+" >= $%d", *r.From)
	}
	if r.To != nil {
		w.add(dateColumn+" <= $%d", *r.To)
	}

	return &w
}

func (s *PostgresStore) ListBodyRecords(ctx context.Context, r ListRecordsRequest) ([]model.BodyRecord, int, error) {
	r.ExerciseID = nil
	w := recordFilter(r, "recorded_date")

	total, err := s.count(ctx, "body_records", w)
	if err != nil {
		return nil, 0, err
	}

	limit, args := w.page(r.Limit, r.Offset)
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+bodyRecordColumns+" FROM body_records"+w.String()+" ORDER BY recorded_date DESC, id DESC"+limit, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("query body records: %w", err)
	}
	defer rows.Close()

	var records []model.BodyRecord
	for rows.Next() {
		rec, err := scanBodyRecord(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan body record: %w", err)
		}
		records = append(records, rec)
	}

	return records, total, rows.Err()
}

func (s *PostgresStore) InsertBodyRecord(ctx context.Context, r model.BodyRecord) (model.BodyRecord, error) {
	row := s.db.QueryRowContext(ctx,
		`INSERT INTO body_records (user_id, recorded_date, weight_kg, body_fat_percentage, muscle_mass_kg, notes)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING `+bodyRecordColumns,
		r.UserID, r.RecordedDate, r.WeightKg, r.BodyFatPercentage, r.MuscleMassKg, r.Notes)

	out, err := scanBodyRecord(row)
	if err != nil {
		return out, mapWriteErr(err, "insert body record")
	}

	return out, nil
}

func (s *PostgresStore) UpdateBodyRecord(ctx context.Context, r model.BodyRecord) (model.BodyRecord, error) {
	row := s.db.QueryRowContext(ctx,
		`UPDATE body_records
		 SET recorded_date=$2, weight_kg=$3, body_fat_percentage=$4, muscle_mass_kg=$5, notes=$6
		 WHERE id=$1
		 RETURNING `+bodyRecordColumns,
		r.ID, r.RecordedDate, r.WeightKg, r.BodyFatPercentage, r.MuscleMassKg, r.Notes)

	out, err := scanBodyRecord(row)
	if err != nil {
		return out, mapScanErr(err, "update body record")
	}

	return out, nil
}

func (s *PostgresStore) DeleteBodyRecord(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM body_records WHERE id=$1", id)
	if err != nil {
		return fmt.Errorf("delete body record: %w", err)
	}

	return expectAffected(res, "delete body record")
}

func (s *PostgresStore) GetWorkoutRecord(ctx context.Context, id int64) (model.WorkoutRecord, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+workoutRecordColumns+" FROM workout_records WHERE id=$1", id)

	r, err := scanWorkoutRecord(row)
	if err != nil {
		return r, mapScanErr(err, "get workout record")
	}

	return r, nil
}

func (s *PostgresStore) ListWorkoutRecords(ctx context.Context, r ListRecordsRequest) ([]model.WorkoutRecord, int, error) {
	w := recordFilter(r, "workout_date")

	total, err := s.count(ctx, "workout_records", w)
	if err != nil {
		return nil, 0, err
	}

	limit, args := w.page(r.Limit, r.Offset)
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+workoutRecordColumns+" FROM workout_records"+w.String()+" ORDER BY workout_date DESC, id DESC"+limit, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("query workout records: %w", err)
	}
	defer rows.Close()

	var records []model.WorkoutRecord
	for rows.Next() {
		rec, err := scanWorkoutRecord(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan workout record: %w", err)
		}
		records = append(records, rec)
	}

	return records, total, rows.Err()
}

func (s *PostgresStore) InsertWorkoutRecord(ctx context.Context, r model.WorkoutRecord) (model.WorkoutRecord, error) {
	row := s.db.QueryRowContext(ctx,
		`INSERT INTO workout_records (user_id, exercise_id, workout_date, sets_data, total_duration_minutes, notes)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING `+workoutRecordColumns,
		r.UserID, r.ExerciseID, r.WorkoutDate, nullJSON(r.SetsData), r.TotalDurationMinutes, r.Notes)

	out, err := scanWorkoutRecord(row)
	if err != nil {
		return out, mapWriteErr(err, "insert workout record")
	}

	return out, nil
}

func (s *PostgresStore) UpdateWorkoutRecord(ctx context.Context, r model.WorkoutRecord) (model.WorkoutRecord, error) {
	row := s.db.QueryRowContext(ctx,
		`UPDATE workout_records
		 SET exercise_id=$2, workout_date=$3, sets_data=$4, total_duration_minutes=$5, notes=$6
		 WHERE id=$1
		 RETURNING `+workoutRecordColumns,
		r.ID, r.ExerciseID, r.WorkoutDate, nullJSON(r.SetsData), r.TotalDurationMinutes, r.Notes)

	out, err := scanWorkoutRecord(row)
	if err != nil {
		return out, mapScanErr(err, "update workout record")
	}

	return out, nil
}

func (s *PostgresStore) DeleteWorkoutRecord(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM workout_records WHERE id=$1", id)
	if err != nil {
		return fmt.Errorf("delete workout record: %w", err)
	}

	return expectAffected(res, "delete workout record")
}

func (s *PostgresStore) WithRecordTx(ctx context.Context, fn func(tx RecordStore) error) error {
	return s.WithTx(ctx, func(tx *PostgresStore) error {
		return fn(tx)
	})
}
