package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gunheehan/FitnessPT-api/internal/services/fitness/internal/model"
	"github.com/gunheehan/FitnessPT-api/internal/services/fitness/internal/store"
)

const maxBulkRecords = 100

// Records keeps body measurements and workout logs. Members see only their own records.
type Records struct {
	store store.RecordStore
}

func NewRecords(st store.RecordStore) *Records {
	return &Records{store: st}
}

type ListRecordsRequest struct {
	PageRequest
	UserID     *int64
	ExerciseID *int64
	From       *time.Time
	To         *time.Time
}

// query resolves the user filter. Non-admins are limited to their own records.
func (r ListRecordsRequest) query(actor Actor) (store.ListRecordsRequest, error) {
	limit, offset, err := r.bounds()
	if err != nil {
		return store.ListRecordsRequest{}, err
	}

	if r.From != nil && r.To != nil && r.From.After(*r.To) {
		return store.ListRecordsRequest{}, invalid("from must not be after to")
	}

	userID := r.UserID
	if !actor.IsAdmin() {
		if userID == nil {
			userID = ptr(actor.UserID)
		}
		if *userID != actor.UserID {
			return store.ListRecordsRequest{}, forbidden().With("user_id", *userID)
		}
	}

	return store.ListRecordsRequest{
		UserID:     userID,
		ExerciseID: r.ExerciseID,
		From:       r.From,
		To:         r.To,
		Limit:      limit,
		Offset:     offset,
	}, nil
}

type BodyRecordInput struct {
	// UserID defaults to the caller.
	UserID            int64
	RecordedDate      time.Time
	WeightKg          *float64
	BodyFatPercentage *float64
	MuscleMassKg      *float64
	Notes             *string
}

func (in BodyRecordInput) record(actor Actor) (model.BodyRecord, error) {
	if in.UserID == 0 {
		in.UserID = actor.UserID
	}
	if !actor.CanAccessUser(in.UserID) {
		return model.BodyRecord{}, forbidden().With("user_id", in.UserID)
	}
	if in.RecordedDate.IsZero() {
		return model.BodyRecord{}, invalid("recorded date is required")
	}
	if in.BodyFatPercentage != nil && *in.BodyFatPercentage > 100 {
		return model.BodyRecord{}, invalid("body fat percentage must be at most 100")
	}
	if err := firstErr(
		nonNegative("weight", in.WeightKg),
		nonNegative("body fat percentage", in.BodyFatPercentage),
		nonNegative("muscle mass", in.MuscleMassKg),
	); err != nil {
		return model.BodyRecord{}, err
	}

	return model.BodyRecord{
		UserID:            in.UserID,
		RecordedDate:      in.RecordedDate,
		WeightKg:          in.WeightKg,
		BodyFatPercentage: in.BodyFatPercentage,
		MuscleMassKg:      in.MuscleMassKg,
		Notes:             in.Notes,
	}, nil
}

func (s *Records) ListBodyRecords(ctx context.Context, actor Actor, r ListRecordsRequest) (model.Page[model.BodyRecord], error) {
	q, err := r.query(actor)
	if err != nil {
		return model.Page[model.BodyRecord]{}, err
	}

	items, total, err := s.store.ListBodyRecords(ctx, q)
	if err != nil {
		return model.Page[model.BodyRecord]{}, fmt.Errorf("list body records: %w", err)
	}

	return model.NewPage(items, r.Page, r.PageSize, total), nil
}

func (s *Records) LatestBodyRecord(ctx context.Context, actor Actor, userID int64) (model.BodyRecord, error) {
	if !actor.CanAccessUser(userID) {
		return model.BodyRecord{}, forbidden().With("user_id", userID)
	}

	rec, err := s.store.LatestBodyRecord(ctx, userID)
	return rec, storeErr(err, "body record", nil)
}

func (s *Records) GetBodyRecord(ctx context.Context, actor Actor, id int64) (model.BodyRecord, error) {
	rec, err := s.store.GetBodyRecord(ctx, id)
	if err != nil {
		return model.BodyRecord{}, storeErr(err, "body record", id)
	}
	if !actor.CanAccessUser(rec.UserID) {
		return model.BodyRecord{}, forbidden().With("body_record_id", id)
	}

	return rec, nil
}

func (s *Records) CreateBodyRecord(ctx context.Context, actor Actor, in BodyRecordInput) (model.BodyRecord, error) {
	rec, err := in.record(actor)
	if err != nil {
		return model.BodyRecord{}, err
	}

	rec, err = s.store.InsertBodyRecord(ctx, rec)
	return rec, storeErr(err, "user", in.UserID)
}

// BulkCreateBodyRecords stores all records in one transaction.
func (s *Records) BulkCreateBodyRecords(ctx context.Context, actor Actor, in []BodyRecordInput) ([]model.BodyRecord, error) {
	if err := bulkSize(len(in)); err != nil {
		return nil, err
	}

	recs := make([]model.BodyRecord, len(in))
	for i, r := range in {
		rec, err := r.record(actor)
		if err != nil {
			return nil, err
		}
		recs[i] = rec
	}

	err := s.store.WithRecordTx(ctx, func(tx store.RecordStore) error {
		for i := range recs {
			rec, err := tx.InsertBodyRecord(ctx, recs[i])
			if err != nil {
				return storeErr(err, "user", recs[i].UserID)
			}
			recs[i] = rec
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return recs, nil
}

// UpdateBodyRecord overwrites the measurements. The owner cannot change.
func (s *Records) UpdateBodyRecord(ctx context.Context, actor Actor, id int64, in BodyRecordInput) (model.BodyRecord, error) {
	cur, err := s.GetBodyRecord(ctx, actor, id)
	if err != nil {
		return model.BodyRecord{}, err
	}

	in.UserID = cur.UserID
	rec, err := in.record(actor)
	if err != nil {
		return model.BodyRecord{}, err
	}
	rec.ID = id

	rec, err = s.store.UpdateBodyRecord(ctx, rec)
	return rec, storeErr(err, "body record", id)
}

func (s *Records) DeleteBodyRecord(ctx context.Context, actor Actor, id int64) error {
	if _, err := s.GetBodyRecord(ctx, actor, id); err != nil {
		return err
	}

	return storeErr(s.store.DeleteBodyRecord(ctx, id), "body record", id)
}

type WorkoutRecordInput struct {
	// UserID defaults to the caller.
	UserID               int64
	ExerciseID           *int64
	WorkoutDate          time.Time
	SetsData             json.RawMessage
	TotalDurationMinutes *int
	Notes                *string
}

func (in WorkoutRecordInput) record(actor Actor) (model.WorkoutRecord, error) {
	if in.UserID == 0 {
		in.UserID = actor.UserID
	}
	if !actor.CanAccessUser(in.UserID) {
		return model.WorkoutRecord{}, forbidden().With("user_id", in.UserID)
	}
	if in.WorkoutDate.IsZero() {
		return model.WorkoutRecord{}, invalid("workout date is required")
	}
	if in.ExerciseID != nil && *in.ExerciseID <= 0 {
		return model.WorkoutRecord{}, invalid("exercise id must be greater than 0")
	}
	if in.TotalDurationMinutes != nil && *in.TotalDurationMinutes < 0 {
		return model.WorkoutRecord{}, invalid("total duration must not be negative")
	}
	if len(in.SetsData) > 0 && !json.Valid(in.SetsData) {
		return model.WorkoutRecord{}, invalid("sets data must be valid json")
	}

	return model.WorkoutRecord{
		UserID:               in.UserID,
		ExerciseID:           in.ExerciseID,
		WorkoutDate:          in.WorkoutDate,
		SetsData:             in.SetsData,
		TotalDurationMinutes: in.TotalDurationMinutes,
		Notes:                in.Notes,
	}, nil
}

func (s *Records) ListWorkoutRecords(ctx context.Context, actor Actor, r ListRecordsRequest) (model.Page[model.WorkoutRecord], error) {
	q, err := r.query(actor)
	if err != nil {
		return model.Page[model.WorkoutRecord]{}, err
	}

	items, total, err := s.store.ListWorkoutRecords(ctx, q)
	if err != nil {
		return model.Page[model.WorkoutRecord]{}, fmt.Errorf("list workout records: %w", err)
	}

	return model.NewPage(items, r.Page, r.PageSize, total), nil
}

func (s *Records) GetWorkoutRecord(ctx context.Context, actor Actor, id int64) (model.WorkoutRecord, error) {
	rec, err := s.store.GetWorkoutRecord(ctx, id)
	if err != nil {
		return model.WorkoutRecord{}, storeErr(err, "workout record", id)
	}
	if !actor.CanAccessUser(rec.UserID) {
		return model.WorkoutRecord{}, forbidden().With("workout_record_id", id)
	}

	return rec, nil
}

func (s *Records) CreateWorkoutRecord(ctx context.Context, actor Actor, in WorkoutRecordInput) (model.WorkoutRecord, error) {
	rec, err := in.record(actor)
	if err != nil {
		return model.WorkoutRecord{}, err
	}

	rec, err = s.store.InsertWorkoutRecord(ctx, rec)
	return rec, storeErr(err, "user or exercise", nil)
}

// BulkCreateWorkoutRecords stores all records in one transaction.
func (s *Records) BulkCreateWorkoutRecords(ctx context.Context, actor Actor, in []WorkoutRecordInput) ([]model.WorkoutRecord, error) {
	if err := bulkSize(len(in)); err != nil {
		return nil, err
	}

	recs := make([]model.WorkoutRecord, len(in))
	for i, r := range in {
		rec, err := r.record(actor)
		if err != nil {
			return nil, err
		}
		recs[i] = rec
	}

	err := s.store.WithRecordTx(ctx, func(tx store.RecordStore) error {
		for i := range recs {
			rec, err := tx.InsertWorkoutRecord(ctx, recs[i])
			if err != nil {
				return storeErr(err, "user or exercise", nil)
			}
			recs[i] = rec
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return recs, nil
}

func (s *Records) UpdateWorkoutRecord(ctx context.Context, actor Actor, id int64, in WorkoutRecordInput) (model.WorkoutRecord, error) {
	cur, err := s.GetWorkoutRecord(ctx, actor, id)
	if err != nil {
		return model.WorkoutRecord{}, err
	}

	in.UserID = cur.UserID
	rec, err := in.record(actor)
	if err != nil {
		return model.WorkoutRecord{}, err
	}
	rec.ID = id

	rec, err = s.store.UpdateWorkoutRecord(ctx, rec)
	return rec, storeErr(err, "workout record", id)
}

func (s *Records) DeleteWorkoutRecord(ctx context.Context, actor Actor, id int64) error {
	if _, err := s.GetWorkoutRecord(ctx, actor, id); err != nil {
		return err
	}

	return storeErr(s.store.DeleteWorkoutRecord(ctx, id), "workout record", id)
}

func bulkSize(n int) error {
	if n == 0 {
		return invalid("at least one record is required")
	}
	if n > maxBulkRecords {
		return invalid("at most %d records per request", maxBulkRecords)
	}
	return nil
}

func firstErr(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}
