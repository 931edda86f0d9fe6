package store

import (
	"context"
	"fmt"

	"github.com/gunheehan/FitnessPT-api/internal/services/fitness/internal/model"
)

const profileColumns = `user_id, birth_date, gender, height_cm, current_weight_kg, fitness_goal, fitness_level, created_at, updated_at`

func scanProfile(row scanner) (model.UserProfile, error) {
	var p model.UserProfile
	err := row.Scan(
		&p.UserID,
		&p.BirthDate,
		&p.Gender,
		&p.HeightCm,
		&p.CurrentWeightKg,
		&p.FitnessGoal,
		&p.FitnessLevel,
		&p.CreatedAt,
		&p.UpdatedAt)

	return p, err
}

func (s *PostgresStore) GetProfile(ctx context.Context, userID int64) (model.UserProfile, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+profileColumns+" FROM user_profiles WHERE user_id=$1", userID)

	p, err := scanProfile(row)
	if err != nil {
		return p, mapScanErr(err, "get profile")
	}

	return p, nil
}

// InsertProfile yields ErrExists when the user already has a profile and ErrNotFound
// when the user does not exist.
func (s *PostgresStore) InsertProfile(ctx context.Context, p model.UserProfile) (model.UserProfile, error) {
	row := s.db.QueryRowContext(ctx,
		`INSERT INTO user_profiles (user_id, birth_date, gender, height_cm, current_weight_kg, fitness_goal, fitness_level)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING `+profileColumns,
		p.UserID, p.BirthDate, p.Gender, p.HeightCm, p.CurrentWeightKg, p.FitnessGoal, p.FitnessLevel)

	out, err := scanProfile(row)
	if err != nil {
		return out, mapWriteErr(err, "insert profile")
	}

	return out, nil
}

func (s *PostgresStore) UpdateProfile(ctx context.Context, p model.UserProfile) (model.UserProfile, error) {
	row := s.db.QueryRowContext(ctx,
		`UPDATE user_profiles
		 SET birth_date=$2, gender=$3, height_cm=$4, current_weight_kg=$5, fitness_goal=$6, fitness_level=$7, updated_at=NOW()
		 WHERE user_id=$1
		 RETURNING `+profileColumns,
		p.UserID, p.BirthDate, p.Gender, p.HeightCm, p.CurrentWeightKg, p.FitnessGoal, p.FitnessLevel)

	out, err := scanProfile(row)
	if err != nil {
		return out, mapScanErr(err, "update profile")
	}

	return out, nil
}

func (s *PostgresStore) UpsertProfile(ctx context.Context, p model.UserProfile) (model.UserProfile, error) {
	row := s.db.QueryRowContext(ctx,
		`INSERT INTO user_profiles (user_id, birth_date, gender, height_cm, current_weight_kg, fitness_goal, fitness_level)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 ON CONFLICT (user_id) DO UPDATE
		 SET birth_date=EXCLUDED.birth_date, gender=EXCLUDED.gender, height_cm=EXCLUDED.height_cm,
		     current_weight_kg=EXCLUDED.current_weight_kg, fitness_goal=EXCLUDED.fitness_goal,
		     fitness_level=EXCLUDED.fitness_level, updated_at=NOW()
		 RETURNING `+profileColumns,
		p.UserID, p.BirthDate, p.Gender, p.HeightCm, p.CurrentWeightKg, p.FitnessGoal, p.FitnessLevel)

	out, err := scanProfile(row)
	if err != nil {
		return out, mapWriteErr(err, "upsert profile")
	}

	return out, nil
}

func (s *PostgresStore) DeleteProfile(ctx context.Context, userID int64) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM user_profiles WHERE user_id=$1", userID)
	if err != nil {
		return fmt.Errorf("delete profile: %w", err)
	}

	return expectAffected(res, "delete profile")
}
