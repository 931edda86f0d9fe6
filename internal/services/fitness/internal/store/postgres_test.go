package store

import (
	"context"
	"database/sql"
	"log"
	"os"
	"testing"
	"time"

	testdb "github.com/gunheehan/FitnessPT-api/internal/pkg/test/db"
	"github.com/gunheehan/FitnessPT-api/internal/services/fitness/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	db  *sql.DB
	pgs *PostgresStore
)

const migrationsFolder = "../../db/migrations"

func TestMain(m *testing.M) {
	res, close := testdb.StartPostgres(context.Background(), testdb.PostgresStartRequest{
		User:     "test",
		Password: "test",
		DB:       "test",
	})

	var err error
	db, err = NewPostgresDB(context.Background(), PostgresConfig{DSN: res.DSN()})
	if err != nil {
		close()
		log.Fatal("failed to connect to postgres:", err)
	}

	pgs = NewPostgresStore(db)
	code := m.Run()
	close()
	os.Exit(code)
}

func ptr[T any](v T) *T {
	return &v
}

func TestCreateUser(t *testing.T) {
	testdb.RunMigrations(t, db, migrationsFolder)

	u, err := pgs.CreateUser(t.Context(), CreateUserRequest{
		GoogleID: ptr("google-1"),
		Email:    "test@example.com",
		Name:     "Test User",
		Role:     model.RoleMember,
		IsActive: true,
	})
	require.NoError(t, err)

	assert.NotZero(t, u.ID)
	assert.Equal(t, "google-1", *u.GoogleID)
	assert.Equal(t, model.RoleMember, u.Role)
	assert.Nil(t, u.ProfileImageURL)
	assert.Nil(t, u.LastLoginAt)

	got, err := pgs.GetUserByGoogleID(t.Context(), "google-1")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)
}

func TestCreateUser_DuplicateEmail(t *testing.T) {
	testdb.RunMigrations(t, db, migrationsFolder)

	_, err := pgs.CreateUser(t.Context(), CreateUserRequest{Email: "a@b.com", Name: "A", Role: model.RoleMember})
	require.NoError(t, err)

	_, err = pgs.CreateUser(t.Context(), CreateUserRequest{Email: "a@b.com", Name: "B", Role: model.RoleMember})
	assert.ErrorIs(t, err, ErrExists)
}

func TestGetUser_NotFound(t *testing.T) {
	testdb.RunMigrations(t, db, migrationsFolder)

	_, err := pgs.GetUser(t.Context(), 404)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = pgs.GetUserByGoogleID(t.Context(), "nobody")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateUser_AndDeactivate(t *testing.T) {
	testdb.RunMigrations(t, db, migrationsFolder)

	u, err := pgs.CreateUser(t.Context(), CreateUserRequest{Email: "a@b.com", Name: "A", Role: model.RoleMember, IsActive: true})
	require.NoError(t, err)

	u, err = pgs.UpdateUser(t.Context(), UpdateUserRequest{
		ID:              u.ID,
		Email:           u.Email,
		Name:            "Renamed",
		ProfileImageURL: ptr("http://example.com/p.png"),
		Role:            model.RoleTrainer,
		IsActive:        true,
	})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", u.Name)
	assert.Equal(t, model.RoleTrainer, u.Role)

	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	require.NoError(t, pgs.TouchLastLogin(t.Context(), u.ID, at))
	require.NoError(t, pgs.SetUserActive(t.Context(), u.ID, false))

	u, err = pgs.GetUser(t.Context(), u.ID)
	require.NoError(t, err)
	assert.False(t, u.IsActive)
	require.NotNil(t, u.LastLoginAt)
	assert.True(t, at.Equal(*u.LastLoginAt))

	assert.ErrorIs(t, pgs.SetUserActive(t.Context(), 999, false), ErrNotFound)
}

func TestListUsers(t *testing.T) {
	testdb.RunMigrations(t, db, migrationsFolder)

	for _, email := range []string{"ann@x.com", "bob@x.com", "bea@x.com"} {
		_, err := pgs.CreateUser(t.Context(), CreateUserRequest{Email: email, Name: email, Role: model.RoleMember, IsActive: true})
		require.NoError(t, err)
	}

	users, total, err := pgs.ListUsers(t.Context(), ListUsersRequest{Search: "b", Limit: 1, Offset: 0})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	assert.Len(t, users, 1)
}
