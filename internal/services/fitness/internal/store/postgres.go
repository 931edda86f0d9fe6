package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/lib/pq"
)

const (
	errUniqueViolation     pq.ErrorCode = "23505"
	errForeignKeyViolation pq.ErrorCode = "23503"
	errCheckViolation      pq.ErrorCode = "23514"
)

// dbtx defines the interface for database and transactions
type dbtx interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

type scanner interface {
	Scan(dest ...any) error
}

// PostgresConfig holds the configuration for connecting to a Postgres database
type PostgresConfig struct {
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// PostgresStore implements the Store interface using a Postgres database
type PostgresStore struct {
	db         dbtx
	savepoints int
}

// NewPostgresDB opens a connection pool and makes sure the database is reachable
func NewPostgresDB(ctx context.Context, cfg PostgresConfig) (*sql.DB, error) {
	db, err := sql.Open("postgres", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}

	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	return db, nil
}

// Migrate applies all pending migrations found in dir
func Migrate(db *sql.DB, dir string) error {
	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance("file://"+dir, "postgres", driver)
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migrate up: %w", err)
	}

	return nil
}

var _ Store = (*PostgresStore)(nil)

// NewPostgresStore creates a new PostgresStore instance
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	db, ok := s.db.(*sql.DB)
	if !ok {
		return nil
	}

	return db.PingContext(ctx)
}

// WithTx executes the given function within a database transaction
func (s *PostgresStore) WithTx(ctx context.Context, fn func(tx *PostgresStore) error) error {
	db, ok := s.db.(*sql.DB)
	if !ok {
		return fn(s)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	sx := &PostgresStore{db: tx}
	if err = fn(sx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("rollback: %v after: %w", rbErr, err)
		}

		return err
	}

	if err = tx.Commit(); err != nil {
		return mapWriteErr(err, "commit")
	}

	return nil
}

// Savepoint runs fn so that a failure inside it only rolls back the work fn did.
// Outside of a transaction fn is simply called.
func (s *PostgresStore) Savepoint(ctx context.Context, fn func() error) error {
	if _, ok := s.db.(*sql.Tx); !ok {
		return fn()
	}

	s.savepoints++
	name := fmt.Sprintf("sp_%d", s.savepoints)
	if _, err := s.db.ExecContext(ctx, "SAVEPOINT "+name); err != nil {
		return fmt.Errorf("savepoint: %w", err)
	}

	if err := fn(); err != nil {
		if _, rbErr := s.db.ExecContext(ctx, "ROLLBACK TO SAVEPOINT "+name); rbErr != nil {
			return fmt.Errorf("rollback to savepoint: %v after: %w", rbErr, err)
		}
		return err
	}

	if _, err := s.db.ExecContext(ctx, "RELEASE SAVEPOINT "+name); err != nil {
		return fmt.Errorf("release savepoint: %w", err)
	}

	return nil
}

func isPqErr(err error, code pq.ErrorCode) bool {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return false
	}

	return pqErr.Code == code
}

// mapWriteErr translates constraint violations of inserts and updates into store errors.
func mapWriteErr(err error, op string) error {
	switch {
	case isPqErr(err, errUniqueViolation):
		return fmt.Errorf("%s: %w", op, ErrExists)
	case isPqErr(err, errForeignKeyViolation):
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	case isPqErr(err, errCheckViolation):
		return fmt.Errorf("%s: %w", op, ErrInvalid)
	}

	return fmt.Errorf("%s: %w", op, err)
}

// mapDeleteErr translates a foreign key violation on delete into ErrInUse.
func mapDeleteErr(err error, op string) error {
	if isPqErr(err, errForeignKeyViolation) {
		return fmt.Errorf("%s: %w", op, ErrInUse)
	}

	return fmt.Errorf("%s: %w", op, err)
}

func mapScanErr(err error, op string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}

	return mapWriteErr(err, op)
}

func expectAffected(res sql.Result, op string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		return ErrNotFound
	}

	return nil
}

// where accumulates AND-ed conditions with positional arguments.
type where struct {
	conds []string
	args  []any
}

// add appends a condition; every %d in cond is replaced with the argument position.
func (w *where) add(cond string, arg any) {
	w.args = append(w.args, arg)
	n := len(w.args)
	w.conds = append(w.conds, strings.ReplaceAll(cond, "%d", fmt.Sprint(n)))
}

func (w *where) String() string {
	if len(w.conds) == 0 {
		return ""
	}

	return " WHERE " + strings.Join(w.conds, " AND ")
}

// page appends LIMIT/OFFSET placeholders and returns the clause and the full arg list.
func (w *where) page(limit, offset int) (string, []any) {
	args := append(append([]any{}, w.args...), limit, offset)
	return fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)-1, len(args)), args
}

func (s *PostgresStore) count(ctx context.Context, table string, w *where) (int, error) {
	var total int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+table+w.String(), w.args...).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("count %s: %w", table, err)
	}

	return total, nil
}

func nullJSON(b []byte) any {
	if len(b) == 0 {
		return nil
	}

	return string(b)
}
