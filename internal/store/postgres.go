package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/ayush/app-store/backend/internal/models"
	"github.com/ayush/app-store/backend/internal/store/migrations"
)

var (
	ErrNotFound  = errors.New("not found")
	ErrDuplicate = errors.New("already exists")
	ErrTooLong   = errors.New("value too long")
)

const (
	uniqueViolation      = "23505"
	stringDataTruncation = "22001"
)

// DBTX is the subset of *pgxpool.Pool and pgx.Tx used by queries.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Pool is a DBTX that can also open transactions.
type Pool interface {
	DBTX
	Begin(ctx context.Context) (pgx.Tx, error)
}

// PostgresStore handles users and listings in PostgreSQL.
type PostgresStore struct {
	db Pool
}

func NewPostgresStore(db Pool) *PostgresStore {
	return &PostgresStore{db: db}
}

// withTx runs fn in a transaction, committing on success and rolling back
// on error or panic.
func (s *PostgresStore) withTx(ctx context.Context, fn func(tx DBTX) error) (err error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback(ctx)
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback(ctx)
			return
		}
		if cerr := tx.Commit(ctx); cerr != nil {
			err = fmt.Errorf("commit: %w", cerr)
		}
	}()

	return fn(tx)
}

// Migrate applies the embedded goose migrations through a database/sql
// handle borrowed from the pool.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	db := stdlib.OpenDBFromPool(pool)
	defer db.Close()

	goose.SetBaseFS(migrations.FS)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("goose dialect: %w", err)
	}
	if err := goose.UpContext(ctx, db, "."); err != nil {
		return fmt.Errorf("goose up: %w", err)
	}
	return nil
}

// CreateUser inserts a user. A taken email yields ErrDuplicate; the unique
// constraint is the only uniqueness check.
func (s *PostgresStore) CreateUser(ctx context.Context, name, email, hashedPassword string) (*models.User, error) {
	var u models.User
	err := s.db.QueryRow(ctx,
		`INSERT INTO users (name, email, password)
		 VALUES ($1, $2, $3)
		 RETURNING id, name, email, created_at`,
		name, email, hashedPassword,
	).Scan(&u.ID, &u.Name, &u.Email, &u.CreatedAt)
	if err != nil {
		switch pgCode(err) {
		case uniqueViolation:
			return nil, ErrDuplicate
		case stringDataTruncation:
			return nil, ErrTooLong
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	return &u, nil
}

func (s *PostgresStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	err := s.db.QueryRow(ctx,
		`SELECT id, name, email, password, created_at FROM users WHERE email = $1`, email,
	).Scan(&u.ID, &u.Name, &u.Email, &u.Password, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get user by email: %w", err)
	}
	return &u, nil
}

// CreateListing inserts a listing owned by ownerID and returns the stored row.
func (s *PostgresStore) CreateListing(ctx context.Context, ownerID int64, req models.PublishRequest) (*models.Listing, error) {
	row := s.db.QueryRow(ctx,
		`INSERT INTO apps (name, description, image, link, user_id)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, name, description, image, link, user_id, created_at`,
		req.Name, req.Description, req.Image, req.Link, ownerID,
	)
	l, err := scanListing(row)
	if err != nil {
		if pgCode(err) == stringDataTruncation {
			return nil, ErrTooLong
		}
		return nil, fmt.Errorf("create listing: %w", err)
	}
	return l, nil
}

// ListListings returns listings in insertion order. With ownedOnly set,
// seeded listings are left out.
func (s *PostgresStore) ListListings(ctx context.Context, ownedOnly bool) ([]models.Listing, error) {
	q := `SELECT id, name, description, image, link, user_id, created_at FROM apps`
	if ownedOnly {
		q += ` WHERE user_id IS NOT NULL`
	}
	q += ` ORDER BY id`

	rows, err := s.db.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list listings: %w", err)
	}
	defer rows.Close()

	listings := []models.Listing{}
	for rows.Next() {
		l, err := scanListing(rows)
		if err != nil {
			return nil, fmt.Errorf("list listings: %w", err)
		}
		listings = append(listings, *l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list listings: %w", err)
	}
	return listings, nil
}

// SeedListings inserts unowned catalog listings unless some already exist.
// The check and the inserts share one transaction, so a failed seed leaves
// no partial catalog behind. It returns the number of rows inserted.
func (s *PostgresStore) SeedListings(ctx context.Context, seeds []models.PublishRequest) (int, error) {
	inserted := 0
	err := s.withTx(ctx, func(tx DBTX) error {
		var exists bool
		if err := tx.QueryRow(ctx,
			`SELECT EXISTS (SELECT 1 FROM apps WHERE user_id IS NULL)`,
		).Scan(&exists); err != nil {
			return fmt.Errorf("check seeds: %w", err)
		}
		if exists {
			return nil
		}

		for _, seed := range seeds {
			if _, err := tx.Exec(ctx,
				`INSERT INTO apps (name, description, image, link) VALUES ($1, $2, $3, $4)`,
				seed.Name, seed.Description, seed.Image, seed.Link,
			); err != nil {
				return fmt.Errorf("seed listing %q: %w", seed.Name, err)
			}
		}
		inserted = len(seeds)
		return nil
	})
	if err != nil {
		return 0, err
	}
	return inserted, nil
}

func scanListing(row pgx.Row) (*models.Listing, error) {
	var (
		l     models.Listing
		owner pgtype.Int8
	)
	if err := row.Scan(&l.ID, &l.Name, &l.Description, &l.Image, &l.Link, &owner, &l.CreatedAt); err != nil {
		return nil, err
	}
	if owner.Valid {
		id := owner.Int64
		l.UserID = &id
	}
	return &l, nil
}

// pgCode returns the SQLSTATE of a PostgreSQL error, or "" for other errors.
func pgCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}
