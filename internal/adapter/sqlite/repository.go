package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"time"

	"github.com/neomorfeo/gardeniq/internal/domain"
	"github.com/pressly/goose/v3"

	_ "modernc.org/sqlite" // Register SQLite driver.
)

//go:embed migrations/*.sql
var migrations embed.FS

// JournalRepository implements domain.EventJournal using SQLite.
type JournalRepository struct {
	db *sql.DB
}

// Compile-time check: JournalRepository implements domain.EventJournal.
var _ domain.EventJournal = (*JournalRepository)(nil)

// New opens a SQLite database, runs migrations, and returns a ready repository.
func New(dataSourceName string) (*JournalRepository, error) {
	db, err := sql.Open("sqlite", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// In-memory databases exist per connection.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return nil, fmt.Errorf("setting WAL mode: %w", err)
	}

	return NewFromDB(db)
}

// NewFromDB wraps an existing database connection, runs migrations, and returns a ready repository.
// Use this when the *sql.DB has been pre-configured (e.g., with otelsql instrumentation).
func NewFromDB(db *sql.DB) (*JournalRepository, error) {
	if err := runMigrations(db); err != nil {
		return nil, err
	}

	return &JournalRepository{db: db}, nil
}

// Close closes the underlying database connection.
func (r *JournalRepository) Close() error {
	return r.db.Close()
}

// DB returns the underlying database connection for use by other adapters (e.g., river).
func (r *JournalRepository) DB() *sql.DB {
	return r.db
}

func runMigrations(db *sql.DB) error {
	goose.SetBaseFS(migrations)

	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("setting goose dialect: %w", err)
	}

	if err := goose.Up(db, "migrations"); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}

	return nil
}

// Append stores an event. Appending an event ID twice is a no-op, so a
// retried journal job never duplicates history.
func (r *JournalRepository) Append(ctx context.Context, e domain.Event) error {
	var bed, section sql.NullInt64
	if e.Slot != nil {
		bed = sql.NullInt64{Int64: int64(e.Slot.Bed), Valid: true}
		section = sql.NullInt64{Int64: int64(e.Slot.Section), Valid: true}
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO events (id, kind, occurred_at, garden_date, version, bed, section, plant, state, count)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (id) DO NOTHING`,
		e.ID, string(e.Kind),
		e.OccurredAt.UTC().Format(time.RFC3339Nano),
		e.GardenDate.UTC().Format(time.RFC3339Nano),
		int64(e.Version), bed, section,
		string(e.Plant), string(e.State), e.Count,
	)
	if err != nil {
		return fmt.Errorf("inserting event: %w", err)
	}
	return nil
}

// List returns journal entries, newest first.
func (r *JournalRepository) List(ctx context.Context, filter domain.JournalFilter) ([]domain.Event, error) {
	query := `SELECT id, kind, occurred_at, garden_date, version, bed, section, plant, state, count FROM events`
	var args []any

	if filter.Kind != nil {
		query += ` WHERE kind = ?`
		args = append(args, string(*filter.Kind))
	}

	query += ` ORDER BY seq DESC`

	// SQLite requires a LIMIT before OFFSET; -1 means unbounded.
	if filter.Limit > 0 || filter.Offset > 0 {
		limit := filter.Limit
		if limit <= 0 {
			limit = -1
		}
		query += ` LIMIT ? OFFSET ?`
		args = append(args, limit, filter.Offset)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing events: %w", err)
	}
	defer rows.Close()

	var events []domain.Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, e)
	}

	return events, rows.Err()
}

// scanEvent scans a single row from Rows into a domain.Event.
func scanEvent(rows *sql.Rows) (domain.Event, error) {
	var e domain.Event
	var kind, occurredAt, gardenDate, plant, state string
	var version int64
	var bed, section sql.NullInt64

	err := rows.Scan(&e.ID, &kind, &occurredAt, &gardenDate, &version, &bed, &section, &plant, &state, &e.Count)
	if err != nil {
		return domain.Event{}, fmt.Errorf("scanning event row: %w", err)
	}

	e.Kind = domain.EventKind(kind)
	e.Version = uint64(version)
	e.Plant = domain.PlantKind(plant)
	e.State = domain.PlantState(state)
	e.OccurredAt, _ = time.Parse(time.RFC3339Nano, occurredAt)
	e.GardenDate, _ = time.Parse(time.RFC3339Nano, gardenDate)
	if bed.Valid && section.Valid {
		e.Slot = &domain.Slot{Bed: int(bed.Int64), Section: int(section.Int64)}
	}

	return e, nil
}
