/*
Package sqlite provides the SQLite-backed implementation of the storage
interfaces.

PURPOSE:
  Implements allocation.Store and tasks.ScheduleStore over SQLite. The
  same patterns apply to PostgreSQL - only minor SQL dialect differences.

KEY TABLES:
  users:          the request pool
  requests:       one row per (user_id, date), upserted on save
  reservations:   guaranteed claims per (user_id, date)
  configuration:  the single active capacity configuration
  schedules:      one row per task type with its next due instant
  bank_holidays:  dates excluded from business-day arithmetic

UPSERT SEMANTICS:
  SaveRequests writes the changed records in one transaction using
  INSERT .. ON CONFLICT(user_id, date) DO UPDATE; a promotion fully
  replaces the prior record for its (user, date) pair.

WAL MODE:
  SQLite is opened with WAL for better concurrency: readers don't block,
  single writer at a time, better crash recovery.

MIGRATION:
  Schema is auto-migrated on New(). For production, use a proper
  migration tool (golang-migrate, goose) with versioned migrations.

SEE ALSO:
  - allocation/store.go: interface definitions
  - store/memory: in-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/paulbulman/Parking-sub001/allocation"
	"github.com/paulbulman/Parking-sub001/calendar"
	"github.com/paulbulman/Parking-sub001/tasks"
)

// Store implements all storage interfaces using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error { return s.db.Close() }

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS users (
		id               TEXT PRIMARY KEY,
		first_name       TEXT NOT NULL,
		last_name        TEXT NOT NULL,
		email_address    TEXT NOT NULL,
		commute_distance TEXT,
		is_team_leader   INTEGER NOT NULL DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS requests (
		user_id TEXT NOT NULL REFERENCES users(id),
		date    TEXT NOT NULL,
		status  TEXT NOT NULL,
		PRIMARY KEY (user_id, date)
	);
	CREATE INDEX IF NOT EXISTS idx_requests_date ON requests(date);

	CREATE TABLE IF NOT EXISTS reservations (
		user_id TEXT NOT NULL REFERENCES users(id),
		date    TEXT NOT NULL,
		PRIMARY KEY (user_id, date)
	);
	CREATE INDEX IF NOT EXISTS idx_reservations_date ON reservations(date);

	CREATE TABLE IF NOT EXISTS configuration (
		id                INTEGER PRIMARY KEY CHECK (id = 1),
		nearby_distance   TEXT NOT NULL,
		reservable_spaces INTEGER NOT NULL,
		total_spaces      INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS schedules (
		task_type     TEXT PRIMARY KEY,
		next_run_time TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS bank_holidays (
		date TEXT PRIMARY KEY
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// REQUESTS
// =============================================================================

func (s *Store) RequestsInRange(ctx context.Context, from, to calendar.Date) ([]allocation.Request, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT user_id, date, status FROM requests
		 WHERE date >= ? AND date <= ?
		 ORDER BY date, user_id`,
		from.String(), to.String())
	if err != nil {
		return nil, fmt.Errorf("failed to query requests: %w", err)
	}
	defer rows.Close()

	var out []allocation.Request
	for rows.Next() {
		var userID, date, status string
		if err := rows.Scan(&userID, &date, &status); err != nil {
			return nil, fmt.Errorf("failed to scan request: %w", err)
		}
		d, err := calendar.ParseDate(date)
		if err != nil {
			return nil, err
		}
		out = append(out, allocation.Request{
			UserID: allocation.UserID(userID),
			Date:   d,
			Status: allocation.RequestStatus(status),
		})
	}
	return out, rows.Err()
}

func (s *Store) SaveRequests(ctx context.Context, requests []allocation.Request) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO requests (user_id, date, status) VALUES (?, ?, ?)
		 ON CONFLICT(user_id, date) DO UPDATE SET status = excluded.status`)
	if err != nil {
		return fmt.Errorf("failed to prepare upsert: %w", err)
	}
	defer stmt.Close()

	for _, r := range requests {
		if _, err := stmt.ExecContext(ctx, string(r.UserID), r.Date.String(), string(r.Status)); err != nil {
			return fmt.Errorf("failed to upsert request %s/%s: %w", r.UserID, r.Date, err)
		}
	}
	return tx.Commit()
}

// =============================================================================
// RESERVATIONS
// =============================================================================

func (s *Store) ReservationsInRange(ctx context.Context, from, to calendar.Date) ([]allocation.Reservation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT user_id, date FROM reservations
		 WHERE date >= ? AND date <= ?
		 ORDER BY date, user_id`,
		from.String(), to.String())
	if err != nil {
		return nil, fmt.Errorf("failed to query reservations: %w", err)
	}
	defer rows.Close()

	var out []allocation.Reservation
	for rows.Next() {
		var userID, date string
		if err := rows.Scan(&userID, &date); err != nil {
			return nil, fmt.Errorf("failed to scan reservation: %w", err)
		}
		d, err := calendar.ParseDate(date)
		if err != nil {
			return nil, err
		}
		out = append(out, allocation.Reservation{UserID: allocation.UserID(userID), Date: d})
	}
	return out, rows.Err()
}

func (s *Store) SaveReservation(ctx context.Context, res allocation.Reservation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO reservations (user_id, date) VALUES (?, ?)
		 ON CONFLICT(user_id, date) DO NOTHING`,
		string(res.UserID), res.Date.String())
	if err != nil {
		return fmt.Errorf("failed to save reservation: %w", err)
	}
	return nil
}

// =============================================================================
// USERS
// =============================================================================

func (s *Store) Users(ctx context.Context) ([]allocation.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, first_name, last_name, email_address, commute_distance, is_team_leader
		 FROM users ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	defer rows.Close()

	var out []allocation.User
	for rows.Next() {
		var u allocation.User
		var id string
		var distance sql.NullString
		var teamLeader int
		if err := rows.Scan(&id, &u.FirstName, &u.LastName, &u.EmailAddress, &distance, &teamLeader); err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		u.ID = allocation.UserID(id)
		u.IsTeamLeader = teamLeader != 0
		if distance.Valid {
			d, err := decimal.NewFromString(distance.String)
			if err != nil {
				return nil, fmt.Errorf("user %s has invalid commute distance: %w", id, err)
			}
			u.CommuteDistance = decimal.NewNullDecimal(d)
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

// SaveUser upserts a user record.
func (s *Store) SaveUser(ctx context.Context, u allocation.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var distance interface{}
	if u.CommuteDistance.Valid {
		distance = u.CommuteDistance.Decimal.String()
	}
	teamLeader := 0
	if u.IsTeamLeader {
		teamLeader = 1
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO users (id, first_name, last_name, email_address, commute_distance, is_team_leader)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
			first_name = excluded.first_name,
			last_name = excluded.last_name,
			email_address = excluded.email_address,
			commute_distance = excluded.commute_distance,
			is_team_leader = excluded.is_team_leader`,
		string(u.ID), u.FirstName, u.LastName, u.EmailAddress, distance, teamLeader)
	if err != nil {
		return fmt.Errorf("failed to save user: %w", err)
	}
	return nil
}

// =============================================================================
// CONFIGURATION
// =============================================================================

func (s *Store) Configuration(ctx context.Context) (*allocation.Configuration, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx,
		`SELECT nearby_distance, reservable_spaces, total_spaces FROM configuration WHERE id = 1`)

	var nearby string
	var cfg allocation.Configuration
	if err := row.Scan(&nearby, &cfg.ReservableSpaces, &cfg.TotalSpaces); err != nil {
		if err == sql.ErrNoRows {
			return nil, allocation.ErrNoConfiguration
		}
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	d, err := decimal.NewFromString(nearby)
	if err != nil {
		return nil, fmt.Errorf("configuration has invalid nearby distance: %w", err)
	}
	cfg.NearbyDistance = d
	return &cfg, nil
}

// SaveConfiguration replaces the single active configuration row.
func (s *Store) SaveConfiguration(ctx context.Context, cfg allocation.Configuration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO configuration (id, nearby_distance, reservable_spaces, total_spaces)
		 VALUES (1, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
			nearby_distance = excluded.nearby_distance,
			reservable_spaces = excluded.reservable_spaces,
			total_spaces = excluded.total_spaces`,
		cfg.NearbyDistance.String(), cfg.ReservableSpaces, cfg.TotalSpaces)
	if err != nil {
		return fmt.Errorf("failed to save configuration: %w", err)
	}
	return nil
}

// =============================================================================
// SCHEDULES
// =============================================================================

func (s *Store) Schedules(ctx context.Context) ([]tasks.Schedule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT task_type, next_run_time FROM schedules ORDER BY task_type`)
	if err != nil {
		return nil, fmt.Errorf("failed to query schedules: %w", err)
	}
	defer rows.Close()

	var out []tasks.Schedule
	for rows.Next() {
		var taskType, nextRun string
		if err := rows.Scan(&taskType, &nextRun); err != nil {
			return nil, fmt.Errorf("failed to scan schedule: %w", err)
		}
		at, err := time.Parse(time.RFC3339, nextRun)
		if err != nil {
			return nil, fmt.Errorf("schedule %s has invalid next run time: %w", taskType, err)
		}
		out = append(out, tasks.Schedule{TaskType: tasks.TaskType(taskType), NextRunTime: at})
	}
	return out, rows.Err()
}

func (s *Store) SaveSchedule(ctx context.Context, schedule tasks.Schedule) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO schedules (task_type, next_run_time) VALUES (?, ?)
		 ON CONFLICT(task_type) DO UPDATE SET next_run_time = excluded.next_run_time`,
		string(schedule.TaskType), schedule.NextRunTime.UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("failed to save schedule: %w", err)
	}
	return nil
}

// =============================================================================
// BANK HOLIDAYS
// =============================================================================

func (s *Store) BankHolidays(ctx context.Context) ([]calendar.Date, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `SELECT date FROM bank_holidays ORDER BY date`)
	if err != nil {
		return nil, fmt.Errorf("failed to query bank holidays: %w", err)
	}
	defer rows.Close()

	var out []calendar.Date
	for rows.Next() {
		var date string
		if err := rows.Scan(&date); err != nil {
			return nil, fmt.Errorf("failed to scan bank holiday: %w", err)
		}
		d, err := calendar.ParseDate(date)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// SaveBankHolidays inserts the given dates, ignoring duplicates. Used to
// seed the table from the YAML calendar file.
func (s *Store) SaveBankHolidays(ctx context.Context, dates []calendar.Date) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, d := range dates {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO bank_holidays (date) VALUES (?) ON CONFLICT(date) DO NOTHING`,
			d.String()); err != nil {
			return fmt.Errorf("failed to insert bank holiday %s: %w", d, err)
		}
	}
	return tx.Commit()
}
