package plan

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
	"github.com/username/leave-planner/internal/calendar"
	"github.com/username/leave-planner/pkg/dateutil"
	"go.uber.org/zap"
)

const (
	settingEntitlement = "entitlement"
	settingPreferences = "preferences"
	settingSavedAt     = "saved_at"
)

// SQLiteStore keeps the state in a SQLite database
type SQLiteStore struct {
	db     *sql.DB
	path   string
	logger *zap.Logger
}

// OpenSQLiteStore opens (creating if needed) the database and runs migrations.
// The caller is responsible for calling Close() when done.
func OpenSQLiteStore(ctx context.Context, path string, logger *zap.Logger) (*SQLiteStore, error) {
	dir := filepath.Dir(path)
	if path != ":memory:" && dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	// _journal_mode=WAL: concurrent readers while writing
	// _busy_timeout=5000: wait up to 5s if the database is locked
	dsn := fmt.Sprintf("%s?_journal_mode=WAL&_foreign_keys=ON&_busy_timeout=5000", path)

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// SQLite allows a single writer; one connection also keeps :memory: alive
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	s := &SQLiteStore{db: db, path: path, logger: logger}
	if _, err := s.migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}

	logger.Info("Plan database connected", zap.String("path", path))

	return s, nil
}

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	s.logger.Info("Closing plan database")
	return s.db.Close()
}

// migrate applies pending migrations and returns how many ran
func (s *SQLiteStore) migrate(ctx context.Context) (int, error) {
	count := 0
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			CREATE TABLE IF NOT EXISTS schema_migrations (
				version INTEGER PRIMARY KEY,
				applied_at TEXT NOT NULL DEFAULT (datetime('now'))
			)
		`)
		if err != nil {
			return fmt.Errorf("create schema_migrations table: %w", err)
		}

		applied := make(map[int]bool)
		rows, err := tx.QueryContext(ctx, "SELECT version FROM schema_migrations")
		if err != nil {
			return fmt.Errorf("query applied migrations: %w", err)
		}
		defer rows.Close()

		for rows.Next() {
			var version int
			if err := rows.Scan(&version); err != nil {
				return fmt.Errorf("scan migration version: %w", err)
			}
			applied[version] = true
		}
		if err := rows.Err(); err != nil {
			return fmt.Errorf("iterate migration versions: %w", err)
		}

		for version := 1; version <= len(migrationsSQL); version++ {
			if applied[version] {
				continue
			}

			s.logger.Info("Applying migration", zap.Int("version", version))

			content, ok := migrationsSQL[version]
			if !ok {
				return fmt.Errorf("migration %d not found", version)
			}
			if _, err := tx.ExecContext(ctx, content); err != nil {
				return fmt.Errorf("execute migration %d: %w", version, err)
			}
			if _, err := tx.ExecContext(ctx, "INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
				return fmt.Errorf("record migration %d: %w", version, err)
			}
			count++
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("migrate plan database: %w", err)
	}

	return count, nil
}

// withTx executes fn within a transaction, rolling back if it fails
func (s *SQLiteStore) withTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("rollback failed: %v (original error: %w)", rbErr, err)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	return nil
}

// Load reads the whole state
func (s *SQLiteStore) Load(ctx context.Context) (*State, error) {
	settings, err := s.loadSettings(ctx)
	if err != nil {
		return nil, err
	}
	if _, ok := settings[settingEntitlement]; !ok {
		return nil, ErrNoState
	}

	state := &State{}
	if state.Entitlement, err = strconv.Atoi(settings[settingEntitlement]); err != nil {
		return nil, fmt.Errorf("parse entitlement: %w", err)
	}
	if raw := settings[settingPreferences]; raw != "" {
		if err := json.Unmarshal([]byte(raw), &state.Preferences); err != nil {
			return nil, fmt.Errorf("parse preferences: %w", err)
		}
	}
	if raw := settings[settingSavedAt]; raw != "" {
		if state.SavedAt, err = time.Parse(time.RFC3339Nano, raw); err != nil {
			return nil, fmt.Errorf("parse saved_at: %w", err)
		}
	}

	if state.Items, err = s.loadItems(ctx); err != nil {
		return nil, err
	}
	if state.CustomHolidays, err = s.loadCustomHolidays(ctx); err != nil {
		return nil, err
	}

	return state, nil
}

func (s *SQLiteStore) loadSettings(ctx context.Context) (map[string]string, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT key, value FROM settings")
	if err != nil {
		return nil, fmt.Errorf("query settings: %w", err)
	}
	defer rows.Close()

	settings := make(map[string]string)
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, fmt.Errorf("scan setting: %w", err)
		}
		settings[key] = value
	}
	return settings, rows.Err()
}

func (s *SQLiteStore) loadItems(ctx context.Context) ([]SavedOpportunity, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, start_date, end_date, total_days, leave_days_required, free_days,
		       efficiency, efficiency_label, days_json, added_at, is_custom, label
		FROM plan_items
		ORDER BY position
	`)
	if err != nil {
		return nil, fmt.Errorf("query plan items: %w", err)
	}
	defer rows.Close()

	items := []SavedOpportunity{}
	for rows.Next() {
		var (
			item                       SavedOpportunity
			start, end, daysJSON, when string
		)
		err := rows.Scan(&item.ID, &start, &end, &item.TotalDays, &item.LeaveDaysRequired, &item.FreeDays,
			&item.Efficiency, &item.EfficiencyLabel, &daysJSON, &when, &item.IsCustom, &item.Label)
		if err != nil {
			return nil, fmt.Errorf("scan plan item: %w", err)
		}

		startDate, err := time.Parse(dateutil.DateLayout, start)
		if err != nil {
			return nil, fmt.Errorf("plan item %s: %w", item.ID, err)
		}
		endDate, err := time.Parse(dateutil.DateLayout, end)
		if err != nil {
			return nil, fmt.Errorf("plan item %s: %w", item.ID, err)
		}
		item.Range = calendar.DateRange{Start: startDate, End: endDate}

		if err := json.Unmarshal([]byte(daysJSON), &item.Days); err != nil {
			return nil, fmt.Errorf("plan item %s days: %w", item.ID, err)
		}
		if item.AddedAt, err = time.Parse(time.RFC3339Nano, when); err != nil {
			return nil, fmt.Errorf("plan item %s added_at: %w", item.ID, err)
		}

		items = append(items, item)
	}
	return items, rows.Err()
}

func (s *SQLiteStore) loadCustomHolidays(ctx context.Context) ([]calendar.CustomHolidaySpec, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT name, localized_name, kind, date, offset_days
		FROM custom_holidays
		ORDER BY position
	`)
	if err != nil {
		return nil, fmt.Errorf("query custom holidays: %w", err)
	}
	defer rows.Close()

	specs := []calendar.CustomHolidaySpec{}
	for rows.Next() {
		var spec calendar.CustomHolidaySpec
		if err := rows.Scan(&spec.Name, &spec.LocalizedName, &spec.Kind, &spec.Date, &spec.Offset); err != nil {
			return nil, fmt.Errorf("scan custom holiday: %w", err)
		}
		specs = append(specs, spec)
	}
	return specs, rows.Err()
}

// Save replaces the stored state in one transaction
func (s *SQLiteStore) Save(ctx context.Context, state *State) error {
	prefs, err := json.Marshal(state.Preferences)
	if err != nil {
		return fmt.Errorf("failed to marshal preferences: %w", err)
	}

	err = s.withTx(ctx, func(tx *sql.Tx) error {
		for _, stmt := range []string{"DELETE FROM plan_items", "DELETE FROM custom_holidays"} {
			if _, err := tx.ExecContext(ctx, stmt); err != nil {
				return fmt.Errorf("clear state: %w", err)
			}
		}

		settings := map[string]string{
			settingEntitlement: strconv.Itoa(state.Entitlement),
			settingPreferences: string(prefs),
			settingSavedAt:     state.SavedAt.UTC().Format(time.RFC3339Nano),
		}
		for key, value := range settings {
			_, err := tx.ExecContext(ctx, `
				INSERT INTO settings (key, value) VALUES (?, ?)
				ON CONFLICT(key) DO UPDATE SET value = excluded.value
			`, key, value)
			if err != nil {
				return fmt.Errorf("save setting %s: %w", key, err)
			}
		}

		for i, item := range state.Items {
			if err := insertItem(ctx, tx, i, item); err != nil {
				return err
			}
		}

		for i, spec := range state.CustomHolidays {
			_, err := tx.ExecContext(ctx, `
				INSERT INTO custom_holidays (position, name, localized_name, kind, date, offset_days)
				VALUES (?, ?, ?, ?, ?, ?)
			`, i, spec.Name, spec.LocalizedName, string(spec.Kind), spec.Date, spec.Offset)
			if err != nil {
				return fmt.Errorf("save custom holiday %q: %w", spec.Name, err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Info("Plan state saved",
		zap.String("path", s.path),
		zap.Int("items", len(state.Items)))

	return nil
}

func insertItem(ctx context.Context, tx *sql.Tx, position int, item SavedOpportunity) error {
	days := item.Days
	if days == nil {
		days = []calendar.DayInfo{}
	}
	daysJSON, err := json.Marshal(days)
	if err != nil {
		return fmt.Errorf("marshal days of %s: %w", item.ID, err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO plan_items (
			id, position, start_date, end_date, total_days, leave_days_required, free_days,
			efficiency, efficiency_label, days_json, added_at, is_custom, label
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		item.ID, position,
		dateutil.Format(item.Range.Start), dateutil.Format(item.Range.End),
		item.TotalDays, item.LeaveDaysRequired, item.FreeDays,
		item.Efficiency, item.EfficiencyLabel, string(daysJSON),
		item.AddedAt.UTC().Format(time.RFC3339Nano), item.IsCustom, item.Label,
	)
	if err != nil {
		return fmt.Errorf("save plan item %s: %w", item.ID, err)
	}
	return nil
}

var (
	_ Store = (*SQLiteStore)(nil)
	_ Store = (*JSONStore)(nil)
)
