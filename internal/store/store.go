package store

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

// Store is the run history database.
// SQLite in WAL mode: one writer, concurrent readers.
type Store struct {
	db *sql.DB
}

// connPragmas configure every connection. want is the value the pragma
// reads back as once applied.
var connPragmas = []struct {
	name, value, want string
}{
	{"journal_mode", "WAL", "wal"},
	{"synchronous", "NORMAL", "1"},
	{"busy_timeout", "5000", "5000"},
	{"foreign_keys", "ON", "1"},
}

// runMigrations upgrade a history created by an older release. Version N is
// recorded in user_version once migrations[N-1] has run.
var runMigrations = []struct {
	name string
	stmt string
}{
	{"fingerprint index", `CREATE INDEX IF NOT EXISTS idx_runs_fingerprint ON runs(fingerprint, seq)`},
}

// schemaVersion is the user_version of a fully migrated history.
var schemaVersion = len(runMigrations)

// runsObjects must exist after Open. ReadRuns relies on the template index,
// LatestByFingerprint on the fingerprint index.
var runsObjects = []struct {
	kind, name string
}{
	{"table", "runs"},
	{"index", "idx_runs_template_seq"},
	{"index", "idx_runs_fingerprint"},
}

// Open creates or opens the run history at path, migrates it to the current
// schema and checks that the runs table and its indexes are in place.
// Open is idempotent.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// SQLite allows one writer at a time.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	s := &Store{db: db}
	for _, step := range []struct {
		what string
		fn   func() error
	}{
		{"apply pragmas", s.applyPragmas},
		{"create runs schema", s.createSchema},
		{"migrate runs schema", s.migrate},
		{"verify runs schema", s.verifySchema},
	} {
		if err := step.fn(); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to %s: %w", step.what, err)
		}
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) applyPragmas() error {
	for _, p := range connPragmas {
		stmt := fmt.Sprintf("PRAGMA %s = %s", p.name, p.value)
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("%q: %w", stmt, err)
		}
	}
	return nil
}

func (s *Store) createSchema() error {
	_, err := s.db.Exec(schemaSQL)
	return err
}

// migrate runs every migration newer than the stored user_version, each in
// its own transaction together with the version bump.
func (s *Store) migrate() error {
	var version int
	if err := s.db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("get user_version: %w", err)
	}
	if version > schemaVersion {
		return fmt.Errorf("history schema version %d is newer than supported version %d", version, schemaVersion)
	}

	for v := version + 1; v <= schemaVersion; v++ {
		m := runMigrations[v-1]
		tx, err := s.db.Begin()
		if err != nil {
			return err
		}
		if _, err := tx.Exec(m.stmt); err != nil {
			tx.Rollback()
			return fmt.Errorf("migration %d (%s): %w", v, m.name, err)
		}
		if _, err := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", v)); err != nil {
			tx.Rollback()
			return fmt.Errorf("set user_version %d: %w", v, err)
		}
		if err := tx.Commit(); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) verifySchema() error {
	for _, obj := range runsObjects {
		var n int
		err := s.db.QueryRow(
			`SELECT COUNT(*) FROM sqlite_master WHERE type = ? AND name = ?`,
			obj.kind, obj.name,
		).Scan(&n)
		if err != nil {
			return err
		}
		if n == 0 {
			return fmt.Errorf("missing %s %s", obj.kind, obj.name)
		}
	}
	return nil
}

// SchemaVersion returns the migration level of the history.
func (s *Store) SchemaVersion(ctx context.Context) (int, error) {
	var version int
	if err := s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&version); err != nil {
		return 0, fmt.Errorf("get user_version: %w", err)
	}
	return version, nil
}

// RunCount summarizes the recorded runs of one template, or of all
// templates when the name is empty.
type RunCount struct {
	Runs      int `json:"runs"`
	Invalid   int `json:"invalid"`
	Templates int `json:"templates"`
}

// Count returns the RunCount for template.
func (s *Store) Count(ctx context.Context, template string) (RunCount, error) {
	var c RunCount
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*),
		       COALESCE(SUM(CASE WHEN valid = 0 THEN 1 ELSE 0 END), 0),
		       COUNT(DISTINCT template)
		FROM runs
		WHERE ? = '' OR template = ?
	`, template, template).Scan(&c.Runs, &c.Invalid, &c.Templates)
	if err != nil {
		return RunCount{}, fmt.Errorf("count runs: %w", err)
	}
	return c, nil
}

// checkPragmas reports the first connection pragma that does not read back
// as configured.
func (s *Store) checkPragmas() error {
	for _, p := range connPragmas {
		var got string
		if err := s.db.QueryRow("PRAGMA " + p.name).Scan(&got); err != nil {
			return fmt.Errorf("failed to query %s: %w", p.name, err)
		}
		if got != p.want {
			return fmt.Errorf("%s = %q, expected %q", p.name, got, p.want)
		}
	}
	return nil
}
