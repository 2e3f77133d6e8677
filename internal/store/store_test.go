package store

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/tplcheck/internal/check"
	"github.com/roach88/tplcheck/internal/manifest"
	"github.com/roach88/tplcheck/internal/param"
)

// createTestStore creates a new store in a temp dir for testing.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func testReport(t *testing.T, name string, features []float64) *manifest.Report {
	t.Helper()
	return manifest.Validate(&manifest.Template{
		Name: name,
		Args: []manifest.Arg{{
			Name:  "features",
			Value: param.MustFromGo(features),
			Rules: manifest.Rules{Shape: &manifest.ShapeRule{Dims: check.Shape{2}, Bound: check.BoundMax}},
		}},
	})
}

func TestOpen_CreatesNewDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	s, err := Open(path)
	require.NoError(t, err)
	defer s.Close()

	_, err = os.Stat(path)
	assert.NoError(t, err, "database file was not created")
}

func TestOpen_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	for i := 0; i < 3; i++ {
		s, err := Open(path)
		require.NoError(t, err, "Open() iteration %d", i)
		require.NoError(t, s.Close())
	}

	s, err := Open(path)
	require.NoError(t, err)
	defer s.Close()

	var name string
	err = s.db.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name='runs'").Scan(&name)
	require.NoError(t, err)

	var version int
	require.NoError(t, s.db.QueryRow("PRAGMA user_version").Scan(&version))
	assert.Equal(t, schemaVersion, version)

	err = s.db.QueryRow("SELECT name FROM sqlite_master WHERE type='index' AND name='idx_runs_fingerprint'").Scan(&name)
	assert.NoError(t, err)
}

func TestOpen_Pragmas(t *testing.T) {
	s := createTestStore(t)
	assert.NoError(t, s.checkPragmas())
}

func TestOpen_MigratesUnversionedHistory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "old.db")

	// A history written before the fingerprint index existed.
	db, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	_, err = db.Exec(schemaSQL)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	s, err := Open(path)
	require.NoError(t, err)
	defer s.Close()

	version, err := s.SchemaVersion(context.Background())
	require.NoError(t, err)
	assert.Equal(t, schemaVersion, version)
	assert.NoError(t, s.verifySchema())
}

func TestOpen_RejectsNewerSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "new.db")

	db, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	_, err = db.Exec("PRAGMA user_version = 99")
	require.NoError(t, err)
	require.NoError(t, db.Close())

	_, err = Open(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "migrate runs schema")
	assert.Contains(t, err.Error(), "newer than supported")
}

func TestVerifySchema_MissingIndex(t *testing.T) {
	s := createTestStore(t)

	_, err := s.db.Exec("DROP INDEX idx_runs_fingerprint")
	require.NoError(t, err)

	err = s.verifySchema()
	require.Error(t, err)
	assert.Equal(t, "missing index idx_runs_fingerprint", err.Error())
}

func TestCount(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	empty, err := s.Count(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, RunCount{}, empty)

	reports := []*manifest.Report{
		testReport(t, "AngleEmbedding", []float64{0.1}),
		testReport(t, "AngleEmbedding", []float64{0.1, 0.2, 0.3}),
		testReport(t, "BasisEmbedding", []float64{0.5}),
	}
	_, err = s.RecordReports(ctx, NewFixedGenerator("a", "b", "c"), reports)
	require.NoError(t, err)

	all, err := s.Count(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, RunCount{Runs: 3, Invalid: 1, Templates: 2}, all)

	one, err := s.Count(ctx, "AngleEmbedding")
	require.NoError(t, err)
	assert.Equal(t, RunCount{Runs: 2, Invalid: 1, Templates: 1}, one)
}

func TestClose_Nil(t *testing.T) {
	s := &Store{}
	assert.NoError(t, s.Close())
}

func TestWriteRun_Idempotent(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	run, err := NewRun("run-1", 1, testReport(t, "AngleEmbedding", []float64{0.1}))
	require.NoError(t, err)

	require.NoError(t, s.WriteRun(ctx, run))
	require.NoError(t, s.WriteRun(ctx, run))

	runs, err := s.ReadRuns(ctx, "")
	require.NoError(t, err)
	require.Len(t, runs, 1)

	got := runs[0]
	assert.Equal(t, "run-1", got.ID)
	assert.Equal(t, int64(1), got.Seq)
	assert.Equal(t, "AngleEmbedding", got.Template)
	assert.True(t, got.Valid)
	assert.Equal(t, 0, got.Failures)
	assert.Len(t, got.Fingerprint, 64)
	assert.JSONEq(t, string(run.Report), string(got.Report))
}

func TestNextSeq(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	seq, err := s.NextSeq(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), seq)

	run, err := NewRun("run-1", 7, testReport(t, "T", []float64{0.1}))
	require.NoError(t, err)
	require.NoError(t, s.WriteRun(ctx, run))

	seq, err = s.NextSeq(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(8), seq)
}

func TestRecordReports(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	gen := NewFixedGenerator("b", "a", "c")
	runs, err := s.RecordReports(ctx, gen, []*manifest.Report{
		testReport(t, "T1", []float64{0.1, 0.2}),
		testReport(t, "T2", []float64{0.1, 0.2, 0.3}),
	})
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, int64(1), runs[0].Seq)
	assert.Equal(t, int64(1), runs[1].Seq)
	assert.True(t, runs[0].Valid)
	assert.False(t, runs[1].Valid)
	assert.Equal(t, 1, runs[1].Failures)

	more, err := s.RecordReports(ctx, gen, []*manifest.Report{testReport(t, "T1", []float64{0.5})})
	require.NoError(t, err)
	assert.Equal(t, int64(2), more[0].Seq)

	// Same seq ties break on id.
	all, err := s.ReadRuns(ctx, "")
	require.NoError(t, err)
	ids := make([]string, len(all))
	for i, r := range all {
		ids[i] = r.ID
	}
	assert.Equal(t, []string{"a", "b", "c"}, ids)

	t1, err := s.ReadRuns(ctx, "T1")
	require.NoError(t, err)
	require.Len(t, t1, 2)
	assert.Equal(t, "b", t1[0].ID)
	assert.Equal(t, "c", t1[1].ID)
}

func TestReadRuns_EmptyNotNil(t *testing.T) {
	s := createTestStore(t)

	runs, err := s.ReadRuns(context.Background(), "missing")
	require.NoError(t, err)
	assert.NotNil(t, runs)
	assert.Empty(t, runs)
}

func TestReadRun(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	_, err := s.ReadRun(ctx, "nope")
	assert.True(t, errors.Is(err, sql.ErrNoRows))

	run, err := NewRun("run-1", 1, testReport(t, "T", []float64{1, 2, 3}))
	require.NoError(t, err)
	require.NoError(t, s.WriteRun(ctx, run))

	got, err := s.ReadRun(ctx, "run-1")
	require.NoError(t, err)

	rep, err := got.UnmarshalReport()
	require.NoError(t, err)
	assert.Equal(t, "T", rep.Template)
	require.Len(t, rep.Args, 1)
	assert.Equal(t, check.CodeShapeMismatch, rep.Args[0].Code)
	assert.Equal(t, "(3,)", rep.Args[0].Shape)
}

func TestLatestByFingerprint(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	report := testReport(t, "T", []float64{0.1, 0.2})

	_, ok, err := s.LatestByFingerprint(ctx, report.Fingerprint)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = s.RecordReports(ctx, NewFixedGenerator("r1"), []*manifest.Report{report})
	require.NoError(t, err)
	_, err = s.RecordReports(ctx, NewFixedGenerator("r2"), []*manifest.Report{report})
	require.NoError(t, err)
	_, err = s.RecordReports(ctx, NewFixedGenerator("r3"), []*manifest.Report{testReport(t, "T", []float64{0.9})})
	require.NoError(t, err)

	run, ok, err := s.LatestByFingerprint(ctx, report.Fingerprint)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "r2", run.ID)
	assert.Equal(t, int64(2), run.Seq)
}

func TestUUIDv7Generator(t *testing.T) {
	gen := UUIDv7Generator{}
	a := gen.Generate()
	b := gen.Generate()
	assert.Len(t, a, 36)
	assert.NotEqual(t, a, b)
}

func TestFixedGenerator(t *testing.T) {
	gen := NewFixedGenerator("x", "y")
	assert.Equal(t, "x", gen.Generate())
	assert.Equal(t, "y", gen.Generate())
	assert.Panics(t, func() { gen.Generate() })
}

func TestFixedGenerator_Concurrent(t *testing.T) {
	ids := make([]string, 50)
	for i := range ids {
		ids[i] = string(rune('A' + i))
	}
	gen := NewFixedGenerator(ids...)

	var mu sync.Mutex
	seen := make(map[string]bool)
	var wg sync.WaitGroup
	for range ids {
		wg.Add(1)
		go func() {
			defer wg.Done()
			id := gen.Generate()
			mu.Lock()
			seen[id] = true
			mu.Unlock()
		}()
	}
	wg.Wait()
	assert.Len(t, seen, len(ids))
}
