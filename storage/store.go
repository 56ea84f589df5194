// Package storage persists body snapshots in SQLite.
package storage

import (
	"context"
	"database/sql"
	"path/filepath"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/zond/anatomy/body"
	"github.com/zond/anatomy/condition"

	goccy "github.com/goccy/go-json"
	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"
)

var (
	ErrNotFound      = errors.New("body not found")
	ErrAlreadyExists = errors.New("body already exists")
)

const schema = `
CREATE TABLE IF NOT EXISTS bodies (
  id TEXT PRIMARY KEY,
  species TEXT NOT NULL,
  body_fat REAL NOT NULL,
  muscle REAL NOT NULL,
  base_weight REAL NOT NULL,
  core_temperature REAL NOT NULL,
  target_metabolism_rate REAL NOT NULL,
  updated_at INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS parts (
  body_id TEXT NOT NULL REFERENCES bodies(id) ON DELETE CASCADE,
  ordinal INTEGER NOT NULL,
  name TEXT NOT NULL,
  health REAL NOT NULL,
  conditions TEXT NOT NULL,
  PRIMARY KEY (body_id, ordinal)
);
`

// Record is a saved body.
type Record struct {
	ID        string
	Species   string
	Snapshot  body.Snapshot
	UpdatedAt time.Time
}

// Entry is a Record without its snapshot.
type Entry struct {
	ID        string
	Species   string
	UpdatedAt time.Time
}

type entryRow struct {
	ID        string `db:"id"`
	Species   string `db:"species"`
	UpdatedAt int64  `db:"updated_at"`
}

type bodyRow struct {
	ID                   string  `db:"id"`
	Species              string  `db:"species"`
	BodyFat              float64 `db:"body_fat"`
	Muscle               float64 `db:"muscle"`
	BaseWeight           float64 `db:"base_weight"`
	CoreTemperature      float64 `db:"core_temperature"`
	TargetMetabolismRate float64 `db:"target_metabolism_rate"`
	UpdatedAt            int64   `db:"updated_at"`
}

type partRow struct {
	BodyID     string  `db:"body_id"`
	Ordinal    int     `db:"ordinal"`
	Name       string  `db:"name"`
	Health     float64 `db:"health"`
	Conditions string  `db:"conditions"`
}

func toMillis(t time.Time) int64 {
	return t.UTC().UnixMilli()
}

func fromMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}

// Store is safe for concurrent use.
type Store struct {
	db *sqlx.DB
}

// Open opens, and creates if necessary, the database at path.
func Open(ctx context.Context, path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("storage path is required")
	}
	dsn := "file:" + filepath.Clean(path) + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := sqlx.ConnectContext(ctx, "sqlite", dsn)
	if err != nil {
		return nil, errors.Wrapf(err, "opening %q", path)
	}
	db.SetMaxOpenConns(1)
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "creating schema")
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func isUniqueViolation(err error) bool {
	var sqliteErr *msqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() {
		case sqlite3lib.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3lib.SQLITE_CONSTRAINT_UNIQUE:
			return true
		}
	}
	return strings.Contains(strings.ToLower(err.Error()), "unique constraint failed")
}

func rows(r Record) (bodyRow, []partRow, error) {
	if strings.TrimSpace(r.ID) == "" {
		return bodyRow{}, nil, errors.New("body id is required")
	}
	updatedAt := r.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = time.Now()
	}
	br := bodyRow{
		ID:                   r.ID,
		Species:              r.Species,
		BodyFat:              r.Snapshot.BodyFat,
		Muscle:               r.Snapshot.Muscle,
		BaseWeight:           r.Snapshot.BaseWeight,
		CoreTemperature:      r.Snapshot.CoreTemperature,
		TargetMetabolismRate: r.Snapshot.TargetMetabolismRate,
		UpdatedAt:            toMillis(updatedAt),
	}
	prs := make([]partRow, len(r.Snapshot.Parts))
	for i, ps := range r.Snapshot.Parts {
		conditions, err := goccy.Marshal(ps.Conditions)
		if err != nil {
			return bodyRow{}, nil, errors.Wrapf(err, "encoding conditions of %q", ps.Name)
		}
		prs[i] = partRow{
			BodyID:     r.ID,
			Ordinal:    i,
			Name:       ps.Name,
			Health:     ps.Health,
			Conditions: string(conditions),
		}
	}
	return br, prs, nil
}

func (s *Store) write(ctx context.Context, r Record, upsert bool) (err error) {
	br, prs, err := rows(r)
	if err != nil {
		return err
	}
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.WithStack(err)
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()
	query := `INSERT INTO bodies (id, species, body_fat, muscle, base_weight, core_temperature, target_metabolism_rate, updated_at)
	  VALUES (:id, :species, :body_fat, :muscle, :base_weight, :core_temperature, :target_metabolism_rate, :updated_at)`
	if upsert {
		query += ` ON CONFLICT(id) DO UPDATE SET
		  species = excluded.species,
		  body_fat = excluded.body_fat,
		  muscle = excluded.muscle,
		  base_weight = excluded.base_weight,
		  core_temperature = excluded.core_temperature,
		  target_metabolism_rate = excluded.target_metabolism_rate,
		  updated_at = excluded.updated_at`
	}
	if _, err = tx.NamedExecContext(ctx, query, br); err != nil {
		if isUniqueViolation(err) {
			return errors.Wrapf(ErrAlreadyExists, "%q", r.ID)
		}
		return errors.Wrapf(err, "writing %q", r.ID)
	}
	if _, err = tx.ExecContext(ctx, `DELETE FROM parts WHERE body_id = ?`, r.ID); err != nil {
		return errors.WithStack(err)
	}
	if len(prs) > 0 {
		if _, err = tx.NamedExecContext(ctx, `INSERT INTO parts (body_id, ordinal, name, health, conditions)
		  VALUES (:body_id, :ordinal, :name, :health, :conditions)`, prs); err != nil {
			return errors.Wrapf(err, "writing parts of %q", r.ID)
		}
	}
	return errors.WithStack(tx.Commit())
}

// Create stores r, failing with ErrAlreadyExists if the id is taken.
func (s *Store) Create(ctx context.Context, r Record) error {
	return s.write(ctx, r, false)
}

// Save stores r, replacing any body with the same id.
func (s *Store) Save(ctx context.Context, r Record) error {
	return s.write(ctx, r, true)
}

// Load returns the body stored under id, or ErrNotFound.
func (s *Store) Load(ctx context.Context, id string) (*Record, error) {
	br := bodyRow{}
	if err := s.db.GetContext(ctx, &br, `SELECT * FROM bodies WHERE id = ?`, id); errors.Is(err, sql.ErrNoRows) {
		return nil, errors.Wrapf(ErrNotFound, "%q", id)
	} else if err != nil {
		return nil, errors.Wrapf(err, "loading %q", id)
	}
	prs := []partRow{}
	if err := s.db.SelectContext(ctx, &prs, `SELECT * FROM parts WHERE body_id = ? ORDER BY ordinal`, id); err != nil {
		return nil, errors.Wrapf(err, "loading parts of %q", id)
	}
	r := &Record{
		ID:      br.ID,
		Species: br.Species,
		Snapshot: body.Snapshot{
			BodyFat:              br.BodyFat,
			Muscle:               br.Muscle,
			BaseWeight:           br.BaseWeight,
			CoreTemperature:      br.CoreTemperature,
			TargetMetabolismRate: br.TargetMetabolismRate,
		},
		UpdatedAt: fromMillis(br.UpdatedAt),
	}
	for _, pr := range prs {
		ps := body.PartState{
			Name:   pr.Name,
			Health: pr.Health,
		}
		var conditions []condition.State
		if err := goccy.Unmarshal([]byte(pr.Conditions), &conditions); err != nil {
			return nil, errors.Wrapf(err, "decoding conditions of %q", pr.Name)
		}
		ps.Conditions = conditions
		r.Snapshot.Parts = append(r.Snapshot.Parts, ps)
	}
	return r, nil
}

// Delete removes the body stored under id, or returns ErrNotFound.
func (s *Store) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM bodies WHERE id = ?`, id)
	if err != nil {
		return errors.Wrapf(err, "deleting %q", id)
	}
	if n, err := res.RowsAffected(); err != nil {
		return errors.WithStack(err)
	} else if n == 0 {
		return errors.Wrapf(ErrNotFound, "%q", id)
	}
	return nil
}

// List returns every stored body ordered by id.
func (s *Store) List(ctx context.Context) ([]Entry, error) {
	ers := []entryRow{}
	if err := s.db.SelectContext(ctx, &ers, `SELECT id, species, updated_at FROM bodies ORDER BY id`); err != nil {
		return nil, errors.WithStack(err)
	}
	result := make([]Entry, len(ers))
	for i, er := range ers {
		result[i] = Entry{
			ID:        er.ID,
			Species:   er.Species,
			UpdatedAt: fromMillis(er.UpdatedAt),
		}
	}
	return result, nil
}
