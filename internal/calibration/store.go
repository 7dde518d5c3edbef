// Package calibration persists per-device keypad references: one box per
// digit, keyed by a reference name.
package calibration

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"smudge-pin/pkg/geometry"
	"smudge-pin/pkg/log"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

// ErrReferenceNotFound means no reference exists under the requested name.
var ErrReferenceNotFound = errors.New("calibration reference not found")

// Reference maps each digit to its on-screen box.
type Reference struct {
	Ref       string                   `json:"ref"`
	Boxes     [10]geometry.BoundingBox `json:"boxes"`
	CreatedAt time.Time                `json:"created_at"`
}

// Summary is a stored reference without its boxes.
type Summary struct {
	Ref       string    `json:"ref"`
	CreatedAt time.Time `json:"created_at"`
}

type refDB struct {
	ID        int64     `db:"id"`
	Ref       string    `db:"ref"`
	CreatedAt time.Time `db:"created_at"`
}

type boxDB struct {
	RefID  int64   `db:"ref_id"`
	Cipher int     `db:"cipher"`
	X      float64 `db:"x"`
	Y      float64 `db:"y"`
	W      float64 `db:"w"`
	H      float64 `db:"h"`
}

// Store keeps references in SQLite.
type Store struct {
	db *sqlx.DB
}

// Open opens (creating if needed) the database at path. ":memory:" works
// for a throwaway store.
func Open(path string) (*Store, error) {
	db, err := sqlx.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// ":memory:" databases live per connection
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// NewRef returns a fresh reference name.
func NewRef() string {
	return uuid.NewString()
}

// Save stores boxes under ref, replacing every box of an existing reference.
// An empty ref is replaced by a generated one. Returns the stored reference.
func (s *Store) Save(ctx context.Context, ref string, boxes [10]geometry.BoundingBox) (*Reference, error) {
	if ref == "" {
		ref = NewRef()
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	row, err := getRef(ctx, tx, ref)
	if errors.Is(err, ErrReferenceNotFound) {
		row, err = createRef(ctx, tx, ref)
	}
	if err != nil {
		return nil, err
	}

	if err := namedExec(ctx, tx, queryDeleteBoxes, map[string]interface{}{"ref_id": row.ID}); err != nil {
		return nil, fmt.Errorf("clear boxes of %s: %w", ref, err)
	}
	for cipher, b := range boxes {
		if err := namedExec(ctx, tx, queryInsertBox, boxDB{
			RefID: row.ID, Cipher: cipher, X: b.X, Y: b.Y, W: b.W, H: b.H,
		}); err != nil {
			return nil, fmt.Errorf("insert box %d of %s: %w", cipher, ref, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	log.Info(log.Fields{"ref": ref}, "calibration reference saved")
	return &Reference{Ref: ref, Boxes: boxes, CreatedAt: row.CreatedAt}, nil
}

// Get returns the reference stored under ref.
func (s *Store) Get(ctx context.Context, ref string) (*Reference, error) {
	row, err := getRef(ctx, s.db, ref)
	if err != nil {
		return nil, err
	}

	query, args, err := sqlx.Named(queryGetBoxes, map[string]interface{}{"ref_id": row.ID})
	if err != nil {
		return nil, err
	}
	var boxes []boxDB
	if err := sqlx.SelectContext(ctx, s.db, &boxes, s.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("select boxes of %s: %w", ref, err)
	}
	if len(boxes) != 10 {
		return nil, fmt.Errorf("reference %s has %d boxes, want 10", ref, len(boxes))
	}

	out := &Reference{Ref: row.Ref, CreatedAt: row.CreatedAt}
	for _, b := range boxes {
		out.Boxes[b.Cipher] = geometry.NewBoundingBox(b.X, b.Y, b.W, b.H)
	}
	return out, nil
}

// List returns every stored reference, oldest first.
func (s *Store) List(ctx context.Context) ([]Summary, error) {
	var rows []refDB
	if err := s.db.SelectContext(ctx, &rows, queryListRefs); err != nil {
		return nil, err
	}
	out := make([]Summary, len(rows))
	for i, r := range rows {
		out[i] = Summary{Ref: r.Ref, CreatedAt: r.CreatedAt}
	}
	return out, nil
}

// Delete removes a reference and its boxes.
func (s *Store) Delete(ctx context.Context, ref string) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	row, err := getRef(ctx, tx, ref)
	if err != nil {
		return err
	}
	if err := namedExec(ctx, tx, queryDeleteBoxes, map[string]interface{}{"ref_id": row.ID}); err != nil {
		return err
	}
	if err := namedExec(ctx, tx, queryDeleteRef, map[string]interface{}{"ref": ref}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}

	log.Info(log.Fields{"ref": ref}, "calibration reference deleted")
	return nil
}

func getRef(ctx context.Context, q sqlx.ExtContext, ref string) (refDB, error) {
	var row refDB
	query, args, err := sqlx.Named(queryGetRef, map[string]interface{}{"ref": ref})
	if err != nil {
		return row, err
	}
	if err := q.QueryRowxContext(ctx, q.Rebind(query), args...).StructScan(&row); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return row, fmt.Errorf("%s: %w", ref, ErrReferenceNotFound)
		}
		return row, err
	}
	return row, nil
}

func createRef(ctx context.Context, q sqlx.ExtContext, ref string) (refDB, error) {
	row := refDB{Ref: ref, CreatedAt: time.Now().UTC()}
	if err := namedExec(ctx, q, queryCreateRef, row); err != nil {
		return row, fmt.Errorf("create reference %s: %w", ref, err)
	}
	return getRef(ctx, q, ref)
}

func namedExec(ctx context.Context, q sqlx.ExtContext, query string, arg interface{}) error {
	query, args, err := sqlx.Named(query, arg)
	if err != nil {
		return err
	}
	_, err = q.ExecContext(ctx, q.Rebind(query), args...)
	return err
}
