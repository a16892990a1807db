package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"

	"github.com/iliyamo/uninest/internal/model"
)

// LibraryRepo encapsulates all queries on the libraries table.
type LibraryRepo struct {
	db *sql.DB
}

func NewLibraryRepo(db *sql.DB) *LibraryRepo { return &LibraryRepo{db: db} }

const libraryColumns = "id, owner_id, name, description, location, total_seats, facilities, created_at, updated_at"

// Create inserts l and fills in its ID.  An owner can hold a single
// library; a second insert for the same owner yields ErrConflict.
func (r *LibraryRepo) Create(ctx context.Context, l *model.Library) error {
	facilities, err := json.Marshal(nonNil(l.Facilities))
	if err != nil {
		return err
	}
	const q = `INSERT INTO libraries (owner_id, name, description, location, total_seats, facilities, created_at, updated_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	res, err := conn(ctx, r.db).ExecContext(ctx, q,
		l.OwnerID, l.Name, l.Description, l.Location, l.TotalSeats, string(facilities), l.CreatedAt, l.UpdatedAt)
	if err != nil {
		if isDuplicate(err, "") {
			return ErrConflict
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	l.ID = uint64(id)
	return nil
}

// GetByID fetches a library by its ID.
func (r *LibraryRepo) GetByID(ctx context.Context, id uint64) (*model.Library, error) {
	row := conn(ctx, r.db).QueryRowContext(ctx, "SELECT "+libraryColumns+" FROM libraries WHERE id = ?", id)
	return scanLibrary(row)
}

// GetByOwner fetches the library owned by ownerID.
func (r *LibraryRepo) GetByOwner(ctx context.Context, ownerID uint64) (*model.Library, error) {
	row := conn(ctx, r.db).QueryRowContext(ctx, "SELECT "+libraryColumns+" FROM libraries WHERE owner_id = ?", ownerID)
	return scanLibrary(row)
}

// List returns libraries whose location contains location (case
// insensitive).  An empty filter lists everything.
func (r *LibraryRepo) List(ctx context.Context, location string) ([]model.Library, error) {
	q := "SELECT " + libraryColumns + " FROM libraries"
	var args []any
	if loc := strings.TrimSpace(location); loc != "" {
		q += " WHERE LOWER(location) LIKE ?"
		args = append(args, "%"+escapeLike(strings.ToLower(loc))+"%")
	}
	q += " ORDER BY name, id"

	rows, err := conn(ctx, r.db).QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Library{}
	for rows.Next() {
		l, err := scanLibrary(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *l)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanLibrary(s rowScanner) (*model.Library, error) {
	var (
		l           model.Library
		description sql.NullString
		facilities  sql.NullString
	)
	err := s.Scan(&l.ID, &l.OwnerID, &l.Name, &description, &l.Location, &l.TotalSeats, &facilities, &l.CreatedAt, &l.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	l.Description = description.String
	l.Facilities = []string{}
	if facilities.Valid && facilities.String != "" {
		if err := json.Unmarshal([]byte(facilities.String), &l.Facilities); err != nil {
			return nil, err
		}
	}
	return &l, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string { return likeEscaper.Replace(s) }
