// Package sqlite is a people.Store in a local SQLite file, the default
// backend for a single user.
package sqlite

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mattn/go-sqlite3"

	nnerrors "github.com/otherjamesbrown/netnotes-cli/pkg/errors"
	"github.com/otherjamesbrown/netnotes-cli/pkg/people"
)

//go:embed schema.sql
var schemaSQL string

// MemoryPath opens a private in-memory database.
const MemoryPath = ":memory:"

// driverName is go-sqlite3 with a fold() function. SQLite's own lower() only
// folds ASCII, so "MÜNCHEN" would not match "München".
const driverName = "sqlite3_netnotes"

func init() {
	sql.Register(driverName, &sqlite3.SQLiteDriver{
		ConnectHook: func(conn *sqlite3.SQLiteConn) error {
			return conn.RegisterFunc("fold", strings.ToLower, true)
		},
	})
}

// Store implements people.Store.
type Store struct {
	db *sql.DB
}

var _ people.Store = (*Store)(nil)

// Open opens or creates the database at path and applies the schema.
func Open(ctx context.Context, path string) (*Store, error) {
	if path != MemoryPath {
		if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
			return nil, fmt.Errorf("%w: create data dir: %w", nnerrors.ErrStorage, err)
		}
	}

	conn, err := sql.Open(driverName, path)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %w", nnerrors.ErrStorage, path, err)
	}
	// One connection keeps :memory: databases shared and serializes writers.
	conn.SetMaxOpenConns(1)

	if err := initSchema(ctx, conn); err != nil {
		conn.Close()
		return nil, fmt.Errorf("%w: migrate %s: %w", nnerrors.ErrStorage, path, err)
	}
	return &Store{db: conn}, nil
}

func initSchema(ctx context.Context, conn *sql.DB) error {
	if _, err := conn.ExecContext(ctx, "PRAGMA foreign_keys = ON"); err != nil {
		return err
	}
	for _, stmt := range strings.Split(schemaSQL, ";") {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		if _, err := conn.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

const personColumns = `id, name, city, tags, importance, last_interaction_at, place_label,
	lat, lng, phone_contact_id, phone_number, preferred_channel, age, created_at, updated_at`

func (s *Store) FindPersonByName(ctx context.Context, name string) (*people.Person, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+personColumns+` FROM people WHERE name_key = ? ORDER BY created_at LIMIT 1`, people.NameKey(name))
	p, err := scanPerson(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find person by name: %w", err)
	}
	return p, nil
}

func (s *Store) GetPerson(ctx context.Context, id string) (*people.Person, error) {
	p, err := scanPerson(s.db.QueryRowContext(ctx, `SELECT `+personColumns+` FROM people WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("person %s: %w", id, nnerrors.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get person: %w", err)
	}
	return p, nil
}

func (s *Store) CreatePerson(ctx context.Context, p *people.Person) error {
	query := `
		INSERT INTO people (id, name, name_key, city, tags, importance, last_interaction_at, place_label,
			lat, lng, phone_contact_id, phone_number, preferred_channel, age, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	lat, lng := splitCoords(p.Coords)
	_, err := s.db.ExecContext(ctx, query,
		p.ID, p.Name, people.NameKey(p.Name), nullString(p.City), nullString(p.Tags), p.Importance,
		nullTime(p.LastInteractionAt), nullString(p.PlaceLabel), lat, lng,
		nullString(p.PhoneContactID), nullString(p.PhoneNumber), nullString(p.PreferredChannel),
		nullInt(p.Age), p.CreatedAt.UTC(), p.UpdatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to create person: %w", err)
	}
	return nil
}

func (s *Store) UpdatePerson(ctx context.Context, p *people.Person) error {
	query := `
		UPDATE people SET name = ?, name_key = ?, city = ?, tags = ?, importance = ?,
			last_interaction_at = ?, place_label = ?, lat = ?, lng = ?, phone_contact_id = ?,
			phone_number = ?, preferred_channel = ?, age = ?, updated_at = ?
		WHERE id = ?
	`
	lat, lng := splitCoords(p.Coords)
	res, err := s.db.ExecContext(ctx, query,
		p.Name, people.NameKey(p.Name), nullString(p.City), nullString(p.Tags), p.Importance,
		nullTime(p.LastInteractionAt), nullString(p.PlaceLabel), lat, lng,
		nullString(p.PhoneContactID), nullString(p.PhoneNumber), nullString(p.PreferredChannel),
		nullInt(p.Age), p.UpdatedAt.UTC(), p.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update person: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("person %s: %w", p.ID, nnerrors.ErrNotFound)
	}
	return nil
}

func (s *Store) ListPeople(ctx context.Context) ([]people.Person, error) {
	return s.queryPeople(ctx, `SELECT `+personColumns+` FROM people ORDER BY updated_at DESC, rowid DESC`)
}

func (s *Store) ListPeopleForCity(ctx context.Context, city string) ([]people.Person, error) {
	query := `
		SELECT ` + personColumns + ` FROM people
		WHERE instr(fold(coalesce(city, '')), fold(?1)) > 0
		   OR instr(fold(coalesce(tags, '')), fold(?1)) > 0
		   OR instr(fold(coalesce(place_label, '')), fold(?1)) > 0
		ORDER BY updated_at DESC, rowid DESC
	`
	return s.queryPeople(ctx, query, city)
}

func (s *Store) queryPeople(ctx context.Context, query string, args ...any) ([]people.Person, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list people: %w", err)
	}
	defer rows.Close()

	var out []people.Person
	for rows.Next() {
		p, err := scanPerson(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan person: %w", err)
		}
		out = append(out, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating people: %w", err)
	}
	return out, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanPerson(row scanner) (*people.Person, error) {
	var (
		p                                          people.Person
		city, tags, place, contact, phone, channel sql.NullString
		lat, lng                                   sql.NullFloat64
		age                                        sql.NullInt64
		last                                       sql.NullTime
	)
	err := row.Scan(&p.ID, &p.Name, &city, &tags, &p.Importance, &last, &place,
		&lat, &lng, &contact, &phone, &channel, &age, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	p.City = city.String
	p.Tags = tags.String
	p.PlaceLabel = place.String
	p.PhoneContactID = contact.String
	p.PhoneNumber = phone.String
	p.PreferredChannel = channel.String
	p.Age = int(age.Int64)
	p.Coords = joinCoords(lat, lng)
	p.LastInteractionAt = timePtr(last)
	p.CreatedAt = p.CreatedAt.UTC()
	p.UpdatedAt = p.UpdatedAt.UTC()
	return &p, nil
}

const noteColumns = `n.id, n.person_id, n.content, n.needs_follow_up, n.follow_up_at,
	n.lat, n.lng, n.place_label, n.created_at`

func (s *Store) CreateNote(ctx context.Context, n *people.Note) error {
	query := `
		INSERT INTO notes (id, person_id, content, needs_follow_up, follow_up_at, lat, lng, place_label, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	lat, lng := splitCoords(n.Coords)
	_, err := s.db.ExecContext(ctx, query,
		n.ID, n.PersonID, n.Content, n.NeedsFollowUp, nullTime(n.FollowUpAt), lat, lng,
		nullString(n.PlaceLabel), n.CreatedAt.UTC(),
	)
	if isForeignKeyViolation(err) {
		return fmt.Errorf("note owner %s: %w", n.PersonID, nnerrors.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("failed to create note: %w", err)
	}
	return nil
}

func (s *Store) ListRecentNotes(ctx context.Context, limit int) ([]people.NoteWithPerson, error) {
	if limit <= 0 {
		limit = -1
	}
	query := `
		SELECT ` + noteColumns + `, p.name, p.city, p.place_label
		FROM notes n JOIN people p ON p.id = n.person_id
		ORDER BY n.created_at DESC, n.rowid DESC
		LIMIT ?
	`
	return s.queryNotesWithPerson(ctx, query, limit)
}

func (s *Store) ListNotesForPerson(ctx context.Context, personID string) ([]people.Note, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+noteColumns+` FROM notes n WHERE n.person_id = ? ORDER BY n.created_at DESC, n.rowid DESC`, personID)
	if err != nil {
		return nil, fmt.Errorf("failed to list notes: %w", err)
	}
	defer rows.Close()

	var out []people.Note
	for rows.Next() {
		n, err := scanNote(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan note: %w", err)
		}
		out = append(out, *n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating notes: %w", err)
	}
	return out, nil
}

func (s *Store) ListFollowUpsDue(ctx context.Context, now time.Time) ([]people.NoteWithPerson, error) {
	query := `
		SELECT ` + noteColumns + `, p.name, p.city, p.place_label
		FROM notes n JOIN people p ON p.id = n.person_id
		WHERE n.needs_follow_up AND n.follow_up_at IS NOT NULL AND n.follow_up_at <= ?
		ORDER BY n.follow_up_at ASC
	`
	return s.queryNotesWithPerson(ctx, query, now.UTC())
}

func (s *Store) MarkFollowUpDone(ctx context.Context, noteID string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE notes SET needs_follow_up = 0, follow_up_at = NULL WHERE id = ?`, noteID)
	if err != nil {
		return fmt.Errorf("failed to mark follow-up done: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("note %s: %w", noteID, nnerrors.ErrNotFound)
	}
	return nil
}

func (s *Store) queryNotesWithPerson(ctx context.Context, query string, args ...any) ([]people.NoteWithPerson, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list notes: %w", err)
	}
	defer rows.Close()

	var out []people.NoteWithPerson
	for rows.Next() {
		var (
			name        string
			city, place sql.NullString
		)
		n, err := scanNote(rows, &name, &city, &place)
		if err != nil {
			return nil, fmt.Errorf("failed to scan note: %w", err)
		}
		out = append(out, people.NoteWithPerson{
			Note:   *n,
			Person: people.PersonSummary{ID: n.PersonID, Name: name, City: city.String, PlaceLabel: place.String},
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating notes: %w", err)
	}
	return out, nil
}

func scanNote(row scanner, extra ...any) (*people.Note, error) {
	var (
		n        people.Note
		followUp sql.NullTime
		lat, lng sql.NullFloat64
		place    sql.NullString
	)
	dest := append([]any{&n.ID, &n.PersonID, &n.Content, &n.NeedsFollowUp, &followUp,
		&lat, &lng, &place, &n.CreatedAt}, extra...)
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	n.FollowUpAt = timePtr(followUp)
	n.Coords = joinCoords(lat, lng)
	n.PlaceLabel = place.String
	n.CreatedAt = n.CreatedAt.UTC()
	return &n, nil
}

func (s *Store) CreateTrip(ctx context.Context, t *people.Trip) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO trips (id, city, start_date, end_date, created_at) VALUES (?, ?, ?, ?, ?)`,
		t.ID, t.City, t.StartDate.UTC(), nullTime(t.EndDate), t.CreatedAt.UTC())
	if err != nil {
		return fmt.Errorf("failed to create trip: %w", err)
	}
	return nil
}

func (s *Store) ListTrips(ctx context.Context) ([]people.Trip, error) {
	return s.queryTrips(ctx, `SELECT id, city, start_date, end_date, created_at FROM trips ORDER BY start_date ASC`)
}

func (s *Store) ListUpcomingTrips(ctx context.Context, now time.Time) ([]people.Trip, error) {
	return s.queryTrips(ctx,
		`SELECT id, city, start_date, end_date, created_at FROM trips WHERE start_date >= ? ORDER BY start_date ASC`, now.UTC())
}

func (s *Store) queryTrips(ctx context.Context, query string, args ...any) ([]people.Trip, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list trips: %w", err)
	}
	defer rows.Close()

	var out []people.Trip
	for rows.Next() {
		var (
			t   people.Trip
			end sql.NullTime
		)
		if err := rows.Scan(&t.ID, &t.City, &t.StartDate, &end, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan trip: %w", err)
		}
		t.StartDate = t.StartDate.UTC()
		t.CreatedAt = t.CreatedAt.UTC()
		t.EndDate = timePtr(end)
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating trips: %w", err)
	}
	return out, nil
}

func (s *Store) SetTripReachout(ctx context.Context, r *people.TripReachout) error {
	query := `
		INSERT INTO trip_reachouts (id, trip_id, person_id, status, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (trip_id, person_id)
		DO UPDATE SET status = excluded.status, updated_at = excluded.updated_at
		RETURNING id
	`
	err := s.db.QueryRowContext(ctx, query, r.ID, r.TripID, r.PersonID, string(r.Status), r.UpdatedAt.UTC()).Scan(&r.ID)
	if isForeignKeyViolation(err) {
		return fmt.Errorf("trip %s or person %s: %w", r.TripID, r.PersonID, nnerrors.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("failed to set trip reachout: %w", err)
	}
	return nil
}

func (s *Store) ListTripReachouts(ctx context.Context, tripID string) ([]people.TripReachout, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, trip_id, person_id, status, updated_at FROM trip_reachouts WHERE trip_id = ? ORDER BY person_id`, tripID)
	if err != nil {
		return nil, fmt.Errorf("failed to list trip reachouts: %w", err)
	}
	defer rows.Close()

	var out []people.TripReachout
	for rows.Next() {
		var (
			r      people.TripReachout
			status string
		)
		if err := rows.Scan(&r.ID, &r.TripID, &r.PersonID, &status, &r.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan trip reachout: %w", err)
		}
		r.Status = people.ReachoutStatus(status)
		r.UpdatedAt = r.UpdatedAt.UTC()
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating trip reachouts: %w", err)
	}
	return out, nil
}

func isForeignKeyViolation(err error) bool {
	var sqliteErr sqlite3.Error
	return errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintForeignKey
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullInt(v int) sql.NullInt64 {
	return sql.NullInt64{Int64: int64(v), Valid: v != 0}
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}

func timePtr(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time.UTC()
	return &v
}

func splitCoords(c *people.Coordinates) (lat, lng sql.NullFloat64) {
	if c == nil {
		return lat, lng
	}
	return sql.NullFloat64{Float64: c.Lat, Valid: true}, sql.NullFloat64{Float64: c.Lng, Valid: true}
}

func joinCoords(lat, lng sql.NullFloat64) *people.Coordinates {
	if !lat.Valid || !lng.Valid {
		return nil
	}
	return &people.Coordinates{Lat: lat.Float64, Lng: lng.Float64}
}
