// Package postgres is a people.Store backed by PostgreSQL through pgxpool.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/otherjamesbrown/netnotes-cli/pkg/db"
	nnerrors "github.com/otherjamesbrown/netnotes-cli/pkg/errors"
	"github.com/otherjamesbrown/netnotes-cli/pkg/people"
)

// foreignKeyViolation is the SQLSTATE for a missing referenced row.
const foreignKeyViolation = "23503"

// Store implements people.Store.
type Store struct {
	pool  *pgxpool.Pool
	owned bool
}

var _ people.Store = (*Store)(nil)

// New wraps an existing pool. Close leaves the pool open.
func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Open connects with cfg, applies pending migrations and returns a store
// that closes the pool on Close.
func Open(ctx context.Context, cfg *db.Config) (*Store, error) {
	pool, err := db.Connect(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", nnerrors.ErrStorage, err)
	}
	if _, err := db.RunMigrations(ctx, pool, db.Migrations()); err != nil {
		pool.Close()
		return nil, fmt.Errorf("%w: %w", nnerrors.ErrStorage, err)
	}
	return &Store{pool: pool, owned: true}, nil
}

// Pool exposes the underlying pool for health checks and metrics.
func (s *Store) Pool() *pgxpool.Pool { return s.pool }

func (s *Store) Close() error {
	if s.owned {
		s.pool.Close()
	}
	return nil
}

const personColumns = `id, name, city, tags, importance, last_interaction_at, place_label,
	lat, lng, phone_contact_id, phone_number, preferred_channel, age, created_at, updated_at`

// ==================== People ====================

func (s *Store) FindPersonByName(ctx context.Context, name string) (*people.Person, error) {
	query := `SELECT ` + personColumns + ` FROM people WHERE name_key = $1 ORDER BY created_at LIMIT 1`

	p, err := scanPerson(s.pool.QueryRow(ctx, query, people.NameKey(name)))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find person by name: %w", err)
	}
	return p, nil
}

func (s *Store) GetPerson(ctx context.Context, id string) (*people.Person, error) {
	query := `SELECT ` + personColumns + ` FROM people WHERE id = $1`

	p, err := scanPerson(s.pool.QueryRow(ctx, query, id))
	if err == pgx.ErrNoRows {
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
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	`
	lat, lng := splitCoords(p.Coords)
	_, err := s.pool.Exec(ctx, query,
		p.ID, p.Name, people.NameKey(p.Name), nullString(p.City), nullString(p.Tags), p.Importance,
		p.LastInteractionAt, nullString(p.PlaceLabel), lat, lng,
		nullString(p.PhoneContactID), nullString(p.PhoneNumber), nullString(p.PreferredChannel),
		nullInt(p.Age), p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create person: %w", err)
	}
	return nil
}

func (s *Store) UpdatePerson(ctx context.Context, p *people.Person) error {
	query := `
		UPDATE people SET name = $2, name_key = $3, city = $4, tags = $5, importance = $6,
			last_interaction_at = $7, place_label = $8, lat = $9, lng = $10, phone_contact_id = $11,
			phone_number = $12, preferred_channel = $13, age = $14, updated_at = $15
		WHERE id = $1
	`
	lat, lng := splitCoords(p.Coords)
	tag, err := s.pool.Exec(ctx, query,
		p.ID, p.Name, people.NameKey(p.Name), nullString(p.City), nullString(p.Tags), p.Importance,
		p.LastInteractionAt, nullString(p.PlaceLabel), lat, lng,
		nullString(p.PhoneContactID), nullString(p.PhoneNumber), nullString(p.PreferredChannel),
		nullInt(p.Age), p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update person: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("person %s: %w", p.ID, nnerrors.ErrNotFound)
	}
	return nil
}

func (s *Store) ListPeople(ctx context.Context) ([]people.Person, error) {
	query := `SELECT ` + personColumns + ` FROM people ORDER BY updated_at DESC, created_at DESC`
	return s.queryPeople(ctx, query)
}

// ListPeopleForCity filters in Go: lower() in a database with the C
// collation only folds ASCII.
func (s *Store) ListPeopleForCity(ctx context.Context, city string) ([]people.Person, error) {
	all, err := s.ListPeople(ctx)
	if err != nil {
		return nil, err
	}
	out := all[:0]
	for _, p := range all {
		if p.MentionsCity(city) {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *Store) queryPeople(ctx context.Context, query string, args ...any) ([]people.Person, error) {
	rows, err := s.pool.Query(ctx, query, args...)
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

func scanPerson(row pgx.Row) (*people.Person, error) {
	var (
		p                                          people.Person
		city, tags, place, contact, phone, channel *string
		lat, lng                                   *float64
		age                                        *int32
		last                                       *time.Time
	)
	err := row.Scan(&p.ID, &p.Name, &city, &tags, &p.Importance, &last, &place,
		&lat, &lng, &contact, &phone, &channel, &age, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	p.City = deref(city)
	p.Tags = deref(tags)
	p.PlaceLabel = deref(place)
	p.PhoneContactID = deref(contact)
	p.PhoneNumber = deref(phone)
	p.PreferredChannel = deref(channel)
	if age != nil {
		p.Age = int(*age)
	}
	p.Coords = joinCoords(lat, lng)
	if last != nil {
		t := last.UTC()
		p.LastInteractionAt = &t
	}
	p.CreatedAt = p.CreatedAt.UTC()
	p.UpdatedAt = p.UpdatedAt.UTC()
	return &p, nil
}

// ==================== Notes ====================

const noteColumns = `n.id, n.person_id, n.content, n.needs_follow_up, n.follow_up_at,
	n.lat, n.lng, n.place_label, n.created_at`

const noteWithPersonColumns = noteColumns + `, p.name, p.city, p.place_label`

func (s *Store) CreateNote(ctx context.Context, n *people.Note) error {
	query := `
		INSERT INTO notes (id, person_id, content, needs_follow_up, follow_up_at, lat, lng, place_label, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	lat, lng := splitCoords(n.Coords)
	_, err := s.pool.Exec(ctx, query,
		n.ID, n.PersonID, n.Content, n.NeedsFollowUp, n.FollowUpAt, lat, lng, nullString(n.PlaceLabel), n.CreatedAt,
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
	query := `
		SELECT ` + noteWithPersonColumns + `
		FROM notes n JOIN people p ON p.id = n.person_id
		ORDER BY n.created_at DESC
	`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT $1`
		args = append(args, limit)
	}
	return s.queryNotesWithPerson(ctx, query, args...)
}

func (s *Store) ListNotesForPerson(ctx context.Context, personID string) ([]people.Note, error) {
	query := `SELECT ` + noteColumns + ` FROM notes n WHERE n.person_id = $1 ORDER BY n.created_at DESC`

	rows, err := s.pool.Query(ctx, query, personID)
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
		SELECT ` + noteWithPersonColumns + `
		FROM notes n JOIN people p ON p.id = n.person_id
		WHERE n.needs_follow_up AND n.follow_up_at IS NOT NULL AND n.follow_up_at <= $1
		ORDER BY n.follow_up_at ASC
	`
	return s.queryNotesWithPerson(ctx, query, now)
}

func (s *Store) MarkFollowUpDone(ctx context.Context, noteID string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE notes SET needs_follow_up = FALSE, follow_up_at = NULL WHERE id = $1`, noteID)
	if err != nil {
		return fmt.Errorf("failed to mark follow-up done: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("note %s: %w", noteID, nnerrors.ErrNotFound)
	}
	return nil
}

func (s *Store) queryNotesWithPerson(ctx context.Context, query string, args ...any) ([]people.NoteWithPerson, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list notes: %w", err)
	}
	defer rows.Close()

	var out []people.NoteWithPerson
	for rows.Next() {
		var (
			name        string
			city, place *string
		)
		n, err := scanNote(rows, &name, &city, &place)
		if err != nil {
			return nil, fmt.Errorf("failed to scan note: %w", err)
		}
		out = append(out, people.NoteWithPerson{
			Note: *n,
			Person: people.PersonSummary{
				ID:         n.PersonID,
				Name:       name,
				City:       deref(city),
				PlaceLabel: deref(place),
			},
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating notes: %w", err)
	}
	return out, nil
}

// scanNote reads noteColumns followed by any extra destinations.
func scanNote(row pgx.Row, extra ...any) (*people.Note, error) {
	var (
		n        people.Note
		followUp *time.Time
		lat, lng *float64
		place    *string
	)
	dest := append([]any{&n.ID, &n.PersonID, &n.Content, &n.NeedsFollowUp, &followUp,
		&lat, &lng, &place, &n.CreatedAt}, extra...)
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	if followUp != nil {
		t := followUp.UTC()
		n.FollowUpAt = &t
	}
	n.Coords = joinCoords(lat, lng)
	n.PlaceLabel = deref(place)
	n.CreatedAt = n.CreatedAt.UTC()
	return &n, nil
}

// ==================== Trips ====================

func (s *Store) CreateTrip(ctx context.Context, t *people.Trip) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO trips (id, city, start_date, end_date, created_at) VALUES ($1, $2, $3, $4, $5)`,
		t.ID, t.City, t.StartDate, t.EndDate, t.CreatedAt)
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
		`SELECT id, city, start_date, end_date, created_at FROM trips WHERE start_date >= $1 ORDER BY start_date ASC`, now)
}

func (s *Store) queryTrips(ctx context.Context, query string, args ...any) ([]people.Trip, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list trips: %w", err)
	}
	defer rows.Close()

	var out []people.Trip
	for rows.Next() {
		var (
			t   people.Trip
			end *time.Time
		)
		if err := rows.Scan(&t.ID, &t.City, &t.StartDate, &end, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan trip: %w", err)
		}
		t.StartDate = t.StartDate.UTC()
		t.CreatedAt = t.CreatedAt.UTC()
		if end != nil {
			e := end.UTC()
			t.EndDate = &e
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating trips: %w", err)
	}
	return out, nil
}

// SetTripReachout inserts or replaces the status for the trip and person.
// The first ID written for a pair is kept.
func (s *Store) SetTripReachout(ctx context.Context, r *people.TripReachout) error {
	query := `
		INSERT INTO trip_reachouts (id, trip_id, person_id, status, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (trip_id, person_id)
		DO UPDATE SET status = EXCLUDED.status, updated_at = EXCLUDED.updated_at
		RETURNING id
	`
	err := s.pool.QueryRow(ctx, query, r.ID, r.TripID, r.PersonID, string(r.Status), r.UpdatedAt).Scan(&r.ID)
	if isForeignKeyViolation(err) {
		return fmt.Errorf("trip %s or person %s: %w", r.TripID, r.PersonID, nnerrors.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("failed to set trip reachout: %w", err)
	}
	return nil
}

func (s *Store) ListTripReachouts(ctx context.Context, tripID string) ([]people.TripReachout, error) {
	query := `
		SELECT id, trip_id, person_id, status, updated_at
		FROM trip_reachouts WHERE trip_id = $1
		ORDER BY person_id
	`
	rows, err := s.pool.Query(ctx, query, tripID)
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

// ==================== Helpers ====================

func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == foreignKeyViolation
}

func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func nullInt(v int) *int32 {
	if v == 0 {
		return nil
	}
	i := int32(v)
	return &i
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func splitCoords(c *people.Coordinates) (lat, lng *float64) {
	if c == nil {
		return nil, nil
	}
	return &c.Lat, &c.Lng
}

func joinCoords(lat, lng *float64) *people.Coordinates {
	if lat == nil || lng == nil {
		return nil
	}
	return &people.Coordinates{Lat: *lat, Lng: *lng}
}
