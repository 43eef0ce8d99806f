package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// CreateEvent inserts a new event and returns it with its generated ID.
func (s *Store) CreateEvent(name string, date time.Time, location string) (*Event, error) {
	event := &Event{
		ID:       uuid.NewString(),
		Name:     name,
		Date:     date,
		Location: location,
	}

	_, err := s.db.Exec(`
		INSERT INTO events (id, name, date, location)
		VALUES (?, ?, ?, ?)`,
		event.ID, event.Name, event.Date.Format(time.RFC3339), event.Location)
	if err != nil {
		return nil, fmt.Errorf("inserting event: %w", err)
	}

	return s.GetEvent(event.ID)
}

// GetEvent retrieves one event by ID.
func (s *Store) GetEvent(id string) (*Event, error) {
	row := s.db.QueryRow(`
		SELECT id, name, date, location, created_at, updated_at
		FROM events WHERE id = ?`, id)
	return scanEvent(row)
}

// ListEvents returns all events ordered by date.
func (s *Store) ListEvents() ([]Event, error) {
	rows, err := s.db.Query(`
		SELECT id, name, date, location, created_at, updated_at
		FROM events ORDER BY date`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, *event)
	}
	return events, rows.Err()
}

// UpdateEvent updates an event's mutable fields.
func (s *Store) UpdateEvent(id, name string, date time.Time, location string) (*Event, error) {
	result, err := s.db.Exec(`
		UPDATE events SET name = ?, date = ?, location = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?`,
		name, date.Format(time.RFC3339), location, id)
	if err != nil {
		return nil, fmt.Errorf("updating event: %w", err)
	}
	if rows, err := result.RowsAffected(); err != nil {
		return nil, err
	} else if rows == 0 {
		return nil, ErrEventNotFound
	}
	return s.GetEvent(id)
}

// DeleteEvent removes an event and, via foreign key cascade, its courses.
func (s *Store) DeleteEvent(id string) error {
	result, err := s.db.Exec(`DELETE FROM events WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting event: %w", err)
	}
	if rows, err := result.RowsAffected(); err != nil {
		return err
	} else if rows == 0 {
		return ErrEventNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEvent(row rowScanner) (*Event, error) {
	var event Event
	var date, createdAt, updatedAt string
	var location sql.NullString

	err := row.Scan(&event.ID, &event.Name, &date, &location, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrEventNotFound
	}
	if err != nil {
		return nil, err
	}

	event.Location = location.String
	if event.Date, err = time.Parse(time.RFC3339, date); err != nil {
		return nil, fmt.Errorf("parsing event date: %w", err)
	}
	event.CreatedAt = parseSQLiteTime(createdAt)
	event.UpdatedAt = parseSQLiteTime(updatedAt)
	return &event, nil
}

// parseSQLiteTime parses CURRENT_TIMESTAMP values ("2006-01-02 15:04:05").
// A zero time is returned for anything unparsable rather than an error: these
// columns are informational.
func parseSQLiteTime(value string) time.Time {
	t, err := time.Parse("2006-01-02 15:04:05", value)
	if err != nil {
		return time.Time{}
	}
	return t
}
