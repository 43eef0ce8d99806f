package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// CreateCourse inserts a course under an event.
func (s *Store) CreateCourse(course *Course) (*Course, error) {
	if _, err := s.GetEvent(course.EventID); err != nil {
		return nil, err
	}

	id := uuid.NewString()
	_, err := s.db.Exec(`
		INSERT INTO courses (id, event_id, name, distance_km, elevation_gain_m, elevation_loss_m, profile, checkpoints)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		id, course.EventID, course.Name, course.DistanceKm, course.ElevationGainM,
		course.ElevationLossM, nullableJSON(course.Profile), nullableJSON(course.Checkpoints))
	if err != nil {
		return nil, fmt.Errorf("inserting course: %w", err)
	}

	return s.GetCourse(id)
}

// GetCourse retrieves one course by ID.
func (s *Store) GetCourse(id string) (*Course, error) {
	row := s.db.QueryRow(`
		SELECT id, event_id, name, distance_km, elevation_gain_m, elevation_loss_m,
			profile, checkpoints, created_at, updated_at
		FROM courses WHERE id = ?`, id)
	return scanCourse(row)
}

// ListCoursesByEvent returns all courses of an event.
func (s *Store) ListCoursesByEvent(eventID string) ([]Course, error) {
	rows, err := s.db.Query(`
		SELECT id, event_id, name, distance_km, elevation_gain_m, elevation_loss_m,
			profile, checkpoints, created_at, updated_at
		FROM courses WHERE event_id = ? ORDER BY created_at`, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var courses []Course
	for rows.Next() {
		course, err := scanCourse(rows)
		if err != nil {
			return nil, err
		}
		courses = append(courses, *course)
	}
	return courses, rows.Err()
}

// UpdateCourse replaces a course's mutable fields.
func (s *Store) UpdateCourse(course *Course) (*Course, error) {
	result, err := s.db.Exec(`
		UPDATE courses SET name = ?, distance_km = ?, elevation_gain_m = ?, elevation_loss_m = ?,
			profile = ?, checkpoints = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?`,
		course.Name, course.DistanceKm, course.ElevationGainM, course.ElevationLossM,
		nullableJSON(course.Profile), nullableJSON(course.Checkpoints), course.ID)
	if err != nil {
		return nil, fmt.Errorf("updating course: %w", err)
	}
	if rows, err := result.RowsAffected(); err != nil {
		return nil, err
	} else if rows == 0 {
		return nil, ErrCourseNotFound
	}
	return s.GetCourse(course.ID)
}

// DeleteCourse removes a course.
func (s *Store) DeleteCourse(id string) error {
	result, err := s.db.Exec(`DELETE FROM courses WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting course: %w", err)
	}
	if rows, err := result.RowsAffected(); err != nil {
		return err
	} else if rows == 0 {
		return ErrCourseNotFound
	}
	return nil
}

func scanCourse(row rowScanner) (*Course, error) {
	var course Course
	var profile, checkpoints sql.NullString
	var createdAt, updatedAt string

	err := row.Scan(&course.ID, &course.EventID, &course.Name, &course.DistanceKm,
		&course.ElevationGainM, &course.ElevationLossM, &profile, &checkpoints,
		&createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrCourseNotFound
	}
	if err != nil {
		return nil, err
	}

	if profile.Valid {
		course.Profile = json.RawMessage(profile.String)
	}
	if checkpoints.Valid {
		course.Checkpoints = json.RawMessage(checkpoints.String)
	}
	course.CreatedAt = parseSQLiteTime(createdAt)
	course.UpdatedAt = parseSQLiteTime(updatedAt)
	return &course, nil
}

func nullableJSON(raw json.RawMessage) any {
	if len(raw) == 0 {
		return nil
	}
	return string(raw)
}
