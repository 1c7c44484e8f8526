package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"gigbook/internal/calendar"
	"gigbook/shared/go/models"
)

var ErrContactLogNotFound = errors.New("contact log not found")

const contactColumns = `
	id, venue_id, contacted_at, method, outcome, follow_up_date, notes, created_at`

func scanContactLog(row rowScanner) (*models.ContactLog, error) {
	var c models.ContactLog
	err := row.Scan(
		&c.ID, &c.VenueID, &c.ContactedAt, &c.Method, &c.Outcome, &c.FollowUpDate, &c.Notes, &c.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func collectContactLogs(rows *sql.Rows) ([]*models.ContactLog, error) {
	defer rows.Close()

	var logs []*models.ContactLog
	for rows.Next() {
		c, err := scanContactLog(rows)
		if err != nil {
			return nil, fmt.Errorf("scan contact log: %w", err)
		}
		logs = append(logs, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate contact logs: %w", err)
	}
	return logs, nil
}

// CreateContactLog appends a contact log. Logs are never updated.
func (s *Store) CreateContactLog(ctx context.Context, log *models.ContactLog) (*models.ContactLog, error) {
	if log.FollowUpDate != nil {
		d := calendar.DateOf(*log.FollowUpDate)
		log.FollowUpDate = &d
	}

	query := `
		INSERT INTO contact_logs (venue_id, contacted_at, method, outcome, follow_up_date, notes)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`

	err := s.db.QueryRowContext(ctx, query,
		log.VenueID, log.ContactedAt, log.Method, log.Outcome, log.FollowUpDate, log.Notes,
	).Scan(&log.ID, &log.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert contact log: %w", err)
	}

	return log, nil
}

// GetContactLog retrieves a single contact log by ID
func (s *Store) GetContactLog(ctx context.Context, id int64) (*models.ContactLog, error) {
	query := `SELECT` + contactColumns + `
		FROM contact_logs
		WHERE id = $1
	`

	c, err := scanContactLog(s.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, ErrContactLogNotFound
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}

// ListContactLogs returns a venue's contact history, newest first. It works
// for deleted venues too.
func (s *Store) ListContactLogs(ctx context.Context, venueID int64) ([]*models.ContactLog, error) {
	query := `SELECT` + contactColumns + `
		FROM contact_logs
		WHERE venue_id = $1
		ORDER BY contacted_at DESC, id DESC
	`

	rows, err := s.db.QueryContext(ctx, query, venueID)
	if err != nil {
		return nil, fmt.Errorf("select contact logs: %w", err)
	}
	return collectContactLogs(rows)
}

// ListContactLogsForVenues returns the contact logs of every venue in venueIDs.
func (s *Store) ListContactLogsForVenues(ctx context.Context, venueIDs []int64) ([]*models.ContactLog, error) {
	if len(venueIDs) == 0 {
		return nil, nil
	}

	query := `SELECT` + contactColumns + `
		FROM contact_logs
		WHERE venue_id = ANY($1)
		ORDER BY contacted_at DESC, id DESC
	`

	rows, err := s.db.QueryContext(ctx, query, pq.Array(venueIDs))
	if err != nil {
		return nil, fmt.Errorf("select venue contact logs: %w", err)
	}
	return collectContactLogs(rows)
}

// ListPendingFollowUps returns logs whose follow-up date has arrived.
func (s *Store) ListPendingFollowUps(ctx context.Context, today time.Time) ([]*models.ContactLog, error) {
	query := `SELECT` + contactColumns + `
		FROM contact_logs
		WHERE follow_up_date IS NOT NULL AND follow_up_date <= $1
		ORDER BY follow_up_date ASC, id ASC
	`

	rows, err := s.db.QueryContext(ctx, query, calendar.DateOf(today))
	if err != nil {
		return nil, fmt.Errorf("select follow-ups: %w", err)
	}
	return collectContactLogs(rows)
}
