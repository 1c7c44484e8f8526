package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"gigbook/internal/calendar"
	"gigbook/shared/go/models"
)

var ErrVenueNotFound = errors.New("venue not found")

const venueColumns = `
	id, name, location, address, contact_name, contact_email, contact_phone,
	mileage_one_way, typical_pay, payment_method, requires_invoice, has_w9,
	booking_window_start, booking_window_end, notes, created_at, updated_at`

func scanVenue(row rowScanner) (*models.Venue, error) {
	var v models.Venue
	err := row.Scan(
		&v.ID, &v.Name, &v.Location, &v.Address, &v.ContactName, &v.ContactEmail, &v.ContactPhone,
		&v.MileageOneWay, &v.TypicalPay, &v.PaymentMethod, &v.RequiresInvoice, &v.HasW9,
		&v.BookingWindowStart, &v.BookingWindowEnd, &v.Notes, &v.CreatedAt, &v.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// DeleteResult counts the records touched by a venue deletion.
type DeleteResult struct {
	DetachedShows   int64 `json:"detached_shows"`
	CancelledShows  int64 `json:"cancelled_shows"`
	DeactivatedGigs int64 `json:"deactivated_gigs"`
}

// CreateVenue adds a new venue
func (s *Store) CreateVenue(ctx context.Context, venue *models.Venue) (*models.Venue, error) {
	query := `
		INSERT INTO venues (name, location, address, contact_name, contact_email, contact_phone,
		                    mileage_one_way, typical_pay, payment_method, requires_invoice, has_w9,
		                    booking_window_start, booking_window_end, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING id, created_at, updated_at
	`

	err := s.db.QueryRowContext(ctx, query,
		venue.Name, venue.Location, venue.Address, venue.ContactName, venue.ContactEmail, venue.ContactPhone,
		venue.MileageOneWay, venue.TypicalPay, venue.PaymentMethod, venue.RequiresInvoice, venue.HasW9,
		venue.BookingWindowStart, venue.BookingWindowEnd, venue.Notes,
	).Scan(&venue.ID, &venue.CreatedAt, &venue.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert venue: %w", err)
	}

	return venue, nil
}

// ListVenues returns all venues ordered by name
func (s *Store) ListVenues(ctx context.Context) ([]*models.Venue, error) {
	query := `SELECT` + venueColumns + `
		FROM venues
		ORDER BY name ASC
	`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("select venues: %w", err)
	}
	defer rows.Close()

	var venues []*models.Venue
	for rows.Next() {
		v, err := scanVenue(rows)
		if err != nil {
			return nil, fmt.Errorf("scan venue: %w", err)
		}
		venues = append(venues, v)
	}

	return venues, rows.Err()
}

// GetVenue retrieves a single venue by ID
func (s *Store) GetVenue(ctx context.Context, id int64) (*models.Venue, error) {
	query := `SELECT` + venueColumns + `
		FROM venues
		WHERE id = $1
	`

	v, err := scanVenue(s.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, ErrVenueNotFound
	}
	if err != nil {
		return nil, err
	}

	return v, nil
}

// UpdateVenue updates an existing venue
func (s *Store) UpdateVenue(ctx context.Context, id int64, venue *models.Venue) (*models.Venue, error) {
	query := `
		UPDATE venues
		SET name = $1, location = $2, address = $3, contact_name = $4, contact_email = $5,
		    contact_phone = $6, mileage_one_way = $7, typical_pay = $8, payment_method = $9,
		    requires_invoice = $10, has_w9 = $11, booking_window_start = $12,
		    booking_window_end = $13, notes = $14, updated_at = CURRENT_TIMESTAMP
		WHERE id = $15
		RETURNING` + venueColumns

	v, err := scanVenue(s.db.QueryRowContext(ctx, query,
		venue.Name, venue.Location, venue.Address, venue.ContactName, venue.ContactEmail,
		venue.ContactPhone, venue.MileageOneWay, venue.TypicalPay, venue.PaymentMethod,
		venue.RequiresInvoice, venue.HasW9, venue.BookingWindowStart,
		venue.BookingWindowEnd, venue.Notes, id,
	))
	if err == sql.ErrNoRows {
		return nil, ErrVenueNotFound
	}
	if err != nil {
		return nil, err
	}

	return v, nil
}

// DeleteVenue removes a venue in one transaction. Shows before today are
// detached and keep the venue name as a snapshot, shows from today on are
// cancelled, and active recurring gigs are deactivated. Contact logs are
// left in place.
func (s *Store) DeleteVenue(ctx context.Context, id int64, today time.Time) (*DeleteResult, error) {
	today = calendar.DateOf(today)
	res := &DeleteResult{}

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var name string
		err := tx.QueryRowContext(ctx, `
			SELECT name
			FROM venues
			WHERE id = $1
			FOR UPDATE
		`, id).Scan(&name)
		if err == sql.ErrNoRows {
			return ErrVenueNotFound
		}
		if err != nil {
			return fmt.Errorf("lock venue: %w", err)
		}

		result, err := tx.ExecContext(ctx, `
			UPDATE shows
			SET venue_id = NULL, venue_name_snapshot = $2, updated_at = CURRENT_TIMESTAMP
			WHERE venue_id = $1 AND date < $3
		`, id, name, today)
		if err != nil {
			return fmt.Errorf("detach past shows: %w", err)
		}
		if res.DetachedShows, err = result.RowsAffected(); err != nil {
			return err
		}

		result, err = tx.ExecContext(ctx, `
			UPDATE shows
			SET is_cancelled = TRUE, venue_name_snapshot = $2, updated_at = CURRENT_TIMESTAMP
			WHERE venue_id = $1 AND date >= $3
		`, id, name, today)
		if err != nil {
			return fmt.Errorf("cancel future shows: %w", err)
		}
		if res.CancelledShows, err = result.RowsAffected(); err != nil {
			return err
		}

		result, err = tx.ExecContext(ctx, `
			UPDATE recurring_gigs
			SET is_active = FALSE, updated_at = CURRENT_TIMESTAMP
			WHERE venue_id = $1 AND is_active
		`, id)
		if err != nil {
			return fmt.Errorf("deactivate recurring gigs: %w", err)
		}
		if res.DeactivatedGigs, err = result.RowsAffected(); err != nil {
			return err
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM venues WHERE id = $1`, id); err != nil {
			return fmt.Errorf("delete venue: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return res, nil
}
