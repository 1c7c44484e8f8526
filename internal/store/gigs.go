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

var ErrRecurringGigNotFound = errors.New("recurring gig not found")

const gigColumns = `
	id, venue_id, pay_amount, pattern_type, day_of_week, day_of_month, ordinal,
	interval_weeks, start_date, end_date, is_active, created_at, updated_at`

func scanGig(row rowScanner) (*models.RecurringGig, error) {
	var g models.RecurringGig
	err := row.Scan(
		&g.ID, &g.VenueID, &g.PayAmount, &g.PatternType, &g.DayOfWeek, &g.DayOfMonth, &g.Ordinal,
		&g.IntervalWeeks, &g.StartDate, &g.EndDate, &g.IsActive, &g.CreatedAt, &g.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &g, nil
}

// CreateRecurringGig inserts a recurring gig. Callers validate the pattern first.
func (s *Store) CreateRecurringGig(ctx context.Context, gig *models.RecurringGig) (*models.RecurringGig, error) {
	gig.StartDate = calendar.DateOf(gig.StartDate)
	if gig.EndDate != nil {
		end := calendar.DateOf(*gig.EndDate)
		gig.EndDate = &end
	}

	query := `
		INSERT INTO recurring_gigs (venue_id, pay_amount, pattern_type, day_of_week, day_of_month,
		                            ordinal, interval_weeks, start_date, end_date, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, created_at, updated_at
	`

	err := s.db.QueryRowContext(ctx, query,
		gig.VenueID, gig.PayAmount, gig.PatternType, gig.DayOfWeek, gig.DayOfMonth,
		gig.Ordinal, gig.IntervalWeeks, gig.StartDate, gig.EndDate, gig.IsActive,
	).Scan(&gig.ID, &gig.CreatedAt, &gig.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert recurring gig: %w", err)
	}

	return gig, nil
}

// GetRecurringGig retrieves a single recurring gig by ID
func (s *Store) GetRecurringGig(ctx context.Context, id int64) (*models.RecurringGig, error) {
	query := `SELECT` + gigColumns + `
		FROM recurring_gigs
		WHERE id = $1
	`

	g, err := scanGig(s.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, ErrRecurringGigNotFound
	}
	if err != nil {
		return nil, err
	}
	return g, nil
}

// ListRecurringGigs returns recurring gigs, optionally only active ones.
func (s *Store) ListRecurringGigs(ctx context.Context, activeOnly bool) ([]*models.RecurringGig, error) {
	query := `SELECT` + gigColumns + `
		FROM recurring_gigs
		WHERE is_active OR NOT $1
		ORDER BY id ASC
	`

	rows, err := s.db.QueryContext(ctx, query, activeOnly)
	if err != nil {
		return nil, fmt.Errorf("select recurring gigs: %w", err)
	}
	defer rows.Close()

	var gigs []*models.RecurringGig
	for rows.Next() {
		g, err := scanGig(rows)
		if err != nil {
			return nil, fmt.Errorf("scan recurring gig: %w", err)
		}
		gigs = append(gigs, g)
	}

	return gigs, rows.Err()
}

// DeactivateRecurringGig stops a gig from generating shows. When cancelFrom
// is set, its unpaid instances on or after that date are cancelled and the
// count is returned.
func (s *Store) DeactivateRecurringGig(ctx context.Context, id int64, cancelFrom *time.Time) (int64, error) {
	var cancelled int64

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx, `
			UPDATE recurring_gigs
			SET is_active = FALSE, updated_at = CURRENT_TIMESTAMP
			WHERE id = $1
		`, id)
		if err != nil {
			return fmt.Errorf("deactivate recurring gig: %w", err)
		}
		rows, err := result.RowsAffected()
		if err != nil {
			return err
		}
		if rows == 0 {
			return ErrRecurringGigNotFound
		}

		if cancelFrom == nil {
			return nil
		}

		result, err = tx.ExecContext(ctx, `
			UPDATE shows
			SET is_cancelled = TRUE, updated_at = CURRENT_TIMESTAMP
			WHERE recurring_gig_id = $1 AND date >= $2 AND payment_status = 'pending' AND NOT is_cancelled
		`, id, calendar.DateOf(*cancelFrom))
		if err != nil {
			return fmt.Errorf("cancel instances: %w", err)
		}
		cancelled, err = result.RowsAffected()
		return err
	})
	if err != nil {
		return 0, err
	}

	return cancelled, nil
}
