package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"

	"gigbook/internal/calendar"
	"gigbook/internal/rules"
	"gigbook/shared/go/models"
)

var (
	ErrShowNotFound = errors.New("show not found")
	// ErrShowExists signals a generated instance already exists for its gig and date.
	ErrShowExists = errors.New("show already exists for recurring gig and date")
)

const showColumns = `
	id, venue_id, recurring_gig_id, venue_name_snapshot, date, pay_amount,
	payment_status, payment_received_date, invoice_sent, invoice_sent_date,
	is_cancelled, notes, created_at, updated_at`

func scanShow(row rowScanner) (*models.Show, error) {
	var sh models.Show
	err := row.Scan(
		&sh.ID, &sh.VenueID, &sh.RecurringGigID, &sh.VenueNameSnapshot, &sh.Date, &sh.PayAmount,
		&sh.PaymentStatus, &sh.PaymentReceivedDate, &sh.InvoiceSent, &sh.InvoiceSentDate,
		&sh.IsCancelled, &sh.Notes, &sh.CreatedAt, &sh.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &sh, nil
}

func collectShows(rows *sql.Rows) ([]*models.Show, error) {
	defer rows.Close()

	var shows []*models.Show
	for rows.Next() {
		sh, err := scanShow(rows)
		if err != nil {
			return nil, fmt.Errorf("scan show: %w", err)
		}
		shows = append(shows, sh)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate shows: %w", err)
	}
	return shows, nil
}

// CreateShow inserts a show. A second instance for the same recurring gig
// and date fails with ErrShowExists.
func (s *Store) CreateShow(ctx context.Context, show *models.Show) (*models.Show, error) {
	if show.PaymentStatus == "" {
		show.PaymentStatus = models.PaymentPending
	}
	show.Date = calendar.DateOf(show.Date)

	query := `
		INSERT INTO shows (venue_id, recurring_gig_id, venue_name_snapshot, date, pay_amount,
		                   payment_status, payment_received_date, invoice_sent, invoice_sent_date,
		                   is_cancelled, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id, created_at, updated_at
	`

	err := s.db.QueryRowContext(ctx, query,
		show.VenueID, show.RecurringGigID, show.VenueNameSnapshot, show.Date, show.PayAmount,
		show.PaymentStatus, show.PaymentReceivedDate, show.InvoiceSent, show.InvoiceSentDate,
		show.IsCancelled, show.Notes,
	).Scan(&show.ID, &show.CreatedAt, &show.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrShowExists
		}
		return nil, fmt.Errorf("insert show: %w", err)
	}

	return show, nil
}

// GetShow retrieves a single show by ID
func (s *Store) GetShow(ctx context.Context, id int64) (*models.Show, error) {
	query := `SELECT` + showColumns + `
		FROM shows
		WHERE id = $1
	`

	sh, err := scanShow(s.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, ErrShowNotFound
	}
	if err != nil {
		return nil, err
	}
	return sh, nil
}

// GetShowForRecurringDate returns the instance generated for gigID on date,
// or ErrShowNotFound.
func (s *Store) GetShowForRecurringDate(ctx context.Context, gigID int64, date time.Time) (*models.Show, error) {
	query := `SELECT` + showColumns + `
		FROM shows
		WHERE recurring_gig_id = $1 AND date = $2
	`

	sh, err := scanShow(s.db.QueryRowContext(ctx, query, gigID, calendar.DateOf(date)))
	if err == sql.ErrNoRows {
		return nil, ErrShowNotFound
	}
	if err != nil {
		return nil, err
	}
	return sh, nil
}

// ListShows returns shows matching filter ordered by date.
func (s *Store) ListShows(ctx context.Context, filter models.ShowFilter) ([]*models.Show, error) {
	var (
		conds []string
		args  []any
	)
	add := func(cond string, arg any) {
		args = append(args, arg)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}
	if filter.VenueID != nil {
		add("venue_id = $%d", *filter.VenueID)
	}
	if filter.RecurringGigID != nil {
		add("recurring_gig_id = $%d", *filter.RecurringGigID)
	}
	if filter.FromDate != nil {
		add("date >= $%d", calendar.DateOf(*filter.FromDate))
	}
	if filter.ToDate != nil {
		add("date <= $%d", calendar.DateOf(*filter.ToDate))
	}

	query := `SELECT` + showColumns + `
		FROM shows`
	if len(conds) > 0 {
		query += `
		WHERE ` + strings.Join(conds, " AND ")
	}
	query += `
		ORDER BY date ASC, id ASC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("select shows: %w", err)
	}
	return collectShows(rows)
}

// ListShowsForVenues returns every show attached to one of venueIDs.
func (s *Store) ListShowsForVenues(ctx context.Context, venueIDs []int64) ([]*models.Show, error) {
	if len(venueIDs) == 0 {
		return nil, nil
	}

	query := `SELECT` + showColumns + `
		FROM shows
		WHERE venue_id = ANY($1)
		ORDER BY date ASC, id ASC
	`

	rows, err := s.db.QueryContext(ctx, query, pq.Array(venueIDs))
	if err != nil {
		return nil, fmt.Errorf("select venue shows: %w", err)
	}
	return collectShows(rows)
}

// ListDetachedShows returns shows whose venue was deleted.
func (s *Store) ListDetachedShows(ctx context.Context) ([]*models.Show, error) {
	query := `SELECT` + showColumns + `
		FROM shows
		WHERE venue_id IS NULL
		ORDER BY date ASC, id ASC
	`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("select detached shows: %w", err)
	}
	return collectShows(rows)
}

// MarkShowPaid records payment received on date.
func (s *Store) MarkShowPaid(ctx context.Context, id int64, received time.Time) (*models.Show, error) {
	received = calendar.DateOf(received)

	current, err := s.GetShow(ctx, id)
	if err != nil {
		return nil, err
	}
	if received.Before(calendar.DateOf(current.Date)) {
		return nil, &rules.RecordError{ShowID: id, Invariant: rules.InvariantReceivedBefore, Detail: "payment received before show date"}
	}

	query := `
		UPDATE shows
		SET payment_status = $1, payment_received_date = $2, updated_at = CURRENT_TIMESTAMP
		WHERE id = $3
		RETURNING` + showColumns

	sh, err := scanShow(s.db.QueryRowContext(ctx, query, models.PaymentPaid, received, id))
	if err == sql.ErrNoRows {
		return nil, ErrShowNotFound
	}
	if err != nil {
		return nil, err
	}
	return sh, nil
}

// MarkInvoiceSent records that an invoice went out on date.
func (s *Store) MarkInvoiceSent(ctx context.Context, id int64, sent time.Time) (*models.Show, error) {
	query := `
		UPDATE shows
		SET invoice_sent = TRUE, invoice_sent_date = $1, updated_at = CURRENT_TIMESTAMP
		WHERE id = $2
		RETURNING` + showColumns

	sh, err := scanShow(s.db.QueryRowContext(ctx, query, calendar.DateOf(sent), id))
	if err == sql.ErrNoRows {
		return nil, ErrShowNotFound
	}
	if err != nil {
		return nil, err
	}
	return sh, nil
}

// CancelShow marks a show cancelled.
func (s *Store) CancelShow(ctx context.Context, id int64) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE shows
		SET is_cancelled = TRUE, updated_at = CURRENT_TIMESTAMP
		WHERE id = $1
	`, id)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrShowNotFound
	}

	return nil
}
