// Package groupdate owns the dated groupings of line items within a quote.
// Deleting a group cascades to its line items inside one transaction so a
// partial cascade is never observable.
package groupdate

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/oklog/ulid/v2"

	"github.com/quotesapp/backend-quotes/internal/common"
	"github.com/quotesapp/backend-quotes/internal/db"
	"github.com/quotesapp/backend-quotes/internal/lineitem"
	"github.com/quotesapp/backend-quotes/internal/obs"
	"github.com/quotesapp/backend-quotes/internal/validate"
)

// Entity is the NotFound entity kind for dated groups.
const Entity = "line item date"

var datePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// Group is a dated sub-collection of line items within a quote.
type Group struct {
	ID        string
	QuoteID   string
	Date      time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Store persists dated groups on the shared connection pool.
type Store struct {
	Pool  *pgxpool.Pool
	Now   func() time.Time
	NewID func() string
}

func (s *Store) now() time.Time {
	if s != nil && s.Now != nil {
		return s.Now()
	}
	return time.Now().UTC()
}

func (s *Store) newID() string {
	if s != nil && s.NewID != nil {
		return s.NewID()
	}
	return ulid.Make().String()
}

func parseDate(text string) (time.Time, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return time.Time{}, common.NewValidationError("date", "can't be blank")
	}
	if !datePattern.MatchString(trimmed) {
		return time.Time{}, common.NewValidationError("date", "must be a valid date (YYYY-MM-DD)")
	}
	date, err := time.Parse(validate.DateLayout, trimmed)
	if err != nil {
		return time.Time{}, common.NewValidationError("date", "must be a valid date (YYYY-MM-DD)")
	}
	return date, nil
}

// Create validates and persists a new dated group under the quote.
func (s *Store) Create(ctx context.Context, quoteID, dateText string) (Group, error) {
	if strings.TrimSpace(quoteID) == "" {
		err := common.NewValidationError("quoteId", "can't be blank")
		obs.ObserveMutation("line_item_date", "create", err)
		return Group{}, err
	}
	date, err := parseDate(dateText)
	if err != nil {
		obs.ObserveMutation("line_item_date", "create", err)
		return Group{}, err
	}
	now := s.now()
	record := Group{
		ID:        s.newID(),
		QuoteID:   quoteID,
		Date:      date,
		CreatedAt: now,
		UpdatedAt: now,
	}
	_, err = s.Pool.Exec(ctx, `
		INSERT INTO line_item_dates (id, quote_id, date, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)`,
		record.ID, record.QuoteID, record.Date, record.CreatedAt, record.UpdatedAt,
	)
	obs.ObserveMutation("line_item_date", "create", err)
	if err != nil {
		return Group{}, db.WrapError(Entity, record.ID, err)
	}
	return record, nil
}

// Read fetches a single dated group.
func (s *Store) Read(ctx context.Context, id string) (Group, error) {
	row := s.Pool.QueryRow(ctx, `
		SELECT id, quote_id, date, created_at, updated_at
		FROM line_item_dates
		WHERE id = $1`, id)
	record, err := scanGroup(row)
	if err != nil {
		return Group{}, db.WrapError(Entity, id, err)
	}
	return record, nil
}

// Update changes the group's date.
func (s *Store) Update(ctx context.Context, id, dateText string) (Group, error) {
	date, err := parseDate(dateText)
	if err != nil {
		obs.ObserveMutation("line_item_date", "update", err)
		return Group{}, err
	}
	tag, err := s.Pool.Exec(ctx, `
		UPDATE line_item_dates
		SET date = $1, updated_at = $2
		WHERE id = $3`,
		date, s.now(), id,
	)
	if err == nil && tag.RowsAffected() == 0 {
		err = pgx.ErrNoRows
	}
	obs.ObserveMutation("line_item_date", "update", err)
	if err != nil {
		return Group{}, db.WrapError(Entity, id, err)
	}
	return s.Read(ctx, id)
}

// Delete atomically removes the group's line items, then the group row, and
// returns the pre-delete snapshot. If the item cascade fails the group row
// survives.
func (s *Store) Delete(ctx context.Context, id string) (Group, error) {
	record, err := s.Read(ctx, id)
	if err != nil {
		obs.ObserveMutation("line_item_date", "delete", err)
		return Group{}, err
	}
	start := s.now()
	tx, err := s.Pool.Begin(ctx)
	if err != nil {
		obs.ObserveMutation("line_item_date", "delete", err)
		return Group{}, db.WrapError(Entity, id, err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	if err := lineitem.DeleteAllForGroup(ctx, tx, id); err != nil {
		obs.ObserveMutation("line_item_date", "delete", err)
		return Group{}, err
	}
	tag, err := tx.Exec(ctx, `DELETE FROM line_item_dates WHERE id = $1`, id)
	if err == nil && tag.RowsAffected() == 0 {
		err = pgx.ErrNoRows
	}
	if err == nil {
		err = tx.Commit(ctx)
	}
	obs.ObserveMutation("line_item_date", "delete", err)
	if err != nil {
		return Group{}, db.WrapError(Entity, id, err)
	}
	if obs.CascadeDeleteTotal != nil {
		obs.CascadeDeleteTotal.WithLabelValues("line_item_date").Inc()
		obs.CascadeDeleteDuration.WithLabelValues("line_item_date").Observe(obs.DurationMillis(s.now().Sub(start)))
	}
	return record, nil
}

// ListByQuote returns the quote's groups ordered by date ascending.
func (s *Store) ListByQuote(ctx context.Context, quoteID string) ([]Group, error) {
	rows, err := s.Pool.Query(ctx, `
		SELECT id, quote_id, date, created_at, updated_at
		FROM line_item_dates
		WHERE quote_id = $1
		ORDER BY date, id`, quoteID)
	if err != nil {
		return nil, db.WrapError(Entity, quoteID, err)
	}
	defer rows.Close()

	records := make([]Group, 0)
	for rows.Next() {
		record, err := scanGroup(rows)
		if err != nil {
			return nil, db.WrapError(Entity, quoteID, err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, db.WrapError(Entity, quoteID, err)
	}
	return records, nil
}

// DeleteAllForQuote cascades line items then groups for every group under the
// quote, inside the caller's open transaction. Invoked only from the quote
// delete path.
func DeleteAllForQuote(ctx context.Context, tx pgx.Tx, quoteID string) error {
	if err := lineitem.DeleteAllForQuote(ctx, tx, quoteID); err != nil {
		return err
	}
	_, err := tx.Exec(ctx, `DELETE FROM line_item_dates WHERE quote_id = $1`, quoteID)
	if err != nil {
		return db.WrapError(Entity, quoteID, err)
	}
	return nil
}

func scanGroup(row pgx.Row) (Group, error) {
	var record Group
	err := row.Scan(&record.ID, &record.QuoteID, &record.Date, &record.CreatedAt, &record.UpdatedAt)
	if err != nil {
		return Group{}, err
	}
	return record, nil
}
