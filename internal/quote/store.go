// Package quote owns quote records and the live total derived from their
// line items. Totals are never stored; every read recomputes the sum so
// the aggregate can't drift from the rows underneath it.
package quote

import (
	"context"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/oklog/ulid/v2"

	"github.com/quotesapp/backend-quotes/internal/common"
	"github.com/quotesapp/backend-quotes/internal/db"
	"github.com/quotesapp/backend-quotes/internal/groupdate"
	"github.com/quotesapp/backend-quotes/internal/money"
	"github.com/quotesapp/backend-quotes/internal/obs"
)

// Entity is the NotFound entity kind for quotes.
const Entity = "quote"

// Quote is the root aggregate record.
type Quote struct {
	ID        string
	Name      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// QuoteWithTotal pairs a quote with its total recomputed at read time.
type QuoteWithTotal struct {
	Quote
	Total money.Money
}

// Store persists quotes on the shared connection pool.
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

// totalSubquery sums quantity * unit_price over every line item reachable
// from the quote, via its dated groups. Empty quotes sum to zero, not NULL.
const totalSubquery = `COALESCE((
	SELECT SUM(li.quantity * li.unit_price)
	FROM line_items li
	JOIN line_item_dates lid ON lid.id = li.line_item_date_id
	WHERE lid.quote_id = q.id
), 0)::bigint`

// List returns every quote, newest first. The index listing skips the total
// aggregate; only the detail reads pay for the per-quote sum.
func (s *Store) List(ctx context.Context) ([]Quote, error) {
	rows, err := s.Pool.Query(ctx, `
		SELECT id, name, created_at, updated_at
		FROM quotes
		ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, db.WrapError(Entity, "", err)
	}
	defer rows.Close()

	records := make([]Quote, 0)
	for rows.Next() {
		var record Quote
		if err := rows.Scan(&record.ID, &record.Name, &record.CreatedAt, &record.UpdatedAt); err != nil {
			return nil, db.WrapError(Entity, "", err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, db.WrapError(Entity, "", err)
	}
	return records, nil
}

// Read fetches one quote with its freshly aggregated total.
func (s *Store) Read(ctx context.Context, id string) (QuoteWithTotal, error) {
	row := s.Pool.QueryRow(ctx, `
		SELECT q.id, q.name, q.created_at, q.updated_at, `+totalSubquery+` AS total
		FROM quotes q
		WHERE q.id = $1`, id)
	record, err := scanQuoteWithTotal(row)
	if err != nil {
		return QuoteWithTotal{}, db.WrapError(Entity, id, err)
	}
	obs.ObserveRecompute()
	return record, nil
}

// ReadByGroup resolves the quote owning the given dated group and returns it
// with its total. Group and item handlers use this to report the owning
// quote's recomputed total after a mutation.
func (s *Store) ReadByGroup(ctx context.Context, groupID string) (QuoteWithTotal, error) {
	row := s.Pool.QueryRow(ctx, `
		SELECT q.id, q.name, q.created_at, q.updated_at, `+totalSubquery+` AS total
		FROM quotes q
		JOIN line_item_dates lid ON lid.quote_id = q.id
		WHERE lid.id = $1`, groupID)
	record, err := scanQuoteWithTotal(row)
	if err != nil {
		return QuoteWithTotal{}, db.WrapError(Entity, groupID, err)
	}
	obs.ObserveRecompute()
	return record, nil
}

// Create validates and persists a new quote. New quotes have no line items,
// so the total is zero by construction.
func (s *Store) Create(ctx context.Context, name string) (QuoteWithTotal, error) {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		err := common.NewValidationError("name", "can't be blank")
		obs.ObserveMutation("quote", "create", err)
		return QuoteWithTotal{}, err
	}
	now := s.now()
	record := QuoteWithTotal{
		Quote: Quote{
			ID:        s.newID(),
			Name:      trimmed,
			CreatedAt: now,
			UpdatedAt: now,
		},
	}
	_, err := s.Pool.Exec(ctx, `
		INSERT INTO quotes (id, name, created_at, updated_at)
		VALUES ($1, $2, $3, $4)`,
		record.ID, record.Name, record.CreatedAt, record.UpdatedAt,
	)
	obs.ObserveMutation("quote", "create", err)
	if err != nil {
		return QuoteWithTotal{}, db.WrapError(Entity, record.ID, err)
	}
	return record, nil
}

// Update renames the quote and returns the fresh aggregate.
func (s *Store) Update(ctx context.Context, id, name string) (QuoteWithTotal, error) {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		err := common.NewValidationError("name", "can't be blank")
		obs.ObserveMutation("quote", "update", err)
		return QuoteWithTotal{}, err
	}
	tag, err := s.Pool.Exec(ctx, `
		UPDATE quotes
		SET name = $1, updated_at = $2
		WHERE id = $3`,
		trimmed, s.now(), id,
	)
	if err == nil && tag.RowsAffected() == 0 {
		err = pgx.ErrNoRows
	}
	obs.ObserveMutation("quote", "update", err)
	if err != nil {
		return QuoteWithTotal{}, db.WrapError(Entity, id, err)
	}
	return s.Read(ctx, id)
}

// Delete removes the quote and everything under it in one transaction:
// line items first, then dated groups, then the quote row. The returned
// snapshot carries the total as it stood before deletion.
func (s *Store) Delete(ctx context.Context, id string) (QuoteWithTotal, error) {
	record, err := s.Read(ctx, id)
	if err != nil {
		obs.ObserveMutation("quote", "delete", err)
		return QuoteWithTotal{}, err
	}
	start := s.now()
	tx, err := s.Pool.Begin(ctx)
	if err != nil {
		obs.ObserveMutation("quote", "delete", err)
		return QuoteWithTotal{}, db.WrapError(Entity, id, err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	if err := groupdate.DeleteAllForQuote(ctx, tx, id); err != nil {
		obs.ObserveMutation("quote", "delete", err)
		return QuoteWithTotal{}, err
	}
	tag, err := tx.Exec(ctx, `DELETE FROM quotes WHERE id = $1`, id)
	if err == nil && tag.RowsAffected() == 0 {
		err = pgx.ErrNoRows
	}
	if err == nil {
		err = tx.Commit(ctx)
	}
	obs.ObserveMutation("quote", "delete", err)
	if err != nil {
		return QuoteWithTotal{}, db.WrapError(Entity, id, err)
	}
	if obs.CascadeDeleteTotal != nil {
		obs.CascadeDeleteTotal.WithLabelValues("quote").Inc()
		obs.CascadeDeleteDuration.WithLabelValues("quote").Observe(obs.DurationMillis(s.now().Sub(start)))
	}
	return record, nil
}

func scanQuoteWithTotal(row pgx.Row) (QuoteWithTotal, error) {
	var record QuoteWithTotal
	var total int64
	err := row.Scan(&record.ID, &record.Name, &record.CreatedAt, &record.UpdatedAt, &total)
	if err != nil {
		return QuoteWithTotal{}, err
	}
	record.Total = money.Money(total)
	return record, nil
}
