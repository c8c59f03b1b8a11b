// Package lineitem owns the priced leaf records of a quote. The store
// computes no aggregates itself; totals are always read through the quote
// store so they can never drift from the rows written here.
package lineitem

import (
	"context"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/oklog/ulid/v2"

	"github.com/quotesapp/backend-quotes/internal/common"
	"github.com/quotesapp/backend-quotes/internal/db"
	"github.com/quotesapp/backend-quotes/internal/money"
	"github.com/quotesapp/backend-quotes/internal/obs"
)

// Entity is the NotFound entity kind for line items.
const Entity = "line item"

var quantityPattern = regexp.MustCompile(`^\d+$`)

// LineItem is a leaf record of name, quantity and unit price contributing to
// a quote's total.
type LineItem struct {
	ID          string
	GroupID     string
	Name        string
	Description string
	Quantity    int
	UnitPrice   money.Money
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Subtotal is the item's exact contribution to the owning quote's total.
func (li LineItem) Subtotal() money.Money {
	return li.UnitPrice.MulQty(li.Quantity)
}

// Input carries the textual form fields for create and update. Quantity and
// unit price stay text until validated; a parse failure is rejected, never
// coerced to zero.
type Input struct {
	GroupID     string
	Name        string
	Description string
	Quantity    string
	UnitPrice   string
}

func (in Input) parse() (qty int, price money.Money, err error) {
	if strings.TrimSpace(in.GroupID) == "" {
		return 0, 0, common.NewValidationError("lineItemDateId", "can't be blank")
	}
	if strings.TrimSpace(in.Name) == "" {
		return 0, 0, common.NewValidationError("name", "can't be blank")
	}
	if !quantityPattern.MatchString(strings.TrimSpace(in.Quantity)) {
		return 0, 0, common.NewValidationError("quantity", "must be a positive integer")
	}
	qty, convErr := strconv.Atoi(strings.TrimSpace(in.Quantity))
	if convErr != nil || qty <= 0 {
		return 0, 0, common.NewValidationError("quantity", "must be a positive integer")
	}
	price, err = money.Parse("unitPrice", in.UnitPrice)
	if err != nil {
		return 0, 0, err
	}
	return qty, price, nil
}

// Store persists line items on the shared connection pool.
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

// Create validates, persists and returns the stored record.
func (s *Store) Create(ctx context.Context, in Input) (LineItem, error) {
	qty, price, err := in.parse()
	if err != nil {
		obs.ObserveMutation("line_item", "create", err)
		return LineItem{}, err
	}
	now := s.now()
	record := LineItem{
		ID:          s.newID(),
		GroupID:     in.GroupID,
		Name:        in.Name,
		Description: strings.TrimSpace(in.Description),
		Quantity:    qty,
		UnitPrice:   price,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	_, err = s.Pool.Exec(ctx, `
		INSERT INTO line_items
			(id, line_item_date_id, name, description, quantity, unit_price, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		record.ID, record.GroupID, record.Name, nullableText(record.Description),
		record.Quantity, record.UnitPrice.Cents(), record.CreatedAt, record.UpdatedAt,
	)
	obs.ObserveMutation("line_item", "create", err)
	if err != nil {
		return LineItem{}, db.WrapError(Entity, record.ID, err)
	}
	return record, nil
}

// Read fetches a single line item.
func (s *Store) Read(ctx context.Context, id string) (LineItem, error) {
	row := s.Pool.QueryRow(ctx, `
		SELECT id, line_item_date_id, name, description, quantity, unit_price, created_at, updated_at
		FROM line_items
		WHERE id = $1`, id)
	record, err := scanLineItem(row)
	if err != nil {
		return LineItem{}, db.WrapError(Entity, id, err)
	}
	return record, nil
}

// Update re-validates every mutable field and persists the change.
func (s *Store) Update(ctx context.Context, id string, in Input) (LineItem, error) {
	qty, price, err := in.parse()
	if err != nil {
		obs.ObserveMutation("line_item", "update", err)
		return LineItem{}, err
	}
	description := strings.TrimSpace(in.Description)
	tag, err := s.Pool.Exec(ctx, `
		UPDATE line_items
		SET name = $1, description = $2, quantity = $3, unit_price = $4, updated_at = $5
		WHERE id = $6`,
		in.Name, nullableText(description), qty, price.Cents(), s.now(), id,
	)
	if err == nil && tag.RowsAffected() == 0 {
		err = pgx.ErrNoRows
	}
	obs.ObserveMutation("line_item", "update", err)
	if err != nil {
		return LineItem{}, db.WrapError(Entity, id, err)
	}
	return s.Read(ctx, id)
}

// Delete removes the row and returns the pre-delete snapshot. Line items are
// leaves so no further cascade runs.
func (s *Store) Delete(ctx context.Context, id string) (LineItem, error) {
	record, err := s.Read(ctx, id)
	if err != nil {
		obs.ObserveMutation("line_item", "delete", err)
		return LineItem{}, err
	}
	tag, err := s.Pool.Exec(ctx, `DELETE FROM line_items WHERE id = $1`, id)
	if err == nil && tag.RowsAffected() == 0 {
		err = pgx.ErrNoRows
	}
	obs.ObserveMutation("line_item", "delete", err)
	if err != nil {
		return LineItem{}, db.WrapError(Entity, id, err)
	}
	return record, nil
}

// ListByGroup returns the group's items in insertion order.
func (s *Store) ListByGroup(ctx context.Context, groupID string) ([]LineItem, error) {
	rows, err := s.Pool.Query(ctx, `
		SELECT id, line_item_date_id, name, description, quantity, unit_price, created_at, updated_at
		FROM line_items
		WHERE line_item_date_id = $1
		ORDER BY id`, groupID)
	if err != nil {
		return nil, db.WrapError(Entity, groupID, err)
	}
	defer rows.Close()
	return collectLineItems(rows, groupID)
}

// ListByQuote returns every item transitively under the quote, grouped by
// owning date. It reflects exactly the rows the total aggregate sums.
func (s *Store) ListByQuote(ctx context.Context, quoteID string) ([]LineItem, error) {
	rows, err := s.Pool.Query(ctx, `
		SELECT li.id, li.line_item_date_id, li.name, li.description, li.quantity, li.unit_price, li.created_at, li.updated_at
		FROM line_items li
		JOIN line_item_dates lid ON li.line_item_date_id = lid.id
		WHERE lid.quote_id = $1
		ORDER BY lid.date, li.line_item_date_id, li.id`, quoteID)
	if err != nil {
		return nil, db.WrapError(Entity, quoteID, err)
	}
	defer rows.Close()
	return collectLineItems(rows, quoteID)
}

// DeleteAllForGroup removes every item under the group inside the caller's
// open transaction. Invoked only from the dated-group delete path.
func DeleteAllForGroup(ctx context.Context, tx pgx.Tx, groupID string) error {
	_, err := tx.Exec(ctx, `DELETE FROM line_items WHERE line_item_date_id = $1`, groupID)
	if err != nil {
		return db.WrapError(Entity, groupID, err)
	}
	return nil
}

// DeleteAllForQuote removes every item transitively under the quote inside
// the caller's open transaction. Invoked only from the quote delete path.
func DeleteAllForQuote(ctx context.Context, tx pgx.Tx, quoteID string) error {
	_, err := tx.Exec(ctx, `
		DELETE FROM line_items
		WHERE line_item_date_id IN (
			SELECT id FROM line_item_dates WHERE quote_id = $1
		)`, quoteID)
	if err != nil {
		return db.WrapError(Entity, quoteID, err)
	}
	return nil
}

func scanLineItem(row pgx.Row) (LineItem, error) {
	var (
		record      LineItem
		description pgtype.Text
		cents       int64
	)
	err := row.Scan(
		&record.ID, &record.GroupID, &record.Name, &description,
		&record.Quantity, &cents, &record.CreatedAt, &record.UpdatedAt,
	)
	if err != nil {
		return LineItem{}, err
	}
	if description.Valid {
		record.Description = description.String
	}
	record.UnitPrice = money.Money(cents)
	return record, nil
}

func collectLineItems(rows pgx.Rows, id string) ([]LineItem, error) {
	records := make([]LineItem, 0)
	for rows.Next() {
		record, err := scanLineItem(rows)
		if err != nil {
			return nil, db.WrapError(Entity, id, err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, db.WrapError(Entity, id, err)
	}
	return records, nil
}

func nullableText(value string) pgtype.Text {
	if value == "" {
		return pgtype.Text{}
	}
	return pgtype.Text{String: value, Valid: true}
}
