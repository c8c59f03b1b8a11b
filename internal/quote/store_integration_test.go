package quote_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/quotesapp/backend-quotes/internal/common"
	"github.com/quotesapp/backend-quotes/internal/db"
	"github.com/quotesapp/backend-quotes/internal/groupdate"
	"github.com/quotesapp/backend-quotes/internal/lineitem"
	"github.com/quotesapp/backend-quotes/internal/quote"
)

// Exercises the whole quote tree against a real database. Runs only when
// TEST_DATABASE_URL points at a disposable Postgres instance.
func TestQuoteLifecycle(t *testing.T) {
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := db.NewPool(ctx, url, 4, "quotes-test", nil)
	require.NoError(t, err)
	defer pool.Close()
	require.NoError(t, db.Migrate(url))

	quotes := &quote.Store{Pool: pool}
	groups := &groupdate.Store{Pool: pool}
	items := &lineitem.Store{Pool: pool}

	created, err := quotes.Create(ctx, "Acme Rebuild Q1")
	require.NoError(t, err)
	require.Equal(t, "0.00", created.Total.String())
	defer func() {
		_, _ = quotes.Delete(context.Background(), created.ID)
	}()

	group, err := groups.Create(ctx, created.ID, "2024-03-15")
	require.NoError(t, err)

	item, err := items.Create(ctx, lineitem.Input{
		GroupID:   group.ID,
		Name:      "Widget",
		Quantity:  "3",
		UnitPrice: "8.50",
	})
	require.NoError(t, err)
	require.Equal(t, "25.50", item.Subtotal().String())

	read, err := quotes.Read(ctx, created.ID)
	require.NoError(t, err)
	require.Equal(t, "25.50", read.Total.String())
	require.Equal(t, "$25.50", read.Total.Display())

	// Reading through the group resolves the same aggregate.
	byGroup, err := quotes.ReadByGroup(ctx, group.ID)
	require.NoError(t, err)
	require.Equal(t, read.ID, byGroup.ID)
	require.Equal(t, read.Total, byGroup.Total)

	_, err = items.Update(ctx, item.ID, lineitem.Input{
		GroupID:   group.ID,
		Name:      "Widget",
		Quantity:  "2",
		UnitPrice: "10.00",
	})
	require.NoError(t, err)

	read, err = quotes.Read(ctx, created.ID)
	require.NoError(t, err)
	require.Equal(t, "20.00", read.Total.String())

	snapshot, err := items.Delete(ctx, item.ID)
	require.NoError(t, err)
	require.Equal(t, "20.00", snapshot.Subtotal().String())

	read, err = quotes.Read(ctx, created.ID)
	require.NoError(t, err)
	require.Equal(t, "0.00", read.Total.String())

	// Cascade: deleting the quote takes the group with it.
	deleted, err := quotes.Delete(ctx, created.ID)
	require.NoError(t, err)
	require.Equal(t, created.ID, deleted.ID)

	_, err = groups.Read(ctx, group.ID)
	require.True(t, common.IsNotFound(err))

	_, err = quotes.Read(ctx, created.ID)
	require.True(t, common.IsNotFound(err))
}

// Deleting one dated group must take exactly its own line items and nothing
// from sibling groups, and the quote total must shrink by exactly that
// group's subtotal.
func TestGroupDeleteSparesSiblings(t *testing.T) {
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := db.NewPool(ctx, url, 4, "quotes-test", nil)
	require.NoError(t, err)
	defer pool.Close()
	require.NoError(t, db.Migrate(url))

	quotes := &quote.Store{Pool: pool}
	groups := &groupdate.Store{Pool: pool}
	items := &lineitem.Store{Pool: pool}

	created, err := quotes.Create(ctx, "Two-day install")
	require.NoError(t, err)
	defer func() {
		_, _ = quotes.Delete(context.Background(), created.ID)
	}()

	dayOne, err := groups.Create(ctx, created.ID, "2024-03-15")
	require.NoError(t, err)
	dayTwo, err := groups.Create(ctx, created.ID, "2024-03-16")
	require.NoError(t, err)

	// Day one holds two items, day two holds one.
	doomedA, err := items.Create(ctx, lineitem.Input{
		GroupID: dayOne.ID, Name: "Labor", Quantity: "4", UnitPrice: "50.00",
	})
	require.NoError(t, err)
	doomedB, err := items.Create(ctx, lineitem.Input{
		GroupID: dayOne.ID, Name: "Parts", Quantity: "1", UnitPrice: "19.99",
	})
	require.NoError(t, err)
	survivor, err := items.Create(ctx, lineitem.Input{
		GroupID: dayTwo.ID, Name: "Cleanup", Quantity: "2", UnitPrice: "25.00",
	})
	require.NoError(t, err)

	read, err := quotes.Read(ctx, created.ID)
	require.NoError(t, err)
	require.Equal(t, "269.99", read.Total.String())

	snapshot, err := groups.Delete(ctx, dayOne.ID)
	require.NoError(t, err)
	require.Equal(t, dayOne.ID, snapshot.ID)

	// The deleted group and its items are gone.
	_, err = groups.Read(ctx, dayOne.ID)
	require.True(t, common.IsNotFound(err))
	_, err = items.Read(ctx, doomedA.ID)
	require.True(t, common.IsNotFound(err))
	_, err = items.Read(ctx, doomedB.ID)
	require.True(t, common.IsNotFound(err))

	// The sibling group and its item are untouched.
	kept, err := items.Read(ctx, survivor.ID)
	require.NoError(t, err)
	require.Equal(t, dayTwo.ID, kept.GroupID)
	remaining, err := items.ListByGroup(ctx, dayTwo.ID)
	require.NoError(t, err)
	require.Len(t, remaining, 1)

	// Total dropped by exactly day one's subtotal.
	read, err = quotes.Read(ctx, created.ID)
	require.NoError(t, err)
	require.Equal(t, "50.00", read.Total.String())

	snapshot, err = groups.Delete(ctx, dayTwo.ID)
	require.NoError(t, err)
	require.Equal(t, dayTwo.ID, snapshot.ID)

	read, err = quotes.Read(ctx, created.ID)
	require.NoError(t, err)
	require.Equal(t, "0.00", read.Total.String())
}

func TestQuoteCreateBlankName(t *testing.T) {
	quotes := &quote.Store{}
	_, err := quotes.Create(context.Background(), "   ")
	require.True(t, common.IsValidation(err))
}

func TestGroupCreateRejectsBadDate(t *testing.T) {
	groups := &groupdate.Store{}
	for _, text := range []string{"", "2024-3-15", "15-03-2024", "2024-13-40", "soon"} {
		_, err := groups.Create(context.Background(), "q1", text)
		require.True(t, common.IsValidation(err), "date %q", text)
	}
}

func TestItemInputRejectsZeroQuantity(t *testing.T) {
	items := &lineitem.Store{}
	_, err := items.Create(context.Background(), lineitem.Input{
		GroupID:   "g1",
		Name:      "Widget",
		Quantity:  "0",
		UnitPrice: "8.50",
	})
	require.True(t, common.IsValidation(err))
}
