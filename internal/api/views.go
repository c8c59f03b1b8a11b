package api

import (
	"github.com/quotesapp/backend-quotes/internal/groupdate"
	"github.com/quotesapp/backend-quotes/internal/lineitem"
	"github.com/quotesapp/backend-quotes/internal/quote"
	"github.com/quotesapp/backend-quotes/internal/validate"
)

// Monetary fields ship twice: "total"/"unitPrice" as plain two-decimal text
// for machine use, and a "*Display" form with currency symbol and grouping.

// quoteSummaryView is the list-row shape: identity only, no aggregate.
func quoteSummaryView(record quote.Quote) map[string]any {
	return map[string]any{
		"id":        record.ID,
		"name":      record.Name,
		"createdAt": record.CreatedAt,
		"updatedAt": record.UpdatedAt,
	}
}

func quoteView(record quote.QuoteWithTotal) map[string]any {
	return map[string]any{
		"id":           record.ID,
		"name":         record.Name,
		"total":        record.Total.String(),
		"totalDisplay": record.Total.Display(),
		"createdAt":    record.CreatedAt,
		"updatedAt":    record.UpdatedAt,
	}
}

func groupView(record groupdate.Group) map[string]any {
	return map[string]any{
		"id":        record.ID,
		"quoteId":   record.QuoteID,
		"date":      record.Date.Format(validate.DateLayout),
		"createdAt": record.CreatedAt,
		"updatedAt": record.UpdatedAt,
	}
}

func itemView(record lineitem.LineItem) map[string]any {
	var description *string
	if record.Description != "" {
		description = &record.Description
	}
	return map[string]any{
		"id":               record.ID,
		"lineItemDateId":   record.GroupID,
		"name":             record.Name,
		"description":      description,
		"quantity":         record.Quantity,
		"unitPrice":        record.UnitPrice.String(),
		"unitPriceDisplay": record.UnitPrice.Display(),
		"subtotal":         record.Subtotal().String(),
		"createdAt":        record.CreatedAt,
		"updatedAt":        record.UpdatedAt,
	}
}

func itemViews(records []lineitem.LineItem) []map[string]any {
	views := make([]map[string]any, 0, len(records))
	for _, record := range records {
		views = append(views, itemView(record))
	}
	return views
}
