// Package api wires the quote, dated-group and line-item stores to HTTP.
// Handlers live together here because group and item mutations answer with
// the owning quote's recomputed total, which needs the quote store alongside
// the store being mutated.
package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/quotesapp/backend-quotes/internal/common"
	"github.com/quotesapp/backend-quotes/internal/groupdate"
	"github.com/quotesapp/backend-quotes/internal/lineitem"
	"github.com/quotesapp/backend-quotes/internal/quote"
	"github.com/quotesapp/backend-quotes/internal/validate"
)

// QuoteStore is the slice of quote.Store the handlers consume.
type QuoteStore interface {
	List(ctx context.Context) ([]quote.Quote, error)
	Read(ctx context.Context, id string) (quote.QuoteWithTotal, error)
	ReadByGroup(ctx context.Context, groupID string) (quote.QuoteWithTotal, error)
	Create(ctx context.Context, name string) (quote.QuoteWithTotal, error)
	Update(ctx context.Context, id, name string) (quote.QuoteWithTotal, error)
	Delete(ctx context.Context, id string) (quote.QuoteWithTotal, error)
}

// GroupStore is the slice of groupdate.Store the handlers consume.
type GroupStore interface {
	Create(ctx context.Context, quoteID, dateText string) (groupdate.Group, error)
	Read(ctx context.Context, id string) (groupdate.Group, error)
	Update(ctx context.Context, id, dateText string) (groupdate.Group, error)
	Delete(ctx context.Context, id string) (groupdate.Group, error)
	ListByQuote(ctx context.Context, quoteID string) ([]groupdate.Group, error)
}

// ItemStore is the slice of lineitem.Store the handlers consume.
type ItemStore interface {
	Create(ctx context.Context, in lineitem.Input) (lineitem.LineItem, error)
	Read(ctx context.Context, id string) (lineitem.LineItem, error)
	Update(ctx context.Context, id string, in lineitem.Input) (lineitem.LineItem, error)
	Delete(ctx context.Context, id string) (lineitem.LineItem, error)
	ListByGroup(ctx context.Context, groupID string) ([]lineitem.LineItem, error)
	ListByQuote(ctx context.Context, quoteID string) ([]lineitem.LineItem, error)
}

// Handler exposes the quote tree over HTTP.
type Handler struct {
	Quotes   QuoteStore
	Groups   GroupStore
	Items    ItemStore
	Validate *validator.Validate
}

type quotePayload struct {
	Name string `json:"name" validate:"required"`
}

type datePayload struct {
	Date string `json:"date" validate:"required,quote_date"`
}

type itemPayload struct {
	Name        string `json:"name" validate:"required"`
	Description string `json:"description"`
	Quantity    string `json:"quantity" validate:"required,quantity_text"`
	UnitPrice   string `json:"unitPrice" validate:"required,money_text"`
}

func (h *Handler) decode(r *http.Request, payload any) error {
	if err := json.NewDecoder(r.Body).Decode(payload); err != nil {
		return common.NewValidationError("body", "must be valid JSON")
	}
	return validate.Struct(h.Validate, payload)
}

// ListQuotes returns every quote, newest first. List rows carry no total;
// the aggregate is computed only on detail reads.
func (h *Handler) ListQuotes(w http.ResponseWriter, r *http.Request) {
	records, err := h.Quotes.List(r.Context())
	if err != nil {
		common.WriteAppError(w, err)
		return
	}
	views := make([]map[string]any, 0, len(records))
	for _, record := range records {
		views = append(views, quoteSummaryView(record))
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": views})
}

// CreateQuote creates an empty quote. Its total is zero until items arrive.
func (h *Handler) CreateQuote(w http.ResponseWriter, r *http.Request) {
	var payload quotePayload
	if err := h.decode(r, &payload); err != nil {
		common.WriteAppError(w, err)
		return
	}
	record, err := h.Quotes.Create(r.Context(), payload.Name)
	if err != nil {
		common.WriteAppError(w, err)
		return
	}
	common.JSON(w, http.StatusCreated, map[string]any{"data": quoteView(record)})
}

// GetQuote returns the quote detail: total, dated groups in date order, and
// each group's line items in insertion order.
func (h *Handler) GetQuote(w http.ResponseWriter, r *http.Request) {
	quoteID := chi.URLParam(r, "quoteID")
	record, err := h.Quotes.Read(r.Context(), quoteID)
	if err != nil {
		common.WriteAppError(w, err)
		return
	}
	groups, err := h.Groups.ListByQuote(r.Context(), quoteID)
	if err != nil {
		common.WriteAppError(w, err)
		return
	}
	items, err := h.Items.ListByQuote(r.Context(), quoteID)
	if err != nil {
		common.WriteAppError(w, err)
		return
	}
	byGroup := make(map[string][]lineitem.LineItem, len(groups))
	for _, item := range items {
		byGroup[item.GroupID] = append(byGroup[item.GroupID], item)
	}
	groupViews := make([]map[string]any, 0, len(groups))
	for _, group := range groups {
		view := groupView(group)
		view["lineItems"] = itemViews(byGroup[group.ID])
		groupViews = append(groupViews, view)
	}
	view := quoteView(record)
	view["lineItemDates"] = groupViews
	common.JSON(w, http.StatusOK, map[string]any{"data": view})
}

// UpdateQuote renames the quote.
func (h *Handler) UpdateQuote(w http.ResponseWriter, r *http.Request) {
	var payload quotePayload
	if err := h.decode(r, &payload); err != nil {
		common.WriteAppError(w, err)
		return
	}
	record, err := h.Quotes.Update(r.Context(), chi.URLParam(r, "quoteID"), payload.Name)
	if err != nil {
		common.WriteAppError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": quoteView(record)})
}

// DeleteQuote removes the quote and its whole subtree, answering with the
// pre-delete snapshot so the caller can show what went away.
func (h *Handler) DeleteQuote(w http.ResponseWriter, r *http.Request) {
	record, err := h.Quotes.Delete(r.Context(), chi.URLParam(r, "quoteID"))
	if err != nil {
		common.WriteAppError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": quoteView(record)})
}

// CreateDate adds a dated group under the quote.
func (h *Handler) CreateDate(w http.ResponseWriter, r *http.Request) {
	var payload datePayload
	if err := h.decode(r, &payload); err != nil {
		common.WriteAppError(w, err)
		return
	}
	quoteID := chi.URLParam(r, "quoteID")
	// Resolve the owner first so an unknown quote is a 404, not an FK error.
	// An empty group contributes nothing, so this total is already current.
	owner, err := h.Quotes.Read(r.Context(), quoteID)
	if err != nil {
		common.WriteAppError(w, err)
		return
	}
	group, err := h.Groups.Create(r.Context(), quoteID, payload.Date)
	if err != nil {
		common.WriteAppError(w, err)
		return
	}
	common.JSON(w, http.StatusCreated, map[string]any{"data": map[string]any{
		"lineItemDate": groupView(group),
		"quote":        quoteView(owner),
	}})
}

// UpdateDate moves the group to a different date. The quote total is
// unaffected but returned anyway for a uniform mutation response.
func (h *Handler) UpdateDate(w http.ResponseWriter, r *http.Request) {
	var payload datePayload
	if err := h.decode(r, &payload); err != nil {
		common.WriteAppError(w, err)
		return
	}
	dateID := chi.URLParam(r, "dateID")
	group, err := h.Groups.Update(r.Context(), dateID, payload.Date)
	if err != nil {
		common.WriteAppError(w, err)
		return
	}
	owner, err := h.Quotes.ReadByGroup(r.Context(), dateID)
	if err != nil {
		common.WriteAppError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": map[string]any{
		"lineItemDate": groupView(group),
		"quote":        quoteView(owner),
	}})
}

// DeleteDate removes the group and its items, answering with the pre-delete
// snapshot and the owning quote's freshly shrunk total.
func (h *Handler) DeleteDate(w http.ResponseWriter, r *http.Request) {
	group, err := h.Groups.Delete(r.Context(), chi.URLParam(r, "dateID"))
	if err != nil {
		common.WriteAppError(w, err)
		return
	}
	owner, err := h.Quotes.Read(r.Context(), group.QuoteID)
	if err != nil {
		common.WriteAppError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": map[string]any{
		"lineItemDate": groupView(group),
		"quote":        quoteView(owner),
	}})
}

// CreateItem adds a line item under the dated group.
func (h *Handler) CreateItem(w http.ResponseWriter, r *http.Request) {
	var payload itemPayload
	if err := h.decode(r, &payload); err != nil {
		common.WriteAppError(w, err)
		return
	}
	dateID := chi.URLParam(r, "dateID")
	if _, err := h.Groups.Read(r.Context(), dateID); err != nil {
		common.WriteAppError(w, err)
		return
	}
	item, err := h.Items.Create(r.Context(), lineitem.Input{
		GroupID:     dateID,
		Name:        payload.Name,
		Description: payload.Description,
		Quantity:    payload.Quantity,
		UnitPrice:   payload.UnitPrice,
	})
	if err != nil {
		common.WriteAppError(w, err)
		return
	}
	owner, err := h.Quotes.ReadByGroup(r.Context(), dateID)
	if err != nil {
		common.WriteAppError(w, err)
		return
	}
	common.JSON(w, http.StatusCreated, map[string]any{"data": map[string]any{
		"lineItem": itemView(item),
		"quote":    quoteView(owner),
	}})
}

// UpdateItem re-validates and replaces the item's mutable fields.
func (h *Handler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	var payload itemPayload
	if err := h.decode(r, &payload); err != nil {
		common.WriteAppError(w, err)
		return
	}
	itemID := chi.URLParam(r, "itemID")
	current, err := h.Items.Read(r.Context(), itemID)
	if err != nil {
		common.WriteAppError(w, err)
		return
	}
	item, err := h.Items.Update(r.Context(), itemID, lineitem.Input{
		GroupID:     current.GroupID,
		Name:        payload.Name,
		Description: payload.Description,
		Quantity:    payload.Quantity,
		UnitPrice:   payload.UnitPrice,
	})
	if err != nil {
		common.WriteAppError(w, err)
		return
	}
	owner, err := h.Quotes.ReadByGroup(r.Context(), item.GroupID)
	if err != nil {
		common.WriteAppError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": map[string]any{
		"lineItem": itemView(item),
		"quote":    quoteView(owner),
	}})
}

// DeleteItem removes the item, answering with the pre-delete snapshot and
// the owning quote's recomputed total.
func (h *Handler) DeleteItem(w http.ResponseWriter, r *http.Request) {
	item, err := h.Items.Delete(r.Context(), chi.URLParam(r, "itemID"))
	if err != nil {
		common.WriteAppError(w, err)
		return
	}
	owner, err := h.Quotes.ReadByGroup(r.Context(), item.GroupID)
	if err != nil {
		common.WriteAppError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": map[string]any{
		"lineItem": itemView(item),
		"quote":    quoteView(owner),
	}})
}
