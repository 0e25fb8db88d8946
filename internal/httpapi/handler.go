package httpapi

import (
	"context"
	"encoding/json"
	"net/http"

	"canteen-be/internal/checkout"
	"canteen-be/internal/menu"
	"canteen-be/internal/mirror"
	"canteen-be/internal/notify"
	"canteen-be/internal/order"
	"canteen-be/internal/utils"

	"github.com/julienschmidt/httprouter"
)

type Handler struct {
	orders   order.Service
	checkout checkout.Service
	menu     menu.Service
	mirror   *mirror.Cache
	hub      *notify.Hub
}

func NewHandler(
	orders order.Service,
	checkoutSvc checkout.Service,
	menuSvc menu.Service,
	mirrorCache *mirror.Cache,
	hub *notify.Hub,
) *Handler {
	return &Handler{
		orders:   orders,
		checkout: checkoutSvc,
		menu:     menuSvc,
		mirror:   mirrorCache,
		hub:      hub,
	}
}

func (h *Handler) CreateCheckoutSession(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var input checkout.CheckoutInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid request body"})
		return
	}

	result, err := h.checkout.CreateSession(r.Context(), input)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, result)
}

func (h *Handler) CompleteCheckout(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	sessionID := r.URL.Query().Get("session_id")
	if sessionID == "" {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "session_id is required"})
		return
	}

	committed, err := h.checkout.Complete(r.Context(), sessionID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, committed)
}

type ordersResponse struct {
	Orders []*order.Order `json:"orders"`

	// LegacyEntries carries mirror records with no persistent row,
	// present only on admin responses.
	LegacyEntries []mirror.Entry `json:"legacy_entries,omitempty"`
}

func (h *Handler) ListOrders(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var filter order.Filter
	if raw := r.URL.Query().Get("status"); raw != "" {
		status, err := order.ParseStatus(raw)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
			return
		}
		filter.Status = &status
	}

	orders, err := h.orders.List(r.Context(), &filter)
	if err != nil {
		writeError(w, r, err)
		return
	}

	resp := ordersResponse{Orders: orders}
	if orders == nil {
		resp.Orders = []*order.Order{}
	}

	if utils.IsAdmin(r.Context()) {
		entries, err := h.mirrorEntries(r, filter.Status)
		if err == nil {
			resp.LegacyEntries = mirror.DedupeAgainst(entries, orders)
		}
	}

	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) mirrorEntries(r *http.Request, status *order.Status) ([]mirror.Entry, error) {
	if status != nil {
		return h.mirror.ListByStatus(r.Context(), *status)
	}

	var all []mirror.Entry
	for _, s := range []order.Status{order.StatusPending, order.StatusAccepted, order.StatusDelivered} {
		entries, err := h.mirror.ListByStatus(r.Context(), s)
		if err != nil {
			return nil, err
		}
		all = append(all, entries...)
	}
	return all, nil
}

func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	o, err := h.orders.GetByID(r.Context(), ps.ByName("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, o)
}

func (h *Handler) AcceptOrder(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	h.transition(w, r, ps, h.orders.Accept)
}

func (h *Handler) DeliverOrder(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	h.transition(w, r, ps, h.orders.MarkDelivered)
}

func (h *Handler) CancelOrder(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	h.transition(w, r, ps, h.orders.Cancel)
}

// transition runs one lifecycle operation. Mirror entries are not
// touched here; reads reconcile them against the store's status.
func (h *Handler) transition(
	w http.ResponseWriter,
	r *http.Request,
	ps httprouter.Params,
	op func(ctx context.Context, orderID string) (*order.Order, error),
) {
	updated, err := op(r.Context(), ps.ByName("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

type notesRequest struct {
	Notes string `json:"notes"`
}

func (h *Handler) UpdateOrderNotes(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var body notesRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid request body"})
		return
	}

	updated, err := h.orders.UpdateNotes(r.Context(), ps.ByName("id"), body.Notes)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (h *Handler) ListMenu(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	filter := menu.Filter{
		Category:      r.URL.Query().Get("category"),
		OnlyAvailable: r.URL.Query().Get("available") == "true",
	}

	items, err := h.menu.List(r.Context(), &filter)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if items == nil {
		items = []*menu.MenuItem{}
	}
	writeJSON(w, http.StatusOK, items)
}

type availabilityRequest struct {
	Available bool `json:"available"`
}

func (h *Handler) SetMenuAvailability(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var body availabilityRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid request body"})
		return
	}

	item, err := h.menu.SetAvailability(r.Context(), ps.ByName("id"), body.Available)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

func (h *Handler) OrdersFeed(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	h.hub.HandleWS(w, r)
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":     "ok",
		"ws_clients": h.hub.ConnCount(),
	})
}
