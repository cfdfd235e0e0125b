package api

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/example/ec-storefront/internal/api/middleware"
	"github.com/example/ec-storefront/internal/api/responses"
	"github.com/example/ec-storefront/internal/checkout"
	"github.com/example/ec-storefront/internal/domain/cart"
	"github.com/example/ec-storefront/internal/logger"
)

// CartHandlers serves the shopper's session cart.
type CartHandlers struct {
	carts *cart.Service
	log   *logger.Logger
}

func NewCartHandlers(carts *cart.Service, log *logger.Logger) *CartHandlers {
	return &CartHandlers{carts: carts, log: log}
}

// CartView is a cart snapshot with its checkout totals.
type CartView struct {
	cart.Snapshot
	Totals checkout.Summary `json:"totals"`
}

type AddItemResponse struct {
	Line cart.Line `json:"line"`
	Cart CartView  `json:"cart"`
}

type UpdateQuantityRequest struct {
	Quantity *int `json:"quantity" validate:"required,max=999"`
}

func (h *CartHandlers) GetCart(w http.ResponseWriter, r *http.Request) {
	view, err := h.view(r.Context(), r)
	if err != nil {
		responses.WriteError(r.Context(), h.log, w, err)
		return
	}
	responses.WriteSuccess(w, view)
}

func (h *CartHandlers) AddItem(w http.ResponseWriter, r *http.Request) {
	var req cart.AddRequest
	if err := decodeJSONBody(r, &req); err != nil {
		responses.WriteError(r.Context(), h.log, w, err)
		return
	}

	line, err := h.carts.AddProduct(r.Context(), sessionID(r), req)
	if err != nil {
		responses.WriteError(r.Context(), h.log, w, err)
		return
	}

	view, err := h.view(r.Context(), r)
	if err != nil {
		responses.WriteError(r.Context(), h.log, w, err)
		return
	}
	responses.WriteSuccessStatus(w, http.StatusCreated, AddItemResponse{Line: line, Cart: view})
}

// UpdateItem sets a line's quantity; zero or less removes the line.
func (h *CartHandlers) UpdateItem(w http.ResponseWriter, r *http.Request) {
	var req UpdateQuantityRequest
	if err := decodeJSONBody(r, &req); err != nil {
		responses.WriteError(r.Context(), h.log, w, err)
		return
	}

	_, err := h.carts.UpdateQuantity(r.Context(), sessionID(r), chi.URLParam(r, "lineId"), *req.Quantity)
	h.respondWithCart(w, r, err)
}

func (h *CartHandlers) RemoveItem(w http.ResponseWriter, r *http.Request) {
	_, err := h.carts.RemoveItem(r.Context(), sessionID(r), chi.URLParam(r, "lineId"))
	h.respondWithCart(w, r, err)
}

func (h *CartHandlers) ClearCart(w http.ResponseWriter, r *http.Request) {
	err := h.carts.Clear(r.Context(), sessionID(r))
	h.respondWithCart(w, r, err)
}

func (h *CartHandlers) respondWithCart(w http.ResponseWriter, r *http.Request, err error) {
	if err != nil {
		responses.WriteError(r.Context(), h.log, w, err)
		return
	}
	view, err := h.view(r.Context(), r)
	if err != nil {
		responses.WriteError(r.Context(), h.log, w, err)
		return
	}
	responses.WriteSuccess(w, view)
}

// ShippingMethods lists the available shipping methods and their rates.
func (h *CartHandlers) ShippingMethods(w http.ResponseWriter, r *http.Request) {
	responses.WriteSuccess(w, checkout.Methods())
}

func (h *CartHandlers) view(ctx context.Context, r *http.Request) (CartView, error) {
	c, err := h.carts.Cart(ctx, sessionID(r))
	if err != nil {
		return CartView{}, err
	}
	snap := c.Snapshot()
	totals, err := checkout.Quote(snap.Subtotal, checkout.ShippingMethod(r.URL.Query().Get("shipping")))
	if err != nil {
		return CartView{}, err
	}
	return CartView{Snapshot: snap, Totals: totals}, nil
}

func sessionID(r *http.Request) string {
	return middleware.SessionIDFromContext(r.Context())
}
