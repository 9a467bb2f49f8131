package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/go-faster/sdk/zctx"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/greenbasket/storefront/internal/domain/order"
	"github.com/greenbasket/storefront/internal/domain/promo"
)

type createOrderRequest struct {
	Items []struct {
		Product struct {
			ID       string          `json:"id"`
			Name     string          `json:"name"`
			Price    decimal.Decimal `json:"price"`
			Image    string          `json:"image"`
			Category string          `json:"category"`
		} `json:"product"`
		Quantity int `json:"quantity"`
	} `json:"items"`
	Total    decimal.Decimal `json:"total"`
	Customer struct {
		Name    string `json:"name"`
		Email   string `json:"email"`
		Phone   string `json:"phone"`
		Address string `json:"address"`
	} `json:"customer"`
	PaymentMethod string `json:"paymentMethod"`
	Shipping      *struct {
		Cost     decimal.Decimal `json:"cost"`
		Method   string          `json:"method"`
		Address  string          `json:"address"`
		District string          `json:"district"`
	} `json:"shipping"`
	PromoCode string `json:"promoCode"`
}

func (h *Handler) createOrder(w http.ResponseWriter, r *http.Request) {
	var req createOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", nil)
		return
	}

	placeReq := order.PlaceOrderRequest{
		Total: req.Total,
		Customer: order.Customer{
			Name:    req.Customer.Name,
			Email:   req.Customer.Email,
			Phone:   req.Customer.Phone,
			Address: req.Customer.Address,
		},
		PaymentMethod: req.PaymentMethod,
		PromoCode:     req.PromoCode,
	}
	for _, item := range req.Items {
		placeReq.Items = append(placeReq.Items, order.Item{
			Product: order.ProductSnapshot{
				ID:       item.Product.ID,
				Name:     item.Product.Name,
				Price:    item.Product.Price,
				Image:    item.Product.Image,
				Category: item.Product.Category,
			},
			Quantity: item.Quantity,
		})
	}
	if req.Shipping != nil {
		placeReq.Shipping = &order.ShippingInput{
			Cost:     req.Shipping.Cost,
			Method:   req.Shipping.Method,
			Address:  req.Shipping.Address,
			District: req.Shipping.District,
		}
	}

	o, err := h.orders.Place(r.Context(), placeReq)
	if err != nil {
		h.mapOrderError(w, r, err, "Server error while creating order")
		return
	}

	writeData(w, http.StatusCreated, "Order created successfully", func(e *jx.Encoder) {
		e.ObjStart()
		e.FieldStart("orderId")
		e.Str(o.ID)
		e.FieldStart("orderNumber")
		e.Str(o.OrderNumber)
		e.FieldStart("total")
		e.Float64(o.Total.InexactFloat64())
		e.FieldStart("status")
		e.Str(string(o.Status))
		e.FieldStart("createdAt")
		encodeTime(e, o.CreatedAt)
		e.ObjEnd()
	})
}

func (h *Handler) listOrders(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := order.ListFilter{
		Status: q.Get("status"),
		Email:  q.Get("email"),
	}
	filter.Page, _ = strconv.Atoi(q.Get("page"))
	filter.Limit, _ = strconv.Atoi(q.Get("limit"))

	orders, pagination, err := h.orders.List(r.Context(), filter)
	if err != nil {
		h.mapOrderError(w, r, err, "Server error while fetching orders")
		return
	}

	writeData(w, http.StatusOK, "", func(e *jx.Encoder) {
		e.ObjStart()
		e.FieldStart("orders")
		e.ArrStart()
		for i := range orders {
			encodeOrder(e, &orders[i])
		}
		e.ArrEnd()
		e.FieldStart("pagination")
		encodePagination(e, pagination)
		e.ObjEnd()
	})
}

func (h *Handler) getOrder(w http.ResponseWriter, r *http.Request) {
	o, err := h.orders.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.mapOrderError(w, r, err, "Server error while fetching order")
		return
	}

	writeData(w, http.StatusOK, "", func(e *jx.Encoder) {
		encodeOrder(e, o)
	})
}

func (h *Handler) updateOrderStatus(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", nil)
		return
	}

	o, err := h.orders.UpdateStatus(r.Context(), chi.URLParam(r, "id"), req.Status)
	if err != nil {
		h.mapOrderError(w, r, err, "Server error while updating order status")
		return
	}

	writeData(w, http.StatusOK, "Order status updated successfully", func(e *jx.Encoder) {
		encodeOrder(e, o)
	})
}

func (h *Handler) orderStats(w http.ResponseWriter, r *http.Request) {
	summary, recent, err := h.orders.Summarize(r.Context())
	if err != nil {
		h.mapOrderError(w, r, err, "Server error while fetching order statistics")
		return
	}

	writeData(w, http.StatusOK, "", func(e *jx.Encoder) {
		e.ObjStart()
		e.FieldStart("summary")
		e.ObjStart()
		e.FieldStart("totalOrders")
		e.Int(summary.TotalOrders)
		e.FieldStart("pendingOrders")
		e.Int(summary.PendingOrders)
		e.FieldStart("completedOrders")
		e.Int(summary.CompletedOrders)
		e.FieldStart("totalRevenue")
		e.Float64(summary.TotalRevenue.InexactFloat64())
		e.ObjEnd()

		e.FieldStart("recentOrders")
		e.ArrStart()
		for _, ro := range recent {
			e.ObjStart()
			e.FieldStart("orderNumber")
			e.Str(ro.OrderNumber)
			e.FieldStart("customerName")
			e.Str(ro.CustomerName)
			e.FieldStart("total")
			e.Float64(ro.Total.InexactFloat64())
			e.FieldStart("status")
			e.Str(string(ro.Status))
			e.FieldStart("createdAt")
			encodeTime(e, ro.CreatedAt)
			e.ObjEnd()
		}
		e.ArrEnd()
		e.ObjEnd()
	})
}

// mapOrderError converts domain errors to the appropriate HTTP response.
// Anything unrecognized is logged server-side and reported as a generic 500.
func (h *Handler) mapOrderError(w http.ResponseWriter, r *http.Request, err error, generic string) {
	var vErr *order.ValidationError
	switch {
	case errors.As(err, &vErr):
		writeError(w, http.StatusBadRequest, "Validation error", vErr.Messages)
	case errors.Is(err, order.ErrInvalidStatus):
		writeError(w, http.StatusBadRequest, "Invalid status value", nil)
	case errors.Is(err, order.ErrInvalidID):
		writeError(w, http.StatusBadRequest, "Invalid order ID", nil)
	case errors.Is(err, order.ErrNotFound):
		writeError(w, http.StatusNotFound, "Order not found", nil)
	case errors.Is(err, promo.ErrInvalidCode):
		writeError(w, http.StatusBadRequest, "Invalid promo code", nil)
	case errors.Is(err, promo.ErrAlreadyApplied):
		writeError(w, http.StatusBadRequest, "Promo code already applied", nil)
	default:
		zctx.From(r.Context()).Error("request failed",
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
		writeError(w, http.StatusInternalServerError, generic, nil)
	}
}
