package handler

import (
	"net/http"
	"time"

	"github.com/go-faster/jx"

	"github.com/greenbasket/storefront/internal/domain/order"
)

// All responses share the storefront envelope: {"success": true, ...} on
// success and {"success": false, "message": ..., "errors": [...]} on failure.

// writeJSON encodes a response body with the given encode function and writes
// it with the given status code.
func writeJSON(w http.ResponseWriter, status int, encode func(e *jx.Encoder)) {
	var e jx.Encoder
	encode(&e)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(e.Bytes())
}

// writeError writes the failure envelope. The optional errs list carries
// itemized validation messages.
func writeError(w http.ResponseWriter, status int, message string, errs []string) {
	writeJSON(w, status, func(e *jx.Encoder) {
		e.ObjStart()
		e.FieldStart("success")
		e.Bool(false)
		e.FieldStart("message")
		e.Str(message)
		if len(errs) > 0 {
			e.FieldStart("errors")
			e.ArrStart()
			for _, msg := range errs {
				e.Str(msg)
			}
			e.ArrEnd()
		}
		e.ObjEnd()
	})
}

// writeData writes the success envelope with a data payload and an optional
// message.
func writeData(w http.ResponseWriter, status int, message string, data func(e *jx.Encoder)) {
	writeJSON(w, status, func(e *jx.Encoder) {
		e.ObjStart()
		e.FieldStart("success")
		e.Bool(true)
		if message != "" {
			e.FieldStart("message")
			e.Str(message)
		}
		e.FieldStart("data")
		data(e)
		e.ObjEnd()
	})
}

func encodeTime(e *jx.Encoder, t time.Time) {
	e.Str(t.UTC().Format(time.RFC3339Nano))
}

// encodeOrder writes the full order document.
func encodeOrder(e *jx.Encoder, o *order.Order) {
	e.ObjStart()
	e.FieldStart("id")
	e.Str(o.ID)
	e.FieldStart("orderNumber")
	e.Str(o.OrderNumber)

	e.FieldStart("items")
	e.ArrStart()
	for _, item := range o.Items {
		e.ObjStart()
		e.FieldStart("product")
		e.ObjStart()
		e.FieldStart("id")
		e.Str(item.Product.ID)
		e.FieldStart("name")
		e.Str(item.Product.Name)
		e.FieldStart("price")
		e.Float64(item.Product.Price.InexactFloat64())
		e.FieldStart("image")
		e.Str(item.Product.Image)
		e.FieldStart("category")
		e.Str(item.Product.Category)
		e.ObjEnd()
		e.FieldStart("quantity")
		e.Int(item.Quantity)
		e.ObjEnd()
	}
	e.ArrEnd()

	e.FieldStart("total")
	e.Float64(o.Total.InexactFloat64())

	e.FieldStart("customer")
	e.ObjStart()
	e.FieldStart("name")
	e.Str(o.Customer.Name)
	e.FieldStart("email")
	e.Str(o.Customer.Email)
	if o.Customer.Phone != "" {
		e.FieldStart("phone")
		e.Str(o.Customer.Phone)
	}
	if o.Customer.Address != "" {
		e.FieldStart("address")
		e.Str(o.Customer.Address)
	}
	e.ObjEnd()

	e.FieldStart("status")
	e.Str(string(o.Status))
	e.FieldStart("paymentMethod")
	e.Str(string(o.PaymentMethod))

	e.FieldStart("shipping")
	e.ObjStart()
	e.FieldStart("cost")
	e.Float64(o.Shipping.Cost.InexactFloat64())
	e.FieldStart("method")
	e.Str(o.Shipping.Method)
	if o.Shipping.Address != "" {
		e.FieldStart("address")
		e.Str(o.Shipping.Address)
	}
	e.ObjEnd()

	e.FieldStart("createdAt")
	encodeTime(e, o.CreatedAt)
	e.FieldStart("updatedAt")
	encodeTime(e, o.UpdatedAt)
	e.ObjEnd()
}

// encodePagination writes the pagination block of a listing response.
func encodePagination(e *jx.Encoder, p order.Pagination) {
	e.ObjStart()
	e.FieldStart("currentPage")
	e.Int(p.CurrentPage)
	e.FieldStart("totalPages")
	e.Int(p.TotalPages)
	e.FieldStart("totalOrders")
	e.Int(p.TotalOrders)
	e.FieldStart("hasNextPage")
	e.Bool(p.HasNextPage)
	e.FieldStart("hasPrevPage")
	e.Bool(p.HasPrevPage)
	e.ObjEnd()
}
