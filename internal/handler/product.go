package handler

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/greenbasket/storefront/internal/domain/product"
)

// listProducts returns the catalog. An optional ids query parameter
// (comma-separated) narrows the result, which the cart screen uses to refresh
// line prices in one round trip.
func (h *Handler) listProducts(w http.ResponseWriter, r *http.Request) {
	var (
		products []product.Product
		err      error
	)
	if ids := splitIDs(r.URL.Query().Get("ids")); len(ids) > 0 {
		products, err = h.products.GetByIDs(r.Context(), ids)
	} else {
		products, err = h.products.List(r.Context())
	}
	if err != nil {
		zctx.From(r.Context()).Error("list products", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Server error while fetching products", nil)
		return
	}

	writeData(w, http.StatusOK, "", func(e *jx.Encoder) {
		e.ArrStart()
		for i := range products {
			h.encodeProduct(e, &products[i])
		}
		e.ArrEnd()
	})
}

func (h *Handler) getProduct(w http.ResponseWriter, r *http.Request) {
	p, err := h.products.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, product.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Product not found", nil)
			return
		}
		zctx.From(r.Context()).Error("get product", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Server error while fetching product", nil)
		return
	}

	writeData(w, http.StatusOK, "", func(e *jx.Encoder) {
		h.encodeProduct(e, p)
	})
}

// splitIDs parses a comma-separated id list, dropping empty entries.
func splitIDs(raw string) []string {
	if raw == "" {
		return nil
	}
	var ids []string
	for _, id := range strings.Split(raw, ",") {
		if id = strings.TrimSpace(id); id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}

// encodeProduct writes a catalog product. Relative image paths are prefixed
// with the configured image base URL.
func (h *Handler) encodeProduct(e *jx.Encoder, p *product.Product) {
	image := p.Image
	if h.imageBaseURL != "" && !strings.HasPrefix(image, "http") {
		image = h.imageBaseURL + image
	}

	e.ObjStart()
	e.FieldStart("id")
	e.Str(p.ID)
	e.FieldStart("name")
	e.Str(p.Name)
	e.FieldStart("price")
	e.Float64(p.Price.InexactFloat64())
	if !p.OriginalPrice.IsZero() {
		e.FieldStart("originalPrice")
		e.Float64(p.OriginalPrice.InexactFloat64())
	}
	e.FieldStart("image")
	e.Str(image)
	e.FieldStart("category")
	e.Str(p.Category)
	e.FieldStart("inStock")
	e.Bool(p.InStock)
	e.ObjEnd()
}
