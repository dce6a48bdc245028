package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/greengomarket/greengo-backend/api/responses"
	"github.com/greengomarket/greengo-backend/internal/catalog"
	"github.com/greengomarket/greengo-backend/pkg/enums"
	pkgerrors "github.com/greengomarket/greengo-backend/pkg/errors"
	"github.com/greengomarket/greengo-backend/pkg/logger"
)

// ProductList serves the public storefront catalog. The storefront never
// shows an error page for this surface; a failed read degrades to an empty
// list.
func ProductList(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var category *enums.ProductCategory
		if raw := strings.TrimSpace(r.URL.Query().Get("category")); raw != "" {
			parsed, err := enums.ParseProductCategory(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "unknown product category"))
				return
			}
			category = &parsed
		}

		products, err := svc.ListProducts(r.Context(), category)
		if err != nil {
			if logg != nil {
				logg.Warn(logg.WithField(r.Context(), "error", err.Error()), "catalog list degraded to empty")
			}
			responses.WriteSuccess(w, []catalog.ProductDTO{})
			return
		}

		responses.WriteSuccess(w, products)
	}
}

func ProductDetail(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		productID := chi.URLParam(r, "productId")

		product, err := svc.GetProduct(r.Context(), productID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, product)
	}
}
