package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/greengomarket/greengo-backend/api/middleware"
	"github.com/greengomarket/greengo-backend/api/responses"
	"github.com/greengomarket/greengo-backend/internal/orders"
	pkgerrors "github.com/greengomarket/greengo-backend/pkg/errors"
	"github.com/greengomarket/greengo-backend/pkg/logger"
)

// OrderHistory lists the signed-in user's orders, matched on the email their
// token carries.
func OrderHistory(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		email := middleware.UserEmailFromContext(r.Context())
		if email == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
			return
		}

		history, err := svc.ListOrdersByEmail(r.Context(), email)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, history)
	}
}

// OrderDetail returns a single order. Customers may only read orders placed
// under their own email; admins read anything.
func OrderDetail(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		order, err := svc.GetOrder(r.Context(), chi.URLParam(r, "orderId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if middleware.RoleFromContext(r.Context()) != "admin" {
			email := middleware.UserEmailFromContext(r.Context())
			if email == "" || order.UserEmail != email {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "order belongs to another user"))
				return
			}
		}

		responses.WriteSuccess(w, order)
	}
}
