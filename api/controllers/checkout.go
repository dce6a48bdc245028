package controllers

import (
	"net/http"

	"github.com/greengomarket/greengo-backend/api/responses"
	"github.com/greengomarket/greengo-backend/api/validators"
	"github.com/greengomarket/greengo-backend/internal/orders"
	"github.com/greengomarket/greengo-backend/pkg/enums"
	pkgerrors "github.com/greengomarket/greengo-backend/pkg/errors"
	"github.com/greengomarket/greengo-backend/pkg/logger"
)

type checkoutRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Name     string `json:"name" validate:"required,min=1,max=120"`
	Phone    string `json:"phone" validate:"required,min=5,max=32"`
	Address  string `json:"address" validate:"required,min=1,max=500"`
	Delivery string `json:"delivery" validate:"required"`
}

// Checkout turns the caller's cart into an order. Guests and signed-in users
// share this surface; the owner identity decides which cart is drained.
func Checkout(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := cartOwner(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload checkoutRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		delivery, err := enums.ParseDeliveryMethod(payload.Delivery)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "unsupported delivery method"))
			return
		}

		order, err := svc.PlaceOrder(r.Context(), id, orders.PlaceOrderInput{
			Email:    payload.Email,
			Name:     payload.Name,
			Phone:    payload.Phone,
			Address:  payload.Address,
			Delivery: delivery,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, order)
	}
}
