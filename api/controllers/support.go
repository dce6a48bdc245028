package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/greengomarket/greengo-backend/api/middleware"
	"github.com/greengomarket/greengo-backend/api/responses"
	"github.com/greengomarket/greengo-backend/api/validators"
	"github.com/greengomarket/greengo-backend/internal/support"
	"github.com/greengomarket/greengo-backend/pkg/logger"
)

type createTicketRequest struct {
	Name    string  `json:"name" validate:"required,min=1,max=120"`
	Email   string  `json:"email" validate:"required,email"`
	OrderID *string `json:"order_id,omitempty" validate:"omitempty,max=64"`
	Message string  `json:"message" validate:"required,min=1,max=4000"`
}

type ticketReplyRequest struct {
	Message string `json:"message" validate:"required,min=1,max=4000"`
}

func SupportCreateTicket(svc support.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload createTicketRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		ticket, err := svc.CreateTicket(r.Context(), middleware.UserIDFromContext(r.Context()), support.CreateTicketInput{
			Name:    payload.Name,
			Email:   payload.Email,
			OrderID: payload.OrderID,
			Message: payload.Message,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, ticket)
	}
}

func SupportMyTickets(svc support.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tickets, err := svc.ListMyTickets(r.Context(), middleware.UserIDFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, tickets)
	}
}

func SupportTicketDetail(svc support.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		ticket, err := svc.GetTicket(ctx,
			chi.URLParam(r, "ticketId"),
			middleware.UserIDFromContext(ctx),
			middleware.RoleFromContext(ctx) == "admin",
		)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, ticket)
	}
}

func SupportReply(svc support.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload ticketReplyRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		ctx := r.Context()
		ticket, err := svc.AppendReply(ctx,
			chi.URLParam(r, "ticketId"),
			middleware.UserIDFromContext(ctx),
			middleware.RoleFromContext(ctx) == "admin",
			payload.Message,
		)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, ticket)
	}
}
