package controllers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/greengomarket/greengo-backend/api/middleware"
	"github.com/greengomarket/greengo-backend/api/responses"
	"github.com/greengomarket/greengo-backend/api/validators"
	cartsvc "github.com/greengomarket/greengo-backend/internal/cart"
	"github.com/greengomarket/greengo-backend/internal/identity"
	"github.com/greengomarket/greengo-backend/pkg/cartstream"
	"github.com/greengomarket/greengo-backend/pkg/db/models"
	pkgerrors "github.com/greengomarket/greengo-backend/pkg/errors"
	"github.com/greengomarket/greengo-backend/pkg/logger"
)

type cartView struct {
	Items     models.CartLines `json:"items"`
	ItemCount int              `json:"item_count"`
	Total     int              `json:"total"`
}

func newCartView(lines models.CartLines) cartView {
	if lines == nil {
		lines = models.CartLines{}
	}
	return cartView{
		Items:     lines,
		ItemCount: lines.ItemCount(),
		Total:     lines.Total(),
	}
}

type addItemRequest struct {
	ProductID string `json:"product_id" validate:"required"`
}

// Quantity carries no validation tag: negatives are legal input and clamp
// to zero downstream.
type updateQuantityRequest struct {
	Quantity int `json:"quantity"`
}

func cartOwner(r *http.Request) (identity.Identity, error) {
	id := middleware.IdentityFromContext(r.Context())
	if id.IsZero() {
		return identity.Identity{}, pkgerrors.New(pkgerrors.CodeValidation, "a guest token or authentication is required")
	}
	return id, nil
}

func CartFetch(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := cartOwner(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		lines, err := svc.GetCart(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newCartView(lines))
	}
}

func CartAddItem(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := cartOwner(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload addItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		lines, err := svc.AddItem(r.Context(), id, payload.ProductID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newCartView(lines))
	}
}

func CartUpdateQuantity(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := cartOwner(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload updateQuantityRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		lines, err := svc.UpdateQuantity(r.Context(), id, chi.URLParam(r, "productId"), payload.Quantity)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newCartView(lines))
	}
}

func CartRemoveItem(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := cartOwner(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		lines, err := svc.RemoveItem(r.Context(), id, chi.URLParam(r, "productId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newCartView(lines))
	}
}

func CartClear(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := cartOwner(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Clear(r.Context(), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newCartView(nil))
	}
}

type cartSummaryView struct {
	ItemCount int `json:"item_count"`
	Total     int `json:"total"`
}

// CartSummary returns the derived count and total without the line items.
// The display layer polls this for the cart badge.
func CartSummary(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := cartOwner(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		lines, err := svc.GetCart(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, cartSummaryView{
			ItemCount: lines.ItemCount(),
			Total:     lines.Total(),
		})
	}
}

const streamKeepAlive = 25 * time.Second

// CartStream pushes live cart snapshots to the client over server-sent
// events. Intermediate states may be skipped; the client always converges on
// the latest snapshot.
func CartStream(svc cartsvc.Service, subs *cartstream.Subscriber, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := cartOwner(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		flusher, ok := w.(http.Flusher)
		if !ok {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "streaming unsupported"))
			return
		}

		sub, err := subs.Subscribe(r.Context(), id.OwnerKey())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "opening cart stream"))
			return
		}
		defer sub.Close()

		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")
		w.WriteHeader(http.StatusOK)

		// Prime the stream with the current state so the client does not
		// wait for the next mutation.
		if lines, getErr := svc.GetCart(r.Context(), id); getErr == nil {
			writeSnapshotEvent(w, cartstream.SnapshotFor(id.OwnerKey(), lines, time.Now()))
			flusher.Flush()
		}

		keepAlive := time.NewTicker(streamKeepAlive)
		defer keepAlive.Stop()

		for {
			select {
			case <-r.Context().Done():
				return
			case <-keepAlive.C:
				fmt.Fprint(w, ": keep-alive\n\n")
				flusher.Flush()
			case snap, open := <-sub.C:
				if !open {
					return
				}
				writeSnapshotEvent(w, snap)
				flusher.Flush()
			}
		}
	}
}

func writeSnapshotEvent(w http.ResponseWriter, snap cartstream.Snapshot) {
	payload, err := json.Marshal(snap)
	if err != nil {
		return
	}
	fmt.Fprintf(w, "event: cart\ndata: %s\n\n", payload)
}
