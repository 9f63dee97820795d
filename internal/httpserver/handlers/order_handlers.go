package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"haat/internal/apperr"
	"haat/internal/auth"
	"haat/internal/models"
	"haat/internal/orders"
)

type trackedItem struct {
	ProductID     string          `json:"product_id"`
	ProductNameEn string          `json:"product_name_en"`
	ProductNameHi string          `json:"product_name_hi"`
	Quantity      int             `json:"quantity"`
	UnitPrice     decimal.Decimal `json:"unit_price"`
}

type trackedOrder struct {
	ID            string               `json:"id"`
	OrderNumber   string               `json:"order_number"`
	Status        models.OrderStatus   `json:"status"`
	PaymentStatus models.PaymentStatus `json:"payment_status"`
	Total         decimal.Decimal      `json:"total"`
	Items         []trackedItem        `json:"items"`
	CreatedAt     time.Time            `json:"created_at"`
	UpdatedAt     time.Time            `json:"updated_at"`
}

// TrackOrder is the public tracking lookup. It omits shipping details since
// the caller is not authenticated.
func TrackOrder(d *Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		o, err := d.Orders.Get(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			d.Fail(w, r, err)
			return
		}
		res := trackedOrder{
			ID: o.ID, OrderNumber: o.OrderNumber, Status: o.Status, PaymentStatus: o.PaymentStatus,
			Total: o.Total, CreatedAt: o.CreatedAt, UpdatedAt: o.UpdatedAt,
		}
		for _, it := range o.Items {
			res.Items = append(res.Items, trackedItem{
				ProductID: it.ProductID, ProductNameEn: it.ProductNameEn, ProductNameHi: it.ProductNameHi,
				Quantity: it.Quantity, UnitPrice: it.UnitPrice,
			})
		}
		respondJSON(w, res)
	}
}

type placeOrderReq struct {
	UserID        string               `json:"user_id"`
	Items         []orders.LineInput   `json:"items"`
	FromCart      bool                 `json:"fromCart"`
	Shipping      orders.Shipping      `json:"shipping"`
	PaymentMethod models.PaymentMethod `json:"payment_method"`
	Notes         string               `json:"notes"`
}

func (p placeOrderReq) input(userID string) orders.CreateInput {
	return orders.CreateInput{
		UserID:        userID,
		Items:         p.Items,
		Shipping:      p.Shipping,
		PaymentMethod: p.PaymentMethod,
		Notes:         p.Notes,
	}
}

// PlaceOrder creates an order for the caller, from explicit items or from
// their cart.
func PlaceOrder(d *Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req placeOrderReq
		if err := decodeJSON(w, r, &req); err != nil {
			d.Fail(w, r, err)
			return
		}
		in := req.input(auth.Subject(r.Context()))
		var (
			o   *models.Order
			err error
		)
		if req.FromCart {
			o, err = d.Orders.CheckoutCart(r.Context(), in)
		} else {
			o, err = d.Orders.Create(r.Context(), in)
		}
		if err != nil {
			d.Fail(w, r, err)
			return
		}
		respondStatus(w, http.StatusCreated, o)
	}
}

func MyOrders(d *Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rows, err := d.Orders.ListForUser(r.Context(), auth.Subject(r.Context()), queryInt(r, "limit"), queryInt(r, "offset"))
		if err != nil {
			d.Fail(w, r, err)
			return
		}
		respondJSON(w, map[string]any{"data": rows, "count": len(rows)})
	}
}

func MyOrder(d *Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		o, err := d.Orders.GetForUser(r.Context(), chi.URLParam(r, "orderNumber"), auth.Subject(r.Context()))
		if err != nil {
			d.Fail(w, r, err)
			return
		}
		respondJSON(w, o)
	}
}

func AdminListOrders(d *Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		rows, total, err := d.Orders.List(r.Context(), orders.Filter{
			Status:        models.OrderStatus(q.Get("status")),
			PaymentStatus: models.PaymentStatus(q.Get("payment_status")),
			UserID:        q.Get("user_id"),
			Limit:         queryInt(r, "limit"),
			Offset:        queryInt(r, "offset"),
		})
		if err != nil {
			d.Fail(w, r, err)
			return
		}
		respondJSON(w, map[string]any{"data": rows, "count": len(rows), "total": total})
	}
}

// AdminCreateOrder places an order on behalf of an existing customer.
func AdminCreateOrder(d *Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req placeOrderReq
		if err := decodeJSON(w, r, &req); err != nil {
			d.Fail(w, r, err)
			return
		}
		u, err := d.Store.Users.Get(r.Context(), req.UserID)
		if err != nil {
			d.Fail(w, r, err)
			return
		}
		if !u.IsActive {
			d.Fail(w, r, apperr.Validation("customer %s is disabled", u.ID))
			return
		}
		o, err := d.Orders.Create(r.Context(), req.input(u.ID))
		if err != nil {
			d.Fail(w, r, err)
			return
		}
		respondStatus(w, http.StatusCreated, o)
	}
}

type statusReq struct {
	Status models.OrderStatus `json:"status"`
}

func AdminUpdateOrderStatus(d *Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req statusReq
		if err := decodeJSON(w, r, &req); err != nil {
			d.Fail(w, r, err)
			return
		}
		o, err := d.Orders.Transition(r.Context(), chi.URLParam(r, "id"), req.Status, auth.Subject(r.Context()))
		if err != nil {
			d.Fail(w, r, err)
			return
		}
		respondJSON(w, o)
	}
}

func AdminOverrideOrderStatus(d *Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req statusReq
		if err := decodeJSON(w, r, &req); err != nil {
			d.Fail(w, r, err)
			return
		}
		o, err := d.Orders.Override(r.Context(), chi.URLParam(r, "id"), req.Status, auth.Subject(r.Context()))
		if err != nil {
			d.Fail(w, r, err)
			return
		}
		respondJSON(w, o)
	}
}

func AdminSetPaymentStatus(d *Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			PaymentStatus models.PaymentStatus `json:"payment_status"`
		}
		if err := decodeJSON(w, r, &req); err != nil {
			d.Fail(w, r, err)
			return
		}
		o, err := d.Orders.SetPaymentStatus(r.Context(), chi.URLParam(r, "id"), req.PaymentStatus, auth.Subject(r.Context()))
		if err != nil {
			d.Fail(w, r, err)
			return
		}
		respondJSON(w, o)
	}
}
