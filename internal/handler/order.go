package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/lavandry/laundry-pos/internal/domain/order"
	"github.com/lavandry/laundry-pos/internal/domain/pricing"
)

type orderItemDTO struct {
	ServiceID string          `json:"service_id"`
	Quantity  decimal.Decimal `json:"quantity"`
}

type orderRequestDTO struct {
	CustomerID  string         `json:"customer_id,omitempty"`
	Items       []orderItemDTO `json:"items"`
	VoucherCode string         `json:"voucher_code,omitempty"`
	Note        string         `json:"note,omitempty"`
}

func (d orderRequestDTO) toDomain() order.Request {
	items := make([]order.Item, len(d.Items))
	for i, it := range d.Items {
		items[i] = order.Item{ServiceID: it.ServiceID, Quantity: it.Quantity}
	}
	return order.Request{
		CustomerID:  d.CustomerID,
		Items:       items,
		VoucherCode: d.VoucherCode,
		Note:        d.Note,
	}
}

type lineDTO struct {
	ServiceID   string  `json:"service_id"`
	ServiceName string  `json:"service_name"`
	Unit        string  `json:"unit"`
	Quantity    float64 `json:"quantity"`
	UnitPrice   float64 `json:"unit_price"`
	Subtotal    float64 `json:"subtotal"`
}

type appliedDTO struct {
	PromotionID string  `json:"promotion_id"`
	Name        string  `json:"name"`
	Code        string  `json:"code,omitempty"`
	Amount      float64 `json:"amount"`
}

type quoteDTO struct {
	Lines          []lineDTO    `json:"lines"`
	Subtotal       float64      `json:"subtotal"`
	Discount       float64      `json:"discount"`
	Total          float64      `json:"total"`
	Applied        []appliedDTO `json:"applied"`
	VoucherApplied bool         `json:"voucher_applied"`
}

type orderDTO struct {
	ID             string       `json:"id"`
	CustomerID     string       `json:"customer_id,omitempty"`
	Lines          []lineDTO    `json:"lines"`
	Subtotal       float64      `json:"subtotal"`
	Discount       float64      `json:"discount"`
	Total          float64      `json:"total"`
	VoucherCode    string       `json:"voucher_code,omitempty"`
	Applied        []appliedDTO `json:"applied"`
	Status         string       `json:"status"`
	PaymentStatus  string       `json:"payment_status"`
	Note           string       `json:"note,omitempty"`
	CreatedAt      time.Time    `json:"created_at"`
	VoucherApplied *bool        `json:"voucher_applied,omitempty"`
}

func toLineDTOs(lines []order.Line) []lineDTO {
	out := make([]lineDTO, len(lines))
	for i, l := range lines {
		out[i] = lineDTO{
			ServiceID:   l.ServiceID,
			ServiceName: l.ServiceName,
			Unit:        string(l.Unit),
			Quantity:    l.Quantity.InexactFloat64(),
			UnitPrice:   l.UnitPrice.InexactFloat64(),
			Subtotal:    l.Subtotal.InexactFloat64(),
		}
	}
	return out
}

func toAppliedDTOs(applied []pricing.Applied) []appliedDTO {
	out := make([]appliedDTO, len(applied))
	for i, a := range applied {
		out[i] = appliedDTO{
			PromotionID: a.PromotionID,
			Name:        a.Name,
			Code:        a.Code,
			Amount:      a.Amount.InexactFloat64(),
		}
	}
	return out
}

func toOrderDTO(o *order.Order) orderDTO {
	return orderDTO{
		ID:            o.ID,
		CustomerID:    o.CustomerID,
		Lines:         toLineDTOs(o.Lines),
		Subtotal:      o.Subtotal.InexactFloat64(),
		Discount:      o.Discount.InexactFloat64(),
		Total:         o.Total.InexactFloat64(),
		VoucherCode:   o.VoucherCode,
		Applied:       toAppliedDTOs(o.Applied),
		Status:        string(o.Status),
		PaymentStatus: string(o.PaymentStatus),
		Note:          o.Note,
		CreatedAt:     o.CreatedAt,
	}
}

func (h *Handler) quoteOrder(w http.ResponseWriter, r *http.Request) {
	var req orderRequestDTO
	if !decodeBody(w, r, &req) {
		return
	}

	quote, err := h.orderService.Quote(r.Context(), req.toDomain())
	if err != nil {
		h.orderError(w, r, err)
		return
	}

	respondJSON(w, r, http.StatusOK, quoteDTO{
		Lines:          toLineDTOs(quote.Lines),
		Subtotal:       quote.Pricing.Subtotal.InexactFloat64(),
		Discount:       quote.Pricing.Discount.InexactFloat64(),
		Total:          quote.Pricing.Total.InexactFloat64(),
		Applied:        toAppliedDTOs(quote.Pricing.Applied),
		VoucherApplied: quote.VoucherApplied,
	})
}

func (h *Handler) placeOrder(w http.ResponseWriter, r *http.Request) {
	var req orderRequestDTO
	if !decodeBody(w, r, &req) {
		return
	}

	result, err := h.orderService.PlaceOrder(r.Context(), req.toDomain())
	if err != nil {
		h.orderError(w, r, err)
		return
	}

	dto := toOrderDTO(result.Order)
	if req.VoucherCode != "" {
		dto.VoucherApplied = &result.VoucherApplied
	}
	respondJSON(w, r, http.StatusCreated, dto)
}

func (h *Handler) getOrder(w http.ResponseWriter, r *http.Request) {
	o, err := h.orders.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.orderError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, toOrderDTO(o))
}

func (h *Handler) updateOrderStatus(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Status string `json:"status"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	o, err := h.orderService.UpdateStatus(r.Context(), chi.URLParam(r, "id"), order.Status(req.Status))
	if err != nil {
		h.orderError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, toOrderDTO(o))
}

// orderError maps domain errors onto HTTP responses. Anything unmapped is a
// 500 with a generic body; the details go to the log, not the client.
func (h *Handler) orderError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, order.ErrEmptyItems):
		respondError(w, r, http.StatusBadRequest, err.Error())
	case errors.Is(err, order.ErrNotFound):
		respondError(w, r, http.StatusNotFound, err.Error())
	case errors.Is(err, order.ErrInvalidTransition):
		respondError(w, r, http.StatusUnprocessableEntity, err.Error())
	default:
		var (
			iqErr  *order.InvalidQuantityError
			snfErr *order.ServiceNotFoundError
			ilErr  *pricing.InvalidLineError
		)
		switch {
		case errors.As(err, &iqErr), errors.As(err, &snfErr), errors.As(err, &ilErr):
			respondError(w, r, http.StatusUnprocessableEntity, err.Error())
		default:
			logError(r, err)
			respondError(w, r, http.StatusInternalServerError, "internal error")
		}
	}
}
