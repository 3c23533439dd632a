package handler

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/lavandry/laundry-pos/internal/domain/promo"
)

type promotionDTO struct {
	ID           string     `json:"id"`
	Name         string     `json:"name"`
	Code         string     `json:"code,omitempty"`
	ServiceID    string     `json:"service_id,omitempty"`
	DiscountType string     `json:"discount_type"`
	Value        float64    `json:"value"`
	MinWeightKg  *float64   `json:"min_weight_kg,omitempty"`
	MinAmount    *float64   `json:"min_amount,omitempty"`
	StartDate    *time.Time `json:"start_date,omitempty"`
	EndDate      *time.Time `json:"end_date,omitempty"`
	Active       bool       `json:"active"`
}

func toPromotionDTO(p promo.Promotion) promotionDTO {
	dto := promotionDTO{
		ID:           p.ID,
		Name:         p.Name,
		Code:         p.Code,
		ServiceID:    p.ServiceID,
		DiscountType: string(p.DiscountType),
		Value:        p.Value.InexactFloat64(),
		StartDate:    p.StartDate,
		EndDate:      p.EndDate,
		Active:       p.Active,
	}
	if p.MinWeightKg != nil {
		v := p.MinWeightKg.InexactFloat64()
		dto.MinWeightKg = &v
	}
	if p.MinAmount != nil {
		v := p.MinAmount.InexactFloat64()
		dto.MinAmount = &v
	}
	return dto
}

func (h *Handler) listPromotions(w http.ResponseWriter, r *http.Request) {
	promos, err := h.promos.ListCurrent(r.Context())
	if err != nil {
		logError(r, err)
		respondError(w, r, http.StatusInternalServerError, "internal error")
		return
	}

	out := make([]promotionDTO, len(promos))
	for i, p := range promos {
		out[i] = toPromotionDTO(p)
	}
	respondJSON(w, r, http.StatusOK, out)
}

func (h *Handler) createPromotion(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name         string           `json:"name"`
		Code         string           `json:"code,omitempty"`
		ServiceID    string           `json:"service_id,omitempty"`
		DiscountType string           `json:"discount_type"`
		Value        decimal.Decimal  `json:"value"`
		MinWeightKg  *decimal.Decimal `json:"min_weight_kg,omitempty"`
		MinAmount    *decimal.Decimal `json:"min_amount,omitempty"`
		StartDate    *time.Time       `json:"start_date,omitempty"`
		EndDate      *time.Time       `json:"end_date,omitempty"`
		Active       *bool            `json:"active,omitempty"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	p := promo.Promotion{
		ID:           uuid.New().String(),
		Name:         req.Name,
		Code:         promo.NormalizeCode(req.Code),
		ServiceID:    req.ServiceID,
		DiscountType: promo.DiscountType(req.DiscountType),
		Value:        req.Value,
		MinWeightKg:  req.MinWeightKg,
		MinAmount:    req.MinAmount,
		StartDate:    req.StartDate,
		EndDate:      req.EndDate,
		Active:       true,
	}
	if req.Active != nil {
		p.Active = *req.Active
	}
	if err := promo.Validate(p); err != nil {
		respondError(w, r, http.StatusUnprocessableEntity, err.Error())
		return
	}

	if err := h.promos.Create(r.Context(), &p); err != nil {
		logError(r, err)
		respondError(w, r, http.StatusInternalServerError, "internal error")
		return
	}
	respondJSON(w, r, http.StatusCreated, toPromotionDTO(p))
}
