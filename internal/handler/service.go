package handler

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/lavandry/laundry-pos/internal/domain/service"
)

type serviceDTO struct {
	ID     string  `json:"id"`
	Name   string  `json:"name"`
	Unit   string  `json:"unit"`
	Price  float64 `json:"price"`
	Active bool    `json:"active"`
}

func toServiceDTO(s service.Service) serviceDTO {
	return serviceDTO{
		ID:     s.ID,
		Name:   s.Name,
		Unit:   string(s.Unit),
		Price:  s.Price.InexactFloat64(),
		Active: s.Active,
	}
}

func (h *Handler) listServices(w http.ResponseWriter, r *http.Request) {
	services, err := h.services.List(r.Context())
	if err != nil {
		logError(r, err)
		respondError(w, r, http.StatusInternalServerError, "internal error")
		return
	}

	out := make([]serviceDTO, len(services))
	for i, s := range services {
		out[i] = toServiceDTO(s)
	}
	respondJSON(w, r, http.StatusOK, out)
}

func (h *Handler) createService(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name   string          `json:"name"`
		Unit   string          `json:"unit"`
		Price  decimal.Decimal `json:"price"`
		Active *bool           `json:"active,omitempty"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	svc := service.Service{
		ID:     uuid.New().String(),
		Name:   req.Name,
		Unit:   service.Unit(req.Unit),
		Price:  req.Price,
		Active: true,
	}
	if req.Active != nil {
		svc.Active = *req.Active
	}
	if err := svc.Validate(); err != nil {
		respondError(w, r, http.StatusUnprocessableEntity, err.Error())
		return
	}

	if err := h.services.Create(r.Context(), &svc); err != nil {
		logError(r, err)
		respondError(w, r, http.StatusInternalServerError, "internal error")
		return
	}
	respondJSON(w, r, http.StatusCreated, toServiceDTO(svc))
}
