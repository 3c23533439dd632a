package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/errors"
	"github.com/google/uuid"

	"github.com/lavandry/laundry-pos/internal/domain/customer"
)

type customerDTO struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Phone     string    `json:"phone,omitempty"`
	Address   string    `json:"address,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func toCustomerDTO(c customer.Customer) customerDTO {
	return customerDTO{
		ID:        c.ID,
		Name:      c.Name,
		Phone:     c.Phone,
		Address:   c.Address,
		CreatedAt: c.CreatedAt,
	}
}

func (h *Handler) listCustomers(w http.ResponseWriter, r *http.Request) {
	customers, err := h.customers.List(r.Context())
	if err != nil {
		logError(r, err)
		respondError(w, r, http.StatusInternalServerError, "internal error")
		return
	}

	out := make([]customerDTO, len(customers))
	for i, c := range customers {
		out[i] = toCustomerDTO(c)
	}
	respondJSON(w, r, http.StatusOK, out)
}

func (h *Handler) createCustomer(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name    string `json:"name"`
		Phone   string `json:"phone,omitempty"`
		Address string `json:"address,omitempty"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	c := customer.Customer{
		ID:      uuid.New().String(),
		Name:    req.Name,
		Phone:   req.Phone,
		Address: req.Address,
	}
	if err := c.Validate(); err != nil {
		respondError(w, r, http.StatusUnprocessableEntity, err.Error())
		return
	}

	if err := h.customers.Create(r.Context(), &c); err != nil {
		logError(r, err)
		respondError(w, r, http.StatusInternalServerError, "internal error")
		return
	}
	respondJSON(w, r, http.StatusCreated, toCustomerDTO(c))
}

func (h *Handler) getCustomer(w http.ResponseWriter, r *http.Request) {
	c, err := h.customers.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, customer.ErrNotFound) {
			respondError(w, r, http.StatusNotFound, err.Error())
			return
		}
		logError(r, err)
		respondError(w, r, http.StatusInternalServerError, "internal error")
		return
	}
	respondJSON(w, r, http.StatusOK, toCustomerDTO(*c))
}
