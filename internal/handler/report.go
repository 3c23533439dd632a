package handler

import (
	"net/http"
	"time"
)

type dailyReportDTO struct {
	Date       string  `json:"date"`
	OrderCount int     `json:"order_count"`
	Gross      float64 `json:"gross"`
	Discount   float64 `json:"discount"`
	Net        float64 `json:"net"`
}

// dailyReport serves GET /api/reports/daily?date=YYYY-MM-DD. The date
// defaults to today in the server's timezone.
func (h *Handler) dailyReport(w http.ResponseWriter, r *http.Request) {
	date := time.Now()
	if q := r.URL.Query().Get("date"); q != "" {
		parsed, err := time.ParseInLocation("2006-01-02", q, time.Local)
		if err != nil {
			respondError(w, r, http.StatusBadRequest, "date must be YYYY-MM-DD")
			return
		}
		date = parsed
	}

	summary, err := h.orders.DailySummary(r.Context(), date)
	if err != nil {
		logError(r, err)
		respondError(w, r, http.StatusInternalServerError, "internal error")
		return
	}

	respondJSON(w, r, http.StatusOK, dailyReportDTO{
		Date:       summary.Date.Format("2006-01-02"),
		OrderCount: summary.OrderCount,
		Gross:      summary.Gross.InexactFloat64(),
		Discount:   summary.Discount.InexactFloat64(),
		Net:        summary.Net.InexactFloat64(),
	})
}
