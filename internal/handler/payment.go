package handler

import (
	"net/http"

	"github.com/go-faster/jx"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"
)

// paymentNotice is the subset of the gateway's webhook payload we act on.
// Gateways send many more fields; everything unknown is skipped.
type paymentNotice struct {
	OrderID           string
	TransactionStatus string
	GrossAmount       string
}

func decodePaymentNotice(d *jx.Decoder) (paymentNotice, error) {
	var n paymentNotice
	err := d.Obj(func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "order_id":
			n.OrderID, err = d.Str()
		case "transaction_status":
			n.TransactionStatus, err = d.Str()
		case "gross_amount":
			n.GrossAmount, err = d.Str()
		default:
			err = d.Skip()
		}
		return err
	})
	return n, err
}

// paymentNotification handles the payment gateway's server-to-server
// callback. The gateway retries on any non-2xx, so business-level oddities
// (unknown order, untracked status) are logged and acknowledged rather than
// rejected; only a malformed payload gets a 400.
func (h *Handler) paymentNotification(w http.ResponseWriter, r *http.Request) {
	lg := zctx.From(r.Context())

	notice, err := decodePaymentNotice(jx.Decode(r.Body, 4096))
	if err != nil || notice.OrderID == "" || notice.TransactionStatus == "" {
		respondError(w, r, http.StatusBadRequest, "invalid notification payload")
		return
	}

	status, err := h.orderService.ApplyPayment(r.Context(), notice.OrderID, notice.TransactionStatus)
	if err != nil {
		lg.Warn("Payment notification not applied",
			zap.String("order_id", notice.OrderID),
			zap.String("transaction_status", notice.TransactionStatus),
			zap.Error(err),
		)
	} else if status != "" {
		lg.Info("Payment status updated",
			zap.String("order_id", notice.OrderID),
			zap.String("payment_status", string(status)),
			zap.String("gross_amount", notice.GrossAmount),
		)
	}

	respondJSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
}
