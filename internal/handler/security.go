package handler

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"net/http"

	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/lavandry/laundry-pos/internal/domain/auth"
	"github.com/lavandry/laundry-pos/pkg/httpmiddleware"
)

// APIKeyAuth authenticates requests via the X-API-Key header. The key is
// hashed with HMAC-SHA256 under a server-side pepper before lookup, so the
// database never sees plaintext keys, and the stored hash is compared in
// constant time to prevent timing side-channels.
func APIKeyAuth(apikeys auth.Repository, pepper []byte) httpmiddleware.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := r.Header.Get("X-API-Key")
			if key == "" {
				respondError(w, r, http.StatusUnauthorized, "unauthorized")
				return
			}

			mac := hmac.New(sha256.New, pepper)
			mac.Write([]byte(key))
			hash := mac.Sum(nil)

			info, err := apikeys.FindByHash(r.Context(), hex.EncodeToString(hash))
			if err != nil {
				respondError(w, r, http.StatusUnauthorized, "unauthorized")
				return
			}

			stored, err := hex.DecodeString(info.KeyHash)
			if err != nil || subtle.ConstantTimeCompare(hash, stored) != 1 {
				respondError(w, r, http.StatusUnauthorized, "unauthorized")
				return
			}

			zctx.From(r.Context()).Debug("Authenticated API key",
				zap.String("key_id", info.ID),
				zap.String("label", info.Label),
			)
			next.ServeHTTP(w, r)
		})
	}
}
