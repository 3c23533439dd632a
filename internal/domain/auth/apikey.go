package auth

import "context"

// APIKeyInfo holds the identity data for a validated terminal API key.
// Each POS terminal (cashier station) authenticates with its own key.
type APIKeyInfo struct {
	ID      string
	KeyHash string
	Label   string
}

// Repository provides lookup of API keys by their HMAC hash.
type Repository interface {
	FindByHash(ctx context.Context, hash string) (*APIKeyInfo, error)
}
