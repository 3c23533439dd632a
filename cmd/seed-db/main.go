// Command seed-db populates the database with the laundry service catalog,
// the standing promotions, and a terminal API key for local development.
package main

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"flag"
	"log/slog"
	"os"
	"os/signal"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/lavandry/laundry-pos/internal/storage/postgres"
)

type serviceJSON struct {
	ID    string          `json:"id"`
	Name  string          `json:"name"`
	Unit  string          `json:"unit"`
	Price decimal.Decimal `json:"price"`
}

type promoSeed struct {
	id           string
	name         string
	code         string
	serviceID    string
	discountType string
	value        decimal.Decimal
	minWeightKg  *decimal.Decimal
	minAmount    *decimal.Decimal
}

func main() {
	var (
		databaseURL  string
		servicesFile string
		apiKey       string
		apiKeyPepper string
	)

	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.StringVar(&servicesFile, "services-file", "db/seed/services.json", "path to services JSON file")
	flag.StringVar(&apiKey, "api-key", "", "API key to seed (or LAUNDRY_SEED_API_KEY env)")
	flag.StringVar(&apiKeyPepper, "api-key-pepper", "", "HMAC pepper for API key hashing (or LAUNDRY_API_KEY_PEPPER env)")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}
	if apiKey == "" {
		apiKey = os.Getenv("LAUNDRY_SEED_API_KEY")
	}
	if apiKey == "" {
		slog.Error("API key is required: set --api-key or LAUNDRY_SEED_API_KEY")
		os.Exit(1)
	}
	if apiKeyPepper == "" {
		apiKeyPepper = os.Getenv("LAUNDRY_API_KEY_PEPPER")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, databaseURL, servicesFile, apiKey, apiKeyPepper); err != nil {
		slog.Error("seed failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("seed completed successfully")
}

func run(ctx context.Context, databaseURL, servicesFile, apiKey, pepper string) error {
	slog.Info("connecting to database")

	pool, err := postgres.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	slog.Info("running migrations")

	if err := postgres.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	if err := seedServices(ctx, pool, servicesFile); err != nil {
		return errors.Wrap(err, "seed services")
	}

	if err := seedPromotions(ctx, pool); err != nil {
		return errors.Wrap(err, "seed promotions")
	}

	if err := seedAPIKey(ctx, pool, apiKey, pepper); err != nil {
		return errors.Wrap(err, "seed api key")
	}

	return nil
}

const upsertServiceSQL = `
INSERT INTO services (id, name, unit, price, active)
VALUES ($1, $2, $3, $4, TRUE)
ON CONFLICT (id) DO UPDATE
SET name = EXCLUDED.name, unit = EXCLUDED.unit, price = EXCLUDED.price, active = TRUE`

func seedServices(ctx context.Context, pool *pgxpool.Pool, servicesFile string) error {
	slog.Info("reading services file", slog.String("path", servicesFile))

	data, err := os.ReadFile(servicesFile)
	if err != nil {
		return errors.Wrap(err, "read services file")
	}

	var services []serviceJSON
	if err := json.Unmarshal(data, &services); err != nil {
		return errors.Wrap(err, "parse services JSON")
	}

	slog.Info("upserting services", slog.Int("count", len(services)))

	for _, s := range services {
		if _, err := pool.Exec(ctx, upsertServiceSQL, s.ID, s.Name, s.Unit, s.Price); err != nil {
			return errors.Wrapf(err, "upsert service %s", s.ID)
		}

		slog.Info("upserted service", slog.String("id", s.ID), slog.String("name", s.Name))
	}

	return nil
}

const upsertPromotionSQL = `
INSERT INTO promotions (id, name, code, service_id, discount_type, value, min_weight_kg, min_amount, active)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, TRUE)
ON CONFLICT (id) DO UPDATE
SET name = EXCLUDED.name, code = EXCLUDED.code, service_id = EXCLUDED.service_id,
    discount_type = EXCLUDED.discount_type, value = EXCLUDED.value,
    min_weight_kg = EXCLUDED.min_weight_kg, min_amount = EXCLUDED.min_amount, active = TRUE`

func seedPromotions(ctx context.Context, pool *pgxpool.Pool) error {
	slog.Info("seeding standing promotions")

	tenKg := decimal.NewFromInt(10)
	fiftyK := decimal.NewFromInt(50000)
	promos := []promoSeed{
		{
			id:           "promo-cucian-besar",
			name:         "Diskon Cucian Besar",
			discountType: "percentage",
			value:        decimal.NewFromInt(10),
			minWeightKg:  &tenKg,
		},
		{
			id:           "promo-hebat-sneakers",
			name:         "Promo Sneakers",
			code:         "HEBATSNEAKERS",
			serviceID:    "cuci-sepatu",
			discountType: "fixed",
			value:        decimal.NewFromInt(10000),
		},
		{
			id:           "promo-member-baru",
			name:         "Diskon Member Baru",
			code:         "MEMBERBARU",
			discountType: "percentage",
			value:        decimal.NewFromInt(15),
			minAmount:    &fiftyK,
		},
	}

	for _, p := range promos {
		var code, serviceID any
		if p.code != "" {
			code = p.code
		}
		if p.serviceID != "" {
			serviceID = p.serviceID
		}
		if _, err := pool.Exec(ctx, upsertPromotionSQL,
			p.id, p.name, code, serviceID, p.discountType, p.value, p.minWeightKg, p.minAmount,
		); err != nil {
			return errors.Wrapf(err, "upsert promotion %s", p.id)
		}

		slog.Info("upserted promotion", slog.String("id", p.id), slog.String("name", p.name))
	}

	return nil
}

const upsertAPIKeySQL = `
INSERT INTO api_keys (id, key_hash, label, active)
VALUES ($1, $2, $3, TRUE)
ON CONFLICT (id) DO UPDATE
SET key_hash = EXCLUDED.key_hash, label = EXCLUDED.label, active = TRUE`

func seedAPIKey(ctx context.Context, pool *pgxpool.Pool, apiKey, pepper string) error {
	slog.Info("seeding default API key")

	mac := hmac.New(sha256.New, []byte(pepper))
	mac.Write([]byte(apiKey))
	keyHash := hex.EncodeToString(mac.Sum(nil))

	if _, err := pool.Exec(ctx, upsertAPIKeySQL, "default", keyHash, "Front desk terminal"); err != nil {
		return errors.Wrap(err, "upsert default API key")
	}

	slog.Info("upserted API key", slog.String("id", "default"), slog.String("label", "Front desk terminal"))

	return nil
}
