package seed

import (
	"context"
	"fmt"
	"log"

	"github.com/jackc/pgx/v5/pgxpool"

	"ecommerce-backend/internal/domain"
	productrepo "ecommerce-backend/internal/repository/product"
)

type accountSeed struct {
	Email      string
	FirstName  string
	LastName   string
	Country    string
	City       string
	StreetName string
	PostalCode string
}

// Apply inserts basic seed data for manual testing. It is idempotent via ON CONFLICT.
func Apply(ctx context.Context, pool *pgxpool.Pool, logger *log.Logger) error {
	accounts := []accountSeed{
		{
			Email:      "ada@example.com",
			FirstName:  "Ada",
			LastName:   "Lindgren",
			Country:    "SE",
			City:       "Stockholm",
			StreetName: "Vasagatan 12",
			PostalCode: "11120",
		},
		{
			Email:      "marco@example.com",
			FirstName:  "Marco",
			LastName:   "Rossi",
			Country:    "IT",
			City:       "Milano",
			StreetName: "Via Dante 4",
			PostalCode: "20121",
		},
	}

	for _, a := range accounts {
		if err := upsertAccount(ctx, pool, a); err != nil {
			return fmt.Errorf("upsert account %s: %w", a.Email, err)
		}
	}

	products := []domain.Product{
		{
			SKU:           "SKU-DEMO-TSHIRT",
			Name:          "Demo T-Shirt",
			Description:   "Soft cotton tee for demo purposes",
			PriceCents:    1999,
			Currency:      "USD",
			StockQuantity: 120,
		},
		{
			SKU:           "SKU-DEMO-MUG",
			Name:          "Demo Mug",
			Description:   "Ceramic mug with demo logo",
			PriceCents:    1299,
			Currency:      "USD",
			StockQuantity: 80,
		},
		{
			SKU:           "SKU-DEMO-POSTER",
			Name:          "Demo Poster",
			Description:   "A2 poster, matte finish",
			PriceCents:    899,
			Currency:      "USD",
			StockQuantity: 35,
		},
	}

	repo := productrepo.NewPostgres(pool, logger)
	for _, p := range products {
		if _, err := repo.Upsert(ctx, p); err != nil {
			return fmt.Errorf("upsert product %s: %w", p.SKU, err)
		}
	}

	return nil
}

func upsertAccount(ctx context.Context, pool *pgxpool.Pool, a accountSeed) error {
	const q = `
INSERT INTO accounts (email, first_name, last_name, country, city, street_name, postal_code)
VALUES ($1, $2, $3, $4, $5, $6, $7)
ON CONFLICT (email) DO UPDATE
SET first_name = EXCLUDED.first_name,
    last_name = EXCLUDED.last_name,
    country = EXCLUDED.country,
    city = EXCLUDED.city,
    street_name = EXCLUDED.street_name,
    postal_code = EXCLUDED.postal_code
`
	_, err := pool.Exec(ctx, q, a.Email, a.FirstName, a.LastName, a.Country, a.City, a.StreetName, a.PostalCode)
	return err
}
