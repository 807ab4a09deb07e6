package account

import (
	"context"
	"errors"
	"io"
	"log"

	"ecommerce-backend/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type postgresRepo struct {
	pool   *pgxpool.Pool
	logger *log.Logger
}

func NewPostgres(pool *pgxpool.Pool, logger *log.Logger) Repository {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &postgresRepo{pool: pool, logger: logger}
}

const accountColumns = `
id::text, email, first_name, last_name, country, city, street_name, postal_code, created_at
`

func (r *postgresRepo) GetByID(ctx context.Context, id string) (*domain.Account, error) {
	return r.fetch(ctx, `SELECT `+accountColumns+` FROM accounts WHERE id = $1`, id)
}

func (r *postgresRepo) GetByEmail(ctx context.Context, email string) (*domain.Account, error) {
	return r.fetch(ctx, `SELECT `+accountColumns+` FROM accounts WHERE email = $1`, email)
}

func (r *postgresRepo) fetch(ctx context.Context, query string, arg any) (*domain.Account, error) {
	var a domain.Account
	err := r.pool.QueryRow(ctx, query, arg).Scan(
		&a.ID,
		&a.Email,
		&a.FirstName,
		&a.LastName,
		&a.Address.Country,
		&a.Address.City,
		&a.Address.StreetName,
		&a.Address.PostalCode,
		&a.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		r.logger.Printf("account repo: fetch %v error=%v", arg, err)
		return nil, err
	}
	a.Address.FirstName = a.FirstName
	a.Address.LastName = a.LastName
	return &a, nil
}
