package pgdb

import (
	"context"
	"errors"

	"github.com/DRSN-tech/products-api/internal/domain"
	"github.com/DRSN-tech/products-api/internal/repository/pgdb/converter"
	"github.com/DRSN-tech/products-api/pkg/e"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jimlawless/whereami"
)

const productColumns = `id, name, description, price::text, stock, created_at, updated_at`

// DB — методы *pgxpool.Pool, которые нужны репозиторию.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// ProductRepo реализует репозиторий продуктов поверх PostgreSQL.
type ProductRepo struct {
	pool DB
	conv converter.ProductConverter
}

func NewProductRepo(pool DB, conv converter.ProductConverter) *ProductRepo {
	return &ProductRepo{
		pool: pool,
		conv: conv,
	}
}

func (p *ProductRepo) Get(ctx context.Context, id string) (*domain.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1`

	product, err := p.scanOne(p.pool.QueryRow(ctx, query, id))
	if err != nil {
		return nil, err
	}

	return product, nil
}

// Put записывает продукт целиком, перезаписывая существующую строку с тем же id.
func (p *ProductRepo) Put(ctx context.Context, product *domain.Product) error {
	model := p.conv.ToModel(product)

	query := `
		INSERT INTO products (id, name, description, price, stock, created_at, updated_at)
		VALUES ($1, $2, $3, $4::numeric, $5, $6, $7)
		ON CONFLICT (id)
		DO UPDATE SET
			name = EXCLUDED.name,
			description = EXCLUDED.description,
			price = EXCLUDED.price,
			stock = EXCLUDED.stock,
			created_at = EXCLUDED.created_at,
			updated_at = EXCLUDED.updated_at
	`

	if _, err := p.pool.Exec(ctx, query,
		model.ID,
		model.Name,
		model.Description,
		model.Price,
		model.Stock,
		model.CreatedAt,
		model.UpdatedAt,
	); err != nil {
		return e.Storage(whereami.WhereAmI(), err)
	}

	return nil
}

// ConditionalUpdate обновляет переданные поля одной командой; NULL-параметр оставляет колонку как есть.
func (p *ProductRepo) ConditionalUpdate(ctx context.Context, id string, patch *domain.ProductPatch) (*domain.Product, error) {
	var price *string
	if patch.Price != nil {
		s := patch.Price.String()
		price = &s
	}

	query := `
		UPDATE products SET
			updated_at = $2,
			name = COALESCE($3, name),
			description = COALESCE($4, description),
			price = COALESCE($5::numeric, price),
			stock = COALESCE($6, stock)
		WHERE id = $1
		RETURNING ` + productColumns

	return p.scanOne(p.pool.QueryRow(ctx, query,
		id,
		patch.UpdatedAt,
		patch.Name,
		patch.Description,
		price,
		patch.Stock,
	))
}

func (p *ProductRepo) Delete(ctx context.Context, id string) error {
	if _, err := p.pool.Exec(ctx, `DELETE FROM products WHERE id = $1`, id); err != nil {
		return e.Storage(whereami.WhereAmI(), err)
	}

	return nil
}

// ScanAll читает всю таблицу. Лимита нет намеренно: ответ list не пагинируется.
func (p *ProductRepo) ScanAll(ctx context.Context) ([]domain.Product, error) {
	rows, err := p.pool.Query(ctx, `SELECT `+productColumns+` FROM products ORDER BY id`)
	if err != nil {
		return nil, e.Storage(whereami.WhereAmI(), err)
	}
	defer rows.Close()

	result := make([]domain.Product, 0)
	for rows.Next() {
		product, err := p.scanOne(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *product)
	}

	if err := rows.Err(); err != nil {
		return nil, e.Storage(whereami.WhereAmI(), err)
	}

	return result, nil
}

func (p *ProductRepo) scanOne(row pgx.Row) (*domain.Product, error) {
	var model converter.ProductModel
	err := row.Scan(
		&model.ID, &model.Name, &model.Description, &model.Price,
		&model.Stock, &model.CreatedAt, &model.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, e.ErrProductNotFound
		}
		return nil, e.Storage(whereami.WhereAmI(), err)
	}

	product, err := p.conv.ToEntity(&model)
	if err != nil {
		return nil, e.Storage(whereami.WhereAmI(), err)
	}

	return product, nil
}
