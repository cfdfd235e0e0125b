package store

import (
	"context"
	"database/sql"
	"errors"

	"github.com/example/ec-storefront/internal/catalog"
	"github.com/example/ec-storefront/internal/domain/product"
	"github.com/lib/pq"
)

const productColumns = `id, name, description, category, subcategory, gender, price, discount_percent,
	images, sizes, colors, in_stock, featured, new_arrival, tags`

// PostgresCatalog reads the catalog from PostgreSQL. It implements
// catalog.Source, catalog.Narrower and catalog.CategorySource.
type PostgresCatalog struct {
	db *sql.DB
}

func NewPostgresCatalog(db *sql.DB) *PostgresCatalog {
	return &PostgresCatalog{db: db}
}

func (pc *PostgresCatalog) FetchAll(ctx context.Context) ([]product.Product, error) {
	return pc.queryProducts(ctx, &productFilter{})
}

// FetchMatching pushes the structural part of spec down to SQL.
func (pc *PostgresCatalog) FetchMatching(ctx context.Context, spec catalog.FilterSpec) ([]product.Product, error) {
	return pc.queryProducts(ctx, buildProductFilter(spec))
}

func (pc *PostgresCatalog) FetchByID(ctx context.Context, id int64) (product.Product, error) {
	row := pc.db.QueryRowContext(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1`, id)
	p, err := scanProduct(row)
	if errors.Is(err, sql.ErrNoRows) {
		return product.Product{}, product.ErrProductNotFound
	}
	return p, err
}

func (pc *PostgresCatalog) queryProducts(ctx context.Context, f *productFilter) ([]product.Product, error) {
	rows, err := pc.db.QueryContext(ctx, `SELECT `+productColumns+` FROM products`+f.where()+` ORDER BY id`, f.args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	products := make([]product.Product, 0)
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProduct(row rowScanner) (product.Product, error) {
	var (
		p      product.Product
		gender string
	)
	err := row.Scan(
		&p.ID, &p.Name, &p.Description, &p.Category, &p.Subcategory, &gender,
		&p.Price, &p.DiscountPercent,
		pq.Array(&p.Images), pq.Array(&p.Sizes), pq.Array(&p.Colors),
		&p.InStock, &p.Featured, &p.NewArrival, pq.Array(&p.Tags),
	)
	p.Gender = product.Gender(gender)
	return p, err
}

func (pc *PostgresCatalog) FetchCategories(ctx context.Context) ([]product.Category, error) {
	rows, err := pc.db.QueryContext(ctx, `
		SELECT id, name, slug, image, product_count, description, subcategories, tags
		FROM categories ORDER BY id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	categories := make([]product.Category, 0)
	for rows.Next() {
		var c product.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Slug, &c.Image, &c.ProductCount, &c.Description,
			pq.Array(&c.Subcategories), pq.Array(&c.Tags)); err != nil {
			return nil, err
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

// SeedCatalog upserts products and categories, used to load the fixture
// into a fresh database.
func SeedCatalog(ctx context.Context, db *sql.DB, products []product.Product, categories []product.Category) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, p := range products {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO products (`+productColumns+`)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
			ON CONFLICT (id) DO UPDATE SET
				name = EXCLUDED.name, description = EXCLUDED.description,
				category = EXCLUDED.category, subcategory = EXCLUDED.subcategory,
				gender = EXCLUDED.gender, price = EXCLUDED.price,
				discount_percent = EXCLUDED.discount_percent, images = EXCLUDED.images,
				sizes = EXCLUDED.sizes, colors = EXCLUDED.colors, in_stock = EXCLUDED.in_stock,
				featured = EXCLUDED.featured, new_arrival = EXCLUDED.new_arrival, tags = EXCLUDED.tags`,
			p.ID, p.Name, p.Description, p.Category, p.Subcategory, string(p.Gender),
			p.Price, p.DiscountPercent,
			pq.Array(p.Images), pq.Array(p.Sizes), pq.Array(p.Colors),
			p.InStock, p.Featured, p.NewArrival, pq.Array(p.Tags),
		)
		if err != nil {
			return err
		}
	}

	for _, c := range categories {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO categories (id, name, slug, image, product_count, description, subcategories, tags)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			ON CONFLICT (id) DO UPDATE SET
				name = EXCLUDED.name, slug = EXCLUDED.slug, image = EXCLUDED.image,
				product_count = EXCLUDED.product_count, description = EXCLUDED.description,
				subcategories = EXCLUDED.subcategories, tags = EXCLUDED.tags`,
			c.ID, c.Name, c.Slug, c.Image, c.ProductCount, c.Description,
			pq.Array(c.Subcategories), pq.Array(c.Tags),
		)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}
