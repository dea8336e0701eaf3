package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/waritsan/theglobe/internal/domain"
)

type CategoryRepository interface {
	Create(ctx context.Context, category domain.Category) error
	GetByID(ctx context.Context, id string) (domain.Category, error)
	List(ctx context.Context, top, skip int) ([]domain.Category, error)
	Update(ctx context.Context, category domain.Category) error
	Delete(ctx context.Context, id string) error
}

type PgCategoryRepository struct {
	pool *pgxpool.Pool
}

func NewPgCategoryRepository(pool *pgxpool.Pool) *PgCategoryRepository {
	return &PgCategoryRepository{pool: pool}
}

func (r *PgCategoryRepository) Create(ctx context.Context, category domain.Category) error {
	const query = `
		INSERT INTO categories (id, name, description, slug, created_date, updated_date)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.pool.Exec(ctx, query,
		category.ID,
		category.Name,
		nullableString(category.Description),
		category.Slug,
		category.CreatedDate,
		category.UpdatedDate,
	)
	return err
}

func (r *PgCategoryRepository) GetByID(ctx context.Context, id string) (domain.Category, error) {
	const query = `
		SELECT id, name, description, slug, created_date, updated_date
		FROM categories
		WHERE id = $1
	`

	var (
		category    domain.Category
		description *string
	)
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&category.ID,
		&category.Name,
		&description,
		&category.Slug,
		&category.CreatedDate,
		&category.UpdatedDate,
	)
	if err != nil {
		return domain.Category{}, err
	}
	if description != nil {
		category.Description = *description
	}
	return category, nil
}

func (r *PgCategoryRepository) List(ctx context.Context, top, skip int) ([]domain.Category, error) {
	query := `
		SELECT id, name, description, slug, created_date, updated_date
		FROM categories
		ORDER BY name ASC
	`
	args := []interface{}{}
	if skip > 0 {
		args = append(args, skip)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}
	if top > 0 {
		args = append(args, top)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var categories []domain.Category
	for rows.Next() {
		var (
			category    domain.Category
			description *string
		)
		if err := rows.Scan(
			&category.ID,
			&category.Name,
			&description,
			&category.Slug,
			&category.CreatedDate,
			&category.UpdatedDate,
		); err != nil {
			return nil, err
		}
		if description != nil {
			category.Description = *description
		}
		categories = append(categories, category)
	}
	return categories, rows.Err()
}

func (r *PgCategoryRepository) Update(ctx context.Context, category domain.Category) error {
	const query = `
		UPDATE categories
		SET name = $2, description = $3, slug = $4, updated_date = $5
		WHERE id = $1
	`

	_, err := r.pool.Exec(ctx, query,
		category.ID,
		category.Name,
		nullableString(category.Description),
		category.Slug,
		category.UpdatedDate,
	)
	return err
}

func (r *PgCategoryRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM categories WHERE id = $1`
	_, err := r.pool.Exec(ctx, query, id)
	return err
}
