package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/waritsan/theglobe/internal/domain"
)

type PostRepository interface {
	Create(ctx context.Context, post domain.BlogPost) error
	GetByID(ctx context.Context, id string) (domain.BlogPost, error)
	List(ctx context.Context, filter domain.PostFilter) ([]domain.BlogPost, error)
	Update(ctx context.Context, post domain.BlogPost) error
	Delete(ctx context.Context, id string) error
}

type PgPostRepository struct {
	pool *pgxpool.Pool
}

func NewPgPostRepository(pool *pgxpool.Pool) *PgPostRepository {
	return &PgPostRepository{pool: pool}
}

const postColumns = `id, title, content, excerpt, author, category_id, tags, slug, published, published_date, created_date, updated_date, image_url`

func (r *PgPostRepository) Create(ctx context.Context, post domain.BlogPost) error {
	const query = `
		INSERT INTO blog_posts (` + postColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`

	var categoryID interface{}
	if post.CategoryID != "" {
		categoryID = post.CategoryID
	}

	_, err := r.pool.Exec(ctx, query,
		post.ID,
		post.Title,
		post.Content,
		nullableString(post.Excerpt),
		post.Author,
		categoryID,
		post.Tags,
		post.Slug,
		post.Published,
		post.PublishedDate,
		post.CreatedDate,
		post.UpdatedDate,
		nullableString(post.ImageURL),
	)
	return err
}

func (r *PgPostRepository) GetByID(ctx context.Context, id string) (domain.BlogPost, error) {
	const query = `
		SELECT ` + postColumns + `
		FROM blog_posts
		WHERE id = $1
	`

	row := r.pool.QueryRow(ctx, query, id)
	return scanPost(row)
}

func (r *PgPostRepository) List(ctx context.Context, filter domain.PostFilter) ([]domain.BlogPost, error) {
	query := `
		SELECT ` + postColumns + `
		FROM blog_posts
		WHERE 1=1
	`
	args := []interface{}{}

	if filter.Published != nil {
		args = append(args, *filter.Published)
		query += fmt.Sprintf(" AND published = $%d", len(args))
	}
	if filter.CategoryID != "" {
		args = append(args, filter.CategoryID)
		query += fmt.Sprintf(" AND category_id = $%d", len(args))
	}
	query += " ORDER BY created_date DESC"
	if filter.Skip > 0 {
		args = append(args, filter.Skip)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}
	if filter.Top > 0 {
		args = append(args, filter.Top)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var posts []domain.BlogPost
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			return nil, err
		}
		posts = append(posts, post)
	}
	return posts, rows.Err()
}

func (r *PgPostRepository) Update(ctx context.Context, post domain.BlogPost) error {
	const query = `
		UPDATE blog_posts
		SET title = $2, content = $3, excerpt = $4, author = $5, category_id = $6,
		    tags = $7, slug = $8, published = $9, published_date = $10,
		    updated_date = $11, image_url = $12
		WHERE id = $1
	`

	var categoryID interface{}
	if post.CategoryID != "" {
		categoryID = post.CategoryID
	}

	_, err := r.pool.Exec(ctx, query,
		post.ID,
		post.Title,
		post.Content,
		nullableString(post.Excerpt),
		post.Author,
		categoryID,
		post.Tags,
		post.Slug,
		post.Published,
		post.PublishedDate,
		post.UpdatedDate,
		nullableString(post.ImageURL),
	)
	return err
}

func (r *PgPostRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM blog_posts WHERE id = $1`
	_, err := r.pool.Exec(ctx, query, id)
	return err
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanPost(row rowScanner) (domain.BlogPost, error) {
	var (
		post       domain.BlogPost
		excerpt    *string
		categoryID *string
		imageURL   *string
	)
	err := row.Scan(
		&post.ID,
		&post.Title,
		&post.Content,
		&excerpt,
		&post.Author,
		&categoryID,
		&post.Tags,
		&post.Slug,
		&post.Published,
		&post.PublishedDate,
		&post.CreatedDate,
		&post.UpdatedDate,
		&imageURL,
	)
	if err != nil {
		return domain.BlogPost{}, err
	}
	if excerpt != nil {
		post.Excerpt = *excerpt
	}
	if categoryID != nil {
		post.CategoryID = *categoryID
	}
	if imageURL != nil {
		post.ImageURL = *imageURL
	}
	return post, nil
}

func nullableString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
