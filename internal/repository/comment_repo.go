package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/waritsan/theglobe/internal/domain"
)

type CommentRepository interface {
	Create(ctx context.Context, comment domain.Comment) error
	GetByID(ctx context.Context, postID, commentID string) (domain.Comment, error)
	ListByPostID(ctx context.Context, postID string, filter domain.CommentFilter) ([]domain.Comment, error)
	Update(ctx context.Context, comment domain.Comment) error
	Delete(ctx context.Context, postID, commentID string) error
}

type PgCommentRepository struct {
	pool *pgxpool.Pool
}

func NewPgCommentRepository(pool *pgxpool.Pool) *PgCommentRepository {
	return &PgCommentRepository{pool: pool}
}

func (r *PgCommentRepository) Create(ctx context.Context, comment domain.Comment) error {
	const query = `
		INSERT INTO comments (id, post_id, author, email, content, approved, created_date, updated_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.pool.Exec(ctx, query,
		comment.ID,
		comment.PostID,
		comment.Author,
		nullableString(comment.Email),
		comment.Content,
		comment.Approved,
		comment.CreatedDate,
		comment.UpdatedDate,
	)
	return err
}

func (r *PgCommentRepository) GetByID(ctx context.Context, postID, commentID string) (domain.Comment, error) {
	const query = `
		SELECT id, post_id, author, email, content, approved, created_date, updated_date
		FROM comments
		WHERE id = $1 AND post_id = $2
	`

	var (
		comment domain.Comment
		email   *string
	)
	err := r.pool.QueryRow(ctx, query, commentID, postID).Scan(
		&comment.ID,
		&comment.PostID,
		&comment.Author,
		&email,
		&comment.Content,
		&comment.Approved,
		&comment.CreatedDate,
		&comment.UpdatedDate,
	)
	if err != nil {
		return domain.Comment{}, err
	}
	if email != nil {
		comment.Email = *email
	}
	return comment, nil
}

func (r *PgCommentRepository) ListByPostID(ctx context.Context, postID string, filter domain.CommentFilter) ([]domain.Comment, error) {
	query := `
		SELECT id, post_id, author, email, content, approved, created_date, updated_date
		FROM comments
		WHERE post_id = $1
	`
	args := []interface{}{postID}

	if filter.Approved != nil {
		args = append(args, *filter.Approved)
		query += fmt.Sprintf(" AND approved = $%d", len(args))
	}
	query += " ORDER BY created_date ASC"
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

	var comments []domain.Comment
	for rows.Next() {
		var (
			comment domain.Comment
			email   *string
		)
		if err := rows.Scan(
			&comment.ID,
			&comment.PostID,
			&comment.Author,
			&email,
			&comment.Content,
			&comment.Approved,
			&comment.CreatedDate,
			&comment.UpdatedDate,
		); err != nil {
			return nil, err
		}
		if email != nil {
			comment.Email = *email
		}
		comments = append(comments, comment)
	}
	return comments, rows.Err()
}

func (r *PgCommentRepository) Update(ctx context.Context, comment domain.Comment) error {
	const query = `
		UPDATE comments
		SET author = $3, email = $4, content = $5, approved = $6, updated_date = $7
		WHERE id = $1 AND post_id = $2
	`

	_, err := r.pool.Exec(ctx, query,
		comment.ID,
		comment.PostID,
		comment.Author,
		nullableString(comment.Email),
		comment.Content,
		comment.Approved,
		comment.UpdatedDate,
	)
	return err
}

func (r *PgCommentRepository) Delete(ctx context.Context, postID, commentID string) error {
	const query = `DELETE FROM comments WHERE id = $1 AND post_id = $2`
	_, err := r.pool.Exec(ctx, query, commentID, postID)
	return err
}
