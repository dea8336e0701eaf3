package domain

import "time"

// Comment es un comentario de lector asociado a un post.
type Comment struct {
	ID          string     `json:"id"`
	PostID      string     `json:"postId"`
	Author      string     `json:"author"`
	Email       string     `json:"email,omitempty"`
	Content     string     `json:"content"`
	Approved    bool       `json:"approved"`
	CreatedDate *time.Time `json:"createdDate,omitempty"`
	UpdatedDate *time.Time `json:"updatedDate,omitempty"`
}

// CommentFilter acota los resultados de un listado de comentarios.
type CommentFilter struct {
	Approved *bool
	Top      int
	Skip     int
}
