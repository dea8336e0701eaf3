package domain

import "time"

// BlogPost representa una entrada del blog tal como la expone la API.
type BlogPost struct {
	ID            string     `json:"id"`
	Title         string     `json:"title"`
	Content       string     `json:"content"`
	Excerpt       string     `json:"excerpt,omitempty"`
	Author        string     `json:"author"`
	CategoryID    string     `json:"categoryId,omitempty"`
	Tags          []string   `json:"tags"`
	Slug          string     `json:"slug"`
	Published     bool       `json:"published"`
	PublishedDate *time.Time `json:"publishedDate,omitempty"`
	CreatedDate   *time.Time `json:"createdDate,omitempty"`
	UpdatedDate   *time.Time `json:"updatedDate,omitempty"`
	ImageURL      string     `json:"imageUrl,omitempty"`
}

// PostFilter acota los resultados de un listado de posts.
type PostFilter struct {
	Published  *bool
	CategoryID string
	Top        int
	Skip       int
}
