package handler

import "time"

type Author struct {
	ID        uint          `json:"id" example:"1"`
	FirstName string        `json:"firstName" example:"Alice"`
	LastName  string        `json:"lastName" example:"Munro"`
	CreatedAt time.Time     `json:"createdAt"`
	UpdatedAt time.Time     `json:"updatedAt"`
	Books     []BookSummary `json:"books"`
}

type AuthorSummary struct {
	ID        uint      `json:"id" example:"1"`
	FirstName string    `json:"firstName" example:"Alice"`
	LastName  string    `json:"lastName" example:"Munro"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// AuthorRequest documents the author payload. Bodies are validated from the
// raw JSON so that present-but-invalid fields can be told apart from absent ones.
type AuthorRequest struct {
	FirstName string `json:"firstName" example:"Alice"`
	LastName  string `json:"lastName" example:"Munro"`
}

type ListAuthorsResponse struct {
	Data []Author `json:"data"`
	Meta Meta     `json:"meta"`
}
