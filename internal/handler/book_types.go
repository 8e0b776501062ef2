package handler

import (
	"time"

	"github.com/vishalpmittal/dratavlibrary/internal/model"
	"github.com/vishalpmittal/dratavlibrary/internal/pagination"
)

type Book struct {
	ID          uint           `json:"id" example:"1"`
	Title       string         `json:"title" example:"Midnight Library"`
	PageCount   int            `json:"pageCount" example:"288"`
	ReleaseDate *model.Date    `json:"releaseDate" swaggertype:"string" example:"2020-08-13"`
	CheckedOut  bool           `json:"checkedOut"`
	AuthorID    *uint          `json:"authorId" example:"1"`
	CreatedAt   time.Time      `json:"createdAt"`
	UpdatedAt   time.Time      `json:"updatedAt"`
	Author      *AuthorSummary `json:"author"`
}

type BookSummary struct {
	ID          uint        `json:"id" example:"1"`
	Title       string      `json:"title" example:"Midnight Library"`
	PageCount   int         `json:"pageCount" example:"288"`
	ReleaseDate *model.Date `json:"releaseDate" swaggertype:"string" example:"2020-08-13"`
	CheckedOut  bool        `json:"checkedOut"`
	AuthorID    *uint       `json:"authorId" example:"1"`
	CreatedAt   time.Time   `json:"createdAt"`
	UpdatedAt   time.Time   `json:"updatedAt"`
}

type BookRef struct {
	ID    uint   `json:"id" example:"1"`
	Title string `json:"title" example:"Midnight Library"`
}

// BookRequest documents the book payload. Either author or authorId may be
// given; an inline author is looked up by name and created when missing.
type BookRequest struct {
	Title       string         `json:"title" example:"Midnight Library"`
	PageCount   int            `json:"pageCount" example:"288"`
	ReleaseDate string         `json:"releaseDate" example:"2020-08-13"`
	AuthorID    *uint          `json:"authorId" example:"1"`
	Author      *AuthorRequest `json:"author"`
}

type Meta = pagination.Meta

type ListBooksResponse struct {
	Data []Book `json:"data"`
	Meta Meta   `json:"meta"`
}
