package handler

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/vishalpmittal/dratavlibrary/internal/model"
	"github.com/vishalpmittal/dratavlibrary/internal/validation"
)

// parseID reads the :id path parameter. Anything that is not a positive
// integer cannot name a row.
func parseID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

// releaseDate converts a validated releaseDate value. Absent, null and ""
// all mean no date.
func releaseDate(body validation.Payload) *time.Time {
	s, ok := body.String("releaseDate")
	if !ok || s == "" {
		return nil
	}

	t, err := model.ParseDate(s)
	if err != nil {
		return nil
	}
	t = model.CalendarDate(t)
	return &t
}

func toDate(t *time.Time) *model.Date {
	if t == nil || t.IsZero() {
		return nil
	}
	return &model.Date{Time: *t}
}

func toAuthorSummary(a model.Author) AuthorSummary {
	return AuthorSummary{
		ID:        a.ID,
		FirstName: a.FirstName,
		LastName:  a.LastName,
		CreatedAt: a.CreatedAt,
		UpdatedAt: a.UpdatedAt,
	}
}

func toAuthorResponse(a model.Author) Author {
	books := make([]BookSummary, 0, len(a.Books))
	for _, b := range a.Books {
		books = append(books, toBookSummary(b))
	}

	return Author{
		ID:        a.ID,
		FirstName: a.FirstName,
		LastName:  a.LastName,
		CreatedAt: a.CreatedAt,
		UpdatedAt: a.UpdatedAt,
		Books:     books,
	}
}

func toBookSummary(b model.Book) BookSummary {
	return BookSummary{
		ID:          b.ID,
		Title:       b.Title,
		PageCount:   b.PageCount,
		ReleaseDate: toDate(b.ReleaseDate),
		CheckedOut:  b.CheckedOut,
		AuthorID:    b.AuthorID,
		CreatedAt:   b.CreatedAt,
		UpdatedAt:   b.UpdatedAt,
	}
}

func toBookResponse(b model.Book) Book {
	var author *AuthorSummary
	if b.Author != nil {
		a := toAuthorSummary(*b.Author)
		author = &a
	}

	return Book{
		ID:          b.ID,
		Title:       b.Title,
		PageCount:   b.PageCount,
		ReleaseDate: toDate(b.ReleaseDate),
		CheckedOut:  b.CheckedOut,
		AuthorID:    b.AuthorID,
		CreatedAt:   b.CreatedAt,
		UpdatedAt:   b.UpdatedAt,
		Author:      author,
	}
}
