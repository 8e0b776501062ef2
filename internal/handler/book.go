package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/vishalpmittal/dratavlibrary/internal/model"
	"github.com/vishalpmittal/dratavlibrary/internal/pagination"
	"github.com/vishalpmittal/dratavlibrary/internal/repository"
	"github.com/vishalpmittal/dratavlibrary/internal/validation"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type BookHandler struct {
	books   repository.BookRepository
	authors repository.AuthorRepository
	log     *zap.Logger
}

func NewBookHandler(books repository.BookRepository, authors repository.AuthorRepository, log *zap.Logger) *BookHandler {
	return &BookHandler{
		books:   books,
		authors: authors,
		log:     log.Named("books"),
	}
}

func (h *BookHandler) RegisterRoutes(r *gin.RouterGroup) {
	books := r.Group("/books")
	{
		books.POST("", h.CreateBook)
		books.GET("", h.ListBooks)
		books.GET("/:id", h.GetBookByID)
		books.PUT("/:id", h.UpdateBook)
		books.DELETE("/:id", h.DeleteBook)
		books.POST("/:id/checkout", h.CheckoutBook)
		books.POST("/:id/return", h.ReturnBook)
	}
}

func bookNotFound(c *gin.Context) {
	writeError(c, http.StatusNotFound, "BOOK_NOT_FOUND", "Book not found")
}

func writeConflict(c *gin.Context, existing *model.Book) {
	var ref *BookRef
	if existing != nil {
		ref = &BookRef{ID: existing.ID, Title: existing.Title}
	}

	c.AbortWithStatusJSON(http.StatusConflict, ConflictResponse{
		Error: "Book already exists",
		Code:  "BOOK_ALREADY_EXISTS",
		Book:  ref,
	})
}

// conflictFromStore answers a unique violation raised by the write itself,
// looking the winning row up again.
func (h *BookHandler) conflictFromStore(c *gin.Context, title string) {
	existing, err := h.books.FindByTitle(c.Request.Context(), title)
	if err != nil {
		existing = nil
	}
	writeConflict(c, existing)
}

// resolveAuthor works out which author a payload points at. An inline author
// object wins and is found or created by its exact name; otherwise authorId is
// used and must name an existing author. set is false when the payload names
// no author at all. ok is false once a response has been written.
func (h *BookHandler) resolveAuthor(c *gin.Context, body validation.Payload) (authorID *uint, set, ok bool) {
	ctx := c.Request.Context()

	if firstName, lastName, inline := validation.AuthorName(body); inline {
		author, err := h.authors.FindOrCreateByName(ctx, firstName, lastName)
		if err != nil {
			writeInternalError(c, h.log, "AUTHOR_RESOLVE_FAILED", "failed to resolve author", err)
			return nil, false, false
		}
		return &author.ID, true, true
	}

	if !body.Has("authorId") {
		return nil, false, true
	}
	if body["authorId"] == nil {
		return nil, true, true
	}

	n, _ := body.Integer("authorId")
	if n <= 0 {
		writeError(c, http.StatusBadRequest, "AUTHOR_NOT_FOUND", "author does not exist")
		return nil, false, false
	}

	id := uint(n)
	if _, err := h.authors.FindByID(ctx, id, false); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			writeError(c, http.StatusBadRequest, "AUTHOR_NOT_FOUND", "author does not exist")
			return nil, false, false
		}

		writeInternalError(c, h.log, "AUTHOR_FETCH_FAILED", "failed to fetch author", err)
		return nil, false, false
	}
	return &id, true, true
}

// CreateBook godoc
// @Summary      Create a book
// @Description  Create a book. An inline author is matched by exact name and created when missing.
// @Tags         books
// @Accept       json
// @Produce      json
// @Param        payload  body      BookRequest               true  "Book to create"
// @Success      201      {object}  Book
// @Failure      400      {object}  validation.ErrorResponse  "Validation error or unknown author"
// @Failure      409      {object}  ConflictResponse          "Title already taken"
// @Failure      500      {object}  validation.ErrorResponse  "Internal server error"
// @Router       /books [post]
func (h *BookHandler) CreateBook(c *gin.Context) {
	body, ok := validation.BindPayload(c)
	if !ok {
		return
	}

	if errs := validation.ValidateBookCreate(body); len(errs) > 0 {
		writeValidationError(c, errs)
		return
	}

	ctx := c.Request.Context()

	title, _ := body.String("title")
	pageCount, _ := body.Integer("pageCount")

	existing, err := h.books.FindByTitle(ctx, title)
	if err == nil {
		writeConflict(c, existing)
		return
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		writeInternalError(c, h.log, "BOOK_FETCH_FAILED", "failed to check book title", err)
		return
	}

	authorID, _, ok := h.resolveAuthor(c, body)
	if !ok {
		return
	}

	book := model.Book{
		Title:       title,
		PageCount:   pageCount,
		ReleaseDate: releaseDate(body),
		AuthorID:    authorID,
	}

	if err := h.books.Create(ctx, &book); err != nil {
		if errors.Is(err, repository.ErrDuplicateTitle) {
			h.conflictFromStore(c, title)
			return
		}

		writeInternalError(c, h.log, "BOOK_CREATE_FAILED", "failed to create book", err)
		return
	}

	h.respondWithBook(c, book.ID, http.StatusCreated)
}

// ListBooks godoc
// @Summary      List books
// @Description  Page through books with their authors
// @Tags         books
// @Produce      json
// @Param        page    query     int     false  "Page number"     default(1) minimum(1)
// @Param        limit   query     int     false  "Items per page"  default(10) minimum(1)
// @Param        search  query     string  false  "Substring of the title"
// @Param        author  query     string  false  "Substring of the author's first or last name"
// @Success      200     {object}  ListBooksResponse
// @Failure      500     {object}  validation.ErrorResponse  "Internal server error"
// @Router       /books [get]
func (h *BookHandler) ListBooks(c *gin.Context) {
	page := pagination.FromQuery(c.Request.URL.Query())

	result, err := h.books.List(c.Request.Context(), repository.BookListParams{
		Limit:  page.Limit,
		Offset: page.Offset,
		Search: c.Query("search"),
		Author: c.Query("author"),
	})
	if err != nil {
		writeInternalError(c, h.log, "BOOK_LIST_FAILED", "failed to fetch books", err)
		return
	}

	res := make([]Book, 0, len(result.Books))
	for _, b := range result.Books {
		res = append(res, toBookResponse(b))
	}

	c.JSON(http.StatusOK, pagination.NewEnvelope(res, page, result.Total))
}

// GetBookByID godoc
// @Summary      Get a book by ID
// @Description  Get a single book with its author
// @Tags         books
// @Produce      json
// @Param        id   path      int                       true  "Book ID"
// @Success      200  {object}  Book
// @Failure      404  {object}  validation.ErrorResponse  "Book not found"
// @Failure      500  {object}  validation.ErrorResponse  "Internal server error"
// @Router       /books/{id} [get]
func (h *BookHandler) GetBookByID(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		bookNotFound(c)
		return
	}

	book, err := h.books.FindByID(c.Request.Context(), id, true)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			bookNotFound(c)
			return
		}

		writeInternalError(c, h.log, "BOOK_FETCH_FAILED", "failed to fetch book", err)
		return
	}

	c.JSON(http.StatusOK, toBookResponse(*book))
}

// UpdateBook godoc
// @Summary      Update a book
// @Description  Change only the supplied fields. An inline author replaces authorId after find-or-create; checkedOut is only changed through checkout and return.
// @Tags         books
// @Accept       json
// @Produce      json
// @Param        id       path      int                       true  "Book ID"
// @Param        payload  body      BookRequest               true  "Fields to update"
// @Success      200      {object}  Book
// @Failure      400      {object}  validation.ErrorResponse  "Validation error or unknown author"
// @Failure      404      {object}  validation.ErrorResponse  "Book not found"
// @Failure      409      {object}  ConflictResponse          "Title already taken"
// @Failure      500      {object}  validation.ErrorResponse  "Internal server error"
// @Router       /books/{id} [put]
func (h *BookHandler) UpdateBook(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		bookNotFound(c)
		return
	}

	ctx := c.Request.Context()

	book, err := h.books.FindByID(ctx, id, false)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			bookNotFound(c)
			return
		}

		writeInternalError(c, h.log, "BOOK_FETCH_FAILED", "failed to fetch book", err)
		return
	}

	body, ok := validation.BindPayload(c)
	if !ok {
		return
	}

	if errs := validation.ValidateBookUpdate(body); len(errs) > 0 {
		writeValidationError(c, errs)
		return
	}

	fields := map[string]any{}

	if title, ok := body.String("title"); ok {
		if title != book.Title {
			existing, err := h.books.FindByTitle(ctx, title)
			if err == nil && existing.ID != id {
				writeConflict(c, existing)
				return
			}
			if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
				writeInternalError(c, h.log, "BOOK_FETCH_FAILED", "failed to check book title", err)
				return
			}
		}
		fields["title"] = title
	}
	if pageCount, ok := body.Integer("pageCount"); ok {
		fields["page_count"] = pageCount
	}
	if body.Has("releaseDate") {
		fields["release_date"] = releaseDate(body)
	}

	// the nested author object itself is never written to the book
	authorID, set, ok := h.resolveAuthor(c, body)
	if !ok {
		return
	}
	if set {
		fields["author_id"] = authorID
	}

	if err := h.books.Update(ctx, id, fields); err != nil {
		if errors.Is(err, repository.ErrDuplicateTitle) {
			title, _ := body.String("title")
			h.conflictFromStore(c, title)
			return
		}

		writeInternalError(c, h.log, "BOOK_UPDATE_FAILED", "failed to update book", err)
		return
	}

	h.respondWithBook(c, id, http.StatusOK)
}

// DeleteBook godoc
// @Summary      Delete a book
// @Description  Delete a book by its ID
// @Tags         books
// @Produce      json
// @Param        id   path      int                       true  "Book ID"
// @Success      204  "No Content"
// @Failure      404  {object}  validation.ErrorResponse  "Book not found"
// @Failure      500  {object}  validation.ErrorResponse  "Internal server error"
// @Router       /books/{id} [delete]
func (h *BookHandler) DeleteBook(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		bookNotFound(c)
		return
	}

	if err := h.books.Delete(c.Request.Context(), id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			bookNotFound(c)
			return
		}

		writeInternalError(c, h.log, "BOOK_DELETE_FAILED", "failed to delete book", err)
		return
	}

	c.Status(http.StatusNoContent)
}

// CheckoutBook godoc
// @Summary      Check out a book
// @Description  Mark an available book as checked out
// @Tags         books
// @Produce      json
// @Param        id   path      int                       true  "Book ID"
// @Success      200  {object}  Book
// @Failure      400  {object}  validation.ErrorResponse  "Book already checked out"
// @Failure      404  {object}  validation.ErrorResponse  "Book not found"
// @Failure      500  {object}  validation.ErrorResponse  "Internal server error"
// @Router       /books/{id}/checkout [post]
func (h *BookHandler) CheckoutBook(c *gin.Context) {
	h.transition(c, true, "BOOK_ALREADY_CHECKED_OUT", "Book already checked out")
}

// ReturnBook godoc
// @Summary      Return a book
// @Description  Mark a checked out book as available again
// @Tags         books
// @Produce      json
// @Param        id   path      int                       true  "Book ID"
// @Success      200  {object}  Book
// @Failure      400  {object}  validation.ErrorResponse  "Book is not checked out"
// @Failure      404  {object}  validation.ErrorResponse  "Book not found"
// @Failure      500  {object}  validation.ErrorResponse  "Internal server error"
// @Router       /books/{id}/return [post]
func (h *BookHandler) ReturnBook(c *gin.Context) {
	h.transition(c, false, "BOOK_NOT_CHECKED_OUT", "Book is not checked out")
}

func (h *BookHandler) transition(c *gin.Context, checkedOut bool, code, message string) {
	id, ok := parseID(c)
	if !ok {
		bookNotFound(c)
		return
	}

	ctx := c.Request.Context()

	if _, err := h.books.FindByID(ctx, id, false); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			bookNotFound(c)
			return
		}

		writeInternalError(c, h.log, "BOOK_FETCH_FAILED", "failed to fetch book", err)
		return
	}

	if err := h.books.SetCheckedOut(ctx, id, checkedOut); err != nil {
		if errors.Is(err, repository.ErrInvalidTransition) {
			writeError(c, http.StatusBadRequest, code, message)
			return
		}

		writeInternalError(c, h.log, "BOOK_UPDATE_FAILED", "failed to update book", err)
		return
	}

	h.respondWithBook(c, id, http.StatusOK)
}

func (h *BookHandler) respondWithBook(c *gin.Context, id uint, status int) {
	book, err := h.books.FindByID(c.Request.Context(), id, true)
	if err != nil {
		writeInternalError(c, h.log, "BOOK_FETCH_FAILED", "failed to fetch book", err)
		return
	}

	c.JSON(status, toBookResponse(*book))
}
