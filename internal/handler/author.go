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

type AuthorHandler struct {
	repo repository.AuthorRepository
	log  *zap.Logger
}

func NewAuthorHandler(repo repository.AuthorRepository, log *zap.Logger) *AuthorHandler {
	return &AuthorHandler{
		repo: repo,
		log:  log.Named("authors"),
	}
}

func (h *AuthorHandler) RegisterRoutes(r *gin.RouterGroup) {
	authors := r.Group("/authors")
	{
		authors.POST("", h.CreateAuthor)
		authors.GET("", h.ListAuthors)
		authors.GET("/:id", h.GetAuthorByID)
		authors.PUT("/:id", h.UpdateAuthor)
		authors.DELETE("/:id", h.DeleteAuthor)
	}
}

func authorNotFound(c *gin.Context) {
	writeError(c, http.StatusNotFound, "AUTHOR_NOT_FOUND", "Author not found")
}

// CreateAuthor godoc
// @Summary      Create an author
// @Description  Create a new author from a first and last name
// @Tags         authors
// @Accept       json
// @Produce      json
// @Param        payload  body      AuthorRequest             true  "Author to create"
// @Success      201      {object}  Author
// @Failure      400      {object}  validation.ErrorResponse  "Validation error"
// @Failure      500      {object}  validation.ErrorResponse  "Internal server error"
// @Router       /authors [post]
func (h *AuthorHandler) CreateAuthor(c *gin.Context) {
	body, ok := validation.BindPayload(c)
	if !ok {
		return
	}

	if errs := validation.ValidateAuthorCreate(body); len(errs) > 0 {
		writeValidationError(c, errs)
		return
	}

	firstName, _ := body.String("firstName")
	lastName, _ := body.String("lastName")

	author := model.Author{
		FirstName: firstName,
		LastName:  lastName,
	}

	if err := h.repo.Create(c.Request.Context(), &author); err != nil {
		writeInternalError(c, h.log, "AUTHOR_CREATE_FAILED", "failed to create author", err)
		return
	}

	c.JSON(http.StatusCreated, toAuthorResponse(author))
}

// ListAuthors godoc
// @Summary      List authors
// @Description  Page through authors with their books
// @Tags         authors
// @Produce      json
// @Param        page    query     int     false  "Page number"     default(1) minimum(1)
// @Param        limit   query     int     false  "Items per page"  default(10) minimum(1)
// @Param        search  query     string  false  "Substring of the first or last name"
// @Param        book    query     string  false  "Substring of a title the author wrote"
// @Success      200     {object}  ListAuthorsResponse
// @Failure      500     {object}  validation.ErrorResponse  "Internal server error"
// @Router       /authors [get]
func (h *AuthorHandler) ListAuthors(c *gin.Context) {
	page := pagination.FromQuery(c.Request.URL.Query())

	result, err := h.repo.List(c.Request.Context(), repository.AuthorListParams{
		Limit:  page.Limit,
		Offset: page.Offset,
		Search: c.Query("search"),
		Book:   c.Query("book"),
	})
	if err != nil {
		writeInternalError(c, h.log, "AUTHOR_LIST_FAILED", "failed to list authors", err)
		return
	}

	res := make([]Author, 0, len(result.Authors))
	for _, a := range result.Authors {
		res = append(res, toAuthorResponse(a))
	}

	c.JSON(http.StatusOK, pagination.NewEnvelope(res, page, result.Total))
}

// GetAuthorByID godoc
// @Summary      Get author by ID
// @Description  Get a single author with their books
// @Tags         authors
// @Produce      json
// @Param        id   path      int                       true  "Author ID"
// @Success      200  {object}  Author
// @Failure      404  {object}  validation.ErrorResponse  "Author not found"
// @Failure      500  {object}  validation.ErrorResponse  "Internal server error"
// @Router       /authors/{id} [get]
func (h *AuthorHandler) GetAuthorByID(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		authorNotFound(c)
		return
	}

	author, err := h.repo.FindByID(c.Request.Context(), id, true)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			authorNotFound(c)
			return
		}

		writeInternalError(c, h.log, "AUTHOR_FETCH_FAILED", "failed to fetch author", err)
		return
	}

	c.JSON(http.StatusOK, toAuthorResponse(*author))
}

// UpdateAuthor godoc
// @Summary      Update an author
// @Description  Change only the supplied fields of an author
// @Tags         authors
// @Accept       json
// @Produce      json
// @Param        id       path      int                       true  "Author ID"
// @Param        payload  body      AuthorRequest             true  "Author fields to update"
// @Success      200      {object}  Author
// @Failure      400      {object}  validation.ErrorResponse  "Validation error"
// @Failure      404      {object}  validation.ErrorResponse  "Author not found"
// @Failure      500      {object}  validation.ErrorResponse  "Internal server error"
// @Router       /authors/{id} [put]
func (h *AuthorHandler) UpdateAuthor(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		authorNotFound(c)
		return
	}

	ctx := c.Request.Context()

	if _, err := h.repo.FindByID(ctx, id, false); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			authorNotFound(c)
			return
		}

		writeInternalError(c, h.log, "AUTHOR_FETCH_FAILED", "failed to fetch author", err)
		return
	}

	body, ok := validation.BindPayload(c)
	if !ok {
		return
	}

	if errs := validation.ValidateAuthorUpdate(body); len(errs) > 0 {
		writeValidationError(c, errs)
		return
	}

	fields := map[string]any{}
	if firstName, ok := body.String("firstName"); ok {
		fields["first_name"] = firstName
	}
	if lastName, ok := body.String("lastName"); ok {
		fields["last_name"] = lastName
	}

	if err := h.repo.Update(ctx, id, fields); err != nil {
		writeInternalError(c, h.log, "AUTHOR_UPDATE_FAILED", "failed to update author", err)
		return
	}

	updated, err := h.repo.FindByID(ctx, id, true)
	if err != nil {
		writeInternalError(c, h.log, "AUTHOR_FETCH_FAILED", "failed to fetch updated author", err)
		return
	}

	c.JSON(http.StatusOK, toAuthorResponse(*updated))
}

// DeleteAuthor godoc
// @Summary      Delete an author
// @Description  Delete an author. Their books are kept.
// @Tags         authors
// @Produce      json
// @Param        id   path      int                       true  "Author ID"
// @Success      204  "No Content"
// @Failure      404  {object}  validation.ErrorResponse  "Author not found"
// @Failure      500  {object}  validation.ErrorResponse  "Internal server error"
// @Router       /authors/{id} [delete]
func (h *AuthorHandler) DeleteAuthor(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		authorNotFound(c)
		return
	}

	if err := h.repo.Delete(c.Request.Context(), id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			authorNotFound(c)
			return
		}

		writeInternalError(c, h.log, "AUTHOR_DELETE_FAILED", "failed to delete author", err)
		return
	}

	c.Status(http.StatusNoContent)
}
