package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/vishalpmittal/dratavlibrary/internal/model"
	"github.com/vishalpmittal/dratavlibrary/internal/repository"
	"github.com/vishalpmittal/dratavlibrary/internal/validation"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func setupTestRouter(db *gorm.DB) *gin.Engine {
	return setupRouterWithRepos(
		repository.NewGormBookRepository(db),
		repository.NewGormAuthorRepository(db),
	)
}

func setupRouterWithRepos(books repository.BookRepository, authors repository.AuthorRepository) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()

	log := zap.NewNop()

	ah := NewAuthorHandler(authors, log)
	ah.RegisterRoutes(r.Group(""))
	bh := NewBookHandler(books, authors, log)
	bh.RegisterRoutes(r.Group(""))

	return r
}

func doRequest(t *testing.T, router http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		raw, err := json.Marshal(b)
		if err != nil {
			t.Fatalf("failed to marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, _ := http.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()

	var v T
	if err := json.Unmarshal(w.Body.Bytes(), &v); err != nil {
		t.Fatalf("failed to unmarshal response %q: %v", w.Body.String(), err)
	}
	return v
}

func expectStatus(t *testing.T, w *httptest.ResponseRecorder, status int) {
	t.Helper()

	if w.Code != status {
		t.Fatalf("expected status %d, got %d, body=%s", status, w.Code, w.Body.String())
	}
}

func expectError(t *testing.T, w *httptest.ResponseRecorder, status int, code, message string) validation.ErrorResponse {
	t.Helper()

	expectStatus(t, w, status)
	resp := decode[validation.ErrorResponse](t, w)
	if resp.Code != code {
		t.Errorf("expected code %q, got %q", code, resp.Code)
	}
	if message != "" && resp.Error != message {
		t.Errorf("expected error %q, got %q", message, resp.Error)
	}
	return resp
}

type fakeBookRepo struct {
	CreateFn        func(ctx context.Context, b *model.Book) error
	FindByIDFn      func(ctx context.Context, id uint, withAuthor bool) (*model.Book, error)
	FindByTitleFn   func(ctx context.Context, title string) (*model.Book, error)
	ListFn          func(ctx context.Context, params repository.BookListParams) (repository.BookListResult, error)
	UpdateFn        func(ctx context.Context, id uint, fields map[string]any) error
	DeleteFn        func(ctx context.Context, id uint) error
	SetCheckedOutFn func(ctx context.Context, id uint, checkedOut bool) error
}

func (f *fakeBookRepo) Create(ctx context.Context, b *model.Book) error {
	if f.CreateFn != nil {
		return f.CreateFn(ctx, b)
	}
	return nil
}

func (f *fakeBookRepo) FindByID(ctx context.Context, id uint, withAuthor bool) (*model.Book, error) {
	if f.FindByIDFn != nil {
		return f.FindByIDFn(ctx, id, withAuthor)
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeBookRepo) FindByTitle(ctx context.Context, title string) (*model.Book, error) {
	if f.FindByTitleFn != nil {
		return f.FindByTitleFn(ctx, title)
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeBookRepo) List(ctx context.Context, params repository.BookListParams) (repository.BookListResult, error) {
	if f.ListFn != nil {
		return f.ListFn(ctx, params)
	}
	return repository.BookListResult{}, nil
}

func (f *fakeBookRepo) Update(ctx context.Context, id uint, fields map[string]any) error {
	if f.UpdateFn != nil {
		return f.UpdateFn(ctx, id, fields)
	}
	return nil
}

func (f *fakeBookRepo) Delete(ctx context.Context, id uint) error {
	if f.DeleteFn != nil {
		return f.DeleteFn(ctx, id)
	}
	return nil
}

func (f *fakeBookRepo) SetCheckedOut(ctx context.Context, id uint, checkedOut bool) error {
	if f.SetCheckedOutFn != nil {
		return f.SetCheckedOutFn(ctx, id, checkedOut)
	}
	return nil
}

type fakeAuthorRepo struct {
	CreateFn             func(ctx context.Context, a *model.Author) error
	FindByIDFn           func(ctx context.Context, id uint, withBooks bool) (*model.Author, error)
	FindOrCreateByNameFn func(ctx context.Context, firstName, lastName string) (*model.Author, error)
	ListFn               func(ctx context.Context, params repository.AuthorListParams) (repository.AuthorListResult, error)
	UpdateFn             func(ctx context.Context, id uint, fields map[string]any) error
	DeleteFn             func(ctx context.Context, id uint) error
}

func (f *fakeAuthorRepo) Create(ctx context.Context, a *model.Author) error {
	if f.CreateFn != nil {
		return f.CreateFn(ctx, a)
	}
	return nil
}

func (f *fakeAuthorRepo) FindByID(ctx context.Context, id uint, withBooks bool) (*model.Author, error) {
	if f.FindByIDFn != nil {
		return f.FindByIDFn(ctx, id, withBooks)
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeAuthorRepo) FindOrCreateByName(ctx context.Context, firstName, lastName string) (*model.Author, error) {
	if f.FindOrCreateByNameFn != nil {
		return f.FindOrCreateByNameFn(ctx, firstName, lastName)
	}
	return &model.Author{ID: 1, FirstName: firstName, LastName: lastName}, nil
}

func (f *fakeAuthorRepo) List(ctx context.Context, params repository.AuthorListParams) (repository.AuthorListResult, error) {
	if f.ListFn != nil {
		return f.ListFn(ctx, params)
	}
	return repository.AuthorListResult{}, nil
}

func (f *fakeAuthorRepo) Update(ctx context.Context, id uint, fields map[string]any) error {
	if f.UpdateFn != nil {
		return f.UpdateFn(ctx, id, fields)
	}
	return nil
}

func (f *fakeAuthorRepo) Delete(ctx context.Context, id uint) error {
	if f.DeleteFn != nil {
		return f.DeleteFn(ctx, id)
	}
	return nil
}

func pathf(format string, args ...any) string {
	return fmt.Sprintf(format, args...)
}
