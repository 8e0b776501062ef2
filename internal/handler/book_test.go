package handler

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/vishalpmittal/dratavlibrary/internal/model"
	"github.com/vishalpmittal/dratavlibrary/internal/repository"
	"github.com/vishalpmittal/dratavlibrary/internal/testutil"
	"gorm.io/gorm"
)

func TestCreateBook_Success(t *testing.T) {
	db := testutil.NewTestDB(t)
	router := setupTestRouter(db)
	author := testutil.SeedAuthor(t, db, "Matt", "Haig")

	w := doRequest(t, router, http.MethodPost, "/books", map[string]any{
		"title":       "The Midnight Library",
		"pageCount":   288,
		"releaseDate": "2020-08-13",
		"authorId":    author.ID,
	})
	expectStatus(t, w, http.StatusCreated)

	resp := decode[Book](t, w)
	if resp.ID == 0 {
		t.Errorf("expected a generated id")
	}
	if resp.Title != "The Midnight Library" || resp.PageCount != 288 {
		t.Errorf("unexpected book: %+v", resp)
	}
	if resp.CheckedOut {
		t.Errorf("expected a new book to be available")
	}
	if resp.ReleaseDate == nil || resp.ReleaseDate.Format("2006-01-02") != "2020-08-13" {
		t.Errorf("expected release date 2020-08-13, got %v", resp.ReleaseDate)
	}
	if resp.AuthorID == nil || *resp.AuthorID != author.ID {
		t.Errorf("expected authorId %d, got %v", author.ID, resp.AuthorID)
	}
	if resp.Author == nil || resp.Author.LastName != "Haig" {
		t.Errorf("expected author Haig to be embedded, got %+v", resp.Author)
	}

	var stored model.Book
	if err := db.First(&stored, resp.ID).Error; err != nil {
		t.Fatalf("expected book in db, got error: %v", err)
	}
	if stored.AuthorID == nil || *stored.AuthorID != author.ID {
		t.Errorf("expected stored author_id %d, got %v", author.ID, stored.AuthorID)
	}
}

func TestCreateBook_WithoutAuthor(t *testing.T) {
	db := testutil.NewTestDB(t)
	router := setupTestRouter(db)

	w := doRequest(t, router, http.MethodPost, "/books", map[string]any{
		"title":     "Beowulf",
		"pageCount": 0,
	})
	expectStatus(t, w, http.StatusCreated)

	resp := decode[Book](t, w)
	if resp.Author != nil || resp.AuthorID != nil || resp.ReleaseDate != nil {
		t.Errorf("expected no author and no release date, got %+v", resp)
	}
}

func TestCreateBook_InlineAuthorFindOrCreate(t *testing.T) {
	db := testutil.NewTestDB(t)
	router := setupTestRouter(db)
	existing := testutil.SeedAuthor(t, db, "Ursula", "Le Guin")

	w := doRequest(t, router, http.MethodPost, "/books", map[string]any{
		"title":     "The Dispossessed",
		"pageCount": 387,
		"author":    map[string]any{"firstName": "Ursula", "lastName": "Le Guin"},
	})
	expectStatus(t, w, http.StatusCreated)

	resp := decode[Book](t, w)
	if resp.AuthorID == nil || *resp.AuthorID != existing.ID {
		t.Fatalf("expected existing author %d to be reused, got %v", existing.ID, resp.AuthorID)
	}

	w = doRequest(t, router, http.MethodPost, "/books", map[string]any{
		"title":     "Solaris",
		"pageCount": 204,
		"author":    map[string]any{"firstName": "Stanislaw", "lastName": "Lem"},
		// the inline author wins over authorId
		"authorId": existing.ID,
	})
	expectStatus(t, w, http.StatusCreated)

	resp = decode[Book](t, w)
	if resp.Author == nil || resp.Author.LastName != "Lem" {
		t.Fatalf("expected a new author Lem, got %+v", resp.Author)
	}

	var count int64
	db.Model(&model.Author{}).Count(&count)
	if count != 2 {
		t.Errorf("expected 2 authors, got %d", count)
	}
}

func TestCreateBook_UnknownAuthorID(t *testing.T) {
	db := testutil.NewTestDB(t)
	router := setupTestRouter(db)

	w := doRequest(t, router, http.MethodPost, "/books", map[string]any{
		"title":     "Orphan",
		"pageCount": 10,
		"authorId":  999,
	})
	expectError(t, w, http.StatusBadRequest, "AUTHOR_NOT_FOUND", "author does not exist")

	var count int64
	db.Model(&model.Book{}).Count(&count)
	if count != 0 {
		t.Errorf("expected no book to be stored, got %d", count)
	}
}

func TestCreateBook_ValidationError(t *testing.T) {
	db := testutil.NewTestDB(t)
	router := setupTestRouter(db)

	w := doRequest(t, router, http.MethodPost, "/books", map[string]any{
		"title":       "",
		"pageCount":   -3,
		"releaseDate": "someday",
	})
	resp := expectError(t, w, http.StatusBadRequest, "VALIDATION_FAILED", "Invalid payload")

	want := []string{
		"title is required and must be a non-empty string",
		"pageCount is required and must be a non-negative integer",
		"releaseDate must be a valid date string",
	}
	if len(resp.Details) != len(want) {
		t.Fatalf("expected details %v, got %v", want, resp.Details)
	}
	for i := range want {
		if resp.Details[i] != want[i] {
			t.Errorf("detail %d: expected %q, got %q", i, want[i], resp.Details[i])
		}
	}
}

func TestCreateBook_DuplicateTitle_Returns409(t *testing.T) {
	db := testutil.NewTestDB(t)
	router := setupTestRouter(db)
	existing := testutil.SeedBook(t, db, "Dune", 412)

	w := doRequest(t, router, http.MethodPost, "/books", map[string]any{
		"title":     "Dune",
		"pageCount": 500,
	})
	expectStatus(t, w, http.StatusConflict)

	resp := decode[ConflictResponse](t, w)
	if resp.Code != "BOOK_ALREADY_EXISTS" || resp.Error != "Book already exists" {
		t.Errorf("unexpected conflict body: %+v", resp)
	}
	if resp.Book == nil || resp.Book.ID != existing.ID || resp.Book.Title != "Dune" {
		t.Errorf("expected the existing book to be referenced, got %+v", resp.Book)
	}

	var count int64
	db.Model(&model.Book{}).Where("title = ?", "Dune").Count(&count)
	if count != 1 {
		t.Errorf("expected exactly one Dune, got %d", count)
	}
}

func TestCreateBook_ConflictRaisedByStore(t *testing.T) {
	winner := &model.Book{ID: 7, Title: "Dune"}
	calls := 0

	books := &fakeBookRepo{
		FindByTitleFn: func(ctx context.Context, title string) (*model.Book, error) {
			calls++
			if calls == 1 {
				return nil, gorm.ErrRecordNotFound
			}
			return winner, nil
		},
		CreateFn: func(ctx context.Context, b *model.Book) error {
			return repository.ErrDuplicateTitle
		},
	}
	router := setupRouterWithRepos(books, &fakeAuthorRepo{})

	w := doRequest(t, router, http.MethodPost, "/books", map[string]any{
		"title":     "Dune",
		"pageCount": 412,
	})
	expectStatus(t, w, http.StatusConflict)

	resp := decode[ConflictResponse](t, w)
	if resp.Book == nil || resp.Book.ID != 7 {
		t.Errorf("expected the winning row to be referenced, got %+v", resp.Book)
	}
}

func TestCreateBook_InternalError_Returns500(t *testing.T) {
	books := &fakeBookRepo{
		CreateFn: func(ctx context.Context, b *model.Book) error {
			return errors.New("db down")
		},
	}
	router := setupRouterWithRepos(books, &fakeAuthorRepo{})

	w := doRequest(t, router, http.MethodPost, "/books", map[string]any{
		"title":     "Dune",
		"pageCount": 412,
	})
	expectError(t, w, http.StatusInternalServerError, "BOOK_CREATE_FAILED", "failed to create book")
}

func TestCreateBook_FetchCreatedBookError_Returns500(t *testing.T) {
	books := &fakeBookRepo{
		CreateFn: func(ctx context.Context, b *model.Book) error {
			b.ID = 1
			return nil
		},
		FindByIDFn: func(ctx context.Context, id uint, withAuthor bool) (*model.Book, error) {
			return nil, errors.New("db down")
		},
	}
	router := setupRouterWithRepos(books, &fakeAuthorRepo{})

	w := doRequest(t, router, http.MethodPost, "/books", map[string]any{
		"title":     "Dune",
		"pageCount": 412,
	})
	expectError(t, w, http.StatusInternalServerError, "BOOK_FETCH_FAILED", "")
}

func TestListBooks_Pagination(t *testing.T) {
	db := testutil.NewTestDB(t)
	router := setupTestRouter(db)
	testutil.SeedCatalog(t, db)

	w := doRequest(t, router, http.MethodGet, "/books?page=1&limit=5", nil)
	expectStatus(t, w, http.StatusOK)

	resp := decode[ListBooksResponse](t, w)
	if len(resp.Data) != 5 {
		t.Errorf("expected 5 books, got %d", len(resp.Data))
	}
	if resp.Meta.Page != 1 || resp.Meta.Limit != 5 || resp.Meta.Total != 6 || resp.Meta.TotalPages != 2 {
		t.Errorf("unexpected meta: %+v", resp.Meta)
	}
}

func TestListBooks_BadPagingFallsBackToDefaults(t *testing.T) {
	db := testutil.NewTestDB(t)
	router := setupTestRouter(db)
	testutil.SeedCatalog(t, db)

	w := doRequest(t, router, http.MethodGet, "/books?page=abc&limit=-4", nil)
	expectStatus(t, w, http.StatusOK)

	resp := decode[ListBooksResponse](t, w)
	if resp.Meta.Page != 1 || resp.Meta.Limit != 1 {
		t.Errorf("expected page=1 limit=1, got %+v", resp.Meta)
	}
	if len(resp.Data) != 1 {
		t.Errorf("expected a single book, got %d", len(resp.Data))
	}
}

func TestListBooks_SearchAndAuthorFilter(t *testing.T) {
	db := testutil.NewTestDB(t)
	router := setupTestRouter(db)
	testutil.SeedCatalog(t, db)

	w := doRequest(t, router, http.MethodGet, "/books?search=Midnight&author=Alice", nil)
	expectStatus(t, w, http.StatusOK)

	resp := decode[ListBooksResponse](t, w)
	if resp.Meta.Total != 1 || len(resp.Data) != 1 {
		t.Fatalf("expected exactly one match, got meta=%+v", resp.Meta)
	}

	book := resp.Data[0]
	if book.Title != "Midnight Library" {
		t.Errorf("expected Midnight Library, got %q", book.Title)
	}
	if book.Author == nil || book.Author.FirstName != "Alice" {
		t.Errorf("expected author Alice, got %+v", book.Author)
	}

	w = doRequest(t, router, http.MethodGet, "/books?search=Midnight&author=Bob", nil)
	expectStatus(t, w, http.StatusOK)

	resp = decode[ListBooksResponse](t, w)
	if resp.Meta.Total != 0 || len(resp.Data) != 0 {
		t.Errorf("expected no match, got %+v", resp.Data)
	}
}

func TestListBooks_InternalError_Returns500(t *testing.T) {
	books := &fakeBookRepo{
		ListFn: func(ctx context.Context, params repository.BookListParams) (repository.BookListResult, error) {
			return repository.BookListResult{}, errors.New("db down")
		},
	}
	router := setupRouterWithRepos(books, &fakeAuthorRepo{})

	w := doRequest(t, router, http.MethodGet, "/books", nil)
	expectError(t, w, http.StatusInternalServerError, "BOOK_LIST_FAILED", "failed to fetch books")
}

func TestGetBookByID_NotFound(t *testing.T) {
	db := testutil.NewTestDB(t)
	router := setupTestRouter(db)

	for _, path := range []string{"/books/999", "/books/abc"} {
		w := doRequest(t, router, http.MethodGet, path, nil)
		expectError(t, w, http.StatusNotFound, "BOOK_NOT_FOUND", "Book not found")
	}
}

func TestUpdateBook_PartialUpdatePreservesFields(t *testing.T) {
	db := testutil.NewTestDB(t)
	router := setupTestRouter(db)
	alice, _, _ := testutil.SeedCatalog(t, db)

	var book model.Book
	db.Where("title = ?", "Midnight Library").First(&book)

	w := doRequest(t, router, http.MethodPut, pathf("/books/%d", book.ID), map[string]any{
		"pageCount":  300,
		"checkedOut": true,
	})
	expectStatus(t, w, http.StatusOK)

	resp := decode[Book](t, w)
	if resp.PageCount != 300 {
		t.Errorf("expected pageCount 300, got %d", resp.PageCount)
	}
	if resp.Title != "Midnight Library" || resp.ReleaseDate == nil {
		t.Errorf("expected untouched fields to survive, got %+v", resp)
	}
	if resp.AuthorID == nil || *resp.AuthorID != alice.ID {
		t.Errorf("expected author to be kept, got %v", resp.AuthorID)
	}
	if resp.CheckedOut {
		t.Errorf("checkedOut must not change through update")
	}
}

func TestUpdateBook_ClearReleaseDateAndAuthor(t *testing.T) {
	db := testutil.NewTestDB(t)
	router := setupTestRouter(db)
	testutil.SeedCatalog(t, db)

	var book model.Book
	db.Where("title = ?", "Midnight Library").First(&book)

	w := doRequest(t, router, http.MethodPut, pathf("/books/%d", book.ID), map[string]any{
		"releaseDate": nil,
		"authorId":    nil,
	})
	expectStatus(t, w, http.StatusOK)

	resp := decode[Book](t, w)
	if resp.ReleaseDate != nil || resp.AuthorID != nil || resp.Author != nil {
		t.Errorf("expected release date and author to be cleared, got %+v", resp)
	}
}

func TestUpdateBook_InlineAuthor(t *testing.T) {
	db := testutil.NewTestDB(t)
	router := setupTestRouter(db)
	book := testutil.SeedBook(t, db, "Dune", 412)

	w := doRequest(t, router, http.MethodPut, pathf("/books/%d", book.ID), map[string]any{
		"author": map[string]any{"firstName": "Frank", "lastName": "Herbert"},
	})
	expectStatus(t, w, http.StatusOK)

	resp := decode[Book](t, w)
	if resp.Author == nil || resp.Author.FirstName != "Frank" || resp.AuthorID == nil {
		t.Errorf("expected Frank Herbert to be attached, got %+v", resp)
	}
}

func TestUpdateBook_TitleConflict_Returns409(t *testing.T) {
	db := testutil.NewTestDB(t)
	router := setupTestRouter(db)
	dune := testutil.SeedBook(t, db, "Dune", 412)
	emma := testutil.SeedBook(t, db, "Emma", 300)

	w := doRequest(t, router, http.MethodPut, pathf("/books/%d", emma.ID), map[string]any{
		"title": "Dune",
	})
	expectStatus(t, w, http.StatusConflict)

	resp := decode[ConflictResponse](t, w)
	if resp.Book == nil || resp.Book.ID != dune.ID {
		t.Errorf("expected Dune to be referenced, got %+v", resp.Book)
	}

	// keeping its own title is not a conflict
	w = doRequest(t, router, http.MethodPut, pathf("/books/%d", emma.ID), map[string]any{
		"title": "Emma",
	})
	expectStatus(t, w, http.StatusOK)
}

func TestUpdateBook_ValidationError(t *testing.T) {
	db := testutil.NewTestDB(t)
	router := setupTestRouter(db)
	book := testutil.SeedBook(t, db, "Dune", 412)

	w := doRequest(t, router, http.MethodPut, pathf("/books/%d", book.ID), map[string]any{
		"title":  "  ",
		"author": nil,
	})
	resp := expectError(t, w, http.StatusBadRequest, "VALIDATION_FAILED", "Invalid payload")
	if len(resp.Details) != 2 {
		t.Errorf("expected 2 details, got %v", resp.Details)
	}
}

func TestUpdateBook_NotFound(t *testing.T) {
	db := testutil.NewTestDB(t)
	router := setupTestRouter(db)

	w := doRequest(t, router, http.MethodPut, "/books/12", map[string]any{"pageCount": 1})
	expectError(t, w, http.StatusNotFound, "BOOK_NOT_FOUND", "Book not found")
}

func TestUpdateBook_InternalErrorOnSave_Returns500(t *testing.T) {
	books := &fakeBookRepo{
		FindByIDFn: func(ctx context.Context, id uint, withAuthor bool) (*model.Book, error) {
			return &model.Book{ID: id, Title: "Dune", PageCount: 412}, nil
		},
		UpdateFn: func(ctx context.Context, id uint, fields map[string]any) error {
			return errors.New("db down")
		},
	}
	router := setupRouterWithRepos(books, &fakeAuthorRepo{})

	w := doRequest(t, router, http.MethodPut, "/books/1", map[string]any{"pageCount": 1})
	expectError(t, w, http.StatusInternalServerError, "BOOK_UPDATE_FAILED", "")
}

func TestDeleteBook_ThenNotFound(t *testing.T) {
	db := testutil.NewTestDB(t)
	router := setupTestRouter(db)
	book := testutil.SeedBook(t, db, "Dune", 412)

	w := doRequest(t, router, http.MethodDelete, pathf("/books/%d", book.ID), nil)
	expectStatus(t, w, http.StatusNoContent)

	w = doRequest(t, router, http.MethodGet, pathf("/books/%d", book.ID), nil)
	expectError(t, w, http.StatusNotFound, "BOOK_NOT_FOUND", "Book not found")

	w = doRequest(t, router, http.MethodDelete, pathf("/books/%d", book.ID), nil)
	expectError(t, w, http.StatusNotFound, "BOOK_NOT_FOUND", "Book not found")
}

func TestCheckoutAndReturn_RoundTrip(t *testing.T) {
	db := testutil.NewTestDB(t)
	router := setupTestRouter(db)
	book := testutil.SeedBook(t, db, "Dune", 412)

	w := doRequest(t, router, http.MethodPost, pathf("/books/%d/return", book.ID), nil)
	expectError(t, w, http.StatusBadRequest, "BOOK_NOT_CHECKED_OUT", "Book is not checked out")

	w = doRequest(t, router, http.MethodPost, pathf("/books/%d/checkout", book.ID), nil)
	expectStatus(t, w, http.StatusOK)
	if resp := decode[Book](t, w); !resp.CheckedOut {
		t.Errorf("expected the book to be checked out")
	}

	w = doRequest(t, router, http.MethodPost, pathf("/books/%d/checkout", book.ID), nil)
	expectError(t, w, http.StatusBadRequest, "BOOK_ALREADY_CHECKED_OUT", "Book already checked out")

	w = doRequest(t, router, http.MethodPost, pathf("/books/%d/return", book.ID), nil)
	expectStatus(t, w, http.StatusOK)
	if resp := decode[Book](t, w); resp.CheckedOut {
		t.Errorf("expected the book to be available again")
	}
}

func TestCheckout_NotFound(t *testing.T) {
	db := testutil.NewTestDB(t)
	router := setupTestRouter(db)

	w := doRequest(t, router, http.MethodPost, "/books/5/checkout", nil)
	expectError(t, w, http.StatusNotFound, "BOOK_NOT_FOUND", "Book not found")

	w = doRequest(t, router, http.MethodPost, "/books/x/return", nil)
	expectError(t, w, http.StatusNotFound, "BOOK_NOT_FOUND", "Book not found")
}

func TestCheckout_InternalError_Returns500(t *testing.T) {
	books := &fakeBookRepo{
		FindByIDFn: func(ctx context.Context, id uint, withAuthor bool) (*model.Book, error) {
			return &model.Book{ID: id, Title: "Dune"}, nil
		},
		SetCheckedOutFn: func(ctx context.Context, id uint, checkedOut bool) error {
			return errors.New("db down")
		},
	}
	router := setupRouterWithRepos(books, &fakeAuthorRepo{})

	w := doRequest(t, router, http.MethodPost, "/books/1/checkout", nil)
	expectError(t, w, http.StatusInternalServerError, "BOOK_UPDATE_FAILED", "")
}

func TestCatalogScenario_MidnightByAlice(t *testing.T) {
	db := testutil.NewTestDB(t)
	router := setupTestRouter(db)
	alice, _, _ := testutil.SeedCatalog(t, db)

	w := doRequest(t, router, http.MethodGet, "/books?search=Midnight", nil)
	expectStatus(t, w, http.StatusOK)
	books := decode[ListBooksResponse](t, w)
	if len(books.Data) != 1 || books.Data[0].Title != "Midnight Library" {
		t.Fatalf("search=Midnight: unexpected books %+v", books.Data)
	}
	midnightID := books.Data[0].ID

	w = doRequest(t, router, http.MethodGet, "/authors?book=Midnight", nil)
	expectStatus(t, w, http.StatusOK)
	authors := decode[ListAuthorsResponse](t, w)
	if len(authors.Data) != 1 || authors.Data[0].ID != alice.ID {
		t.Fatalf("book=Midnight: expected Alice, got %+v", authors.Data)
	}

	w = doRequest(t, router, http.MethodGet, "/books?author=Alice", nil)
	expectStatus(t, w, http.StatusOK)
	books = decode[ListBooksResponse](t, w)

	found := false
	for _, b := range books.Data {
		if b.ID == midnightID {
			found = true
		}
		if b.AuthorID == nil || *b.AuthorID != alice.ID {
			t.Errorf("author=Alice returned %q by another author", b.Title)
		}
	}
	if !found {
		t.Errorf("author=Alice did not return Midnight Library")
	}
}

func TestCreateBook_ReleaseDateWithOffsetKeepsCalendarDay(t *testing.T) {
	db := testutil.NewTestDB(t)
	router := setupTestRouter(db)

	w := doRequest(t, router, http.MethodPost, "/books", map[string]any{
		"title":       "Late Edition",
		"pageCount":   120,
		"releaseDate": "2020-08-13T23:00:00-05:00",
	})
	expectStatus(t, w, http.StatusCreated)

	resp := decode[Book](t, w)
	if resp.ReleaseDate == nil || resp.ReleaseDate.Format("2006-01-02") != "2020-08-13" {
		t.Errorf("expected release date 2020-08-13, got %v", resp.ReleaseDate)
	}

	var stored model.Book
	if err := db.First(&stored, resp.ID).Error; err != nil {
		t.Fatalf("expected book in db, got error: %v", err)
	}
	want := time.Date(2020, 8, 13, 0, 0, 0, 0, time.UTC)
	if stored.ReleaseDate == nil || !stored.ReleaseDate.Equal(want) {
		t.Errorf("expected stored release date %v, got %v", want, stored.ReleaseDate)
	}
}
