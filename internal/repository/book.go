package repository

import (
	"context"

	sq "github.com/Masterminds/squirrel"
	"github.com/pkg/errors"
	"github.com/vishalpmittal/dratavlibrary/internal/model"
	"gorm.io/gorm"
)

type BookListParams struct {
	Limit  int
	Offset int
	// Search matches the title by substring.
	Search string
	// Author keeps books whose author's first or last name contains it.
	Author string
}

type BookListResult struct {
	Books []model.Book
	Total int64
}

type BookRepository interface {
	Create(ctx context.Context, book *model.Book) error
	FindByID(ctx context.Context, id uint, withAuthor bool) (*model.Book, error)
	FindByTitle(ctx context.Context, title string) (*model.Book, error)
	List(ctx context.Context, params BookListParams) (BookListResult, error)
	Update(ctx context.Context, id uint, fields map[string]any) error
	Delete(ctx context.Context, id uint) error
	SetCheckedOut(ctx context.Context, id uint, checkedOut bool) error
}

type GormBookRepository struct {
	db *gorm.DB
}

func NewGormBookRepository(db *gorm.DB) *GormBookRepository {
	return &GormBookRepository{db: db}
}

func (r *GormBookRepository) Create(ctx context.Context, book *model.Book) error {
	err := r.db.WithContext(ctx).Create(book).Error
	if isUniqueViolation(err) {
		return ErrDuplicateTitle
	}
	return errors.Wrap(err, "create book")
}

func (r *GormBookRepository) FindByID(ctx context.Context, id uint, withAuthor bool) (*model.Book, error) {
	var book model.Book
	if err := r.db.WithContext(ctx).First(&book, id).Error; err != nil {
		return nil, err
	}

	if withAuthor {
		books := []model.Book{book}
		if err := r.attachAuthors(ctx, books); err != nil {
			return nil, err
		}
		book = books[0]
	}
	return &book, nil
}

func (r *GormBookRepository) FindByTitle(ctx context.Context, title string) (*model.Book, error) {
	var book model.Book
	if err := r.db.WithContext(ctx).Where("title = ?", title).First(&book).Error; err != nil {
		return nil, err
	}
	return &book, nil
}

func (r *GormBookRepository) List(ctx context.Context, params BookListParams) (BookListResult, error) {
	filter := func(tx *gorm.DB) *gorm.DB {
		if params.Search != "" {
			tx = where(tx, sq.Like{"books.title": contains(params.Search)})
		}
		if params.Author != "" {
			tx = where(tx, exists(sq.Select("1").
				From("authors").
				Where("authors.id = books.author_id").
				Where(sq.Or{
					sq.Like{"authors.first_name": contains(params.Author)},
					sq.Like{"authors.last_name": contains(params.Author)},
				})))
		}
		return tx
	}

	var total int64
	if err := r.db.WithContext(ctx).
		Model(&model.Book{}).
		Scopes(filter).
		Count(&total).Error; err != nil {

		return BookListResult{}, errors.Wrap(err, "count books")
	}

	var books []model.Book
	if err := r.db.WithContext(ctx).
		Scopes(filter).
		Order("books.id ASC").
		Limit(params.Limit).
		Offset(params.Offset).
		Find(&books).Error; err != nil {

		return BookListResult{}, errors.Wrap(err, "list books")
	}

	if err := r.attachAuthors(ctx, books); err != nil {
		return BookListResult{}, err
	}

	return BookListResult{Books: books, Total: total}, nil
}

func (r *GormBookRepository) Update(ctx context.Context, id uint, fields map[string]any) error {
	if len(fields) == 0 {
		return nil
	}

	err := r.db.WithContext(ctx).
		Model(&model.Book{}).
		Where("id = ?", id).
		Updates(fields).Error
	if isUniqueViolation(err) {
		return ErrDuplicateTitle
	}
	return errors.Wrap(err, "update book")
}

func (r *GormBookRepository) Delete(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&model.Book{}, id)
	if result.Error != nil {
		return errors.Wrap(result.Error, "delete book")
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// SetCheckedOut flips the checkout flag with a single conditional update, so
// of two concurrent checkouts only one can win. ErrInvalidTransition means
// the book was already in the requested state or does not exist.
func (r *GormBookRepository) SetCheckedOut(ctx context.Context, id uint, checkedOut bool) error {
	result := r.db.WithContext(ctx).
		Model(&model.Book{}).
		Where("id = ? AND checked_out = ?", id, !checkedOut).
		Update("checked_out", checkedOut)
	if result.Error != nil {
		return errors.Wrap(result.Error, "set checked out")
	}
	if result.RowsAffected == 0 {
		return ErrInvalidTransition
	}
	return nil
}

func (r *GormBookRepository) attachAuthors(ctx context.Context, books []model.Book) error {
	ids := make([]uint, 0, len(books))
	seen := make(map[uint]bool, len(books))
	for _, b := range books {
		if b.AuthorID != nil && !seen[*b.AuthorID] {
			seen[*b.AuthorID] = true
			ids = append(ids, *b.AuthorID)
		}
	}
	if len(ids) == 0 {
		return nil
	}

	var authors []model.Author
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&authors).Error; err != nil {
		return errors.Wrap(err, "load book authors")
	}

	byID := make(map[uint]*model.Author, len(authors))
	for i := range authors {
		byID[authors[i].ID] = &authors[i]
	}

	for i := range books {
		if books[i].AuthorID != nil {
			books[i].Author = byID[*books[i].AuthorID]
		}
	}
	return nil
}
