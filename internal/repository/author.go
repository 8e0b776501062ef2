package repository

import (
	"context"

	sq "github.com/Masterminds/squirrel"
	"github.com/pkg/errors"
	"github.com/vishalpmittal/dratavlibrary/internal/model"
	"gorm.io/gorm"
)

type AuthorListParams struct {
	Limit  int
	Offset int
	// Search matches first or last name by substring.
	Search string
	// Book keeps authors with at least one book whose title contains it.
	Book string
}

type AuthorListResult struct {
	Authors []model.Author
	Total   int64
}

type AuthorRepository interface {
	Create(ctx context.Context, author *model.Author) error
	FindByID(ctx context.Context, id uint, withBooks bool) (*model.Author, error)
	FindOrCreateByName(ctx context.Context, firstName, lastName string) (*model.Author, error)
	List(ctx context.Context, params AuthorListParams) (AuthorListResult, error)
	Update(ctx context.Context, id uint, fields map[string]any) error
	Delete(ctx context.Context, id uint) error
}

type GormAuthorRepository struct {
	db *gorm.DB
}

func NewGormAuthorRepository(db *gorm.DB) *GormAuthorRepository {
	return &GormAuthorRepository{db: db}
}

func (r *GormAuthorRepository) Create(ctx context.Context, author *model.Author) error {
	return errors.Wrap(r.db.WithContext(ctx).Omit("Books").Create(author).Error, "create author")
}

func (r *GormAuthorRepository) FindByID(ctx context.Context, id uint, withBooks bool) (*model.Author, error) {
	var author model.Author
	if err := r.db.WithContext(ctx).First(&author, id).Error; err != nil {
		return nil, err
	}

	if withBooks {
		authors := []model.Author{author}
		if err := r.attachBooks(ctx, authors, ""); err != nil {
			return nil, err
		}
		author = authors[0]
	}
	return &author, nil
}

// FindOrCreateByName returns the author with exactly this name pair, creating
// one when none exists.
func (r *GormAuthorRepository) FindOrCreateByName(ctx context.Context, firstName, lastName string) (*model.Author, error) {
	var author model.Author
	err := r.db.WithContext(ctx).
		Where("first_name = ? AND last_name = ?", firstName, lastName).
		Order("id ASC").
		First(&author).Error
	if err == nil {
		return &author, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errors.Wrap(err, "find author by name")
	}

	author = model.Author{FirstName: firstName, LastName: lastName}
	if err := r.Create(ctx, &author); err != nil {
		return nil, err
	}
	return &author, nil
}

func (r *GormAuthorRepository) List(ctx context.Context, params AuthorListParams) (AuthorListResult, error) {
	filter := func(tx *gorm.DB) *gorm.DB {
		if params.Search != "" {
			tx = where(tx, sq.Or{
				sq.Like{"authors.first_name": contains(params.Search)},
				sq.Like{"authors.last_name": contains(params.Search)},
			})
		}
		if params.Book != "" {
			// EXISTS keeps one row per author, so the count stays distinct.
			tx = where(tx, exists(sq.Select("1").
				From("books").
				Where("books.author_id = authors.id").
				Where(sq.Like{"books.title": contains(params.Book)})))
		}
		return tx
	}

	var total int64
	if err := r.db.WithContext(ctx).
		Model(&model.Author{}).
		Scopes(filter).
		Count(&total).Error; err != nil {

		return AuthorListResult{}, errors.Wrap(err, "count authors")
	}

	var authors []model.Author
	if err := r.db.WithContext(ctx).
		Scopes(filter).
		Order("authors.id ASC").
		Limit(params.Limit).
		Offset(params.Offset).
		Find(&authors).Error; err != nil {

		return AuthorListResult{}, errors.Wrap(err, "list authors")
	}

	if err := r.attachBooks(ctx, authors, params.Book); err != nil {
		return AuthorListResult{}, err
	}

	return AuthorListResult{Authors: authors, Total: total}, nil
}

func (r *GormAuthorRepository) Update(ctx context.Context, id uint, fields map[string]any) error {
	if len(fields) == 0 {
		return nil
	}

	return errors.Wrap(r.db.WithContext(ctx).
		Model(&model.Author{}).
		Where("id = ?", id).
		Updates(fields).Error, "update author")
}

// Delete removes the author only. Its books stay in place with no author, also
// on engines that do not enforce the foreign key.
func (r *GormAuthorRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Delete(&model.Author{}, id)
		if result.Error != nil {
			return errors.Wrap(result.Error, "delete author")
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}

		if err := tx.Model(&model.Book{}).
			Where("author_id = ?", id).
			Update("author_id", nil).Error; err != nil {

			return errors.Wrap(err, "detach author books")
		}
		return nil
	})
}

// attachBooks loads the books of all given authors in one query. A non-empty
// title limits the attached books to those whose title contains it.
func (r *GormAuthorRepository) attachBooks(ctx context.Context, authors []model.Author, title string) error {
	if len(authors) == 0 {
		return nil
	}

	ids := make([]uint, 0, len(authors))
	for _, a := range authors {
		ids = append(ids, a.ID)
	}

	tx := r.db.WithContext(ctx).Where("author_id IN ?", ids)
	if title != "" {
		tx = where(tx, sq.Like{"title": contains(title)})
	}

	var books []model.Book
	if err := tx.Order("id ASC").Find(&books).Error; err != nil {
		return errors.Wrap(err, "load author books")
	}

	byAuthor := make(map[uint][]model.Book, len(authors))
	for _, b := range books {
		byAuthor[*b.AuthorID] = append(byAuthor[*b.AuthorID], b)
	}

	for i := range authors {
		authors[i].Books = byAuthor[authors[i].ID]
		if authors[i].Books == nil {
			authors[i].Books = []model.Book{}
		}
	}
	return nil
}
