// Package books provides database operations for the book inventory.
//
// Stock mutation is exposed only through DecrementStock and IncrementStock,
// both of which are single conditional UPDATEs. UpdateBook deliberately
// cannot touch the quantity column, so every stock change flows through the
// loan workflow.
//
// # Usage
//
//	repo := books.NewRepository(db)
//	book, err := repo.GetBookByID(id)
package books

import (
	"errors"

	"gorm.io/gorm"

	"github.com/libreshelf/librarian/internal/entities"
)

var (
	ErrBookNotFound = errors.New("book not found")

	// ErrNoStock is returned by DecrementStock when the book exists but
	// has no copies left on the shelf.
	ErrNoStock = errors.New("no copies in stock")
)

// Repository handles all book inventory database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new books repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// CreateBook adds a new title to the inventory.
func (r *Repository) CreateBook(title, author string, quantity int) (*entities.Book, error) {
	book := &entities.Book{
		Title:    title,
		Author:   author,
		Quantity: quantity,
	}
	if err := r.db.Create(book).Error; err != nil {
		return nil, err
	}
	return book, nil
}

// GetBookByID retrieves a book by ID.
func (r *Repository) GetBookByID(id uint) (*entities.Book, error) {
	var book entities.Book
	err := r.db.First(&book, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBookNotFound
		}
		return nil, err
	}
	return &book, nil
}

// GetAllBooks returns the full inventory.
func (r *Repository) GetAllBooks() ([]entities.Book, error) {
	books := []entities.Book{}
	err := r.db.Order("title ASC").Find(&books).Error
	return books, err
}

// SearchBooks returns books whose title or author matches the query.
func (r *Repository) SearchBooks(query string) ([]entities.Book, error) {
	books := []entities.Book{}
	pattern := "%" + query + "%"
	err := r.db.
		Where("LOWER(title) LIKE LOWER(?) OR LOWER(author) LIKE LOWER(?)", pattern, pattern).
		Order("title ASC").
		Find(&books).Error
	return books, err
}

// UpdateBook updates the metadata of a book. Quantity is not an accepted
// field: stock moves only through DecrementStock/IncrementStock.
func (r *Repository) UpdateBook(id uint, title, author string) (*entities.Book, error) {
	updates := map[string]any{}
	if title != "" {
		updates["title"] = title
	}
	if author != "" {
		updates["author"] = author
	}

	if len(updates) > 0 {
		result := r.db.Model(&entities.Book{}).Where("id = ?", id).Updates(updates)
		if result.Error != nil {
			return nil, result.Error
		}
		if result.RowsAffected == 0 {
			return nil, ErrBookNotFound
		}
	}

	return r.GetBookByID(id)
}

// DeleteBook removes a book from the inventory. Loans referencing the book
// are kept; readers of the ledger handle the dangling reference.
func (r *Repository) DeleteBook(id uint) error {
	result := r.db.Delete(&entities.Book{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrBookNotFound
	}
	return nil
}

// DecrementStock atomically takes one copy off the shelf. The quantity
// check and the decrement are a single conditional UPDATE, so two
// concurrent issuers cannot both consume the last copy.
//
// Returns ErrBookNotFound if the book does not exist and ErrNoStock if it
// exists with quantity <= 0.
func (r *Repository) DecrementStock(id uint) error {
	result := r.db.Model(&entities.Book{}).
		Where("id = ? AND quantity > 0", id).
		Update("quantity", gorm.Expr("quantity - 1"))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		// Distinguish a missing book from an out-of-stock one.
		var count int64
		if err := r.db.Model(&entities.Book{}).Where("id = ?", id).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return ErrBookNotFound
		}
		return ErrNoStock
	}
	return nil
}

// IncrementStock puts one copy back on the shelf.
// Returns ErrBookNotFound if the book no longer exists.
func (r *Repository) IncrementStock(id uint) error {
	result := r.db.Model(&entities.Book{}).
		Where("id = ?", id).
		Update("quantity", gorm.Expr("quantity + 1"))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrBookNotFound
	}
	return nil
}
