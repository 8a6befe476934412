package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/libreshelf/librarian/internal/database/books"
	"github.com/libreshelf/librarian/internal/entities"
)

// InventoryStore defines the inventory operations the book endpoints need.
// Quantity is writable only at creation; the edit path takes metadata
// fields exclusively so stock stays consistent with the loan ledger.
type InventoryStore interface {
	CreateBook(title, author string, quantity int) (*entities.Book, error)
	GetBookByID(id uint) (*entities.Book, error)
	GetAllBooks() ([]entities.Book, error)
	SearchBooks(query string) ([]entities.Book, error)
	UpdateBook(id uint, title, author string) (*entities.Book, error)
	DeleteBook(id uint) error
}

// BooksController exposes inventory CRUD.
type BooksController struct {
	store InventoryStore
}

// NewBooksController creates a new books controller.
func NewBooksController(store InventoryStore) *BooksController {
	return &BooksController{store: store}
}

type addBookRequest struct {
	Title    string `json:"title"`
	Author   string `json:"author"`
	Quantity *int   `json:"quantity"`
}

type updateBookRequest struct {
	Title  string `json:"title"`
	Author string `json:"author"`
}

// GetAllBooks returns the full inventory, optionally filtered by a search
// query.
// GET /api/books
func (bc *BooksController) GetAllBooks(c *gin.Context) {
	var (
		list []entities.Book
		err  error
	)
	if query := c.Query("q"); query != "" {
		list, err = bc.store.SearchBooks(query)
	} else {
		list, err = bc.store.GetAllBooks()
	}
	if err != nil {
		respondInternalError(c, err, "list books")
		return
	}

	c.JSON(http.StatusOK, list)
}

// GetBook returns a single book.
// GET /api/books/:id
func (bc *BooksController) GetBook(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	book, err := bc.store.GetBookByID(id)
	if err != nil {
		if errors.Is(err, books.ErrBookNotFound) {
			respondNotFound(c, "Book not found")
			return
		}
		respondInternalError(c, err, "get book")
		return
	}

	c.JSON(http.StatusOK, book)
}

// AddBook adds a new title to the inventory.
// POST /api/books/add
func (bc *BooksController) AddBook(c *gin.Context) {
	var req addBookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}

	if req.Title == "" || req.Author == "" || req.Quantity == nil {
		respondBadRequest(c, "All fields are required")
		return
	}
	if *req.Quantity < 0 {
		respondBadRequest(c, "quantity must be non-negative")
		return
	}

	if _, err := bc.store.CreateBook(req.Title, req.Author, *req.Quantity); err != nil {
		respondInternalError(c, err, "add book")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Book added successfully"})
}

// UpdateBook edits a book's metadata. Quantity is not editable here: stock
// moves only through the issue/return workflow.
// PUT /api/books/:id
func (bc *BooksController) UpdateBook(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req updateBookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}

	book, err := bc.store.UpdateBook(id, req.Title, req.Author)
	if err != nil {
		if errors.Is(err, books.ErrBookNotFound) {
			respondNotFound(c, "Book not found")
			return
		}
		respondInternalError(c, err, "update book")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Book updated successfully", "book": book})
}

// DeleteBook removes a book from the inventory. Loans referencing it are
// kept and resolve to an absent book.
// DELETE /api/books/:id
func (bc *BooksController) DeleteBook(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := bc.store.DeleteBook(id); err != nil {
		if errors.Is(err, books.ErrBookNotFound) {
			respondNotFound(c, "Book not found")
			return
		}
		respondInternalError(c, err, "delete book")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Book deleted successfully"})
}
