package http

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/libreshelf/librarian/internal/database"
	"github.com/libreshelf/librarian/internal/database/books"
	"github.com/libreshelf/librarian/internal/entities"
)

func setupBooksTest(t *testing.T) (*books.Repository, *gin.Engine, func()) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dbPath := "./test_books_" + strings.ReplaceAll(t.Name(), "/", "_") + ".db"
	db, err := database.NewDatabase(dbPath)
	require.NoError(t, err)

	repo := books.NewRepository(db.DB)

	controller := NewBooksController(repo)
	router := gin.New()
	router.GET("/api/books", controller.GetAllBooks)
	router.GET("/api/books/:id", controller.GetBook)
	router.POST("/api/books/add", controller.AddBook)
	router.PUT("/api/books/:id", controller.UpdateBook)
	router.DELETE("/api/books/:id", controller.DeleteBook)

	cleanup := func() {
		db.Close()
		os.Remove(dbPath)
	}
	return repo, router, cleanup
}

func TestBooksController_GetAllBooks(t *testing.T) {
	t.Run("returns empty list when no books exist", func(t *testing.T) {
		_, router, cleanup := setupBooksTest(t)
		defer cleanup()

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/api/books", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "[]", strings.TrimSpace(w.Body.String()))
	})

	t.Run("returns existing books", func(t *testing.T) {
		repo, router, cleanup := setupBooksTest(t)
		defer cleanup()

		_, err := repo.CreateBook("Invisible Cities", "Italo Calvino", 2)
		require.NoError(t, err)
		_, err = repo.CreateBook("If on a winter's night a traveler", "Italo Calvino", 1)
		require.NoError(t, err)

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/api/books", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)

		var list []entities.Book
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
		assert.Len(t, list, 2)
	})

	t.Run("filters with a search query", func(t *testing.T) {
		repo, router, cleanup := setupBooksTest(t)
		defer cleanup()

		_, err := repo.CreateBook("Invisible Cities", "Italo Calvino", 2)
		require.NoError(t, err)
		_, err = repo.CreateBook("Foundation", "Isaac Asimov", 1)
		require.NoError(t, err)

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/api/books?q=calvino", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)

		var list []entities.Book
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
		require.Len(t, list, 1)
		assert.Equal(t, "Invisible Cities", list[0].Title)
	})
}

func TestBooksController_GetBook(t *testing.T) {
	t.Run("returns a book by id", func(t *testing.T) {
		repo, router, cleanup := setupBooksTest(t)
		defer cleanup()

		created, err := repo.CreateBook("Invisible Cities", "Italo Calvino", 2)
		require.NoError(t, err)

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", fmt.Sprintf("/api/books/%d", created.ID), nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)

		var book entities.Book
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &book))
		assert.Equal(t, created.ID, book.ID)
	})

	t.Run("returns 404 for a missing book", func(t *testing.T) {
		_, router, cleanup := setupBooksTest(t)
		defer cleanup()

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/api/books/999", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusNotFound, w.Code)

		var resp ErrorResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "Book not found", resp.Message)
	})

	t.Run("returns 400 for a malformed id", func(t *testing.T) {
		_, router, cleanup := setupBooksTest(t)
		defer cleanup()

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/api/books/not-a-number", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestBooksController_AddBook(t *testing.T) {
	t.Run("adds a book", func(t *testing.T) {
		repo, router, cleanup := setupBooksTest(t)
		defer cleanup()

		body := bytes.NewBufferString(`{"title": "Invisible Cities", "author": "Italo Calvino", "quantity": 3}`)
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("POST", "/api/books/add", body)
		req.Header.Set("Content-Type", "application/json")
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)

		list, err := repo.GetAllBooks()
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Equal(t, 3, list[0].Quantity)
	})

	t.Run("accepts a quantity of zero", func(t *testing.T) {
		_, router, cleanup := setupBooksTest(t)
		defer cleanup()

		body := bytes.NewBufferString(`{"title": "Invisible Cities", "author": "Italo Calvino", "quantity": 0}`)
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("POST", "/api/books/add", body)
		req.Header.Set("Content-Type", "application/json")
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("rejects missing fields", func(t *testing.T) {
		_, router, cleanup := setupBooksTest(t)
		defer cleanup()

		body := bytes.NewBufferString(`{"title": "Invisible Cities"}`)
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("POST", "/api/books/add", body)
		req.Header.Set("Content-Type", "application/json")
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)

		var resp ErrorResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "All fields are required", resp.Message)
	})

	t.Run("rejects a negative quantity", func(t *testing.T) {
		_, router, cleanup := setupBooksTest(t)
		defer cleanup()

		body := bytes.NewBufferString(`{"title": "Invisible Cities", "author": "Italo Calvino", "quantity": -1}`)
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("POST", "/api/books/add", body)
		req.Header.Set("Content-Type", "application/json")
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestBooksController_UpdateBook(t *testing.T) {
	t.Run("updates metadata without touching quantity", func(t *testing.T) {
		repo, router, cleanup := setupBooksTest(t)
		defer cleanup()

		created, err := repo.CreateBook("Invisible Citis", "Italo Calvino", 4)
		require.NoError(t, err)

		body := bytes.NewBufferString(`{"title": "Invisible Cities", "quantity": 99}`)
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("PUT", fmt.Sprintf("/api/books/%d", created.ID), body)
		req.Header.Set("Content-Type", "application/json")
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)

		got, err := repo.GetBookByID(created.ID)
		require.NoError(t, err)
		assert.Equal(t, "Invisible Cities", got.Title)

		// The stray quantity field in the payload must be ignored.
		assert.Equal(t, 4, got.Quantity)
	})

	t.Run("returns 404 for a missing book", func(t *testing.T) {
		_, router, cleanup := setupBooksTest(t)
		defer cleanup()

		body := bytes.NewBufferString(`{"title": "Ghost"}`)
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("PUT", "/api/books/999", body)
		req.Header.Set("Content-Type", "application/json")
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestBooksController_DeleteBook(t *testing.T) {
	t.Run("deletes a book", func(t *testing.T) {
		repo, router, cleanup := setupBooksTest(t)
		defer cleanup()

		created, err := repo.CreateBook("Ephemeral", "Nobody", 1)
		require.NoError(t, err)

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("DELETE", fmt.Sprintf("/api/books/%d", created.ID), nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)

		_, err = repo.GetBookByID(created.ID)
		assert.ErrorIs(t, err, books.ErrBookNotFound)
	})

	t.Run("returns 404 for a missing book", func(t *testing.T) {
		_, router, cleanup := setupBooksTest(t)
		defer cleanup()

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("DELETE", "/api/books/999", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}
