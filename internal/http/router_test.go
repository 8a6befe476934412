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
	"golang.org/x/crypto/bcrypt"

	"github.com/libreshelf/librarian/internal/auth"
	"github.com/libreshelf/librarian/internal/config"
	"github.com/libreshelf/librarian/internal/database"
	"github.com/libreshelf/librarian/internal/database/books"
	dbloans "github.com/libreshelf/librarian/internal/database/loans"
	"github.com/libreshelf/librarian/internal/database/users"
	"github.com/libreshelf/librarian/internal/entities"
	"github.com/libreshelf/librarian/internal/loans"
)

type routerTestEnv struct {
	router *gin.Engine
	books  *books.Repository
	users  *users.Repository
}

func setupRouterTest(t *testing.T, librarianOnly bool) (*routerTestEnv, func()) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dbPath := "./test_router_" + strings.ReplaceAll(t.Name(), "/", "_") + ".db"
	db, err := database.NewDatabase(dbPath)
	require.NoError(t, err)

	authCfg := config.Auth{
		Mode:       config.AuthModeLocal,
		BcryptCost: bcrypt.MinCost,
	}

	bookRepo := books.NewRepository(db.DB)
	userRepo := users.NewRepository(db.DB)
	authService := auth.NewService(userRepo, authCfg)

	env := &routerTestEnv{
		books: bookRepo,
		users: userRepo,
	}
	env.router = NewRouter(RouterConfig{
		Database:       db,
		Version:        "test",
		InventoryStore: bookRepo,
		LoanWorkflow:   loans.NewService(bookRepo, dbloans.NewRepository(db.DB), userRepo, 0),
		StudentLister:  userRepo,
		AuthService:    authService,
		AuthMiddleware: auth.NewMiddleware(authService, nil, authCfg),
		AuthConfig:     authCfg,
		LibrarianOnly:  librarianOnly,
	})

	cleanup := func() {
		db.Close()
		os.Remove(dbPath)
	}
	return env, cleanup
}

// registerAndLogin creates an account through the public endpoints and
// returns its bearer token and user ID.
func (e *routerTestEnv) registerAndLogin(t *testing.T, username string, role entities.UserRole) (string, uint) {
	t.Helper()

	payload := fmt.Sprintf(
		`{"name": "%s", "username": "%s", "email": "%s@example.org", "password": "password123", "role": "%s"}`,
		username, username, username, role)
	w := postJSON(e.router, "/api/auth/register", payload)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = postJSON(e.router, "/api/auth/login",
		fmt.Sprintf(`{"username": "%s", "password": "password123"}`, username))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		Token string        `json:"token"`
		User  entities.User `json:"user"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Token)
	return resp.Token, resp.User.ID
}

func (e *routerTestEnv) issueAs(token string, bookID, studentID uint) *httptest.ResponseRecorder {
	body := bytes.NewBufferString(fmt.Sprintf(`{"bookId": %d, "studentId": %d}`, bookID, studentID))
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/api/issue/issue", body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	e.router.ServeHTTP(w, req)
	return w
}

func TestRouter_RequiresAuthentication(t *testing.T) {
	env, cleanup := setupRouterTest(t, false)
	defer cleanup()

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/api/books", nil)
	env.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "access denied, no token provided", resp.Message)
}

func TestRouter_PublicEndpoints(t *testing.T) {
	env, cleanup := setupRouterTest(t, false)
	defer cleanup()

	for _, path := range []string{"/health", "/ping"} {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", path, nil)
		env.router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code, path)
	}
}

func TestRouter_BearerTokenGrantsAccess(t *testing.T) {
	env, cleanup := setupRouterTest(t, false)
	defer cleanup()

	token, _ := env.registerAndLogin(t, "ada", entities.UserRoleStudent)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/api/books", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	env.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRouter_LoanEndpointsOpenByDefault(t *testing.T) {
	env, cleanup := setupRouterTest(t, false)
	defer cleanup()

	book, err := env.books.CreateBook("Invisible Cities", "Italo Calvino", 1)
	require.NoError(t, err)

	// A student can issue when the librarian gate is off.
	token, studentID := env.registerAndLogin(t, "ada", entities.UserRoleStudent)

	w := env.issueAs(token, book.ID, studentID)
	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())
}

func TestRouter_LibrarianOnlyGate(t *testing.T) {
	env, cleanup := setupRouterTest(t, true)
	defer cleanup()

	book, err := env.books.CreateBook("Invisible Cities", "Italo Calvino", 2)
	require.NoError(t, err)

	studentToken, studentID := env.registerAndLogin(t, "ada", entities.UserRoleStudent)
	librarianToken, _ := env.registerAndLogin(t, "marian", entities.UserRoleLibrarian)

	t.Run("students cannot issue", func(t *testing.T) {
		w := env.issueAs(studentToken, book.ID, studentID)

		assert.Equal(t, http.StatusForbidden, w.Code)

		var resp ErrorResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "insufficient permissions", resp.Message)
	})

	t.Run("librarians can issue", func(t *testing.T) {
		w := env.issueAs(librarianToken, book.ID, studentID)
		assert.Equal(t, http.StatusOK, w.Code, w.Body.String())
	})

	t.Run("students can still list their own loans", func(t *testing.T) {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", fmt.Sprintf("/api/issue/student/%d", studentID), nil)
		req.Header.Set("Authorization", "Bearer "+studentToken)
		env.router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("students cannot list all loans", func(t *testing.T) {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/api/issue", nil)
		req.Header.Set("Authorization", "Bearer "+studentToken)
		env.router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusForbidden, w.Code)
	})
}
