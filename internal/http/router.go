package http

import (
	"github.com/gin-gonic/gin"

	"github.com/libreshelf/librarian/internal/audit"
	"github.com/libreshelf/librarian/internal/auth"
	"github.com/libreshelf/librarian/internal/config"
	"github.com/libreshelf/librarian/internal/database"
	"github.com/libreshelf/librarian/internal/entities"
)

// RouterConfig carries all dependencies of the HTTP layer. Using a config
// struct keeps NewRouter testable and the parameter count sane.
type RouterConfig struct {
	Database *database.Database
	Version  string

	InventoryStore InventoryStore
	LoanWorkflow   LoanWorkflow
	StudentLister  StudentLister
	Auditor        *audit.Service

	AuthService    *auth.Service
	AuthMiddleware *auth.Middleware
	SessionManager *auth.SessionManager
	AuthConfig     config.Auth
	CSRFSecret     []byte
	SecureCookies  bool

	// LibrarianOnly gates issue, return and the all-loans listing behind
	// the LIBRARIAN role.
	LibrarianOnly bool
}

// NewRouter creates and configures the HTTP router with all endpoints.
func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())

	router.Use(auth.SecurityHeadersMiddleware())

	// CSRF must run before session so that session context is preserved.
	if len(cfg.CSRFSecret) > 0 {
		router.Use(auth.CSRFMiddleware(cfg.CSRFSecret, cfg.SecureCookies, cfg.AuthService))
	}

	if cfg.SessionManager != nil {
		router.Use(cfg.SessionManager.SessionLoadSave())
	}

	if cfg.AuthMiddleware != nil {
		router.Use(cfg.AuthMiddleware.Handler())
	} else {
		// No auth - inject default user ID
		router.Use(func(c *gin.Context) {
			c.Set(auth.ContextKeyUserID, auth.DefaultUserID)
			c.Set(auth.ContextKeyAuthType, auth.AuthTypeNone)
			c.Next()
		})
	}

	health := NewHealthController(cfg.Database, cfg.Version)
	booksController := NewBooksController(cfg.InventoryStore)
	loansController := NewLoansController(cfg.LoanWorkflow, cfg.Auditor)

	// Health endpoints
	router.GET("/health", health.Status)
	router.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{"message": "pong"})
	})

	// Auth endpoints
	if cfg.AuthService != nil {
		authController := NewAuthController(cfg.AuthService, cfg.SessionManager, cfg.StudentLister, cfg.Auditor)
		authGroup := router.Group("/api/auth")
		authGroup.POST("/register", authController.Register)
		authGroup.POST("/login", authController.Login)
		authGroup.POST("/logout", authController.Logout)
		authGroup.GET("/students", authController.Students)
	}

	// Inventory endpoints
	booksGroup := router.Group("/api/books")
	booksGroup.GET("", booksController.GetAllBooks)
	booksGroup.GET("/:id", booksController.GetBook)
	booksGroup.POST("/add", booksController.AddBook)
	booksGroup.PUT("/:id", booksController.UpdateBook)
	booksGroup.DELETE("/:id", booksController.DeleteBook)

	// Loan workflow endpoints. The librarian gate is opt-in; by default
	// any authenticated user may issue and return.
	loansGroup := router.Group("/api/issue")
	if cfg.LibrarianOnly && cfg.AuthMiddleware != nil {
		librarian := cfg.AuthMiddleware.RequireRole(entities.UserRoleLibrarian)
		loansGroup.POST("/issue", librarian, loansController.Issue)
		loansGroup.POST("/return/:id", librarian, loansController.Return)
		loansGroup.GET("", librarian, loansController.ListAll)
	} else {
		loansGroup.POST("/issue", loansController.Issue)
		loansGroup.POST("/return/:id", loansController.Return)
		loansGroup.GET("", loansController.ListAll)
	}
	loansGroup.GET("/student/:id", loansController.ListForStudent)

	return router
}
