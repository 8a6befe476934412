package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/libreshelf/librarian/internal/audit"
	"github.com/libreshelf/librarian/internal/auth"
	"github.com/libreshelf/librarian/internal/entities"
)

// StudentLister defines the user directory operations the auth endpoints need.
type StudentLister interface {
	ListStudents() ([]entities.User, error)
}

// AuthController exposes registration, login and the student directory.
type AuthController struct {
	service  *auth.Service
	sessions *auth.SessionManager
	students StudentLister
	auditor  *audit.Service
}

// NewAuthController creates a new auth controller. The session manager and
// auditor may be nil.
func NewAuthController(service *auth.Service, sessions *auth.SessionManager, students StudentLister, auditor *audit.Service) *AuthController {
	return &AuthController{
		service:  service,
		sessions: sessions,
		students: students,
		auditor:  auditor,
	}
}

type registerRequest struct {
	Name     string            `json:"name"`
	Username string            `json:"username"`
	Email    string            `json:"email"`
	Password string            `json:"password"`
	Role     entities.UserRole `json:"role"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Register creates a new user account. The role defaults to STUDENT.
// POST /api/auth/register
func (ac *AuthController) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}

	user, err := ac.service.Register(req.Name, req.Username, req.Email, req.Password, req.Role)
	if ac.auditor != nil {
		var userID uint
		if user != nil {
			userID = user.ID
		}
		ac.auditor.LogAuth(userID, "register", err)
	}
	if err != nil {
		// Registration failures are all client errors here: duplicate
		// user, bad email, weak password.
		respondBadRequest(c, err.Error())
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "User registered successfully"})
}

// Login validates credentials and returns a bearer token plus the user.
// Browser clients also get a session cookie.
// POST /api/auth/login
func (ac *AuthController) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}

	user, err := ac.service.Authenticate(req.Username, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrAccountLocked) {
			if ac.auditor != nil {
				ac.auditor.LogAuth(0, "login", err)
			}
			respondBadRequest(c, "account is temporarily locked")
			return
		}
		// Do not reveal whether the username or the password was wrong.
		if ac.auditor != nil {
			ac.auditor.LogAuth(0, "login", err)
		}
		respondBadRequest(c, "Invalid username or password")
		return
	}

	token, err := ac.service.GenerateToken(user.ID)
	if err != nil {
		respondInternalError(c, err, "generate token")
		return
	}

	if ac.sessions != nil {
		if err := ac.sessions.CreateSession(c.Request, user); err != nil {
			respondInternalError(c, err, "create session")
			return
		}
	}

	if ac.auditor != nil {
		ac.auditor.LogAuth(user.ID, "login", nil)
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Login successful",
		"token":   token,
		"user":    user,
	})
}

// Logout revokes the caller's bearer token and destroys the session.
// POST /api/auth/logout
func (ac *AuthController) Logout(c *gin.Context) {
	userID := GetUserID(c)
	if userID != 0 {
		if err := ac.service.RevokeToken(userID); err != nil {
			respondInternalError(c, err, "revoke token")
			return
		}
	}
	if ac.sessions != nil {
		_ = ac.sessions.DestroySession(c.Request)
	}

	c.JSON(http.StatusOK, gin.H{"message": "Logged out"})
}

// Students lists all users with the STUDENT role, passwords omitted.
// GET /api/auth/students
func (ac *AuthController) Students(c *gin.Context) {
	students, err := ac.students.ListStudents()
	if err != nil {
		respondInternalError(c, err, "list students")
		return
	}

	c.JSON(http.StatusOK, students)
}
