package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/libreshelf/librarian/internal/audit"
	"github.com/libreshelf/librarian/internal/entities"
	"github.com/libreshelf/librarian/internal/loans"
)

// LoanWorkflow defines the operations the loan endpoints delegate to.
type LoanWorkflow interface {
	Issue(bookID, studentID uint) (*entities.Loan, error)
	Return(loanID uint) (*entities.Loan, error)
	ListAll() ([]entities.Loan, error)
	ListForStudent(studentID uint) ([]entities.Loan, error)
}

// LoansController exposes the issue/return workflow.
type LoansController struct {
	workflow LoanWorkflow
	auditor  *audit.Service
}

// NewLoansController creates a new loans controller. The auditor may be nil.
func NewLoansController(workflow LoanWorkflow, auditor *audit.Service) *LoansController {
	return &LoansController{workflow: workflow, auditor: auditor}
}

type issueRequest struct {
	BookID    uint `json:"bookId"`
	StudentID uint `json:"studentId"`
}

// Issue lends one copy of a book to a student.
// POST /api/issue/issue
func (lc *LoansController) Issue(c *gin.Context) {
	var req issueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}

	loan, err := lc.workflow.Issue(req.BookID, req.StudentID)
	if lc.auditor != nil {
		var loanID *uint
		if loan != nil {
			loanID = &loan.ID
		}
		lc.auditor.LogIssue(GetUserID(c), req.BookID, req.StudentID, loanID, err)
	}
	if err != nil {
		switch {
		case errors.Is(err, loans.ErrMissingBookID), errors.Is(err, loans.ErrMissingStudentID):
			respondBadRequest(c, "Book ID and Student ID are required")
		case errors.Is(err, loans.ErrBookNotFound):
			respondNotFound(c, "Book not found")
		case errors.Is(err, loans.ErrStudentNotFound):
			respondNotFound(c, "Student not found")
		case errors.Is(err, loans.ErrOutOfStock):
			respondBadRequest(c, "Book out of stock")
		default:
			respondInternalError(c, err, "issue book")
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Book issued successfully", "issue": loan})
}

// Return closes a loan and restores stock.
// POST /api/issue/return/:id
func (lc *LoansController) Return(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	loan, err := lc.workflow.Return(id)
	if lc.auditor != nil {
		lc.auditor.LogReturn(GetUserID(c), id, err)
	}
	if err != nil {
		switch {
		case errors.Is(err, loans.ErrLoanNotFound):
			respondNotFound(c, "Issue record not found")
		case errors.Is(err, loans.ErrAlreadyReturned):
			respondBadRequest(c, "Book already returned")
		default:
			respondInternalError(c, err, "return book")
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Book returned successfully", "issue": loan})
}

// ListAll returns every loan with book and student resolved, most recently
// issued first.
// GET /api/issue
func (lc *LoansController) ListAll(c *gin.Context) {
	list, err := lc.workflow.ListAll()
	if err != nil {
		respondInternalError(c, err, "list loans")
		return
	}

	c.JSON(http.StatusOK, list)
}

// ListForStudent returns one student's loans, most recently issued first.
// GET /api/issue/student/:id
func (lc *LoansController) ListForStudent(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	list, err := lc.workflow.ListForStudent(id)
	if err != nil {
		respondInternalError(c, err, "list student loans")
		return
	}

	c.JSON(http.StatusOK, list)
}
