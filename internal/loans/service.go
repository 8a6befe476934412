// Package loans implements the issue/return workflow.
//
// The workflow owns all stock mutation: a book's quantity is decremented
// when a loan is issued and incremented when it is returned, and no other
// component writes the quantity column. The stock check and the decrement
// are a single conditional UPDATE in the inventory store, so concurrent
// issuers of the last copy cannot both succeed; the return path relies on
// a conditional update keyed on the returned flag for the same guarantee.
package loans

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/libreshelf/librarian/internal/database/books"
	"github.com/libreshelf/librarian/internal/database/loans"
	"github.com/libreshelf/librarian/internal/entities"
)

// DefaultLoanPeriod is the interval between issue date and due date when
// no period is configured.
const DefaultLoanPeriod = 7 * 24 * time.Hour

var (
	ErrMissingBookID    = errors.New("book ID is required")
	ErrMissingStudentID = errors.New("student ID is required")
	ErrMissingLoanID    = errors.New("loan ID is required")
	ErrBookNotFound     = errors.New("book not found")
	ErrStudentNotFound  = errors.New("student not found")
	ErrLoanNotFound     = errors.New("issue record not found")
	ErrOutOfStock       = errors.New("book out of stock")
	ErrAlreadyReturned  = errors.New("book already returned")
)

// InventoryStore is the slice of the book repository the workflow needs.
type InventoryStore interface {
	GetBookByID(id uint) (*entities.Book, error)
	DecrementStock(id uint) error
	IncrementStock(id uint) error
}

// LoanLedger is the slice of the loan repository the workflow needs.
type LoanLedger interface {
	CreateLoan(bookID, studentID uint, issueDate, dueDate time.Time) (*entities.Loan, error)
	GetLoanByID(id uint) (*entities.Loan, error)
	GetAllLoans() ([]entities.Loan, error)
	GetLoansForStudent(studentID uint) ([]entities.Loan, error)
	MarkReturned(id uint, returnedAt time.Time) error
}

// StudentDirectory resolves student references for issue requests.
type StudentDirectory interface {
	GetUserByID(id uint) (*entities.User, error)
}

// Service orchestrates loan issue and return operations.
type Service struct {
	inventory InventoryStore
	ledger    LoanLedger
	students  StudentDirectory

	loanPeriod time.Duration
	now        func() time.Time
}

// NewService creates a loan workflow service. A non-positive loanPeriod
// falls back to DefaultLoanPeriod.
func NewService(inventory InventoryStore, ledger LoanLedger, students StudentDirectory, loanPeriod time.Duration) *Service {
	if loanPeriod <= 0 {
		loanPeriod = DefaultLoanPeriod
	}
	return &Service{
		inventory:  inventory,
		ledger:     ledger,
		students:   students,
		loanPeriod: loanPeriod,
		now:        time.Now,
	}
}

// Issue lends one copy of a book to a student.
//
// The stock decrement happens before the loan row is created; if creating
// the loan fails the decrement is compensated, so a storage failure cannot
// leak a copy.
func (s *Service) Issue(bookID, studentID uint) (*entities.Loan, error) {
	if bookID == 0 {
		return nil, ErrMissingBookID
	}
	if studentID == 0 {
		return nil, ErrMissingStudentID
	}

	if s.students != nil {
		if _, err := s.students.GetUserByID(studentID); err != nil {
			return nil, ErrStudentNotFound
		}
	}

	// Atomic check-and-decrement: this is where two racing issuers of the
	// last copy are serialized.
	if err := s.inventory.DecrementStock(bookID); err != nil {
		switch {
		case errors.Is(err, books.ErrBookNotFound):
			return nil, ErrBookNotFound
		case errors.Is(err, books.ErrNoStock):
			return nil, ErrOutOfStock
		default:
			return nil, fmt.Errorf("failed to reserve stock: %w", err)
		}
	}

	issueDate := s.now()
	loan, err := s.ledger.CreateLoan(bookID, studentID, issueDate, issueDate.Add(s.loanPeriod))
	if err != nil {
		// Put the copy back so the failed issue does not eat stock.
		if incErr := s.inventory.IncrementStock(bookID); incErr != nil {
			log.Printf("Failed to restore stock for book %d after loan create failure: %v", bookID, incErr)
		}
		return nil, fmt.Errorf("failed to create loan: %w", err)
	}

	return s.ledger.GetLoanByID(loan.ID)
}

// Return closes a loan and puts the copy back on the shelf.
//
// The returned flag flips exactly once: a second return attempt fails with
// ErrAlreadyReturned instead of being silently accepted, and of two
// concurrent attempts exactly one wins. The stock increment is best-effort:
// if the referenced book was deleted, or the increment itself fails, the
// loan stays closed and the discrepancy is logged.
func (s *Service) Return(loanID uint) (*entities.Loan, error) {
	if loanID == 0 {
		return nil, ErrMissingLoanID
	}

	if err := s.ledger.MarkReturned(loanID, s.now()); err != nil {
		switch {
		case errors.Is(err, loans.ErrLoanNotFound):
			return nil, ErrLoanNotFound
		case errors.Is(err, loans.ErrAlreadyReturned):
			return nil, ErrAlreadyReturned
		default:
			return nil, fmt.Errorf("failed to mark loan returned: %w", err)
		}
	}

	loan, err := s.ledger.GetLoanByID(loanID)
	if err != nil {
		return nil, fmt.Errorf("failed to reload loan: %w", err)
	}

	if err := s.inventory.IncrementStock(loan.BookID); err != nil {
		// The returned flag has already flipped, so a retry would stop at
		// ErrAlreadyReturned and never reach this increment again. Log the
		// discrepancy instead of failing the return; the loan ledger stays
		// authoritative for outstanding copies.
		if errors.Is(err, books.ErrBookNotFound) {
			log.Printf("Book %d referenced by loan %d no longer exists, skipping stock increment", loan.BookID, loanID)
		} else {
			log.Printf("Failed to restore stock for book %d after return of loan %d: %v", loan.BookID, loanID, err)
		}
	}

	return loan, nil
}

// ListAll returns every loan with book and student resolved, most recently
// issued first.
func (s *Service) ListAll() ([]entities.Loan, error) {
	return s.ledger.GetAllLoans()
}

// ListForStudent returns one student's loans with the book resolved, most
// recently issued first.
func (s *Service) ListForStudent(studentID uint) ([]entities.Loan, error) {
	if studentID == 0 {
		return nil, ErrMissingStudentID
	}
	return s.ledger.GetLoansForStudent(studentID)
}
