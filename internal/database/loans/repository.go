// Package loans provides database operations for the loan ledger.
//
// Loans are created by the issue operation and mutated exactly once by
// MarkReturned, whose WHERE clause is keyed on returned = 0 so that only
// one of two concurrent return attempts can win.
package loans

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/libreshelf/librarian/internal/entities"
)

var (
	ErrLoanNotFound = errors.New("loan not found")

	// ErrAlreadyReturned is returned by MarkReturned when the loan exists
	// but its returned flag was already set.
	ErrAlreadyReturned = errors.New("loan already returned")
)

// Repository handles all loan ledger database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new loans repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// CreateLoan records a new loan.
func (r *Repository) CreateLoan(bookID, studentID uint, issueDate, dueDate time.Time) (*entities.Loan, error) {
	loan := &entities.Loan{
		BookID:    bookID,
		StudentID: studentID,
		IssueDate: issueDate,
		DueDate:   dueDate,
		Returned:  false,
	}
	if err := r.db.Create(loan).Error; err != nil {
		return nil, err
	}
	return loan, nil
}

// GetLoanByID retrieves a loan with its book and student resolved.
// Either association may be nil if the referenced record was deleted.
func (r *Repository) GetLoanByID(id uint) (*entities.Loan, error) {
	var loan entities.Loan
	err := r.db.Preload("Book").Preload("Student").First(&loan, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrLoanNotFound
		}
		return nil, err
	}
	return &loan, nil
}

// GetAllLoans returns every loan with book and student resolved, most
// recently issued first.
func (r *Repository) GetAllLoans() ([]entities.Loan, error) {
	loans := []entities.Loan{}
	err := r.db.Preload("Book").Preload("Student").
		Order("issue_date DESC").
		Find(&loans).Error
	return loans, err
}

// GetLoansForStudent returns one student's loans with the book resolved,
// most recently issued first.
func (r *Repository) GetLoansForStudent(studentID uint) ([]entities.Loan, error) {
	loans := []entities.Loan{}
	err := r.db.Preload("Book").
		Where("student_id = ?", studentID).
		Order("issue_date DESC").
		Find(&loans).Error
	return loans, err
}

// GetOverdueLoans returns outstanding loans whose due date has passed.
func (r *Repository) GetOverdueLoans(now time.Time) ([]entities.Loan, error) {
	loans := []entities.Loan{}
	err := r.db.Preload("Book").Preload("Student").
		Where("returned = ? AND due_date < ?", false, now).
		Order("due_date ASC").
		Find(&loans).Error
	return loans, err
}

// CountOutstandingForBook returns the number of unreturned loans for a book.
func (r *Repository) CountOutstandingForBook(bookID uint) (int64, error) {
	var count int64
	err := r.db.Model(&entities.Loan{}).
		Where("book_id = ? AND returned = ?", bookID, false).
		Count(&count).Error
	return count, err
}

// MarkReturned flips the returned flag and stamps the actual return date.
// The update is conditional on returned = 0: when two callers race on the
// same loan, exactly one sees rows affected and the other gets
// ErrAlreadyReturned.
func (r *Repository) MarkReturned(id uint, returnedAt time.Time) error {
	result := r.db.Model(&entities.Loan{}).
		Where("id = ? AND returned = ?", id, false).
		Updates(map[string]any{
			"returned":           true,
			"actual_return_date": returnedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		var count int64
		if err := r.db.Model(&entities.Loan{}).Where("id = ?", id).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return ErrLoanNotFound
		}
		return ErrAlreadyReturned
	}
	return nil
}
