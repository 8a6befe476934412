package entities

import (
	"time"

	"gorm.io/gorm"
)

type UserRole string

const (
	UserRoleLibrarian UserRole = "LIBRARIAN"
	UserRoleStudent   UserRole = "STUDENT"
)

type User struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Name         string    `gorm:"size:256" json:"name"`
	Username     string    `gorm:"uniqueIndex;size:100" json:"username"`
	Email        string    `gorm:"uniqueIndex;size:255" json:"email"`
	PasswordHash string    `gorm:"size:100" json:"-"`
	Role         UserRole  `gorm:"size:20;default:'STUDENT'" json:"role"`

	// API token, stored as a SHA-256 hash. Hidden from JSON.
	TokenHash      string     `gorm:"index;size:64" json:"-"`
	TokenCreatedAt *time.Time `json:"-"`

	// Login rate limiting
	LastLoginAt      *time.Time `json:"last_login_at,omitempty"`
	FailedLoginCount int        `gorm:"default:0" json:"-"`
	LockedUntil      *time.Time `json:"-"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

// Book is a title in the inventory. Quantity counts the physical copies
// currently on the shelf; it is mutated only by the loan workflow.
type Book struct {
	ID       uint   `gorm:"primaryKey" json:"id"`
	Title    string `gorm:"index;size:512" json:"title"`
	Author   string `gorm:"index;size:256" json:"author"`
	Quantity int    `gorm:"not null;default:0" json:"quantity"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

// Loan records one book copy issued to one student. Returned flips
// false -> true exactly once; loans are never deleted.
//
// Book and Student are weak references: the loan survives deletion of
// either record, so consumers must handle an unresolved association.
type Loan struct {
	ID        uint `gorm:"primaryKey" json:"id"`
	BookID    uint `gorm:"index;not null" json:"book_id"`
	StudentID uint `gorm:"index;not null" json:"student_id"`

	Book    *Book `gorm:"foreignKey:BookID" json:"book,omitempty"`
	Student *User `gorm:"foreignKey:StudentID" json:"student,omitempty"`

	IssueDate        time.Time  `gorm:"index;not null" json:"issue_date"`
	DueDate          time.Time  `gorm:"not null" json:"due_date"`
	Returned         bool       `gorm:"not null;default:false" json:"returned"`
	ActualReturnDate *time.Time `json:"actual_return_date,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (User) TableName() string {
	return "users"
}

func (Book) TableName() string {
	return "books"
}

func (Loan) TableName() string {
	return "loans"
}
