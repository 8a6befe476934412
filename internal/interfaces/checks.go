package interfaces

// This file contains compile-time interface implementation checks.
// These ensure that concrete types satisfy their interfaces at compile time,
// catching missing methods before runtime.
//
// To verify all checks pass: go build ./internal/interfaces/...

import (
	dbaudit "github.com/libreshelf/librarian/internal/database/audit"
	"github.com/libreshelf/librarian/internal/database/books"
	dbloans "github.com/libreshelf/librarian/internal/database/loans"
	"github.com/libreshelf/librarian/internal/database/users"
	"github.com/libreshelf/librarian/internal/http"
	"github.com/libreshelf/librarian/internal/loans"
	"github.com/libreshelf/librarian/internal/tasks"
)

// =============================================================================
// HTTP Layer
// =============================================================================

// InventoryStore implementations
var _ http.InventoryStore = (*books.Repository)(nil)

// LoanWorkflow implementations
var _ http.LoanWorkflow = (*loans.Service)(nil)

// StudentLister implementations
var _ http.StudentLister = (*users.Repository)(nil)

// =============================================================================
// Loan Workflow
// =============================================================================

var _ loans.InventoryStore = (*books.Repository)(nil)
var _ loans.LoanLedger = (*dbloans.Repository)(nil)
var _ loans.StudentDirectory = (*users.Repository)(nil)

// =============================================================================
// Background Tasks
// =============================================================================

var _ tasks.OverdueLoanFinder = (*dbloans.Repository)(nil)
var _ tasks.AuditEventCleaner = (*dbaudit.Repository)(nil)
