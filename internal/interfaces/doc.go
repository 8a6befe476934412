// Package interfaces documents the core abstractions used throughout the application.
//
// # Interface Categories
//
// The application uses several categories of interfaces:
//
// ## HTTP Layer Interfaces
//
//   - InventoryStore: Book catalog access for the books controller (internal/http/books.go)
//   - LoanWorkflow: Issue/return orchestration for the loans controller (internal/http/loans.go)
//   - StudentLister: Student directory listing for the auth controller (internal/http/auth.go)
//
// ## Loan Workflow Interfaces
//
// The workflow in internal/loans depends on narrow slices of the
// repositories rather than on the repositories themselves:
//
//   - InventoryStore: Stock lookup and atomic stock mutation (internal/loans/service.go)
//   - LoanLedger: Loan creation, lookup and the returned-flag flip (internal/loans/service.go)
//   - StudentDirectory: Student reference resolution (internal/loans/service.go)
//
// ## Background Task Interfaces
//
//   - OverdueLoanFinder: Lists loans past their due date (internal/tasks/overdue_scan.go)
//   - AuditEventCleaner: Deletes audit events past retention (internal/tasks/cleanup_audit.go)
//
// # Adding a New Database Domain
//
// To add a new data domain (e.g., reservations):
//
//  1. Create sub-package: internal/database/reservations/
//
//  2. Define repository:
//
//     type Repository struct { db *gorm.DB }
//
//     func NewRepository(db *gorm.DB) *Repository
//
//  3. Implement interface methods
//
//  4. Add compile-time check:
//
//     var _ ReservationStore = (*Repository)(nil)
//
// # Compile-Time Interface Checks
//
// All implementations should include compile-time checks to ensure they satisfy
// their interfaces. This catches missing methods at compile time rather than runtime:
//
//	var _ SomeInterface = (*MyImplementation)(nil)
//
// This pattern is used throughout the codebase. See checks.go for examples.
package interfaces
