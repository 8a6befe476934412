// Package audit records an event trail for loan and authentication
// activity. Events are written asynchronously so the request path never
// blocks on the audit log.
package audit

import (
	"encoding/json"
	"log"

	dbaudit "github.com/libreshelf/librarian/internal/database/audit"
	"github.com/libreshelf/librarian/internal/entities"
)

// Service provides high-level audit logging functionality.
type Service struct {
	repo *dbaudit.Repository
}

// NewService creates a new audit service.
func NewService(repo *dbaudit.Repository) *Service {
	return &Service{repo: repo}
}

// Log records a generic audit event.
func (s *Service) Log(event *entities.AuditEvent) error {
	return s.repo.LogEvent(event)
}

// LogAsync records an audit event in the background (non-blocking).
func (s *Service) LogAsync(event *entities.AuditEvent) {
	go func() {
		if err := s.repo.LogEvent(event); err != nil {
			log.Printf("Failed to log audit event: %v", err)
		}
	}()
}

// LogIssue records a book issue attempt.
func (s *Service) LogIssue(actorID, bookID, studentID uint, loanID *uint, err error) {
	event := &entities.AuditEvent{
		UserID:      actorID,
		EventType:   entities.AuditEventIssue,
		Action:      "book_issue",
		Description: "book issued to student",
		EntityType:  "loan",
		EntityID:    loanID,
		Status:      entities.AuditStatusSuccess,
	}

	metadata := map[string]any{
		"book_id":    bookID,
		"student_id": studentID,
	}
	if mdBytes, e := json.Marshal(metadata); e == nil {
		event.Metadata = string(mdBytes)
	}

	if err != nil {
		event.Status = entities.AuditStatusFailed
		event.Description = "book issue rejected"
		event.ErrorMsg = truncate(err.Error(), 500)
	}

	s.LogAsync(event)
}

// LogReturn records a book return attempt.
func (s *Service) LogReturn(actorID, loanID uint, err error) {
	id := loanID
	event := &entities.AuditEvent{
		UserID:      actorID,
		EventType:   entities.AuditEventReturn,
		Action:      "book_return",
		Description: "book returned",
		EntityType:  "loan",
		EntityID:    &id,
		Status:      entities.AuditStatusSuccess,
	}

	if err != nil {
		event.Status = entities.AuditStatusFailed
		event.Description = "book return rejected"
		event.ErrorMsg = truncate(err.Error(), 500)
	}

	s.LogAsync(event)
}

// LogAuth records an authentication event (login, registration).
func (s *Service) LogAuth(userID uint, action string, err error) {
	event := &entities.AuditEvent{
		UserID:     userID,
		EventType:  entities.AuditEventAuth,
		Action:     action,
		EntityType: "user",
		Status:     entities.AuditStatusSuccess,
	}

	if err != nil {
		event.Status = entities.AuditStatusFailed
		event.ErrorMsg = truncate(err.Error(), 500)
	}

	s.LogAsync(event)
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
