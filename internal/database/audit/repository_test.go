package audit

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/libreshelf/librarian/internal/entities"
)

func setupTestDB(t *testing.T) (*Repository, *gorm.DB, func()) {
	dbPath := "./test_audit_" + t.Name() + ".db"

	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	err = db.AutoMigrate(
		&entities.AuditEvent{},
	)
	require.NoError(t, err)

	repo := NewRepository(db)

	cleanup := func() {
		sqlDB, _ := db.DB()
		sqlDB.Close()
		os.Remove(dbPath)
	}

	return repo, db, cleanup
}

func TestRepository_LogEvent(t *testing.T) {
	repo, _, cleanup := setupTestDB(t)
	defer cleanup()

	event := &entities.AuditEvent{
		UserID:      1,
		EventType:   entities.AuditEventIssue,
		Action:      "book_issue",
		Description: "issued book 3 to student 7",
		EntityType:  "loan",
		Status:      entities.AuditStatusSuccess,
	}
	err := repo.LogEvent(event)

	require.NoError(t, err)
	assert.NotZero(t, event.ID)
}

func TestRepository_GetRecentEvents(t *testing.T) {
	repo, db, cleanup := setupTestDB(t)
	defer cleanup()

	old := &entities.AuditEvent{Action: "old", Status: entities.AuditStatusSuccess}
	require.NoError(t, repo.LogEvent(old))
	// Backdate so the ordering is deterministic.
	require.NoError(t, db.Model(old).Update("created_at", time.Now().Add(-time.Hour)).Error)

	recent := &entities.AuditEvent{Action: "recent", Status: entities.AuditStatusSuccess}
	require.NoError(t, repo.LogEvent(recent))

	events, err := repo.GetRecentEvents(10)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "recent", events[0].Action)
	assert.Equal(t, "old", events[1].Action)
}

func TestRepository_GetEventsForUser(t *testing.T) {
	repo, _, cleanup := setupTestDB(t)
	defer cleanup()

	require.NoError(t, repo.LogEvent(&entities.AuditEvent{UserID: 1, Action: "login"}))
	require.NoError(t, repo.LogEvent(&entities.AuditEvent{UserID: 2, Action: "login"}))

	events, err := repo.GetEventsForUser(1, 10)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, uint(1), events[0].UserID)
}

func TestRepository_DeleteOldEvents(t *testing.T) {
	repo, db, cleanup := setupTestDB(t)
	defer cleanup()

	old := &entities.AuditEvent{Action: "stale"}
	require.NoError(t, repo.LogEvent(old))
	require.NoError(t, db.Model(old).Update("created_at", time.Now().Add(-60*24*time.Hour)).Error)

	require.NoError(t, repo.LogEvent(&entities.AuditEvent{Action: "fresh"}))

	deleted, err := repo.DeleteOldEvents(30 * 24 * time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	events, err := repo.GetRecentEvents(10)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "fresh", events[0].Action)
}
