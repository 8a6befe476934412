package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/libreshelf/librarian/internal/database"
)

// HealthController reports process and storage health.
type HealthController struct {
	db      *database.Database
	version string
}

// NewHealthController creates a new health controller.
func NewHealthController(db *database.Database, version string) *HealthController {
	return &HealthController{db: db, version: version}
}

// Status reports whether the database is reachable.
// GET /health
func (hc *HealthController) Status(c *gin.Context) {
	status := "ok"
	dbStatus := "ok"

	if hc.db != nil {
		sqlDB, err := hc.db.DB.DB()
		if err == nil {
			err = sqlDB.Ping()
		}
		if err != nil {
			status = "degraded"
			dbStatus = "unreachable"
		}
	}

	code := http.StatusOK
	if status != "ok" {
		code = http.StatusServiceUnavailable
	}

	c.JSON(code, gin.H{
		"status":   status,
		"database": dbStatus,
		"version":  hc.version,
	})
}
