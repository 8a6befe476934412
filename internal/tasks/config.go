package tasks

import "time"

// Config holds settings for the shared task runner. Retry, backoff and
// retention policy is per queue and lives on the task types (see
// OverdueScanTask.Config and CleanupAuditEventsTask.Config).
type Config struct {
	// Workers is the number of concurrent task workers. Both queues run
	// short, infrequent jobs, so a small pool is plenty. Default: 2
	Workers int

	// ReleaseAfter is when tasks claimed by a crashed worker are released
	// back to their queue. Default: 15m
	ReleaseAfter time.Duration

	// CleanupInterval is how often finished task rows are purged from the
	// tasks database. Default: 1h
	CleanupInterval time.Duration
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Workers:         2,
		ReleaseAfter:    15 * time.Minute,
		CleanupInterval: 1 * time.Hour,
	}
}
