package jobs

import (
	"log"
	"time"

	"github.com/citaflow/citabot-backend/internal/booking"
)

// CleanupJob periodically purges booking sessions that were soft-closed
// longer ago than the resume window. The per-message purge inside the
// flow catches users who come back; this sweep catches the ones who
// never do.
type CleanupJob struct {
	flow      *booking.Flow
	interval  time.Duration
	isRunning bool
	stop      chan struct{}
}

// NewCleanupJob creates the session cleanup sweeper.
func NewCleanupJob(flow *booking.Flow, interval time.Duration) *CleanupJob {
	if interval <= 0 {
		interval = 10 * time.Minute
	}
	return &CleanupJob{
		flow:     flow,
		interval: interval,
		stop:     make(chan struct{}),
	}
}

// Start begins the periodic sweep.
func (j *CleanupJob) Start() {
	if j.isRunning {
		log.Println("Cleanup job already running")
		return
	}
	j.isRunning = true
	log.Println("Starting session cleanup job...")

	go func() {
		ticker := time.NewTicker(j.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if purged := j.flow.PurgeExpired(); purged > 0 {
					log.Printf("🧹 Purged %d expired sessions", purged)
				}
			case <-j.stop:
				return
			}
		}
	}()
}

// Stop halts the sweep.
func (j *CleanupJob) Stop() {
	if !j.isRunning {
		return
	}
	j.isRunning = false
	close(j.stop)
	log.Println("Stopping session cleanup job...")
}
