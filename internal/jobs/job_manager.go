package jobs

import (
	"fmt"
)

type job interface {
	Start() error
	Stop()
}

// JobManager coordinates all scheduled jobs in the application.
// Provides a unified interface to start and stop all background jobs.
type JobManager struct {
	orderAssignmentJob       *OrderAssignmentJob
	notificationDispatchJob  *NotificationDispatchJob
	paymentReconciliationJob *PaymentReconciliationJob
}

func NewJobManager(
	orderAssignmentJob *OrderAssignmentJob,
	notificationDispatchJob *NotificationDispatchJob,
	paymentReconciliationJob *PaymentReconciliationJob,
) *JobManager {
	return &JobManager{
		orderAssignmentJob:       orderAssignmentJob,
		notificationDispatchJob:  notificationDispatchJob,
		paymentReconciliationJob: paymentReconciliationJob,
	}
}

func (jm *JobManager) jobs() []job {
	return []job{jm.orderAssignmentJob, jm.notificationDispatchJob, jm.paymentReconciliationJob}
}

// StartAll starts all scheduled jobs.
// Returns an error if any job fails to start.
func (jm *JobManager) StartAll() error {
	all := jm.jobs()
	for i, j := range all {
		if err := j.Start(); err != nil {
			// Stop already started jobs if this one fails
			for _, started := range all[:i] {
				started.Stop()
			}
			return fmt.Errorf("failed to start job %T: %w", j, err)
		}
	}
	return nil
}

// WakeNotifications runs a notification round now instead of on the next tick.
func (jm *JobManager) WakeNotifications() {
	jm.notificationDispatchJob.Wake()
}

// StopAll stops all scheduled jobs gracefully.
func (jm *JobManager) StopAll() {
	for _, j := range jm.jobs() {
		j.Stop()
	}
}
