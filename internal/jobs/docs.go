// Package jobs provides scheduled background tasks for the orchestrator.
//
// This package implements cron-based jobs using github.com/robfig/cron/v3
// for the work that must not run inside request handlers.
//
// # Available Jobs
//
//  1. OrderAssignmentJob - every 5 seconds, offers PAID orders without a driver to the dispatch policy
//  2. NotificationDispatchJob - every second and on Wake, sends due notification jobs
//  3. PaymentReconciliationJob - every 5 minutes, logs payment events that never advanced an order
//
// # Usage
//
//	jobManager := jobs.NewJobManager(assignmentJob, notificationJob, reconciliationJob)
//
//	if err := jobManager.StartAll(); err != nil {
//		log.Fatal("Failed to start jobs:", err)
//	}
//	defer jobManager.StopAll()
//
//	// Postgres LISTEN wake-ups
//	go listener.Run(ctx, jobManager.WakeNotifications)
//
// # Error Handling
//
//   - Assignment treats NoDriverAvailable as an empty round; orders stay PAID
//   - Notification rounds record sent, retried and failed counts; send errors live on the job rows
//   - Failed job starts will stop any already running jobs
package jobs
