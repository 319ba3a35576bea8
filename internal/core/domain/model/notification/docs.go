// Package notification models the outbound message queue.
//
// A Job is written in the same transaction as the state transition it reports
// and is consumed asynchronously by the dispatcher. Payloads are a tagged JSON
// document; a payload whose kind is not recognized is malformed and fails the
// job without retries. Transport failures are retried until the attempt budget
// is spent, after which the job is FAILED and waits for manual review.
package notification
