package notification

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/pkg/errs"
	"fulfillment/internal/pkg/guard"
)

var ErrJobIsNotConstructed = errors.New("Job must be created via NewJob or RestoreJob")

const maxErrorLength = 1024

type Job struct {
	id            kernel.UUID
	orderID       *kernel.UUID
	target        string
	payload       []byte
	attempts      int
	status        Status
	nextAttemptAt time.Time
	lastError     string
	createdAt     time.Time
	sentAt        *time.Time
	version       int
	guard         guard.ConstructorGuard
}

// Snapshot carries the persisted state of a Job.
type Snapshot struct {
	ID            kernel.UUID
	OrderID       *kernel.UUID
	Target        string
	Payload       []byte
	Attempts      int
	Status        Status
	NextAttemptAt time.Time
	LastError     string
	CreatedAt     time.Time
	SentAt        *time.Time
	Version       int
}

func NewJob(id kernel.UUID, target string, payload Payload, orderID *kernel.UUID, at time.Time) (*Job, error) {
	if err := id.Validate(); err != nil {
		return nil, err
	}
	if target == "" {
		return nil, errs.NewValueIsRequiredError("target")
	}
	raw, err := payload.Encode()
	if err != nil {
		return nil, err
	}

	return &Job{
		id:            id,
		orderID:       orderID,
		target:        target,
		payload:       raw,
		status:        Pending,
		nextAttemptAt: at,
		createdAt:     at,
		guard:         guard.NewConstructorGuard(),
	}, nil
}

// RestoreJob does not decode the payload; a malformed payload is discovered
// when the dispatcher renders the message.
func RestoreJob(s Snapshot) (*Job, error) {
	if err := errors.Join(s.ID.Validate(), s.Status.Validate()); err != nil {
		return nil, err
	}
	if s.Attempts < 0 {
		return nil, errs.NewValueIsOutOfRangeError("attempts", s.Attempts, 0, "unbounded")
	}

	return &Job{
		id:            s.ID,
		orderID:       s.OrderID,
		target:        s.Target,
		payload:       s.Payload,
		attempts:      s.Attempts,
		status:        s.Status,
		nextAttemptAt: s.NextAttemptAt,
		lastError:     s.LastError,
		createdAt:     s.CreatedAt,
		sentAt:        s.SentAt,
		version:       s.Version,
		guard:         guard.NewConstructorGuard(),
	}, nil
}

func (j *Job) Validate() error {
	if j == nil {
		return ErrJobIsNotConstructed
	}
	return j.guard.Validate(ErrJobIsNotConstructed)
}

func (j *Job) ID() kernel.UUID {
	return j.id
}

func (j *Job) OrderID() *kernel.UUID {
	return j.orderID
}

func (j *Job) Target() string {
	return j.target
}

func (j *Job) Payload() []byte {
	return j.payload
}

func (j *Job) Attempts() int {
	return j.attempts
}

func (j *Job) Status() Status {
	return j.status
}

func (j *Job) NextAttemptAt() time.Time {
	return j.nextAttemptAt
}

func (j *Job) LastError() string {
	return j.lastError
}

func (j *Job) CreatedAt() time.Time {
	return j.createdAt
}

func (j *Job) SentAt() *time.Time {
	return j.sentAt
}

func (j *Job) Version() int {
	return j.version
}

func (j *Job) IsDue(now time.Time) bool {
	return j.status == Pending && !j.nextAttemptAt.After(now)
}

// MarkSaved is called by the repository after a successful conditional write.
func (j *Job) MarkSaved() {
	j.version++
}

// Message decodes and renders the stored payload.
func (j *Job) Message() (string, error) {
	p, err := DecodePayload(j.payload)
	if err != nil {
		return "", err
	}
	return p.Render()
}

func (j *Job) MarkSent(at time.Time) error {
	if j.status != Pending {
		return errs.NewInvalidTransitionError("notification", j.status.String(), "mark sent")
	}
	j.attempts++
	j.status = Sent
	j.sentAt = &at
	j.lastError = ""
	return nil
}

// RecordFailure counts a failed attempt. Malformed payloads fail the job at
// once; any other error schedules a retry at retryAt until maxAttempts is spent.
func (j *Job) RecordFailure(cause error, maxAttempts int, retryAt time.Time) error {
	if j.status != Pending {
		return errs.NewInvalidTransitionError("notification", j.status.String(), "record failure")
	}
	j.attempts++
	j.lastError = sanitizeError(fmt.Sprint(cause), maxErrorLength)

	if errors.Is(cause, errs.ErrMalformedPayload) || j.attempts >= maxAttempts {
		j.status = Failed
		return nil
	}
	j.nextAttemptAt = retryAt
	return nil
}

// Abandon fails a PENDING job without retrying. The dispatcher uses it when
// the outcome of an attempt could not be stored, so the row leaves the queue.
func (j *Job) Abandon(cause error) error {
	if j.status != Pending {
		return errs.NewInvalidTransitionError("notification", j.status.String(), "abandon")
	}
	j.attempts++
	j.status = Failed
	j.lastError = sanitizeError(fmt.Sprint(cause), maxErrorLength)
	return nil
}

// Requeue puts a FAILED job back in the queue with a fresh attempt budget.
func (j *Job) Requeue(at time.Time) error {
	if j.status != Failed {
		return errs.NewInvalidTransitionError("notification", j.status.String(), "requeue")
	}
	j.status = Pending
	j.attempts = 0
	j.nextAttemptAt = at
	return nil
}

func (j *Job) Snapshot() Snapshot {
	return Snapshot{
		ID:            j.id,
		OrderID:       j.orderID,
		Target:        j.target,
		Payload:       j.payload,
		Attempts:      j.attempts,
		Status:        j.status,
		NextAttemptAt: j.nextAttemptAt,
		LastError:     j.lastError,
		CreatedAt:     j.createdAt,
		SentAt:        j.sentAt,
		Version:       j.version,
	}
}

// sanitizeError makes provider output storable in a text column: NUL bytes
// are dropped, invalid UTF-8 is replaced and the cut lands on a rune boundary.
func sanitizeError(s string, n int) string {
	s = strings.ToValidUTF8(strings.ReplaceAll(s, "\x00", ""), "\uFFFD")
	if len(s) <= n {
		return s
	}
	cut := n
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}
