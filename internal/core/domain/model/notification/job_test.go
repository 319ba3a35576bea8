package notification_test

import (
	"errors"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/notification"
	"fulfillment/internal/pkg/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newJob(t *testing.T) *notification.Job {
	t.Helper()
	orderID := kernel.NewUUID()
	job, err := notification.NewJob(kernel.NewUUID(), "+15550100",
		notification.Payload{Kind: notification.KindOrderStatusChanged, OrderID: orderID.String(), Status: "PAID"},
		&orderID, now)
	require.NoError(t, err)
	return job
}

func TestNewJob(t *testing.T) {
	t.Run("starts pending and due", func(t *testing.T) {
		job := newJob(t)

		assert.Equal(t, notification.Pending, job.Status())
		assert.Equal(t, 0, job.Attempts())
		assert.True(t, job.IsDue(now))
		msg, err := job.Message()
		require.NoError(t, err)
		assert.Contains(t, msg, "Payment received")
	})

	t.Run("requires target", func(t *testing.T) {
		_, err := notification.NewJob(kernel.NewUUID(), "",
			notification.Payload{Kind: notification.KindPaymentFailed, OrderID: "O1"}, nil, now)

		require.ErrorIs(t, err, errs.ErrValueIsRequired)
	})

	t.Run("rejects malformed payload", func(t *testing.T) {
		_, err := notification.NewJob(kernel.NewUUID(), "+1",
			notification.Payload{Kind: "unknown"}, nil, now)

		require.ErrorIs(t, err, errs.ErrMalformedPayload)
	})
}

func TestJob_RecordFailure(t *testing.T) {
	t.Run("transport failure schedules retry", func(t *testing.T) {
		job := newJob(t)
		retryAt := now.Add(2 * time.Second)

		require.NoError(t, job.RecordFailure(errs.NewTransportFailureError("+1", errors.New("timeout")), 5, retryAt))

		assert.Equal(t, notification.Pending, job.Status())
		assert.Equal(t, 1, job.Attempts())
		assert.False(t, job.IsDue(now))
		assert.True(t, job.IsDue(retryAt))
		assert.Contains(t, job.LastError(), "timeout")
	})

	t.Run("exhausted attempts fail the job", func(t *testing.T) {
		job := newJob(t)
		cause := errs.NewTransportFailureError("+1", errors.New("503"))

		for range 5 {
			require.NoError(t, job.RecordFailure(cause, 5, now))
		}

		assert.Equal(t, notification.Failed, job.Status())
		assert.Equal(t, 5, job.Attempts())
		require.ErrorIs(t, job.RecordFailure(cause, 5, now), errs.ErrInvalidTransition)
	})

	t.Run("malformed payload fails immediately", func(t *testing.T) {
		job := newJob(t)

		require.NoError(t, job.RecordFailure(errs.NewMalformedPayloadError("bad destination"), 5, now))

		assert.Equal(t, notification.Failed, job.Status())
		assert.Equal(t, 1, job.Attempts())
	})
}

func TestJob_RecordFailure_LastErrorIsStorableText(t *testing.T) {
	tests := []struct {
		name  string
		cause string
		want  string
	}{
		{
			name:  "cut inside a multi-byte rune",
			cause: strings.Repeat("a", 1023) + "é détail",
			want:  strings.Repeat("a", 1023),
		},
		{
			name:  "NUL bytes dropped",
			cause: "provider said\x00 no",
			want:  "provider said no",
		},
		{
			name:  "invalid bytes replaced",
			cause: "bad \xff\xfe body",
			want:  "bad \uFFFD body",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			job := newJob(t)

			require.NoError(t, job.RecordFailure(errors.New(tt.cause), 5, now))

			assert.Equal(t, tt.want, job.LastError())
			assert.True(t, utf8.ValidString(job.LastError()))
			assert.LessOrEqual(t, len(job.LastError()), 1024)
		})
	}
}

func TestJob_Abandon(t *testing.T) {
	job := newJob(t)

	require.NoError(t, job.Abandon(errors.New("record attempt: "+strings.Repeat("ü", 600))))

	assert.Equal(t, notification.Failed, job.Status())
	assert.Equal(t, 1, job.Attempts())
	assert.True(t, utf8.ValidString(job.LastError()))
	assert.LessOrEqual(t, len(job.LastError()), 1024)
	require.ErrorIs(t, job.Abandon(errors.New("again")), errs.ErrInvalidTransition)
}

func TestJob_MarkSent(t *testing.T) {
	job := newJob(t)

	require.NoError(t, job.MarkSent(now))

	assert.Equal(t, notification.Sent, job.Status())
	require.NotNil(t, job.SentAt())
	assert.False(t, job.IsDue(now))
	require.ErrorIs(t, job.MarkSent(now), errs.ErrInvalidTransition)
}

func TestJob_Requeue(t *testing.T) {
	job := newJob(t)
	require.ErrorIs(t, job.Requeue(now), errs.ErrInvalidTransition)

	require.NoError(t, job.RecordFailure(errs.NewMalformedPayloadError("x"), 5, now))
	later := now.Add(time.Hour)
	require.NoError(t, job.Requeue(later))

	assert.Equal(t, notification.Pending, job.Status())
	assert.Equal(t, 0, job.Attempts())
	assert.True(t, job.IsDue(later))
}

func TestRestoreJob(t *testing.T) {
	t.Run("keeps unreadable payload for the dispatcher", func(t *testing.T) {
		job, err := notification.RestoreJob(notification.Snapshot{
			ID:      kernel.NewUUID(),
			Target:  "+1",
			Payload: []byte("{broken"),
			Status:  notification.Pending,
			Version: 3,
		})

		require.NoError(t, err)
		_, err = job.Message()
		require.ErrorIs(t, err, errs.ErrMalformedPayload)
	})

	t.Run("rejects unknown status", func(t *testing.T) {
		_, err := notification.RestoreJob(notification.Snapshot{ID: kernel.NewUUID(), Status: notification.Status(9)})

		require.ErrorIs(t, err, errs.ErrValueIsInvalid)
	})
}
