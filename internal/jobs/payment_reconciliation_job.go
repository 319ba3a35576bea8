package jobs

import (
	"context"
	"log/slog"
	"time"

	"fulfillment/internal/core/application/usecases/queries"

	"github.com/robfig/cron/v3"
)

const (
	DefaultReconciliationGrace = 10 * time.Minute
	reconciliationBatchSize    = 500
)

type UnprocessedPaymentsLister interface {
	Handle(ctx context.Context, q queries.ListUnprocessedPaymentsQuery) ([]queries.UnprocessedPayment, error)
}

// PaymentReconciliationJob reports ledger entries that never advanced an
// order, such as callbacks for unknown orders or amount mismatches, so an
// operator can compare them with the provider. It changes nothing.
type PaymentReconciliationJob struct {
	lister UnprocessedPaymentsLister
	grace  time.Duration
	cron   *cron.Cron
	logger *slog.Logger
	now    func() time.Time
}

func NewPaymentReconciliationJob(
	lister UnprocessedPaymentsLister, grace time.Duration, logger *slog.Logger,
) *PaymentReconciliationJob {
	if grace <= 0 {
		grace = DefaultReconciliationGrace
	}
	return &PaymentReconciliationJob{
		lister: lister,
		grace:  grace,
		cron:   cron.New(cron.WithSeconds()),
		logger: logger.With("component", "payment_reconciliation_job"),
		now:    time.Now,
	}
}

func (j *PaymentReconciliationJob) Start() error {
	if _, err := j.cron.AddFunc("0 */5 * * * *", func() { j.run(context.Background()) }); err != nil {
		return err
	}

	j.cron.Start()
	j.logger.InfoContext(context.Background(), "Payment reconciliation job started (running every 5 minutes)")
	return nil
}

func (j *PaymentReconciliationJob) run(ctx context.Context) int {
	q, err := queries.NewListUnprocessedPaymentsQuery(j.now().UTC().Add(-j.grace), reconciliationBatchSize)
	if err != nil {
		j.logger.ErrorContext(ctx, "Payment reconciliation job misconfigured", "error", err)
		return 0
	}

	payments, err := j.lister.Handle(ctx, q)
	if err != nil {
		j.logger.ErrorContext(ctx, "Payment reconciliation job failed", "error", err)
		return 0
	}

	for _, p := range payments {
		j.logger.WarnContext(ctx, "Unreconciled payment event",
			"provider", p.Provider,
			"provider_ref", p.ProviderRef,
			"order_ref", p.OrderRef,
			"amount", p.Amount,
			"status", p.Status,
			"rejection", p.Rejection,
			"received_at", p.ReceivedAt)
	}
	return len(payments)
}

func (j *PaymentReconciliationJob) Stop() {
	<-j.cron.Stop().Done()
	j.logger.InfoContext(context.Background(), "Payment reconciliation job stopped")
}
