package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	httpin "fulfillment/internal/adapters/in/http"
	"fulfillment/internal/adapters/out/eventbus"
	"fulfillment/internal/adapters/out/kafka"
	"fulfillment/internal/adapters/out/messaging"
	"fulfillment/internal/adapters/out/postgres"
	"fulfillment/internal/adapters/out/ratelimit"
	"fulfillment/internal/core/application/eventhandlers"
	"fulfillment/internal/core/application/usecases/commands"
	"fulfillment/internal/core/application/usecases/queries"
	"fulfillment/internal/core/domain/model/order"
	"fulfillment/internal/core/domain/model/task"
	"fulfillment/internal/core/domain/services"
	"fulfillment/internal/core/ports"
	"fulfillment/internal/jobs"
	"fulfillment/internal/pkg/metrics"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"
)

type CompositionRoot struct {
	config     Config
	gormDB     *gorm.DB
	logger     *slog.Logger
	metrics    *metrics.Metrics
	bus        *eventbus.Bus
	uowFactory *postgres.GormUnitOfWorkFactory
	dispatcher services.OrderDispatcher
	transport  ports.MessagingTransport
	closers    []func() error
}

// NewCompositionRoot wires the event bus, the outbound transports and the
// unit of work factory. Subscribers are attached before anything can publish.
func NewCompositionRoot(config Config, gormDB *gorm.DB, logger *slog.Logger) (*CompositionRoot, error) {
	m := metrics.New()
	bus := eventbus.New(config.EventBusBufferSize, logger, eventbus.WithDropHook(m.RecordDroppedEvent))

	c := &CompositionRoot{
		config:     config,
		gormDB:     gormDB,
		logger:     logger,
		metrics:    m,
		bus:        bus,
		uowFactory: postgres.NewGormUnitOfWorkFactory(gormDB, bus),
		dispatcher: services.NewOrderDispatcher(config.DriverLoadCap),
	}

	transport, err := c.createMessagingTransport()
	if err != nil {
		return nil, err
	}
	c.transport = transport

	if err = c.subscribe(); err != nil {
		_ = c.Close()
		return nil, err
	}
	return c, nil
}

func (c *CompositionRoot) subscribe() error {
	c.bus.SubscribeAll("transition_counter", eventhandlers.NewTransitionCounter(c.metrics).Handle)
	c.bus.Subscribe(order.EventStatusChanged, "order_paid",
		eventhandlers.NewOrderPaidHandler(c.CreateAssignDriverCommandHandler(), c.logger).Handle)
	c.bus.Subscribe(task.EventStatusChanged, "task_failed",
		eventhandlers.NewTaskFailedHandler(c.CreateEscalateOrderConversationsCommandHandler(), c.logger).Handle)

	if c.config.KafkaHost == "" {
		return nil
	}
	producer, err := kafka.NewSyncProducer(c.config.KafkaBrokers())
	if err != nil {
		return err
	}
	publisher := kafka.NewEventPublisher(producer, c.config.KafkaOrderChangedTopic, c.logger)
	c.bus.SubscribeAll("kafka", publisher.Handle)
	c.closers = append(c.closers, publisher.Close)
	return nil
}

// createMessagingTransport falls back to logging messages when no provider
// is configured, so local runs still drain the outbox.
func (c *CompositionRoot) createMessagingTransport() (ports.MessagingTransport, error) {
	var email, phone ports.MessagingTransport

	if c.config.ResendAPIKey != "" {
		t, err := messaging.NewEmailTransport(c.config.ResendAPIKey, c.config.EmailFrom)
		if err != nil {
			return nil, fmt.Errorf("email transport: %w", err)
		}
		email = t
	}
	if c.config.WhatsAppToken != "" {
		t, err := messaging.NewWhatsAppTransport(
			c.config.WhatsAppBaseURL, c.config.WhatsAppPhoneNumberID, c.config.WhatsAppToken, nil)
		if err != nil {
			return nil, fmt.Errorf("whatsapp transport: %w", err)
		}
		phone = t
	}

	if email == nil && phone == nil {
		c.logger.Warn("no messaging provider configured, notifications are only logged")
		return messaging.NewLogTransport(c.logger), nil
	}
	return messaging.NewRouter(email, phone), nil
}

// RunEventBus delivers committed events until ctx is done.
func (c *CompositionRoot) RunEventBus(ctx context.Context) {
	c.bus.Run(ctx)
}

func (c *CompositionRoot) Close() error {
	var errList []error
	for i := len(c.closers) - 1; i >= 0; i-- {
		if err := c.closers[i](); err != nil {
			errList = append(errList, err)
		}
	}
	c.closers = nil
	return errors.Join(errList...)
}

func (c *CompositionRoot) CreateRateLimiter(ctx context.Context) (ports.RateLimiter, error) {
	switch c.config.RateLimitProvider {
	case RateLimitProviderRedis:
		client, err := ratelimit.NewRedisClient(ctx, c.config.RedisURL)
		if err != nil {
			return nil, err
		}
		c.closers = append(c.closers, client.Close)

		limiter, err := ratelimit.NewRedisLimiter(client, c.config.RateLimitInterval)
		if err != nil {
			return nil, err
		}
		return limiter, nil
	default:
		limiter, err := ratelimit.NewMemoryLimiter(c.config.RateLimitInterval, c.config.RateLimitKeysPerShard)
		if err != nil {
			return nil, err
		}
		return limiter, nil
	}
}

func (c *CompositionRoot) CreateRouter(ctx context.Context) (*echo.Echo, error) {
	trustedProxies, err := c.config.TrustedProxyRanges()
	if err != nil {
		return nil, err
	}
	limiter, err := c.CreateRateLimiter(ctx)
	if err != nil {
		return nil, err
	}

	server := httpin.NewServer(c.createHandlers(), httpin.ServerConfig{
		StripeWebhookSecret: c.config.StripeWebhookSecret,
		DriverTokenSecret:   []byte(c.config.DriverJWTSecret),
		DriverTokenTTL:      c.config.DriverTokenTTL,
	}, c.metrics, c.logger)

	return httpin.NewRouter(ctx, server, httpin.RouterConfig{
		AdminToken:        c.config.AdminToken,
		DriverTokenSecret: []byte(c.config.DriverJWTSecret),
		Limiter:           limiter,
		PaymentRateLimit:  c.config.PaymentRateLimit,
		LocationRateLimit: c.config.GPSRateLimit,
		Observer:          c.metrics,
		Logger:            c.logger,
		TrustedProxies:    trustedProxies,
	})
}

func (c *CompositionRoot) createHandlers() httpin.Handlers {
	return httpin.Handlers{
		PlaceOrder:           c.CreatePlaceOrderCommandHandler(),
		ProcessPayment:       c.CreateProcessPaymentCommandHandler(),
		CreateDriver:         c.CreateCreateDriverCommandHandler(),
		ReportLocation:       c.CreateReportLocationCommandHandler(),
		AdvanceTask:          c.CreateAdvanceTaskCommandHandler(),
		CancelOrder:          c.CreateCancelOrderCommandHandler(),
		RefundOrder:          c.CreateRefundOrderCommandHandler(),
		ManualAssign:         c.CreateManualAssignCommandHandler(),
		ReceiveMessage:       c.CreateReceiveMessageCommandHandler(),
		RequestHandoff:       c.CreateRequestHandoffCommandHandler(),
		CloseConversation:    c.CreateCloseConversationCommandHandler(),
		MarkConversationRead: c.CreateMarkConversationReadCommandHandler(),
		RetryNotification:    c.CreateRetryNotificationCommandHandler(),

		GetOrder:                c.CreateGetOrderQueryHandler(),
		ListFailedNotifications: c.CreateListFailedNotificationsQueryHandler(),
		ListUnprocessedPayments: c.CreateListUnprocessedPaymentsQueryHandler(),
	}
}

func (c *CompositionRoot) CreateJobManager() *jobs.JobManager {
	return jobs.NewJobManager(
		jobs.NewOrderAssignmentJob(c.CreateAssignPendingOrdersCommandHandler(), c.config.AssignmentBatchSize, c.logger),
		jobs.NewNotificationDispatchJob(
			c.CreateDispatchNotificationsCommandHandler(), c.metrics, c.config.NotifyBatchSize, c.logger),
		jobs.NewPaymentReconciliationJob(
			c.CreateListUnprocessedPaymentsQueryHandler(), c.config.ReconciliationGrace, c.logger),
	)
}

func (c *CompositionRoot) CreateNotificationListener() (*postgres.NotificationListener, error) {
	return postgres.NewNotificationListener(c.config.DSN(), c.logger)
}

func (c *CompositionRoot) CreatePlaceOrderCommandHandler() commands.PlaceOrderCommandHandler {
	return commands.NewPlaceOrderCommandHandler(c.orderUoWFactory())
}

func (c *CompositionRoot) CreateProcessPaymentCommandHandler() commands.ProcessPaymentCommandHandler {
	var f commands.PaymentUoWFactory = FuncPaymentUoWFactory(func() commands.PaymentUoW {
		return c.uowFactory.Create()
	})
	return commands.NewProcessPaymentCommandHandler(f)
}

func (c *CompositionRoot) CreateCreateDriverCommandHandler() commands.CreateDriverCommandHandler {
	var f commands.DriverUoWFactory = FuncDriverUoWFactory(func() commands.DriverUoW {
		return c.uowFactory.Create()
	})
	return commands.NewCreateDriverCommandHandler(f)
}

func (c *CompositionRoot) CreateAssignDriverCommandHandler() commands.AssignDriverCommandHandler {
	return commands.NewAssignDriverCommandHandler(c.dispatchUoWFactory(), c.dispatcher)
}

func (c *CompositionRoot) CreateAssignPendingOrdersCommandHandler() commands.AssignPendingOrdersCommandHandler {
	return commands.NewAssignPendingOrdersCommandHandler(c.orderUoWFactory(), c.CreateAssignDriverCommandHandler())
}

func (c *CompositionRoot) CreateManualAssignCommandHandler() commands.ManualAssignCommandHandler {
	return commands.NewManualAssignCommandHandler(c.dispatchUoWFactory(), c.dispatcher)
}

func (c *CompositionRoot) CreateReportLocationCommandHandler() commands.ReportLocationCommandHandler {
	return commands.NewReportLocationCommandHandler(c.dispatchUoWFactory())
}

func (c *CompositionRoot) CreateAdvanceTaskCommandHandler() commands.AdvanceTaskCommandHandler {
	return commands.NewAdvanceTaskCommandHandler(c.dispatchUoWFactory())
}

func (c *CompositionRoot) CreateCancelOrderCommandHandler() commands.CancelOrderCommandHandler {
	return commands.NewCancelOrderCommandHandler(c.dispatchUoWFactory())
}

func (c *CompositionRoot) CreateRefundOrderCommandHandler() commands.RefundOrderCommandHandler {
	return commands.NewRefundOrderCommandHandler(c.dispatchUoWFactory())
}

func (c *CompositionRoot) CreateReceiveMessageCommandHandler() commands.ReceiveMessageCommandHandler {
	return commands.NewReceiveMessageCommandHandler(c.conversationUoWFactory())
}

func (c *CompositionRoot) CreateRequestHandoffCommandHandler() commands.RequestHandoffCommandHandler {
	return commands.NewRequestHandoffCommandHandler(c.conversationUoWFactory())
}

func (c *CompositionRoot) CreateCloseConversationCommandHandler() commands.CloseConversationCommandHandler {
	return commands.NewCloseConversationCommandHandler(c.conversationUoWFactory())
}

func (c *CompositionRoot) CreateMarkConversationReadCommandHandler() commands.MarkConversationReadCommandHandler {
	return commands.NewMarkConversationReadCommandHandler(c.conversationUoWFactory())
}

func (c *CompositionRoot) CreateEscalateOrderConversationsCommandHandler() commands.EscalateOrderConversationsCommandHandler {
	return commands.NewEscalateOrderConversationsCommandHandler(c.conversationUoWFactory())
}

func (c *CompositionRoot) CreateDispatchNotificationsCommandHandler() commands.DispatchNotificationsCommandHandler {
	return commands.NewDispatchNotificationsCommandHandler(
		c.notificationUoWFactory(), c.transport, c.config.NotifyMaxAttempts, c.config.NotifySendTimeout)
}

func (c *CompositionRoot) CreateRetryNotificationCommandHandler() commands.RetryNotificationCommandHandler {
	return commands.NewRetryNotificationCommandHandler(c.notificationUoWFactory())
}

func (c *CompositionRoot) CreateGetOrderQueryHandler() queries.GetOrderQueryHandler {
	return queries.NewGetOrderQueryHandler(c.gormDB)
}

func (c *CompositionRoot) CreateListFailedNotificationsQueryHandler() queries.ListFailedNotificationsQueryHandler {
	return queries.NewListFailedNotificationsQueryHandler(c.gormDB)
}

func (c *CompositionRoot) CreateListUnprocessedPaymentsQueryHandler() queries.ListUnprocessedPaymentsQueryHandler {
	return queries.NewListUnprocessedPaymentsQueryHandler(c.gormDB)
}

func (c *CompositionRoot) orderUoWFactory() commands.OrderUoWFactory {
	return FuncOrderUoWFactory(func() commands.OrderUoW {
		return c.uowFactory.Create()
	})
}

func (c *CompositionRoot) dispatchUoWFactory() commands.DispatchUoWFactory {
	return FuncDispatchUoWFactory(func() commands.DispatchUoW {
		return c.uowFactory.Create()
	})
}

func (c *CompositionRoot) conversationUoWFactory() commands.ConversationUoWFactory {
	return FuncConversationUoWFactory(func() commands.ConversationUoW {
		return c.uowFactory.Create()
	})
}

func (c *CompositionRoot) notificationUoWFactory() commands.NotificationUoWFactory {
	return FuncNotificationUoWFactory(func() commands.NotificationUoW {
		return c.uowFactory.Create()
	})
}

type FuncOrderUoWFactory func() commands.OrderUoW

func (f FuncOrderUoWFactory) Create() commands.OrderUoW {
	return f()
}

type FuncDriverUoWFactory func() commands.DriverUoW

func (f FuncDriverUoWFactory) Create() commands.DriverUoW {
	return f()
}

type FuncPaymentUoWFactory func() commands.PaymentUoW

func (f FuncPaymentUoWFactory) Create() commands.PaymentUoW {
	return f()
}

type FuncDispatchUoWFactory func() commands.DispatchUoW

func (f FuncDispatchUoWFactory) Create() commands.DispatchUoW {
	return f()
}

type FuncConversationUoWFactory func() commands.ConversationUoW

func (f FuncConversationUoWFactory) Create() commands.ConversationUoW {
	return f()
}

type FuncNotificationUoWFactory func() commands.NotificationUoW

func (f FuncNotificationUoWFactory) Create() commands.NotificationUoW {
	return f()
}
