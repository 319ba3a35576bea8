package http

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"fulfillment/internal/core/application/usecases/commands"
	"fulfillment/internal/core/application/usecases/queries"
	"fulfillment/internal/core/domain/model/conversation"
	"fulfillment/internal/core/domain/model/driver"
	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/order"
	"fulfillment/internal/core/domain/model/task"
	"fulfillment/internal/pkg/errs"

	"github.com/labstack/echo/v4"
)

const (
	maxCallbackBody          = 1 << 20
	defaultListLimit         = 100
	defaultUnprocessedMinAge = 10 * time.Minute
	DefaultDriverTokenTTL    = 30 * 24 * time.Hour
)

type CommandHandler[C, R any] interface {
	Handle(ctx context.Context, cmd C) (R, error)
}

type ActionHandler[C any] interface {
	Handle(ctx context.Context, cmd C) error
}

type LedgerRecorder interface {
	RecordLedgerDuplicate()
}

// Handlers are the use cases behind the HTTP surface.
type Handlers struct {
	PlaceOrder           CommandHandler[commands.PlaceOrderCommand, *order.Order]
	ProcessPayment       CommandHandler[commands.ProcessPaymentCommand, commands.ProcessPaymentResult]
	CreateDriver         CommandHandler[commands.CreateDriverCommand, *driver.Driver]
	ReportLocation       CommandHandler[commands.ReportLocationCommand, int]
	AdvanceTask          CommandHandler[commands.AdvanceTaskCommand, *task.Task]
	CancelOrder          CommandHandler[commands.CancelOrderCommand, *order.Order]
	RefundOrder          CommandHandler[commands.RefundOrderCommand, *order.Order]
	ManualAssign         CommandHandler[commands.ManualAssignCommand, *task.Task]
	ReceiveMessage       CommandHandler[commands.ReceiveMessageCommand, *conversation.Conversation]
	RequestHandoff       CommandHandler[commands.RequestHandoffCommand, *conversation.Conversation]
	CloseConversation    CommandHandler[commands.CloseConversationCommand, *conversation.Conversation]
	MarkConversationRead ActionHandler[commands.MarkConversationReadCommand]
	RetryNotification    ActionHandler[commands.RetryNotificationCommand]

	GetOrder                CommandHandler[queries.GetOrderQuery, queries.GetOrderQueryResponse]
	ListFailedNotifications CommandHandler[queries.ListFailedNotificationsQuery, []queries.FailedNotification]
	ListUnprocessedPayments CommandHandler[queries.ListUnprocessedPaymentsQuery, []queries.UnprocessedPayment]
}

type ServerConfig struct {
	StripeWebhookSecret string
	DriverTokenSecret   []byte
	DriverTokenTTL      time.Duration
}

// Server coordinates between HTTP handlers and application use cases.
type Server struct {
	handlers Handlers
	config   ServerConfig
	ledger   LedgerRecorder
	logger   *slog.Logger
	now      func() time.Time
}

func NewServer(handlers Handlers, config ServerConfig, ledger LedgerRecorder, logger *slog.Logger) *Server {
	if config.DriverTokenTTL <= 0 {
		config.DriverTokenTTL = DefaultDriverTokenTTL
	}
	return &Server{
		handlers: handlers,
		config:   config,
		ledger:   ledger,
		logger:   logger.With("component", "http_server"),
		now:      time.Now,
	}
}

type newOrderRequest struct {
	OrderID     *string `json:"orderId"`
	CustomerRef string  `json:"customerRef"`
	Contact     string  `json:"contact"`
	Items       []struct {
		VariantID string `json:"variantId"`
		Quantity  int    `json:"quantity"`
		UnitPrice int64  `json:"unitPrice"`
	} `json:"items"`
}

// PlaceOrder handles POST /api/v1/orders. The checkout collaborator may pass
// its own order id to make the call retryable.
func (s *Server) PlaceOrder(c echo.Context) error {
	var req newOrderRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, newError(http.StatusBadRequest, "Invalid request body"))
	}

	orderID := kernel.NewUUID()
	if req.OrderID != nil {
		id, err := kernel.UUIDFromString(*req.OrderID)
		if err != nil {
			return s.fail(c, errs.NewValueIsInvalidErrorWithCause("orderId", err))
		}
		orderID = id
	}

	items := make([]commands.LineItemInput, 0, len(req.Items))
	for _, item := range req.Items {
		items = append(items, commands.LineItemInput{
			VariantID: item.VariantID,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
		})
	}

	cmd, err := commands.NewPlaceOrderCommand(orderID, req.CustomerRef, req.Contact, items)
	if err != nil {
		return s.fail(c, err)
	}

	o, err := s.handlers.PlaceOrder.Handle(c.Request().Context(), cmd)
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(http.StatusCreated, toOrderResponse(o))
}

// GetOrder handles GET /api/v1/orders/{orderId}.
func (s *Server) GetOrder(c echo.Context, orderID kernel.UUID) error {
	q, err := queries.NewGetOrderQuery(orderID)
	if err != nil {
		return s.fail(c, err)
	}

	resp, err := s.handlers.GetOrder.Handle(c.Request().Context(), q)
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(http.StatusOK, resp)
}

// PaymentCallback handles POST /api/v1/payments/callback.
func (s *Server) PaymentCallback(c echo.Context) error {
	body, err := readBody(c)
	if err != nil {
		return s.fail(c, err)
	}
	return s.processPayment(c, DecodeGenericCallback(body))
}

// StripeWebhook handles POST /api/v1/payments/stripe.
func (s *Server) StripeWebhook(c echo.Context) error {
	body, err := readBody(c)
	if err != nil {
		return s.fail(c, err)
	}
	signature := c.Request().Header.Get("Stripe-Signature")
	return s.processPayment(c, DecodeStripeCallback(body, signature, s.config.StripeWebhookSecret))
}

type paymentResultResponse struct {
	Outcome string       `json:"outcome"`
	Reason  string       `json:"reason,omitempty"`
	OrderID *kernel.UUID `json:"orderId,omitempty"`
}

func (s *Server) processPayment(c echo.Context, callback PaymentCallback) error {
	ctx := c.Request().Context()

	if unrecognized, ok := callback.(UnrecognizedCallback); ok {
		s.logger.WarnContext(ctx, "unrecognized payment callback",
			"provider", unrecognized.Provider,
			"reason", unrecognized.Reason,
			"body_size", len(unrecognized.raw))
	}

	cmd, err := callback.command()
	if err != nil {
		return s.fail(c, err)
	}

	result, err := s.handlers.ProcessPayment.Handle(ctx, cmd)
	if errors.Is(err, errs.ErrDuplicateEvent) {
		if s.ledger != nil {
			s.ledger.RecordLedgerDuplicate()
		}
		return c.JSON(http.StatusOK, paymentResultResponse{Outcome: "duplicate"})
	}
	if err != nil {
		return s.fail(c, err)
	}

	resp := paymentResultResponse{Outcome: string(result.Outcome), Reason: result.Reason, OrderID: result.OrderID}
	if result.Outcome == commands.PaymentRejected {
		s.logger.WarnContext(ctx, "payment recorded for reconciliation",
			"provider", cmd.Provider(), "provider_ref", cmd.ProviderRef(), "reason", result.Reason)
		return c.JSON(http.StatusAccepted, resp)
	}
	return c.JSON(http.StatusOK, resp)
}

type newDriverRequest struct {
	DriverID *string `json:"driverId"`
	Name     string  `json:"name"`
	Contact  string  `json:"contact"`
}

type registeredDriverResponse struct {
	ID    kernel.UUID `json:"id"`
	Name  string      `json:"name"`
	Token string      `json:"token"`
}

// RegisterDriver handles POST /api/v1/drivers and returns the driver's token.
func (s *Server) RegisterDriver(c echo.Context) error {
	var req newDriverRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, newError(http.StatusBadRequest, "Invalid request body"))
	}

	driverID := kernel.NewUUID()
	if req.DriverID != nil {
		id, err := kernel.UUIDFromString(*req.DriverID)
		if err != nil {
			return s.fail(c, errs.NewValueIsInvalidErrorWithCause("driverId", err))
		}
		driverID = id
	}

	cmd, err := commands.NewCreateDriverCommand(driverID, req.Name, req.Contact)
	if err != nil {
		return s.fail(c, err)
	}

	d, err := s.handlers.CreateDriver.Handle(c.Request().Context(), cmd)
	if err != nil {
		return s.fail(c, err)
	}

	token, err := IssueDriverToken(s.config.DriverTokenSecret, d.ID(), s.config.DriverTokenTTL, s.now())
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(http.StatusCreated, registeredDriverResponse{ID: d.ID(), Name: d.Name(), Token: token})
}

type locationRequest struct {
	Lat float64    `json:"lat"`
	Lng float64    `json:"lng"`
	At  *time.Time `json:"at"`
}

// ReportLocation handles POST /api/v1/driver/location.
func (s *Server) ReportLocation(c echo.Context) error {
	driverID, ok := authenticatedDriver(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, newError(http.StatusUnauthorized, "invalid driver token"))
	}

	var req locationRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, newError(http.StatusBadRequest, "Invalid request body"))
	}
	at := s.now().UTC()
	if req.At != nil {
		at = req.At.UTC()
	}

	cmd, err := commands.NewReportLocationCommand(driverID, req.Lat, req.Lng, at)
	if err != nil {
		return s.fail(c, err)
	}

	updated, err := s.handlers.ReportLocation.Handle(c.Request().Context(), cmd)
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(http.StatusOK, map[string]int{"updatedTasks": updated})
}

type taskStatusRequest struct {
	Status string `json:"status"`
	Reason string `json:"reason"`
}

// AdvanceTask handles POST /api/v1/driver/tasks/{taskId}/status for the
// driver the task is assigned to.
func (s *Server) AdvanceTask(c echo.Context, taskID kernel.UUID) error {
	driverID, ok := authenticatedDriver(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, newError(http.StatusUnauthorized, "invalid driver token"))
	}
	return s.advanceTask(c, taskID, &driverID)
}

// AdminAdvanceTask handles POST /api/v1/admin/tasks/{taskId}/status.
func (s *Server) AdminAdvanceTask(c echo.Context, taskID kernel.UUID) error {
	return s.advanceTask(c, taskID, nil)
}

func (s *Server) advanceTask(c echo.Context, taskID kernel.UUID, driverID *kernel.UUID) error {
	var req taskStatusRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, newError(http.StatusBadRequest, "Invalid request body"))
	}

	status, err := task.ParseStatus(req.Status)
	if err != nil {
		return s.fail(c, err)
	}

	cmd, err := commands.NewAdvanceTaskCommand(taskID, status, driverID, req.Reason)
	if err != nil {
		return s.fail(c, err)
	}

	t, err := s.handlers.AdvanceTask.Handle(c.Request().Context(), cmd)
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(http.StatusOK, toTaskResponse(t))
}

// CancelOrder handles POST /api/v1/admin/orders/{orderId}/cancel.
func (s *Server) CancelOrder(c echo.Context, orderID kernel.UUID) error {
	cmd, err := commands.NewCancelOrderCommand(orderID)
	if err != nil {
		return s.fail(c, err)
	}

	o, err := s.handlers.CancelOrder.Handle(c.Request().Context(), cmd)
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(http.StatusOK, toOrderResponse(o))
}

// RefundOrder handles POST /api/v1/admin/orders/{orderId}/refund.
func (s *Server) RefundOrder(c echo.Context, orderID kernel.UUID) error {
	var req struct {
		Reason string `json:"reason"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, newError(http.StatusBadRequest, "Invalid request body"))
	}

	cmd, err := commands.NewRefundOrderCommand(orderID, req.Reason)
	if err != nil {
		return s.fail(c, err)
	}

	o, err := s.handlers.RefundOrder.Handle(c.Request().Context(), cmd)
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(http.StatusOK, toOrderResponse(o))
}

// ManualAssign handles POST /api/v1/admin/orders/{orderId}/assign.
func (s *Server) ManualAssign(c echo.Context, orderID kernel.UUID) error {
	var req struct {
		DriverID string `json:"driverId"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, newError(http.StatusBadRequest, "Invalid request body"))
	}
	driverID, err := kernel.UUIDFromString(req.DriverID)
	if err != nil {
		return s.fail(c, errs.NewValueIsInvalidErrorWithCause("driverId", err))
	}

	cmd, err := commands.NewManualAssignCommand(orderID, driverID)
	if err != nil {
		return s.fail(c, err)
	}

	t, err := s.handlers.ManualAssign.Handle(c.Request().Context(), cmd)
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(http.StatusOK, toTaskResponse(t))
}

type ListParams struct {
	Limit *int `form:"limit" json:"limit,omitempty"`
}

type UnprocessedPaymentsParams struct {
	Limit     *int `form:"limit" json:"limit,omitempty"`
	OlderThan *int `form:"olderThan" json:"olderThan,omitempty"`
}

// ListFailedNotifications handles GET /api/v1/admin/notifications/failed.
func (s *Server) ListFailedNotifications(c echo.Context, params ListParams) error {
	q, err := queries.NewListFailedNotificationsQuery(limitOrDefault(params.Limit))
	if err != nil {
		return s.fail(c, err)
	}

	failed, err := s.handlers.ListFailedNotifications.Handle(c.Request().Context(), q)
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(http.StatusOK, failed)
}

// RetryNotification handles POST /api/v1/admin/notifications/{jobId}/retry.
func (s *Server) RetryNotification(c echo.Context, jobID kernel.UUID) error {
	cmd, err := commands.NewRetryNotificationCommand(jobID)
	if err != nil {
		return s.fail(c, err)
	}
	if err = s.handlers.RetryNotification.Handle(c.Request().Context(), cmd); err != nil {
		return s.fail(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// ListUnprocessedPayments handles GET /api/v1/admin/payments/unprocessed.
func (s *Server) ListUnprocessedPayments(c echo.Context, params UnprocessedPaymentsParams) error {
	minAge := defaultUnprocessedMinAge
	if params.OlderThan != nil {
		minAge = time.Duration(*params.OlderThan) * time.Second
	}

	q, err := queries.NewListUnprocessedPaymentsQuery(s.now().UTC().Add(-minAge), limitOrDefault(params.Limit))
	if err != nil {
		return s.fail(c, err)
	}

	payments, err := s.handlers.ListUnprocessedPayments.Handle(c.Request().Context(), q)
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(http.StatusOK, payments)
}

type messageRequest struct {
	UserID  *string `json:"userId"`
	OrderID *string `json:"orderId"`
}

// ReceiveMessage handles POST /api/v1/conversations/{conversationId}/messages.
func (s *Server) ReceiveMessage(c echo.Context, conversationID kernel.UUID) error {
	var req messageRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, newError(http.StatusBadRequest, "Invalid request body"))
	}

	var orderID *kernel.UUID
	if req.OrderID != nil {
		id, err := kernel.UUIDFromString(*req.OrderID)
		if err != nil {
			return s.fail(c, errs.NewValueIsInvalidErrorWithCause("orderId", err))
		}
		orderID = &id
	}

	cmd, err := commands.NewReceiveMessageCommand(conversationID, req.UserID, orderID, s.now().UTC())
	if err != nil {
		return s.fail(c, err)
	}

	conv, err := s.handlers.ReceiveMessage.Handle(c.Request().Context(), cmd)
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(http.StatusOK, toConversationResponse(conv))
}

// RequestHandoff handles POST /api/v1/conversations/{conversationId}/handoff.
func (s *Server) RequestHandoff(c echo.Context, conversationID kernel.UUID) error {
	var req struct {
		Reason string `json:"reason"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, newError(http.StatusBadRequest, "Invalid request body"))
	}

	cmd, err := commands.NewRequestHandoffCommand(conversationID, req.Reason)
	if err != nil {
		return s.fail(c, err)
	}

	conv, err := s.handlers.RequestHandoff.Handle(c.Request().Context(), cmd)
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(http.StatusOK, toConversationResponse(conv))
}

// CloseConversation handles POST /api/v1/conversations/{conversationId}/close.
func (s *Server) CloseConversation(c echo.Context, conversationID kernel.UUID) error {
	cmd, err := commands.NewCloseConversationCommand(conversationID)
	if err != nil {
		return s.fail(c, err)
	}

	conv, err := s.handlers.CloseConversation.Handle(c.Request().Context(), cmd)
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(http.StatusOK, toConversationResponse(conv))
}

// MarkConversationRead handles POST /api/v1/conversations/{conversationId}/read.
func (s *Server) MarkConversationRead(c echo.Context, conversationID kernel.UUID) error {
	cmd, err := commands.NewMarkConversationReadCommand(conversationID)
	if err != nil {
		return s.fail(c, err)
	}
	if err = s.handlers.MarkConversationRead.Handle(c.Request().Context(), cmd); err != nil {
		return s.fail(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func readBody(c echo.Context) ([]byte, error) {
	body, err := io.ReadAll(io.LimitReader(c.Request().Body, maxCallbackBody+1))
	if err != nil {
		return nil, errs.NewMalformedPayloadErrorWithCause("read body", err)
	}
	if len(body) > maxCallbackBody {
		return nil, errs.NewMalformedPayloadError("body too large")
	}
	return body, nil
}

func limitOrDefault(limit *int) int {
	if limit == nil {
		return defaultListLimit
	}
	return *limit
}
