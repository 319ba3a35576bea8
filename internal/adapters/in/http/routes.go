package http

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/ports"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"
	"github.com/oapi-codegen/runtime"
	openapitypes "github.com/oapi-codegen/runtime/types"
	echoSwagger "github.com/swaggo/echo-swagger"
)

const (
	BucketPayments = "payments"
	BucketLocation = "gps"
)

type Observer interface {
	RateLimitRecorder
	RequestRecorder
	Handler() http.Handler
}

type RouterConfig struct {
	AdminToken        string
	DriverTokenSecret []byte
	Limiter           ports.RateLimiter
	PaymentRateLimit  int
	LocationRateLimit int
	Observer          Observer
	Logger            *slog.Logger
	// TrustedProxies are the ranges whose X-Forwarded-For is believed. With
	// none, the client address is the TCP peer.
	TrustedProxies []*net.IPNet
}

// NewRouter builds the echo instance serving the API, its documentation,
// health and metrics.
func NewRouter(ctx context.Context, s *Server, cfg RouterConfig) (*echo.Echo, error) {
	doc, err := LoadOpenAPI(ctx)
	if err != nil {
		return nil, err
	}
	validator, err := OpenAPIValidator(doc)
	if err != nil {
		return nil, err
	}
	if err = registerDocs(doc); err != nil {
		return nil, err
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Logger.SetLevel(log.WARN)
	e.IPExtractor = clientIPExtractor(cfg.TrustedProxies)
	e.Use(middleware.Recover())
	e.Use(RequestMetrics(cfg.Observer))

	e.GET("/health", func(c echo.Context) error {
		return c.String(http.StatusOK, "Healthy")
	})
	e.GET("/metrics", echo.WrapHandler(cfg.Observer.Handler()))
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	admin := AdminAuth(cfg.AdminToken)
	driver := DriverAuth(cfg.DriverTokenSecret)
	paymentLimit := RateLimit(cfg.Limiter, BucketPayments, cfg.PaymentRateLimit, cfg.Observer, cfg.Logger)
	locationLimit := RateLimit(cfg.Limiter, BucketLocation, cfg.LocationRateLimit, cfg.Observer, cfg.Logger)

	api := e.Group("/api/v1", validator)

	api.POST("/orders", s.PlaceOrder)
	api.GET("/orders/:orderId", withUUID("orderId", s.GetOrder))

	api.POST("/payments/callback", s.PaymentCallback, paymentLimit)
	api.POST("/payments/stripe", s.StripeWebhook, paymentLimit)

	api.POST("/drivers", s.RegisterDriver, admin)
	api.POST("/driver/location", s.ReportLocation, driver, locationLimit)
	api.POST("/driver/tasks/:taskId/status", withUUID("taskId", s.AdvanceTask), driver)

	api.POST("/admin/tasks/:taskId/status", withUUID("taskId", s.AdminAdvanceTask), admin)
	api.POST("/admin/orders/:orderId/cancel", withUUID("orderId", s.CancelOrder), admin)
	api.POST("/admin/orders/:orderId/refund", withUUID("orderId", s.RefundOrder), admin)
	api.POST("/admin/orders/:orderId/assign", withUUID("orderId", s.ManualAssign), admin)
	api.GET("/admin/notifications/failed", s.listFailedNotifications, admin)
	api.POST("/admin/notifications/:jobId/retry", withUUID("jobId", s.RetryNotification), admin)
	api.GET("/admin/payments/unprocessed", s.listUnprocessedPayments, admin)

	api.POST("/conversations/:conversationId/messages", withUUID("conversationId", s.ReceiveMessage))
	api.POST("/conversations/:conversationId/handoff", withUUID("conversationId", s.RequestHandoff))
	api.POST("/conversations/:conversationId/close", withUUID("conversationId", s.CloseConversation))
	api.POST("/conversations/:conversationId/read", withUUID("conversationId", s.MarkConversationRead))

	return e, nil
}

func clientIPExtractor(trusted []*net.IPNet) echo.IPExtractor {
	if len(trusted) == 0 {
		return echo.ExtractIPDirect()
	}
	opts := []echo.TrustOption{echo.TrustLoopback(false), echo.TrustLinkLocal(false), echo.TrustPrivateNet(false)}
	for _, ipRange := range trusted {
		opts = append(opts, echo.TrustIPRange(ipRange))
	}
	return echo.ExtractIPFromXFFHeader(opts...)
}

// withUUID binds a uuid path parameter before calling the handler.
func withUUID(name string, handler func(echo.Context, kernel.UUID) error) echo.HandlerFunc {
	return func(c echo.Context) error {
		var raw openapitypes.UUID
		err := runtime.BindStyledParameterWithOptions("simple", name, c.Param(name), &raw,
			runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Explode: false, Required: true})
		if err != nil {
			return c.JSON(http.StatusBadRequest,
				newError(http.StatusBadRequest, fmt.Sprintf("Invalid format for parameter %s: %s", name, err)))
		}

		id, err := kernel.UUIDFromString(raw.String())
		if err != nil {
			return c.JSON(http.StatusBadRequest,
				newError(http.StatusBadRequest, fmt.Sprintf("Invalid format for parameter %s: %s", name, err)))
		}
		return handler(c, id)
	}
}

func (s *Server) listFailedNotifications(c echo.Context) error {
	var params ListParams
	if err := runtime.BindQueryParameter("form", true, false, "limit", c.QueryParams(), &params.Limit); err != nil {
		return c.JSON(http.StatusBadRequest,
			newError(http.StatusBadRequest, fmt.Sprintf("Invalid format for parameter limit: %s", err)))
	}
	return s.ListFailedNotifications(c, params)
}

func (s *Server) listUnprocessedPayments(c echo.Context) error {
	var params UnprocessedPaymentsParams
	if err := runtime.BindQueryParameter("form", true, false, "limit", c.QueryParams(), &params.Limit); err != nil {
		return c.JSON(http.StatusBadRequest,
			newError(http.StatusBadRequest, fmt.Sprintf("Invalid format for parameter limit: %s", err)))
	}
	if err := runtime.BindQueryParameter("form", true, false, "olderThan", c.QueryParams(), &params.OlderThan); err != nil {
		return c.JSON(http.StatusBadRequest,
			newError(http.StatusBadRequest, fmt.Sprintf("Invalid format for parameter olderThan: %s", err)))
	}
	return s.ListUnprocessedPayments(c, params)
}
