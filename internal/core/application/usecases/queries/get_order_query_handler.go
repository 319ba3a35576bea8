package queries

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/task"
	"fulfillment/internal/pkg/errs"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type GetOrderQueryHandler struct {
	db *gorm.DB
}

func NewGetOrderQueryHandler(db *gorm.DB) GetOrderQueryHandler {
	return GetOrderQueryHandler{db: db}
}

// Handle returns errs.ObjectNotFoundError for an unknown order. ActiveTask is
// nil unless a task is ASSIGNED, PICKED_UP or IN_TRANSIT.
func (h GetOrderQueryHandler) Handle(ctx context.Context, query GetOrderQuery) (GetOrderQueryResponse, error) {
	if err := query.Validate(); err != nil {
		return GetOrderQueryResponse{}, err
	}

	active := make([]string, 0, len(task.ActiveStatuses))
	for _, s := range task.ActiveStatuses {
		active = append(active, s.String())
	}

	row := h.db.WithContext(ctx).Raw(`
		SELECT
			o.id,
			o.customer_ref,
			o.status,
			o.payment_status,
			o.items,
			o.total,
			o.driver_id,
			o.placed_at,
			o.paid_at,
			o.delivered_at,
			o.version,
			t.id,
			t.driver_id,
			t.status,
			t.lat,
			t.lng,
			t.last_gps_ping
		FROM orders o
		LEFT JOIN driver_tasks t ON t.order_id = o.id AND t.status IN ?
		WHERE o.id = ?
	`, active, query.OrderID().Bytes()).Row()

	var (
		resp         GetOrderQueryResponse
		id           uuid.UUID
		items        []byte
		driverID     *uuid.UUID
		taskID       *uuid.UUID
		taskDriverID *uuid.UUID
		taskStatus   sql.NullString
		view         ActiveTaskView
	)
	err := row.Scan(
		&id,
		&resp.CustomerRef,
		&resp.Status,
		&resp.PaymentStatus,
		&items,
		&resp.Total,
		&driverID,
		&resp.PlacedAt,
		&resp.PaidAt,
		&resp.DeliveredAt,
		&resp.Version,
		&taskID,
		&taskDriverID,
		&taskStatus,
		&view.Lat,
		&view.Lng,
		&view.LastGpsPing,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return GetOrderQueryResponse{}, errs.NewObjectNotFoundError("order", query.OrderID().String())
	}
	if err != nil {
		return GetOrderQueryResponse{}, err
	}

	if resp.ID, err = kernel.UUIDFromBytes(id[:]); err != nil {
		return GetOrderQueryResponse{}, err
	}
	if err = json.Unmarshal(items, &resp.Items); err != nil {
		return GetOrderQueryResponse{}, fmt.Errorf("decode items of order %s: %w", resp.ID, err)
	}
	if driverID != nil {
		d, err := kernel.UUIDFromBytes(driverID[:])
		if err != nil {
			return GetOrderQueryResponse{}, err
		}
		resp.DriverID = &d
	}

	if taskID != nil && taskDriverID != nil {
		if view.ID, err = kernel.UUIDFromBytes(taskID[:]); err != nil {
			return GetOrderQueryResponse{}, err
		}
		if view.DriverID, err = kernel.UUIDFromBytes(taskDriverID[:]); err != nil {
			return GetOrderQueryResponse{}, err
		}
		view.Status = taskStatus.String
		resp.ActiveTask = &view
	}

	return resp, nil
}
