package postgres

import (
	"fmt"
	"strings"

	"fulfillment/internal/adapters/out/postgres/conversationrepo"
	"fulfillment/internal/adapters/out/postgres/driverrepo"
	"fulfillment/internal/adapters/out/postgres/notificationrepo"
	"fulfillment/internal/adapters/out/postgres/orderrepo"
	"fulfillment/internal/adapters/out/postgres/paymentrepo"
	"fulfillment/internal/adapters/out/postgres/taskrepo"

	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Open connects to Postgres with error translation enabled, which the
// repositories rely on to report key collisions as conflicts.
func Open(dsn string, logLevel logger.LogLevel) (*gorm.DB, error) {
	db, err := gorm.Open(gormpostgres.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logLevel),
	})
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	return db, nil
}

// Migrate creates or updates the schema. The partial unique index keeps at
// most one active task per order even if two assigners race.
func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&orderrepo.OrderDTO{},
		&taskrepo.TaskDTO{},
		&driverrepo.DriverDTO{},
		&paymentrepo.PaymentEventDTO{},
		&conversationrepo.ConversationDTO{},
		&notificationrepo.JobDTO{},
	)
	if err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}

	// DDL takes no bind parameters, so the status list is inlined.
	active := make([]string, 0, len(taskrepo.ActiveStatusNames()))
	for _, name := range taskrepo.ActiveStatusNames() {
		active = append(active, "'"+name+"'")
	}
	err = db.Exec(fmt.Sprintf(`CREATE UNIQUE INDEX IF NOT EXISTS ux_driver_tasks_active_order
		ON driver_tasks (order_id)
		WHERE status IN (%s)`, strings.Join(active, ", "))).Error
	if err != nil {
		return fmt.Errorf("create active task index: %w", err)
	}

	return nil
}
