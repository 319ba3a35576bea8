package commands

import (
	"errors"
	"time"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/pkg/errs"
	"fulfillment/internal/pkg/guard"
)

// MaxLocationClockSkew is how far ahead of server time a device reading may
// be stamped. A later stamp would make every real ping after it look stale.
const MaxLocationClockSkew = 2 * time.Minute

var ErrReportLocationCommandIsNotConstructed = errors.New(
	"ReportLocationCommand must be created via NewReportLocationCommand constructor",
)

type ReportLocationCommand struct {
	driverID kernel.UUID
	point    kernel.GeoPoint
	at       time.Time
	guard    guard.ConstructorGuard
}

func NewReportLocationCommand(driverID kernel.UUID, lat, lng float64, at time.Time) (ReportLocationCommand, error) {
	point, err := kernel.NewGeoPoint(lat, lng)
	if err = errors.Join(driverID.Validate(), err, validateReadingTime(at, time.Now())); err != nil {
		return ReportLocationCommand{}, err
	}
	return ReportLocationCommand{
		driverID: driverID,
		point:    point,
		at:       at,
		guard:    guard.NewConstructorGuard(),
	}, nil
}

func (c ReportLocationCommand) Validate() error {
	return c.guard.Validate(ErrReportLocationCommandIsNotConstructed)
}

func (c ReportLocationCommand) DriverID() kernel.UUID {
	return c.driverID
}

func (c ReportLocationCommand) Point() kernel.GeoPoint {
	return c.point
}

// At is when the device took the reading.
func (c ReportLocationCommand) At() time.Time {
	return c.at
}

func validateReadingTime(at, now time.Time) error {
	if at.IsZero() {
		return errs.NewValueIsRequiredError("at")
	}
	if latest := now.Add(MaxLocationClockSkew); at.After(latest) {
		return errs.NewValueIsOutOfRangeError("at", at.UTC().Format(time.RFC3339), "unbounded", latest.UTC().Format(time.RFC3339))
	}
	return nil
}
