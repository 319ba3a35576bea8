package notificationrepo

import (
	"context"
	"errors"
	"time"

	"fulfillment/internal/adapters/out/postgres/versioned"
	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/notification"
	"fulfillment/internal/pkg/errs"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type GormNotificationRepository struct {
	db *gorm.DB
}

func NewGormNotificationRepository(db *gorm.DB) *GormNotificationRepository {
	return &GormNotificationRepository{db: db}
}

func (r *GormNotificationRepository) Add(ctx context.Context, job *notification.Job) error {
	if err := job.Validate(); err != nil {
		return err
	}

	dto := fromDomain(job)
	dto.Version++
	if err := versioned.Insert(ctx, r.db, "notification", job.ID().Bytes(), &dto); err != nil {
		return err
	}

	job.MarkSaved()
	return nil
}

func (r *GormNotificationRepository) Update(ctx context.Context, job *notification.Job) error {
	if err := job.Validate(); err != nil {
		return err
	}

	dto := fromDomain(job)
	expected := dto.Version
	dto.Version++
	if err := versioned.Update(ctx, r.db, "notification", job.ID().Bytes(), expected, &dto); err != nil {
		return err
	}

	job.MarkSaved()
	return nil
}

func (r *GormNotificationRepository) Get(ctx context.Context, id kernel.UUID) (*notification.Job, error) {
	if err := id.Validate(); err != nil {
		return nil, err
	}

	var dto JobDTO
	if err := r.db.WithContext(ctx).First(&dto, "id = ?", id.Bytes()).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NewObjectNotFoundError("notification", id.String())
		}
		return nil, err
	}

	return toDomain(dto)
}

// ClaimDue locks due PENDING jobs with FOR UPDATE SKIP LOCKED. It must run
// inside a transaction; the locks are held until it ends.
func (r *GormNotificationRepository) ClaimDue(
	ctx context.Context, now time.Time, limit int,
) ([]*notification.Job, error) {
	var dtos []JobDTO
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: clause.LockingStrengthUpdate, Options: clause.LockingOptionsSkipLocked}).
		Where("status = ? AND next_attempt_at <= ?", notification.Pending.String(), now).
		Order("next_attempt_at, id").
		Limit(limit).
		Find(&dtos).Error
	if err != nil {
		return nil, err
	}

	jobs := make([]*notification.Job, 0, len(dtos))
	for _, dto := range dtos {
		j, err := toDomain(dto)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, j)
	}

	return jobs, nil
}
