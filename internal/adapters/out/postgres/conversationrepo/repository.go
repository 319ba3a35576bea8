package conversationrepo

import (
	"context"
	"errors"

	"fulfillment/internal/adapters/out/postgres/versioned"
	"fulfillment/internal/core/domain/model/conversation"
	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/pkg/errs"

	"gorm.io/gorm"
)

type GormConversationRepository struct {
	db      *gorm.DB
	tracker aggregateTracker
}

type aggregateTracker interface {
	TrackAggregate(id kernel.UUID, aggregate any)
}

func NewGormConversationRepository(db *gorm.DB, tracker aggregateTracker) *GormConversationRepository {
	return &GormConversationRepository{
		db:      db,
		tracker: tracker,
	}
}

func (r *GormConversationRepository) Add(ctx context.Context, aggregate *conversation.Conversation) error {
	if err := aggregate.Validate(); err != nil {
		return err
	}

	dto := fromDomain(aggregate)
	dto.Version++
	if err := versioned.Insert(ctx, r.db, "conversation", aggregate.ID().Bytes(), &dto); err != nil {
		return err
	}

	aggregate.MarkSaved()
	r.tracker.TrackAggregate(aggregate.ID(), aggregate)
	return nil
}

func (r *GormConversationRepository) Update(ctx context.Context, aggregate *conversation.Conversation) error {
	if err := aggregate.Validate(); err != nil {
		return err
	}

	dto := fromDomain(aggregate)
	expected := dto.Version
	dto.Version++
	if err := versioned.Update(ctx, r.db, "conversation", aggregate.ID().Bytes(), expected, &dto); err != nil {
		return err
	}

	aggregate.MarkSaved()
	r.tracker.TrackAggregate(aggregate.ID(), aggregate)
	return nil
}

func (r *GormConversationRepository) Get(ctx context.Context, id kernel.UUID) (*conversation.Conversation, error) {
	if err := id.Validate(); err != nil {
		return nil, err
	}

	var dto ConversationDTO
	if err := r.db.WithContext(ctx).First(&dto, "id = ?", id.Bytes()).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NewObjectNotFoundError("conversation", id.String())
		}
		return nil, err
	}

	return toDomain(dto)
}

func (r *GormConversationRepository) ListOpenByOrder(
	ctx context.Context, orderID kernel.UUID,
) ([]*conversation.Conversation, error) {
	if err := orderID.Validate(); err != nil {
		return nil, err
	}

	var dtos []ConversationDTO
	err := r.db.WithContext(ctx).
		Where("order_id = ? AND status <> ?", orderID.Bytes(), conversation.Closed.String()).
		Order("last_message_at DESC NULLS LAST").
		Find(&dtos).Error
	if err != nil {
		return nil, err
	}

	conversations := make([]*conversation.Conversation, 0, len(dtos))
	for _, dto := range dtos {
		c, err := toDomain(dto)
		if err != nil {
			return nil, err
		}
		conversations = append(conversations, c)
	}

	return conversations, nil
}
