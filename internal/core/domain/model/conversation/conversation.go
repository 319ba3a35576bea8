package conversation

import (
	"errors"
	"fmt"
	"time"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/pkg/errs"
	"fulfillment/internal/pkg/guard"
)

var ErrConversationIsNotConstructed = errors.New("Conversation must be created via NewConversation or Restore constructor")

type Status int

const (
	Unknown Status = iota
	AIActive
	HumanActive
	Closed
)

var statusStrings = map[Status]string{
	AIActive:    "ai_active",
	HumanActive: "human_active",
	Closed:      "closed",
}

func ParseStatus(s string) (Status, error) {
	for status, str := range statusStrings {
		if str == s {
			return status, nil
		}
	}
	return Unknown, errs.NewValueIsInvalidErrorWithCause("status is invalid", fmt.Errorf("%q is not a valid conversation status", s))
}

func (s Status) Validate() error {
	if _, ok := statusStrings[s]; !ok {
		return errs.NewValueIsInvalidErrorWithCause("status is invalid", fmt.Errorf("%d is not a valid conversation status", s))
	}
	return nil
}

func (s Status) String() string {
	if str, ok := statusStrings[s]; ok {
		return str
	}
	return "unknown"
}

func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

const EventHandoffRequested = "conversation.handoff_requested"

type HandoffRequested struct {
	ConversationID kernel.UUID  `json:"conversationId"`
	OrderID        *kernel.UUID `json:"orderId,omitempty"`
	Reason         string       `json:"reason"`
	At             time.Time    `json:"at"`
}

func (e HandoffRequested) EventName() string {
	return EventHandoffRequested
}

func (e HandoffRequested) AggregateID() kernel.UUID {
	return e.ConversationID
}

func (e HandoffRequested) OccurredAt() time.Time {
	return e.At
}

type Snapshot struct {
	ID            kernel.UUID
	UserID        *string
	OrderID       *kernel.UUID
	Status        Status
	LastMessageAt *time.Time
	UnreadCount   int
	Version       int
}

type Conversation struct {
	id            kernel.UUID
	userID        *string
	orderID       *kernel.UUID
	status        Status
	lastMessageAt *time.Time
	unreadCount   int
	version       int
	events        kernel.EventRecorder
	guard         guard.ConstructorGuard
}

// NewConversation opens a conversation handled by the assistant.
func NewConversation(id kernel.UUID, userID *string, orderID *kernel.UUID) (*Conversation, error) {
	if err := id.Validate(); err != nil {
		return nil, err
	}
	return &Conversation{
		id:      id,
		userID:  userID,
		orderID: orderID,
		status:  AIActive,
		guard:   guard.NewConstructorGuard(),
	}, nil
}

func Restore(s Snapshot) (*Conversation, error) {
	if err := errors.Join(s.ID.Validate(), s.Status.Validate()); err != nil {
		return nil, err
	}
	if s.UnreadCount < 0 {
		return nil, errs.NewValueIsOutOfRangeError("unreadCount", s.UnreadCount, 0, "unbounded")
	}
	return &Conversation{
		id:            s.ID,
		userID:        s.UserID,
		orderID:       s.OrderID,
		status:        s.Status,
		lastMessageAt: s.LastMessageAt,
		unreadCount:   s.UnreadCount,
		version:       s.Version,
		guard:         guard.NewConstructorGuard(),
	}, nil
}

func (c *Conversation) Validate() error {
	if c == nil {
		return ErrConversationIsNotConstructed
	}
	return c.guard.Validate(ErrConversationIsNotConstructed)
}

func (c *Conversation) ID() kernel.UUID {
	return c.id
}

func (c *Conversation) UserID() *string {
	return c.userID
}

func (c *Conversation) OrderID() *kernel.UUID {
	return c.orderID
}

func (c *Conversation) Status() Status {
	return c.status
}

func (c *Conversation) LastMessageAt() *time.Time {
	return c.lastMessageAt
}

func (c *Conversation) UnreadCount() int {
	return c.unreadCount
}

func (c *Conversation) Version() int {
	return c.version
}

func (c *Conversation) Snapshot() Snapshot {
	return Snapshot{
		ID:            c.id,
		UserID:        c.userID,
		OrderID:       c.orderID,
		Status:        c.status,
		LastMessageAt: c.lastMessageAt,
		UnreadCount:   c.unreadCount,
		Version:       c.version,
	}
}

func (c *Conversation) DomainEvents() []kernel.DomainEvent {
	return c.events.DomainEvents()
}

func (c *Conversation) ClearDomainEvents() {
	c.events.ClearDomainEvents()
}

// MarkSaved is called by the repository after a successful conditional write.
func (c *Conversation) MarkSaved() {
	c.version++
}

// ReceiveMessage stamps an inbound customer message. A closed conversation is
// reopened to the assistant, never directly to a human. It reports whether the
// conversation was reopened.
func (c *Conversation) ReceiveMessage(at time.Time) bool {
	reopened := false
	if c.status == Closed {
		c.status = AIActive
		reopened = true
	}
	if c.lastMessageAt == nil || at.After(*c.lastMessageAt) {
		c.lastMessageAt = &at
	}
	c.unreadCount++
	return reopened
}

// AttachOrder links the conversation to an order the first time one is named.
func (c *Conversation) AttachOrder(orderID kernel.UUID) {
	if c.orderID == nil {
		c.orderID = &orderID
	}
}

// RequestHandoff moves the conversation to a human agent. It is idempotent for
// conversations already with a human and rejected for closed ones.
func (c *Conversation) RequestHandoff(reason string, at time.Time) (bool, error) {
	switch c.status {
	case HumanActive:
		return false, nil
	case AIActive:
		c.status = HumanActive
		c.events.Record(HandoffRequested{ConversationID: c.id, OrderID: c.orderID, Reason: reason, At: at})
		return true, nil
	default:
		return false, errs.NewInvalidTransitionError("conversation", c.status.String(), "hand off")
	}
}

// Close is idempotent.
func (c *Conversation) Close() bool {
	if c.status == Closed {
		return false
	}
	c.status = Closed
	return true
}

func (c *Conversation) MarkRead() {
	c.unreadCount = 0
}
