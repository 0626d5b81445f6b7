package subscriber

import (
	"context"
)

// Repository defines the operations for persisting and retrieving subscribers.
type Repository interface {
	Create(ctx context.Context, s *Subscriber) error
	GetByChatID(ctx context.Context, chatID int64) (*Subscriber, error)
	Update(ctx context.Context, s *Subscriber) error // Name, Note, IsActive
	ListActive(ctx context.Context) ([]*Subscriber, error)
	ListAll(ctx context.Context) ([]*Subscriber, error)
}
