package alert

import (
	"context"
	"time"
)

// Delivery records that an alert id was pushed to a chat.
// Only the id is stored; the alert itself is always recomputed.
type Delivery struct {
	ID          int64
	AlertID     string
	ChatID      int64
	DeliveredAt time.Time
}

// DeliveryRepository tracks pushed alerts so a chat gets each one once
// for as long as the alert stays active.
type DeliveryRepository interface {
	RecordDelivery(ctx context.Context, d *Delivery) error
	// ListDelivered returns the subset of alertIDs already pushed to chatID.
	ListDelivered(ctx context.Context, chatID int64, alertIDs []string) (map[string]bool, error)
	// PruneInactive forgets deliveries whose alert id is not in activeIDs,
	// so an alert that clears and later fires again is pushed again.
	PruneInactive(ctx context.Context, activeIDs []string) (int64, error)
}
