package subscriber

import (
	"database/sql"
	"time"
)

// Subscriber is a Telegram chat that receives pushed alerts and digests.
type Subscriber struct {
	ID        int64
	ChatID    int64
	Name      string
	Note      sql.NullString
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}
