package models

import "time"

type RequestStatus string

const (
	RequestPending  RequestStatus = "pending"
	RequestAccepted RequestStatus = "accepted"
	RequestDeclined RequestStatus = "declined"
)

// FriendRequest rows are terminal once accepted or declined. The partial
// unique index only guards the pending state, so a pair that declined each
// other before can still exchange a fresh request.
type FriendRequest struct {
	ID        int64         `gorm:"primaryKey;autoIncrement" json:"id"`
	FromID    int64         `gorm:"index;uniqueIndex:uniq_pending_pair,where:status = 'pending'" json:"from_id"`
	ToID      int64         `gorm:"index;uniqueIndex:uniq_pending_pair,where:status = 'pending'" json:"to_id"`
	Status    RequestStatus `gorm:"size:16;index" json:"status"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}

func (FriendRequest) TableName() string {
	return "friend_requests"
}
