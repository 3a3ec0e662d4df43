package domain

import "time"

// EventType 工作区事件类型
type EventType string

const (
	EventLockAcquired     EventType = "LOCK_ACQUIRED"
	EventLockReleased     EventType = "LOCK_RELEASED"
	EventVersionCommitted EventType = "VERSION_COMMITTED"
	EventPresenceJoined   EventType = "PRESENCE_JOINED"
	EventPresenceLeft     EventType = "PRESENCE_LEFT"
	EventCommentAdded     EventType = "COMMENT_ADDED"
	EventCommentResolved  EventType = "COMMENT_RESOLVED"
	EventReadOnlyChanged  EventType = "READONLY_CHANGED"
)

// Event 工作区事件
// EventSeq 为工作区内严格单调递增的事件序号，与版本序号相互独立
type Event struct {
	EventSeq    int64       `json:"eventSeq"`
	Type        EventType   `json:"type"`
	WorkspaceID string      `json:"workspaceId"`
	Payload     interface{} `json:"payload,omitempty"`
	OccurredAt  time.Time   `json:"occurredAt"`
}
