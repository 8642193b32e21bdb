package models

// Event names carried on a user's live channel.
const (
	EventGroupMessage      = "group_message"
	EventDirectMessage     = "direct_message"
	EventUnreadCountUpdate = "unread_count_update"
)

// Event is the payload published on a per-user channel. Message events
// carry the persisted message; unread events carry the new counter value
// for one group (GroupID set) or one direct peer (UserID set). Unread
// events are coalescable: consumers keep only the last value and must not
// assume ordering relative to message events.
type Event struct {
	Type    string      `json:"type"`
	GroupID string      `json:"groupId,omitempty"`
	UserID  string      `json:"userId,omitempty"`
	Count   *int        `json:"count,omitempty"`
	Message interface{} `json:"message,omitempty"`
}

// GroupUnreadEvent builds an unread_count_update event for a group counter.
func GroupUnreadEvent(groupID string, count int) Event {
	return Event{Type: EventUnreadCountUpdate, GroupID: groupID, Count: &count}
}

// DirectUnreadEvent builds an unread_count_update event for a direct peer.
func DirectUnreadEvent(peerID string, count int) Event {
	return Event{Type: EventUnreadCountUpdate, UserID: peerID, Count: &count}
}
