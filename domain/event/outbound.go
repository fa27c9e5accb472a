package event

import (
	"chat-relay/domain/chat"
)

// Outbound tags pushed to connected clients.
const (
	OutInitialStatus = "initial_status"
	OutStatus        = "status"
	OutDirectMessage = "message"
	OutGroupMessage  = "group_message"
	OutLikeUpdate    = "like_update"
	OutDeleteUpdate  = "delete_update"
	OutGroupCreated  = "group_created"
	OutGroupAdded    = "group_added"
	OutGroupUpdated  = "group_updated"
	OutGroupRemoved  = "group_removed"
	OutGroupExited   = "group_exited"
	OutError         = "error"
)

const (
	StatusOnline  = "online"
	StatusOffline = "offline"
)

type InitialStatus struct {
	Type        string   `json:"type"`
	OnlineUsers []string `json:"online_users"`
}

func NewInitialStatus(online []string) InitialStatus {
	return InitialStatus{Type: OutInitialStatus, OnlineUsers: online}
}

type Status struct {
	Type   string `json:"type"`
	UserID string `json:"user_id"`
	Status string `json:"status"`
}

func NewStatus(identity, status string) Status {
	return Status{Type: OutStatus, UserID: identity, Status: status}
}

// DirectMessage spreads the stored record and adds the event tag.
type DirectMessage struct {
	chat.DirectMessage
	Type string `json:"type"`
}

func NewDirectMessage(msg chat.DirectMessage) DirectMessage {
	return DirectMessage{DirectMessage: msg, Type: OutDirectMessage}
}

// GroupMessage spreads the stored record and adds the tag plus the routing
// aliases clients expect ("from", "groupId").
type GroupMessage struct {
	chat.GroupMessage
	Type         string `json:"type"`
	From         string `json:"from"`
	GroupIDAlias string `json:"groupId"`
}

func NewGroupMessage(msg chat.GroupMessage) GroupMessage {
	return GroupMessage{
		GroupMessage: msg,
		Type:         OutGroupMessage,
		From:         msg.SenderID,
		GroupIDAlias: msg.GroupID,
	}
}

type LikeUpdate struct {
	Type      string   `json:"type"`
	MessageID string   `json:"message_id"`
	Likes     []string `json:"likes"`
}

func NewLikeUpdate(messageID string, likes []string) LikeUpdate {
	return LikeUpdate{Type: OutLikeUpdate, MessageID: messageID, Likes: likes}
}

type DeleteUpdate struct {
	Type      string        `json:"type"`
	MessageID string        `json:"message_id"`
	DeletedBy chat.Deletion `json:"deleted_by"`
	Likes     []string      `json:"likes"`
}

func NewDeleteUpdate(messageID string, deletedBy chat.Deletion, likes []string) DeleteUpdate {
	return DeleteUpdate{Type: OutDeleteUpdate, MessageID: messageID, DeletedBy: deletedBy, Likes: likes}
}

// GroupSnapshot carries a full refreshed group document.
type GroupSnapshot struct {
	Type  string     `json:"type"`
	Group chat.Group `json:"group"`
}

func NewGroupCreated(group chat.Group) GroupSnapshot {
	return GroupSnapshot{Type: OutGroupCreated, Group: group}
}

func NewGroupAdded(group chat.Group) GroupSnapshot {
	return GroupSnapshot{Type: OutGroupAdded, Group: group}
}

func NewGroupUpdated(group chat.Group) GroupSnapshot {
	return GroupSnapshot{Type: OutGroupUpdated, Group: group}
}

// GroupRef addresses a group without shipping the document, used when the
// recipient is no longer entitled to the full snapshot.
type GroupRef struct {
	Type    string `json:"type"`
	GroupID string `json:"groupId"`
}

func NewGroupRemoved(groupID string) GroupRef {
	return GroupRef{Type: OutGroupRemoved, GroupID: groupID}
}

func NewGroupExited(groupID string) GroupRef {
	return GroupRef{Type: OutGroupExited, GroupID: groupID}
}

type Error struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

func NewError(message string) Error {
	return Error{Type: OutError, Message: message}
}
