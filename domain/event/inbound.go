package event

// Inbound tags accepted by the dispatch loop.
const (
	InDirectMessage = "message"
	InGroupMessage  = "group_message"
	InCreateGroup   = "create_group"
	InAddMember     = "add_member"
	InRemoveMember  = "remove_member"
	InPromoteAdmin  = "promote_admin"
	InExitGroup     = "exit_group"
	InLike          = "like"
	InDelete        = "delete"
)

// Envelope is the superset of fields a client may send in one event.
// Which fields matter depends on Type; the dispatcher extracts them into a
// command and validation happens there, not here.
type Envelope struct {
	Type string `json:"type"`

	// message
	ReceiverID string `json:"receiver_id,omitempty"`
	Content    string `json:"content,omitempty"`

	// group administration (groupId is the historical field name)
	GroupID string `json:"groupId,omitempty"`
	UserID  string `json:"userId,omitempty"`

	// create_group
	GroupName string   `json:"groupName,omitempty"`
	Creator   string   `json:"creator,omitempty"`
	Members   []string `json:"members,omitempty"`

	// like / delete. Clients also send a group_id hint here; it is ignored,
	// the affected group always comes from the stored record.
	MessageID string `json:"message_id,omitempty"`
	IsGroup   bool   `json:"is_group,omitempty"`
}
