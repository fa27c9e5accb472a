package chat

// Commands are the validated inputs of the chat services. Transport code
// builds them from inbound events after normalizing every identity field.

type SendDirectCommand struct {
	SenderID   string `validate:"required"`
	ReceiverID string `validate:"required"`
	Content    string `validate:"required"`
}

type SendGroupCommand struct {
	SenderID string `validate:"required"`
	GroupID  string `validate:"required"`
	Content  string `validate:"required"`
}

type CreateGroupCommand struct {
	Name    string `validate:"required"`
	Creator string `validate:"required"`
	Members []string
}

type AddMemberCommand struct {
	GroupID string `validate:"required"`
	Actor   string `validate:"required"`
	Target  string `validate:"required"`
}

type RemoveMemberCommand struct {
	GroupID string `validate:"required"`
	Actor   string `validate:"required"`
	Target  string `validate:"required"`
}

type PromoteAdminCommand struct {
	GroupID string `validate:"required"`
	Actor   string `validate:"required"`
	Target  string `validate:"required"`
}

type ExitGroupCommand struct {
	GroupID string `validate:"required"`
	Actor   string `validate:"required"`
}

type ToggleLikeCommand struct {
	MessageID string `validate:"required"`
	Actor     string `validate:"required"`
	IsGroup   bool
}

type DeleteMessageCommand struct {
	MessageID string `validate:"required"`
	Actor     string `validate:"required"`
	IsGroup   bool
}
