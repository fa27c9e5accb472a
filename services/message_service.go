package services

import (
	"log/slog"
	"time"

	"chat-relay/domain/chat"
	"chat-relay/errors"
	"chat-relay/moderation"
	"chat-relay/repositories"

	"github.com/samber/lo"
)

type IMessageService interface {
	SendDirect(cmd chat.SendDirectCommand) (chat.DirectMessage, error)
	SendGroup(cmd chat.SendGroupCommand) (chat.GroupMessage, chat.Group, error)
	ToggleLike(cmd chat.ToggleLikeCommand) (MutationResult, error)
	Delete(cmd chat.DeleteMessageCommand) (MutationResult, error)
	HistoryBetween(viewer, other string) ([]chat.DirectMessage, error)
	GroupHistory(groupID, viewer string) ([]chat.GroupMessage, error)
}

// MutationResult is the routing view of a mutated message: enough for the
// dispatcher to build like_update/delete_update events and decide who hears
// about them, without re-reading the store.
type MutationResult struct {
	MessageID  string
	Likes      []string
	DeletedBy  chat.Deletion
	SenderID   string
	ReceiverID string // direct messages only
	GroupID    string // group messages only
}

// MessageService applies the like-toggle and tiered-delete semantics on top
// of the repositories. Every mutation re-reads the record first; Badger's
// per-key atomicity is the consistency unit.
type MessageService struct {
	messages      repositories.IMessageRepository
	groupMessages repositories.IGroupMessageRepository
	groups        repositories.IGroupRepository
	censor        *moderation.Censor
	log           *slog.Logger
}

func NewMessageService(
	messages repositories.IMessageRepository,
	groupMessages repositories.IGroupMessageRepository,
	groups repositories.IGroupRepository,
	censor *moderation.Censor,
	log *slog.Logger,
) *MessageService {
	return &MessageService{
		messages:      messages,
		groupMessages: groupMessages,
		groups:        groups,
		censor:        censor,
		log:           log,
	}
}

func (s *MessageService) SendDirect(cmd chat.SendDirectCommand) (chat.DirectMessage, error) {
	if err := validateCommand(cmd); err != nil {
		return chat.DirectMessage{}, err
	}
	msg := chat.DirectMessage{
		SenderID:   cmd.SenderID,
		ReceiverID: cmd.ReceiverID,
		Content:    s.censor.Clean(cmd.Content),
		Timestamp:  time.Now().UTC(),
		Likes:      []string{},
	}
	saved, err := s.messages.Save(msg)
	if err != nil {
		return chat.DirectMessage{}, err
	}
	s.log.Debug("direct message stored", "id", saved.ID, "sender", saved.SenderID, "receiver", saved.ReceiverID)
	return saved, nil
}

// SendGroup persists a group message after checking the sender still belongs
// to the group, and returns the group so the caller can fan out to members.
func (s *MessageService) SendGroup(cmd chat.SendGroupCommand) (chat.GroupMessage, chat.Group, error) {
	if err := validateCommand(cmd); err != nil {
		return chat.GroupMessage{}, chat.Group{}, err
	}
	group, err := s.groups.FindByID(cmd.GroupID)
	if err != nil {
		return chat.GroupMessage{}, chat.Group{}, err
	}
	if !group.IsMember(cmd.SenderID) {
		return chat.GroupMessage{}, chat.Group{}, errors.ErrNotAMember
	}
	msg := chat.GroupMessage{
		GroupID:   cmd.GroupID,
		SenderID:  cmd.SenderID,
		Content:   s.censor.Clean(cmd.Content),
		Timestamp: time.Now().UTC(),
		Likes:     []string{},
	}
	saved, err := s.groupMessages.Save(msg)
	if err != nil {
		return chat.GroupMessage{}, chat.Group{}, err
	}
	s.log.Debug("group message stored", "id", saved.ID, "group", saved.GroupID, "sender", saved.SenderID)
	return saved, group, nil
}

// ToggleLike flips the actor's like on a message. Liking a message that is
// deleted for everyone or hidden from the actor is rejected.
func (s *MessageService) ToggleLike(cmd chat.ToggleLikeCommand) (MutationResult, error) {
	if err := validateCommand(cmd); err != nil {
		return MutationResult{}, err
	}
	if cmd.IsGroup {
		msg, err := s.groupMessages.FindByID(cmd.MessageID)
		if err != nil {
			return MutationResult{}, err
		}
		if msg.DeletedBy.HiddenFrom(cmd.Actor) {
			return MutationResult{}, errors.ErrMessageDeleted
		}
		msg.Likes = chat.ToggleLike(msg.Likes, cmd.Actor)
		if err := s.groupMessages.Update(msg); err != nil {
			return MutationResult{}, err
		}
		return MutationResult{
			MessageID: msg.ID,
			Likes:     msg.Likes,
			DeletedBy: msg.DeletedBy,
			SenderID:  msg.SenderID,
			GroupID:   msg.GroupID,
		}, nil
	}

	msg, err := s.messages.FindByID(cmd.MessageID)
	if err != nil {
		return MutationResult{}, err
	}
	if msg.DeletedBy.HiddenFrom(cmd.Actor) {
		return MutationResult{}, errors.ErrMessageDeleted
	}
	msg.Likes = chat.ToggleLike(msg.Likes, cmd.Actor)
	if err := s.messages.Update(msg); err != nil {
		return MutationResult{}, err
	}
	return MutationResult{
		MessageID:  msg.ID,
		Likes:      msg.Likes,
		DeletedBy:  msg.DeletedBy,
		SenderID:   msg.SenderID,
		ReceiverID: msg.ReceiverID,
	}, nil
}

// Delete applies the tiered delete:
//   - the sender removes the record for everyone (physical delete; the
//     response reports the terminal deleted-for-all state)
//   - anyone else only hides the record from themselves, losing their like in
//     the process; repeating the operation is a no-op
func (s *MessageService) Delete(cmd chat.DeleteMessageCommand) (MutationResult, error) {
	if err := validateCommand(cmd); err != nil {
		return MutationResult{}, err
	}
	if cmd.IsGroup {
		return s.deleteGroupMessage(cmd)
	}
	return s.deleteDirectMessage(cmd)
}

func (s *MessageService) deleteDirectMessage(cmd chat.DeleteMessageCommand) (MutationResult, error) {
	msg, err := s.messages.FindByID(cmd.MessageID)
	if err != nil {
		return MutationResult{}, err
	}
	if cmd.Actor == msg.SenderID {
		if err := s.messages.Delete(msg.ID); err != nil {
			return MutationResult{}, err
		}
		s.log.Info("direct message deleted for everyone", "id", msg.ID, "sender", msg.SenderID)
		return MutationResult{
			MessageID:  msg.ID,
			Likes:      msg.Likes,
			DeletedBy:  chat.DeletedForAll(),
			SenderID:   msg.SenderID,
			ReceiverID: msg.ReceiverID,
		}, nil
	}
	if msg.DeletedBy.Hide(cmd.Actor) {
		msg.Likes = lo.Without(msg.Likes, cmd.Actor)
		if err := s.messages.Update(msg); err != nil {
			return MutationResult{}, err
		}
	}
	return MutationResult{
		MessageID:  msg.ID,
		Likes:      msg.Likes,
		DeletedBy:  msg.DeletedBy,
		SenderID:   msg.SenderID,
		ReceiverID: msg.ReceiverID,
	}, nil
}

func (s *MessageService) deleteGroupMessage(cmd chat.DeleteMessageCommand) (MutationResult, error) {
	msg, err := s.groupMessages.FindByID(cmd.MessageID)
	if err != nil {
		return MutationResult{}, err
	}
	if cmd.Actor == msg.SenderID {
		if err := s.groupMessages.Delete(msg.ID); err != nil {
			return MutationResult{}, err
		}
		s.log.Info("group message deleted for everyone", "id", msg.ID, "group", msg.GroupID)
		return MutationResult{
			MessageID: msg.ID,
			Likes:     msg.Likes,
			DeletedBy: chat.DeletedForAll(),
			SenderID:  msg.SenderID,
			GroupID:   msg.GroupID,
		}, nil
	}
	if msg.DeletedBy.Hide(cmd.Actor) {
		msg.Likes = lo.Without(msg.Likes, cmd.Actor)
		if err := s.groupMessages.Update(msg); err != nil {
			return MutationResult{}, err
		}
	}
	return MutationResult{
		MessageID: msg.ID,
		Likes:     msg.Likes,
		DeletedBy: msg.DeletedBy,
		SenderID:  msg.SenderID,
		GroupID:   msg.GroupID,
	}, nil
}

func (s *MessageService) HistoryBetween(viewer, other string) ([]chat.DirectMessage, error) {
	return s.messages.ListBetween(viewer, other)
}

func (s *MessageService) GroupHistory(groupID, viewer string) ([]chat.GroupMessage, error) {
	return s.groupMessages.ListForGroup(groupID, viewer)
}
