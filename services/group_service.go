package services

import (
	"log/slog"
	"time"

	"chat-relay/domain/chat"
	"chat-relay/errors"
	"chat-relay/repositories"

	"github.com/samber/lo"
)

type IGroupService interface {
	Create(cmd chat.CreateGroupCommand) (chat.Group, error)
	AddMember(cmd chat.AddMemberCommand) (chat.Group, bool, error)
	RemoveMember(cmd chat.RemoveMemberCommand) (chat.Group, bool, error)
	PromoteAdmin(cmd chat.PromoteAdminCommand) (chat.Group, bool, error)
	Exit(cmd chat.ExitGroupCommand) (chat.Group, error)
	Find(groupID string) (chat.Group, error)
	GroupsForMember(identity string) ([]chat.Group, error)
}

// GroupService is the group membership state machine. Every transition
// re-reads the group document before mutating it, so no in-memory copy is
// ever authoritative; concurrent transitions on one group resolve
// last-write-wins at the document level.
//
// The bool returned by AddMember/RemoveMember/PromoteAdmin reports whether
// the transition changed anything; no-ops are not persisted and the caller
// skips notifications for them.
type GroupService struct {
	groups repositories.IGroupRepository
	log    *slog.Logger
}

func NewGroupService(groups repositories.IGroupRepository, log *slog.Logger) *GroupService {
	return &GroupService{groups: groups, log: log}
}

// Create builds a new group with the creator as sole admin. The creator is
// always a member regardless of the requested member list.
func (s *GroupService) Create(cmd chat.CreateGroupCommand) (chat.Group, error) {
	if err := validateCommand(cmd); err != nil {
		return chat.Group{}, err
	}
	members := chat.NormalizeIdentities(append([]string{cmd.Creator}, cmd.Members...))
	group := chat.Group{
		Name:      cmd.Name,
		Members:   members,
		Admins:    []string{cmd.Creator},
		Banned:    []string{},
		CreatedAt: time.Now().UTC(),
	}
	saved, err := s.groups.Save(group)
	if err != nil {
		return chat.Group{}, err
	}
	s.log.Info("group created", "id", saved.ID, "name", saved.Name, "creator", cmd.Creator, "members", len(saved.Members))
	return saved, nil
}

// AddMember adds target to the group. A banned target is silently un-banned;
// re-adding an existing member is a no-op.
func (s *GroupService) AddMember(cmd chat.AddMemberCommand) (chat.Group, bool, error) {
	if err := validateCommand(cmd); err != nil {
		return chat.Group{}, false, err
	}
	group, err := s.groups.FindByID(cmd.GroupID)
	if err != nil {
		return chat.Group{}, false, err
	}
	if !group.IsAdmin(cmd.Actor) {
		return chat.Group{}, false, errors.ErrNotAdmin
	}
	if group.IsMember(cmd.Target) {
		return group, false, nil
	}
	group.Banned = lo.Without(group.Banned, cmd.Target)
	group.Members = append(group.Members, cmd.Target)
	if err := s.groups.Update(group); err != nil {
		return chat.Group{}, false, err
	}
	s.log.Info("member added", "group", group.ID, "actor", cmd.Actor, "target", cmd.Target)
	return group, true, nil
}

// RemoveMember removes target from members and admins and bans them.
// Removing a non-member is a no-op.
func (s *GroupService) RemoveMember(cmd chat.RemoveMemberCommand) (chat.Group, bool, error) {
	if err := validateCommand(cmd); err != nil {
		return chat.Group{}, false, err
	}
	group, err := s.groups.FindByID(cmd.GroupID)
	if err != nil {
		return chat.Group{}, false, err
	}
	if !group.IsAdmin(cmd.Actor) {
		return chat.Group{}, false, errors.ErrNotAdmin
	}
	if !group.IsMember(cmd.Target) {
		return group, false, nil
	}
	group.Members = lo.Without(group.Members, cmd.Target)
	group.Admins = lo.Without(group.Admins, cmd.Target)
	group.Banned = append(group.Banned, cmd.Target)
	if err := s.groups.Update(group); err != nil {
		return chat.Group{}, false, err
	}
	s.log.Info("member removed", "group", group.ID, "actor", cmd.Actor, "target", cmd.Target)
	return group, true, nil
}

// PromoteAdmin grants admin to an existing member. Promoting a non-member or
// an existing admin is a no-op.
func (s *GroupService) PromoteAdmin(cmd chat.PromoteAdminCommand) (chat.Group, bool, error) {
	if err := validateCommand(cmd); err != nil {
		return chat.Group{}, false, err
	}
	group, err := s.groups.FindByID(cmd.GroupID)
	if err != nil {
		return chat.Group{}, false, err
	}
	if !group.IsAdmin(cmd.Actor) {
		return chat.Group{}, false, errors.ErrNotAdmin
	}
	if !group.IsMember(cmd.Target) || group.IsAdmin(cmd.Target) {
		return group, false, nil
	}
	group.Admins = append(group.Admins, cmd.Target)
	if err := s.groups.Update(group); err != nil {
		return chat.Group{}, false, err
	}
	s.log.Info("admin promoted", "group", group.ID, "actor", cmd.Actor, "target", cmd.Target)
	return group, true, nil
}

// Exit removes the actor from the group while keeping the admin invariant:
// a group with members always keeps at least one admin. When the sole admin
// leaves, the first remaining member is auto-promoted; when the sole admin is
// also the last member, the exit is rejected and the group is unchanged.
func (s *GroupService) Exit(cmd chat.ExitGroupCommand) (chat.Group, error) {
	if err := validateCommand(cmd); err != nil {
		return chat.Group{}, err
	}
	group, err := s.groups.FindByID(cmd.GroupID)
	if err != nil {
		return chat.Group{}, err
	}
	if !group.IsMember(cmd.Actor) {
		return chat.Group{}, errors.ErrNotAMember
	}
	if group.IsAdmin(cmd.Actor) && len(group.Admins) == 1 {
		others := lo.Without(group.Members, cmd.Actor)
		if len(others) == 0 {
			return chat.Group{}, errors.ErrLastAdminAndMember
		}
		group.Admins = append(group.Admins, others[0])
		s.log.Info("auto-promoted replacement admin", "group", group.ID, "promoted", others[0], "leaving", cmd.Actor)
	}
	group.Admins = lo.Without(group.Admins, cmd.Actor)
	group.Members = lo.Without(group.Members, cmd.Actor)
	if err := s.groups.Update(group); err != nil {
		return chat.Group{}, err
	}
	s.log.Info("member exited", "group", group.ID, "actor", cmd.Actor)
	return group, nil
}

func (s *GroupService) Find(groupID string) (chat.Group, error) {
	return s.groups.FindByID(groupID)
}

func (s *GroupService) GroupsForMember(identity string) ([]chat.Group, error) {
	return s.groups.ListForMember(chat.NormalizeIdentity(identity))
}
