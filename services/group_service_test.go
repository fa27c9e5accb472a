package services

import (
	"log/slog"
	"testing"

	"chat-relay/domain/chat"
	"chat-relay/errors"
	"chat-relay/mocks"
	"chat-relay/repositories"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func newGroupService(t *testing.T) *GroupService {
	t.Helper()
	return NewGroupService(repositories.NewGroupRepository(openTestDB(t), slog.Default()), slog.Default())
}

func Test_Create_Group_Creator_Is_Sole_Admin(t *testing.T) {
	req := require.New(t)
	service := newGroupService(t)

	group, err := service.Create(chat.CreateGroupCommand{
		Name:    "team",
		Creator: "alice",
		Members: []string{"Bob", "alice", "carol "},
	})
	req.NoError(err)
	req.Equal([]string{"alice", "bob", "carol"}, group.Members)
	req.Equal([]string{"alice"}, group.Admins)
	req.Empty(group.Banned)
}

func Test_Add_Member_Requires_Admin(t *testing.T) {
	req := require.New(t)
	service := newGroupService(t)

	group, err := service.Create(chat.CreateGroupCommand{
		Name: "team", Creator: "alice", Members: []string{"bob"},
	})
	req.NoError(err)

	_, _, err = service.AddMember(chat.AddMemberCommand{
		GroupID: group.ID, Actor: "bob", Target: "carol",
	})
	req.ErrorIs(err, errors.ErrNotAdmin)

	updated, changed, err := service.AddMember(chat.AddMemberCommand{
		GroupID: group.ID, Actor: "alice", Target: "carol",
	})
	req.NoError(err)
	req.True(changed)
	req.Contains(updated.Members, "carol")

	// Re-adding an existing member is a no-op.
	_, changed, err = service.AddMember(chat.AddMemberCommand{
		GroupID: group.ID, Actor: "alice", Target: "carol",
	})
	req.NoError(err)
	req.False(changed)
}

func Test_Remove_Member_Bans_And_Add_Unbans(t *testing.T) {
	req := require.New(t)
	service := newGroupService(t)

	group, err := service.Create(chat.CreateGroupCommand{
		Name: "team", Creator: "alice", Members: []string{"bob"},
	})
	req.NoError(err)

	// Promote then remove: removal strips admin too.
	_, _, err = service.PromoteAdmin(chat.PromoteAdminCommand{
		GroupID: group.ID, Actor: "alice", Target: "bob",
	})
	req.NoError(err)

	updated, changed, err := service.RemoveMember(chat.RemoveMemberCommand{
		GroupID: group.ID, Actor: "alice", Target: "bob",
	})
	req.NoError(err)
	req.True(changed)
	req.NotContains(updated.Members, "bob")
	req.NotContains(updated.Admins, "bob")
	req.Contains(updated.Banned, "bob")

	// Removing a non-member changes nothing.
	_, changed, err = service.RemoveMember(chat.RemoveMemberCommand{
		GroupID: group.ID, Actor: "alice", Target: "bob",
	})
	req.NoError(err)
	req.False(changed)

	// Adding the banned target back lifts the ban.
	updated, changed, err = service.AddMember(chat.AddMemberCommand{
		GroupID: group.ID, Actor: "alice", Target: "bob",
	})
	req.NoError(err)
	req.True(changed)
	req.Contains(updated.Members, "bob")
	req.NotContains(updated.Banned, "bob")
}

func Test_Promote_Admin_Noop_Cases(t *testing.T) {
	req := require.New(t)
	service := newGroupService(t)

	group, err := service.Create(chat.CreateGroupCommand{
		Name: "team", Creator: "alice", Members: []string{"bob"},
	})
	req.NoError(err)

	// Promoting a non-member does nothing.
	_, changed, err := service.PromoteAdmin(chat.PromoteAdminCommand{
		GroupID: group.ID, Actor: "alice", Target: "carol",
	})
	req.NoError(err)
	req.False(changed)

	// Promoting an existing admin does nothing.
	_, changed, err = service.PromoteAdmin(chat.PromoteAdminCommand{
		GroupID: group.ID, Actor: "alice", Target: "alice",
	})
	req.NoError(err)
	req.False(changed)
}

func Test_Exit_Auto_Promotes_Replacement_Admin(t *testing.T) {
	req := require.New(t)
	service := newGroupService(t)

	group, err := service.Create(chat.CreateGroupCommand{
		Name: "team", Creator: "alice", Members: []string{"bob", "carol"},
	})
	req.NoError(err)

	updated, err := service.Exit(chat.ExitGroupCommand{GroupID: group.ID, Actor: "alice"})
	req.NoError(err)
	req.NotContains(updated.Members, "alice")
	req.NotContains(updated.Admins, "alice")
	// The first remaining member inherits the admin role.
	req.Equal([]string{"bob"}, updated.Admins)
}

func Test_Exit_Rejected_For_Last_Admin_And_Member(t *testing.T) {
	req := require.New(t)
	service := newGroupService(t)

	group, err := service.Create(chat.CreateGroupCommand{
		Name: "solo", Creator: "alice",
	})
	req.NoError(err)

	_, err = service.Exit(chat.ExitGroupCommand{GroupID: group.ID, Actor: "alice"})
	req.ErrorIs(err, errors.ErrLastAdminAndMember)

	// The failed exit left the group untouched.
	unchanged, err := service.Find(group.ID)
	req.NoError(err)
	req.Equal([]string{"alice"}, unchanged.Members)
	req.Equal([]string{"alice"}, unchanged.Admins)
}

func Test_Exit_By_Non_Member(t *testing.T) {
	req := require.New(t)
	service := newGroupService(t)

	group, err := service.Create(chat.CreateGroupCommand{
		Name: "team", Creator: "alice",
	})
	req.NoError(err)

	_, err = service.Exit(chat.ExitGroupCommand{GroupID: group.ID, Actor: "mallory"})
	req.ErrorIs(err, errors.ErrNotAMember)
}

func Test_Transition_On_Missing_Group(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	groups := mocks.NewMockIGroupRepository(ctrl)
	service := NewGroupService(groups, slog.Default())

	groups.EXPECT().FindByID("ghost").Return(chat.Group{}, errors.ErrGroupNotFound).Times(2)

	_, _, err := service.AddMember(chat.AddMemberCommand{GroupID: "ghost", Actor: "alice", Target: "bob"})
	req.ErrorIs(err, errors.ErrGroupNotFound)

	_, err = service.Exit(chat.ExitGroupCommand{GroupID: "ghost", Actor: "alice"})
	req.ErrorIs(err, errors.ErrGroupNotFound)
}
