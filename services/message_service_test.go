package services

import (
	"log/slog"
	"testing"
	"time"

	"chat-relay/domain/chat"
	"chat-relay/errors"
	"chat-relay/moderation"
	"chat-relay/repositories"

	"github.com/dgraph-io/badger/v4"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *badger.DB {
	t.Helper()
	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).WithLoggingLevel(badger.ERROR))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func newMessageService(t *testing.T, censor *moderation.Censor) (*MessageService, repositories.GroupRepository) {
	t.Helper()
	db := openTestDB(t)
	log := slog.Default()
	groups := repositories.NewGroupRepository(db, log)
	service := NewMessageService(
		repositories.NewMessageRepository(db, log),
		repositories.NewGroupMessageRepository(db, log),
		groups,
		censor,
		log,
	)
	return service, groups
}

func Test_Send_Direct_Applies_Censor(t *testing.T) {
	req := require.New(t)
	censor, err := moderation.NewCensor([]string{"noob"}, '*')
	req.NoError(err)
	service, _ := newMessageService(t, censor)

	msg, err := service.SendDirect(chat.SendDirectCommand{
		SenderID: "alice", ReceiverID: "bob", Content: "what a n00b move",
	})
	req.NoError(err)
	req.Equal("what a **** move", msg.Content)
	req.NotEmpty(msg.ID)
	req.Empty(msg.Likes)
}

func Test_Send_Direct_Rejects_Incomplete_Command(t *testing.T) {
	req := require.New(t)
	service, _ := newMessageService(t, nil)

	_, err := service.SendDirect(chat.SendDirectCommand{SenderID: "alice"})
	req.ErrorIs(err, errors.ErrInvalidArgument)
}

func Test_Send_Group_Requires_Membership(t *testing.T) {
	req := require.New(t)
	service, groups := newMessageService(t, nil)

	group, err := groups.Save(chat.Group{
		Name: "team", Members: []string{"alice"}, Admins: []string{"alice"}, Banned: []string{}, CreatedAt: time.Now().UTC(),
	})
	req.NoError(err)

	_, _, err = service.SendGroup(chat.SendGroupCommand{
		GroupID: group.ID, SenderID: "mallory", Content: "let me in",
	})
	req.ErrorIs(err, errors.ErrNotAMember)

	msg, fetched, err := service.SendGroup(chat.SendGroupCommand{
		GroupID: group.ID, SenderID: "alice", Content: "hello",
	})
	req.NoError(err)
	req.Equal(group.ID, msg.GroupID)
	req.Equal(group.ID, fetched.ID)
}

func Test_Toggle_Like_Is_An_Involution(t *testing.T) {
	req := require.New(t)
	service, _ := newMessageService(t, nil)

	msg, err := service.SendDirect(chat.SendDirectCommand{
		SenderID: "alice", ReceiverID: "bob", Content: "hi",
	})
	req.NoError(err)

	result, err := service.ToggleLike(chat.ToggleLikeCommand{MessageID: msg.ID, Actor: "bob"})
	req.NoError(err)
	req.Equal([]string{"bob"}, result.Likes)
	req.Equal("bob", result.ReceiverID)

	result, err = service.ToggleLike(chat.ToggleLikeCommand{MessageID: msg.ID, Actor: "bob"})
	req.NoError(err)
	req.Empty(result.Likes)
}

func Test_Sender_Delete_Removes_For_Everyone(t *testing.T) {
	req := require.New(t)
	service, _ := newMessageService(t, nil)

	msg, err := service.SendDirect(chat.SendDirectCommand{
		SenderID: "alice", ReceiverID: "bob", Content: "oops",
	})
	req.NoError(err)

	result, err := service.Delete(chat.DeleteMessageCommand{MessageID: msg.ID, Actor: "alice"})
	req.NoError(err)
	req.True(result.DeletedBy.ForEveryone)

	// The record is gone, so nobody can like it anymore.
	_, err = service.ToggleLike(chat.ToggleLikeCommand{MessageID: msg.ID, Actor: "bob"})
	req.ErrorIs(err, errors.ErrMessageNotFound)

	history, err := service.HistoryBetween("bob", "alice")
	req.NoError(err)
	req.Empty(history)
}

func Test_Receiver_Delete_Hides_And_Strips_Like(t *testing.T) {
	req := require.New(t)
	service, _ := newMessageService(t, nil)

	msg, err := service.SendDirect(chat.SendDirectCommand{
		SenderID: "alice", ReceiverID: "bob", Content: "keep this",
	})
	req.NoError(err)

	_, err = service.ToggleLike(chat.ToggleLikeCommand{MessageID: msg.ID, Actor: "bob"})
	req.NoError(err)

	result, err := service.Delete(chat.DeleteMessageCommand{MessageID: msg.ID, Actor: "bob"})
	req.NoError(err)
	req.False(result.DeletedBy.ForEveryone)
	req.True(result.DeletedBy.HiddenFrom("bob"))
	req.Empty(result.Likes)

	// Repeating the delete changes nothing.
	again, err := service.Delete(chat.DeleteMessageCommand{MessageID: msg.ID, Actor: "bob"})
	req.NoError(err)
	req.Equal(result.DeletedBy, again.DeletedBy)

	// bob can no longer like the record he hid from himself.
	_, err = service.ToggleLike(chat.ToggleLikeCommand{MessageID: msg.ID, Actor: "bob"})
	req.ErrorIs(err, errors.ErrMessageDeleted)

	// The sender still sees and can like the record.
	forAlice, err := service.HistoryBetween("alice", "bob")
	req.NoError(err)
	req.Len(forAlice, 1)
	_, err = service.ToggleLike(chat.ToggleLikeCommand{MessageID: msg.ID, Actor: "alice"})
	req.NoError(err)
}

func Test_Group_Message_Tiered_Delete(t *testing.T) {
	req := require.New(t)
	service, groups := newMessageService(t, nil)

	group, err := groups.Save(chat.Group{
		Name: "team", Members: []string{"alice", "bob", "carol"}, Admins: []string{"alice"}, Banned: []string{}, CreatedAt: time.Now().UTC(),
	})
	req.NoError(err)

	msg, _, err := service.SendGroup(chat.SendGroupCommand{
		GroupID: group.ID, SenderID: "alice", Content: "hello team",
	})
	req.NoError(err)

	// bob hides it for himself only.
	result, err := service.Delete(chat.DeleteMessageCommand{MessageID: msg.ID, Actor: "bob", IsGroup: true})
	req.NoError(err)
	req.False(result.DeletedBy.ForEveryone)

	forCarol, err := service.GroupHistory(group.ID, "carol")
	req.NoError(err)
	req.Len(forCarol, 1)

	// The sender removes the record outright.
	result, err = service.Delete(chat.DeleteMessageCommand{MessageID: msg.ID, Actor: "alice", IsGroup: true})
	req.NoError(err)
	req.True(result.DeletedBy.ForEveryone)

	forCarol, err = service.GroupHistory(group.ID, "carol")
	req.NoError(err)
	req.Empty(forCarol)
}
