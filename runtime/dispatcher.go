package runtime

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"chat-relay/contract"
	"chat-relay/domain/chat"
	"chat-relay/domain/event"
	"chat-relay/errors"
	"chat-relay/observability"
	"chat-relay/services"

	"github.com/samber/lo"
)

// Dispatcher drives the per-connection protocol loop. One Run call owns one
// authenticated connection: it registers presence, then reads and handles
// inbound events strictly one at a time until the transport dies. Handler
// failures are reported back to the originating connection only and never end
// the loop; the only fatal conditions are transport-level.
type Dispatcher struct {
	registry *Registry
	messages services.IMessageService
	groups   services.IGroupService
	stats    *observability.Stats
	log      *slog.Logger
}

func NewDispatcher(
	registry *Registry,
	messages services.IMessageService,
	groups services.IGroupService,
	stats *observability.Stats,
	log *slog.Logger,
) *Dispatcher {
	return &Dispatcher{
		registry: registry,
		messages: messages,
		groups:   groups,
		stats:    stats,
		log:      log,
	}
}

// Run blocks until the connection disconnects. The caller must have completed
// the authenticated handshake; identity is the verified claim.
func (d *Dispatcher) Run(identity string, conn contract.Connection) {
	identity = chat.NormalizeIdentity(identity)
	d.registry.Connect(identity, conn)
	defer func() {
		// A reconnect may already have replaced this connection's entry; the
		// offline broadcast belongs to whichever loop still owns it.
		if d.registry.Release(identity, conn) {
			d.registry.Broadcast(event.NewStatus(identity, event.StatusOffline))
		}
	}()

	// The newcomer learns who is online, everyone learns about the newcomer.
	if err := d.registry.Send(identity, event.NewInitialStatus(d.registry.OnlineSnapshot())); err != nil {
		return
	}
	d.registry.Broadcast(event.NewStatus(identity, event.StatusOnline))

	for {
		data, err := conn.ReadEvent()
		if err != nil {
			d.log.Debug("connection closed", "user", identity, "error", err)
			return
		}
		var env event.Envelope
		if err := json.Unmarshal(data, &env); err != nil {
			d.sendError(identity, "invalid event payload")
			continue
		}
		d.stats.EventsHandled.Add(1)
		if err := d.dispatch(identity, env); err != nil {
			d.stats.HandlerErrors.Add(1)
			d.log.Warn("event handling failed", "user", identity, "event", env.Type, "error", err)
			d.sendError(identity, err.Error())
		}
	}
}

func (d *Dispatcher) dispatch(identity string, env event.Envelope) error {
	switch env.Type {
	case event.InDirectMessage:
		return d.handleDirectMessage(identity, env)
	case event.InGroupMessage:
		return d.handleGroupMessage(identity, env)
	case event.InCreateGroup:
		return d.handleCreateGroup(identity, env)
	case event.InAddMember:
		return d.handleAddMember(identity, env)
	case event.InRemoveMember:
		return d.handleRemoveMember(identity, env)
	case event.InPromoteAdmin:
		return d.handlePromoteAdmin(identity, env)
	case event.InExitGroup:
		return d.handleExitGroup(identity, env)
	case event.InLike:
		return d.handleLike(identity, env)
	case event.InDelete:
		return d.handleDelete(identity, env)
	default:
		return fmt.Errorf("%w: unknown event type %q", errors.ErrInvalidArgument, env.Type)
	}
}

func (d *Dispatcher) handleDirectMessage(identity string, env event.Envelope) error {
	saved, err := d.messages.SendDirect(chat.SendDirectCommand{
		SenderID:   identity,
		ReceiverID: chat.NormalizeIdentity(env.ReceiverID),
		Content:    env.Content,
	})
	if err != nil {
		return err
	}
	// A failed send disconnects that recipient; it is not the actor's error.
	out := event.NewDirectMessage(saved)
	for _, uid := range lo.Uniq([]string{saved.SenderID, saved.ReceiverID}) {
		_ = d.registry.Send(uid, out)
	}
	return nil
}

func (d *Dispatcher) handleGroupMessage(identity string, env event.Envelope) error {
	saved, group, err := d.messages.SendGroup(chat.SendGroupCommand{
		SenderID: identity,
		GroupID:  chat.NormalizeIdentity(env.GroupID),
		Content:  env.Content,
	})
	if err != nil {
		return err
	}
	d.fanOutToMembers(group, event.NewGroupMessage(saved))
	return nil
}

func (d *Dispatcher) handleCreateGroup(identity string, env event.Envelope) error {
	group, err := d.groups.Create(chat.CreateGroupCommand{
		Name:    env.GroupName,
		Creator: identity,
		Members: env.Members,
	})
	if err != nil {
		return err
	}
	created := event.NewGroupCreated(group)
	added := event.NewGroupAdded(group)
	for _, member := range group.Members {
		_ = d.registry.Send(member, created)
		// Everyone but the creator also learns they were put into the group.
		if member != identity {
			_ = d.registry.Send(member, added)
		}
	}
	return nil
}

func (d *Dispatcher) handleAddMember(identity string, env event.Envelope) error {
	target := chat.NormalizeIdentity(env.UserID)
	group, changed, err := d.groups.AddMember(chat.AddMemberCommand{
		GroupID: chat.NormalizeIdentity(env.GroupID),
		Actor:   identity,
		Target:  target,
	})
	if err != nil {
		return err
	}
	if !changed {
		return nil
	}
	_ = d.registry.Send(target, event.NewGroupAdded(group))
	d.fanOutToMembers(group, event.NewGroupUpdated(group))
	return nil
}

func (d *Dispatcher) handleRemoveMember(identity string, env event.Envelope) error {
	target := chat.NormalizeIdentity(env.UserID)
	group, changed, err := d.groups.RemoveMember(chat.RemoveMemberCommand{
		GroupID: chat.NormalizeIdentity(env.GroupID),
		Actor:   identity,
		Target:  target,
	})
	if err != nil {
		return err
	}
	if !changed {
		return nil
	}
	_ = d.registry.Send(target, event.NewGroupRemoved(group.ID))
	d.fanOutToMembers(group, event.NewGroupUpdated(group))
	return nil
}

func (d *Dispatcher) handlePromoteAdmin(identity string, env event.Envelope) error {
	group, changed, err := d.groups.PromoteAdmin(chat.PromoteAdminCommand{
		GroupID: chat.NormalizeIdentity(env.GroupID),
		Actor:   identity,
		Target:  chat.NormalizeIdentity(env.UserID),
	})
	if err != nil {
		return err
	}
	if changed {
		d.fanOutToMembers(group, event.NewGroupUpdated(group))
	}
	return nil
}

func (d *Dispatcher) handleExitGroup(identity string, env event.Envelope) error {
	group, err := d.groups.Exit(chat.ExitGroupCommand{
		GroupID: chat.NormalizeIdentity(env.GroupID),
		Actor:   identity,
	})
	if err != nil {
		return err
	}
	d.fanOutToMembers(group, event.NewGroupUpdated(group))
	_ = d.registry.Send(identity, event.NewGroupExited(group.ID))
	return nil
}

func (d *Dispatcher) handleLike(identity string, env event.Envelope) error {
	result, err := d.messages.ToggleLike(chat.ToggleLikeCommand{
		MessageID: env.MessageID,
		Actor:     identity,
		IsGroup:   env.IsGroup,
	})
	if err != nil {
		return err
	}
	d.routeMutation(result, event.NewLikeUpdate(result.MessageID, result.Likes))
	return nil
}

func (d *Dispatcher) handleDelete(identity string, env event.Envelope) error {
	result, err := d.messages.Delete(chat.DeleteMessageCommand{
		MessageID: env.MessageID,
		Actor:     identity,
		IsGroup:   env.IsGroup,
	})
	if err != nil {
		return err
	}
	d.routeMutation(result, event.NewDeleteUpdate(result.MessageID, result.DeletedBy, result.Likes))
	return nil
}

// routeMutation fans a like/delete update out to the identities affected by
// the mutated message: both ends of a direct conversation, or every current
// member of the message's group.
func (d *Dispatcher) routeMutation(result services.MutationResult, payload any) {
	if result.GroupID == "" {
		for _, uid := range lo.Uniq([]string{result.SenderID, result.ReceiverID}) {
			_ = d.registry.Send(uid, payload)
		}
		return
	}
	group, err := d.groups.Find(result.GroupID)
	if err != nil {
		d.log.Warn("mutation fan-out skipped, group unavailable", "group", result.GroupID, "error", err)
		return
	}
	d.fanOutToMembers(group, payload)
}

func (d *Dispatcher) fanOutToMembers(group chat.Group, payload any) {
	for _, member := range group.Members {
		_ = d.registry.Send(member, payload)
	}
}

func (d *Dispatcher) sendError(identity string, message string) {
	_ = d.registry.Send(identity, event.NewError(message))
}
