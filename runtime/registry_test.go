package runtime

import (
	"errors"
	"log/slog"
	"testing"

	"chat-relay/mocks"
	"chat-relay/observability"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

var errBroken = errors.New("broken pipe")

func newRegistry() *Registry {
	return NewRegistry(&observability.Stats{}, slog.Default())
}

func Test_Connect_And_Snapshot(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	registry := newRegistry()

	registry.Connect("Bob ", mocks.NewMockEventSink(ctrl))
	registry.Connect("alice", mocks.NewMockEventSink(ctrl))

	req.True(registry.IsOnline("bob"))
	req.True(registry.IsOnline("ALICE"))
	req.False(registry.IsOnline("carol"))
	req.Equal([]string{"alice", "bob"}, registry.OnlineSnapshot())

	registry.Disconnect("bob")
	registry.Disconnect("bob") // absent, no-op
	req.Equal([]string{"alice"}, registry.OnlineSnapshot())
}

func Test_Reconnect_Replaces_Previous_Sink(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	registry := newRegistry()

	stale := mocks.NewMockEventSink(ctrl)
	fresh := mocks.NewMockEventSink(ctrl)
	registry.Connect("alice", stale)
	registry.Connect("alice", fresh)

	fresh.EXPECT().Deliver("ping").Return(nil)
	req.NoError(registry.Send("alice", "ping"))
	req.Equal([]string{"alice"}, registry.OnlineSnapshot())
}

func Test_Release_Ignores_Stale_Connection(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	registry := newRegistry()

	stale := mocks.NewMockEventSink(ctrl)
	fresh := mocks.NewMockEventSink(ctrl)
	registry.Connect("alice", stale)
	registry.Connect("alice", fresh)

	// The replaced loop's teardown must not evict the fresh entry.
	req.False(registry.Release("alice", stale))
	req.True(registry.IsOnline("alice"))

	req.True(registry.Release("alice", fresh))
	req.False(registry.IsOnline("alice"))
}

func Test_Send_To_Offline_Identity(t *testing.T) {
	req := require.New(t)
	registry := newRegistry()

	// An offline recipient just misses the live event.
	req.NoError(registry.Send("ghost", "ping"))
}

func Test_Send_Failure_Drops_Connection(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	registry := newRegistry()

	sink := mocks.NewMockEventSink(ctrl)
	sink.EXPECT().Deliver("ping").Return(errBroken)
	registry.Connect("alice", sink)

	req.Error(registry.Send("alice", "ping"))
	req.False(registry.IsOnline("alice"))
}

func Test_Broadcast_Survives_Partial_Failure(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	registry := newRegistry()

	healthy := mocks.NewMockEventSink(ctrl)
	broken := mocks.NewMockEventSink(ctrl)
	healthy.EXPECT().Deliver("ping").Return(nil)
	broken.EXPECT().Deliver("ping").Return(errBroken)
	registry.Connect("alice", healthy)
	registry.Connect("bob", broken)

	registry.Broadcast("ping")

	req.True(registry.IsOnline("alice"))
	req.False(registry.IsOnline("bob"))
}
