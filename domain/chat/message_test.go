package chat

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func Test_Deletion_Wire_Format(t *testing.T) {
	req := require.New(t)

	tests := []struct {
		name     string
		deletion Deletion
		expected string
	}{
		{"visible", Deletion{}, `[]`},
		{"hidden for one viewer", Deletion{Viewers: []string{"bob"}}, `["bob"]`},
		{"deleted for everyone", DeletedForAll(), `["*"]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := json.Marshal(tt.deletion)
			req.NoError(err)
			req.JSONEq(tt.expected, string(data))

			var parsed Deletion
			req.NoError(json.Unmarshal(data, &parsed))
			req.Equal(tt.deletion.ForEveryone, parsed.ForEveryone)
		})
	}
}

func Test_Deletion_Hide_Is_Idempotent(t *testing.T) {
	req := require.New(t)

	var d Deletion
	req.True(d.Hide("bob"))
	req.False(d.Hide("bob"))
	req.True(d.HiddenFrom("bob"))
	req.False(d.HiddenFrom("alice"))
}

func Test_ToggleLike_Involution(t *testing.T) {
	req := require.New(t)

	likes := []string{"alice"}
	likes = ToggleLike(likes, "bob")
	req.ElementsMatch([]string{"alice", "bob"}, likes)
	likes = ToggleLike(likes, "bob")
	req.ElementsMatch([]string{"alice"}, likes)
}

func Test_Normalize_Identities(t *testing.T) {
	req := require.New(t)

	req.Equal("alice", NormalizeIdentity("  Alice "))
	req.Equal(
		[]string{"alice", "bob"},
		NormalizeIdentities([]string{" Alice", "BOB", "alice", "  "}),
	)
}
