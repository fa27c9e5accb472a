package chat

import (
	"time"

	"github.com/samber/lo"
)

// Group is the membership document for a group conversation.
// Members, admins and banned are ordered, deduped identity slices.
// Invariants maintained by the group transitions:
//   - admins is a subset of members
//   - admins is never empty while members is non-empty
//   - banned and members are disjoint
type Group struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Members   []string  `json:"members"`
	Admins    []string  `json:"admins"`
	Banned    []string  `json:"banned"`
	CreatedAt time.Time `json:"createdAt"`
}

func (g Group) IsMember(identity string) bool {
	return lo.Contains(g.Members, identity)
}

func (g Group) IsAdmin(identity string) bool {
	return lo.Contains(g.Admins, identity)
}

func (g Group) IsBanned(identity string) bool {
	return lo.Contains(g.Banned, identity)
}
